package utils

import (
	"testing"
)

func TestSlugify(t *testing.T) {
	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{
			name:     "simple lowercase",
			input:    "simple",
			expected: "simple",
		},
		{
			name:     "uppercase to lowercase",
			input:    "UPPERCASE",
			expected: "uppercase",
		},
		{
			name:     "spaces to hyphens",
			input:    "hello world",
			expected: "hello-world",
		},
		{
			name:     "underscores to hyphens",
			input:    "rack_a01",
			expected: "rack-a01",
		},
		{
			name:     "special characters removed",
			input:    "test@#$%123",
			expected: "test123",
		},
		{
			name:     "surrounding whitespace",
			input:    "  Rack 1 ",
			expected: "rack-1",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := Slugify(tt.input)
			if result != tt.expected {
				t.Errorf("Slugify(%q) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestIDOf(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected uint
	}{
		{
			name:     "integer",
			input:    42,
			expected: 42,
		},
		{
			name:     "float64 from JSON",
			input:    27.0,
			expected: 27,
		},
		{
			name:     "numeric string",
			input:    "15",
			expected: 15,
		},
		{
			name:     "nested object",
			input:    map[string]interface{}{"id": 200.0, "name": "Site A"},
			expected: 200,
		},
		{
			name:     "nil",
			input:    nil,
			expected: 0,
		},
		{
			name:     "negative",
			input:    -3,
			expected: 0,
		},
		{
			name:     "object without id",
			input:    map[string]interface{}{"name": "test"},
			expected: 0,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := IDOf(tt.input)
			if result != tt.expected {
				t.Errorf("IDOf(%v) = %d, expected %d", tt.input, result, tt.expected)
			}
		})
	}
}

func TestOptionalID(t *testing.T) {
	if id := OptionalID(nil); id != nil {
		t.Errorf("OptionalID(nil) = %d, expected nil", *id)
	}
	id := OptionalID(map[string]interface{}{"id": 9.0})
	if id == nil || *id != 9 {
		t.Errorf("OptionalID() = %v, expected 9", id)
	}
}

func TestChoiceValue(t *testing.T) {
	tests := []struct {
		name     string
		input    interface{}
		expected string
	}{
		{
			name:     "nested choice",
			input:    map[string]interface{}{"value": "front", "label": "Front"},
			expected: "front",
		},
		{
			name:     "plain string",
			input:    "rear",
			expected: "rear",
		},
		{
			name:     "null",
			input:    nil,
			expected: "",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			result := ChoiceValue(tt.input)
			if result != tt.expected {
				t.Errorf("ChoiceValue(%v) = %q, expected %q", tt.input, result, tt.expected)
			}
		})
	}
}

func TestFields(t *testing.T) {
	obj := map[string]interface{}{
		"name":         "eth0",
		"manufacturer": map[string]interface{}{"id": 1.0, "name": "ACME"},
		"position":     10.5,
		"u_height":     "2.0",
		"positions":    4.0,
		"desc_units":   true,
		"rack":         nil,
	}

	if got := StringField(obj, "name"); got != "eth0" {
		t.Errorf("StringField(name) = %q, expected %q", got, "eth0")
	}
	if got := StringField(obj, "manufacturer"); got != "ACME" {
		t.Errorf("StringField(manufacturer) = %q, expected %q", got, "ACME")
	}
	if got := FloatField(obj, "position"); got == nil || *got != 10.5 {
		t.Errorf("FloatField(position) = %v, expected 10.5", got)
	}
	if got := FloatField(obj, "u_height"); got == nil || *got != 2 {
		t.Errorf("FloatField(u_height) = %v, expected 2", got)
	}
	if got := FloatField(obj, "rack"); got != nil {
		t.Errorf("FloatField(rack) = %v, expected nil", *got)
	}
	if got := IntField(obj, "positions"); got != 4 {
		t.Errorf("IntField(positions) = %d, expected 4", got)
	}
	if !BoolField(obj, "desc_units") || BoolField(obj, "missing") {
		t.Error("BoolField() returned unexpected values")
	}
	if !BoolFieldDefault(obj, "missing", true) || !BoolFieldDefault(obj, "rack", true) {
		t.Error("BoolFieldDefault() ignored the default for a missing or null key")
	}
	if !BoolFieldDefault(obj, "desc_units", false) {
		t.Error("BoolFieldDefault(desc_units) = false, expected true")
	}
}
