package utils

import (
	"fmt"
	"strings"
)

// Slugify converts a string to a URL-safe slug
func Slugify(s string) string {
	s = strings.ToLower(strings.TrimSpace(s))
	s = strings.ReplaceAll(s, " ", "-")
	s = strings.ReplaceAll(s, "_", "-")
	// Remove any characters that aren't alphanumeric or hyphens
	var result strings.Builder
	for _, char := range s {
		if (char >= 'a' && char <= 'z') || (char >= '0' && char <= '9') || char == '-' {
			result.WriteRune(char)
		}
	}
	return result.String()
}

// IDOf extracts an ID from the shapes NetBox uses for references: a bare number, a
// numeric string, or a nested object with an "id" key
func IDOf(obj interface{}) uint {
	switch v := obj.(type) {
	case nil:
		return 0
	case int:
		if v > 0 {
			return uint(v)
		}
	case uint:
		return v
	case float64:
		if v > 0 {
			return uint(v)
		}
	case string:
		var id uint
		if _, err := fmt.Sscanf(v, "%d", &id); err == nil {
			return id
		}
	case map[string]interface{}:
		return IDOf(v["id"])
	}
	return 0
}

// OptionalID is IDOf for nullable references
func OptionalID(obj interface{}) *uint {
	id := IDOf(obj)
	if id == 0 {
		return nil
	}
	return &id
}

// ChoiceValue returns the value of a NetBox choice field ({"value": ..., "label": ...})
// or the plain string when the field is not nested
func ChoiceValue(obj interface{}) string {
	switch v := obj.(type) {
	case string:
		return v
	case map[string]interface{}:
		if value, ok := v["value"].(string); ok {
			return value
		}
	}
	return ""
}

// StringField returns a string field, or the name or model of a nested object
func StringField(obj map[string]interface{}, key string) string {
	switch v := obj[key].(type) {
	case string:
		return v
	case map[string]interface{}:
		for _, k := range []string{"name", "model", "slug"} {
			if s, ok := v[k].(string); ok {
				return s
			}
		}
	}
	return ""
}

// FloatField returns a numeric field; a missing or null field yields nil
func FloatField(obj map[string]interface{}, key string) *float64 {
	switch v := obj[key].(type) {
	case float64:
		return &v
	case int:
		f := float64(v)
		return &f
	case string:
		var f float64
		if _, err := fmt.Sscanf(v, "%g", &f); err == nil {
			return &f
		}
	}
	return nil
}

// IntField returns a numeric field as int, zero when missing
func IntField(obj map[string]interface{}, key string) int {
	if f := FloatField(obj, key); f != nil {
		return int(*f)
	}
	return 0
}

// BoolField returns a boolean field, false when missing
func BoolField(obj map[string]interface{}, key string) bool {
	b, _ := obj[key].(bool)
	return b
}

// BoolFieldDefault is BoolField with a fallback for a missing or null key
func BoolFieldDefault(obj map[string]interface{}, key string, def bool) bool {
	b, ok := obj[key].(bool)
	if !ok {
		return def
	}
	return b
}
