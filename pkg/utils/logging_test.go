package utils

import (
	"bytes"
	"errors"
	"path/filepath"
	"strings"
	"testing"

	"github.com/fatih/color"
	"github.com/sirupsen/logrus"
)

func TestLoggerOutput(t *testing.T) {
	color.NoColor = true

	var buf bytes.Buffer
	logger := NewLoggerTo(&buf, true)

	logger.Success("created %s", "rack-1")
	logger.Error("failed to save", errors.New("boom"))
	logger.DryRun("POST", "device %s", "web01")

	out := buf.String()
	for _, want := range []string{"✓ created rack-1", "✗ failed to save: boom", "[DRY-RUN] POST: device web01"} {
		if !strings.Contains(out, want) {
			t.Errorf("output %q does not contain %q", out, want)
		}
	}
	if !logger.DryRunEnabled() {
		t.Error("DryRunEnabled() = false, expected true")
	}
}

func TestNewStructuredLogger(t *testing.T) {
	tests := []struct {
		name    string
		opts    LogOptions
		level   logrus.Level
		json    bool
		wantErr bool
	}{
		{
			name:  "defaults",
			opts:  LogOptions{},
			level: logrus.InfoLevel,
		},
		{
			name:  "json debug",
			opts:  LogOptions{Level: "debug", Format: "json"},
			level: logrus.DebugLevel,
			json:  true,
		},
		{
			name:    "invalid level",
			opts:    LogOptions{Level: "loud"},
			wantErr: true,
		},
		{
			name:    "invalid format",
			opts:    LogOptions{Format: "xml"},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, err := NewStructuredLogger(tt.opts)
			if tt.wantErr {
				if err == nil {
					t.Error("NewStructuredLogger() expected error, got nil")
				}
				return
			}
			if err != nil {
				t.Fatalf("NewStructuredLogger() error = %v", err)
			}
			if logger.GetLevel() != tt.level {
				t.Errorf("level = %v, expected %v", logger.GetLevel(), tt.level)
			}
			_, isJSON := logger.Formatter.(*logrus.JSONFormatter)
			if isJSON != tt.json {
				t.Errorf("json formatter = %v, expected %v", isJSON, tt.json)
			}
		})
	}
}

func TestNewStructuredLoggerFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "logs", "topology.log")
	logger, err := NewStructuredLogger(LogOptions{File: path})
	if err != nil {
		t.Fatalf("NewStructuredLogger() error = %v", err)
	}
	logger.Info("hello")
}
