package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"

	"github.com/rs/zerolog"
)

func TestParseLevel(t *testing.T) {
	tests := []struct {
		name string
		want zerolog.Level
	}{
		{"debug", zerolog.DebugLevel},
		{"info", zerolog.InfoLevel},
		{"warn", zerolog.WarnLevel},
		{"error", zerolog.ErrorLevel},
		{"verbose", zerolog.InfoLevel},
		{"", zerolog.InfoLevel},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := ParseLevel(tt.name); got != tt.want {
				t.Errorf("ParseLevel(%q) = %v, want %v", tt.name, got, tt.want)
			}
		})
	}
}

func TestNew(t *testing.T) {
	t.Run("writes JSON with timestamp", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "info", Output: &buf})

		log.Info().Str("component", "test").Msg("hello")

		var entry map[string]any
		if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
			t.Fatalf("Expected JSON log line, got %q: %v", buf.String(), err)
		}
		if entry["message"] != "hello" || entry["component"] != "test" {
			t.Errorf("Unexpected entry %v", entry)
		}
		if _, ok := entry["time"]; !ok {
			t.Error("Expected time field")
		}
	})

	t.Run("filters below the configured level", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "warn", Output: &buf})

		log.Info().Msg("dropped")
		log.Warn().Msg("kept")

		if strings.Contains(buf.String(), "dropped") || !strings.Contains(buf.String(), "kept") {
			t.Errorf("Unexpected output %q", buf.String())
		}
	})

	t.Run("pretty output is not JSON", func(t *testing.T) {
		var buf bytes.Buffer
		log := New(Config{Level: "info", Pretty: true, Output: &buf})

		log.Info().Msg("pretty")

		if strings.HasPrefix(buf.String(), "{") || !strings.Contains(buf.String(), "pretty") {
			t.Errorf("Expected console output, got %q", buf.String())
		}
	})
}
