package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNew(t *testing.T) {
	t.Run("json", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "JSON", false)
		l.Debug().Msg("hidden")
		l.Info().Str("network", "tel_4").Msg("Loaded networks")

		lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
		if len(lines) != 1 {
			t.Fatalf("Expected 1 line at info level, got %d: %q", len(lines), buf.String())
		}
		var entry map[string]any
		if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
			t.Fatalf("Expected JSON output: %v", err)
		}
		if entry["network"] != "tel_4" || entry["message"] != "Loaded networks" {
			t.Errorf("Unexpected entry: %v", entry)
		}
	})

	t.Run("console debug", func(t *testing.T) {
		var buf bytes.Buffer
		l := New(&buf, "CONSOLE", true)
		l.Debug().Msg("Path found")

		if !strings.Contains(buf.String(), "Path found") {
			t.Errorf("Expected debug message in console output, got %q", buf.String())
		}
		if strings.HasPrefix(buf.String(), "{") {
			t.Errorf("Expected console format, got %q", buf.String())
		}
	})
}
