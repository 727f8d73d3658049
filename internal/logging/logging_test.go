package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestNewWithWriter_ProductionJSON(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, false)

	log.Debug("hidden")
	log.Info("sequence detected")
	_ = log.Sync()

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("got %d log lines, want 1: %q", len(lines), buf.String())
	}

	var entry map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &entry); err != nil {
		t.Fatalf("log line is not JSON: %v", err)
	}
	if entry["msg"] != "sequence detected" {
		t.Errorf("msg = %v, want %q", entry["msg"], "sequence detected")
	}
	if entry["level"] != "info" {
		t.Errorf("level = %v, want info", entry["level"])
	}
}

func TestNewWithWriter_DebugConsole(t *testing.T) {
	var buf bytes.Buffer
	log := NewWithWriter(&buf, true)

	log.Debug("window classified")
	_ = log.Sync()

	out := buf.String()
	if !strings.Contains(out, "DEBUG") {
		t.Errorf("debug output missing level: %q", out)
	}
	if !strings.Contains(out, "window classified") {
		t.Errorf("debug output missing message: %q", out)
	}
}
