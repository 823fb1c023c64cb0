package logging

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
)

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: HumanFormat, Level: WarnLevel, Output: &buf})

	logger.Debug("debug msg", nil)
	logger.Info("info msg", nil)
	logger.Warn("warn msg", nil)
	logger.Error("error msg", nil)

	out := buf.String()
	if strings.Contains(out, "debug msg") || strings.Contains(out, "info msg") {
		t.Errorf("messages below warn should be filtered, got %q", out)
	}
	if !strings.Contains(out, "warn msg") || !strings.Contains(out, "error msg") {
		t.Errorf("warn and error should be logged, got %q", out)
	}
}

func TestJSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: InfoLevel, Output: &buf})

	logger.Info("hello", map[string]interface{}{"file": "main.go"})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	if entry["message"] != "hello" {
		t.Errorf("message = %v, want hello", entry["message"])
	}
	fields, ok := entry["fields"].(map[string]interface{})
	if !ok || fields["file"] != "main.go" {
		t.Errorf("fields = %v, want file=main.go", entry["fields"])
	}
}

func TestWithScope(t *testing.T) {
	var buf bytes.Buffer
	logger := NewLogger(Config{Format: JSONFormat, Level: InfoLevel, Output: &buf})
	scoped := logger.With(map[string]interface{}{"requestId": "abc-123"})

	scoped.Info("scoped entry", map[string]interface{}{"extra": 1})

	var entry map[string]interface{}
	if err := json.Unmarshal(buf.Bytes(), &entry); err != nil {
		t.Fatalf("output is not valid JSON: %v", err)
	}
	fields := entry["fields"].(map[string]interface{})
	if fields["requestId"] != "abc-123" {
		t.Errorf("scoped field missing: %v", fields)
	}
	if fields["extra"] != float64(1) {
		t.Errorf("per-call field missing: %v", fields)
	}

	// Scope must not leak back to the parent logger.
	buf.Reset()
	logger.Info("parent entry", nil)
	if strings.Contains(buf.String(), "requestId") {
		t.Error("parent logger should not carry scoped fields")
	}
}
