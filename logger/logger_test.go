package logger

import (
	"bytes"
	"encoding/json"
	"strings"
	"testing"
	"time"
)

func TestStdLogger(t *testing.T) {
	t.Run("TextFormat", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := NewStdLogger()
		l.SetLevel(LogLevelInfo)
		l.SetOutput(buf)
		l.SetFormat(LogFormatText)
		l.Info("hello %s", "world")

		output := buf.String()
		if !strings.Contains(output, "INFO") || !strings.Contains(output, "hello world") {
			t.Errorf("Unexpected text output: %s", output)
		}
		if !strings.Contains(output, "[DBCP]") {
			t.Errorf("Missing prefix in output: %s", output)
		}
	})

	t.Run("JSONFormat", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := NewStdLogger()
		l.SetLevel(LogLevelInfo)
		l.SetOutput(buf)
		l.SetFormat(LogFormatJSON)
		l.Info("hello %s", "world")

		var data map[string]any
		if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
			t.Fatalf("Failed to unmarshal JSON output: %v", err)
		}
		if data["level"] != "INFO" || data["msg"] != "hello world" {
			t.Errorf("Unexpected JSON output: %v", data)
		}
		if _, ok := data["time"]; !ok {
			t.Errorf("Missing time field in JSON output")
		}
	})

	t.Run("WithFields", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := NewStdLogger()
		l.SetLevel(LogLevelInfo)
		l.SetOutput(buf)
		l.SetFormat(LogFormatJSON)
		l2 := l.WithFields(map[string]any{"partition": 3})
		l2.Info("reclaimed")

		var data map[string]any
		if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
			t.Fatalf("Failed to unmarshal JSON output: %v", err)
		}
		if data["partition"] != float64(3) {
			t.Errorf("Missing field in JSON output: %v", data)
		}
		// The original logger is unchanged.
		buf.Reset()
		l.Info("plain")
		data = map[string]any{}
		if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
			t.Fatal(err)
		}
		if _, ok := data["partition"]; ok {
			t.Error("WithFields mutated the parent logger")
		}
	})

	t.Run("SQLFormat", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := NewStdLogger()
		l.SetOutput(buf)
		l.SetFormat(LogFormatJSON)
		l.SQL("SELECT 1", 5*time.Millisecond, 42)

		var data map[string]any
		if err := json.Unmarshal(buf.Bytes(), &data); err != nil {
			t.Fatalf("Failed to unmarshal JSON output: %v", err)
		}
		if data["sql"] != "SELECT 1" {
			t.Errorf("Unexpected SQL field: %v", data)
		}
		if data["duration"] != "5ms" {
			t.Errorf("Unexpected duration field: %v", data)
		}
	})

	t.Run("LevelFiltering", func(t *testing.T) {
		buf := &bytes.Buffer{}
		l := NewStdLogger()
		l.SetOutput(buf)
		l.SetLevel(LogLevelError)
		l.Info("not visible")
		l.Warn("not visible")
		if buf.Len() != 0 {
			t.Errorf("Info/Warn leaked at error level: %s", buf.String())
		}
		l.Error("visible")
		if !strings.Contains(buf.String(), "visible") {
			t.Errorf("Error suppressed: %s", buf.String())
		}
	})
}

func TestNopLogger(t *testing.T) {
	l := NewNopLogger()
	// Must be safe to call without any setup.
	l.Info("discarded %d", 1)
	l.Warn("discarded")
	l.Error("discarded")
	l.SQL("SELECT 1", time.Millisecond)
}
