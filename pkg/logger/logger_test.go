package logger

import (
	"bytes"
	"strings"
	"testing"
)

func TestLoggerLevels(t *testing.T) {
	t.Run("messages below level suppressed", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithOutput(WARN, &buf)

		log.Debug("debug message")
		log.Info("info message")

		if buf.Len() != 0 {
			t.Fatalf("expected no output, got %q", buf.String())
		}
	})

	t.Run("messages at and above level written", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithOutput(WARN, &buf)

		log.Warn("warn message")
		log.Error("error message")

		out := buf.String()
		if !strings.Contains(out, "[WARN]") || !strings.Contains(out, "warn message") {
			t.Fatalf("warn entry missing from %q", out)
		}
		if !strings.Contains(out, "[ERROR]") || !strings.Contains(out, "error message") {
			t.Fatalf("error entry missing from %q", out)
		}
	})

	t.Run("format arguments applied", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithOutput(INFO, &buf)

		log.Info("payment %s reconciled to %s", "1700000000_abc12345", "paid")

		if !strings.Contains(buf.String(), "payment 1700000000_abc12345 reconciled to paid") {
			t.Fatalf("formatted message missing from %q", buf.String())
		}
	})

	t.Run("entry names the caller file", func(t *testing.T) {
		var buf bytes.Buffer
		log := NewWithOutput(INFO, &buf)

		log.Info("caller check")

		if !strings.Contains(buf.String(), "logger_test.go:") {
			t.Fatalf("caller info missing from %q", buf.String())
		}
	})
}
