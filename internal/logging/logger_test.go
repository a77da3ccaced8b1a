package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestConsoleHandlerFormatsComponentPrefix(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger = logger.With(String(FieldComponent, "unifier"))
	logger.Info("merged record", String(FieldCompositeKey, "Reef A_2024-01-15_09:30"))

	out := buf.String()
	if !strings.Contains(out, "INFO unifier: merged record") {
		t.Fatalf("unexpected output: %q", out)
	}
	if !strings.Contains(out, `composite_key="Reef A_2024-01-15_09:30"`) {
		t.Fatalf("expected quoted composite key attr, got %q", out)
	}
}

func TestConsoleHandlerRespectsLevel(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelWarn)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("should be dropped")
	logger.Warn("should appear")

	out := buf.String()
	if strings.Contains(out, "should be dropped") {
		t.Fatalf("info record should have been filtered: %q", out)
	}
	if !strings.Contains(out, "WARN should appear") {
		t.Fatalf("warn record missing: %q", out)
	}
}

func TestNewRejectsUnknownFormat(t *testing.T) {
	if _, err := New(Options{Format: "xml"}); err == nil {
		t.Fatal("expected error for unsupported format")
	}
}

func TestNopLoggerDiscards(t *testing.T) {
	logger := NewNop()
	if logger.Enabled(context.Background(), slog.LevelError) {
		t.Fatal("nop logger should not be enabled at any level")
	}
}

func TestGroupAttrsFlatten(t *testing.T) {
	var buf bytes.Buffer
	levelVar := new(slog.LevelVar)
	logger := slog.New(newConsoleHandler(&buf, levelVar))

	logger.Info("stats", slog.Group("queue", Int("pending", 3), Int("failed", 1)))

	out := buf.String()
	if !strings.Contains(out, "queue.pending=3") || !strings.Contains(out, "queue.failed=1") {
		t.Fatalf("expected flattened group keys, got %q", out)
	}
}
