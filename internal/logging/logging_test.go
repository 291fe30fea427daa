package logging

import (
	"bytes"
	"context"
	"log/slog"
	"strings"
	"testing"
)

func TestContextRoundTrip(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithLevel(&buf, "debug")
	if err != nil {
		t.Fatalf("NewWithLevel: %v", err)
	}
	ctx := NewContext(context.Background(), l)
	FromContext(ctx).Debug("tick", "n", 1)
	if !strings.Contains(buf.String(), "msg=tick") {
		t.Fatalf("expected log line, got %q", buf.String())
	}
	if FromContext(context.Background()) != slog.Default() {
		t.Fatalf("expected default logger for bare context")
	}
}

func TestLevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	l, err := NewWithLevel(&buf, "warn")
	if err != nil {
		t.Fatalf("NewWithLevel: %v", err)
	}
	l.Info("hidden")
	l.Warn("shown")
	if strings.Contains(buf.String(), "hidden") || !strings.Contains(buf.String(), "shown") {
		t.Fatalf("unexpected output %q", buf.String())
	}
	if _, err := NewWithLevel(&buf, "loud"); err == nil {
		t.Fatalf("expected error for unknown level")
	}
}
