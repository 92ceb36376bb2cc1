package logging

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/google/uuid"
	"go.opentelemetry.io/otel/trace"
)

func TestLevelFromString(t *testing.T) {
	t.Parallel()

	tests := map[string]slog.Level{
		"error":   slog.LevelError,
		" WARN ":  slog.LevelWarn,
		"warning": slog.LevelWarn,
		"info":    slog.LevelInfo,
		"debug":   slog.LevelDebug,
		"":        slog.LevelDebug,
	}
	for in, want := range tests {
		if got := levelFromString(in); got != want {
			t.Fatalf("levelFromString(%q): expected %v, got %v", in, want, got)
		}
	}
}

func TestJSONLoggerAddsContextFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := NewWithWriter(&buf, "info", "json")

	articleID, outletID := uuid.New(), uuid.New()
	ctx := WithOutlet(WithArticle(context.Background(), articleID), outletID)

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx = trace.ContextWithSpanContext(ctx, trace.NewSpanContext(trace.SpanContextConfig{
		TraceID: traceID,
		SpanID:  spanID,
	}))

	logger.With("component", "test").InfoContext(ctx, "scored", "final_score", 88)
	logger.DebugContext(ctx, "dropped below level")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	if len(lines) != 1 {
		t.Fatalf("expected one record, got %d: %s", len(lines), buf.String())
	}

	var rec map[string]any
	if err := json.Unmarshal([]byte(lines[0]), &rec); err != nil {
		t.Fatalf("record is not JSON: %v", err)
	}
	want := map[string]string{
		"msg":        "scored",
		"component":  "test",
		"article_id": articleID.String(),
		"outlet_id":  outletID.String(),
		"trace_id":   traceID.String(),
		"span_id":    spanID.String(),
	}
	for key, value := range want {
		if rec[key] != value {
			t.Fatalf("%s: expected %q, got %v", key, value, rec[key])
		}
	}
}

func TestTextLoggerWithoutContextFields(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	NewWithWriter(&buf, "debug", "text").Info("plain")

	out := buf.String()
	if !strings.Contains(out, "msg=plain") || strings.Contains(out, "article_id") || strings.Contains(out, "trace_id") {
		t.Fatalf("unexpected text record %q", out)
	}
}
