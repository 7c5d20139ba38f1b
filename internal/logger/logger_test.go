package logger

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
)

func spanContext(t *testing.T) context.Context {
	t.Helper()
	traceID, err := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	require.NoError(t, err)
	spanID, err := trace.SpanIDFromHex("00f067aa0ba902b7")
	require.NoError(t, err)

	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	return trace.ContextWithSpanContext(context.Background(), sc)
}

func TestJSONHandler_AddsTraceContext(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, true))

	log.InfoContext(spanContext(t), "student created", "id_sv", 1234)

	var entry map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &entry))
	assert.Equal(t, "student created", entry["msg"])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", entry["trace_id"])
	assert.Equal(t, "00f067aa0ba902b7", entry["span_id"])
	assert.EqualValues(t, 1234, entry["id_sv"])
}

func TestJSONHandler_WithoutSpan(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, true))

	log.Info("plain")

	assert.NotContains(t, buf.String(), "trace_id")
}

func TestTextHandler_ColorsErrors(t *testing.T) {
	var buf bytes.Buffer
	log := slog.New(newHandler(&buf, false)).With("service", "student-registry")

	log.Error("boom", "error", "db down")
	log.Info("fine")

	lines := strings.Split(strings.TrimSpace(buf.String()), "\n")
	require.Len(t, lines, 2)
	assert.Contains(t, lines[0], "\x1b[31mboom\x1b[0m")
	assert.Contains(t, lines[0], "service=student-registry")
	assert.Contains(t, lines[0], `error="db down"`)
	assert.NotContains(t, lines[1], "\x1b[31m")
}
