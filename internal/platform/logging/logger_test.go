package logging

import (
	"bytes"
	"context"
	"errors"
	"testing"

	"github.com/bytedance/sonic"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"
	"go.uber.org/zap/zapcore"
)

func decodeLine(t *testing.T, buf *bytes.Buffer) map[string]any {
	t.Helper()
	var out map[string]any
	require.NoError(t, sonic.Unmarshal(bytes.TrimSpace(buf.Bytes()), &out))
	return out
}

func TestParseLevel(t *testing.T) {
	t.Parallel()

	level, err := ParseLevel("WARN")
	require.NoError(t, err)
	assert.Equal(t, LevelWarn, level)

	level, err = ParseLevel("")
	require.NoError(t, err)
	assert.Equal(t, LevelInfo, level)

	_, err = ParseLevel("loud")
	assert.Error(t, err)
}

func TestLogger_KeyValuesAndErrors(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(LevelDebug, &buf).With("component", "engine")
	logger.Warn("poll failed", "court_id", 3, "error", errors.New("timeout"))

	line := decodeLine(t, &buf)
	assert.Equal(t, "poll failed", line["msg"])
	assert.Equal(t, "warn", line["level"])
	assert.Equal(t, "engine", line["component"])
	assert.EqualValues(t, 3, line["court_id"])
	assert.Equal(t, "timeout", line["error"])
}

func TestLogger_LevelFilters(t *testing.T) {
	t.Parallel()

	var buf bytes.Buffer
	logger := New(LevelWarn, &buf)
	logger.Info("dropped")
	assert.Zero(t, buf.Len())
}

func TestLogger_ContextAddsTraceIDs(t *testing.T) {
	t.Parallel()

	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	ctx := trace.ContextWithSpanContext(context.Background(), trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	}))

	var buf bytes.Buffer
	New(LevelInfo, &buf).InfoContext(ctx, "advanced")

	line := decodeLine(t, &buf)
	assert.Equal(t, traceID.String(), line["trace_id"])
	assert.Equal(t, spanID.String(), line["span_id"])
}

func TestLogger_NilIsSafe(t *testing.T) {
	t.Parallel()

	var logger *Logger
	assert.NotPanics(t, func() {
		logger.Info("nothing")
		_ = logger.With("k", "v")
		_ = logger.Sync()
	})
}

func TestLogger_TeeWritesToBothCores(t *testing.T) {
	t.Parallel()

	var primary, shipped bytes.Buffer
	extra := zapcore.NewCore(JSONEncoder(), zapcore.AddSync(&shipped), LevelError)
	logger := New(LevelInfo, &primary).Tee(extra).With("service", "courtsync")

	logger.Info("court started", "court_id", 1)
	assert.Zero(t, shipped.Len(), "below the shipped core's level")
	assert.Equal(t, "court started", decodeLine(t, &primary)["msg"])

	primary.Reset()
	logger.Error("persist courts failed", "error", errors.New("db down"))
	line := decodeLine(t, &shipped)
	assert.Equal(t, "persist courts failed", line["msg"])
	assert.Equal(t, "courtsync", line["service"])
	assert.Equal(t, "db down", line["error"])
	assert.NotZero(t, primary.Len())

	assert.Same(t, logger, logger.Tee(nil))
}
