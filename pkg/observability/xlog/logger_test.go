package xlog_test

import (
	"bytes"
	"context"
	"encoding/json"
	"log/slog"
	"path/filepath"
	"strings"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.opentelemetry.io/otel/trace"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// =============================================================================
// Logger 接口测试
// =============================================================================

func TestLogger_BasicLogging(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().
		SetOutput(&buf).
		SetLevel(xlog.LevelDebug).
		Build()
	if err != nil {
		t.Fatalf("Build() error: %v", err)
	}
	testCleanup(t, cleanup)

	ctx := context.Background()
	logger.Debug(ctx, "debug message")
	logger.Info(ctx, "info message")
	logger.Warn(ctx, "warn message")
	logger.Error(ctx, "error message")

	output := buf.String()
	for _, want := range []string{
		"app.DEBUG: debug message",
		"app.INFO: info message",
		"app.WARN: warn message",
		"app.ERROR: error message",
	} {
		if !strings.Contains(output, want) {
			t.Errorf("output missing %q\noutput: %s", want, output)
		}
	}
}

func TestLogger_LevelFiltering(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetOutput(&buf).SetLevelString("warning").Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	ctx := context.Background()
	logger.Info(ctx, "hidden")
	require.NoError(t, logger.Log(ctx, xlog.LevelNotice, "hidden too"))
	logger.Warn(ctx, "shown")

	assert.NotContains(t, buf.String(), "hidden")
	assert.Contains(t, buf.String(), "shown")

	// 动态调整
	logger.SetLevel(xlog.LevelNotice)
	assert.Equal(t, xlog.LevelNotice, logger.GetLevel())
	assert.True(t, logger.Enabled(ctx, xlog.LevelNotice))
	require.NoError(t, logger.Log(ctx, xlog.LevelNotice, "notice now"))
	assert.Contains(t, buf.String(), "app.NOTICE: notice now")
}

func TestLogger_LogReturnsWriteError(t *testing.T) {
	var called atomic.Int32
	logger, cleanup, err := xlog.New().
		SetOutput(errWriter{}).
		SetOnError(func(error) { called.Add(1) }).
		Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	ctx := context.Background()
	err = logger.Log(ctx, xlog.LevelError, "lost")
	assert.ErrorIs(t, err, errDiskFull)
	assert.Zero(t, called.Load(), "Log surfaces the error instead of calling onError")

	logger.Info(ctx, "lost too")
	assert.Equal(t, int32(1), called.Load())
}

func TestLogger_OnErrorPanicIsolated(t *testing.T) {
	logger, cleanup, err := xlog.New().
		SetOutput(errWriter{}).
		SetOnError(func(error) { panic("boom") }).
		Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	assert.NotPanics(t, func() { logger.Error(context.Background(), "x") })
}

func TestLogger_WithAndGroup(t *testing.T) {
	h := newCapture(xlog.LevelDebug, true)
	logger, cleanup, err := xlog.New().SetEnrich(false).PushHandler(h).Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	child := logger.With(slog.String("svc", "api")).WithGroup("req")
	child.Info(context.Background(), "handled", slog.Int("status", 200))

	recs := h.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, map[string]any{
		"svc": "api",
		"req": map[string]any{"status": int64(200)},
	}, recs[0].Context)

	// 派生 logger 共享级别
	lwl, ok := child.(xlog.LoggerWithLevel)
	require.True(t, ok)
	lwl.SetLevel(xlog.LevelError)
	assert.Equal(t, xlog.LevelError, logger.GetLevel())

	assert.Same(t, logger, logger.With())
	assert.Same(t, logger, logger.WithGroup(""))
}

func TestLogger_Stack(t *testing.T) {
	h := newCapture(xlog.LevelDebug, true)
	logger, cleanup, err := xlog.New().PushHandler(h).Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.Stack(context.Background(), "with stack")

	recs := h.Records()
	require.Len(t, recs, 1)
	assert.Equal(t, xlog.LevelError, recs[0].Level)
	stack, _ := recs[0].Context[xlog.KeyStack].(string)
	assert.Contains(t, stack, "goroutine")
}

func TestLogger_AddSource(t *testing.T) {
	h := newCapture(xlog.LevelDebug, true)
	logger, cleanup, err := xlog.New().SetAddSource(true).PushHandler(h).Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.Info(context.Background(), "where")
	require.NoError(t, logger.Log(context.Background(), xlog.LevelInfo, "where log"))

	for _, r := range h.Records() {
		src, _ := r.Extra[xlog.KeySource].(string)
		assert.Contains(t, src, "logger_test.go:", r.Message)
	}
}

func TestLogger_Processors(t *testing.T) {
	h := newCapture(xlog.LevelDebug, true)
	uid, err := xlog.NewUIDProcessor(xlog.DefaultUIDLength)
	require.NoError(t, err)

	logger, cleanup, err := xlog.New().
		PushHandler(h).
		PushProcessor(uid).
		PushProcessor(xlog.PIDProcessor()).
		PushProcessor(xlog.HostnameProcessor()).
		Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	ctx := context.Background()
	logger.Info(ctx, "one")
	logger.Info(ctx, "two")

	recs := h.Records()
	require.Len(t, recs, 2)
	assert.Len(t, recs[0].Extra[xlog.KeyUID], xlog.DefaultUIDLength)
	assert.Equal(t, recs[0].Extra[xlog.KeyUID], recs[1].Extra[xlog.KeyUID], "uid is stable per processor")
	assert.NotZero(t, recs[0].Extra[xlog.KeyProcessID])
	assert.Contains(t, recs[0].Extra, xlog.KeyHostname)
}

func TestLogger_TraceEnrichment(t *testing.T) {
	traceID, _ := trace.TraceIDFromHex("4bf92f3577b34da6a3ce929d0e0e4736")
	spanID, _ := trace.SpanIDFromHex("00f067aa0ba902b7")
	sc := trace.NewSpanContext(trace.SpanContextConfig{
		TraceID:    traceID,
		SpanID:     spanID,
		TraceFlags: trace.FlagsSampled,
	})
	ctx := trace.ContextWithSpanContext(context.Background(), sc)

	h := newCapture(xlog.LevelDebug, true)
	logger, cleanup, err := xlog.New().
		PushHandler(h).
		PushProcessor(xlog.TraceProcessor()).
		Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.Info(ctx, "traced")
	logger.Info(context.Background(), "untraced")

	recs := h.Records()
	require.Len(t, recs, 2)
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", recs[0].Context[xlog.KeyTraceID])
	assert.Equal(t, "00f067aa0ba902b7", recs[0].Context[xlog.KeySpanID])
	assert.Equal(t, "01", recs[0].Context[xlog.KeyTraceFlags])
	assert.Equal(t, "4bf92f3577b34da6a3ce929d0e0e4736", recs[0].Extra[xlog.KeyTraceID])

	assert.NotContains(t, recs[1].Context, xlog.KeyTraceID)
	assert.NotContains(t, recs[1].Extra, xlog.KeyTraceID)
}

func TestNewUIDProcessor_InvalidLength(t *testing.T) {
	for _, n := range []int{0, -1, 33} {
		_, err := xlog.NewUIDProcessor(n)
		assert.ErrorIs(t, err, xlog.ErrInvalidUIDLength, "length %d", n)
	}
}

func TestNewEnrichHandler_Nil(t *testing.T) {
	_, err := xlog.NewEnrichHandler(nil)
	assert.ErrorIs(t, err, xlog.ErrNilHandler)
}

// =============================================================================
// Builder 测试
// =============================================================================

func TestBuilder_FirstErrorWins(t *testing.T) {
	_, _, err := xlog.New().
		SetLevelString("bogus").
		SetFormat("xml").
		Build()
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown level")
}

func TestBuilder_InvalidInputs(t *testing.T) {
	tests := []struct {
		name string
		b    *xlog.Builder
	}{
		{"输出为 nil", xlog.New().SetOutput(nil)},
		{"handler 为 nil", xlog.New().PushHandler(nil)},
		{"processor 为 nil", xlog.New().PushProcessor(nil)},
		{"未知格式", xlog.New().SetFormat("xml")},
		{"轮转文件名为空", xlog.New().SetRotation("")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			logger, cleanup, err := tt.b.Build()
			assert.Error(t, err)
			assert.Nil(t, logger)
			assert.Nil(t, cleanup)
		})
	}
}

func TestBuilder_JSONFormat(t *testing.T) {
	var buf bytes.Buffer
	logger, cleanup, err := xlog.New().SetChannel("api").SetOutput(&buf).SetFormat(" JSON ").Build()
	require.NoError(t, err)
	testCleanup(t, cleanup)

	logger.Info(context.Background(), "json line", slog.String("k", "v"))

	var got map[string]any
	require.NoError(t, json.Unmarshal(buf.Bytes(), &got))
	assert.Equal(t, "api", got["channel"])
	assert.Equal(t, map[string]any{"k": "v"}, got["context"])
}

func TestBuilder_SetRotation(t *testing.T) {
	dir := t.TempDir()
	path := filepath.Join(dir, "rot.log")
	logger, cleanup, err := xlog.New().
		SetRotation(path, xrotate.WithMaxSizeMB(0.00001)).
		Build()
	require.NoError(t, err)

	ctx := context.Background()
	require.NoError(t, logger.Log(ctx, xlog.LevelInfo, "first"))
	require.NoError(t, logger.Log(ctx, xlog.LevelInfo, "second"))

	require.NoError(t, cleanup())
	require.NoError(t, cleanup(), "cleanup is idempotent")
	assert.FileExists(t, filepath.Join(dir, "rot-"+today()+".log"))
}

func TestBuilder_CleanupClosesHandlers(t *testing.T) {
	a := newCapture(xlog.LevelDebug, true)
	b := newCapture(xlog.LevelDebug, true)
	_, cleanup, err := xlog.New().PushHandler(a).PushHandler(b).Build()
	require.NoError(t, err)

	require.NoError(t, cleanup())
	require.NoError(t, cleanup())
	assert.Equal(t, 1, a.closed)
	assert.Equal(t, 1, b.closed)
}
