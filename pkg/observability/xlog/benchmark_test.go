package xlog_test

import (
	"context"
	"io"
	"log/slog"
	"testing"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

func BenchmarkLogger_Info(b *testing.B) {
	h, err := xlog.NewWriterHandler(io.Discard)
	if err != nil {
		b.Fatal(err)
	}
	logger, cleanup, err := xlog.New().PushHandler(h).Build()
	if err != nil {
		b.Fatal(err)
	}
	defer cleanup()

	ctx := context.Background()
	b.ReportAllocs()
	for b.Loop() {
		logger.Info(ctx, "benchmark", slog.String("k", "v"), slog.Int("n", 1))
	}
}

func BenchmarkLogger_Disabled(b *testing.B) {
	h, err := xlog.NewWriterHandler(io.Discard, xlog.WithMinLevel(xlog.LevelError))
	if err != nil {
		b.Fatal(err)
	}
	logger, cleanup, err := xlog.New().PushHandler(h).Build()
	if err != nil {
		b.Fatal(err)
	}
	defer cleanup()

	ctx := context.Background()
	b.ReportAllocs()
	for b.Loop() {
		logger.Debug(ctx, "dropped", slog.String("k", "v"))
	}
}

func BenchmarkJSONFormatter(b *testing.B) {
	f := xlog.NewJSONFormatter(true)
	r := sampleRecord()

	b.ReportAllocs()
	for b.Loop() {
		_, _ = f.Format(r)
	}
}
