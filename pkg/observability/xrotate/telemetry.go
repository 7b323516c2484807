package xrotate

import (
	"context"
	"fmt"

	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/metric"
)

const (
	instrumentationName = "github.com/omeyang/xlogkit/xrotate"

	metricRotateTotal    = "xlogkit.rotate.total"
	metricRotateFailures = "xlogkit.rotate.failures"
)

// 内务失败阶段
const (
	stageName     = "name"
	stageRename   = "rename"
	stageCompress = "compress"
)

// telemetry 轮转指标
//
// 指标记录只是旁路观测，任何失败都不影响写入路径。
type telemetry struct {
	total    metric.Int64Counter
	failures metric.Int64Counter
	attrs    attribute.Set
}

// newTelemetry 创建轮转指标，provider 为 nil 时使用全局 MeterProvider
func newTelemetry(provider metric.MeterProvider, path string) (*telemetry, error) {
	if provider == nil {
		provider = otel.GetMeterProvider()
	}
	meter := provider.Meter(instrumentationName)

	total, err := meter.Int64Counter(
		metricRotateTotal,
		metric.WithDescription("log file rotations"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrotate: create counter failed: %w", err)
	}

	failures, err := meter.Int64Counter(
		metricRotateFailures,
		metric.WithDescription("swallowed rotation housekeeping failures"),
		metric.WithUnit("1"),
	)
	if err != nil {
		return nil, fmt.Errorf("xrotate: create counter failed: %w", err)
	}

	return &telemetry{
		total:    total,
		failures: failures,
		attrs:    attribute.NewSet(attribute.String("file", path)),
	}, nil
}

func (t *telemetry) rotated(ok, compressed bool) {
	result := "ok"
	if !ok {
		result = "error"
	}
	t.total.Add(context.Background(), 1,
		metric.WithAttributeSet(t.attrs),
		metric.WithAttributes(
			attribute.String("result", result),
			attribute.Bool("compressed", compressed),
		),
	)
}

func (t *telemetry) failed(stage string) {
	t.failures.Add(context.Background(), 1,
		metric.WithAttributeSet(t.attrs),
		metric.WithAttributes(attribute.String("stage", stage)),
	)
}
