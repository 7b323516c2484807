package xlog

import (
	"context"
	"errors"
	"log/slog"

	"go.opentelemetry.io/otel/trace"
)

var _ slog.Handler = (*EnrichHandler)(nil)

// ErrNilHandler NewEnrichHandler 的 base 为 nil
var ErrNilHandler = errors.New("xlog: base handler is nil")

// EnrichHandler 把 context 中的 span 信息作为属性追加到记录上
//
// 属性经 Stack 展开后进入 Record.Context，调用 WithGroup 之后会落在分组内。
// 需要固定在顶层的 trace_id 时使用 TraceProcessor，它写入 Record.Extra。
type EnrichHandler struct {
	next slog.Handler
}

func NewEnrichHandler(next slog.Handler) (*EnrichHandler, error) {
	if next == nil {
		return nil, ErrNilHandler
	}
	return &EnrichHandler{next: next}, nil
}

func (h *EnrichHandler) Enabled(ctx context.Context, level slog.Level) bool {
	return h.next.Enabled(ctx, level)
}

func (h *EnrichHandler) Handle(ctx context.Context, r slog.Record) error {
	if sc, ok := spanContext(ctx); ok {
		// slog 约定：修改前先 Clone，避免与其他 handler 共享属性切片
		r = r.Clone()
		r.AddAttrs(
			slog.String(KeyTraceID, sc.TraceID().String()),
			slog.String(KeySpanID, sc.SpanID().String()),
			slog.String(KeyTraceFlags, sc.TraceFlags().String()),
		)
	}
	return h.next.Handle(ctx, r)
}

func (h *EnrichHandler) WithAttrs(attrs []slog.Attr) slog.Handler {
	return &EnrichHandler{next: h.next.WithAttrs(attrs)}
}

func (h *EnrichHandler) WithGroup(name string) slog.Handler {
	return &EnrichHandler{next: h.next.WithGroup(name)}
}

// spanContext 返回 ctx 中的有效 span，没有时 ok 为 false
func spanContext(ctx context.Context) (trace.SpanContext, bool) {
	if ctx == nil {
		return trace.SpanContext{}, false
	}
	sc := trace.SpanContextFromContext(ctx)
	return sc, sc.IsValid()
}
