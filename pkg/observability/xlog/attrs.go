package xlog

import "log/slog"

// 记录中使用的字段名
const (
	KeyError  = "error"
	KeyStack  = "stack"
	KeySource = "source" // Extra，SetAddSource 启用时写入

	// EnrichHandler 与 TraceProcessor 使用 OpenTelemetry 的命名
	KeyTraceID    = "trace_id"
	KeySpanID     = "span_id"
	KeyTraceFlags = "trace_flags"

	// 内置 Processor 写入 Extra 的字段
	KeyUID       = "uid"
	KeyProcessID = "process_id"
	KeyHostname  = "hostname"
)

// Err 返回 error 字段，err 为 nil 时返回空属性（Stack 会忽略）
//
//	if err := rotator.Rotate(); err != nil {
//	    logger.Error(ctx, "rotate failed", xlog.Err(err))
//	}
func Err(err error) slog.Attr {
	if err == nil {
		return slog.Attr{}
	}
	return slog.String(KeyError, err.Error())
}
