package xlog

import (
	"context"
	"log/slog"
)

// Logger 是业务代码持有的日志接口，所有方法都要求 context
//
// Debug/Info/Warn/Error/Stack 不返回错误，写入失败交给 Builder.SetOnError 的回调。
type Logger interface {
	Debug(ctx context.Context, msg string, attrs ...slog.Attr)
	Info(ctx context.Context, msg string, attrs ...slog.Attr)
	Warn(ctx context.Context, msg string, attrs ...slog.Attr)
	Error(ctx context.Context, msg string, attrs ...slog.Attr)

	// Stack 以 Error 级别记录，并附带当前 goroutine 堆栈
	Stack(ctx context.Context, msg string, attrs ...slog.Attr)

	// Log 以任意级别（含 NOTICE、CRITICAL 等）记录，并返回写入错误
	//
	// 设计决策: 需要确认记录已落盘的调用方（如命令行工具）使用 Log，
	// 错误不会再交给 onError 回调。
	Log(ctx context.Context, level Level, msg string, attrs ...slog.Attr) error

	// With 与 WithGroup 返回的派生 Logger 共享 Handler 栈与级别
	With(attrs ...slog.Attr) Logger
	WithGroup(name string) Logger
}

// Leveler 运行时级别控制
type Leveler interface {
	SetLevel(level Level)
	GetLevel() Level

	// Enabled 报告该级别的记录是否会被至少一个 Handler 处理
	Enabled(ctx context.Context, level Level) bool
}

// LoggerWithLevel 是 Builder.Build 的返回类型
type LoggerWithLevel interface {
	Logger
	Leveler
}
