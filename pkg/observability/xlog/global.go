package xlog

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"sync"
	"sync/atomic"
)

// =============================================================================
// 全局 Logger
//
// 供命令行工具与脚本使用，服务端代码应显式持有 Builder 构建的 Logger。
// =============================================================================

var (
	defaultMu     sync.Mutex
	defaultLogger atomic.Pointer[LoggerWithLevel]
)

// newBuilder 是 Default 使用的构建器工厂，测试中替换以覆盖降级路径
var newBuilder = New

// Default 返回全局 Logger，首次调用时创建（stderr，Info 级别，line 格式）
func Default() LoggerWithLevel {
	if p := defaultLogger.Load(); p != nil {
		return *p
	}

	defaultMu.Lock()
	defer defaultMu.Unlock()
	if p := defaultLogger.Load(); p != nil {
		return *p
	}
	l := buildDefault()
	defaultLogger.Store(&l)
	return l
}

// buildDefault 构建默认 Logger，失败时退化为 slog 文本输出
func buildDefault() LoggerWithLevel {
	logger, _, err := newBuilder().SetLevel(LevelInfo).Build()
	if err == nil {
		return logger
	}

	fmt.Fprintf(os.Stderr, "xlog: default logger unavailable (%v), falling back to text handler\n", err)
	level := new(slog.LevelVar)
	level.Set(slog.LevelInfo)
	return newLogger(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: level}), level, nil, false)
}

// SetDefault 替换全局 Logger，nil 被忽略
func SetDefault(l LoggerWithLevel) {
	if l == nil {
		return
	}
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger.Store(&l)
}

// ResetDefault 清除全局 Logger，下次 Default 重新创建（测试用）
func ResetDefault() {
	defaultMu.Lock()
	defer defaultMu.Unlock()
	defaultLogger.Store(nil)
}

// =============================================================================
// 包级便捷函数
// =============================================================================

// globalEmit 直接调用 xlogger.emit，使 source 指向业务代码。
// 自定义 Logger 实现退化为其 Log/Stack 方法。
//
//go:noinline
func globalEmit(ctx context.Context, level Level, msg string, attrs []slog.Attr, withStack bool) {
	switch l := Default().(type) {
	case *xlogger:
		// 0: Callers，1: emit，2: globalEmit，3: 包级函数，4: 业务代码
		l.sink.report(l.emit(ctx, slog.Level(level), msg, attrs, 2, withStack))
	default:
		if withStack {
			l.Stack(ctx, msg, attrs...)
			return
		}
		_ = l.Log(ctx, level, msg, attrs...)
	}
}

// Debug 使用全局 Logger 记录 Debug 日志
func Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalEmit(ctx, LevelDebug, msg, attrs, false)
}

// Info 使用全局 Logger 记录 Info 日志
func Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalEmit(ctx, LevelInfo, msg, attrs, false)
}

// Warn 使用全局 Logger 记录 Warn 日志
func Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalEmit(ctx, LevelWarn, msg, attrs, false)
}

// Error 使用全局 Logger 记录 Error 日志
func Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalEmit(ctx, LevelError, msg, attrs, false)
}

// ErrorStack 使用全局 Logger 记录带堆栈的 Error 日志，对应 Logger.Stack
func ErrorStack(ctx context.Context, msg string, attrs ...slog.Attr) {
	globalEmit(ctx, LevelError, msg, attrs, true)
}

// Log 使用全局 Logger 以任意级别记录日志并返回写入错误
//
//go:noinline
func Log(ctx context.Context, level Level, msg string, attrs ...slog.Attr) error {
	if l, ok := Default().(*xlogger); ok {
		return l.emit(ctx, slog.Level(level), msg, attrs, 1, false)
	}
	return Default().Log(ctx, level, msg, attrs...)
}
