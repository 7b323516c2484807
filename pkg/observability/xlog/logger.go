package xlog

import (
	"context"
	"log/slog"
	"runtime"
	"sync/atomic"
	"time"
)

var (
	_ Logger          = (*xlogger)(nil)
	_ LoggerWithLevel = (*xlogger)(nil)
)

const (
	initialStackSize = 4096
	maxStackSize     = 64 * 1024
)

// errorSink 把便捷方法的写入失败转交给 onError 回调
//
// 派生 logger 共享同一个 sink，回调期间再次失败的记录不会重入回调。
type errorSink struct {
	onError func(error)
	busy    atomic.Bool
}

func (s *errorSink) report(err error) {
	if err == nil || s == nil || s.onError == nil {
		return
	}
	if !s.busy.CompareAndSwap(false, true) {
		return
	}
	defer s.busy.Store(false)
	defer func() {
		// 回调 panic 不扩散到写日志的业务代码
		_ = recover()
	}()
	s.onError(err)
}

// xlogger 是 Builder 产出的 Logger
//
// handler 通常是 Stack（启用 enrich 时外包一层 EnrichHandler）。
type xlogger struct {
	handler   slog.Handler
	level     *slog.LevelVar
	sink      *errorSink
	addSource bool
}

func newLogger(h slog.Handler, level *slog.LevelVar, onError func(error), addSource bool) *xlogger {
	return &xlogger{
		handler:   h,
		level:     level,
		sink:      &errorSink{onError: onError},
		addSource: addSource,
	}
}

// emit 构造并分发一条记录。
// skip 是 emit 与业务代码之间的栈帧数，仅在 addSource 时使用。
//
//go:noinline
func (l *xlogger) emit(ctx context.Context, level slog.Level, msg string, attrs []slog.Attr, skip int, withStack bool) error {
	if !l.handler.Enabled(ctx, level) {
		return nil
	}

	var pc uintptr
	if l.addSource {
		var pcs [1]uintptr
		// 0: runtime.Callers，1: emit
		runtime.Callers(2+skip, pcs[:])
		pc = pcs[0]
	}

	r := slog.NewRecord(time.Now(), level, msg, pc)
	r.AddAttrs(attrs...)
	if withStack {
		r.AddAttrs(slog.String(KeyStack, captureStack()))
	}
	return l.handler.Handle(ctx, r)
}

// captureStack 返回当前 goroutine 的堆栈，超过 maxStackSize 时截断
func captureStack() string {
	buf := make([]byte, initialStackSize)
	for {
		n := runtime.Stack(buf, false)
		if n < len(buf) || len(buf) >= maxStackSize {
			return string(buf[:n])
		}
		buf = make([]byte, min(len(buf)*2, maxStackSize))
	}
}

// Log 以任意级别记录日志并返回写入错误，不触发 onError
//
//go:noinline
func (l *xlogger) Log(ctx context.Context, level Level, msg string, attrs ...slog.Attr) error {
	return l.emit(ctx, slog.Level(level), msg, attrs, 1, false)
}

//go:noinline
func (l *xlogger) Debug(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.sink.report(l.emit(ctx, slog.LevelDebug, msg, attrs, 1, false))
}

//go:noinline
func (l *xlogger) Info(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.sink.report(l.emit(ctx, slog.LevelInfo, msg, attrs, 1, false))
}

//go:noinline
func (l *xlogger) Warn(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.sink.report(l.emit(ctx, slog.LevelWarn, msg, attrs, 1, false))
}

//go:noinline
func (l *xlogger) Error(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.sink.report(l.emit(ctx, slog.LevelError, msg, attrs, 1, false))
}

// Stack 以 Error 级别记录日志，堆栈写入 context 的 KeyStack 字段
//
//go:noinline
func (l *xlogger) Stack(ctx context.Context, msg string, attrs ...slog.Attr) {
	l.sink.report(l.emit(ctx, slog.LevelError, msg, attrs, 1, true))
}

// derive 返回共享级别与 sink 的派生 logger
func (l *xlogger) derive(h slog.Handler) *xlogger {
	return &xlogger{
		handler:   h,
		level:     l.level,
		sink:      l.sink,
		addSource: l.addSource,
	}
}

func (l *xlogger) With(attrs ...slog.Attr) Logger {
	if len(attrs) == 0 {
		return l
	}
	return l.derive(l.handler.WithAttrs(attrs))
}

func (l *xlogger) WithGroup(name string) Logger {
	if name == "" {
		return l
	}
	return l.derive(l.handler.WithGroup(name))
}

// SetLevel 调整整体级别，对所有派生 logger 生效
func (l *xlogger) SetLevel(level Level) {
	l.level.Set(slog.Level(level))
}

func (l *xlogger) GetLevel() Level {
	return Level(l.level.Level())
}

// Enabled 报告是否至少有一个 Handler 会处理该级别
func (l *xlogger) Enabled(ctx context.Context, level Level) bool {
	return l.handler.Enabled(ctx, slog.Level(level))
}
