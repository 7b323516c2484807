package xlog

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"sync"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// ReplaceAttrFunc 属性替换函数类型
//
// 用于日志治理场景：字段重命名、敏感信息脱敏、字段过滤等。
// 返回空 Key 的 Attr 时该属性被移除。groups 为属性所在的分组路径。
//
//	func(groups []string, a slog.Attr) slog.Attr {
//	    if a.Key == "password" {
//	        return slog.String("password", "***")
//	    }
//	    return a
//	}
type ReplaceAttrFunc func(groups []string, a slog.Attr) slog.Attr

// Builder 日志配置构建器
//
// first-error-wins：遇到第一个配置错误后，Build 返回该错误。
type Builder struct {
	channel      string
	output       io.Writer
	levelVar     *slog.LevelVar
	format       string
	addSource    bool
	enableEnrich bool
	replaceAttr  ReplaceAttrFunc
	handlers     []Handler
	processors   []Processor
	rotator      xrotate.Rotator
	onError      func(error)
	err          error
}

// New 创建配置构建器
//
// 默认：channel "app"、Debug 级别、stderr、line 格式、启用 trace 注入。
func New() *Builder {
	levelVar := new(slog.LevelVar)
	levelVar.Set(slog.LevelDebug)

	return &Builder{
		channel:      DefaultChannel,
		output:       os.Stderr,
		levelVar:     levelVar,
		format:       "line",
		enableEnrich: true,
	}
}

// SetChannel 设置 channel 名称
func (b *Builder) SetChannel(channel string) *Builder {
	if channel != "" {
		b.channel = channel
	}
	return b
}

// SetOutput 设置默认 Handler 的输出目标
//
// 仅在没有通过 PushHandler 添加 Handler 时生效。
func (b *Builder) SetOutput(w io.Writer) *Builder {
	if w == nil {
		b.setErr(ErrNilWriter)
		return b
	}
	b.output = w
	return b
}

// SetLevel 设置 logger 整体级别（运行时可通过 SetLevel 动态调整）
func (b *Builder) SetLevel(level Level) *Builder {
	b.levelVar.Set(slog.Level(level))
	return b
}

// SetLevelString 通过字符串设置日志级别
func (b *Builder) SetLevelString(s string) *Builder {
	level, err := ParseLevel(s)
	if err != nil {
		b.setErr(err)
		return b
	}
	return b.SetLevel(level)
}

// SetFormat 设置默认 Handler 的输出格式：line（别名 text）或 json
func (b *Builder) SetFormat(format string) *Builder {
	switch normalized := strings.ToLower(strings.TrimSpace(format)); normalized {
	case "", "line", "text":
		b.format = "line"
	case "json":
		b.format = "json"
	default:
		b.setErr(fmt.Errorf("xlog: unknown format %q", format))
	}
	return b
}

// SetAddSource 是否在 Extra 中记录源码位置
func (b *Builder) SetAddSource(enable bool) *Builder {
	b.addSource = enable
	return b
}

// SetEnrich 是否从 context 注入 OpenTelemetry trace_id/span_id（默认启用）
func (b *Builder) SetEnrich(enable bool) *Builder {
	b.enableEnrich = enable
	return b
}

// SetReplaceAttr 设置属性替换函数（日志治理）
func (b *Builder) SetReplaceAttr(fn ReplaceAttrFunc) *Builder {
	b.replaceAttr = fn
	return b
}

// SetRotation 默认 Handler 写入按大小轮转的文件
//
// 与 PushHandler(NewRotatingFileSizeHandler(...)) 不同，这里的轮转器由 cleanup 关闭。
func (b *Builder) SetRotation(filename string, opts ...xrotate.SizeOption) *Builder {
	if b.err != nil {
		return b
	}
	rotator, err := xrotate.NewSize(filename, opts...)
	if err != nil {
		b.setErr(err)
		return b
	}
	b.rotator = rotator
	b.output = rotator
	return b
}

// PushHandler 追加 Handler，记录按追加顺序分发
func (b *Builder) PushHandler(h Handler) *Builder {
	if h == nil {
		b.setErr(errors.New("xlog: handler is nil"))
		return b
	}
	b.handlers = append(b.handlers, h)
	return b
}

// PushProcessor 追加 Processor，按追加顺序执行
func (b *Builder) PushProcessor(p Processor) *Builder {
	if p == nil {
		b.setErr(errors.New("xlog: processor is nil"))
		return b
	}
	b.processors = append(b.processors, p)
	return b
}

// SetOnError 设置内部错误回调
//
// 便捷方法（Debug/Info/...）写入失败时调用，如磁盘满、权限问题。
//
// 注意事项：
//   - 回调在热路径同步执行，应保持轻量
//   - 内置递归保护：回调内部再次触发日志错误不会无限递归
//   - [Logger.Log] 直接返回错误，不触发回调
func (b *Builder) SetOnError(fn func(error)) *Builder {
	b.onError = fn
	return b
}

func (b *Builder) setErr(err error) {
	if b.err == nil {
		b.err = err
	}
}

// Build 构建 Logger 实例
//
// 返回值：
//   - LoggerWithLevel: 日志实例，同时支持动态级别控制
//   - func() error: 清理函数，关闭所有 Handler 及轮转器，可重复调用
//   - error: 配置错误
func (b *Builder) Build() (LoggerWithLevel, func() error, error) {
	if b.err != nil {
		return nil, nil, b.err
	}

	handlers := b.handlers
	if len(handlers) == 0 {
		var formatter Formatter = NewLineFormatter()
		if b.format == "json" {
			formatter = NewJSONFormatter(true)
		}
		h, err := NewWriterHandler(b.output, WithFormatter(formatter))
		if err != nil {
			return nil, nil, err
		}
		handlers = []Handler{h}
	}

	stack := NewStack(b.channel, handlers,
		WithStackLevel(b.levelVar),
		WithProcessors(b.processors...),
		WithSource(b.addSource),
		WithReplaceAttr(b.replaceAttr),
	)

	var handler slog.Handler = stack
	if b.enableEnrich {
		enriched, err := NewEnrichHandler(stack)
		if err != nil {
			return nil, nil, err
		}
		handler = enriched
	}

	logger := newLogger(handler, b.levelVar, b.onError, b.addSource)
	return logger, b.createCleanup(stack), nil
}

// createCleanup 创建清理函数
func (b *Builder) createCleanup(stack *Stack) func() error {
	var (
		once sync.Once
		err  error
	)
	rotator := b.rotator

	return func() error {
		once.Do(func() {
			errs := []error{stack.Close()}
			if rotator != nil {
				errs = append(errs, rotator.Close())
			}
			err = errors.Join(errs...)
		})
		return err
	}
}
