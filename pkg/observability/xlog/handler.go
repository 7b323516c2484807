package xlog

import (
	"context"
	"errors"
	"io"
	"sync"
)

// Handler 日志处理器（sink）
//
// 与 slog.Handler 不同，Handler 处理已经过 Stack 转换的 [Record]，
// 每个 Handler 有独立的最低级别和冒泡设置。
type Handler interface {
	// IsHandling 该级别的记录是否会被处理
	IsHandling(level Level) bool

	// Handle 处理一条记录，写入失败时返回错误
	Handle(ctx context.Context, r Record) error

	// Bubble 处理后是否继续传递给栈中后续的 Handler
	Bubble() bool

	// Close 释放资源，重复调用安全
	Close() error
}

// FormattableHandler 支持替换 Formatter 的 Handler
type FormattableHandler interface {
	Handler
	SetFormatter(f Formatter)
	Formatter() Formatter
}

// 编译时接口检查
var (
	_ FormattableHandler = (*WriterHandler)(nil)
	_ Handler            = (*NullHandler)(nil)
)

// ErrNilWriter WriterHandler 的输出目标为 nil
var ErrNilWriter = errors.New("xlog: writer is nil")

// HandlerOption Handler 通用配置选项
type HandlerOption func(*handlerConfig)

type handlerConfig struct {
	level     Level
	bubble    bool
	formatter Formatter
}

func newHandlerConfig(opts []HandlerOption) handlerConfig {
	cfg := handlerConfig{level: LevelDebug, bubble: true}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}
	return cfg
}

// WithMinLevel 设置 Handler 处理的最低级别（默认 Debug）
func WithMinLevel(level Level) HandlerOption {
	return func(c *handlerConfig) {
		c.level = level
	}
}

// WithBubble 设置处理后是否继续冒泡（默认 true）
func WithBubble(bubble bool) HandlerOption {
	return func(c *handlerConfig) {
		c.bubble = bubble
	}
}

// WithFormatter 设置 Formatter（默认 LineFormatter）
func WithFormatter(f Formatter) HandlerOption {
	return func(c *handlerConfig) {
		c.formatter = f
	}
}

// =============================================================================
// WriterHandler
// =============================================================================

// WriterHandler 格式化记录并写入 io.Writer
//
// 内部互斥锁串行化 Format+Write，保证一条记录的字节连续写入。
type WriterHandler struct {
	level  Level
	bubble bool

	mu        sync.Mutex
	formatter Formatter
	w         io.Writer
	closer    io.Closer
	closeOnce sync.Once
	closeErr  error
}

// NewWriterHandler 创建写入 w 的 Handler，Close 不会关闭 w
func NewWriterHandler(w io.Writer, opts ...HandlerOption) (*WriterHandler, error) {
	if w == nil {
		return nil, ErrNilWriter
	}
	cfg := newHandlerConfig(opts)
	formatter := cfg.formatter
	if formatter == nil {
		formatter = NewLineFormatter()
	}
	return &WriterHandler{
		level:     cfg.level,
		bubble:    cfg.bubble,
		formatter: formatter,
		w:         w,
	}, nil
}

// NewWriteCloserHandler 创建写入 wc 的 Handler，Close 时一并关闭 wc
func NewWriteCloserHandler(wc io.WriteCloser, opts ...HandlerOption) (*WriterHandler, error) {
	if wc == nil {
		return nil, ErrNilWriter
	}
	h, err := NewWriterHandler(wc, opts...)
	if err != nil {
		return nil, err
	}
	h.closer = wc
	return h, nil
}

// IsHandling 实现 Handler 接口
func (h *WriterHandler) IsHandling(level Level) bool {
	return level >= h.level
}

// Bubble 实现 Handler 接口
func (h *WriterHandler) Bubble() bool {
	return h.bubble
}

// Level 返回最低处理级别
func (h *WriterHandler) Level() Level {
	return h.level
}

// Handle 实现 Handler 接口
func (h *WriterHandler) Handle(_ context.Context, r Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	data, err := h.formatter.Format(r)
	if err != nil {
		return err
	}
	_, err = h.w.Write(data)
	return err
}

// SetFormatter 实现 FormattableHandler 接口，nil 被忽略
func (h *WriterHandler) SetFormatter(f Formatter) {
	if f == nil {
		return
	}
	h.mu.Lock()
	h.formatter = f
	h.mu.Unlock()
}

// Formatter 实现 FormattableHandler 接口
func (h *WriterHandler) Formatter() Formatter {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.formatter
}

// Close 实现 Handler 接口
func (h *WriterHandler) Close() error {
	h.closeOnce.Do(func() {
		if h.closer == nil {
			return
		}
		h.mu.Lock()
		defer h.mu.Unlock()
		h.closeErr = h.closer.Close()
	})
	return h.closeErr
}

// =============================================================================
// NullHandler
// =============================================================================

// NullHandler 丢弃达到级别的记录，且阻止继续冒泡
type NullHandler struct {
	level Level
}

// NewNullHandler 创建 NullHandler
func NewNullHandler(level Level) *NullHandler {
	return &NullHandler{level: level}
}

// IsHandling 实现 Handler 接口
func (h *NullHandler) IsHandling(level Level) bool {
	return level >= h.level
}

// Handle 实现 Handler 接口
func (h *NullHandler) Handle(context.Context, Record) error {
	return nil
}

// Bubble 实现 Handler 接口
func (h *NullHandler) Bubble() bool {
	return false
}

// Close 实现 Handler 接口
func (h *NullHandler) Close() error {
	return nil
}
