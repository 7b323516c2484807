package xlog

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"runtime"
	"slices"
	"time"
)

// 编译时接口检查
var _ slog.Handler = (*Stack)(nil)

// DefaultChannel 未指定 channel 时使用的名称
const DefaultChannel = "app"

// Stack 将 slog.Record 转换为 [Record] 并按顺序分发给 Handler 栈
//
// 分发规则：
//   - 级别低于 Stack 级别的记录直接丢弃
//   - Processor 按注册顺序执行
//   - Handler 按注册顺序尝试，跳过 IsHandling 为 false 的 Handler
//   - 某个 Handler 处理后若 Bubble 为 false，停止传递
//   - 所有 Handler 的错误合并返回
//
// WithAttrs/WithGroup 返回共享 Handler 的派生 Stack。
type Stack struct {
	channel     string
	handlers    []Handler
	processors  []Processor
	level       slog.Leveler
	addSource   bool
	replaceAttr ReplaceAttrFunc

	// 派生状态：已展开的上下文属性及当前分组路径
	context map[string]any
	groups  []string
}

// StackOption Stack 配置选项
type StackOption func(*Stack)

// WithStackLevel 设置 Stack 整体最低级别（可传入 *slog.LevelVar 实现动态调整）
func WithStackLevel(level slog.Leveler) StackOption {
	return func(s *Stack) {
		if level != nil {
			s.level = level
		}
	}
}

// WithProcessors 追加 Processor
func WithProcessors(ps ...Processor) StackOption {
	return func(s *Stack) {
		for _, p := range ps {
			if p != nil {
				s.processors = append(s.processors, p)
			}
		}
	}
}

// WithSource 是否在 Extra 中记录源码位置
func WithSource(enable bool) StackOption {
	return func(s *Stack) {
		s.addSource = enable
	}
}

// WithReplaceAttr 设置属性替换函数
func WithReplaceAttr(fn ReplaceAttrFunc) StackOption {
	return func(s *Stack) {
		s.replaceAttr = fn
	}
}

// NewStack 创建 Handler 栈，nil Handler 被忽略
func NewStack(channel string, handlers []Handler, opts ...StackOption) *Stack {
	if channel == "" {
		channel = DefaultChannel
	}
	s := &Stack{
		channel: channel,
		level:   LevelDebug,
		context: map[string]any{},
	}
	for _, h := range handlers {
		if h != nil {
			s.handlers = append(s.handlers, h)
		}
	}
	for _, opt := range opts {
		if opt != nil {
			opt(s)
		}
	}
	return s
}

// Channel 返回 channel 名称
func (s *Stack) Channel() string {
	return s.channel
}

// Handlers 返回 Handler 列表副本
func (s *Stack) Handlers() []Handler {
	return slices.Clone(s.handlers)
}

// Close 关闭所有 Handler，合并返回错误
func (s *Stack) Close() error {
	var errs []error
	for _, h := range s.handlers {
		if err := h.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}

// Enabled 实现 slog.Handler 接口
//
// 至少有一个 Handler 会处理该级别时返回 true。
func (s *Stack) Enabled(_ context.Context, level slog.Level) bool {
	if level < s.level.Level() {
		return false
	}
	for _, h := range s.handlers {
		if h.IsHandling(Level(level)) {
			return true
		}
	}
	return false
}

// Handle 实现 slog.Handler 接口
func (s *Stack) Handle(ctx context.Context, sr slog.Record) error {
	if !s.Enabled(ctx, sr.Level) {
		return nil
	}
	r := s.record(sr)

	for _, p := range s.processors {
		p(ctx, &r)
	}

	var errs []error
	for _, h := range s.handlers {
		if !h.IsHandling(r.Level) {
			continue
		}
		if err := h.Handle(ctx, r); err != nil {
			errs = append(errs, err)
		}
		if !h.Bubble() {
			break
		}
	}
	return errors.Join(errs...)
}

// record 转换 slog.Record
func (s *Stack) record(sr slog.Record) Record {
	t := sr.Time
	if t.IsZero() {
		t = time.Now()
	}

	ctxMap := cloneMap(s.context)
	if sr.NumAttrs() > 0 {
		attrs := make([]slog.Attr, 0, sr.NumAttrs())
		sr.Attrs(func(a slog.Attr) bool {
			attrs = append(attrs, a)
			return true
		})
		addAttrs(groupMap(ctxMap, s.groups), s.replace(s.groups, attrs))
	}

	extra := make(map[string]any)
	if s.addSource && sr.PC != 0 {
		frames := runtime.CallersFrames([]uintptr{sr.PC})
		f, _ := frames.Next()
		if f.File != "" {
			extra[KeySource] = fmt.Sprintf("%s:%d", f.File, f.Line)
		}
	}

	return Record{
		Time:    t,
		Level:   Level(sr.Level),
		Message: sr.Message,
		Channel: s.channel,
		Context: ctxMap,
		Extra:   extra,
	}
}

// replace 对属性应用 replaceAttr，分组递归处理
func (s *Stack) replace(groups []string, attrs []slog.Attr) []slog.Attr {
	if s.replaceAttr == nil {
		return attrs
	}
	out := make([]slog.Attr, 0, len(attrs))
	for _, a := range attrs {
		if a.Value.Kind() == slog.KindGroup {
			sub := groups
			if a.Key != "" {
				sub = append(slices.Clone(groups), a.Key)
			}
			out = append(out, slog.Attr{
				Key:   a.Key,
				Value: slog.GroupValue(s.replace(sub, a.Value.Group())...),
			})
			continue
		}
		if a = s.replaceAttr(groups, a); a.Key != "" {
			out = append(out, a)
		}
	}
	return out
}

// WithAttrs 实现 slog.Handler 接口
func (s *Stack) WithAttrs(attrs []slog.Attr) slog.Handler {
	if len(attrs) == 0 {
		return s
	}
	clone := s.clone()
	addAttrs(groupMap(clone.context, clone.groups), s.replace(s.groups, attrs))
	return clone
}

// WithGroup 实现 slog.Handler 接口
func (s *Stack) WithGroup(name string) slog.Handler {
	if name == "" {
		return s
	}
	clone := s.clone()
	clone.groups = append(clone.groups, name)
	return clone
}

func (s *Stack) clone() *Stack {
	c := *s
	c.context = cloneMap(s.context)
	c.groups = slices.Clone(s.groups)
	return &c
}
