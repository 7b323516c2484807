package xlogconf

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// loggerConfig 是单个 Logger 的定义。
type loggerConfig struct {
	Channel    string `mapstructure:"channel"`
	Level      string `mapstructure:"level"`
	Handlers   []any  `mapstructure:"handlers"`
	Processors []any  `mapstructure:"processors"`
}

// pluginEntry 是 handler/formatter/processor 的映射形式。
type pluginEntry struct {
	Type      string         `mapstructure:"type"`
	Options   map[string]any `mapstructure:"options"`
	Formatter any            `mapstructure:"formatter"`
}

// FactoryOption 定义 Factory 选项。
type FactoryOption func(*factoryOptions)

type factoryOptions struct {
	env        PluginEnv
	handlers   *Registry[xlog.Handler]
	formatters *Registry[xlog.Formatter]
	processors *Registry[xlog.Processor]
}

// WithHandlerRegistry 使用自定义 handler 注册表替换内置注册表。
func WithHandlerRegistry(r *Registry[xlog.Handler]) FactoryOption {
	return func(o *factoryOptions) {
		o.handlers = r
	}
}

// WithFormatterRegistry 使用自定义 formatter 注册表替换内置注册表。
func WithFormatterRegistry(r *Registry[xlog.Formatter]) FactoryOption {
	return func(o *factoryOptions) {
		o.formatters = r
	}
}

// WithProcessorRegistry 使用自定义 processor 注册表替换内置注册表。
func WithProcessorRegistry(r *Registry[xlog.Processor]) FactoryOption {
	return func(o *factoryOptions) {
		o.processors = r
	}
}

// WithOnError 设置错误回调，同时用于 Logger 写入失败和轮转内务失败。
// 回调不得向同一 Logger 写日志。
func WithOnError(fn func(error)) FactoryOption {
	return func(o *factoryOptions) {
		o.env.OnError = fn
	}
}

// WithMeterProvider 设置内置轮转 handler 的 MeterProvider。
func WithMeterProvider(mp metric.MeterProvider) FactoryOption {
	return func(o *factoryOptions) {
		o.env.MeterProvider = mp
	}
}

// Factory 根据 Config 组装具名 Logger。
//
// 每次 Create 都读取 Config 的当前快照，Reload 之后新建的 Logger 使用新配置。
type Factory struct {
	cfg        *Config
	onError    func(error)
	handlers   *Registry[xlog.Handler]
	formatters *Registry[xlog.Formatter]
	processors *Registry[xlog.Processor]
}

// NewFactory 创建 Factory。cfg 为 nil 时等同于空配置。
func NewFactory(cfg *Config, opts ...FactoryOption) *Factory {
	o := &factoryOptions{}
	for _, opt := range opts {
		opt(o)
	}
	if o.handlers == nil {
		o.handlers = NewHandlerRegistry(o.env)
	}
	if o.formatters == nil {
		o.formatters = NewFormatterRegistry()
	}
	if o.processors == nil {
		o.processors = NewProcessorRegistry()
	}
	if cfg == nil {
		cfg = &Config{opts: defaultOptions(), loggers: map[string]any{}}
	}

	return &Factory{
		cfg:        cfg,
		onError:    o.env.OnError,
		handlers:   o.handlers,
		formatters: o.formatters,
		processors: o.processors,
	}
}

// Config 返回 Factory 使用的配置。
func (f *Factory) Config() *Config {
	return f.cfg
}

// Handlers 返回 handler 注册表，可用于注册自定义 handler。
func (f *Factory) Handlers() *Registry[xlog.Handler] {
	return f.handlers
}

// Formatters 返回 formatter 注册表。
func (f *Factory) Formatters() *Registry[xlog.Formatter] {
	return f.formatters
}

// Processors 返回 processor 注册表。
func (f *Factory) Processors() *Registry[xlog.Processor] {
	return f.processors
}

// CanCreate 报告指定 Logger 是否已定义且 channel 非空。
func (f *Factory) CanCreate(name string) bool {
	lc, err := f.loggerConfig(name)
	return err == nil && strings.TrimSpace(lc.Channel) != ""
}

// Create 按配置组装 Logger。
//
// handler 按配置顺序入栈，processor 按配置顺序执行。
// 任一条目无效时关闭本次创建的 handler 并返回错误，调用方传入的 handler 保持打开；
// 内置 handler 构造阶段不打开文件，因此配置错误不会留下任何文件。
// 返回的 cleanup 关闭栈中全部 handler（包括调用方传入的），调用方负责调用。
func (f *Factory) Create(name string) (xlog.LoggerWithLevel, func() error, error) {
	logger, cleanup, _, err := f.create(name)
	return logger, cleanup, err
}

// ValidateLogger 组装指定 Logger 后只关闭本次创建的 handler，
// 调用方通过 LoadMap 传入的 handler 不受影响。
func (f *Factory) ValidateLogger(name string) error {
	_, _, owned, err := f.create(name)
	if err != nil {
		return err
	}
	return closeAll(owned)
}

// Validate 对所有已定义的 Logger 执行 ValidateLogger，返回全部错误。
func (f *Factory) Validate() error {
	var errs []error
	for _, name := range f.cfg.Names() {
		errs = append(errs, f.ValidateLogger(name))
	}
	return errors.Join(errs...)
}

// create 返回的 owned 是本次构造的 handler，失败时已全部关闭。
func (f *Factory) create(name string) (xlog.LoggerWithLevel, func() error, []xlog.Handler, error) {
	lc, err := f.loggerConfig(name)
	if err != nil {
		return nil, nil, nil, err
	}
	if strings.TrimSpace(lc.Channel) == "" {
		return nil, nil, nil, fmt.Errorf("%w: logger %q", ErrMissingChannel, name)
	}

	b := xlog.New().SetChannel(lc.Channel).SetOnError(f.onError)
	if lc.Level != "" {
		b.SetLevelString(lc.Level)
	}

	var owned []xlog.Handler
	fail := func(err error) (xlog.LoggerWithLevel, func() error, []xlog.Handler, error) {
		return nil, nil, nil, errors.Join(err, closeAll(owned))
	}

	for i, entry := range lc.Handlers {
		h, isOwned, err := f.createHandler(entry)
		if err != nil {
			return fail(fmt.Errorf("xlogconf: logger %q handler #%d: %w", name, i, err))
		}
		if isOwned {
			owned = append(owned, h)
		}
		b.PushHandler(h)
	}

	for i, entry := range lc.Processors {
		p, err := f.createProcessor(entry)
		if err != nil {
			return fail(fmt.Errorf("xlogconf: logger %q processor #%d: %w", name, i, err))
		}
		b.PushProcessor(p)
	}

	logger, cleanup, err := b.Build()
	if err != nil {
		return fail(fmt.Errorf("xlogconf: logger %q: %w", name, err))
	}
	return logger, cleanup, owned, nil
}

func (f *Factory) loggerConfig(name string) (loggerConfig, error) {
	raw, ok := f.cfg.Logger(name)
	if !ok {
		return loggerConfig{}, fmt.Errorf("%w: %q", ErrUnknownLogger, name)
	}

	var lc loggerConfig
	if err := decode(raw, &lc); err != nil {
		return loggerConfig{}, fmt.Errorf("xlogconf: logger %q: %w", name, err)
	}
	return lc, nil
}

// createHandler 返回的 owned 表示 handler 由本次 Create 构造。
func (f *Factory) createHandler(entry any) (xlog.Handler, bool, error) {
	switch v := entry.(type) {
	case xlog.Handler:
		return v, false, nil
	case map[string]any:
		var pe pluginEntry
		if err := decode(v, &pe); err != nil {
			return nil, false, err
		}
		if pe.Type == "" {
			return nil, false, ErrMissingType
		}

		h, err := f.handlers.Create(pe.Type, pe.Options)
		if err != nil {
			return nil, false, err
		}
		if pe.Formatter == nil {
			return h, true, nil
		}

		fh, ok := h.(xlog.FormattableHandler)
		if !ok {
			return nil, false, errors.Join(
				fmt.Errorf("%w: %q", ErrFormatterNotSupported, pe.Type),
				h.Close(),
			)
		}
		formatter, err := f.createFormatter(pe.Formatter)
		if err != nil {
			return nil, false, errors.Join(err, h.Close())
		}
		fh.SetFormatter(formatter)
		return fh, true, nil
	default:
		return nil, false, fmt.Errorf("%w: got %T", ErrInvalidHandlerConfig, entry)
	}
}

func (f *Factory) createFormatter(entry any) (xlog.Formatter, error) {
	switch v := entry.(type) {
	case xlog.Formatter:
		return v, nil
	case map[string]any:
		var pe pluginEntry
		if err := decode(v, &pe); err != nil {
			return nil, err
		}
		if pe.Type == "" {
			return nil, ErrMissingType
		}
		if pe.Formatter != nil {
			return nil, fmt.Errorf("%w: formatter cannot be nested", ErrInvalidFormatterConfig)
		}
		return f.formatters.Create(pe.Type, pe.Options)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidFormatterConfig, entry)
	}
}

func (f *Factory) createProcessor(entry any) (xlog.Processor, error) {
	switch v := entry.(type) {
	case xlog.Processor:
		if v == nil {
			return nil, ErrInvalidProcessor
		}
		return v, nil
	case func(context.Context, *xlog.Record):
		if v == nil {
			return nil, ErrInvalidProcessor
		}
		return v, nil
	case string:
		if v = strings.TrimSpace(v); v == "" {
			return nil, ErrMissingType
		}
		return f.processors.Create(v, nil)
	case map[string]any:
		var pe pluginEntry
		if err := decode(v, &pe); err != nil {
			return nil, err
		}
		if pe.Type == "" {
			return nil, ErrMissingType
		}
		if pe.Formatter != nil {
			return nil, fmt.Errorf("%w: processors take no formatter", ErrInvalidProcessor)
		}
		return f.processors.Create(pe.Type, pe.Options)
	default:
		return nil, fmt.Errorf("%w: got %T", ErrInvalidProcessor, entry)
	}
}

func closeAll(handlers []xlog.Handler) error {
	errs := make([]error, 0, len(handlers))
	for _, h := range handlers {
		errs = append(errs, h.Close())
	}
	return errors.Join(errs...)
}
