package xlogconf

import (
	"os"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// 内置插件标识。
const (
	HandlerRotatingFileSize = "rotating_file_size"
	HandlerStream           = "stream"
	HandlerLumberjack       = "lumberjack"
	HandlerNull             = "null"

	FormatterLine = "line"
	FormatterJSON = "json"

	ProcessorUID      = "uid"
	ProcessorPID      = "pid"
	ProcessorHostname = "hostname"
	ProcessorTrace    = "trace"
)

// PluginEnv 是内置 handler 共享的运行环境。
type PluginEnv struct {
	// OnError 接收轮转内务错误，nil 表示丢弃
	OnError func(error)

	// MeterProvider 轮转指标使用的 MeterProvider，nil 使用全局
	MeterProvider metric.MeterProvider
}

// NewHandlerRegistry 返回注册了全部内置 handler 的注册表。
func NewHandlerRegistry(env PluginEnv) *Registry[xlog.Handler] {
	r := NewRegistry[xlog.Handler]("handler")
	r.MustRegister(HandlerRotatingFileSize, env.rotatingFileSize)
	r.MustRegister(HandlerStream, newStreamHandler)
	r.MustRegister(HandlerLumberjack, env.lumberjack)
	r.MustRegister(HandlerNull, newNullHandler)
	return r
}

// NewFormatterRegistry 返回注册了 line 与 json formatter 的注册表。
func NewFormatterRegistry() *Registry[xlog.Formatter] {
	r := NewRegistry[xlog.Formatter]("formatter")
	r.MustRegister(FormatterLine, newLineFormatter)
	r.MustRegister(FormatterJSON, newJSONFormatter)
	return r
}

// NewProcessorRegistry 返回注册了 uid、pid、hostname、trace processor 的注册表。
func NewProcessorRegistry() *Registry[xlog.Processor] {
	r := NewRegistry[xlog.Processor]("processor")
	r.MustRegister(ProcessorUID, newUIDProcessor)
	r.MustRegister(ProcessorPID, noOptions(xlog.PIDProcessor))
	r.MustRegister(ProcessorHostname, noOptions(xlog.HostnameProcessor))
	r.MustRegister(ProcessorTrace, noOptions(xlog.TraceProcessor))
	return r
}

// =============================================================================
// Handler
// =============================================================================

type rotatingFileSizeOptions struct {
	Filename           string      `mapstructure:"filename"`
	FileSize           float64     `mapstructure:"filesize"`
	Compression        int         `mapstructure:"compression"`
	MinSeverity        xlog.Level  `mapstructure:"minSeverity"`
	Bubble             bool        `mapstructure:"bubble"`
	FilePermission     os.FileMode `mapstructure:"filePermission"`
	UseAdvisoryLocking bool        `mapstructure:"useAdvisoryLocking"`
	FileNameFormat     string      `mapstructure:"fileNameFormat"`
	DateFormat         string      `mapstructure:"dateFormat"`
}

func (env PluginEnv) rotatingFileSize(options map[string]any) (xlog.Handler, error) {
	opts := rotatingFileSizeOptions{
		FileSize:    xrotate.DefaultFileSizeMB,
		MinSeverity: xlog.LevelDebug,
		Bubble:      true,
	}
	if err := decode(options, &opts); err != nil {
		return nil, err
	}
	if opts.Filename == "" {
		return nil, ErrMissingFilename
	}

	return xlog.NewRotatingFileSizeHandler(xlog.RotatingFileSizeConfig{
		Filename:       opts.Filename,
		FileSizeMB:     opts.FileSize,
		Compression:    opts.Compression,
		Level:          opts.MinSeverity,
		Bubble:         opts.Bubble,
		FilePermission: opts.FilePermission,
		UseLocking:     opts.UseAdvisoryLocking,
		FileNameFormat: opts.FileNameFormat,
		DateFormat:     opts.DateFormat,
		OnError:        env.OnError,
		MeterProvider:  env.MeterProvider,
	})
}

type streamOptions struct {
	Stream             string      `mapstructure:"stream"`
	MinSeverity        xlog.Level  `mapstructure:"minSeverity"`
	Bubble             bool        `mapstructure:"bubble"`
	FilePermission     os.FileMode `mapstructure:"filePermission"`
	UseAdvisoryLocking bool        `mapstructure:"useAdvisoryLocking"`
}

func newStreamHandler(options map[string]any) (xlog.Handler, error) {
	opts := streamOptions{
		Stream:      xlog.StreamStderr,
		MinSeverity: xlog.LevelDebug,
		Bubble:      true,
	}
	if err := decode(options, &opts); err != nil {
		return nil, err
	}

	return xlog.NewStreamHandler(xlog.StreamConfig{
		Target:         opts.Stream,
		Level:          opts.MinSeverity,
		Bubble:         opts.Bubble,
		FilePermission: opts.FilePermission,
		UseLocking:     opts.UseAdvisoryLocking,
	})
}

type lumberjackOptions struct {
	Filename       string      `mapstructure:"filename"`
	MaxSize        int         `mapstructure:"maxSize"`
	MaxBackups     int         `mapstructure:"maxBackups"`
	MaxAge         int         `mapstructure:"maxAge"`
	Compress       bool        `mapstructure:"compress"`
	LocalTime      bool        `mapstructure:"localTime"`
	FilePermission os.FileMode `mapstructure:"filePermission"`
	MinSeverity    xlog.Level  `mapstructure:"minSeverity"`
	Bubble         bool        `mapstructure:"bubble"`
}

func (env PluginEnv) lumberjack(options map[string]any) (xlog.Handler, error) {
	opts := lumberjackOptions{
		MaxSize:     xrotate.DefaultMaxSizeMB,
		MaxBackups:  xrotate.DefaultMaxBackups,
		MaxAge:      xrotate.DefaultMaxAgeDays,
		Compress:    true,
		LocalTime:   true,
		MinSeverity: xlog.LevelDebug,
		Bubble:      true,
	}
	if err := decode(options, &opts); err != nil {
		return nil, err
	}
	if opts.Filename == "" {
		return nil, ErrMissingFilename
	}

	lumberjackOpts := []xrotate.LumberjackOption{
		xrotate.WithMaxSize(opts.MaxSize),
		xrotate.WithMaxBackups(opts.MaxBackups),
		xrotate.WithMaxAge(opts.MaxAge),
		xrotate.WithCompress(opts.Compress),
		xrotate.WithLocalTime(opts.LocalTime),
		xrotate.WithOnError(env.OnError),
		xrotate.WithLumberjackMeterProvider(env.MeterProvider),
	}
	if opts.FilePermission != 0 {
		lumberjackOpts = append(lumberjackOpts, xrotate.WithFileMode(opts.FilePermission))
	}

	rotator, err := xrotate.NewLumberjack(opts.Filename, lumberjackOpts...)
	if err != nil {
		return nil, err
	}
	h, err := xlog.NewWriteCloserHandler(rotator,
		xlog.WithMinLevel(opts.MinSeverity),
		xlog.WithBubble(opts.Bubble),
	)
	if err != nil {
		return nil, err
	}
	return h, nil
}

type nullOptions struct {
	MinSeverity xlog.Level `mapstructure:"minSeverity"`
}

func newNullHandler(options map[string]any) (xlog.Handler, error) {
	opts := nullOptions{MinSeverity: xlog.LevelDebug}
	if err := decode(options, &opts); err != nil {
		return nil, err
	}
	return xlog.NewNullHandler(opts.MinSeverity), nil
}

// =============================================================================
// Formatter
// =============================================================================

type lineFormatterOptions struct {
	Format                     string `mapstructure:"format"`
	DateFormat                 string `mapstructure:"dateFormat"`
	AllowInlineLineBreaks      bool   `mapstructure:"allowInlineLineBreaks"`
	IgnoreEmptyContextAndExtra bool   `mapstructure:"ignoreEmptyContextAndExtra"`
}

func newLineFormatter(options map[string]any) (xlog.Formatter, error) {
	var opts lineFormatterOptions
	if err := decode(options, &opts); err != nil {
		return nil, err
	}
	return xlog.NewLineFormatter(
		xlog.WithLineFormat(opts.Format),
		xlog.WithDateFormat(opts.DateFormat),
		xlog.WithInlineLineBreaks(opts.AllowInlineLineBreaks),
		xlog.WithIgnoreEmptyContextAndExtra(opts.IgnoreEmptyContextAndExtra),
	), nil
}

type jsonFormatterOptions struct {
	AppendNewline bool `mapstructure:"appendNewline"`
}

func newJSONFormatter(options map[string]any) (xlog.Formatter, error) {
	opts := jsonFormatterOptions{AppendNewline: true}
	if err := decode(options, &opts); err != nil {
		return nil, err
	}
	return xlog.NewJSONFormatter(opts.AppendNewline), nil
}

// =============================================================================
// Processor
// =============================================================================

type uidOptions struct {
	Length int `mapstructure:"length"`
}

func newUIDProcessor(options map[string]any) (xlog.Processor, error) {
	opts := uidOptions{Length: xlog.DefaultUIDLength}
	if err := decode(options, &opts); err != nil {
		return nil, err
	}
	return xlog.NewUIDProcessor(opts.Length)
}

// noOptions 包装无参 processor 构造函数，仍拒绝未知选项。
func noOptions(fn func() xlog.Processor) PluginFactory[xlog.Processor] {
	return func(options map[string]any) (xlog.Processor, error) {
		if err := decode(options, &struct{}{}); err != nil {
			return nil, err
		}
		return fn(), nil
	}
}
