package xlog

import (
	"os"
	"strings"

	"go.opentelemetry.io/otel/metric"

	"github.com/omeyang/xlogkit/pkg/observability/xrotate"
)

// 标准流目标
const (
	StreamStderr = "stderr"
	StreamStdout = "stdout"
)

// =============================================================================
// StreamHandler
// =============================================================================

// StreamConfig StreamHandler 配置
type StreamConfig struct {
	// Target 输出目标：stderr、stdout 或文件路径
	Target string

	// Level 最低处理级别
	Level Level

	// Bubble 处理后是否继续冒泡
	Bubble bool

	// FilePermission 新建文件的权限，0 表示系统默认
	FilePermission os.FileMode

	// UseLocking 每次追加时持有咨询锁
	UseLocking bool
}

// DefaultStreamConfig 返回默认 StreamHandler 配置
func DefaultStreamConfig(target string) StreamConfig {
	return StreamConfig{
		Target: target,
		Level:  LevelDebug,
		Bubble: true,
	}
}

// NewStreamHandler 创建写入标准流或文件（不轮转）的 Handler
//
// 文件目标首次写入时才打开，Close 时关闭；标准流永不关闭。
func NewStreamHandler(cfg StreamConfig, opts ...HandlerOption) (*WriterHandler, error) {
	base := []HandlerOption{WithMinLevel(cfg.Level), WithBubble(cfg.Bubble)}
	opts = append(base, opts...)

	switch strings.ToLower(cfg.Target) {
	case StreamStderr, "":
		return NewWriterHandler(os.Stderr, opts...)
	case StreamStdout:
		return NewWriterHandler(os.Stdout, opts...)
	}

	appender, err := xrotate.NewFileAppender(cfg.Target,
		xrotate.WithAppendMode(cfg.FilePermission),
		xrotate.WithAppendLocking(cfg.UseLocking),
	)
	if err != nil {
		return nil, err
	}
	return NewWriteCloserHandler(appender, opts...)
}

// =============================================================================
// RotatingFileSizeHandler
// =============================================================================

// RotatingFileSizeConfig 按大小轮转文件 Handler 的配置
type RotatingFileSizeConfig struct {
	// Filename 活动日志文件路径（必填）
	Filename string

	// FileSizeMB 触发轮转的大小（MB，可为小数），0 表示不限制
	FileSizeMB float64

	// Compression gzip 压缩级别 [0, 9]，超出范围被截断，0 表示不压缩
	Compression int

	// Level 最低处理级别
	Level Level

	// Bubble 处理后是否继续冒泡
	Bubble bool

	// FilePermission 活动文件权限，0 表示系统默认
	FilePermission os.FileMode

	// UseLocking 每次追加时持有咨询锁
	UseLocking bool

	// FileNameFormat 轮转文件名模板，空值使用默认 "{fileName}-{date}"
	FileNameFormat string

	// DateFormat {date} 使用的 Go 时间格式，空值使用 "20060102"
	DateFormat string

	// OnError 轮转内务失败回调，不得向同一 Handler 写日志
	OnError func(error)

	// MeterProvider 轮转指标使用的 MeterProvider，nil 使用全局
	MeterProvider metric.MeterProvider
}

// DefaultRotatingFileSizeConfig 返回默认配置：1MB、不压缩、Debug、冒泡
func DefaultRotatingFileSizeConfig(filename string) RotatingFileSizeConfig {
	return RotatingFileSizeConfig{
		Filename:   filename,
		FileSizeMB: xrotate.DefaultFileSizeMB,
		Level:      LevelDebug,
		Bubble:     true,
	}
}

// RotatingFileSizeHandler 写入按大小轮转的日志文件
//
// 每条记录写入前检查活动文件大小，超过阈值时先轮转再写入。
// 写入失败从 Handle 返回；轮转内务失败只通过 OnError 和指标上报。
type RotatingFileSizeHandler struct {
	*WriterHandler
	rotator *xrotate.SizeRotator
}

// 编译时接口检查
var _ FormattableHandler = (*RotatingFileSizeHandler)(nil)

// NewRotatingFileSizeHandler 创建按大小轮转的文件 Handler
//
// 构造阶段只校验配置，不创建任何文件。
func NewRotatingFileSizeHandler(cfg RotatingFileSizeConfig, opts ...HandlerOption) (*RotatingFileSizeHandler, error) {
	rotator, err := xrotate.NewSize(cfg.Filename,
		xrotate.WithMaxSizeMB(cfg.FileSizeMB),
		xrotate.WithCompression(cfg.Compression),
		xrotate.WithSizeFileMode(cfg.FilePermission),
		xrotate.WithLocking(cfg.UseLocking),
		xrotate.WithFileNameFormat(cfg.FileNameFormat),
		xrotate.WithDateFormat(cfg.DateFormat),
		xrotate.WithSizeOnError(cfg.OnError),
		xrotate.WithMeterProvider(cfg.MeterProvider),
	)
	if err != nil {
		return nil, err
	}

	base := []HandlerOption{WithMinLevel(cfg.Level), WithBubble(cfg.Bubble)}
	wh, err := NewWriteCloserHandler(rotator, append(base, opts...)...)
	if err != nil {
		return nil, err
	}
	return &RotatingFileSizeHandler{WriterHandler: wh, rotator: rotator}, nil
}

// Rotator 返回底层轮转器
func (h *RotatingFileSizeHandler) Rotator() *xrotate.SizeRotator {
	return h.rotator
}

// Rotate 强制轮转当前活动文件
func (h *RotatingFileSizeHandler) Rotate() error {
	return h.rotator.Rotate()
}
