package xrotate

import (
	"errors"
	"fmt"
	"math"
	"os"
	"sync"
	"time"

	"go.opentelemetry.io/otel/metric"
)

// 编译时断言
var _ Rotator = (*SizeRotator)(nil)

// DefaultFileSizeMB 默认单个日志文件最大大小（MB）
const DefaultFileSizeMB = 1.0

// sizeConfig 按大小轮转的配置
type sizeConfig struct {
	maxSizeMB        float64
	compressionLevel int
	fileMode         os.FileMode
	useLocking       bool
	fileNameFormat   string
	dateFormat       string
	onError          func(error)
	meterProvider    metric.MeterProvider
}

// SizeOption SizeRotator 配置选项
type SizeOption func(*sizeConfig)

// WithMaxSizeMB 设置触发轮转的文件大小（MB，可为小数）
//
// 0 或负数表示不限制大小，永不按大小轮转。
func WithMaxSizeMB(mb float64) SizeOption {
	return func(c *sizeConfig) {
		c.maxSizeMB = mb
	}
}

// WithCompression 设置 gzip 压缩级别
//
// 超出 [0, 9] 的值被截断到边界而不是报错；0 表示不压缩。
func WithCompression(level int) SizeOption {
	return func(c *sizeConfig) {
		c.compressionLevel = ClampCompression(level)
	}
}

// WithSizeFileMode 设置活动文件的创建权限
func WithSizeFileMode(mode os.FileMode) SizeOption {
	return func(c *sizeConfig) {
		c.fileMode = mode
	}
}

// WithLocking 设置写入时是否持有咨询排他锁
func WithLocking(locking bool) SizeOption {
	return func(c *sizeConfig) {
		c.useLocking = locking
	}
}

// WithFileNameFormat 设置轮转文件名模板
//
// 支持 {fileName}、{date}、{rotation} 占位符。
func WithFileNameFormat(format string) SizeOption {
	return func(c *sizeConfig) {
		if format != "" {
			c.fileNameFormat = format
		}
	}
}

// WithDateFormat 设置 {date} 使用的 Go 时间格式
func WithDateFormat(layout string) SizeOption {
	return func(c *sizeConfig) {
		if layout != "" {
			c.dateFormat = layout
		}
	}
}

// WithSizeOnError 设置内务错误回调
//
// 重命名、压缩等轮转内务失败时调用，错误包装 [ErrRotateRename]、
// [ErrRotateCompress] 或 [ErrRotationExhausted]。
//
// 回调在持有轮转器锁时同步执行，不得向同一 Rotator 写入数据，否则会死锁。
func WithSizeOnError(fn func(error)) SizeOption {
	return func(c *sizeConfig) {
		c.onError = fn
	}
}

// WithMeterProvider 设置轮转指标使用的 MeterProvider
func WithMeterProvider(provider metric.MeterProvider) SizeOption {
	return func(c *sizeConfig) {
		c.meterProvider = provider
	}
}

// SizeRotator 按文件大小轮转的 Rotator
//
// 每次 Write 前检查活动文件大小，超过阈值时：关闭文件 → 重命名为
// 轮转文件名 → 可选 gzip 压缩 → 在原路径上重新创建文件并追加本次数据。
//
// 错误语义不对称：
//   - 打开/追加活动文件失败从 Write 返回
//   - 重命名/压缩失败被吞掉，只通过 OnError 和指标上报，日志写入不受影响
//
// 并发安全：一个互斥锁覆盖完整的"检查-轮转-写入"周期，同一实例的轮转不会重叠。
// 跨进程共享同一路径时轮转是尽力而为的，竞态被容忍而非阻止。
type SizeRotator struct {
	policy   Policy
	appender *FileAppender
	onError  func(error)
	metrics  *telemetry
	now      func() time.Time

	// 可注入的文件操作（nil 时使用默认实现），仅用于测试
	renameFn   func(oldpath, newpath string) error
	compressFn func(path string, level int) error

	mu      sync.Mutex
	pending bool
	closed  bool
}

// NewSize 创建按大小轮转的 Rotator
//
// 构造阶段只做配置校验，不创建任何文件；活动文件在首次写入时创建。
func NewSize(filename string, opts ...SizeOption) (*SizeRotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	cfg := sizeConfig{
		maxSizeMB:      DefaultFileSizeMB,
		fileNameFormat: DefaultFileNameFormat,
		dateFormat:     DefaultDateFormat,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&cfg)
		}
	}

	if math.IsNaN(cfg.maxSizeMB) || math.IsInf(cfg.maxSizeMB, 0) {
		return nil, fmt.Errorf("%w: got %v", ErrInvalidMaxSize, cfg.maxSizeMB)
	}

	appender, err := NewFileAppender(filename,
		WithAppendMode(cfg.fileMode),
		WithAppendLocking(cfg.useLocking),
	)
	if err != nil {
		return nil, err
	}

	metrics, err := newTelemetry(cfg.meterProvider, appender.Path())
	if err != nil {
		return nil, err
	}

	return &SizeRotator{
		policy: Policy{
			MaxSizeMB:        cfg.maxSizeMB,
			CompressionLevel: cfg.compressionLevel,
			FileNameFormat:   cfg.fileNameFormat,
			DateFormat:       cfg.dateFormat,
		},
		appender: appender,
		onError:  cfg.onError,
		metrics:  metrics,
		now:      time.Now,
	}, nil
}

// Path 返回活动文件路径
func (r *SizeRotator) Path() string {
	return r.appender.Path()
}

// Policy 返回生效的轮转策略
func (r *SizeRotator) Policy() Policy {
	return r.policy
}

// MaxSizeMB 返回轮转阈值（MB）
func (r *SizeRotator) MaxSizeMB() float64 {
	return r.policy.MaxSizeMB
}

// CompressionLevel 返回截断后的压缩级别
func (r *SizeRotator) CompressionLevel() int {
	return r.policy.CompressionLevel
}

// IsOpen 活动文件句柄是否打开
func (r *SizeRotator) IsOpen() bool {
	return r.appender.IsOpen()
}

// Write 实现 io.Writer 接口
func (r *SizeRotator) Write(p []byte) (int, error) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return 0, ErrClosed
	}

	r.pending = r.mustRotate()
	if r.pending {
		// 关闭错误不影响后续写入：轮转仍然基于已关闭的文件进行
		r.reportError(r.closeAndRotate())
	}
	return r.appender.Write(p)
}

// Close 实现 io.Closer 接口
//
// 先关闭活动文件；若本轮写入标记了待轮转，则在关闭后执行轮转。
// 重复调用返回 [ErrClosed]。
func (r *SizeRotator) Close() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.closed = true
	return r.closeAndRotate()
}

// Rotate 手动触发轮转
//
// 活动文件不存在时只关闭句柄。内务失败同样不返回。
func (r *SizeRotator) Rotate() error {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.closed {
		return ErrClosed
	}
	r.pending = fileExists(r.appender.Path())
	return r.closeAndRotate()
}

// mustRotate 基于路径当前状态判断是否需要轮转
//
// 使用路径而非已打开句柄的大小，其他进程轮转走文件后不会重复轮转。
func (r *SizeRotator) mustRotate() bool {
	info, err := os.Stat(r.appender.Path())
	if err != nil {
		return false
	}
	return r.policy.MustRotate(true, info.Size())
}

// closeAndRotate 关闭活动文件，需要时执行轮转
func (r *SizeRotator) closeAndRotate() error {
	err := r.appender.Close()
	if r.pending {
		r.rotate()
	}
	return err
}

// rotate 轮转过程：计算目标名 → 重命名 → 可选压缩 → 清除待轮转标记
//
// 调用方必须持有 r.mu，且活动文件已关闭。
func (r *SizeRotator) rotate() {
	defer func() { r.pending = false }()

	src := r.appender.Path()
	compressed := r.policy.Compress()

	dst, err := r.policy.NextAvailableName(src, r.now(), fileExists)
	if err != nil {
		r.housekeepingFailed(stageName, err)
		r.metrics.rotated(false, compressed)
		return
	}

	if !isWritable(src) {
		// 活动文件已被其他进程移走或不可写，本次不轮转
		r.metrics.rotated(false, compressed)
		return
	}
	rename := r.renameFn
	if rename == nil {
		rename = os.Rename
	}
	if err := rename(src, dst); err != nil {
		r.housekeepingFailed(stageRename, fmt.Errorf("%w: %s -> %s: %w", ErrRotateRename, src, dst, err))
		r.metrics.rotated(false, compressed)
		return
	}

	if compressed {
		compress := r.compressFn
		if compress == nil {
			compress = compressInPlace
		}
		if err := compress(dst, r.policy.CompressionLevel); err != nil {
			r.housekeepingFailed(stageCompress, fmt.Errorf("%w: %s: %w", ErrRotateCompress, dst, err))
			r.metrics.rotated(false, compressed)
			return
		}
	}

	r.metrics.rotated(true, compressed)
}

func (r *SizeRotator) housekeepingFailed(stage string, err error) {
	r.metrics.failed(stage)
	r.reportError(err)
}

// reportError 通过回调上报内部错误
//
// 回调 panic 被 recover 隔离，日志内务通知不能反向中断写入。
func (r *SizeRotator) reportError(err error) {
	if err == nil || r.onError == nil {
		return
	}
	defer func() { recover() }() //nolint:errcheck // recover 返回值无需检查
	r.onError(err)
}

// IsHousekeeping 判断错误是否属于被吞掉的轮转内务错误
//
// 用于 OnError 回调中区分内务失败与关闭文件等其他内部错误。
func IsHousekeeping(err error) bool {
	return errors.Is(err, ErrRotateRename) ||
		errors.Is(err, ErrRotateCompress) ||
		errors.Is(err, ErrRotationExhausted)
}
