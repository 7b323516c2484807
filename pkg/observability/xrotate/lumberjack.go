package xrotate

import (
	"errors"
	"fmt"
	"os"
	"sync"
	"sync/atomic"

	"go.opentelemetry.io/otel/metric"
	"gopkg.in/natefinch/lumberjack.v2"
)

// lumberjack 默认值
const (
	DefaultMaxSizeMB  = 500
	DefaultMaxBackups = 7
	DefaultMaxAgeDays = 30
)

// 取值上限
const (
	maxSizeMB  = 10240 // 10 GB
	maxBackups = 1024
	maxAgeDays = 3650
)

// lumberjackSettings 是 NewLumberjack 的配置
//
// 与 SizeRotator 相比，lumberjack 的阈值是整数 MB，备份名带时间戳，
// 并按数量与天数清理旧备份。
type lumberjackSettings struct {
	maxSizeMB     int
	maxBackups    int
	maxAgeDays    int
	compress      bool
	localTime     bool
	fileMode      os.FileMode
	onError       func(error)
	meterProvider metric.MeterProvider
}

// LumberjackOption 配置 NewLumberjack
type LumberjackOption func(*lumberjackSettings)

// WithMaxSize 设置活动文件大小上限（MB）
func WithMaxSize(mb int) LumberjackOption {
	return func(s *lumberjackSettings) { s.maxSizeMB = mb }
}

// WithMaxBackups 设置保留的备份数量
func WithMaxBackups(n int) LumberjackOption {
	return func(s *lumberjackSettings) { s.maxBackups = n }
}

// WithMaxAge 设置备份保留天数
func WithMaxAge(days int) LumberjackOption {
	return func(s *lumberjackSettings) { s.maxAgeDays = days }
}

func WithCompress(compress bool) LumberjackOption {
	return func(s *lumberjackSettings) { s.compress = compress }
}

// WithLocalTime 备份文件名使用本地时间而非 UTC
func WithLocalTime(local bool) LumberjackOption {
	return func(s *lumberjackSettings) { s.localTime = local }
}

// WithFileMode 设置活动文件权限
//
// lumberjack 总是以 0600 创建文件，权限在写入后通过 chmod 校正，
// 因此新文件存在短暂的 0600 窗口。
func WithFileMode(mode os.FileMode) LumberjackOption {
	return func(s *lumberjackSettings) { s.fileMode = mode }
}

// WithOnError 接收权限校正失败，回调不得写入同一 Rotator
func WithOnError(fn func(error)) LumberjackOption {
	return func(s *lumberjackSettings) { s.onError = fn }
}

// WithLumberjackMeterProvider 设置手动轮转计数使用的 MeterProvider
func WithLumberjackMeterProvider(provider metric.MeterProvider) LumberjackOption {
	return func(s *lumberjackSettings) { s.meterProvider = provider }
}

func (s *lumberjackSettings) validate() error {
	var errs []error
	if s.maxSizeMB <= 0 || s.maxSizeMB > maxSizeMB {
		errs = append(errs, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidMaxSize, s.maxSizeMB, maxSizeMB))
	}
	if s.maxBackups < 0 || s.maxBackups > maxBackups {
		errs = append(errs, fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxBackups, s.maxBackups, maxBackups))
	}
	if s.maxAgeDays < 0 || s.maxAgeDays > maxAgeDays {
		errs = append(errs, fmt.Errorf("%w: got %d, want 0~%d", ErrInvalidMaxAge, s.maxAgeDays, maxAgeDays))
	}
	if s.maxBackups == 0 && s.maxAgeDays == 0 {
		errs = append(errs, ErrNoCleanupPolicy)
	}
	errs = append(errs, validateFileMode(s.fileMode))
	return errors.Join(errs...)
}

// permFixer 在首次写入和每次可能的轮转后把活动文件权限改为 mode
type permFixer struct {
	path     string
	mode     os.FileMode
	limit    int64
	mu       sync.Mutex
	applied  bool
	sinceFix int64
}

// afterWrite 累计写入量，达到轮转阈值时重新检查
func (p *permFixer) afterWrite(n int) error {
	p.mu.Lock()
	defer p.mu.Unlock()
	p.sinceFix += int64(n)
	if p.applied && p.sinceFix < p.limit {
		return nil
	}
	return p.fixLocked()
}

// afterRotate 在手动轮转后强制重新检查
func (p *permFixer) afterRotate() error {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.fixLocked()
}

func (p *permFixer) fixLocked() error {
	info, err := os.Stat(p.path)
	switch {
	case os.IsNotExist(err):
		return nil
	case err != nil:
		return err
	}
	if info.Mode().Perm() != p.mode {
		//#nosec G302 -- 权限由调用方配置
		if err := os.Chmod(p.path, p.mode); err != nil {
			return err
		}
	}
	p.applied = true
	p.sinceFix = 0
	return nil
}

// lumberjackRotator 把 lumberjack.Logger 适配为 Rotator
type lumberjackRotator struct {
	logger  *lumberjack.Logger
	perm    *permFixer
	onError func(error)
	metrics *telemetry
	closed  atomic.Bool
}

// NewLumberjack 创建基于 lumberjack 的 Rotator
//
// 路径处理与 NewSize 相同，父目录在构造时创建。
func NewLumberjack(filename string, opts ...LumberjackOption) (Rotator, error) {
	if filename == "" {
		return nil, ErrEmptyFilename
	}

	s := lumberjackSettings{
		maxSizeMB:  DefaultMaxSizeMB,
		maxBackups: DefaultMaxBackups,
		maxAgeDays: DefaultMaxAgeDays,
		compress:   true,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(&s)
		}
	}
	if err := s.validate(); err != nil {
		return nil, err
	}

	path, err := sanitizePath(filename)
	if err != nil {
		return nil, err
	}
	if err := ensureDir(path); err != nil {
		return nil, err
	}
	metrics, err := newTelemetry(s.meterProvider, path)
	if err != nil {
		return nil, err
	}

	r := &lumberjackRotator{
		logger: &lumberjack.Logger{
			Filename:   path,
			MaxSize:    s.maxSizeMB,
			MaxBackups: s.maxBackups,
			MaxAge:     s.maxAgeDays,
			Compress:   s.compress,
			LocalTime:  s.localTime,
		},
		onError: s.onError,
		metrics: metrics,
	}
	if s.fileMode != 0 {
		r.perm = &permFixer{path: path, mode: s.fileMode, limit: int64(s.maxSizeMB) * bytesPerMB}
	}
	return r, nil
}

func (r *lumberjackRotator) Write(p []byte) (int, error) {
	if r.closed.Load() {
		return 0, ErrClosed
	}
	n, err := r.logger.Write(p)
	if err != nil {
		// 与 Close 并发时统一返回 ErrClosed
		if r.closed.Load() {
			return n, ErrClosed
		}
		return n, err
	}
	if r.perm != nil {
		r.report(r.perm.afterWrite(n))
	}
	return n, nil
}

// Close 关闭活动文件，重复调用返回 ErrClosed
func (r *lumberjackRotator) Close() error {
	if r.closed.Swap(true) {
		return ErrClosed
	}
	return r.logger.Close()
}

// Rotate 立即轮转，备份清理由 lumberjack 在后台完成
func (r *lumberjackRotator) Rotate() error {
	if r.closed.Load() {
		return ErrClosed
	}
	if err := r.logger.Rotate(); err != nil {
		r.metrics.rotated(false, false)
		if r.closed.Load() {
			return ErrClosed
		}
		return err
	}
	r.metrics.rotated(true, r.logger.Compress)
	if r.perm != nil {
		r.report(r.perm.afterRotate())
	}
	return nil
}

func (r *lumberjackRotator) report(err error) {
	if err == nil || r.onError == nil {
		return
	}
	defer func() { _ = recover() }()
	r.onError(err)
}
