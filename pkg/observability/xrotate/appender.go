package xrotate

import (
	"errors"
	"fmt"
	"io"
	"os"
	"sync"
)

// 编译时断言
var _ io.WriteCloser = (*FileAppender)(nil)

// defaultFileMode 未指定权限时创建文件使用的模式（受 umask 影响）
const defaultFileMode = 0o644

// FileAppender 向固定路径追加字节
//
// 首次写入时以 O_APPEND 惰性打开文件，Close 后再次写入会重新打开同一路径。
// 不做任何轮转决策；[SizeRotator] 持有并驱动它。
//
// 并发安全：内部互斥锁串行化 Open/Write/Close。
type FileAppender struct {
	path    string
	mode    os.FileMode // 0 表示使用 defaultFileMode 且不强制 chmod
	locking bool

	mu sync.Mutex
	f  *os.File
}

// AppenderOption FileAppender 配置选项
type AppenderOption func(*FileAppender)

// WithAppendMode 设置新建文件的权限
//
// 文件创建后会显式 chmod，使最终权限不受进程 umask 影响。
func WithAppendMode(mode os.FileMode) AppenderOption {
	return func(a *FileAppender) {
		a.mode = mode
	}
}

// WithAppendLocking 设置是否在每次追加期间持有咨询排他锁
func WithAppendLocking(locking bool) AppenderOption {
	return func(a *FileAppender) {
		a.locking = locking
	}
}

// NewFileAppender 创建文件追加器
//
// 只做路径和权限校验，不会触碰文件系统。
func NewFileAppender(filename string, opts ...AppenderOption) (*FileAppender, error) {
	path, err := sanitizePath(filename)
	if err != nil {
		return nil, err
	}

	a := &FileAppender{path: path}
	for _, opt := range opts {
		if opt != nil {
			opt(a)
		}
	}
	if err := validateFileMode(a.mode); err != nil {
		return nil, err
	}
	return a, nil
}

// Path 返回规范化后的文件路径
func (a *FileAppender) Path() string {
	return a.path
}

// IsOpen 文件句柄当前是否处于打开状态
func (a *FileAppender) IsOpen() bool {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.f != nil
}

// Open 打开（必要时创建）活动文件；已打开时为空操作
func (a *FileAppender) Open() error {
	a.mu.Lock()
	defer a.mu.Unlock()
	return a.openLocked()
}

func (a *FileAppender) openLocked() error {
	if a.f != nil {
		return nil
	}
	if err := ensureDir(a.path); err != nil {
		return fmt.Errorf("xrotate: create log directory: %w", err)
	}

	mode := a.mode
	if mode == 0 {
		mode = defaultFileMode
	}
	created := !fileExists(a.path)

	//#nosec G304 -- 路径已经过 sanitizePath 校验
	f, err := os.OpenFile(a.path, os.O_CREATE|os.O_WRONLY|os.O_APPEND, mode)
	if err != nil {
		return fmt.Errorf("xrotate: open %s: %w", a.path, err)
	}
	if created && a.mode != 0 {
		if err := f.Chmod(a.mode); err != nil {
			return errors.Join(fmt.Errorf("xrotate: chmod %s: %w", a.path, err), f.Close())
		}
	}
	a.f = f
	return nil
}

// Write 追加 p 到活动文件，必要时先打开文件
//
// 启用咨询锁时，锁只覆盖本次追加。
func (a *FileAppender) Write(p []byte) (int, error) {
	a.mu.Lock()
	defer a.mu.Unlock()

	if err := a.openLocked(); err != nil {
		return 0, err
	}

	if a.locking {
		if err := lockFile(a.f); err != nil {
			return 0, fmt.Errorf("xrotate: lock %s: %w", a.path, err)
		}
		//nolint:errcheck // 解锁失败时内核会在 Close 时释放锁
		defer unlockFile(a.f)
	}

	n, err := a.f.Write(p)
	if err != nil {
		return n, fmt.Errorf("xrotate: write %s: %w", a.path, err)
	}
	return n, nil
}

// Close 关闭文件句柄；未打开时为空操作
//
// 与 Rotator 不同，FileAppender 关闭后仍可再次写入。
func (a *FileAppender) Close() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.f == nil {
		return nil
	}
	err := a.f.Close()
	a.f = nil
	if err != nil {
		return fmt.Errorf("xrotate: close %s: %w", a.path, err)
	}
	return nil
}
