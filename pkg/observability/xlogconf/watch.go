package xlogconf

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
)

// DefaultDebounce 是 Watcher 的默认防抖时间。
const DefaultDebounce = 100 * time.Millisecond

// WatchCallback 在每次重载尝试后调用，err 非 nil 表示重载或校验失败，此时 cfg 仍是旧快照。
type WatchCallback func(cfg *Config, err error)

// WatchOption 定义 Watcher 选项。
type WatchOption func(*watchOptions)

type watchOptions struct {
	debounce time.Duration
	validate func(*Config) error
}

// WithDebounce 设置防抖时间，指定时间内的多次变更只触发一次重载。
func WithDebounce(d time.Duration) WatchOption {
	return func(o *watchOptions) {
		if d > 0 {
			o.debounce = d
		}
	}
}

// WithValidator 设置重载校验函数，校验失败时保留旧配置。
// 默认使用内置注册表组装全部 Logger。
func WithValidator(fn func(*Config) error) WatchOption {
	return func(o *watchOptions) {
		o.validate = fn
	}
}

// ValidateConfig 使用内置注册表组装 cfg 中全部 Logger 并立即清理。
func ValidateConfig(cfg *Config) error {
	return NewFactory(cfg).Validate()
}

// Watcher 监视配置文件，变更后重载并校验。
type Watcher struct {
	cfg      *Config
	watcher  *fsnotify.Watcher
	callback WatchCallback
	debounce time.Duration
	validate func(*Config) error

	ctx    context.Context
	cancel context.CancelFunc

	mu      sync.Mutex
	running bool
	timer   *time.Timer
	wg      sync.WaitGroup
}

// Watch 创建配置文件监视器。只支持 Load 创建的 Config。
//
// 监视的是配置文件所在目录而不是文件本身，
// 这样编辑器"写临时文件再 rename"的保存方式也能被捕获。
// 返回的 Watcher 需要调用 Start 或 StartAsync 开始监视，Stop 停止。
func Watch(cfg *Config, callback WatchCallback, opts ...WatchOption) (*Watcher, error) {
	if cfg == nil || cfg.Path() == "" {
		return nil, ErrNotReloadable
	}

	o := &watchOptions{debounce: DefaultDebounce, validate: ValidateConfig}
	for _, opt := range opts {
		opt(o)
	}

	fsWatcher, err := fsnotify.NewWatcher()
	if err != nil {
		return nil, fmt.Errorf("xlogconf: failed to create watcher: %w", err)
	}

	dir := filepath.Dir(cfg.Path())
	if err := fsWatcher.Add(dir); err != nil {
		return nil, errors.Join(
			fmt.Errorf("xlogconf: failed to watch directory %s: %w", dir, err),
			fsWatcher.Close(),
		)
	}

	ctx, cancel := context.WithCancel(context.Background())
	return &Watcher{
		cfg:      cfg,
		watcher:  fsWatcher,
		callback: callback,
		debounce: o.debounce,
		validate: o.validate,
		ctx:      ctx,
		cancel:   cancel,
	}, nil
}

// Start 启动监视并阻塞，直到 Stop 被调用。
func (w *Watcher) Start() {
	if !w.markRunning() {
		return
	}
	w.run()
}

// StartAsync 在后台 goroutine 中启动监视并立即返回。
func (w *Watcher) StartAsync() {
	if !w.markRunning() {
		return
	}
	w.wg.Add(1)
	go func() {
		defer w.wg.Done()
		w.run()
	}()
}

func (w *Watcher) markRunning() bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	if w.running || w.ctx.Err() != nil {
		return false
	}
	w.running = true
	return true
}

// Stop 停止监视。返回后不会再有新的回调开始执行。可重复调用。
func (w *Watcher) Stop() error {
	w.mu.Lock()
	if w.ctx.Err() != nil {
		w.mu.Unlock()
		return nil
	}
	if w.timer != nil {
		w.timer.Stop()
		w.timer = nil
	}
	w.cancel()
	w.running = false
	err := w.watcher.Close()
	w.mu.Unlock()

	w.wg.Wait()
	return err
}

func (w *Watcher) run() {
	filename := filepath.Base(w.cfg.Path())

	for {
		select {
		case <-w.ctx.Done():
			return

		case event, ok := <-w.watcher.Events:
			if !ok {
				return
			}
			w.handleEvent(event, filename)

		case err, ok := <-w.watcher.Errors:
			if !ok {
				return
			}
			w.notify(fmt.Errorf("xlogconf: watch error: %w", err))
		}
	}
}

func (w *Watcher) handleEvent(event fsnotify.Event, filename string) {
	if filepath.Base(event.Name) != filename {
		return
	}
	if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) && !event.Has(fsnotify.Rename) {
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()
	if w.ctx.Err() != nil {
		return
	}
	if w.timer != nil {
		w.timer.Stop()
	}
	w.timer = time.AfterFunc(w.debounce, w.reload)
}

func (w *Watcher) reload() {
	if w.ctx.Err() != nil {
		return
	}
	w.notify(w.cfg.reload(w.validate))
}

func (w *Watcher) notify(err error) {
	if w.callback == nil || w.ctx.Err() != nil {
		return
	}
	w.callback(w.cfg, err)
}
