package xlogconf

import (
	"fmt"
	"maps"
	"slices"
	"strings"
	"sync"
)

// PluginFactory 根据选项映射构造插件实例。options 可能为 nil。
type PluginFactory[T any] func(options map[string]any) (T, error)

// Registry 是按字符串标识索引的插件工厂表。
//
// 标识区分大小写。未注册的标识返回 ErrUnknownPlugin，不做任何反射回退。
type Registry[T any] struct {
	kind string

	mu        sync.RWMutex
	factories map[string]PluginFactory[T]
}

// NewRegistry 创建空注册表，kind 仅用于错误信息（如 "handler"）。
func NewRegistry[T any](kind string) *Registry[T] {
	return &Registry[T]{
		kind:      kind,
		factories: make(map[string]PluginFactory[T]),
	}
}

// Register 注册工厂。标识为空、工厂为 nil 或标识已存在时返回错误。
func (r *Registry[T]) Register(name string, factory PluginFactory[T]) error {
	name = strings.TrimSpace(name)
	if name == "" || factory == nil {
		return fmt.Errorf("%w: %s %q", ErrInvalidPlugin, r.kind, name)
	}

	r.mu.Lock()
	defer r.mu.Unlock()
	if _, ok := r.factories[name]; ok {
		return fmt.Errorf("%w: %s %q", ErrDuplicatePlugin, r.kind, name)
	}
	r.factories[name] = factory
	return nil
}

// MustRegister 与 Register 相同，但失败时 panic。适用于 init 阶段。
func (r *Registry[T]) MustRegister(name string, factory PluginFactory[T]) {
	if err := r.Register(name, factory); err != nil {
		panic(err)
	}
}

// Has 报告标识是否已注册。
func (r *Registry[T]) Has(name string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()
	_, ok := r.factories[name]
	return ok
}

// Create 使用已注册的工厂构造实例。
func (r *Registry[T]) Create(name string, options map[string]any) (T, error) {
	r.mu.RLock()
	factory, ok := r.factories[name]
	r.mu.RUnlock()

	if !ok {
		var zero T
		return zero, fmt.Errorf("%w: %s %q", ErrUnknownPlugin, r.kind, name)
	}

	v, err := factory(options)
	if err != nil {
		var zero T
		return zero, fmt.Errorf("xlogconf: create %s %q: %w", r.kind, name, err)
	}
	return v, nil
}

// Names 返回已注册的标识（已排序）。
func (r *Registry[T]) Names() []string {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return slices.Sorted(maps.Keys(r.factories))
}
