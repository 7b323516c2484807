package xlogconf

import (
	"fmt"
	"maps"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"

	"github.com/knadh/koanf/parsers/json"
	"github.com/knadh/koanf/parsers/yaml"
	"github.com/knadh/koanf/providers/rawbytes"
	"github.com/knadh/koanf/v2"
)

// Format 定义配置文件格式。
type Format string

// 支持的配置格式。
const (
	FormatYAML Format = "yaml"
	FormatJSON Format = "json"
)

// DefaultRoot 是 Logger 定义所在的顶层键。
const DefaultRoot = "logger"

// Option 定义配置加载选项。
type Option func(*options)

type options struct {
	root string
	tag  string
}

func defaultOptions() *options {
	return &options{root: DefaultRoot, tag: "koanf"}
}

// WithRoot 设置 Logger 定义所在的顶层键，默认 "logger"。
func WithRoot(root string) Option {
	return func(o *options) {
		if root = strings.TrimSpace(root); root != "" {
			o.root = root
		}
	}
}

// WithTag 设置 Unmarshal 使用的结构体标签，默认 "koanf"。
func WithTag(tag string) Option {
	return func(o *options) {
		if tag != "" {
			o.tag = tag
		}
	}
}

// Config 保存一份日志配置的快照。
//
// 文件来源的 Config 支持 Reload 与 Watch；字节与映射来源的 Config 只读。
// 所有方法并发安全。
type Config struct {
	mu      sync.RWMutex
	k       *koanf.Koanf // 映射来源时为 nil
	loggers map[string]any

	path   string
	format Format
	opts   *options
}

// Load 从文件加载配置，按扩展名识别格式（.yaml/.yml/.json）。
func Load(path string, opts ...Option) (*Config, error) {
	if path == "" {
		return nil, ErrEmptyPath
	}
	format, err := detectFormat(path)
	if err != nil {
		return nil, err
	}

	c := &Config{path: path, format: format, opts: applyOptions(opts)}
	k, loggers, err := c.readFile()
	if err != nil {
		return nil, err
	}
	c.k, c.loggers = k, loggers
	return c, nil
}

// LoadBytes 从字节数据加载配置，适用于 K8s ConfigMap 等场景。
// 空数据得到一个不含任何 Logger 的配置。
func LoadBytes(data []byte, format Format, opts ...Option) (*Config, error) {
	if !isValidFormat(format) {
		return nil, ErrUnsupportedFormat
	}

	c := &Config{format: format, opts: applyOptions(opts)}
	k := koanf.New(".")
	if len(data) > 0 {
		if err := loadData(k, data, format); err != nil {
			return nil, err
		}
	}
	loggers, err := c.section(k.Raw())
	if err != nil {
		return nil, err
	}
	c.k, c.loggers = k, loggers
	return c, nil
}

// LoadMap 从内存映射创建配置。
//
// 映射中的 handler、formatter、processor 条目可以是已构造好的
// xlog.Handler、xlog.Formatter、xlog.Processor 值，它们按原样交给 Factory。
// 映射来源的配置不经过 koanf，Unmarshal 不可用。
func LoadMap(m map[string]any, opts ...Option) (*Config, error) {
	c := &Config{opts: applyOptions(opts)}
	loggers, err := c.section(m)
	if err != nil {
		return nil, err
	}
	c.loggers = loggers
	return c, nil
}

// Path 返回配置文件路径，非文件来源返回空字符串。
func (c *Config) Path() string {
	return c.path
}

// Format 返回配置格式，映射来源返回空字符串。
func (c *Config) Format() Format {
	return c.format
}

// Root 返回 Logger 定义所在的顶层键。
func (c *Config) Root() string {
	return c.opts.root
}

// Names 返回已定义的 Logger 名称（已排序）。
func (c *Config) Names() []string {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return slices.Sorted(maps.Keys(c.loggers))
}

// Logger 返回指定 Logger 的原始定义。
func (c *Config) Logger(name string) (any, bool) {
	c.mu.RLock()
	defer c.mu.RUnlock()
	v, ok := c.loggers[name]
	return v, ok
}

// Unmarshal 将指定路径的配置反序列化到目标结构体，path 为空时反序列化整个文档。
func (c *Config) Unmarshal(path string, target any) error {
	c.mu.RLock()
	k := c.k
	c.mu.RUnlock()

	if k == nil {
		return fmt.Errorf("%w: map-backed config", ErrUnmarshalFailed)
	}
	if err := k.UnmarshalWithConf(path, target, koanf.UnmarshalConf{Tag: c.opts.tag}); err != nil {
		return fmt.Errorf("%w: %w", ErrUnmarshalFailed, err)
	}
	return nil
}

// Reload 重新读取配置文件。解析失败时保留旧配置。
func (c *Config) Reload() error {
	return c.reload(nil)
}

// reload 读取并解析文件，validate 通过后才替换当前快照。
func (c *Config) reload(validate func(*Config) error) error {
	if c.path == "" {
		return ErrNotReloadable
	}

	k, loggers, err := c.readFile()
	if err != nil {
		return err
	}

	if validate != nil {
		candidate := &Config{k: k, loggers: loggers, path: c.path, format: c.format, opts: c.opts}
		if err := validate(candidate); err != nil {
			return err
		}
	}

	c.mu.Lock()
	c.k, c.loggers = k, loggers
	c.mu.Unlock()
	return nil
}

func (c *Config) readFile() (*koanf.Koanf, map[string]any, error) {
	data, err := os.ReadFile(c.path)
	if err != nil {
		return nil, nil, fmt.Errorf("%w: %w", ErrLoadFailed, err)
	}

	k := koanf.New(".")
	if err := loadData(k, data, c.format); err != nil {
		return nil, nil, err
	}
	loggers, err := c.section(k.Raw())
	if err != nil {
		return nil, nil, err
	}
	return k, loggers, nil
}

// section 提取 Logger 定义所在的映射。顶层键缺失视为空配置。
func (c *Config) section(doc map[string]any) (map[string]any, error) {
	v, ok := doc[c.opts.root]
	if !ok || v == nil {
		return map[string]any{}, nil
	}
	m, ok := v.(map[string]any)
	if !ok {
		return nil, fmt.Errorf("%w: %q must be a map, got %T", ErrUnmarshalFailed, c.opts.root, v)
	}
	return maps.Clone(m), nil
}

func applyOptions(opts []Option) *options {
	o := defaultOptions()
	for _, opt := range opts {
		opt(o)
	}
	return o
}

// =============================================================================
// 内部辅助函数
// =============================================================================

func detectFormat(path string) (Format, error) {
	ext := strings.ToLower(filepath.Ext(path))
	switch ext {
	case ".yaml", ".yml":
		return FormatYAML, nil
	case ".json":
		return FormatJSON, nil
	default:
		return "", fmt.Errorf("%w: unknown extension %q", ErrUnsupportedFormat, ext)
	}
}

func isValidFormat(format Format) bool {
	return format == FormatYAML || format == FormatJSON
}

func loadData(k *koanf.Koanf, data []byte, format Format) error {
	var parser koanf.Parser
	switch format {
	case FormatYAML:
		parser = yaml.Parser()
	case FormatJSON:
		parser = json.Parser()
	default:
		return ErrUnsupportedFormat
	}

	if err := k.Load(rawbytes.Provider(data), parser); err != nil {
		return fmt.Errorf("%w: %w", ErrParseFailed, err)
	}
	return nil
}
