package xlogconf

import "errors"

// 配置文件加载相关错误。
var (
	// ErrEmptyPath 表示配置文件路径为空。
	ErrEmptyPath = errors.New("xlogconf: empty config path")

	// ErrUnsupportedFormat 表示不支持的配置格式。
	ErrUnsupportedFormat = errors.New("xlogconf: unsupported config format")

	// ErrLoadFailed 表示配置加载失败。
	ErrLoadFailed = errors.New("xlogconf: failed to load config")

	// ErrParseFailed 表示配置解析失败。
	ErrParseFailed = errors.New("xlogconf: failed to parse config")

	// ErrUnmarshalFailed 表示配置反序列化失败。
	ErrUnmarshalFailed = errors.New("xlogconf: failed to unmarshal config")

	// ErrNotReloadable 表示配置不是从文件加载的，无法重载或监视。
	ErrNotReloadable = errors.New("xlogconf: config is not backed by a file")
)

// 插件注册表相关错误。
var (
	// ErrUnknownPlugin 表示注册表中不存在该标识。
	ErrUnknownPlugin = errors.New("xlogconf: unknown plugin")

	// ErrInvalidPlugin 表示注册的标识为空或工厂为 nil。
	ErrInvalidPlugin = errors.New("xlogconf: invalid plugin registration")

	// ErrDuplicatePlugin 表示标识已被注册。
	ErrDuplicatePlugin = errors.New("xlogconf: plugin already registered")

	// ErrInvalidOptions 表示插件选项无法解码。
	ErrInvalidOptions = errors.New("xlogconf: invalid plugin options")
)

// Logger 组装相关错误，均在创建 Logger 时返回，此时尚未触碰任何日志文件。
var (
	// ErrUnknownLogger 表示配置中没有该名称的 Logger。
	ErrUnknownLogger = errors.New("xlogconf: unknown logger")

	// ErrMissingChannel 表示 Logger 配置缺少 channel。
	ErrMissingChannel = errors.New("xlogconf: logger channel is required")

	// ErrInvalidHandlerConfig 表示 handler 条目既不是映射也不是 xlog.Handler。
	ErrInvalidHandlerConfig = errors.New("xlogconf: handler config must be a map or an xlog.Handler")

	// ErrMissingType 表示 handler 或 formatter 映射缺少 type。
	ErrMissingType = errors.New("xlogconf: plugin type is required")

	// ErrInvalidFormatterConfig 表示 formatter 条目既不是映射也不是 xlog.Formatter。
	ErrInvalidFormatterConfig = errors.New("xlogconf: formatter config must be a map or an xlog.Formatter")

	// ErrFormatterNotSupported 表示 handler 不接受 formatter。
	ErrFormatterNotSupported = errors.New("xlogconf: handler does not accept a formatter")

	// ErrInvalidProcessor 表示 processor 条目既不是标识、映射也不是可调用的 xlog.Processor。
	ErrInvalidProcessor = errors.New("xlogconf: processor must be a plugin id or an xlog.Processor")

	// ErrMissingFilename 表示文件类 handler 缺少 filename 选项。
	ErrMissingFilename = errors.New("xlogconf: filename option is required")
)
