package xlog

import (
	"bytes"
	"encoding/json"
	"fmt"
	"strings"
	"time"
)

// Formatter 将 Record 序列化为待写入的字节
type Formatter interface {
	Format(r Record) ([]byte, error)
}

// 编译时接口检查
var (
	_ Formatter = (*LineFormatter)(nil)
	_ Formatter = (*JSONFormatter)(nil)
)

const (
	// DefaultLineFormat 默认单行模板
	DefaultLineFormat = "[%datetime%] %channel%.%level_name%: %message% %context% %extra%\n"

	// DefaultDateFormat 默认时间格式
	DefaultDateFormat = "2006-01-02 15:04:05"
)

// =============================================================================
// LineFormatter
// =============================================================================

// LineFormatter 按模板输出单行文本
//
// 模板占位符：
//   - %datetime% %channel% %level_name% %level% %message%
//   - %context% %extra%：整体以 JSON 输出，空时为 "[]"
//   - %context.key% %extra.key%：单个字段，被引用的字段不再出现在整体输出中
type LineFormatter struct {
	format                     string
	dateFormat                 string
	allowInlineLineBreaks      bool
	ignoreEmptyContextAndExtra bool
}

// LineFormatterOption LineFormatter 配置选项
type LineFormatterOption func(*LineFormatter)

// WithLineFormat 设置输出模板，空值使用 DefaultLineFormat
func WithLineFormat(format string) LineFormatterOption {
	return func(f *LineFormatter) {
		if format != "" {
			f.format = format
		}
	}
}

// WithDateFormat 设置 %datetime% 使用的 Go 时间格式
func WithDateFormat(layout string) LineFormatterOption {
	return func(f *LineFormatter) {
		if layout != "" {
			f.dateFormat = layout
		}
	}
}

// WithInlineLineBreaks 是否保留消息和字段中的换行
//
// 默认关闭：换行被替换为空格，保证一条记录占一行。
func WithInlineLineBreaks(allow bool) LineFormatterOption {
	return func(f *LineFormatter) {
		f.allowInlineLineBreaks = allow
	}
}

// WithIgnoreEmptyContextAndExtra 空的 context/extra 输出为空串而不是 "[]"
func WithIgnoreEmptyContextAndExtra(ignore bool) LineFormatterOption {
	return func(f *LineFormatter) {
		f.ignoreEmptyContextAndExtra = ignore
	}
}

// NewLineFormatter 创建单行格式化器
func NewLineFormatter(opts ...LineFormatterOption) *LineFormatter {
	f := &LineFormatter{
		format:     DefaultLineFormat,
		dateFormat: DefaultDateFormat,
	}
	for _, opt := range opts {
		if opt != nil {
			opt(f)
		}
	}
	return f
}

// Format 实现 Formatter 接口
func (f *LineFormatter) Format(r Record) ([]byte, error) {
	out := f.format
	context := r.Context
	extra := r.Extra

	// 先替换单字段占位符，被引用的字段从整体输出中移除
	if strings.Contains(out, "%extra.") {
		out, extra = f.replaceFields(out, "extra", extra)
	}
	if strings.Contains(out, "%context.") {
		out, context = f.replaceFields(out, "context", context)
	}

	contextStr, err := f.stringifyMap(context)
	if err != nil {
		return nil, err
	}
	extraStr, err := f.stringifyMap(extra)
	if err != nil {
		return nil, err
	}

	out = strings.NewReplacer(
		"%datetime%", r.Time.Format(f.dateFormat),
		"%channel%", r.Channel,
		"%level_name%", r.LevelName(),
		"%level%", fmt.Sprint(int(r.Level)),
		"%message%", f.inline(r.Message),
		"%context%", contextStr,
		"%extra%", extraStr,
	).Replace(out)

	if f.ignoreEmptyContextAndExtra {
		out = collapseSpaces(out)
	}
	return []byte(out), nil
}

// replaceFields 替换 %prefix.key% 占位符，返回剩余字段
func (f *LineFormatter) replaceFields(out, prefix string, fields map[string]any) (string, map[string]any) {
	var rest map[string]any
	for k, v := range fields {
		token := "%" + prefix + "." + k + "%"
		if !strings.Contains(out, token) {
			continue
		}
		if rest == nil {
			rest = cloneMap(fields)
		}
		out = strings.ReplaceAll(out, token, f.stringify(v))
		delete(rest, k)
	}
	if rest == nil {
		rest = fields
	}
	// 未出现的字段占位符置空，避免残留模板文本
	for {
		start := strings.Index(out, "%"+prefix+".")
		if start < 0 {
			break
		}
		end := strings.Index(out[start+1:], "%")
		if end < 0 {
			break
		}
		out = out[:start] + out[start+end+2:]
	}
	return out, rest
}

func (f *LineFormatter) stringifyMap(m map[string]any) (string, error) {
	if len(m) == 0 {
		if f.ignoreEmptyContextAndExtra {
			return "", nil
		}
		return "[]", nil
	}
	data, err := marshalJSON(m)
	if err != nil {
		return "", fmt.Errorf("xlog: format fields: %w", err)
	}
	return f.inline(string(data)), nil
}

func (f *LineFormatter) stringify(v any) string {
	switch val := v.(type) {
	case string:
		return f.inline(val)
	case nil:
		return "null"
	default:
		data, err := marshalJSON(val)
		if err != nil {
			return f.inline(fmt.Sprint(val))
		}
		return f.inline(string(data))
	}
}

func (f *LineFormatter) inline(s string) string {
	if f.allowInlineLineBreaks {
		return s
	}
	return strings.NewReplacer("\r\n", " ", "\r", " ", "\n", " ").Replace(s)
}

// collapseSpaces 去除空字段留下的连续空格和行尾空格
func collapseSpaces(s string) string {
	hasNewline := strings.HasSuffix(s, "\n")
	s = strings.TrimRight(s, "\n")
	for strings.Contains(s, "  ") {
		s = strings.ReplaceAll(s, "  ", " ")
	}
	s = strings.TrimRight(s, " ")
	if hasNewline {
		s += "\n"
	}
	return s
}

// =============================================================================
// JSONFormatter
// =============================================================================

// JSONFormatter 每条记录输出一个 JSON 对象
type JSONFormatter struct {
	appendNewline bool
}

// NewJSONFormatter 创建 JSON 格式化器
//
// appendNewline 为 true 时每条记录以换行结尾（JSON Lines）。
func NewJSONFormatter(appendNewline bool) *JSONFormatter {
	return &JSONFormatter{appendNewline: appendNewline}
}

// jsonRecord JSON 输出结构，字段顺序固定
type jsonRecord struct {
	Message   string         `json:"message"`
	Context   map[string]any `json:"context"`
	Level     int            `json:"level"`
	LevelName string         `json:"level_name"`
	Channel   string         `json:"channel"`
	Datetime  string         `json:"datetime"`
	Extra     map[string]any `json:"extra"`
}

// Format 实现 Formatter 接口
func (f *JSONFormatter) Format(r Record) ([]byte, error) {
	data, err := marshalJSON(jsonRecord{
		Message:   r.Message,
		Context:   normalizeMap(r.Context),
		Level:     int(r.Level),
		LevelName: r.LevelName(),
		Channel:   r.Channel,
		Datetime:  r.Time.Format(time.RFC3339Nano),
		Extra:     normalizeMap(r.Extra),
	})
	if err != nil {
		return nil, fmt.Errorf("xlog: format json: %w", err)
	}
	if f.appendNewline {
		data = append(data, '\n')
	}
	return data, nil
}

// =============================================================================
// JSON 辅助
// =============================================================================

// marshalJSON 编码为紧凑 JSON，不转义 HTML 字符
func marshalJSON(v any) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(normalize(v)); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

// normalize 将 JSON 无法直接表达的值转换为可读形式
func normalize(v any) any {
	switch val := v.(type) {
	case map[string]any:
		return normalizeMap(val)
	case error:
		return val.Error()
	case time.Duration:
		return val.String()
	case fmt.Stringer:
		if _, ok := v.(json.Marshaler); ok {
			return v
		}
		return val.String()
	default:
		return v
	}
}

func normalizeMap(m map[string]any) map[string]any {
	out := make(map[string]any, len(m))
	for k, v := range m {
		out[k] = normalize(v)
	}
	return out
}
