package xlog

import (
	"fmt"
	"log/slog"
	"strings"
)

// Level 日志级别，与 slog.Level 兼容
//
// 在 slog 的四个级别之间补充了 syslog 风格的 NOTICE/CRITICAL/ALERT/EMERGENCY，
// 数值间隔保证与 slog 原生级别可以直接比较。
type Level slog.Level

// 日志级别常量
const (
	LevelDebug     = Level(slog.LevelDebug) // -4
	LevelInfo      = Level(slog.LevelInfo)  // 0
	LevelNotice    = Level(2)
	LevelWarn      = Level(slog.LevelWarn)  // 4
	LevelError     = Level(slog.LevelError) // 8
	LevelCritical  = Level(12)
	LevelAlert     = Level(16)
	LevelEmergency = Level(20)
)

// levelNames 标准级别名称，按严重程度升序
var levelNames = []struct {
	level Level
	name  string
}{
	{LevelDebug, "DEBUG"},
	{LevelInfo, "INFO"},
	{LevelNotice, "NOTICE"},
	{LevelWarn, "WARN"},
	{LevelError, "ERROR"},
	{LevelCritical, "CRITICAL"},
	{LevelAlert, "ALERT"},
	{LevelEmergency, "EMERGENCY"},
}

// Levels 返回所有标准级别，按严重程度升序
func Levels() []Level {
	out := make([]Level, len(levelNames))
	for i, ln := range levelNames {
		out[i] = ln.level
	}
	return out
}

// String 返回级别的字符串表示
//
// 标准级别返回大写名称，非标准级别委托给 slog.Level.String()（如 "INFO+1"）。
func (l Level) String() string {
	for _, ln := range levelNames {
		if ln.level == l {
			return ln.name
		}
	}
	return slog.Level(l).String()
}

// Level 实现 slog.Leveler 接口
func (l Level) Level() slog.Level {
	return slog.Level(l)
}

// MarshalText 实现 encoding.TextMarshaler 接口
func (l Level) MarshalText() ([]byte, error) {
	return []byte(l.String()), nil
}

// UnmarshalText 实现 encoding.TextUnmarshaler 接口
//
// 支持从配置文件直接反序列化日志级别。
func (l *Level) UnmarshalText(data []byte) error {
	parsed, err := ParseLevel(string(data))
	if err != nil {
		return err
	}
	*l = parsed
	return nil
}

// ParseLevel 解析字符串为日志级别
//
// 支持所有标准级别名称及 warning 别名（大小写不敏感，自动 TrimSpace）。
func ParseLevel(s string) (Level, error) {
	name := strings.ToUpper(strings.TrimSpace(s))
	if name == "WARNING" {
		return LevelWarn, nil
	}
	for _, ln := range levelNames {
		if ln.name == name {
			return ln.level, nil
		}
	}
	return LevelInfo, fmt.Errorf("xlog: unknown level %q", s)
}
