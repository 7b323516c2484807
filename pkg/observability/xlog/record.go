package xlog

import (
	"log/slog"
	"maps"
	"time"
)

// Record 经过 Stack 转换后交给 Handler 的日志记录
//
// Context 保存调用方传入的属性（含 With/WithGroup 派生的属性，分组展开为嵌套 map），
// Extra 保存 Processor 注入的附加信息。
// Handler 只读 Record，不得修改其中的 map。
type Record struct {
	Time    time.Time
	Level   Level
	Message string
	Channel string
	Context map[string]any
	Extra   map[string]any
}

// LevelName 返回级别名称
func (r Record) LevelName() string {
	return r.Level.String()
}

// attrValue 将 slog.Value 展开为普通 Go 值
//
// LogValuer 会被求值；分组展开为 map[string]any。
func attrValue(v slog.Value) any {
	v = v.Resolve()
	switch v.Kind() {
	case slog.KindGroup:
		m := make(map[string]any, len(v.Group()))
		addAttrs(m, v.Group())
		return m
	case slog.KindString:
		return v.String()
	case slog.KindInt64:
		return v.Int64()
	case slog.KindUint64:
		return v.Uint64()
	case slog.KindFloat64:
		return v.Float64()
	case slog.KindBool:
		return v.Bool()
	case slog.KindDuration:
		return v.Duration()
	case slog.KindTime:
		return v.Time()
	default:
		return v.Any()
	}
}

// addAttrs 将属性写入 m，遵循 slog 约定：
//   - 空 Attr 被忽略
//   - Key 为空的分组内联到当前层
//   - 没有成员的分组被忽略
func addAttrs(m map[string]any, attrs []slog.Attr) {
	for _, a := range attrs {
		if a.Equal(slog.Attr{}) {
			continue
		}
		val := a.Value.Resolve()
		if val.Kind() == slog.KindGroup {
			group := val.Group()
			if len(group) == 0 {
				continue
			}
			if a.Key == "" {
				addAttrs(m, group)
				continue
			}
			sub, ok := m[a.Key].(map[string]any)
			if !ok {
				sub = make(map[string]any, len(group))
				m[a.Key] = sub
			}
			addAttrs(sub, group)
			continue
		}
		m[a.Key] = attrValue(val)
	}
}

// groupMap 返回 m 中 groups 路径对应的子 map，必要时创建
func groupMap(m map[string]any, groups []string) map[string]any {
	for _, g := range groups {
		sub, ok := m[g].(map[string]any)
		if !ok {
			sub = make(map[string]any)
			m[g] = sub
		}
		m = sub
	}
	return m
}

// cloneMap 深拷贝嵌套的 map[string]any
func cloneMap(m map[string]any) map[string]any {
	out := maps.Clone(m)
	if out == nil {
		return make(map[string]any)
	}
	for k, v := range out {
		if sub, ok := v.(map[string]any); ok {
			out[k] = cloneMap(sub)
		}
	}
	return out
}
