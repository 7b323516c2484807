package xlog

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/google/uuid"
)

// Processor 在记录分发给 Handler 前向 Extra 注入附加信息
//
// Processor 按注册顺序执行，只应写 r.Extra。
type Processor func(ctx context.Context, r *Record)

// UID 长度范围（十六进制字符）
const (
	DefaultUIDLength = 7
	maxUIDLength     = 32
)

// ErrInvalidUIDLength UID 长度超出 [1, 32]
var ErrInvalidUIDLength = errors.New("xlog: invalid uid length")

// NewUIDProcessor 创建 UID Processor
//
// 创建时生成一次随机 UID（UUID v4 的十六进制前 length 位），
// 同一 Processor 处理的所有记录携带相同 uid，用于关联同一请求/进程的日志。
func NewUIDProcessor(length int) (Processor, error) {
	if length < 1 || length > maxUIDLength {
		return nil, fmt.Errorf("%w: got %d, want 1~%d", ErrInvalidUIDLength, length, maxUIDLength)
	}
	uid := strings.ReplaceAll(uuid.NewString(), "-", "")[:length]
	return func(_ context.Context, r *Record) {
		r.Extra[KeyUID] = uid
	}, nil
}

// PIDProcessor 注入当前进程 ID
func PIDProcessor() Processor {
	pid := os.Getpid()
	return func(_ context.Context, r *Record) {
		r.Extra[KeyProcessID] = pid
	}
}

// HostnameProcessor 注入主机名，获取失败时不注入
func HostnameProcessor() Processor {
	host, err := os.Hostname()
	return func(_ context.Context, r *Record) {
		if err == nil {
			r.Extra[KeyHostname] = host
		}
	}
}

// TraceProcessor 把当前 span 的 trace_id/span_id 写入 Extra，没有有效 span 时不写
func TraceProcessor() Processor {
	return func(ctx context.Context, r *Record) {
		if sc, ok := spanContext(ctx); ok {
			r.Extra[KeyTraceID] = sc.TraceID().String()
			r.Extra[KeySpanID] = sc.SpanID().String()
		}
	}
}
