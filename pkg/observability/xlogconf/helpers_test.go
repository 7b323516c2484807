package xlogconf_test

import (
	"context"
	"os"
	"path/filepath"
	"sync"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

func writeFile(t *testing.T, dir, name, content string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func listDir(t *testing.T, dir string) []string {
	t.Helper()
	entries, err := os.ReadDir(dir)
	require.NoError(t, err)
	names := make([]string, 0, len(entries))
	for _, e := range entries {
		names = append(names, e.Name())
	}
	return names
}

// memHandler 是测试用的 xlog.Handler，记录收到的消息
type memHandler struct {
	level  xlog.Level
	bubble bool

	mu       sync.Mutex
	messages []string
	closed   int
}

func (h *memHandler) IsHandling(level xlog.Level) bool { return level >= h.level }
func (h *memHandler) Bubble() bool                     { return h.bubble }

func (h *memHandler) Handle(_ context.Context, r xlog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.messages = append(h.messages, r.Message)
	return nil
}

func (h *memHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

func (h *memHandler) Messages() []string {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]string(nil), h.messages...)
}
