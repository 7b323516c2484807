package xlog_test

import (
	"context"
	"errors"
	"sync"
	"testing"

	"github.com/omeyang/xlogkit/pkg/observability/xlog"
)

// testCleanup 测试辅助函数，在测试结束时执行 cleanup
func testCleanup(t *testing.T, cleanup func() error) {
	t.Helper()
	t.Cleanup(func() {
		if err := cleanup(); err != nil {
			t.Errorf("cleanup error: %v", err)
		}
	})
}

// captureHandler 记录收到的 Record，用于断言分发行为
type captureHandler struct {
	level  xlog.Level
	bubble bool
	err    error

	mu      sync.Mutex
	records []xlog.Record
	closed  int
}

func newCapture(level xlog.Level, bubble bool) *captureHandler {
	return &captureHandler{level: level, bubble: bubble}
}

func (h *captureHandler) IsHandling(level xlog.Level) bool { return level >= h.level }
func (h *captureHandler) Bubble() bool                     { return h.bubble }

func (h *captureHandler) Handle(_ context.Context, r xlog.Record) error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.records = append(h.records, r)
	return h.err
}

func (h *captureHandler) Close() error {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.closed++
	return nil
}

func (h *captureHandler) Records() []xlog.Record {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]xlog.Record(nil), h.records...)
}

func (h *captureHandler) Messages() []string {
	var out []string
	for _, r := range h.Records() {
		out = append(out, r.Message)
	}
	return out
}

// errWriter 总是写入失败
type errWriter struct{}

var errDiskFull = errors.New("disk full")

func (errWriter) Write([]byte) (int, error) { return 0, errDiskFull }
