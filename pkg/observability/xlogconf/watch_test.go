package xlogconf_test

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogkit/pkg/observability/xlogconf"
)

func waitReload(t *testing.T, ch <-chan error) error {
	t.Helper()
	select {
	case err := <-ch:
		return err
	case <-time.After(5 * time.Second):
		t.Fatal("timed out waiting for reload")
		return nil
	}
}

func TestWatch_ReloadAndValidate(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.yaml", "logger:\n  app:\n    channel: app\n")
	cfg, err := xlogconf.Load(path)
	require.NoError(t, err)

	results := make(chan error, 16)
	w, err := xlogconf.Watch(cfg, func(c *xlogconf.Config, err error) {
		assert.Same(t, cfg, c)
		results <- err
	}, xlogconf.WithDebounce(50*time.Millisecond))
	require.NoError(t, err)
	w.StartAsync()
	defer func() { assert.NoError(t, w.Stop()) }()

	// fsnotify 注册目录监听是同步的，这里留出事件循环启动的时间
	time.Sleep(50 * time.Millisecond)

	writeFile(t, dir, "log.yaml", "logger:\n  app:\n    channel: app\n  jobs:\n    channel: jobs\n")
	require.NoError(t, waitReload(t, results))
	assert.Equal(t, []string{"app", "jobs"}, cfg.Names())

	// 校验失败保留旧配置
	writeFile(t, dir, "log.yaml", "logger:\n  app:\n    channel: app\n    handlers:\n      - type: syslog\n")
	assert.ErrorIs(t, waitReload(t, results), xlogconf.ErrUnknownPlugin)
	assert.Equal(t, []string{"app", "jobs"}, cfg.Names())
}

func TestWatch_IgnoresOtherFiles(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.yaml", "logger: {}\n")
	cfg, err := xlogconf.Load(path)
	require.NoError(t, err)

	results := make(chan error, 4)
	w, err := xlogconf.Watch(cfg, func(_ *xlogconf.Config, err error) { results <- err },
		xlogconf.WithDebounce(10*time.Millisecond),
		xlogconf.WithValidator(nil),
	)
	require.NoError(t, err)
	w.StartAsync()
	w.StartAsync()
	time.Sleep(50 * time.Millisecond)

	writeFile(t, dir, "other.yaml", "x: 1\n")
	select {
	case err := <-results:
		t.Fatalf("unexpected reload: %v", err)
	case <-time.After(150 * time.Millisecond):
	}

	require.NoError(t, w.Stop())
	require.NoError(t, w.Stop(), "stop is idempotent")
}

func TestWatch_NotReloadable(t *testing.T) {
	cfg, err := xlogconf.LoadBytes([]byte("logger: {}"), xlogconf.FormatYAML)
	require.NoError(t, err)

	_, err = xlogconf.Watch(cfg, nil)
	assert.ErrorIs(t, err, xlogconf.ErrNotReloadable)

	_, err = xlogconf.Watch(nil, nil)
	assert.ErrorIs(t, err, xlogconf.ErrNotReloadable)
}

func TestWatch_StopBeforeStart(t *testing.T) {
	path := writeFile(t, t.TempDir(), "log.yaml", "logger: {}\n")
	cfg, err := xlogconf.Load(path)
	require.NoError(t, err)

	w, err := xlogconf.Watch(cfg, nil)
	require.NoError(t, err)
	require.NoError(t, w.Stop())

	// Stop 之后 Start 立即返回
	done := make(chan struct{})
	go func() {
		w.Start()
		close(done)
	}()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Start blocked after Stop")
	}
}
