package xrotate

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	sdkmetric "go.opentelemetry.io/otel/sdk/metric"
)

// TestRotatorInterface 验证具体实现满足 Rotator 接口
func TestRotatorInterface(t *testing.T) {
	var _ Rotator = (*lumberjackRotator)(nil)
	var _ Rotator = (*SizeRotator)(nil)
}

func TestNewLumberjackWithOptions(t *testing.T) {
	filename := filepath.Join(t.TempDir(), "options.log")

	r, err := NewLumberjack(filename,
		nil,
		WithMaxSize(50),
		WithMaxBackups(10),
		WithMaxAge(7),
		WithCompress(false),
		WithLocalTime(true),
	)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("test with options\n"))
	assert.NoError(t, err)
	assert.FileExists(t, filename)
}

func TestLumberjackConfigValidation(t *testing.T) {
	dir := t.TempDir()
	tests := []struct {
		name    string
		opts    []LumberjackOption
		wantErr error
	}{
		{"大小为零", []LumberjackOption{WithMaxSize(0)}, ErrInvalidMaxSize},
		{"大小超出上限", []LumberjackOption{WithMaxSize(maxSizeMB + 1)}, ErrInvalidMaxSize},
		{"备份数为负", []LumberjackOption{WithMaxBackups(-1)}, ErrInvalidMaxBackups},
		{"备份数超出上限", []LumberjackOption{WithMaxBackups(maxBackups + 1)}, ErrInvalidMaxBackups},
		{"天数为负", []LumberjackOption{WithMaxAge(-1)}, ErrInvalidMaxAge},
		{"天数超出上限", []LumberjackOption{WithMaxAge(maxAgeDays + 1)}, ErrInvalidMaxAge},
		{"无清理策略", []LumberjackOption{WithMaxBackups(0), WithMaxAge(0)}, ErrNoCleanupPolicy},
		{"非法文件权限", []LumberjackOption{WithFileMode(os.ModeSetgid | 0o644)}, ErrInvalidFileMode},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			r, err := NewLumberjack(filepath.Join(dir, "v.log"), tt.opts...)
			assert.Nil(t, r)
			assert.True(t, errors.Is(err, tt.wantErr), "got %v", err)
		})
	}

	_, err := NewLumberjack("")
	assert.ErrorIs(t, err, ErrEmptyFilename)
	_, err = NewLumberjack("../../escape.log")
	assert.ErrorIs(t, err, ErrInvalidPath)
}

func TestLumberjackRotateManual(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "manual.log")

	r, err := NewLumberjack(filename, WithCompress(false))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("before rotate\n"))
	require.NoError(t, err)
	require.NoError(t, r.Rotate())
	_, err = r.Write([]byte("after rotate\n"))
	require.NoError(t, err)

	backups := findBackups(t, dir, "manual-")
	assert.Len(t, backups, 1)
	assert.Equal(t, "after rotate\n", readFile(t, filename))
}

func TestLumberjackFileMode(t *testing.T) {
	dir := t.TempDir()
	filename := filepath.Join(dir, "mode.log")

	r, err := NewLumberjack(filename, WithFileMode(0o644), WithCompress(false))
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("x\n"))
	require.NoError(t, err)
	info, err := os.Stat(filename)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())

	require.NoError(t, r.Rotate())
	info, err = os.Stat(filename)
	require.NoError(t, err)
	assert.Equal(t, os.FileMode(0o644), info.Mode().Perm())
}

func TestLumberjackRotateTelemetry(t *testing.T) {
	reader := sdkmetric.NewManualReader()
	provider := sdkmetric.NewMeterProvider(sdkmetric.WithReader(reader))

	r, err := NewLumberjack(filepath.Join(t.TempDir(), "metrics.log"),
		WithCompress(false),
		WithLumberjackMeterProvider(provider),
	)
	require.NoError(t, err)
	defer r.Close()

	_, err = r.Write([]byte("x\n"))
	require.NoError(t, err)
	require.NoError(t, r.Rotate())
	require.NoError(t, r.Rotate())

	assert.Equal(t, int64(2), collectSums(t, reader)[metricRotateTotal])
}

func TestLumberjackConfigValidation_JoinsErrors(t *testing.T) {
	_, err := NewLumberjack(filepath.Join(t.TempDir(), "v.log"), WithMaxSize(0), WithMaxAge(-1))
	assert.ErrorIs(t, err, ErrInvalidMaxSize)
	assert.ErrorIs(t, err, ErrInvalidMaxAge)
}

func TestLumberjackOnErrorPanicIsolated(t *testing.T) {
	r := &lumberjackRotator{onError: func(error) { panic("boom") }}
	assert.NotPanics(t, func() { r.report(errors.New("x")) })

	r = &lumberjackRotator{}
	assert.NotPanics(t, func() { r.report(errors.New("x")) })
}

func TestLumberjackClosed(t *testing.T) {
	r, err := NewLumberjack(filepath.Join(t.TempDir(), "closed.log"))
	require.NoError(t, err)

	_, err = r.Write([]byte("x\n"))
	require.NoError(t, err)
	require.NoError(t, r.Close())

	_, err = r.Write([]byte("y\n"))
	assert.ErrorIs(t, err, ErrClosed)
	assert.ErrorIs(t, r.Rotate(), ErrClosed)
	assert.ErrorIs(t, r.Close(), ErrClosed)
}

func TestLumberjackConcurrentCloseWrite(t *testing.T) {
	r, err := NewLumberjack(filepath.Join(t.TempDir(), "race.log"))
	require.NoError(t, err)

	var wg sync.WaitGroup
	for range 4 {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for range 100 {
				if _, err := r.Write([]byte("line\n")); err != nil {
					assert.ErrorIs(t, err, ErrClosed)
					return
				}
			}
		}()
	}
	_ = r.Close()
	wg.Wait()
}

func findBackups(t *testing.T, dir, prefix string) []string {
	t.Helper()
	var out []string
	for _, name := range listDir(t, dir) {
		if strings.HasPrefix(name, prefix) {
			out = append(out, name)
		}
	}
	return out
}
