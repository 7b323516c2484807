package xlogconf_test

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogkit/pkg/observability/xlogconf"
)

const testYAML = `
app:
  name: billing
logger:
  app:
    channel: default
    level: info
    handlers:
      - type: stream
        options:
          stream: stderr
  audit:
    channel: audit
`

const testJSON = `{
  "app": {"name": "billing"},
  "logger": {
    "app": {"channel": "default", "handlers": [{"type": "null"}]}
  }
}`

// =============================================================================
// Load
// =============================================================================

func TestLoad_YAML(t *testing.T) {
	path := writeFile(t, t.TempDir(), "log.yaml", testYAML)

	cfg, err := xlogconf.Load(path)
	require.NoError(t, err)
	assert.Equal(t, path, cfg.Path())
	assert.Equal(t, xlogconf.FormatYAML, cfg.Format())
	assert.Equal(t, xlogconf.DefaultRoot, cfg.Root())
	assert.Equal(t, []string{"app", "audit"}, cfg.Names())

	raw, ok := cfg.Logger("audit")
	require.True(t, ok)
	assert.Equal(t, map[string]any{"channel": "audit"}, raw)

	_, ok = cfg.Logger("missing")
	assert.False(t, ok)
}

func TestLoad_JSON(t *testing.T) {
	path := writeFile(t, t.TempDir(), "log.json", testJSON)

	cfg, err := xlogconf.Load(path)
	require.NoError(t, err)
	assert.Equal(t, xlogconf.FormatJSON, cfg.Format())
	assert.Equal(t, []string{"app"}, cfg.Names())
}

func TestLoad_Errors(t *testing.T) {
	dir := t.TempDir()
	broken := writeFile(t, dir, "broken.yaml", "logger: [unclosed")
	notMap := writeFile(t, dir, "scalar.yaml", "logger: 5")

	tests := []struct {
		name string
		path string
		want error
	}{
		{"空路径", "", xlogconf.ErrEmptyPath},
		{"未知扩展名", "log.toml", xlogconf.ErrUnsupportedFormat},
		{"文件不存在", dir + "/missing.yaml", xlogconf.ErrLoadFailed},
		{"语法错误", broken, xlogconf.ErrParseFailed},
		{"根键不是映射", notMap, xlogconf.ErrUnmarshalFailed},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg, err := xlogconf.Load(tt.path)
			assert.ErrorIs(t, err, tt.want)
			assert.Nil(t, cfg)
		})
	}
}

func TestLoadBytes(t *testing.T) {
	cfg, err := xlogconf.LoadBytes([]byte(testJSON), xlogconf.FormatJSON)
	require.NoError(t, err)
	assert.Equal(t, []string{"app"}, cfg.Names())
	assert.Empty(t, cfg.Path())

	empty, err := xlogconf.LoadBytes(nil, xlogconf.FormatYAML)
	require.NoError(t, err)
	assert.Empty(t, empty.Names())

	_, err = xlogconf.LoadBytes([]byte(testYAML), "toml")
	assert.ErrorIs(t, err, xlogconf.ErrUnsupportedFormat)

	_, err = xlogconf.LoadBytes([]byte("{"), xlogconf.FormatJSON)
	assert.ErrorIs(t, err, xlogconf.ErrParseFailed)
}

func TestLoadMap(t *testing.T) {
	cfg, err := xlogconf.LoadMap(map[string]any{
		"monolog": map[string]any{
			"app": map[string]any{"channel": "app"},
		},
	}, xlogconf.WithRoot("monolog"))
	require.NoError(t, err)
	assert.Equal(t, "monolog", cfg.Root())
	assert.Equal(t, []string{"app"}, cfg.Names())

	assert.ErrorIs(t, cfg.Reload(), xlogconf.ErrNotReloadable)
	assert.ErrorIs(t, cfg.Unmarshal("", &struct{}{}), xlogconf.ErrUnmarshalFailed)

	empty, err := xlogconf.LoadMap(nil)
	require.NoError(t, err)
	assert.Empty(t, empty.Names())
}

func TestConfig_Unmarshal(t *testing.T) {
	cfg, err := xlogconf.LoadBytes([]byte(testYAML), xlogconf.FormatYAML)
	require.NoError(t, err)

	var app struct {
		Name string `koanf:"name"`
	}
	require.NoError(t, cfg.Unmarshal("app", &app))
	assert.Equal(t, "billing", app.Name)

	var tagged struct {
		Name string `yaml:"name"`
	}
	cfg, err = xlogconf.LoadBytes([]byte(testYAML), xlogconf.FormatYAML, xlogconf.WithTag("yaml"))
	require.NoError(t, err)
	require.NoError(t, cfg.Unmarshal("app", &tagged))
	assert.Equal(t, "billing", tagged.Name)
}

// =============================================================================
// Reload
// =============================================================================

func TestConfig_Reload(t *testing.T) {
	dir := t.TempDir()
	path := writeFile(t, dir, "log.yaml", testYAML)
	cfg, err := xlogconf.Load(path)
	require.NoError(t, err)

	writeFile(t, dir, "log.yaml", "logger:\n  jobs:\n    channel: jobs\n")
	require.NoError(t, cfg.Reload())
	assert.Equal(t, []string{"jobs"}, cfg.Names())

	// 解析失败保留旧快照
	writeFile(t, dir, "log.yaml", "logger: [unclosed")
	assert.ErrorIs(t, cfg.Reload(), xlogconf.ErrParseFailed)
	assert.Equal(t, []string{"jobs"}, cfg.Names())
}
