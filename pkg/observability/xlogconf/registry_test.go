package xlogconf_test

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/omeyang/xlogkit/pkg/observability/xlogconf"
)

func TestRegistry(t *testing.T) {
	r := xlogconf.NewRegistry[string]("greeter")
	require.NoError(t, r.Register("hello", func(options map[string]any) (string, error) {
		if name, ok := options["name"].(string); ok {
			return "hello " + name, nil
		}
		return "hello", nil
	}))

	assert.True(t, r.Has("hello"))
	assert.False(t, r.Has("Hello"), "ids are case sensitive")

	got, err := r.Create("hello", map[string]any{"name": "go"})
	require.NoError(t, err)
	assert.Equal(t, "hello go", got)

	got, err = r.Create("hello", nil)
	require.NoError(t, err)
	assert.Equal(t, "hello", got)
}

func TestRegistry_UnknownPlugin(t *testing.T) {
	r := xlogconf.NewRegistry[int]("number")
	_, err := r.Create("Monolog\\Handler\\StreamHandler", nil)
	assert.ErrorIs(t, err, xlogconf.ErrUnknownPlugin)
	assert.Contains(t, err.Error(), "number")
}

func TestRegistry_RegisterErrors(t *testing.T) {
	r := xlogconf.NewRegistry[int]("number")
	one := func(map[string]any) (int, error) { return 1, nil }

	assert.ErrorIs(t, r.Register("", one), xlogconf.ErrInvalidPlugin)
	assert.ErrorIs(t, r.Register("  ", one), xlogconf.ErrInvalidPlugin)
	assert.ErrorIs(t, r.Register("one", nil), xlogconf.ErrInvalidPlugin)

	require.NoError(t, r.Register("one", one))
	assert.ErrorIs(t, r.Register("one", one), xlogconf.ErrDuplicatePlugin)
	assert.Panics(t, func() { r.MustRegister("one", one) })
}

func TestRegistry_FactoryError(t *testing.T) {
	errBoom := errors.New("boom")
	r := xlogconf.NewRegistry[int]("number")
	r.MustRegister("bad", func(map[string]any) (int, error) { return 0, errBoom })

	_, err := r.Create("bad", nil)
	assert.ErrorIs(t, err, errBoom)
	assert.Contains(t, err.Error(), `number "bad"`)
}

func TestRegistry_Names(t *testing.T) {
	assert.Equal(t,
		[]string{"lumberjack", "null", "rotating_file_size", "stream"},
		xlogconf.NewHandlerRegistry(xlogconf.PluginEnv{}).Names())
	assert.Equal(t, []string{"json", "line"}, xlogconf.NewFormatterRegistry().Names())
	assert.Equal(t, []string{"hostname", "pid", "trace", "uid"}, xlogconf.NewProcessorRegistry().Names())
}
