package driver_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflective/typedcli/internal/driver"
	"github.com/reeflective/typedcli/internal/fields"
	"github.com/reeflective/typedcli/internal/instantiate"
	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/registry"
	"github.com/reeflective/typedcli/internal/specbuild"
)

type serverConfig struct {
	Host string `help:"listen host" default:"localhost"`
}

type appConfig struct {
	Name     string   `markers:"positional" help:"app name"`
	Port     int      `short:"p" help:"listen port" default:"8080"`
	Verbose  int      `markers:"use-counter-action" short:"v"`
	Tags     []string `help:"labels"`
	Server   serverConfig
}

func build(t *testing.T) (*specbuild.ParserSpec, *registry.Registry) {
	t.Helper()

	reg := registry.New()

	var zero appConfig

	ps, err := specbuild.Build(reg, reflect.TypeOf(zero), fields.MissingNonProp, markers.Set(0))
	require.NoError(t, err)

	return ps, reg
}

func TestParseFlagsAndPositional(t *testing.T) {
	ps, reg := build(t)

	node, _, err := driver.Parse(reg, ps, []string{"myapp", "--port", "9090", "-vvv", "--tags", "a", "b", "c"}, driver.Options{AddHelp: true})
	require.NoError(t, err)

	val, err := instantiate.Build(ps, node)
	require.NoError(t, err)

	cfg, ok := val.(appConfig)
	require.True(t, ok)

	assert.Equal(t, "myapp", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, 3, cfg.Verbose)
	assert.Equal(t, []string{"a", "b", "c"}, cfg.Tags)
	assert.Equal(t, "localhost", cfg.Server.Host)
}

func TestParseMissingRequiredPositional(t *testing.T) {
	ps, reg := build(t)

	_, _, err := driver.Parse(reg, ps, []string{"--port", "80"}, driver.Options{})
	require.Error(t, err)
}

func TestParseUnrecognizedFlagSuggests(t *testing.T) {
	ps, reg := build(t)

	_, _, err := driver.Parse(reg, ps, []string{"myapp", "--prot", "80"}, driver.Options{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "port")
}

type withBoolFlag struct {
	Name    string `markers:"positional"`
	Enabled bool   `default:"true"`
}

func TestParseNoFlagClearsBooleanDefault(t *testing.T) {
	reg := registry.New()

	ps, err := specbuild.Build(reg, reflect.TypeOf(withBoolFlag{}), fields.MissingNonProp, markers.Set(0))
	require.NoError(t, err)

	node, _, err := driver.Parse(reg, ps, []string{"svc", "--no-enabled"}, driver.Options{})
	require.NoError(t, err)

	val, err := instantiate.Build(ps, node)
	require.NoError(t, err)

	cfg, ok := val.(withBoolFlag)
	require.True(t, ok)
	assert.False(t, cfg.Enabled)
}

func TestParseReturnUnknownCollectsUnmatchedTokens(t *testing.T) {
	ps, reg := build(t)

	node, unknowns, err := driver.Parse(reg, ps, []string{"myapp", "--port", "9090", "--tags", "a", "--unknown-flag", "extra-positional"}, driver.Options{ReturnUnknown: true})
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"--unknown-flag", "extra-positional"}, unknowns)

	val, err := instantiate.Build(ps, node)
	require.NoError(t, err)

	cfg, ok := val.(appConfig)
	require.True(t, ok)
	assert.Equal(t, "myapp", cfg.Name)
	assert.Equal(t, 9090, cfg.Port)
}
