package fields_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflective/typedcli/internal/fields"
	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/structspec"
)

type target struct {
	Host string `default:"localhost" help:"listen host"`
	Port int
}

func structSpecOf(t *testing.T, v any) structspec.Spec {
	t.Helper()

	for _, rule := range structspec.Rules() {
		spec, ok, err := rule(reflect.TypeOf(v))
		require.NoError(t, err)

		if ok {
			return spec
		}
	}

	t.Fatal("no struct rule matched")

	return structspec.Spec{}
}

func TestResolveTagDefault(t *testing.T) {
	spec := structSpecOf(t, target{})

	defs, err := fields.Resolve(spec, fields.MissingNonProp, markers.Set(0))
	require.NoError(t, err)
	require.Len(t, defs, 2)

	assert.Equal(t, "Host", defs[0].InternalName)
	assert.Equal(t, "host", defs[0].ExternalName)
	assert.Equal(t, "localhost", defs[0].Default)
	assert.Equal(t, "listen host", defs[0].Help.Resolve())

	assert.True(t, fields.IsMissing(defs[1].Default))
}

func TestResolveMissingPropagates(t *testing.T) {
	spec := structSpecOf(t, target{})

	defs, err := fields.Resolve(spec, fields.Missing, markers.Set(0))
	require.NoError(t, err)

	for _, d := range defs {
		assert.Same(t, fields.Missing, d.Default)
	}
}

func TestResolveNonPropMissingStillAppliesOwnDefault(t *testing.T) {
	spec := structSpecOf(t, target{})

	defs, err := fields.Resolve(spec, fields.MissingNonProp, markers.Set(0))
	require.NoError(t, err)

	assert.Equal(t, "localhost", defs[0].Default)
	assert.True(t, fields.IsMissing(defs[1].Default))
}

func TestResolveParentValueSuppliesFieldDefaults(t *testing.T) {
	spec := structSpecOf(t, target{})

	parent := target{Host: "example.com", Port: 9090}

	defs, err := fields.Resolve(spec, parent, markers.Set(0))
	require.NoError(t, err)

	assert.Equal(t, "example.com", defs[0].Default)
	assert.Equal(t, 9090, defs[1].Default)
}

func TestResolveDurationTagDefault(t *testing.T) {
	type withTimeout struct {
		Timeout time.Duration `default:"30s"`
	}

	spec := structSpecOf(t, withTimeout{})

	defs, err := fields.Resolve(spec, fields.MissingNonProp, markers.Set(0))
	require.NoError(t, err)
	require.Len(t, defs, 1)

	assert.Equal(t, 30*time.Second, defs[0].Default)
}

func TestExternalNameKebabCase(t *testing.T) {
	type sample struct {
		MaxRetryCount int
	}

	spec := structSpecOf(t, sample{})

	defs, err := fields.Resolve(spec, fields.MissingNonProp, markers.Set(0))
	require.NoError(t, err)
	require.Len(t, defs, 1)

	assert.Equal(t, "max-retry-count", defs[0].ExternalName)
}
