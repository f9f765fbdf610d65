package primitive_test

import (
	"reflect"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflective/typedcli/internal/normalize"
	"github.com/reeflective/typedcli/internal/primitive"
)

// resolver builds a self-contained Resolver over just the built-in rules,
// mirroring what registry.Registry.GetPrimitiveSpec does, without an
// import on package registry, so these tests exercise the rules alone.
func resolver() primitive.Resolver {
	rules := primitive.BuiltinRules()

	var resolve primitive.Resolver
	resolve = func(t normalize.Type) (primitive.Spec, error) {
		for i := len(rules) - 1; i >= 0; i-- {
			spec, ok, err := rules[i](t, resolve)
			if err != nil {
				return primitive.Spec{}, err
			}

			if ok {
				return spec, nil
			}
		}

		return primitive.Spec{}, primitive.ErrNoRule
	}

	return resolve
}

func TestDurationRuleShadowsGenericInt(t *testing.T) {
	resolve := resolver()

	spec, err := resolve(normalize.Type{Go: reflect.TypeOf(time.Duration(0))})
	require.NoError(t, err)

	v, err := spec.Instantiate([]string{"90s"})
	require.NoError(t, err)
	assert.Equal(t, 90*time.Second, v)
}

func TestTimeRuleRFC3339(t *testing.T) {
	resolve := resolver()

	spec, err := resolve(normalize.Type{Go: reflect.TypeOf(time.Time{})})
	require.NoError(t, err)

	v, err := spec.Instantiate([]string{"2026-01-02T15:04:05Z"})
	require.NoError(t, err)

	got, ok := v.(time.Time)
	require.True(t, ok)
	assert.Equal(t, 2026, got.Year())
}

type level int

func TestEnumRuleShadowsGenericIntWhenChoicesDeclared(t *testing.T) {
	resolve := resolver()

	nt := normalize.Type{
		Go:        reflect.TypeOf(level(0)),
		AliasName: "level",
		Config:    normalize.Config{Choices: []string{"1", "2"}},
	}

	spec, err := resolve(nt)
	require.NoError(t, err)
	require.Equal(t, []string{"1", "2"}, spec.Choices)

	v, err := spec.Instantiate([]string{"2"})
	require.NoError(t, err)
	assert.Equal(t, level(2), v)
}

func TestIntRuleFallsThroughForPlainInt(t *testing.T) {
	resolve := resolver()

	spec, err := resolve(normalize.Type{Go: reflect.TypeOf(0)})
	require.NoError(t, err)

	v, err := spec.Instantiate([]string{"42"})
	require.NoError(t, err)
	assert.Equal(t, 42, v)
}

func TestPathRuleShadowsGenericString(t *testing.T) {
	resolve := resolver()

	spec, err := resolve(normalize.Type{Go: reflect.TypeOf(primitive.Path(""))})
	require.NoError(t, err)
	assert.Equal(t, "PATH", spec.Metavar)

	v, err := spec.Instantiate([]string{"/etc/hosts"})
	require.NoError(t, err)
	assert.Equal(t, primitive.Path("/etc/hosts"), v)
}

func TestStringRuleStillMatchesPlainString(t *testing.T) {
	resolve := resolver()

	spec, err := resolve(normalize.Type{Go: reflect.TypeOf("")})
	require.NoError(t, err)
	assert.Equal(t, "STR", spec.Metavar)
}
