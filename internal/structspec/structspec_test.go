package structspec_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflective/typedcli/internal/structspec"
)

type plain struct {
	Name string
	Age  int
}

type custom struct {
	Name string
}

func (c custom) FromCLI(kwargs map[string]any) (any, error) {
	return custom{Name: "built:" + kwargs["Name"].(string)}, nil
}

func TestPlainStructRule(t *testing.T) {
	for _, rule := range structspec.Rules() {
		spec, ok, err := rule(reflect.TypeOf(plain{}))
		require.NoError(t, err)

		if !ok {
			continue
		}

		require.Len(t, spec.Fields, 2)

		val, err := spec.Instantiate(map[string]any{"Name": "bob", "Age": 9}, nil)
		require.NoError(t, err)

		got, ok := val.(plain)
		require.True(t, ok)
		assert.Equal(t, "bob", got.Name)
		assert.Equal(t, 9, got.Age)

		return
	}

	t.Fatal("no rule matched plain struct")
}

func TestKwargsCapableRule(t *testing.T) {
	rules := structspec.Rules()

	// Walk the rules in the registry's LIFO order (last listed is tried
	// first), so kwargsCapableRule gets the type before plainStructRule.
	var matched bool

	for i := len(rules) - 1; i >= 0; i-- {
		spec, ok, err := rules[i](reflect.TypeOf(custom{}))
		require.NoError(t, err)

		if !ok {
			continue
		}

		val, err := spec.Instantiate(map[string]any{"Name": "x"}, nil)
		require.NoError(t, err)

		got, ok := val.(custom)
		require.True(t, ok)
		assert.Equal(t, "built:x", got.Name)

		matched = true

		break
	}

	require.True(t, matched)
}
