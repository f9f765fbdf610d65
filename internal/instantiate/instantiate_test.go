package instantiate_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflective/typedcli/internal/fields"
	"github.com/reeflective/typedcli/internal/instantiate"
	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/registry"
	"github.com/reeflective/typedcli/internal/specbuild"
)

type optionalInner struct {
	A string
	B string
}

type withOptionalGroup struct {
	Name string
	Opt  optionalInner
}

// buildOptionalGroupSpec hand-assembles the ParserSpec instantiate.Build
// needs to exercise the OptionalGroup fallback, sidestepping
// fields.Resolve's own (separately disclosed) gap in ever setting the
// marker for a plain nested-struct field.
func buildOptionalGroupSpec() *specbuild.ParserSpec {
	innerType := reflect.TypeOf(optionalInner{})
	outerType := reflect.TypeOf(withOptionalGroup{})

	innerSpec := &specbuild.ParserSpec{
		Type: innerType,
		Instantiate: func(kwargs map[string]any, _ []any) (any, error) {
			return optionalInner{A: kwargs["A"].(string), B: kwargs["B"].(string)}, nil
		},
		Arguments: []specbuild.Argument{
			{Def: fields.Definition{InternalName: "A"}, FieldName: "A", DottedID: "opt.a"},
			{Def: fields.Definition{InternalName: "B"}, FieldName: "B", DottedID: "opt.b"},
		},
	}

	return &specbuild.ParserSpec{
		Type: outerType,
		Instantiate: func(kwargs map[string]any, _ []any) (any, error) {
			return withOptionalGroup{Name: kwargs["Name"].(string), Opt: kwargs["Opt"].(optionalInner)}, nil
		},
		Arguments: []specbuild.Argument{
			{Def: fields.Definition{InternalName: "Name"}, FieldName: "Name", DottedID: "name"},
		},
		Groups: []specbuild.Group{
			{
				FieldName:     "Opt",
				DottedID:      "opt",
				Spec:          innerSpec,
				OptionalGroup: true,
				Default:       optionalInner{A: "defA", B: "defB"},
			},
		},
	}
}

func TestBuildOptionalGroupFallsBackWhenNothingSupplied(t *testing.T) {
	ps := buildOptionalGroupSpec()

	node := instantiate.NewParsedNode()
	node.Leaves["name"] = "svc"
	// Neither opt.a nor opt.b is Supplied: the group's own default wins.

	val, err := instantiate.Build(ps, node)
	require.NoError(t, err)

	got, ok := val.(withOptionalGroup)
	require.True(t, ok)
	assert.Equal(t, optionalInner{A: "defA", B: "defB"}, got.Opt)
}

func TestBuildOptionalGroupRecursesWhenPartiallySupplied(t *testing.T) {
	ps := buildOptionalGroupSpec()

	node := instantiate.NewParsedNode()
	node.Leaves["name"] = "svc"
	node.Leaves["opt.a"] = "explicit"
	node.Leaves["opt.b"] = "also-explicit"
	node.Supplied["opt.a"] = true

	val, err := instantiate.Build(ps, node)
	require.NoError(t, err)

	got, ok := val.(withOptionalGroup)
	require.True(t, ok)
	assert.Equal(t, optionalInner{A: "explicit", B: "also-explicit"}, got.Opt)
}

func TestBuildPositionalCallModeFeedsPositionalSlice(t *testing.T) {
	var captured []any

	ps := &specbuild.ParserSpec{
		Instantiate: func(_ map[string]any, positional []any) (any, error) {
			captured = positional

			return struct{}{}, nil
		},
		Arguments: []specbuild.Argument{
			{Def: fields.Definition{CallMode: fields.CallPositional}, FieldName: "Name", DottedID: "name"},
		},
	}

	node := instantiate.NewParsedNode()
	node.Leaves["name"] = "first-arg"

	_, err := instantiate.Build(ps, node)
	require.NoError(t, err)
	assert.Equal(t, []any{"first-arg"}, captured)
}

func TestBuildUnpackKwargsCallModeSplicesMap(t *testing.T) {
	var captured map[string]any

	ps := &specbuild.ParserSpec{
		Instantiate: func(kwargs map[string]any, _ []any) (any, error) {
			captured = kwargs

			return struct{}{}, nil
		},
		Arguments: []specbuild.Argument{
			{Def: fields.Definition{CallMode: fields.CallUnpackKwargs}, FieldName: "Extra", DottedID: "extra"},
		},
	}

	node := instantiate.NewParsedNode()
	node.Leaves["extra"] = map[string]any{"host": "localhost", "port": 9090}

	_, err := instantiate.Build(ps, node)
	require.NoError(t, err)
	assert.Equal(t, "localhost", captured["host"])
	assert.Equal(t, 9090, captured["port"])
}

type dbConfig struct {
	DSN string `default:"local"`
}

type withGroup struct {
	Name string
	DB   dbConfig
}

func TestBuildFillsNestedGroup(t *testing.T) {
	reg := registry.New()

	ps, err := specbuild.Build(reg, reflect.TypeOf(withGroup{}), fields.Missing, markers.Set(0))
	require.NoError(t, err)

	node := instantiate.NewParsedNode()
	node.Leaves["name"] = "svc"
	node.Leaves["db.dsn"] = "remote"

	val, err := instantiate.Build(ps, node)
	require.NoError(t, err)

	got, ok := val.(withGroup)
	require.True(t, ok)
	assert.Equal(t, "svc", got.Name)
	assert.Equal(t, "remote", got.DB.DSN)
}

type serveCmd struct {
	Port int
}

type buildCmd struct {
	Target string
}

type backend interface{ isBackend() }

func (serveCmd) isBackend() {}
func (buildCmd) isBackend() {}

type withSubparser struct {
	Action backend
}

func TestBuildResolvesChosenSubcommand(t *testing.T) {
	reg := registry.New()

	iface := reflect.TypeOf((*backend)(nil)).Elem()
	reg.RegisterUnion(iface, map[string]reflect.Type{
		"serve": reflect.TypeOf(serveCmd{}),
		"build": reflect.TypeOf(buildCmd{}),
	})

	ps, err := specbuild.Build(reg, reflect.TypeOf(withSubparser{}), fields.Missing, markers.Set(0))
	require.NoError(t, err)

	node := instantiate.NewParsedNode()
	node.Chosen = "serve"
	node.Sub = instantiate.NewParsedNode()
	node.Sub.Leaves["port"] = 9090

	val, err := instantiate.Build(ps, node)
	require.NoError(t, err)

	got, ok := val.(withSubparser)
	require.True(t, ok)

	sc, ok := got.Action.(serveCmd)
	require.True(t, ok)
	assert.Equal(t, 9090, sc.Port)
}
