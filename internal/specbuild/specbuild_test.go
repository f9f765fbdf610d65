package specbuild_test

import (
	"reflect"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/reeflective/typedcli/internal/clierrors"
	"github.com/reeflective/typedcli/internal/fields"
	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/registry"
	"github.com/reeflective/typedcli/internal/specbuild"
)

type dbConfig struct {
	DSN string `help:"connection string" default:"local"`
}

type withGroup struct {
	Name string
	DB   dbConfig
}

func TestBuildGroupsNested(t *testing.T) {
	reg := registry.New()

	ps, err := specbuild.Build(reg, reflect.TypeOf(withGroup{}), fields.Missing, markers.Set(0))
	require.NoError(t, err)

	require.Len(t, ps.Arguments, 1)
	assert.Equal(t, "Name", ps.Arguments[0].FieldName)

	require.Len(t, ps.Groups, 1)
	assert.Equal(t, "DB", ps.Groups[0].FieldName)
	assert.Equal(t, "db", ps.Groups[0].DottedID)

	childSpec := ps.Groups[0].Spec
	require.Len(t, childSpec.Arguments, 1)
	assert.Equal(t, "db.dsn", childSpec.Arguments[0].DottedID)
}

type recursive struct {
	Child *recursive
}

func TestBuildCyclicSchemaErrors(t *testing.T) {
	reg := registry.New()

	_, err := specbuild.Build(reg, reflect.TypeOf(recursive{}), fields.Missing, markers.Set(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, clierrors.ErrCyclicSchema)
}

type serveCmd struct {
	Port int `default:"8080"`
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

func TestBuildSubparserFromRegisteredUnion(t *testing.T) {
	reg := registry.New()

	iface := reflect.TypeOf((*backend)(nil)).Elem()
	reg.RegisterUnion(iface, map[string]reflect.Type{
		"serve": reflect.TypeOf(serveCmd{}),
		"build": reflect.TypeOf(buildCmd{}),
	})

	ps, err := specbuild.Build(reg, reflect.TypeOf(withSubparser{}), fields.Missing, markers.Set(0))
	require.NoError(t, err)

	require.NotNil(t, ps.Subparser)
	assert.Len(t, ps.Subparser.Options, 2)
	assert.True(t, ps.Subparser.Required)
}

type noUnion struct {
	Action backend
}

func TestBuildUnregisteredInterfaceErrors(t *testing.T) {
	reg := registry.New()

	_, err := specbuild.Build(reg, reflect.TypeOf(noUnion{}), fields.Missing, markers.Set(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, clierrors.ErrUnsupportedType)
}

type requiredCmd struct {
	Target string // no default: a required hole
}

func (requiredCmd) isBackend() {}

type withSubparserDefault struct {
	Action backend
}

func TestBuildSubparserDefaultRevertsOnRequiredHoles(t *testing.T) {
	reg := registry.New()

	iface := reflect.TypeOf((*backend)(nil)).Elem()
	reg.RegisterUnion(iface, map[string]reflect.Type{
		"serve":    reflect.TypeOf(serveCmd{}),
		"required": reflect.TypeOf(requiredCmd{}),
	})

	parentDefault := withSubparserDefault{Action: requiredCmd{Target: "x"}}

	ps, err := specbuild.Build(reg, reflect.TypeOf(withSubparserDefault{}), parentDefault, markers.Set(0))
	require.NoError(t, err)

	// requiredCmd's Target field has no default of its own, so the
	// would-be match is reverted and the subparser stays required.
	assert.Equal(t, "", ps.Subparser.Default)
	assert.True(t, ps.Subparser.Required)
}

type avoider struct {
	Action backend `markers:"avoid-subcommands"`
}

func TestBuildAvoidSubcommandsRejectsUnresolvedInterface(t *testing.T) {
	reg := registry.New()

	_, err := specbuild.Build(reg, reflect.TypeOf(avoider{}), fields.Missing, markers.Set(0))
	require.Error(t, err)
	assert.ErrorIs(t, err, clierrors.ErrUnsupportedType)
}

type withPrefixedSubparser struct {
	Nested struct {
		Action backend
	}
}

func TestBuildSubparserNamesCarryGroupPrefix(t *testing.T) {
	reg := registry.New()

	iface := reflect.TypeOf((*backend)(nil)).Elem()
	reg.RegisterUnion(iface, map[string]reflect.Type{
		"serve": reflect.TypeOf(serveCmd{}),
		"build": reflect.TypeOf(buildCmd{}),
	})

	ps, err := specbuild.Build(reg, reflect.TypeOf(withPrefixedSubparser{}), fields.Missing, markers.Set(0))
	require.NoError(t, err)

	require.Len(t, ps.Groups, 1)

	sub := ps.Groups[0].Spec.Subparser
	require.NotNil(t, sub)

	names := make([]string, 0, len(sub.Options))
	for _, opt := range sub.Options {
		names = append(names, opt.Name)
	}

	assert.ElementsMatch(t, []string{"nested:serve", "nested:build"}, names)
}
