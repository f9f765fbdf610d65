// Package typedcli derives a command-line interface from a Go struct
// type: flags, positionals, subcommands, defaults and help text are all
// inferred from the struct's shape and its struct tags (help, default,
// short, name, markers, group, ...), rather than
// declared imperatively flag by flag.
package typedcli

import (
	"fmt"
	"os"
	"reflect"

	"github.com/reeflective/typedcli/internal/clierrors"
	"github.com/reeflective/typedcli/internal/driver"
	"github.com/reeflective/typedcli/internal/fields"
	"github.com/reeflective/typedcli/internal/instantiate"
	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/primitive"
	"github.com/reeflective/typedcli/internal/registry"
	"github.com/reeflective/typedcli/internal/specbuild"
)

// Path is a string field distinguished as a filesystem path (spec.md
// §4.C). Use it in a schema wherever a flag or positional should be
// rendered and (eventually) completed as a path rather than free text.
type Path = primitive.Path

// Config holds the resolved settings of a Parse call, built up by Option
// values. Exported so a schema's own Option func can be composed from
// the same type a caller would use directly.
type Config struct {
	args           []string
	prog           string
	description    string
	addHelp        bool
	registry       *registry.Registry
	consoleOut     bool
	returnUnknown  bool
	initialDefault any
	useUnderscores bool
	schemaMarkers  markers.Set
}

// Option configures a Parse call.
type Option func(*Config)

// WithArgs overrides the argument vector Parse consumes (the default is
// os.Args[1:]).
func WithArgs(args []string) Option {
	return func(c *Config) { c.args = args }
}

// WithProg overrides the program name shown in usage/help text.
func WithProg(name string) Option {
	return func(c *Config) { c.prog = name }
}

// WithDescription sets the top-level help description.
func WithDescription(desc string) Option {
	return func(c *Config) { c.description = desc }
}

// WithAddHelp controls whether -h/--help is recognized (default true).
func WithAddHelp(enabled bool) Option {
	return func(c *Config) { c.addHelp = enabled }
}

// WithRegistry supplies a pre-configured registry (e.g. with extra
// RegisterUnion calls or pushed rules) instead of registry.New().
func WithRegistry(reg *registry.Registry) Option {
	return func(c *Config) { c.registry = reg }
}

// ConsoleOutputs controls whether Parse writes errors directly to
// the console (default true, matching the source ecosystem's CLI-first
// posture) or only ever returns them to the caller.
func ConsoleOutputs(enabled bool) Option {
	return func(c *Config) { c.consoleOut = enabled }
}

// ReturnUnknownArgs makes the driver collect unrecognized tokens instead of
// failing on the first one; Parse itself still only ever returns (value,
// error), so callers that need the collected tokens should call
// ParseUnknown directly (spec.md §6 return_unknown_args).
func ReturnUnknownArgs(enabled bool) Option {
	return func(c *Config) { c.returnUnknown = enabled }
}

// WithDefault supplies an initial value merged with parsed overrides: any
// field not given on the command line falls back to the corresponding
// field of def (which takes precedence over the field's own tag default)
// instead of being required (spec.md §6 `default` parameter).
func WithDefault(def any) Option {
	return func(c *Config) { c.initialDefault = def }
}

// UseUnderscores selects "_" as the rendered flag-name delimiter instead
// of "-". Both delimiters are always accepted on input regardless of this
// setting (spec.md §6); it only affects which spelling a future help
// renderer would show.
func UseUnderscores(enabled bool) Option {
	return func(c *Config) { c.useUnderscores = enabled }
}

// WithConfig applies a set of markers to the whole schema, as if every
// top-level field inherited them (spec.md §6 `config` parameter).
func WithConfig(schemaMarkers ...markers.Marker) Option {
	return func(c *Config) { c.schemaMarkers = markers.Of(schemaMarkers...) }
}

func newConfig(opts []Option) *Config {
	c := &Config{
		args:       os.Args[1:],
		prog:       os.Args[0],
		addHelp:    true,
		consoleOut: true,
	}

	for _, opt := range opts {
		opt(c)
	}

	if c.registry == nil {
		c.registry = registry.New()
	}

	return c
}

// Parse derives a ParserSpec from the type of schema (a pointer to, or
// value of, a struct type), consumes the configured argument vector
// against it, and returns a newly instantiated value of that same type.
func Parse(schema any, opts ...Option) (any, error) {
	val, _, err := ParseUnknown(schema, opts...)

	return val, err
}

// ParseUnknown is Parse's full-contract form: `cli(...) -> value |
// (value, unknowns)` from spec.md §6. unknowns is always empty unless
// ReturnUnknownArgs(true) was given.
func ParseUnknown(schema any, opts ...Option) (any, []string, error) {
	cfg := newConfig(opts)

	t := reflect.TypeOf(schema)
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	parentDefault := any(fields.MissingNonProp)
	if cfg.initialDefault != nil {
		parentDefault = cfg.initialDefault
	}

	ps, err := specbuild.Build(cfg.registry, t, parentDefault, cfg.schemaMarkers)
	if err != nil {
		return nil, nil, err
	}

	node, unknowns, err := driver.Parse(cfg.registry, ps, cfg.args, driver.Options{
		AddHelp:       cfg.addHelp,
		ReturnUnknown: cfg.returnUnknown,
	})
	if err != nil {
		if cfg.consoleOut {
			reportError(cfg, err)
		}

		return nil, nil, err
	}

	val, err := instantiate.Build(ps, node)
	if err != nil {
		return nil, nil, err
	}

	return val, unknowns, nil
}

// ParseInto is the generic-friendly form of Parse: T is both the schema
// and the result type.
func ParseInto[T any](opts ...Option) (T, error) {
	var zero T

	val, err := Parse(&zero, opts...)
	if err != nil {
		return zero, err
	}

	out, ok := val.(T)
	if !ok {
		ptr, ok := val.(*T)
		if ok {
			return *ptr, nil
		}

		return zero, fmt.Errorf("%w: instantiated value is not %T", clierrors.ErrInstantiation, zero)
	}

	return out, nil
}

// MustParse panics instead of returning an error — convenient for a thin
// `func main` that has nothing useful to do with a parse failure besides
// reporting it, without baking an os.Exit call into the core package.
func MustParse[T any](opts ...Option) T {
	v, err := ParseInto[T](opts...)
	if err != nil {
		panic(err)
	}

	return v
}

func reportError(cfg *Config, err error) {
	fmt.Fprintf(os.Stderr, "%s: %v\n", cfg.prog, err)
}
