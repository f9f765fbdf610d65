// Package normalize implements component A of the pipeline: it strips the
// "wrapper" from a declared Go type, partitions its struct tag into
// markers versus other per-field configuration, and recursively
// normalizes any nested type arguments (slice/array/map element types).
//
// Go has no direct analogue of typing.Annotated; the wrapper this package
// strips is every leading pointer layer, indicating "this field is optional"
// (the same role Optional[X]/Annotated[X, ...] play in the source
// ecosystem), and named ("new-type") wrappers around primitive kinds,
// whose name is kept as a breadcrumb for subcommand-name derivation.
package normalize

import (
	"reflect"
	"strconv"
	"strings"

	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/tagutil"
)

// Config holds the non-marker, per-field metadata extracted from a struct
// tag: names, help text, choices, grouping and call-shape overrides.
type Config struct {
	Name          string
	Short         string
	Help          string
	DefaultLiteral string
	HasDefault    bool
	Choices       []string
	GroupName     string
	GroupRequired bool
	GroupTitle    string
	NoPrefix      bool
	CallName      string
	Validate      string
}

// merge overwrites every non-zero attribute of other onto a copy of c; the
// annotation closer to the leaf wins for configuration per spec.md §4.A.
func (c Config) merge(other Config) Config {
	out := c
	if other.Name != "" {
		out.Name = other.Name
	}
	if other.Short != "" {
		out.Short = other.Short
	}
	if other.Help != "" {
		out.Help = other.Help
	}
	if other.HasDefault {
		out.DefaultLiteral = other.DefaultLiteral
		out.HasDefault = true
	}
	if len(other.Choices) > 0 {
		out.Choices = other.Choices
	}
	if other.GroupName != "" {
		out.GroupName = other.GroupName
		out.GroupRequired = other.GroupRequired
		out.GroupTitle = other.GroupTitle
	}
	if other.NoPrefix {
		out.NoPrefix = true
	}
	if other.CallName != "" {
		out.CallName = other.CallName
	}
	if other.Validate != "" {
		out.Validate = other.Validate
	}

	return out
}

// Type is the normalized description of a declared Go type: the underlying
// reflect.Type, its "origin" Kind (Go's own reflect.Kind already plays the
// role of a generic head), its recursively normalized arguments (element
// types for slice/array/map), the accumulated marker set, and any
// non-marker configuration.
type Type struct {
	Go      reflect.Type
	Origin  reflect.Kind
	Args    []Type
	Markers markers.Set
	Config  Config

	// Optional records that at least one layer of pointer indirection was
	// stripped.
	Optional bool

	// AliasName is the name of the outermost named type this Type wrapped,
	// if any (e.g. "LogLevel" for `type LogLevel int`). Empty for anonymous
	// / built-in types.
	AliasName string

	rawArgs []reflect.Type
}

// Of normalizes t given the struct tag present on the declaring field (nil
// for synthesized calls, e.g. normalizing a slice element) and the marker
// set inherited from any enclosing annotation.
func Of(t reflect.Type, tag *tagutil.MultiTag, inherited markers.Set) (Type, error) {
	ownMarkers, cfg, err := parseTag(tag)
	if err != nil {
		return Type{}, err
	}

	effective := inherited.Union(ownMarkers)

	return normalizeType(t, effective, cfg)
}

func normalizeType(t reflect.Type, effective markers.Set, cfg Config) (Type, error) {
	optional := false

	for t.Kind() == reflect.Pointer {
		optional = true
		t = t.Elem()
	}

	alias := ""
	if t.Name() != "" && t.PkgPath() != "" {
		alias = t.Name()
	}

	nt := Type{
		Go:        t,
		Origin:    t.Kind(),
		Markers:   effective,
		Config:    cfg,
		Optional:  optional,
		AliasName: alias,
	}

	switch t.Kind() {
	case reflect.Slice, reflect.Array:
		nt.rawArgs = []reflect.Type{t.Elem()}
		elem, err := normalizeType(t.Elem(), effective, Config{})
		if err != nil {
			return Type{}, err
		}
		nt.Args = []Type{elem}

	case reflect.Map:
		nt.rawArgs = []reflect.Type{t.Key(), t.Elem()}
		key, err := normalizeType(t.Key(), effective, Config{})
		if err != nil {
			return Type{}, err
		}
		val, err := normalizeType(t.Elem(), effective, Config{})
		if err != nil {
			return Type{}, err
		}
		nt.Args = []Type{key, val}
	}

	return nt, nil
}

// RenormalizeWithoutMarker returns a clone of t whose children (Args) are
// renormalized with m removed from the marker set passed to them, while t
// itself retains m. This implements the "the container consumes a marker
// that its element type must not inherit" rule from spec.md §4.A, used e.g.
// so UseAppendAction applies to a slice field but not to its element.
func RenormalizeWithoutMarker(t Type, m markers.Marker) (Type, error) {
	childMarkers := t.Markers.Without(m)

	out := t
	out.Args = make([]Type, len(t.Args))

	for i, raw := range t.rawArgs {
		child, err := normalizeType(raw, childMarkers, Config{})
		if err != nil {
			return Type{}, err
		}

		out.Args[i] = child
	}

	return out, nil
}

// parseTag extracts the marker set and non-marker Config from a struct tag.
// A nil tag yields an empty Config and no markers.
func parseTag(tag *tagutil.MultiTag) (markers.Set, Config, error) {
	if tag == nil {
		return 0, Config{}, nil
	}

	var set markers.Set
	for _, name := range tag.GetMany("markers") {
		for _, part := range strings.Split(name, ",") {
			part = strings.TrimSpace(part)
			if part == "" {
				continue
			}
			m, ok := byName[part]
			if !ok {
				continue
			}
			set = set.With(m)
		}
	}

	cfg := Config{}
	if v, ok := tag.Get("name"); ok {
		cfg.Name = v
	}
	if v, ok := tag.Get("short"); ok {
		cfg.Short = v
	}
	if v, ok := tag.Get("help"); ok {
		cfg.Help = v
	} else if v, ok := tag.Get("desc"); ok {
		cfg.Help = v
	}
	if v, ok := tag.Get("default"); ok {
		cfg.DefaultLiteral = v
		cfg.HasDefault = true
	}
	if v := tag.GetMany("choice"); len(v) > 0 {
		cfg.Choices = splitAll(v)
	} else if v := tag.GetMany("choices"); len(v) > 0 {
		cfg.Choices = splitAll(v)
	}
	if v, ok := tag.Get("group"); ok {
		cfg.GroupName = v
		if req, ok := tag.Get("group-required"); ok {
			b, _ := strconv.ParseBool(req)
			cfg.GroupRequired = b
		}
		if title, ok := tag.Get("group-title"); ok {
			cfg.GroupTitle = title
		}
	}
	if v, ok := tag.Get("no-prefix"); ok {
		b, _ := strconv.ParseBool(v)
		cfg.NoPrefix = b
	}
	if v, ok := tag.Get("call-name"); ok {
		cfg.CallName = v
	}
	if v, ok := tag.Get("validate"); ok {
		cfg.Validate = v
	}

	return set, cfg, nil
}

func splitAll(values []string) []string {
	var out []string
	for _, v := range values {
		out = append(out, strings.Fields(v)...)
	}

	return out
}

var byName = map[string]markers.Marker{
	"positional":                 markers.Positional,
	"positional-required-args":   markers.PositionalRequiredArgs,
	"fixed":                      markers.Fixed,
	"suppress":                   markers.Suppress,
	"suppress-fixed":             markers.SuppressFixed,
	"flag-conversion-off":        markers.FlagConversionOff,
	"flag-create-pairs-off":      markers.FlagCreatePairsOff,
	"avoid-subcommands":          markers.AvoidSubcommands,
	"cascade-subcommand-args":    markers.CascadeSubcommandArgs,
	"omit-subcommand-prefixes":   markers.OmitSubcommandPrefixes,
	"omit-arg-prefixes":          markers.OmitArgPrefixes,
	"use-append-action":         markers.UseAppendAction,
	"use-counter-action":        markers.UseCounterAction,
	"enum-choices-from-values":   markers.EnumChoicesFromValues,
	"helptext-from-comments-off": markers.HelptextFromCommentsOff,
}

// MergeConfig exposes Config.merge for callers outside the package; no
// package in this module calls it.
func MergeConfig(base, overlay Config) Config {
	return base.merge(overlay)
}
