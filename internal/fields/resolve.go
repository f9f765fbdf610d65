// Package fields implements component E: turning a struct spec plus a
// parent default into an ordered list of fully resolved Definitions,
// applying the sentinel default-composition rules, type narrowing,
// per-field configuration extraction, external-name resolution and
// optional-group tagging from spec.md §4.E.
package fields

import (
	"fmt"
	"reflect"
	"time"

	"github.com/reeflective/typedcli/internal/clierrors"
	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/normalize"
	"github.com/reeflective/typedcli/internal/structspec"
	"github.com/reeflective/typedcli/internal/tagutil"
	"github.com/reeflective/typedcli/internal/xvalidate"
)

var (
	durationType = reflect.TypeOf(time.Duration(0))
	timeType     = reflect.TypeOf(time.Time{})
)

// Resolve turns spec's field list into Definitions, composing each field's
// default against parentDefault.
func Resolve(spec structspec.Spec, parentDefault any, inherited markers.Set) ([]Definition, error) {
	defs := make([]Definition, 0, len(spec.Fields))

	parentIsMissing := parentDefault == any(Missing)
	parentHasValue := parentDefault != nil && !IsSentinel(parentDefault)

	var parentVal reflect.Value
	if parentHasValue {
		parentVal = derefValue(reflect.ValueOf(parentDefault))
	}

	for _, f := range spec.Fields {
		childDefault, fieldHasOwnDefault := composeDefault(f, parentIsMissing, parentHasValue, parentVal)

		nt, err := normalize.Of(f.Type, f.Tag, inherited)
		if err != nil {
			return nil, fmt.Errorf("field %s: %w", f.Name, err)
		}

		nt = narrow(nt, childDefault)

		if nt.Config.Validate != "" && !IsSentinel(childDefault) {
			if err := xvalidate.Default(f.Name, childDefault, nt.Config.Validate); err != nil {
				return nil, fmt.Errorf("%w: %w", clierrors.ErrInvalidDefault, err)
			}
		}

		external := externalName(f.Name, nt.Config)

		def := Definition{
			InternalName: f.Name,
			ExternalName: external,
			Type:         nt,
			Default:      childDefault,
			Help:         Help{Static: nt.Config.Help},
			Config:       nt.Config,
			CallMode:     callMode(nt.Markers),
		}

		if nt.Config.GroupName != "" {
			def.MutexGroup = &MutexGroup{
				Name:     nt.Config.GroupName,
				Title:    nt.Config.GroupTitle,
				Required: nt.Config.GroupRequired,
			}
		}

		// Optional-group semantics: the parent accepted a default, but this
		// field's own default is missing — tag it so downstream all-or-
		// nothing handling applies (spec.md §4.E).
		if parentHasValue && !fieldHasOwnDefault {
			def.Type.Markers = def.Type.Markers.With(markers.OptionalGroup)
		}

		defs = append(defs, def)
	}

	return defs, nil
}

// composeDefault implements the sentinel composition rules from spec.md
// §4.E/§3: a propagating-missing parent forces every child to Missing; a
// concrete parent value supplies each child's default by field lookup;
// otherwise the field's own declared default (or MissingNonProp) is used.
func composeDefault(f structspec.Field, parentIsMissing, parentHasValue bool, parentVal reflect.Value) (value any, hasOwn bool) {
	if parentIsMissing {
		return Missing, false
	}

	if parentHasValue && parentVal.IsValid() {
		fv := parentVal.Field(f.Index)
		if fv.IsValid() {
			return fv.Interface(), true
		}
	}

	if tagDefault, ok := f.Tag.Get("default"); ok {
		v, err := parseDefaultLiteral(f.Type, tagDefault)
		if err == nil {
			return v, true
		}
	}

	if f.HasDefault {
		return f.Default, true
	}

	// No enclosing value and no declared default of its own: this field is
	// required on its own terms, but it must not force the propagating
	// "Missing" sentinel onto anything recursed into it — a struct-typed
	// field here still needs its own nested fields to consult their own
	// declared defaults (that is exactly what MissingNonProp means).
	return MissingNonProp, false
}

func derefValue(v reflect.Value) reflect.Value {
	for v.Kind() == reflect.Pointer {
		if v.IsNil() {
			return v
		}
		v = v.Elem()
	}

	return v
}

// narrow implements the type-narrowing half of spec.md §4.E: when the
// declared type is an interface and a concrete default value is available,
// substitute the concrete type so later components see a usable Go type
// rather than an interface they cannot construct.
func narrow(nt normalize.Type, def any) normalize.Type {
	if nt.Go == nil || nt.Go.Kind() != reflect.Interface || IsSentinel(def) || def == nil {
		return nt
	}

	concrete := reflect.TypeOf(def)
	if concrete == nil || !concrete.Implements(nt.Go) {
		return nt
	}

	nt.Go = concrete
	nt.Origin = concrete.Kind()

	return nt
}

func externalName(internal string, cfg normalize.Config) string {
	if cfg.Name != "" {
		return cfg.Name
	}

	return tagutil.CamelToFlag(internal, "-")
}

func callMode(set markers.Set) CallMode {
	switch {
	case set.Has(markers.UnpackArgsCall):
		return CallUnpackArgs
	case set.Has(markers.UnpackKwargsCall):
		return CallUnpackKwargs
	default:
		return CallKeyword
	}
}

// parseDefaultLiteral converts a struct-tag default string into a Go value
// of the field's declared type for the common scalar kinds; composite
// kinds (slice/map/struct) are expected to come from a parent default
// object instead, so an unsupported kind here simply falls through to the
// field's declared default, or MissingNonProp, at the call site.
func parseDefaultLiteral(t reflect.Type, literal string) (any, error) {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	switch t {
	case durationType:
		return time.ParseDuration(literal)
	case timeType:
		return time.Parse(time.RFC3339, literal)
	}

	switch t.Kind() {
	case reflect.String:
		return literal, nil
	case reflect.Bool:
		switch literal {
		case "true":
			return true, nil
		case "false":
			return false, nil
		}
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		rv := reflect.New(t).Elem()
		if err := setScalar(rv, literal); err != nil {
			return nil, err
		}

		return rv.Interface(), nil
	}

	return nil, fmt.Errorf("%w: cannot parse literal default for %s", clierrors.ErrInvalidDefault, t)
}
