// Package structspec implements component D: built-in rules that turn a Go
// struct type into a Spec describing its fields, defaults and constructor,
// without yet resolving markers or narrowing types against a concrete
// default value (that is component E's job).
//
// Go has no runtime reflection over dataclass-style field descriptors,
// typed dictionaries or named tuples distinct from "struct", so the rule
// set specified in spec.md §4.D collapses to two rules that matter in a Go
// rewrite: plain tagged structs (the dominant case, spec rule 1), and
// structs whose zero value is unusable but which expose a constructor
// capability interface (spec rules 2/3, "keyword-typed dictionary" /
// "attribute-based record" — the Go-idiomatic stand-in is a type that
// implements KwargsCapable so construction can still be customized
// without a runtime dict schema).
package structspec

import (
	"reflect"

	"github.com/reeflective/typedcli/internal/tagutil"
)

// Field describes one struct field as discovered by reflection, before
// default-composition/narrowing.
type Field struct {
	Name       string // Go field name (internal name)
	Index      int    // index into the struct's Field slice, for reflect.Value.Field
	Type       reflect.Type
	Tag        *tagutil.MultiTag
	Anonymous  bool
	HasDefault bool
	Default    any
}

// Spec is the result of a struct rule: a constructor plus its ordered
// field list.
type Spec struct {
	// Instantiate builds the final value from resolved keyword arguments
	// (by internal field name) and positional arguments (for unpack-call
	// fields); unused positional slots must be nil-able, i.e. length must
	// match what the rule promises to consume.
	Instantiate func(kwargs map[string]any, positional []any) (any, error)
	Fields      []Field
	Type        reflect.Type
}

// Rule matches a Go type to a Spec, or returns ok=false to let the registry
// try the next rule (and ultimately fall back to treating the type as a
// primitive).
type Rule func(t reflect.Type) (Spec, bool, error)

// Rules returns the built-in struct rules in LIFO registration order (the
// order in which registry.Registry will try them): the plain-struct rule
// is tried last since it is the most permissive.
func Rules() []Rule {
	return []Rule{
		plainStructRule,
		kwargsCapableRule,
	}
}

// plainStructRule handles any struct type: every exported or embedded field
// becomes a Field with no default of its own (tag defaults and the
// caller-supplied parent default are composed later, by component E).
func plainStructRule(t reflect.Type) (Spec, bool, error) {
	if t.Kind() != reflect.Struct {
		return Spec{}, false, nil
	}

	fields := make([]Field, 0, t.NumField())

	for i := 0; i < t.NumField(); i++ {
		sf := t.Field(i)
		if sf.PkgPath != "" && !sf.Anonymous {
			continue // unexported, non-embedded
		}

		tag, _, err := tagutil.Parse(sf)
		if err != nil {
			return Spec{}, false, err
		}

		fields = append(fields, Field{
			Name:      sf.Name,
			Index:     i,
			Type:      sf.Type,
			Tag:       tag,
			Anonymous: sf.Anonymous,
		})
	}

	spec := Spec{
		Type:   t,
		Fields: fields,
		Instantiate: func(kwargs map[string]any, _ []any) (any, error) {
			out := reflect.New(t).Elem()
			for i := 0; i < t.NumField(); i++ {
				sf := t.Field(i)
				if sf.PkgPath != "" && !sf.Anonymous {
					continue
				}

				v, ok := kwargs[sf.Name]
				if !ok {
					continue
				}

				setFieldValue(out.Field(i), v)
			}

			return out.Interface(), nil
		},
	}

	return spec, true, nil
}

// KwargsCapable is the Go-idiomatic stand-in for the source ecosystem's
// "keyword-typed dictionary" and "attribute-based record" struct rules: a
// type that wants full control over its own construction (e.g. to validate
// invariants the core does not) can implement it directly instead of
// relying on field-by-field assignment.
type KwargsCapable interface {
	// FromCLI builds a value of the receiver's type from the resolved
	// keyword arguments, keyed by Go field name.
	FromCLI(kwargs map[string]any) (any, error)
}

func kwargsCapableRule(t reflect.Type) (Spec, bool, error) {
	if t.Kind() != reflect.Struct {
		return Spec{}, false, nil
	}

	ptr := reflect.New(t)
	capable, ok := ptr.Interface().(KwargsCapable)
	if !ok {
		return Spec{}, false, nil
	}

	base, found, err := plainStructRule(t)
	if err != nil || !found {
		return Spec{}, false, err
	}

	base.Instantiate = func(kwargs map[string]any, _ []any) (any, error) {
		return capable.FromCLI(kwargs)
	}

	return base, true, nil
}

func setFieldValue(dst reflect.Value, v any) {
	if v == nil {
		return
	}

	rv := reflect.ValueOf(v)
	if rv.Type().AssignableTo(dst.Type()) {
		dst.Set(rv)

		return
	}

	if rv.Type().ConvertibleTo(dst.Type()) {
		dst.Set(rv.Convert(dst.Type()))
	}
}
