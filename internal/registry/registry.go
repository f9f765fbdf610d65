// Package registry implements component B: the constructor registry.
// A Registry holds the primitive and struct rules consulted by components
// C and D, in last-registered-first-tried (LIFO) order, so a caller's own
// rule — pushed via Scope — always gets a chance to match before a
// built-in falls through to it.
package registry

import (
	"fmt"
	"reflect"

	"github.com/reeflective/typedcli/internal/normalize"
	"github.com/reeflective/typedcli/internal/primitive"
	"github.com/reeflective/typedcli/internal/structspec"
)

// Registry holds the active primitive and struct rule lists.
type Registry struct {
	primitives []primitive.Rule
	structs    []structspec.Rule
	unions     map[reflect.Type]map[string]reflect.Type
}

// New builds a Registry pre-loaded with the built-in primitive rules
// (primitive.BuiltinRules) and struct rules (structspec.Rules), in that
// priority order — a fresh Registry behaves exactly like the zero-config
// default.
func New() *Registry {
	return &Registry{
		primitives: primitive.BuiltinRules(),
		structs:    structspec.Rules(),
	}
}

// PushPrimitive registers an additional primitive rule, tried before any
// rule already present.
func (r *Registry) PushPrimitive(rule primitive.Rule) {
	r.primitives = append(r.primitives, rule)
}

// PushStruct registers an additional struct rule, tried before any rule
// already present.
func (r *Registry) PushStruct(rule structspec.Rule) {
	r.structs = append(r.structs, rule)
}

// GetPrimitiveSpec finds the first (most-recently-registered) primitive
// rule matching t, recursively resolving any nested element types through
// the same registry.
func (r *Registry) GetPrimitiveSpec(t normalize.Type) (primitive.Spec, error) {
	for i := len(r.primitives) - 1; i >= 0; i-- {
		spec, ok, err := r.primitives[i](t, r.GetPrimitiveSpec)
		if err != nil {
			return primitive.Spec{}, err
		}

		if ok {
			return spec, nil
		}
	}

	return primitive.Spec{}, fmt.Errorf("%w: %s", primitive.ErrNoRule, t.Go)
}

// GetStructSpec finds the first (most-recently-registered) struct rule
// matching t's underlying Go type.
func (r *Registry) GetStructSpec(t normalize.Type) (structspec.Spec, bool, error) {
	for i := len(r.structs) - 1; i >= 0; i-- {
		spec, ok, err := r.structs[i](t.Go)
		if err != nil {
			return structspec.Spec{}, false, err
		}

		if ok {
			return spec, true, nil
		}
	}

	return structspec.Spec{}, false, nil
}

// RegisterUnion declares the concrete member types an interface-typed
// field may resolve to, keyed by external subcommand name. Go has no
// runtime equivalent of introspecting typing.Union's members, so a
// union/"one of several struct shapes" field must register its
// alternatives explicitly (spec.md §4.F's subcommand construction then
// treats the interface exactly as it would a Union annotation).
func (r *Registry) RegisterUnion(iface reflect.Type, members map[string]reflect.Type) {
	if r.unions == nil {
		r.unions = make(map[reflect.Type]map[string]reflect.Type)
	}

	r.unions[iface] = members
}

// UnionMembers reports the registered members of an interface type, if
// any were declared via RegisterUnion.
func (r *Registry) UnionMembers(iface reflect.Type) (map[string]reflect.Type, bool) {
	m, ok := r.unions[iface]

	return m, ok
}

// Scope returns a copy of the Registry with independent rule slices, so a
// caller can push scoped rules (e.g. for one subcommand branch) and
// discard them by dropping the copy, without mutating the parent.
func (r *Registry) Scope() *Registry {
	clone := &Registry{
		primitives: make([]primitive.Rule, len(r.primitives)),
		structs:    make([]structspec.Rule, len(r.structs)),
	}

	copy(clone.primitives, r.primitives)
	copy(clone.structs, r.structs)

	if len(r.unions) > 0 {
		clone.unions = make(map[reflect.Type]map[string]reflect.Type, len(r.unions))
		for k, v := range r.unions {
			clone.unions[k] = v
		}
	}

	return clone
}
