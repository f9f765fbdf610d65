// Package primitive implements component C: the primitive spec engine.
// Every leaf (and composite-of-leaves) type is reduced to a Spec
// describing how many string tokens it consumes, how to turn those
// tokens into a value and back, and — for composite specs (arrays,
// slices, maps) — how to resolve the variable-arity ambiguity between
// their elements via the backtracking search in backtrack.go. No built-in
// rule covers unions of scalar types.
package primitive

import (
	"errors"

	"github.com/reeflective/typedcli/internal/normalize"
)

// ErrNoRule is returned by Registry lookups (defined in package registry)
// when no primitive rule matches a type; it is defined here rather than in
// package registry so built-in rules and tests can refer to it without an
// import cycle.
var ErrNoRule = errors.New("no primitive rule matches type")

// ErrInstantiate wraps a string->value conversion failure.
var ErrInstantiate = errors.New("could not convert argument")

// Nargs describes how many string tokens a Spec consumes: either a fixed
// count, or the variable count "*".
type Nargs struct {
	Count    int
	Variable bool
}

// Fixed builds an Nargs requiring exactly n tokens.
func Fixed(n int) Nargs { return Nargs{Count: n} }

// Star is the variable-arity "*" Nargs.
var Star = Nargs{Variable: true}

// Action tags the special zero/variable-arity behaviours spec.md §4.C
// names: append, count, store_true/store_false, and the boolean
// --flag/--no-flag pair.
type Action int

const (
	// ActionNone is ordinary value consumption.
	ActionNone Action = iota
	// ActionAppend accumulates repeated occurrences.
	ActionAppend
	// ActionCount increments a counter per occurrence.
	ActionCount
	// ActionStoreTrue is a zero-arity flag that sets true.
	ActionStoreTrue
	// ActionStoreFalse is a zero-arity flag that sets false.
	ActionStoreFalse
	// ActionBooleanOptional yields a --flag/--no-flag pair.
	ActionBooleanOptional
)

// Instantiator converts consumed string tokens into a value.
type Instantiator func(tokens []string) (any, error)

// Printer converts a value back into its token form; used for
// stringifying defaults in help text and for the round-trip testable
// property in spec.md §8.
type Printer func(value any) ([]string, error)

// Predicate reports whether a value is one this Spec can print.
type Predicate func(value any) bool

// Spec is the PrimitiveConstructorSpec of spec.md §3.
type Spec struct {
	Nargs       Nargs
	Metavar     string
	Instantiate Instantiator
	Predicate   Predicate
	Print       Printer
	Choices     []string
	Action      Action
}

// Rule matches a normalized type to a Spec, or signals no match with
// ok=false so the registry can try the next rule.
type Rule func(t normalize.Type, resolve Resolver) (Spec, bool, error)

// Resolver looks up the Spec for a nested normalize.Type; composite rules
// (array, slice, map) call back into the active registry through
// this indirection to build their element specs, without importing
// package registry directly (which imports primitive), avoiding a cycle.
type Resolver func(t normalize.Type) (Spec, error)

// acceptsChoice reports whether token is acceptable given an optional
// choices constraint (spec.md invariant 2).
func acceptsChoice(token string, choices []string) bool {
	if len(choices) == 0 {
		return true
	}

	for _, c := range choices {
		if c == token {
			return true
		}
	}

	return false
}
