package fields

import (
	"github.com/reeflective/typedcli/internal/normalize"
)

// CallMode says how a field's instantiated value is fed back into its
// parent's constructor call.
type CallMode int

const (
	// CallKeyword passes the value as a named keyword argument (the
	// default).
	CallKeyword CallMode = iota
	// CallPositional passes the value positionally.
	CallPositional
	// CallUnpackArgs splices the (sequence-typed) value into the parent's
	// positional arguments.
	CallUnpackArgs
	// CallUnpackKwargs splices the (map-typed) value into the parent's
	// keyword arguments.
	CallUnpackKwargs
)

// Help is either a plain string or a thunk evaluated lazily, only when the
// help renderer actually needs the text (spec.md §9 "lazy helptext" design
// note — deriving help from comments/docstrings is comparatively
// expensive, so defer it).
type Help struct {
	Static string
	Thunk  func() string
}

// Resolve evaluates the help text, preferring the thunk if present.
func (h Help) Resolve() string {
	if h.Thunk != nil {
		return h.Thunk()
	}

	return h.Static
}

// MutexGroup ties a set of sibling arguments together as mutually
// exclusive (spec.md's MutexGroupConfig).
type MutexGroup struct {
	Name     string
	Title    string
	Required bool
}

// Definition is a fully resolved field: a name, a narrowed type, a
// composed default, help text, configuration and call-mode — with no
// remaining ambiguity, ready for component F (the parser spec builder).
type Definition struct {
	InternalName string
	ExternalName string
	Type         normalize.Type
	Default      any
	Help         Help
	Config       normalize.Config
	MutexGroup   *MutexGroup
	CallMode     CallMode
}
