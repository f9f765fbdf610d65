package fields

// sentinel is a closed, identity-comparable marker value. Three distinct
// instances exist (Missing, MissingNonProp, ExcludeFromCall); every
// equality check against them must compare identity (==), never structural
// equality, per spec.md §3's invariant on sentinel values.
type sentinel struct{ name string }

func (s *sentinel) String() string { return s.name }

//nolint:gochecknoglobals // closed, immutable singleton set by design.
var (
	// Missing ("MISSING") means a default is absent and that absence
	// propagates to child fields when this value sits at a struct level.
	Missing = &sentinel{"missing"}

	// MissingNonProp ("MISSING_NONPROP") means a default is absent but
	// child fields should still consult their own declared defaults.
	MissingNonProp = &sentinel{"missing-nonprop"}

	// ExcludeFromCall ("EXCLUDE_FROM_CALL") means the field must be
	// omitted entirely from the constructed call's keyword arguments.
	ExcludeFromCall = &sentinel{"exclude-from-call"}
)

// IsSentinel reports whether v is one of the three well-known sentinels.
func IsSentinel(v any) bool {
	return v == any(Missing) || v == any(MissingNonProp) || v == any(ExcludeFromCall)
}

// IsMissing reports whether v is either flavour of "missing" sentinel.
func IsMissing(v any) bool {
	return v == any(Missing) || v == any(MissingNonProp)
}
