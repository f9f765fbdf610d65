// Package clierrors holds the sentinel error values for every error kind
// named in spec.md §7, so that callers can classify failures with
// errors.Is regardless of the formatted message wrapped around them.
package clierrors

import "errors"

// Spec-build-time errors: raised as Go errors to the caller of Parse,
// never printed by the driver itself.
var (
	// ErrUnsupportedType indicates a type that no primitive rule accepts
	// and that is not a struct.
	ErrUnsupportedType = errors.New("unsupported type annotation")

	// ErrInvalidDefault indicates a default value incompatible with its
	// declared type or with any branch of its union.
	ErrInvalidDefault = errors.New("invalid default instance")

	// ErrCyclicSchema indicates a recursive schema whose nesting exceeded
	// the cycle-detection depth threshold.
	ErrCyclicSchema = errors.New("cyclic schema exceeds nesting threshold")

	// ErrAmbiguousSubcommandDefault indicates that no union member is
	// structurally compatible with a subparser's declared default.
	ErrAmbiguousSubcommandDefault = errors.New("no subcommand option matches the declared default")
)

// Parse-time errors: always returned to the caller of Parse; when
// ConsoleOutputs is enabled Parse also writes them to stderr first. The
// process is never exited on the caller's behalf.
var (
	// ErrUnrecognizedOption is a token that looks like a flag but matches
	// no known argument at the current or any inherited level.
	ErrUnrecognizedOption = errors.New("unrecognized option")

	// ErrRequiredOptions is one or more required arguments not supplied.
	ErrRequiredOptions = errors.New("required options missing")

	// ErrMissingSubcommand is a required subparser with no token supplied
	// and no usable default.
	ErrMissingSubcommand = errors.New("missing subcommand")

	// ErrMutuallyExclusive is two arguments from the same at-most-one
	// group both supplied.
	ErrMutuallyExclusive = errors.New("mutually exclusive arguments")

	// ErrInvalidChoice is a token not present in a fixed choices set.
	ErrInvalidChoice = errors.New("invalid choice")

	// ErrInstantiation wraps a value-error raised by a primitive
	// instantiator or a user-supplied constructor.
	ErrInstantiation = errors.New("instantiation failed")

	// ErrHelpRequested is the sentinel the driver returns when -h/--help
	// was consumed; Parse passes it through unchanged, so callers detect a
	// help request with errors.Is rather than treating it as a failure.
	ErrHelpRequested = errors.New("help requested")
)
