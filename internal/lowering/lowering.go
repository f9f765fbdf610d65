// Package lowering implements component G: turning each resolved
// specbuild.Argument into a LoweredArgument, the flat, driver-ready
// description of a single flag or positional — its external spelling(s),
// its primitive Spec, its default tokens, and its composed help text.
package lowering

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/reeflective/typedcli/internal/clierrors"
	"github.com/reeflective/typedcli/internal/fields"
	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/primitive"
	"github.com/reeflective/typedcli/internal/registry"
	"github.com/reeflective/typedcli/internal/specbuild"
)

// LoweredArgument is everything the parse driver (component H) and the
// instantiator (component I) need for one leaf argument, with all
// ambiguity about naming, defaults and help text already resolved.
type LoweredArgument struct {
	Long       string // "" for a purely positional argument
	Short      string // "" if no single-letter alias was declared
	Dest       string // dotted external id, unique within a ParserSpec
	Positional bool
	Required   bool
	Spec       primitive.Spec
	Default    any
	Choices    []string
	Help       string
	MutexGroup *fields.MutexGroup

	// BooleanOptional marks a flag lowered via spec.md §4.G step 2: a
	// boolean field with a concrete default, emitting a --flag/--no-flag
	// pair rather than ordinary token parsing.
	BooleanOptional bool
	// NoLong is the synthesized "--no-..." spelling for a BooleanOptional
	// flag, "" when FlagCreatePairsOff suppresses it.
	NoLong string
}

// Lower builds the LoweredArgument for one specbuild.Argument.
func Lower(reg *registry.Registry, arg specbuild.Argument) (LoweredArgument, error) {
	spec, err := reg.GetPrimitiveSpec(arg.Def.Type)
	if err != nil {
		return LoweredArgument{}, fmt.Errorf("%w: %s", clierrors.ErrUnsupportedType, err)
	}

	positional := arg.Def.Type.Markers.Has(markers.Positional)

	la := LoweredArgument{
		Dest:       arg.DottedID,
		Positional: positional,
		Spec:       spec,
		Default:    arg.Def.Default,
		Choices:    spec.Choices,
		MutexGroup: arg.Def.MutexGroup,
	}

	if !positional {
		la.Long = "--" + arg.DottedID

		if arg.Def.Config.Short != "" {
			la.Short = "-" + arg.Def.Config.Short
		}
	}

	la.Required = !arg.Def.Type.Markers.Has(markers.Fixed) &&
		!arg.Def.Type.Optional &&
		fields.IsMissing(arg.Def.Default)

	// A counter flag that never appears counts zero occurrences, so it is
	// never required.
	if spec.Action == primitive.ActionCount && fields.IsMissing(arg.Def.Default) {
		la.Default = 0
		la.Required = false
	}

	// Step 2: boolean-pair conversion. A boolean field with a concretely
	// known default gets a --flag/--no-flag pair instead of ordinary
	// token parsing, unless that is explicitly turned off.
	concreteDefault := !fields.IsSentinel(arg.Def.Default) && arg.Def.Default != nil

	if !positional && concreteDefault && arg.Def.Type.Go != nil && arg.Def.Type.Go.Kind() == reflect.Bool &&
		!arg.Def.Type.Markers.Has(markers.FlagConversionOff) && !arg.Def.Type.Markers.Has(markers.Fixed) {
		la.BooleanOptional = true
		la.Required = false

		if !arg.Def.Type.Markers.Has(markers.FlagCreatePairsOff) {
			la.NoLong = noFlagName(arg.DottedID)
		}
	}

	// Step 3: Fixed fields can never be supplied on the command line; they
	// are always taken from their resolved default. Clearing Long/Short
	// keeps them out of the driver's lookup tables entirely, and clearing
	// the instantiator means any accidental token match fails loudly
	// rather than silently parsing.
	if arg.Def.Type.Markers.Has(markers.Fixed) {
		la.Spec.Metavar = "{fixed}"
		la.Spec.Instantiate = nil
		la.Long = ""
		la.Short = ""
		la.Required = false
	}

	la.Help = composeHelp(arg, spec)

	return la, nil
}

// noFlagName synthesizes the "--no-..." counterpart of a dotted flag name,
// inserting the "no-" segment after the last "." so nested flags read
// "--a.b.no-flag" rather than "--no-a.b.flag" (spec.md §6).
func noFlagName(dotted string) string {
	if idx := strings.LastIndex(dotted, "."); idx >= 0 {
		return "--" + dotted[:idx+1] + "no-" + dotted[idx+1:]
	}

	return "--no-" + dotted
}

// composeHelp builds the final help string: the field's own declared (or
// thunked) text, plus a printable default and a choices list when either
// is available — the small set of "hint forms" spec.md §4.G enumerates
// (the required marker is left to the renderer, since whether to show
// "(required)" depends on terminal rendering conventions the driver's help
// writer owns).
func composeHelp(arg specbuild.Argument, spec primitive.Spec) string {
	var b strings.Builder

	b.WriteString(arg.Def.Help.Resolve())

	if !fields.IsSentinel(arg.Def.Default) && arg.Def.Default != nil && spec.Print != nil {
		if tokens, err := spec.Print(arg.Def.Default); err == nil && len(tokens) > 0 {
			if b.Len() > 0 {
				b.WriteString(" ")
			}

			fmt.Fprintf(&b, "(default: %s)", strings.Join(tokens, " "))
		}
	}

	if len(spec.Choices) > 0 {
		if b.Len() > 0 {
			b.WriteString(" ")
		}

		fmt.Fprintf(&b, "(choices: %s)", strings.Join(spec.Choices, ", "))
	}

	return b.String()
}

// LowerAll lowers every argument of a ParserSpec node (not recursing into
// its Subparser, which the driver resolves separately once it knows which
// option was selected).
func LowerAll(reg *registry.Registry, ps *specbuild.ParserSpec) ([]LoweredArgument, error) {
	out := make([]LoweredArgument, 0, len(ps.Arguments))

	for _, arg := range ps.Arguments {
		la, err := Lower(reg, arg)
		if err != nil {
			return nil, err
		}

		out = append(out, la)
	}

	return out, nil
}
