// Package specbuild implements component F: folding a resolved field tree
// into the ParserSpec/SubparserSpec structure the driver (component H)
// walks and the instantiator (component I) rebuilds values from. A
// struct's own leaf fields become Arguments; a nested struct field
// becomes a child Group (itself a ParserSpec, since Go's struct-of-struct
// nesting is the direct analogue of tyro's nested-dataclass fields); an
// interface-typed field whose concrete members were registered via
// registry.Registry.RegisterUnion becomes a Subparser, the Go stand-in
// for a Union[A, B, ...] annotation.
package specbuild

import (
	"fmt"
	"reflect"
	"strings"

	"github.com/reeflective/typedcli/internal/clierrors"
	"github.com/reeflective/typedcli/internal/fields"
	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/normalize"
	"github.com/reeflective/typedcli/internal/registry"
	"github.com/reeflective/typedcli/internal/structspec"
)

// maxDepth bounds recursive nesting, catching recursive schemas that
// ancestor-tracking alone would only catch on an exact type repeat (two
// mutually-recursive types of different reflect.Type identity are still
// bounded by depth).
const maxDepth = 128

// Argument is one leaf CLI argument: a resolved Definition, the Go field
// name used as the kwargs key when instantiating the owning struct, and
// the dotted external id the driver and help text use.
type Argument struct {
	Def       fields.Definition
	FieldName string
	DottedID  string
}

// requiredHoles reports whether ps has any argument or nested subparser
// that must be supplied on the command line — the check buildSubparser
// uses to decide whether a matched default can actually be used (spec.md
// §4.F: "a default cannot be used if it would leave required holes").
func requiredHoles(ps *ParserSpec) bool {
	for _, arg := range ps.Arguments {
		if !arg.Def.Type.Markers.Has(markers.Fixed) &&
			!arg.Def.Type.Optional &&
			fields.IsMissing(arg.Def.Default) {
			return true
		}
	}

	for _, g := range ps.Groups {
		if requiredHoles(g.Spec) {
			return true
		}
	}

	if ps.Subparser != nil && ps.Subparser.Required {
		return true
	}

	return false
}

// Group is a nested struct field, folded into its own child ParserSpec.
type Group struct {
	FieldName string
	DottedID  string
	Spec      *ParserSpec

	// OptionalGroup mirrors fields.Definition's markers.OptionalGroup tag:
	// the parent accepted a default but this field had none of its own.
	// The instantiator (component I) uses this, together with Default, to
	// implement the all-or-nothing fallback from spec.md §4.E/§4.I.
	OptionalGroup bool
	Default       any
	CallMode      fields.CallMode
}

// SubcommandOption is one concrete alternative of a Subparser.
type SubcommandOption struct {
	Name string
	Type reflect.Type
	Spec *ParserSpec
}

// Subparser describes a union-of-structs field resolved into mutually
// exclusive subcommand choices.
type Subparser struct {
	FieldName string
	Dest      string
	Required  bool
	Default   string // external Name of the default option, "" if none
	Options   []SubcommandOption
}

// ParserSpec is one node of the recursive parser tree.
type ParserSpec struct {
	Type        reflect.Type
	Instantiate func(kwargs map[string]any, positional []any) (any, error)
	Arguments   []Argument
	Groups      []Group
	Subparser   *Subparser
}

// Build walks t's fields (t must normalize to a struct) and produces its
// ParserSpec.
func Build(reg *registry.Registry, t reflect.Type, parentDefault any, inherited markers.Set) (*ParserSpec, error) {
	return build(reg, t, parentDefault, inherited, map[reflect.Type]bool{}, 0, nil)
}

func build(
	reg *registry.Registry,
	t reflect.Type,
	parentDefault any,
	inherited markers.Set,
	ancestors map[reflect.Type]bool,
	depth int,
	prefix []string,
) (*ParserSpec, error) {
	if depth > maxDepth {
		return nil, fmt.Errorf("%w: depth exceeds %d at %s", clierrors.ErrCyclicSchema, maxDepth, t)
	}

	if ancestors[t] {
		return nil, fmt.Errorf("%w: %s recurses into itself", clierrors.ErrCyclicSchema, t)
	}

	ancestors = withAncestor(ancestors, t)

	sspec, ok, err := reg.GetStructSpec(normalize.Type{Go: t})
	if err != nil {
		return nil, err
	}

	if !ok {
		return nil, fmt.Errorf("%w: %s is not a struct or struct-like type", clierrors.ErrUnsupportedType, t)
	}

	defs, err := fields.Resolve(sspec, parentDefault, inherited)
	if err != nil {
		return nil, err
	}

	out := &ParserSpec{Type: t, Instantiate: sspec.Instantiate}

	cascadeArgs := false

	for i, def := range defs {
		field := sspec.Fields[i]

		if def.Type.Markers.Has(markers.Suppress) {
			continue
		}

		dotted := dottedName(prefix, def.ExternalName, def.Type.Markers)

		if _, err := reg.GetPrimitiveSpec(def.Type); err == nil {
			out.Arguments = append(out.Arguments, Argument{
				Def:       def,
				FieldName: field.Name,
				DottedID:  dotted,
			})

			continue
		}

		switch derefType(field.Type).Kind() {
		case reflect.Interface:
			if def.Type.Markers.Has(markers.AvoidSubcommands) {
				return nil, fmt.Errorf("%w: %s field %q carries avoid-subcommands but has no other resolution strategy",
					clierrors.ErrUnsupportedType, t, def.ExternalName)
			}

			sub, err := buildSubparser(reg, field, def, dotted, prefix, ancestors, depth)
			if err != nil {
				return nil, err
			}

			if out.Subparser != nil {
				return nil, fmt.Errorf("%w: %s declares a second union-of-structs field %q",
					clierrors.ErrUnsupportedType, t, def.ExternalName)
			}

			sub.FieldName = field.Name
			out.Subparser = sub

			if def.Type.Markers.Has(markers.CascadeSubcommandArgs) {
				cascadeArgs = true
			}

		case reflect.Struct:
			childPrefix := prefix
			if !def.Type.Markers.Has(markers.OmitArgPrefixes) {
				childPrefix = append(append([]string{}, prefix...), def.ExternalName)
			}

			childSpec, err := build(reg, derefType(field.Type), def.Default, inherited.Union(def.Type.Markers), ancestors, depth+1, childPrefix)
			if err != nil {
				return nil, err
			}

			out.Groups = append(out.Groups, Group{
				FieldName:     field.Name,
				DottedID:      dotted,
				Spec:          childSpec,
				OptionalGroup: def.Type.Markers.Has(markers.OptionalGroup),
				Default:       def.Default,
				CallMode:      def.CallMode,
			})

		default:
			return nil, fmt.Errorf("%w: %s field %q has no primitive rule and is not a struct or interface",
				clierrors.ErrUnsupportedType, t, def.ExternalName)
		}
	}

	if cascadeArgs {
		cascade(out, out.Subparser)
	}

	return out, nil
}

func buildSubparser(
	reg *registry.Registry,
	field structspec.Field,
	def fields.Definition,
	dotted string,
	prefix []string,
	ancestors map[reflect.Type]bool,
	depth int,
) (*Subparser, error) {
	members, ok := reg.UnionMembers(derefType(field.Type))
	if !ok || len(members) == 0 {
		return nil, fmt.Errorf("%w: interface field %q has no registered subcommand members",
			clierrors.ErrUnsupportedType, def.ExternalName)
	}

	required := !def.Type.Optional && fields.IsMissing(def.Default)

	sub := &Subparser{
		Dest:     dotted,
		Required: required,
	}

	omitPrefix := len(prefix) == 0 || def.Type.Markers.Has(markers.OmitSubcommandPrefixes)

	defaultName := ""
	var defaultSpec *ParserSpec

	for rawName, memberType := range members {
		name := rawName
		if !omitPrefix {
			name = strings.Join(prefix, ":") + ":" + rawName
		}

		var memberDefault any

		if !fields.IsSentinel(def.Default) && def.Default != nil {
			if reflect.TypeOf(def.Default) == memberType || reflect.PointerTo(memberType) == reflect.TypeOf(def.Default) {
				memberDefault = def.Default
				defaultName = name
			}
		}

		childSpec, err := build(reg, memberType, memberDefault, markers.Set(0), ancestors, depth+1, nil)
		if err != nil {
			return nil, err
		}

		if name == defaultName {
			defaultSpec = childSpec
		}

		sub.Options = append(sub.Options, SubcommandOption{Name: name, Type: memberType, Spec: childSpec})
	}

	if !fields.IsSentinel(def.Default) && def.Default != nil && defaultName == "" {
		return nil, fmt.Errorf("%w: for field %q", clierrors.ErrAmbiguousSubcommandDefault, def.ExternalName)
	}

	// A default cannot be used if it would leave required holes: if the
	// matched option's own parser has any required argument or required
	// nested subparser, drop the default and make the subparser required
	// instead (spec.md §4.F).
	if defaultName != "" && requiredHoles(defaultSpec) {
		defaultName = ""
		sub.Required = true
	} else if defaultName != "" {
		sub.Required = false
	}

	sub.Default = defaultName

	return sub, nil
}

// cascade implements spec.md §4.F's "consolidate subcommand args": the
// node's own arguments move onto every leaf subcommand option beneath it
// (an option whose own spec has a subparser passes them further down)
// instead of staying attached to the node itself, and any required
// argument among them makes the subparser and every descendant subparser
// required, dropping their defaults.
func cascade(out *ParserSpec, sub *Subparser) {
	if len(out.Arguments) == 0 {
		return
	}

	anyRequired := false

	for _, arg := range out.Arguments {
		if !arg.Def.Type.Markers.Has(markers.Fixed) &&
			!arg.Def.Type.Optional &&
			fields.IsMissing(arg.Def.Default) {
			anyRequired = true
		}
	}

	var attach func(s *Subparser)
	attach = func(s *Subparser) {
		if anyRequired {
			s.Required = true
			s.Default = ""
		}

		for i := range s.Options {
			opt := s.Options[i]
			if opt.Spec.Subparser != nil {
				attach(opt.Spec.Subparser)

				continue
			}

			opt.Spec.Arguments = append(append([]Argument{}, out.Arguments...), opt.Spec.Arguments...)
		}
	}

	attach(sub)

	out.Arguments = nil
}

func withAncestor(ancestors map[reflect.Type]bool, t reflect.Type) map[reflect.Type]bool {
	out := make(map[reflect.Type]bool, len(ancestors)+1)
	for k := range ancestors {
		out[k] = true
	}

	out[t] = true

	return out
}

func dottedName(prefix []string, name string, set markers.Set) string {
	if set.Has(markers.OmitArgPrefixes) || len(prefix) == 0 {
		return name
	}

	joined := make([]string, 0, len(prefix)+1)
	joined = append(joined, prefix...)
	joined = append(joined, name)

	out := joined[0]
	for _, p := range joined[1:] {
		out += "." + p
	}

	return out
}

func derefType(t reflect.Type) reflect.Type {
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}

	return t
}
