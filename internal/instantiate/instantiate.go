// Package instantiate implements component I: a post-order walk that
// rebuilds the final value tree from a ParsedNode (the driver's parse
// result) and the ParserSpec it was parsed against, deferring every
// struct's actual construction to its own Spec.Instantiate (so a
// structspec.KwargsCapable type still gets its custom constructor called,
// exactly as it would at the top level).
package instantiate

import (
	"fmt"

	"github.com/reeflective/typedcli/internal/clierrors"
	"github.com/reeflective/typedcli/internal/fields"
	"github.com/reeflective/typedcli/internal/specbuild"
)

// ParsedNode is the driver's parse result for one subcommand scope: every
// leaf argument's resolved value (including those belonging to nested
// Groups, keyed by their globally unique dotted id — groups are always
// present, never a selection, so they need no separate sub-node) plus,
// if this scope has a Subparser, which option was chosen and that
// option's own ParsedNode.
type ParsedNode struct {
	Leaves map[string]any // Argument.DottedID -> resolved value
	Chosen string         // Subparser option Name, "" if none
	Sub    *ParsedNode

	// Supplied records which dotted ids were explicitly given on the
	// command line, as opposed to filled in from a LoweredArgument's own
	// default — the distinction component I's optional-group fallback
	// needs (spec.md §4.E/§4.I: "if no argument in the group is supplied
	// on the command line, the parent default instance is used wholesale").
	Supplied map[string]bool
}

// NewParsedNode returns an empty, ready-to-fill ParsedNode.
func NewParsedNode() *ParsedNode {
	return &ParsedNode{Leaves: map[string]any{}, Supplied: map[string]bool{}}
}

// Build walks ps/node together, bottom-up, and returns the final Go value
// described by ps.Type.
func Build(ps *specbuild.ParserSpec, node *ParsedNode) (any, error) {
	if node == nil {
		node = NewParsedNode()
	}

	kwargs := make(map[string]any, len(ps.Arguments)+len(ps.Groups)+1)
	var positional []any

	assign := func(callMode fields.CallMode, fieldName string, v any) {
		switch callMode {
		case fields.CallUnpackKwargs:
			if m, ok := v.(map[string]any); ok {
				for k, mv := range m {
					kwargs[k] = mv
				}

				return
			}

			kwargs[fieldName] = v

		case fields.CallUnpackArgs, fields.CallPositional:
			positional = append(positional, v)

		default:
			kwargs[fieldName] = v
		}
	}

	for _, arg := range ps.Arguments {
		v, ok := node.Leaves[arg.DottedID]
		if !ok || v == nil || v == any(fields.ExcludeFromCall) {
			continue
		}

		assign(arg.Def.CallMode, arg.FieldName, v)
	}

	for _, g := range ps.Groups {
		if g.OptionalGroup && !fields.IsSentinel(g.Default) && g.Default != nil && !anySupplied(g.Spec, node) {
			assign(g.CallMode, g.FieldName, g.Default)

			continue
		}

		val, err := Build(g.Spec, node)
		if err != nil {
			return nil, fmt.Errorf("field %q: %w", g.FieldName, err)
		}

		assign(g.CallMode, g.FieldName, val)
	}

	if ps.Subparser != nil {
		var opt *specbuild.SubcommandOption

		for i := range ps.Subparser.Options {
			if ps.Subparser.Options[i].Name == node.Chosen {
				opt = &ps.Subparser.Options[i]

				break
			}
		}

		if opt == nil {
			return nil, fmt.Errorf("%w: no subcommand option named %q", clierrors.ErrMissingSubcommand, node.Chosen)
		}

		val, err := Build(opt.Spec, node.Sub)
		if err != nil {
			return nil, fmt.Errorf("subcommand %q: %w", node.Chosen, err)
		}

		kwargs[ps.Subparser.FieldName] = val
	}

	value, err := ps.Instantiate(kwargs, positional)
	if err != nil {
		return nil, fmt.Errorf("%w: %w", clierrors.ErrInstantiation, err)
	}

	return value, nil
}

// anySupplied reports whether any argument reachable from ps (its own
// Arguments and those of its nested Groups, not crossing a Subparser
// boundary) was explicitly given on the command line rather than filled
// in from a default.
func anySupplied(ps *specbuild.ParserSpec, node *ParsedNode) bool {
	for _, arg := range ps.Arguments {
		if node.Supplied[arg.DottedID] {
			return true
		}
	}

	for _, g := range ps.Groups {
		if anySupplied(g.Spec, node) {
			return true
		}
	}

	return false
}
