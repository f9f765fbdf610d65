// Package driver implements component H: the single-threaded, iterative
// parse loop that walks argv against a specbuild.ParserSpec and produces
// an instantiate.ParsedNode. One flat pass handles every flag belonging
// to this node and all of its nested Groups (dotted names like
// --server.port are recognized at this level); a Subparser boundary is
// the only place the driver recurses, since only then does a genuinely
// fresh argv scope (the tokens following the chosen subcommand name)
// begin.
package driver

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"github.com/reeflective/typedcli/internal/clierrors"
	"github.com/reeflective/typedcli/internal/instantiate"
	"github.com/reeflective/typedcli/internal/lowering"
	"github.com/reeflective/typedcli/internal/primitive"
	"github.com/reeflective/typedcli/internal/registry"
	"github.com/reeflective/typedcli/internal/specbuild"
	"github.com/reeflective/typedcli/internal/suggest"
)

// Options configures one Parse call.
type Options struct {
	AddHelp bool
	// ReturnUnknown makes Parse collect unrecognized tokens instead of
	// failing on the first one (spec.md §6 return_unknown_args).
	ReturnUnknown bool
}

// flatArg wraps a LoweredArgument for the driver's lookup tables; repeats
// of an ActionCount/ActionAppend argument accumulate in the ParsedNode's
// Leaves, not here.
type flatArg struct {
	lowering.LoweredArgument
}

// Parse consumes argv against ps, returning the resulting ParsedNode and any
// tokens that could not be matched (non-empty only when opts.ReturnUnknown
// is set; otherwise an unmatched token is a fatal error).
func Parse(reg *registry.Registry, ps *specbuild.ParserSpec, argv []string, opts Options) (*instantiate.ParsedNode, []string, error) {
	node := instantiate.NewParsedNode()

	flat, positionals, err := flatten(reg, ps)
	if err != nil {
		return nil, nil, err
	}

	longIndex := make(map[string]*flatArg, len(flat))
	shortIndex := make(map[string]*flatArg, len(flat))
	names := make([]string, 0, len(flat))

	for i := range flat {
		fa := &flat[i]
		if fa.Long != "" {
			longIndex[fa.Long] = fa
			longIndex[delimiterVariant(fa.Long)] = fa
			names = append(names, fa.Long)
		}

		if fa.NoLong != "" {
			longIndex[fa.NoLong] = fa
			longIndex[delimiterVariant(fa.NoLong)] = fa
		}

		if fa.Short != "" {
			shortIndex[fa.Short] = fa
		}
	}

	var unknowns []string

	posIdx := 0

	i := 0
	for i < len(argv) {
		tok := argv[i]

		if opts.AddHelp && (tok == "-h" || tok == "--help") {
			return nil, nil, clierrors.ErrHelpRequested
		}

		switch {
		case strings.HasPrefix(tok, "--"):
			name, inline, hasInline := splitInline(tok)

			fa, ok := longIndex[name]
			if !ok {
				if opts.ReturnUnknown {
					unknowns = append(unknowns, tok)
					i++

					continue
				}

				if near := suggest.Closest(name, names); near != "" {
					return nil, nil, fmt.Errorf("%w: %q (did you mean %q?)", clierrors.ErrUnrecognizedOption, name, near)
				}

				return nil, nil, fmt.Errorf("%w: %q", clierrors.ErrUnrecognizedOption, name)
			}

			i++

			if fa.NoLong != "" && (name == fa.NoLong || name == delimiterVariant(fa.NoLong)) {
				node.Leaves[fa.Dest] = false
				node.Supplied[fa.Dest] = true

				continue
			}

			val, consumed, err := consumeValue(fa, argv, i, inline, hasInline)
			if err != nil {
				return nil, nil, err
			}

			i += consumed
			accumulate(node, fa, val)

		case len(tok) > 1 && tok[0] == '-' && !looksNegativeNumber(tok):
			next, err := consumeShort(node, shortIndex, tok, argv, i)
			if err != nil {
				if opts.ReturnUnknown && errors.Is(err, clierrors.ErrUnrecognizedOption) {
					unknowns = append(unknowns, tok)
					i++

					continue
				}

				return nil, nil, err
			}

			i = next

		default:
			if ps.Subparser != nil {
				opt := findOption(ps.Subparser, tok)
				if opt == nil {
					return nil, nil, fmt.Errorf("%w: %q", clierrors.ErrMissingSubcommand, tok)
				}

				sub, subUnknowns, err := Parse(reg, opt.Spec, argv[i+1:], opts)
				if err != nil {
					return nil, nil, err
				}

				node.Chosen = opt.Name
				node.Sub = sub
				unknowns = append(unknowns, subUnknowns...)
				i = len(argv)

				continue
			}

			if posIdx >= len(positionals) {
				if opts.ReturnUnknown {
					unknowns = append(unknowns, tok)
					i++

					continue
				}

				return nil, nil, fmt.Errorf("%w: unexpected positional argument %q", clierrors.ErrUnrecognizedOption, tok)
			}

			fa := positionals[posIdx]
			posIdx++

			n := chunkLen(fa.Spec.Nargs, argv[i:])
			tokens := argv[i : i+n]
			i += n

			val, err := fa.Spec.Instantiate(tokens)
			if err != nil {
				return nil, nil, fmt.Errorf("%w: %s: %w", clierrors.ErrInstantiation, fa.Dest, err)
			}

			node.Leaves[fa.Dest] = val
			node.Supplied[fa.Dest] = true
		}
	}

	if err := fillDefaultsAndRequire(flat, node); err != nil {
		return nil, nil, err
	}

	if err := checkMutexGroups(flat, node); err != nil {
		return nil, nil, err
	}

	if ps.Subparser != nil && node.Chosen == "" {
		switch {
		case ps.Subparser.Default != "":
			opt := findOption(ps.Subparser, ps.Subparser.Default)

			sub, subUnknowns, err := Parse(reg, opt.Spec, nil, opts)
			if err != nil {
				return nil, nil, err
			}

			node.Chosen = opt.Name
			node.Sub = sub
			unknowns = append(unknowns, subUnknowns...)

		case ps.Subparser.Required:
			return nil, nil, fmt.Errorf("%w: %s", clierrors.ErrMissingSubcommand, ps.Subparser.Dest)
		}
	}

	return node, unknowns, nil
}

// delimiterVariant swaps "-" for "_" (or vice versa) in a long flag's
// external spelling, so both forms are always accepted as input regardless
// of which one a schema's use-underscores setting renders in help text
// (spec.md §6: "both forms are accepted on input regardless").
func delimiterVariant(long string) string {
	prefix, name := "", long
	if strings.HasPrefix(long, "--") {
		prefix, name = "--", long[2:]
	}

	if strings.ContainsRune(name, '_') {
		return prefix + strings.ReplaceAll(name, "_", "-")
	}

	return prefix + strings.ReplaceAll(name, "-", "_")
}

func findOption(sub *specbuild.Subparser, name string) *specbuild.SubcommandOption {
	for i := range sub.Options {
		if sub.Options[i].Name == name {
			return &sub.Options[i]
		}
	}

	return nil
}

// flatten collects every Argument reachable from ps without crossing a
// Subparser boundary: ps's own Arguments, depth-first, then each Group's
// Arguments recursively. Positionals are returned separately, in
// declaration order, since they are consumed by position rather than by
// name.
func flatten(reg *registry.Registry, ps *specbuild.ParserSpec) ([]flatArg, []*flatArg, error) {
	var flat []flatArg

	lowered, err := lowering.LowerAll(reg, ps)
	if err != nil {
		return nil, nil, err
	}

	for _, la := range lowered {
		flat = append(flat, flatArg{la})
	}

	for _, g := range ps.Groups {
		childFlat, _, err := flatten(reg, g.Spec)
		if err != nil {
			return nil, nil, err
		}

		flat = append(flat, childFlat...)
	}

	positionals := make([]*flatArg, 0)

	for i := range flat {
		if flat[i].Positional {
			positionals = append(positionals, &flat[i])
		}
	}

	return flat, positionals, nil
}

func splitInline(tok string) (name, value string, hasInline bool) {
	if eq := strings.IndexByte(tok, '='); eq >= 0 {
		return tok[:eq], tok[eq+1:], true
	}

	return tok, "", false
}

// consumeValue resolves one --flag occurrence's value tokens starting at
// argv[from], returning the instantiated value and how many additional
// argv slots (beyond the flag token itself) were consumed.
func consumeValue(fa *flatArg, argv []string, from int, inline string, hasInline bool) (any, int, error) {
	if fa.Spec.Nargs.Count == 0 && !fa.Spec.Nargs.Variable && !hasInline {
		if fa.Spec.Action == primitive.ActionCount {
			return nil, 0, nil
		}

		val, err := fa.Spec.Instantiate(nil)
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s: %w", clierrors.ErrInstantiation, fa.Dest, err)
		}

		return val, 0, nil
	}

	if hasInline {
		val, err := fa.Spec.Instantiate([]string{inline})
		if err != nil {
			return nil, 0, fmt.Errorf("%w: %s: %w", clierrors.ErrInstantiation, fa.Dest, err)
		}

		return val, 0, nil
	}

	rest := argv[from:]
	n := chunkLen(fa.Spec.Nargs, rest)

	if !fa.Spec.Nargs.Variable && n < fa.Spec.Nargs.Count {
		return nil, 0, fmt.Errorf("%w: %s requires a value", clierrors.ErrRequiredOptions, fa.Dest)
	}

	tokens := rest[:n]

	if !choicesOK(tokens, fa.Spec.Choices) {
		return nil, 0, fmt.Errorf("%w: %s: %v", clierrors.ErrInvalidChoice, fa.Dest, tokens)
	}

	val, err := fa.Spec.Instantiate(tokens)
	if err != nil {
		return nil, 0, fmt.Errorf("%w: %s: %w", clierrors.ErrInstantiation, fa.Dest, err)
	}

	return val, n, nil
}

// chunkLen decides how many of the remaining tokens a variable-arity spec
// should grab: everything up to (but not including) the next token that
// looks like a flag.
func chunkLen(n primitive.Nargs, remaining []string) int {
	if !n.Variable {
		if n.Count > len(remaining) {
			return len(remaining)
		}

		return n.Count
	}

	count := 0
	for _, t := range remaining {
		if len(t) > 1 && t[0] == '-' && !looksNegativeNumber(t) {
			break
		}

		count++
	}

	return count
}

func looksNegativeNumber(tok string) bool {
	if len(tok) < 2 || tok[0] != '-' {
		return false
	}

	_, err := strconv.ParseFloat(tok, 64)

	return err == nil
}

func choicesOK(tokens []string, choices []string) bool {
	if len(choices) == 0 {
		return true
	}

	for _, t := range tokens {
		ok := false

		for _, c := range choices {
			if c == t {
				ok = true

				break
			}
		}

		if !ok {
			return false
		}
	}

	return true
}

// consumeShort handles a "-x" token, including bundled boolean/counter
// shorthand like "-vvv", and returns the argv index to resume from.
func consumeShort(node *instantiate.ParsedNode, shortIndex map[string]*flatArg, tok string, argv []string, i int) (int, error) {
	letters := tok[1:]

	// Bundled repeats of a single counter flag, e.g. -vvv.
	if len(letters) > 1 {
		allSame := true
		for _, r := range letters[1:] {
			if byte(r) != letters[0] {
				allSame = false

				break
			}
		}

		if allSame {
			name := "-" + string(letters[0])
			if fa, ok := shortIndex[name]; ok && fa.Spec.Action == primitive.ActionCount {
				for range letters {
					accumulate(node, fa, nil)
				}

				return i + 1, nil
			}
		}
	}

	fa, ok := shortIndex["-"+letters[:1]]
	if !ok {
		return 0, fmt.Errorf("%w: %q", clierrors.ErrUnrecognizedOption, tok)
	}

	if len(letters) > 1 {
		// "-ovalue" style attached value.
		val, err := fa.Spec.Instantiate([]string{letters[1:]})
		if err != nil {
			return 0, fmt.Errorf("%w: %s: %w", clierrors.ErrInstantiation, fa.Dest, err)
		}

		accumulate(node, fa, val)

		return i + 1, nil
	}

	val, consumed, err := consumeValue(fa, argv, i+1, "", false)
	if err != nil {
		return 0, err
	}

	accumulate(node, fa, val)

	return i + 1 + consumed, nil
}

// accumulate stores val for fa, combining with any prior occurrence when
// the spec's action calls for it (append, count).
func accumulate(node *instantiate.ParsedNode, fa *flatArg, val any) {
	node.Supplied[fa.Dest] = true

	switch fa.Spec.Action {
	case primitive.ActionCount:
		prev, _ := node.Leaves[fa.Dest].(int)
		node.Leaves[fa.Dest] = prev + 1

	case primitive.ActionAppend:
		prev, _ := node.Leaves[fa.Dest].([]any)
		node.Leaves[fa.Dest] = append(prev, val)

	default:
		node.Leaves[fa.Dest] = val
	}
}

// fillDefaultsAndRequire supplies each unset argument's default and
// reports every still-missing required argument in one error.
func fillDefaultsAndRequire(flat []flatArg, node *instantiate.ParsedNode) error {
	var missing []string

	for _, fa := range flat {
		if _, ok := node.Leaves[fa.Dest]; ok {
			continue
		}

		if fa.Required {
			missing = append(missing, fa.Dest)

			continue
		}

		if fa.Default != nil {
			node.Leaves[fa.Dest] = fa.Default
		}
	}

	if len(missing) > 0 {
		return fmt.Errorf("%w: %s", clierrors.ErrRequiredOptions, strings.Join(missing, ", "))
	}

	return nil
}

// checkMutexGroups enforces at-most-one (and, when required, at-least-one)
// supplied argument per declared MutexGroup.
func checkMutexGroups(flat []flatArg, node *instantiate.ParsedNode) error {
	type state struct {
		required bool
		supplied []string
	}

	groups := map[string]*state{}

	for _, fa := range flat {
		if fa.MutexGroup == nil {
			continue
		}

		g, ok := groups[fa.MutexGroup.Name]
		if !ok {
			g = &state{required: fa.MutexGroup.Required}
			groups[fa.MutexGroup.Name] = g
		}

		if node.Supplied[fa.Dest] {
			g.supplied = append(g.supplied, fa.Dest)
		}
	}

	for name, g := range groups {
		if len(g.supplied) > 1 {
			return fmt.Errorf("%w: group %q: %s", clierrors.ErrMutuallyExclusive, name, strings.Join(g.supplied, ", "))
		}

		if g.required && len(g.supplied) == 0 {
			return fmt.Errorf("%w: group %q requires exactly one argument", clierrors.ErrRequiredOptions, name)
		}
	}

	return nil
}
