package specbuild

import "github.com/reeflective/typedcli/internal/diag"

// CollectWarnings walks a built ParserSpec tree (without crossing
// Subparser boundaries, each of which gets its own independent flag
// namespace) and reports any dotted external name reused by more than
// one argument — the last one registered would otherwise silently shadow
// the rest at driver lookup time.
func CollectWarnings(ps *ParserSpec) []diag.Warning {
	c := &diag.Collector{}
	seen := map[string]bool{}

	collect(ps, seen, c)

	return c.Warnings()
}

func collect(ps *ParserSpec, seen map[string]bool, c *diag.Collector) {
	for _, a := range ps.Arguments {
		if seen[a.DottedID] {
			c.Warnf(a.DottedID, "argument name %q is declared more than once", a.DottedID)

			continue
		}

		seen[a.DottedID] = true
	}

	for _, g := range ps.Groups {
		collect(g.Spec, seen, c)
	}
}
