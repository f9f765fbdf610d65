package completion

import (
	"github.com/reeflective/typedcli/internal/markers"
	"github.com/reeflective/typedcli/internal/specbuild"
)

// FromParserSpec builds the completion shape for ps, recursing into every
// Group (always present, so its flags are folded into this node) and
// Subparser (a genuine subcommand split).
func FromParserSpec(ps *specbuild.ParserSpec) *Spec {
	spec := &Spec{}

	for _, a := range ps.Arguments {
		if a.Def.Type.Markers.Has(markers.Positional) {
			spec.Positionals = append(spec.Positionals, Positional{
				Name:    a.DottedID,
				Help:    a.Def.Help.Resolve(),
				Choices: a.Def.Config.Choices,
			})

			continue
		}

		flag := Flag{
			Long:       "--" + a.DottedID,
			Help:       a.Def.Help.Resolve(),
			Choices:    a.Def.Config.Choices,
			TakesValue: true,
		}

		if a.Def.Config.Short != "" {
			flag.Short = "-" + a.Def.Config.Short
		}

		spec.Flags = append(spec.Flags, flag)
	}

	for _, g := range ps.Groups {
		child := FromParserSpec(g.Spec)
		spec.Flags = append(spec.Flags, child.Flags...)
		spec.Positionals = append(spec.Positionals, child.Positionals...)
	}

	if ps.Subparser != nil {
		for _, opt := range ps.Subparser.Options {
			spec.Subcommands = append(spec.Subcommands, Subcommand{
				Name: opt.Name,
				Spec: FromParserSpec(opt.Spec),
			})
		}
	}

	return spec
}
