// Package shellcompletion renders a completion.Spec into a carapace
// action tree. Emission is explicitly out of scope for the core parsing
// pipeline (spec.md's Non-goals), so this is the only package in the
// module that imports github.com/carapace-sh/carapace — grounded on the
// teacher's own split between spec generation (internal/gen/flags) and
// completion rendering (internal/gen/completions).
package shellcompletion

import (
	"github.com/carapace-sh/carapace"
	"github.com/spf13/cobra"

	"github.com/reeflective/typedcli/internal/completion"
)

// Attach wires completion actions for spec onto an existing cobra.Command
// tree (e.g. the thin cmd/typedcli-demo entry point, or any cobra-based
// host command a caller layers typedcli under).
func Attach(cmd *cobra.Command, spec *completion.Spec) {
	c := carapace.Gen(cmd)

	flagActions := carapace.ActionMap{}

	for _, f := range spec.Flags {
		name := trimDashes(f.Long)
		if name == "" {
			continue
		}

		flagActions[name] = actionFor(f.Choices)
	}

	c.FlagCompletion(flagActions)

	if len(spec.Positionals) > 0 {
		positional := spec.Positionals[0]
		c.PositionalAnyCompletion(actionFor(positional.Choices))
	}

	for _, sub := range spec.Subcommands {
		child := &cobra.Command{Use: sub.Name, Short: sub.Help}
		cmd.AddCommand(child)
		Attach(child, sub.Spec)
	}
}

func actionFor(choices []string) carapace.Action {
	if len(choices) == 0 {
		return carapace.ActionValues()
	}

	return carapace.ActionValues(choices...)
}

func trimDashes(s string) string {
	for len(s) > 0 && s[0] == '-' {
		s = s[1:]
	}

	return s
}
