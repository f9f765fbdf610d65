// Package completion defines the shell-completion spec *shape* described
// in spec.md §6: a plain data tree mirroring a specbuild.ParserSpec, with
// no dependency on any particular completion engine. Rendering that tree
// into an actual completion script is delegated entirely to the
// shellcompletion package, which is the only part of this module that
// imports a completion engine.
package completion

// Flag describes one completable flag.
type Flag struct {
	Long       string
	Short      string
	Help       string
	Choices    []string
	TakesValue bool
}

// Positional describes one completable positional argument.
type Positional struct {
	Name    string
	Help    string
	Choices []string
}

// Subcommand is one named alternative of a Spec's Subcommands split.
type Subcommand struct {
	Name string
	Help string
	Spec *Spec
}

// Spec is the completion shape for one parser node.
type Spec struct {
	Flags       []Flag
	Positionals []Positional
	Subcommands []Subcommand
}
