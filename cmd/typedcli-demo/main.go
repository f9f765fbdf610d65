// Command typedcli-demo is a thin process entry point showing the
// library's normal usage: define a schema struct, call typedcli.ParseInto,
// and do something with the result. It owns the only os.Exit call in this
// module — the core package never touches the process.
package main

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/reeflective/typedcli"
	"github.com/reeflective/typedcli/internal/clierrors"
)

type demoConfig struct {
	Verbosity int           `markers:"use-counter-action" short:"v" help:"increase verbosity"`
	Timeout   time.Duration `help:"overall timeout" default:"30s"`
	Tags      []string      `help:"labels to attach"`
	Name      string        `markers:"positional" help:"name of the target to act on"`
}

func main() {
	cfg, err := typedcli.ParseInto[demoConfig](
		typedcli.WithProg("typedcli-demo"),
		typedcli.WithDescription("example CLI built on the typedcli schema-derived parser"),
	)
	if err != nil {
		if errors.Is(err, clierrors.ErrHelpRequested) {
			os.Exit(0)
		}

		fmt.Fprintln(os.Stderr, err)
		os.Exit(2)
	}

	fmt.Printf("%+v\n", cfg)
}
