package cli

// This file contains the scenarios command.

import (
	"fmt"

	"github.com/urfave/cli/v2"

	"github.com/perfgo/uiprof/scenarios"
)

func (a *App) listScenarios(ctx *cli.Context) error {
	for _, f := range scenarios.All() {
		fmt.Fprintf(a.out, "%s  %s\n", f.ID, f.Description)
		for _, p := range f.Schema.Properties() {
			fmt.Fprintf(a.out, "   %s (%s, default %v): %s\n", p.Name, p.Type, p.Default, p.Description)
		}
		fmt.Fprintln(a.out)
	}
	fmt.Fprintf(a.out, "Set options with: %s bench --scenario <id> -o key=value\n", AppName)
	return nil
}
