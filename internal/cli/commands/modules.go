package commands

import (
	"fmt"

	"github.com/leapstack-labs/dbschema/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewModulesCommand creates the modules command.
func NewModulesCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "modules",
		Short: "List the modules (models) of the catalog",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cmdCtx, cleanup, err := NewCommandContext(cmd)
			if err != nil {
				return err
			}
			defer cleanup()

			modules, err := cmdCtx.Engine.Modules(cmd.Context())
			if err != nil {
				return err
			}

			r := cmdCtx.Renderer
			if r.EffectiveMode() == output.ModeJSON {
				if modules == nil {
					modules = []string{}
				}
				return r.JSON(map[string][]string{"modules": modules})
			}
			r.Header(1, fmt.Sprintf("Modules (%d)", len(modules)))
			r.List(modules)
			return nil
		},
	}
}
