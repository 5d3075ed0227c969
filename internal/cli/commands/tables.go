package commands

import (
	"fmt"

	"github.com/leapstack-labs/dbschema/internal/cli/output"
	"github.com/spf13/cobra"
)

// NewTablesCommand creates the tables command.
func NewTablesCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "tables [pattern...]",
		Short: "List selectable tables",
		Long: `List the tables patterns are matched against: every table with a primary
key, or every table of --model. Patterns narrow the list.

Output adapts to environment:
  - Terminal: Styled output
  - Piped/Scripted: Markdown format
  - JSON: Machine-readable format`,
		Example: `  # Every table with a primary key
  dbschema tables

  # Sales tables as JSON
  dbschema tables 'Sales*' -o json

  # Tables of one model, without staging tables
  dbschema tables --model Sales --ignore-staging`,
		RunE: runTables,
	}

	cmd.Flags().String("model", "", "List the tables of a model (module)")
	cmd.Flags().Bool("ignore-staging", false, "Leave out staging tables")

	return cmd
}

func runTables(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	module := cmdCtx.Engine.Module()
	tables, err := cmdCtx.Engine.Candidates(cmd.Context(), module, args...)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		if tables == nil {
			tables = []string{}
		}
		return r.JSON(struct {
			Module string   `json:"module,omitempty"`
			Tables []string `json:"tables"`
		}{module, tables})
	}

	title := fmt.Sprintf("Tables (%d)", len(tables))
	if module != "" {
		title = fmt.Sprintf("Tables in %s (%d)", module, len(tables))
	}
	r.Header(1, title)
	r.List(tables)
	return nil
}
