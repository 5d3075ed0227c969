package commands

import (
	"github.com/leapstack-labs/dbschema/internal/cli/output"
	"github.com/leapstack-labs/dbschema/pkg/core"
	"github.com/spf13/cobra"
)

// NewRelationsCommand creates the relations command.
func NewRelationsCommand() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "relations <table>",
		Short: "Show the direct relations of a table",
		Long: `Show the tables referencing a table (inward) and the tables it
references (outward).`,
		Example: `  dbschema relations SalesTable
  dbschema relations SalesTable --ignore-staging -o json`,
		Args: cobra.ExactArgs(1),
		RunE: runRelations,
	}

	cmd.Flags().Bool("ignore-staging", false, "Leave out staging tables")
	cmd.Flags().Bool("ignore-self-references", false, "Leave out relations of a table to itself")

	return cmd
}

func runRelations(cmd *cobra.Command, args []string) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	rel, err := cmdCtx.Engine.Relations(cmd.Context(), args[0])
	if err != nil {
		return err
	}
	if cmdCtx.Cfg.IgnoreSelfReferences {
		rel.Inward = withoutTable(rel.Inward, rel.Table)
		rel.Outward = withoutTable(rel.Outward, rel.Table)
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(rel)
	}

	r.Header(1, "Relations of "+rel.Table)
	rows := make([][]string, 0, len(rel.Inward)+len(rel.Outward))
	for _, t := range rel.Inward {
		rows = append(rows, []string{"inward", t})
	}
	for _, t := range rel.Outward {
		rows = append(rows, []string{"outward", t})
	}
	if len(rows) == 0 {
		r.Println("No relations.")
		return nil
	}
	r.Table([]string{"Direction", "Table"}, rows)
	return nil
}

func withoutTable(names []string, table string) []string {
	out := make([]string, 0, len(names))
	for _, n := range names {
		if !core.EqualNames(n, table) {
			out = append(out, n)
		}
	}
	return out
}
