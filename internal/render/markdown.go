package render

import (
	"context"
	"strings"

	"github.com/jedib0t/go-pretty/v6/table"
	"github.com/leapstack-labs/dbschema/pkg/core"
)

// Markdown renders one section per table with a field table and the
// relations inside the selection.
type Markdown struct {
	base
}

// Render implements Renderer.
func (r *Markdown) Render(ctx context.Context, tables []string, opts Options) (string, error) {
	doc, err := r.build(ctx, tables, opts)
	if err != nil {
		return "", err
	}

	refsByTable := make(map[string][]ref)
	for _, rf := range doc.Refs {
		key := core.Fold(rf.From)
		refsByTable[key] = append(refsByTable[key], rf)
	}

	var sb strings.Builder
	sb.WriteString("# Schema\n")

	for _, tv := range doc.Tables {
		t := tv.Table
		sb.WriteString("\n## " + t.Name + "\n\n")
		if t.Label != "" {
			sb.WriteString(t.Label + "\n\n")
		}
		if t.Module != "" {
			sb.WriteString("Module: `" + t.Module + "`\n\n")
		}

		tw := table.NewWriter()
		tw.AppendHeader(table.Row{"Field", "Type", "Key", "Mandatory"})
		for _, f := range tv.Columns {
			key := ""
			if t.IsKeyField(f.Name) {
				key = "PK"
			}
			mandatory := ""
			if f.Mandatory {
				mandatory = "yes"
			}
			tw.AppendRow(table.Row{f.Name, f.EffectiveType(opts.SimplifyTypes), key, mandatory})
		}
		sb.WriteString(tw.RenderMarkdown() + "\n")

		if refs := refsByTable[core.Fold(t.Name)]; len(refs) > 0 {
			sb.WriteString("\nRelations:\n\n")
			for _, rf := range refs {
				sb.WriteString("- " + rf.To + " (" + joinPairs(rf.FromFields, rf.ToFields) + ")\n")
			}
		}
	}

	for _, name := range doc.Missing {
		sb.WriteString("\n## " + name + "\n\n_Not found in metadata._\n")
	}

	return sb.String(), nil
}

func joinPairs(from, to []string) string {
	pairs := make([]string, len(from))
	for i := range from {
		pairs[i] = from[i] + " = " + to[i]
	}
	return strings.Join(pairs, ", ")
}
