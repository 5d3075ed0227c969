package render

import (
	"context"
	"regexp"
	"strings"
)

var (
	plainIdent = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*$`)
	plainType  = regexp.MustCompile(`^[A-Za-z_][A-Za-z0-9_]*(\([0-9, ]*\))?$`)
)

// DBML renders Database Markup Language.
type DBML struct {
	base
}

// Render writes one Table block per described table followed by the Ref
// lines between them.
func (r *DBML) Render(ctx context.Context, tables []string, opts Options) (string, error) {
	doc, err := r.build(ctx, tables, opts)
	if err != nil {
		return "", err
	}

	var sb strings.Builder
	for _, tv := range doc.Tables {
		writeDBMLTable(&sb, tv, opts)
		sb.WriteString("\n")
	}

	for _, name := range doc.Missing {
		sb.WriteString("// table " + name + " not found in metadata\n")
	}
	if len(doc.Missing) > 0 && len(doc.Refs) > 0 {
		sb.WriteString("\n")
	}

	for _, ref := range doc.Refs {
		sb.WriteString("Ref: ")
		sb.WriteString(dbmlEndpoint(ref.From, ref.FromFields))
		sb.WriteString(" > ")
		sb.WriteString(dbmlEndpoint(ref.To, ref.ToFields))
		sb.WriteString("\n")
	}

	return sb.String(), nil
}

func writeDBMLTable(sb *strings.Builder, tv *tableView, opts Options) {
	t := tv.Table
	compositeKey := len(t.PrimaryKey) > 1

	sb.WriteString("Table " + dbmlIdent(t.Name) + " {\n")
	for _, f := range tv.Columns {
		sb.WriteString("  " + dbmlIdent(f.Name) + " " + dbmlType(f.EffectiveType(opts.SimplifyTypes)))

		var settings []string
		if !compositeKey && t.IsKeyField(f.Name) {
			settings = append(settings, "pk")
		}
		if opts.MarkMandatoryNotNull && f.Mandatory {
			settings = append(settings, "not null")
		}
		if f.Extension != "" {
			settings = append(settings, "note: "+dbmlString("extension "+f.Extension))
		}
		if len(settings) > 0 {
			sb.WriteString(" [" + strings.Join(settings, ", ") + "]")
		}
		sb.WriteString("\n")
	}

	if compositeKey {
		idents := make([]string, len(t.PrimaryKey))
		for i, k := range t.PrimaryKey {
			idents[i] = dbmlIdent(k)
		}
		sb.WriteString("\n  indexes {\n")
		sb.WriteString("    (" + strings.Join(idents, ", ") + ") [pk]\n")
		sb.WriteString("  }\n")
	}

	if t.Label != "" {
		sb.WriteString("\n  Note: " + dbmlString(t.Label) + "\n")
	}
	sb.WriteString("}\n")
}

func dbmlEndpoint(table string, fields []string) string {
	if len(fields) == 1 {
		return dbmlIdent(table) + "." + dbmlIdent(fields[0])
	}
	idents := make([]string, len(fields))
	for i, f := range fields {
		idents[i] = dbmlIdent(f)
	}
	return dbmlIdent(table) + ".(" + strings.Join(idents, ", ") + ")"
}

// dbmlIdent double-quotes names that are not plain identifiers.
func dbmlIdent(name string) string {
	if plainIdent.MatchString(name) {
		return name
	}
	return `"` + strings.ReplaceAll(name, `"`, `\"`) + `"`
}

func dbmlType(typ string) string {
	if typ == "" {
		return "unknown"
	}
	if plainType.MatchString(typ) {
		return typ
	}
	return `"` + strings.ReplaceAll(typ, `"`, `\"`) + `"`
}

func dbmlString(s string) string {
	s = strings.ReplaceAll(s, `\`, `\\`)
	return "'" + strings.ReplaceAll(s, "'", `\'`) + "'"
}
