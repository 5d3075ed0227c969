// Package render turns a selected table set into a schema document.
package render

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"sort"

	"github.com/leapstack-labs/dbschema/pkg/core"
)

// Output formats.
const (
	FormatDBML     = "dbml"
	FormatMarkdown = "markdown"
	FormatJSON     = "json"
)

// Formats returns every supported format.
func Formats() []string {
	return []string{FormatDBML, FormatMarkdown, FormatJSON}
}

// Options control which columns and references are rendered.
type Options struct {
	// IncludeAllFields renders every field, not only key and relation fields.
	IncludeAllFields bool `json:"include_all_fields,omitempty"`
	// IncludeExtensionFields renders fields added by extensions.
	IncludeExtensionFields bool `json:"include_extension_fields,omitempty"`
	// MarkMandatoryNotNull marks mandatory fields as not null.
	MarkMandatoryNotNull bool `json:"mark_mandatory,omitempty"`
	// SimplifyTypes renders base types instead of declared types.
	SimplifyTypes bool `json:"simplify_types,omitempty"`
	// IgnoreSelfReferences drops relations from a table to itself.
	IgnoreSelfReferences bool `json:"ignore_self_references,omitempty"`
}

// Renderer produces a document for a set of table names.
type Renderer interface {
	Render(ctx context.Context, tables []string, opts Options) (string, error)
}

// New returns the renderer for format. An empty format means DBML.
func New(format string, describer core.Describer, logger *slog.Logger) (Renderer, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	base := base{describer: describer, logger: logger}

	switch format {
	case "", FormatDBML:
		return &DBML{base: base}, nil
	case FormatMarkdown:
		return &Markdown{base: base}, nil
	case FormatJSON:
		return &JSON{base: base}, nil
	default:
		return nil, fmt.Errorf("unknown render format %q (valid: %v)", format, Formats())
	}
}

// base resolves table names into a document model shared by all formats.
type base struct {
	describer core.Describer
	logger    *slog.Logger
}

// document is the format-independent content of one rendering.
type document struct {
	Tables  []*tableView
	Refs    []ref
	Missing []string
}

type tableView struct {
	Table   *core.Table
	Columns []core.Field
}

// ref is a rendered relation. Both ends are described tables of the selection.
type ref struct {
	From         string
	FromFields   []string
	To           string
	ToFields     []string
	Name         string
	SelfRelation bool
}

// build describes every table, sorted case-insensitively. Tables the
// describer does not know are collected in Missing; any other describer
// error aborts.
func (b base) build(ctx context.Context, names []string, opts Options) (*document, error) {
	sorted := append([]string(nil), names...)
	sort.SliceStable(sorted, func(i, j int) bool {
		return core.Fold(sorted[i]) < core.Fold(sorted[j])
	})

	doc := &document{}
	selected := make(map[string]bool, len(sorted))
	for _, name := range sorted {
		key := core.Fold(name)
		if selected[key] {
			continue
		}
		selected[key] = true

		t, err := b.describer.DescribeTable(ctx, name)
		if errors.Is(err, core.ErrTableNotFound) {
			b.logger.Debug("table not in metadata", "table", name)
			doc.Missing = append(doc.Missing, name)
			continue
		}
		if err != nil {
			return nil, fmt.Errorf("failed to describe %s: %w", name, err)
		}
		doc.Tables = append(doc.Tables, &tableView{Table: t, Columns: columns(t, opts)})
	}

	described := make(map[string]bool, len(doc.Tables))
	for _, tv := range doc.Tables {
		described[core.Fold(tv.Table.Name)] = true
	}

	for _, tv := range doc.Tables {
		t := tv.Table
		for _, rel := range t.Relations {
			if !described[core.Fold(rel.RelatedTable)] || len(rel.Constraints) == 0 {
				continue
			}
			self := core.EqualNames(rel.RelatedTable, t.Name)
			if self && opts.IgnoreSelfReferences {
				continue
			}
			r := ref{From: t.Name, To: rel.RelatedTable, Name: rel.Name, SelfRelation: self}
			for _, c := range rel.Constraints {
				r.FromFields = append(r.FromFields, c.Field)
				r.ToFields = append(r.ToFields, c.RelatedField)
			}
			doc.Refs = append(doc.Refs, r)
		}
	}

	b.logger.Debug("built document", "tables", len(doc.Tables), "refs", len(doc.Refs), "missing", len(doc.Missing))
	return doc, nil
}

// columns picks the fields to render. Key and relation fields are always
// rendered; other fields need IncludeAllFields, and extension fields that
// are neither key nor relation fields need IncludeExtensionFields.
func columns(t *core.Table, opts Options) []core.Field {
	var out []core.Field
	for _, f := range t.Fields {
		structural := t.IsKeyField(f.Name) || t.IsRelationField(f.Name)
		switch {
		case structural:
		case f.Extension != "" && !opts.IncludeExtensionFields:
			continue
		case f.Extension == "" && !opts.IncludeAllFields:
			continue
		}
		out = append(out, f)
	}
	return out
}
