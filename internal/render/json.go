package render

import (
	"context"
	"encoding/json"
)

// JSON renders the document as indented JSON.
type JSON struct {
	base
}

type jsonDocument struct {
	Tables  []jsonTable `json:"tables"`
	Refs    []jsonRef   `json:"refs"`
	Missing []string    `json:"missing,omitempty"`
}

type jsonTable struct {
	Name       string      `json:"name"`
	Label      string      `json:"label,omitempty"`
	Module     string      `json:"module,omitempty"`
	PrimaryKey []string    `json:"primary_key,omitempty"`
	Fields     []jsonField `json:"fields"`
}

type jsonField struct {
	Name      string `json:"name"`
	Type      string `json:"type"`
	Mandatory bool   `json:"mandatory,omitempty"`
	Extension string `json:"extension,omitempty"`
}

type jsonRef struct {
	Name       string   `json:"name,omitempty"`
	From       string   `json:"from"`
	FromFields []string `json:"from_fields"`
	To         string   `json:"to"`
	ToFields   []string `json:"to_fields"`
}

// Render implements Renderer.
func (r *JSON) Render(ctx context.Context, tables []string, opts Options) (string, error) {
	doc, err := r.build(ctx, tables, opts)
	if err != nil {
		return "", err
	}

	out := jsonDocument{
		Tables:  make([]jsonTable, 0, len(doc.Tables)),
		Refs:    make([]jsonRef, 0, len(doc.Refs)),
		Missing: doc.Missing,
	}
	for _, tv := range doc.Tables {
		out.Tables = append(out.Tables, toJSONTable(tv, opts))
	}
	for _, rf := range doc.Refs {
		out.Refs = append(out.Refs, jsonRef{
			Name:       rf.Name,
			From:       rf.From,
			FromFields: rf.FromFields,
			To:         rf.To,
			ToFields:   rf.ToFields,
		})
	}

	data, err := json.MarshalIndent(out, "", "  ")
	if err != nil {
		return "", err
	}
	return string(data) + "\n", nil
}

func toJSONTable(tv *tableView, opts Options) jsonTable {
	t := tv.Table
	jt := jsonTable{
		Name:       t.Name,
		Label:      t.Label,
		Module:     t.Module,
		PrimaryKey: t.PrimaryKey,
		Fields:     make([]jsonField, 0, len(tv.Columns)),
	}
	for _, f := range tv.Columns {
		jt.Fields = append(jt.Fields, jsonField{
			Name:      f.Name,
			Type:      f.EffectiveType(opts.SimplifyTypes),
			Mandatory: f.Mandatory,
			Extension: f.Extension,
		})
	}
	return jt
}

var (
	_ Renderer = (*DBML)(nil)
	_ Renderer = (*Markdown)(nil)
	_ Renderer = (*JSON)(nil)
)
