package selection

import (
	"context"

	"github.com/leapstack-labs/dbschema/pkg/core"
)

// edge is a directed reference: From points at To.
type edge struct{ From, To string }

// stubSource answers Source queries from in-memory lists and counts calls.
type stubSource struct {
	withPK  []string
	modules map[string][]string
	edges   []edge
	err     error
	calls   int
}

func (s *stubSource) ListTablesWithPrimaryKey(_ context.Context) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	return s.withPK, nil
}

func (s *stubSource) ListTablesForModule(_ context.Context, module string) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	for name, tables := range s.modules {
		if core.EqualNames(name, module) {
			return tables, nil
		}
	}
	return nil, nil
}

func (s *stubSource) ListRelatedTables(_ context.Context, table string, dir core.Direction) ([]string, error) {
	s.calls++
	if s.err != nil {
		return nil, s.err
	}
	var out []string
	for _, e := range s.edges {
		switch dir {
		case core.Outward:
			if core.EqualNames(e.From, table) {
				out = append(out, e.To)
			}
		case core.Inward:
			if core.EqualNames(e.To, table) {
				out = append(out, e.From)
			}
		}
	}
	return out, nil
}

var _ core.Source = (*stubSource)(nil)
