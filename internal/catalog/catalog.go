// Package catalog loads table metadata from a directory of YAML files and
// serves it as a core.Provider.
//
// The directory layout is one folder per module:
//
//	<dir>/manifest.yaml              (optional module list)
//	<dir>/<Module>/tables/<Table>.yaml
package catalog

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/dbschema/internal/graph"
	"github.com/leapstack-labs/dbschema/pkg/core"
)

// Catalog is an in-memory table catalog. It is read-only after New and safe
// for concurrent use.
type Catalog struct {
	modules  []string
	tables   map[string]*core.Table
	order    []string            // folded table names in load order
	byModule map[string][]string // folded module name -> table names
	graph    *graph.Graph
	logger   *slog.Logger
}

var _ core.Provider = (*Catalog)(nil)

// New builds a catalog from tables. Modules fixes the module order; modules
// only seen on tables are appended in first-seen order. With
// opts.IgnoreStaging, staging tables and every relation to them are dropped.
func New(tables []*core.Table, modules []string, opts core.SourceOptions, logger *slog.Logger) (*Catalog, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	c := &Catalog{
		tables:   make(map[string]*core.Table, len(tables)),
		byModule: make(map[string][]string),
		graph:    graph.NewGraph(),
		logger:   logger,
	}
	for _, m := range modules {
		c.addModule(m)
	}

	skipped := make(map[string]bool)
	for _, t := range tables {
		if opts.IgnoreStaging && isStaging(t) {
			skipped[core.Fold(t.Name)] = true
			continue
		}
		key := core.Fold(t.Name)
		if existing, ok := c.tables[key]; ok {
			return nil, fmt.Errorf("duplicate table %q in modules %q and %q", t.Name, existing.Module, t.Module)
		}
		c.tables[key] = t
		c.order = append(c.order, key)
		c.graph.AddNode(t.Name, t)
		if t.Module != "" {
			c.addModule(t.Module)
			mk := core.Fold(t.Module)
			c.byModule[mk] = append(c.byModule[mk], t.Name)
		}
	}

	for _, key := range c.order {
		t := c.tables[key]
		for _, rel := range t.Relations {
			if rel.RelatedTable == "" {
				continue
			}
			if opts.IgnoreStaging && (skipped[core.Fold(rel.RelatedTable)] || core.IsStagingName(rel.RelatedTable)) {
				continue
			}
			c.graph.AddEdge(t.Name, rel.RelatedTable)
		}
	}

	logger.Debug("catalog built",
		"tables", len(c.order),
		"modules", len(c.modules),
		"relations", c.graph.EdgeCount(),
		"staging_skipped", len(skipped))

	return c, nil
}

func (c *Catalog) addModule(name string) {
	key := core.Fold(name)
	if _, ok := c.byModule[key]; ok {
		return
	}
	c.byModule[key] = []string{}
	c.modules = append(c.modules, name)
}

func isStaging(t *core.Table) bool {
	return t.Staging || core.IsStagingName(t.Name)
}

// ListTablesWithPrimaryKey returns every table that declares a primary key.
func (c *Catalog) ListTablesWithPrimaryKey(_ context.Context) ([]string, error) {
	var names []string
	for _, key := range c.order {
		if t := c.tables[key]; t.HasPrimaryKey() {
			names = append(names, t.Name)
		}
	}
	return names, nil
}

// ListTablesForModule returns the tables of module in load order.
func (c *Catalog) ListTablesForModule(_ context.Context, module string) ([]string, error) {
	names := c.byModule[core.Fold(module)]
	if len(names) == 0 {
		return nil, nil
	}
	return append([]string(nil), names...), nil
}

// ListRelatedTables returns the direct neighbours of table.
func (c *Catalog) ListRelatedTables(_ context.Context, table string, dir core.Direction) ([]string, error) {
	return c.graph.Direction(table, dir), nil
}

// DescribeTable returns the metadata of a declared table.
func (c *Catalog) DescribeTable(_ context.Context, name string) (*core.Table, error) {
	t, ok := c.tables[core.Fold(name)]
	if !ok {
		return nil, fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
	}
	return t, nil
}

// ListModules returns the module names in manifest order.
func (c *Catalog) ListModules(_ context.Context) ([]string, error) {
	return append([]string(nil), c.modules...), nil
}

// Tables returns every table in load order.
func (c *Catalog) Tables() []*core.Table {
	out := make([]*core.Table, 0, len(c.order))
	for _, key := range c.order {
		out = append(out, c.tables[key])
	}
	return out
}

// Close is a no-op.
func (c *Catalog) Close() error {
	return nil
}
