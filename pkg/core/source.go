package core

import (
	"context"
	"errors"
)

// Direction is the traversal direction of a relationship lookup.
type Direction string

const (
	// Inward selects tables that reference the given table.
	Inward Direction = "inward"
	// Outward selects tables the given table references.
	Outward Direction = "outward"
)

// ErrTableNotFound is returned by Describer when the table is not in the catalog.
var ErrTableNotFound = errors.New("table not found")

// Source is the read-only capability set the selection engine needs.
// Empty results are not errors.
type Source interface {
	// ListTablesWithPrimaryKey returns the catalog-wide universe of queryable tables.
	ListTablesWithPrimaryKey(ctx context.Context) ([]string, error)
	// ListTablesForModule returns the tables that belong to module.
	ListTablesForModule(ctx context.Context, module string) ([]string, error)
	// ListRelatedTables returns the tables one hop away from table in direction dir.
	ListRelatedTables(ctx context.Context, table string, dir Direction) ([]string, error)
}

// Describer returns full table metadata for rendering.
type Describer interface {
	DescribeTable(ctx context.Context, name string) (*Table, error)
}

// Provider is a complete metadata backend.
type Provider interface {
	Source
	Describer
	ListModules(ctx context.Context) ([]string, error)
	Close() error
}

// SourceOptions are policies applied by a provider when it answers Source queries.
type SourceOptions struct {
	// IgnoreStaging drops staging tables from every list the provider returns.
	IgnoreStaging bool
}
