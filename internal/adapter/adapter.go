// Package adapter opens live databases as metadata providers by reading
// their information_schema. Schemas become modules and foreign keys become
// relations.
package adapter

import (
	"context"
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/dbschema/internal/catalog"
	"github.com/leapstack-labs/dbschema/pkg/core"
)

// Config holds the configuration for connecting to a database.
type Config struct {
	// Type is the registered source name (e.g., "duckdb", "postgres")
	Type string

	// DSN is the driver connection string. For DuckDB it is the database
	// file path; empty means an in-memory database.
	DSN string

	// Schema restricts introspection to one schema. Empty reads every
	// user schema.
	Schema string
}

// Source is a catalog snapshot of a live database. The snapshot is taken
// once when the source is opened.
type Source struct {
	*catalog.Catalog
	db *sql.DB
}

var _ core.Provider = (*Source)(nil)

// NewSource introspects db and takes ownership of it.
func NewSource(ctx context.Context, db *sql.DB, schema string, opts core.SourceOptions, logger *slog.Logger) (*Source, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	tables, modules, err := Introspect(ctx, db, schema)
	if err != nil {
		return nil, err
	}
	logger.Debug("introspected database", "schema", schema, "tables", len(tables), "schemas", len(modules))

	cat, err := catalog.New(tables, modules, opts, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to build catalog: %w", err)
	}
	return &Source{Catalog: cat, db: db}, nil
}

// Close closes the database connection.
func (s *Source) Close() error {
	if s.db != nil {
		return s.db.Close()
	}
	return nil
}

// openSQL opens and pings a database/sql connection, then introspects it.
func openSQL(ctx context.Context, driver string, cfg Config, opts core.SourceOptions, logger *slog.Logger) (core.Provider, error) {
	db, err := sql.Open(driver, cfg.DSN)
	if err != nil {
		return nil, fmt.Errorf("failed to open %s connection: %w", cfg.Type, err)
	}

	if err := db.PingContext(ctx); err != nil {
		_ = db.Close()
		return nil, fmt.Errorf("failed to ping %s: %w", cfg.Type, err)
	}

	src, err := NewSource(ctx, db, cfg.Schema, opts, logger)
	if err != nil {
		_ = db.Close()
		return nil, err
	}
	return src, nil
}
