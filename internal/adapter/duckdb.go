package adapter

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/dbschema/pkg/core"
	_ "github.com/marcboeker/go-duckdb" // duckdb driver
)

func init() {
	Register("duckdb", openDuckDB)
}

// openDuckDB opens a DuckDB file, or an in-memory database when the DSN is empty.
func openDuckDB(ctx context.Context, cfg Config, opts core.SourceOptions, logger *slog.Logger) (core.Provider, error) {
	return openSQL(ctx, "duckdb", cfg, opts, logger)
}
