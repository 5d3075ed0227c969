package adapter

import (
	"context"
	"log/slog"

	_ "github.com/jackc/pgx/v5/stdlib" // registers the "pgx" driver
	"github.com/leapstack-labs/dbschema/pkg/core"
)

func init() {
	Register("postgres", openPostgres)
}

// openPostgres accepts any DSN pgx understands, URL or key=value.
func openPostgres(ctx context.Context, cfg Config, opts core.SourceOptions, logger *slog.Logger) (core.Provider, error) {
	return openSQL(ctx, "pgx", cfg, opts, logger)
}
