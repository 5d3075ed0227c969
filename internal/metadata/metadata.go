// Package metadata opens the configured metadata backend.
package metadata

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"

	"github.com/leapstack-labs/dbschema/internal/adapter"
	"github.com/leapstack-labs/dbschema/internal/catalog"
	"github.com/leapstack-labs/dbschema/internal/state"
	"github.com/leapstack-labs/dbschema/pkg/core"
)

// Source types.
const (
	TypeYAML     = "yaml"
	TypeIndex    = "index"
	TypeDuckDB   = "duckdb"
	TypePostgres = "postgres"
)

// ErrIndexNotFound is returned when the index source is selected but no index was built.
var ErrIndexNotFound = errors.New("metadata index not found")

// Config selects and locates a metadata backend.
type Config struct {
	Type      string `koanf:"type"`
	Directory string `koanf:"directory"`
	Index     string `koanf:"index"`
	DSN       string `koanf:"dsn"`
	Schema    string `koanf:"schema"`
}

// Types returns every supported source type.
func Types() []string {
	return []string{TypeYAML, TypeIndex, TypeDuckDB, TypePostgres}
}

// Validate checks that cfg names a known type and carries what that type needs.
func (c Config) Validate() error {
	switch c.Type {
	case TypeYAML:
		if c.Directory == "" {
			return fmt.Errorf("metadata.directory is required for the yaml source")
		}
	case TypeIndex:
		if c.Index == "" {
			return fmt.Errorf("metadata.index is required for the index source")
		}
	case TypePostgres:
		if c.DSN == "" {
			return fmt.Errorf("metadata.dsn is required for the postgres source")
		}
	case TypeDuckDB:
		// an empty DSN opens an in-memory database
	default:
		return fmt.Errorf("unknown metadata type %q (valid: %v)", c.Type, Types())
	}
	return nil
}

// Open validates cfg and opens the backend it describes.
func Open(ctx context.Context, cfg Config, opts core.SourceOptions, logger *slog.Logger) (core.Provider, error) {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	logger.Debug("opening metadata", "type", cfg.Type, "ignore_staging", opts.IgnoreStaging)

	switch cfg.Type {
	case TypeYAML:
		return catalog.Load(ctx, cfg.Directory, opts, logger)
	case TypeIndex:
		if _, err := os.Stat(cfg.Index); err != nil {
			if errors.Is(err, os.ErrNotExist) {
				return nil, fmt.Errorf("%w at %s (run 'dbschema index' first)", ErrIndexNotFound, cfg.Index)
			}
			return nil, fmt.Errorf("failed to open index: %w", err)
		}
		store, err := state.OpenIndex(ctx, cfg.Index, opts, logger)
		if err != nil {
			return nil, err
		}
		build, err := store.LatestBuild(ctx)
		if err != nil {
			_ = store.Close()
			return nil, err
		}
		if build == nil {
			logger.Warn("metadata index is empty, run 'dbschema index' to fill it", "index", cfg.Index)
		} else {
			logger.Debug("using metadata index",
				"build", build.ID,
				"source_dir", build.SourceDir,
				"tables", build.TableCount,
				"started_at", build.StartedAt)
		}
		return store, nil
	default:
		return adapter.Open(ctx, adapter.Config{Type: cfg.Type, DSN: cfg.DSN, Schema: cfg.Schema}, opts, logger)
	}
}
