package metadata

import (
	"bytes"
	"context"
	"log/slog"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/dbschema/internal/catalog"
	"github.com/leapstack-labs/dbschema/internal/state"
	"github.com/leapstack-labs/dbschema/internal/testutil"
	"github.com/leapstack-labs/dbschema/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestConfig_Validate(t *testing.T) {
	tests := []struct {
		name    string
		cfg     Config
		wantErr string
	}{
		{name: "yaml", cfg: Config{Type: TypeYAML, Directory: "meta"}},
		{name: "yaml without directory", cfg: Config{Type: TypeYAML}, wantErr: "metadata.directory is required"},
		{name: "index", cfg: Config{Type: TypeIndex, Index: "index.db"}},
		{name: "index without path", cfg: Config{Type: TypeIndex}, wantErr: "metadata.index is required"},
		{name: "duckdb in memory", cfg: Config{Type: TypeDuckDB}},
		{name: "postgres without dsn", cfg: Config{Type: TypePostgres}, wantErr: "metadata.dsn is required"},
		{name: "unknown", cfg: Config{Type: "xml"}, wantErr: `unknown metadata type "xml"`},
		{name: "empty", cfg: Config{}, wantErr: "unknown metadata type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := tt.cfg.Validate()
			if tt.wantErr == "" {
				assert.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestOpen_YAML(t *testing.T) {
	dir := testutil.WriteCatalog(t)

	provider, err := Open(context.Background(), Config{Type: TypeYAML, Directory: dir}, core.SourceOptions{IgnoreStaging: true}, testutil.NewTestLogger(t))
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	names, err := provider.ListTablesForModule(context.Background(), "Sales")
	require.NoError(t, err)
	assert.Equal(t, []string{"SalesLine", "SalesTable"}, names)
}

func TestOpen_Index(t *testing.T) {
	ctx := context.Background()
	dir := testutil.WriteCatalog(t)
	indexPath := filepath.Join(t.TempDir(), "index.db")

	t.Run("missing index", func(t *testing.T) {
		_, err := Open(ctx, Config{Type: TypeIndex, Index: indexPath}, core.SourceOptions{}, nil)
		assert.ErrorIs(t, err, ErrIndexNotFound)
	})

	cat, err := catalog.Load(ctx, dir, core.SourceOptions{}, nil)
	require.NoError(t, err)
	store, err := state.OpenIndex(ctx, indexPath, core.SourceOptions{}, nil)
	require.NoError(t, err)
	_, err = store.ImportCatalog(ctx, cat, dir)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	t.Run("built index", func(t *testing.T) {
		provider, err := Open(ctx, Config{Type: TypeIndex, Index: indexPath}, core.SourceOptions{}, nil)
		require.NoError(t, err)
		defer func() { _ = provider.Close() }()

		modules, err := provider.ListModules(ctx)
		require.NoError(t, err)
		assert.Equal(t, []string{"Customer", "Inventory", "Sales"}, modules)
	})
}

func TestOpen_EmptyIndexWarns(t *testing.T) {
	ctx := context.Background()
	indexPath := filepath.Join(t.TempDir(), "index.db")

	store, err := state.OpenIndex(ctx, indexPath, core.SourceOptions{}, nil)
	require.NoError(t, err)
	require.NoError(t, store.Close())

	var buf bytes.Buffer
	logger := slog.New(slog.NewTextHandler(&buf, &slog.HandlerOptions{Level: slog.LevelWarn}))

	provider, err := Open(ctx, Config{Type: TypeIndex, Index: indexPath}, core.SourceOptions{}, logger)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	assert.Contains(t, buf.String(), "metadata index is empty")
	tables, err := provider.ListTablesWithPrimaryKey(ctx)
	require.NoError(t, err)
	assert.Empty(t, tables)
}

func TestOpen_InvalidConfig(t *testing.T) {
	_, err := Open(context.Background(), Config{Type: "xml"}, core.SourceOptions{}, nil)
	require.Error(t, err)
}
