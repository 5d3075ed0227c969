package state

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/dbschema/internal/catalog"
	"github.com/leapstack-labs/dbschema/internal/testutil"
	"github.com/leapstack-labs/dbschema/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setupTestStore(t *testing.T, opts core.SourceOptions) *SQLiteStore {
	t.Helper()
	ctx := context.Background()

	store, err := OpenIndex(ctx, ":memory:", opts, testutil.NewTestLogger(t))
	require.NoError(t, err)
	t.Cleanup(func() { _ = store.Close() })

	dir := testutil.WriteCatalog(t)
	cat, err := catalog.Load(ctx, dir, core.SourceOptions{}, nil)
	require.NoError(t, err)

	_, err = store.ImportCatalog(ctx, cat, dir)
	require.NoError(t, err)
	return store
}

func TestSQLiteStore_OpenClose(t *testing.T) {
	store := NewSQLiteStore(core.SourceOptions{}, nil)

	require.NoError(t, store.Open(context.Background(), ":memory:"))
	assert.Equal(t, ":memory:", store.Path())
	require.NoError(t, store.Close())
}

func TestSQLiteStore_NotOpened(t *testing.T) {
	store := NewSQLiteStore(core.SourceOptions{}, nil)
	ctx := context.Background()

	_, err := store.ListModules(ctx)
	assert.Error(t, err)
	_, err = store.DescribeTable(ctx, "CustTable")
	assert.Error(t, err)
	assert.Error(t, store.Migrate(ctx))
	assert.NoError(t, store.Close())
}

func TestSQLiteStore_Migrate(t *testing.T) {
	ctx := context.Background()
	store, err := OpenIndex(ctx, ":memory:", core.SourceOptions{}, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	version, err := store.GetMigrationVersion(ctx)
	require.NoError(t, err)
	assert.Equal(t, int64(1), version)

	// Running again is a no-op.
	require.NoError(t, store.Migrate(ctx))

	for _, table := range []string{"builds", "modules", "tables", "primary_key_fields", "fields", "relations", "relation_constraints"} {
		rows, err := store.db.QueryContext(ctx, "SELECT 1 FROM "+table+" LIMIT 1")
		require.NoError(t, err, "table %s", table)
		_ = rows.Close()
	}
}

// The index must answer like the in-memory catalog. Load order differs
// between the two (file order versus declaration order), so only membership
// is compared.
func TestSQLiteStore_MatchesCatalog(t *testing.T) {
	ctx := context.Background()

	for _, opts := range []core.SourceOptions{{}, {IgnoreStaging: true}} {
		store := setupTestStore(t, opts)

		var tables []*core.Table
		for _, table := range testutil.SampleTables() {
			tables = append(tables, &table)
		}
		cat, err := catalog.New(tables, nil, opts, nil)
		require.NoError(t, err)

		want, err := cat.ListTablesWithPrimaryKey(ctx)
		require.NoError(t, err)
		got, err := store.ListTablesWithPrimaryKey(ctx)
		require.NoError(t, err)
		assert.ElementsMatch(t, want, got, "primary key tables, ignore staging %v", opts.IgnoreStaging)

		for _, module := range []string{"Customer", "sales", "Inventory", "Nope"} {
			want, err := cat.ListTablesForModule(ctx, module)
			require.NoError(t, err)
			got, err := store.ListTablesForModule(ctx, module)
			require.NoError(t, err)
			assert.ElementsMatch(t, want, got, "module %s, ignore staging %v", module, opts.IgnoreStaging)
		}

		for _, table := range []string{"CustTable", "SalesTable", "salesline", "InventTable", "SalesTableStaging", "Nope"} {
			for _, dir := range []core.Direction{core.Inward, core.Outward} {
				want, err := cat.ListRelatedTables(ctx, table, dir)
				require.NoError(t, err)
				got, err := store.ListRelatedTables(ctx, table, dir)
				require.NoError(t, err)
				assert.ElementsMatch(t, want, got, "%s %s, ignore staging %v", table, dir, opts.IgnoreStaging)
			}
		}
	}
}

func TestSQLiteStore_ListModules(t *testing.T) {
	store := setupTestStore(t, core.SourceOptions{})

	modules, err := store.ListModules(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"Customer", "Inventory", "Sales"}, modules)
}

func TestSQLiteStore_DescribeTable(t *testing.T) {
	store := setupTestStore(t, core.SourceOptions{})
	ctx := context.Background()

	table, err := store.DescribeTable(ctx, "salesline")
	require.NoError(t, err)

	want := testutil.SampleTables()[4]
	assert.Equal(t, want.Name, table.Name)
	assert.Equal(t, want.Label, table.Label)
	assert.Equal(t, want.Module, table.Module)
	assert.Equal(t, want.PrimaryKey, table.PrimaryKey)
	assert.Equal(t, want.Fields, table.Fields)
	assert.Equal(t, want.Relations, table.Relations)

	staging, err := store.DescribeTable(ctx, "SalesTableStaging")
	require.NoError(t, err)
	assert.True(t, staging.Staging)

	_, err = store.DescribeTable(ctx, "Nope")
	assert.ErrorIs(t, err, core.ErrTableNotFound)
}

func TestSQLiteStore_DescribeTable_IgnoreStaging(t *testing.T) {
	store := setupTestStore(t, core.SourceOptions{IgnoreStaging: true})

	_, err := store.DescribeTable(context.Background(), "SalesTableStaging")
	assert.ErrorIs(t, err, core.ErrTableNotFound)
}

func TestSQLiteStore_ImportReplacesContent(t *testing.T) {
	ctx := context.Background()
	store := setupTestStore(t, core.SourceOptions{})

	first, err := store.LatestBuild(ctx)
	require.NoError(t, err)
	require.NotNil(t, first)
	assert.Equal(t, 7, first.TableCount)

	cat, err := catalog.New([]*core.Table{{Name: "Only", Module: "One", PrimaryKey: []string{"Id"}}}, nil, core.SourceOptions{}, nil)
	require.NoError(t, err)
	build, err := store.ImportCatalog(ctx, cat, "elsewhere")
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, build.ID)

	names, err := store.ListTablesWithPrimaryKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"Only"}, names)

	latest, err := store.LatestBuild(ctx)
	require.NoError(t, err)
	assert.Equal(t, build.ID, latest.ID)
	assert.Equal(t, "elsewhere", latest.SourceDir)
	assert.Equal(t, 1, latest.TableCount)
	require.NotNil(t, latest.CompletedAt)
}

func TestSQLiteStore_LatestBuild_Empty(t *testing.T) {
	ctx := context.Background()
	store, err := OpenIndex(ctx, ":memory:", core.SourceOptions{}, nil)
	require.NoError(t, err)
	defer func() { _ = store.Close() }()

	build, err := store.LatestBuild(ctx)
	require.NoError(t, err)
	assert.Nil(t, build)
}

func TestOpenIndex_File(t *testing.T) {
	ctx := context.Background()
	path := filepath.Join(t.TempDir(), "index.db")

	store, err := OpenIndex(ctx, path, core.SourceOptions{}, nil)
	require.NoError(t, err)
	cat, err := catalog.New([]*core.Table{{Name: "T", PrimaryKey: []string{"Id"}}}, nil, core.SourceOptions{}, nil)
	require.NoError(t, err)
	_, err = store.ImportCatalog(ctx, cat, "dir")
	require.NoError(t, err)
	require.NoError(t, store.Close())

	reopened, err := OpenIndex(ctx, path, core.SourceOptions{}, nil)
	require.NoError(t, err)
	defer func() { _ = reopened.Close() }()

	names, err := reopened.ListTablesWithPrimaryKey(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"T"}, names)
}
