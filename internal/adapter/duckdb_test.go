package adapter

import (
	"context"
	"database/sql"
	"testing"

	"github.com/leapstack-labs/dbschema/pkg/core"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestDuckDB_OpenInMemory(t *testing.T) {
	provider, err := Open(context.Background(), Config{Type: "duckdb"}, core.SourceOptions{}, nil)
	require.NoError(t, err)
	defer func() { _ = provider.Close() }()

	names, err := provider.ListTablesWithPrimaryKey(context.Background())
	require.NoError(t, err)
	assert.Empty(t, names)
}

func TestDuckDB_Introspect(t *testing.T) {
	ctx := context.Background()
	db, err := sql.Open("duckdb", "")
	require.NoError(t, err)

	for _, stmt := range []string{
		`CREATE TABLE cust_table (account_num VARCHAR PRIMARY KEY, name VARCHAR)`,
		`CREATE TABLE sales_table (sales_id VARCHAR PRIMARY KEY, cust_account VARCHAR NOT NULL)`,
		`CREATE TABLE audit_log (message VARCHAR)`,
	} {
		_, err := db.ExecContext(ctx, stmt)
		require.NoError(t, err, stmt)
	}

	src, err := NewSource(ctx, db, "", core.SourceOptions{}, nil)
	require.NoError(t, err)
	defer func() { _ = src.Close() }()

	modules, err := src.ListModules(ctx)
	require.NoError(t, err)
	assert.Equal(t, []string{"main"}, modules)

	all, err := src.ListTablesForModule(ctx, "main")
	require.NoError(t, err)
	assert.ElementsMatch(t, []string{"audit_log", "cust_table", "sales_table"}, all)

	table, err := src.DescribeTable(ctx, "sales_table")
	require.NoError(t, err)
	require.Len(t, table.Fields, 2)
	assert.Equal(t, "cust_account", table.Fields[1].Name)
	assert.True(t, table.Fields[1].Mandatory)
}
