package cli

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/leapstack-labs/dbschema/internal/cli/config"
	clitestutil "github.com/leapstack-labs/dbschema/internal/cli/testutil"
	"github.com/leapstack-labs/dbschema/internal/selection"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	t.Cleanup(config.ResetConfig)

	cmd := NewRootCmd()
	var out, errOut bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestVersionCommand(t *testing.T) {
	out, _, err := run(t, "version")
	require.NoError(t, err)
	assert.Contains(t, out, "dbschema v"+Version)
}

func TestHelpListsCommands(t *testing.T) {
	out, _, err := run(t, "--help")
	require.NoError(t, err)
	for _, name := range []string{"generate", "tables", "relations", "modules", "index", "serve", "completion"} {
		assert.Contains(t, out, name)
	}
}

func TestGenerate(t *testing.T) {
	p := clitestutil.SetupTestProject(t)

	tests := []struct {
		name     string
		args     []string
		contains []string
		excludes []string
	}{
		{
			name:     "positional tables",
			args:     []string{"generate", "CustTable", "CustGroup"},
			contains: []string{"Table CustGroup {", "Table CustTable {", "Ref: CustTable.CustGroup > CustGroup.CustGroup"},
		},
		{
			name:     "dbml alias with outward",
			args:     []string{"dbml", "--add-outward", "SalesLine"},
			contains: []string{"Table InventTable {", "Table SalesLine {", "Table SalesTable {"},
		},
		{
			name:     "related with table",
			args:     []string{"generate", "--add-related=CustGroup"},
			contains: []string{"Table CustGroup {", "Table CustTable {"},
			excludes: []string{"Table SalesTable {"},
		},
		{
			name:     "related expands the selection",
			args:     []string{"generate", "--table", "InventTable", "--add-related", "--ignore-self-references"},
			contains: []string{"Table InventTable {", "Table SalesLine {"},
			excludes: []string{"Ref: InventTable.ParentItemId"},
		},
		{
			name:     "model without tables",
			args:     []string{"generate", "--model", "Sales", "--ignore-staging"},
			contains: []string{"Table SalesLine {", "Table SalesTable {"},
			excludes: []string{"SalesTableStaging"},
		},
		{
			name:     "all fields and simplified types",
			args:     []string{"generate", "SalesTable", "--include-non-keyfields", "--simplify-types"},
			contains: []string{"DeliveryDate Date"},
		},
		{
			name:     "markdown format",
			args:     []string{"generate", "SalesTable", "--format", "markdown"},
			contains: []string{"# Schema", "## SalesTable"},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			out, _, err := run(t, append(tt.args, "--config", p.Config)...)
			require.NoError(t, err)
			for _, s := range tt.contains {
				assert.Contains(t, out, s)
			}
			for _, s := range tt.excludes {
				assert.NotContains(t, out, s)
			}
		})
	}
}

func TestGenerate_UsageErrors(t *testing.T) {
	p := clitestutil.SetupTestProject(t)

	_, _, err := run(t, "generate", "--config", p.Config)
	assert.ErrorIs(t, err, selection.ErrNoSelection)

	_, _, err = run(t, "generate", "--add-from-model", "--config", p.Config)
	assert.ErrorIs(t, err, selection.ErrModuleRequired)

	_, _, err = run(t, "generate", "CustTable", "--format", "svg", "--config", p.Config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "unknown render format")
}

func TestGenerate_MissingMetadataDirectory(t *testing.T) {
	t.Setenv(config.LegacyMetadataEnv, "")
	dir := t.TempDir()
	cfg := filepath.Join(dir, "dbschema.yaml")
	require.NoError(t, os.WriteFile(cfg, []byte("module: Sales\n"), 0o600))

	_, _, err := run(t, "generate", "CustTable", "--config", cfg)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "metadata.directory is required")
}

func TestGenerate_LegacyEnvDirectory(t *testing.T) {
	p := clitestutil.SetupTestProject(t)
	t.Setenv(config.LegacyMetadataEnv, p.Metadata)
	t.Chdir(t.TempDir())

	out, _, err := run(t, "generate", "CustGroup")
	require.NoError(t, err)
	assert.Contains(t, out, "Table CustGroup {")
}

func TestGenerate_OutFile(t *testing.T) {
	p := clitestutil.SetupTestProject(t)
	target := filepath.Join(t.TempDir(), "docs", "nested", "schema.dbml")

	out, errOut, err := run(t, "generate", "--add-inward", "CustTable", "--out", target, "--config", p.Config)
	require.NoError(t, err)
	assert.Empty(t, out)
	assert.Contains(t, errOut, "wrote 3 tables to "+target)

	data, err := os.ReadFile(target)
	require.NoError(t, err)
	assert.Contains(t, string(data), "Table CustTrans {")
}

func TestGenerate_WatchNeedsYAML(t *testing.T) {
	p := clitestutil.SetupTestProject(t)

	_, _, err := run(t, "generate", "CustTable", "--watch", "--source", "duckdb", "--config", p.Config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "--watch requires the yaml metadata source")
}

func TestTablesCommand(t *testing.T) {
	p := clitestutil.SetupTestProject(t)

	out, _, err := run(t, "tables", "Cust*", "-o", "json", "--config", p.Config)
	require.NoError(t, err)

	var got struct{ Tables []string }
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Equal(t, []string{"CustGroup", "CustTable"}, got.Tables)

	out, _, err = run(t, "tables", "--model", "Customer", "--config", p.Config)
	require.NoError(t, err)
	clitestutil.AssertNoANSI(t, out)
	clitestutil.AssertValidMarkdown(t, out)
	assert.Contains(t, out, "# Tables in Customer (3)")
	assert.Contains(t, out, "- CustTrans")

	out, _, err = run(t, "tables", "Cust\xff*", "-o", "json", "--config", p.Config)
	require.NoError(t, err)
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.Empty(t, got.Tables)
}

func TestRelationsCommand(t *testing.T) {
	p := clitestutil.SetupTestProject(t)

	out, _, err := run(t, "relations", "InventTable", "--config", p.Config)
	require.NoError(t, err)
	assert.Contains(t, out, "# Relations of InventTable")
	assert.Contains(t, out, "| inward | SalesLine |")
	assert.Contains(t, out, "| outward | InventTable |")

	out, _, err = run(t, "relations", "InventTable", "--ignore-self-references", "-o", "json", "--config", p.Config)
	require.NoError(t, err)
	var rel struct{ Inward, Outward []string }
	require.NoError(t, json.Unmarshal([]byte(out), &rel))
	assert.Equal(t, []string{"SalesLine"}, rel.Inward)
	assert.Empty(t, rel.Outward)

	_, _, err = run(t, "relations", "--config", p.Config)
	assert.Error(t, err)
}

func TestModulesCommand(t *testing.T) {
	p := clitestutil.SetupTestProject(t)

	out, _, err := run(t, "modules", "-o", "json", "--config", p.Config)
	require.NoError(t, err)
	var got struct{ Modules []string }
	require.NoError(t, json.Unmarshal([]byte(out), &got))
	assert.ElementsMatch(t, []string{"Customer", "Inventory", "Sales"}, got.Modules)
}

func TestIndexThenGenerateFromIndex(t *testing.T) {
	p := clitestutil.SetupTestProject(t)

	_, errOut, err := run(t, "index", "--config", p.Config)
	require.NoError(t, err)
	assert.Contains(t, errOut, "indexed 7 tables")
	assert.FileExists(t, filepath.Join(p.Root, ".dbschema", "index.db"))

	out, _, err := run(t, "generate", "--add-inward", "SalesTable", "--ignore-staging", "--source", "index", "--config", p.Config)
	require.NoError(t, err)
	assert.Contains(t, out, "Table SalesLine {")
	assert.NotContains(t, out, "SalesTableStaging")
}

func TestGenerate_IndexMissing(t *testing.T) {
	p := clitestutil.SetupTestProject(t)

	_, _, err := run(t, "generate", "CustTable", "--source", "index", "--config", p.Config)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "dbschema index")
}

func TestCompletionCommand(t *testing.T) {
	out, _, err := run(t, "completion", "bash")
	require.NoError(t, err)
	assert.True(t, strings.Contains(out, "dbschema"))
}
