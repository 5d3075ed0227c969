package commands

import (
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/leapstack-labs/dbschema/internal/cli/config"
	"github.com/leapstack-labs/dbschema/internal/cli/output"
	clitestutil "github.com/leapstack-labs/dbschema/internal/cli/testutil"
	"github.com/leapstack-labs/dbschema/internal/engine"
	"github.com/leapstack-labs/dbschema/internal/metadata"
	"github.com/leapstack-labs/dbschema/internal/render"
	"github.com/leapstack-labs/dbschema/internal/selection"
	"github.com/leapstack-labs/dbschema/internal/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestBuildRequest(t *testing.T) {
	tests := []struct {
		name string
		cfg  config.Config
		args []string
		opts GenerateOptions
		want selection.Request
	}{
		{
			name: "config tables and comma separated args",
			cfg:  config.Config{Tables: []string{"CustTable"}},
			args: []string{"SalesTable, SalesLine", "Invent*"},
			want: selection.Request{Tables: []string{"CustTable", "SalesTable", "SalesLine", "Invent*"}},
		},
		{
			name: "directed targets",
			opts: GenerateOptions{Inward: "CustTable", Outward: "SalesLine", AddFromModel: true},
			want: selection.Request{Inward: "CustTable", Outward: "SalesLine", IncludeModuleTables: true},
		},
		{
			name: "add-related without table",
			opts: GenerateOptions{Related: relatedSelection},
			want: selection.Request{ExpandRelated: true},
		},
		{
			name: "add-related with table",
			opts: GenerateOptions{Related: "SalesTable"},
			want: selection.Request{Related: "SalesTable", ExpandRelated: true},
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got := buildRequest(&tt.cfg, tt.args, &tt.opts)
			assert.Equal(t, tt.want, got.Request)
		})
	}
}

func TestBuildRequest_RenderOptions(t *testing.T) {
	cfg := config.Config{Render: config.RenderConfig{IncludeAllFields: true, IncludeExtensionFields: true, MarkMandatory: true}}

	got := buildRequest(&cfg, nil, &GenerateOptions{})
	assert.Equal(t, render.Options{
		IncludeAllFields:       true,
		IncludeExtensionFields: true,
		MarkMandatoryNotNull:   true,
	}, got.Render)
}

func TestGenerateCommand_AddRelatedFlag(t *testing.T) {
	cmd := NewGenerateCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--add-related", "--table", "A"}))
	v, err := cmd.Flags().GetString("add-related")
	require.NoError(t, err)
	assert.Equal(t, relatedSelection, v)

	cmd = NewGenerateCommand()
	require.NoError(t, cmd.ParseFlags([]string{"--add-related=SalesTable"}))
	v, err = cmd.Flags().GetString("add-related")
	require.NoError(t, err)
	assert.Equal(t, "SalesTable", v)
}

func TestWriteDocument(t *testing.T) {
	path := filepath.Join(t.TempDir(), "a", "b", "schema.dbml")

	require.NoError(t, writeDocument(path, "Table A {\n}\n"))
	data, err := os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Table A {\n}\n", string(data))

	// overwrite
	require.NoError(t, writeDocument(path, "Table B {\n}\n"))
	data, err = os.ReadFile(path)
	require.NoError(t, err)
	assert.Equal(t, "Table B {\n}\n", string(data))
}

func TestGenerateOnce(t *testing.T) {
	eng, err := engine.New(engine.Config{
		Metadata: metadata.Config{Type: metadata.TypeYAML, Directory: testutil.WriteCatalog(t)},
	})
	require.NoError(t, err)
	defer func() { _ = eng.Close() }()

	tr := clitestutil.NewTestRenderer(output.ModeAuto, false)
	cmdCtx := &CommandContext{Engine: eng, Renderer: tr.Renderer, Logger: testutil.NewTestLogger(t)}
	req := engine.Request{Request: selection.Request{Tables: []string{"CustGroup"}}}

	require.NoError(t, generateOnce(context.Background(), cmdCtx, req, ""))
	assert.Contains(t, tr.Output(), "Table CustGroup {")
	assert.Empty(t, tr.ErrorOutput())

	tr.Out.Reset()
	out := filepath.Join(t.TempDir(), "out", "schema.dbml")
	require.NoError(t, generateOnce(context.Background(), cmdCtx, req, out))
	assert.Empty(t, tr.Output())
	assert.Contains(t, tr.ErrorOutput(), "wrote 1 tables to "+out)
	clitestutil.AssertNoANSI(t, tr.ErrorOutput())
	assert.FileExists(t, out)
}

func TestWithoutTable(t *testing.T) {
	assert.Equal(t, []string{"SalesLine"}, withoutTable([]string{"inventtable", "SalesLine"}, "InventTable"))
	assert.Equal(t, []string{}, withoutTable(nil, "InventTable"))
}
