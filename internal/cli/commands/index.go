package commands

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/leapstack-labs/dbschema/internal/catalog"
	"github.com/leapstack-labs/dbschema/internal/cli/output"
	"github.com/leapstack-labs/dbschema/internal/state"
	"github.com/leapstack-labs/dbschema/pkg/core"
	"github.com/spf13/cobra"
)

// NewIndexCommand creates the index command.
func NewIndexCommand() *cobra.Command {
	return &cobra.Command{
		Use:   "index",
		Short: "Build the SQLite metadata index from the YAML catalog",
		Long: `Read the YAML metadata directory once and store it in a SQLite index.
Later commands read the index with --source index, which avoids parsing
thousands of table files on every run.

Staging tables are always indexed; --ignore-staging is applied when the
index is read.`,
		Example: `  dbschema index --metadata ./metadata
  dbschema generate SalesTable --source index`,
		RunE: runIndex,
	}
}

func runIndex(cmd *cobra.Command, _ []string) error {
	cmdCtx := NewCommandContextWithoutEngine(cmd)
	cfg := cmdCtx.Cfg
	if cfg.Metadata.Directory == "" {
		return fmt.Errorf("metadata.directory is required to build the index\nHint: pass --metadata or set D365FO_METADATA_DIRECTORY")
	}
	if cfg.Metadata.Index == "" {
		return fmt.Errorf("metadata.index is required")
	}

	ctx := cmd.Context()
	start := time.Now()

	cat, err := catalog.Load(ctx, cfg.Metadata.Directory, core.SourceOptions{}, cmdCtx.Logger)
	if err != nil {
		return err
	}

	if dir := filepath.Dir(cfg.Metadata.Index); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create index directory: %w", err)
		}
	}

	store, err := state.OpenIndex(ctx, cfg.Metadata.Index, core.SourceOptions{}, cmdCtx.Logger)
	if err != nil {
		return err
	}
	defer func() { _ = store.Close() }()

	build, err := store.ImportCatalog(ctx, cat, cfg.Metadata.Directory)
	if err != nil {
		return err
	}

	r := cmdCtx.Renderer
	if r.EffectiveMode() == output.ModeJSON {
		return r.JSON(struct {
			*state.Build
			Index string `json:"index"`
		}{build, cfg.Metadata.Index})
	}
	r.Success(fmt.Sprintf("indexed %d tables into %s in %s",
		build.TableCount, cfg.Metadata.Index, time.Since(start).Round(time.Millisecond)))
	return nil
}
