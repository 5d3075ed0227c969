package commands

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/leapstack-labs/dbschema/internal/catalog"
	"github.com/leapstack-labs/dbschema/internal/cli/config"
	"github.com/leapstack-labs/dbschema/internal/engine"
	"github.com/leapstack-labs/dbschema/internal/metadata"
	"github.com/leapstack-labs/dbschema/internal/render"
	"github.com/leapstack-labs/dbschema/internal/selection"
	"github.com/spf13/cobra"
)

// relatedSelection is the value --add-related takes when given without a table.
const relatedSelection = "(selection)"

// GenerateOptions holds the selection flags that are not configuration.
type GenerateOptions struct {
	AddFromModel bool
	Inward       string
	Outward      string
	Related      string
	Out          string
	Watch        bool
}

// NewGenerateCommand creates the generate command.
func NewGenerateCommand() *cobra.Command {
	opts := &GenerateOptions{}
	cmd := &cobra.Command{
		Use:     "generate [table...]",
		Aliases: []string{"dbml"},
		Short:   "Generate a schema document for a table selection",
		Long: `Select tables from the metadata catalog, expand the selection along
relations and write a schema document (DBML by default).

Tables are literal names or patterns using '*' and are matched
case-insensitively against tables with a primary key, or against the tables
of --model when a model is given.

Selection steps:
  1. --table and positional arguments
  2. every table of --model (with --add-from-model, or when no table is given)
  3. --add-inward: the table and the tables referencing it
  4. --add-outward: the table and the tables it references
  5. --add-related=TABLE: the table itself
  6. --add-related: the direct relations of everything selected so far`,
		Example: `  # Sales order header and lines with their direct relations
  dbschema generate SalesTable SalesLine --add-related

  # Everything referencing CustTable, as markdown
  dbschema generate --add-inward CustTable --format markdown

  # A whole model without staging tables, written to a file
  dbschema generate --model Sales --ignore-staging --out docs/sales.dbml

  # Regenerate on every metadata change
  dbschema generate --table 'Sales*' --out sales.dbml --watch`,
		RunE: func(cmd *cobra.Command, args []string) error {
			return runGenerate(cmd, args, opts)
		},
	}

	cmd.Flags().StringSlice("table", nil, "Table name or pattern (repeatable, comma separated)")
	cmd.Flags().String("model", "", "Restrict selection to a model (module)")
	cmd.Flags().BoolVar(&opts.AddFromModel, "add-from-model", false, "Add every table of --model")
	cmd.Flags().StringVar(&opts.Inward, "add-inward", "", "Add a table and the tables referencing it")
	cmd.Flags().StringVar(&opts.Outward, "add-outward", "", "Add a table and the tables it references")
	cmd.Flags().StringVar(&opts.Related, "add-related", "", "Add the relations of the selection; with =TABLE also add TABLE")
	cmd.Flags().Lookup("add-related").NoOptDefVal = relatedSelection
	cmd.Flags().Bool("include-non-keyfields", false, "Render every field, not only key and relation fields")
	cmd.Flags().Bool("include-extensions", false, "Render fields added by extensions")
	cmd.Flags().Bool("mark-mandatory", false, "Mark mandatory fields as not null")
	cmd.Flags().Bool("simplify-types", false, "Render base types instead of declared types")
	cmd.Flags().Bool("ignore-staging", false, "Leave out staging tables")
	cmd.Flags().Bool("ignore-self-references", false, "Leave out relations of a table to itself")
	cmd.Flags().StringP("format", "f", "", "Document format: dbml, markdown, json")
	cmd.Flags().StringVar(&opts.Out, "out", "", "Write the document to a file instead of stdout")
	cmd.Flags().BoolVarP(&opts.Watch, "watch", "w", false, "Regenerate when the metadata directory changes")

	_ = cmd.RegisterFlagCompletionFunc("format", func(_ *cobra.Command, _ []string, _ string) ([]string, cobra.ShellCompDirective) {
		return render.Formats(), cobra.ShellCompDirectiveNoFileComp
	})

	return cmd
}

// buildRequest turns configuration, arguments and flags into an engine request.
func buildRequest(cfg *config.Config, args []string, opts *GenerateOptions) engine.Request {
	tables := append([]string(nil), cfg.Tables...)
	for _, arg := range args {
		for _, t := range strings.Split(arg, ",") {
			if t = strings.TrimSpace(t); t != "" {
				tables = append(tables, t)
			}
		}
	}

	req := engine.Request{
		Request: selection.Request{
			Tables:              tables,
			Inward:              opts.Inward,
			Outward:             opts.Outward,
			IncludeModuleTables: opts.AddFromModel,
		},
		Render: render.Options{
			IncludeAllFields:       cfg.Render.IncludeAllFields,
			IncludeExtensionFields: cfg.Render.IncludeExtensionFields,
			MarkMandatoryNotNull:   cfg.Render.MarkMandatory,
		},
	}
	if opts.Related != "" {
		req.ExpandRelated = true
		if opts.Related != relatedSelection {
			req.Related = opts.Related
		}
	}
	return req
}

func runGenerate(cmd *cobra.Command, args []string, opts *GenerateOptions) error {
	cmdCtx, cleanup, err := NewCommandContext(cmd)
	if err != nil {
		return err
	}
	defer cleanup()

	req := buildRequest(cmdCtx.Cfg, args, opts)
	if err := cmdCtx.Engine.Validate(req); err != nil {
		return err
	}

	if !opts.Watch {
		return generateOnce(cmd.Context(), cmdCtx, req, opts.Out)
	}

	if cmdCtx.Cfg.Metadata.Type != metadata.TypeYAML {
		return fmt.Errorf("--watch requires the yaml metadata source, got %q", cmdCtx.Cfg.Metadata.Type)
	}

	ctx, stop := signalContext(cmd.Context())
	defer stop()

	if err := generateOnce(ctx, cmdCtx, req, opts.Out); err != nil {
		return err
	}
	cmdCtx.Renderer.Success(fmt.Sprintf("watching %s (Ctrl+C to stop)", cmdCtx.Cfg.Metadata.Directory))

	return catalog.Watch(ctx, cmdCtx.Cfg.Metadata.Directory, catalog.DefaultDebounce, func() {
		if err := cmdCtx.Engine.Reload(); err != nil {
			cmdCtx.Logger.Error("reload failed", "error", err)
			return
		}
		if err := generateOnce(ctx, cmdCtx, req, opts.Out); err != nil {
			cmdCtx.Renderer.Warning(err.Error())
		}
	}, cmdCtx.Logger)
}

// generateOnce generates the document and writes it to out, or stdout when
// out is empty.
func generateOnce(ctx context.Context, cmdCtx *CommandContext, req engine.Request, out string) error {
	res, err := cmdCtx.Engine.Generate(ctx, req)
	if err != nil {
		return err
	}

	if out == "" {
		_, err := fmt.Fprint(cmdCtx.Renderer.Writer(), res.Document)
		return err
	}

	if err := writeDocument(out, res.Document); err != nil {
		return err
	}
	cmdCtx.Renderer.Success(fmt.Sprintf("wrote %d tables to %s", len(res.Tables), out))
	return nil
}

// writeDocument writes doc to path, creating parent directories.
func writeDocument(path, doc string) error {
	if dir := filepath.Dir(path); dir != "." && dir != "" {
		if err := os.MkdirAll(dir, 0o750); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}
	}
	if err := os.WriteFile(path, []byte(doc), 0o644); err != nil { //nolint:gosec // schema documents are meant to be shared
		return fmt.Errorf("failed to write %s: %w", path, err)
	}
	return nil
}
