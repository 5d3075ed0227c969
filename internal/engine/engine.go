// Package engine composes a metadata provider, the table selector and a
// schema renderer into the operations the CLI and HTTP API expose.
package engine

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/leapstack-labs/dbschema/internal/metadata"
	"github.com/leapstack-labs/dbschema/internal/render"
	"github.com/leapstack-labs/dbschema/internal/selection"
	"github.com/leapstack-labs/dbschema/pkg/core"
)

// Engine generates schema documents for table selections.
// It is safe for concurrent use; the provider is opened on first use.
type Engine struct {
	cfg    Config
	source *lazyProvider
	logger *slog.Logger
}

// Config holds engine configuration.
type Config struct {
	// Metadata locates the metadata backend.
	Metadata metadata.Config
	// Provider, when set, is used instead of opening Metadata.
	Provider core.Provider
	// Module scopes selection to one module.
	Module string
	// SimplifyTypes renders base types instead of declared types.
	SimplifyTypes bool
	// IgnoreStaging hides staging tables from the provider.
	IgnoreStaging bool
	// IgnoreSelfReferences drops a table's relations to itself during
	// expansion and rendering.
	IgnoreSelfReferences bool
	// Format is the default document format.
	Format string
	// Logger is the structured logger (optional, uses discard if nil)
	Logger *slog.Logger
}

// Request is one generation request.
type Request struct {
	selection.Request
	// Module overrides the configured module when set.
	Module string `json:"module,omitempty"`
	// Format overrides the configured format when set.
	Format string `json:"format,omitempty"`
	// Render holds per-request render options. SimplifyTypes and
	// IgnoreSelfReferences are combined with the engine configuration.
	Render render.Options `json:"render"`
}

// Result is a generated document and the tables it covers.
type Result struct {
	Tables   []string `json:"tables"`
	Format   string   `json:"format"`
	Document string   `json:"document"`
}

// Relations are the direct neighbours of one table.
type Relations struct {
	Table   string   `json:"table"`
	Inward  []string `json:"inward"`
	Outward []string `json:"outward"`
}

// New creates an engine. Nothing is opened until the first call that needs
// metadata.
func New(cfg Config) (*Engine, error) {
	logger := cfg.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}

	if cfg.Provider == nil {
		if err := cfg.Metadata.Validate(); err != nil {
			return nil, err
		}
	}
	if _, err := render.New(cfg.Format, nil, logger); err != nil {
		return nil, err
	}

	logger.Debug("initializing engine",
		"metadata", cfg.Metadata.Type,
		"module", cfg.Module,
		"ignore_staging", cfg.IgnoreStaging)

	return &Engine{
		cfg: cfg,
		source: &lazyProvider{
			cfg:      cfg.Metadata,
			opts:     core.SourceOptions{IgnoreStaging: cfg.IgnoreStaging},
			provider: cfg.Provider,
			fixed:    cfg.Provider != nil,
			logger:   logger,
		},
		logger: logger,
	}, nil
}

// Module returns the configured module.
func (e *Engine) Module() string {
	return e.cfg.Module
}

func (e *Engine) selector(module string, ignoreSelf bool) *selection.Selector {
	if module == "" {
		module = e.cfg.Module
	}
	return selection.NewSelector(e.source, selection.Options{
		Module:               module,
		IgnoreSelfReferences: e.cfg.IgnoreSelfReferences || ignoreSelf,
		Logger:               e.logger,
	})
}

// Validate reports configuration errors in req without touching metadata.
func (e *Engine) Validate(req Request) error {
	if _, err := render.New(e.format(req), nil, e.logger); err != nil {
		return fmt.Errorf("%w: %v", selection.ErrConfiguration, err)
	}
	return e.selector(req.Module, req.Render.IgnoreSelfReferences).Validate(req.Request)
}

func (e *Engine) format(req Request) string {
	if req.Format != "" {
		return req.Format
	}
	if e.cfg.Format != "" {
		return e.cfg.Format
	}
	return render.FormatDBML
}

// Generate selects tables for req and renders them.
func (e *Engine) Generate(ctx context.Context, req Request) (*Result, error) {
	if err := e.Validate(req); err != nil {
		return nil, err
	}

	sel := e.selector(req.Module, req.Render.IgnoreSelfReferences)
	set, err := sel.Select(ctx, req.Request)
	if err != nil {
		return nil, err
	}

	format := e.format(req)
	renderer, err := render.New(format, e.source, e.logger)
	if err != nil {
		return nil, err
	}

	opts := req.Render
	opts.SimplifyTypes = opts.SimplifyTypes || e.cfg.SimplifyTypes
	opts.IgnoreSelfReferences = opts.IgnoreSelfReferences || e.cfg.IgnoreSelfReferences

	tables := set.Sorted()
	doc, err := renderer.Render(ctx, tables, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to render schema: %w", err)
	}

	e.logger.Debug("generated schema",
		"module", sel.Module(),
		"tables", len(tables),
		"format", format,
		"bytes", len(doc))
	return &Result{Tables: tables, Format: format, Document: doc}, nil
}

// Candidates returns the candidate universe for module (the configured
// module when empty), optionally narrowed by patterns. Only tables that
// exist in the universe are returned.
func (e *Engine) Candidates(ctx context.Context, module string, patterns ...string) ([]string, error) {
	if module == "" {
		module = e.cfg.Module
	}
	universe, err := selection.ResolveCandidates(ctx, e.source, module)
	if err != nil {
		return nil, err
	}

	active := false
	for _, p := range patterns {
		if p != "" {
			active = true
			break
		}
	}
	if !active {
		return selection.NewSet(universe...).Sorted(), nil
	}

	known := selection.NewSet(universe...)
	matched := selection.NewSet()
	for _, name := range selection.Match(universe, patterns...) {
		if known.Contains(name) {
			matched.Add(name)
		}
	}
	return matched.Sorted(), nil
}

// Relations returns the direct inward and outward neighbours of table.
func (e *Engine) Relations(ctx context.Context, table string) (*Relations, error) {
	inward, err := e.source.ListRelatedTables(ctx, table, core.Inward)
	if err != nil {
		return nil, err
	}
	outward, err := e.source.ListRelatedTables(ctx, table, core.Outward)
	if err != nil {
		return nil, err
	}
	if inward == nil {
		inward = []string{}
	}
	if outward == nil {
		outward = []string{}
	}
	return &Relations{Table: table, Inward: inward, Outward: outward}, nil
}

// Describe returns the metadata of one table.
func (e *Engine) Describe(ctx context.Context, table string) (*core.Table, error) {
	return e.source.DescribeTable(ctx, table)
}

// Modules lists the modules of the catalog.
func (e *Engine) Modules(ctx context.Context) ([]string, error) {
	return e.source.ListModules(ctx)
}

// Reload drops the open provider so the next call reads metadata again.
// Engines built around a fixed Provider keep it.
func (e *Engine) Reload() error {
	return e.source.reset()
}

// Close releases the provider.
func (e *Engine) Close() error {
	return e.source.Close()
}
