package engine

import (
	"context"
	"fmt"
	"log/slog"
	"sync"

	"github.com/leapstack-labs/dbschema/internal/metadata"
	"github.com/leapstack-labs/dbschema/pkg/core"
)

// lazyProvider opens the configured metadata backend on first use.
type lazyProvider struct {
	cfg    metadata.Config
	opts   core.SourceOptions
	logger *slog.Logger

	mu       sync.Mutex
	provider core.Provider
	fixed    bool
}

var _ core.Provider = (*lazyProvider)(nil)

// ensureOpen lazily opens the metadata backend.
func (p *lazyProvider) ensureOpen(ctx context.Context) (core.Provider, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.provider != nil {
		return p.provider, nil
	}

	p.logger.Debug("opening metadata", "type", p.cfg.Type)

	provider, err := metadata.Open(ctx, p.cfg, p.opts, p.logger)
	if err != nil {
		return nil, fmt.Errorf("failed to open metadata: %w", err)
	}
	p.provider = provider
	return provider, nil
}

func (p *lazyProvider) ListTablesWithPrimaryKey(ctx context.Context) ([]string, error) {
	provider, err := p.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}
	return provider.ListTablesWithPrimaryKey(ctx)
}

func (p *lazyProvider) ListTablesForModule(ctx context.Context, module string) ([]string, error) {
	provider, err := p.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}
	return provider.ListTablesForModule(ctx, module)
}

func (p *lazyProvider) ListRelatedTables(ctx context.Context, table string, dir core.Direction) ([]string, error) {
	provider, err := p.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}
	return provider.ListRelatedTables(ctx, table, dir)
}

func (p *lazyProvider) DescribeTable(ctx context.Context, name string) (*core.Table, error) {
	provider, err := p.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}
	return provider.DescribeTable(ctx, name)
}

func (p *lazyProvider) ListModules(ctx context.Context) ([]string, error) {
	provider, err := p.ensureOpen(ctx)
	if err != nil {
		return nil, err
	}
	return provider.ListModules(ctx)
}

// reset closes an opened backend so the next call reopens it.
func (p *lazyProvider) reset() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.fixed || p.provider == nil {
		return nil
	}
	err := p.provider.Close()
	p.provider = nil
	return err
}

func (p *lazyProvider) Close() error {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.provider == nil {
		return nil
	}
	err := p.provider.Close()
	if !p.fixed {
		p.provider = nil
	}
	return err
}

func (p *lazyProvider) isOpen() bool {
	p.mu.Lock()
	defer p.mu.Unlock()
	return p.provider != nil
}
