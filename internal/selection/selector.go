package selection

import (
	"context"
	"log/slog"
	"strings"

	"github.com/leapstack-labs/dbschema/pkg/core"
)

// Request describes which tables to select.
type Request struct {
	// Tables are literal names or '*' patterns.
	Tables []string `json:"tables,omitempty"`
	// Inward names a table (or pattern) to add together with the tables referencing it.
	Inward string `json:"inward,omitempty"`
	// Outward names a table (or pattern) to add together with the tables it references.
	Outward string `json:"outward,omitempty"`
	// Related names a table (or pattern) to add; expansion is controlled by ExpandRelated.
	Related string `json:"related,omitempty"`
	// ExpandRelated adds the related tables of everything selected by the other criteria.
	ExpandRelated bool `json:"expand_related,omitempty"`
	// IncludeModuleTables adds every table of the module.
	IncludeModuleTables bool `json:"include_module_tables,omitempty"`
}

// HasExplicitTables reports whether any non-blank table pattern was given.
func (r Request) HasExplicitTables() bool {
	for _, t := range r.Tables {
		if !isBlank(t) {
			return true
		}
	}
	return false
}

// Options configure a Selector.
type Options struct {
	// Module scopes the candidate universe. Empty means catalog-wide.
	Module string
	// IgnoreSelfReferences suppresses a table's edges to itself during expansion.
	IgnoreSelfReferences bool
	// Logger is optional.
	Logger *slog.Logger
}

// Selector turns requests into table sets. It keeps no per-request state and
// may be shared.
type Selector struct {
	src      core.Source
	module   string
	expander *Expander
	logger   *slog.Logger
}

// NewSelector creates a selector over src.
func NewSelector(src core.Source, opts Options) *Selector {
	logger := opts.Logger
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Selector{
		src:      src,
		module:   strings.TrimSpace(opts.Module),
		expander: NewExpander(src, opts.IgnoreSelfReferences, logger),
		logger:   logger,
	}
}

// Module returns the module scope.
func (s *Selector) Module() string {
	return s.module
}

// Validate checks req for usage mistakes without touching the source.
func (s *Selector) Validate(req Request) error {
	if req.IncludeModuleTables && s.module == "" {
		return ErrModuleRequired
	}
	if !req.HasExplicitTables() &&
		isBlank(req.Inward) &&
		isBlank(req.Outward) &&
		isBlank(req.Related) &&
		!req.IncludeModuleTables &&
		s.module == "" {
		return ErrNoSelection
	}
	return nil
}

// Select runs the selection steps in order on one set:
//
//  1. resolve the candidate universe
//  2. match explicit table patterns
//  3. add the module's tables when asked to, or when a module is set and no
//     table patterns were given
//  4. add the inward target(s) and their inward neighbours
//  5. add the outward target(s) and their outward neighbours
//  6. add the related target(s)
//  7. when ExpandRelated is set, add the related tables of every table
//     selected so far, once
//
// Source errors are returned unchanged.
func (s *Selector) Select(ctx context.Context, req Request) (*Set, error) {
	if err := s.Validate(req); err != nil {
		return nil, err
	}

	universe, err := ResolveCandidates(ctx, s.src, s.module)
	if err != nil {
		return nil, err
	}
	s.logger.Debug("resolved candidates", "module", s.module, "count", len(universe))

	set := NewSet()
	set.AddAll(Match(universe, req.Tables...)...)

	if req.IncludeModuleTables || (s.module != "" && !req.HasExplicitTables()) {
		added := set.AddAll(universe...)
		s.logger.Debug("added module tables", "module", s.module, "added", len(added))
	}

	if err := s.addAndExpand(ctx, set, universe, req.Inward, Inward); err != nil {
		return nil, err
	}
	if err := s.addAndExpand(ctx, set, universe, req.Outward, Outward); err != nil {
		return nil, err
	}

	if !isBlank(req.Related) {
		set.AddAll(Match(universe, req.Related)...)
	}

	if req.ExpandRelated {
		for _, table := range set.Names() {
			if _, err := s.expander.Expand(ctx, set, table, Related); err != nil {
				return nil, err
			}
		}
	}

	s.logger.Debug("selection complete", "tables", set.Len())
	return set, nil
}

// addAndExpand resolves target against universe, adds each match and expands it.
func (s *Selector) addAndExpand(ctx context.Context, set *Set, universe []string, target string, dir Direction) error {
	if isBlank(target) {
		return nil
	}
	for _, table := range Match(universe, target) {
		set.Add(table)
		if _, err := s.expander.Expand(ctx, set, table, dir); err != nil {
			return err
		}
	}
	return nil
}

func isBlank(s string) bool {
	return strings.TrimSpace(s) == ""
}
