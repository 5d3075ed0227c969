package selection

import (
	"context"
	"log/slog"

	"github.com/leapstack-labs/dbschema/pkg/core"
)

// Direction selects which relationship edges an expansion follows.
type Direction int

const (
	// Inward follows edges from referencing tables.
	Inward Direction = iota
	// Outward follows edges to referenced tables.
	Outward
	// Related follows both.
	Related
)

func (d Direction) String() string {
	switch d {
	case Inward:
		return "inward"
	case Outward:
		return "outward"
	case Related:
		return "related"
	default:
		return "unknown"
	}
}

// sourceDirections maps an expansion direction to source lookups.
func (d Direction) sourceDirections() []core.Direction {
	switch d {
	case Inward:
		return []core.Direction{core.Inward}
	case Outward:
		return []core.Direction{core.Outward}
	default:
		return []core.Direction{core.Inward, core.Outward}
	}
}

// Expander adds the direct neighbours of a table to a set.
type Expander struct {
	src        core.Source
	ignoreSelf bool
	logger     *slog.Logger
}

// NewExpander creates an expander over src. With ignoreSelf, a table's edge
// to itself never counts as an addition.
func NewExpander(src core.Source, ignoreSelf bool, logger *slog.Logger) *Expander {
	if logger == nil {
		logger = slog.New(slog.DiscardHandler)
	}
	return &Expander{src: src, ignoreSelf: ignoreSelf, logger: logger}
}

// Expand adds every table one hop from table in direction dir and returns
// the names that were not already in set. Discovered tables are not expanded.
func (e *Expander) Expand(ctx context.Context, set *Set, table string, dir Direction) ([]string, error) {
	var added []string
	for _, d := range dir.sourceDirections() {
		related, err := e.src.ListRelatedTables(ctx, table, d)
		if err != nil {
			return added, err
		}
		for _, name := range related {
			if e.ignoreSelf && core.EqualNames(name, table) {
				continue
			}
			if set.Add(name) {
				added = append(added, name)
			}
		}
	}

	e.logger.Debug("expanded table", "table", table, "direction", dir.String(), "added", len(added))
	return added, nil
}
