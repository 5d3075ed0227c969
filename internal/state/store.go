// Package state persists the table catalog in a SQLite index so it can be
// queried without re-reading the metadata directory.
package state

import "time"

// Build records one import of a metadata directory into the index.
type Build struct {
	ID          string     `json:"id"`
	SourceDir   string     `json:"source_dir"`
	StartedAt   time.Time  `json:"started_at"`
	CompletedAt *time.Time `json:"completed_at,omitempty"`
	TableCount  int        `json:"table_count"`
}
