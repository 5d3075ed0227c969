package state

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/leapstack-labs/dbschema/pkg/core"
)

// Snapshot is a loaded catalog to import.
type Snapshot interface {
	Tables() []*core.Table
	ListModules(ctx context.Context) ([]string, error)
}

// ImportCatalog replaces the index content with snap in one transaction and
// records the build.
func (s *SQLiteStore) ImportCatalog(ctx context.Context, snap Snapshot, sourceDir string) (*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	build := &Build{
		ID:        generateID(),
		SourceDir: sourceDir,
		StartedAt: time.Now().UTC(),
	}

	modules, err := snap.ListModules(ctx)
	if err != nil {
		return nil, fmt.Errorf("failed to list modules: %w", err)
	}
	tables := snap.Tables()

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return nil, fmt.Errorf("failed to begin transaction: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	for _, stmt := range []string{
		`DELETE FROM relation_constraints`,
		`DELETE FROM relations`,
		`DELETE FROM fields`,
		`DELETE FROM primary_key_fields`,
		`DELETE FROM tables`,
		`DELETE FROM modules`,
	} {
		if _, err := tx.ExecContext(ctx, stmt); err != nil {
			return nil, fmt.Errorf("failed to clear index: %w", err)
		}
	}

	for i, m := range modules {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO modules (key, name, position) VALUES (?, ?, ?)`,
			core.Fold(m), m, i,
		); err != nil {
			return nil, fmt.Errorf("failed to insert module %s: %w", m, err)
		}
	}

	staging := make(map[string]bool, len(tables))
	for _, t := range tables {
		staging[core.Fold(t.Name)] = t.Staging || core.IsStagingName(t.Name)
	}

	for i, t := range tables {
		if err := insertTable(ctx, tx, i, t, staging); err != nil {
			return nil, err
		}
	}

	completed := time.Now().UTC()
	build.CompletedAt = &completed
	build.TableCount = len(tables)
	if _, err := tx.ExecContext(ctx,
		`INSERT INTO builds (id, source_dir, started_at, completed_at, table_count) VALUES (?, ?, ?, ?, ?)`,
		build.ID, build.SourceDir, formatTime(build.StartedAt), formatTime(completed), build.TableCount,
	); err != nil {
		return nil, fmt.Errorf("failed to record build: %w", err)
	}

	if err := tx.Commit(); err != nil {
		return nil, fmt.Errorf("failed to commit import: %w", err)
	}

	s.logger.Debug("imported catalog", "build", build.ID, "tables", build.TableCount, "modules", len(modules))
	return build, nil
}

func insertTable(ctx context.Context, tx *sql.Tx, position int, t *core.Table, staging map[string]bool) error {
	key := core.Fold(t.Name)

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO tables (key, name, position, label, module, module_key, staging, has_primary_key)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		key, t.Name, position, t.Label, t.Module, core.Fold(t.Module),
		boolToInt(staging[key]), boolToInt(t.HasPrimaryKey()),
	); err != nil {
		return fmt.Errorf("failed to insert table %s: %w", t.Name, err)
	}

	for i, field := range t.PrimaryKey {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO primary_key_fields (table_key, position, field) VALUES (?, ?, ?)`,
			key, i, field,
		); err != nil {
			return fmt.Errorf("failed to insert primary key of %s: %w", t.Name, err)
		}
	}

	for i, f := range t.Fields {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO fields (table_key, position, name, type, base_type, mandatory, extension)
			 VALUES (?, ?, ?, ?, ?, ?, ?)`,
			key, i, f.Name, f.Type, f.BaseType, boolToInt(f.Mandatory), f.Extension,
		); err != nil {
			return fmt.Errorf("failed to insert field %s.%s: %w", t.Name, f.Name, err)
		}
	}

	for i, rel := range t.Relations {
		relatedKey := core.Fold(rel.RelatedTable)
		relatedStaging, declared := staging[relatedKey]
		if !declared {
			relatedStaging = core.IsStagingName(rel.RelatedTable)
		}

		if _, err := tx.ExecContext(ctx,
			`INSERT INTO relations (table_key, position, name, related_table, related_key, related_staging)
			 VALUES (?, ?, ?, ?, ?, ?)`,
			key, i, rel.Name, rel.RelatedTable, relatedKey, boolToInt(relatedStaging),
		); err != nil {
			return fmt.Errorf("failed to insert relation %s.%s: %w", t.Name, rel.Name, err)
		}

		for j, c := range rel.Constraints {
			if _, err := tx.ExecContext(ctx,
				`INSERT INTO relation_constraints (table_key, relation_position, position, field, related_field)
				 VALUES (?, ?, ?, ?, ?)`,
				key, i, j, c.Field, c.RelatedField,
			); err != nil {
				return fmt.Errorf("failed to insert constraint of %s.%s: %w", t.Name, rel.Name, err)
			}
		}
	}

	return nil
}

// LatestBuild returns the most recent build, or nil when the index is empty.
func (s *SQLiteStore) LatestBuild(ctx context.Context) (*Build, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	var (
		build       Build
		startedAt   string
		completedAt sql.NullString
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT id, source_dir, started_at, completed_at, table_count
		 FROM builds ORDER BY started_at DESC LIMIT 1`,
	).Scan(&build.ID, &build.SourceDir, &startedAt, &completedAt, &build.TableCount)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("failed to get latest build: %w", err)
	}

	if build.StartedAt, err = parseTime(startedAt); err != nil {
		return nil, err
	}
	if completedAt.Valid {
		t, err := parseTime(completedAt.String)
		if err != nil {
			return nil, err
		}
		build.CompletedAt = &t
	}
	return &build, nil
}

// timeLayout is fixed width so timestamps sort as text.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

func formatTime(t time.Time) string {
	return t.UTC().Format(timeLayout)
}

func parseTime(s string) (time.Time, error) {
	t, err := time.Parse(timeLayout, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("invalid timestamp %q: %w", s, err)
	}
	return t, nil
}
