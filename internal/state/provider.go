package state

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/dbschema/pkg/core"
)

// stagingFilter returns an extra predicate on column when staging tables are ignored.
func (s *SQLiteStore) stagingFilter(column string) string {
	if s.opts.IgnoreStaging {
		return " AND " + column + " = 0"
	}
	return ""
}

// ListTablesWithPrimaryKey returns every table that declares a primary key.
func (s *SQLiteStore) ListTablesWithPrimaryKey(ctx context.Context) ([]string, error) {
	return s.queryNames(ctx,
		`SELECT name FROM tables WHERE has_primary_key = 1`+s.stagingFilter("staging")+` ORDER BY position`,
	)
}

// ListTablesForModule returns the tables of module in import order.
func (s *SQLiteStore) ListTablesForModule(ctx context.Context, module string) ([]string, error) {
	return s.queryNames(ctx,
		`SELECT name FROM tables WHERE module_key = ?`+s.stagingFilter("staging")+` ORDER BY position`,
		core.Fold(module),
	)
}

// ListRelatedTables returns the direct neighbours of table. Relation targets
// that are not declared in the index keep the spelling of the relation.
func (s *SQLiteStore) ListRelatedTables(ctx context.Context, table string, dir core.Direction) ([]string, error) {
	key := core.Fold(table)

	if dir == core.Inward {
		return s.queryNames(ctx,
			`SELECT t.name FROM relations r
			 JOIN tables t ON t.key = r.table_key
			 WHERE r.related_key = ?`+s.stagingFilter("t.staging")+s.stagingFilter("r.related_staging")+`
			 GROUP BY t.key
			 ORDER BY MIN(t.position)`,
			key,
		)
	}

	return s.queryNames(ctx,
		`SELECT COALESCE(rt.name, r.related_table) FROM relations r
		 JOIN tables t ON t.key = r.table_key
		 LEFT JOIN tables rt ON rt.key = r.related_key
		 WHERE r.table_key = ? AND r.related_key <> ''`+s.stagingFilter("t.staging")+s.stagingFilter("r.related_staging")+`
		 GROUP BY r.related_key
		 ORDER BY MIN(r.position)`,
		key,
	)
}

// ListModules returns the module names in import order.
func (s *SQLiteStore) ListModules(ctx context.Context) ([]string, error) {
	return s.queryNames(ctx, `SELECT name FROM modules ORDER BY position`)
}

// DescribeTable returns the full metadata of a table.
func (s *SQLiteStore) DescribeTable(ctx context.Context, name string) (*core.Table, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}
	key := core.Fold(name)

	var (
		t       core.Table
		staging int
	)
	err := s.db.QueryRowContext(ctx,
		`SELECT name, label, module, staging FROM tables WHERE key = ?`+s.stagingFilter("staging"),
		key,
	).Scan(&t.Name, &t.Label, &t.Module, &staging)
	if err == sql.ErrNoRows {
		return nil, fmt.Errorf("%w: %s", core.ErrTableNotFound, name)
	}
	if err != nil {
		return nil, fmt.Errorf("failed to describe table %s: %w", name, err)
	}
	t.Staging = staging == 1

	if t.PrimaryKey, err = s.queryNames(ctx,
		`SELECT field FROM primary_key_fields WHERE table_key = ? ORDER BY position`, key,
	); err != nil {
		return nil, err
	}
	if t.Fields, err = s.fields(ctx, key); err != nil {
		return nil, err
	}
	if t.Relations, err = s.relations(ctx, key); err != nil {
		return nil, err
	}
	return &t, nil
}

func (s *SQLiteStore) fields(ctx context.Context, key string) ([]core.Field, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT name, type, base_type, mandatory, extension FROM fields WHERE table_key = ? ORDER BY position`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query fields: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var fields []core.Field
	for rows.Next() {
		var (
			f         core.Field
			mandatory int
		)
		if err := rows.Scan(&f.Name, &f.Type, &f.BaseType, &mandatory, &f.Extension); err != nil {
			return nil, fmt.Errorf("failed to scan field: %w", err)
		}
		f.Mandatory = mandatory == 1
		fields = append(fields, f)
	}
	return fields, rows.Err()
}

func (s *SQLiteStore) relations(ctx context.Context, key string) ([]core.Relation, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT r.position, r.name, r.related_table, c.field, c.related_field
		 FROM relations r
		 LEFT JOIN relation_constraints c ON c.table_key = r.table_key AND c.relation_position = r.position
		 WHERE r.table_key = ?`+s.stagingFilter("r.related_staging")+`
		 ORDER BY r.position, c.position`,
		key,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to query relations: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var (
		relations []core.Relation
		current   = -1
	)
	for rows.Next() {
		var (
			position            int
			name, related       string
			field, relatedField sql.NullString
		)
		if err := rows.Scan(&position, &name, &related, &field, &relatedField); err != nil {
			return nil, fmt.Errorf("failed to scan relation: %w", err)
		}
		if position != current {
			relations = append(relations, core.Relation{Name: name, RelatedTable: related})
			current = position
		}
		if field.Valid {
			rel := &relations[len(relations)-1]
			rel.Constraints = append(rel.Constraints, core.Constraint{Field: field.String, RelatedField: relatedField.String})
		}
	}
	return relations, rows.Err()
}

// queryNames runs a single-column query. No rows yields nil.
func (s *SQLiteStore) queryNames(ctx context.Context, query string, args ...any) ([]string, error) {
	if s.db == nil {
		return nil, fmt.Errorf("database not opened")
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("failed to query index: %w", err)
	}
	defer func() { _ = rows.Close() }()

	var names []string
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, fmt.Errorf("failed to scan name: %w", err)
		}
		names = append(names, name)
	}
	return names, rows.Err()
}
