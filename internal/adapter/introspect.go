package adapter

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/leapstack-labs/dbschema/pkg/core"
)

// systemSchemas are never introspected.
const systemSchemas = `('information_schema', 'pg_catalog', 'pg_toast')`

const (
	tablesQuery = `
		SELECT t.table_schema, t.table_name
		FROM information_schema.tables t
		WHERE t.table_type = 'BASE TABLE'
		  AND t.table_schema NOT IN ` + systemSchemas + `%s
		ORDER BY t.table_schema, t.table_name`

	columnsQuery = `
		SELECT c.table_schema, c.table_name, c.column_name, c.data_type, c.is_nullable
		FROM information_schema.columns c
		WHERE c.table_schema NOT IN ` + systemSchemas + `%s
		ORDER BY c.table_schema, c.table_name, c.ordinal_position`

	primaryKeysQuery = `
		SELECT kcu.table_schema, kcu.table_name, kcu.column_name
		FROM information_schema.table_constraints tc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_schema = tc.constraint_schema
		 AND kcu.constraint_name = tc.constraint_name
		 AND kcu.table_name = tc.table_name
		WHERE tc.constraint_type = 'PRIMARY KEY'
		  AND kcu.table_schema NOT IN ` + systemSchemas + `%s
		ORDER BY kcu.table_schema, kcu.table_name, kcu.ordinal_position`

	foreignKeysQuery = `
		SELECT kcu.table_schema, kcu.table_name, rc.constraint_name, kcu.column_name,
		       ref.table_schema, ref.table_name, ref.column_name
		FROM information_schema.referential_constraints rc
		JOIN information_schema.key_column_usage kcu
		  ON kcu.constraint_schema = rc.constraint_schema
		 AND kcu.constraint_name = rc.constraint_name
		JOIN information_schema.key_column_usage ref
		  ON ref.constraint_schema = rc.unique_constraint_schema
		 AND ref.constraint_name = rc.unique_constraint_name
		 AND ref.ordinal_position = kcu.position_in_unique_constraint
		WHERE kcu.table_schema NOT IN ` + systemSchemas + `%s
		ORDER BY kcu.table_schema, kcu.table_name, rc.constraint_name, kcu.ordinal_position`
)

// qualifiedName identifies a table across schemas.
type qualifiedName struct {
	schema string
	table  string
}

func key(schema, table string) qualifiedName {
	return qualifiedName{schema: core.Fold(schema), table: core.Fold(table)}
}

// Introspect reads tables, columns, primary keys and foreign keys from the
// information_schema of db. Modules are the schemas in which tables were
// found. Table names are unqualified unless the same name exists in more
// than one schema.
func Introspect(ctx context.Context, db *sql.DB, schema string) ([]*core.Table, []string, error) {
	filter, args := schemaFilter(schema)

	var (
		tables  []*core.Table
		modules []string
		seen    = make(map[string]bool)
		byKey   = make(map[qualifiedName]*core.Table)
		counts  = make(map[string]int)
	)

	err := query(ctx, db, fmt.Sprintf(tablesQuery, filter("t")), args, func(rows *sql.Rows) error {
		var s, name string
		if err := rows.Scan(&s, &name); err != nil {
			return err
		}
		t := &core.Table{Name: name, Module: s}
		tables = append(tables, t)
		byKey[key(s, name)] = t
		counts[core.Fold(name)]++
		if !seen[core.Fold(s)] {
			seen[core.Fold(s)] = true
			modules = append(modules, s)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list tables: %w", err)
	}

	displayName := func(s, name string) string {
		if counts[core.Fold(name)] > 1 {
			return s + "." + name
		}
		return name
	}

	err = query(ctx, db, fmt.Sprintf(columnsQuery, filter("c")), args, func(rows *sql.Rows) error {
		var s, table, column, dataType, nullable string
		if err := rows.Scan(&s, &table, &column, &dataType, &nullable); err != nil {
			return err
		}
		if t, ok := byKey[key(s, table)]; ok {
			t.Fields = append(t.Fields, core.Field{Name: column, Type: dataType, Mandatory: nullable == "NO"})
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list columns: %w", err)
	}

	err = query(ctx, db, fmt.Sprintf(primaryKeysQuery, filter("kcu")), args, func(rows *sql.Rows) error {
		var s, table, column string
		if err := rows.Scan(&s, &table, &column); err != nil {
			return err
		}
		if t, ok := byKey[key(s, table)]; ok {
			t.PrimaryKey = append(t.PrimaryKey, column)
		}
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list primary keys: %w", err)
	}

	err = query(ctx, db, fmt.Sprintf(foreignKeysQuery, filter("kcu")), args, func(rows *sql.Rows) error {
		var s, table, constraint, column, refSchema, refTable, refColumn string
		if err := rows.Scan(&s, &table, &constraint, &column, &refSchema, &refTable, &refColumn); err != nil {
			return err
		}
		t, ok := byKey[key(s, table)]
		if !ok {
			return nil
		}
		c := core.Constraint{Field: column, RelatedField: refColumn}
		if n := len(t.Relations); n > 0 && t.Relations[n-1].Name == constraint {
			t.Relations[n-1].Constraints = append(t.Relations[n-1].Constraints, c)
			return nil
		}
		t.Relations = append(t.Relations, core.Relation{
			Name:         constraint,
			RelatedTable: displayName(refSchema, refTable),
			Constraints:  []core.Constraint{c},
		})
		return nil
	})
	if err != nil {
		return nil, nil, fmt.Errorf("failed to list foreign keys: %w", err)
	}

	for _, t := range tables {
		t.Name = displayName(t.Module, t.Name)
	}
	return tables, modules, nil
}

// schemaFilter returns a predicate builder and its arguments for an
// optional schema restriction.
func schemaFilter(schema string) (func(alias string) string, []any) {
	if schema == "" {
		return func(string) string { return "" }, nil
	}
	return func(alias string) string {
		return "\n\t\t  AND " + alias + ".table_schema = $1"
	}, []any{schema}
}

func query(ctx context.Context, db *sql.DB, q string, args []any, scan func(*sql.Rows) error) error {
	rows, err := db.QueryContext(ctx, q, args...)
	if err != nil {
		return err
	}
	defer func() { _ = rows.Close() }()

	for rows.Next() {
		if err := scan(rows); err != nil {
			return err
		}
	}
	return rows.Err()
}
