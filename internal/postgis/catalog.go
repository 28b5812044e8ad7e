package postgis

import (
	"context"
	"strings"

	"github.com/jackc/pgx/v5"
)

// Metadata describes how a table is to be published as a layer.
type Metadata struct {
	TableName string `db:"tablename" yaml:"tablename"`
	Name      string `db:"name" yaml:"name"`
	Title     string `db:"title" yaml:"title"`
	Abstract  string `db:"abstract" yaml:"abstract"`
}

// ListTables lists the tables of a schema in name order. If baseTablesOnly is
// false then views are listed too.
func (db *DB) ListTables(ctx context.Context, schema string, baseTablesOnly bool) ([]string, error) {
	sql := `
SELECT table_name
FROM information_schema.tables
WHERE table_schema = $1`
	if baseTablesOnly {
		sql += ` AND table_type = 'BASE TABLE'`
	}
	sql += ` ORDER BY table_name`

	rows, err := db.Query(ctx, sql, schema)
	if err != nil {
		return nil, toError(err)
	}
	tables, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, toError(err)
	}
	db.V(2).Info("listed tables", "schema", schema, "count", len(tables))
	return tables, nil
}

// ListArrayColumns lists the array columns of a table in ordinal order.
func (db *DB) ListArrayColumns(ctx context.Context, schema, table string) ([]string, error) {
	rows, err := db.Query(ctx, `
SELECT column_name
FROM information_schema.columns
WHERE table_schema = $1
AND table_name = $2
AND data_type = 'ARRAY'
ORDER BY ordinal_position`, schema, table)
	if err != nil {
		return nil, toError(err)
	}
	columns, err := pgx.CollectRows(rows, pgx.RowTo[string])
	if err != nil {
		return nil, toError(err)
	}
	return columns, nil
}

// ArrayColumns maps each table of the schema to its array columns. Tables
// without array columns are omitted.
func (db *DB) ArrayColumns(ctx context.Context, schema string) (map[string][]string, error) {
	rows, err := db.Query(ctx, `
SELECT table_name, column_name
FROM information_schema.columns
WHERE table_schema = $1
AND data_type = 'ARRAY'
ORDER BY table_name, ordinal_position`, schema)
	if err != nil {
		return nil, toError(err)
	}
	type column struct {
		Table  string `db:"table_name"`
		Column string `db:"column_name"`
	}
	columns, err := pgx.CollectRows(rows, pgx.RowToStructByName[column])
	if err != nil {
		return nil, toError(err)
	}
	m := make(map[string][]string)
	for _, c := range columns {
		m[c.Table] = append(m[c.Table], c.Column)
	}
	return m, nil
}

// ReadMetadata reads layer metadata from a table with the columns tablename,
// name, title and abstract. The table may be qualified with its schema, e.g.
// public.metadata.
func (db *DB) ReadMetadata(ctx context.Context, table string) ([]Metadata, error) {
	sql := `SELECT tablename, name, COALESCE(title, '') AS title, COALESCE(abstract, '') AS abstract FROM ` + QualifiedIdentifier(table) + ` ORDER BY tablename`
	rows, err := db.Query(ctx, sql)
	if err != nil {
		return nil, toError(err)
	}
	metadata, err := pgx.CollectRows(rows, pgx.RowToStructByName[Metadata])
	if err != nil {
		return nil, toError(err)
	}
	return metadata, nil
}

// DeleteAll deletes every row of a table, returning the number deleted.
func (db *DB) DeleteAll(ctx context.Context, schema, table string) (int64, error) {
	return db.Exec(ctx, `DELETE FROM `+pgx.Identifier{schema, table}.Sanitize())
}

// QualifiedIdentifier quotes a possibly schema-qualified identifier, e.g.
// public.metadata becomes "public"."metadata".
func QualifiedIdentifier(name string) string {
	return pgx.Identifier(strings.SplitN(name, ".", 2)).Sanitize()
}
