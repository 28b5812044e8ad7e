// Package gpkg reads and updates GeoPackage files.
package gpkg

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"strings"

	"github.com/publibase/publibase/internal/logr"
	_ "modernc.org/sqlite"
)

// GeoPackage is an open GeoPackage file.
type GeoPackage struct {
	db     *sql.DB
	path   string
	logger logr.Logger
}

// Open opens an existing GeoPackage.
func Open(ctx context.Context, logger logr.Logger, path string) (*GeoPackage, error) {
	if _, err := os.Stat(path); err != nil {
		return nil, fmt.Errorf("opening geopackage: %w", err)
	}
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("opening geopackage: %w", err)
	}
	// A single connection avoids SQLITE_BUSY between concurrent writers.
	db.SetMaxOpenConns(1)
	if err := db.PingContext(ctx); err != nil {
		db.Close()
		return nil, fmt.Errorf("opening geopackage: %w", err)
	}
	return &GeoPackage{db: db, path: path, logger: logger.WithValues("geopackage", path)}, nil
}

func (g *GeoPackage) Close() error {
	return g.db.Close()
}

// GeometryLayers lists the layers registered in gpkg_geometry_columns, in
// name order.
func (g *GeoPackage) GeometryLayers(ctx context.Context) ([]string, error) {
	rows, err := g.db.QueryContext(ctx, "SELECT table_name FROM gpkg_geometry_columns ORDER BY table_name")
	if err != nil {
		return nil, fmt.Errorf("listing geometry layers: %w", err)
	}
	defer rows.Close()

	var layers []string
	for rows.Next() {
		var layer string
		if err := rows.Scan(&layer); err != nil {
			return nil, err
		}
		layers = append(layers, layer)
	}
	return layers, rows.Err()
}

// NonEmptyLayers lists the geometry layers with at least one feature.
func (g *GeoPackage) NonEmptyLayers(ctx context.Context) ([]string, error) {
	layers, err := g.GeometryLayers(ctx)
	if err != nil {
		return nil, err
	}
	var nonEmpty []string
	for _, layer := range layers {
		var exists bool
		err := g.db.QueryRowContext(ctx, "SELECT EXISTS (SELECT 1 FROM "+quoteIdentifier(layer)+")").Scan(&exists)
		if err != nil {
			return nil, fmt.Errorf("counting features of %s: %w", layer, err)
		}
		if exists {
			nonEmpty = append(nonEmpty, layer)
		} else {
			g.logger.V(1).Info("skipping empty layer", "layer", layer)
		}
	}
	return nonEmpty, nil
}

// ReformatArrayColumns rewrites the OGR list values of the given columns of a
// table as PostgreSQL array literals. It returns the number of values
// changed.
func (g *GeoPackage) ReformatArrayColumns(ctx context.Context, table string, columns []string) (int, error) {
	tx, err := g.db.BeginTx(ctx, nil)
	if err != nil {
		return 0, err
	}
	defer tx.Rollback()

	var changed int
	for _, column := range columns {
		n, err := reformatColumn(ctx, tx, table, column)
		if err != nil {
			return 0, fmt.Errorf("reformatting %s.%s: %w", table, column, err)
		}
		g.logger.V(1).Info("reformatted array column", "table", table, "column", column, "values", n)
		changed += n
	}
	if err := tx.Commit(); err != nil {
		return 0, err
	}
	return changed, nil
}

func reformatColumn(ctx context.Context, tx *sql.Tx, table, column string) (int, error) {
	query := fmt.Sprintf("SELECT rowid, %s FROM %s WHERE %s IS NOT NULL",
		quoteIdentifier(column), quoteIdentifier(table), quoteIdentifier(column))
	rows, err := tx.QueryContext(ctx, query)
	if err != nil {
		return 0, err
	}
	type update struct {
		rowid int64
		value string
	}
	var updates []update
	for rows.Next() {
		var (
			rowid int64
			value string
		)
		if err := rows.Scan(&rowid, &value); err != nil {
			rows.Close()
			return 0, err
		}
		if reformatted, ok := ReformatArray(value); ok {
			updates = append(updates, update{rowid: rowid, value: reformatted})
		}
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return 0, err
	}

	stmt := fmt.Sprintf("UPDATE %s SET %s = ? WHERE rowid = ?", quoteIdentifier(table), quoteIdentifier(column))
	for _, u := range updates {
		if _, err := tx.ExecContext(ctx, stmt, u.value, u.rowid); err != nil {
			return 0, err
		}
	}
	return len(updates), nil
}

// ReformatArray converts an OGR list, e.g. (3:a,b,c), into a PostgreSQL array
// literal, e.g. {a,b,c}. The second return value is false if the value is not
// an OGR list.
func ReformatArray(value string) (string, bool) {
	if !strings.HasPrefix(value, "(") || !strings.HasSuffix(value, ")") {
		return value, false
	}
	count, elements, found := strings.Cut(value[1:len(value)-1], ":")
	if !found || count == "" || strings.Trim(count, "0123456789") != "" {
		return value, false
	}
	return "{" + elements + "}", true
}

func quoteIdentifier(name string) string {
	return `"` + strings.ReplaceAll(name, `"`, `""`) + `"`
}
