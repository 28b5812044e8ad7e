package export

import (
	"context"
	"database/sql"
	"errors"
	"path/filepath"
	"slices"
	"testing"

	"github.com/publibase/publibase/internal/logr"
	"github.com/publibase/publibase/internal/ogr"
	"github.com/publibase/publibase/internal/postgis"
	"github.com/stretchr/testify/require"
	_ "modernc.org/sqlite"
)

const clipExtentOutput = `INFO: Open of 'clip.shp'
      using driver 'ESRI Shapefile' successful.

Layer name: clip
Geometry: Polygon
Feature Count: 1
Extent: (-43.796252, -23.082908) - (-43.099118, -22.746102)
`

var testConn = postgis.ConnConfig{
	Host:     "localhost",
	Port:     5432,
	Database: "bdgex",
	User:     "postgres",
	Password: "secret",
}

func newTestService(t *testing.T, opts ...ogr.FakeToolsOption) (*Service, *ogr.FakeTools) {
	t.Helper()

	tools := ogr.NewFakeTools(t, opts...)
	return NewService(ogr.NewRunner(logr.Discard(), tools.Config), logr.Discard()), tools
}

// newTestGeoPackage creates a GeoPackage standing in for one written by
// ogr2ogr: a layer with array columns in OGR list form, a layer with a
// feature and an empty layer.
func newTestGeoPackage(t *testing.T) string {
	t.Helper()

	path := filepath.Join(t.TempDir(), "reamb.gpkg")
	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	for _, stmt := range []string{
		`CREATE TABLE gpkg_geometry_columns (table_name TEXT NOT NULL, column_name TEXT NOT NULL, geometry_type_name TEXT NOT NULL, srs_id INTEGER NOT NULL, z TINYINT NOT NULL, m TINYINT NOT NULL)`,
		`INSERT INTO gpkg_geometry_columns VALUES ('tra_trecho_rodoviario_l', 'geom', 'LINESTRING', 4674, 0, 0)`,
		`INSERT INTO gpkg_geometry_columns VALUES ('hid_trecho_drenagem_l', 'geom', 'LINESTRING', 4674, 0, 0)`,
		`INSERT INTO gpkg_geometry_columns VALUES ('edf_edificacao_a', 'geom', 'POLYGON', 4674, 0, 0)`,
		`CREATE TABLE tra_trecho_rodoviario_l (fid INTEGER PRIMARY KEY AUTOINCREMENT, geom BLOB, nome TEXT, tipopavimentacao TEXT)`,
		`INSERT INTO tra_trecho_rodoviario_l (nome, tipopavimentacao) VALUES ('BR-101', '(2:1,2)')`,
		`INSERT INTO tra_trecho_rodoviario_l (nome, tipopavimentacao) VALUES ('BR-116', NULL)`,
		`CREATE TABLE hid_trecho_drenagem_l (fid INTEGER PRIMARY KEY AUTOINCREMENT, geom BLOB, nome TEXT, regime TEXT)`,
		`INSERT INTO hid_trecho_drenagem_l (nome, regime) VALUES ('Rio Doce', '(1:3)')`,
		`CREATE TABLE edf_edificacao_a (fid INTEGER PRIMARY KEY AUTOINCREMENT, geom BLOB, nome TEXT)`,
	} {
		_, err := db.Exec(stmt)
		require.NoError(t, err, stmt)
	}
	return path
}

// readColumn reads the values of a column of a GeoPackage table in rowid
// order, NULLs as nil.
func readColumn(t *testing.T, path, table, column string) []*string {
	t.Helper()

	db, err := sql.Open("sqlite", path)
	require.NoError(t, err)
	defer db.Close()

	rows, err := db.Query(`SELECT "` + column + `" FROM "` + table + `" ORDER BY rowid`)
	require.NoError(t, err)
	defer rows.Close()

	var values []*string
	for rows.Next() {
		var v sql.NullString
		require.NoError(t, rows.Scan(&v))
		if v.Valid {
			values = append(values, &v.String)
		} else {
			values = append(values, nil)
		}
	}
	require.NoError(t, rows.Err())
	return values
}

// fakeCatalog is an in-memory PostGIS catalog.
type fakeCatalog struct {
	tables  []string
	views   []string
	arrays  map[string][]string
	cleaned []string
	err     error
}

func (f *fakeCatalog) ListTables(ctx context.Context, schema string, baseTablesOnly bool) ([]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	if baseTablesOnly {
		return f.tables, nil
	}
	return slices.Concat(f.tables, f.views), nil
}

func (f *fakeCatalog) ArrayColumns(ctx context.Context, schema string) (map[string][]string, error) {
	if f.err != nil {
		return nil, f.err
	}
	return f.arrays, nil
}

func (f *fakeCatalog) DeleteAll(ctx context.Context, schema, table string) (int64, error) {
	if f.err != nil {
		return 0, f.err
	}
	f.cleaned = append(f.cleaned, schema+"."+table)
	return 1, nil
}

var errConnectionRefused = errors.New("connection refused")
