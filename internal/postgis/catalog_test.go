package postgis

import (
	"context"
	"fmt"
	"os"
	"testing"

	"github.com/google/uuid"
	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestDatabaseEnvVar names the environment variable holding the connection
// string of a PostGIS database for tests. Tests requiring a database are
// skipped if it is unset.
const TestDatabaseEnvVar = "PUBLIBASE_TEST_DATABASE"

// newTestDB connects to the test database and creates a uniquely named schema,
// dropped once the test finishes.
func newTestDB(t *testing.T) (*DB, string) {
	t.Helper()

	connString, ok := os.LookupEnv(TestDatabaseEnvVar)
	if !ok {
		t.Skipf("%s not set", TestDatabaseEnvVar)
	}
	ctx := context.Background()

	db, err := Connect(ctx, logr.Discard(), connString)
	require.NoError(t, err)
	t.Cleanup(db.Close)

	schema := "test_" + uuid.NewString()[:8]
	_, err = db.Exec(ctx, fmt.Sprintf("CREATE SCHEMA %q", schema))
	require.NoError(t, err)
	t.Cleanup(func() {
		db.Exec(context.Background(), fmt.Sprintf("DROP SCHEMA %q CASCADE", schema))
	})
	return db, schema
}

func TestCatalog(t *testing.T) {
	db, schema := newTestDB(t)
	ctx := context.Background()

	for _, sql := range []string{
		`CREATE TABLE %[1]q.tra_trecho_rodoviario_l (id serial PRIMARY KEY, nome text, tipo integer[])`,
		`CREATE TABLE %[1]q.hid_trecho_drenagem_l (id serial PRIMARY KEY, nome text)`,
		`CREATE TABLE %[1]q.edf_edificacao_a (id serial PRIMARY KEY, uso integer[], material text[])`,
		`CREATE VIEW %[1]q.vw_rodovias AS SELECT * FROM %[1]q.tra_trecho_rodoviario_l`,
		`INSERT INTO %[1]q.hid_trecho_drenagem_l (nome) VALUES ('Rio Doce'), ('Rio Negro')`,
		`CREATE TABLE %[1]q.metadata (tablename text, name text, title text, abstract text)`,
		`INSERT INTO %[1]q.metadata VALUES ('hid_trecho_drenagem_l', 'rivers', 'Rivers', NULL)`,
	} {
		_, err := db.Exec(ctx, fmt.Sprintf(sql, schema))
		require.NoError(t, err)
	}

	t.Run("list tables and views", func(t *testing.T) {
		got, err := db.ListTables(ctx, schema, false)
		require.NoError(t, err)
		assert.Equal(t, []string{"edf_edificacao_a", "hid_trecho_drenagem_l", "metadata", "tra_trecho_rodoviario_l", "vw_rodovias"}, got)
	})

	t.Run("list base tables", func(t *testing.T) {
		got, err := db.ListTables(ctx, schema, true)
		require.NoError(t, err)
		assert.Equal(t, []string{"edf_edificacao_a", "hid_trecho_drenagem_l", "metadata", "tra_trecho_rodoviario_l"}, got)
	})

	t.Run("list array columns", func(t *testing.T) {
		got, err := db.ListArrayColumns(ctx, schema, "edf_edificacao_a")
		require.NoError(t, err)
		assert.Equal(t, []string{"uso", "material"}, got)
	})

	t.Run("array columns", func(t *testing.T) {
		got, err := db.ArrayColumns(ctx, schema)
		require.NoError(t, err)
		assert.Equal(t, map[string][]string{
			"edf_edificacao_a":        {"uso", "material"},
			"tra_trecho_rodoviario_l": {"tipo"},
			"vw_rodovias":             {"tipo"},
		}, got)
	})

	t.Run("read metadata", func(t *testing.T) {
		got, err := db.ReadMetadata(ctx, schema+".metadata")
		require.NoError(t, err)
		assert.Equal(t, []Metadata{
			{TableName: "hid_trecho_drenagem_l", Name: "rivers", Title: "Rivers"},
		}, got)
	})

	t.Run("read metadata from non-existent table", func(t *testing.T) {
		_, err := db.ReadMetadata(ctx, schema+".nonexistent")
		assert.ErrorIs(t, err, internal.ErrResourceNotFound)
	})

	t.Run("delete all", func(t *testing.T) {
		got, err := db.DeleteAll(ctx, schema, "hid_trecho_drenagem_l")
		require.NoError(t, err)
		assert.Equal(t, int64(2), got)
	})
}

func TestQualifiedIdentifier(t *testing.T) {
	assert.Equal(t, `"metadata"`, QualifiedIdentifier("metadata"))
	assert.Equal(t, `"public"."metadata"`, QualifiedIdentifier("public.metadata"))
}
