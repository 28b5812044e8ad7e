package publish

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/geoserver"
	"github.com/publibase/publibase/internal/postgis"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadMetadataFile(t *testing.T) {
	dir := t.TempDir()

	t.Run("yaml", func(t *testing.T) {
		path := filepath.Join(dir, "metadata.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
- tablename: tra_trecho_rodoviario_l
  name: trecho_rodoviario
  title: Trecho Rodoviário
  abstract: Rodovias federais e estaduais
- tablename: hid_massa_dagua_a
  name: massa_dagua
`), 0o644))

		got, err := LoadMetadataFile(path)
		require.NoError(t, err)
		assert.Equal(t, []postgis.Metadata{
			{TableName: "tra_trecho_rodoviario_l", Name: "trecho_rodoviario", Title: "Trecho Rodoviário", Abstract: "Rodovias federais e estaduais"},
			{TableName: "hid_massa_dagua_a", Name: "massa_dagua"},
		}, got)
	})

	t.Run("json", func(t *testing.T) {
		path := filepath.Join(dir, "metadata.json")
		require.NoError(t, os.WriteFile(path, []byte(`[{"tablename": "loc_cidade_p", "name": "cidade", "title": "Cidade"}]`), 0o644))

		got, err := LoadMetadataFile(path)
		require.NoError(t, err)
		assert.Equal(t, []postgis.Metadata{{TableName: "loc_cidade_p", Name: "cidade", Title: "Cidade"}}, got)
	})

	t.Run("missing", func(t *testing.T) {
		_, err := LoadMetadataFile(filepath.Join(dir, "missing.yaml"))
		assert.ErrorIs(t, err, os.ErrNotExist)
	})

	t.Run("malformed", func(t *testing.T) {
		path := filepath.Join(dir, "malformed.yaml")
		require.NoError(t, os.WriteFile(path, []byte("tablename: [unclosed"), 0o644))

		_, err := LoadMetadataFile(path)
		assert.Error(t, err)
	})
}

func TestService_Publish(t *testing.T) {
	ctx := context.Background()
	metadata := []postgis.Metadata{
		{TableName: "tra_trecho_rodoviario_l", Name: "trecho_rodoviario", Title: "Trecho Rodoviário", Abstract: "Rodovias"},
		{TableName: "hid_massa_dagua_a", Name: "massa_dagua", Title: "Massa d'Água"},
	}

	t.Run("publish", func(t *testing.T) {
		srv := geoserver.NewTestServer(t, geoserver.WithStore("bc250", "postgis"))
		svc := newTestService(t, srv)

		err := svc.Publish(ctx, PublishOptions{StoreOptions: StoreOptions{Workspace: "bc250", Store: "postgis"}}, metadata)
		require.NoError(t, err)

		ft, ok := srv.FeatureType("bc250", "postgis", "trecho_rodoviario")
		require.True(t, ok)
		assert.Equal(t, geoserver.FeatureType{
			Name:       "trecho_rodoviario",
			NativeName: "tra_trecho_rodoviario_l",
			Title:      "Trecho Rodoviário",
			Abstract:   "Rodovias",
			Advertised: internal.Ptr(true),
		}, ft)
	})

	t.Run("not advertised", func(t *testing.T) {
		srv := geoserver.NewTestServer(t, geoserver.WithStore("bc250", "postgis"))
		svc := newTestService(t, srv)

		err := svc.Publish(ctx, PublishOptions{
			StoreOptions:  StoreOptions{Workspace: "bc250", Store: "postgis"},
			NotAdvertised: true,
		}, metadata)
		require.NoError(t, err)

		ft, ok := srv.FeatureType("bc250", "postgis", "massa_dagua")
		require.True(t, ok)
		assert.Equal(t, internal.Ptr(false), ft.Advertised)
	})

	t.Run("carry on past existing layer", func(t *testing.T) {
		srv := geoserver.NewTestServer(t,
			geoserver.WithFeatureType("bc250", "postgis", geoserver.FeatureType{Name: "trecho_rodoviario"}, ""),
		)
		svc := newTestService(t, srv)

		err := svc.Publish(ctx, PublishOptions{StoreOptions: StoreOptions{Workspace: "bc250", Store: "postgis"}}, metadata)

		var batch *internal.BatchError
		require.ErrorAs(t, err, &batch)
		require.Len(t, batch.Failed, 1)
		assert.Equal(t, "tra_trecho_rodoviario_l", batch.Failed[0].Item)
		_, ok := srv.FeatureType("bc250", "postgis", "massa_dagua")
		assert.True(t, ok)
	})

	t.Run("entry without name", func(t *testing.T) {
		srv := geoserver.NewTestServer(t, geoserver.WithStore("bc250", "postgis"))
		svc := newTestService(t, srv)

		err := svc.Publish(ctx, PublishOptions{StoreOptions: StoreOptions{Workspace: "bc250", Store: "postgis"}}, []postgis.Metadata{
			{TableName: "loc_cidade_p"},
		})

		var missing *internal.MissingParameterError
		require.ErrorAs(t, err, &missing)
		assert.Equal(t, "name", missing.Parameter)
	})
}

func TestService_PublishCCAR(t *testing.T) {
	ctx := context.Background()
	opts := CCAROptions{
		PublishOptions: PublishOptions{StoreOptions: StoreOptions{Workspace: "bc100", Store: "postgis"}},
		Schema:         "bc100_se_2019",
		Prefix:         "BC100_SE_2019",
	}

	t.Run("publish tables and views", func(t *testing.T) {
		srv := geoserver.NewTestServer(t, geoserver.WithStore("bc100", "postgis"))
		svc := newTestService(t, srv)
		db := &fakeTables{
			tables: []string{"tra_trecho_rodoviario_l"},
			views:  []string{"hid_massa_dagua_a"},
		}

		err := svc.PublishCCAR(ctx, db, opts)
		require.NoError(t, err)

		ft, ok := srv.FeatureType("bc100", "postgis", "BC100_SE_2019_Trecho_Rodoviario_L")
		require.True(t, ok)
		assert.Equal(t, "tra_trecho_rodoviario_l", ft.NativeName)
		assert.Equal(t, internal.Ptr(true), ft.Advertised)
		_, ok = srv.FeatureType("bc100", "postgis", "BC100_SE_2019_Massa_Dagua_A")
		assert.True(t, ok)
	})

	t.Run("not advertised", func(t *testing.T) {
		srv := geoserver.NewTestServer(t, geoserver.WithStore("bc100", "postgis"))
		svc := newTestService(t, srv)

		notAdvertised := opts
		notAdvertised.NotAdvertised = true
		err := svc.PublishCCAR(ctx, &fakeTables{tables: []string{"tra_trecho_rodoviario_l"}}, notAdvertised)
		require.NoError(t, err)

		ft, ok := srv.FeatureType("bc100", "postgis", "BC100_SE_2019_Trecho_Rodoviario_L")
		require.True(t, ok)
		assert.Equal(t, internal.Ptr(false), ft.Advertised)
	})

	t.Run("unknown category", func(t *testing.T) {
		srv := geoserver.NewTestServer(t, geoserver.WithStore("bc100", "postgis"))
		svc := newTestService(t, srv)

		err := svc.PublishCCAR(ctx, &fakeTables{tables: []string{"xyz_coisa_p", "tra_trecho_rodoviario_l"}}, opts)

		var batch *internal.BatchError
		require.ErrorAs(t, err, &batch)
		require.Len(t, batch.Failed, 1)
		assert.Equal(t, "xyz_coisa_p", batch.Failed[0].Item)
		_, ok := srv.FeatureType("bc100", "postgis", "BC100_SE_2019_Trecho_Rodoviario_L")
		assert.True(t, ok)
	})

	t.Run("listing tables fails", func(t *testing.T) {
		svc := newTestService(t, geoserver.NewTestServer(t))

		err := svc.PublishCCAR(ctx, &fakeTables{err: errors.New("connection refused")}, opts)
		assert.ErrorContains(t, err, "connection refused")
	})
}
