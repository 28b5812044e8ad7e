package publish

import (
	"bytes"
	"context"
	"os"
	"path/filepath"
	"testing"

	"github.com/publibase/publibase/internal/algorithm"
	"github.com/publibase/publibase/internal/geoserver"
	"github.com/publibase/publibase/internal/logr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// runAlgorithm runs the named algorithm against the test server, returning
// its output.
func runAlgorithm(t *testing.T, srv *geoserver.TestServer, name string, args ...string) (string, error) {
	t.Helper()

	env := &algorithm.Env{
		Logger: logr.Discard(),
		GeoServer: &geoserver.Config{
			URL:      srv.GeoServerURL(),
			User:     geoserver.DefaultUser,
			Password: geoserver.DefaultPassword,
		},
	}
	for _, alg := range Algorithms() {
		if alg.Name != name {
			continue
		}
		cmd := alg.Command(env)
		var out bytes.Buffer
		cmd.SetOut(&out)
		cmd.SetErr(&bytes.Buffer{})
		cmd.SetArgs(args)
		err := cmd.ExecuteContext(context.Background())
		return out.String(), err
	}
	t.Fatalf("no such algorithm: %s", name)
	return "", nil
}

func TestAlgorithms(t *testing.T) {
	names := make(map[string]bool)
	for _, alg := range Algorithms() {
		assert.False(t, names[alg.Name], "duplicate algorithm: %s", alg.Name)
		names[alg.Name] = true

		assert.Equal(t, algorithm.GeoServerGroup, alg.Group)
		assert.NotEmpty(t, alg.DisplayName)
		assert.NotEmpty(t, alg.Help)
		assert.NotNil(t, alg.Command(&algorithm.Env{}))
	}
	assert.Len(t, names, 12)
}

func TestCreateWorkspaceCommand(t *testing.T) {
	srv := geoserver.NewTestServer(t)

	out, err := runAlgorithm(t, srv, "create_workspace", "--workspace", "bc250")
	require.NoError(t, err)

	assert.Equal(t, "{\"Result\":\"Workspace Created\"}\n", out)
	assert.True(t, srv.HasWorkspace("bc250"))
}

func TestCreateWorkspaceCommand_MissingFlag(t *testing.T) {
	srv := geoserver.NewTestServer(t)

	out, err := runAlgorithm(t, srv, "create_workspace")
	assert.ErrorContains(t, err, `required flag(s) "workspace" not set`)
	assert.Empty(t, out)
	assert.Empty(t, srv.Requests())
}

func TestUploadStylesCommand(t *testing.T) {
	srv := geoserver.NewTestServer(t, geoserver.WithWorkspace("estilos"))
	folder := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(folder, "rodovia.sld"), []byte(testSLD), 0o644))

	out, err := runAlgorithm(t, srv, "upload_styles_to_workspace", "--workspace", "estilos", "--folder", folder)
	require.NoError(t, err)

	assert.Equal(t, "{\"Result\":\"Styles uploaded\"}\n", out)
	assert.Equal(t, []string{"rodovia"}, srv.Styles("estilos"))
}

func TestDeadvertiseCommand(t *testing.T) {
	srv := newStoreServer(t)

	out, err := runAlgorithm(t, srv, "deadvertise_store_layers", "--workspace", "bc250", "--store", "postgis")
	require.NoError(t, err)

	assert.Equal(t, "{\"Result\":\"Layers de-advertised\"}\n", out)
	ft, _ := srv.FeatureType("bc250", "postgis", "loc_cidade_p")
	assert.False(t, *ft.Advertised)
}

func TestPublishCommand(t *testing.T) {
	t.Run("metadata file", func(t *testing.T) {
		srv := geoserver.NewTestServer(t, geoserver.WithStore("bc250", "postgis"))
		path := filepath.Join(t.TempDir(), "metadata.yaml")
		require.NoError(t, os.WriteFile(path, []byte("- {tablename: loc_cidade_p, name: cidade, title: Cidade}\n"), 0o644))

		out, err := runAlgorithm(t, srv, "postgis2geoserver", "--workspace", "bc250", "--store", "postgis", "--metadata-file", path)
		require.NoError(t, err)

		assert.Equal(t, "{\"Result\":\"Layers Published\"}\n", out)
		_, ok := srv.FeatureType("bc250", "postgis", "cidade")
		assert.True(t, ok)
	})

	t.Run("no metadata source", func(t *testing.T) {
		srv := geoserver.NewTestServer(t)

		_, err := runAlgorithm(t, srv, "postgis2geoserver", "--workspace", "bc250", "--store", "postgis")
		assert.Error(t, err)
	})

	t.Run("metadata table without database", func(t *testing.T) {
		srv := geoserver.NewTestServer(t)

		_, err := runAlgorithm(t, srv, "postgis2geoserver", "--workspace", "bc250", "--store", "postgis", "--metadata-table", "public.metadados")
		assert.Error(t, err)
	})

	t.Run("both metadata sources", func(t *testing.T) {
		srv := geoserver.NewTestServer(t)

		_, err := runAlgorithm(t, srv, "postgis2geoserver", "--workspace", "bc250", "--store", "postgis",
			"--metadata-file", "metadata.yaml", "--database", "bc250", "--metadata-table", "public.metadados")
		assert.Error(t, err)
	})
}

func TestFailedAlgorithmPrintsNoResult(t *testing.T) {
	srv := geoserver.NewTestServer(t, geoserver.WithWorkspace("bc250"))

	out, err := runAlgorithm(t, srv, "create_workspace", "--workspace", "bc250")
	assert.Error(t, err)
	assert.Empty(t, out)
}
