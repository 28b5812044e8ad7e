package export

import (
	"bytes"
	"context"
	"testing"

	"github.com/publibase/publibase/internal/algorithm"
	"github.com/publibase/publibase/internal/logr"
	"github.com/publibase/publibase/internal/ogr"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type tempHome string

func (h tempHome) UserHomeDir() (string, error) { return string(h), nil }

func TestAlgorithms(t *testing.T) {
	groups := make(map[algorithm.Group]int)
	for _, alg := range Algorithms() {
		groups[alg.Group]++
		assert.NotEmpty(t, alg.DisplayName)
		assert.NotEmpty(t, alg.Help)
		assert.NotNil(t, alg.Command(&algorithm.Env{}))
	}
	assert.Equal(t, map[algorithm.Group]int{
		algorithm.ExportGroup:       2,
		algorithm.ReambulationGroup: 2,
	}, groups)
}

func TestGeoPackageCommand(t *testing.T) {
	tools := ogr.NewFakeTools(t)
	env := &algorithm.Env{
		Logger:      logr.Discard(),
		OGR:         &tools.Config,
		Directories: tempHome(t.TempDir()),
	}
	cmd := Algorithms()[0].Command(env)
	var out bytes.Buffer
	cmd.SetOut(&out)
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--database", "host=localhost port=5432 dbname=bdgex user=postgres password=secret",
		"--geopackage", "out.gpkg",
	})

	err := cmd.ExecuteContext(context.Background())
	require.NoError(t, err)

	assert.Equal(t, "{\"Result\":\"Exported\"}\n", out.String())
	assert.Equal(t, [][]string{{
		"-f", "GPKG", "out.gpkg", "-overwrite",
		"PG:host=localhost dbname=bdgex schemas=bc250_base port=5432 user=postgres password=secret",
	}}, tools.Invocations(t))
}

func TestReambulationImportCommand_RejectsSchema(t *testing.T) {
	env := &algorithm.Env{Logger: logr.Discard(), Directories: tempHome(t.TempDir())}
	cmd := Algorithms()[3].Command(env)
	cmd.SetOut(&bytes.Buffer{})
	cmd.SetErr(&bytes.Buffer{})
	cmd.SetArgs([]string{
		"--database", "host=localhost dbname=bdgex",
		"--geopackage", "reamb.gpkg",
		"--schema", "bc250_base",
	})

	err := cmd.ExecuteContext(context.Background())
	assert.ErrorContains(t, err, "reamb")
}
