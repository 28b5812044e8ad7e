package algorithm

import (
	"context"
	"time"

	"github.com/google/uuid"
	"github.com/publibase/publibase/internal/geoserver"
	"github.com/publibase/publibase/internal/logr"
	"github.com/publibase/publibase/internal/ogr"
	"github.com/publibase/publibase/internal/postgis"
	"github.com/spf13/cobra"
)

// Env holds the dependencies shared by algorithms. Its fields are populated
// once flags are parsed.
type Env struct {
	Logger      logr.Logger
	GeoServer   *geoserver.Config
	OGR         *ogr.Config
	Directories postgis.Directories
}

func (e *Env) GeoServerClient() (*geoserver.Client, error) {
	cfg := geoserver.Config{}
	if e.GeoServer != nil {
		cfg = *e.GeoServer
	}
	cfg.Logger = e.Logger.WithName("geoserver")
	return geoserver.NewClient(cfg)
}

func (e *Env) OGRRunner() *ogr.Runner {
	cfg := ogr.Config{}
	if e.OGR != nil {
		cfg = *e.OGR
	}
	return ogr.NewRunner(e.Logger.WithName("ogr"), cfg)
}

func (e *Env) ConnectionStore() (postgis.ConnectionStore, error) {
	dirs := e.Directories
	if dirs == nil {
		dirs = postgis.OSDirectories
	}
	return postgis.NewConnectionStore(dirs)
}

// ConnConfig resolves a stored connection name or connection string.
func (e *Env) ConnConfig(database string) (postgis.ConnConfig, string, error) {
	store, err := e.ConnectionStore()
	if err != nil {
		return postgis.ConnConfig{}, "", err
	}
	connString, err := store.Resolve(database)
	if err != nil {
		return postgis.ConnConfig{}, "", err
	}
	conn, err := postgis.ParseConnConfig(connString)
	if err != nil {
		return postgis.ConnConfig{}, "", err
	}
	return conn, connString, nil
}

// Connect resolves a stored connection name or connection string and
// connects to the database.
func (e *Env) Connect(ctx context.Context, database string) (*postgis.DB, postgis.ConnConfig, error) {
	conn, connString, err := e.ConnConfig(database)
	if err != nil {
		return nil, postgis.ConnConfig{}, err
	}
	db, err := postgis.Connect(ctx, e.Logger.WithName("postgis"), connString)
	if err != nil {
		return nil, postgis.ConnConfig{}, err
	}
	return db, conn, nil
}

// Run runs an algorithm, logging its start and finish with a correlation ID,
// and prints its result.
func (e *Env) Run(cmd *cobra.Command, name string, fn func(ctx context.Context, logger logr.Logger) (Result, error)) error {
	logger := e.Logger.WithValues("algorithm", name, "run", uuid.NewString()[:8])
	start := time.Now()

	logger.V(1).Info("started")
	result, err := fn(cmd.Context(), logger)
	if err != nil {
		logger.Error(err, "failed", "duration", time.Since(start).Round(time.Millisecond))
		return err
	}
	logger.Info("finished", "result", result.Message, "duration", time.Since(start).Round(time.Millisecond))
	return PrintResult(cmd.OutOrStdout(), result)
}
