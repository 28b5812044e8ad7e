// Package export implements the algorithms that export PostGIS schemas to
// GeoPackages and shapefiles, and exchange them with field reambulation
// GeoPackages.
package export

import (
	"context"
	"fmt"

	"github.com/publibase/publibase/internal/logr"
	"github.com/publibase/publibase/internal/ogr"
	"github.com/publibase/publibase/internal/postgis"
)

type (
	// Service runs export and reambulation algorithms.
	Service struct {
		ogr    *ogr.Runner
		logger logr.Logger
	}

	// catalog is the subset of the PostGIS catalog used by reambulation.
	catalog interface {
		ListTables(ctx context.Context, schema string, baseTablesOnly bool) ([]string, error)
		ArrayColumns(ctx context.Context, schema string) (map[string][]string, error)
		DeleteAll(ctx context.Context, schema, table string) (int64, error)
	}
)

func NewService(runner *ogr.Runner, logger logr.Logger) *Service {
	return &Service{ogr: runner, logger: logger}
}

// source is the OGR datasource of a schema.
func source(conn postgis.ConnConfig, schema string) ogr.Datasource {
	return ogr.Datasource{
		Name:     conn.OGRSource(schema),
		Redacted: conn.RedactedOGRSource(schema),
	}
}

// clipExtent validates the clip shapefile, returning its extent. Nil is
// returned if there is no clip shapefile.
func (s *Service) clipExtent(ctx context.Context, clip string) (*ogr.Extent, error) {
	if clip == "" {
		return nil, nil
	}
	extent, err := s.ogr.Extent(ctx, clip)
	if err != nil {
		return nil, fmt.Errorf("validating clip shapefile: %w", err)
	}
	s.logger.Info("valid clip shapefile", "path", clip, "extent", extent)
	return &extent, nil
}
