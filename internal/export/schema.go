package export

import (
	"context"
	"fmt"
	"os"

	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/ogr"
	"github.com/publibase/publibase/internal/postgis"
)

// DefaultSchema is the schema exported by default.
const DefaultSchema = "bc250_base"

type (
	GeoPackageOptions struct {
		Schema string
		// Shapefile whose geometries clip the exported features. Optional.
		Clip       string
		GeoPackage string
	}

	ShapefileOptions struct {
		Schema string
		// Shapefile whose geometries clip the exported features. Optional.
		Clip string
		// Folder to write a shapefile per layer to. Created if it doesn't
		// exist.
		Folder string
	}
)

func (o GeoPackageOptions) Validate() error {
	if o.Schema == "" {
		return &internal.MissingParameterError{Parameter: "schema"}
	}
	if o.GeoPackage == "" {
		return &internal.MissingParameterError{Parameter: "geopackage"}
	}
	return nil
}

func (o ShapefileOptions) Validate() error {
	if o.Schema == "" {
		return &internal.MissingParameterError{Parameter: "schema"}
	}
	if o.Folder == "" {
		return &internal.MissingParameterError{Parameter: "folder"}
	}
	return nil
}

// ExportGeoPackage exports the layers of a schema to a GeoPackage.
func (s *Service) ExportGeoPackage(ctx context.Context, conn postgis.ConnConfig, opts GeoPackageOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if _, err := s.clipExtent(ctx, opts.Clip); err != nil {
		return err
	}
	cmd := ogr.ExportGeoPackage(opts.GeoPackage, opts.Clip, source(conn, opts.Schema))
	if err := s.ogr.Ogr2ogr(ctx, cmd); err != nil {
		return fmt.Errorf("exporting schema %s: %w", opts.Schema, err)
	}
	s.logger.Info("exported schema", "schema", opts.Schema, "geopackage", opts.GeoPackage)
	return nil
}

// ExportShapefiles exports the layers of a schema to a folder of shapefiles.
func (s *Service) ExportShapefiles(ctx context.Context, conn postgis.ConnConfig, opts ShapefileOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if _, err := s.clipExtent(ctx, opts.Clip); err != nil {
		return err
	}
	if err := os.MkdirAll(opts.Folder, 0o755); err != nil {
		return err
	}
	cmd := ogr.ExportShapefiles(opts.Folder, opts.Clip, source(conn, opts.Schema))
	if err := s.ogr.Ogr2ogr(ctx, cmd); err != nil {
		return fmt.Errorf("exporting schema %s: %w", opts.Schema, err)
	}
	s.logger.Info("exported schema", "schema", opts.Schema, "folder", opts.Folder)
	return nil
}
