package export

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"strings"

	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/gpkg"
	"github.com/publibase/publibase/internal/ogr"
	"github.com/publibase/publibase/internal/postgis"
)

// DefaultReambulationSchema is the schema reambulated layers are imported
// into by default.
const DefaultReambulationSchema = "bc250_reamb"

// reambulationMarker must be part of the name of a schema that reambulated
// layers are imported into, guarding production schemas.
const reambulationMarker = "reamb"

type (
	ReambulationExportOptions struct {
		Schema string
		// Shapefile whose extent restricts the exported features. Optional.
		Clip       string
		GeoPackage string
	}

	ReambulationImportOptions struct {
		// Schema to import into; its name must contain "reamb".
		Schema     string
		GeoPackage string
		// Delete the rows of every table of the schema before importing.
		CleanSchema bool
	}
)

func (o ReambulationExportOptions) Validate() error {
	if o.Schema == "" {
		return &internal.MissingParameterError{Parameter: "schema"}
	}
	if o.GeoPackage == "" {
		return &internal.MissingParameterError{Parameter: "geopackage"}
	}
	return nil
}

func (o ReambulationImportOptions) Validate() error {
	if o.Schema == "" {
		return &internal.MissingParameterError{Parameter: "schema"}
	}
	if !strings.Contains(o.Schema, reambulationMarker) {
		return internal.InvalidParameterError(fmt.Sprintf("schema %s: the word %q must be part of the schema name", o.Schema, reambulationMarker))
	}
	if o.GeoPackage == "" {
		return &internal.MissingParameterError{Parameter: "geopackage"}
	}
	return nil
}

// ExportReambulation exports the layers of a schema to a GeoPackage for field
// reambulation, restricted to the features intersecting the extent of the
// clip shapefile. Array columns, which ogr2ogr writes as OGR lists, are
// rewritten as array literals so that they survive the return trip.
func (s *Service) ExportReambulation(ctx context.Context, db catalog, conn postgis.ConnConfig, opts ReambulationExportOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	extent, err := s.clipExtent(ctx, opts.Clip)
	if err != nil {
		return err
	}
	cmd := ogr.ExportReambulation(opts.GeoPackage, extent, source(conn, opts.Schema))
	if err := s.ogr.Ogr2ogr(ctx, cmd); err != nil {
		return fmt.Errorf("exporting schema %s: %w", opts.Schema, err)
	}
	s.logger.Info("exported schema", "schema", opts.Schema, "geopackage", opts.GeoPackage)

	arrays, err := baseTableArrayColumns(ctx, db, opts.Schema)
	if err != nil {
		return err
	}
	if len(arrays) == 0 {
		return nil
	}

	g, err := gpkg.Open(ctx, s.logger, opts.GeoPackage)
	if err != nil {
		return err
	}
	defer g.Close()

	tables := slices.Sorted(maps.Keys(arrays))
	batch := internal.BatchError{Action: "reformatting array columns", Total: len(tables)}
	for _, table := range tables {
		changed, err := g.ReformatArrayColumns(ctx, table, arrays[table])
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, "reformatting array columns", "table", table)
			batch.Add(table, err)
			continue
		}
		s.logger.Info("reformatted array columns", "table", table, "columns", arrays[table], "values", changed)
	}
	return batch.Err()
}

// baseTableArrayColumns maps each base table of the schema to its array
// columns, leaving out views.
func baseTableArrayColumns(ctx context.Context, db catalog, schema string) (map[string][]string, error) {
	tables, err := db.ListTables(ctx, schema, true)
	if err != nil {
		return nil, fmt.Errorf("listing tables of schema %s: %w", schema, err)
	}
	arrays, err := db.ArrayColumns(ctx, schema)
	if err != nil {
		return nil, fmt.Errorf("listing array columns of schema %s: %w", schema, err)
	}
	m := make(map[string][]string)
	for _, table := range tables {
		if columns, ok := arrays[table]; ok {
			m[table] = columns
		}
	}
	return m, nil
}

// ImportReambulation appends the features of the non-empty layers of a
// reambulation GeoPackage to the tables of the same name in the schema,
// optionally deleting the existing rows of the schema first.
func (s *Service) ImportReambulation(ctx context.Context, db catalog, conn postgis.ConnConfig, opts ReambulationImportOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	layers, err := s.nonEmptyLayers(ctx, opts.GeoPackage)
	if err != nil {
		return err
	}
	s.logger.Info("importing layers", "geopackage", opts.GeoPackage, "schema", opts.Schema, "layers", len(layers))

	tables, err := db.ListTables(ctx, opts.Schema, true)
	if err != nil {
		return fmt.Errorf("listing tables of schema %s: %w", opts.Schema, err)
	}
	for _, layer := range internal.Diff(layers, tables) {
		s.logger.Info("layer has no table in schema, creating table", "layer", layer, "schema", opts.Schema)
	}
	if opts.CleanSchema {
		if err := s.cleanSchema(ctx, db, opts.Schema, tables); err != nil {
			return err
		}
	}

	dst := source(conn, "")
	batch := internal.BatchError{Action: "importing layers", Total: len(layers)}
	for _, layer := range layers {
		cmd := ogr.ImportLayer(dst, opts.GeoPackage, layer, opts.Schema)
		if err := s.ogr.Ogr2ogr(ctx, cmd); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, "importing layer", "layer", layer)
			batch.Add(layer, err)
			continue
		}
		s.logger.Info("imported layer", "layer", layer, "table", opts.Schema+"."+layer)
	}
	return batch.Err()
}

func (s *Service) nonEmptyLayers(ctx context.Context, path string) ([]string, error) {
	g, err := gpkg.Open(ctx, s.logger, path)
	if err != nil {
		return nil, err
	}
	defer g.Close()

	return g.NonEmptyLayers(ctx)
}

// cleanSchema deletes the rows of the base tables of the schema.
func (s *Service) cleanSchema(ctx context.Context, db catalog, schema string, tables []string) error {
	for _, table := range tables {
		deleted, err := db.DeleteAll(ctx, schema, table)
		if err != nil {
			return fmt.Errorf("cleaning table %s.%s: %w", schema, table, err)
		}
		s.logger.Info("cleaned table", "table", schema+"."+table, "deleted", deleted)
	}
	return nil
}
