package publish

import (
	"context"
	"fmt"
	"os"

	"github.com/goccy/go-yaml"
	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/ccar"
	"github.com/publibase/publibase/internal/geoserver"
	"github.com/publibase/publibase/internal/postgis"
)

type (
	PublishOptions struct {
		StoreOptions
		// Publish the layers without advertising them.
		NotAdvertised bool
	}

	CCAROptions struct {
		PublishOptions
		// Schema whose tables are published
		Schema string
		// Prefix identifying the project, prepended to layer names and
		// titles.
		Prefix string
	}

	// tableLister lists the tables and views of a database schema.
	tableLister interface {
		ListTables(ctx context.Context, schema string, baseTablesOnly bool) ([]string, error)
	}
)

func (o CCAROptions) Validate() error {
	if err := o.StoreOptions.Validate(); err != nil {
		return err
	}
	if o.Schema == "" {
		return &internal.MissingParameterError{Parameter: "schema"}
	}
	if o.Prefix == "" {
		return &internal.MissingParameterError{Parameter: "prefix"}
	}
	return nil
}

// LoadMetadataFile reads layer metadata from a YAML file holding a list of
// entries with the keys tablename, name, title and abstract. JSON, being
// YAML, is also accepted.
func LoadMetadataFile(path string) ([]postgis.Metadata, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading metadata file: %w", err)
	}
	var metadata []postgis.Metadata
	if err := yaml.Unmarshal(data, &metadata); err != nil {
		return nil, fmt.Errorf("parsing metadata file %s: %w", path, err)
	}
	return metadata, nil
}

// Publish publishes a layer for each table described by the metadata.
func (s *Service) Publish(ctx context.Context, opts PublishOptions, metadata []postgis.Metadata) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	s.logger.Info("publishing layers", "workspace", opts.Workspace, "store", opts.Store, "layers", len(metadata))

	batch := internal.BatchError{Action: "publishing layers", Total: len(metadata)}
	for _, m := range metadata {
		if err := s.publish(ctx, opts, m); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, "publishing layer", "table", m.TableName, "name", m.Name)
			batch.Add(m.TableName, err)
		}
	}
	return batch.Err()
}

// PublishCCAR publishes a layer for each table and view of a schema, named
// and described according to the EDGV conventions.
func (s *Service) PublishCCAR(ctx context.Context, db tableLister, opts CCAROptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	tables, err := db.ListTables(ctx, opts.Schema, false)
	if err != nil {
		return fmt.Errorf("listing tables of schema %s: %w", opts.Schema, err)
	}
	s.logger.Info("publishing layers", "schema", opts.Schema, "prefix", opts.Prefix, "workspace", opts.Workspace, "store", opts.Store, "tables", len(tables))

	batch := internal.BatchError{Action: "publishing layers", Total: len(tables)}
	for _, table := range tables {
		layer, err := ccar.NewLayer(opts.Prefix, table)
		if err == nil {
			err = s.publish(ctx, opts.PublishOptions, postgis.Metadata{
				TableName: layer.Table,
				Name:      layer.Name,
				Title:     layer.Title,
				Abstract:  layer.Abstract,
			})
		}
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, "publishing layer", "table", table)
			batch.Add(table, err)
		}
	}
	return batch.Err()
}

func (s *Service) publish(ctx context.Context, opts PublishOptions, m postgis.Metadata) error {
	if m.TableName == "" {
		return &internal.MissingParameterError{Parameter: "tablename"}
	}
	if m.Name == "" {
		return &internal.MissingParameterError{Parameter: "name"}
	}
	ft := geoserver.FeatureType{
		Name:       m.Name,
		NativeName: m.TableName,
		Title:      m.Title,
		Abstract:   m.Abstract,
	}
	if opts.NotAdvertised {
		ft.Advertised = internal.Ptr(false)
	}
	if err := s.client.CreateFeatureType(ctx, opts.Workspace, opts.Store, ft); err != nil {
		return err
	}
	s.logger.Info("published layer", "table", m.TableName, "name", m.Name, "title", m.Title, "advertised", !opts.NotAdvertised)
	return nil
}
