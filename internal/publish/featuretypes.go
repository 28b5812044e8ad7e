package publish

import (
	"context"
	"fmt"
	"strings"

	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/geoserver"
)

type (
	// StoreOptions identify a data store.
	StoreOptions struct {
		Workspace string
		Store     string
	}

	ReplaceStringOptions struct {
		StoreOptions
		// Find is replaced by Replace in the name and title of every layer.
		Find    string
		Replace string
	}
)

func (o StoreOptions) Validate() error {
	if o.Workspace == "" {
		return &internal.MissingParameterError{Parameter: "workspace"}
	}
	if o.Store == "" {
		return &internal.MissingParameterError{Parameter: "store"}
	}
	return nil
}

func (o ReplaceStringOptions) Validate() error {
	if err := o.StoreOptions.Validate(); err != nil {
		return err
	}
	if o.Find == "" {
		return &internal.MissingParameterError{Parameter: "find"}
	}
	return nil
}

// SetAdvertised advertises, or hides, every layer of the store in the
// capabilities documents of GeoServer's services.
func (s *Service) SetAdvertised(ctx context.Context, opts StoreOptions, advertised bool) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	layers, err := s.client.ListFeatureTypes(ctx, opts.Workspace, opts.Store)
	if err != nil {
		return fmt.Errorf("listing layers of store %s:%s: %w", opts.Workspace, opts.Store, err)
	}
	action := "advertising layers"
	if !advertised {
		action = "de-advertising layers"
	}
	s.logger.Info(action, "workspace", opts.Workspace, "store", opts.Store, "layers", len(layers))

	batch := internal.BatchError{Action: action, Total: len(layers)}
	for _, layer := range layers {
		err := s.client.UpdateFeatureType(ctx, opts.Workspace, opts.Store, layer, geoserver.FeatureType{
			Name:       layer,
			Advertised: internal.Ptr(advertised),
		})
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, action, "layer", layer)
			batch.Add(layer, err)
			continue
		}
		s.logger.Info("updated layer", "layer", layer, "advertised", advertised)
	}
	return batch.Err()
}

// ReplaceString replaces every occurrence of a string in the name and title
// of every layer of the store.
func (s *Service) ReplaceString(ctx context.Context, opts ReplaceStringOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	layers, err := s.client.ListFeatureTypes(ctx, opts.Workspace, opts.Store)
	if err != nil {
		return fmt.Errorf("listing layers of store %s:%s: %w", opts.Workspace, opts.Store, err)
	}

	batch := internal.BatchError{Action: "replacing strings", Total: len(layers)}
	for _, layer := range layers {
		if err := s.replaceString(ctx, opts, layer); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, "replacing string", "layer", layer)
			batch.Add(layer, err)
		}
	}
	return batch.Err()
}

func (s *Service) replaceString(ctx context.Context, opts ReplaceStringOptions, layer string) error {
	ft, err := s.client.GetFeatureType(ctx, opts.Workspace, opts.Store, layer)
	if err != nil {
		return err
	}
	name := strings.ReplaceAll(ft.Name, opts.Find, opts.Replace)
	title := strings.ReplaceAll(ft.Title, opts.Find, opts.Replace)
	if name == ft.Name && title == ft.Title {
		s.logger.V(1).Info("nothing to replace", "layer", layer)
		return nil
	}
	if name == "" {
		return fmt.Errorf("replacing %q with %q leaves an empty name", opts.Find, opts.Replace)
	}
	// an empty title is omitted from the update and so could not be applied
	if title == "" && ft.Title != "" {
		return fmt.Errorf("replacing %q with %q leaves an empty title", opts.Find, opts.Replace)
	}
	update := geoserver.FeatureType{Name: name, Title: title}
	if err := s.client.UpdateFeatureType(ctx, opts.Workspace, opts.Store, layer, update); err != nil {
		return err
	}
	s.logger.Info("replaced string", "name", ft.Name, "new_name", name, "title", ft.Title, "new_title", title)
	return nil
}
