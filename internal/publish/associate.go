package publish

import (
	"context"
	"fmt"
	"os"
	"strings"

	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/geoserver"
	"github.com/publibase/publibase/internal/style"
)

type (
	AssociateStylesOptions struct {
		// Workspace and store of the layers
		LayersWorkspace string
		LayersStore     string
		// Workspace of the styles
		StylesWorkspace string
		// Log the associations without changing any layer.
		DryRun bool
	}

	FindLayersWithoutStyleOptions struct {
		// Workspace and store of the layers
		LayersWorkspace string
		LayersStore     string
		// Workspace the default style of each layer is expected to belong to
		StylesWorkspace string
		// File to write the layers found to, one per line.
		OutputFile string
	}
)

func (o AssociateStylesOptions) Validate() error {
	if o.LayersWorkspace == "" {
		return &internal.MissingParameterError{Parameter: "layers-workspace"}
	}
	if o.LayersStore == "" {
		return &internal.MissingParameterError{Parameter: "layers-store"}
	}
	if o.StylesWorkspace == "" {
		return &internal.MissingParameterError{Parameter: "styles-workspace"}
	}
	return nil
}

func (o FindLayersWithoutStyleOptions) Validate() error {
	if o.LayersWorkspace == "" {
		return &internal.MissingParameterError{Parameter: "layers-workspace"}
	}
	if o.LayersStore == "" {
		return &internal.MissingParameterError{Parameter: "layers-store"}
	}
	if o.StylesWorkspace == "" {
		return &internal.MissingParameterError{Parameter: "styles-workspace"}
	}
	if o.OutputFile == "" {
		return &internal.MissingParameterError{Parameter: "output-file"}
	}
	return nil
}

// AssociateStyles sets the default style of each layer of a store to the
// style of the styles workspace whose name is the longest substring of the
// layer name. Layers without a matching style are left untouched.
func (s *Service) AssociateStyles(ctx context.Context, opts AssociateStylesOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	layers, err := s.client.ListFeatureTypes(ctx, opts.LayersWorkspace, opts.LayersStore)
	if err != nil {
		return fmt.Errorf("listing layers of store %s:%s: %w", opts.LayersWorkspace, opts.LayersStore, err)
	}
	styles, err := s.client.ListStyles(ctx, opts.StylesWorkspace)
	if err != nil {
		return fmt.Errorf("listing styles of workspace %s: %w", opts.StylesWorkspace, err)
	}
	associations := style.Match(layers, styles)

	batch := internal.BatchError{Action: "associating styles", Total: len(layers)}
	for _, layer := range layers {
		match := associations[layer]
		if match == nil {
			s.logger.Info("no matching style", "layer", layer)
			continue
		}
		qualified := geoserver.QualifiedStyleName(opts.StylesWorkspace, *match)
		if opts.DryRun {
			s.logger.Info("would associate style", "layer", layer, "style", qualified)
			continue
		}
		if err := s.client.SetLayerDefaultStyle(ctx, opts.LayersWorkspace, layer, opts.StylesWorkspace, *match); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, "associating style", "layer", layer, "style", qualified)
			batch.Add(layer, err)
			continue
		}
		s.logger.Info("associated style", "layer", layer, "style", qualified)
	}
	return batch.Err()
}

// FindLayersWithoutStyle finds the layers of a store whose default style does
// not belong to the styles workspace, writing them to the output file. Layers
// with a global style or no default style are included.
func (s *Service) FindLayersWithoutStyle(ctx context.Context, opts FindLayersWithoutStyleOptions) ([]string, error) {
	if err := opts.Validate(); err != nil {
		return nil, err
	}
	layers, err := s.client.ListFeatureTypes(ctx, opts.LayersWorkspace, opts.LayersStore)
	if err != nil {
		return nil, fmt.Errorf("listing layers of store %s:%s: %w", opts.LayersWorkspace, opts.LayersStore, err)
	}

	var found []string
	batch := internal.BatchError{Action: "retrieving default styles", Total: len(layers)}
	for _, layer := range layers {
		defaultStyle, err := s.client.GetLayerDefaultStyle(ctx, opts.LayersWorkspace, layer)
		if err != nil {
			if ctx.Err() != nil {
				return nil, ctx.Err()
			}
			s.logger.Error(err, "retrieving default style", "layer", layer)
			batch.Add(layer, err)
			continue
		}
		if !inWorkspace(defaultStyle, opts.StylesWorkspace) {
			s.logger.Info("found layer without workspace style", "layer", layer, "style", defaultStyle)
			found = append(found, layer)
		}
	}

	var b strings.Builder
	for _, layer := range found {
		b.WriteString(layer + "\n")
	}
	if err := os.WriteFile(opts.OutputFile, []byte(b.String()), 0o644); err != nil {
		return nil, err
	}
	s.logger.Info("wrote layers", "path", opts.OutputFile, "layers", len(found))
	return found, batch.Err()
}

// inWorkspace reports whether the qualified style name belongs to the
// workspace. An unqualified name is a global style and belongs to no
// workspace.
func inWorkspace(qualified, workspace string) bool {
	styleWorkspace, _, found := strings.Cut(qualified, ":")
	return found && styleWorkspace == workspace
}
