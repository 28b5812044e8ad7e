package publish

import (
	"context"
	"fmt"
	"os"

	"github.com/dustin/go-humanize"
	"github.com/publibase/publibase/internal"
	"github.com/publibase/publibase/internal/style"
)

type (
	CreateWorkspaceOptions struct {
		Workspace string
	}

	DownloadStylesOptions struct {
		Workspace string
		// Folder to write <style>.sld files to. Created if it doesn't exist.
		Folder string
		// Glob selecting styles by name; empty selects all.
		Match string
	}

	UploadStylesOptions struct {
		Workspace string
		// Folder of .sld files; each file's basename is its style name.
		Folder string
		// Glob selecting files by style name; empty selects all.
		Match string
	}

	DeleteStylesOptions struct {
		Workspace string
		// Glob selecting styles by name; empty selects all.
		Match string
		// Reassign layers using a deleted style to the default style rather
		// than refusing to delete the style.
		Recurse bool
	}
)

func (o CreateWorkspaceOptions) Validate() error {
	if o.Workspace == "" {
		return &internal.MissingParameterError{Parameter: "workspace"}
	}
	return nil
}

func (o DownloadStylesOptions) Validate() error {
	if o.Workspace == "" {
		return &internal.MissingParameterError{Parameter: "workspace"}
	}
	if o.Folder == "" {
		return &internal.MissingParameterError{Parameter: "folder"}
	}
	return nil
}

func (o UploadStylesOptions) Validate() error {
	if o.Workspace == "" {
		return &internal.MissingParameterError{Parameter: "workspace"}
	}
	if o.Folder == "" {
		return &internal.MissingParameterError{Parameter: "folder"}
	}
	return nil
}

func (o DeleteStylesOptions) Validate() error {
	if o.Workspace == "" {
		return &internal.MissingParameterError{Parameter: "workspace"}
	}
	return nil
}

func (s *Service) CreateWorkspace(ctx context.Context, opts CreateWorkspaceOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	if err := s.client.CreateWorkspace(ctx, opts.Workspace); err != nil {
		return fmt.Errorf("creating workspace %s: %w", opts.Workspace, err)
	}
	s.logger.Info("created workspace", "workspace", opts.Workspace)
	return nil
}

// DownloadStyles writes the SLD of each style of the workspace to the folder.
func (s *Service) DownloadStyles(ctx context.Context, opts DownloadStylesOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	filter, err := style.NewFilter(opts.Match)
	if err != nil {
		return err
	}
	styles, err := s.client.ListStyles(ctx, opts.Workspace)
	if err != nil {
		return fmt.Errorf("listing styles of workspace %s: %w", opts.Workspace, err)
	}
	styles = filter.Apply(styles)
	s.logger.Info("downloading styles", "workspace", opts.Workspace, "match", filter, "styles", len(styles))

	if err := os.MkdirAll(opts.Folder, 0o755); err != nil {
		return err
	}
	batch := internal.BatchError{Action: "downloading styles", Total: len(styles)}
	for _, name := range styles {
		path, size, err := s.downloadStyle(ctx, opts.Workspace, opts.Folder, name)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, "downloading style", "style", name)
			batch.Add(name, err)
			continue
		}
		s.logger.Info("downloaded style", "style", name, "path", path, "size", humanize.Bytes(uint64(size)))
	}
	return batch.Err()
}

// UploadStyles creates a workspace style from each SLD file in the folder.
func (s *Service) UploadStyles(ctx context.Context, opts UploadStylesOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	filter, err := style.NewFilter(opts.Match)
	if err != nil {
		return err
	}
	files, err := style.ListSLDFiles(opts.Folder, filter)
	if err != nil {
		return err
	}
	s.logger.Info("uploading styles", "workspace", opts.Workspace, "folder", opts.Folder, "match", filter, "styles", len(files))

	batch := internal.BatchError{Action: "uploading styles", Total: len(files)}
	for _, file := range files {
		size, err := s.uploadStyle(ctx, opts.Workspace, file)
		if err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, "uploading style", "style", file.Name, "path", file.Path)
			batch.Add(file.Name, err)
			continue
		}
		s.logger.Info("uploaded style", "style", file.Name, "size", humanize.Bytes(uint64(size)))
	}
	return batch.Err()
}

// DeleteStyles deletes the styles of the workspace.
func (s *Service) DeleteStyles(ctx context.Context, opts DeleteStylesOptions) error {
	if err := opts.Validate(); err != nil {
		return err
	}
	filter, err := style.NewFilter(opts.Match)
	if err != nil {
		return err
	}
	styles, err := s.client.ListStyles(ctx, opts.Workspace)
	if err != nil {
		return fmt.Errorf("listing styles of workspace %s: %w", opts.Workspace, err)
	}
	styles = filter.Apply(styles)
	s.logger.Info("deleting styles", "workspace", opts.Workspace, "match", filter, "styles", len(styles), "recurse", opts.Recurse)

	batch := internal.BatchError{Action: "deleting styles", Total: len(styles)}
	for _, name := range styles {
		if err := s.client.DeleteStyle(ctx, opts.Workspace, name, opts.Recurse); err != nil {
			if ctx.Err() != nil {
				return ctx.Err()
			}
			s.logger.Error(err, "deleting style", "style", name)
			batch.Add(name, err)
			continue
		}
		s.logger.Info("deleted style", "style", name)
	}
	return batch.Err()
}

func (s *Service) downloadStyle(ctx context.Context, workspace, folder, name string) (string, int, error) {
	sld, err := s.client.GetStyleSLD(ctx, workspace, name)
	if err != nil {
		return "", 0, err
	}
	path, err := style.WriteSLD(folder, name, sld)
	if err != nil {
		return "", 0, err
	}
	return path, len(sld), nil
}

// uploadStyle uploads the SLD file zipped, returning the size of the zip.
func (s *Service) uploadStyle(ctx context.Context, workspace string, file style.SLDFile) (int, error) {
	zip, err := file.Zip()
	if err != nil {
		return 0, err
	}
	if err := s.client.UploadStyleZip(ctx, workspace, file.Name, zip); err != nil {
		return 0, err
	}
	return len(zip), nil
}
