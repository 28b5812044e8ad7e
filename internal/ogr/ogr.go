// Package ogr runs the GDAL/OGR command line utilities ogr2ogr and ogrinfo.
package ogr

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"os/exec"
	"strings"

	"github.com/publibase/publibase/internal/logr"
	"github.com/spf13/pflag"
)

const (
	DefaultOgr2ogrPath = "ogr2ogr"
	DefaultOgrinfoPath = "ogrinfo"
)

// ErrInvalidDataset is returned when ogrinfo cannot read a dataset.
var ErrInvalidDataset = errors.New("invalid dataset")

type (
	Config struct {
		// Paths to the executables. Bare names are looked up in PATH.
		Ogr2ogrPath string
		OgrinfoPath string
	}

	// Runner runs ogr2ogr and ogrinfo.
	Runner struct {
		Config
		logger logr.Logger
	}
)

// NewConfigFromFlags adds ogr flags to the flagset; once the flagset is
// parsed the returned config is populated.
func NewConfigFromFlags(flags *pflag.FlagSet) *Config {
	cfg := Config{}
	flags.StringVar(&cfg.Ogr2ogrPath, "ogr2ogr", DefaultOgr2ogrPath, "Path to the ogr2ogr executable")
	flags.StringVar(&cfg.OgrinfoPath, "ogrinfo", DefaultOgrinfoPath, "Path to the ogrinfo executable")
	return &cfg
}

func NewRunner(logger logr.Logger, cfg Config) *Runner {
	if cfg.Ogr2ogrPath == "" {
		cfg.Ogr2ogrPath = DefaultOgr2ogrPath
	}
	if cfg.OgrinfoPath == "" {
		cfg.OgrinfoPath = DefaultOgrinfoPath
	}
	return &Runner{Config: cfg, logger: logger}
}

// Ogr2ogr runs ogr2ogr with the arguments of the command.
func (r *Runner) Ogr2ogr(ctx context.Context, cmd Command) error {
	r.logger.Info("running ogr2ogr", "args", cmd.String())
	_, err := r.execute(ctx, r.Ogr2ogrPath, cmd)
	return err
}

// Extent reads the extent of a dataset with ogrinfo. An error wrapping
// ErrInvalidDataset is returned if the dataset cannot be read or has no
// extent.
func (r *Runner) Extent(ctx context.Context, path string) (Extent, error) {
	cmd := Command{}
	cmd.add("-so", "-al", path)
	r.logger.V(1).Info("running ogrinfo", "args", cmd.String())

	out, err := r.execute(ctx, r.OgrinfoPath, cmd)
	if err != nil {
		if ctx.Err() != nil {
			return Extent{}, ctx.Err()
		}
		var exitErr *exec.ExitError
		if errors.As(err, &exitErr) {
			return Extent{}, fmt.Errorf("%w: %s: %w", ErrInvalidDataset, path, err)
		}
		return Extent{}, err
	}
	extent, err := ParseExtent(out)
	if err != nil {
		return Extent{}, fmt.Errorf("%w: %s: %w", ErrInvalidDataset, path, err)
	}
	return extent, nil
}

// execute runs a process, returning its stdout. Upon failure the error
// includes stderr.
func (r *Runner) execute(ctx context.Context, name string, cmd Command) ([]byte, error) {
	proc := exec.CommandContext(ctx, name, cmd.Args...)

	var stdout, stderr bytes.Buffer
	proc.Stdout = &stdout
	proc.Stderr = &stderr

	if err := proc.Run(); err != nil {
		if msg := cleanStderr(stderr.String()); msg != "" {
			return nil, fmt.Errorf("%s: %w: %s", name, err, msg)
		}
		return nil, fmt.Errorf("%s: %w", name, err)
	}
	if stderr.Len() > 0 {
		// warnings
		r.logger.V(1).Info("stderr", "cmd", name, "output", cleanStderr(stderr.String()))
	}
	return stdout.Bytes(), nil
}

// cleanStderr cleans up stderr output to make it suitable for logging:
// newlines and repeated whitespace are removed
func cleanStderr(stderr string) string {
	return strings.Join(strings.Fields(stderr), " ")
}
