// Package cli provides the CLI application, i.e. the `publibase` binary.
package cli

import (
	"context"
	"fmt"
	"io"

	"github.com/pkg/errors"
	cmdutil "github.com/publibase/publibase/cmd"
	"github.com/publibase/publibase/internal/algorithm"
	"github.com/publibase/publibase/internal/export"
	"github.com/publibase/publibase/internal/geoserver"
	"github.com/publibase/publibase/internal/logr"
	"github.com/publibase/publibase/internal/ogr"
	"github.com/publibase/publibase/internal/postgis"
	"github.com/publibase/publibase/internal/publish"
	"github.com/spf13/cobra"
)

// CLI is the `publibase` cli application
type CLI struct {
	// Directories locates the connection store; defaults to the user's home
	// directory.
	Directories postgis.Directories
	// Logs defaults to stderr.
	Logs io.Writer
}

func NewCLI() *CLI {
	return &CLI{Directories: postgis.OSDirectories}
}

// Algorithms is the registry of every algorithm.
func Algorithms() []algorithm.Algorithm {
	var algs []algorithm.Algorithm
	algs = append(algs, publish.Algorithms()...)
	algs = append(algs, export.Algorithms()...)
	return algs
}

func (a *CLI) Run(ctx context.Context, args []string, out io.Writer) error {
	var (
		env       = &algorithm.Env{Logger: logr.Discard(), Directories: a.Directories}
		loggerCfg = logr.Config{Output: a.Logs}
	)

	cmd := &cobra.Command{
		Use:           "publibase",
		Short:         "Publish PostGIS layers on GeoServer and exchange them with GeoPackages",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			if err := cmdutil.SetFlagsFromEnvVariables(cmd.Flags()); err != nil {
				return errors.Wrap(err, "failed to populate config from environment vars")
			}
			logger, err := logr.New(&loggerCfg)
			if err != nil {
				return err
			}
			env.Logger = logger
			return nil
		},
	}

	env.GeoServer = geoserver.NewConfigFromFlags(cmd.PersistentFlags())
	env.OGR = ogr.NewConfigFromFlags(cmd.PersistentFlags())
	logr.LoadConfigFromFlags(cmd.PersistentFlags(), &loggerCfg)

	cmd.SetArgs(args)
	cmd.SetOut(out)

	algs := Algorithms()
	for _, group := range algorithm.Groups {
		groupCmd := &cobra.Command{
			Use:   string(group),
			Short: group.Short(),
		}
		for _, alg := range algs {
			if alg.Group == group {
				groupCmd.AddCommand(alg.Command(env))
			}
		}
		cmd.AddCommand(groupCmd)
	}
	cmd.AddCommand(algorithmsCommand(algs))
	cmd.AddCommand(connectionsCommand(env))

	return cmd.ExecuteContext(ctx)
}

func algorithmsCommand(algs []algorithm.Algorithm) *cobra.Command {
	return &cobra.Command{
		Use:   "algorithms",
		Short: "List algorithms",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			for _, alg := range algs {
				fmt.Fprintf(cmd.OutOrStdout(), "%-14s %-48s %s\n", alg.Group, alg.CommandName(), alg.DisplayName)
			}
			return nil
		},
	}
}
