// Package algorithm provides the common structure of publibase algorithms:
// each gathers its parameters from flags, calls out to GeoServer, PostGIS or
// ogr2ogr, logs its progress and reports a result.
package algorithm

import (
	"strings"

	"github.com/spf13/cobra"
)

const (
	GeoServerGroup    Group = "geoserver"
	ExportGroup       Group = "export"
	ReambulationGroup Group = "reambulation"
)

type (
	// Group is a set of related algorithms, each group being a subcommand.
	Group string

	Algorithm struct {
		// Name is a unique snake case identifier, e.g.
		// associate_layers_to_workspace_styles
		Name        string
		DisplayName string
		Group       Group
		Help        string
		// NewCommand constructs the command that runs the algorithm.
		NewCommand func(*Env) *cobra.Command
	}
)

// Groups lists the groups in the order they are presented.
var Groups = []Group{GeoServerGroup, ExportGroup, ReambulationGroup}

func (g Group) Short() string {
	switch g {
	case GeoServerGroup:
		return "Publish and manage layers and styles on GeoServer"
	case ExportGroup:
		return "Export PostGIS schemas"
	case ReambulationGroup:
		return "Exchange PostGIS schemas with field reambulation GeoPackages"
	default:
		return string(g)
	}
}

// CommandName is the name of the command running the algorithm, e.g.
// associate-layers-to-workspace-styles. Digits stay attached to their words:
// postgis_schema2geopackage becomes postgis-schema2geopackage.
func (a Algorithm) CommandName() string {
	return strings.ReplaceAll(a.Name, "_", "-")
}

// Command constructs the command for the algorithm, filling in its name and
// descriptions.
func (a Algorithm) Command(env *Env) *cobra.Command {
	cmd := a.NewCommand(env)
	cmd.Use = a.CommandName()
	if a.Name != cmd.Use {
		cmd.Aliases = append(cmd.Aliases, a.Name)
	}
	if cmd.Short == "" {
		cmd.Short = a.DisplayName
	}
	if cmd.Long == "" && a.Help != "" {
		cmd.Long = a.DisplayName + "\n\n" + a.Help
	}
	cmd.Args = cobra.NoArgs
	return cmd
}
