package export

import (
	"context"

	"github.com/publibase/publibase/internal/algorithm"
	"github.com/publibase/publibase/internal/logr"
	"github.com/spf13/cobra"
)

// Algorithms lists the export and reambulation algorithms.
func Algorithms() []algorithm.Algorithm {
	return []algorithm.Algorithm{
		{
			Name:        "postgis_schema2geopackage",
			DisplayName: "PostGIS Schema to Geopackage",
			Group:       algorithm.ExportGroup,
			Help:        "Export the layers in a PostGIS schema to a geopackage, optionally clipped by the geometries of a shapefile.",
			NewCommand:  geoPackageCommand,
		},
		{
			Name:        "postgis_schema2shapefile",
			DisplayName: "PostGIS Schema to Shapefile",
			Group:       algorithm.ExportGroup,
			Help:        "Export the layers in a PostGIS schema to a folder of shapefiles, optionally clipped by the geometries of a shapefile. List fields are exported as text.",
			NewCommand:  shapefileCommand,
		},
		{
			Name:        "postgis_schema2geopackage_reambulation",
			DisplayName: "Reambulation: PostGIS Schema to Geopackage",
			Group:       algorithm.ReambulationGroup,
			Help: "Export the layers in a PostGIS schema to a geopackage in order to do reambulation. " +
				"Only the features within the extent of the clip shapefile are exported, and array columns are written as array literals.",
			NewCommand: reambulationExportCommand,
		},
		{
			Name:        "geopackage2postgis_schema_reambulation",
			DisplayName: "Reambulation: Geopackage to PostGIS Schema",
			Group:       algorithm.ReambulationGroup,
			Help: "Import the non-empty layers of a reambulation geopackage into the tables of a PostGIS schema. " +
				"The word reamb must be part of the schema name.",
			NewCommand: reambulationImportCommand,
		},
	}
}

func newService(env *algorithm.Env, logger logr.Logger) *Service {
	return NewService(env.OGRRunner(), logger)
}

func geoPackageCommand(env *algorithm.Env) *cobra.Command {
	var (
		opts     GeoPackageOptions
		database string
	)

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Run(cmd, "postgis_schema2geopackage", func(ctx context.Context, logger logr.Logger) (algorithm.Result, error) {
				conn, _, err := env.ConnConfig(database)
				if err != nil {
					return algorithm.Result{}, err
				}
				if err := newService(env, logger).ExportGeoPackage(ctx, conn, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Exported"), nil
			})
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Stored connection name or connection string of the database")
	cmd.Flags().StringVar(&opts.Schema, "schema", DefaultSchema, "Schema to export")
	cmd.Flags().StringVar(&opts.Clip, "clip", "", "Shapefile whose geometries clip the exported features")
	cmd.Flags().StringVar(&opts.GeoPackage, "geopackage", "", "GeoPackage to export to")
	cmd.MarkFlagRequired("database")
	cmd.MarkFlagRequired("geopackage")

	return cmd
}

func shapefileCommand(env *algorithm.Env) *cobra.Command {
	var (
		opts     ShapefileOptions
		database string
	)

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Run(cmd, "postgis_schema2shapefile", func(ctx context.Context, logger logr.Logger) (algorithm.Result, error) {
				conn, _, err := env.ConnConfig(database)
				if err != nil {
					return algorithm.Result{}, err
				}
				if err := newService(env, logger).ExportShapefiles(ctx, conn, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Exported"), nil
			})
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Stored connection name or connection string of the database")
	cmd.Flags().StringVar(&opts.Schema, "schema", DefaultSchema, "Schema to export")
	cmd.Flags().StringVar(&opts.Clip, "clip", "", "Shapefile whose geometries clip the exported features")
	cmd.Flags().StringVar(&opts.Folder, "folder", "", "Folder to export shapefiles to")
	cmd.MarkFlagRequired("database")
	cmd.MarkFlagRequired("folder")

	return cmd
}

func reambulationExportCommand(env *algorithm.Env) *cobra.Command {
	var (
		opts     ReambulationExportOptions
		database string
	)

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Run(cmd, "postgis_schema2geopackage_reambulation", func(ctx context.Context, logger logr.Logger) (algorithm.Result, error) {
				if err := opts.Validate(); err != nil {
					return algorithm.Result{}, err
				}
				db, conn, err := env.Connect(ctx, database)
				if err != nil {
					return algorithm.Result{}, err
				}
				defer db.Close()

				if err := newService(env, logger).ExportReambulation(ctx, db, conn, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Exported"), nil
			})
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Stored connection name or connection string of the database")
	cmd.Flags().StringVar(&opts.Schema, "schema", DefaultSchema, "Schema to export")
	cmd.Flags().StringVar(&opts.Clip, "clip", "", "Shapefile whose extent restricts the exported features")
	cmd.Flags().StringVar(&opts.GeoPackage, "geopackage", "", "GeoPackage to export to")
	cmd.MarkFlagRequired("database")
	cmd.MarkFlagRequired("geopackage")

	return cmd
}

func reambulationImportCommand(env *algorithm.Env) *cobra.Command {
	var (
		opts     ReambulationImportOptions
		database string
	)

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return env.Run(cmd, "geopackage2postgis_schema_reambulation", func(ctx context.Context, logger logr.Logger) (algorithm.Result, error) {
				if err := opts.Validate(); err != nil {
					return algorithm.Result{}, err
				}
				db, conn, err := env.Connect(ctx, database)
				if err != nil {
					return algorithm.Result{}, err
				}
				defer db.Close()

				if err := newService(env, logger).ImportReambulation(ctx, db, conn, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Layers imported"), nil
			})
		},
	}

	cmd.Flags().StringVar(&database, "database", "", "Stored connection name or connection string of the database")
	cmd.Flags().StringVar(&opts.Schema, "schema", DefaultReambulationSchema, "Schema to import into; must contain the word reamb")
	cmd.Flags().StringVar(&opts.GeoPackage, "geopackage", "", "Reambulation GeoPackage to import")
	cmd.Flags().BoolVar(&opts.CleanSchema, "clean-schema", false, "Delete the rows of every table of the schema before importing")
	cmd.MarkFlagRequired("database")
	cmd.MarkFlagRequired("geopackage")

	return cmd
}
