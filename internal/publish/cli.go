package publish

import (
	"context"
	"fmt"

	"github.com/publibase/publibase/internal/algorithm"
	"github.com/publibase/publibase/internal/logr"
	"github.com/publibase/publibase/internal/postgis"
	"github.com/spf13/cobra"
)

// Algorithms lists the GeoServer algorithms.
func Algorithms() []algorithm.Algorithm {
	return []algorithm.Algorithm{
		{
			Name:        "create_workspace",
			DisplayName: "Create Workspace",
			Group:       algorithm.GeoServerGroup,
			Help:        "Create a workspace in GeoServer.",
			NewCommand:  createWorkspaceCommand,
		},
		{
			Name:        "download_styles_from_workspace",
			DisplayName: "Download Styles From Workspace",
			Group:       algorithm.GeoServerGroup,
			Help:        "Download the styles of a workspace into a folder, one <style>.sld file per style.",
			NewCommand:  downloadStylesCommand,
		},
		{
			Name:        "upload_styles_to_workspace",
			DisplayName: "Upload Styles To Workspace",
			Group:       algorithm.GeoServerGroup,
			Help:        "Upload the .sld files of a folder to a workspace. Each style is named after its file.",
			NewCommand:  uploadStylesCommand,
		},
		{
			Name:        "delete_styles_from_workspace",
			DisplayName: "Delete Styles from Workspace",
			Group:       algorithm.GeoServerGroup,
			Help:        "Delete the styles of a workspace. A style used by a layer is not deleted unless --recurse is set.",
			NewCommand:  deleteStylesCommand,
		},
		{
			Name:        "associate_layers_to_workspace_styles",
			DisplayName: "Associate Layers to Workspace Styles",
			Group:       algorithm.GeoServerGroup,
			Help: "Associate, based on the names, the layers of a store with the styles of a workspace. " +
				"The default style of a layer becomes the style whose name is the longest substring of the layer name. " +
				"If more than one style meets this requirement, the last one listed is chosen. " +
				"Layers without a matching style are left untouched.",
			NewCommand: associateStylesCommand,
		},
		{
			Name:        "find_layers_without_workspace_style",
			DisplayName: "Find Layers without a Workspace Style",
			Group:       algorithm.GeoServerGroup,
			Help:        "Find the layers of a store whose default style isn't located in a certain workspace. The layers are saved to a text file, one per line.",
			NewCommand:  findLayersWithoutStyleCommand,
		},
		{
			Name:        "advertise_store_layers",
			DisplayName: "Advertise Store Layers",
			Group:       algorithm.GeoServerGroup,
			Help:        "Advertise all the layers of a store.",
			NewCommand:  advertiseCommand(true),
		},
		{
			Name:        "deadvertise_store_layers",
			DisplayName: "De-Advertise Store Layers",
			Group:       algorithm.GeoServerGroup,
			Help:        "De-advertise all the layers of a store.",
			NewCommand:  advertiseCommand(false),
		},
		{
			Name:        "replace_string_in_name_and_title_of_store_layers",
			DisplayName: "Replace String in Name and Title of Store Layers",
			Group:       algorithm.GeoServerGroup,
			Help:        "Replace all occurrences of a string in the names and titles of the layers of a store by another string.",
			NewCommand:  replaceStringCommand,
		},
		{
			Name:        "postgis2geoserver",
			DisplayName: "Publish from PostGIS to Geoserver",
			Group:       algorithm.GeoServerGroup,
			Help: "Publish layers from PostGIS to GeoServer according to metadata with the fields tablename, name, title and abstract. " +
				"The metadata is read from a YAML file or from a database table.",
			NewCommand: publishCommand,
		},
		{
			Name:        "postgis_schema2geoserver_ccar",
			DisplayName: "Publish from PostGIS Schema to Geoserver - CCAR",
			Group:       algorithm.GeoServerGroup,
			Help:        "Publish the tables of an EDGV PostGIS schema to GeoServer, naming and describing each layer according to its EDGV category, class and geometry.",
			NewCommand:  ccarCommand(false),
		},
		{
			Name:        "postgis_schema2geoserver_ccar_not_advertised",
			DisplayName: "Publish from PostGIS Schema to Geoserver - CCAR - Not Advertised",
			Group:       algorithm.GeoServerGroup,
			Help:        "Publish the tables of an EDGV PostGIS schema to GeoServer without advertising them.",
			NewCommand:  ccarCommand(true),
		},
	}
}

// run runs a GeoServer algorithm, constructing its service.
func run(cmd *cobra.Command, env *algorithm.Env, name string, fn func(context.Context, *Service) (algorithm.Result, error)) error {
	return env.Run(cmd, name, func(ctx context.Context, logger logr.Logger) (algorithm.Result, error) {
		client, err := env.GeoServerClient()
		if err != nil {
			return algorithm.Result{}, err
		}
		return fn(ctx, NewService(client, logger))
	})
}

func createWorkspaceCommand(env *algorithm.Env) *cobra.Command {
	var opts CreateWorkspaceOptions

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, "create_workspace", func(ctx context.Context, svc *Service) (algorithm.Result, error) {
				if err := svc.CreateWorkspace(ctx, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Workspace Created"), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "Name of the workspace to create")
	cmd.MarkFlagRequired("workspace")

	return cmd
}

func downloadStylesCommand(env *algorithm.Env) *cobra.Command {
	var opts DownloadStylesOptions

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, "download_styles_from_workspace", func(ctx context.Context, svc *Service) (algorithm.Result, error) {
				if err := svc.DownloadStyles(ctx, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Styles downloaded"), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "Workspace to download styles from")
	cmd.Flags().StringVar(&opts.Folder, "folder", "", "Folder to save styles to")
	cmd.Flags().StringVar(&opts.Match, "match", "", "Only download styles whose name matches this glob pattern")
	cmd.MarkFlagRequired("workspace")
	cmd.MarkFlagRequired("folder")

	return cmd
}

func uploadStylesCommand(env *algorithm.Env) *cobra.Command {
	var opts UploadStylesOptions

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, "upload_styles_to_workspace", func(ctx context.Context, svc *Service) (algorithm.Result, error) {
				if err := svc.UploadStyles(ctx, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Styles uploaded"), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "Workspace to upload styles to")
	cmd.Flags().StringVar(&opts.Folder, "folder", "", "Folder of .sld files")
	cmd.Flags().StringVar(&opts.Match, "match", "", "Only upload styles whose name matches this glob pattern")
	cmd.MarkFlagRequired("workspace")
	cmd.MarkFlagRequired("folder")

	return cmd
}

func deleteStylesCommand(env *algorithm.Env) *cobra.Command {
	var opts DeleteStylesOptions

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, "delete_styles_from_workspace", func(ctx context.Context, svc *Service) (algorithm.Result, error) {
				if err := svc.DeleteStyles(ctx, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Styles deleted"), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "Workspace to delete styles from")
	cmd.Flags().StringVar(&opts.Match, "match", "", "Only delete styles whose name matches this glob pattern")
	cmd.Flags().BoolVar(&opts.Recurse, "recurse", false, "Delete styles used by layers, reassigning the layers the default style")
	cmd.MarkFlagRequired("workspace")

	return cmd
}

func associateStylesCommand(env *algorithm.Env) *cobra.Command {
	var opts AssociateStylesOptions

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, "associate_layers_to_workspace_styles", func(ctx context.Context, svc *Service) (algorithm.Result, error) {
				if err := svc.AssociateStyles(ctx, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Styles associated"), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.LayersWorkspace, "layers-workspace", "", "Workspace of the layers")
	cmd.Flags().StringVar(&opts.LayersStore, "layers-store", "", "Store of the layers")
	cmd.Flags().StringVar(&opts.StylesWorkspace, "styles-workspace", "", "Workspace of the styles")
	cmd.Flags().BoolVar(&opts.DryRun, "dry-run", false, "Log the associations without changing any layer")
	cmd.MarkFlagRequired("layers-workspace")
	cmd.MarkFlagRequired("layers-store")
	cmd.MarkFlagRequired("styles-workspace")

	return cmd
}

func findLayersWithoutStyleCommand(env *algorithm.Env) *cobra.Command {
	var opts FindLayersWithoutStyleOptions

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, "find_layers_without_workspace_style", func(ctx context.Context, svc *Service) (algorithm.Result, error) {
				if _, err := svc.FindLayersWithoutStyle(ctx, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Algorithm Completed"), nil
			})
		},
	}

	cmd.Flags().StringVar(&opts.LayersWorkspace, "layers-workspace", "", "Workspace of the layers")
	cmd.Flags().StringVar(&opts.LayersStore, "layers-store", "", "Store of the layers")
	cmd.Flags().StringVar(&opts.StylesWorkspace, "styles-workspace", "", "Workspace of the styles")
	cmd.Flags().StringVar(&opts.OutputFile, "output-file", "", "Text file to write the layers found to")
	cmd.MarkFlagRequired("layers-workspace")
	cmd.MarkFlagRequired("layers-store")
	cmd.MarkFlagRequired("styles-workspace")
	cmd.MarkFlagRequired("output-file")

	return cmd
}

func advertiseCommand(advertised bool) func(*algorithm.Env) *cobra.Command {
	name, result := "advertise_store_layers", "Layers advertised"
	if !advertised {
		name, result = "deadvertise_store_layers", "Layers de-advertised"
	}
	return func(env *algorithm.Env) *cobra.Command {
		var opts StoreOptions

		cmd := &cobra.Command{
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, env, name, func(ctx context.Context, svc *Service) (algorithm.Result, error) {
					if err := svc.SetAdvertised(ctx, opts, advertised); err != nil {
						return algorithm.Result{}, err
					}
					return algorithm.NewResult(result), nil
				})
			},
		}

		addStoreFlags(cmd, &opts)

		return cmd
	}
}

func replaceStringCommand(env *algorithm.Env) *cobra.Command {
	var opts ReplaceStringOptions

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, "replace_string_in_name_and_title_of_store_layers", func(ctx context.Context, svc *Service) (algorithm.Result, error) {
				if err := svc.ReplaceString(ctx, opts); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Strings replaced"), nil
			})
		},
	}

	addStoreFlags(cmd, &opts.StoreOptions)
	cmd.Flags().StringVar(&opts.Find, "find", "", "String to find")
	cmd.Flags().StringVar(&opts.Replace, "replace", "", "String to replace it with")
	cmd.MarkFlagRequired("find")

	return cmd
}

func publishCommand(env *algorithm.Env) *cobra.Command {
	var (
		opts          PublishOptions
		metadataFile  string
		database      string
		metadataTable string
	)

	cmd := &cobra.Command{
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return run(cmd, env, "postgis2geoserver", func(ctx context.Context, svc *Service) (algorithm.Result, error) {
				var (
					metadata []postgis.Metadata
					err      error
				)
				if metadataFile != "" {
					metadata, err = LoadMetadataFile(metadataFile)
				} else {
					metadata, err = readMetadataTable(ctx, env, database, metadataTable)
				}
				if err != nil {
					return algorithm.Result{}, err
				}
				if err := svc.Publish(ctx, opts, metadata); err != nil {
					return algorithm.Result{}, err
				}
				return algorithm.NewResult("Layers Published"), nil
			})
		},
	}

	addStoreFlags(cmd, &opts.StoreOptions)
	cmd.Flags().BoolVar(&opts.NotAdvertised, "not-advertised", false, "Publish layers without advertising them")
	cmd.Flags().StringVar(&metadataFile, "metadata-file", "", "YAML file listing the tablename, name, title and abstract of each layer")
	cmd.Flags().StringVar(&database, "database", "", "Stored connection name or connection string of the database holding the metadata table")
	cmd.Flags().StringVar(&metadataTable, "metadata-table", "", "Table with the columns tablename, name, title and abstract, optionally schema qualified")
	cmd.MarkFlagsMutuallyExclusive("metadata-file", "metadata-table")
	cmd.MarkFlagsOneRequired("metadata-file", "metadata-table")
	cmd.MarkFlagsRequiredTogether("database", "metadata-table")

	return cmd
}

func readMetadataTable(ctx context.Context, env *algorithm.Env, database, table string) ([]postgis.Metadata, error) {
	db, _, err := env.Connect(ctx, database)
	if err != nil {
		return nil, err
	}
	defer db.Close()

	metadata, err := db.ReadMetadata(ctx, table)
	if err != nil {
		return nil, fmt.Errorf("reading metadata table %s: %w", table, err)
	}
	return metadata, nil
}

func ccarCommand(notAdvertised bool) func(*algorithm.Env) *cobra.Command {
	name := "postgis_schema2geoserver_ccar"
	if notAdvertised {
		name = "postgis_schema2geoserver_ccar_not_advertised"
	}
	return func(env *algorithm.Env) *cobra.Command {
		var (
			opts     = CCAROptions{PublishOptions: PublishOptions{NotAdvertised: notAdvertised}}
			database string
		)

		cmd := &cobra.Command{
			SilenceUsage:  true,
			SilenceErrors: true,
			RunE: func(cmd *cobra.Command, args []string) error {
				return run(cmd, env, name, func(ctx context.Context, svc *Service) (algorithm.Result, error) {
					if err := opts.Validate(); err != nil {
						return algorithm.Result{}, err
					}
					db, _, err := env.Connect(ctx, database)
					if err != nil {
						return algorithm.Result{}, err
					}
					defer db.Close()

					if err := svc.PublishCCAR(ctx, db, opts); err != nil {
						return algorithm.Result{}, err
					}
					return algorithm.NewResult("Layers Published"), nil
				})
			},
		}

		addStoreFlags(cmd, &opts.StoreOptions)
		cmd.Flags().StringVar(&database, "database", "", "Stored connection name or connection string of the database")
		cmd.Flags().StringVar(&opts.Schema, "schema", "", "Schema whose tables are published")
		cmd.Flags().StringVar(&opts.Prefix, "prefix", "", "Project prefix of layer names and titles, e.g. BC100_SE_2019")
		cmd.MarkFlagRequired("database")
		cmd.MarkFlagRequired("schema")
		cmd.MarkFlagRequired("prefix")

		return cmd
	}
}

func addStoreFlags(cmd *cobra.Command, opts *StoreOptions) {
	cmd.Flags().StringVar(&opts.Workspace, "workspace", "", "Workspace of the store")
	cmd.Flags().StringVar(&opts.Store, "store", "", "Name of the store")
	cmd.MarkFlagRequired("workspace")
	cmd.MarkFlagRequired("store")
}
