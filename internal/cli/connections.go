package cli

import (
	"fmt"

	"github.com/publibase/publibase/internal/algorithm"
	"github.com/publibase/publibase/internal/postgis"
	"github.com/spf13/cobra"
)

func connectionsCommand(env *algorithm.Env) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "connections",
		Short: "Database connection management",
	}

	cmd.AddCommand(connectionsAddCommand(env))
	cmd.AddCommand(connectionsListCommand(env))
	cmd.AddCommand(connectionsRemoveCommand(env))

	return cmd
}

func connectionsAddCommand(env *algorithm.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "add <name> <connection-string>",
		Short: "Save a database connection under a name",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.ConnectionStore()
			if err != nil {
				return err
			}
			if err := store.Add(args[0], args[1]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Saved connection %s\n", args[0])
			return nil
		},
	}
}

func connectionsListCommand(env *algorithm.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List saved database connections",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.ConnectionStore()
			if err != nil {
				return err
			}
			conns, err := store.List()
			if err != nil {
				return err
			}
			for _, conn := range conns {
				// never print passwords
				cfg, err := postgis.ParseConnConfig(conn.ConnString)
				if err != nil {
					fmt.Fprintf(cmd.OutOrStdout(), "%s\t<invalid: %s>\n", conn.Name, err)
					continue
				}
				fmt.Fprintf(cmd.OutOrStdout(), "%s\t%s\n", conn.Name, cfg.Redacted().DSN())
			}
			return nil
		},
	}
}

func connectionsRemoveCommand(env *algorithm.Env) *cobra.Command {
	return &cobra.Command{
		Use:   "remove <name>",
		Short: "Remove a saved database connection",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			store, err := env.ConnectionStore()
			if err != nil {
				return err
			}
			if err := store.Remove(args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Removed connection %s\n", args[0])
			return nil
		},
	}
}
