package commands

import (
	"errors"
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"owndrob/internal/platform/postgres"
)

func newSchemaCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "schema",
		Short: "Manage the registry database schema",
	}

	cmd.AddCommand(&cobra.Command{
		Use:   "apply",
		Short: "Create registry tables and constraints if missing",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			url := serverConfig(v).DatabaseURL
			if url == "" {
				return errors.New("a database url is required (--database-url or DATABASE_URL)")
			}
			db, err := postgres.Open(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := postgres.ApplySchema(cmd.Context(), db); err != nil {
				return err
			}
			fmt.Fprintln(cmd.OutOrStdout(), "schema applied")
			return nil
		},
	})

	cmd.AddCommand(&cobra.Command{
		Use:   "print",
		Short: "Print the registry DDL",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			_, err := fmt.Fprint(cmd.OutOrStdout(), postgres.Schema())
			return err
		},
	})
	return cmd
}
