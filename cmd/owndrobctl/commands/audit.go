package commands

import (
	"encoding/json"
	"errors"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"owndrob/internal/platform/postgres"
	auditpg "owndrob/pkg/platform/audit/store/postgres"
)

func newAuditCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "audit",
		Short: "Inspect the persisted audit trail",
	}

	var limit int
	list := &cobra.Command{
		Use:   "list <subject>",
		Short: "Print recent audit events for an identity, newest first, as JSON lines",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			url := serverConfig(v).DatabaseURL
			if url == "" {
				return errors.New("a database url is required (--database-url or DATABASE_URL)")
			}
			db, err := postgres.Open(cmd.Context(), url)
			if err != nil {
				return err
			}
			defer db.Close()

			events, err := auditpg.New(db).ListBySubject(cmd.Context(), args[0], limit)
			if err != nil {
				return err
			}
			enc := json.NewEncoder(cmd.OutOrStdout())
			for _, e := range events {
				if err := enc.Encode(e); err != nil {
					return err
				}
			}
			return nil
		},
	}
	list.Flags().IntVar(&limit, "limit", 50, "maximum events to print")

	cmd.AddCommand(list)
	return cmd
}
