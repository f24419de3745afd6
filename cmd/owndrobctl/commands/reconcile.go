package commands

import (
	"fmt"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"owndrob/internal/app"
	"owndrob/internal/platform/logger"
)

func newReconcileCommand(v *viper.Viper) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "reconcile",
		Short: "Run reconciliation passes on demand",
	}

	mirrors := &cobra.Command{
		Use:   "mirrors",
		Short: "Mirror one batch of claims still missing their object store record",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := serverConfig(v)
			log := logger.New(cfg.LogLevel)

			a, err := app.Build(cmd.Context(), cfg, log)
			if err != nil {
				return err
			}
			defer a.Close()

			res, err := a.Reconciler.RunOnce(cmd.Context())
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "pending=%d mirrored=%d failed=%d\n", res.Pending, res.Mirrored, res.Failed)
			return nil
		},
	}
	mirrors.Flags().Int(flagBatchSize, 0, "claims to process (env MIRROR_RECONCILE_BATCH)")
	_ = v.BindPFlag(keyMirrorBatch, mirrors.Flags().Lookup(flagBatchSize))
	mirrors.Flags().String(flagObjectStore, "", "object store backend: pinata or memory (env OBJECT_STORE)")
	_ = v.BindPFlag(keyObjectStore, mirrors.Flags().Lookup(flagObjectStore))

	cmd.AddCommand(mirrors)
	return cmd
}
