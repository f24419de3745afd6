// Package commands implements owndrobctl, the operator CLI for schema
// management, one-shot mirror reconciliation and audit inspection.
package commands

import (
	"errors"
	"fmt"
	"strings"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"

	"owndrob/internal/platform/config"
)

// Viper keys. Environment variables use the upper-cased key with dots
// replaced by underscores, so database_url reads DATABASE_URL.
const (
	keyDatabaseURL  = "database_url"
	keyObjectStore  = "object_store"
	keyPinataJWT    = "pinata_jwt"
	keyLogLevel     = "log_level"
	keyMirrorBatch  = "mirror_reconcile_batch"
	keyRedisURL     = "redis_url"
	keyKafkaBrokers = "kafka_brokers"
)

const (
	flagConfig      = "config"
	flagDatabaseURL = "database-url"
	flagObjectStore = "object-store"
	flagBatchSize   = "batch-size"
)

// NewRootCommand builds the command tree. Each call returns an independent
// tree with its own viper instance.
func NewRootCommand(version string) *cobra.Command {
	v := viper.New()

	root := &cobra.Command{
		Use:           "owndrobctl",
		Short:         "Operate an owndrob registry",
		Version:       version,
		SilenceErrors: true,
		SilenceUsage:  true,
		RunE: func(cmd *cobra.Command, _ []string) error {
			return cmd.Help()
		},
		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			return loadConfig(v, cmd)
		},
	}

	root.PersistentFlags().String(flagConfig, "", "path to a YAML config file")
	root.PersistentFlags().String(flagDatabaseURL, "", "PostgreSQL connection URL (env DATABASE_URL)")
	_ = v.BindPFlag(keyDatabaseURL, root.PersistentFlags().Lookup(flagDatabaseURL))

	root.AddCommand(newSchemaCommand(v), newReconcileCommand(v), newAuditCommand(v))
	return root
}

func loadConfig(v *viper.Viper, cmd *cobra.Command) error {
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_", "-", "_"))
	v.AutomaticEnv()

	path, _ := cmd.Flags().GetString(flagConfig)
	if path == "" {
		return nil
	}
	v.SetConfigFile(path)
	if err := v.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("read config %s: %w", path, err)
	}
	return nil
}

// serverConfig overlays viper values onto the environment defaults the
// server itself would use.
func serverConfig(v *viper.Viper) config.Server {
	cfg := config.FromEnv()
	if s := v.GetString(keyDatabaseURL); s != "" {
		cfg.DatabaseURL = s
	}
	if s := v.GetString(keyObjectStore); s != "" {
		cfg.ObjectStore.Backend = s
	}
	if s := v.GetString(keyPinataJWT); s != "" {
		cfg.ObjectStore.JWT = s
	}
	if s := v.GetString(keyLogLevel); s != "" {
		cfg.LogLevel = s
	}
	if s := v.GetString(keyRedisURL); s != "" {
		cfg.Redis.URL = s
	}
	if brokers := v.GetStringSlice(keyKafkaBrokers); len(brokers) > 0 {
		cfg.Audit.Brokers = brokers
	}
	if n := v.GetInt(keyMirrorBatch); n > 0 {
		cfg.Mirror.BatchSize = n
	}
	// The CLI never serves sessions; avoid requiring a session backend.
	cfg.SessionStore = config.SessionStoreMemory
	return cfg
}
