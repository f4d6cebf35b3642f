package cmd

import (
	"context"

	"github.com/spf13/cobra"

	"github.com/oseayemenre/pagesy-reader/internal/config"
	"github.com/oseayemenre/pagesy-reader/internal/store"
)

func MigrateCommand(ctx context.Context) *cobra.Command {
	var env string

	cmd := &cobra.Command{
		Use:   "migrate",
		Short: "create the schema and seed genres",
		RunE: func(cmd *cobra.Command, args []string) error {
			logger, err := newLogger(env)
			if err != nil {
				return err
			}

			cfg, err := config.Load(envFile)
			if err != nil {
				return err
			}

			db, err := store.NewPostgresStore(cfg.Db_conn)
			if err != nil {
				return err
			}
			defer db.Close()

			if err := db.Migrate(ctx); err != nil {
				return err
			}

			logger.Info("migrate", "status", "schema up to date")
			return nil
		},
	}

	cmd.Flags().StringVarP(&env, "env", "e", "dev", "current working environment")

	return cmd
}
