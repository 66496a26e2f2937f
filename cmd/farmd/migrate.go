package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"yieldfarm/internal/config"
	"yieldfarm/internal/storage/postgres"
)

func newMigrateCmd() *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create the Postgres ledger tables",
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg, logger, err := loadConfig(cmd)
			if err != nil {
				return err
			}
			defer logger.Sync()
			if cfg.Store != config.StorePostgres {
				return fmt.Errorf("migrate requires --store postgres")
			}

			ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			store, err := postgres.NewStore(ctx, cfg.PGDSN, postgres.Options{
				MaxRetries:   cfg.MaxRetries,
				RetryBackoff: cfg.RetryBackoff,
				Logger:       logger,
			})
			if err != nil {
				return fmt.Errorf("connect postgres: %w", err)
			}
			defer store.Close()

			if err := store.Migrate(ctx); err != nil {
				return err
			}
			logger.Info("schema applied")
			return nil
		},
	}
}
