package main

import (
	"fmt"

	"github.com/mahidhar9542/mortgage-app/internal/config"
	"github.com/mahidhar9542/mortgage-app/internal/infra/database"
	"github.com/spf13/cobra"
)

func newMigrateCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Apply pending database migrations",
		Long:  "Connects to DATABASE_URL and applies the embedded migrations that have not run yet.",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			cfg := config.Load()
			logger := opts.logger()
			defer func() { _ = logger.Sync() }()

			db, err := database.NewDBConnection(cmd.Context(), cfg.DatabaseURL)
			if err != nil {
				return fmt.Errorf("connect database: %w", err)
			}
			defer db.Close()

			if err := database.RunMigrations(cmd.Context(), db); err != nil {
				return fmt.Errorf("run migrations: %w", err)
			}
			logger.Infow("migrations applied")
			fmt.Fprintln(cmd.OutOrStdout(), "Migrations applied.")
			return nil
		},
	}
}
