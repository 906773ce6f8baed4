package main

import (
	"fmt"
	"io"
	"text/tabwriter"

	"github.com/mahidhar9542/mortgage-app/internal/config"
	"github.com/mahidhar9542/mortgage-app/internal/entity"
	"github.com/mahidhar9542/mortgage-app/internal/infra/cache"
	"github.com/mahidhar9542/mortgage-app/internal/infra/database"
	"github.com/mahidhar9542/mortgage-app/internal/infra/integration/leadapi"
	"github.com/mahidhar9542/mortgage-app/internal/usecase"
	"github.com/redis/go-redis/v9"
	"github.com/spf13/cobra"
)

func newRatesCmd(opts *globalOptions) *cobra.Command {
	cmd := &cobra.Command{
		Use:   "rates",
		Short: "Inspect and refresh mortgage rates",
	}
	cmd.AddCommand(newRatesRefreshCmd(opts), newRatesShowCmd(opts), newRatesSubscribeCmd(opts))
	return cmd
}

// newRatesRefreshCmd regenerates the rate table directly in the database, the
// same job the API scheduler runs daily.
func newRatesRefreshCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "refresh",
		Short: "Regenerate the rate table in the database",
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

			var rateCache usecase.RateCache = cache.NoopRateCache{}
			if cfg.RedisAddr != "" {
				client := redis.NewClient(&redis.Options{Addr: cfg.RedisAddr, Password: cfg.RedisPassword})
				defer client.Close()
				rateCache = cache.NewRateCache(client, cfg.RatesCacheTTL)
			}

			uc := usecase.NewRateUseCase(database.NewRateRepository(db), rateCache, nil, nil, logger)
			rates, err := uc.Refresh(cmd.Context())
			if err != nil {
				return err
			}
			return printRates(cmd.OutOrStdout(), rates)
		},
	}
}

func newRatesShowCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "show",
		Short: "Print the current rate table from the API",
		Args:  cobra.NoArgs,
		RunE: func(cmd *cobra.Command, _ []string) error {
			rates, err := leadapi.NewClient(opts.apiURL, nil).CurrentRates(cmd.Context())
			if err != nil {
				return err
			}
			return printRates(cmd.OutOrStdout(), rates)
		},
	}
}

func newRatesSubscribeCmd(opts *globalOptions) *cobra.Command {
	return &cobra.Command{
		Use:   "subscribe EMAIL",
		Short: "Subscribe an email address to rate alerts",
		Args:  cobra.ExactArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if err := leadapi.NewClient(opts.apiURL, nil).SubscribeToRates(cmd.Context(), args[0]); err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Subscribed %s to rate alerts.\n", args[0])
			return nil
		},
	}
}

func printRates(w io.Writer, rates []entity.Rate) error {
	tw := tabwriter.NewWriter(w, 0, 4, 2, ' ', 0)
	fmt.Fprintln(tw, "PRODUCT\tRATE\tAPR\tPOINTS")
	for _, r := range rates {
		fmt.Fprintf(tw, "%s\t%.3f%%\t%.3f%%\t%.2f\n", r.DisplayTerm(), r.Rate, r.APR, r.Points)
	}
	return tw.Flush()
}
