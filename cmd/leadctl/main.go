// Command leadctl is the operator and applicant CLI: it runs the application
// wizard against the API, applies migrations and refreshes the rate table.
package main

import (
	"context"
	"fmt"
	"os"
	"os/signal"
	"syscall"

	"github.com/mahidhar9542/mortgage-app/pkg/logging"
	"github.com/spf13/cobra"
)

type globalOptions struct {
	apiURL   string
	logLevel string
}

func newRootCmd() *cobra.Command {
	opts := &globalOptions{}

	root := &cobra.Command{
		Use:           "leadctl",
		Short:         "Mortgage application and lead administration tool",
		SilenceUsage:  true,
		SilenceErrors: true,
	}
	root.PersistentFlags().StringVar(&opts.apiURL, "api-url", envOr("LEAD_API_URL", "http://localhost:8080"), "Base URL of the lead API")
	root.PersistentFlags().StringVar(&opts.logLevel, "log-level", envOr("LOG_LEVEL", "warn"), "Log level (debug, info, warn, error)")

	root.AddCommand(newApplyCmd(opts))
	root.AddCommand(newMigrateCmd(opts))
	root.AddCommand(newRatesCmd(opts))
	return root
}

func (o *globalOptions) logger() *logging.Logger {
	return logging.New(o.logLevel)
}

func envOr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
