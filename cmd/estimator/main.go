// Command estimator drives the car cost estimator from the terminal: brand and
// model lookups, estimates, buy-versus-rent comparisons and the study archive.
package main

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"car-cost-estimator/internal/archive"
	"car-cost-estimator/internal/client"
	"car-cost-estimator/internal/config"
)

const (
	Version = "0.1.0"
	appName = "estimator"
)

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	if err := rootCmd().ExecuteContext(ctx); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

// app carries the global flags and what is built from them.
type app struct {
	configPath string
	logLevel   string
	apiURL     string
	backend    string

	cfg    *config.Config
	logger *slog.Logger
}

func rootCmd() *cobra.Command {
	a := &app{}

	cmd := &cobra.Command{
		Use:           appName,
		Short:         "Estimate the monthly cost of owning a car",
		SilenceUsage:  true,
		SilenceErrors: true,
		PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
			return a.setup(cmd.ErrOrStderr())
		},
	}

	cmd.PersistentFlags().StringVarP(&a.configPath, "config", "c", "", "Config file path (YAML)")
	cmd.PersistentFlags().StringVar(&a.logLevel, "log-level", "", "Log level (debug, info, warn, error)")
	cmd.PersistentFlags().StringVar(&a.apiURL, "api-url", "", "Pricing service base URL")
	cmd.PersistentFlags().StringVar(&a.backend, "archive", "", "Archive backend (file, memory, redis, postgres, sqlite)")

	cmd.AddCommand(
		a.brandsCmd(),
		a.modelsCmd(),
		a.estimateCmd(),
		a.breakEvenCmd(),
		a.studiesCmd(),
		&cobra.Command{
			Use:   "version",
			Short: "Print version information",
			Run: func(cmd *cobra.Command, args []string) {
				fmt.Fprintf(cmd.OutOrStdout(), "%s version %s\n", appName, Version)
			},
		},
	)

	return cmd
}

// setup loads the configuration; flags win over the file and the environment.
func (a *app) setup(stderr io.Writer) error {
	cfg, err := config.Load(a.configPath)
	if err != nil {
		return err
	}
	if a.logLevel != "" {
		cfg.LogLevel = a.logLevel
	}
	if a.apiURL != "" {
		cfg.Pricing.URL = a.apiURL
	}
	if a.backend != "" {
		cfg.Archive.Backend = a.backend
		if err := cfg.Validate(); err != nil {
			return err
		}
	}

	a.cfg = cfg
	a.logger = slog.New(slog.NewTextHandler(stderr, &slog.HandlerOptions{Level: cfg.SlogLevel()}))
	slog.SetDefault(a.logger)
	return nil
}

func (a *app) pricing() *client.PricingClient {
	return client.NewPricingClient(a.cfg.Pricing.URL,
		client.WithHTTPClient(&http.Client{Timeout: a.cfg.Pricing.Timeout}),
		client.WithRateLimit(a.cfg.Pricing.LookupRateLimit),
		client.WithLogger(a.logger),
	)
}

func (a *app) openArchive(ctx context.Context) (*archive.Archive, error) {
	store, err := archive.OpenStore(ctx, a.cfg, a.logger)
	if err != nil {
		return nil, err
	}
	return archive.New(store,
		archive.WithCapacity(a.cfg.Archive.Capacity),
		archive.WithLogger(a.logger),
	), nil
}

func printJSON(w io.Writer, v interface{}) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")
	return enc.Encode(v)
}
