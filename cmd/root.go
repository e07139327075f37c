// Package cmd defines and implements the CLI commands for the novelbind
// executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"novelbind/internal/clock"
	"novelbind/internal/config"
	"novelbind/internal/logging"
	"novelbind/internal/persist"
)

var cfgFile string

// appKeyType is the key for storing the app in the context.
type appKeyType string

const appKey appKeyType = "app"

// app bundles the services every subcommand needs. It is built once in the
// root command's PersistentPreRunE and released in PersistentPostRun.
type app struct {
	cfg    config.Config
	logger *zap.Logger
	clock  clock.Clock
	store  *persist.Store
}

// newApp is the application factory. It's a variable so tests can replace
// it with a factory returning stub services.
var newApp = func(ctx context.Context) (*app, error) {
	cfg, err := config.Load(cfgFile)
	if err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}

	logger, err := logging.New(cfg.Logging.Development)
	if err != nil {
		return nil, fmt.Errorf("init logger: %w", err)
	}

	clk := clock.NewSystem()

	// A broken store degrades its write path; everything else still runs.
	store, err := persist.OpenStore(ctx, cfg.Store.URI, clk)
	if err != nil {
		logger.Warn("chapter store unavailable; continuing with files only",
			zap.Error(err),
		)
		store = nil
	}

	return &app{cfg: cfg, logger: logger, clock: clk, store: store}, nil
}

// close releases the app's services.
func (a *app) close(ctx context.Context) {
	if a.store.Available() {
		if err := a.store.Close(ctx); err != nil {
			a.logger.Warn("closing store", zap.Error(err))
		}
	}
	_ = a.logger.Sync()
}

// newRootCmd creates and configures the root command.
func newRootCmd() *cobra.Command {
	cmd := &cobra.Command{
		Use:   "novelbind",
		Short: "A serialized-fiction scraper and EPUB binder.",
		Long: `novelbind follows one serialized web novel: it discovers newly released
chapters from the fiction's index page, fetches and normalizes them with a
bounded worker pool, records each one durably, and packages the collected
chapters into a single EPUB volume.`,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			a, err := newApp(cmd.Context())
			if err != nil {
				return fmt.Errorf("initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, a))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			if a, ok := cmd.Context().Value(appKey).(*app); ok && a != nil {
				a.close(cmd.Context())
			}
		},
	}

	cmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is built-in defaults plus NOVELBIND_* env)")

	cmd.AddCommand(newScrapeCmd())
	cmd.AddCommand(newBindCmd())

	return cmd
}

// resolveApp retrieves the injected app from the command context.
func resolveApp(ctx context.Context) (*app, error) {
	a, ok := ctx.Value(appKey).(*app)
	if !ok || a == nil {
		return nil, errors.New("application services not initialized")
	}
	return a, nil
}

// Execute is the main entry point.
func Execute() {
	if err := newRootCmd().Execute(); err != nil {
		fmt.Fprintln(os.Stderr, "Error:", err)
		os.Exit(1)
	}
}
