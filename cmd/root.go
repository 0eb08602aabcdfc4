// Package cmd defines the CLI commands for the recipes executable.
package cmd

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/app"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/config"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/logging"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
)

// appKeyType is the key for storing the App in the context.
type appKeyType string

const appKey appKeyType = "app"

const shutdownTimeout = 5 * time.Second

// App is what the commands need from the application. Tests swap in a fake.
type App interface {
	Logger() *zap.Logger
	Crawl(ctx context.Context) ([]recipe.Recipe, error)
	FindRecipes(ctx context.Context) ([]recipe.Recipe, error)
	FindBest(ctx context.Context) (recipe.Recipe, error)
	Close(ctx context.Context) error
}

// newApp is the application factory, replaced in tests.
var newApp = func(ctx context.Context, cfg config.Config, logger *zap.Logger) (App, error) {
	return app.New(ctx, cfg, logger)
}

type rootOptions struct {
	cfgFile string
	noColor bool
}

func newRootCmd() *cobra.Command {
	opts := &rootOptions{}
	cmd := &cobra.Command{
		Use:   "recipes",
		Short: "Find the best five-star low-carb recipe.",
		Long: `recipes crawls a low-carb recipe site, scrapes every recipe's star rating
and nutrition facts, and prints the five-star recipe with the most protein
per gram of net carbs. Crawled recipes are saved and reused on later runs.`,
		SilenceUsage:  true,
		SilenceErrors: true,

		PersistentPreRunE: func(cmd *cobra.Command, _ []string) error {
			cfg, err := config.Load(opts.cfgFile)
			if err != nil {
				return fmt.Errorf("load config: %w", err)
			}
			logger, err := logging.New(logging.Options{
				Development: cfg.Logging.Development,
				Level:       cfg.Logging.Level,
				Command:     cmd.Name(),
			})
			if err != nil {
				return err
			}
			appInstance, err := newApp(cmd.Context(), cfg, logger)
			if err != nil {
				return fmt.Errorf("failed to initialize application services: %w", err)
			}
			cmd.SetContext(context.WithValue(cmd.Context(), appKey, appInstance))
			return nil
		},

		PersistentPostRun: func(cmd *cobra.Command, _ []string) {
			appInstance, err := resolveApp(cmd.Context())
			if err != nil {
				return
			}
			ctx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
			defer cancel()
			logger := appInstance.Logger()
			if err := appInstance.Close(ctx); err != nil {
				logger.Warn("failed to close application services", zap.Error(err))
			}
			_ = logger.Sync()
		},

		RunE: func(cmd *cobra.Command, _ []string) error {
			return runBest(cmd, opts)
		},
	}

	cmd.PersistentFlags().StringVar(&opts.cfgFile, "config", "", "config file (yaml, json or toml)")
	cmd.PersistentFlags().BoolVar(&opts.noColor, "no-color", false, "disable colored output")

	cmd.AddCommand(newBestCmd(opts))
	cmd.AddCommand(newCrawlCmd(opts))
	cmd.AddCommand(newListCmd(opts))
	return cmd
}

func resolveApp(ctx context.Context) (App, error) {
	appInstance, ok := ctx.Value(appKey).(App)
	if !ok || appInstance == nil {
		return nil, errors.New("application services not initialized")
	}
	return appInstance, nil
}

func printer(cmd *cobra.Command, opts *rootOptions) *app.Printer {
	return app.NewPrinter(cmd.OutOrStdout(), !opts.noColor)
}

// Execute runs the root command. Errors go to stderr with a non-zero exit.
func Execute() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	err := newRootCmd().ExecuteContext(ctx)
	stop()
	if err != nil {
		fmt.Fprintln(os.Stderr, err)
		os.Exit(1)
	}
}
