// Package app wires configuration into long-lived services and composes the
// crawl, the recipe store, and ranking into the operations the CLI exposes.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/config"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/crawler"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/metrics"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page/chromedp"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page/static"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/retry"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/store"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/store/jsonfile"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/store/postgres"
)

// CrawlFunc performs one full crawl and returns the successful recipes.
type CrawlFunc func(ctx context.Context) ([]recipe.Recipe, error)

// App holds the services shared by every command.
type App struct {
	cfg      config.Config
	logger   *zap.Logger
	store    store.RecipeStore
	crawl    CrawlFunc
	listener *metrics.Listener
}

// New builds the store and crawl pipeline selected by cfg. It fails fast when
// a backend cannot be reached.
func New(ctx context.Context, cfg config.Config, logger *zap.Logger) (*App, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	logger.Info("initializing application services",
		zap.String("driver", cfg.Browser.Driver),
		zap.String("store", cfg.Store.Backend))

	recipes, err := newStore(ctx, cfg, logger)
	if err != nil {
		return nil, fmt.Errorf("failed to initialize store: %w", err)
	}

	crawlCfg := crawlerConfig(cfg)
	opener := sessionOpener(cfg)
	a := NewWithDeps(cfg, logger, recipes, func(ctx context.Context) ([]recipe.Recipe, error) {
		return crawler.Run(ctx, opener, crawlCfg, logger)
	})

	if cfg.Metrics.ListenAddr != "" {
		l, err := metrics.Listen(cfg.Metrics.ListenAddr, logger)
		if err != nil {
			_ = recipes.Close()
			return nil, err
		}
		a.listener = l
	}
	return a, nil
}

// NewWithDeps assembles an App from prebuilt parts.
func NewWithDeps(cfg config.Config, logger *zap.Logger, recipes store.RecipeStore, crawl CrawlFunc) *App {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &App{
		cfg:    cfg,
		logger: logger,
		store:  recipes,
		crawl:  crawl,
	}
}

// Logger returns the application logger.
func (a *App) Logger() *zap.Logger {
	return a.logger
}

// Crawl runs a fresh crawl and persists its recipes. A failed save is
// reported but does not discard the crawl.
func (a *App) Crawl(ctx context.Context) ([]recipe.Recipe, error) {
	recipes, err := a.crawl(ctx)
	if err != nil {
		return nil, err
	}
	if err := a.store.Save(ctx, recipes); err != nil {
		a.logger.Error("failed to save recipes", zap.Error(err))
	} else {
		a.logger.Info("recipes saved", zap.Int("count", len(recipes)))
	}
	if url := a.cfg.Metrics.PushgatewayURL; url != "" {
		if err := metrics.Push(ctx, url); err != nil {
			a.logger.Warn("failed to push metrics", zap.Error(err))
		}
	}
	return recipes, nil
}

// FindRecipes returns the persisted recipes, crawling when they cannot be read.
func (a *App) FindRecipes(ctx context.Context) ([]recipe.Recipe, error) {
	recipes, err := a.store.Load(ctx)
	if err == nil {
		a.logger.Info("using saved recipes", zap.Int("count", len(recipes)))
		return recipes, nil
	}
	var schemaErr *store.SchemaError
	switch {
	case errors.Is(err, store.ErrNotFound):
		a.logger.Info("no saved recipes, crawling")
	case errors.As(err, &schemaErr):
		a.logger.Warn("saved recipes are invalid, crawling", zap.Error(err))
	default:
		a.logger.Warn("failed to read saved recipes, crawling", zap.Error(err))
	}
	return a.Crawl(ctx)
}

// FindBest returns the five-star recipe with the best protein to net carb ratio.
func (a *App) FindBest(ctx context.Context) (recipe.Recipe, error) {
	recipes, err := a.FindRecipes(ctx)
	if err != nil {
		return recipe.Recipe{}, err
	}
	return recipe.BestFiveStar(recipes)
}

// Close shuts down the metrics listener and the store.
func (a *App) Close(ctx context.Context) error {
	var errs []error
	if a.listener != nil {
		if err := a.listener.Shutdown(ctx); err != nil {
			errs = append(errs, err)
		}
	}
	if a.store != nil {
		if err := a.store.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close store: %w", err))
		}
	}
	return errors.Join(errs...)
}

func newStore(ctx context.Context, cfg config.Config, logger *zap.Logger) (store.RecipeStore, error) {
	switch cfg.Store.Backend {
	case config.BackendJSON:
		s, err := jsonfile.New(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		logger.Info("using json recipe store", zap.String("path", s.Path()))
		return s, nil
	case config.BackendPostgres:
		logger.Info("using postgres recipe store", zap.String("table", cfg.Store.Postgres.Table))
		return postgres.New(ctx, postgres.Config{
			DSN:   cfg.Store.Postgres.DSN,
			Table: cfg.Store.Postgres.Table,
		})
	default:
		return nil, fmt.Errorf("unknown store backend: %s", cfg.Store.Backend)
	}
}

func crawlerConfig(cfg config.Config) crawler.Config {
	return crawler.Config{
		Origin:              cfg.Site.Origin,
		EntryPath:           cfg.Site.EntryPath,
		CategorySelector:    cfg.Site.CategorySelector,
		SubcategorySelector: cfg.Site.SubcategorySelector,
		ItemSelector:        cfg.Site.ItemSelector,
		MainCategory:        cfg.Site.MainCategory,
		NutritionSelectors:  cfg.Site.NutritionSelectors,
		Concurrency:         cfg.Crawler.Concurrency,
		Retry: retry.Policy{
			MaxRetries: uint64(cfg.Crawler.MaxRetries), //nolint:gosec // validated non-negative
		},
	}
}

func sessionOpener(cfg config.Config) crawler.SessionOpener {
	return func(_ context.Context, logger *zap.Logger) (page.Client, error) {
		var (
			client page.Client
			err    error
		)
		switch cfg.Browser.Driver {
		case config.DriverStatic:
			client, err = static.New(static.Config{
				Origin:    cfg.Site.Origin,
				UserAgent: cfg.Browser.UserAgent,
				Timeout:   cfg.Browser.NavigationTimeout,
			}, logger)
		case config.DriverChromedp:
			client, err = chromedp.New(chromedp.Config{
				Origin:            cfg.Site.Origin,
				UserAgent:         cfg.Browser.UserAgent,
				Headless:          cfg.Browser.Headless,
				NavigationTimeout: cfg.Browser.NavigationTimeout,
			}, logger)
		default:
			return nil, fmt.Errorf("unknown browser driver: %s", cfg.Browser.Driver)
		}
		if err != nil {
			return nil, err
		}
		return page.WithRateLimit(client, cfg.Crawler.RequestsPerSecond), nil
	}
}
