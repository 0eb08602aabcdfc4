package crawler

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/logging"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/metrics"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/queue"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
)

// SessionOpener starts the page client for one crawl.
type SessionOpener func(ctx context.Context, logger *zap.Logger) (page.Client, error)

// Run performs one complete crawl. The page client and queue live exactly as
// long as the call and are released on every return path.
func Run(ctx context.Context, open SessionOpener, cfg Config, logger *zap.Logger) ([]recipe.Recipe, error) {
	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("crawler config: %w", err)
	}
	runID, err := cfg.runID()
	if err != nil {
		return nil, err
	}
	logger = logging.ForRun(logger, runID)
	start := time.Now()
	defer func() { metrics.ObserveCrawl(time.Since(start)) }()

	logger.Info("launching page session")
	client, err := open(ctx, logger)
	if err != nil {
		return nil, fmt.Errorf("open page session: %w", err)
	}
	defer func() {
		if err := client.Close(context.Background()); err != nil {
			logger.Warn("page session close failed", zap.Error(err))
		}
	}()

	q, err := queue.New(cfg.Concurrency)
	if err != nil {
		return nil, err
	}
	defer q.Close()

	results, err := New(cfg, client, q, logger).Crawl(ctx)
	if err != nil {
		return nil, err
	}
	recipes, err := Aggregate(results, logger)
	if err != nil {
		return nil, err
	}
	logger.Info("crawl complete",
		zap.Int("recipes", len(recipes)),
		zap.Int("failures", len(results)-len(recipes)),
		zap.Duration("elapsed", time.Since(start)))
	return recipes, nil
}
