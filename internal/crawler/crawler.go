package crawler

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"sync"
	"time"

	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/extract"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/metrics"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/queue"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/retry"
)

// Crawler walks the site with one page client and one queue. Both are owned
// by the caller and must outlive Crawl.
type Crawler struct {
	cfg    Config
	client page.Client
	queue  *queue.Queue
	logger *zap.Logger
}

// New wires a Crawler.
func New(cfg Config, client page.Client, q *queue.Queue, logger *zap.Logger) *Crawler {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Crawler{cfg: cfg, client: client, queue: q, logger: logger}
}

// Crawl returns one result per attempted recipe page, in completion order. A
// category that cannot be opened or read adds one failure. Only a failure on
// the entry page is returned as an error.
func (c *Crawler) Crawl(ctx context.Context) ([]recipe.Result, error) {
	c.logger.Info("opening entry page", zap.String("path", c.cfg.EntryPath))
	root, err := c.open(ctx, metrics.LevelRoot, c.cfg.EntryPath)
	if err != nil {
		return nil, err
	}
	categories, err := namedLinks(ctx, root, c.cfg.CategorySelector)
	c.closePage(root)
	if err != nil {
		return nil, fmt.Errorf("find categories: %w", err)
	}
	c.logger.Info("found categories", zap.Int("count", len(categories)))

	f := newFanIn(ctx, c)
	f.pending.Add(1)
	go func() {
		defer f.pending.Done()
		g := new(errgroup.Group)
		g.SetLimit(c.queue.Concurrency())
		for _, category := range categories {
			g.Go(func() error {
				c.crawlCategory(ctx, category, f)
				return nil
			})
		}
		_ = g.Wait()
	}()
	return f.collect(), nil
}

func (c *Crawler) crawlCategory(ctx context.Context, category namedLink, f *fanIn) {
	p, err := c.open(ctx, metrics.LevelCategory, category.href)
	if err != nil {
		f.emit(recipe.Failure(fmt.Sprintf("Unable to open category %s: %v", category.name, err)))
		return
	}

	if !strings.EqualFold(category.name, c.cfg.MainCategory) {
		defer c.closePage(p)
		c.scanItems(ctx, category.name, p, f)
		return
	}

	subcategories, err := anchorLinks(ctx, p, c.cfg.SubcategorySelector)
	c.closePage(p)
	if err != nil {
		f.emit(recipe.Failure(fmt.Sprintf("Unable to find subcategories of %s: %v", category.name, err)))
		return
	}
	c.logger.Debug("found subcategories",
		zap.String("category", category.name), zap.Int("count", len(subcategories)))

	var wg sync.WaitGroup
	for _, sub := range subcategories {
		label := category.name + " / " + sub.name
		wg.Add(1)
		go func() {
			defer wg.Done()
			sp, err := c.open(ctx, metrics.LevelSubcategory, sub.href)
			if err != nil {
				f.emit(recipe.Failure(fmt.Sprintf("Unable to open subcategory %s: %v", label, err)))
				return
			}
			defer c.closePage(sp)
			c.scanItems(ctx, label, sp, f)
		}()
	}
	wg.Wait()
}

// scanItems submits a leaf task for every recipe link on p.
func (c *Crawler) scanItems(ctx context.Context, label string, p page.Page, f *fanIn) {
	items, err := namedLinks(ctx, p, c.cfg.ItemSelector)
	if err != nil {
		f.emit(recipe.Failure(fmt.Sprintf("Unable to find recipes in %s: %v", label, err)))
		return
	}
	c.logger.Debug("found recipes", zap.String("category", label), zap.Int("count", len(items)))
	for _, item := range items {
		f.submit(item)
	}
}

// scrapeRecipe runs the retried leaf task. It never returns an error; every
// outcome is a Result.
func (c *Crawler) scrapeRecipe(ctx context.Context, item namedLink) recipe.Result {
	metrics.IncInFlight()
	defer metrics.DecInFlight()

	notify := func(err error, attempt int, wait time.Duration) {
		metrics.ObserveRetry()
		c.logger.Warn("retrying recipe",
			zap.String("name", item.name),
			zap.Int("attempt", attempt),
			zap.Duration("wait", wait),
			zap.Error(err))
	}
	res, err := retry.Do(ctx, c.cfg.Retry, func(ctx context.Context, _ int) (recipe.Result, error) {
		return c.scrapeAttempt(ctx, item)
	}, notify)
	if err != nil {
		res = recipe.Failure(fmt.Sprintf("Unable to scrape %s: %v", item.name, err))
	}
	metrics.ObserveResult(res.OK())
	return res
}

// scrapeAttempt opens the recipe page and extracts it. Open and query errors
// are returned for retry; parse failures become a Failure result.
func (c *Crawler) scrapeAttempt(ctx context.Context, item namedLink) (recipe.Result, error) {
	c.logger.Debug("scraping recipe", zap.String("name", item.name))
	p, err := c.open(ctx, metrics.LevelRecipe, item.href)
	if err != nil {
		return recipe.Result{}, err
	}
	defer c.closePage(p)

	rating, err := extract.Rating(ctx, p)
	if err != nil {
		return recipe.Result{}, err
	}
	facts, err := extract.Nutrition(ctx, p, item.name, c.cfg.NutritionSelectors...)
	var parseErr *extract.ParseError
	if errors.As(err, &parseErr) {
		return recipe.Failure(parseErr.Error()), nil
	}
	if err != nil {
		return recipe.Result{}, err
	}

	rec := recipe.Recipe{
		URL:            p.URL(),
		Name:           item.name,
		Rating:         rating,
		NutritionFacts: facts,
	}
	if err := rec.Validate(); err != nil {
		return recipe.Failure(fmt.Sprintf("Invalid recipe %s: %v", item.name, err)), nil
	}
	c.logger.Info("scraped recipe", zap.String("name", item.name), zap.Int("rating", int(rating)))
	return recipe.Success(rec), nil
}

func (c *Crawler) open(ctx context.Context, level, path string) (page.Page, error) {
	start := time.Now()
	p, err := c.client.Open(ctx, path)
	metrics.ObservePageOpen(c.cfg.Origin, level, err, time.Since(start))
	if err != nil {
		c.logger.Debug("page open failed", zap.String("level", level), zap.String("path", path), zap.Error(err))
		return nil, err
	}
	return p, nil
}

func (c *Crawler) closePage(p page.Page) {
	if err := p.Close(); err != nil {
		c.logger.Warn("page close failed", zap.String("url", p.URL()), zap.Error(err))
	}
}

// fanIn gathers results from category workers and queued leaf tasks.
type fanIn struct {
	ctx     context.Context
	crawler *Crawler
	out     chan recipe.Result
	pending sync.WaitGroup
}

func newFanIn(ctx context.Context, c *Crawler) *fanIn {
	return &fanIn{ctx: ctx, crawler: c, out: make(chan recipe.Result, c.queue.Concurrency())}
}

func (f *fanIn) emit(res recipe.Result) {
	f.out <- res
}

// submit queues a leaf task. Its result is emitted when it completes.
func (f *fanIn) submit(item namedLink) {
	f.pending.Add(1)
	future := queue.Submit(f.ctx, f.crawler.queue, func(ctx context.Context) (recipe.Result, error) {
		return f.crawler.scrapeRecipe(ctx, item), nil
	})
	go func() {
		defer f.pending.Done()
		res, err := future.Wait(context.Background())
		if err != nil {
			res = recipe.Failure(fmt.Sprintf("Unable to scrape %s: %v", item.name, err))
		}
		f.emit(res)
	}()
}

// collect drains results until every category and leaf task is done.
func (f *fanIn) collect() []recipe.Result {
	go func() {
		f.pending.Wait()
		close(f.out)
	}()
	var results []recipe.Result
	for res := range f.out {
		results = append(results, res)
	}
	return results
}
