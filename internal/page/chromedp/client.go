// Package chromedp implements page.Client on top of one headless Chrome
// session. Every opened page is a tab in that session; closing the page closes
// the tab, and closing the client shuts the browser down.
package chromedp

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"github.com/chromedp/cdproto/network"
	"github.com/chromedp/chromedp"
	"go.uber.org/zap"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
)

const (
	defaultNavigationTimeout = 30 * time.Second
	defaultQueryTimeout      = 10 * time.Second
)

// Config controls the browser session.
type Config struct {
	Origin            string
	UserAgent         string
	Headless          bool
	NavigationTimeout time.Duration
	QueryTimeout      time.Duration
}

// Client implements page.Client using chromedp.
type Client struct {
	cfg           Config
	allocCancel   context.CancelFunc
	browserCtx    context.Context
	browserCancel context.CancelFunc
	logger        *zap.Logger
	open          atomic.Int64
	closeOnce     sync.Once
	closeErr      error
}

// New launches the browser and waits until it is ready to open tabs.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if _, err := page.Resolve(cfg.Origin, ""); err != nil {
		return nil, fmt.Errorf("chromedp client: %w", err)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	var headless any = false
	if cfg.Headless {
		headless = "new"
	}
	opts := append(chromedp.DefaultExecAllocatorOptions[:],
		chromedp.Flag("headless", headless),
		chromedp.Flag("disable-gpu", true),
		chromedp.Flag("hide-scrollbars", true),
		chromedp.Flag("enable-automation", false),
	)
	if cfg.UserAgent != "" {
		opts = append(opts, chromedp.UserAgent(cfg.UserAgent))
	}
	allocCtx, allocCancel := chromedp.NewExecAllocator(context.Background(), opts...)
	browserCtx, browserCancel := chromedp.NewContext(allocCtx)
	if err := chromedp.Run(browserCtx); err != nil {
		browserCancel()
		allocCancel()
		return nil, fmt.Errorf("launch browser: %w", err)
	}
	logger.Info("browser launched", zap.Bool("headless", cfg.Headless))

	return &Client{
		cfg:           cfg,
		allocCancel:   allocCancel,
		browserCtx:    browserCtx,
		browserCancel: browserCancel,
		logger:        logger,
	}, nil
}

// Open creates a tab, navigates it to path and waits for the document body.
func (c *Client) Open(ctx context.Context, path string) (page.Page, error) {
	target, err := page.Resolve(c.cfg.Origin, path)
	if err != nil {
		return nil, err
	}

	tabCtx, cancelTab := chromedp.NewContext(c.browserCtx)
	if err := chromedp.Run(tabCtx); err != nil {
		cancelTab()
		return nil, &page.NetworkError{URL: target, Cause: fmt.Errorf("open tab: %w", err)}
	}

	meta := newResponseMeta()
	chromedp.ListenTarget(tabCtx, meta.captureEvent)

	finalURL, err := c.navigate(ctx, tabCtx, target)
	if err == nil {
		err = meta.check()
	}
	if err != nil {
		cancelTab()
		return nil, &page.NetworkError{URL: target, Cause: err}
	}

	c.open.Add(1)
	c.logger.Debug("page opened", zap.String("url", finalURL))
	return &browserPage{
		client: c,
		ctx:    tabCtx,
		cancel: cancelTab,
		url:    meta.finalURL(finalURL, target),
	}, nil
}

func (c *Client) navigate(ctx, tabCtx context.Context, target string) (string, error) {
	navCtx, cancel := context.WithTimeout(tabCtx, c.navTimeout())
	defer cancel()
	stop := forwardCancel(ctx, cancel)
	defer stop()

	var finalURL string
	actions := []chromedp.Action{
		network.Enable(),
		chromedp.Navigate(target),
		chromedp.WaitReady("body", chromedp.ByQuery),
		chromedp.Location(&finalURL),
	}
	if err := chromedp.Run(navCtx, actions...); err != nil {
		return "", fmt.Errorf("chromedp navigate: %w", err)
	}
	return finalURL, nil
}

// OpenPages reports how many tabs are open and not yet closed.
func (c *Client) OpenPages() int64 {
	return c.open.Load()
}

// Close shuts down the browser. It is safe to call more than once.
func (c *Client) Close(context.Context) error {
	c.closeOnce.Do(func() {
		if n := c.open.Load(); n > 0 {
			c.logger.Warn("closing browser with open pages", zap.Int64("open_pages", n))
		}
		if err := chromedp.Cancel(c.browserCtx); err != nil && !errors.Is(err, context.Canceled) {
			c.closeErr = fmt.Errorf("close browser: %w", err)
		}
		c.browserCancel()
		c.allocCancel()
		c.logger.Info("browser closed")
	})
	return c.closeErr
}

func (c *Client) navTimeout() time.Duration {
	if c.cfg.NavigationTimeout > 0 {
		return c.cfg.NavigationTimeout
	}
	return defaultNavigationTimeout
}

func (c *Client) queryTimeout() time.Duration {
	if c.cfg.QueryTimeout > 0 {
		return c.cfg.QueryTimeout
	}
	return defaultQueryTimeout
}

// forwardCancel cancels a chromedp task when parent ends.
func forwardCancel(parent context.Context, cancel context.CancelFunc) func() {
	if parent == nil {
		return func() {}
	}
	done := make(chan struct{})
	go func() {
		select {
		case <-parent.Done():
			cancel()
		case <-done:
		}
	}()
	return func() { close(done) }
}
