// Package static implements page.Client over plain HTTP: pages are fetched with
// a colly collector and queried with goquery. It suits sites that render their
// content server side and needs no browser.
package static

import (
	"bytes"
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync/atomic"
	"time"

	"github.com/PuerkitoBio/goquery"
	"github.com/gocolly/colly/v2"
	"go.uber.org/zap"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
)

// Config controls the static client.
type Config struct {
	Origin    string
	UserAgent string
	Timeout   time.Duration
}

// Client implements page.Client with colly and goquery.
type Client struct {
	cfg           Config
	baseCollector *colly.Collector
	logger        *zap.Logger
	open          atomic.Int64
	closed        atomic.Bool
}

// New builds a Client for cfg.Origin.
func New(cfg Config, logger *zap.Logger) (*Client, error) {
	if _, err := page.Resolve(cfg.Origin, ""); err != nil {
		return nil, fmt.Errorf("static client: %w", err)
	}
	if cfg.Timeout <= 0 {
		cfg.Timeout = 30 * time.Second
	}
	if logger == nil {
		logger = zap.NewNop()
	}
	// Clones share the base collector's HTTP client, so it is configured once
	// here and never touched per fetch.
	c := colly.NewCollector(colly.Async(false))
	c.WithTransport(newHTTPTransport())
	c.SetRequestTimeout(cfg.Timeout)
	c.AllowURLRevisit = true
	c.IgnoreRobotsTxt = true
	if cfg.UserAgent != "" {
		c.UserAgent = cfg.UserAgent
	}
	return &Client{
		cfg:           cfg,
		baseCollector: c,
		logger:        logger,
	}, nil
}

// Open fetches path relative to the origin and parses it into a Page.
func (c *Client) Open(ctx context.Context, path string) (page.Page, error) {
	if c.closed.Load() {
		return nil, errors.New("static client closed")
	}
	target, err := page.Resolve(c.cfg.Origin, path)
	if err != nil {
		return nil, err
	}
	body, finalURL, err := c.fetch(ctx, target)
	if err != nil {
		return nil, &page.NetworkError{URL: target, Cause: err}
	}
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, &page.NetworkError{URL: target, Cause: fmt.Errorf("parse document: %w", err)}
	}
	c.open.Add(1)
	c.logger.Debug("page opened", zap.String("url", finalURL))
	return &staticPage{client: c, url: finalURL, doc: doc}, nil
}

// OpenPages reports how many pages are open and not yet closed.
func (c *Client) OpenPages() int64 {
	return c.open.Load()
}

// Close releases the client. Pages still open are reported in the log.
func (c *Client) Close(context.Context) error {
	if !c.closed.CompareAndSwap(false, true) {
		return nil
	}
	if n := c.open.Load(); n > 0 {
		c.logger.Warn("static client closed with open pages", zap.Int64("open_pages", n))
	}
	return nil
}

func (c *Client) fetch(ctx context.Context, target string) ([]byte, string, error) {
	var (
		body     []byte
		finalURL string
		fetchErr error
	)
	if err := ctx.Err(); err != nil {
		return nil, "", fmt.Errorf("colly fetch canceled: %w", err)
	}
	collector := c.baseCollector.Clone()
	collector.OnResponse(func(r *colly.Response) {
		body = append([]byte(nil), r.Body...)
		finalURL = r.Request.URL.String()
	})
	collector.OnError(func(r *colly.Response, err error) {
		if r != nil && r.StatusCode != 0 {
			fetchErr = fmt.Errorf("status %d: %w", r.StatusCode, err)
			return
		}
		fetchErr = err
	})

	done := make(chan error, 1)
	go func() {
		done <- collector.Visit(target)
	}()

	select {
	case <-ctx.Done():
		return nil, "", fmt.Errorf("colly fetch canceled: %w", ctx.Err())
	case err := <-done:
		if fetchErr != nil {
			return nil, "", fmt.Errorf("colly response failed: %w", fetchErr)
		}
		if err != nil {
			return nil, "", fmt.Errorf("colly visit failed: %w", err)
		}
	}
	if finalURL == "" {
		finalURL = target
	}
	return body, finalURL, nil
}

func newHTTPTransport() *http.Transport {
	return &http.Transport{
		Proxy: http.ProxyFromEnvironment,
		DialContext: (&net.Dialer{
			Timeout:   10 * time.Second,
			KeepAlive: 30 * time.Second,
		}).DialContext,
		TLSHandshakeTimeout:   15 * time.Second,
		ExpectContinueTimeout: 1 * time.Second,
		MaxIdleConns:          100,
		IdleConnTimeout:       90 * time.Second,
	}
}
