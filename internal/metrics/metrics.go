// Package metrics exposes Prometheus collectors for recipe crawls.
package metrics

import (
	"net/url"
	"strconv"
	"strings"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// Page levels of the crawl tree.
const (
	LevelRoot        = "root"
	LevelCategory    = "category"
	LevelSubcategory = "subcategory"
	LevelRecipe      = "recipe"
)

var (
	pagesOpenedTotal           *prometheus.CounterVec
	pageOpenDurationSeconds    *prometheus.HistogramVec
	recipeResultsTotal         *prometheus.CounterVec
	recipeRetriesTotal         prometheus.Counter
	recipeTasksInFlight        prometheus.Gauge
	crawlDurationSeconds       prometheus.Histogram
	httpRequestsTotal          *prometheus.CounterVec
	httpRequestDurationSeconds *prometheus.HistogramVec

	once sync.Once
)

// Init registers the collectors. It is safe to call more than once.
func Init() {
	once.Do(func() {
		pagesOpenedTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_crawler_pages_opened_total",
				Help: "Total page opens, labeled by site, crawl level and status.",
			},
			[]string{"site", "level", "status"},
		)

		pageOpenDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipe_crawler_page_open_duration_seconds",
				Help:    "Histogram of page open latencies, labeled by crawl level.",
				Buckets: []float64{0.1, 0.25, 0.5, 1, 2, 5, 10, 30},
			},
			[]string{"level"},
		)

		recipeResultsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_crawler_results_total",
				Help: "Total recipe results, labeled by outcome.",
			},
			[]string{"outcome"},
		)

		recipeRetriesTotal = promauto.NewCounter(
			prometheus.CounterOpts{
				Name: "recipe_crawler_retries_total",
				Help: "Total retried recipe page attempts.",
			},
		)

		recipeTasksInFlight = promauto.NewGauge(
			prometheus.GaugeOpts{
				Name: "recipe_crawler_tasks_in_flight",
				Help: "Number of recipe pages currently being scraped.",
			},
		)

		crawlDurationSeconds = promauto.NewHistogram(
			prometheus.HistogramOpts{
				Name:    "recipe_crawler_crawl_duration_seconds",
				Help:    "Histogram of whole crawl durations.",
				Buckets: []float64{1, 5, 15, 30, 60, 120, 300, 600},
			},
		)

		httpRequestsTotal = promauto.NewCounterVec(
			prometheus.CounterOpts{
				Name: "recipe_crawler_http_requests_total",
				Help: "Total requests served by the metrics listener, labeled by method and code.",
			},
			[]string{"method", "code"},
		)

		httpRequestDurationSeconds = promauto.NewHistogramVec(
			prometheus.HistogramOpts{
				Name:    "recipe_crawler_http_request_duration_seconds",
				Help:    "Histogram of metrics listener latencies, labeled by method and route.",
				Buckets: []float64{0.005, 0.01, 0.05, 0.1, 0.5, 1},
			},
			[]string{"method", "route"},
		)
	})
}

// SanitizeSite extracts a lowercase hostname from a URL. It returns "unknown"
// if the URL is invalid.
func SanitizeSite(rawURL string) string {
	if !strings.HasPrefix(rawURL, "http") {
		rawURL = "http://" + rawURL
	}
	u, err := url.Parse(rawURL)
	if err != nil || u.Hostname() == "" {
		return "unknown"
	}
	return strings.ToLower(u.Hostname())
}

// ObservePageOpen records one page open at level.
func ObservePageOpen(site, level string, err error, duration time.Duration) {
	Init()
	status := "ok"
	if err != nil {
		status = "error"
	}
	pagesOpenedTotal.WithLabelValues(SanitizeSite(site), level, status).Inc()
	pageOpenDurationSeconds.WithLabelValues(level).Observe(duration.Seconds())
}

// ObserveResult counts one recipe result.
func ObserveResult(ok bool) {
	Init()
	outcome := "failure"
	if ok {
		outcome = "success"
	}
	recipeResultsTotal.WithLabelValues(outcome).Inc()
}

// ObserveRetry counts one retried recipe attempt.
func ObserveRetry() {
	Init()
	recipeRetriesTotal.Inc()
}

// IncInFlight increments the in-flight recipe task gauge.
func IncInFlight() {
	Init()
	recipeTasksInFlight.Inc()
}

// DecInFlight decrements the in-flight recipe task gauge.
func DecInFlight() {
	Init()
	recipeTasksInFlight.Dec()
}

// ObserveCrawl records the duration of a whole crawl.
func ObserveCrawl(duration time.Duration) {
	Init()
	crawlDurationSeconds.Observe(duration.Seconds())
}

// ObserveHTTPRequest records one request served by the metrics listener.
func ObserveHTTPRequest(method, route string, code int, duration time.Duration) {
	Init()
	httpRequestsTotal.WithLabelValues(method, strconv.Itoa(code)).Inc()
	httpRequestDurationSeconds.WithLabelValues(method, route).Observe(duration.Seconds())
}
