// Package config loads and validates recipe crawler configuration via Viper.
package config

import (
	"errors"
	"fmt"
	"runtime"
	"strings"
	"time"

	"github.com/spf13/viper"
)

// Page drivers.
const (
	DriverChromedp = "chromedp"
	DriverStatic   = "static"
)

// Store backends.
const (
	BackendJSON     = "json"
	BackendPostgres = "postgres"
)

// Config captures all configuration knobs loaded via Viper.
type Config struct {
	Site    SiteConfig    `mapstructure:"site"`
	Crawler CrawlerConfig `mapstructure:"crawler"`
	Browser BrowserConfig `mapstructure:"browser"`
	Store   StoreConfig   `mapstructure:"store"`
	Metrics MetricsConfig `mapstructure:"metrics"`
	Logging LoggingConfig `mapstructure:"logging"`
}

// SiteConfig describes the recipe site and the selectors its pages use.
type SiteConfig struct {
	Origin              string   `mapstructure:"origin"`
	EntryPath           string   `mapstructure:"entry_path"`
	CategorySelector    string   `mapstructure:"category_selector"`
	SubcategorySelector string   `mapstructure:"subcategory_selector"`
	ItemSelector        string   `mapstructure:"item_selector"`
	MainCategory        string   `mapstructure:"main_category"`
	NutritionSelectors  []string `mapstructure:"nutrition_selectors"`
}

// CrawlerConfig governs concurrency and retries.
type CrawlerConfig struct {
	Concurrency       int     `mapstructure:"concurrency"`
	MaxRetries        int     `mapstructure:"max_retries"`
	RequestsPerSecond float64 `mapstructure:"requests_per_second"`
}

// BrowserConfig selects and tunes the page driver.
type BrowserConfig struct {
	Driver            string        `mapstructure:"driver"`
	Headless          bool          `mapstructure:"headless"`
	NavigationTimeout time.Duration `mapstructure:"navigation_timeout"`
	UserAgent         string        `mapstructure:"user_agent"`
}

// StoreConfig selects where crawled recipes are persisted.
type StoreConfig struct {
	Backend  string         `mapstructure:"backend"`
	Path     string         `mapstructure:"path"`
	Postgres PostgresConfig `mapstructure:"postgres"`
}

// PostgresConfig controls the Postgres recipe store.
type PostgresConfig struct {
	DSN   string `mapstructure:"dsn"`
	Table string `mapstructure:"table"`
}

// MetricsConfig enables the optional metrics endpoints.
type MetricsConfig struct {
	ListenAddr     string `mapstructure:"listen_addr"`
	PushgatewayURL string `mapstructure:"pushgateway_url"`
}

// LoggingConfig toggles zap development features and the log level.
type LoggingConfig struct {
	Development bool   `mapstructure:"development"`
	Level       string `mapstructure:"level"`
}

// Load builds a Config from defaults, an optional file and RECIPES_* env vars.
func Load(path string) (Config, error) {
	v := viper.New()
	v.SetEnvPrefix("RECIPES")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		if err := v.ReadInConfig(); err != nil {
			return Config{}, fmt.Errorf("read config: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("unmarshal config: %w", err)
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}

	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("site.origin", "https://www.genaw.com/lowcarb")
	v.SetDefault("site.entry_path", "recipes.html")
	v.SetDefault("site.category_selector", "blockquote table td")
	v.SetDefault("site.subcategory_selector", "table a")
	v.SetDefault("site.item_selector", "blockquote table td li")
	v.SetDefault("site.main_category", "MAIN DISHES")
	v.SetDefault("site.nutrition_selectors", []string{"i", "p"})
	v.SetDefault("crawler.concurrency", runtime.NumCPU())
	v.SetDefault("crawler.max_retries", 3)
	v.SetDefault("crawler.requests_per_second", 0)
	v.SetDefault("browser.driver", DriverChromedp)
	v.SetDefault("browser.headless", true)
	v.SetDefault("browser.navigation_timeout", 30*time.Second)
	v.SetDefault("browser.user_agent", "")
	v.SetDefault("store.backend", BackendJSON)
	v.SetDefault("store.path", "recipes.json")
	v.SetDefault("store.postgres.dsn", "")
	v.SetDefault("store.postgres.table", "recipes")
	v.SetDefault("metrics.listen_addr", "")
	v.SetDefault("metrics.pushgateway_url", "")
	v.SetDefault("logging.development", true)
	v.SetDefault("logging.level", "")
}

// Validate enforces required values and reasonable limits.
func (c Config) Validate() error {
	var errs []error
	if strings.TrimSpace(c.Site.Origin) == "" {
		errs = append(errs, errors.New("site.origin must be set"))
	}
	if strings.TrimSpace(c.Site.EntryPath) == "" {
		errs = append(errs, errors.New("site.entry_path must be set"))
	}
	if c.Site.CategorySelector == "" || c.Site.ItemSelector == "" || c.Site.SubcategorySelector == "" {
		errs = append(errs, errors.New("site selectors must be set"))
	}
	if len(c.Site.NutritionSelectors) == 0 {
		errs = append(errs, errors.New("site.nutrition_selectors must not be empty"))
	}
	if c.Crawler.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("crawler.concurrency must be > 0"))
	}
	if c.Crawler.MaxRetries < 0 {
		errs = append(errs, fmt.Errorf("crawler.max_retries must be >= 0"))
	}
	if c.Crawler.RequestsPerSecond < 0 {
		errs = append(errs, fmt.Errorf("crawler.requests_per_second must be >= 0"))
	}
	switch c.Browser.Driver {
	case DriverChromedp, DriverStatic:
	default:
		errs = append(errs, fmt.Errorf("browser.driver must be %q or %q, got %q", DriverChromedp, DriverStatic, c.Browser.Driver))
	}
	if c.Browser.NavigationTimeout <= 0 {
		errs = append(errs, fmt.Errorf("browser.navigation_timeout must be > 0"))
	}
	switch c.Store.Backend {
	case BackendJSON:
		if c.Store.Path == "" {
			errs = append(errs, errors.New("store.path must be set for the json backend"))
		}
	case BackendPostgres:
		if c.Store.Postgres.DSN == "" {
			errs = append(errs, errors.New("store.postgres.dsn must be set for the postgres backend"))
		}
	default:
		errs = append(errs, fmt.Errorf("store.backend must be %q or %q, got %q", BackendJSON, BackendPostgres, c.Store.Backend))
	}
	return errors.Join(errs...)
}
