package crawler

import (
	"errors"
	"fmt"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/extract"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/id"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/retry"
)

// Config holds the settings for one crawl. It is decoupled from Viper so the
// crawler can be tested on its own.
type Config struct {
	// Origin labels metrics; page paths are resolved by the page client.
	Origin              string
	EntryPath           string
	CategorySelector    string
	SubcategorySelector string
	ItemSelector        string
	// MainCategory is matched case-insensitively and has a subcategory level.
	MainCategory       string
	NutritionSelectors []string
	Concurrency        int
	Retry              retry.Policy
	// NewRunID tags the run's logs. Nil uses id.NewRunID.
	NewRunID id.Generator
}

// DefaultConfig returns the settings for www.genaw.com/lowcarb.
func DefaultConfig() Config {
	return Config{
		Origin:              "https://www.genaw.com/lowcarb",
		EntryPath:           "recipes.html",
		CategorySelector:    "blockquote table td",
		SubcategorySelector: "table a",
		ItemSelector:        "blockquote table td li",
		MainCategory:        "MAIN DISHES",
		NutritionSelectors:  extract.DefaultNutritionSelectors,
		Concurrency:         1,
		Retry:               retry.Default(),
	}
}

// Validate checks for obviously bad settings.
func (c Config) Validate() error {
	var errs []error
	if c.EntryPath == "" {
		errs = append(errs, errors.New("entry path must be set"))
	}
	if c.CategorySelector == "" || c.SubcategorySelector == "" || c.ItemSelector == "" {
		errs = append(errs, errors.New("selectors must be set"))
	}
	if c.Concurrency <= 0 {
		errs = append(errs, fmt.Errorf("concurrency must be > 0, got %d", c.Concurrency))
	}
	return errors.Join(errs...)
}

func (c Config) runID() (string, error) {
	if c.NewRunID != nil {
		return c.NewRunID()
	}
	return id.NewRunID()
}
