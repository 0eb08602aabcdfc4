package crawler

import (
	"strings"

	"go.uber.org/zap"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
)

// AggregateError reports a crawl that produced no recipes at all.
type AggregateError struct {
	Failures []string
}

func (e *AggregateError) Error() string {
	return strings.Join(append([]string{"Failed to find any recipes"}, e.Failures...), "\n")
}

// Aggregate splits results into recipes and failures. Zero recipes is an
// *AggregateError; otherwise failures are logged and the recipes returned.
func Aggregate(results []recipe.Result, logger *zap.Logger) ([]recipe.Recipe, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	recipes, failures := recipe.Partition(results)
	if len(recipes) == 0 {
		return nil, &AggregateError{Failures: failures}
	}
	if len(failures) > 0 {
		logger.Info("Scraping failures",
			zap.Int("count", len(failures)),
			zap.Strings("failures", failures))
	}
	return recipes, nil
}
