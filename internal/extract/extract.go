// Package extract turns an open recipe page into a star rating and nutrition
// facts. Rating probes for star images; nutrition facts are parsed from the
// "Per Serving:" line the recipe pages print under each recipe.
package extract

import "fmt"

// ParseError reports a recipe page whose nutrition facts could not be parsed.
// It is deterministic for a fetched page and is not worth retrying.
type ParseError struct {
	Name  string
	URL   string
	Cause error
}

func (e *ParseError) Error() string {
	return fmt.Sprintf("Unable to find Nutrition Facts for %s: %s", e.Name, e.URL)
}

// Unwrap returns the validation error of the last candidate block, if any.
func (e *ParseError) Unwrap() error {
	return e.Cause
}
