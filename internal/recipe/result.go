package recipe

// Result is the outcome of scraping one recipe page: either a Recipe or a
// failure diagnostic. The zero value is a failure with an empty reason.
type Result struct {
	recipe Recipe
	reason string
	ok     bool
}

// Success wraps a scraped recipe.
func Success(r Recipe) Result {
	return Result{recipe: r, ok: true}
}

// Failure wraps a diagnostic for a page that could not be scraped.
func Failure(reason string) Result {
	return Result{reason: reason}
}

// OK reports whether the result holds a Recipe.
func (r Result) OK() bool {
	return r.ok
}

// Recipe returns the recipe and whether the result is a success.
func (r Result) Recipe() (Recipe, bool) {
	return r.recipe, r.ok
}

// Reason returns the failure diagnostic, or "" for a success.
func (r Result) Reason() string {
	if r.ok {
		return ""
	}
	return r.reason
}

// Partition splits results into recipes and failure reasons. Input order is
// preserved within each side.
func Partition(results []Result) ([]Recipe, []string) {
	recipes := make([]Recipe, 0, len(results))
	var failures []string
	for _, res := range results {
		if rec, ok := res.Recipe(); ok {
			recipes = append(recipes, rec)
			continue
		}
		failures = append(failures, res.Reason())
	}
	return recipes, failures
}
