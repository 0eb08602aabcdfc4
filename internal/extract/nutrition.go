package extract

import (
	"context"
	"errors"
	"fmt"
	"math"
	"regexp"
	"slices"
	"strconv"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
)

// DefaultNutritionSelectors are tried in order: italic blocks, then paragraphs.
var DefaultNutritionSelectors = []string{"i", "p"}

var (
	servingMarkers = []string{"Serving:", "Recipe:"}
	leadingFloat   = regexp.MustCompile(`^[+-]?(?:Infinity|(?:\d+\.?\d*|\.\d+)(?:[eE][+-]?\d+)?)`)
)

// Field names of the nutrition record.
const (
	fieldCalories     = "calories"
	fieldCarbohydrate = "gramsOfCarbohydrate"
	fieldFat          = "gramsOfFat"
	fieldFiber        = "gramsOfFiber"
	fieldNetCarbs     = "gramsOfNetCarbs"
	fieldProtein      = "gramsOfProtein"
)

var requiredFields = []string{
	fieldCalories, fieldCarbohydrate, fieldFat, fieldFiber, fieldNetCarbs, fieldProtein,
}

// Nutrition tries each selector in turn and returns the facts from the first
// one that yields a valid block. The *ParseError of the last selector is
// returned when none do.
func Nutrition(ctx context.Context, p page.Page, name string, selectors ...string) (recipe.NutritionFacts, error) {
	if len(selectors) == 0 {
		selectors = DefaultNutritionSelectors
	}
	var lastErr error
	for _, sel := range selectors {
		facts, err := NutritionFrom(ctx, p, sel, name)
		if err == nil {
			return facts, nil
		}
		var parseErr *ParseError
		if !errors.As(err, &parseErr) {
			return recipe.NutritionFacts{}, err
		}
		lastErr = err
	}
	return recipe.NutritionFacts{}, lastErr
}

// NutritionFrom scans the blocks matching selector, last block first, and
// parses the first one carrying a serving marker that validates.
func NutritionFrom(ctx context.Context, p page.Page, selector, name string) (recipe.NutritionFacts, error) {
	elements, err := p.QueryAll(ctx, selector)
	if err != nil {
		return recipe.NutritionFacts{}, fmt.Errorf("query %q: %w", selector, err)
	}
	var lastErr error
	for _, el := range slices.Backward(elements) {
		text, err := el.Text(ctx)
		if err != nil {
			return recipe.NutritionFacts{}, fmt.Errorf("read %q text: %w", selector, err)
		}
		if !hasServingMarker(text) {
			continue
		}
		facts, err := ParseFacts(text)
		if err == nil {
			return facts, nil
		}
		lastErr = err
	}
	return recipe.NutritionFacts{}, &ParseError{Name: name, URL: p.URL(), Cause: lastErr}
}

// ParseFacts parses the first line of a serving block, for example
// "Per Serving: 250 Calories; 18g Fat; 2g Carbohydrate; trace Dietary Fiber".
// Fields the line does not mention stay zero; a value that is not a number
// fails the parse.
func ParseFacts(text string) (recipe.NutritionFacts, error) {
	line, _, _ := strings.Cut(text, "\n")
	parts := strings.Split(line, ":")
	region := parts[0]
	if len(parts) > 1 {
		region = parts[1]
	}

	values := make(map[string]float64, len(requiredFields))
	unset := make(map[string]bool)
	for _, f := range requiredFields {
		values[f] = 0
	}
	for _, token := range strings.Split(region, ";") {
		fields := splitSpace(strings.TrimFunc(token, isSpace))
		key := fieldName(strings.Join(fields[1:], " "))
		if v, ok := parseValue(fields[0]); ok {
			values[key] = v
			delete(unset, key)
		} else {
			unset[key] = true
		}
	}

	var errs []error
	for _, f := range requiredFields {
		if unset[f] {
			errs = append(errs, fmt.Errorf("%s: value is not a number", f))
		}
	}
	if err := errors.Join(errs...); err != nil {
		return recipe.NutritionFacts{}, err
	}
	facts := recipe.NutritionFacts{
		Calories:            values[fieldCalories],
		GramsOfCarbohydrate: values[fieldCarbohydrate],
		GramsOfFat:          values[fieldFat],
		GramsOfFiber:        values[fieldFiber],
		GramsOfNetCarbs:     values[fieldNetCarbs],
		GramsOfProtein:      values[fieldProtein],
	}
	if err := facts.Validate(); err != nil {
		return recipe.NutritionFacts{}, err
	}
	return facts, nil
}

func hasServingMarker(text string) bool {
	for _, m := range servingMarkers {
		if strings.Contains(text, m) {
			return true
		}
	}
	return false
}

// splitSpace splits at every whitespace rune, including no-break spaces, and
// keeps the empty fields between adjacent separators.
func splitSpace(s string) []string {
	var fields []string
	start := 0
	for i, r := range s {
		if isSpace(r) {
			fields = append(fields, s[start:i])
			start = i + utf8.RuneLen(r)
		}
	}
	return append(fields, s[start:])
}

func isSpace(r rune) bool {
	return unicode.IsSpace(r) || r == '\uFEFF'
}

// fieldName maps a label to its record field. Labels outside the table become
// "gramsOf" + label, so "Protein" lands on gramsOfProtein and anything else is
// ignored.
func fieldName(label string) string {
	lower := strings.ToLower(label)
	switch lower {
	case "calories":
		return fieldCalories
	case "dietary fiber":
		return fieldFiber
	case "carbs", "net carb", "net carbs":
		return fieldNetCarbs
	}
	if strings.HasPrefix(lower, "fat") {
		return fieldFat
	}
	return "gramsOf" + label
}

// parseValue reads the leading number of token, so "22g" is 22. The literal
// "trace" is zero.
func parseValue(token string) (float64, bool) {
	token = strings.TrimSpace(token)
	if token == "trace" {
		return 0, true
	}
	m := leadingFloat.FindString(token)
	if m == "" {
		return 0, false
	}
	v, err := strconv.ParseFloat(m, 64)
	if err != nil && !errors.Is(err, strconv.ErrRange) {
		return 0, false
	}
	if math.IsNaN(v) {
		return 0, false
	}
	return v, true
}
