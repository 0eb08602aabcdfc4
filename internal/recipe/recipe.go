package recipe

import (
	"errors"
	"fmt"
	"strings"
)

// Rating is a star rating between 0 (unrated) and 5.
type Rating int

// Rating bounds.
const (
	Unrated   Rating = 0
	MaxRating Rating = 5
)

// Valid reports whether r is within 0..5.
func (r Rating) Valid() bool {
	return r >= Unrated && r <= MaxRating
}

// NutritionFacts are the per-serving values scraped from a recipe page. Zero
// means a trace amount.
type NutritionFacts struct {
	Calories            float64 `json:"calories"`
	GramsOfCarbohydrate float64 `json:"gramsOfCarbohydrate"`
	GramsOfFat          float64 `json:"gramsOfFat"`
	GramsOfFiber        float64 `json:"gramsOfFiber"`
	GramsOfNetCarbs     float64 `json:"gramsOfNetCarbs"`
	GramsOfProtein      float64 `json:"gramsOfProtein"`
}

// Validate rejects negative values.
func (n NutritionFacts) Validate() error {
	fields := []struct {
		name  string
		value float64
	}{
		{"calories", n.Calories},
		{"gramsOfCarbohydrate", n.GramsOfCarbohydrate},
		{"gramsOfFat", n.GramsOfFat},
		{"gramsOfFiber", n.GramsOfFiber},
		{"gramsOfNetCarbs", n.GramsOfNetCarbs},
		{"gramsOfProtein", n.GramsOfProtein},
	}
	var errs []error
	for _, f := range fields {
		if f.value < 0 {
			errs = append(errs, fmt.Errorf("%s must be >= 0, got %v", f.name, f.value))
		}
	}
	return errors.Join(errs...)
}

// Recipe is a scraped recipe, identified by its URL.
type Recipe struct {
	URL            string         `json:"url"`
	Name           string         `json:"name"`
	Rating         Rating         `json:"rating"`
	NutritionFacts NutritionFacts `json:"nutritionFacts"`
}

// Validate checks the invariants a Recipe must hold once constructed.
func (r Recipe) Validate() error {
	var errs []error
	if strings.TrimSpace(r.URL) == "" {
		errs = append(errs, errors.New("url is required"))
	}
	if r.Name == "" {
		errs = append(errs, errors.New("name must be non-empty"))
	}
	if !r.Rating.Valid() {
		errs = append(errs, fmt.Errorf("rating must be within 0..5, got %d", r.Rating))
	}
	if err := r.NutritionFacts.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("nutritionFacts: %w", err))
	}
	return errors.Join(errs...)
}
