package recipe

import (
	"errors"
	"math"
	"sort"
)

// ErrNoRecipeFound is returned when no five-star recipe exists.
var ErrNoRecipeFound = errors.New("No Recipe could be found") //nolint:staticcheck // user-facing message

// IsFiveStar reports whether r carries the top rating.
func IsFiveStar(r Recipe) bool {
	return r.Rating == MaxRating
}

// ProteinToNetCarbRatio divides protein by net carbs. Zero net carbs with any
// protein ranks as +Inf; zero of both is 0.
func ProteinToNetCarbRatio(r Recipe) float64 {
	protein := r.NutritionFacts.GramsOfProtein
	netCarbs := r.NutritionFacts.GramsOfNetCarbs
	if netCarbs == 0 {
		if protein > 0 {
			return math.Inf(1)
		}
		return 0
	}
	return protein / netCarbs
}

// RankFiveStar returns the five-star recipes stably sorted by ascending ratio.
func RankFiveStar(recipes []Recipe) []Recipe {
	ranked := make([]Recipe, 0, len(recipes))
	for _, r := range recipes {
		if IsFiveStar(r) {
			ranked = append(ranked, r)
		}
	}
	sort.SliceStable(ranked, func(i, j int) bool {
		return ProteinToNetCarbRatio(ranked[i]) < ProteinToNetCarbRatio(ranked[j])
	})
	return ranked
}

// BestFiveStar picks the five-star recipe with the highest protein to net carb
// ratio. Ties go to the last maximal element after the stable sort.
func BestFiveStar(recipes []Recipe) (Recipe, error) {
	ranked := RankFiveStar(recipes)
	if len(ranked) == 0 {
		return Recipe{}, ErrNoRecipeFound
	}
	return ranked[len(ranked)-1], nil
}
