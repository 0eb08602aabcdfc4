package extract

import (
	"context"
	"fmt"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
)

// RatingSelector is the selector for the image shown for rating n.
func RatingSelector(n recipe.Rating) string {
	return fmt.Sprintf("img[src='%d_star.gif']", n)
}

// Rating probes for star images from 1 up to 5 and returns the first one
// present. A page without a star image is unrated.
func Rating(ctx context.Context, p page.Page) (recipe.Rating, error) {
	for n := recipe.Rating(1); n <= recipe.MaxRating; n++ {
		_, found, err := p.Query(ctx, RatingSelector(n))
		if err != nil {
			return recipe.Unrated, fmt.Errorf("probe rating %d: %w", n, err)
		}
		if found {
			return n, nil
		}
	}
	return recipe.Unrated, nil
}
