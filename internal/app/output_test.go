package app_test

import (
	"bytes"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/app"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
)

func TestFormatRecipe(t *testing.T) {
	t.Parallel()
	r := recipe.Recipe{
		URL:    "https://www.genaw.com/lowcarb/chili.html",
		Name:   "Texas Chili",
		Rating: 5,
		NutritionFacts: recipe.NutritionFacts{
			Calories:            412.5,
			GramsOfCarbohydrate: 6,
			GramsOfFat:          28,
			GramsOfFiber:        0,
			GramsOfNetCarbs:     6,
			GramsOfProtein:      33.5,
		},
	}

	want := "\nTexas Chili\n" +
		"URL: https://www.genaw.com/lowcarb/chili.html\n" +
		"Nutrition Facts:\n" +
		"  - 412.5 Calories\n" +
		"  - 6g Carbs\n" +
		"  - 28g Fat\n" +
		"  - Trace Dietary Fiber\n" +
		"  - 6g Net Carbs\n" +
		"  - 33.5g Protein\n"
	assert.Equal(t, want, app.FormatRecipe(r, false))
}

func TestFormatRecipeColorsName(t *testing.T) {
	t.Parallel()
	out := app.FormatRecipe(recipe.Recipe{Name: "Gumbo"}, true)
	assert.Contains(t, out, "\x1b[")
	assert.Contains(t, out, "Gumbo")
}

func TestPrinterRecipe(t *testing.T) {
	t.Parallel()
	var buf bytes.Buffer
	r := recipe.Recipe{Name: "Gumbo", URL: "https://example.com/gumbo.html"}

	require.NoError(t, app.NewPrinter(&buf, false).Recipe(r))

	assert.Equal(t, app.FormatRecipe(r, false), buf.String())
}

func TestPrinterTableRanksFiveStarRecipes(t *testing.T) {
	t.Parallel()
	lowRatio := fiveStar("LowRatio", 10, 5)
	highRatio := fiveStar("HighRatio", 20, 2)
	noCarbs := fiveStar("NoCarbs", 25, 0)
	fourStar := fiveStar("FourStar", 90, 1)
	fourStar.Rating = 4

	var buf bytes.Buffer
	app.NewPrinter(&buf, false).Table([]recipe.Recipe{highRatio, fourStar, noCarbs, lowRatio})
	out := buf.String()

	assert.NotContains(t, out, "FourStar")
	assert.Contains(t, strings.ToLower(out), "3 of 4 recipes")
	assert.Contains(t, out, "10.00")
	assert.Contains(t, out, "∞")
	low := strings.Index(out, "LowRatio")
	high := strings.Index(out, "HighRatio")
	inf := strings.Index(out, "NoCarbs")
	require.Positive(t, low)
	assert.Less(t, low, high)
	assert.Less(t, high, inf)
}
