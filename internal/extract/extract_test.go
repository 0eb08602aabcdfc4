package extract

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/page/pagetest"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
)

func openDoc(t *testing.T, doc *pagetest.Doc) page.Page {
	t.Helper()
	client := pagetest.NewClient()
	client.Serve("recipe.html", doc)
	p, err := client.Open(context.Background(), "recipe.html")
	require.NoError(t, err)
	t.Cleanup(func() { _ = p.Close() })
	return p
}

func stars(ns ...int) map[string][]*pagetest.Node {
	sel := make(map[string][]*pagetest.Node)
	for _, n := range ns {
		sel[RatingSelector(recipe.Rating(n))] = []*pagetest.Node{{Attrs: map[string]string{"src": ""}}}
	}
	return sel
}

func TestRating(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		present []int
		want    recipe.Rating
	}{
		{name: "unrated", want: recipe.Unrated},
		{name: "one star", present: []int{1}, want: 1},
		{name: "two stars", present: []int{2}, want: 2},
		{name: "three stars", present: []int{3}, want: 3},
		{name: "four stars", present: []int{4}, want: 4},
		{name: "five stars", present: []int{5}, want: 5},
		{name: "lowest of several wins", present: []int{5, 3, 4}, want: 3},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			p := openDoc(t, &pagetest.Doc{Selectors: stars(tc.present...)})
			got, err := Rating(context.Background(), p)
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestRatingSelector(t *testing.T) {
	t.Parallel()
	require.Equal(t, "img[src='5_star.gif']", RatingSelector(5))
}

func TestParseFacts(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name    string
		text    string
		want    recipe.NutritionFacts
		wantErr bool
	}{
		{
			name: "all six fields",
			text: "Per Serving: 250 Calories; 18g Fat; 20g Protein; 4g Carbohydrate; 1g Dietary Fiber; 3g Net Carbs",
			want: recipe.NutritionFacts{
				Calories: 250, GramsOfFat: 18, GramsOfProtein: 20,
				GramsOfCarbohydrate: 4, GramsOfFiber: 1, GramsOfNetCarbs: 3,
			},
		},
		{
			name: "trace is zero",
			text: "Per Serving: 90 Calories; 7g Fat; 6g Protein; trace Carbohydrate; trace Dietary Fiber; trace Net Carbs",
			want: recipe.NutritionFacts{Calories: 90, GramsOfFat: 7, GramsOfProtein: 6},
		},
		{
			name: "label aliases",
			text: "Per Recipe: 1.5 calories; 2 fat grams; 3 carbs; 4 DIETARY FIBER",
			want: recipe.NutritionFacts{Calories: 1.5, GramsOfFat: 2, GramsOfNetCarbs: 3, GramsOfFiber: 4},
		},
		{
			name: "net carb singular",
			text: "Per Serving: 5 Net Carb",
			want: recipe.NutritionFacts{GramsOfNetCarbs: 5},
		},
		{
			name: "missing fields stay zero",
			text: "Per Serving: 120 Calories",
			want: recipe.NutritionFacts{Calories: 120},
		},
		{
			name: "only the first line is read",
			text: "Per Serving: 10 Calories\nPer Recipe: 40 Calories",
			want: recipe.NutritionFacts{Calories: 10},
		},
		{
			name: "no colon uses whole line",
			text: "300 Calories; 9g Protein",
			want: recipe.NutritionFacts{Calories: 300, GramsOfProtein: 9},
		},
		{
			name: "unknown labels are ignored",
			text: "Per Serving: 100 Calories; 2g Sugar; 5g Protein",
			want: recipe.NutritionFacts{Calories: 100, GramsOfProtein: 5},
		},
		{
			name: "no-break spaces separate value and label",
			text: "Per Serving: 250\u00a0Calories; 20g\u00a0Protein; 2g Net Carbs",
			want: recipe.NutritionFacts{Calories: 250, GramsOfProtein: 20, GramsOfNetCarbs: 2},
		},
		{
			name: "byte order mark is whitespace",
			text: "Per Serving:\ufeff120\ufeffCalories",
			want: recipe.NutritionFacts{Calories: 120},
		},
		{
			name:    "unparseable value fails",
			text:    "Per Serving: lots Calories; 5g Protein",
			wantErr: true,
		},
		{
			name:    "trace is case sensitive",
			text:    "Per Serving: Trace Net Carbs",
			wantErr: true,
		},
		{
			name:    "negative value fails",
			text:    "Per Serving: -5 Calories",
			wantErr: true,
		},
		{
			name: "later value for a field wins",
			text: "Per Serving: 1 Calories; 2 Calories",
			want: recipe.NutritionFacts{Calories: 2},
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			got, err := ParseFacts(tc.text)
			if tc.wantErr {
				require.Error(t, err)
				return
			}
			require.NoError(t, err)
			require.Equal(t, tc.want, got)
		})
	}
}

func TestSplitSpace(t *testing.T) {
	t.Parallel()

	require.Equal(t, []string{"22g", "Fat"}, splitSpace("22g\u00a0Fat"))
	require.Equal(t, []string{"3g", "", "Net", "Carbs"}, splitSpace("3g  Net\tCarbs"))
	require.Equal(t, []string{""}, splitSpace(""))
}

func TestParseValue(t *testing.T) {
	t.Parallel()

	tests := []struct {
		in   string
		want float64
		ok   bool
	}{
		{"22g", 22, true},
		{"1.5", 1.5, true},
		{".5g", 0.5, true},
		{"trace", 0, true},
		{"", 0, false},
		{"g", 0, false},
		{"1e2", 100, true},
	}
	for _, tc := range tests {
		got, ok := parseValue(tc.in)
		require.Equal(t, tc.ok, ok, tc.in)
		require.Equal(t, tc.want, got, tc.in)
	}
}

func TestNutritionPrefersLaterBlocks(t *testing.T) {
	t.Parallel()

	p := openDoc(t, &pagetest.Doc{
		URL: "https://example.com/lowcarb/chili.html",
		Selectors: map[string][]*pagetest.Node{
			"i": {
				{Text: "Per Serving: 500 Calories; 30g Protein"},
				{Text: "Serve hot"},
				{Text: "Per Serving: 250 Calories; 15g Protein"},
			},
		},
	})

	facts, err := Nutrition(context.Background(), p, "Chili")
	require.NoError(t, err)
	require.Equal(t, 250.0, facts.Calories)
	require.Equal(t, 15.0, facts.GramsOfProtein)
}

func TestNutritionSkipsInvalidBlocks(t *testing.T) {
	t.Parallel()

	p := openDoc(t, &pagetest.Doc{
		Selectors: map[string][]*pagetest.Node{
			"i": {
				{Text: "Per Serving: 250 Calories; 15g Protein"},
				{Text: "Per Serving: many Calories"},
			},
		},
	})

	facts, err := Nutrition(context.Background(), p, "Chili")
	require.NoError(t, err)
	require.Equal(t, 250.0, facts.Calories)
}

func TestNutritionFallsBackToParagraphs(t *testing.T) {
	t.Parallel()

	p := openDoc(t, &pagetest.Doc{
		Selectors: map[string][]*pagetest.Node{
			"i": {{Text: "A family favorite"}},
			"p": {{Text: "Per Recipe: 800 Calories; 60g Protein; 8g Net Carbs"}},
		},
	})

	facts, err := Nutrition(context.Background(), p, "Meatloaf")
	require.NoError(t, err)
	require.Equal(t, recipe.NutritionFacts{Calories: 800, GramsOfProtein: 60, GramsOfNetCarbs: 8}, facts)
}

func TestNutritionParseError(t *testing.T) {
	t.Parallel()

	p := openDoc(t, &pagetest.Doc{
		URL: "https://example.com/lowcarb/soup.html",
		Selectors: map[string][]*pagetest.Node{
			"p": {{Text: "Per Serving: unknown Calories"}},
		},
	})

	_, err := Nutrition(context.Background(), p, "Soup")
	var parseErr *ParseError
	require.ErrorAs(t, err, &parseErr)
	require.Equal(t, "Soup", parseErr.Name)
	require.Equal(t, "Unable to find Nutrition Facts for Soup: https://example.com/lowcarb/soup.html", err.Error())
	require.Error(t, errors.Unwrap(err))
}

type failingPage struct {
	page.Page
}

func (failingPage) URL() string { return "broken" }

func (failingPage) QueryAll(context.Context, string) ([]page.Element, error) {
	return nil, errors.New("target closed")
}

func (failingPage) Query(context.Context, string) (page.Element, bool, error) {
	return nil, false, errors.New("target closed")
}

func TestDriverErrorsAreNotParseErrors(t *testing.T) {
	t.Parallel()

	_, err := Nutrition(context.Background(), failingPage{}, "Soup")
	require.Error(t, err)
	var parseErr *ParseError
	require.False(t, errors.As(err, &parseErr))

	_, err = Rating(context.Background(), failingPage{})
	require.ErrorContains(t, err, "target closed")
}
