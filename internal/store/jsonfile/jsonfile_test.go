package jsonfile

import (
	"context"
	"errors"
	"path/filepath"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/require"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/store"
)

var _ store.RecipeStore = (*Store)(nil)

func chili() recipe.Recipe {
	return recipe.Recipe{
		URL:    "https://www.genaw.com/lowcarb/chili.html",
		Name:   "Chili",
		Rating: 5,
		NutritionFacts: recipe.NutritionFacts{
			Calories: 400, GramsOfCarbohydrate: 6, GramsOfFat: 26,
			GramsOfFiber: 4, GramsOfNetCarbs: 2, GramsOfProtein: 20,
		},
	}
}

func TestSaveFormat(t *testing.T) {
	t.Parallel()

	fsys := afero.NewMemMapFs()
	s, err := NewWithFs(fsys, "out/recipes.json")
	require.NoError(t, err)
	require.NoError(t, s.Save(context.Background(), []recipe.Recipe{chili()}))

	data, err := afero.ReadFile(fsys, "out/recipes.json")
	require.NoError(t, err)
	want := `{
  "recipes": [
    {
      "url": "https://www.genaw.com/lowcarb/chili.html",
      "name": "Chili",
      "rating": 5,
      "nutritionFacts": {
        "calories": 400,
        "gramsOfCarbohydrate": 6,
        "gramsOfFat": 26,
        "gramsOfFiber": 4,
        "gramsOfNetCarbs": 2,
        "gramsOfProtein": 20
      }
    }
  ]
}
`
	require.Equal(t, want, string(data))

	exists, err := afero.Exists(fsys, "out/recipes.json.tmp")
	require.NoError(t, err)
	require.False(t, exists)
}

func TestSaveEmptyList(t *testing.T) {
	t.Parallel()

	data, err := Encode(nil)
	require.NoError(t, err)
	require.Equal(t, "{\n  \"recipes\": []\n}\n", string(data))
}

func TestRoundTripOnDisk(t *testing.T) {
	t.Parallel()

	s, err := New(filepath.Join(t.TempDir(), "recipes.json"))
	require.NoError(t, err)

	second := chili()
	second.URL = "https://www.genaw.com/lowcarb/wings.html"
	second.Name = "Wings"
	second.Rating = 0
	require.NoError(t, s.Save(context.Background(), []recipe.Recipe{chili(), second}))

	got, err := s.Load(context.Background())
	require.NoError(t, err)
	require.Equal(t, []recipe.Recipe{chili(), second}, got)
	require.NoError(t, s.Close())
}

func TestLoadMissingFile(t *testing.T) {
	t.Parallel()

	s, err := NewWithFs(afero.NewMemMapFs(), "recipes.json")
	require.NoError(t, err)
	_, err = s.Load(context.Background())
	require.ErrorIs(t, err, store.ErrNotFound)
}

func TestLoadSchemaErrors(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name string
		body string
		want string
	}{
		{name: "missing recipes key", body: `{"items": []}`, want: `missing key "recipes"`},
		{name: "null recipes", body: `{"recipes": null}`, want: `missing key "recipes"`},
		{name: "not json", body: `recipes`, want: "decode"},
		{name: "wrong type", body: `{"recipes": [{"url": 1}]}`, want: "decode"},
		{
			name: "missing nutrition key",
			body: `{"recipes": [{"url": "u", "name": "n", "rating": 5, "nutritionFacts": {"calories": 1}}]}`,
			want: "nutritionFacts.gramsOfFat",
		},
		{
			name: "missing rating",
			body: `{"recipes": [{"url": "u", "name": "n", "nutritionFacts": {}}]}`,
			want: "rating",
		},
		{
			name: "rating out of range",
			body: `{"recipes": [{"url": "u", "name": "n", "rating": 9, "nutritionFacts": {"calories": 0,
				"gramsOfCarbohydrate": 0, "gramsOfFat": 0, "gramsOfFiber": 0, "gramsOfNetCarbs": 0, "gramsOfProtein": 0}}]}`,
			want: "recipes[0]: rating",
		},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			t.Parallel()
			fsys := afero.NewMemMapFs()
			require.NoError(t, afero.WriteFile(fsys, "recipes.json", []byte(tc.body), 0o644))
			s, err := NewWithFs(fsys, "recipes.json")
			require.NoError(t, err)

			_, err = s.Load(context.Background())
			var schemaErr *store.SchemaError
			require.ErrorAs(t, err, &schemaErr)
			require.Equal(t, "recipes.json", schemaErr.Source)
			require.ErrorContains(t, err, tc.want)
			require.False(t, errors.Is(err, store.ErrNotFound))
		})
	}
}

func TestDecodeEmptyList(t *testing.T) {
	t.Parallel()

	got, err := Decode([]byte(`{"recipes": []}`))
	require.NoError(t, err)
	require.Empty(t, got)
}

func TestNewRequiresPath(t *testing.T) {
	t.Parallel()

	_, err := New(" ")
	require.Error(t, err)
}
