package app_test

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"sync/atomic"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/app"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/config"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/store"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/store/jsonfile"
)

// MockStore mocks the store.RecipeStore interface.
type MockStore struct {
	mock.Mock
}

// Load satisfies store.RecipeStore.
func (m *MockStore) Load(ctx context.Context) ([]recipe.Recipe, error) {
	args := m.Called(ctx)
	recipes, _ := args.Get(0).([]recipe.Recipe)
	return recipes, args.Error(1)
}

// Save satisfies store.RecipeStore.
func (m *MockStore) Save(ctx context.Context, recipes []recipe.Recipe) error {
	args := m.Called(ctx, recipes)
	return args.Error(0)
}

// Close satisfies store.RecipeStore.
func (m *MockStore) Close() error {
	args := m.Called()
	return args.Error(0)
}

type crawlStub struct {
	recipes []recipe.Recipe
	err     error
	calls   atomic.Int32
}

func (c *crawlStub) crawl(context.Context) ([]recipe.Recipe, error) {
	c.calls.Add(1)
	return c.recipes, c.err
}

func testConfig(t *testing.T) config.Config {
	t.Helper()
	cfg, err := config.Load("")
	require.NoError(t, err)
	cfg.Store.Path = filepath.Join(t.TempDir(), "recipes.json")
	cfg.Browser.Driver = config.DriverStatic
	return cfg
}

func fiveStar(name string, protein, netCarbs float64) recipe.Recipe {
	return recipe.Recipe{
		URL:    "https://example.com/" + name + ".html",
		Name:   name,
		Rating: 5,
		NutritionFacts: recipe.NutritionFacts{
			Calories:            300,
			GramsOfCarbohydrate: netCarbs + 1,
			GramsOfFiber:        1,
			GramsOfNetCarbs:     netCarbs,
			GramsOfProtein:      protein,
			GramsOfFat:          12,
		},
	}
}

func TestFindRecipesUsesSavedRecipes(t *testing.T) {
	t.Parallel()
	saved := []recipe.Recipe{fiveStar("Chili", 20, 4)}
	st := new(MockStore)
	st.On("Load", mock.Anything).Return(saved, nil)
	stub := &crawlStub{}

	a := app.NewWithDeps(testConfig(t), zaptest.NewLogger(t), st, stub.crawl)
	got, err := a.FindRecipes(context.Background())

	require.NoError(t, err)
	assert.Equal(t, saved, got)
	assert.Zero(t, stub.calls.Load())
	st.AssertExpectations(t)
	st.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestFindRecipesFallsBackToCrawl(t *testing.T) {
	t.Parallel()
	tests := []struct {
		name    string
		loadErr error
	}{
		{"missing", store.ErrNotFound},
		{"schema", &store.SchemaError{Source: "recipes.json", Cause: errors.New("missing recipes")}},
		{"io", errors.New("permission denied")},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			crawled := []recipe.Recipe{fiveStar("Gumbo", 18, 3)}
			st := new(MockStore)
			st.On("Load", mock.Anything).Return(nil, tt.loadErr)
			st.On("Save", mock.Anything, crawled).Return(nil)
			stub := &crawlStub{recipes: crawled}

			a := app.NewWithDeps(testConfig(t), zaptest.NewLogger(t), st, stub.crawl)
			got, err := a.FindRecipes(context.Background())

			require.NoError(t, err)
			assert.Equal(t, crawled, got)
			assert.Equal(t, int32(1), stub.calls.Load())
			st.AssertExpectations(t)
		})
	}
}

func TestCrawlErrorIsNotSaved(t *testing.T) {
	t.Parallel()
	crawlErr := errors.New("Failed to find any recipes")
	st := new(MockStore)
	stub := &crawlStub{err: crawlErr}

	a := app.NewWithDeps(testConfig(t), zaptest.NewLogger(t), st, stub.crawl)
	_, err := a.Crawl(context.Background())

	require.ErrorIs(t, err, crawlErr)
	st.AssertNotCalled(t, "Save", mock.Anything, mock.Anything)
}

func TestCrawlKeepsRecipesWhenSaveFails(t *testing.T) {
	t.Parallel()
	crawled := []recipe.Recipe{fiveStar("Stew", 10, 5)}
	st := new(MockStore)
	st.On("Save", mock.Anything, crawled).Return(errors.New("disk full"))
	stub := &crawlStub{recipes: crawled}

	a := app.NewWithDeps(testConfig(t), zaptest.NewLogger(t), st, stub.crawl)
	got, err := a.Crawl(context.Background())

	require.NoError(t, err)
	assert.Equal(t, crawled, got)
	st.AssertExpectations(t)
}

func TestCrawlPushesMetrics(t *testing.T) {
	t.Parallel()
	var pushes atomic.Int32
	gateway := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if r.Method == http.MethodPut {
			pushes.Add(1)
		}
		w.WriteHeader(http.StatusOK)
	}))
	t.Cleanup(gateway.Close)

	cfg := testConfig(t)
	cfg.Metrics.PushgatewayURL = gateway.URL
	crawled := []recipe.Recipe{fiveStar("Stew", 10, 5)}
	st := new(MockStore)
	st.On("Save", mock.Anything, crawled).Return(nil)
	stub := &crawlStub{recipes: crawled}

	a := app.NewWithDeps(cfg, zaptest.NewLogger(t), st, stub.crawl)
	_, err := a.Crawl(context.Background())

	require.NoError(t, err)
	assert.Equal(t, int32(1), pushes.Load())
}

func TestFindBest(t *testing.T) {
	t.Parallel()
	saved := []recipe.Recipe{
		fiveStar("A", 10, 5),
		fiveStar("B", 20, 2),
		fiveStar("C", 30, 10),
	}
	unrated := fiveStar("D", 100, 1)
	unrated.Rating = 4
	saved = append(saved, unrated)

	st := new(MockStore)
	st.On("Load", mock.Anything).Return(saved, nil)
	a := app.NewWithDeps(testConfig(t), zaptest.NewLogger(t), st, (&crawlStub{}).crawl)

	best, err := a.FindBest(context.Background())

	require.NoError(t, err)
	assert.Equal(t, "B", best.Name)
}

func TestFindBestWithoutFiveStarRecipes(t *testing.T) {
	t.Parallel()
	st := new(MockStore)
	st.On("Load", mock.Anything).Return([]recipe.Recipe{}, nil)
	a := app.NewWithDeps(testConfig(t), zaptest.NewLogger(t), st, (&crawlStub{}).crawl)

	_, err := a.FindBest(context.Background())

	require.ErrorIs(t, err, recipe.ErrNoRecipeFound)
	assert.EqualError(t, err, "No Recipe could be found")
}

func TestNewWithJSONStore(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Metrics.ListenAddr = "127.0.0.1:0"
	saved := []recipe.Recipe{fiveStar("Chili", 20, 4)}
	fs, err := jsonfile.New(cfg.Store.Path)
	require.NoError(t, err)
	require.NoError(t, fs.Save(context.Background(), saved))

	a, err := app.New(context.Background(), cfg, zaptest.NewLogger(t))
	require.NoError(t, err)

	got, err := a.FindRecipes(context.Background())
	require.NoError(t, err)
	assert.Equal(t, saved, got)
	require.NoError(t, a.Close(context.Background()))
}

func TestNewRejectsUnknownBackend(t *testing.T) {
	t.Parallel()
	cfg := testConfig(t)
	cfg.Store.Backend = "s3"

	_, err := app.New(context.Background(), cfg, zaptest.NewLogger(t))

	require.ErrorContains(t, err, "unknown store backend")
}

func TestCloseClosesStore(t *testing.T) {
	t.Parallel()
	st := new(MockStore)
	st.On("Close").Return(errors.New("boom"))
	a := app.NewWithDeps(testConfig(t), zaptest.NewLogger(t), st, (&crawlStub{}).crawl)

	err := a.Close(context.Background())

	require.ErrorContains(t, err, "close store: boom")
	st.AssertExpectations(t)
}
