// Package jsonfile persists recipes as a single JSON document of the form
// {"recipes": [...]}.
package jsonfile

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io/fs"
	"path/filepath"
	"strings"

	"github.com/spf13/afero"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/store"
)

// Store reads and writes one JSON file.
type Store struct {
	fs   afero.Fs
	path string
}

// New returns a Store for path on the OS filesystem.
func New(path string) (*Store, error) {
	return NewWithFs(afero.NewOsFs(), path)
}

// NewWithFs returns a Store backed by fsys (primarily for testing).
func NewWithFs(fsys afero.Fs, path string) (*Store, error) {
	if strings.TrimSpace(path) == "" {
		return nil, fmt.Errorf("path is required")
	}
	if fsys == nil {
		return nil, fmt.Errorf("filesystem is required")
	}
	return &Store{fs: fsys, path: filepath.Clean(path)}, nil
}

// Path returns the file location.
func (s *Store) Path() string {
	return s.path
}

// Load decodes the file. Every recipe key is required.
func (s *Store) Load(_ context.Context) ([]recipe.Recipe, error) {
	data, err := afero.ReadFile(s.fs, s.path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("%s: %w", s.path, store.ErrNotFound)
		}
		return nil, fmt.Errorf("read %s: %w", s.path, err)
	}
	recipes, err := Decode(data)
	if err != nil {
		return nil, &store.SchemaError{Source: s.path, Cause: err}
	}
	return recipes, nil
}

// Save writes the document with two-space indentation and a trailing newline.
// The file is replaced through a temporary sibling so readers never see a
// partial document.
func (s *Store) Save(_ context.Context, recipes []recipe.Recipe) error {
	data, err := Encode(recipes)
	if err != nil {
		return err
	}
	dir := filepath.Dir(s.path)
	if err := s.fs.MkdirAll(dir, 0o750); err != nil {
		return fmt.Errorf("create %s: %w", dir, err)
	}
	tmp := s.path + ".tmp"
	if err := afero.WriteFile(s.fs, tmp, data, 0o644); err != nil {
		return fmt.Errorf("write %s: %w", tmp, err)
	}
	if err := s.fs.Rename(tmp, s.path); err != nil {
		_ = s.fs.Remove(tmp)
		return fmt.Errorf("replace %s: %w", s.path, err)
	}
	return nil
}

// Close is a no-op.
func (s *Store) Close() error {
	return nil
}

type document struct {
	Recipes []recipe.Recipe `json:"recipes"`
}

// Encode renders the persisted document.
func Encode(recipes []recipe.Recipe) ([]byte, error) {
	if recipes == nil {
		recipes = []recipe.Recipe{}
	}
	data, err := json.MarshalIndent(document{Recipes: recipes}, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("encode recipes: %w", err)
	}
	return append(data, '\n'), nil
}

// strictDocument mirrors document with pointers so missing keys can be told
// apart from zero values.
type strictDocument struct {
	Recipes *[]strictRecipe `json:"recipes"`
}

type strictRecipe struct {
	URL            *string      `json:"url"`
	Name           *string      `json:"name"`
	Rating         *int         `json:"rating"`
	NutritionFacts *strictFacts `json:"nutritionFacts"`
}

type strictFacts struct {
	Calories            *float64 `json:"calories"`
	GramsOfCarbohydrate *float64 `json:"gramsOfCarbohydrate"`
	GramsOfFat          *float64 `json:"gramsOfFat"`
	GramsOfFiber        *float64 `json:"gramsOfFiber"`
	GramsOfNetCarbs     *float64 `json:"gramsOfNetCarbs"`
	GramsOfProtein      *float64 `json:"gramsOfProtein"`
}

// Decode parses a persisted document, failing on missing keys, wrong types
// and recipes that break their invariants.
func Decode(data []byte) ([]recipe.Recipe, error) {
	var doc strictDocument
	dec := json.NewDecoder(bytes.NewReader(data))
	if err := dec.Decode(&doc); err != nil {
		return nil, fmt.Errorf("decode: %w", err)
	}
	if doc.Recipes == nil {
		return nil, errors.New(`missing key "recipes"`)
	}

	var errs []error
	out := make([]recipe.Recipe, 0, len(*doc.Recipes))
	for i, raw := range *doc.Recipes {
		rec, err := raw.toRecipe()
		if err == nil {
			err = rec.Validate()
		}
		if err != nil {
			errs = append(errs, fmt.Errorf("recipes[%d]: %w", i, err))
			continue
		}
		out = append(out, rec)
	}
	if err := errors.Join(errs...); err != nil {
		return nil, err
	}
	return out, nil
}

func (r strictRecipe) toRecipe() (recipe.Recipe, error) {
	var missing []string
	need := func(key string, present bool) {
		if !present {
			missing = append(missing, key)
		}
	}
	need("url", r.URL != nil)
	need("name", r.Name != nil)
	need("rating", r.Rating != nil)
	need("nutritionFacts", r.NutritionFacts != nil)
	if f := r.NutritionFacts; f != nil {
		need("nutritionFacts.calories", f.Calories != nil)
		need("nutritionFacts.gramsOfCarbohydrate", f.GramsOfCarbohydrate != nil)
		need("nutritionFacts.gramsOfFat", f.GramsOfFat != nil)
		need("nutritionFacts.gramsOfFiber", f.GramsOfFiber != nil)
		need("nutritionFacts.gramsOfNetCarbs", f.GramsOfNetCarbs != nil)
		need("nutritionFacts.gramsOfProtein", f.GramsOfProtein != nil)
	}
	if len(missing) > 0 {
		return recipe.Recipe{}, fmt.Errorf("missing keys %s", strings.Join(missing, ", "))
	}
	f := r.NutritionFacts
	return recipe.Recipe{
		URL:    *r.URL,
		Name:   *r.Name,
		Rating: recipe.Rating(*r.Rating),
		NutritionFacts: recipe.NutritionFacts{
			Calories:            *f.Calories,
			GramsOfCarbohydrate: *f.GramsOfCarbohydrate,
			GramsOfFat:          *f.GramsOfFat,
			GramsOfFiber:        *f.GramsOfFiber,
			GramsOfNetCarbs:     *f.GramsOfNetCarbs,
			GramsOfProtein:      *f.GramsOfProtein,
		},
	}, nil
}
