package store

import (
	"context"
	"errors"
	"fmt"

	"github.com/JakeFAU/lowcarb-recipe-crawler/internal/recipe"
)

// ErrNotFound signals that nothing has been persisted yet.
var ErrNotFound = errors.New("no persisted recipes")

// RecipeStore loads and saves the full recipe list.
type RecipeStore interface {
	// Load returns the persisted recipes. It fails with ErrNotFound when
	// nothing was saved and with *SchemaError when the data is malformed.
	Load(ctx context.Context) ([]recipe.Recipe, error)
	// Save replaces the persisted recipes.
	Save(ctx context.Context, recipes []recipe.Recipe) error
	Close() error
}

// SchemaError reports persisted data that does not decode into recipes.
type SchemaError struct {
	Source string
	Cause  error
}

func (e *SchemaError) Error() string {
	return fmt.Sprintf("invalid recipes in %s: %v", e.Source, e.Cause)
}

// Unwrap exposes the decode or validation error.
func (e *SchemaError) Unwrap() error {
	return e.Cause
}
