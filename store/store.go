// Package store persists recipes with their ingredients.
package store

import (
	"context"

	"campkitchen/ent"
)

// Repository is the recipe storage used by the importers, the exporters and
// the shopping list. Create and Update are atomic per recipe.
type Repository interface {
	// FindAll returns every recipe sorted by name.
	FindAll(ctx context.Context) ([]ent.RecipeWithIngredients, error)
	// FindByID returns ent.ErrNotFound for unknown ids.
	FindByID(ctx context.Context, id int64) (ent.RecipeWithIngredients, error)
	// Create assigns ids and points every ingredient at the new recipe.
	Create(ctx context.Context, recipe ent.Recipe, ingredients []ent.Ingredient) (ent.RecipeWithIngredients, error)
	// Update replaces the recipe fields and its whole ingredient list.
	Update(ctx context.Context, recipe ent.Recipe, ingredients []ent.Ingredient) (ent.RecipeWithIngredients, error)
	// Delete removes the recipe and its ingredients.
	Delete(ctx context.Context, id int64) error
}

// Compile-time interface checks.
var (
	_ Repository = (*MemoryStore)(nil)
	_ Repository = (*SQLStore)(nil)
)
