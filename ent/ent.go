package ent

import "time"

type Recipe struct {
	ID           *int64     `json:"id" db:"id"`
	Name         string     `json:"name" db:"name" validate:"required"`
	CategoryID   *int64     `json:"category_id" db:"category_id"`
	BaseServings int        `json:"base_servings" db:"base_servings" validate:"gt=0"`
	Instructions string     `json:"instructions" db:"instructions"`
	CreatedAt    *time.Time `json:"created_at,omitempty" db:"created_at"`
	UpdatedAt    *time.Time `json:"updated_at,omitempty" db:"updated_at"`
}

// Ingredient amounts are stored per single serving of the owning recipe.
type Ingredient struct {
	ID               *int64  `json:"id" db:"id"`
	RecipeID         *int64  `json:"recipe_id" db:"recipe_id"`
	Name             string  `json:"name" db:"name" validate:"required"`
	Unit             string  `json:"unit" db:"unit" validate:"required"`
	AmountPerServing float64 `json:"amount_per_serving" db:"amount_per_serving" validate:"gte=0"`
	Notes            *string `json:"notes" db:"notes"`
}

type RecipeWithIngredients struct {
	Recipe
	Ingredients []Ingredient `json:"ingredients"`
}

type RecipeSelection struct {
	RecipeID int64 `json:"recipe_id" validate:"gt=0"`
	Servings int   `json:"servings" validate:"gt=0"`
}

type ShoppingListItem struct {
	Name        string   `json:"name"`
	Unit        string   `json:"unit"`
	TotalAmount float64  `json:"total_amount"`
	Notes       []string `json:"notes"`
	Category    *string  `json:"category,omitempty"`
}

// MenuEntry is one planned meal from the menu calendar.
type MenuEntry struct {
	Date     time.Time `json:"date"`
	Meal     string    `json:"meal"`
	RecipeID int64     `json:"recipe_id" validate:"gt=0"`
	Servings int       `json:"servings" validate:"gt=0"`
}

// InventoryItem is stock already on hand.
type InventoryItem struct {
	Name     string  `json:"name" validate:"required"`
	Unit     string  `json:"unit" validate:"required"`
	Quantity float64 `json:"quantity" validate:"gte=0"`
}

func Int64(v int64) *int64 {
	return &v
}

func String(v string) *string {
	return &v
}
