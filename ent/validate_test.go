package ent

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestValidateRecipe(t *testing.T) {
	tests := []struct {
		name        string
		recipe      Recipe
		ingredients []Ingredient
		wantErr     bool
	}{
		{
			name:   "valid",
			recipe: Recipe{Name: "Eintopf", BaseServings: 4},
			ingredients: []Ingredient{
				{Name: "Linsen", Unit: "g", AmountPerServing: 60},
			},
		},
		{
			name:    "zero servings",
			recipe:  Recipe{Name: "Eintopf", BaseServings: 0},
			wantErr: true,
		},
		{
			name:    "blank name",
			recipe:  Recipe{Name: "   ", BaseServings: 2},
			wantErr: true,
		},
		{
			name:   "blank unit",
			recipe: Recipe{Name: "Eintopf", BaseServings: 2},
			ingredients: []Ingredient{
				{Name: "Linsen", Unit: " ", AmountPerServing: 60},
			},
			wantErr: true,
		},
		{
			name:   "negative amount",
			recipe: Recipe{Name: "Eintopf", BaseServings: 2},
			ingredients: []Ingredient{
				{Name: "Linsen", Unit: "g", AmountPerServing: -1},
			},
			wantErr: true,
		},
		{
			name:   "foreign recipe id",
			recipe: Recipe{ID: Int64(1), Name: "Eintopf", BaseServings: 2},
			ingredients: []Ingredient{
				{RecipeID: Int64(2), Name: "Linsen", Unit: "g", AmountPerServing: 1},
			},
			wantErr: true,
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			err := ValidateRecipe(tt.recipe, tt.ingredients)
			if !tt.wantErr {
				require.NoError(t, err)
				return
			}
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidArgument), "got %v", err)
		})
	}
}

func TestValidateSelection(t *testing.T) {
	assert.NoError(t, Validate(RecipeSelection{RecipeID: 1, Servings: 3}))
	assert.ErrorIs(t, Validate(RecipeSelection{RecipeID: 0, Servings: 3}), ErrInvalidArgument)
	assert.ErrorIs(t, Validate(RecipeSelection{RecipeID: 1, Servings: -2}), ErrInvalidArgument)
}

func TestErrorKinds(t *testing.T) {
	var perr error = &ParseError{Line: 3, Reason: "blank ingredient_name"}
	assert.ErrorIs(t, perr, ErrMalformedInput)
	assert.Equal(t, "malformed input at line 3: blank ingredient_name", perr.Error())

	var merr error = &MissingRecipeError{RecipeID: 9}
	assert.ErrorIs(t, merr, ErrMissingRecipe)

	cause := errors.New("disk full")
	ioErr := IOError("write csv", cause)
	assert.ErrorIs(t, ioErr, ErrIOFailure)
	assert.ErrorIs(t, ioErr, cause)
}
