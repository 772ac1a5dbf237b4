package ent

import (
	"errors"
	"fmt"
	"strings"

	"github.com/go-playground/validator/v10"
)

var validate = validator.New(validator.WithRequiredStructEnabled())

// Validate checks struct tags and reports violations as ErrInvalidArgument.
func Validate(v any) error {
	err := validate.Struct(v)
	if err == nil {
		return nil
	}

	var verrs validator.ValidationErrors
	if !errors.As(err, &verrs) {
		return fmt.Errorf("%w: %v", ErrInvalidArgument, err)
	}

	fields := make([]string, 0, len(verrs))
	for _, fe := range verrs {
		fields = append(fields, fmt.Sprintf("%s failed %s", fe.Field(), fe.Tag()))
	}
	return fmt.Errorf("%w: %s", ErrInvalidArgument, strings.Join(fields, ", "))
}

// ValidateRecipe checks a recipe and its ingredients before persisting.
// Names and units consisting only of whitespace are rejected as well.
func ValidateRecipe(r Recipe, ingredients []Ingredient) error {
	if strings.TrimSpace(r.Name) == "" {
		return fmt.Errorf("%w: recipe name is blank", ErrInvalidArgument)
	}
	if err := Validate(r); err != nil {
		return err
	}

	for i, ing := range ingredients {
		if strings.TrimSpace(ing.Name) == "" || strings.TrimSpace(ing.Unit) == "" {
			return fmt.Errorf("%w: ingredient %d of %q has blank name or unit", ErrInvalidArgument, i+1, r.Name)
		}
		if err := Validate(ing); err != nil {
			return fmt.Errorf("ingredient %q: %w", ing.Name, err)
		}
		if ing.RecipeID != nil && r.ID != nil && *ing.RecipeID != *r.ID {
			return fmt.Errorf("%w: ingredient %q belongs to recipe %d, not %d",
				ErrInvalidArgument, ing.Name, *ing.RecipeID, *r.ID)
		}
	}

	return nil
}
