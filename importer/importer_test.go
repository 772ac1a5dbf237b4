package importer

import (
	"context"
	"errors"
	"io"

	"github.com/sirupsen/logrus"

	"campkitchen/ent"
)

// recordingCreator stores what it is given and can fail on a chosen call.
type recordingCreator struct {
	saved  []ent.RecipeWithIngredients
	failOn int
	nextID int64
}

var errStoreDown = errors.New("store down")

func (c *recordingCreator) Create(_ context.Context, recipe ent.Recipe, ingredients []ent.Ingredient) (ent.RecipeWithIngredients, error) {
	if c.failOn > 0 && len(c.saved)+1 == c.failOn {
		return ent.RecipeWithIngredients{}, errStoreDown
	}
	c.nextID++
	id := c.nextID
	recipe.ID = &id
	for i := range ingredients {
		ingredients[i].RecipeID = &id
	}
	out := ent.RecipeWithIngredients{Recipe: recipe, Ingredients: ingredients}
	c.saved = append(c.saved, out)
	return out, nil
}

func quietLogger() Option {
	log := logrus.New()
	log.SetOutput(io.Discard)
	return WithLogger(log)
}
