// Package importer reads recipes from the delimited table format and from
// legacy Meal-Master recipe cards and persists each completed recipe.
//
// Both importers stop at the first malformed line. Recipes completed before
// that line have already been persisted and stay persisted; the recipe in
// progress is discarded.
package importer

import (
	"context"

	"github.com/google/uuid"
	"github.com/sirupsen/logrus"

	"campkitchen/ent"
)

// Creator persists one recipe with its ingredients.
type Creator interface {
	Create(ctx context.Context, recipe ent.Recipe, ingredients []ent.Ingredient) (ent.RecipeWithIngredients, error)
}

type Option func(*options)

type options struct {
	log   logrus.FieldLogger
	batch string
}

func WithLogger(log logrus.FieldLogger) Option {
	return func(o *options) {
		o.log = log
	}
}

// WithBatch tags the import with a caller chosen batch id. Without it a
// random one is generated.
func WithBatch(id string) Option {
	return func(o *options) {
		o.batch = id
	}
}

func buildOptions(kind string, opts []Option) options {
	o := options{log: logrus.StandardLogger()}
	for _, opt := range opts {
		opt(&o)
	}
	if o.batch == "" {
		o.batch = uuid.NewString()
	}
	o.log = o.log.WithFields(logrus.Fields{
		"import": kind,
		"batch":  o.batch,
	})
	return o
}

// flusher persists completed recipes and collects the results in order.
type flusher struct {
	ctx     context.Context
	creator Creator
	log     logrus.FieldLogger
	done    []ent.RecipeWithIngredients
}

func (f *flusher) flush(recipe ent.Recipe, ingredients []ent.Ingredient) error {
	saved, err := f.creator.Create(f.ctx, recipe, ingredients)
	if err != nil {
		return err
	}
	f.done = append(f.done, saved)
	f.log.WithFields(logrus.Fields{
		"recipe":      recipe.Name,
		"ingredients": len(ingredients),
	}).Debug("recipe imported")
	return nil
}

func (f *flusher) result() []ent.RecipeWithIngredients {
	if f.done == nil {
		return []ent.RecipeWithIngredients{}
	}
	return f.done
}
