// Package shopping scales selected recipes and merges their ingredients into
// a shopping list.
package shopping

import (
	"context"
	"errors"
	"fmt"
	"math"
	"sort"
	"strings"

	"github.com/sirupsen/logrus"

	"campkitchen/category"
	"campkitchen/ent"
	"campkitchen/units"
)

// Resolver returns a recipe with its ingredients. A missing recipe is
// reported as ent.ErrNotFound.
type Resolver func(ctx context.Context, id int64) (ent.RecipeWithIngredients, error)

// MapResolver resolves from an in-memory map.
func MapResolver(recipes map[int64]ent.RecipeWithIngredients) Resolver {
	return func(_ context.Context, id int64) (ent.RecipeWithIngredients, error) {
		r, ok := recipes[id]
		if !ok {
			return ent.RecipeWithIngredients{}, ent.ErrNotFound
		}
		return r, nil
	}
}

// Aggregator holds only read-only tables, so one instance can serve
// concurrent calls.
type Aggregator struct {
	units      *units.Table
	categories *category.Categorizer
	log        logrus.FieldLogger
}

func NewAggregator(u *units.Table, c *category.Categorizer, log logrus.FieldLogger) *Aggregator {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &Aggregator{units: u, categories: c, log: log}
}

type groupKey struct {
	name string
	unit units.Key
}

type group struct {
	name  string
	unit  units.Key
	total float64
	notes []string
}

// Generate scales every ingredient of every selected recipe by the selected
// servings and merges lines with the same name and unit family. The first
// unknown recipe aborts the call.
func (a *Aggregator) Generate(ctx context.Context, selections []ent.RecipeSelection, resolve Resolver) ([]ent.ShoppingListItem, error) {
	if len(selections) == 0 {
		return []ent.ShoppingListItem{}, nil
	}

	for i, sel := range selections {
		if err := ent.Validate(sel); err != nil {
			return nil, fmt.Errorf("selection %d: %w", i+1, err)
		}
	}

	groups := make(map[groupKey]*group)
	var order []groupKey

	for _, sel := range selections {
		recipe, err := resolve(ctx, sel.RecipeID)
		if errors.Is(err, ent.ErrNotFound) {
			return nil, &ent.MissingRecipeError{RecipeID: sel.RecipeID}
		}
		if err != nil {
			return nil, fmt.Errorf("resolve recipe %d: %w", sel.RecipeID, err)
		}

		for _, ing := range recipe.Ingredients {
			scaled := ing.AmountPerServing * float64(sel.Servings)
			unitKey, amount := a.units.Canonical(scaled, ing.Unit)

			key := groupKey{name: normalizeName(ing.Name), unit: unitKey}
			g, ok := groups[key]
			if !ok {
				g = &group{name: strings.TrimSpace(ing.Name), unit: unitKey}
				groups[key] = g
				order = append(order, key)
			}

			g.total += amount
			if ing.Notes != nil && strings.TrimSpace(*ing.Notes) != "" {
				g.notes = append(g.notes, *ing.Notes)
			}
		}
	}

	items := make([]ent.ShoppingListItem, 0, len(order))
	for _, key := range order {
		g := groups[key]
		item := ent.ShoppingListItem{
			Name:        g.name,
			Unit:        g.unit.Unit(),
			TotalAmount: roundAmount(g.total),
			Notes:       g.notes,
		}
		if item.Notes == nil {
			item.Notes = []string{}
		}
		if cat, ok := a.categories.CategoryOf(g.name); ok {
			item.Category = &cat
		}
		items = append(items, item)
	}

	SortItems(items)

	a.log.WithFields(logrus.Fields{
		"selections": len(selections),
		"items":      len(items),
	}).Debug("shopping list generated")

	return items, nil
}

// SortItems orders items by category, uncategorized last, then by name.
func SortItems(items []ent.ShoppingListItem) {
	sort.SliceStable(items, func(i, j int) bool {
		ci, cj := items[i].Category, items[j].Category
		switch {
		case ci == nil && cj != nil:
			return false
		case ci != nil && cj == nil:
			return true
		case ci != nil && cj != nil && *ci != *cj:
			return *ci < *cj
		}
		ni, nj := strings.ToLower(items[i].Name), strings.ToLower(items[j].Name)
		if ni != nj {
			return ni < nj
		}
		return items[i].Unit < items[j].Unit
	})
}

func normalizeName(name string) string {
	return strings.ToLower(strings.TrimSpace(name))
}

// roundAmount drops float noise such as 400.00000000000006.
func roundAmount(v float64) float64 {
	return math.Round(v*1e6) / 1e6
}
