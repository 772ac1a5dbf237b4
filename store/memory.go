package store

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/sirupsen/logrus"

	"campkitchen/ent"
)

// MemoryStore keeps recipes in memory. Safe for concurrent use.
type MemoryStore struct {
	mu      sync.RWMutex
	recipes map[int64]ent.RecipeWithIngredients
	lastID  int64
	lastIng int64
	log     logrus.FieldLogger
	now     func() time.Time
}

func NewMemoryStore(log logrus.FieldLogger) *MemoryStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &MemoryStore{
		recipes: make(map[int64]ent.RecipeWithIngredients),
		log:     log,
		now:     time.Now,
	}
}

func (s *MemoryStore) FindAll(ctx context.Context) ([]ent.RecipeWithIngredients, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	out := make([]ent.RecipeWithIngredients, 0, len(s.recipes))
	for _, r := range s.recipes {
		out = append(out, clone(r))
	}
	sortByName(out)
	return out, nil
}

func (s *MemoryStore) FindByID(ctx context.Context, id int64) (ent.RecipeWithIngredients, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, ok := s.recipes[id]
	if !ok {
		s.log.WithField("recipe_id", id).Debug("recipe not found")
		return ent.RecipeWithIngredients{}, fmt.Errorf("recipe %d: %w", id, ent.ErrNotFound)
	}
	return clone(r), nil
}

func (s *MemoryStore) Create(ctx context.Context, recipe ent.Recipe, ingredients []ent.Ingredient) (ent.RecipeWithIngredients, error) {
	recipe.ID = nil
	if err := ent.ValidateRecipe(recipe, detach(ingredients)); err != nil {
		return ent.RecipeWithIngredients{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	s.lastID++
	id := s.lastID
	now := s.now().UTC()
	recipe.ID = &id
	recipe.CreatedAt = &now
	recipe.UpdatedAt = &now

	saved := ent.RecipeWithIngredients{Recipe: recipe, Ingredients: s.attach(id, ingredients)}
	s.recipes[id] = saved

	s.log.WithFields(logrus.Fields{"recipe_id": id, "recipe": recipe.Name}).Debug("recipe created")
	return clone(saved), nil
}

func (s *MemoryStore) Update(ctx context.Context, recipe ent.Recipe, ingredients []ent.Ingredient) (ent.RecipeWithIngredients, error) {
	if recipe.ID == nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("%w: update without recipe id", ent.ErrInvalidArgument)
	}
	if err := ent.ValidateRecipe(recipe, ingredients); err != nil {
		return ent.RecipeWithIngredients{}, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	id := *recipe.ID
	old, ok := s.recipes[id]
	if !ok {
		return ent.RecipeWithIngredients{}, fmt.Errorf("recipe %d: %w", id, ent.ErrNotFound)
	}

	now := s.now().UTC()
	recipe.CreatedAt = old.CreatedAt
	recipe.UpdatedAt = &now

	saved := ent.RecipeWithIngredients{Recipe: recipe, Ingredients: s.attach(id, ingredients)}
	s.recipes[id] = saved
	return clone(saved), nil
}

func (s *MemoryStore) Delete(ctx context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.recipes[id]; !ok {
		return fmt.Errorf("recipe %d: %w", id, ent.ErrNotFound)
	}
	delete(s.recipes, id)
	return nil
}

// attach copies ingredients, assigning ids and the owning recipe.
func (s *MemoryStore) attach(recipeID int64, ingredients []ent.Ingredient) []ent.Ingredient {
	out := make([]ent.Ingredient, len(ingredients))
	for i, ing := range ingredients {
		s.lastIng++
		ingID := s.lastIng
		rid := recipeID
		ing.ID = &ingID
		ing.RecipeID = &rid
		out[i] = ing
	}
	return out
}

// detach drops recipe ids so a create can reuse ingredients of another
// recipe, e.g. when duplicating.
func detach(ingredients []ent.Ingredient) []ent.Ingredient {
	out := make([]ent.Ingredient, len(ingredients))
	for i, ing := range ingredients {
		ing.RecipeID = nil
		out[i] = ing
	}
	return out
}

func clone(r ent.RecipeWithIngredients) ent.RecipeWithIngredients {
	ings := make([]ent.Ingredient, len(r.Ingredients))
	copy(ings, r.Ingredients)
	r.Ingredients = ings
	return r
}

func sortByName(recipes []ent.RecipeWithIngredients) {
	sort.SliceStable(recipes, func(i, j int) bool {
		if recipes[i].Name != recipes[j].Name {
			return recipes[i].Name < recipes[j].Name
		}
		return *recipes[i].ID < *recipes[j].ID
	})
}
