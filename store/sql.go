package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/jmoiron/sqlx"
	_ "github.com/lib/pq"
	"github.com/sirupsen/logrus"
	_ "modernc.org/sqlite"

	"campkitchen/ent"
)

// Supported database/sql driver names.
const (
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

func init() {
	sqlx.BindDriver(DriverSQLite, sqlx.QUESTION)
}

// Open opens a database for one of the supported drivers. SQLite runs on a
// single connection so that ":memory:" databases survive between queries.
func Open(driver, dsn string) (*sqlx.DB, error) {
	switch driver {
	case DriverPostgres, DriverSQLite:
	default:
		return nil, fmt.Errorf("%w: unsupported driver %q", ent.ErrInvalidArgument, driver)
	}

	db, err := sqlx.Open(driver, dsn)
	if err != nil {
		return nil, fmt.Errorf("open DB: %w", err)
	}

	if driver == DriverSQLite {
		db.SetMaxOpenConns(1)
		if _, err := db.Exec(`pragma foreign_keys = on`); err != nil {
			db.Close()
			return nil, fmt.Errorf("enable foreign keys: %w", err)
		}
	}

	return db, nil
}

// SQLStore keeps recipes in postgres or sqlite. Queries are written with
// '?' placeholders and rebound for the driver in use.
type SQLStore struct {
	db  *sqlx.DB
	log logrus.FieldLogger
}

func NewSQLStore(db *sqlx.DB, log logrus.FieldLogger) *SQLStore {
	if log == nil {
		log = logrus.StandardLogger()
	}
	return &SQLStore{db: db, log: log.WithField("driver", db.DriverName())}
}

const (
	recipeColumns     = `id, name, category_id, base_servings, instructions, created_at, updated_at`
	ingredientColumns = `id, recipe_id, name, unit, amount_per_serving, notes`
)

func (s *SQLStore) FindAll(ctx context.Context) ([]ent.RecipeWithIngredients, error) {
	var rs []ent.Recipe
	err := s.db.SelectContext(ctx, &rs, `
		select `+recipeColumns+` from recipe
		order by name, id
	`)
	if err != nil {
		return nil, fmt.Errorf("select recipes: %w", err)
	}

	var is []ent.Ingredient
	err = s.db.SelectContext(ctx, &is, `
		select `+ingredientColumns+` from ingredient
		order by recipe_id, position
	`)
	if err != nil {
		return nil, fmt.Errorf("select ingredients: %w", err)
	}

	byRecipe := make(map[int64][]ent.Ingredient, len(rs))
	for _, ing := range is {
		byRecipe[*ing.RecipeID] = append(byRecipe[*ing.RecipeID], ing)
	}

	out := make([]ent.RecipeWithIngredients, 0, len(rs))
	for _, r := range rs {
		ings := byRecipe[*r.ID]
		if ings == nil {
			ings = []ent.Ingredient{}
		}
		out = append(out, ent.RecipeWithIngredients{Recipe: r, Ingredients: ings})
	}
	return out, nil
}

func (s *SQLStore) FindByID(ctx context.Context, id int64) (ent.RecipeWithIngredients, error) {
	return s.findByID(ctx, s.db, id)
}

// queryer is satisfied by both *sqlx.DB and *sqlx.Tx.
type queryer interface {
	GetContext(ctx context.Context, dest any, query string, args ...any) error
	SelectContext(ctx context.Context, dest any, query string, args ...any) error
	Rebind(query string) string
}

func (s *SQLStore) findByID(ctx context.Context, q queryer, id int64) (ent.RecipeWithIngredients, error) {
	var r ent.RecipeWithIngredients

	err := q.GetContext(ctx, &r.Recipe, q.Rebind(`
		select `+recipeColumns+` from recipe where id = ?
	`), id)
	if errors.Is(err, sql.ErrNoRows) {
		return ent.RecipeWithIngredients{}, fmt.Errorf("recipe %d: %w", id, ent.ErrNotFound)
	}
	if err != nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("select recipe: %w", err)
	}

	r.Ingredients = []ent.Ingredient{}
	err = q.SelectContext(ctx, &r.Ingredients, q.Rebind(`
		select `+ingredientColumns+` from ingredient
		where recipe_id = ?
		order by position
	`), id)
	if err != nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("select ingredients: %w", err)
	}

	return r, nil
}

func (s *SQLStore) Create(ctx context.Context, recipe ent.Recipe, ingredients []ent.Ingredient) (_ ent.RecipeWithIngredients, err error) {
	recipe.ID = nil
	if err = ent.ValidateRecipe(recipe, detach(ingredients)); err != nil {
		return ent.RecipeWithIngredients{}, err
	}

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	now := time.Now().UTC()

	var id int64
	err = tx.QueryRowxContext(ctx, tx.Rebind(`
		insert into recipe(name, category_id, base_servings, instructions, created_at, updated_at)
		values (?, ?, ?, ?, ?, ?)
		returning id
	`), recipe.Name, recipe.CategoryID, recipe.BaseServings, recipe.Instructions, now, now).Scan(&id)
	if err != nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("insert recipe: %w", err)
	}

	if err = insertIngredients(ctx, tx, id, ingredients); err != nil {
		return ent.RecipeWithIngredients{}, err
	}

	saved, err := s.findByID(ctx, tx, id)
	if err != nil {
		return ent.RecipeWithIngredients{}, err
	}

	if err = tx.Commit(); err != nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("commit: %w", err)
	}

	s.log.WithFields(logrus.Fields{"recipe_id": id, "recipe": recipe.Name}).Debug("recipe created")
	return saved, nil
}

func (s *SQLStore) Update(ctx context.Context, recipe ent.Recipe, ingredients []ent.Ingredient) (_ ent.RecipeWithIngredients, err error) {
	if recipe.ID == nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("%w: update without recipe id", ent.ErrInvalidArgument)
	}
	if err = ent.ValidateRecipe(recipe, ingredients); err != nil {
		return ent.RecipeWithIngredients{}, err
	}
	id := *recipe.ID

	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	res, err := tx.ExecContext(ctx, tx.Rebind(`
		update recipe
		set name = ?, category_id = ?, base_servings = ?, instructions = ?, updated_at = ?
		where id = ?
	`), recipe.Name, recipe.CategoryID, recipe.BaseServings, recipe.Instructions, time.Now().UTC(), id)
	if err != nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("update recipe: %w", err)
	}
	if err = expectOne(res, id); err != nil {
		return ent.RecipeWithIngredients{}, err
	}

	_, err = tx.ExecContext(ctx, tx.Rebind(`delete from ingredient where recipe_id = ?`), id)
	if err != nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("delete ingredients: %w", err)
	}

	if err = insertIngredients(ctx, tx, id, ingredients); err != nil {
		return ent.RecipeWithIngredients{}, err
	}

	saved, err := s.findByID(ctx, tx, id)
	if err != nil {
		return ent.RecipeWithIngredients{}, err
	}

	if err = tx.Commit(); err != nil {
		return ent.RecipeWithIngredients{}, fmt.Errorf("commit: %w", err)
	}
	return saved, nil
}

func (s *SQLStore) Delete(ctx context.Context, id int64) (err error) {
	tx, err := s.db.BeginTxx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}

	defer func() {
		if err != nil {
			tx.Rollback()
		}
	}()

	_, err = tx.ExecContext(ctx, tx.Rebind(`delete from ingredient where recipe_id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete ingredients: %w", err)
	}

	res, err := tx.ExecContext(ctx, tx.Rebind(`delete from recipe where id = ?`), id)
	if err != nil {
		return fmt.Errorf("delete recipe: %w", err)
	}
	if err = expectOne(res, id); err != nil {
		return err
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

func insertIngredients(ctx context.Context, tx *sqlx.Tx, recipeID int64, ingredients []ent.Ingredient) error {
	query := tx.Rebind(`
		insert into ingredient(recipe_id, position, name, unit, amount_per_serving, notes)
		values (?, ?, ?, ?, ?, ?)
	`)
	for i, ing := range ingredients {
		_, err := tx.ExecContext(ctx, query, recipeID, i, ing.Name, ing.Unit, ing.AmountPerServing, ing.Notes)
		if err != nil {
			return fmt.Errorf("insert ingredient %q: %w", ing.Name, err)
		}
	}
	return nil
}

func expectOne(res sql.Result, id int64) error {
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return fmt.Errorf("recipe %d: %w", id, ent.ErrNotFound)
	}
	return nil
}
