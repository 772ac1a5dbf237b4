package importer

import (
	"context"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"math"
	"strconv"
	"strings"

	"campkitchen/ent"
)

const (
	colRecipeID        = "recipe_id"
	colName            = "name"
	colCategoryID      = "category_id"
	colBaseServings    = "base_servings"
	colInstructions    = "instructions"
	colIngredientName  = "ingredient_name"
	colIngredientUnit  = "ingredient_unit"
	colAmountPerServe  = "ingredient_amount_per_serving"
	colAmountTotal     = "ingredient_amount_total"
	colIngredientNotes = "ingredient_notes"
)

// Delimiter separates fields in the table format.
const Delimiter = ';'

// CSV imports recipes from the delimited table format. Each row holds one
// ingredient; consecutive rows with the same recipe name, servings and
// instructions belong to one recipe. Column order comes from the header.
//
// On error the recipes persisted so far are returned together with the error.
func CSV(ctx context.Context, r io.Reader, creator Creator, opts ...Option) ([]ent.RecipeWithIngredients, error) {
	o := buildOptions("csv", opts)
	f := &flusher{ctx: ctx, creator: creator, log: o.log}

	reader := csv.NewReader(r)
	reader.Comma = Delimiter
	reader.LazyQuotes = true

	header, err := reader.Read()
	if errors.Is(err, io.EOF) {
		return f.result(), nil
	}
	if err != nil {
		return nil, readError(err)
	}

	cols, err := parseHeader(header)
	if err != nil {
		return nil, err
	}

	var p pending
	for {
		record, err := reader.Read()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return f.result(), readError(err)
		}
		if blankRecord(record) {
			continue
		}

		line, _ := reader.FieldPos(0)
		row, err := cols.parseRow(record, line)
		if err != nil {
			return f.result(), err
		}

		if p.active && p.key != row.key {
			recipe, ingredients := p.take()
			if err := f.flush(recipe, ingredients); err != nil {
				return f.result(), fmt.Errorf("persist recipe %q: %w", recipe.Name, err)
			}
		}
		if !p.active {
			p.start(row.key, row.recipe)
		}
		p.add(row.ingredient)
	}

	if p.active {
		recipe, ingredients := p.take()
		if err := f.flush(recipe, ingredients); err != nil {
			return f.result(), fmt.Errorf("persist recipe %q: %w", recipe.Name, err)
		}
	}

	o.log.WithField("recipes", len(f.done)).Info("csv import finished")
	return f.result(), nil
}

// recipeKey decides whether a row continues the pending recipe.
type recipeKey struct {
	recipeID     string
	name         string
	baseServings int
	instructions string
}

// pending accumulates the rows of the recipe currently being read.
type pending struct {
	active      bool
	key         recipeKey
	recipe      ent.Recipe
	ingredients []ent.Ingredient
}

func (p *pending) start(key recipeKey, recipe ent.Recipe) {
	p.active = true
	p.key = key
	p.recipe = recipe
	p.ingredients = nil
}

func (p *pending) add(ing ent.Ingredient) {
	p.ingredients = append(p.ingredients, ing)
}

func (p *pending) take() (ent.Recipe, []ent.Ingredient) {
	recipe, ingredients := p.recipe, p.ingredients
	*p = pending{}
	return recipe, ingredients
}

type columns map[string]int

func parseHeader(header []string) (columns, error) {
	cols := make(columns, len(header))
	for i, h := range header {
		if i == 0 {
			h = strings.TrimPrefix(h, "\ufeff")
		}
		name := strings.ToLower(strings.TrimSpace(h))
		if name == "" {
			continue
		}
		if _, dup := cols[name]; dup {
			return nil, &ent.ParseError{Line: 1, Reason: fmt.Sprintf("duplicate column %q", name)}
		}
		cols[name] = i
	}

	for _, required := range []string{colName, colIngredientName, colIngredientUnit} {
		if _, ok := cols[required]; !ok {
			return nil, &ent.ParseError{Line: 1, Reason: fmt.Sprintf("missing column %q", required)}
		}
	}
	_, perServing := cols[colAmountPerServe]
	_, total := cols[colAmountTotal]
	if !perServing && !total {
		return nil, &ent.ParseError{Line: 1, Reason: fmt.Sprintf("missing column %q", colAmountPerServe)}
	}

	return cols, nil
}

func (c columns) get(record []string, col string) (string, bool) {
	i, ok := c[col]
	if !ok || i >= len(record) {
		return "", false
	}
	return record[i], true
}

type csvRow struct {
	key        recipeKey
	recipe     ent.Recipe
	ingredient ent.Ingredient
}

func (c columns) parseRow(record []string, line int) (csvRow, error) {
	fail := func(format string, args ...any) (csvRow, error) {
		return csvRow{}, &ent.ParseError{Line: line, Reason: fmt.Sprintf(format, args...)}
	}

	var row csvRow

	name, _ := c.get(record, colName)
	name = strings.TrimSpace(name)
	if name == "" {
		return fail("blank %s", colName)
	}

	servings := 1
	if v, ok := c.get(record, colBaseServings); ok && strings.TrimSpace(v) != "" {
		n, err := strconv.Atoi(strings.TrimSpace(v))
		if err != nil || n <= 0 {
			return fail("%s must be a positive integer, got %q", colBaseServings, v)
		}
		servings = n
	}

	instructions, _ := c.get(record, colInstructions)
	recipeID, _ := c.get(record, colRecipeID)

	row.key = recipeKey{
		recipeID:     strings.TrimSpace(recipeID),
		name:         name,
		baseServings: servings,
		instructions: instructions,
	}
	row.recipe = ent.Recipe{Name: name, BaseServings: servings, Instructions: instructions}

	if v, ok := c.get(record, colCategoryID); ok && strings.TrimSpace(v) != "" {
		id, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64)
		if err != nil {
			return fail("%s must be an integer, got %q", colCategoryID, v)
		}
		row.recipe.CategoryID = &id
	}

	ingName, _ := c.get(record, colIngredientName)
	ingName = strings.TrimSpace(ingName)
	if ingName == "" {
		return fail("blank %s", colIngredientName)
	}

	unit, _ := c.get(record, colIngredientUnit)
	unit = strings.TrimSpace(unit)
	if unit == "" {
		return fail("blank %s for %q", colIngredientUnit, ingName)
	}

	var amount float64
	if v, ok := c.get(record, colAmountPerServe); ok && strings.TrimSpace(v) != "" {
		a, err := parseDecimal(v)
		if err != nil {
			return fail("%s for %q: %v", colAmountPerServe, ingName, err)
		}
		amount = a
	} else if v, ok := c.get(record, colAmountTotal); ok && strings.TrimSpace(v) != "" {
		a, err := parseDecimal(v)
		if err != nil {
			return fail("%s for %q: %v", colAmountTotal, ingName, err)
		}
		amount = a / float64(servings)
	} else {
		return fail("no amount for %q", ingName)
	}

	row.ingredient = ent.Ingredient{Name: ingName, Unit: unit, AmountPerServing: amount}
	if v, ok := c.get(record, colIngredientNotes); ok && strings.TrimSpace(v) != "" {
		notes := strings.TrimSpace(v)
		row.ingredient.Notes = &notes
	}

	return row, nil
}

// parseDecimal accepts "0.25" and the decimal comma form "0,25".
func parseDecimal(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if !strings.Contains(s, ".") {
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("not a number: %q", s)
	}
	if math.IsNaN(v) || math.IsInf(v, 0) || v < 0 {
		return 0, fmt.Errorf("amount out of range: %q", s)
	}
	return v, nil
}

func blankRecord(record []string) bool {
	for _, field := range record {
		if strings.TrimSpace(field) != "" {
			return false
		}
	}
	return true
}

func readError(err error) error {
	var perr *csv.ParseError
	if errors.As(err, &perr) {
		return &ent.ParseError{Line: perr.Line, Reason: perr.Err.Error()}
	}
	return ent.IOError("read csv", err)
}
