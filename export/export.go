// Package export writes recipes as a delimited table or as plain text.
// Recipes are written in the order given; callers pass the repository
// listing, which is sorted by name.
package export

import (
	"encoding/csv"
	"fmt"
	"io"
	"math"
	"runtime"
	"strconv"
	"strings"

	"campkitchen/ent"
)

// Header is the fixed column set of the table format.
var Header = []string{
	"recipe_id",
	"name",
	"category_id",
	"base_servings",
	"instructions",
	"ingredient_name",
	"ingredient_unit",
	"ingredient_amount_per_serving",
	"ingredient_amount_total",
	"ingredient_notes",
}

// CSV writes one row per ingredient. Recipes without ingredients produce no
// row.
func CSV(w io.Writer, recipes []ent.RecipeWithIngredients) error {
	cw := csv.NewWriter(w)
	cw.Comma = ';'
	cw.UseCRLF = runtime.GOOS == "windows"

	if err := cw.Write(Header); err != nil {
		return ent.IOError("write csv header", err)
	}

	for _, r := range recipes {
		for _, ing := range r.Ingredients {
			row := []string{
				optionalID(r.ID),
				r.Name,
				optionalID(r.CategoryID),
				strconv.Itoa(r.BaseServings),
				r.Instructions,
				ing.Name,
				ing.Unit,
				strconv.FormatFloat(ing.AmountPerServing, 'f', -1, 64),
				FormatAmount(ing.AmountPerServing * float64(r.BaseServings)),
				optionalString(ing.Notes),
			}
			if err := cw.Write(row); err != nil {
				return ent.IOError("write csv row", err)
			}
		}
	}

	cw.Flush()
	if err := cw.Error(); err != nil {
		return ent.IOError("flush csv", err)
	}
	return nil
}

// PlainText writes one block per recipe, blocks separated by a blank line.
func PlainText(w io.Writer, recipes []ent.RecipeWithIngredients) error {
	var b strings.Builder

	for i, r := range recipes {
		b.Reset()
		if i > 0 {
			b.WriteString("\n")
		}

		category := "-"
		if r.CategoryID != nil {
			category = strconv.FormatInt(*r.CategoryID, 10)
		}

		fmt.Fprintf(&b, "%s\n", r.Name)
		fmt.Fprintf(&b, "Kategorie-ID: %s\n", category)
		fmt.Fprintf(&b, "Portionen: %d\n", r.BaseServings)
		b.WriteString("Zutaten:\n")
		for _, ing := range r.Ingredients {
			total := ing.AmountPerServing * float64(r.BaseServings)
			fmt.Fprintf(&b, "- %s %s %s\n", FormatAmount(total), ing.Unit, ing.Name)
		}
		b.WriteString("Anleitung:\n")
		if r.Instructions != "" {
			b.WriteString(r.Instructions)
			b.WriteString("\n")
		}

		if _, err := io.WriteString(w, b.String()); err != nil {
			return ent.IOError("write text", err)
		}
	}
	return nil
}

// FormatAmount prints whole numbers without decimals and drops trailing
// zeros otherwise; products are rounded to 6 places first.
func FormatAmount(v float64) string {
	v = math.Round(v*1e6) / 1e6
	if v == math.Trunc(v) && math.Abs(v) < 1e15 {
		return strconv.FormatInt(int64(v), 10)
	}
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func optionalID(id *int64) string {
	if id == nil {
		return ""
	}
	return strconv.FormatInt(*id, 10)
}

func optionalString(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
