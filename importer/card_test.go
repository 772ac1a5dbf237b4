package importer

import (
	"context"
	"fmt"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"campkitchen/ent"
)

func cardLine(amount, unit, name string) string {
	return fmt.Sprintf("%7s %-6s %s", amount, unit, name)
}

func importCard(t *testing.T, text string) (*recordingCreator, []ent.RecipeWithIngredients, error) {
	t.Helper()
	creator := &recordingCreator{}
	got, err := Card(context.Background(), strings.NewReader(text), creator, quietLogger())
	return creator, got, err
}

var campBread = strings.Join([]string{
	"Some mail header that is not part of a card",
	"",
	"MMMMM----- Recipe via Meal-Master (tm) v8.05",
	"",
	"      Title: Camp Bread",
	" Categories: Breads, Camping",
	"      Yield: 8 servings",
	"",
	cardLine("2", "c", "Flour"),
	cardLine("1", "t", "Salt"),
	cardLine("1/2", "c", "Water"),
	cardLine("", "", "-lukewarm"),
	cardLine("1 1/2", "T", "Oil"),
	cardLine("3", "", "Eggs"),
	"",
	"  Mix everything.",
	"  Knead well.",
	"",
	"",
	"  Bake in the dutch oven.",
	"",
	"MMMMM",
	"",
	"---------- Recipe via Meal-Master (tm) v8.02",
	"      Title: Trail Mix",
	"   Servings: 4",
	"",
	cardLine("200", "g", "Nüsse"),
	cardLine("100", "g", "Rosinen"),
}, "\n")

func TestCardImportsRecipes(t *testing.T) {
	creator, got, err := importCard(t, campBread)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Len(t, creator.saved, 2)

	bread := got[0]
	assert.Equal(t, "Camp Bread", bread.Name)
	assert.Equal(t, 8, bread.BaseServings)
	assert.Equal(t, "Mix everything.\nKnead well.\n\nBake in the dutch oven.", bread.Instructions)

	require.Len(t, bread.Ingredients, 5)
	want := []struct {
		name   string
		unit   string
		amount float64
	}{
		{"Flour", "c", 0.25},
		{"Salt", "t", 0.125},
		{"Water", "c", 0.0625},
		{"Oil", "T", 0.1875},
		{"Eggs", CardDefaultUnit, 0.375},
	}
	for i, w := range want {
		ing := bread.Ingredients[i]
		assert.Equal(t, w.name, ing.Name)
		assert.Equal(t, w.unit, ing.Unit)
		assert.InDelta(t, w.amount, ing.AmountPerServing, 1e-12, w.name)
	}
	require.NotNil(t, bread.Ingredients[2].Notes)
	assert.Equal(t, "lukewarm", *bread.Ingredients[2].Notes)

	mix := got[1]
	assert.Equal(t, "Trail Mix", mix.Name)
	assert.Equal(t, 4, mix.BaseServings)
	assert.Equal(t, "", mix.Instructions)
	require.Len(t, mix.Ingredients, 2)
	assert.Equal(t, "Nüsse", mix.Ingredients[0].Name)
	assert.InDelta(t, 50, mix.Ingredients[0].AmountPerServing, 1e-12)
}

func TestCardColumnOffsets(t *testing.T) {
	text := "MMMMM----- Recipe via Meal-Master (tm) v8.05\n" +
		"      Title: Flour Test\n" +
		"      Yield: 8 servings\n" +
		"\n" +
		"      2 c      Flour\n"

	_, got, err := importCard(t, text)
	require.NoError(t, err)
	require.Len(t, got, 1)
	require.Len(t, got[0].Ingredients, 1)

	ing := got[0].Ingredients[0]
	assert.Equal(t, "Flour", ing.Name)
	assert.Equal(t, "c", ing.Unit)
	assert.Equal(t, 0.25, ing.AmountPerServing)
}

func TestCardMalformedAmountAbortsCall(t *testing.T) {
	text := campBread + "\n" + strings.Join([]string{
		"MMMMM----- Recipe via Meal-Master (tm) v8.05",
		"      Title: Broken",
		"      Yield: 2 servings",
		"",
		cardLine("two", "c", "Sugar"),
		cardLine("1", "c", "Milk"),
		"MMMMM",
	}, "\n")

	creator, got, err := importCard(t, text)
	require.Error(t, err)
	assert.ErrorIs(t, err, ent.ErrMalformedInput)
	assert.Len(t, creator.saved, 2, "completed cards stay persisted")
	assert.Len(t, got, 2)
	for _, r := range creator.saved {
		assert.NotEqual(t, "Broken", r.Name)
	}
}

func TestCardMetadataErrors(t *testing.T) {
	tests := map[string]string{
		"missing yield": "MMMMM----- Recipe via Meal-Master (tm) v8.05\n" +
			"      Title: No Yield\n\n" + cardLine("1", "c", "Flour") + "\n",
		"zero yield": "MMMMM----- Recipe via Meal-Master (tm) v8.05\n" +
			"      Title: Zero\n      Yield: 0 servings\n\n",
		"missing title": "MMMMM----- Recipe via Meal-Master (tm) v8.05\n" +
			"      Yield: 4 servings\nMMMMM\n",
		"yield not a number": "MMMMM----- Recipe via Meal-Master (tm) v8.05\n" +
			"      Title: Odd\n      Yield: many servings\n",
		"ingredient inside header": "MMMMM----- Recipe via Meal-Master (tm) v8.05\n" +
			"      Title: A\n      Yield: 2 servings\n" +
			cardLine("1", "g", "Salz") + "\n\n" +
			cardLine("2", "g", "Zucker") + "\n",
	}

	for name, text := range tests {
		t.Run(name, func(t *testing.T) {
			creator, _, err := importCard(t, text)
			assert.ErrorIs(t, err, ent.ErrMalformedInput)
			assert.Empty(t, creator.saved)
		})
	}
}

func TestCardHeaderLineWithoutKey(t *testing.T) {
	text := "MMMMM----- Recipe via Meal-Master (tm) v8.05\n" +
		"      Title: A\n      Yield: 2 servings\n" +
		cardLine("1", "g", "Salz") + "\n"

	_, _, err := importCard(t, text)
	var perr *ent.ParseError
	require.ErrorAs(t, err, &perr)
	assert.Equal(t, 4, perr.Line)
	assert.Contains(t, perr.Reason, "unexpected line in card header")
}

func TestCardIgnoresUnknownHeaderKeys(t *testing.T) {
	text := "MMMMM----- Recipe via Meal-Master (tm) v8.05\n" +
		"      Title: A\n Categories: Snacks\n     Source: Oma\n      Yield: 2 servings\n\n" +
		cardLine("1", "g", "Salz") + "\n"

	creator, _, err := importCard(t, text)
	require.NoError(t, err)
	require.Len(t, creator.saved, 1)
	assert.Equal(t, "A", creator.saved[0].Name)
}

func TestCardWithoutBanner(t *testing.T) {
	creator, got, err := importCard(t, "just some text\nTitle: not a card\n")
	require.NoError(t, err)
	assert.Empty(t, got)
	assert.Empty(t, creator.saved)
}

func TestCardSkipsSectionHeadings(t *testing.T) {
	text := strings.Join([]string{
		"MMMMM----- Recipe via Meal-Master (tm) v8.05",
		"      Title: Stockbrot",
		"      Yield: 4 servings",
		"",
		"MMMMM--------------------------DOUGH---------------------------",
		cardLine("500", "g", "Mehl"),
		"-----------------------------FILLING----------------------------",
		cardLine("4", "", "Würstchen"),
		"",
		"  Teig um den Stock wickeln.",
		"MMMMM",
	}, "\n")

	_, got, err := importCard(t, text)
	require.NoError(t, err)
	require.Len(t, got, 1)
	assert.Len(t, got[0].Ingredients, 2)
	assert.Equal(t, "Teig um den Stock wickeln.", got[0].Instructions)
}

func TestParseCardAmount(t *testing.T) {
	tests := []struct {
		in   string
		want float64
		err  bool
	}{
		{"", 0, false},
		{"2", 2, false},
		{"1.5", 1.5, false},
		{"1,5", 1.5, false},
		{"1/4", 0.25, false},
		{"1 1/2", 1.5, false},
		{"1/0", 0, true},
		{"abc", 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := parseCardAmount(tt.in)
			if tt.err {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}
