package shopping

import (
	"fmt"
	"math"
	"sort"
	"time"

	"campkitchen/ent"
)

// SelectionsFromMenu turns the menu entries planned between from and to
// (both inclusive, compared by calendar day) into selections, ordered by date
// and then by meal. A zero from or to leaves that side open.
func SelectionsFromMenu(entries []ent.MenuEntry, from, to time.Time) ([]ent.RecipeSelection, error) {
	picked := make([]ent.MenuEntry, 0, len(entries))

	for i, e := range entries {
		if err := ent.Validate(e); err != nil {
			return nil, fmt.Errorf("menu entry %d: %w", i+1, err)
		}
		day := truncateDay(e.Date)
		if !from.IsZero() && day.Before(truncateDay(from)) {
			continue
		}
		if !to.IsZero() && day.After(truncateDay(to)) {
			continue
		}
		picked = append(picked, e)
	}

	sort.SliceStable(picked, func(i, j int) bool {
		di, dj := truncateDay(picked[i].Date), truncateDay(picked[j].Date)
		if !di.Equal(dj) {
			return di.Before(dj)
		}
		return mealRank(picked[i].Meal) < mealRank(picked[j].Meal)
	})

	out := make([]ent.RecipeSelection, 0, len(picked))
	for _, e := range picked {
		out = append(out, ent.RecipeSelection{RecipeID: e.RecipeID, Servings: e.Servings})
	}
	return out, nil
}

var mealOrder = map[string]int{
	"fruehstueck": 0,
	"frühstück":   0,
	"breakfast":   0,
	"mittagessen": 1,
	"lunch":       1,
	"abendessen":  2,
	"dinner":      2,
}

func mealRank(meal string) int {
	if r, ok := mealOrder[normalizeName(meal)]; ok {
		return r
	}
	return math.MaxInt
}

func truncateDay(t time.Time) time.Time {
	y, m, d := t.Date()
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}
