package shopping

import (
	"fmt"

	"github.com/sirupsen/logrus"

	"campkitchen/ent"
)

// Subtract nets stock on hand against a generated list. Stock only counts
// against an item with the same name and unit family; items that are fully
// covered are dropped. The input slice is not modified.
func (a *Aggregator) Subtract(items []ent.ShoppingListItem, inventory []ent.InventoryItem) ([]ent.ShoppingListItem, error) {
	stock := make(map[groupKey]float64, len(inventory))
	for i, inv := range inventory {
		if err := ent.Validate(inv); err != nil {
			return nil, fmt.Errorf("inventory item %d: %w", i+1, err)
		}
		unitKey, amount := a.units.Canonical(inv.Quantity, inv.Unit)
		stock[groupKey{name: normalizeName(inv.Name), unit: unitKey}] += amount
	}

	out := make([]ent.ShoppingListItem, 0, len(items))
	for _, item := range items {
		unitKey, _ := a.units.Canonical(item.TotalAmount, item.Unit)
		key := groupKey{name: normalizeName(item.Name), unit: unitKey}

		onHand, ok := stock[key]
		if !ok {
			out = append(out, item)
			continue
		}

		_, total := a.units.Canonical(item.TotalAmount, item.Unit)
		remaining := roundAmount(total - onHand)
		if remaining <= 0 {
			a.log.WithField("item", item.Name).Debug("covered by inventory")
			continue
		}

		item.TotalAmount = remaining
		item.Unit = unitKey.Unit()
		out = append(out, item)
	}

	a.log.WithFields(logrus.Fields{
		"before": len(items),
		"after":  len(out),
	}).Debug("inventory subtracted")

	return out, nil
}
