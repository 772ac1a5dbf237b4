// Package units canonicalizes unit tokens into families and converts amounts
// to the family's base unit. Shopping totals are always reported in grams,
// milliliters or pieces; tokens the table does not know stay as they are.
package units

import (
	"fmt"
	"strings"
)

type Family int

const (
	Other Family = iota
	Mass
	Volume
	Count
)

var familyNames = map[Family]string{
	Other:  "other",
	Mass:   "mass",
	Volume: "volume",
	Count:  "count",
}

func (f Family) String() string {
	if name, ok := familyNames[f]; ok {
		return name
	}
	return "unknown"
}

func (f Family) MarshalText() ([]byte, error) {
	return []byte(f.String()), nil
}

func (f *Family) UnmarshalText(text []byte) error {
	name := strings.ToLower(strings.TrimSpace(string(text)))
	for fam, n := range familyNames {
		if n == name {
			*f = fam
			return nil
		}
	}
	return fmt.Errorf("unknown unit family %q", string(text))
}

// BaseUnit is the unit totals of a family are reported in. Other has none:
// its lines keep their own token.
func (f Family) BaseUnit() string {
	switch f {
	case Mass:
		return "g"
	case Volume:
		return "ml"
	case Count:
		return "Stück"
	default:
		return ""
	}
}

// Unit is one row of the table: Factor converts one Token into the base unit.
type Unit struct {
	Token  string  `yaml:"token"`
	Family Family  `yaml:"family"`
	Factor float64 `yaml:"factor"`
}

// DefaultUnits covers the metric units used on the recipe screens plus the
// Meal-Master codes found on legacy recipe cards. "t" and "T" differ.
var DefaultUnits = []Unit{
	{"mg", Mass, 0.001},
	{"g", Mass, 1},
	{"kg", Mass, 1000},
	{"Pfund", Mass, 500},
	{"oz", Mass, 28.349523125},
	{"lb", Mass, 453.59237},

	{"ml", Volume, 1},
	{"cl", Volume, 10},
	{"dl", Volume, 100},
	{"l", Volume, 1000},
	{"EL", Volume, 15},
	{"TL", Volume, 5},
	{"Tasse", Volume, 240},
	{"T", Volume, 15},
	{"tbsp", Volume, 15},
	{"tb", Volume, 15},
	{"t", Volume, 5},
	{"tsp", Volume, 5},
	{"ts", Volume, 5},
	{"c", Volume, 240},
	{"cup", Volume, 240},
	{"fl", Volume, 29.5735295625},
	{"pt", Volume, 473.176473},
	{"qt", Volume, 946.352946},
	{"ga", Volume, 3785.411784},

	{"Stück", Count, 1},
	{"Stk", Count, 1},
	{"Stk.", Count, 1},
	{"ea", Count, 1},
	{"x", Count, 1},
	{"pcs", Count, 1},
}

// Table is read-only after construction and safe for concurrent lookups.
type Table struct {
	exact  map[string]Unit
	folded map[string]Unit
}

// NewTable indexes units in order; on a case-insensitive collision the
// earlier row wins the folded lookup, exact tokens always resolve to
// themselves.
func NewTable(list []Unit) (*Table, error) {
	t := &Table{
		exact:  make(map[string]Unit, len(list)),
		folded: make(map[string]Unit, len(list)),
	}

	for _, u := range list {
		u.Token = strings.TrimSpace(u.Token)
		if u.Token == "" {
			return nil, fmt.Errorf("unit with empty token")
		}
		if u.Factor <= 0 {
			return nil, fmt.Errorf("unit %q: factor must be positive, got %v", u.Token, u.Factor)
		}
		if _, dup := t.exact[u.Token]; dup {
			return nil, fmt.Errorf("unit %q listed twice", u.Token)
		}
		t.exact[u.Token] = u

		key := strings.ToLower(u.Token)
		if _, taken := t.folded[key]; !taken {
			t.folded[key] = u
		}
	}

	return t, nil
}

// Default returns the table built from DefaultUnits.
func Default() *Table {
	t, err := NewTable(DefaultUnits)
	if err != nil {
		panic(err)
	}
	return t
}

// Lookup resolves a token; unknown tokens are Other with factor 1.
func (t *Table) Lookup(token string) (Family, float64) {
	u, ok := t.find(token)
	if !ok {
		return Other, 1
	}
	return u.Family, u.Factor
}

func (t *Table) find(token string) (Unit, bool) {
	token = strings.TrimSpace(token)
	if u, ok := t.exact[token]; ok {
		return u, true
	}
	u, ok := t.folded[strings.ToLower(token)]
	return u, ok
}

// Key identifies which lines may be merged: same family, and for Other the
// same token as well.
type Key struct {
	Family Family
	Token  string
}

// Canonical converts amount of token into its family's base unit.
func (t *Table) Canonical(amount float64, token string) (Key, float64) {
	fam, factor := t.Lookup(token)
	if fam == Other {
		return Key{Family: Other, Token: strings.TrimSpace(token)}, amount
	}
	return Key{Family: fam}, amount * factor
}

// Unit is the display unit of a merged line.
func (k Key) Unit() string {
	if k.Family == Other {
		return k.Token
	}
	return k.Family.BaseUnit()
}
