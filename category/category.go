// Package category assigns a shopping category to an ingredient name by
// matching keywords against an ordered rule table. Matching ignores case and
// accents; the first matching rule wins.
package category

import (
	"fmt"
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

type Rule struct {
	Keyword  string `yaml:"keyword"`
	Category string `yaml:"category"`
}

const (
	Produce   = "Obst & Gemüse"
	Dairy     = "Milchprodukte"
	Meat      = "Fleisch & Fisch"
	Bakery    = "Backwaren"
	Dry       = "Trockenwaren"
	Canned    = "Konserven"
	Spices    = "Gewürze"
	Beverages = "Getränke"
	Frozen    = "Tiefkühl"
)

// DefaultRules lists compound words before the generic words they contain.
var DefaultRules = []Rule{
	{"maismehl", Dry},
	{"kokosmilch", Canned},
	{"tomatenmark", Canned},
	{"dosentomate", Canned},
	{"mais", Canned},
	{"bohnen", Canned},

	{"paprikapulver", Spices},
	{"pfeffer", Spices},
	{"salz", Spices},
	{"zimt", Spices},
	{"muskat", Spices},
	{"curry", Spices},
	{"oregano", Spices},
	{"kreuzkummel", Spices},

	{"erdnussbutter", Dry},
	{"mehl", Dry},
	{"flour", Dry},
	{"zucker", Dry},
	{"sugar", Dry},
	{"nudel", Dry},
	{"pasta", Dry},
	{"reis", Dry},
	{"rice", Dry},
	{"linsen", Dry},
	{"haferflocken", Dry},
	{"olivenol", Dry},
	{"rapsol", Dry},
	{"oil", Dry},

	{"milch", Dairy},
	{"milk", Dairy},
	{"butter", Dairy},
	{"sahne", Dairy},
	{"kase", Dairy},
	{"cheese", Dairy},
	{"joghurt", Dairy},
	{"quark", Dairy},
	{"eier", Dairy},
	{"egg", Dairy},

	{"hackfleisch", Meat},
	{"speck", Meat},
	{"wurst", Meat},
	{"schinken", Meat},
	{"hahnchen", Meat},
	{"chicken", Meat},
	{"rind", Meat},
	{"beef", Meat},
	{"lachs", Meat},
	{"fisch", Meat},

	{"brot", Bakery},
	{"bread", Bakery},
	{"tortilla", Bakery},

	{"kartoffel", Produce},
	{"potato", Produce},
	{"zwiebel", Produce},
	{"onion", Produce},
	{"knoblauch", Produce},
	{"garlic", Produce},
	{"karotte", Produce},
	{"mohre", Produce},
	{"paprika", Produce},
	{"tomate", Produce},
	{"apfel", Produce},
	{"banane", Produce},
	{"zitrone", Produce},
	{"lauch", Produce},
	{"petersilie", Produce},

	{"wasser", Beverages},
	{"saft", Beverages},
	{"kaffee", Beverages},
	{"tee", Beverages},

	{"tiefkuhl", Frozen},
	{"erbsen", Frozen},
}

type rule struct {
	keyword  string
	category string
}

// Categorizer is read-only after construction and safe for concurrent use.
type Categorizer struct {
	rules []rule
}

// New builds a categorizer. A rule whose keyword contains an earlier
// keyword can never match and is rejected.
func New(rules []Rule) (*Categorizer, error) {
	c := &Categorizer{rules: make([]rule, 0, len(rules))}

	for i, r := range rules {
		kw := Normalize(r.Keyword)
		if kw == "" {
			return nil, fmt.Errorf("rule %d: empty keyword", i+1)
		}
		if strings.TrimSpace(r.Category) == "" {
			return nil, fmt.Errorf("rule %d (%s): empty category", i+1, r.Keyword)
		}
		for _, prev := range c.rules {
			if strings.Contains(kw, prev.keyword) {
				return nil, fmt.Errorf("rule %d (%s) is shadowed by earlier keyword %q",
					i+1, r.Keyword, prev.keyword)
			}
		}
		c.rules = append(c.rules, rule{keyword: kw, category: r.Category})
	}

	return c, nil
}

// Default returns the categorizer built from DefaultRules.
func Default() *Categorizer {
	c, err := New(DefaultRules)
	if err != nil {
		panic(err)
	}
	return c
}

// CategoryOf returns the category of the first rule whose keyword occurs in
// name, or false when none does.
func (c *Categorizer) CategoryOf(name string) (string, bool) {
	n := Normalize(name)
	if n == "" {
		return "", false
	}
	for _, r := range c.rules {
		if strings.Contains(n, r.keyword) {
			return r.category, true
		}
	}
	return "", false
}

// Normalize folds case and strips diacritics: "Hähnchen" -> "hahnchen",
// "Weißkohl" -> "weisskohl".
func Normalize(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), cases.Fold(), norm.NFC)
	out, _, err := transform.String(t, strings.TrimSpace(s))
	if err != nil {
		return strings.ToLower(strings.TrimSpace(s))
	}
	return out
}
