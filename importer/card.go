package importer

import (
	"bufio"
	"context"
	"fmt"
	"io"
	"strconv"
	"strings"

	"campkitchen/ent"
)

type cardState int

const (
	seekingHeader cardState = iota
	readingMetadata
	readingIngredients
	readingInstructions
)

func (s cardState) String() string {
	switch s {
	case seekingHeader:
		return "seeking_header"
	case readingMetadata:
		return "reading_metadata"
	case readingIngredients:
		return "reading_ingredients"
	case readingInstructions:
		return "reading_instructions"
	default:
		return "unknown"
	}
}

// column is a rune range of a fixed-width line; end < 0 means to the end.
type column struct {
	start, end int
}

func (c column) cut(line []rune) string {
	if c.start >= len(line) {
		return ""
	}
	end := c.end
	if end < 0 || end > len(line) {
		end = len(line)
	}
	return strings.TrimSpace(string(line[c.start:end]))
}

// Ingredient lines on a recipe card: amount, unit, then the name.
var cardColumns = struct {
	amount, unit, name column
}{
	amount: column{0, 7},
	unit:   column{7, 14},
	name:   column{14, -1},
}

// CardDefaultUnit is used for ingredient lines without a unit ("2 eggs").
const CardDefaultUnit = "Stück"

// card is the recipe being assembled from the current card.
type card struct {
	line        int
	title       string
	yield       int
	ingredients []ent.Ingredient
	paragraphs  []string
	paragraph   []string
}

// Card imports recipes from Meal-Master style recipe cards. Ingredient
// amounts on a card are totals for the whole yield and are stored per
// serving.
//
// On error the recipes persisted so far are returned together with the error.
func Card(ctx context.Context, r io.Reader, creator Creator, opts ...Option) ([]ent.RecipeWithIngredients, error) {
	o := buildOptions("card", opts)
	f := &flusher{ctx: ctx, creator: creator, log: o.log}

	var (
		state  = seekingHeader
		cur    *card
		lineNo int
	)

	flush := func() error {
		recipe, ingredients := cur.recipe()
		cur = nil
		if err := f.flush(recipe, ingredients); err != nil {
			return fmt.Errorf("persist recipe %q: %w", recipe.Name, err)
		}
		return nil
	}

	scanner := bufio.NewScanner(r)
	scanner.Buffer(make([]byte, 0, 64*1024), 1024*1024)

	for scanner.Scan() {
		lineNo++
		line := strings.TrimRight(scanner.Text(), "\r")
		trimmed := strings.TrimSpace(line)

		if state != seekingHeader && (isBanner(trimmed) || isEndMarker(trimmed)) {
			if err := cur.complete(lineNo); err != nil {
				return f.result(), err
			}
			if err := flush(); err != nil {
				return f.result(), err
			}
			state = seekingHeader
		}

		switch state {
		case seekingHeader:
			if isBanner(trimmed) {
				cur = &card{line: lineNo}
				state = readingMetadata
			}

		case readingMetadata:
			if trimmed == "" {
				if cur.title == "" {
					continue
				}
				if err := cur.complete(lineNo); err != nil {
					return f.result(), err
				}
				state = readingIngredients
				continue
			}
			if err := cur.metadata(trimmed, lineNo); err != nil {
				return f.result(), err
			}

		case readingIngredients:
			if trimmed == "" {
				if len(cur.ingredients) > 0 {
					state = readingInstructions
				}
				continue
			}
			if strings.HasPrefix(trimmed, "-----") || strings.HasPrefix(trimmed, "MMMMM") {
				// section heading such as "------DOUGH------"
				continue
			}
			if err := cur.ingredient(line, lineNo); err != nil {
				return f.result(), err
			}

		case readingInstructions:
			cur.instruction(trimmed)
		}
	}
	if err := scanner.Err(); err != nil {
		return f.result(), ent.IOError("read recipe card", err)
	}

	if state != seekingHeader {
		if err := cur.complete(lineNo); err != nil {
			return f.result(), err
		}
		if err := flush(); err != nil {
			return f.result(), err
		}
	}

	o.log.WithField("recipes", len(f.done)).Info("card import finished")
	return f.result(), nil
}

// isBanner matches "MMMMM----- Recipe via Meal-Master (tm) v8.05" and the
// older "---------- Recipe via Meal-Master (tm) v8.02".
func isBanner(trimmed string) bool {
	if !strings.HasPrefix(trimmed, "MMMMM") && !strings.HasPrefix(trimmed, "-----") {
		return false
	}
	return strings.Contains(strings.ToLower(trimmed), "meal-master")
}

// isEndMarker matches the closing "MMMMM" or "-----" line of a card.
func isEndMarker(trimmed string) bool {
	if len(trimmed) < 5 {
		return false
	}
	return strings.Trim(trimmed, "M") == "" || strings.Trim(trimmed, "-") == ""
}

func (c *card) metadata(trimmed string, lineNo int) error {
	key, value, ok := strings.Cut(trimmed, ":")
	if !ok {
		return &ent.ParseError{Line: lineNo, Reason: fmt.Sprintf("unexpected line in card header: %q", trimmed)}
	}
	value = strings.TrimSpace(value)

	switch strings.ToLower(strings.TrimSpace(key)) {
	case "title":
		if value == "" {
			return &ent.ParseError{Line: lineNo, Reason: "blank Title"}
		}
		c.title = value
	case "yield", "servings":
		fields := strings.Fields(value)
		if len(fields) == 0 {
			return &ent.ParseError{Line: lineNo, Reason: "blank Yield"}
		}
		n, err := strconv.Atoi(fields[0])
		if err != nil || n <= 0 {
			return &ent.ParseError{Line: lineNo, Reason: fmt.Sprintf("Yield must be a positive number of servings, got %q", value)}
		}
		c.yield = n
	}
	return nil
}

// complete checks that the metadata needed to store the card was seen.
func (c *card) complete(lineNo int) error {
	if c.title == "" {
		return &ent.ParseError{Line: lineNo, Reason: fmt.Sprintf("recipe card starting at line %d has no Title", c.line)}
	}
	if c.yield <= 0 {
		return &ent.ParseError{Line: lineNo, Reason: fmt.Sprintf("recipe card %q has no Yield", c.title)}
	}
	return nil
}

func (c *card) ingredient(line string, lineNo int) error {
	runes := []rune(line)
	amountField := cardColumns.amount.cut(runes)
	unit := cardColumns.unit.cut(runes)
	name := cardColumns.name.cut(runes)

	if amountField == "" && unit == "" && strings.HasPrefix(name, "-") && len(c.ingredients) > 0 {
		c.appendNote(strings.TrimSpace(strings.TrimPrefix(name, "-")))
		return nil
	}
	if name == "" {
		return &ent.ParseError{Line: lineNo, Reason: fmt.Sprintf("ingredient line without name: %q", line)}
	}

	amount, err := parseCardAmount(amountField)
	if err != nil {
		return &ent.ParseError{Line: lineNo, Reason: fmt.Sprintf("ingredient %q: %v", name, err)}
	}
	if unit == "" {
		unit = CardDefaultUnit
	}

	c.ingredients = append(c.ingredients, ent.Ingredient{
		Name:             name,
		Unit:             unit,
		AmountPerServing: amount / float64(c.yield),
	})
	return nil
}

func (c *card) appendNote(note string) {
	if note == "" {
		return
	}
	last := &c.ingredients[len(c.ingredients)-1]
	if last.Notes == nil {
		last.Notes = &note
		return
	}
	joined := *last.Notes + " " + note
	last.Notes = &joined
}

func (c *card) instruction(trimmed string) {
	if trimmed == "" {
		c.breakParagraph()
		return
	}
	c.paragraph = append(c.paragraph, trimmed)
}

func (c *card) breakParagraph() {
	if len(c.paragraph) == 0 {
		return
	}
	c.paragraphs = append(c.paragraphs, strings.Join(c.paragraph, "\n"))
	c.paragraph = nil
}

func (c *card) recipe() (ent.Recipe, []ent.Ingredient) {
	c.breakParagraph()
	return ent.Recipe{
		Name:         c.title,
		BaseServings: c.yield,
		Instructions: strings.Join(c.paragraphs, "\n\n"),
	}, c.ingredients
}

// parseCardAmount reads "2", "1.5", "1,5", "1/2" and "1 1/2". Blank is 0.
func parseCardAmount(s string) (float64, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return 0, nil
	}

	var total float64
	for _, part := range strings.Fields(s) {
		if num, den, ok := strings.Cut(part, "/"); ok {
			n, err1 := strconv.ParseFloat(num, 64)
			d, err2 := strconv.ParseFloat(den, 64)
			if err1 != nil || err2 != nil || d == 0 {
				return 0, fmt.Errorf("malformed amount %q", s)
			}
			total += n / d
			continue
		}
		v, err := parseDecimal(part)
		if err != nil {
			return 0, fmt.Errorf("malformed amount %q", s)
		}
		total += v
	}
	return total, nil
}
