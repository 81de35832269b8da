// Package ingredients turns free-text ingredient lists into structured
// quantity, unit and name triples.
//
// The heuristic parser is deterministic and always available. The LLM parser
// asks a langchaingo model for JSON and falls back to the heuristic parser
// when the model fails or answers with something that does not decode.
package ingredients

import (
	"context"
	"strconv"
	"strings"
	"unicode"

	"github.com/raphaelgruber/recipebox/internal/models"
)

// Parser extracts structured ingredients from text, one ingredient per line.
type Parser interface {
	Parse(ctx context.Context, text string) ([]models.ParsedIngredient, error)
}

// HeuristicParser parses lines of the form "[quantity] [unit] name".
type HeuristicParser struct{}

// Parse implements Parser. Blank lines and list bullets are skipped.
func (HeuristicParser) Parse(_ context.Context, text string) ([]models.ParsedIngredient, error) {
	var out []models.ParsedIngredient
	for _, line := range strings.Split(text, "\n") {
		if ing, ok := ParseLine(line); ok {
			out = append(out, ing)
		}
	}
	return out, nil
}

// units maps accepted spellings to the canonical unit.
var units = map[string]string{
	"g": "g", "gram": "g", "grams": "g",
	"kg": "kg", "kilogram": "kg", "kilograms": "kg",
	"mg": "mg",
	"ml": "ml", "milliliter": "ml", "milliliters": "ml", "millilitre": "ml", "millilitres": "ml",
	"l": "l", "liter": "l", "liters": "l", "litre": "l", "litres": "l",
	"tsp": "tsp", "teaspoon": "tsp", "teaspoons": "tsp",
	"tbsp": "tbsp", "tablespoon": "tbsp", "tablespoons": "tbsp",
	"cup": "cup", "cups": "cup",
	"oz": "oz", "ounce": "oz", "ounces": "oz",
	"lb": "lb", "lbs": "lb", "pound": "lb", "pounds": "lb",
	"pinch": "pinch", "pinches": "pinch",
	"clove": "clove", "cloves": "clove",
	"can": "can", "cans": "can",
	"slice": "slice", "slices": "slice",
	"bunch": "bunch", "bunches": "bunch",
}

var vulgarFractions = map[rune]float64{
	'¼': 0.25, '½': 0.5, '¾': 0.75,
	'⅓': 1.0 / 3, '⅔': 2.0 / 3,
	'⅛': 0.125,
}

// ParseLine parses a single ingredient line. ok is false for blank lines.
func ParseLine(line string) (ing models.ParsedIngredient, ok bool) {
	line = strings.TrimSpace(line)
	line = strings.TrimLeft(line, "-*• ")
	line = strings.TrimSpace(line)
	if line == "" {
		return ing, false
	}

	fields := strings.Fields(line)
	i := 0

	var qty float64
	var haveQty bool
	for i < len(fields) {
		v, ok := parseQuantity(fields[i])
		if !ok {
			break
		}
		qty += v
		haveQty = true
		i++
		if i < len(fields) && strings.Contains(fields[i], "/") {
			// Mixed number such as "1 1/2"
			continue
		}
		break
	}
	if haveQty {
		ing.Quantity = &qty
	}

	if i < len(fields) {
		token := strings.ToLower(strings.TrimRight(fields[i], "."))
		if u, ok := units[token]; ok && (haveQty || i+1 < len(fields)) {
			ing.Unit = u
			i++
		}
	}

	rest := fields[i:]
	if len(rest) > 1 && strings.EqualFold(rest[0], "of") {
		rest = rest[1:]
	}
	ing.Name = strings.Join(rest, " ")
	if ing.Name == "" {
		ing.Name = line
		ing.Quantity = nil
		ing.Unit = ""
	}
	return ing, true
}

// parseQuantity accepts integers, decimals, "a/b" fractions, unicode vulgar
// fractions and digits glued to a vulgar fraction ("1½").
func parseQuantity(s string) (float64, bool) {
	if s == "" || !(unicode.IsDigit(rune(s[0])) || isVulgar(s)) {
		return 0, false
	}

	runes := []rune(s)
	if v, ok := vulgarFractions[runes[len(runes)-1]]; ok {
		if len(runes) == 1 {
			return v, true
		}
		whole, err := strconv.ParseFloat(string(runes[:len(runes)-1]), 64)
		if err != nil {
			return 0, false
		}
		return whole + v, true
	}

	if num, den, found := strings.Cut(s, "/"); found {
		n, err1 := strconv.ParseFloat(num, 64)
		d, err2 := strconv.ParseFloat(den, 64)
		if err1 != nil || err2 != nil || d == 0 {
			return 0, false
		}
		return n / d, true
	}

	v, err := strconv.ParseFloat(strings.ReplaceAll(s, ",", "."), 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func isVulgar(s string) bool {
	r := []rune(s)
	_, ok := vulgarFractions[r[0]]
	return ok
}
