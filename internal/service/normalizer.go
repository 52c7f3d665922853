package service

import (
	"fmt"
	"regexp"
	"sort"
	"strings"
)

// quantityPattern strips a leading amount: integers, decimals, fractions and
// ranges like "1-2" or "1 1/2".
var quantityPattern = regexp.MustCompile(`^[\d¼½¾⅓⅔⅛]+([./\-\s][\d¼½¾⅓⅔⅛]+)*\s*`)

// measureWords are unit and size words dropped from the front of an
// ingredient. Maintained list; extend as corpus quirks show up.
var measureWords = map[string]struct{}{
	"g": {}, "gram": {}, "grams": {}, "kg": {}, "kilogram": {}, "kilograms": {},
	"ml": {}, "l": {}, "liter": {}, "liters": {}, "litre": {}, "litres": {},
	"oz": {}, "ounce": {}, "ounces": {}, "lb": {}, "lbs": {}, "pound": {}, "pounds": {},
	"tbsp": {}, "tablespoon": {}, "tablespoons": {}, "tsp": {}, "teaspoon": {}, "teaspoons": {},
	"cup": {}, "cups": {}, "pinch": {}, "pinches": {}, "dash": {}, "clove": {}, "cloves": {},
	"slice": {}, "slices": {}, "piece": {}, "pieces": {}, "can": {}, "cans": {},
	"large": {}, "small": {}, "medium": {}, "fresh": {}, "dried": {}, "chopped": {},
	"minced": {}, "diced": {}, "sliced": {}, "ground": {},
}

// fillerWords are articles and prepositions dropped anywhere at the front.
var fillerWords = map[string]struct{}{
	"of": {}, "the": {}, "a": {}, "an": {}, "some": {},
}

// singularExceptions never lose their trailing "s".
var singularExceptions = map[string]struct{}{
	"molasses": {}, "couscous": {}, "hummus": {}, "asparagus": {},
}

// Normalizer canonicalizes raw ingredient strings into a comparable token
// set: lowercase, singular, stripped of quantities and measure words.
type Normalizer struct{}

// NewNormalizer creates a new Normalizer instance
func NewNormalizer() *Normalizer {
	return &Normalizer{}
}

// Normalize canonicalizes the raw ingredients into a sorted, de-duplicated
// token slice. An input that normalizes to nothing usable is an error: there
// is no point spending provider calls on it.
func (n *Normalizer) Normalize(raw []string) ([]string, error) {
	seen := make(map[string]struct{}, len(raw))
	tokens := make([]string, 0, len(raw))

	for _, r := range raw {
		token := n.NormalizeOne(r)
		if token == "" {
			continue
		}
		if _, dup := seen[token]; dup {
			continue
		}
		seen[token] = struct{}{}
		tokens = append(tokens, token)
	}

	if len(tokens) == 0 {
		return nil, fmt.Errorf("%w: %d raw ingredients", ErrInvalidInput, len(raw))
	}

	// Canonical sort order makes downstream query strings (and cache keys)
	// independent of input order.
	sort.Strings(tokens)
	return tokens, nil
}

// NormalizeOne canonicalizes a single ingredient string. Returns "" when
// nothing usable remains.
func (n *Normalizer) NormalizeOne(raw string) string {
	s := strings.ToLower(strings.TrimSpace(raw))
	s = quantityPattern.ReplaceAllString(s, "")

	words := strings.Fields(s)
	for len(words) > 0 {
		w := strings.Trim(words[0], ".,()")
		if _, isMeasure := measureWords[w]; isMeasure {
			words = words[1:]
			continue
		}
		if _, isFiller := fillerWords[w]; isFiller {
			words = words[1:]
			continue
		}
		break
	}
	if len(words) == 0 {
		return ""
	}

	s = strings.Join(words, " ")
	s = strings.Trim(s, " .,()")
	return singularize(s)
}

// singularize strips a trailing "s" from the last word, guarding words that
// end in "ss" and a short exception list.
func singularize(s string) string {
	if !strings.HasSuffix(s, "s") || strings.HasSuffix(s, "ss") {
		return s
	}
	lastSpace := strings.LastIndexByte(s, ' ')
	lastWord := s[lastSpace+1:]
	if _, exempt := singularExceptions[lastWord]; exempt {
		return s
	}
	if strings.HasSuffix(s, "ies") {
		return s[:len(s)-3] + "y"
	}
	if strings.HasSuffix(s, "oes") {
		return s[:len(s)-2]
	}
	return s[:len(s)-1]
}
