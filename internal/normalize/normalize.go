// Package normalize canonicalizes the free-text facility names and Japanese addresses that
// come from hand-made tables and from the directory's result pages.
package normalize

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/width"
)

// Dash is the canonical range separator addresses are rewritten to.
const Dash = "-"

// rule is one ordered text substitution of the address pipeline.
type rule struct {
	from []string
	to   string
}

// addressRules run after width folding and whitespace removal. Order matters: 丁目 must be
// consumed before 番, and 番地 before 番.
var addressRules = []rule{
	{from: []string{"ー", "－", "‐", "−"}, to: Dash},
	{from: []string{"丁目"}, to: Dash},
	{from: []string{"番地", "番"}, to: Dash},
	{from: []string{"号"}, to: ""},
}

// maxPasses bounds the fixed-point loop; each changing pass shortens the string or removes a
// marker, so real input settles after one or two passes.
const maxPasses = 8

// Address returns the canonical form of a Japanese street address.
func Address(text string) string {
	current := text
	for i := 0; i < maxPasses; i++ {
		next := addressPass(current)
		if next == current {
			return next
		}
		current = next
	}
	return current
}

func addressPass(text string) string {
	s := foldWidth(text)
	s = stripSpace(s)
	for _, r := range addressRules {
		for _, from := range r.from {
			s = strings.ReplaceAll(s, from, r.to)
		}
	}
	s = collapseDashes(s)
	return strings.TrimSuffix(s, Dash)
}

// Name returns the canonical form of a facility name.
func Name(text string) string {
	s := stripSpace(text)
	s = strings.NewReplacer("（", "(", "）", ")").Replace(s)
	return strings.TrimSpace(s)
}

// foldWidth maps full-width digits and Latin letters to ASCII and leaves every other rune,
// including full-width punctuation and kana, untouched.
func foldWidth(s string) string {
	t := runes.If(runes.Predicate(isWideAlnum), width.Fold, nil)
	out, _, err := transform.String(t, s)
	if err != nil {
		return s
	}
	return out
}

func isWideAlnum(r rune) bool {
	return (r >= '０' && r <= '９') || (r >= 'Ａ' && r <= 'Ｚ') || (r >= 'ａ' && r <= 'ｚ')
}

// stripSpace removes every Unicode space, which covers U+3000.
func stripSpace(s string) string {
	return strings.Map(func(r rune) rune {
		if unicode.IsSpace(r) {
			return -1
		}
		return r
	}, s)
}

func collapseDashes(s string) string {
	for strings.Contains(s, Dash+Dash) {
		s = strings.ReplaceAll(s, Dash+Dash, Dash)
	}
	return s
}
