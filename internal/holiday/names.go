package holiday

import (
	"strings"
	"unicode"
)

// DisplayName turns a canonical state name into its display form by
// capitalizing the first letter of every word, including after hyphens
// ("mecklenburg-vorpommern" -> "Mecklenburg-Vorpommern").
func DisplayName(state string) string {
	var b strings.Builder
	b.Grow(len(state))

	prevLetter := false
	for _, r := range state {
		if unicode.IsLetter(r) && !prevLetter {
			r = unicode.ToUpper(r)
		}
		prevLetter = unicode.IsLetter(r)
		b.WriteRune(r)
	}
	return b.String()
}
