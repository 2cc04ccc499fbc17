package textproc

import (
	"strings"
	"unicode"

	"github.com/pmezard/go-difflib/difflib"
)

// IsWordRune reports whether r counts as a word character for tokenizing and
// normalization. Combining marks are deliberately excluded.
func IsWordRune(r rune) bool {
	return unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_'
}

// Normalize lowercases and trims text, then removes every rune that is neither
// a word character nor whitespace.
func Normalize(text string) string {
	lowered := strings.TrimSpace(strings.ToLower(text))
	var b strings.Builder
	b.Grow(len(lowered))
	for _, r := range lowered {
		if IsWordRune(r) || unicode.IsSpace(r) {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// Similarity returns the matching-blocks ratio 2*M/T of the normalized texts.
func Similarity(a, b string) float64 {
	matcher := difflib.NewMatcher(runesAsStrings(Normalize(a)), runesAsStrings(Normalize(b)))
	return matcher.Ratio()
}

func runesAsStrings(s string) []string {
	out := make([]string, 0, len(s))
	for _, r := range s {
		out = append(out, string(r))
	}
	return out
}
