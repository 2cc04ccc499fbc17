package textproc

import (
	"strings"
	"unicode/utf8"
)

var stopWords = map[string]struct{}{
	"मेरा": {}, "नाम": {}, "है": {}, "में": {}, "की": {}, "का": {}, "के": {},
	"और": {}, "या": {}, "पर": {}, "से": {}, "तक": {}, "दूर": {}, "पास": {},
}

const minKeywordRunes = 3

// ExtractKeywords tokenizes text into lowercase word runs, dropping stop words
// and tokens shorter than three runes. Order follows first occurrence and
// duplicates are kept.
func ExtractKeywords(text string) []string {
	lowered := strings.ToLower(text)
	var (
		keywords []string
		current  strings.Builder
	)
	flush := func() {
		if current.Len() == 0 {
			return
		}
		token := current.String()
		current.Reset()
		if _, stop := stopWords[token]; stop {
			return
		}
		if utf8.RuneCountInString(token) < minKeywordRunes {
			return
		}
		keywords = append(keywords, token)
	}
	for _, r := range lowered {
		if IsWordRune(r) {
			current.WriteRune(r)
			continue
		}
		flush()
	}
	flush()
	return keywords
}

// KeywordOverlap returns the number of distinct shared keywords divided by the
// longer keyword list's length, or 0 when either list is empty.
func KeywordOverlap(a, b []string) float64 {
	if len(a) == 0 || len(b) == 0 {
		return 0
	}
	setA := make(map[string]struct{}, len(a))
	for _, k := range a {
		setA[k] = struct{}{}
	}
	shared := make(map[string]struct{})
	for _, k := range b {
		if _, ok := setA[k]; ok {
			shared[k] = struct{}{}
		}
	}
	longest := len(a)
	if len(b) > longest {
		longest = len(b)
	}
	return float64(len(shared)) / float64(longest)
}
