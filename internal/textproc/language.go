package textproc

import (
	"sync"
	"unicode"

	"github.com/pemistahl/lingua-go"
)

// Language tags stored on issues.
const (
	LanguageHindi   = "hi"
	LanguageEnglish = "en"
)

var (
	detectorOnce sync.Once
	detector     lingua.LanguageDetector
)

func languageDetector() lingua.LanguageDetector {
	detectorOnce.Do(func() {
		detector = lingua.NewLanguageDetectorBuilder().
			FromLanguages(lingua.English, lingua.Hindi).
			Build()
	})
	return detector
}

// DetectLanguage tags text as "hi" or "en". Any Devanagari content counts as
// Hindi; otherwise the statistical detector decides. Empty text yields "".
func DetectLanguage(text string) string {
	hasLetters := false
	for _, r := range text {
		if unicode.Is(unicode.Devanagari, r) {
			return LanguageHindi
		}
		if unicode.IsLetter(r) {
			hasLetters = true
		}
	}
	if !hasLetters {
		return ""
	}
	lang, ok := languageDetector().DetectLanguageOf(text)
	if !ok {
		return LanguageEnglish
	}
	if lang == lingua.Hindi {
		return LanguageHindi
	}
	return LanguageEnglish
}
