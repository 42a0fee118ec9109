package misspell

import (
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/unicode/norm"
)

// IsAlphabetic reports whether s is non-empty and every rune of its NFC form
// is a Unicode letter. Digits, punctuation, whitespace, and combining marks
// that do not compose into a letter are all rejected.
func IsAlphabetic(s string) bool {
	s = norm.NFC.String(s)
	if s == "" {
		return false
	}
	for _, r := range s {
		if !unicode.IsLetter(r) {
			return false
		}
	}
	return true
}

// filterAlphabetic keeps the NFC form of every alphabetic entry and reports
// how many entries were dropped.
func filterAlphabetic(in []string) (kept []string, dropped int) {
	kept = make([]string, 0, len(in))
	for _, s := range in {
		if !IsAlphabetic(s) {
			dropped++
			continue
		}
		kept = append(kept, norm.NFC.String(s))
	}
	return kept, dropped
}

// lower lower-cases s using English casing rules. A Caser is not safe for
// concurrent use, so one is built per call.
func lower(s string) string {
	return cases.Lower(language.English).String(s)
}
