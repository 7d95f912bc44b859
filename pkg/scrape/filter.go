package scrape

import (
	"strings"
	"unicode"
)

// skipWord reports whether a category member is not worth fetching:
// multiword entries (unless noSkipSpaces), hyphenated entries and entries
// containing digits.
func skipWord(word string, noSkipSpaces bool) bool {
	if !noSkipSpaces && strings.ContainsAny(word, " \u00a0") {
		return true
	}
	if strings.Contains(word, "-") {
		return true
	}
	return strings.IndexFunc(word, unicode.IsDigit) >= 0
}

// skipDate compares timestamps as strings, which is exact for RFC 3339.
func skipDate(date, cutOff string) bool {
	return date > cutOff
}
