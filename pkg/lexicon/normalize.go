package lexicon

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Normalizer transforms a word before it is used as a lookup key.
type Normalizer func(string) string

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NormalizeLowercaseASCII lowercases and strips combining marks (Élan -> elan).
func NormalizeLowercaseASCII(s string) string {
	result, _, _ := transform.String(stripAccents, strings.ToLower(s))
	return result
}

// NormalizeLowercaseUTF8 lowercases and composes to NFC, keeping accents.
func NormalizeLowercaseUTF8(s string) string {
	return norm.NFC.String(strings.ToLower(s))
}

// NormalizeNone returns the word unchanged.
func NormalizeNone(s string) string {
	return s
}

// GetNormalizer returns the normalizer for the given mode.
// Default is lowercase_utf8.
func GetNormalizer(mode string) Normalizer {
	switch mode {
	case "lowercase_ascii":
		return NormalizeLowercaseASCII
	case "none":
		return NormalizeNone
	default:
		return NormalizeLowercaseUTF8
	}
}
