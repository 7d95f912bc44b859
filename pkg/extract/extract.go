// Package extract pulls pronunciations for a word out of a fetched
// Wiktionary page. Generic reads the IPA spans of a language section;
// callers with language-specific markup supply their own Extractor.
package extract

import (
	"context"

	"golang.org/x/net/html"
)

// Options carries the per-run settings an extractor needs.
type Options struct {
	// Language is the section heading to read, e.g. "English".
	Language string
	// Phonetic selects [narrow] transcriptions instead of /broad/ ones.
	Phonetic bool
}

// Extractor returns the raw pronunciations of word found in doc.
type Extractor interface {
	Extract(ctx context.Context, word string, doc *html.Node, opts Options) ([]string, error)
}

// Func adapts a plain function to Extractor.
type Func func(ctx context.Context, word string, doc *html.Node, opts Options) ([]string, error)

// Extract calls f.
func (f Func) Extract(ctx context.Context, word string, doc *html.Node, opts Options) ([]string, error) {
	return f(ctx, word, doc, opts)
}
