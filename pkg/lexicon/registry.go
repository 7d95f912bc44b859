package lexicon

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"sort"
	"strings"
	"sync"
)

// Registry holds all loaded lexicons and serves pronunciation lookups.
type Registry struct {
	mu       sync.RWMutex
	lexicons map[string]*Lexicon
	dir      string
}

// NewRegistry creates a new empty registry for the given directory.
func NewRegistry(dir string) *Registry {
	return &Registry{
		lexicons: make(map[string]*Lexicon),
		dir:      dir,
	}
}

// Load scans the lexicon directory and loads every lexicon. The previous set
// stays in place if any lexicon fails to load.
func (r *Registry) Load() error {
	entries, err := os.ReadDir(r.dir)
	if err != nil {
		return fmt.Errorf("read lexicon dir %s: %w", r.dir, err)
	}

	loaded := make(map[string]*Lexicon)
	for _, entry := range entries {
		// Dot directories are staging areas of an import in progress.
		if !entry.IsDir() || strings.HasPrefix(entry.Name(), ".") {
			continue
		}
		dir := filepath.Join(r.dir, entry.Name())
		if _, err := os.Stat(filepath.Join(dir, "manifest.yaml")); err != nil {
			continue
		}
		l, err := LoadLexicon(dir)
		if err != nil {
			return fmt.Errorf("load lexicon %s: %w", entry.Name(), err)
		}
		loaded[l.Manifest.ID] = l
	}

	r.mu.Lock()
	r.lexicons = loaded
	r.mu.Unlock()
	return nil
}

// Reload reloads all lexicons from disk.
func (r *Registry) Reload() error {
	return r.Load()
}

// Match is the pronunciations of a word in one lexicon.
type Match struct {
	LexiconID string   `json:"lexicon_id"`
	Language  string   `json:"language"`
	Prons     []string `json:"prons"`
}

// LookupResult is the response for a single word lookup.
type LookupResult struct {
	Word    string  `json:"word"`
	Matches []Match `json:"matches"`
}

// LookupOptions restricts a lookup to some languages or lexicons.
// Languages match either the language name or its code.
type LookupOptions struct {
	Languages []string
	Lexicons  []string
}

// Lookup searches word across all (or filtered) lexicons, in sorted ID order.
func (r *Registry) Lookup(word string, opts *LookupOptions) *LookupResult {
	r.mu.RLock()
	defer r.mu.RUnlock()

	result := &LookupResult{Word: word, Matches: []Match{}}

	ids := make([]string, 0, len(r.lexicons))
	for id := range r.lexicons {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	for _, id := range ids {
		l := r.lexicons[id]
		if opts != nil {
			if len(opts.Languages) > 0 &&
				!slices.Contains(opts.Languages, l.Manifest.Language) &&
				!slices.Contains(opts.Languages, l.Manifest.LanguageCode) {
				continue
			}
			if len(opts.Lexicons) > 0 && !slices.Contains(opts.Lexicons, l.Manifest.ID) {
				continue
			}
		}

		prons, ok := l.Lookup(word)
		if !ok {
			continue
		}
		result.Matches = append(result.Matches, Match{
			LexiconID: l.Manifest.ID,
			Language:  l.Manifest.Language,
			Prons:     slices.Clone(prons),
		})
	}
	return result
}

// Info is the public metadata for a loaded lexicon.
type Info struct {
	ID           string `json:"id"`
	Version      string `json:"version"`
	Language     string `json:"language"`
	LanguageCode string `json:"language_code"`
	Source       string `json:"source"`
	SourceURL    string `json:"source_url,omitempty"`
	License      string `json:"license"`
	CutOffDate   string `json:"cut_off_date,omitempty"`
	Words        int    `json:"words"`
	Prons        int    `json:"prons"`
}

// ListLexicons returns metadata for all loaded lexicons, sorted by ID.
func (r *Registry) ListLexicons() []Info {
	r.mu.RLock()
	defer r.mu.RUnlock()

	infos := make([]Info, 0, len(r.lexicons))
	for _, l := range r.lexicons {
		infos = append(infos, Info{
			ID:           l.Manifest.ID,
			Version:      l.Manifest.Version,
			Language:     l.Manifest.Language,
			LanguageCode: l.Manifest.LanguageCode,
			Source:       l.Manifest.Source,
			SourceURL:    l.Manifest.SourceURL,
			License:      l.Manifest.License,
			CutOffDate:   l.Manifest.CutOffDate,
			Words:        len(l.Entries),
			Prons:        l.PronCount(),
		})
	}
	sort.Slice(infos, func(i, j int) bool { return infos[i].ID < infos[j].ID })
	return infos
}

// LexiconCount returns the number of loaded lexicons.
func (r *Registry) LexiconCount() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.lexicons)
}

// TotalEntries returns the number of words across all lexicons.
func (r *Registry) TotalEntries() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	total := 0
	for _, l := range r.lexicons {
		total += len(l.Entries)
	}
	return total
}
