// Package lexicon loads harvested word/pronunciation lexicons and looks words
// up across them.
package lexicon

import (
	"encoding/csv"
	"fmt"
	"io"
	"log/slog"
	"os"
	"path/filepath"
	"slices"
	"strings"

	"github.com/hazyhaar/wikipron/pkg/variant"
	"golang.org/x/text/encoding/htmlindex"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Lexicon is one loaded word/pronunciation list with its manifest.
// Entries maps a normalized word to its pronunciations in file order.
type Lexicon struct {
	Manifest  *Manifest           `json:"manifest"`
	Entries   map[string][]string `json:"-"`
	normalize Normalizer
}

// LoadLexicon reads dir/manifest.yaml and loads data from gob or TSV.
func LoadLexicon(dir string) (*Lexicon, error) {
	manifest, err := LoadManifest(filepath.Join(dir, "manifest.yaml"))
	if err != nil {
		return nil, err
	}

	l := &Lexicon{
		Manifest:  manifest,
		Entries:   make(map[string][]string),
		normalize: GetNormalizer(manifest.Format.Normalize),
	}

	// Gob takes priority over TSV.
	gobPath := filepath.Join(dir, "data.gob")
	if _, err := os.Stat(gobPath); err == nil {
		if err := l.loadGob(gobPath); err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", manifest.ID, err)
		}
	} else {
		if err := l.loadTSV(filepath.Join(dir, manifest.DataFile)); err != nil {
			return nil, fmt.Errorf("lexicon %s: %w", manifest.ID, err)
		}
	}

	if manifest.Format.ExpandVariants {
		l.expandVariants()
	}
	return l, nil
}

func (l *Lexicon) loadTSV(path string) error {
	f, err := os.Open(path)
	if err != nil {
		return fmt.Errorf("open data file: %w", err)
	}
	defer f.Close()

	var reader io.Reader = f
	if enc := l.Manifest.Format.Encoding; enc != "" && !isUTF8(enc) {
		e, err := htmlindex.Get(enc)
		if err != nil {
			return fmt.Errorf("unsupported encoding %q: %w", enc, err)
		}
		reader = transform.NewReader(f, e.NewDecoder())
	}

	r := csv.NewReader(reader)
	r.Comma = '\t'
	if delim := l.Manifest.Format.Delimiter; delim != "" {
		r.Comma = []rune(delim)[0]
	}
	r.LazyQuotes = true
	r.FieldsPerRecord = -1

	var header []string
	if l.Manifest.Format.HasHeader {
		header, err = r.Read()
		if err != nil {
			return fmt.Errorf("read header: %w", err)
		}
		for i := range header {
			header[i] = strings.TrimSpace(header[i])
		}
	}

	wordIdx, err := columnIndex(header, l.Manifest.Format.WordColumn, 0)
	if err != nil {
		return err
	}
	pronIdx, err := columnIndex(header, l.Manifest.Format.PronColumn, 1)
	if err != nil {
		return err
	}

	var skipped int
	for {
		record, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return fmt.Errorf("read row: %w", err)
		}
		if wordIdx >= len(record) || pronIdx >= len(record) {
			skipped++
			continue
		}

		key := l.normalize(strings.TrimSpace(record[wordIdx]))
		pron := norm.NFC.String(strings.TrimSpace(record[pronIdx]))
		if key == "" || pron == "" {
			skipped++
			continue
		}
		l.add(key, pron)
	}

	if skipped > 0 {
		slog.Warn("incomplete lexicon rows skipped", "lexicon", l.Manifest.ID, "rows", skipped)
	}
	return nil
}

// columnIndex resolves a named column against header, or returns def when
// no name is configured.
func columnIndex(header []string, name string, def int) (int, error) {
	if name == "" || header == nil {
		return def, nil
	}
	for i, h := range header {
		if h == name {
			return i, nil
		}
	}
	return 0, fmt.Errorf("column %q not found in header %v", name, header)
}

func (l *Lexicon) add(key, pron string) {
	if slices.Contains(l.Entries[key], pron) {
		return
	}
	l.Entries[key] = append(l.Entries[key], pron)
}

// expandVariants replaces pronunciations containing optional groups by
// their variants, dropping repeats within a word. Pronunciations with more
// than variant.MaxGroups groups are dropped, and so are words left empty.
func (l *Lexicon) expandVariants() {
	dropped := 0
	for key, prons := range l.Entries {
		var out []string
		for _, p := range prons {
			variants, err := variant.TryExpand(p)
			if err != nil {
				dropped++
				continue
			}
			for _, v := range variants {
				if v != "" && !slices.Contains(out, v) {
					out = append(out, v)
				}
			}
		}
		if len(out) == 0 {
			delete(l.Entries, key)
			continue
		}
		l.Entries[key] = out
	}
	if dropped > 0 {
		slog.Warn("pronunciations with too many optional groups dropped",
			"lexicon", l.Manifest.ID, "prons", dropped, "max_groups", variant.MaxGroups)
	}
}

// Lookup returns the pronunciations of word after normalization.
func (l *Lexicon) Lookup(word string) ([]string, bool) {
	p, ok := l.Entries[l.normalize(word)]
	return p, ok
}

// PronCount returns the number of pronunciations across all words.
func (l *Lexicon) PronCount() int {
	n := 0
	for _, p := range l.Entries {
		n += len(p)
	}
	return n
}

func isUTF8(enc string) bool {
	e := strings.ToLower(strings.ReplaceAll(enc, "-", ""))
	return e == "utf8" || e == ""
}
