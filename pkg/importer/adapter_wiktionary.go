package importer

import (
	"context"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"time"

	"github.com/hazyhaar/wikipron/pkg/lexicon"
	"github.com/hazyhaar/wikipron/pkg/scrape"
)

// language is a Wiktionary language harvested by a built-in adapter.
type language struct {
	code     string
	name     string
	casefold bool
}

var builtinLanguages = []language{
	{code: "de", name: "German", casefold: true},
	{code: "en", name: "English", casefold: true},
	{code: "es", name: "Spanish", casefold: true},
	{code: "fr", name: "French", casefold: true},
	{code: "it", name: "Italian", casefold: true},
	{code: "ja", name: "Japanese"},
	{code: "ko", name: "Korean"},
	{code: "nl", name: "Dutch", casefold: true},
	{code: "pl", name: "Polish", casefold: true},
	{code: "pt", name: "Portuguese", casefold: true},
	{code: "ru", name: "Russian", casefold: true},
	{code: "zh", name: "Chinese"},
}

func init() {
	for _, l := range builtinLanguages {
		Register(&wiktionaryAdapter{lang: l})
	}
}

type wiktionaryAdapter struct {
	lang language
}

func (a *wiktionaryAdapter) ID() string        { return "wiktionary-" + a.lang.code }
func (a *wiktionaryAdapter) LexiconID() string { return a.lang.code }
func (a *wiktionaryAdapter) Description() string {
	return fmt.Sprintf("Wiktionary %s IPA pronunciations", a.lang.name)
}
func (a *wiktionaryAdapter) DefaultURL() string { return scrape.DefaultAPIURL }
func (a *wiktionaryAdapter) License() string    { return "CC BY-SA 4.0" }

func (a *wiktionaryAdapter) scraper(opts Options) (*scrape.Scraper, string, error) {
	sourceURL := opts.SourceURL
	if sourceURL == "" {
		sourceURL = a.DefaultURL()
	}
	s, err := scrape.New(scrape.Config{
		Language:   a.lang.name,
		CutOffDate: opts.CutOffDate,
		Casefold:   a.lang.casefold,
		APIURL:     sourceURL,
		PageURL:    opts.PageURL,
		HTTPClient: opts.HTTPClient,
		Logger:     opts.Logger,
	})
	return s, sourceURL, err
}

// Ping asks the category listing for a single member.
func (a *wiktionaryAdapter) Ping(ctx context.Context, opts Options) (int, error) {
	s, _, err := a.scraper(opts)
	if err != nil {
		return 0, err
	}
	return s.Ping(ctx)
}

func (a *wiktionaryAdapter) Import(ctx context.Context, opts Options) (int, error) {
	s, sourceURL, err := a.scraper(opts)
	if err != nil {
		return 0, err
	}

	// Variants stay unexpanded; the lexicon expands them at load time.
	entries := make(map[string][]string)
	pairs := 0
	err = s.Scrape(ctx, func(p scrape.Pair) error {
		if slices.Contains(entries[p.Word], p.Pron) {
			return nil
		}
		entries[p.Word] = append(entries[p.Word], p.Pron)
		pairs++
		return nil
	})
	if err != nil {
		return 0, fmt.Errorf("scrape %s: %w", a.lang.name, err)
	}
	if opts.Logger != nil {
		opts.Logger.Info("harvest complete", "lexicon", a.LexiconID(), "stats", s.Stats(), "words", len(entries))
	}

	m := &lexicon.Manifest{
		ID:           a.LexiconID(),
		Version:      time.Now().UTC().Format("2006-01"),
		Language:     a.lang.name,
		LanguageCode: a.lang.code,
		Source:       "Wiktionary",
		SourceURL:    sourceURL,
		License:      a.License(),
		CutOffDate:   s.CutOffDate(),
		DataFile:     "data.gob",
		Format: lexicon.FormatSpec{
			Normalize:      "lowercase_utf8",
			ExpandVariants: true,
		},
	}
	if err := writeLexicon(opts.OutputDir, m, entries); err != nil {
		return 0, err
	}
	return pairs, nil
}

// writeLexicon builds the lexicon in a temporary sibling directory and swaps
// it in, so a failed write leaves the previous lexicon in place.
func writeLexicon(outputDir string, m *lexicon.Manifest, entries map[string][]string) error {
	if err := ensureDir(outputDir); err != nil {
		return err
	}
	tmp, err := os.MkdirTemp(outputDir, ".import-"+m.ID+"-")
	if err != nil {
		return fmt.Errorf("create staging dir: %w", err)
	}
	defer os.RemoveAll(tmp)
	if err := os.Chmod(tmp, 0o755); err != nil {
		return fmt.Errorf("chmod staging dir: %w", err)
	}

	if err := lexicon.SaveGob(entries, filepath.Join(tmp, "data.gob")); err != nil {
		return fmt.Errorf("save gob: %w", err)
	}
	if err := lexicon.WriteManifest(tmp, m); err != nil {
		return err
	}
	return replaceDir(tmp, filepath.Join(outputDir, m.ID))
}
