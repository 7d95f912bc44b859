package scrape

import (
	"slices"

	"github.com/hazyhaar/wikipron/pkg/variant"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

func isStress(r rune) bool { return r == 'ˈ' || r == 'ˌ' }

func isSyllableBoundary(r rune) bool { return r == '.' }

// pronChain builds the pronunciation pipeline. Stripping happens in NFD so
// that marks are removed from decomposed sequences; output is NFC.
func pronChain(cfg *Config) transform.Transformer {
	ts := []transform.Transformer{norm.NFD}
	if cfg.NoStress {
		ts = append(ts, runes.Remove(runes.Predicate(isStress)))
	}
	if cfg.NoSyllableBoundaries {
		ts = append(ts, runes.Remove(runes.Predicate(isSyllableBoundary)))
	}
	ts = append(ts, norm.NFC)
	return transform.Chain(ts...)
}

// processPron returns the normalized forms of one extracted pronunciation.
// With variant expansion, a pronunciation above variant.MaxGroups groups
// yields nothing.
func (s *Scraper) processPron(word, raw string) []string {
	p, _, err := transform.String(s.chain, raw)
	if err != nil || p == "" {
		return nil
	}
	if !s.cfg.ExpandVariants {
		return []string{p}
	}
	variants, err := variant.TryExpand(p)
	if err != nil {
		s.stats.SkippedPron++
		s.cfg.Logger.Warn("pronunciation skipped", "word", word, "pron", p, "error", err)
		return nil
	}
	var out []string
	for _, v := range variants {
		if v != "" && !slices.Contains(out, v) {
			out = append(out, v)
		}
	}
	return out
}
