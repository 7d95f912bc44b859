package scrape

import (
	"log/slog"
	"net/http"
	"time"

	"github.com/hazyhaar/wikipron/pkg/extract"
)

const (
	DefaultAPIURL  = "https://en.wiktionary.org/w/api.php"
	DefaultPageURL = "https://en.wiktionary.org/wiki/"

	// CutOffDateLayout is the layout of the default cut-off date. Member
	// timestamps are RFC 3339, so they compare lexicographically against it.
	CutOffDateLayout = "2006-01-02"

	pageTimeout = 10 * time.Second
)

// Config controls a single scrape run.
type Config struct {
	// Language is the Wiktionary language name, e.g. "English".
	Language string
	// CutOffDate skips members whose timestamp sorts after it. Defaults to
	// today's UTC date.
	CutOffDate string

	NoSkipSpaces         bool
	Casefold             bool
	NoStress             bool
	NoSyllableBoundaries bool
	Phonetic             bool
	// ExpandVariants emits one pair per variant of a pronunciation that
	// contains parenthesized optional segments.
	ExpandVariants bool

	APIURL     string
	PageURL    string
	UserAgent  string
	HTTPClient *http.Client
	// Extractor defaults to extract.Generic; languages with their own page
	// markup supply one.
	Extractor extract.Extractor
	Logger    *slog.Logger
}

func (c *Config) setDefaults() {
	if c.CutOffDate == "" {
		c.CutOffDate = time.Now().UTC().Format(CutOffDateLayout)
	}
	if c.APIURL == "" {
		c.APIURL = DefaultAPIURL
	}
	if c.PageURL == "" {
		c.PageURL = DefaultPageURL
	}
	if c.UserAgent == "" {
		c.UserAgent = UserAgent(Version)
	}
	if c.HTTPClient == nil {
		c.HTTPClient = &http.Client{}
	}
	if c.Extractor == nil {
		c.Extractor = extract.Generic
	}
	if c.Logger == nil {
		c.Logger = slog.Default()
	}
}
