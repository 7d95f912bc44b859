// Package scrape walks a Wiktionary IPA category through the MediaWiki API
// and yields filtered, normalized word/pronunciation pairs.
package scrape

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"net/url"
	"strconv"

	"github.com/hazyhaar/wikipron/pkg/extract"
	"golang.org/x/net/html"
	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
)

// ErrStatus is wrapped by errors for non-200 responses.
var ErrStatus = errors.New("unexpected HTTP status")

// Pair is one harvested word and one of its pronunciations.
type Pair struct {
	Word string `json:"word"`
	Pron string `json:"pron"`
}

// Stats counts what a run did with the category members it saw.
type Stats struct {
	Requests    int
	Members     int
	SkippedWord int
	SkippedDate int
	SkippedPron int
	Pages       int
	Pairs       int
}

// Scraper harvests one language category. It is not safe for concurrent use.
type Scraper struct {
	cfg   Config
	chain transform.Transformer
	fold  cases.Caser
	stats Stats
}

// New validates cfg and fills in defaults.
func New(cfg Config) (*Scraper, error) {
	if cfg.Language == "" {
		return nil, fmt.Errorf("scrape: language is required")
	}
	cfg.setDefaults()
	return &Scraper{
		cfg:   cfg,
		chain: pronChain(&cfg),
		fold:  cases.Fold(),
	}, nil
}

// Category returns the MediaWiki category walked for the language.
func (s *Scraper) Category() string {
	return fmt.Sprintf("Category:%s terms with IPA pronunciation", s.cfg.Language)
}

// CutOffDate returns the effective cut-off date, after defaults.
func (s *Scraper) CutOffDate() string {
	return s.cfg.CutOffDate
}

// Stats returns the counters of the last run.
func (s *Scraper) Stats() Stats {
	return s.stats
}

// LogValue renders the counters as a slog group.
func (st Stats) LogValue() slog.Value {
	return slog.GroupValue(
		slog.Int("requests", st.Requests),
		slog.Int("members", st.Members),
		slog.Int("skipped_word", st.SkippedWord),
		slog.Int("skipped_date", st.SkippedDate),
		slog.Int("skipped_pron", st.SkippedPron),
		slog.Int("pages", st.Pages),
		slog.Int("pairs", st.Pairs),
	)
}

// Scrape walks every page of the category and calls fn for each pair, in
// API order. Errors from the network, from decoding and from fn stop the
// walk and are returned; nothing is retried.
func (s *Scraper) Scrape(ctx context.Context, fn func(Pair) error) error {
	s.stats = Stats{}
	params := s.memberParams(500)

	for {
		resp, err := s.fetchMembers(ctx, params)
		if err != nil {
			return err
		}
		if err := s.scrapeOnce(ctx, resp.Query.CategoryMembers, fn); err != nil {
			return err
		}
		if resp.Continue == nil || resp.Continue.CMContinue == "" {
			break
		}
		params.Set("cmcontinue", resp.Continue.CMContinue)
	}
	return nil
}

// Ping asks the API for one member of the category, the request a scrape
// starts with. It returns the HTTP status (0 when no response arrived) and
// an error when the category query would fail, including a MediaWiki error
// object in a 200 response.
func (s *Scraper) Ping(ctx context.Context) (int, error) {
	u, err := s.membersURL(s.memberParams(1))
	if err != nil {
		return 0, err
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, u, nil)
	if err != nil {
		return 0, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return 0, fmt.Errorf("GET %s: %w", u, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		return resp.StatusCode, fmt.Errorf("GET %s: %w: %d", u, ErrStatus, resp.StatusCode)
	}

	var data categoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return resp.StatusCode, fmt.Errorf("decode category members: %w", err)
	}
	if data.Error != nil {
		return resp.StatusCode, fmt.Errorf("mediawiki api: %s: %s", data.Error.Code, data.Error.Info)
	}
	return resp.StatusCode, nil
}

func (s *Scraper) memberParams(limit int) url.Values {
	return url.Values{
		"action":  {"query"},
		"format":  {"json"},
		"list":    {"categorymembers"},
		"cmtitle": {s.Category()},
		"cmlimit": {strconv.Itoa(limit)},
		"cmprop":  {"ids|title|timestamp"},
	}
}

func (s *Scraper) membersURL(params url.Values) (string, error) {
	u, err := url.Parse(s.cfg.APIURL)
	if err != nil {
		return "", fmt.Errorf("parse api url: %w", err)
	}
	u.RawQuery = params.Encode()
	return u.String(), nil
}

type member struct {
	PageID    int    `json:"pageid"`
	Title     string `json:"title"`
	Timestamp string `json:"timestamp"`
}

type categoryResponse struct {
	Continue *struct {
		CMContinue string `json:"cmcontinue"`
	} `json:"continue"`
	Query struct {
		CategoryMembers []member `json:"categorymembers"`
	} `json:"query"`
	Error *struct {
		Code string `json:"code"`
		Info string `json:"info"`
	} `json:"error"`
}

func (s *Scraper) scrapeOnce(ctx context.Context, members []member, fn func(Pair) error) error {
	opts := extract.Options{Language: s.cfg.Language, Phonetic: s.cfg.Phonetic}
	for _, m := range members {
		s.stats.Members++
		word := m.Title
		if skipWord(word, s.cfg.NoSkipSpaces) {
			s.stats.SkippedWord++
			continue
		}
		if skipDate(m.Timestamp, s.cfg.CutOffDate) {
			s.stats.SkippedDate++
			continue
		}

		doc, err := s.fetchPage(ctx, word)
		if err != nil {
			return err
		}
		s.stats.Pages++

		prons, err := s.cfg.Extractor.Extract(ctx, word, doc, opts)
		if err != nil {
			return fmt.Errorf("extract %q: %w", word, err)
		}

		out := word
		if s.cfg.Casefold {
			out = s.fold.String(word)
		}
		for _, raw := range prons {
			for _, p := range s.processPron(word, raw) {
				if err := fn(Pair{Word: out, Pron: p}); err != nil {
					return err
				}
				s.stats.Pairs++
			}
		}
	}
	return nil
}

func (s *Scraper) fetchMembers(ctx context.Context, params url.Values) (*categoryResponse, error) {
	u, err := s.membersURL(params)
	if err != nil {
		return nil, err
	}

	resp, err := s.get(ctx, u)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	s.stats.Requests++

	var data categoryResponse
	if err := json.NewDecoder(resp.Body).Decode(&data); err != nil {
		return nil, fmt.Errorf("decode category members: %w", err)
	}
	if data.Error != nil {
		return nil, fmt.Errorf("mediawiki api: %s: %s", data.Error.Code, data.Error.Info)
	}
	s.cfg.Logger.Debug("category page fetched",
		"members", len(data.Query.CategoryMembers),
		"continue", params.Get("cmcontinue"),
	)
	return &data, nil
}

func (s *Scraper) fetchPage(ctx context.Context, word string) (*html.Node, error) {
	ctx, cancel := context.WithTimeout(ctx, pageTimeout)
	defer cancel()

	resp, err := s.get(ctx, s.cfg.PageURL+url.PathEscape(word))
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()

	doc, err := html.Parse(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("parse page %q: %w", word, err)
	}
	return doc, nil
}

// get issues a GET with the configured User-Agent. The caller closes the body
// of a successful response.
func (s *Scraper) get(ctx context.Context, rawURL string) (*http.Response, error) {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, rawURL, nil)
	if err != nil {
		return nil, fmt.Errorf("create request: %w", err)
	}
	req.Header.Set("User-Agent", s.cfg.UserAgent)

	resp, err := s.cfg.HTTPClient.Do(req)
	if err != nil {
		return nil, fmt.Errorf("GET %s: %w", rawURL, err)
	}
	if resp.StatusCode != http.StatusOK {
		resp.Body.Close()
		return nil, fmt.Errorf("GET %s: %w: %d", rawURL, ErrStatus, resp.StatusCode)
	}
	return resp, nil
}
