package scrape

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"

	"github.com/hazyhaar/wikipron/pkg/extract"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/net/html"
)

// fakeWiki serves a two-page category listing and one article per word.
type fakeWiki struct {
	mu         sync.Mutex
	apiQueries []string
	pages      []string
	userAgents []string
	prons      map[string]string
}

func (f *fakeWiki) handler() http.Handler {
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		f.mu.Lock()
		f.apiQueries = append(f.apiQueries, r.URL.RawQuery)
		f.userAgents = append(f.userAgents, r.UserAgent())
		f.mu.Unlock()

		q := r.URL.Query()
		w.Header().Set("Content-Type", "application/json")
		switch q.Get("cmcontinue") {
		case "":
			fmt.Fprint(w, `{"batchcomplete":"","continue":{"cmcontinue":"page|2","continue":"-||"},
"query":{"categorymembers":[
 {"pageid":1,"ns":0,"title":"cheese","timestamp":"2020-01-01T00:00:00Z"},
 {"pageid":2,"ns":0,"title":"ice cream","timestamp":"2020-01-01T00:00:00Z"},
 {"pageid":3,"ns":0,"title":"x-ray","timestamp":"2020-01-01T00:00:00Z"},
 {"pageid":4,"ns":0,"title":"4chan","timestamp":"2020-01-01T00:00:00Z"},
 {"pageid":5,"ns":0,"title":"newword","timestamp":"2030-01-01T00:00:00Z"}
]}}`)
		case "page|2":
			fmt.Fprint(w, `{"batchcomplete":"","query":{"categorymembers":[
 {"pageid":6,"ns":0,"title":"Café","timestamp":"2019-05-05T10:00:00Z"}
]}}`)
		default:
			http.Error(w, "bad token", http.StatusBadRequest)
		}
	})
	mux.HandleFunc("/wiki/", func(w http.ResponseWriter, r *http.Request) {
		word := strings.TrimPrefix(r.URL.Path, "/wiki/")
		f.mu.Lock()
		f.pages = append(f.pages, word)
		pron, ok := f.prons[word]
		f.mu.Unlock()
		if !ok {
			http.NotFound(w, r)
			return
		}
		fmt.Fprintf(w, `<html><body><div class="mw-heading mw-heading2"><h2 id="English">English</h2></div>
<p><span class="IPA">%s</span></p></body></html>`, pron)
	})
	return mux
}

func newFakeWiki() *fakeWiki {
	return &fakeWiki{prons: map[string]string{
		"cheese":    "/ˈt͡ʃiː(z)/",
		"ice cream": "/ˈaɪs.kɹiːm/",
		// Decomposed e + combining acute.
		"Café": "/ka.fé/",
	}}
}

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func newTestScraper(t *testing.T, ts *httptest.Server, cfg Config) *Scraper {
	t.Helper()
	cfg.Language = "English"
	cfg.CutOffDate = "2025-01-01"
	cfg.APIURL = ts.URL + "/w/api.php"
	cfg.PageURL = ts.URL + "/wiki/"
	cfg.Logger = quietLogger()
	s, err := New(cfg)
	require.NoError(t, err)
	return s
}

func collect(t *testing.T, s *Scraper) []Pair {
	t.Helper()
	var pairs []Pair
	err := s.Scrape(context.Background(), func(p Pair) error {
		pairs = append(pairs, p)
		return nil
	})
	require.NoError(t, err)
	return pairs
}

func TestScrape_PaginatesAndFilters(t *testing.T) {
	wiki := newFakeWiki()
	ts := httptest.NewServer(wiki.handler())
	defer ts.Close()

	s := newTestScraper(t, ts, Config{UserAgent: "test-agent/1.0"})
	pairs := collect(t, s)

	assert.Equal(t, []Pair{
		{Word: "cheese", Pron: "ˈt͡ʃiː(z)"},
		{Word: "Café", Pron: "ka.f\u00e9"},
	}, pairs)

	// Only members passing both filters are fetched.
	assert.Equal(t, []string{"cheese", "Café"}, wiki.pages)

	require.Len(t, wiki.apiQueries, 2)
	assert.NotContains(t, wiki.apiQueries[0], "cmcontinue")
	assert.Contains(t, wiki.apiQueries[1], "cmcontinue=page%7C2")
	for _, ua := range wiki.userAgents {
		assert.Equal(t, "test-agent/1.0", ua)
	}

	st := s.Stats()
	assert.Equal(t, 2, st.Requests)
	assert.Equal(t, 6, st.Members)
	assert.Equal(t, 3, st.SkippedWord)
	assert.Equal(t, 1, st.SkippedDate)
	assert.Equal(t, 2, st.Pairs)
}

func TestScrape_CategoryParams(t *testing.T) {
	wiki := newFakeWiki()
	ts := httptest.NewServer(wiki.handler())
	defer ts.Close()

	s := newTestScraper(t, ts, Config{})
	collect(t, s)

	q := wiki.apiQueries[0]
	for _, want := range []string{
		"action=query", "format=json", "list=categorymembers",
		"cmlimit=500", "cmprop=ids%7Ctitle%7Ctimestamp",
		"cmtitle=Category%3AEnglish+terms+with+IPA+pronunciation",
	} {
		assert.Contains(t, q, want)
	}
}

func TestScrape_NoSkipSpaces(t *testing.T) {
	wiki := newFakeWiki()
	ts := httptest.NewServer(wiki.handler())
	defer ts.Close()

	s := newTestScraper(t, ts, Config{NoSkipSpaces: true})
	pairs := collect(t, s)

	require.Len(t, pairs, 3)
	assert.Equal(t, Pair{Word: "ice cream", Pron: "ˈaɪs.kɹiːm"}, pairs[1])
}

func TestScrape_PronOptions(t *testing.T) {
	wiki := newFakeWiki()
	ts := httptest.NewServer(wiki.handler())
	defer ts.Close()

	s := newTestScraper(t, ts, Config{
		Casefold:             true,
		NoStress:             true,
		NoSyllableBoundaries: true,
		ExpandVariants:       true,
	})
	pairs := collect(t, s)

	assert.Equal(t, []Pair{
		{Word: "cheese", Pron: "t͡ʃiːz"},
		{Word: "cheese", Pron: "t͡ʃiː"},
		{Word: "café", Pron: "kaf\u00e9"},
	}, pairs)
}

func TestScrape_CallbackErrorStops(t *testing.T) {
	wiki := newFakeWiki()
	ts := httptest.NewServer(wiki.handler())
	defer ts.Close()

	s := newTestScraper(t, ts, Config{})
	stop := errors.New("stop")
	calls := 0
	err := s.Scrape(context.Background(), func(Pair) error {
		calls++
		return stop
	})
	assert.ErrorIs(t, err, stop)
	assert.Equal(t, 1, calls)
	assert.Len(t, wiki.apiQueries, 1)
}

func TestScrape_PageStatusError(t *testing.T) {
	wiki := newFakeWiki()
	delete(wiki.prons, "cheese")
	ts := httptest.NewServer(wiki.handler())
	defer ts.Close()

	s := newTestScraper(t, ts, Config{})
	err := s.Scrape(context.Background(), func(Pair) error { return nil })
	assert.ErrorIs(t, err, ErrStatus)
}

func TestScrape_APIError(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"error":{"code":"badvalue","info":"Unrecognized value"}}`)
	}))
	defer ts.Close()

	s := newTestScraper(t, ts, Config{})
	err := s.Scrape(context.Background(), func(Pair) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "badvalue")
}

func TestScrape_MalformedJSON(t *testing.T) {
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query":`)
	}))
	defer ts.Close()

	s := newTestScraper(t, ts, Config{})
	err := s.Scrape(context.Background(), func(Pair) error { return nil })
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode category members")
}

func TestScrape_CanceledContext(t *testing.T) {
	wiki := newFakeWiki()
	ts := httptest.NewServer(wiki.handler())
	defer ts.Close()

	s := newTestScraper(t, ts, Config{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	err := s.Scrape(ctx, func(Pair) error { return nil })
	assert.ErrorIs(t, err, context.Canceled)
}

func TestNew_RequiresLanguage(t *testing.T) {
	_, err := New(Config{})
	assert.Error(t, err)
}

func TestNew_Defaults(t *testing.T) {
	s, err := New(Config{Language: "French"})
	require.NoError(t, err)
	assert.Equal(t, DefaultAPIURL, s.cfg.APIURL)
	assert.Equal(t, DefaultPageURL, s.cfg.PageURL)
	assert.Len(t, s.cfg.CutOffDate, len(CutOffDateLayout))
	assert.NotNil(t, s.cfg.Extractor)
	assert.Equal(t, "Category:French terms with IPA pronunciation", s.Category())
}

func TestPing(t *testing.T) {
	wiki := newFakeWiki()
	ts := httptest.NewServer(wiki.handler())
	defer ts.Close()

	s := newTestScraper(t, ts, Config{UserAgent: "test-agent/1.0"})
	status, err := s.Ping(context.Background())
	require.NoError(t, err)
	assert.Equal(t, http.StatusOK, status)

	require.Len(t, wiki.apiQueries, 1)
	assert.Contains(t, wiki.apiQueries[0], "cmlimit=1&")
	assert.Contains(t, wiki.apiQueries[0], "cmtitle=Category%3AEnglish+terms+with+IPA+pronunciation")
	assert.Equal(t, "test-agent/1.0", wiki.userAgents[0])
	// No page is fetched.
	assert.Empty(t, wiki.pages)
}

func TestPing_Failures(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		body       string
		wantStatus int
		wantErr    string
	}{
		{"api error", http.StatusOK, `{"error":{"code":"badvalue","info":"Unrecognized value"}}`, 200, "badvalue"},
		{"bad json", http.StatusOK, `{"query":`, 200, "decode category members"},
		{"status", http.StatusTooManyRequests, ``, 429, "unexpected HTTP status"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
				w.WriteHeader(tt.code)
				fmt.Fprint(w, tt.body)
			}))
			defer ts.Close()

			s := newTestScraper(t, ts, Config{})
			status, err := s.Ping(context.Background())
			assert.Equal(t, tt.wantStatus, status)
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.wantErr)
		})
	}
}

func TestPing_NoResponse(t *testing.T) {
	ts := httptest.NewServer(http.NotFoundHandler())
	ts.Close()

	s := newTestScraper(t, ts, Config{})
	status, err := s.Ping(context.Background())
	assert.Equal(t, 0, status)
	assert.Error(t, err)
}

func TestStats_LogValue(t *testing.T) {
	var buf strings.Builder
	slog.New(slog.NewTextHandler(&buf, nil)).Info("done", "stats", Stats{Members: 6, SkippedWord: 3, Pairs: 2})
	out := buf.String()
	assert.Contains(t, out, "stats.members=6")
	assert.Contains(t, out, "stats.skipped_word=3")
	assert.Contains(t, out, "stats.pairs=2")
}

func TestScrape_CustomExtractor(t *testing.T) {
	wiki := newFakeWiki()
	ts := httptest.NewServer(wiki.handler())
	defer ts.Close()

	var seen []string
	custom := extract.Func(func(_ context.Context, word string, doc *html.Node, opts extract.Options) ([]string, error) {
		require.NotNil(t, doc)
		assert.Equal(t, "English", opts.Language)
		seen = append(seen, word)
		return []string{"x(y)"}, nil
	})
	s := newTestScraper(t, ts, Config{Extractor: custom, ExpandVariants: true})
	pairs := collect(t, s)

	assert.Equal(t, []string{"cheese", "Café"}, seen)
	assert.Equal(t, []Pair{
		{Word: "cheese", Pron: "xy"}, {Word: "cheese", Pron: "x"},
		{Word: "Café", Pron: "xy"}, {Word: "Café", Pron: "x"},
	}, pairs)
}
