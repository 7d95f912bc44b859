package main

import (
	"bytes"
	"context"
	"fmt"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func run(t *testing.T, stdin string, args ...string) (string, error) {
	t.Helper()
	var stdout, stderr bytes.Buffer
	app := newApp()
	app.Reader = strings.NewReader(stdin)
	app.Writer = &stdout
	app.ErrWriter = &stderr
	err := app.Run(context.Background(), append([]string{"wikipron"}, args...))
	return stdout.String(), err
}

func TestExpand_Args(t *testing.T) {
	out, err := run(t, "", "expand", "hotda(w)g", "happy")
	require.NoError(t, err)
	assert.Equal(t, "hotdawg\nhotdag\nhappy\n", out)
}

func TestExpand_Stdin(t *testing.T) {
	out, err := run(t, "fo(bar)o\n()\n", "expand")
	require.NoError(t, err)
	assert.Equal(t, "fobaro\nfoo\n\n\n", out)
}

func fakeWiki() *httptest.Server {
	mux := http.NewServeMux()
	mux.HandleFunc("/w/api.php", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"query":{"categorymembers":[
 {"pageid":1,"ns":0,"title":"cheese","timestamp":"2020-01-01T00:00:00Z"},
 {"pageid":2,"ns":0,"title":"ice cream","timestamp":"2020-01-01T00:00:00Z"},
 {"pageid":3,"ns":0,"title":"newword","timestamp":"2030-01-01T00:00:00Z"}
]}}`)
	})
	mux.HandleFunc("/wiki/", func(w http.ResponseWriter, r *http.Request) {
		if r.URL.Path != "/wiki/cheese" {
			http.NotFound(w, r)
			return
		}
		fmt.Fprint(w, `<html><body><h2 id="English">English</h2>
<p><span class="IPA">/ˈt͡ʃiː(z)/</span></p></body></html>`)
	})
	return httptest.NewServer(mux)
}

func TestScrape_WritesTSV(t *testing.T) {
	ts := fakeWiki()
	defer ts.Close()
	outPath := filepath.Join(t.TempDir(), "en.tsv")

	out, err := run(t, "", "--log-level", "error", "scrape",
		"--language", "English",
		"--cut-off-date", "2025-01-01",
		"--expand-variants",
		"--api-url", ts.URL+"/w/api.php",
		"--page-url", ts.URL+"/wiki/",
		"--output", outPath,
	)
	require.NoError(t, err)
	assert.Empty(t, out)

	data, err := os.ReadFile(outPath)
	require.NoError(t, err)
	assert.Equal(t, "cheese\tˈt͡ʃiːz\ncheese\tˈt͡ʃiː\n", string(data))
}

func TestImport_ListsSources(t *testing.T) {
	dir := t.TempDir()
	out, err := run(t, "", "import", "--output-dir", dir)
	require.NoError(t, err)
	assert.Contains(t, out, "wiktionary-en")
	assert.Contains(t, out, "(-> fr)")
	assert.FileExists(t, filepath.Join(dir, "sources.db"))
}

func TestImport_UnknownSource(t *testing.T) {
	_, err := run(t, "", "import", "--output-dir", t.TempDir(), "--source", "nope")
	require.ErrorContains(t, err, "unknown harvest source")
}

func TestParseToolArgs(t *testing.T) {
	got, err := parseToolArgs([]string{"word=chat", `languages=["en","fr"]`, "n=3"})
	require.NoError(t, err)
	assert.Equal(t, map[string]any{
		"word":      "chat",
		"languages": []any{"en", "fr"},
		"n":         float64(3),
	}, got)

	_, err = parseToolArgs([]string{"novalue"})
	assert.Error(t, err)
}

func TestExpand_TooManyGroups(t *testing.T) {
	out, err := run(t, "", "expand", "a(b)", strings.Repeat("(a)", 64))
	require.ErrorContains(t, err, "too many optional groups")
	assert.Equal(t, "ab\na\n", out)
}
