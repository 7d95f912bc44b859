package importer

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"os"
	"strings"
	"sync"
	"sync/atomic"
	"testing"
	"time"
)

func quietLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(os.Stderr, &slog.HandlerOptions{Level: slog.LevelError}))
}

func statusServer(t *testing.T, code int) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(code)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func check(sdb *SourceDB, adapters ...Adapter) {
	NewChecker(sdb, adapters, quietLogger(), time.Hour).CheckAll(context.Background())
}

func TestCheckAll_Statuses(t *testing.T) {
	adapters := []Adapter{
		&fakeAdapter{"ok", "a", "ok", statusServer(t, http.StatusOK).URL, "CC0"},
		&fakeAdapter{"gone", "c", "404", statusServer(t, http.StatusNotFound).URL, "CC0"},
		&fakeAdapter{"broken", "d", "502", statusServer(t, http.StatusBadGateway).URL, "CC0"},
	}
	sdb := tempSourceDB(t)
	seed(t, sdb, adapters...)

	check(sdb, adapters...)

	sources, err := sdb.ListSources()
	if err != nil {
		t.Fatalf("ListSources: %v", err)
	}
	want := map[string]int{"ok": 200, "gone": 404, "broken": 502}
	for _, src := range sources {
		if src.LastStatus == nil {
			t.Errorf("%s: no status recorded", src.AdapterID)
			continue
		}
		if *src.LastStatus != want[src.AdapterID] {
			t.Errorf("%s: status = %d, want %d", src.AdapterID, *src.LastStatus, want[src.AdapterID])
		}
		failed := src.LastError != nil
		if failed != (src.AdapterID != "ok") {
			t.Errorf("%s: last_error = %v", src.AdapterID, src.LastError)
		}
	}
}

func TestCheckAll_NetworkError(t *testing.T) {
	dead := &fakeAdapter{"dead", "x", "dead", "http://127.0.0.1:1", "CC0"}
	sdb := tempSourceDB(t)
	seed(t, sdb, dead)

	check(sdb, dead)

	src := onlySource(t, sdb)
	if src.LastStatus == nil || *src.LastStatus != 0 {
		t.Errorf("expected status 0 for network error, got %v", src.LastStatus)
	}
	if src.LastError == nil || *src.LastError == "" {
		t.Error("expected non-empty last_error for network error")
	}
}

func TestCheckAll_UnregisteredAdapter(t *testing.T) {
	sdb := tempSourceDB(t)
	seed(t, sdb, &fakeAdapter{"retired", "x", "retired", "http://127.0.0.1:1", "CC0"})

	check(sdb)

	src := onlySource(t, sdb)
	if src.LastError == nil || !strings.Contains(*src.LastError, "no registered adapter") {
		t.Errorf("last_error = %v", src.LastError)
	}
}

// categoryAPI answers category queries with body and records what it saw.
type categoryAPI struct {
	mu      sync.Mutex
	queries []string
	agents  []string
}

func (c *categoryAPI) server(t *testing.T, code int, body string) *httptest.Server {
	t.Helper()
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		c.mu.Lock()
		c.queries = append(c.queries, r.URL.RawQuery)
		c.agents = append(c.agents, r.UserAgent())
		c.mu.Unlock()
		if r.Method != http.MethodGet {
			t.Errorf("method = %s, want GET", r.Method)
		}
		w.WriteHeader(code)
		fmt.Fprint(w, body)
	}))
	t.Cleanup(srv.Close)
	return srv
}

func TestCheckAll_WiktionaryCategoryQuery(t *testing.T) {
	tests := []struct {
		name       string
		code       int
		body       string
		wantStatus int
		wantErr    string
	}{
		{"ok", http.StatusOK, `{"query":{"categorymembers":[{"pageid":1,"title":"chat","timestamp":"2020-01-01T00:00:00Z"}]}}`, 200, ""},
		{"api error", http.StatusOK, `{"error":{"code":"invalidcategory","info":"The category name you entered is not valid."}}`, 200, "invalidcategory"},
		{"not json", http.StatusOK, `<html>maintenance</html>`, 200, "decode category members"},
		{"unavailable", http.StatusServiceUnavailable, ``, 503, "503"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			a, err := Get("wiktionary-fr")
			if err != nil {
				t.Fatalf("Get: %v", err)
			}
			api := &categoryAPI{}
			srv := api.server(t, tt.code, tt.body)

			sdb := tempSourceDB(t)
			seed(t, sdb, a)
			if err := sdb.SetURL(a.ID(), srv.URL+"/w/api.php"); err != nil {
				t.Fatalf("SetURL: %v", err)
			}

			check(sdb, a)

			src := onlySource(t, sdb)
			if src.LastStatus == nil || *src.LastStatus != tt.wantStatus {
				t.Errorf("status = %v, want %d", src.LastStatus, tt.wantStatus)
			}
			switch {
			case tt.wantErr == "" && src.LastError != nil:
				t.Errorf("unexpected last_error %q", *src.LastError)
			case tt.wantErr != "" && (src.LastError == nil || !strings.Contains(*src.LastError, tt.wantErr)):
				t.Errorf("last_error = %v, want it to mention %q", src.LastError, tt.wantErr)
			}

			if len(api.queries) != 1 {
				t.Fatalf("requests = %d, want 1", len(api.queries))
			}
			for _, want := range []string{
				"list=categorymembers", "cmlimit=1",
				"cmtitle=Category%3AFrench+terms+with+IPA+pronunciation",
			} {
				if !strings.Contains(api.queries[0], want) {
					t.Errorf("query %q lacks %q", api.queries[0], want)
				}
			}
			if !strings.HasPrefix(api.agents[0], "wikipron/") {
				t.Errorf("User-Agent = %q", api.agents[0])
			}
		})
	}
}

func TestCheckAll_EmptyDB(t *testing.T) {
	sdb := tempSourceDB(t)
	NewChecker(sdb, nil, nil, time.Hour).CheckAll(context.Background())
}

func TestCheckAll_CanceledContext(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	a := &fakeAdapter{"s", "s", "s", srv.URL, "CC0"}
	sdb := tempSourceDB(t)
	seed(t, sdb, a)

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	NewChecker(sdb, []Adapter{a}, quietLogger(), time.Hour).CheckAll(ctx)

	if hits.Load() != 0 {
		t.Errorf("expected no requests after cancel, got %d", hits.Load())
	}
	if src := onlySource(t, sdb); src.LastCheck != nil {
		t.Error("expected no check recorded after cancel")
	}
}

func TestStart_StopsOnCancel(t *testing.T) {
	var hits atomic.Int32
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		hits.Add(1)
	}))
	defer srv.Close()

	a := &fakeAdapter{"s", "s", "s", srv.URL, "CC0"}
	sdb := tempSourceDB(t)
	seed(t, sdb, a)

	ctx, cancel := context.WithCancel(context.Background())
	done := make(chan struct{})
	go func() {
		NewChecker(sdb, []Adapter{a}, quietLogger(), time.Hour).Start(ctx)
		close(done)
	}()

	deadline := time.After(5 * time.Second)
	for hits.Load() == 0 {
		select {
		case <-deadline:
			t.Fatal("initial check never ran")
		case <-time.After(10 * time.Millisecond):
		}
	}
	cancel()
	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Start did not return after cancel")
	}
}
