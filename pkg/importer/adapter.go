package importer

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"sort"
	"sync"
)

// Options carries the per-run settings of an import.
type Options struct {
	// SourceURL overrides the adapter's DefaultURL, usually from the SourceDB.
	SourceURL string
	// OutputDir is the lexicons directory; the adapter writes into
	// OutputDir/<LexiconID>.
	OutputDir string
	// CutOffDate is passed to the scraper. Empty means today.
	CutOffDate string
	// PageURL overrides the page base URL. Empty means the scraper default.
	PageURL    string
	HTTPClient *http.Client
	Logger     *slog.Logger
}

// Adapter defines a harvest source that scrapes pronunciations and writes
// them out as a lexicon directory.
type Adapter interface {
	// ID returns the unique identifier of this adapter (e.g. "wiktionary-en").
	ID() string
	// LexiconID returns the target lexicon ID (e.g. "en").
	LexiconID() string
	// Description returns a human-readable description.
	Description() string
	// DefaultURL returns the default source URL used for seeding the database.
	DefaultURL() string
	// License returns the license of the harvested data (e.g. "CC BY-SA 4.0").
	License() string
	// Import harvests the source and writes data.gob + manifest.yaml into
	// OutputDir/LexiconID(). It returns the number of pairs written.
	Import(ctx context.Context, opts Options) (int, error)
	// Ping checks that the source answers the first request of an import.
	// It returns the HTTP status, 0 when no response arrived.
	Ping(ctx context.Context, opts Options) (int, error)
}

var errNoAdapter = errors.New("no registered adapter")

var (
	registryMu sync.RWMutex
	adapters   = make(map[string]Adapter)
)

// Register adds an adapter to the global registry.
func Register(a Adapter) {
	registryMu.Lock()
	defer registryMu.Unlock()
	adapters[a.ID()] = a
}

// Get returns a registered adapter by ID, or an error if not found.
func Get(id string) (Adapter, error) {
	registryMu.RLock()
	defer registryMu.RUnlock()
	a, ok := adapters[id]
	if !ok {
		return nil, fmt.Errorf("unknown harvest source: %q", id)
	}
	return a, nil
}

// All returns all registered adapters sorted by ID.
func All() []Adapter {
	registryMu.RLock()
	defer registryMu.RUnlock()
	result := make([]Adapter, 0, len(adapters))
	for _, a := range adapters {
		result = append(result, a)
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID() < result[j].ID() })
	return result
}
