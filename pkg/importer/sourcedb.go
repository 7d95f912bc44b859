package importer

import (
	"context"
	"database/sql"
	"embed"
	"fmt"
	"io/fs"
	"time"

	"github.com/Masterminds/squirrel"
	"github.com/georgysavva/scany/v2/sqlscan"
	"github.com/pressly/goose/v3"
	_ "modernc.org/sqlite"
)

// Source represents a row from the harvest_sources table.
type Source struct {
	AdapterID   string  `db:"adapter_id"`
	LexiconID   string  `db:"lexicon_id"`
	Description string  `db:"description"`
	SourceURL   string  `db:"source_url"`
	License     string  `db:"license"`
	LastCheck   *int64  `db:"last_check"`
	LastStatus  *int    `db:"last_status"`
	LastError   *string `db:"last_error"`
	LastImport  *int64  `db:"last_import"`
	LastEntries *int    `db:"last_entries"`
	UpdatedAt   int64   `db:"updated_at"`
}

const sourcesTable = "harvest_sources"

var sourceColumns = []string{
	"adapter_id", "lexicon_id", "description", "source_url", "license",
	"last_check", "last_status", "last_error", "last_import", "last_entries", "updated_at",
}

// SourceDB manages the harvest_sources SQLite table.
type SourceDB struct {
	db *sql.DB
}

//go:embed migrations/*.sql
var migrations embed.FS

// OpenSourceDB opens (or creates) the SQLite database at path and migrates
// the harvest_sources table to the latest schema.
func OpenSourceDB(path string) (*SourceDB, error) {
	db, err := sql.Open("sqlite", path+"?_pragma=journal_mode(wal)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("open source db: %w", err)
	}
	if err := migrate(db); err != nil {
		db.Close()
		return nil, err
	}
	return &SourceDB{db: db}, nil
}

func migrate(db *sql.DB) error {
	fsys, err := fs.Sub(migrations, "migrations")
	if err != nil {
		return fmt.Errorf("migrations fs: %w", err)
	}
	provider, err := goose.NewProvider(goose.DialectSQLite3, db, fsys)
	if err != nil {
		return fmt.Errorf("goose provider: %w", err)
	}
	if _, err := provider.Up(context.Background()); err != nil {
		return fmt.Errorf("migrate source db: %w", err)
	}
	return nil
}

// Close closes the database.
func (s *SourceDB) Close() error {
	return s.db.Close()
}

// Seed inserts default rows for each adapter. Existing rows are left untouched
// so URL overrides survive restarts.
func (s *SourceDB) Seed(adapters []Adapter) error {
	if len(adapters) == 0 {
		return nil
	}
	now := time.Now().Unix()
	q := squirrel.Insert(sourcesTable).
		Options("OR IGNORE").
		Columns("adapter_id", "lexicon_id", "description", "source_url", "license", "updated_at")
	for _, a := range adapters {
		q = q.Values(a.ID(), a.LexiconID(), a.Description(), a.DefaultURL(), a.License(), now)
	}
	if _, err := q.RunWith(s.db).Exec(); err != nil {
		return fmt.Errorf("seed sources: %w", err)
	}
	return nil
}

// GetURL returns the current source URL for a given adapter ID.
func (s *SourceDB) GetURL(adapterID string) (string, error) {
	var url string
	err := squirrel.Select("source_url").
		From(sourcesTable).
		Where(squirrel.Eq{"adapter_id": adapterID}).
		RunWith(s.db).
		QueryRow().
		Scan(&url)
	if err != nil {
		return "", fmt.Errorf("get url for %s: %w", adapterID, err)
	}
	return url, nil
}

// SetURL updates the source URL for a given adapter and records the change timestamp.
func (s *SourceDB) SetURL(adapterID, url string) error {
	res, err := s.update(adapterID).
		Set("source_url", url).
		Set("updated_at", time.Now().Unix()).
		Exec()
	if err != nil {
		return fmt.Errorf("set url for %s: %w", adapterID, err)
	}
	return requireRow(res, adapterID)
}

// UpdateCheck persists the result of an availability check.
func (s *SourceDB) UpdateCheck(adapterID string, status int, checkErr string) error {
	var errPtr *string
	if checkErr != "" {
		errPtr = &checkErr
	}
	_, err := s.update(adapterID).
		Set("last_check", time.Now().Unix()).
		Set("last_status", status).
		Set("last_error", errPtr).
		Exec()
	if err != nil {
		return fmt.Errorf("update check for %s: %w", adapterID, err)
	}
	return nil
}

// RecordImport stores the time and pair count of a successful import.
func (s *SourceDB) RecordImport(adapterID string, entries int) error {
	res, err := s.update(adapterID).
		Set("last_import", time.Now().Unix()).
		Set("last_entries", entries).
		Exec()
	if err != nil {
		return fmt.Errorf("record import for %s: %w", adapterID, err)
	}
	return requireRow(res, adapterID)
}

// ListSources returns all rows from harvest_sources ordered by adapter_id.
func (s *SourceDB) ListSources() ([]Source, error) {
	query, args, err := squirrel.Select(sourceColumns...).
		From(sourcesTable).
		OrderBy("adapter_id").
		ToSql()
	if err != nil {
		return nil, fmt.Errorf("build list query: %w", err)
	}
	var sources []Source
	if err := sqlscan.Select(context.Background(), s.db, &sources, query, args...); err != nil {
		return nil, fmt.Errorf("list sources: %w", err)
	}
	return sources, nil
}

func (s *SourceDB) update(adapterID string) squirrel.UpdateBuilder {
	return squirrel.Update(sourcesTable).
		Where(squirrel.Eq{"adapter_id": adapterID}).
		RunWith(s.db)
}

func requireRow(res sql.Result, adapterID string) error {
	n, _ := res.RowsAffected()
	if n == 0 {
		return fmt.Errorf("adapter %s not found in harvest_sources", adapterID)
	}
	return nil
}
