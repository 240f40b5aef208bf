// Package store persists provider outputs between runs so a re-run of the
// translation step does not pay for calls it already made, and records a
// history of pipeline runs.
package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
	"golang.org/x/text/unicode/norm"
	_ "modernc.org/sqlite"
)

type Store struct {
	db *sql.DB
}

func New(dbPath string) (*Store, error) {
	if dir := filepath.Dir(dbPath); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create database directory: %w", err)
		}
	}

	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	// modernc sqlite serialises writers; one connection avoids SQLITE_BUSY.
	db.SetMaxOpenConns(1)

	s := &Store{db: db}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate: %w", err)
	}

	return s, nil
}

func (s *Store) migrate() error {
	schema := `
	-- translation_cache stores provider output per (provider, model, source text)
	CREATE TABLE IF NOT EXISTS translation_cache (
		provider TEXT NOT NULL,
		model TEXT NOT NULL,
		source_text TEXT NOT NULL,
		translated_text TEXT NOT NULL,
		usage_count INTEGER DEFAULT 1,
		created_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		last_used TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		PRIMARY KEY (provider, model, source_text)
	);

	-- runs records each pipeline step invocation
	CREATE TABLE IF NOT EXISTS runs (
		id TEXT PRIMARY KEY,
		command TEXT NOT NULL,
		provider TEXT,
		input_file TEXT,
		output_file TEXT,
		status TEXT DEFAULT 'running',
		rows INTEGER DEFAULT 0,
		failures INTEGER DEFAULT 0,
		started_at TIMESTAMP DEFAULT CURRENT_TIMESTAMP,
		finished_at TIMESTAMP
	);

	CREATE INDEX IF NOT EXISTS idx_cache_provider ON translation_cache(provider);
	CREATE INDEX IF NOT EXISTS idx_runs_started ON runs(started_at);
	`

	_, err := s.db.Exec(schema)
	return err
}

func (s *Store) Close() error {
	return s.db.Close()
}

// Get returns the cached translation of text for a provider and model.
func (s *Store) Get(ctx context.Context, provider, model, text string) (string, bool, error) {
	key := normalizeText(text)

	var translated string
	err := s.db.QueryRowContext(ctx,
		`SELECT translated_text FROM translation_cache WHERE provider = ? AND model = ? AND source_text = ?`,
		provider, model, key).Scan(&translated)
	if errors.Is(err, sql.ErrNoRows) {
		return "", false, nil
	}
	if err != nil {
		return "", false, err
	}

	_, err = s.db.ExecContext(ctx,
		`UPDATE translation_cache SET usage_count = usage_count + 1, last_used = ? WHERE provider = ? AND model = ? AND source_text = ?`,
		time.Now().UTC(), provider, model, key)

	return translated, true, err
}

// Save stores a translation, replacing any previous entry for the same key.
func (s *Store) Save(ctx context.Context, provider, model, text, translated string) error {
	now := time.Now().UTC()
	_, err := s.db.ExecContext(ctx,
		`INSERT OR REPLACE INTO translation_cache (provider, model, source_text, translated_text, usage_count, created_at, last_used) VALUES (?, ?, ?, ?, 1, ?, ?)`,
		provider, model, normalizeText(text), translated, now, now)
	return err
}

// CacheEntry is a row from the translation_cache table.
type CacheEntry struct {
	Provider       string
	Model          string
	SourceText     string
	TranslatedText string
	UsageCount     int
	LastUsed       time.Time
}

// List returns cache entries ordered by most recently used. An empty
// provider lists every provider.
func (s *Store) List(ctx context.Context, provider string) ([]CacheEntry, error) {
	query := `SELECT provider, model, source_text, translated_text, usage_count, last_used FROM translation_cache`
	var args []interface{}
	if provider != "" {
		query += ` WHERE provider = ?`
		args = append(args, provider)
	}
	query += ` ORDER BY last_used DESC, source_text`

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var results []CacheEntry
	for rows.Next() {
		var e CacheEntry
		if err := rows.Scan(&e.Provider, &e.Model, &e.SourceText, &e.TranslatedText, &e.UsageCount, &e.LastUsed); err != nil {
			return nil, err
		}
		results = append(results, e)
	}

	return results, rows.Err()
}

// ProviderStats summarises cache usage for one provider and model.
type ProviderStats struct {
	Provider   string
	Model      string
	Entries    int
	TotalUsage int
}

// Stats returns per-provider cache statistics ordered by provider.
func (s *Store) Stats(ctx context.Context) ([]ProviderStats, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT provider, model, COUNT(*), COALESCE(SUM(usage_count), 0)
		FROM translation_cache
		GROUP BY provider, model
		ORDER BY provider, model`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var stats []ProviderStats
	for rows.Next() {
		var st ProviderStats
		if err := rows.Scan(&st.Provider, &st.Model, &st.Entries, &st.TotalUsage); err != nil {
			return nil, err
		}
		stats = append(stats, st)
	}
	return stats, rows.Err()
}

// Clear removes cache entries for provider, or all entries when provider is
// empty, and reports how many were deleted.
func (s *Store) Clear(ctx context.Context, provider string) (int64, error) {
	var (
		res sql.Result
		err error
	)
	if provider == "" {
		res, err = s.db.ExecContext(ctx, `DELETE FROM translation_cache`)
	} else {
		res, err = s.db.ExecContext(ctx, `DELETE FROM translation_cache WHERE provider = ?`, provider)
	}
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// Run statuses.
const (
	RunRunning   = "running"
	RunCompleted = "completed"
	RunFailed    = "failed"
)

// Run is a row from the runs table.
type Run struct {
	ID         string
	Command    string
	Provider   string
	InputFile  string
	OutputFile string
	Status     string
	Rows       int
	Failures   int
	StartedAt  time.Time
	FinishedAt *time.Time
}

// StartRun records a new run and returns its id.
func (s *Store) StartRun(ctx context.Context, command, provider, inputFile, outputFile string) (string, error) {
	id := uuid.NewString()
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO runs (id, command, provider, input_file, output_file, status, started_at) VALUES (?, ?, ?, ?, ?, ?, ?)`,
		id, command, provider, inputFile, outputFile, RunRunning, time.Now().UTC())
	if err != nil {
		return "", err
	}
	return id, nil
}

// FinishRun marks a run as done with the given status and counters.
func (s *Store) FinishRun(ctx context.Context, id, status string, rows, failures int) error {
	res, err := s.db.ExecContext(ctx,
		`UPDATE runs SET status = ?, rows = ?, failures = ?, finished_at = ? WHERE id = ?`,
		status, rows, failures, time.Now().UTC(), id)
	if err != nil {
		return err
	}
	n, err := res.RowsAffected()
	if err != nil {
		return err
	}
	if n == 0 {
		return fmt.Errorf("run not found: %s", id)
	}
	return nil
}

// ListRuns returns the most recent runs first. limit <= 0 returns all.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]Run, error) {
	query := `SELECT id, command, COALESCE(provider, ''), COALESCE(input_file, ''), COALESCE(output_file, ''), status, rows, failures, started_at, finished_at FROM runs ORDER BY started_at DESC, id`
	var args []interface{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}

	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var runs []Run
	for rows.Next() {
		var r Run
		var finished sql.NullTime
		if err := rows.Scan(&r.ID, &r.Command, &r.Provider, &r.InputFile, &r.OutputFile, &r.Status, &r.Rows, &r.Failures, &r.StartedAt, &finished); err != nil {
			return nil, err
		}
		if finished.Valid {
			t := finished.Time
			r.FinishedAt = &t
		}
		runs = append(runs, r)
	}
	return runs, rows.Err()
}

// normalizeText trims whitespace and applies Unicode NFC normalization
// for consistent cache key comparison.
func normalizeText(text string) string {
	return norm.NFC.String(strings.TrimSpace(text))
}
