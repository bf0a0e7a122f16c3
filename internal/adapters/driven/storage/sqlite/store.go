// Package sqlite persists ingest run history in a local SQLite database.
package sqlite

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"time"

	_ "modernc.org/sqlite"

	"github.com/campuswatch/watcher/internal/adapters/driven/storage/sqlite/migrations"
	"github.com/campuswatch/watcher/internal/core/domain"
	"github.com/campuswatch/watcher/internal/core/ports/driven"
)

const dbFileName = "watcher.db"

// Store is a SQLite-backed run ledger.
type Store struct {
	db   *sql.DB
	path string
}

var _ driven.RunStore = (*Store)(nil)

// DefaultDataDir returns the default location for the database file.
func DefaultDataDir() (string, error) {
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("resolving home directory: %w", err)
	}
	return filepath.Join(home, ".watcher", "data"), nil
}

// NewStore opens (creating if needed) the database under dataDir and
// applies any pending migrations. An empty dataDir uses DefaultDataDir.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		var err error
		dataDir, err = DefaultDataDir()
		if err != nil {
			return nil, err
		}
	}
	if err := os.MkdirAll(dataDir, 0o755); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, dbFileName)
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec("PRAGMA foreign_keys = ON"); err != nil {
		db.Close()
		return nil, fmt.Errorf("enabling foreign keys: %w", err)
	}

	s := &Store{db: db, path: dbPath}
	if err := s.migrate(); err != nil {
		db.Close()
		return nil, err
	}
	return s, nil
}

// Path returns the filesystem location of the database file.
func (s *Store) Path() string { return s.path }

// Close closes the underlying database.
func (s *Store) Close() error { return s.db.Close() }

func (s *Store) migrate() error {
	_, err := s.db.Exec(`CREATE TABLE IF NOT EXISTS schema_migrations (
		version INTEGER PRIMARY KEY,
		applied_at INTEGER NOT NULL
	)`)
	if err != nil {
		return fmt.Errorf("creating migrations table: %w", err)
	}

	applied := make(map[int]bool)
	rows, err := s.db.Query("SELECT version FROM schema_migrations")
	if err != nil {
		return fmt.Errorf("reading applied migrations: %w", err)
	}
	for rows.Next() {
		var v int
		if err := rows.Scan(&v); err != nil {
			rows.Close()
			return fmt.Errorf("scanning migration version: %w", err)
		}
		applied[v] = true
	}
	rows.Close()
	if err := rows.Err(); err != nil {
		return fmt.Errorf("iterating migrations: %w", err)
	}

	entries, err := fs.Glob(migrations.FS, "*.up.sql")
	if err != nil {
		return fmt.Errorf("listing migrations: %w", err)
	}
	sort.Strings(entries)

	for _, name := range entries {
		var version int
		if _, err := fmt.Sscanf(name, "%d_", &version); err != nil {
			return fmt.Errorf("parsing migration name %q: %w", name, err)
		}
		if applied[version] {
			continue
		}

		content, err := fs.ReadFile(migrations.FS, name)
		if err != nil {
			return fmt.Errorf("reading migration %q: %w", name, err)
		}
		if _, err := s.db.Exec(string(content)); err != nil {
			return fmt.Errorf("applying migration %q: %w", name, err)
		}
		_, err = s.db.Exec(
			"INSERT INTO schema_migrations (version, applied_at) VALUES (?, ?)",
			version, time.Now().Unix(),
		)
		if err != nil {
			return fmt.Errorf("recording migration %q: %w", name, err)
		}
	}
	return nil
}

// SaveReport persists a completed ingest run with its per-page results.
func (s *Store) SaveReport(ctx context.Context, report *domain.IngestReport) error {
	if report == nil {
		return fmt.Errorf("%w: nil report", domain.ErrInvalidInput)
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback()

	res, err := tx.ExecContext(ctx, `
		INSERT INTO ingest_runs (mode, started_at, finished_at, pages_updated, pages_skipped, pages_failed, handbook_passages)
		VALUES (?, ?, ?, ?, ?, ?, ?)`,
		string(report.Mode),
		report.StartedAt.Unix(),
		report.FinishedAt.Unix(),
		report.PagesUpdated,
		report.PagesSkipped,
		report.PagesFailed,
		report.HandbookPassages,
	)
	if err != nil {
		return fmt.Errorf("inserting run: %w", err)
	}
	runID, err := res.LastInsertId()
	if err != nil {
		return fmt.Errorf("reading run id: %w", err)
	}

	if len(report.Pages) > 0 {
		stmt, err := tx.PrepareContext(ctx, `
			INSERT INTO page_results (run_id, url, outcome, passages, error)
			VALUES (?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("preparing page insert: %w", err)
		}
		defer stmt.Close()

		for _, page := range report.Pages {
			_, err := stmt.ExecContext(ctx, runID, page.URL, string(page.Outcome), page.Passages, page.Error)
			if err != nil {
				return fmt.Errorf("inserting page result for %q: %w", page.URL, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing run: %w", err)
	}
	return nil
}

// LastReport returns the most recent saved run, or domain.ErrNotFound
// when no run has been recorded yet.
func (s *Store) LastReport(ctx context.Context) (*domain.IngestReport, error) {
	var (
		runID      int64
		mode       string
		startedAt  int64
		finishedAt int64
		report     domain.IngestReport
	)
	err := s.db.QueryRowContext(ctx, `
		SELECT id, mode, started_at, finished_at, pages_updated, pages_skipped, pages_failed, handbook_passages
		FROM ingest_runs
		ORDER BY id DESC
		LIMIT 1`,
	).Scan(&runID, &mode, &startedAt, &finishedAt,
		&report.PagesUpdated, &report.PagesSkipped, &report.PagesFailed, &report.HandbookPassages)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, fmt.Errorf("%w: no ingest runs recorded", domain.ErrNotFound)
	}
	if err != nil {
		return nil, fmt.Errorf("reading last run: %w", err)
	}

	report.Mode = domain.IngestMode(mode)
	report.StartedAt = time.Unix(startedAt, 0).UTC()
	report.FinishedAt = time.Unix(finishedAt, 0).UTC()

	rows, err := s.db.QueryContext(ctx, `
		SELECT url, outcome, passages, error
		FROM page_results
		WHERE run_id = ?
		ORDER BY id ASC`, runID)
	if err != nil {
		return nil, fmt.Errorf("reading page results: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var (
			page    domain.PageResult
			outcome string
		)
		if err := rows.Scan(&page.URL, &outcome, &page.Passages, &page.Error); err != nil {
			return nil, fmt.Errorf("scanning page result: %w", err)
		}
		page.Outcome = domain.PageOutcome(outcome)
		report.Pages = append(report.Pages, page)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating page results: %w", err)
	}

	return &report, nil
}
