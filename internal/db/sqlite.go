package db

import (
	"context"
	"database/sql"
	"fmt"
	"os"
	"path/filepath"

	"bootbench/internal/benchmark"

	_ "modernc.org/sqlite" // Pure Go SQLite driver
)

// SQLiteStore implements Store using SQLite
type SQLiteStore struct {
	db *sql.DB
}

// NewSQLiteStore creates a new SQLite store and applies migrations
func NewSQLiteStore(path string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &SQLiteStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

// newSQLiteAt creates the parent directory of path before opening it.
func newSQLiteAt(path string) (*SQLiteStore, error) {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0755); err != nil {
			return nil, fmt.Errorf("failed to create directory %s: %w", dir, err)
		}
	}
	return NewSQLiteStore(path)
}

func (s *SQLiteStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			device TEXT NOT NULL,
			build TEXT,
			rounds INTEGER NOT NULL,
			with_compos_avg REAL,
			without_compos_avg REAL,
			data TEXT NOT NULL,
			created_at INTEGER NOT NULL
		);`,
		`CREATE INDEX IF NOT EXISTS idx_runs_created_at ON runs(created_at);`,
	}
	for _, q := range queries {
		if _, err := s.db.Exec(q); err != nil {
			return err
		}
	}
	return nil
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// Save inserts a run. Saving the same run ID twice is an error.
func (s *SQLiteStore) Save(ctx context.Context, run *benchmark.Run) error {
	row, err := toRow(run)
	if err != nil {
		return err
	}
	query := `INSERT INTO runs (id, device, build, rounds, with_compos_avg, without_compos_avg, data, created_at)
		VALUES (?, ?, ?, ?, ?, ?, ?, ?)`
	if _, err := s.db.ExecContext(ctx, query, row.args()...); err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

// Latest retrieves the most recent runs
func (s *SQLiteStore) Latest(ctx context.Context, n int) ([]benchmark.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM runs ORDER BY created_at DESC LIMIT ?`, n)
	if err != nil {
		return nil, err
	}
	return scanRuns(rows)
}
