package db

import (
	"context"
	"database/sql"
	"fmt"

	"bootbench/internal/benchmark"

	_ "github.com/lib/pq"
)

// PostgresStore implements Store using PostgreSQL
type PostgresStore struct {
	db *sql.DB
}

// NewPostgresStore creates a new Postgres store and applies migrations
func NewPostgresStore(dsn string) (*PostgresStore, error) {
	db, err := sql.Open("postgres", dsn)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Ping(); err != nil {
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	store := &PostgresStore{db: db}
	if err := store.migrate(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to migrate database: %w", err)
	}

	return store, nil
}

func (s *PostgresStore) migrate() error {
	queries := []string{
		`CREATE TABLE IF NOT EXISTS runs (
			id TEXT PRIMARY KEY,
			device TEXT NOT NULL,
			build TEXT,
			rounds INTEGER NOT NULL,
			with_compos_avg DOUBLE PRECISION,
			without_compos_avg DOUBLE PRECISION,
			data JSONB NOT NULL,
			created_at BIGINT NOT NULL
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
func (s *PostgresStore) Close() error {
	return s.db.Close()
}

func (s *PostgresStore) Save(ctx context.Context, run *benchmark.Run) error {
	row, err := toRow(run)
	if err != nil {
		return err
	}
	query := `INSERT INTO runs (id, device, build, rounds, with_compos_avg, without_compos_avg, data, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`
	if _, err := s.db.ExecContext(ctx, query, row.args()...); err != nil {
		return fmt.Errorf("failed to save run %s: %w", run.ID, err)
	}
	return nil
}

func (s *PostgresStore) Latest(ctx context.Context, n int) ([]benchmark.Run, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT data FROM runs ORDER BY created_at DESC LIMIT $1`, n)
	if err != nil {
		return nil, err
	}
	return scanRuns(rows)
}
