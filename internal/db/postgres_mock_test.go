package db

import (
	"context"
	"encoding/json"
	"errors"
	"testing"
	"time"

	"github.com/DATA-DOG/go-sqlmock"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func withMockStore(t *testing.T, fn func(*PostgresStore, sqlmock.Sqlmock)) {
	db, mock, err := sqlmock.New()
	if err != nil {
		t.Fatalf("an error '%s' was not expected when opening a stub database connection", err)
	}
	defer db.Close()

	store := &PostgresStore{db: db}
	fn(store, mock)

	if err := mock.ExpectationsWereMet(); err != nil {
		t.Errorf("there were unfulfilled expectations: %s", err)
	}
}

func TestPostgresStore_Mocked(t *testing.T) {
	ctx := context.Background()
	at := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := sampleRun("run-1", at, 40)

	t.Run("Save Success", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectExec("INSERT INTO runs").
				WithArgs("run-1", "emulator-5554", run.Build, 2, 40.0, 30.0, sqlmock.AnyArg(), at.UnixNano()).
				WillReturnResult(sqlmock.NewResult(1, 1))

			assert.NoError(t, store.Save(ctx, run))
		})
	})

	t.Run("Save Error", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectExec("INSERT INTO runs").
				WillReturnError(errors.New("insert error"))

			err := store.Save(ctx, run)
			assert.ErrorContains(t, err, "insert error")
		})
	})

	t.Run("Latest Success", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			data, err := json.Marshal(run)
			require.NoError(t, err)
			rows := sqlmock.NewRows([]string{"data"}).AddRow(string(data))

			mock.ExpectQuery("SELECT data FROM runs ORDER BY created_at DESC").
				WithArgs(5).
				WillReturnRows(rows)

			runs, err := store.Latest(ctx, 5)
			assert.NoError(t, err)
			require.Len(t, runs, 1)
			assert.Equal(t, "run-1", runs[0].ID)
			assert.Equal(t, []float64{40, 40}, runs[0].WithCompOS)
		})
	})

	t.Run("Latest Bad Row", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			rows := sqlmock.NewRows([]string{"data"}).AddRow("not json")
			mock.ExpectQuery("SELECT data FROM runs").WithArgs(5).WillReturnRows(rows)

			_, err := store.Latest(ctx, 5)
			assert.ErrorContains(t, err, "failed to unmarshal run")
		})
	})

	t.Run("Latest Error", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectQuery("SELECT data FROM runs").
				WithArgs(5).
				WillReturnError(errors.New("query error"))

			_, err := store.Latest(ctx, 5)
			assert.Error(t, err)
		})
	})

	t.Run("Migrate", func(t *testing.T) {
		withMockStore(t, func(store *PostgresStore, mock sqlmock.Sqlmock) {
			mock.ExpectExec("CREATE TABLE IF NOT EXISTS runs").WillReturnResult(sqlmock.NewResult(0, 0))
			mock.ExpectExec("CREATE INDEX IF NOT EXISTS idx_runs_created_at").WillReturnResult(sqlmock.NewResult(0, 0))

			assert.NoError(t, store.migrate())
		})
	})
}
