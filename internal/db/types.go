package db

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"bootbench/internal/benchmark"
)

// Store persists benchmark runs.
type Store interface {
	Save(ctx context.Context, run *benchmark.Run) error
	// Latest returns up to n runs, newest first.
	Latest(ctx context.Context, n int) ([]benchmark.Run, error)
	Close() error
}

// runRow is the column set shared by the SQL stores. The full record is kept
// as JSON in data; the other columns exist for querying.
type runRow struct {
	id               string
	device           string
	build            string
	rounds           int
	withCompOSAvg    float64
	withoutCompOSAvg float64
	data             string
	createdAt        int64
}

func toRow(run *benchmark.Run) (runRow, error) {
	data, err := json.Marshal(run)
	if err != nil {
		return runRow{}, fmt.Errorf("failed to marshal run: %w", err)
	}
	return runRow{
		id:               run.ID,
		device:           run.Device,
		build:            run.Build,
		rounds:           run.Rounds,
		withCompOSAvg:    run.Summaries[benchmark.CompOS].Average,
		withoutCompOSAvg: run.Summaries[benchmark.Baseline].Average,
		data:             string(data),
		createdAt:        run.Timestamp.UnixNano(),
	}, nil
}

func (r runRow) args() []any {
	return []any{r.id, r.device, r.build, r.rounds, r.withCompOSAvg, r.withoutCompOSAvg, r.data, r.createdAt}
}

func scanRuns(rows *sql.Rows) ([]benchmark.Run, error) {
	defer rows.Close()

	var runs []benchmark.Run
	for rows.Next() {
		var data string
		if err := rows.Scan(&data); err != nil {
			return nil, err
		}
		var run benchmark.Run
		if err := json.Unmarshal([]byte(data), &run); err != nil {
			return nil, fmt.Errorf("failed to unmarshal run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}
