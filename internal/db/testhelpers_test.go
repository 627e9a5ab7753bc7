package db

import (
	"time"

	"bootbench/internal/benchmark"
	"bootbench/internal/stats"
)

func sampleRun(id string, at time.Time, avg float64) *benchmark.Run {
	return &benchmark.Run{
		ID:            id,
		Timestamp:     at,
		Device:        "emulator-5554",
		Build:         "google/cf_x86_64/vsoc:14/UP1A/123:userdebug/dev-keys",
		Rounds:        2,
		WithCompOS:    []float64{avg, avg},
		WithoutCompOS: []float64{avg - 10, avg - 10},
		Summaries: map[benchmark.Condition]stats.Summary{
			benchmark.CompOS:   {N: 2, Average: avg, Min: avg, Max: avg},
			benchmark.Baseline: {N: 2, Average: avg - 10, Min: avg - 10, Max: avg - 10},
		},
	}
}
