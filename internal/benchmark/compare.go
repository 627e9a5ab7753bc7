package benchmark

import (
	"fmt"

	"bootbench/internal/stats"
)

// Comparison holds the percentage change of one condition's summary between two runs.
type Comparison struct {
	Condition   Condition
	Prev        stats.Summary
	Curr        stats.Summary
	AverageDiff float64 // Percentage change
	MinDiff     float64
	MaxDiff     float64
	StdDevDiff  float64
}

// Compare returns a comparison for every condition summarized in both runs.
func Compare(prev, curr *Run) []Comparison {
	if prev == nil || curr == nil {
		return nil
	}

	var comparisons []Comparison
	for _, c := range Conditions {
		p, ok := prev.Summaries[c]
		if !ok {
			continue
		}
		n, ok := curr.Summaries[c]
		if !ok {
			continue
		}
		comparisons = append(comparisons, Comparison{
			Condition:   c,
			Prev:        p,
			Curr:        n,
			AverageDiff: pctChange(p.Average, n.Average),
			MinDiff:     pctChange(p.Min, n.Min),
			MaxDiff:     pctChange(p.Max, n.Max),
			StdDevDiff:  pctChange(p.StdDev, n.StdDev),
		})
	}
	return comparisons
}

func pctChange(prev, curr float64) float64 {
	if prev <= 0 {
		return 0
	}
	return (curr - prev) / prev * 100
}

// Regressed reports whether the average boot time grew by more than threshold percent.
func (c Comparison) Regressed(threshold float64) bool {
	return c.AverageDiff > threshold
}

// Improved reports whether the average boot time shrank by more than threshold percent.
func (c Comparison) Improved(threshold float64) bool {
	return c.AverageDiff < -threshold
}

func (c Comparison) String() string {
	return fmt.Sprintf("%s: %.3fs -> %.3fs (%+.2f%%)", c.Condition, c.Prev.Average, c.Curr.Average, c.AverageDiff)
}
