// Package stats summarizes boot-time sample sets.
package stats

import (
	"errors"
	"fmt"

	"github.com/aclements/go-moremath/stats"
)

var (
	// ErrTooFewSamples is returned when a sample set cannot yield a sample standard deviation.
	ErrTooFewSamples = errors.New("at least two samples are required")
	// ErrNegativeSample is returned for elapsed-time samples below zero.
	ErrNegativeSample = errors.New("negative sample")
)

// Summary holds the derived metrics of one sample set.
// StdDev uses the unbiased (N-1) divisor.
type Summary struct {
	N       int     `json:"n" yaml:"n"`
	Average float64 `json:"average" yaml:"average"`
	Min     float64 `json:"min" yaml:"min"`
	Max     float64 `json:"max" yaml:"max"`
	StdDev  float64 `json:"stdev" yaml:"stdev"`
}

// Summarize computes average, extrema and sample standard deviation of xs.
func Summarize(xs []float64) (Summary, error) {
	if len(xs) < 2 {
		return Summary{N: len(xs)}, fmt.Errorf("%w: got %d", ErrTooFewSamples, len(xs))
	}
	for i, x := range xs {
		if x < 0 {
			return Summary{N: len(xs)}, fmt.Errorf("%w at index %d: %v", ErrNegativeSample, i, x)
		}
	}

	lo, hi := stats.Bounds(xs)
	return Summary{
		N:       len(xs),
		Average: stats.Mean(xs),
		Min:     lo,
		Max:     hi,
		StdDev:  stats.StdDev(xs),
	}, nil
}
