package benchmark

import (
	"strconv"

	"bootbench/internal/metrics"
)

// Unit of every reported metric.
const Unit = "s"

// MetricName returns "<prefix>boot_time_<condition>_<stat>_s".
func MetricName(prefix string, c Condition, stat string) string {
	return prefix + "boot_time_" + string(c) + "_" + stat + "_" + Unit
}

// Metrics flattens the summaries of run into the reported metrics, four per
// condition in the order average, min, max, stdev.
func Metrics(run *Run, prefix string) []metrics.Metric {
	out := make([]metrics.Metric, 0, 4*len(Conditions))
	for _, c := range Conditions {
		s, ok := run.Summaries[c]
		if !ok {
			continue
		}
		for _, kv := range []struct {
			stat string
			v    float64
		}{
			{"average", s.Average},
			{"min", s.Min},
			{"max", s.Max},
			{"stdev", s.StdDev},
		} {
			out = append(out, metrics.Metric{
				Name:  MetricName(prefix, c, kv.stat),
				Unit:  Unit,
				Value: strconv.FormatFloat(kv.v, 'f', -1, 64),
			})
		}
	}
	return out
}
