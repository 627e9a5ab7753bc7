package telemetry

import (
	"fmt"
	"net/http"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"github.com/prometheus/client_golang/prometheus/promhttp"
)

// Poll attempt outcomes.
const (
	OutcomeSuccess   = "success"
	OutcomeRetry     = "retry"
	OutcomePermanent = "permanent"
)

// Registry holds the operational metrics of a bootbench process.
var Registry = prometheus.NewRegistry()

var (
	pollAttempts = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootbench_poll_attempts_total",
			Help: "Polled device operation attempts by operation and outcome",
		},
		[]string{"op", "outcome"},
	)

	rebootDuration = prometheus.NewHistogramVec(
		prometheus.HistogramOpts{
			Name:    "bootbench_reboot_duration_seconds",
			Help:    "Wall-clock time from reboot issuance to boot complete",
			Buckets: prometheus.ExponentialBuckets(5, 1.5, 12),
		},
		[]string{"serial", "condition"},
	)

	trialsCompleted = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootbench_trials_completed_total",
			Help: "Boot trials completed by condition",
		},
		[]string{"condition"},
	)

	runsTotal = prometheus.NewCounterVec(
		prometheus.CounterOpts{
			Name: "bootbench_runs_total",
			Help: "Benchmark runs by result",
		},
		[]string{"result"},
	)
)

func init() {
	Registry.MustRegister(
		pollAttempts,
		rebootDuration,
		trialsCompleted,
		runsTotal,
		collectors.NewGoCollector(),
	)
}

// TrackPollAttempt counts one attempt of a polled operation.
func TrackPollAttempt(op, outcome string) {
	pollAttempts.WithLabelValues(op, outcome).Inc()
}

// ObserveReboot records the duration of one reboot-and-wait sequence.
func ObserveReboot(serial, condition string, d time.Duration) {
	rebootDuration.WithLabelValues(serial, condition).Observe(d.Seconds())
}

// TrackTrial counts a completed boot trial.
func TrackTrial(condition string) {
	trialsCompleted.WithLabelValues(condition).Inc()
}

// TrackRun counts a finished benchmark run; result is "success", "failure" or "skipped".
func TrackRun(result string) {
	runsTotal.WithLabelValues(result).Inc()
}

// StartMetricsServer starts a HTTP server exposing the operational metrics.
func StartMetricsServer(addr string) error {
	mux := http.NewServeMux()
	mux.Handle("/metrics", promhttp.HandlerFor(Registry, promhttp.HandlerOpts{}))

	LogInfo("Starting metrics server", "addr", addr)
	if err := http.ListenAndServe(addr, mux); err != nil {
		return fmt.Errorf("metrics server on %s: %w", addr, err)
	}
	return nil
}
