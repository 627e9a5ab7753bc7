// Package metrics receives the named results of a benchmark run.
package metrics

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strconv"
	"sync"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"github.com/prometheus/client_golang/prometheus/push"
)

// Sink records one named metric. Values are decimal strings.
type Sink interface {
	RecordMetric(name, unit, value string) error
}

// Metric is one recorded triple.
type Metric struct {
	Name  string `json:"name" yaml:"name"`
	Unit  string `json:"unit" yaml:"unit"`
	Value string `json:"value" yaml:"value"`
}

// PrometheusSink exposes recorded metrics as a gauge in its own registry.
type PrometheusSink struct {
	registry *prometheus.Registry
	gauge    *prometheus.GaugeVec
}

// NewPrometheusSink creates a sink with a fresh registry.
func NewPrometheusSink() *PrometheusSink {
	s := &PrometheusSink{
		registry: prometheus.NewRegistry(),
		gauge: prometheus.NewGaugeVec(
			prometheus.GaugeOpts{
				Name: "bootbench_boot_metric",
				Help: "Boot benchmark result by metric name and unit",
			},
			[]string{"metric", "unit"},
		),
	}
	s.registry.MustRegister(s.gauge)
	return s
}

func (s *PrometheusSink) RecordMetric(name, unit, value string) error {
	v, err := strconv.ParseFloat(value, 64)
	if err != nil {
		return fmt.Errorf("metric %s: value %q is not a number: %w", name, value, err)
	}
	s.gauge.WithLabelValues(name, unit).Set(v)
	return nil
}

// Registry returns the registry holding the gauge.
func (s *PrometheusSink) Registry() *prometheus.Registry {
	return s.registry
}

// Handler serves the recorded metrics in the Prometheus exposition format.
func (s *PrometheusSink) Handler() http.Handler {
	return promhttp.HandlerFor(s.registry, promhttp.HandlerOpts{})
}

// Push sends the recorded metrics to a Pushgateway, replacing the job's group.
func (s *PrometheusSink) Push(ctx context.Context, url, job string) error {
	if err := push.New(url, job).Gatherer(s.registry).PushContext(ctx); err != nil {
		return fmt.Errorf("push to %s: %w", url, err)
	}
	return nil
}

// TextSink writes one "name (unit): value" line per metric.
type TextSink struct {
	mu sync.Mutex
	w  io.Writer
}

func NewTextSink(w io.Writer) *TextSink {
	return &TextSink{w: w}
}

func (s *TextSink) RecordMetric(name, unit, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, err := fmt.Fprintf(s.w, "%s (%s): %s\n", name, unit, value)
	return err
}

// MemorySink keeps metrics in the order received.
type MemorySink struct {
	mu      sync.Mutex
	metrics []Metric
}

func (s *MemorySink) RecordMetric(name, unit, value string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.metrics = append(s.metrics, Metric{Name: name, Unit: unit, Value: value})
	return nil
}

// Metrics returns a copy of everything recorded.
func (s *MemorySink) Metrics() []Metric {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Metric, len(s.metrics))
	copy(out, s.metrics)
	return out
}

// Get returns the value recorded under name.
func (s *MemorySink) Get(name string) (string, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, m := range s.metrics {
		if m.Name == name {
			return m.Value, true
		}
	}
	return "", false
}

type multiSink []Sink

// Multi fans each metric out to every sink. All sinks are tried; their errors are joined.
func Multi(sinks ...Sink) Sink {
	return multiSink(sinks)
}

func (m multiSink) RecordMetric(name, unit, value string) error {
	var errs []error
	for _, s := range m {
		if s == nil {
			continue
		}
		if err := s.RecordMetric(name, unit, value); err != nil {
			errs = append(errs, err)
		}
	}
	return errors.Join(errs...)
}
