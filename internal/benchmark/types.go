package benchmark

import (
	"errors"
	"time"

	"bootbench/internal/stats"
)

// Condition names one of the two boot trials of a round.
type Condition string

const (
	// CompOS boots after the module was compiled in the CompOS VM.
	CompOS Condition = "with_compos"
	// Baseline boots after a plain reinstall.
	Baseline Condition = "without_compos"
)

// Conditions lists both conditions in reporting order.
var Conditions = []Condition{CompOS, Baseline}

var (
	// ErrNotCapable means the device cannot run a virtual machine; the benchmark is skipped.
	ErrNotCapable = errors.New("device does not support virtual machines")
	// ErrModuleNotFound means no ART module is installed. It is never retried.
	ErrModuleNotFound = errors.New("ART module not found")
)

// Run is the record of one complete benchmark execution.
type Run struct {
	ID        string    `json:"id" yaml:"id"`
	Timestamp time.Time `json:"timestamp" yaml:"timestamp"`
	Device    string    `json:"device" yaml:"device"`
	// Build is the device build fingerprint, when it could be read.
	Build  string `json:"build,omitempty" yaml:"build,omitempty"`
	Rounds int    `json:"rounds" yaml:"rounds"`

	// Boot times in seconds, indexed by round.
	WithCompOS    []float64 `json:"with_compos" yaml:"with_compos"`
	WithoutCompOS []float64 `json:"without_compos" yaml:"without_compos"`

	Summaries map[Condition]stats.Summary `json:"summaries" yaml:"summaries"`
}

// Samples returns the boot times recorded for c.
func (r *Run) Samples(c Condition) []float64 {
	switch c {
	case CompOS:
		return r.WithCompOS
	case Baseline:
		return r.WithoutCompOS
	}
	return nil
}

// Options tunes a BootRunner. Zero fields take the defaults below.
type Options struct {
	Rounds int

	ReinstallTimeout  time.Duration
	ReinstallInterval time.Duration
	CompileTimeout    time.Duration
	CompileInterval   time.Duration
	BootTimeout       time.Duration

	MetricPrefix       string
	CompilerFilterProp string
	CompilerFilter     string
	ComposCmd          string
	ComposTestRoot     string
}

const (
	DefaultRounds             = 5
	DefaultReinstallTimeout   = 15 * time.Second
	DefaultReinstallInterval  = 5 * time.Second
	DefaultCompileTimeout     = 540 * time.Second
	DefaultCompileInterval    = 10 * time.Second
	DefaultBootTimeout        = 10 * time.Minute
	DefaultMetricPrefix       = "avf_perf/compos/"
	DefaultCompilerFilterProp = "dalvik.vm.systemservercompilerfilter"
	DefaultCompilerFilter     = "speed"
	DefaultComposCmd          = "/apex/com.android.compos/bin/composd_cmd"
	DefaultComposTestRoot     = "/data/misc/apexdata/com.android.compos/test/"
)

// DefaultOptions returns the options used for unset fields.
func DefaultOptions() Options {
	return Options{
		Rounds:             DefaultRounds,
		ReinstallTimeout:   DefaultReinstallTimeout,
		ReinstallInterval:  DefaultReinstallInterval,
		CompileTimeout:     DefaultCompileTimeout,
		CompileInterval:    DefaultCompileInterval,
		BootTimeout:        DefaultBootTimeout,
		MetricPrefix:       DefaultMetricPrefix,
		CompilerFilterProp: DefaultCompilerFilterProp,
		CompilerFilter:     DefaultCompilerFilter,
		ComposCmd:          DefaultComposCmd,
		ComposTestRoot:     DefaultComposTestRoot,
	}
}

func (o Options) withDefaults() Options {
	d := DefaultOptions()
	if o.Rounds == 0 {
		o.Rounds = d.Rounds
	}
	if o.ReinstallTimeout == 0 {
		o.ReinstallTimeout = d.ReinstallTimeout
	}
	if o.ReinstallInterval == 0 {
		o.ReinstallInterval = d.ReinstallInterval
	}
	if o.CompileTimeout == 0 {
		o.CompileTimeout = d.CompileTimeout
	}
	if o.CompileInterval == 0 {
		o.CompileInterval = d.CompileInterval
	}
	if o.BootTimeout == 0 {
		o.BootTimeout = d.BootTimeout
	}
	if o.MetricPrefix == "" {
		o.MetricPrefix = d.MetricPrefix
	}
	if o.CompilerFilterProp == "" {
		o.CompilerFilterProp = d.CompilerFilterProp
	}
	if o.CompilerFilter == "" {
		o.CompilerFilter = d.CompilerFilter
	}
	if o.ComposCmd == "" {
		o.ComposCmd = d.ComposCmd
	}
	if o.ComposTestRoot == "" {
		o.ComposTestRoot = d.ComposTestRoot
	}
	return o
}
