package benchmark

import (
	"context"
	"fmt"
	"log/slog"
	"regexp"
	"strings"
	"time"

	"bootbench/internal/device"
	"bootbench/internal/metrics"
	"bootbench/internal/polling"
	"bootbench/internal/stats"
	"bootbench/internal/telemetry"

	"github.com/google/uuid"
)

// PropBuildFingerprint is read into Run.Build.
const PropBuildFingerprint = "ro.build.fingerprint"

var artModuleRegex = regexp.MustCompile(`(?m)^package:(.*)=(com(?:\.google)?\.android\.art)$`)

// BootRunner measures boot time with and without a staged CompOS compilation.
type BootRunner struct {
	dev    device.Device
	sink   metrics.Sink
	opts   Options
	clock  polling.Clock
	logger *slog.Logger
}

// RunnerOption configures a BootRunner.
type RunnerOption func(*BootRunner)

// WithClock sets the clock used for timing boots and pacing retries.
func WithClock(c polling.Clock) RunnerOption {
	return func(r *BootRunner) { r.clock = c }
}

// WithLogger sets the logger.
func WithLogger(l *slog.Logger) RunnerOption {
	return func(r *BootRunner) { r.logger = l }
}

// NewBootRunner returns a runner that drives dev and reports to sink.
func NewBootRunner(dev device.Device, sink metrics.Sink, opts Options, ropts ...RunnerOption) *BootRunner {
	r := &BootRunner{
		dev:    dev,
		sink:   sink,
		opts:   opts.withDefaults(),
		clock:  polling.RealClock{},
		logger: slog.Default(),
	}
	for _, o := range ropts {
		o(r)
	}
	r.logger = r.logger.With("serial", dev.Serial())
	return r
}

// Options returns the effective options.
func (r *BootRunner) Options() Options {
	return r.opts
}

// Setup checks that the device can run a virtual machine and ships the
// CompOS command.
func (r *BootRunner) Setup(ctx context.Context) error {
	ok, err := r.dev.Capable(ctx)
	if err != nil {
		return fmt.Errorf("probe virtualization support: %w", err)
	}
	if !ok {
		return ErrNotCapable
	}
	if _, ok := r.dev.TryShell(ctx, "test", "-x", r.opts.ComposCmd); !ok {
		return fmt.Errorf("%w: %s not found", ErrNotCapable, r.opts.ComposCmd)
	}
	return nil
}

// Run performs every round and reports the eight summary metrics.
// On any failure the remaining rounds are skipped and no run is returned.
func (r *BootRunner) Run(ctx context.Context) (*Run, error) {
	if r.opts.Rounds < 2 {
		return nil, fmt.Errorf("rounds must be at least 2, got %d", r.opts.Rounds)
	}

	run := &Run{
		ID:            uuid.NewString(),
		Timestamp:     r.clock.Now().UTC(),
		Device:        r.dev.Serial(),
		Rounds:        r.opts.Rounds,
		WithCompOS:    make([]float64, r.opts.Rounds),
		WithoutCompOS: make([]float64, r.opts.Rounds),
	}
	if build, ok := r.dev.TryShell(ctx, "getprop", PropBuildFingerprint); ok {
		run.Build = build
	}

	for round := 0; round < r.opts.Rounds; round++ {
		log := r.logger.With("round", round)

		elapsed, err := r.compOSTrial(ctx)
		if err != nil {
			return nil, fmt.Errorf("round %d %s: %w", round, CompOS, err)
		}
		run.WithCompOS[round] = elapsed.Seconds()
		log.Info("boot time with compilation OS", "elapsed_s", elapsed.Seconds())

		elapsed, err = r.baselineTrial(ctx)
		if err != nil {
			return nil, fmt.Errorf("round %d %s: %w", round, Baseline, err)
		}
		run.WithoutCompOS[round] = elapsed.Seconds()
		log.Info("boot time without compilation OS", "elapsed_s", elapsed.Seconds())
	}

	run.Summaries = make(map[Condition]stats.Summary, len(Conditions))
	for _, c := range Conditions {
		s, err := stats.Summarize(run.Samples(c))
		if err != nil {
			return nil, fmt.Errorf("summarize %s: %w", c, err)
		}
		run.Summaries[c] = s
	}

	for _, m := range Metrics(run, r.opts.MetricPrefix) {
		if err := r.sink.RecordMetric(m.Name, m.Unit, m.Value); err != nil {
			return nil, fmt.Errorf("record %s: %w", m.Name, err)
		}
	}
	return run, nil
}

func (r *BootRunner) compOSTrial(ctx context.Context) (time.Duration, error) {
	if err := r.reinstallModule(ctx); err != nil {
		return 0, err
	}
	if err := r.dev.SetProperty(ctx, r.opts.CompilerFilterProp, r.opts.CompilerFilter); err != nil {
		return 0, err
	}
	if err := r.compileStaged(ctx); err != nil {
		return 0, err
	}
	return r.timedBoot(ctx, CompOS)
}

func (r *BootRunner) baselineTrial(ctx context.Context) (time.Duration, error) {
	if err := r.reinstallModule(ctx); err != nil {
		return 0, err
	}
	return r.timedBoot(ctx, Baseline)
}

func (r *BootRunner) timedBoot(ctx context.Context, c Condition) (time.Duration, error) {
	start := r.clock.Now()
	if err := r.rebootAndWait(ctx); err != nil {
		return 0, err
	}
	elapsed := r.clock.Now().Sub(start)

	telemetry.ObserveReboot(r.dev.Serial(), string(c), elapsed)
	telemetry.TrackTrial(string(c))
	return elapsed, nil
}

// Teardown reboots to drop any staged session and removes the CompOS test
// instance. Failures are logged, never returned.
func (r *BootRunner) Teardown(ctx context.Context) {
	if err := r.rebootAndWait(ctx); err != nil {
		r.logger.Error("teardown reboot failed", "error", err)
	}
	if _, ok := r.dev.TryShell(ctx, "rm", "-rf", r.opts.ComposTestRoot); !ok {
		r.logger.Warn("could not remove CompOS test root", "path", r.opts.ComposTestRoot)
	}
}

func (r *BootRunner) rebootAndWait(ctx context.Context) error {
	if err := r.dev.Reboot(ctx); err != nil {
		return fmt.Errorf("reboot: %w", err)
	}
	if err := r.dev.WaitForDeviceOnline(ctx, r.opts.BootTimeout); err != nil {
		return err
	}
	if err := r.dev.WaitForBootComplete(ctx, r.opts.BootTimeout); err != nil {
		return err
	}
	if err := r.dev.EnableRoot(ctx); err != nil {
		return fmt.Errorf("enable root: %w", err)
	}
	return nil
}

func (r *BootRunner) pollOptions(timeout, interval time.Duration) polling.Options {
	return polling.Options{
		Timeout:  timeout,
		Interval: interval,
		Clock:    r.clock,
		Logger:   r.logger,
	}
}

// reinstallModule reinstalls the ART module from the path the package manager reports.
func (r *BootRunner) reinstallModule(ctx context.Context) error {
	return polling.Poll(ctx, "reinstall module", r.pollOptions(r.opts.ReinstallTimeout, r.opts.ReinstallInterval),
		func(ctx context.Context) error {
			path, err := r.findModule(ctx)
			if err != nil {
				return err
			}

			res := r.dev.ShellForResult(ctx, "pm", "install", "--apex", path)
			if res.Err != nil && ctx.Err() != nil {
				return polling.Permanent(ctx.Err())
			}
			if !res.Success() {
				return fmt.Errorf("install %s: %s", path, res)
			}
			r.logger.Info("reinstalled module", "path", path)
			return nil
		})
}

func (r *BootRunner) findModule(ctx context.Context) (string, error) {
	out, err := r.dev.Shell(ctx, "pm", "list", "packages", "-f", "--apex-only")
	if err != nil {
		if ctx.Err() != nil {
			return "", polling.Permanent(ctx.Err())
		}
		return "", fmt.Errorf("list packages: %w", err)
	}

	out = strings.ReplaceAll(out, "\r", "")
	matches := artModuleRegex.FindAllStringSubmatch(out, -1)
	switch len(matches) {
	case 0:
		return "", polling.Permanent(fmt.Errorf("%w; packages are:\n%s", ErrModuleNotFound, out))
	case 1:
		return matches[0][1], nil
	}
	names := make([]string, len(matches))
	for i, m := range matches {
		names[i] = m[2]
	}
	return "", fmt.Errorf("ambiguous ART module: %d candidates (%s)", len(matches), strings.Join(names, ", "))
}

// compileStaged runs the staged compilation in the CompOS VM.
func (r *BootRunner) compileStaged(ctx context.Context) error {
	return polling.Poll(ctx, "compile staged module", r.pollOptions(r.opts.CompileTimeout, r.opts.CompileInterval),
		func(ctx context.Context) error {
			out, err := r.dev.Shell(ctx, r.opts.ComposCmd, "staged-apex-compile")
			if err != nil {
				if ctx.Err() != nil {
					return polling.Permanent(ctx.Err())
				}
				return fmt.Errorf("staged compile: %w", err)
			}
			if !strings.Contains(strings.ToLower(out), "all ok") {
				return fmt.Errorf("staged compile did not succeed: %s", out)
			}
			r.logger.Info("compiled staged module", "output", out)
			return nil
		})
}
