package main

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"os"
	"os/signal"
	"syscall"

	"bootbench/internal/benchmark"
	"bootbench/internal/config"
	"bootbench/internal/metrics"
	"bootbench/internal/notify"
	"bootbench/internal/telemetry"
	"bootbench/internal/ui"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

var errAborted = errors.New("aborted by user")

var runCmd = &cobra.Command{
	Use:   "run",
	Short: "Run the boot time benchmark",
	Long: `Reboots the device 2*rounds+1 times. Each round boots once after compiling
the staged ART module with CompOS and once after a plain reinstall, then
reports the average, minimum, maximum and standard deviation of both.

Exits 0 on success, 1 on failure and 2 when the device cannot run virtual
machines.`,
	RunE: runBenchmark,
}

func init() {
	rootCmd.AddCommand(runCmd)

	runCmd.Flags().BoolP("yes", "y", false, "Do not ask before rebooting the device")
	runCmd.Flags().IntP("rounds", "r", 0, "Number of rounds (at least 2)")
	runCmd.Flags().Bool("save", false, "Store the run in the history store")
	runCmd.Flags().Bool("compare", false, "Compare against the latest stored run")
	runCmd.Flags().Float64("threshold", 10, "Regression threshold in percent of the average")
	runCmd.Flags().Bool("fail-on-regression", false, "Exit 1 when a regression is detected")
	runCmd.Flags().Bool("push", false, "Push the metrics to the Prometheus Pushgateway")
	runCmd.Flags().StringP("output", "o", "", "Export the run to a .json or .yaml file")

	viper.BindPFlag("bench.rounds", runCmd.Flags().Lookup("rounds"))
}

// signalContext cancels on SIGINT or SIGTERM.
func signalContext(parent context.Context) (context.Context, context.CancelFunc) {
	return signal.NotifyContext(parent, os.Interrupt, syscall.SIGTERM)
}

func runBenchmark(cmd *cobra.Command, args []string) error {
	ctx, stop := signalContext(cmd.Context())
	defer stop()

	cfg := config.FromViper()
	logger := slog.Default()
	printer := ui.NewPrinter(cmd.OutOrStdout(), noColor(cmd))
	notifier := newNotifierFunc(logger)

	threshold, _ := cmd.Flags().GetFloat64("threshold")
	yes, _ := cmd.Flags().GetBool("yes")
	save, _ := cmd.Flags().GetBool("save")
	compare, _ := cmd.Flags().GetBool("compare")
	failOnRegression, _ := cmd.Flags().GetBool("fail-on-regression")
	push, _ := cmd.Flags().GetBool("push")
	output, _ := cmd.Flags().GetString("output")

	if push && cfg.PushgatewayURL == "" {
		return errors.New("--push requires metrics.pushgateway_url")
	}

	prom := metrics.NewPrometheusSink()
	sink := metrics.Multi(metrics.NewTextSink(cmd.OutOrStdout()), prom)

	clock := newClockFunc()
	dev := newDeviceFunc(cfg, clock, logger)
	runner := benchmark.NewBootRunner(dev, sink, cfg.Bench,
		benchmark.WithClock(clock),
		benchmark.WithLogger(logger),
	)

	if err := runner.Setup(ctx); err != nil {
		if errors.Is(err, benchmark.ErrNotCapable) {
			printer.Info("Skipping: %s does not support virtual machines", dev.Serial())
			telemetry.TrackRun("skipped")
			notifier.Notify(ctx, notify.EventSkipped, fmt.Sprintf("Boot benchmark on %s skipped: no virtual machine support", dev.Serial()))
			return &exitError{code: exitSkipped, err: err}
		}
		return err
	}

	if !yes {
		opts := runner.Options()
		ok, err := confirm(fmt.Sprintf("This reboots %s %d times. Continue?", dev.Serial(), 2*opts.Rounds+1))
		if err != nil {
			return err
		}
		if !ok {
			return errAborted
		}
	}

	run, err := runner.Run(ctx)
	// Cleanup and reporting run even after an interrupt
	afterCtx := context.WithoutCancel(ctx)
	runner.Teardown(afterCtx)
	if err != nil {
		telemetry.TrackRun("failure")
		printer.Error("Benchmark failed: %v", err)
		notifier.Notify(afterCtx, notify.EventFailure, notify.FormatFailure(dev.Serial(), err))
		return err
	}
	telemetry.TrackRun("success")
	printer.Summary(run)

	var comparisons []benchmark.Comparison
	regressed := false
	if save || compare {
		store, err := newStoreFunc(cfg.Store)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.Close()

		if compare {
			prev, err := store.Latest(ctx, 1)
			if err != nil {
				return fmt.Errorf("failed to load previous run: %w", err)
			}
			if len(prev) > 0 {
				comparisons = benchmark.Compare(&prev[0], run)
			}
			regressed = printer.Comparison(comparisons, threshold)
		}

		if save {
			if err := store.Save(ctx, run); err != nil {
				return fmt.Errorf("failed to save run: %w", err)
			}
			printer.Success("Saved run %s", run.ID)
		}
	}

	if output != "" {
		if err := ui.WriteFile(output, ui.NewDocument(run, runner.Options().MetricPrefix)); err != nil {
			return fmt.Errorf("failed to export run: %w", err)
		}
		printer.Info("Exported run to %s", output)
	}

	if push {
		if err := prom.Push(ctx, cfg.PushgatewayURL, cfg.PushJob); err != nil {
			return err
		}
		printer.Info("Pushed metrics to %s", cfg.PushgatewayURL)
	}

	message := notify.FormatRun(run, comparisons, threshold)
	notifier.Notify(afterCtx, notify.EventSuccess, message)
	if regressed {
		notifier.Notify(afterCtx, notify.EventRegression, message)
		if failOnRegression {
			return &exitError{code: exitFailure, err: errors.New("boot time regressed")}
		}
	}
	return nil
}

func noColor(cmd *cobra.Command) bool {
	v, _ := cmd.Flags().GetBool("no-color")
	return v
}
