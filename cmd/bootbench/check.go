package main

import (
	"errors"
	"log/slog"

	"bootbench/internal/benchmark"
	"bootbench/internal/config"
	"bootbench/internal/metrics"
	"bootbench/internal/ui"

	"github.com/spf13/cobra"
)

var checkCmd = &cobra.Command{
	Use:   "check",
	Short: "Check whether the device can run the benchmark",
	Long:  `Probes the device for virtual machine support. Exits 2 when it has none.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromViper()
		logger := slog.Default()
		printer := ui.NewPrinter(cmd.OutOrStdout(), noColor(cmd))

		clock := newClockFunc()
		dev := newDeviceFunc(cfg, clock, logger)
		runner := benchmark.NewBootRunner(dev, &metrics.MemorySink{}, cfg.Bench,
			benchmark.WithClock(clock),
			benchmark.WithLogger(logger),
		)

		if err := runner.Setup(cmd.Context()); err != nil {
			if errors.Is(err, benchmark.ErrNotCapable) {
				printer.Info("%s does not support virtual machines", dev.Serial())
				return &exitError{code: exitSkipped, err: err}
			}
			return err
		}
		printer.Success("%s supports virtual machines", dev.Serial())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(checkCmd)
}
