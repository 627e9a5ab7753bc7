package main

import (
	"fmt"
	"log/slog"

	"bootbench/internal/benchmark"
	"bootbench/internal/config"
	"bootbench/internal/metrics"
	"bootbench/internal/ui"

	"github.com/spf13/cobra"
)

var cleanupCmd = &cobra.Command{
	Use:   "cleanup",
	Short: "Reboot the device and remove CompOS test artifacts",
	Long: `Restores the device after an interrupted run: reboots it and removes the
CompOS test directory. Failures are logged and do not fail the command.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg := config.FromViper()
		logger := slog.Default()

		clock := newClockFunc()
		dev := newDeviceFunc(cfg, clock, logger)

		yes, _ := cmd.Flags().GetBool("yes")
		if !yes {
			ok, err := confirm(fmt.Sprintf("This reboots %s. Continue?", dev.Serial()))
			if err != nil {
				return err
			}
			if !ok {
				return errAborted
			}
		}

		runner := benchmark.NewBootRunner(dev, &metrics.MemorySink{}, cfg.Bench,
			benchmark.WithClock(clock),
			benchmark.WithLogger(logger),
		)
		runner.Teardown(cmd.Context())
		ui.NewPrinter(cmd.OutOrStdout(), noColor(cmd)).Success("Cleaned up %s", dev.Serial())
		return nil
	},
}

func init() {
	rootCmd.AddCommand(cleanupCmd)
	cleanupCmd.Flags().BoolP("yes", "y", false, "Do not ask before rebooting the device")
}
