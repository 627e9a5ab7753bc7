package main

import (
	"errors"
	"fmt"

	"bootbench/internal/benchmark"
	"bootbench/internal/config"
	"bootbench/internal/ui"

	"github.com/spf13/cobra"
)

var compareCmd = &cobra.Command{
	Use:   "compare",
	Short: "Compare the two most recent stored runs",
	RunE: func(cmd *cobra.Command, args []string) error {
		threshold, _ := cmd.Flags().GetFloat64("threshold")
		failOnRegression, _ := cmd.Flags().GetBool("fail-on-regression")

		store, err := newStoreFunc(config.FromViper().Store)
		if err != nil {
			return fmt.Errorf("failed to open store: %w", err)
		}
		defer store.Close()

		runs, err := store.Latest(cmd.Context(), 2)
		if err != nil {
			return fmt.Errorf("failed to list runs: %w", err)
		}
		if len(runs) < 2 {
			return fmt.Errorf("need two stored runs to compare, have %d", len(runs))
		}

		// Latest is newest first
		regressed := ui.NewPrinter(cmd.OutOrStdout(), noColor(cmd)).
			Comparison(benchmark.Compare(&runs[1], &runs[0]), threshold)
		if regressed && failOnRegression {
			return &exitError{code: exitFailure, err: errors.New("boot time regressed")}
		}
		return nil
	},
}

func init() {
	rootCmd.AddCommand(compareCmd)
	compareCmd.Flags().Float64("threshold", 10, "Regression threshold in percent of the average")
	compareCmd.Flags().Bool("fail-on-regression", false, "Exit 1 when a regression is detected")
}
