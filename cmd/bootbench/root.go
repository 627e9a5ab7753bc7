package main

import (
	"errors"
	"fmt"
	"os"

	"bootbench/internal/config"
	"bootbench/internal/telemetry"

	"github.com/spf13/cobra"
	"github.com/spf13/viper"
)

// Process exit codes besides 0.
const (
	exitFailure = 1
	exitSkipped = 2
)

var exit = os.Exit
var cfgFile string
var closeLog = func() error { return nil }

// exitError carries a non-default exit code out of a command.
type exitError struct {
	code int
	err  error
}

func (e *exitError) Error() string { return e.err.Error() }
func (e *exitError) Unwrap() error { return e.err }

func exitCode(err error) int {
	var ee *exitError
	if errors.As(err, &ee) {
		return ee.code
	}
	return exitFailure
}

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "bootbench",
	Short: "Measure Android boot time with and without CompOS",
	Long: `bootbench reboots an Android device repeatedly and measures how long each
boot takes after the ART module was compiled with CompOS, and after a plain
reinstall of the module. Results are reported as metrics, stored for history
and compared against previous runs.`,
	SilenceErrors: true,
	SilenceUsage:  true,
}

// Execute adds all child commands to the root command and sets flags appropriately.
// This is called by main.main(). It only needs to happen once to the rootCmd.
func Execute() {
	// Wrap Execute in panic recovery for graceful shutdown
	defer func() {
		if r := recover(); r != nil {
			fmt.Fprintf(os.Stderr, "\n=== CRITICAL ERROR: Command Execution Panic ===\n")
			fmt.Fprintf(os.Stderr, "Error: %v\n", r)
			exit(exitFailure)
		}
	}()

	err := rootCmd.Execute()
	_ = closeLog()
	if err != nil {
		code := exitCode(err)
		if code != exitSkipped {
			fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		}
		exit(code)
	}
}

func init() {
	cobra.OnInitialize(initConfig)

	rootCmd.PersistentFlags().StringVar(&cfgFile, "config", "", "config file (default is ./bootbench.yaml or ~/.config/bootbench/bootbench.yaml)")
	rootCmd.PersistentFlags().BoolP("verbose", "v", false, "Enable verbose/debug logging")
	rootCmd.PersistentFlags().StringP("serial", "s", "", "Serial of the device under test (overrides ANDROID_SERIAL)")
	rootCmd.PersistentFlags().String("adb", "", "Path to the adb binary")
	rootCmd.PersistentFlags().Bool("simulate", false, "Run against a simulated device instead of adb")
	rootCmd.PersistentFlags().Bool("no-color", false, "Disable colored output")

	viper.BindPFlag("verbose", rootCmd.PersistentFlags().Lookup("verbose"))
	viper.BindPFlag("device.serial", rootCmd.PersistentFlags().Lookup("serial"))
	viper.BindPFlag("device.adb_path", rootCmd.PersistentFlags().Lookup("adb"))
	viper.BindPFlag("simulate", rootCmd.PersistentFlags().Lookup("simulate"))
}

// initConfig reads in config file and ENV variables if set.
func initConfig() {
	if err := config.Load(cfgFile); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(exitFailure)
		return
	}

	if err := config.ValidateConfig(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		exit(exitFailure)
		return
	}

	closeLog = telemetry.InitLogger(viper.GetBool("verbose"), viper.GetString("log_file"))
	telemetry.LogDebug("Configuration loaded",
		"serial", viper.GetString("device.serial"),
		"simulate", viper.GetBool("simulate"),
		"store", viper.GetString("store.type"),
	)

	if addr := viper.GetString("metrics.listen_addr"); addr != "" {
		go func() {
			if err := telemetry.StartMetricsServer(addr); err != nil {
				telemetry.LogError("Metrics server stopped", err, "addr", addr)
			}
		}()
	}
}
