package config

import (
	"errors"
	"fmt"
	"os"
	"strings"

	"bootbench/internal/benchmark"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

// EnvPrefix prefixes every environment override, e.g. BOOTBENCH_DEVICE_SERIAL.
const EnvPrefix = "BOOTBENCH"

// Load initializes the configuration from file and environment variables.
// A missing default config file is not an error; a missing explicit one is.
func Load(cfgFile string) error {
	// .env is optional
	_ = godotenv.Load()

	if cfgFile != "" {
		// Use config file from the flag.
		viper.SetConfigFile(cfgFile)
	} else {
		viper.AddConfigPath(".")
		if home, err := os.UserHomeDir(); err == nil {
			viper.AddConfigPath(home + "/.config/bootbench")
		}
		viper.SetConfigType("yaml")
		viper.SetConfigName("bootbench")
	}

	viper.SetEnvPrefix(EnvPrefix)
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv() // read in environment variables that match

	// Standard adb variable when BOOTBENCH_DEVICE_SERIAL is not set
	if os.Getenv(EnvPrefix+"_DEVICE_SERIAL") == "" && os.Getenv("ANDROID_SERIAL") != "" {
		viper.SetDefault("device.serial", os.Getenv("ANDROID_SERIAL"))
	}

	SetDefaults()

	if err := viper.ReadInConfig(); err != nil {
		var notFound viper.ConfigFileNotFoundError
		if cfgFile == "" && errors.As(err, &notFound) {
			return nil
		}
		return fmt.Errorf("failed to read config file: %w", err)
	}
	fmt.Fprintln(os.Stderr, "Using config file:", viper.ConfigFileUsed())
	return nil
}

// SetDefaults registers the default of every key.
func SetDefaults() {
	d := benchmark.DefaultOptions()

	viper.SetDefault("device.adb_path", "adb")
	viper.SetDefault("bench.rounds", d.Rounds)
	viper.SetDefault("bench.reinstall_timeout", d.ReinstallTimeout)
	viper.SetDefault("bench.reinstall_interval", d.ReinstallInterval)
	viper.SetDefault("bench.compile_timeout", d.CompileTimeout)
	viper.SetDefault("bench.compile_interval", d.CompileInterval)
	viper.SetDefault("bench.boot_timeout", d.BootTimeout)
	viper.SetDefault("bench.metric_prefix", d.MetricPrefix)

	// store.dsn defaults per type, see db.NewStore
	viper.SetDefault("store.type", "sqlite")

	viper.SetDefault("metrics.job", "bootbench")

	viper.SetDefault("sim.boot_delay", "30s")
	viper.SetDefault("verbose", false)

	// Notification Defaults
	slackEnabled := os.Getenv("SLACK_BOT_USER_TOKEN") != "" || os.Getenv("SLACK_WEBHOOK_URL") != ""
	viper.SetDefault("notifications.slack.enabled", slackEnabled)
	viper.SetDefault("notifications.slack.channel", "#general")
}
