// Package config loads bootbench settings from a YAML file, .env and
// BOOTBENCH_* environment variables.
package config

import (
	"strconv"
	"strings"
	"time"

	"bootbench/internal/benchmark"
	"bootbench/internal/db"

	"github.com/spf13/viper"
)

// Config is the typed view of the loaded settings.
type Config struct {
	Serial  string
	ADBPath string

	Bench benchmark.Options
	Store db.StoreConfig

	PushgatewayURL string
	PushJob        string
	ListenAddr     string

	SlackEnabled bool
	SlackChannel string

	SimBootDelay time.Duration

	Verbose bool
	LogFile string
}

// FromViper builds a Config from the current viper state.
func FromViper() Config {
	return Config{
		Serial:  viper.GetString("device.serial"),
		ADBPath: viper.GetString("device.adb_path"),
		Bench: benchmark.Options{
			Rounds:            viper.GetInt("bench.rounds"),
			ReinstallTimeout:  GetDuration("bench.reinstall_timeout"),
			ReinstallInterval: GetDuration("bench.reinstall_interval"),
			CompileTimeout:    GetDuration("bench.compile_timeout"),
			CompileInterval:   GetDuration("bench.compile_interval"),
			BootTimeout:       GetDuration("bench.boot_timeout"),
			MetricPrefix:      viper.GetString("bench.metric_prefix"),
		},
		Store: db.StoreConfig{
			Type:             viper.GetString("store.type"),
			ConnectionString: viper.GetString("store.dsn"),
		},
		PushgatewayURL: viper.GetString("metrics.pushgateway_url"),
		PushJob:        viper.GetString("metrics.job"),
		ListenAddr:     viper.GetString("metrics.listen_addr"),
		SlackEnabled:   viper.GetBool("notifications.slack.enabled"),
		SlackChannel:   viper.GetString("notifications.slack.channel"),
		SimBootDelay:   GetDuration("sim.boot_delay"),
		Verbose:        viper.GetBool("verbose"),
		LogFile:        viper.GetString("log_file"),
	}
}

// GetDuration reads key as a duration. Bare integers are seconds, so
// "bench.boot_timeout: 600" means ten minutes.
func GetDuration(key string) time.Duration {
	switch v := viper.Get(key).(type) {
	case time.Duration:
		return v
	case int, int32, int64, uint, uint32, uint64:
		return time.Duration(viper.GetInt64(key)) * time.Second
	case string:
		if n, err := strconv.ParseInt(strings.TrimSpace(v), 10, 64); err == nil {
			return time.Duration(n) * time.Second
		}
	}
	return viper.GetDuration(key)
}
