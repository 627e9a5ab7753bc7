package config

import (
	"fmt"
	"net/url"
	"strings"

	"github.com/spf13/viper"
)

var durationKeys = []string{
	"bench.reinstall_timeout",
	"bench.reinstall_interval",
	"bench.compile_timeout",
	"bench.compile_interval",
	"bench.boot_timeout",
}

// ValidateConfig validates configuration values and returns an error if any are invalid.
// This function should be called after viper has loaded the configuration.
func ValidateConfig() error {
	var errors []string

	// Timeouts and intervals must be positive
	for _, key := range durationKeys {
		if !viper.IsSet(key) {
			continue
		}
		if d := GetDuration(key); d <= 0 {
			errors = append(errors, fmt.Sprintf("%s must be positive, got: %v", key, d))
		}
	}

	// A sample standard deviation needs two rounds
	if viper.IsSet("bench.rounds") {
		if rounds := viper.GetInt("bench.rounds"); rounds < 2 {
			errors = append(errors, fmt.Sprintf("bench.rounds must be at least 2, got: %d", rounds))
		}
	}

	if viper.IsSet("sim.boot_delay") {
		if d := GetDuration("sim.boot_delay"); d < 0 {
			errors = append(errors, fmt.Sprintf("sim.boot_delay must not be negative, got: %v", d))
		}
	}

	if viper.IsSet("store.type") {
		switch t := strings.ToLower(viper.GetString("store.type")); t {
		case "", "file", "json", "sqlite", "sqlite3":
		case "postgres", "postgresql":
			if viper.GetString("store.dsn") == "" {
				errors = append(errors, "store.dsn is required for the postgres store")
			}
		default:
			errors = append(errors, fmt.Sprintf("store.type must be file, sqlite or postgres, got: %s", t))
		}
	}

	if u := viper.GetString("metrics.pushgateway_url"); u != "" {
		if parsed, err := url.Parse(u); err != nil || parsed.Scheme == "" || parsed.Host == "" {
			errors = append(errors, fmt.Sprintf("metrics.pushgateway_url must be an absolute URL, got: %s", u))
		}
	}

	// If there are any errors, return them
	if len(errors) > 0 {
		return fmt.Errorf("configuration validation failed:\n  %s", strings.Join(errors, "\n  "))
	}

	return nil
}
