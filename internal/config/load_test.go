package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad(t *testing.T) {
	defer viper.Reset()

	t.Run("Defaults", func(t *testing.T) {
		viper.Reset()
		t.Chdir(t.TempDir())
		t.Setenv("HOME", t.TempDir())

		require.NoError(t, Load(""))

		cfg := FromViper()
		assert.Equal(t, 5, cfg.Bench.Rounds)
		assert.Equal(t, 15*time.Second, cfg.Bench.ReinstallTimeout)
		assert.Equal(t, 5*time.Second, cfg.Bench.ReinstallInterval)
		assert.Equal(t, 540*time.Second, cfg.Bench.CompileTimeout)
		assert.Equal(t, 10*time.Second, cfg.Bench.CompileInterval)
		assert.Equal(t, 10*time.Minute, cfg.Bench.BootTimeout)
		assert.Equal(t, "avf_perf/compos/", cfg.Bench.MetricPrefix)
		assert.Equal(t, "adb", cfg.ADBPath)
		assert.Equal(t, "sqlite", cfg.Store.Type)
		assert.Equal(t, "bootbench", cfg.PushJob)
		assert.Equal(t, 30*time.Second, cfg.SimBootDelay)
		assert.NoError(t, ValidateConfig())
	})

	t.Run("Load From Env", func(t *testing.T) {
		viper.Reset()
		t.Chdir(t.TempDir())
		t.Setenv("BOOTBENCH_DEVICE_SERIAL", "R58M123")
		t.Setenv("BOOTBENCH_BENCH_ROUNDS", "3")
		t.Setenv("BOOTBENCH_BENCH_BOOT_TIMEOUT", "120")

		require.NoError(t, Load(""))
		cfg := FromViper()
		assert.Equal(t, "R58M123", cfg.Serial)
		assert.Equal(t, 3, cfg.Bench.Rounds)
		assert.Equal(t, 2*time.Minute, cfg.Bench.BootTimeout)
	})

	t.Run("ANDROID_SERIAL Fallback", func(t *testing.T) {
		viper.Reset()
		t.Chdir(t.TempDir())
		t.Setenv("BOOTBENCH_DEVICE_SERIAL", "")
		t.Setenv("ANDROID_SERIAL", "emulator-5556")

		require.NoError(t, Load(""))
		assert.Equal(t, "emulator-5556", FromViper().Serial)
	})

	t.Run("Config File", func(t *testing.T) {
		viper.Reset()
		dir := t.TempDir()
		path := filepath.Join(dir, "bootbench.yaml")
		require.NoError(t, os.WriteFile(path, []byte(`
device:
  serial: cf-1
bench:
  rounds: 7
  compile_timeout: 5m
store:
  type: file
  dsn: runs.json
`), 0644))

		require.NoError(t, Load(path))
		cfg := FromViper()
		assert.Equal(t, "cf-1", cfg.Serial)
		assert.Equal(t, 7, cfg.Bench.Rounds)
		assert.Equal(t, 5*time.Minute, cfg.Bench.CompileTimeout)
		assert.Equal(t, "file", cfg.Store.Type)
		assert.Equal(t, "runs.json", cfg.Store.ConnectionString)
	})

	t.Run("Missing Explicit File", func(t *testing.T) {
		viper.Reset()
		err := Load(filepath.Join(t.TempDir(), "nope.yaml"))
		assert.ErrorContains(t, err, "failed to read config file")
	})
}

func TestGetDuration(t *testing.T) {
	viper.Reset()
	defer viper.Reset()

	viper.Set("a", 90)
	viper.Set("b", "90")
	viper.Set("c", "1m30s")
	viper.Set("d", 90*time.Second)

	for _, key := range []string{"a", "b", "c", "d"} {
		assert.Equal(t, 90*time.Second, GetDuration(key), key)
	}
	assert.Zero(t, GetDuration("unset"))
}
