package main

import (
	"log/slog"

	"bootbench/internal/config"
	"bootbench/internal/db"
	"bootbench/internal/device"
	"bootbench/internal/notify"
	"bootbench/internal/polling"

	"github.com/AlecAivazis/survey/v2"
	"github.com/spf13/viper"
)

const simSerial = "sim-0"

// Factories swapped out in tests.
var (
	askOneFunc   = survey.AskOne
	newClockFunc = func() polling.Clock { return polling.RealClock{} }

	newDeviceFunc = func(cfg config.Config, clock polling.Clock, logger *slog.Logger) device.Device {
		if viper.GetBool("simulate") {
			serial := cfg.Serial
			if serial == "" {
				serial = simSerial
			}
			return device.NewSim(serial, clock, cfg.SimBootDelay)
		}
		return device.NewADB(cfg.Serial,
			device.WithADBPath(cfg.ADBPath),
			device.WithClock(clock),
			device.WithLogger(logger),
		)
	}

	newStoreFunc = func(cfg db.StoreConfig) (db.Store, error) {
		return db.NewStore(cfg)
	}

	newNotifierFunc = func(logger *slog.Logger) notify.Notifier {
		return notify.NewManager(logger)
	}
)

// confirm asks a yes/no question, defaulting to no.
func confirm(message string) (bool, error) {
	ok := false
	if err := askOneFunc(&survey.Confirm{Message: message, Default: false}, &ok); err != nil {
		return false, err
	}
	return ok, nil
}
