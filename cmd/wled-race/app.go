package main

import (
	"github.com/denwilliams/go-wled-race/internal/config"
	"github.com/denwilliams/go-wled-race/internal/device"
	"github.com/denwilliams/go-wled-race/internal/lighting"
	"github.com/denwilliams/go-wled-race/internal/logging"
	"github.com/denwilliams/go-wled-race/internal/plugin"
	"github.com/denwilliams/go-wled-race/internal/race"
	"github.com/denwilliams/go-wled-race/internal/wled"
)

type app struct {
	cfg     *config.Config
	manager *plugin.Manager
}

// newApp loads configuration and builds the manager. The caller decides which
// transports to attach.
func newApp(notifier plugin.Notifier) (*app, error) {
	cfg, err := config.Load()
	if err != nil {
		return nil, err
	}
	logging.Init(cfg.LogLevel)

	palette, err := cfg.Palette()
	if err != nil {
		return nil, err
	}

	store := config.NewStore()
	if cfg.DeviceIP != "" {
		store.SetOption(device.OptionDeviceIP, device.Namespace, cfg.DeviceIP)
	}

	adapter := device.NewAdapter(store, device.WLEDConnector{
		Options: []wled.Option{wled.WithTimeout(cfg.DeviceTimeout)},
	})
	mapper := lighting.NewMapper(palette, cfg.Timings())
	manager := plugin.New(race.NewBus(), mapper, adapter, store, notifier)

	return &app{cfg: cfg, manager: manager}, nil
}
