package config

import (
	"fmt"
	"net/url"
	"time"

	"github.com/caarlos0/env"
	"github.com/joho/godotenv"
	"github.com/sanity-io/litter"

	"github.com/denwilliams/go-wled-race/internal/color"
	"github.com/denwilliams/go-wled-race/internal/lighting"
	"github.com/denwilliams/go-wled-race/internal/logging"
)

type Config struct {
	MQTTURI         string `env:"MQTT_URI"`
	MQTTTopicPrefix string `env:"MQTT_TOPIC_PREFIX" envDefault:"wled"`
	Port            int    `env:"PORT" envDefault:"0"`
	LogLevel        string `env:"LOG_LEVEL" envDefault:"info"`

	DeviceIP      string        `env:"WLED_DEVICE_IP"`
	DeviceTimeout time.Duration `env:"WLED_TIMEOUT" envDefault:"5s"`

	StartHold time.Duration `env:"START_HOLD" envDefault:"3s"`
	StopHold  time.Duration `env:"STOP_HOLD" envDefault:"3s"`
	LapHold   time.Duration `env:"LAP_HOLD" envDefault:"1s"`

	StageColor       string `env:"STAGE_COLOR" envDefault:"blue"`
	StartColor       string `env:"START_COLOR" envDefault:"green"`
	StopColor        string `env:"STOP_COLOR" envDefault:"red"`
	LapFallbackColor string `env:"LAP_FALLBACK_COLOR" envDefault:"yellow"`
}

// LoadDotEnv loads path into the environment if it exists.
func LoadDotEnv(path string) {
	logging.Debug("Loading %s file", path)
	if err := godotenv.Load(path); err != nil {
		logging.Debug("Unable to load %s: %s", path, err)
	}
}

// Load parses the environment into a Config.
func Load() (*Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("error parsing environment: %w", err)
	}
	if _, err := cfg.Palette(); err != nil {
		return nil, err
	}
	logging.Debug("Configuration: %s", litter.Sdump(cfg))
	return &cfg, nil
}

// MQTTURL returns nil when no broker is configured.
func (c *Config) MQTTURL() (*url.URL, error) {
	if c.MQTTURI == "" {
		return nil, nil
	}
	u, err := url.Parse(c.MQTTURI)
	if err != nil {
		return nil, fmt.Errorf("error parsing MQTT_URI: %w", err)
	}
	return u, nil
}

func (c *Config) Palette() (lighting.Palette, error) {
	p := lighting.DefaultPalette()
	fields := []struct {
		name  string
		value string
		dest  *color.Packed
	}{
		{"STAGE_COLOR", c.StageColor, &p.Stage},
		{"START_COLOR", c.StartColor, &p.Start},
		{"STOP_COLOR", c.StopColor, &p.Stop},
		{"LAP_FALLBACK_COLOR", c.LapFallbackColor, &p.LapFallback},
	}
	for _, f := range fields {
		if f.value == "" {
			continue
		}
		v, err := color.Parse(f.value)
		if err != nil {
			return p, fmt.Errorf("error parsing %s: %w", f.name, err)
		}
		*f.dest = v
	}
	return p, nil
}

func (c *Config) Timings() lighting.Timings {
	return lighting.Timings{
		StartHold: c.StartHold,
		StopHold:  c.StopHold,
		LapHold:   c.LapHold,
	}
}
