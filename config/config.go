// Package config loads boot configuration: API keys from the environment
// (optionally seeded from a .env file) and everything else from a
// settings.toml. A missing key disables only the source that needs it; the
// display loop always starts and renders a fixed failure state for disabled
// sources.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/BurntSushi/toml"
)

// Defaults match the intervals the device shipped with.
const (
	DefaultTickSeconds            = 10
	DefaultTemperatureIntervalSec = 240
	DefaultTransitIntervalSec     = 60
	DefaultTimeSyncIntervalSec    = 3 * 60 * 60
)

// TransitConfig selects the tracked stop.
type TransitConfig struct {
	Route          string `toml:"route"`
	Stop           string `toml:"stop"`
	DirectionID    int    `toml:"direction_id"`
	MinLeadMinutes int    `toml:"min_lead_minutes"`
}

// CountdownConfig is the target of the countdown display state.
type CountdownConfig struct {
	Label string `toml:"label"`
	Date  string `toml:"date"` // YYYY-MM-DD
}

// IntervalConfig holds per-source refresh intervals in seconds.
type IntervalConfig struct {
	TemperatureQuerySecs int `toml:"temperature_query_secs"`
	RedlineQuerySecs     int `toml:"redline_query_secs"`
	TimeSyncSecs         int `toml:"time_sync_secs"`
}

// Config is the full runtime configuration.
type Config struct {
	TickSeconds int             `toml:"tick_seconds"`
	Intervals   IntervalConfig  `toml:"intervals"`
	Transit     TransitConfig   `toml:"transit"`
	Countdown   CountdownConfig `toml:"countdown"`

	// Secrets, from the environment only.
	WeatherAPIKey string `toml:"-"`
	TransitAPIKey string `toml:"-"`
}

// Load reads the settings file (missing file means defaults) and overlays
// secrets from the environment.
func Load(path string) (*Config, error) {
	cfg := &Config{
		TickSeconds: DefaultTickSeconds,
		Intervals: IntervalConfig{
			TemperatureQuerySecs: DefaultTemperatureIntervalSec,
			RedlineQuerySecs:     DefaultTransitIntervalSec,
			TimeSyncSecs:         DefaultTimeSyncIntervalSec,
		},
		Transit: TransitConfig{
			Route:       "Red",
			Stop:        "place-portr",
			DirectionID: 1,
		},
	}

	if _, err := os.Stat(path); err == nil {
		if _, err := toml.DecodeFile(path, cfg); err != nil {
			return nil, fmt.Errorf("failed to parse %s: %w", path, err)
		}
	}

	cfg.WeatherAPIKey = os.Getenv("OPENWEATHER_API_KEY")
	cfg.TransitAPIKey = os.Getenv("MBTA_API_KEY")

	if cfg.TickSeconds <= 0 {
		cfg.TickSeconds = DefaultTickSeconds
	}
	if cfg.Countdown.Date != "" {
		if _, err := time.Parse("2006-01-02", cfg.Countdown.Date); err != nil {
			return nil, fmt.Errorf("bad countdown date %q: %w", cfg.Countdown.Date, err)
		}
	}
	return cfg, nil
}

// WeatherEnabled reports whether the weather source can run at all.
func (c *Config) WeatherEnabled() bool { return c.WeatherAPIKey != "" }

// TransitEnabled reports whether the transit source can run at all.
func (c *Config) TransitEnabled() bool { return c.TransitAPIKey != "" }

// Tick returns the loop sleep duration.
func (c *Config) Tick() time.Duration {
	return time.Duration(c.TickSeconds) * time.Second
}

// CountdownTarget parses the configured countdown date; ok is false when no
// countdown is configured.
func (c *Config) CountdownTarget() (time.Time, bool) {
	if c.Countdown.Date == "" {
		return time.Time{}, false
	}
	t, err := time.Parse("2006-01-02", c.Countdown.Date)
	if err != nil {
		return time.Time{}, false
	}
	return time.Date(t.Year(), t.Month(), t.Day(), 0, 0, 0, 0, time.Local), true
}
