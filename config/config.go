// Package config loads the tracker configuration from a TOML or YAML file.
package config

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/BurntSushi/toml"
	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"

	"github.com/nwah/fujisuite-tracker/nav"
	"github.com/nwah/fujisuite-tracker/tracking"
)

// History backends
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// Config holds the application configuration
type Config struct {
	Nav      nav.NavConfig  `toml:"nav" yaml:"nav"`
	Tracking TrackingConfig `toml:"tracking" yaml:"tracking"`
	Ambient  AmbientConfig  `toml:"ambient" yaml:"ambient"`
	Location LocationConfig `toml:"location" yaml:"location"`
	History  HistoryConfig  `toml:"history" yaml:"history"`
}

// TrackingConfig tunes fix filtering and map presentation.
type TrackingConfig struct {
	MinMovementMeters float64 `toml:"min_movement_meters" yaml:"min_movement_meters" validate:"gte=0"`
	TrackingZoom      float64 `toml:"tracking_zoom" yaml:"tracking_zoom" validate:"gte=0,lte=22"`
	TargetZoom        float64 `toml:"target_zoom" yaml:"target_zoom" validate:"gte=0,lte=22"`
	QueueSize         int     `toml:"queue_size" yaml:"queue_size" validate:"gte=0"`
	RouteWidth        float64 `toml:"route_width" yaml:"route_width" validate:"gte=0"`
}

// AmbientConfig sets the light level that switches the map to low-light mode.
type AmbientConfig struct {
	LuxThreshold  float64 `toml:"lux_threshold" yaml:"lux_threshold" validate:"gte=0"`
	HysteresisLux float64 `toml:"hysteresis_lux" yaml:"hysteresis_lux" validate:"gte=0"`
}

// LocationConfig is handed to the platform fix provider.
type LocationConfig struct {
	UpdateIntervalMS    int64  `toml:"update_interval_ms" yaml:"update_interval_ms" validate:"gte=0"`
	MinUpdateIntervalMS int64  `toml:"min_update_interval_ms" yaml:"min_update_interval_ms" validate:"gte=0"`
	AccuracyPriority    string `toml:"accuracy_priority" yaml:"accuracy_priority" validate:"omitempty,oneof=high balanced low passive"`
}

type HistoryConfig struct {
	Backend string `toml:"backend" yaml:"backend" validate:"omitempty,oneof=file sqlite"`
	Path    string `toml:"path" yaml:"path" validate:"required"`
}

// Load reads filename, fills defaults and validates the result. Files ending
// in .yaml or .yml are decoded as YAML, everything else as TOML.
func Load(filename string) (*Config, error) {
	var cfg Config
	switch strings.ToLower(filepath.Ext(filename)) {
	case ".yaml", ".yml":
		data, err := os.ReadFile(filename)
		if err != nil {
			return nil, fmt.Errorf("error reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	default:
		if _, err := toml.DecodeFile(filename, &cfg); err != nil {
			return nil, fmt.Errorf("error decoding config file: %w", err)
		}
	}

	cfg.ApplyDefaults()
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return &cfg, nil
}

// ApplyDefaults fills zero values with the stock settings.
func (c *Config) ApplyDefaults() {
	if c.Nav.Router == "" {
		c.Nav.Router = nav.DefaultRouter
	}
	if c.Nav.Mode == "" {
		c.Nav.Mode = nav.DefaultMode
	}
	if c.Nav.TimeoutMS == 0 {
		c.Nav.TimeoutMS = nav.DefaultTimeoutMS
	}

	opts := tracking.DefaultOptions()
	if c.Tracking.MinMovementMeters == 0 {
		c.Tracking.MinMovementMeters = opts.MinMovementMeters
	}
	if c.Tracking.TrackingZoom == 0 {
		c.Tracking.TrackingZoom = opts.TrackingZoom
	}
	if c.Tracking.TargetZoom == 0 {
		c.Tracking.TargetZoom = opts.TargetZoom
	}
	if c.Tracking.QueueSize == 0 {
		c.Tracking.QueueSize = opts.QueueSize
	}
	if c.Tracking.RouteWidth == 0 {
		c.Tracking.RouteWidth = opts.RouteWidth
	}
	if c.Ambient.LuxThreshold == 0 {
		c.Ambient.LuxThreshold = opts.LuxThreshold
	}

	req := tracking.DefaultLocationRequest()
	if c.Location.UpdateIntervalMS == 0 {
		c.Location.UpdateIntervalMS = req.UpdateIntervalMillis
	}
	if c.Location.MinUpdateIntervalMS == 0 {
		c.Location.MinUpdateIntervalMS = req.MinUpdateIntervalMillis
	}
	if c.Location.AccuracyPriority == "" {
		c.Location.AccuracyPriority = string(req.AccuracyPriority)
	}

	if c.History.Backend == "" {
		c.History.Backend = BackendFile
	}
}

// Validate checks struct tags and the rules that span fields.
func (c *Config) Validate() error {
	v := validator.New()
	if err := v.Struct(c); err != nil {
		return fmt.Errorf("invalid config: %w", err)
	}

	switch c.Nav.Router {
	case nav.RouterValhalla:
		if c.Nav.ValhallaURL == "" {
			return fmt.Errorf("nav.valhalla_url is required when nav.router is %q", c.Nav.Router)
		}
	case nav.RouterOSRM:
		if c.Nav.OSRMURL == "" {
			return fmt.Errorf("nav.osrm_url is required when nav.router is %q", c.Nav.Router)
		}
	}

	if err := c.LocationRequest().Validate(); err != nil {
		return fmt.Errorf("invalid config: location: %w", err)
	}
	return nil
}

// SessionOptions converts the tracking and ambient sections.
func (c *Config) SessionOptions() tracking.Options {
	return tracking.Options{
		MinMovementMeters: c.Tracking.MinMovementMeters,
		TrackingZoom:      c.Tracking.TrackingZoom,
		TargetZoom:        c.Tracking.TargetZoom,
		RouteWidth:        c.Tracking.RouteWidth,
		LuxThreshold:      c.Ambient.LuxThreshold,
		HysteresisLux:     c.Ambient.HysteresisLux,
		QueueSize:         c.Tracking.QueueSize,
	}
}

// LocationRequest converts the location section.
func (c *Config) LocationRequest() tracking.LocationRequest {
	return tracking.LocationRequest{
		UpdateIntervalMillis:    c.Location.UpdateIntervalMS,
		MinUpdateIntervalMillis: c.Location.MinUpdateIntervalMS,
		AccuracyPriority:        tracking.AccuracyPriority(c.Location.AccuracyPriority),
	}
}
