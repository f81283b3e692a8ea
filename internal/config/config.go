// Package config provides configuration management for Stock Up.
// Configurations are loaded from TOML files with XDG-compliant paths, then
// overridden from the environment.
package config

import (
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/stockup/stockup/internal/models"
)

// Config holds the complete application configuration.
type Config struct {
	Household HouseholdConfig `toml:"household"`
	Reminder  ReminderConfig  `toml:"reminder"`
	Places    PlacesConfig    `toml:"places"`
	Location  LocationConfig  `toml:"location"`
	HTTP      HTTPConfig      `toml:"http"`
	Logging   LoggingConfig   `toml:"logging"`
	Database  DatabaseConfig  `toml:"database"`
	Display   DisplayConfig   `toml:"display"`
}

// HouseholdConfig identifies the household and its home position.
type HouseholdConfig struct {
	Name          string  `toml:"name"`
	HomeLatitude  float64 `toml:"home_latitude"`
	HomeLongitude float64 `toml:"home_longitude"`
}

// Home returns the configured home coordinate.
func (h *HouseholdConfig) Home() models.Coordinate {
	return models.Coordinate{Latitude: h.HomeLatitude, Longitude: h.HomeLongitude}
}

// ReminderConfig tunes the proximity engine.
type ReminderConfig struct {
	RadiusMeters     float64 `toml:"radius_meters"`
	NearestCount     int     `toml:"nearest_count"`
	QueueSize        int     `toml:"queue_size"`
	SubscriberBuffer int     `toml:"subscriber_buffer"`
}

// PlacesConfig controls the nearby-store lookup provider.
type PlacesConfig struct {
	Endpoint           string  `toml:"endpoint"`
	GeocodeEndpoint    string  `toml:"geocode_endpoint"`
	APIKey             string  `toml:"api_key"`
	SearchRadiusMeters float64 `toml:"search_radius_meters"`
	Category           string  `toml:"category"`
	TimeoutSeconds     int     `toml:"timeout_seconds"`
}

// Timeout returns the request timeout.
func (p *PlacesConfig) Timeout() time.Duration {
	return time.Duration(p.TimeoutSeconds) * time.Second
}

// LocationSource selects where device positions come from.
type LocationSource string

const (
	LocationSourceStatic LocationSource = "static"
	LocationSourceTrace  LocationSource = "trace"
	LocationSourceHTTP   LocationSource = "http"
)

// LocationConfig controls the position provider.
type LocationConfig struct {
	Enabled         bool           `toml:"enabled"`
	Source          LocationSource `toml:"source"`
	TraceFile       string         `toml:"trace_file"`
	TraceIntervalMs int            `toml:"trace_interval_ms"`
}

// TraceInterval returns the delay between replayed trace points.
func (l *LocationConfig) TraceInterval() time.Duration {
	return time.Duration(l.TraceIntervalMs) * time.Millisecond
}

// HTTPConfig controls the local HTTP API.
type HTTPConfig struct {
	Enabled        bool     `toml:"enabled"`
	Addr           string   `toml:"addr"`
	AllowedOrigins []string `toml:"allowed_origins"`
}

// LoggingConfig controls application logging.
type LoggingConfig struct {
	Level       LogLevel `toml:"level"`
	Encoding    string   `toml:"encoding"`
	File        string   `toml:"file"`
	Development bool     `toml:"development"`
}

// LogLevel defines logging verbosity.
type LogLevel string

const (
	LogLevelDebug LogLevel = "debug"
	LogLevelInfo  LogLevel = "info"
	LogLevelWarn  LogLevel = "warn"
	LogLevelError LogLevel = "error"
)

// DatabaseConfig controls SQLite database settings.
type DatabaseConfig struct {
	Path            string `toml:"path"`
	Watch           bool   `toml:"watch"`
	WatchDebounceMs int    `toml:"watch_debounce_ms"`
}

// WatchDebounce returns how long to wait for writes to settle before
// re-reading the database.
func (d *DatabaseConfig) WatchDebounce() time.Duration {
	return time.Duration(d.WatchDebounceMs) * time.Millisecond
}

// DisplayConfig controls console presentation.
type DisplayConfig struct {
	ColorScheme ColorScheme `toml:"color_scheme"`
	TimeFormat  string      `toml:"time_format"`
}

// ColorScheme defines the console color scheme.
type ColorScheme string

const (
	ColorSchemeGreen ColorScheme = "green"
	ColorSchemeAmber ColorScheme = "amber"
	ColorSchemeWhite ColorScheme = "white"
)

// Validate checks that the configuration is valid.
func (c *Config) Validate() error {
	var errs []error

	if err := c.Household.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("household: %w", err))
	}

	if err := c.Reminder.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("reminder: %w", err))
	}

	if err := c.Places.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("places: %w", err))
	}

	if err := c.Location.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("location: %w", err))
	}

	if err := c.HTTP.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("http: %w", err))
	}

	if err := c.Logging.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("logging: %w", err))
	}

	if err := c.Database.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("database: %w", err))
	}

	if err := c.Display.Validate(); err != nil {
		errs = append(errs, fmt.Errorf("display: %w", err))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the household configuration is valid.
func (h *HouseholdConfig) Validate() error {
	if err := h.Home().Validate(); err != nil {
		return fmt.Errorf("home position: %w", err)
	}
	return nil
}

// Validate checks that the reminder configuration is valid.
func (r *ReminderConfig) Validate() error {
	var errs []error

	if r.RadiusMeters <= 0 {
		errs = append(errs, errors.New("radius_meters must be positive"))
	}

	if r.NearestCount < 1 {
		errs = append(errs, errors.New("nearest_count must be at least 1"))
	}

	if r.QueueSize < 1 {
		errs = append(errs, errors.New("queue_size must be at least 1"))
	}

	if r.SubscriberBuffer < 0 {
		errs = append(errs, errors.New("subscriber_buffer must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the places configuration is valid.
func (p *PlacesConfig) Validate() error {
	var errs []error

	if !strings.HasPrefix(p.Endpoint, "http://") && !strings.HasPrefix(p.Endpoint, "https://") {
		errs = append(errs, fmt.Errorf("invalid endpoint: %q", p.Endpoint))
	}

	if p.GeocodeEndpoint != "" && !strings.HasPrefix(p.GeocodeEndpoint, "http://") && !strings.HasPrefix(p.GeocodeEndpoint, "https://") {
		errs = append(errs, fmt.Errorf("invalid geocode_endpoint: %q", p.GeocodeEndpoint))
	}

	if p.SearchRadiusMeters <= 0 || p.SearchRadiusMeters > 50000 {
		errs = append(errs, errors.New("search_radius_meters must be between 0 and 50000"))
	}

	if p.Category == "" {
		errs = append(errs, errors.New("category is required"))
	}

	if p.TimeoutSeconds < 1 {
		errs = append(errs, errors.New("timeout_seconds must be at least 1"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the location configuration is valid.
func (l *LocationConfig) Validate() error {
	var errs []error

	switch l.Source {
	case LocationSourceStatic, LocationSourceHTTP:
	case LocationSourceTrace:
		if l.TraceFile == "" {
			errs = append(errs, errors.New("trace_file is required for the trace source"))
		}
	default:
		errs = append(errs, fmt.Errorf("invalid source: %s", l.Source))
	}

	if l.TraceIntervalMs < 0 {
		errs = append(errs, errors.New("trace_interval_ms must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the HTTP configuration is valid.
func (h *HTTPConfig) Validate() error {
	if h.Enabled && h.Addr == "" {
		return errors.New("addr is required when enabled")
	}
	return nil
}

// Validate checks that the logging configuration is valid.
func (l *LoggingConfig) Validate() error {
	var errs []error

	validLevels := map[LogLevel]bool{
		LogLevelDebug: true,
		LogLevelInfo:  true,
		LogLevelWarn:  true,
		LogLevelError: true,
	}

	if !validLevels[l.Level] && l.Level != "" {
		errs = append(errs, fmt.Errorf("invalid log level: %s", l.Level))
	}

	if l.Encoding != "" && l.Encoding != "console" && l.Encoding != "json" {
		errs = append(errs, fmt.Errorf("invalid encoding: %s", l.Encoding))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the database configuration is valid.
func (d *DatabaseConfig) Validate() error {
	var errs []error

	if d.Path == "" {
		errs = append(errs, errors.New("path is required"))
	}

	if d.WatchDebounceMs < 0 {
		errs = append(errs, errors.New("watch_debounce_ms must be non-negative"))
	}

	if len(errs) > 0 {
		return errors.Join(errs...)
	}

	return nil
}

// Validate checks that the display configuration is valid.
func (d *DisplayConfig) Validate() error {
	switch d.ColorScheme {
	case ColorSchemeGreen, ColorSchemeAmber, ColorSchemeWhite, "":
		return nil
	default:
		return fmt.Errorf("invalid color_scheme: %s", d.ColorScheme)
	}
}

// Default returns a configuration with sensible default values.
func Default() *Config {
	return &Config{
		Household: HouseholdConfig{
			Name:          "Home",
			HomeLatitude:  40.7484,
			HomeLongitude: -73.9857,
		},
		Reminder: ReminderConfig{
			RadiusMeters:     models.DefaultGeofenceRadiusMeters,
			NearestCount:     5,
			QueueSize:        64,
			SubscriberBuffer: 16,
		},
		Places: PlacesConfig{
			Endpoint:           "https://maps.googleapis.com/maps/api/place/nearbysearch/json",
			GeocodeEndpoint:    "https://maps.googleapis.com/maps/api/geocode/json",
			APIKey:             "",
			SearchRadiusMeters: 5000,
			Category:           "grocery_or_supermarket",
			TimeoutSeconds:     10,
		},
		Location: LocationConfig{
			Enabled:         true,
			Source:          LocationSourceStatic,
			TraceFile:       "",
			TraceIntervalMs: 1000,
		},
		HTTP: HTTPConfig{
			Enabled:        true,
			Addr:           ":8085",
			AllowedOrigins: []string{"http://localhost:3000"},
		},
		Logging: LoggingConfig{
			Level:       LogLevelInfo,
			Encoding:    "console",
			File:        "logs/stockup.log",
			Development: false,
		},
		Database: DatabaseConfig{
			Path:            "stockup.db",
			Watch:           true,
			WatchDebounceMs: 250,
		},
		Display: DisplayConfig{
			ColorScheme: ColorSchemeGreen,
			TimeFormat:  "15:04",
		},
	}
}
