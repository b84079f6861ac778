// Package config loads and validates the paperdash configuration.
//
// Configuration is a TOML file (default ~/.config/paperdash/config.toml)
// holding the display geometry, the region map, provider settings, cache
// backend selection, and server settings. Secrets (Strava credentials) can
// also be supplied through environment variables, which take precedence
// over the file.
//
// The loaded Config is an immutable value passed into the pipeline at
// construction; nothing in this package is process-global, so tests can run
// multiple independent configurations side by side.
package config

import (
	"os"
	"path/filepath"
	"time"

	"github.com/BurntSushi/toml"

	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/layout"
)

// Display defaults match the Kindle Paperwhite 2 panel the dashboard
// was built for.
const (
	DefaultWidth  = 758
	DefaultHeight = 1024
)

// appName is used for default config and cache directories.
const appName = "paperdash"

// Duration wraps time.Duration with TOML text unmarshaling ("30m", "1h").
type Duration time.Duration

func (d *Duration) UnmarshalText(text []byte) error {
	v, err := time.ParseDuration(string(text))
	if err != nil {
		return err
	}
	*d = Duration(v)
	return nil
}

// Config is the full application configuration.
type Config struct {
	Display  Display     `toml:"display"`
	Grid     Grid        `toml:"grid"`
	Weather  Weather     `toml:"weather"`
	Strava   Strava      `toml:"strava"`
	Calendar Calendar    `toml:"calendar"`
	Text     Text        `toml:"text"`
	Cache    CacheConfig `toml:"cache"`
	Server   Server      `toml:"server"`
}

// Display holds canvas geometry.
type Display struct {
	Width      int    `toml:"width"`
	Height     int    `toml:"height"`
	Background string `toml:"background"` // "white" or a 0-255 gray level name
}

// GridSection is one declared region map entry. Rows is [start, end).
type GridSection struct {
	Name    string `toml:"name"`
	Rows    [2]int `toml:"rows"`
	Columns int    `toml:"columns"`
}

// Grid declares the region map.
type Grid struct {
	Rows     int           `toml:"rows"`
	Sections []GridSection `toml:"section"`
}

// Location is one weather location.
type Location struct {
	Label string `toml:"label"`
	Lat   string `toml:"lat"`
	Lon   string `toml:"lon"`
}

// Weather holds weather provider settings.
type Weather struct {
	Locations []Location `toml:"locations"`
}

// Strava holds Strava API credentials. Environment variables
// STRAVA_CLIENT_ID, STRAVA_CLIENT_SECRET and STRAVA_REFRESH_TOKEN
// override the file values.
type Strava struct {
	ClientID     string `toml:"client_id"`
	ClientSecret string `toml:"client_secret"`
	RefreshToken string `toml:"refresh_token"`
}

// Configured reports whether all Strava credentials are present.
func (s Strava) Configured() bool {
	return s.ClientID != "" && s.ClientSecret != "" && s.RefreshToken != ""
}

// Calendar holds Google Calendar settings.
type Calendar struct {
	TokenFile   string   `toml:"token_file"`
	CalendarIDs []string `toml:"calendar_ids"`
}

// Text holds the free-text section content.
type Text struct {
	Custom string `toml:"custom"`
}

// CacheConfig selects and configures the response cache backend.
type CacheConfig struct {
	Backend       string   `toml:"backend"` // file, sqlite, redis, none
	Dir           string   `toml:"dir"`     // file/sqlite location; default XDG cache dir
	RedisAddr     string   `toml:"redis_addr"`
	RedisPassword string   `toml:"redis_password"`
	RedisDB       int      `toml:"redis_db"`
	WeatherTTL    Duration `toml:"weather_ttl"`
	ActivityTTL   Duration `toml:"activity_ttl"`
	CalendarTTL   Duration `toml:"calendar_ttl"`
}

// WeatherTTLOrDefault returns the weather cache TTL.
func (c CacheConfig) WeatherTTLOrDefault(def time.Duration) time.Duration {
	if c.WeatherTTL > 0 {
		return time.Duration(c.WeatherTTL)
	}
	return def
}

// ActivityTTLOrDefault returns the activity cache TTL.
func (c CacheConfig) ActivityTTLOrDefault(def time.Duration) time.Duration {
	if c.ActivityTTL > 0 {
		return time.Duration(c.ActivityTTL)
	}
	return def
}

// CalendarTTLOrDefault returns the calendar cache TTL.
func (c CacheConfig) CalendarTTLOrDefault(def time.Duration) time.Duration {
	if c.CalendarTTL > 0 {
		return time.Duration(c.CalendarTTL)
	}
	return def
}

// Server holds web server settings for the serve command.
type Server struct {
	Host     string   `toml:"host"`
	Port     int      `toml:"port"`
	Interval Duration `toml:"interval"` // image regeneration interval
}

// DefaultPort is the listen port when no config or flag overrides it.
const DefaultPort = 8000

// Default returns the built-in configuration: the original five-section
// Kindle layout over a 20-row grid, with the two weather locations sharing
// one dual-column band.
func Default() Config {
	return Config{
		Display: Display{Width: DefaultWidth, Height: DefaultHeight, Background: "white"},
		Grid: Grid{
			Rows: layout.DefaultGridRows,
			Sections: []GridSection{
				{Name: "weather", Rows: [2]int{0, 10}, Columns: 2},
				// Row 10 left empty for spacing.
				{Name: "strava", Rows: [2]int{11, 14}},
				// Row 14 left empty for spacing.
				{Name: "calendar", Rows: [2]int{15, 19}},
				{Name: "text", Rows: [2]int{19, 20}},
			},
		},
		Weather: Weather{
			Locations: []Location{
				{Label: "Home", Lat: "40.7128", Lon: "-74.0060"},
				{Label: "Away", Lat: "37.7749", Lon: "-122.4194"},
			},
		},
		Calendar: Calendar{CalendarIDs: []string{"primary"}},
		Cache:    CacheConfig{Backend: "file"},
		Server: Server{
			Host:     "0.0.0.0",
			Port:     DefaultPort,
			Interval: Duration(15 * time.Minute),
		},
	}
}

// Load reads the TOML file at path over the defaults and applies environment
// overrides. An empty path loads defaults plus environment only. The result
// is validated; an invalid region map fails here, before any rendering.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		meta, err := toml.DecodeFile(path, &cfg)
		if err != nil {
			return Config{}, errors.Wrap(errors.ErrCodeConfigInvalid, err, "parse %s", path)
		}
		if undecoded := meta.Undecoded(); len(undecoded) > 0 {
			return Config{}, errors.New(errors.ErrCodeConfigInvalid,
				"unknown key %q in %s", undecoded[0].String(), path)
		}
	}

	cfg.applyEnv()

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// applyEnv overlays secret-bearing environment variables.
func (c *Config) applyEnv() {
	if v := os.Getenv("STRAVA_CLIENT_ID"); v != "" {
		c.Strava.ClientID = v
	}
	if v := os.Getenv("STRAVA_CLIENT_SECRET"); v != "" {
		c.Strava.ClientSecret = v
	}
	if v := os.Getenv("STRAVA_REFRESH_TOKEN"); v != "" {
		c.Strava.RefreshToken = v
	}
	if v := os.Getenv("GOOGLE_CALENDAR_TOKEN_FILE"); v != "" {
		c.Calendar.TokenFile = v
	}
	if v := os.Getenv("CUSTOM_TEXT"); v != "" {
		c.Text.Custom = v
	}
}

// Validate checks the configuration, delegating region checks to the
// layout package so they fail identically at load time and in tests.
func (c *Config) Validate() error {
	if c.Display.Width <= 0 || c.Display.Height <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"display resolution %dx%d invalid", c.Display.Width, c.Display.Height)
	}
	if _, err := c.RegionMap(); err != nil {
		return err
	}
	if len(c.Weather.Locations) == 0 || len(c.Weather.Locations) > 2 {
		return errors.New(errors.ErrCodeConfigInvalid,
			"weather needs 1 or 2 locations, got %d", len(c.Weather.Locations))
	}
	switch c.Cache.Backend {
	case "", "file", "sqlite", "redis", "none":
	default:
		return errors.New(errors.ErrCodeConfigInvalid,
			"unknown cache backend %q", c.Cache.Backend)
	}
	return nil
}

// RegionMap builds the validated layout.RegionMap from the grid declaration.
func (c *Config) RegionMap() (*layout.RegionMap, error) {
	sections := make([]layout.Section, 0, len(c.Grid.Sections))
	for _, s := range c.Grid.Sections {
		sections = append(sections, layout.Section{
			Name:    s.Name,
			Start:   s.Rows[0],
			End:     s.Rows[1],
			Columns: s.Columns,
		})
	}
	return layout.New(c.Grid.Rows, sections)
}

// DefaultPath returns the default config file location
// (~/.config/paperdash/config.toml), or "" if the home dir is unknown.
func DefaultPath() string {
	if base := os.Getenv("XDG_CONFIG_HOME"); base != "" {
		return filepath.Join(base, appName, "config.toml")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ""
	}
	return filepath.Join(home, ".config", appName, "config.toml")
}
