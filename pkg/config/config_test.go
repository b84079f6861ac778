package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/mhoffm/paperdash/pkg/errors"
)

func writeConfig(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "config.toml")
	if err := os.WriteFile(path, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDefaultIsValid(t *testing.T) {
	cfg := Default()
	if err := cfg.Validate(); err != nil {
		t.Fatalf("default config invalid: %v", err)
	}
	if cfg.Display.Width != 758 || cfg.Display.Height != 1024 {
		t.Errorf("default display = %dx%d, want 758x1024", cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Grid.Rows != 20 {
		t.Errorf("default grid rows = %d, want 20", cfg.Grid.Rows)
	}
}

func TestDefaultSectionOrder(t *testing.T) {
	cfg := Default()
	want := []string{"weather", "strava", "calendar", "text"}
	if len(cfg.Grid.Sections) != len(want) {
		t.Fatalf("got %d sections, want %d", len(cfg.Grid.Sections), len(want))
	}
	for i, name := range want {
		if cfg.Grid.Sections[i].Name != name {
			t.Errorf("section %d = %q, want %q", i, cfg.Grid.Sections[i].Name, name)
		}
	}
}

func TestLoadOverridesDefaults(t *testing.T) {
	path := writeConfig(t, `
[display]
width = 600
height = 800

[grid]
rows = 10

[[grid.section]]
name = "weather"
rows = [0, 5]

[[grid.section]]
name = "text"
rows = [6, 10]

[text]
custom = "Hello"

[cache]
backend = "sqlite"
weather_ttl = "45m"
`)
	cfg, err := Load(path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if cfg.Display.Width != 600 || cfg.Display.Height != 800 {
		t.Errorf("display = %dx%d", cfg.Display.Width, cfg.Display.Height)
	}
	if cfg.Text.Custom != "Hello" {
		t.Errorf("custom text = %q", cfg.Text.Custom)
	}
	if cfg.Cache.Backend != "sqlite" {
		t.Errorf("cache backend = %q", cfg.Cache.Backend)
	}
	if got := cfg.Cache.WeatherTTLOrDefault(time.Minute); got != 45*time.Minute {
		t.Errorf("weather ttl = %v, want 45m", got)
	}
	// Defaults survive for untouched sections.
	if len(cfg.Weather.Locations) != 2 {
		t.Errorf("expected default weather locations, got %d", len(cfg.Weather.Locations))
	}
}

func TestLoadRejectsOverlappingSections(t *testing.T) {
	path := writeConfig(t, `
[grid]
rows = 10

[[grid.section]]
name = "a"
rows = [0, 5]

[[grid.section]]
name = "b"
rows = [4, 10]
`)
	_, err := Load(path)
	if err == nil {
		t.Fatal("overlapping layout accepted")
	}
	if !errors.Is(err, errors.ErrCodeConfigInvalid) {
		t.Errorf("expected CONFIG_INVALID, got %v", err)
	}
}

func TestLoadRejectsUnknownKeys(t *testing.T) {
	path := writeConfig(t, `
[display]
widht = 600
`)
	if _, err := Load(path); err == nil {
		t.Fatal("typo key accepted")
	}
}

func TestLoadRejectsUnknownCacheBackend(t *testing.T) {
	path := writeConfig(t, `
[cache]
backend = "memcached"
`)
	if _, err := Load(path); err == nil {
		t.Fatal("unknown cache backend accepted")
	}
}

func TestEnvOverridesSecrets(t *testing.T) {
	t.Setenv("STRAVA_CLIENT_ID", "id-from-env")
	t.Setenv("STRAVA_CLIENT_SECRET", "secret-from-env")
	t.Setenv("STRAVA_REFRESH_TOKEN", "token-from-env")

	cfg, err := Load("")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if !cfg.Strava.Configured() {
		t.Error("Strava should be configured from env")
	}
	if cfg.Strava.ClientID != "id-from-env" {
		t.Errorf("client id = %q", cfg.Strava.ClientID)
	}
}

func TestRegionMapResolution(t *testing.T) {
	cfg := Default()
	m, err := cfg.RegionMap()
	if err != nil {
		t.Fatal(err)
	}

	rects, err := m.Resolve("weather", cfg.Display.Width, cfg.Display.Height)
	if err != nil {
		t.Fatal(err)
	}
	// Default weather section is dual-column.
	if len(rects) != 2 {
		t.Errorf("weather rects = %d, want 2", len(rects))
	}
}
