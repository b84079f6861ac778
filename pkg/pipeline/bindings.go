package pipeline

import (
	"context"
	"image/color"

	"github.com/mhoffm/paperdash/pkg/cache"
	"github.com/mhoffm/paperdash/pkg/config"
	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/providers"
	"github.com/mhoffm/paperdash/pkg/providers/gcal"
	"github.com/mhoffm/paperdash/pkg/providers/strava"
	"github.com/mhoffm/paperdash/pkg/providers/text"
	"github.com/mhoffm/paperdash/pkg/providers/weather"
	"github.com/mhoffm/paperdash/pkg/section"
)

// OptionsFromConfig builds run options from the loaded configuration,
// binding each declared grid section to its provider by name:
//
//	weather            → one weather.gov provider per location (per column)
//	strava, activity   → the Strava running summary
//	calendar           → Google Calendar
//	text               → the configured literal text
//
// Unrecognized section names are bound to a static placeholder so a typo in
// the grid renders visibly instead of leaving a silent blank band.
func OptionsFromConfig(cfg config.Config, c cache.Cache) (Options, error) {
	regions, err := cfg.RegionMap()
	if err != nil {
		return Options{}, err
	}

	opts := Options{
		Width:      cfg.Display.Width,
		Height:     cfg.Display.Height,
		Background: backgroundColor(cfg.Display.Background),
		Regions:    regions,
	}

	for _, s := range regions.Sections {
		provs, err := providersFor(s.Name, cfg, c)
		if err != nil {
			return Options{}, err
		}
		opts.Bindings = append(opts.Bindings, Binding{Section: s.Name, Providers: provs})
	}
	return opts, nil
}

func providersFor(name string, cfg config.Config, c cache.Cache) ([]providers.Provider, error) {
	switch name {
	case "weather":
		ttl := cfg.Cache.WeatherTTLOrDefault(cache.TTLWeather)
		var provs []providers.Provider
		for _, loc := range cfg.Weather.Locations {
			provs = append(provs, weather.New(loc, c, ttl))
		}
		if len(provs) == 0 {
			return nil, errors.New(errors.ErrCodeConfigInvalid, "weather section declared without locations")
		}
		return provs, nil

	case "strava", "activity":
		ttl := cfg.Cache.ActivityTTLOrDefault(cache.TTLActivity)
		return []providers.Provider{strava.New(cfg.Strava, c, ttl)}, nil

	case "calendar":
		ttl := cfg.Cache.CalendarTTLOrDefault(cache.TTLCalendar)
		return []providers.Provider{gcal.New(cfg.Calendar, c, ttl)}, nil

	case "text":
		return []providers.Provider{text.New(cfg.Text.Custom)}, nil

	default:
		return []providers.Provider{placeholderProvider(name)}, nil
	}
}

func placeholderProvider(name string) providers.Provider {
	return providers.Func{
		ProviderName: "placeholder(" + name + ")",
		FetchFunc: func(context.Context) (section.Data, error) {
			return &section.Placeholder{Message: "No provider for " + name}, nil
		},
	}
}

// backgroundColor maps the configured background name to a gray level.
// Unknown values fall back to white, the only sensible e-ink default.
func backgroundColor(name string) color.Color {
	switch name {
	case "", "white":
		return color.White
	case "black":
		return color.Black
	case "light":
		return color.Gray{Y: 0xcc}
	default:
		return color.White
	}
}
