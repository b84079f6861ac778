package pipeline

import (
	"context"
	"testing"

	"github.com/mhoffm/paperdash/pkg/cache"
	"github.com/mhoffm/paperdash/pkg/config"
	"github.com/mhoffm/paperdash/pkg/section"
)

func TestOptionsFromConfigDefaults(t *testing.T) {
	cfg := config.Default()
	opts, err := OptionsFromConfig(cfg, cache.NewNullCache())
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}

	if opts.Width != 758 || opts.Height != 1024 {
		t.Errorf("resolution = %dx%d, want 758x1024", opts.Width, opts.Height)
	}
	if len(opts.Bindings) != 4 {
		t.Fatalf("len(Bindings) = %d, want 4", len(opts.Bindings))
	}

	byName := map[string]Binding{}
	for _, b := range opts.Bindings {
		byName[b.Section] = b
	}

	// The dual-column weather section gets one provider per location.
	if got := len(byName["weather"].Providers); got != 2 {
		t.Errorf("weather providers = %d, want 2", got)
	}
	for _, name := range []string{"strava", "calendar", "text"} {
		if got := len(byName[name].Providers); got != 1 {
			t.Errorf("%s providers = %d, want 1", name, got)
		}
	}

	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatalf("ValidateAndSetDefaults: %v", err)
	}
}

func TestOptionsFromConfigUnknownSection(t *testing.T) {
	cfg := config.Default()
	cfg.Grid.Sections = append(cfg.Grid.Sections[:1], config.GridSection{
		Name: "stocks", Rows: [2]int{11, 14},
	})

	opts, err := OptionsFromConfig(cfg, cache.NewNullCache())
	if err != nil {
		t.Fatalf("OptionsFromConfig: %v", err)
	}

	var stocks *Binding
	for i := range opts.Bindings {
		if opts.Bindings[i].Section == "stocks" {
			stocks = &opts.Bindings[i]
		}
	}
	if stocks == nil {
		t.Fatal("stocks section should be bound")
	}
	data, err := stocks.Providers[0].Fetch(context.Background())
	if err != nil {
		t.Fatalf("placeholder provider Fetch: %v", err)
	}
	if _, ok := data.(*section.Placeholder); !ok {
		t.Errorf("unknown section yields %T, want *section.Placeholder", data)
	}
}

func TestOptionsFromConfigWeatherWithoutLocations(t *testing.T) {
	cfg := config.Default()
	cfg.Weather.Locations = nil
	if _, err := OptionsFromConfig(cfg, cache.NewNullCache()); err == nil {
		t.Fatal("expected error for weather section without locations")
	}
}
