package weather

import (
	"context"
	"net/http"
	"net/http/httptest"
	"sync/atomic"
	"testing"
	"time"

	"github.com/mhoffm/paperdash/pkg/cache"
	"github.com/mhoffm/paperdash/pkg/config"
	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/section"
)

const forecastBody = `{
	"properties": {
		"periods": [
			{
				"startTime": "2026-01-05T09:00:00-05:00",
				"temperature": 28,
				"shortForecast": "Light Snow",
				"probabilityOfPrecipitation": {"value": 70}
			},
			{
				"startTime": "2026-01-05T10:00:00-05:00",
				"temperature": 30,
				"shortForecast": "Partly Sunny",
				"probabilityOfPrecipitation": {"value": null}
			},
			{
				"startTime": "2026-01-05T22:00:00-05:00",
				"temperature": 22,
				"shortForecast": "Clear",
				"probabilityOfPrecipitation": {"value": 5}
			}
		]
	}
}`

func testServer(t *testing.T, requests *atomic.Int64) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()
	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)

	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		if r.Header.Get("User-Agent") == "" {
			http.Error(w, "missing user agent", http.StatusForbidden)
			return
		}
		w.Write([]byte(pointsFor(srv.URL)))
	})
	mux.HandleFunc("/gridpoints/", func(w http.ResponseWriter, r *http.Request) {
		if requests != nil {
			requests.Add(1)
		}
		w.Write([]byte(forecastBody))
	})
	return srv
}

func pointsFor(base string) string {
	return `{
		"properties": {
			"forecastHourly": "` + base + `/gridpoints/OKX/33,35/forecast/hourly",
			"relativeLocation": {
				"properties": {"city": "New York", "state": "NY"}
			}
		}
	}`
}

func testLocation() config.Location {
	return config.Location{Label: "Home", Lat: "40.7128", Lon: "-74.0060"}
}

func TestFetchParsesForecast(t *testing.T) {
	srv := testServer(t, nil)
	p := NewWithBaseURL(testLocation(), cache.NewNullCache(), time.Minute, srv.URL)

	data, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	w, ok := data.(*section.Weather)
	if !ok {
		t.Fatalf("Fetch returned %T, want *section.Weather", data)
	}

	if w.Label != "Home" {
		t.Errorf("Label = %q, want Home", w.Label)
	}
	if w.City != "New York, NY" {
		t.Errorf("City = %q, want New York, NY", w.City)
	}
	if len(w.Hourly) != 3 {
		t.Fatalf("len(Hourly) = %d, want 3", len(w.Hourly))
	}
	if w.Current == nil || w.Current.Temp != 28 {
		t.Errorf("Current = %+v, want first period with temp 28", w.Current)
	}

	first := w.Hourly[0]
	if !first.Snow {
		t.Error("first period should be marked as snow")
	}
	if first.PrecipProb != 70 {
		t.Errorf("first PrecipProb = %d, want 70", first.PrecipProb)
	}
	if w.Hourly[1].PrecipProb != 0 {
		t.Errorf("null precipitation should decode to 0, got %d", w.Hourly[1].PrecipProb)
	}
	if !w.Hourly[2].Night {
		t.Error("10pm period should be marked as night")
	}
	if w.Hourly[1].Night {
		t.Error("10am period should not be marked as night")
	}
}

func TestFetchUsesCache(t *testing.T) {
	var requests atomic.Int64
	srv := testServer(t, &requests)

	c, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatalf("NewFileCache: %v", err)
	}
	p := NewWithBaseURL(testLocation(), c, time.Minute, srv.URL)

	if _, err := p.Fetch(context.Background()); err != nil {
		t.Fatalf("first Fetch: %v", err)
	}
	after := requests.Load()
	if after != 2 {
		t.Fatalf("first fetch made %d requests, want 2", after)
	}

	data, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("second Fetch: %v", err)
	}
	if requests.Load() != after {
		t.Errorf("second fetch hit the network (%d requests)", requests.Load())
	}
	if w := data.(*section.Weather); len(w.Hourly) != 3 {
		t.Errorf("cached forecast has %d periods, want 3", len(w.Hourly))
	}
}

func TestFetchMissingForecastURL(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/points/", func(w http.ResponseWriter, r *http.Request) {
		w.Write([]byte(`{"properties": {}}`))
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewWithBaseURL(testLocation(), cache.NewNullCache(), time.Minute, srv.URL)
	_, err := p.Fetch(context.Background())
	if !errors.Is(err, errors.ErrCodeNoData) {
		t.Fatalf("err = %v, want NO_DATA", err)
	}
}

func TestFetchServerError(t *testing.T) {
	mux := http.NewServeMux()
	mux.HandleFunc("/", func(w http.ResponseWriter, r *http.Request) {
		http.Error(w, "down", http.StatusInternalServerError)
	})
	srv := httptest.NewServer(mux)
	defer srv.Close()

	p := NewWithBaseURL(testLocation(), cache.NewNullCache(), time.Minute, srv.URL)
	_, err := p.Fetch(context.Background())
	if !errors.Is(err, errors.ErrCodeNetwork) {
		t.Fatalf("err = %v, want NETWORK_ERROR", err)
	}
	if errors.IsFatal(err) {
		t.Error("network failure should be recoverable")
	}
}

func TestSnowyForecast(t *testing.T) {
	cases := []struct {
		forecast string
		want     bool
	}{
		{"Light Snow", true},
		{"Snow Showers Likely", true},
		{"Wintry Mix", true},
		{"Freezing Rain", true},
		{"Partly Sunny", false},
		{"Rain Showers", false},
	}
	for _, tc := range cases {
		if got := snowyForecast(tc.forecast); got != tc.want {
			t.Errorf("snowyForecast(%q) = %v, want %v", tc.forecast, got, tc.want)
		}
	}
}

func TestIsNightHour(t *testing.T) {
	cases := []struct {
		hour int
		want bool
	}{
		{0, true},
		{5, true},
		{6, false},
		{12, false},
		{18, false},
		{19, false},
		{20, true},
		{23, true},
	}
	for _, tc := range cases {
		at := time.Date(2026, 1, 15, tc.hour, 0, 0, 0, time.UTC)
		if got := isNightHour(at); got != tc.want {
			t.Errorf("isNightHour(%02d:00) = %v, want %v", tc.hour, got, tc.want)
		}
	}
}
