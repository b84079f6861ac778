// Package weather fetches hourly forecasts from the National Weather
// Service API (api.weather.gov). The API is free and unauthenticated but
// requires a contact-identifying User-Agent and resolves coordinates to a
// forecast gridpoint in a separate first request.
package weather

import (
	"context"
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/mhoffm/paperdash/pkg/cache"
	"github.com/mhoffm/paperdash/pkg/config"
	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/httputil"
	"github.com/mhoffm/paperdash/pkg/section"
)

// userAgent identifies this client to weather.gov, which rejects anonymous
// requests.
const userAgent = "(paperdash e-ink dashboard, github.com/mhoffm/paperdash)"

// maxPeriods caps the hourly forecast at five days.
const maxPeriods = 120

// Provider fetches the forecast for one configured location.
type Provider struct {
	client  *httputil.Client
	cache   cache.Cache
	ttl     time.Duration
	loc     config.Location
	baseURL string // overridable for tests
}

// New creates a weather provider for loc.
func New(loc config.Location, c cache.Cache, ttl time.Duration) *Provider {
	return &Provider{
		client:  httputil.NewClient(userAgent),
		cache:   c,
		ttl:     ttl,
		loc:     loc,
		baseURL: "https://api.weather.gov",
	}
}

// NewWithBaseURL creates a provider pointed at an alternate API host.
func NewWithBaseURL(loc config.Location, c cache.Cache, ttl time.Duration, baseURL string) *Provider {
	p := New(loc, c, ttl)
	p.baseURL = baseURL
	return p
}

// Name implements providers.Provider.
func (p *Provider) Name() string {
	return fmt.Sprintf("weather(%s)", p.loc.Label)
}

// pointsResponse is the subset of /points/{lat},{lon} we consume.
type pointsResponse struct {
	Properties struct {
		ForecastHourly   string `json:"forecastHourly"`
		RelativeLocation struct {
			Properties struct {
				City  string `json:"city"`
				State string `json:"state"`
			} `json:"properties"`
		} `json:"relativeLocation"`
	} `json:"properties"`
}

// forecastResponse is the subset of the hourly forecast we consume.
type forecastResponse struct {
	Properties struct {
		Periods []struct {
			StartTime                  string `json:"startTime"`
			Temperature                int    `json:"temperature"`
			ShortForecast              string `json:"shortForecast"`
			ProbabilityOfPrecipitation struct {
				Value *int `json:"value"`
			} `json:"probabilityOfPrecipitation"`
		} `json:"periods"`
	} `json:"properties"`
}

// Fetch resolves the location's hourly forecast, consulting the cache first.
func (p *Provider) Fetch(ctx context.Context) (section.Data, error) {
	key := fmt.Sprintf("weather:%s:%s", p.loc.Lat, p.loc.Lon)

	if data, hit, err := p.cache.Get(ctx, key); err == nil && hit {
		var w section.Weather
		if err := json.Unmarshal(data, &w); err == nil {
			return &w, nil
		}
	}

	w, err := p.fetchFresh(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(w); err == nil {
		_ = p.cache.Set(ctx, key, data, p.ttl)
	}
	return w, nil
}

func (p *Provider) fetchFresh(ctx context.Context) (*section.Weather, error) {
	// Step 1: resolve coordinates to the gridpoint's forecast URL.
	var points pointsResponse
	pointsURL := fmt.Sprintf("%s/points/%s,%s", p.baseURL, p.loc.Lat, p.loc.Lon)
	err := httputil.RetryWithBackoff(ctx, func() error {
		return p.client.GetJSON(ctx, pointsURL, nil, &points)
	})
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "resolve gridpoint for %s", p.loc.Label)
	}
	if points.Properties.ForecastHourly == "" {
		return nil, errors.New(errors.ErrCodeNoData, "no forecast available for %s,%s", p.loc.Lat, p.loc.Lon)
	}

	// Step 2: fetch the hourly forecast.
	var forecast forecastResponse
	err = httputil.RetryWithBackoff(ctx, func() error {
		return p.client.GetJSON(ctx, points.Properties.ForecastHourly, nil, &forecast)
	})
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "fetch hourly forecast for %s", p.loc.Label)
	}

	rel := points.Properties.RelativeLocation.Properties
	w := &section.Weather{
		Label: p.loc.Label,
		City:  fmt.Sprintf("%s, %s", rel.City, rel.State),
	}

	periods := forecast.Properties.Periods
	if len(periods) > maxPeriods {
		periods = periods[:maxPeriods]
	}
	for _, period := range periods {
		start, err := time.Parse(time.RFC3339, period.StartTime)
		if err != nil {
			continue // skip malformed periods rather than failing the section
		}
		prob := 0
		if v := period.ProbabilityOfPrecipitation.Value; v != nil {
			prob = *v
		}
		w.Hourly = append(w.Hourly, section.HourForecast{
			Time:       start,
			Temp:       period.Temperature,
			PrecipProb: prob,
			Snow:       snowyForecast(period.ShortForecast),
			Night:      isNightHour(start),
			Desc:       period.ShortForecast,
		})
	}

	if len(w.Hourly) > 0 {
		w.Current = &w.Hourly[0]
	}
	return w, nil
}

// snowKeywords mark forecasts treated as snow for rendering.
var snowKeywords = []string{"snow", "flurries", "sleet", "wintry", "freezing"}

func snowyForecast(shortForecast string) bool {
	lower := strings.ToLower(shortForecast)
	for _, kw := range snowKeywords {
		if strings.Contains(lower, kw) {
			return true
		}
	}
	return false
}

// isNightHour approximates nighttime (8pm-6am) from the period's local
// clock hour. The upstream timestamps carry the gridpoint's UTC offset.
func isNightHour(t time.Time) bool {
	h := t.Hour()
	return h < 6 || h >= 20
}
