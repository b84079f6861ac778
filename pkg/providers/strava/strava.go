// Package strava fetches recent running activity from the Strava API and
// condenses it into the weekly/yearly summary the activity section renders.
//
// Authentication uses the refresh-token flow: the stored refresh token is
// exchanged for a short-lived access token, which is held in memory and
// reused until shortly before it expires.
package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"strings"
	"sync"
	"time"

	"github.com/mhoffm/paperdash/pkg/cache"
	"github.com/mhoffm/paperdash/pkg/config"
	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/httputil"
	"github.com/mhoffm/paperdash/pkg/section"
)

const (
	apiBase   = "https://www.strava.com/api/v3"
	tokenURL  = "https://www.strava.com/oauth/token"
	userAgent = "paperdash/1.0"

	// metersPerMile converts the API's meter distances.
	metersToMiles = 0.000621371
	feetPerMeter  = 3.28084

	// tokenMargin renews the access token this long before expiry.
	tokenMargin = 5 * time.Minute
)

// Provider fetches and summarizes running activity.
type Provider struct {
	client *httputil.Client
	cache  cache.Cache
	ttl    time.Duration
	creds  config.Strava

	apiBase  string
	tokenURL string
	now      func() time.Time

	mu          sync.Mutex
	accessToken string
	tokenExpiry time.Time
}

// New creates a Strava provider with the given credentials.
func New(creds config.Strava, c cache.Cache, ttl time.Duration) *Provider {
	return &Provider{
		client:   httputil.NewClient(userAgent),
		cache:    c,
		ttl:      ttl,
		creds:    creds,
		apiBase:  apiBase,
		tokenURL: tokenURL,
		now:      time.Now,
	}
}

// NewForTest creates a provider pointed at a test server with a fixed clock.
func NewForTest(creds config.Strava, c cache.Cache, baseURL string, now func() time.Time) *Provider {
	p := New(creds, c, time.Minute)
	p.apiBase = baseURL + "/api/v3"
	p.tokenURL = baseURL + "/oauth/token"
	p.now = now
	return p
}

// Name implements providers.Provider.
func (p *Provider) Name() string { return "strava" }

type tokenResponse struct {
	AccessToken string `json:"access_token"`
	ExpiresAt   int64  `json:"expires_at"`
}

type activity struct {
	ID          int64   `json:"id"`
	Name        string  `json:"name"`
	Type        string  `json:"type"`
	Distance    float64 `json:"distance"`    // meters
	MovingTime  int     `json:"moving_time"` // seconds
	ElevGain    float64 `json:"total_elevation_gain"`
	StartedAt   string  `json:"start_date_local"`
	startedTime time.Time
}

type athleteStats struct {
	YTDRunTotals struct {
		Distance float64 `json:"distance"` // meters
	} `json:"ytd_run_totals"`
}

type athlete struct {
	ID int64 `json:"id"`
}

// Fetch returns the running summary, consulting the cache first.
func (p *Provider) Fetch(ctx context.Context) (section.Data, error) {
	if !p.creds.Configured() {
		return nil, errors.New(errors.ErrCodeAuth, "strava credentials not configured")
	}

	const key = "strava:summary"
	if data, hit, err := p.cache.Get(ctx, key); err == nil && hit {
		var a section.Activity
		if err := json.Unmarshal(data, &a); err == nil {
			return &a, nil
		}
	}

	summary, err := p.fetchFresh(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(summary); err == nil {
		_ = p.cache.Set(ctx, key, data, p.ttl)
	}
	return summary, nil
}

func (p *Provider) fetchFresh(ctx context.Context) (*section.Activity, error) {
	token, err := p.accessTokenFor(ctx)
	if err != nil {
		return nil, err
	}
	auth := map[string]string{"Authorization": "Bearer " + token}

	runs, err := p.recentRuns(ctx, auth)
	if err != nil {
		return nil, err
	}

	ytdMiles, err := p.yearToDateMiles(ctx, auth)
	if err != nil {
		return nil, err
	}

	return p.summarize(runs, ytdMiles), nil
}

// accessTokenFor returns a valid access token, refreshing it when the held
// one is within tokenMargin of expiring.
func (p *Provider) accessTokenFor(ctx context.Context) (string, error) {
	p.mu.Lock()
	defer p.mu.Unlock()

	if p.accessToken != "" && p.now().Before(p.tokenExpiry.Add(-tokenMargin)) {
		return p.accessToken, nil
	}

	form := url.Values{
		"client_id":     {p.creds.ClientID},
		"client_secret": {p.creds.ClientSecret},
		"refresh_token": {p.creds.RefreshToken},
		"grant_type":    {"refresh_token"},
	}
	var tok tokenResponse
	err := httputil.RetryWithBackoff(ctx, func() error {
		return p.client.PostForm(ctx, p.tokenURL, form, &tok)
	})
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeAuth, err, "refresh strava access token")
	}
	if tok.AccessToken == "" {
		return "", errors.New(errors.ErrCodeAuth, "strava token response missing access_token")
	}

	p.accessToken = tok.AccessToken
	p.tokenExpiry = time.Unix(tok.ExpiresAt, 0)
	return p.accessToken, nil
}

// recentRuns fetches activities from the last 14 days and keeps the runs.
func (p *Provider) recentRuns(ctx context.Context, auth map[string]string) ([]activity, error) {
	after := p.now().AddDate(0, 0, -14).Unix()
	listURL := fmt.Sprintf("%s/athlete/activities?after=%d&per_page=100", p.apiBase, after)

	var activities []activity
	err := httputil.RetryWithBackoff(ctx, func() error {
		return p.client.GetJSON(ctx, listURL, auth, &activities)
	})
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "list strava activities")
	}

	var runs []activity
	for _, a := range activities {
		if !strings.EqualFold(a.Type, "Run") {
			continue
		}
		started, err := time.Parse("2006-01-02T15:04:05Z", a.StartedAt)
		if err != nil {
			continue
		}
		a.startedTime = started
		runs = append(runs, a)
	}
	return runs, nil
}

// yearToDateMiles fetches the athlete's year-to-date running distance.
func (p *Provider) yearToDateMiles(ctx context.Context, auth map[string]string) (float64, error) {
	var me athlete
	err := httputil.RetryWithBackoff(ctx, func() error {
		return p.client.GetJSON(ctx, p.apiBase+"/athlete", auth, &me)
	})
	if err != nil {
		return 0, errors.Wrap(errors.GetCode(err), err, "fetch strava athlete")
	}

	var stats athleteStats
	statsURL := fmt.Sprintf("%s/athletes/%d/stats", p.apiBase, me.ID)
	err = httputil.RetryWithBackoff(ctx, func() error {
		return p.client.GetJSON(ctx, statsURL, auth, &stats)
	})
	if err != nil {
		return 0, errors.Wrap(errors.GetCode(err), err, "fetch strava athlete stats")
	}
	return stats.YTDRunTotals.Distance * metersToMiles, nil
}

// summarize reduces the raw runs to the rendered weekly view: total miles
// over the trailing 7 days, the best run of each day, and a straight-line
// projection of the year-to-date total.
func (p *Provider) summarize(runs []activity, ytdMiles float64) *section.Activity {
	now := p.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	weekStart := today.AddDate(0, 0, -6)

	// Best (longest) run per day over the trailing week.
	best := make(map[string]activity)
	var weeklyMiles float64
	for _, r := range runs {
		day := time.Date(r.startedTime.Year(), r.startedTime.Month(), r.startedTime.Day(), 0, 0, 0, 0, now.Location())
		if day.Before(weekStart) || day.After(today) {
			continue
		}
		weeklyMiles += r.Distance * metersToMiles
		k := day.Format("2006-01-02")
		if prev, ok := best[k]; !ok || r.Distance > prev.Distance {
			best[k] = r
		}
	}

	summary := &section.Activity{
		WeeklyMiles: weeklyMiles,
		YearlyMiles: ytdMiles,
		AvgPerDay:   weeklyMiles / 7,
	}

	dayOfYear := now.YearDay()
	if dayOfYear > 0 {
		daysInYear := 365.0
		if isLeapYear(now.Year()) {
			daysInYear = 366.0
		}
		summary.ProjectedMiles = ytdMiles / float64(dayOfYear) * daysInYear
	}

	for i := 0; i < 7; i++ {
		day := weekStart.AddDate(0, 0, i)
		dr := section.DayRun{Date: day, Label: day.Format("Mon")}
		if r, ok := best[day.Format("2006-01-02")]; ok {
			miles := r.Distance * metersToMiles
			dr.Run = &section.Run{
				Name:        r.Name,
				Miles:       miles,
				ElevationFt: r.ElevGain * feetPerMeter,
				Pace:        paceString(r.MovingTime, miles),
			}
		}
		summary.Last7Days = append(summary.Last7Days, dr)
	}
	return summary
}

// paceString formats seconds-per-mile as "mm:ss".
func paceString(movingSeconds int, miles float64) string {
	if miles <= 0 || movingSeconds <= 0 {
		return ""
	}
	perMile := float64(movingSeconds) / miles
	m := int(perMile) / 60
	s := int(perMile) % 60
	return fmt.Sprintf("%d:%02d", m, s)
}

func isLeapYear(y int) bool {
	return y%4 == 0 && (y%100 != 0 || y%400 == 0)
}
