// Package gcal fetches upcoming events from the Google Calendar API.
//
// Credentials come from a token file in the format Google's OAuth tooling
// writes: client id/secret plus a refresh token and the last access token
// with its expiry. When the access token is stale the provider refreshes it
// and rewrites the file so the next process start reuses the fresh token.
//
// Without a token file the provider returns a small set of sample events,
// so a fresh install renders a populated dashboard instead of an error.
package gcal

import (
	"context"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"sort"
	"time"

	"github.com/google/renameio/v2"

	"github.com/mhoffm/paperdash/pkg/cache"
	"github.com/mhoffm/paperdash/pkg/config"
	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/httputil"
	"github.com/mhoffm/paperdash/pkg/section"
)

const (
	apiBase         = "https://www.googleapis.com/calendar/v3"
	defaultTokenURI = "https://oauth2.googleapis.com/token"
	userAgent       = "paperdash/1.0"

	// lookahead bounds the event window.
	lookahead = 30 * 24 * time.Hour

	// maxEventsPerCalendar caps one calendar's contribution.
	maxEventsPerCalendar = 50
)

// Provider fetches upcoming events across the configured calendars.
type Provider struct {
	client *httputil.Client
	cache  cache.Cache
	ttl    time.Duration
	cfg    config.Calendar

	apiBase string
	now     func() time.Time
}

// New creates a calendar provider.
func New(cfg config.Calendar, c cache.Cache, ttl time.Duration) *Provider {
	return &Provider{
		client:  httputil.NewClient(userAgent),
		cache:   c,
		ttl:     ttl,
		cfg:     cfg,
		apiBase: apiBase,
		now:     time.Now,
	}
}

// NewForTest creates a provider pointed at a test server with a fixed clock.
func NewForTest(cfg config.Calendar, c cache.Cache, baseURL string, now func() time.Time) *Provider {
	p := New(cfg, c, time.Minute)
	p.apiBase = baseURL
	p.now = now
	return p
}

// Name implements providers.Provider.
func (p *Provider) Name() string { return "calendar" }

// token mirrors the token file written by Google's OAuth tooling.
type token struct {
	Token        string `json:"token"`
	RefreshToken string `json:"refresh_token"`
	TokenURI     string `json:"token_uri"`
	ClientID     string `json:"client_id"`
	ClientSecret string `json:"client_secret"`
	Expiry       string `json:"expiry"`
}

func (t *token) expired(now time.Time) bool {
	if t.Expiry == "" {
		return true
	}
	expiry, err := time.Parse(time.RFC3339, t.Expiry)
	if err != nil {
		return true
	}
	return !now.Before(expiry.Add(-time.Minute))
}

// Fetch returns the upcoming events, consulting the cache first.
func (p *Provider) Fetch(ctx context.Context) (section.Data, error) {
	if p.cfg.TokenFile == "" {
		return p.sampleEvents(), nil
	}

	const key = "gcal:events"
	if data, hit, err := p.cache.Get(ctx, key); err == nil && hit {
		var cal section.Calendar
		if err := json.Unmarshal(data, &cal); err == nil {
			return &cal, nil
		}
	}

	cal, err := p.fetchFresh(ctx)
	if err != nil {
		return nil, err
	}

	if data, err := json.Marshal(cal); err == nil {
		_ = p.cache.Set(ctx, key, data, p.ttl)
	}
	return cal, nil
}

func (p *Provider) fetchFresh(ctx context.Context) (*section.Calendar, error) {
	tok, err := p.loadToken(ctx)
	if err != nil {
		return nil, err
	}
	auth := map[string]string{"Authorization": "Bearer " + tok.Token}

	ids := p.cfg.CalendarIDs
	names := map[string]string{}
	if len(ids) == 0 {
		ids, names, err = p.listCalendars(ctx, auth)
		if err != nil {
			return nil, err
		}
	}

	now := p.now()
	var events []section.Event
	for _, id := range ids {
		items, err := p.listEvents(ctx, auth, id, now, now.Add(lookahead))
		if err != nil {
			return nil, err
		}
		for i := range items {
			items[i].CalendarName = names[id]
		}
		events = append(events, items...)
	}

	sort.SliceStable(events, func(i, j int) bool {
		return events[i].Start.Before(events[j].Start)
	})
	return &section.Calendar{Events: events}, nil
}

// loadToken reads the token file and refreshes the access token if it is
// expired, rewriting the file with the new token.
func (p *Provider) loadToken(ctx context.Context) (*token, error) {
	data, err := os.ReadFile(p.cfg.TokenFile)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuth, err, "read calendar token file %s", p.cfg.TokenFile)
	}
	var tok token
	if err := json.Unmarshal(data, &tok); err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuth, err, "parse calendar token file %s", p.cfg.TokenFile)
	}

	if !tok.expired(p.now()) {
		return &tok, nil
	}
	if tok.RefreshToken == "" || tok.ClientID == "" || tok.ClientSecret == "" {
		return nil, errors.New(errors.ErrCodeAuth, "calendar token expired and no refresh credentials present")
	}

	tokenURI := tok.TokenURI
	if tokenURI == "" {
		tokenURI = defaultTokenURI
	}
	form := url.Values{
		"client_id":     {tok.ClientID},
		"client_secret": {tok.ClientSecret},
		"refresh_token": {tok.RefreshToken},
		"grant_type":    {"refresh_token"},
	}
	var resp struct {
		AccessToken string `json:"access_token"`
		ExpiresIn   int    `json:"expires_in"`
	}
	err = httputil.RetryWithBackoff(ctx, func() error {
		return p.client.PostForm(ctx, tokenURI, form, &resp)
	})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAuth, err, "refresh calendar access token")
	}
	if resp.AccessToken == "" {
		return nil, errors.New(errors.ErrCodeAuth, "calendar token response missing access_token")
	}

	tok.Token = resp.AccessToken
	tok.Expiry = p.now().Add(time.Duration(resp.ExpiresIn) * time.Second).Format(time.RFC3339)

	if data, err := json.MarshalIndent(&tok, "", "  "); err == nil {
		_ = renameio.WriteFile(p.cfg.TokenFile, data, 0o600)
	}
	return &tok, nil
}

type calendarListResponse struct {
	Items []struct {
		ID      string `json:"id"`
		Summary string `json:"summary"`
	} `json:"items"`
}

func (p *Provider) listCalendars(ctx context.Context, auth map[string]string) ([]string, map[string]string, error) {
	var list calendarListResponse
	err := httputil.RetryWithBackoff(ctx, func() error {
		return p.client.GetJSON(ctx, p.apiBase+"/users/me/calendarList", auth, &list)
	})
	if err != nil {
		return nil, nil, errors.Wrap(errors.GetCode(err), err, "list calendars")
	}

	var ids []string
	names := make(map[string]string, len(list.Items))
	for _, item := range list.Items {
		ids = append(ids, item.ID)
		names[item.ID] = item.Summary
	}
	return ids, names, nil
}

type eventsResponse struct {
	Items []struct {
		Summary string `json:"summary"`
		Status  string `json:"status"`
		Start   struct {
			DateTime string `json:"dateTime"`
			Date     string `json:"date"`
		} `json:"start"`
		End struct {
			DateTime string `json:"dateTime"`
			Date     string `json:"date"`
		} `json:"end"`
	} `json:"items"`
}

func (p *Provider) listEvents(ctx context.Context, auth map[string]string, calendarID string, from, to time.Time) ([]section.Event, error) {
	q := url.Values{
		"timeMin":      {from.Format(time.RFC3339)},
		"timeMax":      {to.Format(time.RFC3339)},
		"singleEvents": {"true"},
		"orderBy":      {"startTime"},
		"maxResults":   {fmt.Sprint(maxEventsPerCalendar)},
	}
	eventsURL := fmt.Sprintf("%s/calendars/%s/events?%s", p.apiBase, url.PathEscape(calendarID), q.Encode())

	var resp eventsResponse
	err := httputil.RetryWithBackoff(ctx, func() error {
		return p.client.GetJSON(ctx, eventsURL, auth, &resp)
	})
	if err != nil {
		return nil, errors.Wrap(errors.GetCode(err), err, "list events for %s", calendarID)
	}

	var events []section.Event
	for _, item := range resp.Items {
		if item.Status == "cancelled" {
			continue
		}
		ev := section.Event{Summary: item.Summary}
		if item.Start.Date != "" {
			// All-day events carry bare dates.
			ev.AllDay = true
			ev.Start, _ = time.Parse("2006-01-02", item.Start.Date)
			ev.End, _ = time.Parse("2006-01-02", item.End.Date)
		} else {
			start, err := time.Parse(time.RFC3339, item.Start.DateTime)
			if err != nil {
				continue
			}
			ev.Start = start
			ev.End, _ = time.Parse(time.RFC3339, item.End.DateTime)
		}
		events = append(events, ev)
	}
	return events, nil
}

// sampleEvents stands in when no calendar token is configured.
func (p *Provider) sampleEvents() *section.Calendar {
	now := p.now()
	today := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, now.Location())
	at := func(days, hour, min int) time.Time {
		return today.AddDate(0, 0, days).Add(time.Duration(hour)*time.Hour + time.Duration(min)*time.Minute)
	}
	return &section.Calendar{Events: []section.Event{
		{Summary: "Morning run", Start: at(0, 7, 0), End: at(0, 8, 0)},
		{Summary: "Team standup", Start: at(0, 9, 30), End: at(0, 9, 45)},
		{Summary: "Dentist", Start: at(1, 14, 0), End: at(1, 15, 0)},
		{Summary: "Dinner with Sam", Start: at(2, 18, 30), End: at(2, 20, 0)},
	}}
}
