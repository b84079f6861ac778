package strava

import (
	"context"
	"encoding/json"
	"fmt"
	"math"
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

// fixedNow is a Thursday. Tests pin the clock here so that week windows
// and the yearly projection are deterministic.
var fixedNow = time.Date(2026, time.March, 5, 12, 0, 0, 0, time.UTC)

func testCreds() config.Strava {
	return config.Strava{ClientID: "123", ClientSecret: "secret", RefreshToken: "refresh"}
}

type fixture struct {
	tokenCalls atomic.Int64
	expiresAt  int64
}

func (f *fixture) server(t *testing.T) *httptest.Server {
	t.Helper()
	mux := http.NewServeMux()

	mux.HandleFunc("/oauth/token", func(w http.ResponseWriter, r *http.Request) {
		f.tokenCalls.Add(1)
		if r.FormValue("grant_type") != "refresh_token" || r.FormValue("refresh_token") != "refresh" {
			http.Error(w, "bad grant", http.StatusBadRequest)
			return
		}
		json.NewEncoder(w).Encode(map[string]any{
			"access_token": "access-token",
			"expires_at":   f.expiresAt,
		})
	})
	mux.HandleFunc("/api/v3/athlete/activities", func(w http.ResponseWriter, r *http.Request) {
		if r.Header.Get("Authorization") != "Bearer access-token" {
			http.Error(w, "unauthorized", http.StatusUnauthorized)
			return
		}
		// Two runs on Mar 4 (short + long), one run Mar 1, one ride Mar 3.
		fmt.Fprint(w, `[
			{"id": 1, "name": "Morning Run", "type": "Run", "distance": 8046.72,
			 "moving_time": 2400, "total_elevation_gain": 100,
			 "start_date_local": "2026-03-04T07:00:00Z"},
			{"id": 2, "name": "Evening Jog", "type": "Run", "distance": 1609.34,
			 "moving_time": 600, "total_elevation_gain": 10,
			 "start_date_local": "2026-03-04T19:00:00Z"},
			{"id": 3, "name": "Sunday Long Run", "type": "Run", "distance": 16093.4,
			 "moving_time": 5400, "total_elevation_gain": 250,
			 "start_date_local": "2026-03-01T09:00:00Z"},
			{"id": 4, "name": "Commute", "type": "Ride", "distance": 5000,
			 "moving_time": 900, "total_elevation_gain": 50,
			 "start_date_local": "2026-03-03T08:30:00Z"}
		]`)
	})
	mux.HandleFunc("/api/v3/athlete", func(w http.ResponseWriter, r *http.Request) {
		fmt.Fprint(w, `{"id": 42}`)
	})
	mux.HandleFunc("/api/v3/athletes/42/stats", func(w http.ResponseWriter, r *http.Request) {
		// 100 miles year to date.
		fmt.Fprint(w, `{"ytd_run_totals": {"distance": 160934}}`)
	})

	srv := httptest.NewServer(mux)
	t.Cleanup(srv.Close)
	return srv
}

func TestFetchSummarizesRuns(t *testing.T) {
	f := &fixture{expiresAt: fixedNow.Add(time.Hour).Unix()}
	srv := f.server(t)
	p := NewForTest(testCreds(), cache.NewNullCache(), srv.URL, func() time.Time { return fixedNow })

	data, err := p.Fetch(context.Background())
	if err != nil {
		t.Fatalf("Fetch: %v", err)
	}
	a, ok := data.(*section.Activity)
	if !ok {
		t.Fatalf("Fetch returned %T, want *section.Activity", data)
	}

	// 5 + 1 + 10 miles of running in the window; the ride is excluded.
	if math.Abs(a.WeeklyMiles-16.0) > 0.01 {
		t.Errorf("WeeklyMiles = %.3f, want 16.0", a.WeeklyMiles)
	}
	if math.Abs(a.YearlyMiles-100.0) > 0.01 {
		t.Errorf("YearlyMiles = %.3f, want 100.0", a.YearlyMiles)
	}
	// Day 64 of 2026, 365-day year: 100/64*365.
	wantProjected := 100.0 / float64(fixedNow.YearDay()) * 365
	if math.Abs(a.ProjectedMiles-wantProjected) > 0.01 {
		t.Errorf("ProjectedMiles = %.3f, want %.3f", a.ProjectedMiles, wantProjected)
	}
	if math.Abs(a.AvgPerDay-16.0/7) > 0.01 {
		t.Errorf("AvgPerDay = %.3f, want %.3f", a.AvgPerDay, 16.0/7)
	}

	if len(a.Last7Days) != 7 {
		t.Fatalf("len(Last7Days) = %d, want 7", len(a.Last7Days))
	}
	if first := a.Last7Days[0]; first.Label != "Fri" || first.Run != nil {
		t.Errorf("day 0 = %q run=%v, want rest day Fri", first.Label, first.Run)
	}

	// Mar 4 keeps the longer of its two runs.
	var wed *section.DayRun
	for i := range a.Last7Days {
		if a.Last7Days[i].Date.Day() == 4 {
			wed = &a.Last7Days[i]
		}
	}
	if wed == nil || wed.Run == nil {
		t.Fatal("Mar 4 should have a run")
	}
	if wed.Run.Name != "Morning Run" {
		t.Errorf("Mar 4 best run = %q, want Morning Run", wed.Run.Name)
	}
	if math.Abs(wed.Run.Miles-5.0) > 0.01 {
		t.Errorf("Mar 4 miles = %.3f, want 5.0", wed.Run.Miles)
	}
	// 2400s over 5 miles is 8:00 per mile.
	if wed.Run.Pace != "8:00" {
		t.Errorf("Mar 4 pace = %q, want 8:00", wed.Run.Pace)
	}
}

func TestFetchReusesAccessToken(t *testing.T) {
	f := &fixture{expiresAt: fixedNow.Add(time.Hour).Unix()}
	srv := f.server(t)
	p := NewForTest(testCreds(), cache.NewNullCache(), srv.URL, func() time.Time { return fixedNow })

	for i := 0; i < 3; i++ {
		if _, err := p.Fetch(context.Background()); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}
	if calls := f.tokenCalls.Load(); calls != 1 {
		t.Errorf("token endpoint hit %d times, want 1", calls)
	}
}

func TestFetchRefreshesExpiringToken(t *testing.T) {
	// Token expires within the renewal margin, so every fetch refreshes.
	f := &fixture{expiresAt: fixedNow.Add(time.Minute).Unix()}
	srv := f.server(t)
	p := NewForTest(testCreds(), cache.NewNullCache(), srv.URL, func() time.Time { return fixedNow })

	for i := 0; i < 2; i++ {
		if _, err := p.Fetch(context.Background()); err != nil {
			t.Fatalf("Fetch %d: %v", i, err)
		}
	}
	if calls := f.tokenCalls.Load(); calls != 2 {
		t.Errorf("token endpoint hit %d times, want 2", calls)
	}
}

func TestFetchWithoutCredentials(t *testing.T) {
	p := New(config.Strava{}, cache.NewNullCache(), time.Minute)
	_, err := p.Fetch(context.Background())
	if !errors.Is(err, errors.ErrCodeAuth) {
		t.Fatalf("err = %v, want AUTH_ERROR", err)
	}
}

func TestFetchBadRefreshToken(t *testing.T) {
	f := &fixture{expiresAt: fixedNow.Add(time.Hour).Unix()}
	srv := f.server(t)
	creds := testCreds()
	creds.RefreshToken = "revoked"
	p := NewForTest(creds, cache.NewNullCache(), srv.URL, func() time.Time { return fixedNow })

	_, err := p.Fetch(context.Background())
	if !errors.Is(err, errors.ErrCodeAuth) {
		t.Fatalf("err = %v, want AUTH_ERROR", err)
	}
}

func TestPaceString(t *testing.T) {
	cases := []struct {
		seconds int
		miles   float64
		want    string
	}{
		{2400, 5, "8:00"},
		{3000, 5, "10:00"},
		{571, 1, "9:31"},
		{0, 5, ""},
		{600, 0, ""},
	}
	for _, tc := range cases {
		if got := paceString(tc.seconds, tc.miles); got != tc.want {
			t.Errorf("paceString(%d, %g) = %q, want %q", tc.seconds, tc.miles, got, tc.want)
		}
	}
}
