package render

import (
	"image"
	"testing"
	"time"

	"github.com/fogleman/gg"

	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/section"
)

// newTestContext returns a white canvas context.
func newTestContext(w, h int) *gg.Context {
	dc := gg.NewContext(w, h)
	dc.SetRGB(1, 1, 1)
	dc.Clear()
	return dc
}

// inkIn reports whether any pixel inside rect is not white.
func inkIn(dc *gg.Context, rect image.Rectangle) bool {
	img := dc.Image()
	for y := rect.Min.Y; y < rect.Max.Y; y++ {
		for x := rect.Min.X; x < rect.Max.X; x++ {
			r, g, b, _ := img.At(x, y).RGBA()
			if r != 0xffff || g != 0xffff || b != 0xffff {
				return true
			}
		}
	}
	return false
}

func fixtureWeather() *section.Weather {
	base := time.Date(2025, 3, 10, 6, 0, 0, 0, time.UTC)
	var hours []section.HourForecast
	for i := 0; i < 48; i++ {
		hours = append(hours, section.HourForecast{
			Time:       base.Add(time.Duration(i) * time.Hour),
			Temp:       40 + i%10,
			PrecipProb: (i * 7) % 100,
			Snow:       i%13 == 0,
			Desc:       "Partly Cloudy",
		})
	}
	return &section.Weather{
		Label:   "Home",
		City:    "New York, NY",
		Current: &hours[0],
		Hourly:  hours,
	}
}

func TestWeatherDrawsForecast(t *testing.T) {
	dc := newTestContext(758, 512)
	rect := image.Rect(0, 0, 758, 512)

	if err := Weather(dc, rect, fixtureWeather()); err != nil {
		t.Fatalf("Weather: %v", err)
	}
	if !inkIn(dc, rect) {
		t.Error("weather renderer painted nothing")
	}
}

func TestWeatherShadesNightHours(t *testing.T) {
	render := func(w *section.Weather) []byte {
		dc := newTestContext(758, 512)
		if err := Weather(dc, image.Rect(0, 0, 758, 512), w); err != nil {
			t.Fatalf("Weather: %v", err)
		}
		img := dc.Image().(*image.RGBA)
		out := make([]byte, len(img.Pix))
		copy(out, img.Pix)
		return out
	}

	day := fixtureWeather()
	night := fixtureWeather()
	for i := range night.Hourly {
		h := night.Hourly[i].Time.Hour()
		night.Hourly[i].Night = h < 6 || h >= 20
	}

	if string(render(day)) == string(render(night)) {
		t.Error("night hours should add shading behind the plot")
	}
}

func TestWeatherEmptyForecastDrawsPlaceholder(t *testing.T) {
	dc := newTestContext(400, 200)
	rect := image.Rect(0, 0, 400, 200)

	err := Weather(dc, rect, &section.Weather{Label: "Home"})
	if err != nil {
		t.Fatalf("empty forecast should not error, got %v", err)
	}
	if !inkIn(dc, rect) {
		t.Error("expected a placeholder message for empty forecast")
	}
}

func TestWeatherIsDeterministic(t *testing.T) {
	rect := image.Rect(0, 0, 379, 512)
	w := fixtureWeather()

	render := func() []byte {
		dc := newTestContext(379, 512)
		if err := Weather(dc, rect, w); err != nil {
			t.Fatal(err)
		}
		img := dc.Image().(*image.RGBA)
		out := make([]byte, len(img.Pix))
		copy(out, img.Pix)
		return out
	}

	a, b := render(), render()
	if string(a) != string(b) {
		t.Error("two renders of identical data differ")
	}
}

func TestActivityDrawsBars(t *testing.T) {
	dc := newTestContext(758, 200)
	rect := image.Rect(0, 0, 758, 200)

	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	var days []section.DayRun
	for i := 0; i < 7; i++ {
		day := section.DayRun{
			Date:  monday.AddDate(0, 0, i),
			Label: monday.AddDate(0, 0, i).Format("Mon"),
		}
		if i%2 == 0 {
			day.Run = &section.Run{Name: "Morning Run", Miles: 3.5 + float64(i), Pace: "8:45"}
		}
		days = append(days, day)
	}

	err := Activity(dc, rect, &section.Activity{
		WeeklyMiles:    21.3,
		YearlyMiles:    412,
		ProjectedMiles: 1800,
		Last7Days:      days,
	})
	if err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if !inkIn(dc, rect) {
		t.Error("activity renderer painted nothing")
	}
}

func TestActivityDrawsElevation(t *testing.T) {
	monday := time.Date(2025, 3, 3, 0, 0, 0, 0, time.UTC)
	fixture := func(elev float64) *section.Activity {
		return &section.Activity{
			WeeklyMiles: 5,
			Last7Days: []section.DayRun{{
				Date:  monday,
				Label: "Mon",
				Run:   &section.Run{Name: "Morning Run", Miles: 5, Pace: "8:00", ElevationFt: elev},
			}},
		}
	}
	render := func(a *section.Activity) []byte {
		dc := newTestContext(758, 200)
		if err := Activity(dc, image.Rect(0, 0, 758, 200), a); err != nil {
			t.Fatalf("Activity: %v", err)
		}
		img := dc.Image().(*image.RGBA)
		out := make([]byte, len(img.Pix))
		copy(out, img.Pix)
		return out
	}

	if string(render(fixture(0))) == string(render(fixture(850))) {
		t.Error("elevation gain should be drawn with the day's run stats")
	}
}

func TestActivityEmptyDaysDrawsPlaceholder(t *testing.T) {
	dc := newTestContext(400, 150)
	rect := image.Rect(0, 0, 400, 150)
	if err := Activity(dc, rect, &section.Activity{}); err != nil {
		t.Fatalf("Activity: %v", err)
	}
	if !inkIn(dc, rect) {
		t.Error("expected placeholder for empty activity")
	}
}

func TestCalendarDrawsEvents(t *testing.T) {
	dc := newTestContext(758, 250)
	rect := image.Rect(0, 0, 758, 250)

	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	err := Calendar(dc, rect, &section.Calendar{Events: []section.Event{
		{Summary: "Team meeting", Start: start, End: start.Add(time.Hour)},
		{Summary: "Lunch with client", Start: start.Add(2 * time.Hour), End: start.Add(3 * time.Hour)},
		{Summary: "Conference", Start: start.AddDate(0, 0, 1), AllDay: true},
	}})
	if err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !inkIn(dc, rect) {
		t.Error("calendar renderer painted nothing")
	}
}

func TestCalendarRejectsEndBeforeStart(t *testing.T) {
	dc := newTestContext(400, 150)
	rect := image.Rect(0, 0, 400, 150)

	start := time.Date(2025, 3, 10, 10, 0, 0, 0, time.UTC)
	err := Calendar(dc, rect, &section.Calendar{Events: []section.Event{
		{Summary: "Backwards", Start: start, End: start.Add(-time.Hour)},
	}})
	if err == nil {
		t.Fatal("event ending before start should be rejected")
	}
	if !errors.Is(err, errors.ErrCodeRender) {
		t.Errorf("expected RENDER_ERROR, got %v", err)
	}
}

func TestCalendarEmptyDrawsPlaceholder(t *testing.T) {
	dc := newTestContext(400, 150)
	rect := image.Rect(0, 0, 400, 150)
	if err := Calendar(dc, rect, &section.Calendar{}); err != nil {
		t.Fatalf("Calendar: %v", err)
	}
	if !inkIn(dc, rect) {
		t.Error("expected placeholder for empty calendar")
	}
}

func TestTextDrawsLiteral(t *testing.T) {
	dc := newTestContext(758, 100)
	rect := image.Rect(0, 0, 758, 100)
	if err := Text(dc, rect, &section.Text{Text: "Hello"}); err != nil {
		t.Fatalf("Text: %v", err)
	}
	if !inkIn(dc, rect) {
		t.Error("text renderer painted nothing")
	}
}

func TestTextEmptyDrawsNothing(t *testing.T) {
	dc := newTestContext(200, 100)
	rect := image.Rect(0, 0, 200, 100)
	if err := Text(dc, rect, &section.Text{}); err != nil {
		t.Fatalf("Text: %v", err)
	}
	if inkIn(dc, rect) {
		t.Error("empty text should leave the region blank")
	}
}

func TestEventTime(t *testing.T) {
	mk := func(h, m int) section.Event {
		return section.Event{Start: time.Date(2025, 3, 10, h, m, 0, 0, time.UTC)}
	}
	tests := []struct {
		ev   section.Event
		want string
	}{
		{mk(7, 0), "7am"},
		{mk(12, 30), "12:30pm"},
		{mk(0, 0), "12am"},
		{mk(15, 5), "3:05pm"},
		{section.Event{AllDay: true}, "all-day"},
	}
	for _, tt := range tests {
		if got := eventTime(tt.ev); got != tt.want {
			t.Errorf("eventTime = %q, want %q", got, tt.want)
		}
	}
}

func TestSectionDispatch(t *testing.T) {
	dc := newTestContext(200, 100)
	rect := image.Rect(0, 0, 200, 100)

	if err := Section(dc, rect, &section.Placeholder{Message: "down"}); err != nil {
		t.Fatalf("placeholder dispatch: %v", err)
	}
	if err := Section(dc, rect, &section.Text{Text: "hi"}); err != nil {
		t.Fatalf("text dispatch: %v", err)
	}
}
