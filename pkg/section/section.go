// Package section defines the data model flowing from providers to
// renderers: one tagged variant per dashboard category, each carrying only
// the fields its renderer consumes.
//
// Providers produce these values; renderers consume them. Neither side knows
// about the other, which is the one architectural invariant the pipeline
// enforces: swapping a provider implementation never touches a renderer and
// vice versa.
package section

import "time"

// Kind tags the section data variants.
type Kind string

const (
	KindWeather     Kind = "weather"
	KindActivity    Kind = "activity"
	KindCalendar    Kind = "calendar"
	KindText        Kind = "text"
	KindPlaceholder Kind = "placeholder"
)

// Data is the tagged union of per-category section payloads.
type Data interface {
	Kind() Kind
}

// HourForecast is one hour of forecast data.
type HourForecast struct {
	Time       time.Time `json:"time"`
	Temp       int       `json:"temp"` // degrees Fahrenheit
	PrecipProb int       `json:"precip_prob"`
	Snow       bool      `json:"snow"`
	Night      bool      `json:"night"`
	Desc       string    `json:"desc"`
}

// Weather is the payload for one weather location.
type Weather struct {
	Label   string         `json:"label"` // display label, e.g. "Home"
	City    string         `json:"city"`  // resolved location, e.g. "New York, NY"
	Current *HourForecast  `json:"current,omitempty"`
	Hourly  []HourForecast `json:"hourly"`
}

func (Weather) Kind() Kind { return KindWeather }

// Run is one recorded run.
type Run struct {
	Name        string  `json:"name"`
	Miles       float64 `json:"miles"`
	ElevationFt float64 `json:"elevation_ft"`
	Pace        string  `json:"pace"` // "mm:ss" per mile
}

// DayRun is one day of the trailing week; Run is nil on rest days.
type DayRun struct {
	Date  time.Time `json:"date"`
	Label string    `json:"label"` // "Mon", "Tue", ...
	Run   *Run      `json:"run,omitempty"`
}

// Activity is the running summary payload.
type Activity struct {
	WeeklyMiles    float64  `json:"weekly_miles"`
	YearlyMiles    float64  `json:"yearly_miles"`
	ProjectedMiles float64  `json:"projected_miles"`
	AvgPerDay      float64  `json:"avg_per_day"`
	Last7Days      []DayRun `json:"last_7_days"`
}

func (Activity) Kind() Kind { return KindActivity }

// Event is one calendar event.
type Event struct {
	Summary      string    `json:"summary"`
	Start        time.Time `json:"start"`
	End          time.Time `json:"end"`
	AllDay       bool      `json:"all_day"`
	CalendarName string    `json:"calendar_name"`
}

// Calendar is the calendar payload.
type Calendar struct {
	Events []Event `json:"events"` // sorted by start time
}

func (Calendar) Kind() Kind { return KindCalendar }

// Text is a literal string to render.
type Text struct {
	Text string `json:"text"`
}

func (Text) Kind() Kind { return KindText }

// Placeholder substitutes for a section whose provider or renderer failed.
// Message is shown centered in the section's rectangle.
type Placeholder struct {
	Message string `json:"message"`
}

func (Placeholder) Kind() Kind { return KindPlaceholder }
