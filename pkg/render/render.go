// Package render draws section data into assigned canvas regions.
//
// Each renderer is a pure function of (data, region): it paints only within
// the region rectangle (the canvas clips it regardless), uses no randomness,
// and reads no clocks — the only timestamps drawn are the ones carried by
// the data itself, so two renders of identical data are pixel-identical.
//
// Renderers degrade gracefully: empty or missing data becomes a "no data"
// placeholder rather than a pipeline failure, and semantically invalid data
// (a calendar event ending before it starts) is reported as an error for the
// compositor to turn into a placeholder.
package render

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/section"
)

// ink levels on the white background.
const (
	inkBlack = 0.0
	inkDark  = 0.25
	inkGray  = 0.55
	inkLight = 0.80
	inkFaint = 0.92
)

// Section dispatches data to the renderer for its kind.
func Section(dc *gg.Context, rect image.Rectangle, data section.Data) error {
	switch d := data.(type) {
	case *section.Weather:
		return Weather(dc, rect, d)
	case *section.Activity:
		return Activity(dc, rect, d)
	case *section.Calendar:
		return Calendar(dc, rect, d)
	case *section.Text:
		return Text(dc, rect, d)
	case *section.Placeholder:
		return Placeholder(dc, rect, d.Message)
	default:
		return errors.New(errors.ErrCodeRender, "no renderer for section kind %q", data.Kind())
	}
}

// Placeholder draws a centered degraded-section message.
func Placeholder(dc *gg.Context, rect image.Rectangle, message string) error {
	faces, err := DefaultFaces()
	if err != nil {
		return err
	}
	if message == "" {
		message = "no data"
	}

	cx := float64(rect.Min.X+rect.Max.X) / 2
	cy := float64(rect.Min.Y+rect.Max.Y) / 2

	dc.SetFontFace(faces.Body)
	dc.SetRGB(inkGray, inkGray, inkGray)
	dc.DrawStringWrapped(message, cx, cy, 0.5, 0.5, float64(rect.Dx())-20, 1.3, gg.AlignCenter)
	return nil
}

// pad returns rect inset by the standard section margin.
func pad(rect image.Rectangle) image.Rectangle {
	const margin = 12
	r := rect.Inset(margin)
	if r.Empty() {
		return rect
	}
	return r
}
