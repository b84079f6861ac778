package render

import (
	"fmt"
	"image"
	"strings"

	"github.com/fogleman/gg"

	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/section"
)

// Calendar draws upcoming events grouped by day. Events are assumed sorted
// by start time; an event ending before it starts is malformed input and is
// reported as a RENDER_ERROR so the section degrades to a placeholder.
func Calendar(dc *gg.Context, rect image.Rectangle, c *section.Calendar) error {
	faces, err := DefaultFaces()
	if err != nil {
		return err
	}
	r := pad(rect)

	dc.SetFontFace(faces.Title)
	dc.SetRGB(inkBlack, inkBlack, inkBlack)
	top := float64(r.Min.Y)
	dc.DrawStringAnchored("Calendar", float64(r.Min.X), top, 0, 1)
	top += sizeTitle + 10

	if len(c.Events) == 0 {
		return Placeholder(dc, rect, "No upcoming events")
	}

	for _, ev := range c.Events {
		if !ev.AllDay && ev.End.Before(ev.Start) {
			return errors.New(errors.ErrCodeRender,
				"event %q ends before it starts", ev.Summary)
		}
	}

	lineH := float64(sizeBody) + 7
	var lastDay string

	for _, ev := range c.Events {
		day := ev.Start.Format("Mon Jan 2")
		if day != lastDay {
			if top+lineH+float64(sizeSmall) > float64(r.Max.Y) {
				break
			}
			top += 4
			dc.SetFontFace(faces.Small)
			dc.SetRGB(inkGray, inkGray, inkGray)
			dc.DrawStringAnchored(strings.ToUpper(day), float64(r.Min.X), top, 0, 1)
			top += sizeSmall + 5
			lastDay = day
		}

		if top+lineH > float64(r.Max.Y) {
			break
		}

		dc.SetFontFace(faces.Body)
		dc.SetRGB(inkBlack, inkBlack, inkBlack)
		line := fmt.Sprintf("%-8s %s", eventTime(ev), ev.Summary)
		line = truncate(dc, line, float64(r.Dx()))
		dc.DrawStringAnchored(line, float64(r.Min.X), top, 0, 1)
		top += lineH
	}
	return nil
}

// eventTime formats an event start like "7am", "12:30pm" or "all-day".
func eventTime(ev section.Event) string {
	if ev.AllDay {
		return "all-day"
	}
	s := strings.ToLower(ev.Start.Format("3:04pm"))
	return strings.Replace(s, ":00", "", 1)
}

// truncate shortens s with an ellipsis to fit within width.
func truncate(dc *gg.Context, s string, width float64) string {
	if w, _ := dc.MeasureString(s); w <= width {
		return s
	}
	for len(s) > 1 {
		s = s[:len(s)-1]
		if w, _ := dc.MeasureString(s + "…"); w <= width {
			return s + "…"
		}
	}
	return s
}
