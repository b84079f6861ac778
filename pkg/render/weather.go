package render

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/mhoffm/paperdash/pkg/section"
)

// forecastHours caps how much of the hourly forecast is plotted.
const forecastHours = 48

// Weather draws one location: a heading with the label and resolved city,
// the current conditions, a temperature polyline over the next 48 hours,
// and precipitation-probability bars along the bottom.
func Weather(dc *gg.Context, rect image.Rectangle, w *section.Weather) error {
	faces, err := DefaultFaces()
	if err != nil {
		return err
	}
	r := pad(rect)

	// Heading: label plus the city resolved from the coordinates.
	heading := w.Label
	if w.City != "" {
		if heading != "" {
			heading += " · "
		}
		heading += w.City
	}
	dc.SetFontFace(faces.Title)
	dc.SetRGB(inkBlack, inkBlack, inkBlack)
	top := float64(r.Min.Y)
	dc.DrawStringAnchored(heading, float64(r.Min.X), top, 0, 1)
	top += sizeTitle + 6

	if len(w.Hourly) == 0 {
		return Placeholder(dc, rect, "Weather data unavailable")
	}

	// Current conditions under the heading.
	if cur := w.Current; cur != nil {
		dc.SetFontFace(faces.Body)
		line := fmt.Sprintf("%d°  %s", cur.Temp, cur.Desc)
		dc.DrawStringAnchored(line, float64(r.Min.X), top, 0, 1)
		top += sizeBody + 8
	}

	hours := w.Hourly
	if len(hours) > forecastHours {
		hours = hours[:forecastHours]
	}

	plot := image.Rect(r.Min.X, int(top), r.Max.X, r.Max.Y-sizeSmall-4)
	if plot.Dy() < 20 || len(hours) < 2 {
		return nil // too small to plot; heading alone is fine
	}

	minT, maxT := hours[0].Temp, hours[0].Temp
	for _, h := range hours {
		minT = min(minT, h.Temp)
		maxT = max(maxT, h.Temp)
	}
	if minT == maxT {
		// Flat forecast still needs a non-degenerate scale.
		minT--
		maxT++
	}

	x := func(i int) float64 {
		return float64(plot.Min.X) + float64(i)*float64(plot.Dx())/float64(len(hours)-1)
	}
	y := func(temp int) float64 {
		frac := float64(temp-minT) / float64(maxT-minT)
		return float64(plot.Max.Y) - frac*float64(plot.Dy())
	}

	barW := float64(plot.Dx()) / float64(len(hours))

	// Nighttime shading first so everything else paints over it. Consecutive
	// night hours merge into one span.
	dc.SetRGB(inkFaint, inkFaint, inkFaint)
	for i := 0; i < len(hours); {
		if !hours[i].Night {
			i++
			continue
		}
		j := i
		for j < len(hours) && hours[j].Night {
			j++
		}
		left := x(i) - barW/2
		right := x(j-1) + barW/2
		dc.DrawRectangle(left, float64(plot.Min.Y), right-left, float64(plot.Dy()))
		i = j
	}
	dc.Fill()

	// Precipitation probability bars behind the temperature line.
	dc.SetRGB(inkLight, inkLight, inkLight)
	for i, h := range hours {
		if h.PrecipProb <= 0 {
			continue
		}
		barH := float64(h.PrecipProb) / 100 * float64(plot.Dy())
		dc.DrawRectangle(x(i)-barW/2, float64(plot.Max.Y)-barH, barW, barH)
	}
	dc.Fill()

	// Temperature polyline.
	dc.SetRGB(inkBlack, inkBlack, inkBlack)
	dc.SetLineWidth(2)
	for i, h := range hours {
		dc.LineTo(x(i), y(h.Temp))
	}
	dc.Stroke()

	// Snow hours get a marker on the baseline.
	dc.SetFontFace(faces.Small)
	for i, h := range hours {
		if h.Snow {
			dc.DrawStringAnchored("*", x(i), float64(plot.Max.Y), 0.5, 0)
		}
	}

	// Min/max annotations and sparse hour labels.
	dc.DrawStringAnchored(fmt.Sprintf("%d°", maxT), float64(plot.Max.X), y(maxT), 1, -0.3)
	dc.DrawStringAnchored(fmt.Sprintf("%d°", minT), float64(plot.Max.X), y(minT), 1, 1.2)

	dc.SetRGB(inkGray, inkGray, inkGray)
	for i := 0; i < len(hours); i += 12 {
		label := hours[i].Time.Format("Mon 3pm")
		dc.DrawStringAnchored(label, x(i), float64(r.Max.Y), 0, 0)
	}
	return nil
}
