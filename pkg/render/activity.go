package render

import (
	"fmt"
	"image"

	"github.com/fogleman/gg"

	"github.com/mhoffm/paperdash/pkg/section"
)

// Activity draws the running summary: headline mileage numbers and a
// last-7-days strip with one bar per day, sized by distance.
func Activity(dc *gg.Context, rect image.Rectangle, a *section.Activity) error {
	faces, err := DefaultFaces()
	if err != nil {
		return err
	}
	r := pad(rect)

	dc.SetFontFace(faces.Title)
	dc.SetRGB(inkBlack, inkBlack, inkBlack)
	top := float64(r.Min.Y)
	dc.DrawStringAnchored("Running", float64(r.Min.X), top, 0, 1)

	// Headline numbers right-aligned on the heading row.
	dc.SetFontFace(faces.Body)
	headline := fmt.Sprintf("%.1f mi week  ·  %.0f mi year  ·  %.0f projected",
		a.WeeklyMiles, a.YearlyMiles, a.ProjectedMiles)
	dc.DrawStringAnchored(headline, float64(r.Max.X), top, 1, 1)
	top += sizeTitle + 10

	if len(a.Last7Days) == 0 {
		return Placeholder(dc, rect, "No recent activity")
	}

	strip := image.Rect(r.Min.X, int(top), r.Max.X, r.Max.Y-sizeSmall-4)
	if strip.Dy() < 20 {
		return nil
	}

	var maxMiles float64
	for _, day := range a.Last7Days {
		if day.Run != nil && day.Run.Miles > maxMiles {
			maxMiles = day.Run.Miles
		}
	}

	slotW := float64(strip.Dx()) / float64(len(a.Last7Days))
	barW := slotW * 0.55

	dc.SetFontFace(faces.Small)
	for i, day := range a.Last7Days {
		cx := float64(strip.Min.X) + (float64(i)+0.5)*slotW

		// Day label on the baseline.
		dc.SetRGB(inkGray, inkGray, inkGray)
		dc.DrawStringAnchored(day.Label, cx, float64(r.Max.Y), 0.5, 0)

		if day.Run == nil || maxMiles == 0 {
			// Rest day: a tick on the baseline.
			dc.DrawLine(cx-3, float64(strip.Max.Y), cx+3, float64(strip.Max.Y))
			dc.Stroke()
			continue
		}

		barH := day.Run.Miles / maxMiles * float64(strip.Dy()-sizeSmall-4)
		dc.SetRGB(inkDark, inkDark, inkDark)
		dc.DrawRectangle(cx-barW/2, float64(strip.Max.Y)-barH, barW, barH)
		dc.Fill()

		// Distance, pace, and elevation gain stacked above the bar.
		dc.SetRGB(inkBlack, inkBlack, inkBlack)
		label := fmt.Sprintf("%.1f", day.Run.Miles)
		dc.DrawStringAnchored(label, cx, float64(strip.Max.Y)-barH-2, 0.5, 0)
		dc.SetRGB(inkGray, inkGray, inkGray)
		if day.Run.Pace != "" {
			dc.DrawStringAnchored(day.Run.Pace, cx, float64(strip.Max.Y)-barH-sizeSmall-4, 0.5, 0)
		}
		if day.Run.ElevationFt > 0 {
			elev := fmt.Sprintf("%.0fft", day.Run.ElevationFt)
			dc.DrawStringAnchored(elev, cx, float64(strip.Max.Y)-barH-2*(sizeSmall+4), 0.5, 0)
		}
	}
	return nil
}
