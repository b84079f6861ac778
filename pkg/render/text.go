package render

import (
	"image"

	"github.com/fogleman/gg"

	"github.com/mhoffm/paperdash/pkg/section"
)

// Text draws the free-text section centered in its region. An empty string
// leaves the region blank; that is the configured-off state, not an error.
func Text(dc *gg.Context, rect image.Rectangle, t *section.Text) error {
	if t.Text == "" {
		return nil
	}
	faces, err := DefaultFaces()
	if err != nil {
		return err
	}

	cx := float64(rect.Min.X+rect.Max.X) / 2
	cy := float64(rect.Min.Y+rect.Max.Y) / 2

	dc.SetFontFace(faces.Body)
	dc.SetRGB(inkBlack, inkBlack, inkBlack)
	dc.DrawStringWrapped(t.Text, cx, cy, 0.5, 0.5, float64(rect.Dx())-24, 1.3, gg.AlignCenter)
	return nil
}
