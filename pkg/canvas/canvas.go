// Package canvas owns the pixel buffer for one generation run and its
// encoding to the final grayscale artifact.
//
// A Canvas is allocated fresh per run, painted through clipped regions, and
// discarded after encoding; it is never shared across runs. Renderers paint
// through [Canvas.Paint], which clips all drawing to the section's rectangle
// so a misbehaving renderer cannot leak ink into a neighbor's region.
package canvas

import (
	"image"
	"image/color"
	"image/draw"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/mhoffm/paperdash/pkg/errors"
)

// Canvas is a fixed-resolution drawing surface.
type Canvas struct {
	dc     *gg.Context
	width  int
	height int
}

// New allocates a blank canvas with the given background color.
func New(width, height int, background color.Color) (*Canvas, error) {
	if width <= 0 || height <= 0 {
		return nil, errors.New(errors.ErrCodeInternal, "canvas resolution %dx%d invalid", width, height)
	}
	base := imaging.New(width, height, background)
	return &Canvas{
		dc:     gg.NewContextForImage(base),
		width:  width,
		height: height,
	}, nil
}

// Width returns the canvas width in pixels.
func (c *Canvas) Width() int { return c.width }

// Height returns the canvas height in pixels.
func (c *Canvas) Height() int { return c.height }

// Paint invokes fn with a drawing context clipped to rect. Drawing outside
// rect is silently discarded, which enforces the renderer bounding contract.
// A panic inside fn is recovered and reported as a RENDER_ERROR so one bad
// section cannot abort the whole run.
func (c *Canvas) Paint(rect image.Rectangle, fn func(dc *gg.Context) error) (err error) {
	defer func() {
		if r := recover(); r != nil {
			err = errors.New(errors.ErrCodeRender, "renderer panic: %v", r)
		}
	}()

	c.dc.Push()
	defer c.dc.Pop()

	c.dc.DrawRectangle(float64(rect.Min.X), float64(rect.Min.Y),
		float64(rect.Dx()), float64(rect.Dy()))
	c.dc.Clip()

	if err := fn(c.dc); err != nil {
		return errors.Wrap(errors.ErrCodeRender, err, "paint region %v", rect)
	}
	return nil
}

// Image returns the current canvas image.
func (c *Canvas) Image() image.Image {
	return c.dc.Image()
}

// Gray flattens the canvas to an 8-bit grayscale image at the exact canvas
// resolution. No resizing happens here or anywhere downstream.
func (c *Canvas) Gray() *image.Gray {
	flat := imaging.Grayscale(c.dc.Image())
	gray := image.NewGray(image.Rect(0, 0, c.width, c.height))
	draw.Draw(gray, gray.Bounds(), flat, image.Point{}, draw.Src)
	return gray
}
