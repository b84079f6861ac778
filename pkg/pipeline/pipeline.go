// Package pipeline orchestrates one dashboard generation: fetch every
// section's data, paint each section into its clipped region, and encode
// the grayscale PNG.
//
// The pipeline degrades per section rather than failing whole: a provider
// or renderer failure turns that section into a placeholder and is recorded
// in [Result.Degraded]. Only canvas construction and PNG encoding abort the
// run.
package pipeline

import (
	"image"
	"image/color"
	"time"

	"github.com/charmbracelet/log"

	"github.com/mhoffm/paperdash/pkg/errors"
	"github.com/mhoffm/paperdash/pkg/layout"
	"github.com/mhoffm/paperdash/pkg/providers"
)

// Options contains all configuration for one generation run.
type Options struct {
	// Width and Height are the output resolution in pixels.
	Width  int
	Height int

	// Background fills the canvas before sections are painted.
	Background color.Color

	// Regions is the validated region map sections are resolved against.
	Regions *layout.RegionMap

	// Bindings pair each declared section with its data providers.
	Bindings []Binding

	// FetchTimeout bounds the provider fetch phase.
	FetchTimeout time.Duration

	// Logger receives per-stage progress. Defaults to log.Default().
	Logger *log.Logger

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool
}

// Binding pairs a region map section with its providers. Sections resolved
// to multiple column rectangles take one provider per column, left to right.
type Binding struct {
	Section   string
	Providers []providers.Provider
}

// ValidateAndSetDefaults checks required fields and applies defaults.
// This method is idempotent.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if o.Width <= 0 {
		o.Width = DefaultWidth
	}
	if o.Height <= 0 {
		o.Height = DefaultHeight
	}
	if o.Background == nil {
		o.Background = color.White
	}
	if o.FetchTimeout <= 0 {
		o.FetchTimeout = DefaultFetchTimeout
	}
	if o.Logger == nil {
		o.Logger = log.Default()
	}
	if o.Regions == nil {
		return errors.New(errors.ErrCodeConfigInvalid, "pipeline options missing region map")
	}
	if len(o.Bindings) == 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "pipeline options missing section bindings")
	}
	seen := make(map[string]bool, len(o.Bindings))
	for _, b := range o.Bindings {
		if _, ok := o.Regions.Section(b.Section); !ok {
			return errors.New(errors.ErrCodeConfigInvalid,
				"binding references undeclared section %q", b.Section)
		}
		if len(b.Providers) == 0 {
			return errors.New(errors.ErrCodeConfigInvalid,
				"section %q bound without providers", b.Section)
		}
		if seen[b.Section] {
			return errors.New(errors.ErrCodeConfigInvalid,
				"section %q bound twice", b.Section)
		}
		seen[b.Section] = true
	}
	o.validated = true
	return nil
}

const (
	// DefaultWidth and DefaultHeight match the Kindle Paperwhite panel
	// in portrait orientation.
	DefaultWidth  = 758
	DefaultHeight = 1024

	// DefaultFetchTimeout bounds the provider fetch phase.
	DefaultFetchTimeout = 45 * time.Second
)

// Result contains the outputs of one generation run.
type Result struct {
	// RunID uniquely identifies this run in logs.
	RunID string

	// PNG is the encoded 8-bit grayscale image.
	PNG []byte

	// Image is the composited grayscale image before encoding.
	Image *image.Gray

	// Stats contains timing information per stage.
	Stats Stats

	// Degraded maps section names to the reason they fell back to a
	// placeholder. Empty on a fully healthy run.
	Degraded map[string]string
}

// Stats contains generation timing per stage.
type Stats struct {
	FetchTime  time.Duration
	RenderTime time.Duration
	EncodeTime time.Duration
	Sections   int
}
