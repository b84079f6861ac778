package render

import (
	"sync"

	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/gobold"
	"golang.org/x/image/font/gofont/gomono"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/font/opentype"
)

// Font sizes in pixels, sized for the 758x1024 panel.
const (
	sizeTitle = 26
	sizeBody  = 19
	sizeSmall = 15
)

// Faces bundles the typefaces used by the renderers. The Go fonts are
// embedded in the x/image module, so no font files ship with the binary.
type Faces struct {
	Title font.Face // bold, section headings and headline numbers
	Body  font.Face // regular, event lines and labels
	Small font.Face // regular, axis labels and footnotes
	Mono  font.Face // mono, tabular numbers
}

var (
	facesOnce sync.Once
	faces     Faces
	facesErr  error
)

// DefaultFaces parses and caches the embedded Go fonts.
func DefaultFaces() (Faces, error) {
	facesOnce.Do(func() {
		bold, err := opentype.Parse(gobold.TTF)
		if err != nil {
			facesErr = err
			return
		}
		regular, err := opentype.Parse(goregular.TTF)
		if err != nil {
			facesErr = err
			return
		}
		mono, err := opentype.Parse(gomono.TTF)
		if err != nil {
			facesErr = err
			return
		}

		newFace := func(f *opentype.Font, size float64) (font.Face, error) {
			return opentype.NewFace(f, &opentype.FaceOptions{
				Size:    size,
				DPI:     72,
				Hinting: font.HintingFull,
			})
		}

		if faces.Title, err = newFace(bold, sizeTitle); err != nil {
			facesErr = err
			return
		}
		if faces.Body, err = newFace(regular, sizeBody); err != nil {
			facesErr = err
			return
		}
		if faces.Small, err = newFace(regular, sizeSmall); err != nil {
			facesErr = err
			return
		}
		if faces.Mono, err = newFace(mono, sizeBody); err != nil {
			facesErr = err
			return
		}
	})
	return faces, facesErr
}
