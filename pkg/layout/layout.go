// Package layout implements the declarative region map that partitions the
// display canvas into named sections.
//
// The canvas height is divided into GridRows equal rows; each section claims
// a half-open row interval [Start, End). Sections never overlap, and
// unassigned rows are deliberate visual spacing. A section may span two
// columns, in which case its band is bisected into a left and right half
// (used to place two weather locations side by side).
//
// Validation happens at configuration-load time, before any provider is
// called: an invalid region map is a fatal CONFIG_INVALID error, never a
// mid-pipeline surprise.
package layout

import (
	"image"

	"github.com/mhoffm/paperdash/pkg/errors"
)

// DefaultGridRows is the default vertical resolution of the region map.
const DefaultGridRows = 20

// Section is one named row interval within the grid.
type Section struct {
	Name    string
	Start   int // first row, inclusive
	End     int // last row, exclusive
	Columns int // 1 (full width) or 2 (bisected); 0 means 1
}

// RegionMap allocates row intervals of a fixed-height grid to sections.
// Section order is declaration order and determines compositor iteration
// order, so renders are reproducible.
type RegionMap struct {
	GridRows int
	Sections []Section
}

// New creates a RegionMap and validates it.
func New(gridRows int, sections []Section) (*RegionMap, error) {
	m := &RegionMap{GridRows: gridRows, Sections: sections}
	if err := m.Validate(); err != nil {
		return nil, err
	}
	return m, nil
}

// Validate checks the region map invariants:
// every interval lies within [0, GridRows), End strictly exceeds Start,
// and no two intervals overlap. Any violation is a CONFIG_INVALID error.
func (m *RegionMap) Validate() error {
	if m.GridRows <= 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "grid_rows must be positive, got %d", m.GridRows)
	}
	if len(m.Sections) == 0 {
		return errors.New(errors.ErrCodeConfigInvalid, "region map declares no sections")
	}

	seen := make(map[string]bool, len(m.Sections))
	for i, s := range m.Sections {
		if s.Name == "" {
			return errors.New(errors.ErrCodeConfigInvalid, "section %d has no name", i)
		}
		if seen[s.Name] {
			return errors.New(errors.ErrCodeConfigInvalid, "section %q declared twice", s.Name)
		}
		seen[s.Name] = true

		if s.Start < 0 || s.End > m.GridRows {
			return errors.New(errors.ErrCodeConfigInvalid,
				"section %q rows [%d,%d) outside grid of %d rows", s.Name, s.Start, s.End, m.GridRows)
		}
		if s.End <= s.Start {
			return errors.New(errors.ErrCodeConfigInvalid,
				"section %q has empty or inverted interval [%d,%d)", s.Name, s.Start, s.End)
		}
		if c := s.Columns; c != 0 && c != 1 && c != 2 {
			return errors.New(errors.ErrCodeConfigInvalid,
				"section %q columns must be 1 or 2, got %d", s.Name, c)
		}

		for _, prev := range m.Sections[:i] {
			if s.Start < prev.End && prev.Start < s.End {
				return errors.New(errors.ErrCodeConfigInvalid,
					"sections %q [%d,%d) and %q [%d,%d) overlap",
					prev.Name, prev.Start, prev.End, s.Name, s.Start, s.End)
			}
		}
	}
	return nil
}

// Section returns the named section declaration.
func (m *RegionMap) Section(name string) (Section, bool) {
	for _, s := range m.Sections {
		if s.Name == name {
			return s, true
		}
	}
	return Section{}, false
}

// Resolve maps a section to its pixel rectangles on a width×height canvas.
// A single-column section gets one full-width rectangle; a two-column
// section gets its band bisected into [left, right]. Row boundaries scale
// as row/GridRows * height.
func (m *RegionMap) Resolve(name string, width, height int) ([]image.Rectangle, error) {
	s, ok := m.Section(name)
	if !ok {
		return nil, errors.New(errors.ErrCodeConfigInvalid, "unknown section %q", name)
	}

	top := s.Start * height / m.GridRows
	bottom := s.End * height / m.GridRows
	band := image.Rect(0, top, width, bottom)

	if s.Columns == 2 {
		mid := width / 2
		return []image.Rectangle{
			image.Rect(0, top, mid, bottom),
			image.Rect(mid, top, width, bottom),
		}, nil
	}
	return []image.Rectangle{band}, nil
}
