// Package geometry resolves percentage-based overlay styling into
// pixel-space drawing parameters.
//
// Overlay positions in listing configuration are expressed the way the
// marketing team thinks about them: as percentages of the target canvas,
// with an optional rotation and an optional brightness/contrast filter.
// This package converts those descriptors into a typed [Placement] for a
// concrete canvas size.
//
// Position semantics: the resolved (X, Y) is the center of the element,
// not its top-left corner. Callers drawing without rotation must offset by
// half the element size; callers drawing with rotation should translate,
// rotate about (X, Y), and draw centered.
package geometry

import "math"

// Default fractions applied when a descriptor field is missing or does not
// parse as a percentage.
const (
	// DefaultPositionFraction centers the element on the canvas.
	DefaultPositionFraction = 0.5

	// DefaultWidthFraction sizes the element at 15% of the canvas width.
	DefaultWidthFraction = 0.15
)

// Align is the horizontal text alignment for a placed text element.
type Align int

// Supported alignments. Center means the resolved X is the midpoint of the
// rendered text; Left means X is its left edge.
const (
	AlignLeft Align = iota
	AlignCenter
)

// String returns the alignment name.
func (a Align) String() string {
	if a == AlignCenter {
		return "center"
	}
	return "left"
}

// Filter is a brightness/contrast adjustment applied to an overlay before
// drawing. The zero value means "no filter". Both factors are multipliers
// in CSS filter semantics: 1.0 is identity.
type Filter struct {
	Brightness float64
	Contrast   float64
}

// DefaultOverlayFilter visually grounds plate overlays against the
// background when no explicit filter is configured.
var DefaultOverlayFilter = Filter{Brightness: 0.92, Contrast: 1.05}

// IsZero reports whether the filter is unset.
func (f Filter) IsZero() bool {
	return f.Brightness == 0 && f.Contrast == 0
}

// Placement is a fully resolved overlay position for a concrete canvas.
// X and Y are the element's center in pixels.
type Placement struct {
	X               float64
	Y               float64
	Width           float64 // element width in pixels
	RotationDegrees float64
	Align           Align
	Filter          Filter
}

// Radians returns the rotation angle in radians.
func (p Placement) Radians() float64 {
	return p.RotationDegrees * math.Pi / 180
}

// Rotated reports whether the placement carries a rotation.
func (p Placement) Rotated() bool {
	return p.RotationDegrees != 0
}

// Resolve converts a descriptor into a placement for the given canvas size.
// Missing or unparseable fields fall back to the documented defaults.
func Resolve(d Descriptor, canvasWidth, canvasHeight float64) Placement {
	return Placement{
		X:               fraction(d.Left, DefaultPositionFraction) * canvasWidth,
		Y:               fraction(d.Top, DefaultPositionFraction) * canvasHeight,
		Width:           fraction(d.Width, DefaultWidthFraction) * canvasWidth,
		RotationDegrees: rotationDegrees(d.Transform),
		Align:           alignment(d.Transform),
		Filter:          ParseFilter(d.Filter),
	}
}
