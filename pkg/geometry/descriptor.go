package geometry

import (
	"regexp"
	"strconv"
	"strings"
)

// Descriptor is the configuration-boundary form of an overlay placement:
// CSS-flavored percentage strings plus optional transform and filter
// tokens. It exists to ingest legacy listing configuration verbatim;
// everything downstream works with the typed [Placement].
type Descriptor struct {
	// Top and Left position the element's center as a percentage of the
	// canvas height and width ("42%", "42.5 %").
	Top  string `toml:"top" json:"top"`
	Left string `toml:"left" json:"left"`

	// Width sizes the element as a percentage of the canvas width.
	Width string `toml:"width" json:"width"`

	// Transform optionally carries a rotation token such as
	// "rotateZ(30deg)" or "translate(-50%, -50%) rotate(-12.5deg)".
	Transform string `toml:"transform" json:"transform"`

	// Filter optionally carries brightness/contrast tokens such as
	// "brightness(0.92) contrast(1.05)".
	Filter string `toml:"filter" json:"filter"`
}

var (
	percentRe    = regexp.MustCompile(`(-?\d*\.?\d+)\s*%`)
	rotationRe   = regexp.MustCompile(`rotate[XYZxyz]?\(\s*(-?\d*\.?\d+)\s*deg\s*\)`)
	brightnessRe = regexp.MustCompile(`brightness\(\s*(\d*\.?\d+)\s*\)`)
	contrastRe   = regexp.MustCompile(`contrast\(\s*(\d*\.?\d+)\s*\)`)
)

// fraction extracts a percentage token from s and returns it as a fraction
// in [0, 1]. When no percentage parses, the fallback is returned exactly.
func fraction(s string, fallback float64) float64 {
	m := percentRe.FindStringSubmatch(s)
	if m == nil {
		return fallback
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return fallback
	}
	return v / 100
}

// rotationDegrees extracts a signed decimal degree value from a rotation
// transform token. Absence yields zero rotation.
func rotationDegrees(transform string) float64 {
	m := rotationRe.FindStringSubmatch(transform)
	if m == nil {
		return 0
	}
	v, err := strconv.ParseFloat(m[1], 64)
	if err != nil {
		return 0
	}
	return v
}

// alignment infers text alignment from the transform string: a horizontal
// centering translate token means the element is center-anchored. This is
// adapter behavior for legacy configuration; new configuration should set
// alignment explicitly via [Descriptor] defaults in the styling tables.
func alignment(transform string) Align {
	if strings.Contains(strings.ReplaceAll(transform, " ", ""), "translate(-50%") {
		return AlignCenter
	}
	return AlignLeft
}

// ParseFilter parses brightness/contrast tokens from a CSS-ish filter
// string. Tokens that are absent stay at 1.0 (identity) as long as at
// least one token parses; a string with no recognizable token yields the
// zero Filter, which callers treat as "apply the default overlay filter".
func ParseFilter(s string) Filter {
	b := brightnessRe.FindStringSubmatch(s)
	c := contrastRe.FindStringSubmatch(s)
	if b == nil && c == nil {
		return Filter{}
	}
	f := Filter{Brightness: 1, Contrast: 1}
	if b != nil {
		if v, err := strconv.ParseFloat(b[1], 64); err == nil {
			f.Brightness = v
		}
	}
	if c != nil {
		if v, err := strconv.ParseFloat(c[1], 64); err == nil {
			f.Contrast = v
		}
	}
	return f
}
