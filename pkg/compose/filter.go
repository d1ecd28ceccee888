package compose

import (
	"image"
	"image/color"

	"github.com/disintegration/imaging"

	"github.com/platesouq/platekit/pkg/geometry"
)

// ApplyFilter returns a copy of img with the brightness/contrast filter
// applied, CSS filter semantics: brightness multiplies channels, contrast
// pivots them around mid-gray, in that order. The source image is never
// mutated, so filter state cannot bleed into later draws.
func ApplyFilter(img image.Image, f geometry.Filter) image.Image {
	if f.IsZero() || (f.Brightness == 1 && f.Contrast == 1) {
		return img
	}
	return imaging.AdjustFunc(img, func(c color.NRGBA) color.NRGBA {
		return color.NRGBA{
			R: filterChannel(c.R, f),
			G: filterChannel(c.G, f),
			B: filterChannel(c.B, f),
			A: c.A,
		}
	})
}

func filterChannel(v uint8, f geometry.Filter) uint8 {
	x := float64(v) / 255
	x *= f.Brightness
	x = (x-0.5)*f.Contrast + 0.5
	return clamp8(x * 255)
}

func clamp8(v float64) uint8 {
	if v <= 0 {
		return 0
	}
	if v >= 255 {
		return 255
	}
	return uint8(v + 0.5)
}
