package compose

import (
	"image/color"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"
	"golang.org/x/image/font"

	"github.com/platesouq/platekit/pkg/geometry"
)

// Gold gradient stops for price/phone overlay text: a vertical 4-stop
// gradient spanning one font-height centered on the text baseline.
var goldStops = []struct {
	Pos   float64
	Color color.Color
}{
	{0.0, color.RGBA{0xF6, 0xD9, 0x72, 0xFF}},
	{0.4, color.RGBA{0xC3, 0x9A, 0x31, 0xFF}},
	{0.5, color.RGBA{0xF9, 0xEE, 0xA2, 0xFF}},
	{1.0, color.RGBA{0x8C, 0x6C, 0x16, 0xFF}},
}

// Drop shadow behind gold text. The shadow is rendered into its own
// offscreen buffer per draw, so it never leaks into subsequent draws.
const (
	shadowOpacity = 0.6
	shadowBlur    = 16.0 // blur radius; Gaussian sigma is half of it
	shadowOffsetY = 8.0
)

// drawGoldText renders s onto dc with the gold gradient fill and drop
// shadow. x is the horizontal anchor (text midpoint for AlignCenter, left
// edge for AlignLeft); y is the vertical center of the text. size is the
// font size in pixels; the face must already be derived at that size.
func drawGoldText(dc *gg.Context, s string, x, y float64, face font.Face, size float64, align geometry.Align) {
	if s == "" {
		return
	}

	measure := gg.NewContext(1, 1)
	measure.SetFontFace(face)
	textW, _ := measure.MeasureString(s)

	// Offscreen buffer large enough for the glyphs, the blur spread, and
	// the shadow offset.
	margin := int(shadowBlur*2 + shadowOffsetY)
	bufW := int(textW) + 2*margin
	bufH := int(size*2) + 2*margin
	textLeft := float64(margin)
	baseline := float64(margin) + size // glyph top at ~margin, ascent <= size

	// Mask pass: glyph coverage in white.
	mask := gg.NewContext(bufW, bufH)
	mask.SetFontFace(face)
	mask.SetRGB(1, 1, 1)
	mask.DrawString(s, textLeft, baseline)

	// Gradient pass: fill the mask with the vertical gold gradient,
	// spanning one font-height centered on the baseline.
	grad := gg.NewLinearGradient(0, baseline-size/2, 0, baseline+size/2)
	for _, stop := range goldStops {
		grad.AddColorStop(stop.Pos, stop.Color)
	}
	fill := gg.NewContext(bufW, bufH)
	if err := fill.SetMask(mask.AsMask()); err == nil {
		fill.SetFillStyle(grad)
		fill.DrawRectangle(0, 0, float64(bufW), float64(bufH))
		fill.Fill()
	}

	// Shadow pass: black at 60% opacity, blurred, offset downward.
	shadow := gg.NewContext(bufW, bufH)
	shadow.SetFontFace(face)
	shadow.SetRGBA(0, 0, 0, shadowOpacity)
	shadow.DrawString(s, textLeft, baseline)
	blurred := imaging.Blur(shadow.Image(), shadowBlur/2)

	// Composite: destination top-left such that the text lands on the
	// requested anchor. The visual center of the glyph box sits about
	// 0.3 font-heights above the baseline.
	left := x
	if align == geometry.AlignCenter {
		left = x - textW/2
	}
	dstX := int(left) - margin
	dstY := int(y + size*0.3 - baseline)

	dc.DrawImage(blurred, dstX, dstY+int(shadowOffsetY))
	dc.DrawImage(fill.Image(), dstX, dstY)
}
