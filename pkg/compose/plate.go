// Package compose draws the plate artwork and the marketing-preview scene.
//
// Each composition builds its own drawing surface and discards it after
// producing output, so concurrent generations need no coordination. A
// failure at any draw step aborts the whole composition.
package compose

import (
	"image"
	"image/color"

	"github.com/fogleman/gg"

	"github.com/platesouq/platekit/pkg/fonts"
	"github.com/platesouq/platekit/pkg/plate"
)

// PlateStyle configures plate text drawing. The zero value uses the
// bundled anchor table, the bundled typeface, and black ink.
type PlateStyle struct {
	Fonts      *fonts.Library
	FontFamily string
	Anchors    plate.AnchorTable
	Ink        color.Color
}

// RenderPlate draws the spec's series code and number onto the loaded
// template at the anchor points configured for its region and class. The
// output raster has the template's native pixel dimensions.
func RenderPlate(tpl *plate.Template, spec plate.Spec, style PlateStyle) (image.Image, error) {
	if style.Fonts == nil {
		style.Fonts = fonts.NewLibrary()
	}
	if style.Anchors == nil {
		style.Anchors = plate.DefaultAnchors()
	}
	if style.Ink == nil {
		style.Ink = color.Black
	}

	bounds := tpl.Image.Bounds()
	w := float64(bounds.Dx())
	h := float64(bounds.Dy())

	dc := gg.NewContext(bounds.Dx(), bounds.Dy())
	dc.DrawImage(tpl.Image, 0, 0)

	anchor := style.Anchors.Lookup(spec)

	if spec.Code != "" {
		face, err := style.Fonts.Face(style.FontFamily, anchor.CodeSize*h)
		if err != nil {
			return nil, err
		}
		dc.SetFontFace(face)
		dc.SetColor(style.Ink)
		dc.DrawStringAnchored(spec.Code, anchor.CodeX*w, anchor.CodeY*h, 0.5, 0.5)
	}

	face, err := style.Fonts.Face(style.FontFamily, anchor.NumberSize*h)
	if err != nil {
		return nil, err
	}
	dc.SetFontFace(face)
	dc.SetColor(style.Ink)
	dc.DrawStringAnchored(spec.Number, anchor.NumberX*w, anchor.NumberY*h, 0.5, 0.5)

	return dc.Image(), nil
}
