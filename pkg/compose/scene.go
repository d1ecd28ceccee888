package compose

import (
	"context"
	"image"
	"math"

	"github.com/disintegration/imaging"
	"github.com/fogleman/gg"

	"github.com/platesouq/platekit/pkg/assets"
	"github.com/platesouq/platekit/pkg/errors"
	"github.com/platesouq/platekit/pkg/fonts"
	"github.com/platesouq/platekit/pkg/format"
	"github.com/platesouq/platekit/pkg/geometry"
	"github.com/platesouq/platekit/pkg/plate"
)

// SceneWidth is the normalized export width. Backgrounds are scaled,
// aspect preserved, so that every preview exports at the same sharpness
// regardless of the source asset's resolution.
const SceneWidth = 7680

// Font scale bases for gold text, applied per one percent of canvas width.
const (
	priceFontBase   = 2.4 // priced listings
	contactFontBase = 1.4 // "Contact Seller" fallback
	phoneFontBase   = 1.6

	// Bike layout: phone and price sit side by side near the bottom edge
	// at a fixed font scale, ignoring any supplied text styling.
	bikeFontScale = 4.8
	bikePhoneX    = 0.30
	bikePriceX    = 0.70
	bikeTextY     = 0.94
)

// Scene describes one marketing-preview composition.
type Scene struct {
	// Background is the vehicle art location (file path, URL, data URL).
	Background string

	// Plate is the composed plate raster to overlay.
	Plate image.Image

	// Placement positions the primary plate overlay. CornerPlacement
	// optionally adds a second, typically top-corner, copy.
	Placement       geometry.Descriptor
	CornerPlacement *geometry.Descriptor

	// PriceStyling and PhoneStyling position the gold text overlays.
	// Nil means the corresponding text is not drawn (except in the bike
	// layout, which uses fixed positions regardless).
	PriceStyling *geometry.Descriptor
	PhoneStyling *geometry.Descriptor

	// Price is the listing price; nil renders the contact-seller string.
	Price *int64

	// Phone is the seller's phone number, empty to omit.
	Phone string

	// Class selects the layout; bike uses the fixed side-by-side text row.
	Class plate.Class

	// FontFamily names the display typeface for gold text; empty uses the
	// bundled fallback.
	FontFamily string

	// TextScale multiplies the computed gold text size. Zero means 1.
	TextScale float64

	// TargetWidth overrides the normalized export width. Zero means
	// SceneWidth.
	TargetWidth int
}

// ComposeScene assembles the marketing-preview raster: scaled background,
// plate overlays, and gold price/phone text.
func ComposeScene(ctx context.Context, scene Scene, loader *assets.Loader, lib *fonts.Library) (image.Image, error) {
	if scene.Plate == nil {
		return nil, errors.New(errors.ErrCodeInvalidInput, "scene requires a composed plate raster")
	}
	if loader == nil {
		loader = assets.NewLoader()
	}
	if lib == nil {
		lib = fonts.NewLibrary()
	}
	if scene.TextScale == 0 {
		scene.TextScale = 1
	}
	targetWidth := scene.TargetWidth
	if targetWidth == 0 {
		targetWidth = SceneWidth
	}

	bg, err := loader.Load(ctx, scene.Background)
	if err != nil {
		return nil, err
	}

	// Normalize to the export width, aspect preserved.
	scaled := imaging.Resize(bg, targetWidth, 0, imaging.Lanczos)
	w := scaled.Bounds().Dx()
	h := scaled.Bounds().Dy()

	dc := gg.NewContext(w, h)
	dc.DrawImage(scaled, 0, 0)

	fw := float64(w)
	fh := float64(h)

	drawPlateOverlay(dc, scene.Plate, geometry.Resolve(scene.Placement, fw, fh))
	if scene.CornerPlacement != nil {
		drawPlateOverlay(dc, scene.Plate, geometry.Resolve(*scene.CornerPlacement, fw, fh))
	}

	if scene.Class == plate.ClassBike {
		if err := drawBikeText(dc, scene, lib, fw, fh); err != nil {
			return nil, err
		}
	} else if err := drawText(dc, scene, lib, fw, fh); err != nil {
		return nil, err
	}

	return dc.Image(), nil
}

// drawPlateOverlay draws one positioned copy of the plate raster: filtered,
// scaled to the placement width, and rotated about its own center. All
// draw state is scoped to this call.
func drawPlateOverlay(dc *gg.Context, img image.Image, p geometry.Placement) {
	filter := p.Filter
	if filter.IsZero() {
		filter = geometry.DefaultOverlayFilter
	}
	filtered := ApplyFilter(img, filter)

	width := int(math.Round(p.Width))
	if width < 1 {
		width = 1
	}
	scaled := imaging.Resize(filtered, width, 0, imaging.Lanczos)

	dc.Push()
	if p.Rotated() {
		dc.RotateAbout(p.Radians(), p.X, p.Y)
	}
	dc.DrawImageAnchored(scaled, int(p.X), int(p.Y), 0.5, 0.5)
	dc.Pop()
}

// drawText draws the gold price and phone overlays at their configured
// placements (non-bike layouts).
func drawText(dc *gg.Context, scene Scene, lib *fonts.Library, w, h float64) error {
	if scene.PriceStyling != nil {
		base := contactFontBase
		if scene.Price != nil {
			base = priceFontBase
		}
		size := base * scene.TextScale * w / 100
		p := geometry.Resolve(*scene.PriceStyling, w, h)
		face, err := lib.Face(scene.FontFamily, size)
		if err != nil {
			return err
		}
		drawGoldText(dc, format.PriceOrContact(scene.Price), p.X, p.Y, face, size, p.Align)
	}

	if scene.PhoneStyling != nil && scene.Phone != "" {
		size := phoneFontBase * scene.TextScale * w / 100
		p := geometry.Resolve(*scene.PhoneStyling, w, h)
		face, err := lib.Face(scene.FontFamily, size)
		if err != nil {
			return err
		}
		drawGoldText(dc, format.Phone(scene.Phone), p.X, p.Y, face, size, p.Align)
	}
	return nil
}

// drawBikeText draws phone and price side by side near the bottom edge.
// Supplied price/phone styling is ignored; a missing phone centers the
// price alone.
func drawBikeText(dc *gg.Context, scene Scene, lib *fonts.Library, w, h float64) error {
	size := bikeFontScale * w / 100
	face, err := lib.Face(scene.FontFamily, size)
	if err != nil {
		return err
	}

	y := bikeTextY * h
	if scene.Phone == "" {
		drawGoldText(dc, format.PriceOrContact(scene.Price), 0.5*w, y, face, size, geometry.AlignCenter)
		return nil
	}

	drawGoldText(dc, format.Phone(scene.Phone), bikePhoneX*w, y, face, size, geometry.AlignCenter)
	drawGoldText(dc, format.PriceOrContact(scene.Price), bikePriceX*w, y, face, size, geometry.AlignCenter)
	return nil
}
