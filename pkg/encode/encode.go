// Package encode serializes composed rasters to their delivery formats.
//
// Plate artwork is stored as lossy WebP (quality 0.85 by default); the
// marketing preview is exported as JPEG (quality 0.95 by default) for
// direct download. Encoding failures are explicit errors, never an empty
// result.
package encode

import (
	"bytes"
	"encoding/base64"
	"image"
	"image/jpeg"
	"image/png"
	"os"
	"path/filepath"

	"github.com/kolesa-team/go-webp/encoder"
	"github.com/kolesa-team/go-webp/webp"

	"github.com/platesouq/platekit/pkg/errors"
)

// Format identifies a supported output encoding.
type Format string

// Supported output formats.
const (
	FormatWebP Format = "webp"
	FormatJPEG Format = "jpeg"
	FormatPNG  Format = "png"
)

// Default qualities, expressed as fractions in (0, 1].
const (
	// DefaultPlateQuality is used for stored plate artwork.
	DefaultPlateQuality = 0.85

	// DefaultSceneQuality is used for downloaded marketing previews.
	DefaultSceneQuality = 0.95
)

// Valid reports whether the format is supported.
func (f Format) Valid() bool {
	switch f {
	case FormatWebP, FormatJPEG, FormatPNG:
		return true
	}
	return false
}

// Ext returns the file extension for the format, without the dot.
func (f Format) Ext() string {
	if f == FormatJPEG {
		return "jpg"
	}
	return string(f)
}

// ContentType returns the MIME type for the format.
func (f Format) ContentType() string {
	switch f {
	case FormatWebP:
		return "image/webp"
	case FormatJPEG:
		return "image/jpeg"
	default:
		return "image/png"
	}
}

// Encode serializes img in the given format. Quality is a fraction in
// (0, 1]; it is ignored for PNG.
func Encode(img image.Image, format Format, quality float64) ([]byte, error) {
	switch format {
	case FormatWebP:
		return WebP(img, quality)
	case FormatJPEG:
		return JPEG(img, quality)
	case FormatPNG:
		return PNG(img)
	default:
		return nil, errors.New(errors.ErrCodeInvalidFormat, "unsupported format %q", format)
	}
}

// WebP encodes img as lossy WebP at the given quality fraction.
func WebP(img image.Image, quality float64) ([]byte, error) {
	opts, err := encoder.NewLossyEncoderOptions(encoder.PresetDefault, float32(quality*100))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "webp encoder options")
	}
	var buf bytes.Buffer
	if err := webp.Encode(&buf, img, opts); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "webp encode")
	}
	return buf.Bytes(), nil
}

// JPEG encodes img at the given quality fraction.
func JPEG(img image.Image, quality float64) ([]byte, error) {
	var buf bytes.Buffer
	if err := jpeg.Encode(&buf, img, &jpeg.Options{Quality: int(quality * 100)}); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "jpeg encode")
	}
	return buf.Bytes(), nil
}

// PNG encodes img losslessly. Used for cached pre-encode intermediates,
// where byte-for-byte reproducibility matters.
func PNG(img image.Image) ([]byte, error) {
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, errors.Wrap(errors.ErrCodeEncode, err, "png encode")
	}
	return buf.Bytes(), nil
}

// DataURL wraps encoded bytes as an RFC 2397 data URL.
func DataURL(format Format, data []byte) string {
	return "data:" + format.ContentType() + ";base64," + base64.StdEncoding.EncodeToString(data)
}

// WriteFile writes encoded bytes to path, creating parent directories.
// This is the "save as file" export surface.
func WriteFile(path string, data []byte) error {
	if dir := filepath.Dir(path); dir != "." {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return errors.Wrap(errors.ErrCodeInternal, err, "create output directory %s", dir)
		}
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return errors.Wrap(errors.ErrCodeInternal, err, "write %s", path)
	}
	return nil
}
