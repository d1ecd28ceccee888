package encode

import (
	"bytes"
	"image"
	"image/color"
	"image/jpeg"
	"os"
	"path/filepath"
	"strings"
	"testing"

	perrors "github.com/platesouq/platekit/pkg/errors"
)

func testImage(w, h int) image.Image {
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: uint8(x % 256), G: uint8(y % 256), B: 100, A: 255})
		}
	}
	return img
}

func TestJPEGRoundTrip(t *testing.T) {
	data, err := JPEG(testImage(64, 32), DefaultSceneQuality)
	if err != nil {
		t.Fatalf("JPEG: %v", err)
	}
	decoded, err := jpeg.Decode(bytes.NewReader(data))
	if err != nil {
		t.Fatalf("decode: %v", err)
	}
	if decoded.Bounds().Dx() != 64 || decoded.Bounds().Dy() != 32 {
		t.Errorf("decoded bounds = %v, want 64x32", decoded.Bounds())
	}
}

func TestPNGDeterministic(t *testing.T) {
	img := testImage(32, 32)
	a, err := PNG(img)
	if err != nil {
		t.Fatal(err)
	}
	b, err := PNG(img)
	if err != nil {
		t.Fatal(err)
	}
	if !bytes.Equal(a, b) {
		t.Error("PNG encoding should be deterministic for identical input")
	}
}

func TestEncodeUnsupportedFormat(t *testing.T) {
	_, err := Encode(testImage(4, 4), Format("gif"), 0.9)
	if !perrors.Is(err, perrors.ErrCodeInvalidFormat) {
		t.Errorf("error = %v, want INVALID_FORMAT", err)
	}
}

func TestFormatMetadata(t *testing.T) {
	tests := []struct {
		format      Format
		ext         string
		contentType string
	}{
		{FormatWebP, "webp", "image/webp"},
		{FormatJPEG, "jpg", "image/jpeg"},
		{FormatPNG, "png", "image/png"},
	}
	for _, tt := range tests {
		if got := tt.format.Ext(); got != tt.ext {
			t.Errorf("%s.Ext() = %q, want %q", tt.format, got, tt.ext)
		}
		if got := tt.format.ContentType(); got != tt.contentType {
			t.Errorf("%s.ContentType() = %q, want %q", tt.format, got, tt.contentType)
		}
		if !tt.format.Valid() {
			t.Errorf("%s should be valid", tt.format)
		}
	}
	if Format("tiff").Valid() {
		t.Error("tiff should not be valid")
	}
}

func TestDataURL(t *testing.T) {
	url := DataURL(FormatPNG, []byte{1, 2, 3})
	if !strings.HasPrefix(url, "data:image/png;base64,") {
		t.Errorf("DataURL = %q", url)
	}
}

func TestWriteFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "out", "nested", "plate.jpg")
	if err := WriteFile(path, []byte("bytes")); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "bytes" {
		t.Errorf("content = %q", data)
	}
}
