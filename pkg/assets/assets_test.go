package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"image/color"
	"image/png"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"testing"

	perrors "github.com/platesouq/platekit/pkg/errors"
)

// testPNG returns an encoded solid-color PNG of the given size.
func testPNG(t *testing.T, w, h int) []byte {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, color.RGBA{R: 200, G: 180, B: 40, A: 255})
		}
	}
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatalf("encode test png: %v", err)
	}
	return buf.Bytes()
}

func TestLoadFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "template.png")
	if err := os.WriteFile(path, testPNG(t, 40, 20), 0o644); err != nil {
		t.Fatal(err)
	}

	img, err := NewLoader().Load(context.Background(), path)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Bounds().Dx() != 40 || img.Bounds().Dy() != 20 {
		t.Errorf("bounds = %v, want 40x20", img.Bounds())
	}
}

func TestLoadFileMissing(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), filepath.Join(t.TempDir(), "nope.png"))
	if err == nil {
		t.Fatal("expected error for missing file")
	}
	if !perrors.Is(err, perrors.ErrCodeAssetLoad) {
		t.Errorf("error code = %q, want %q", perrors.GetCode(err), perrors.ErrCodeAssetLoad)
	}
}

func TestLoadRemote(t *testing.T) {
	data := testPNG(t, 16, 16)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Write(data)
	}))
	defer srv.Close()

	img, err := NewLoader().Load(context.Background(), srv.URL+"/bg.png")
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Bounds().Dx() != 16 {
		t.Errorf("width = %d, want 16", img.Bounds().Dx())
	}
}

func TestLoadRemoteNon200(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		http.NotFound(w, r)
	}))
	defer srv.Close()

	_, err := NewLoader().Load(context.Background(), srv.URL+"/missing.png")
	if !perrors.Is(err, perrors.ErrCodeAssetLoad) {
		t.Errorf("error = %v, want ASSET_LOAD_FAILED", err)
	}
}

func TestLoadDataURL(t *testing.T) {
	payload := base64.StdEncoding.EncodeToString(testPNG(t, 8, 8))
	img, err := NewLoader().Load(context.Background(), "data:image/png;base64,"+payload)
	if err != nil {
		t.Fatalf("Load: %v", err)
	}
	if img.Bounds().Dx() != 8 {
		t.Errorf("width = %d, want 8", img.Bounds().Dx())
	}
}

func TestLoadDataURLMalformed(t *testing.T) {
	_, err := NewLoader().Load(context.Background(), "data:image/png;base64")
	if !perrors.Is(err, perrors.ErrCodeAssetLoad) {
		t.Errorf("error = %v, want ASSET_LOAD_FAILED", err)
	}
}

func TestLoadUndecodable(t *testing.T) {
	path := filepath.Join(t.TempDir(), "junk.png")
	if err := os.WriteFile(path, []byte("not an image"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := NewLoader().Load(context.Background(), path)
	if !perrors.Is(err, perrors.ErrCodeAssetLoad) {
		t.Errorf("error = %v, want ASSET_LOAD_FAILED", err)
	}
}
