package pipeline

import (
	"bytes"
	"context"
	"image"
	"image/color"
	"image/png"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/charmbracelet/log"

	"github.com/platesouq/platekit/pkg/assets"
	"github.com/platesouq/platekit/pkg/cache"
	"github.com/platesouq/platekit/pkg/encode"
	"github.com/platesouq/platekit/pkg/errors"
	"github.com/platesouq/platekit/pkg/geometry"
	"github.com/platesouq/platekit/pkg/observability"
	"github.com/platesouq/platekit/pkg/plate"
	"github.com/platesouq/platekit/pkg/storage"
)

func writePNG(t *testing.T, dir, name string, w, h int, c color.Color) string {
	t.Helper()
	img := image.NewRGBA(image.Rect(0, 0, w, h))
	for y := 0; y < h; y++ {
		for x := 0; x < w; x++ {
			img.Set(x, y, c)
		}
	}
	path := filepath.Join(dir, name)
	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		t.Fatal(err)
	}
	if err := os.WriteFile(path, buf.Bytes(), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func testRunner(t *testing.T, c cache.Cache, store storage.Store) *Runner {
	t.Helper()
	dir := t.TempDir()
	tplPath := writePNG(t, dir, "dubai.png", 260, 55, color.White)

	registry := plate.NewRegistry()
	registry.Register("dubai", tplPath)

	loader := plate.NewLoader(registry, assets.NewLoader())
	logger := log.NewWithOptions(io.Discard, log.Options{})
	return NewRunner(c, nil, loader, store, logger)
}

func testOptions(t *testing.T) Options {
	t.Helper()
	bgPath := writePNG(t, t.TempDir(), "bg.png", 384, 216, color.NRGBA{R: 30, G: 60, B: 90, A: 255})
	price := int64(550000)
	return Options{
		Plate:        plate.Spec{Region: "dubai", Code: "A", Number: "12345"},
		Background:   bgPath,
		Placement:    geometry.Descriptor{Top: "70%", Left: "50%", Width: "20%"},
		PriceStyling: &geometry.Descriptor{Top: "85%", Left: "50%"},
		Price:        &price,
		TargetWidth:  768,
		PlateFormat:  encode.FormatPNG,
		SceneFormat:  encode.FormatJPEG,
	}
}

func TestExecute(t *testing.T) {
	r := testRunner(t, nil, nil)
	defer r.Close()

	result, err := r.Execute(context.Background(), testOptions(t))
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}

	if result.TemplateKey != "dubai" {
		t.Errorf("TemplateKey = %q", result.TemplateKey)
	}
	if len(result.Plate) == 0 {
		t.Error("empty plate artifact")
	}
	if len(result.Scene) == 0 {
		t.Error("empty scene artifact")
	}
	if result.SceneImage == nil {
		t.Error("SceneImage should be set on a cache miss")
	}
	if got := result.SceneImage.Bounds().Dx(); got != 768 {
		t.Errorf("scene width = %d, want 768", got)
	}
	if result.CacheInfo.TemplateHit || result.CacheInfo.PlateHit || result.CacheInfo.SceneHit {
		t.Errorf("unexpected cache hits with null cache: %+v", result.CacheInfo)
	}
}

func TestExecuteCaching(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}
	r := testRunner(t, fc, nil)
	defer r.Close()

	opts := testOptions(t)
	ctx := context.Background()

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.CacheInfo.TemplateHit || first.CacheInfo.PlateHit || first.CacheInfo.SceneHit {
		t.Errorf("first run should miss: %+v", first.CacheInfo)
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.TemplateHit {
		t.Error("second run should hit the template cache")
	}
	if !second.CacheInfo.PlateHit {
		t.Error("second run should hit the plate artifact cache")
	}
	if !second.CacheInfo.SceneHit {
		t.Error("second run should hit the scene artifact cache")
	}
	if !bytes.Equal(first.Plate, second.Plate) {
		t.Error("cached plate differs from rendered plate")
	}
	if !bytes.Equal(first.Scene, second.Scene) {
		t.Error("cached scene differs from rendered scene")
	}

	// Refresh bypasses every cache.
	opts.Refresh = true
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("refresh Execute: %v", err)
	}
	if third.CacheInfo.TemplateHit || third.CacheInfo.PlateHit || third.CacheInfo.SceneHit {
		t.Errorf("refresh run should miss: %+v", third.CacheInfo)
	}
}

func TestTemplateFallbackKeyStableAcrossCache(t *testing.T) {
	fc, err := cache.NewFileCache(t.TempDir())
	if err != nil {
		t.Fatal(err)
	}

	dir := t.TempDir()
	registry := plate.NewRegistry()
	registry.Register("dubai", writePNG(t, dir, "dubai.png", 260, 55, color.White))
	loader := plate.NewLoader(registry, assets.NewLoader())
	logger := log.NewWithOptions(io.Discard, log.Options{})
	r := NewRunner(fc, nil, loader, nil, logger)
	defer r.Close()

	opts := testOptions(t)
	opts.Plate.Class = plate.ClassBike
	ctx := context.Background()

	first, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("first Execute: %v", err)
	}
	if first.TemplateKey != "dubai" {
		t.Errorf("TemplateKey = %q, want the fallback key %q", first.TemplateKey, "dubai")
	}

	second, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("second Execute: %v", err)
	}
	if !second.CacheInfo.TemplateHit {
		t.Error("second run should hit the template cache")
	}
	if second.TemplateKey != first.TemplateKey {
		t.Errorf("TemplateKey changed across a cache hit: %q -> %q", first.TemplateKey, second.TemplateKey)
	}

	// Suffixed art registered later must win over the cached fallback.
	registry.Register("dubai_bike", writePNG(t, dir, "dubai_bike.png", 260, 55, color.Black))
	third, err := r.Execute(ctx, opts)
	if err != nil {
		t.Fatalf("third Execute: %v", err)
	}
	if third.TemplateKey != "dubai_bike" {
		t.Errorf("TemplateKey = %q, want %q once suffixed art exists", third.TemplateKey, "dubai_bike")
	}
	if third.CacheInfo.TemplateHit {
		t.Error("suffixed art should not be served from the fallback's cache entry")
	}
}

func TestExecuteUpload(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "https://cdn.test")
	if err != nil {
		t.Fatal(err)
	}
	r := testRunner(t, nil, store)
	defer r.Close()

	opts := testOptions(t)
	opts.Upload = true
	opts.Upsert = true
	opts.ListingID = "listing-7"

	result, err := r.Execute(context.Background(), opts)
	if err != nil {
		t.Fatalf("Execute: %v", err)
	}
	if result.PlateURL != "https://cdn.test/plates/dubai/listing-7.png" {
		t.Errorf("PlateURL = %q", result.PlateURL)
	}
	if result.SceneURL != "https://cdn.test/plates/dubai/listing-7_preview.jpg" {
		t.Errorf("SceneURL = %q", result.SceneURL)
	}
	if _, err := os.Stat(filepath.Join(store.Root, "plates", "dubai", "listing-7.png")); err != nil {
		t.Errorf("plate object not stored: %v", err)
	}
}

type removeRecorder struct {
	observability.NoopStorageHooks
	paths []string
}

func (h *removeRecorder) OnRemove(_ context.Context, path string, _ error) {
	h.paths = append(h.paths, path)
}

func TestRemove(t *testing.T) {
	store, err := storage.NewLocalStore(t.TempDir(), "https://cdn.test")
	if err != nil {
		t.Fatal(err)
	}
	r := testRunner(t, nil, store)
	defer r.Close()
	ctx := context.Background()

	opts := testOptions(t)
	opts.Upload = true
	opts.ListingID = "listing-9"
	if _, err := r.Execute(ctx, opts); err != nil {
		t.Fatalf("Execute: %v", err)
	}

	recorder := &removeRecorder{}
	observability.SetStorageHooks(recorder)
	defer observability.Reset()

	if err := r.Remove(ctx, "dubai", "listing-9", opts.PlateFormat, opts.SceneFormat); err != nil {
		t.Fatalf("Remove: %v", err)
	}

	if _, err := os.Stat(filepath.Join(store.Root, "plates", "dubai", "listing-9.png")); !os.IsNotExist(err) {
		t.Errorf("plate object should be gone, stat err = %v", err)
	}
	if _, err := os.Stat(filepath.Join(store.Root, "plates", "dubai", "listing-9_preview.jpg")); !os.IsNotExist(err) {
		t.Errorf("scene object should be gone, stat err = %v", err)
	}
	if len(recorder.paths) != 2 {
		t.Errorf("OnRemove fired for %d paths, want 2: %v", len(recorder.paths), recorder.paths)
	}

	// Removing an already-absent listing stays silent.
	if err := r.Remove(ctx, "dubai", "listing-9", opts.PlateFormat, opts.SceneFormat); err != nil {
		t.Errorf("second Remove: %v", err)
	}
}

func TestRemoveWithoutStore(t *testing.T) {
	r := testRunner(t, nil, nil)
	defer r.Close()

	err := r.Remove(context.Background(), "dubai", "listing-1", encode.FormatWebP, encode.FormatJPEG)
	if !errors.Is(err, errors.ErrCodeUpload) {
		t.Errorf("err = %v, want UPLOAD_FAILED", err)
	}
}

func TestExecuteValidation(t *testing.T) {
	r := testRunner(t, nil, nil)
	defer r.Close()
	ctx := context.Background()

	_, err := r.Execute(ctx, Options{Background: "bg.png"})
	if !errors.Is(err, errors.ErrCodeInvalidRegion) {
		t.Errorf("missing region: err = %v", err)
	}

	_, err = r.Execute(ctx, Options{Plate: plate.Spec{Region: "dubai", Number: "1"}})
	if !errors.Is(err, errors.ErrCodeInvalidInput) {
		t.Errorf("missing background: err = %v", err)
	}

	opts := testOptions(t)
	opts.SceneFormat = "tiff"
	_, err = r.Execute(ctx, opts)
	if !errors.Is(err, errors.ErrCodeInvalidFormat) {
		t.Errorf("bad format: err = %v", err)
	}
}

func TestExecuteUnknownTemplate(t *testing.T) {
	r := testRunner(t, nil, nil)
	defer r.Close()

	opts := testOptions(t)
	opts.Plate.Region = "monaco"
	_, err := r.Execute(context.Background(), opts)
	if !errors.Is(err, errors.ErrCodeTemplateNotFound) {
		t.Errorf("err = %v, want TEMPLATE_NOT_FOUND", err)
	}
}

func TestUploadDefaultsAssignListingID(t *testing.T) {
	opts := testOptions(t)
	opts.Upload = true
	if err := opts.ValidateAndSetDefaults(); err != nil {
		t.Fatal(err)
	}
	if opts.ListingID == "" {
		t.Error("upload without a listing ID should generate one")
	}
}

func TestNewRunnerDefaults(t *testing.T) {
	r := NewRunner(nil, nil, nil, nil, nil)
	if r.Cache == nil || r.Keyer == nil || r.Assets == nil || r.Templates == nil || r.Fonts == nil || r.Logger == nil {
		t.Error("NewRunner should default every collaborator except the store")
	}
}
