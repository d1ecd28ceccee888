package pipeline

import (
	"bytes"
	"context"
	"encoding/json"
	"image"
	"image/png"
	"time"

	"github.com/charmbracelet/log"

	"github.com/platesouq/platekit/pkg/assets"
	"github.com/platesouq/platekit/pkg/cache"
	"github.com/platesouq/platekit/pkg/compose"
	"github.com/platesouq/platekit/pkg/encode"
	"github.com/platesouq/platekit/pkg/errors"
	"github.com/platesouq/platekit/pkg/fonts"
	"github.com/platesouq/platekit/pkg/geometry"
	"github.com/platesouq/platekit/pkg/observability"
	"github.com/platesouq/platekit/pkg/plate"
	"github.com/platesouq/platekit/pkg/storage"
)

// Runner encapsulates pipeline execution with caching.
// Both CLI and API can use this to avoid duplicating caching logic.
//
// The Runner is stateless except for its collaborators - it doesn't store
// pipeline results. Multiple goroutines can safely use the same Runner
// with different options.
type Runner struct {
	Cache     cache.Cache
	Keyer     cache.Keyer
	Assets    *assets.Loader
	Templates *plate.Loader
	Fonts     *fonts.Library
	Anchors   plate.AnchorTable
	Store     storage.Store
	Logger    *log.Logger
}

// NewRunner creates a runner with the given collaborators.
// If keyer is nil, a DefaultKeyer is used.
// If cache is nil, a NullCache is used (caching disabled).
// If templates is nil, an empty registry is used (every load falls back to
// TEMPLATE_NOT_FOUND). A nil store disables uploads.
func NewRunner(c cache.Cache, keyer cache.Keyer, templates *plate.Loader, store storage.Store, logger *log.Logger) *Runner {
	if keyer == nil {
		keyer = cache.NewDefaultKeyer()
	}
	if c == nil {
		c = cache.NewNullCache()
	}
	if logger == nil {
		logger = log.Default()
	}
	loader := assets.NewLoader()
	if templates == nil {
		templates = plate.NewLoader(plate.NewRegistry(), loader)
	}
	return &Runner{
		Cache:     c,
		Keyer:     keyer,
		Assets:    loader,
		Templates: templates,
		Fonts:     fonts.NewLibrary(),
		Store:     store,
		Logger:    logger,
	}
}

// Execute runs the complete load → compose → encode → upload pipeline with
// caching.
func (r *Runner) Execute(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateAndSetDefaults(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	// Stage 1: Load template
	loadStart := time.Now()
	tpl, templateHit, err := r.LoadTemplateWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.TemplateKey = tpl.Key
	result.Stats.LoadTime = time.Since(loadStart)
	result.CacheInfo.TemplateHit = templateHit

	opts.Logger.Info("loaded template",
		"key", tpl.Key,
		"cached", templateHit,
		"duration", result.Stats.LoadTime)

	// Stage 2: Compose plate and scene
	composeStart := time.Now()
	observability.Pipeline().OnComposeStart(ctx, opts.Plate.Region, string(opts.Plate.Class))

	plateImg, err := compose.RenderPlate(tpl, opts.Plate, compose.PlateStyle{
		Fonts:      r.Fonts,
		FontFamily: opts.FontFamily,
		Anchors:    r.Anchors,
	})
	if err != nil {
		observability.Pipeline().OnComposeComplete(ctx, opts.Plate.Region, string(opts.Plate.Class), time.Since(composeStart), err)
		return nil, err
	}
	result.PlateImage = plateImg

	// The plate's deterministic PNG form keys both encoded artifacts.
	platePNG, err := encode.PNG(plateImg)
	if err != nil {
		return nil, err
	}
	plateHash := cache.Hash(platePNG)

	// The scene artifact is checked before composing: a hit skips the
	// whole 7680px composition.
	sceneKey := r.Keyer.ArtifactKey(r.sceneFingerprint(plateHash, opts), opts.SceneKeyOpts())
	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, sceneKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "scene")
			result.Scene = data
			result.CacheInfo.SceneHit = true
		} else {
			observability.Cache().OnCacheMiss(ctx, "scene")
		}
	}

	if !result.CacheInfo.SceneHit {
		sceneImg, err := compose.ComposeScene(ctx, r.scene(plateImg, opts), r.Assets, r.Fonts)
		if err != nil {
			observability.Pipeline().OnComposeComplete(ctx, opts.Plate.Region, string(opts.Plate.Class), time.Since(composeStart), err)
			return nil, err
		}
		result.SceneImage = sceneImg
	}
	result.Stats.ComposeTime = time.Since(composeStart)
	observability.Pipeline().OnComposeComplete(ctx, opts.Plate.Region, string(opts.Plate.Class), result.Stats.ComposeTime, nil)

	opts.Logger.Info("composed rasters",
		"template", tpl.Key,
		"scene_cached", result.CacheInfo.SceneHit,
		"duration", result.Stats.ComposeTime)

	// Stage 3: Encode
	encodeStart := time.Now()
	plateData, plateHit, err := r.encodePlate(ctx, plateHash, result.PlateImage, opts)
	if err != nil {
		return nil, err
	}
	result.Plate = plateData
	result.CacheInfo.PlateHit = plateHit
	result.Stats.PlateBytes = len(plateData)

	if !result.CacheInfo.SceneHit {
		observability.Pipeline().OnEncodeStart(ctx, string(opts.SceneFormat))
		sceneData, err := encode.Encode(result.SceneImage, opts.SceneFormat, opts.SceneQuality)
		observability.Pipeline().OnEncodeComplete(ctx, string(opts.SceneFormat), len(sceneData), time.Since(encodeStart), err)
		if err != nil {
			return nil, err
		}
		result.Scene = sceneData
		if err := r.Cache.Set(ctx, sceneKey, sceneData, cache.TTLArtifact); err == nil {
			observability.Cache().OnCacheSet(ctx, "scene", len(sceneData))
		}
	}
	result.Stats.SceneBytes = len(result.Scene)
	result.Stats.EncodeTime = time.Since(encodeStart)

	opts.Logger.Info("encoded artifacts",
		"plate_format", opts.PlateFormat,
		"plate_bytes", result.Stats.PlateBytes,
		"scene_format", opts.SceneFormat,
		"scene_bytes", result.Stats.SceneBytes,
		"duration", result.Stats.EncodeTime)

	// Stage 4: Upload
	if opts.Upload {
		uploadStart := time.Now()
		if err := r.upload(ctx, result, opts); err != nil {
			return nil, err
		}
		result.Stats.UploadTime = time.Since(uploadStart)

		opts.Logger.Info("uploaded artifacts",
			"plate_url", result.PlateURL,
			"scene_url", result.SceneURL,
			"duration", result.Stats.UploadTime)
	}

	return result, nil
}

// LoadTemplateWithCacheInfo loads the plate template with caching and
// returns cache hit info. The cached form is the resolved raster, so a hit
// skips both the asset fetch and the fallback probing.
func (r *Runner) LoadTemplateWithCacheInfo(ctx context.Context, opts Options) (*plate.Template, bool, error) {
	if err := opts.ValidateForCompose(); err != nil {
		return nil, false, err
	}

	key := opts.Plate.TemplateKey()

	observability.Pipeline().OnLoadStart(ctx, "template", key)
	start := time.Now()

	// Probe the cache along the loader's resolution order, skipping keys
	// the registry does not know. The raster is cached under the key the
	// loader resolved to, so a hit reports the same key a fresh load
	// would, and registering suffixed art later invalidates the fallback
	// immediately.
	candidates := []string{key}
	if opts.Plate.Region != key {
		candidates = append(candidates, opts.Plate.Region)
	}
	if !opts.Refresh {
		for _, candidate := range candidates {
			if _, ok := r.Templates.Registry.Lookup(candidate); !ok {
				continue
			}
			data, hit, err := r.Cache.Get(ctx, r.Keyer.TemplateKey(candidate))
			if err != nil || !hit {
				continue
			}
			img, err := png.Decode(bytes.NewReader(data))
			if err != nil {
				// A corrupt entry falls through to a fresh load.
				break
			}
			observability.Cache().OnCacheHit(ctx, "template")
			observability.Pipeline().OnLoadComplete(ctx, "template", candidate, time.Since(start), nil)
			return &plate.Template{Key: candidate, Image: img}, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "template")
	}

	tpl, err := r.Templates.Load(ctx, opts.Plate)
	observability.Pipeline().OnLoadComplete(ctx, "template", key, time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	// Cache the resolved raster in its deterministic PNG form, under the
	// key it resolved to.
	if data, err := encode.PNG(tpl.Image); err == nil {
		if err := r.Cache.Set(ctx, r.Keyer.TemplateKey(tpl.Key), data, cache.TTLTemplate); err == nil {
			observability.Cache().OnCacheSet(ctx, "template", len(data))
		}
	}

	return tpl, false, nil
}

// GeneratePlate runs the plate-only pipeline: load the template, draw the
// plate text, and encode. Scene options are ignored.
func (r *Runner) GeneratePlate(ctx context.Context, opts Options) (*Result, error) {
	if err := opts.ValidateForCompose(); err != nil {
		return nil, err
	}
	if err := opts.ValidateForEncode(); err != nil {
		return nil, err
	}
	r.applyLogger(&opts)

	result := &Result{}

	loadStart := time.Now()
	tpl, templateHit, err := r.LoadTemplateWithCacheInfo(ctx, opts)
	if err != nil {
		return nil, err
	}
	result.TemplateKey = tpl.Key
	result.Stats.LoadTime = time.Since(loadStart)
	result.CacheInfo.TemplateHit = templateHit

	composeStart := time.Now()
	plateImg, err := compose.RenderPlate(tpl, opts.Plate, compose.PlateStyle{
		Fonts:      r.Fonts,
		FontFamily: opts.FontFamily,
		Anchors:    r.Anchors,
	})
	if err != nil {
		return nil, err
	}
	result.PlateImage = plateImg
	result.Stats.ComposeTime = time.Since(composeStart)

	platePNG, err := encode.PNG(plateImg)
	if err != nil {
		return nil, err
	}

	encodeStart := time.Now()
	plateData, plateHit, err := r.encodePlate(ctx, cache.Hash(platePNG), plateImg, opts)
	if err != nil {
		return nil, err
	}
	result.Plate = plateData
	result.CacheInfo.PlateHit = plateHit
	result.Stats.PlateBytes = len(plateData)
	result.Stats.EncodeTime = time.Since(encodeStart)

	opts.Logger.Info("generated plate",
		"template", tpl.Key,
		"format", opts.PlateFormat,
		"bytes", result.Stats.PlateBytes)

	return result, nil
}

// LoadTemplate is a convenience wrapper that discards the cache hit info.
func (r *Runner) LoadTemplate(ctx context.Context, opts Options) (*plate.Template, error) {
	tpl, _, err := r.LoadTemplateWithCacheInfo(ctx, opts)
	return tpl, err
}

// encodePlate encodes the plate raster with artifact caching.
func (r *Runner) encodePlate(ctx context.Context, plateHash string, img image.Image, opts Options) ([]byte, bool, error) {
	cacheKey := r.Keyer.ArtifactKey(plateHash, opts.PlateKeyOpts())

	if !opts.Refresh {
		if data, hit, err := r.Cache.Get(ctx, cacheKey); err == nil && hit {
			observability.Cache().OnCacheHit(ctx, "plate")
			return data, true, nil
		}
		observability.Cache().OnCacheMiss(ctx, "plate")
	}

	observability.Pipeline().OnEncodeStart(ctx, string(opts.PlateFormat))
	start := time.Now()
	data, err := encode.Encode(img, opts.PlateFormat, opts.PlateQuality)
	observability.Pipeline().OnEncodeComplete(ctx, string(opts.PlateFormat), len(data), time.Since(start), err)
	if err != nil {
		return nil, false, err
	}

	if err := r.Cache.Set(ctx, cacheKey, data, cache.TTLArtifact); err == nil {
		observability.Cache().OnCacheSet(ctx, "plate", len(data))
	}
	return data, false, nil
}

// upload publishes both artifacts through the configured store.
func (r *Runner) upload(ctx context.Context, result *Result, opts Options) error {
	if r.Store == nil {
		return errors.New(errors.ErrCodeUpload, "no store configured")
	}

	platePath := storage.ObjectPath(opts.Plate.Region, opts.ListingID, opts.PlateFormat.Ext())
	scenePath := storage.ObjectPath(opts.Plate.Region, opts.ListingID+"_preview", opts.SceneFormat.Ext())

	plateURL, err := r.uploadOne(ctx, platePath, result.Plate, opts.PlateFormat, opts.Upsert)
	if err != nil {
		return err
	}
	sceneURL, err := r.uploadOne(ctx, scenePath, result.Scene, opts.SceneFormat, opts.Upsert)
	if err != nil {
		return err
	}

	result.PlateURL = plateURL
	result.SceneURL = sceneURL
	return nil
}

// Remove deletes a listing's published artifacts. Removal is best
// effort: a failed delete is logged and the remaining paths are still
// attempted.
func (r *Runner) Remove(ctx context.Context, region, listingID string, plateFormat, sceneFormat encode.Format) error {
	if r.Store == nil {
		return errors.New(errors.ErrCodeUpload, "no store configured")
	}

	paths := []string{
		storage.ObjectPath(region, listingID, plateFormat.Ext()),
		storage.ObjectPath(region, listingID+"_preview", sceneFormat.Ext()),
	}
	for _, path := range paths {
		err := r.Store.Remove(ctx, path)
		observability.Storage().OnRemove(ctx, path, err)
		if err != nil {
			r.Logger.Warn("remove failed", "path", path, "err", err)
			continue
		}
		r.Logger.Info("removed artifact", "path", path)
	}
	return nil
}

func (r *Runner) uploadOne(ctx context.Context, path string, data []byte, format encode.Format, upsert bool) (string, error) {
	observability.Storage().OnUpload(ctx, path, len(data))
	start := time.Now()
	url, err := r.Store.Upload(ctx, path, data, storage.UploadOptions{
		ContentType:  format.ContentType(),
		CacheControl: storage.DefaultCacheControl,
		Upsert:       upsert,
	})
	observability.Storage().OnUploadComplete(ctx, path, time.Since(start), err)
	return url, err
}

// scene assembles the compose.Scene from the options and a plate raster.
func (r *Runner) scene(plateImg image.Image, opts Options) compose.Scene {
	return compose.Scene{
		Background:      opts.Background,
		Plate:           plateImg,
		Placement:       opts.Placement,
		CornerPlacement: opts.CornerPlacement,
		PriceStyling:    opts.PriceStyling,
		PhoneStyling:    opts.PhoneStyling,
		Price:           opts.Price,
		Phone:           opts.Phone,
		Class:           opts.Plate.Class,
		FontFamily:      opts.FontFamily,
		TextScale:       opts.TextScale,
		TargetWidth:     opts.TargetWidth,
	}
}

// sceneFingerprint derives the content hash for the scene artifact key from
// the plate raster hash and every option that affects the composition.
func (r *Runner) sceneFingerprint(plateHash string, opts Options) string {
	fp := struct {
		Plate           string               `json:"plate"`
		Background      string               `json:"background"`
		Placement       geometry.Descriptor  `json:"placement"`
		CornerPlacement *geometry.Descriptor `json:"corner_placement"`
		PriceStyling    *geometry.Descriptor `json:"price_styling"`
		PhoneStyling    *geometry.Descriptor `json:"phone_styling"`
		Price           *int64               `json:"price"`
		Phone           string               `json:"phone"`
		Class           plate.Class          `json:"class"`
		FontFamily      string               `json:"font_family"`
		TextScale       float64              `json:"text_scale"`
	}{
		Plate:           plateHash,
		Background:      opts.Background,
		Placement:       opts.Placement,
		CornerPlacement: opts.CornerPlacement,
		PriceStyling:    opts.PriceStyling,
		PhoneStyling:    opts.PhoneStyling,
		Price:           opts.Price,
		Phone:           opts.Phone,
		Class:           opts.Plate.Class,
		FontFamily:      opts.FontFamily,
		TextScale:       opts.TextScale,
	}
	data, _ := json.Marshal(fp)
	return cache.Hash(data)
}

// Close releases resources held by the runner (primarily the cache).
func (r *Runner) Close() error {
	if r.Cache != nil {
		return r.Cache.Close()
	}
	return nil
}

// applyLogger sets the runner's logger on options if not already set.
func (r *Runner) applyLogger(opts *Options) {
	if opts.Logger == nil {
		opts.Logger = r.Logger
	}
}
