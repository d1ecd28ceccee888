// Package pipeline provides the core generation pipeline for Platekit.
//
// This package implements the complete load → compose → encode → upload
// pipeline that can be used by CLI, API, and batch components. By
// centralizing this logic, we ensure consistent behavior across all entry
// points and avoid code duplication.
//
// # Architecture
//
// The pipeline consists of four stages:
//
//  1. Load: Resolve the plate template for the listing's region and class
//  2. Compose: Draw the plate raster and the marketing-preview scene
//  3. Encode: Serialize both rasters to their delivery formats
//  4. Upload: Optionally publish the artifacts to object storage
//
// Each stage can be run independently or as part of the complete pipeline.
//
// # Usage
//
// Create a Runner and execute the pipeline:
//
//	runner := pipeline.NewRunner(cache, nil, templates, store, logger)
//	opts := pipeline.Options{
//	    Plate:      plate.Spec{Region: "dubai", Code: "A", Number: "12345"},
//	    Background: "https://cdn.example.com/cars/lambo.png",
//	    Price:      &price,
//	}
//	result, err := runner.Execute(ctx, opts)
//	if err != nil {
//	    log.Fatal(err)
//	}
//	webpBytes := result.Plate
package pipeline

import (
	"image"
	"io"
	"time"

	"github.com/charmbracelet/log"
	"github.com/google/uuid"

	"github.com/platesouq/platekit/pkg/cache"
	"github.com/platesouq/platekit/pkg/encode"
	"github.com/platesouq/platekit/pkg/errors"
	"github.com/platesouq/platekit/pkg/geometry"
	"github.com/platesouq/platekit/pkg/plate"
)

// =============================================================================
// Default Values - Single Source of Truth for CLI, API, and Batch
// =============================================================================

const (
	// DefaultPlateFormat is the storage format for plate artwork.
	DefaultPlateFormat = encode.FormatWebP

	// DefaultSceneFormat is the download format for marketing previews.
	DefaultSceneFormat = encode.FormatJPEG
)

// =============================================================================
// Options - Pipeline Configuration
// =============================================================================

// Options contains all configuration for one generation run.
// This struct supports JSON serialization for API requests.
type Options struct {
	// Plate identifies the listing's plate.
	Plate plate.Spec `json:"plate"`

	// Background is the vehicle art location (file path, URL, data URL).
	Background string `json:"background"`

	// Placement positions the primary plate overlay on the scene.
	// CornerPlacement optionally adds a second copy.
	Placement       geometry.Descriptor  `json:"placement,omitempty"`
	CornerPlacement *geometry.Descriptor `json:"corner_placement,omitempty"`

	// PriceStyling and PhoneStyling position the gold text overlays.
	PriceStyling *geometry.Descriptor `json:"price_styling,omitempty"`
	PhoneStyling *geometry.Descriptor `json:"phone_styling,omitempty"`

	// Price is the listing price in whole currency units; nil renders
	// the contact-seller string instead.
	Price *int64 `json:"price,omitempty"`

	// Phone is the seller's phone number, empty to omit.
	Phone string `json:"phone,omitempty"`

	// FontFamily names the display typeface; empty uses the bundled one.
	FontFamily string `json:"font_family,omitempty"`

	// TextScale multiplies the computed gold text size. Zero means 1.
	TextScale float64 `json:"text_scale,omitempty"`

	// TargetWidth overrides the normalized scene export width.
	TargetWidth int `json:"target_width,omitempty"`

	// Encode options
	PlateFormat  encode.Format `json:"plate_format,omitempty"`
	SceneFormat  encode.Format `json:"scene_format,omitempty"`
	PlateQuality float64       `json:"plate_quality,omitempty"`
	SceneQuality float64       `json:"scene_quality,omitempty"`

	// Upload options
	ListingID string `json:"listing_id,omitempty"`
	Upload    bool   `json:"upload,omitempty"`
	Upsert    bool   `json:"upsert,omitempty"`

	// Refresh bypasses cached templates and artifacts.
	Refresh bool `json:"refresh,omitempty"`

	// Runtime options (not serialized)
	Logger *log.Logger `json:"-"`

	// validated tracks whether ValidateAndSetDefaults has been called.
	validated bool `json:"-"`
}

// Result contains the outputs of a pipeline run.
type Result struct {
	// PlateImage and SceneImage are the composed rasters.
	PlateImage image.Image
	SceneImage image.Image

	// Plate and Scene are the encoded artifacts.
	Plate []byte
	Scene []byte

	// PlateURL and SceneURL are set when the artifacts were uploaded.
	PlateURL string
	SceneURL string

	// TemplateKey is the registry key the template resolved to.
	TemplateKey string

	// Stats contains timing and size information.
	Stats Stats

	// CacheInfo tracks which stages hit the cache.
	CacheInfo CacheInfo
}

// Stats contains pipeline execution statistics.
type Stats struct {
	LoadTime    time.Duration
	ComposeTime time.Duration
	EncodeTime  time.Duration
	UploadTime  time.Duration
	PlateBytes  int
	SceneBytes  int
}

// CacheInfo tracks cache hits for each pipeline stage.
type CacheInfo struct {
	TemplateHit bool // Whether the template raster came from cache
	PlateHit    bool // Whether the encoded plate came from cache
	SceneHit    bool // Whether the encoded scene came from cache
}

// =============================================================================
// Options Methods
// =============================================================================

// ValidateAndSetDefaults checks required fields and applies defaults for the
// full pipeline. This method is idempotent - calling it multiple times has
// the same effect as calling it once.
func (o *Options) ValidateAndSetDefaults() error {
	if o.validated {
		return nil
	}
	if err := o.ValidateForCompose(); err != nil {
		return err
	}
	if o.Background == "" {
		return errors.New(errors.ErrCodeInvalidInput, "background is required")
	}
	if err := o.ValidateForEncode(); err != nil {
		return err
	}
	o.SetUploadDefaults()
	o.validated = true
	return nil
}

// ValidateForCompose checks required fields for composition. The background
// is only required for the full scene pipeline, not for plate-only runs.
func (o *Options) ValidateForCompose() error {
	if err := o.Plate.Validate(); err != nil {
		return err
	}
	if o.TextScale == 0 {
		o.TextScale = 1
	}

	// Logger default
	if o.Logger == nil {
		o.Logger = log.NewWithOptions(io.Discard, log.Options{})
	}

	return nil
}

// ValidateForEncode validates and sets defaults for encoding.
func (o *Options) ValidateForEncode() error {
	if o.PlateFormat == "" {
		o.PlateFormat = DefaultPlateFormat
	}
	if o.SceneFormat == "" {
		o.SceneFormat = DefaultSceneFormat
	}
	if !o.PlateFormat.Valid() {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported plate format %q", o.PlateFormat)
	}
	if !o.SceneFormat.Valid() {
		return errors.New(errors.ErrCodeInvalidFormat, "unsupported scene format %q", o.SceneFormat)
	}
	if o.PlateQuality == 0 {
		o.PlateQuality = encode.DefaultPlateQuality
	}
	if o.SceneQuality == 0 {
		o.SceneQuality = encode.DefaultSceneQuality
	}
	if o.PlateQuality < 0 || o.PlateQuality > 1 || o.SceneQuality < 0 || o.SceneQuality > 1 {
		return errors.New(errors.ErrCodeInvalidInput, "quality must be a fraction in (0, 1]")
	}
	return nil
}

// SetUploadDefaults assigns a listing ID when uploading without one.
func (o *Options) SetUploadDefaults() {
	if o.Upload && o.ListingID == "" {
		o.ListingID = uuid.NewString()
	}
}

// PlateKeyOpts returns cache key options for the encoded plate artifact.
func (o *Options) PlateKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Kind:    "plate",
		Format:  string(o.PlateFormat),
		Quality: o.PlateQuality,
	}
}

// SceneKeyOpts returns cache key options for the encoded scene artifact.
func (o *Options) SceneKeyOpts() cache.ArtifactKeyOpts {
	return cache.ArtifactKeyOpts{
		Kind:    "scene",
		Format:  string(o.SceneFormat),
		Quality: o.SceneQuality,
		Width:   o.TargetWidth,
	}
}
