// Package plate models vehicle number plates: the listing-supplied spec,
// the template registry, the template loader with its fallback policy, and
// the per-region text anchor table.
package plate

import (
	"image"
	"strings"

	"github.com/platesouq/platekit/pkg/errors"
)

// Class is the vehicle class of a plate. It determines which template
// artwork and which text anchors apply.
type Class string

// Supported vehicle classes.
const (
	ClassPrivate Class = "private"
	ClassBike    Class = "bike"
	ClassClassic Class = "classic"
)

// Valid reports whether the class is one of the supported values.
func (c Class) Valid() bool {
	switch c {
	case ClassPrivate, ClassBike, ClassClassic:
		return true
	}
	return false
}

// Suffix returns the template key suffix for the class. Private plates use
// the bare region key.
func (c Class) Suffix() string {
	if c == ClassPrivate {
		return ""
	}
	return "_" + string(c)
}

// Spec fully determines a plate's artwork: region, series code, number,
// and vehicle class. It is created once per listing and regenerating the
// raster after an edit replaces the whole artifact.
type Spec struct {
	Region string `json:"region" toml:"region"`
	Code   string `json:"code" toml:"code"`
	Number string `json:"number" toml:"number"`
	Class  Class  `json:"class" toml:"class"`
}

// Validate checks required fields and normalizes defaults: an empty class
// means private.
func (s *Spec) Validate() error {
	s.Region = strings.ToLower(strings.TrimSpace(s.Region))
	if s.Region == "" {
		return errors.New(errors.ErrCodeInvalidRegion, "region is required")
	}
	if s.Number == "" {
		return errors.New(errors.ErrCodeInvalidInput, "plate number is required")
	}
	if s.Class == "" {
		s.Class = ClassPrivate
	}
	if !s.Class.Valid() {
		return errors.New(errors.ErrCodeInvalidClass, "unknown vehicle class %q", s.Class)
	}
	return nil
}

// TemplateKey returns the registry key for the spec's template:
// "{region}" for private plates, "{region}_{class}" otherwise.
func (s Spec) TemplateKey() string {
	return s.Region + s.Class.Suffix()
}

// Template is a loaded template raster with the registry key it resolved to
// (which may be the bare region key after fallback).
type Template struct {
	Key   string
	Image image.Image
}
