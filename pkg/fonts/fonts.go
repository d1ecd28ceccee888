// Package fonts resolves and caches the typefaces used for plate text and
// gold overlay text.
//
// A bundled fallback typeface (Go Regular) guarantees that exports never
// silently change appearance on hosts without the configured display font.
// Parsed fonts and derived faces are cached inside a [Library] instance
// rather than module-level state, so callers own the cache lifetime and
// tests can reset it.
package fonts

import (
	"os"
	"sync"

	"github.com/flopp/go-findfont"
	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"

	"github.com/platesouq/platekit/pkg/errors"
)

// FallbackFamily is the bundled typeface used when no family is configured.
const FallbackFamily = "Go Regular"

type faceKey struct {
	family string
	size   float64
}

// Library parses typefaces on demand and caches them along with the
// size-specific faces derived from them. Safe for concurrent use.
type Library struct {
	mu     sync.Mutex
	parsed map[string]*truetype.Font
	faces  map[faceKey]font.Face
}

// NewLibrary returns an empty font library.
func NewLibrary() *Library {
	return &Library{
		parsed: make(map[string]*truetype.Font),
		faces:  make(map[faceKey]font.Face),
	}
}

// Face returns a rendering face for the family at the given point size.
// An empty family selects the bundled fallback. A configured family that
// cannot be located on the host is an error, not a silent substitution.
func (l *Library) Face(family string, size float64) (font.Face, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	key := faceKey{family: family, size: size}
	if face, ok := l.faces[key]; ok {
		return face, nil
	}

	f, err := l.parseLocked(family)
	if err != nil {
		return nil, err
	}

	face := truetype.NewFace(f, &truetype.Options{Size: size, DPI: 72})
	l.faces[key] = face
	return face, nil
}

// Reset drops all cached fonts and faces.
func (l *Library) Reset() {
	l.mu.Lock()
	defer l.mu.Unlock()
	l.parsed = make(map[string]*truetype.Font)
	l.faces = make(map[faceKey]font.Face)
}

// parseLocked returns the parsed font for a family, loading it on first use.
// Callers must hold l.mu.
func (l *Library) parseLocked(family string) (*truetype.Font, error) {
	if f, ok := l.parsed[family]; ok {
		return f, nil
	}

	var data []byte
	if family == "" || family == FallbackFamily {
		data = goregular.TTF
	} else {
		path, err := findfont.Find(family + ".ttf")
		if err != nil {
			if path, err = findfont.Find(family); err != nil {
				return nil, errors.Wrap(errors.ErrCodeFontNotFound, err, "locate font family %q", family)
			}
		}
		if data, err = os.ReadFile(path); err != nil {
			return nil, errors.Wrap(errors.ErrCodeFontNotFound, err, "read font file %s", path)
		}
	}

	f, err := truetype.Parse(data)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeFontNotFound, err, "parse font family %q", family)
	}
	l.parsed[family] = f
	return f, nil
}
