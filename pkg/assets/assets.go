// Package assets loads raster assets (plate templates, vehicle
// backgrounds) from files, URLs, or inline data URLs into decoded images.
//
// PNG, JPEG, and WebP sources are supported. Loading is fail-fast: a fetch
// or decode error aborts the caller's whole generation, there is no retry
// and no placeholder image.
package assets

import (
	"bytes"
	"context"
	"encoding/base64"
	"image"
	"io"
	"net/http"
	"os"
	"strings"
	"time"

	"github.com/disintegration/imaging"

	// Register WebP decoding for template assets stored as .webp.
	_ "golang.org/x/image/webp"

	"github.com/platesouq/platekit/pkg/errors"
)

// DefaultFetchTimeout bounds remote asset fetches when the caller's
// context carries no deadline of its own.
const DefaultFetchTimeout = 30 * time.Second

// Loader fetches and decodes raster assets.
// The zero value is usable and fetches remote assets with a default client.
type Loader struct {
	// Client is used for http(s) locations. Nil means a client with
	// DefaultFetchTimeout.
	Client *http.Client
}

// NewLoader returns a loader with a timeout-bounded HTTP client.
func NewLoader() *Loader {
	return &Loader{Client: &http.Client{Timeout: DefaultFetchTimeout}}
}

// Load resolves a location (file path, http(s) URL, or data URL) and
// decodes it into an image.
func (l *Loader) Load(ctx context.Context, location string) (image.Image, error) {
	data, err := l.Fetch(ctx, location)
	if err != nil {
		return nil, err
	}
	img, err := imaging.Decode(bytes.NewReader(data))
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssetLoad, err, "decode asset %s", describe(location))
	}
	return img, nil
}

// Fetch resolves a location to its raw bytes without decoding.
func (l *Loader) Fetch(ctx context.Context, location string) ([]byte, error) {
	switch {
	case strings.HasPrefix(location, "data:"):
		return decodeDataURL(location)
	case strings.HasPrefix(location, "http://"), strings.HasPrefix(location, "https://"):
		return l.fetchRemote(ctx, location)
	default:
		data, err := os.ReadFile(location)
		if err != nil {
			return nil, errors.Wrap(errors.ErrCodeAssetLoad, err, "read asset file %s", location)
		}
		return data, nil
	}
}

func (l *Loader) fetchRemote(ctx context.Context, url string) ([]byte, error) {
	client := l.Client
	if client == nil {
		client = &http.Client{Timeout: DefaultFetchTimeout}
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssetLoad, err, "build request for %s", url)
	}
	resp, err := client.Do(req)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "fetch %s", url)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, errors.New(errors.ErrCodeAssetLoad, "fetch %s: status %d", url, resp.StatusCode)
	}
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeNetwork, err, "read body of %s", url)
	}
	return data, nil
}

// decodeDataURL decodes an RFC 2397 data URL ("data:image/png;base64,...").
func decodeDataURL(location string) ([]byte, error) {
	_, payload, ok := strings.Cut(location, ",")
	if !ok {
		return nil, errors.New(errors.ErrCodeAssetLoad, "malformed data URL")
	}
	data, err := base64.StdEncoding.DecodeString(payload)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeAssetLoad, err, "decode data URL payload")
	}
	return data, nil
}

// describe shortens data URLs for error messages.
func describe(location string) string {
	if strings.HasPrefix(location, "data:") {
		return "data URL"
	}
	return location
}
