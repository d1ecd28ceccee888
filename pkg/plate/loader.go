package plate

import (
	"context"

	"github.com/platesouq/platekit/pkg/assets"
	"github.com/platesouq/platekit/pkg/errors"
)

// Loader resolves a plate spec to a loaded template raster.
//
// Resolution policy: the class-suffixed key is tried first; if it is not
// registered, or its asset fails to load, the bare region key is tried
// once. A bare-region failure is fatal; there is no default template.
type Loader struct {
	Registry *Registry
	Assets   *assets.Loader
}

// NewLoader returns a loader over the given registry.
func NewLoader(registry *Registry, assetLoader *assets.Loader) *Loader {
	if assetLoader == nil {
		assetLoader = assets.NewLoader()
	}
	return &Loader{Registry: registry, Assets: assetLoader}
}

// Load resolves and loads the template for spec.
func (l *Loader) Load(ctx context.Context, spec Spec) (*Template, error) {
	key := spec.TemplateKey()

	if tpl, err := l.loadKey(ctx, key); err == nil {
		return tpl, nil
	}

	// Fall back once to the bare region key.
	if key != spec.Region {
		if tpl, err := l.loadKey(ctx, spec.Region); err == nil {
			return tpl, nil
		}
	}

	return nil, errors.New(errors.ErrCodeTemplateNotFound, "no template found for %q", key)
}

func (l *Loader) loadKey(ctx context.Context, key string) (*Template, error) {
	location, ok := l.Registry.Lookup(key)
	if !ok {
		return nil, errors.New(errors.ErrCodeTemplateNotFound, "template key %q not registered", key)
	}
	img, err := l.Assets.Load(ctx, location)
	if err != nil {
		return nil, err
	}
	return &Template{Key: key, Image: img}, nil
}
