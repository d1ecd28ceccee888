package plate

import (
	"os"
	"sort"

	"github.com/BurntSushi/toml"

	"github.com/platesouq/platekit/pkg/errors"
)

// Registry maps template keys ("dubai", "dubai_bike", ...) to asset
// locations (file path, URL, or data URL). The compositor treats it as
// read-only configuration; it is populated once at startup.
type Registry struct {
	entries map[string]string
}

// NewRegistry returns an empty registry.
func NewRegistry() *Registry {
	return &Registry{entries: make(map[string]string)}
}

// Register adds or replaces a template location.
func (r *Registry) Register(key, location string) {
	r.entries[key] = location
}

// Lookup returns the location registered for key.
func (r *Registry) Lookup(key string) (string, bool) {
	loc, ok := r.entries[key]
	return loc, ok
}

// Keys returns all registered keys, sorted.
func (r *Registry) Keys() []string {
	keys := make([]string, 0, len(r.entries))
	for k := range r.entries {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}

// registryFile is the TOML shape of a registry config:
//
//	[templates]
//	dubai = "assets/templates/dubai.png"
//	dubai_bike = "assets/templates/dubai_bike.png"
type registryFile struct {
	Templates map[string]string `toml:"templates"`
}

// ParseRegistry parses a TOML registry document.
func ParseRegistry(data []byte) (*Registry, error) {
	var f registryFile
	if err := toml.Unmarshal(data, &f); err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "parse template registry")
	}
	r := NewRegistry()
	for k, loc := range f.Templates {
		r.Register(k, loc)
	}
	return r, nil
}

// LoadRegistry reads and parses a TOML registry file.
func LoadRegistry(path string) (*Registry, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeInvalidInput, err, "read template registry %s", path)
	}
	return ParseRegistry(data)
}
