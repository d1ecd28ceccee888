package cache

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"fmt"
)

// Keyer generates cache keys for the compositor's entry kinds.
type Keyer interface {
	// AssetKey keys a fetched asset's raw bytes by its location.
	AssetKey(location string) string

	// TemplateKey keys a loaded template raster by registry key.
	TemplateKey(templateKey string) string

	// ArtifactKey keys an encoded output by the content hash of its
	// pre-encode inputs plus the encoding options.
	ArtifactKey(contentHash string, opts ArtifactKeyOpts) string
}

// ArtifactKeyOpts distinguishes encoded artifacts rendered from the same
// inputs with different output settings.
type ArtifactKeyOpts struct {
	Kind    string  // "plate" or "scene"
	Format  string  // output format name
	Quality float64 // encode quality fraction
	Width   int     // normalized target width (scenes)
}

// DefaultKeyer hashes key components with SHA-256.
type DefaultKeyer struct{}

// NewDefaultKeyer creates the standard keyer.
func NewDefaultKeyer() Keyer {
	return &DefaultKeyer{}
}

// AssetKey generates a key for raw asset bytes.
func (k *DefaultKeyer) AssetKey(location string) string {
	return hashKey("asset", location)
}

// TemplateKey generates a key for a loaded template raster.
func (k *DefaultKeyer) TemplateKey(templateKey string) string {
	return hashKey("template", templateKey)
}

// ArtifactKey generates a key for an encoded artifact.
func (k *DefaultKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return hashKey("artifact", contentHash, opts)
}

// ScopedKeyer wraps a Keyer with a prefix, isolating cache namespaces
// (e.g. per tenant or per environment sharing one Redis).
type ScopedKeyer struct {
	inner  Keyer
	prefix string
}

// NewScopedKeyer creates a keyer that prepends prefix to all keys.
// A nil inner keyer means the default keyer.
func NewScopedKeyer(inner Keyer, prefix string) Keyer {
	if inner == nil {
		inner = NewDefaultKeyer()
	}
	return &ScopedKeyer{inner: inner, prefix: prefix}
}

// AssetKey generates a prefixed asset key.
func (k *ScopedKeyer) AssetKey(location string) string {
	return k.prefix + k.inner.AssetKey(location)
}

// TemplateKey generates a prefixed template key.
func (k *ScopedKeyer) TemplateKey(templateKey string) string {
	return k.prefix + k.inner.TemplateKey(templateKey)
}

// ArtifactKey generates a prefixed artifact key.
func (k *ScopedKeyer) ArtifactKey(contentHash string, opts ArtifactKeyOpts) string {
	return k.prefix + k.inner.ArtifactKey(contentHash, opts)
}

// hashKey generates a cache key by hashing the components.
// The key format is: prefix:hash(parts...).
func hashKey(prefix string, parts ...any) string {
	data, _ := json.Marshal(parts)
	sum := sha256.Sum256(data)
	return fmt.Sprintf("%s:%s", prefix, hex.EncodeToString(sum[:]))
}

// Hash computes the SHA-256 hash of data as a 64-character hex string.
// Used to derive content-addressed artifact keys.
func Hash(data []byte) string {
	sum := sha256.Sum256(data)
	return hex.EncodeToString(sum[:])
}
