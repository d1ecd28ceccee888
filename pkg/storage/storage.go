// Package storage defines the upload/delete collaborator the compositor
// hands encoded artifacts to, plus local-disk and GridFS implementations.
//
// The compositor only produces bytes; the store owns persistence and
// lifecycle. Uploads use an upsert policy so regenerating a listing's
// artwork overwrites the prior artifact at its deterministic path.
// Deletions are best-effort: stale objects are a cleanup concern, not a
// correctness one.
package storage

import (
	"context"
	"fmt"
)

// UploadOptions carry object metadata and the overwrite policy.
type UploadOptions struct {
	ContentType  string
	CacheControl string

	// Upsert overwrites an existing object at the same path. Without it,
	// uploading to an occupied path is an error.
	Upsert bool
}

// Store persists encoded artifacts.
type Store interface {
	// Upload writes data at path and returns the object's public URL.
	Upload(ctx context.Context, path string, data []byte, opts UploadOptions) (string, error)

	// Remove deletes the object at path. Removing a missing object is not
	// an error.
	Remove(ctx context.Context, path string) error
}

// ObjectPath returns the deterministic storage path for a listing's plate
// artifact, keyed by region folder and listing identifier.
func ObjectPath(region, listingID, ext string) string {
	return fmt.Sprintf("plates/%s/%s.%s", region, listingID, ext)
}

// DefaultCacheControl is applied to uploaded artifacts unless overridden.
const DefaultCacheControl = "public, max-age=31536000"
