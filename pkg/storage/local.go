package storage

import (
	"context"
	"os"
	"path/filepath"
	"strings"

	"github.com/platesouq/platekit/pkg/errors"
)

// LocalStore persists artifacts under a directory root and serves them
// under a base URL. Used for development and CLI output.
type LocalStore struct {
	Root    string
	BaseURL string
}

// NewLocalStore creates a store rooted at dir.
func NewLocalStore(dir, baseURL string) (*LocalStore, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpload, err, "create store root %s", dir)
	}
	return &LocalStore{Root: dir, BaseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload writes data at path, honoring the upsert policy.
func (s *LocalStore) Upload(ctx context.Context, path string, data []byte, opts UploadOptions) (string, error) {
	full := filepath.Join(s.Root, filepath.FromSlash(path))
	if err := os.MkdirAll(filepath.Dir(full), 0o755); err != nil {
		return "", errors.Wrap(errors.ErrCodeUpload, err, "create object directory")
	}

	if !opts.Upsert {
		if _, err := os.Stat(full); err == nil {
			return "", errors.New(errors.ErrCodeUpload, "object %s already exists", path)
		}
	}

	if err := os.WriteFile(full, data, 0o644); err != nil {
		return "", errors.Wrap(errors.ErrCodeUpload, err, "write object %s", path)
	}
	return s.BaseURL + "/" + path, nil
}

// Remove deletes the object; missing objects are ignored.
func (s *LocalStore) Remove(ctx context.Context, path string) error {
	err := os.Remove(filepath.Join(s.Root, filepath.FromSlash(path)))
	if err != nil && !os.IsNotExist(err) {
		return errors.Wrap(errors.ErrCodeUpload, err, "remove object %s", path)
	}
	return nil
}

var _ Store = (*LocalStore)(nil)
