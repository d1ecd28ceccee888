package storage

import (
	"context"
	"strings"

	"go.mongodb.org/mongo-driver/bson"
	"go.mongodb.org/mongo-driver/bson/primitive"
	"go.mongodb.org/mongo-driver/mongo"
	"go.mongodb.org/mongo-driver/mongo/gridfs"
	"go.mongodb.org/mongo-driver/mongo/options"

	"github.com/platesouq/platekit/pkg/errors"
)

// GridFSStore persists artifacts in a MongoDB GridFS bucket, keyed by
// object path as the GridFS filename.
type GridFSStore struct {
	bucket  *gridfs.Bucket
	baseURL string
}

// NewGridFSStore creates a store over the given database. Objects are
// served under baseURL by whatever delivery layer fronts the bucket.
func NewGridFSStore(db *mongo.Database, baseURL string) (*GridFSStore, error) {
	bucket, err := gridfs.NewBucket(db)
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpload, err, "open gridfs bucket")
	}
	return &GridFSStore{bucket: bucket, baseURL: strings.TrimSuffix(baseURL, "/")}, nil
}

// Upload writes data under path. With upsert, any prior object at the
// same path is deleted first so the path stays unique.
func (s *GridFSStore) Upload(ctx context.Context, path string, data []byte, opts UploadOptions) (string, error) {
	existing, err := s.find(ctx, path)
	if err != nil {
		return "", err
	}
	if len(existing) > 0 && !opts.Upsert {
		return "", errors.New(errors.ErrCodeUpload, "object %s already exists", path)
	}
	for _, id := range existing {
		if err := s.bucket.Delete(id); err != nil {
			return "", errors.Wrap(errors.ErrCodeUpload, err, "replace object %s", path)
		}
	}

	meta := bson.M{}
	if opts.ContentType != "" {
		meta["contentType"] = opts.ContentType
	}
	if opts.CacheControl != "" {
		meta["cacheControl"] = opts.CacheControl
	}

	stream, err := s.bucket.OpenUploadStream(path, options.GridFSUpload().SetMetadata(meta))
	if err != nil {
		return "", errors.Wrap(errors.ErrCodeUpload, err, "open upload stream for %s", path)
	}
	if _, err := stream.Write(data); err != nil {
		_ = stream.Close()
		return "", errors.Wrap(errors.ErrCodeUpload, err, "write object %s", path)
	}
	if err := stream.Close(); err != nil {
		return "", errors.Wrap(errors.ErrCodeUpload, err, "finalize object %s", path)
	}

	return s.baseURL + "/" + path, nil
}

// Remove deletes all objects stored under path; a missing object is not
// an error.
func (s *GridFSStore) Remove(ctx context.Context, path string) error {
	ids, err := s.find(ctx, path)
	if err != nil {
		return err
	}
	for _, id := range ids {
		if err := s.bucket.Delete(id); err != nil && err != gridfs.ErrFileNotFound {
			return errors.Wrap(errors.ErrCodeUpload, err, "remove object %s", path)
		}
	}
	return nil
}

// find returns the IDs of files stored under path.
func (s *GridFSStore) find(ctx context.Context, path string) ([]primitive.ObjectID, error) {
	cursor, err := s.bucket.Find(bson.M{"filename": path})
	if err != nil {
		return nil, errors.Wrap(errors.ErrCodeUpload, err, "query object %s", path)
	}
	defer cursor.Close(ctx)

	var ids []primitive.ObjectID
	for cursor.Next(ctx) {
		var file struct {
			ID primitive.ObjectID `bson:"_id"`
		}
		if err := cursor.Decode(&file); err != nil {
			return nil, errors.Wrap(errors.ErrCodeUpload, err, "decode object metadata for %s", path)
		}
		ids = append(ids, file.ID)
	}
	return ids, cursor.Err()
}

var _ Store = (*GridFSStore)(nil)
