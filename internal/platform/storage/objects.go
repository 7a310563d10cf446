package storage

import (
	"context"
	"errors"
	"strings"

	gcs "cloud.google.com/go/storage"
)

// ErrObjectNotFound is returned when the object does not exist in the bucket.
var ErrObjectNotFound = errors.New("storage: object not found")

// ObjectInfo is the subset of object attributes the media flow needs.
type ObjectInfo struct {
	Size        int64
	ContentType string
}

// Objects inspects and removes objects in a bucket.
type Objects struct {
	bucket *gcs.BucketHandle
}

// NewObjects binds an object helper to bucket.
func NewObjects(client *gcs.Client, bucket string) (*Objects, error) {
	if client == nil {
		return nil, errors.New("storage objects: client is required")
	}
	bucket = strings.TrimSpace(bucket)
	if bucket == "" {
		return nil, errInvalidBucket
	}
	return &Objects{bucket: client.Bucket(bucket)}, nil
}

// Stat returns the attributes of object.
func (o *Objects) Stat(ctx context.Context, object string) (ObjectInfo, error) {
	attrs, err := o.bucket.Object(object).Attrs(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return ObjectInfo{}, ErrObjectNotFound
	}
	if err != nil {
		return ObjectInfo{}, err
	}
	return ObjectInfo{Size: attrs.Size, ContentType: attrs.ContentType}, nil
}

// Delete removes object. A missing object is not an error.
func (o *Objects) Delete(ctx context.Context, object string) error {
	err := o.bucket.Object(object).Delete(ctx)
	if errors.Is(err, gcs.ErrObjectNotExist) {
		return nil
	}
	return err
}
