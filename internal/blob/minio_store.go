// Package blob stores article image objects in S3-compatible storage.
//
// Images are referenced from articles by object key. The service layer only
// removes objects here after the owning database write has committed, so a
// failed or rolled-back update never orphans the article's current image.
package blob

import (
	"context"
	"errors"
	"fmt"

	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// ErrObjectNotFound reports a missing object key.
var ErrObjectNotFound = errors.New("image object not found")

// ImageStore wraps a MinIO client scoped to a single bucket.
type ImageStore struct {
	client *minio.Client
	bucket string
}

type Config struct {
	Endpoint  string
	AccessKey string
	SecretKey string
	Bucket    string
	UseSSL    bool
}

// NewImageStore connects to the object store and ensures the bucket exists.
func NewImageStore(ctx context.Context, cfg Config) (*ImageStore, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("connect to object store: %w", err)
	}

	exists, err := client.BucketExists(ctx, cfg.Bucket)
	if err != nil {
		return nil, fmt.Errorf("check bucket: %w", err)
	}
	if !exists {
		if err := client.MakeBucket(ctx, cfg.Bucket, minio.MakeBucketOptions{}); err != nil {
			return nil, fmt.Errorf("create bucket: %w", err)
		}
	}

	return &ImageStore{client: client, bucket: cfg.Bucket}, nil
}

// Remove deletes an image object. Removing a key that does not exist is a
// no-op; the store treats the object as already gone.
func (s *ImageStore) Remove(ctx context.Context, key string) error {
	if key == "" {
		return nil
	}
	if err := s.client.RemoveObject(ctx, s.bucket, key, minio.RemoveObjectOptions{}); err != nil {
		return fmt.Errorf("remove image %s: %w", key, err)
	}
	return nil
}

// Stat reports the size of a stored image object.
func (s *ImageStore) Stat(ctx context.Context, key string) (int64, error) {
	info, err := s.client.StatObject(ctx, s.bucket, key, minio.StatObjectOptions{})
	if err != nil {
		var resp minio.ErrorResponse
		if errors.As(err, &resp) && resp.Code == "NoSuchKey" {
			return 0, ErrObjectNotFound
		}
		return 0, fmt.Errorf("stat image %s: %w", key, err)
	}
	return info.Size, nil
}
