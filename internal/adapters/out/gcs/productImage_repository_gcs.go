package gcs

import (
	"context"
	"errors"
	"strings"

	"cloud.google.com/go/storage"

	gcscommon "shoporia/internal/adapters/out/gcs/common"
)

// ProductImageRepositoryGCS stores product images as GCS objects
// (implements usecase.ImageStore).
//
// Layout (single bucket):
//   - objectPath: stores/{storeId}/products/{productId}/<fileName>
//
// Public access: with "allUsers: Storage Object Viewer" on the bucket
// (uniform access), uploaded objects are publicly readable without
// per-object ACL changes.
type ProductImageRepositoryGCS struct {
	Client *storage.Client
	Bucket string
}

func NewProductImageRepositoryGCS(client *storage.Client, bucket string) *ProductImageRepositoryGCS {
	return &ProductImageRepositoryGCS{
		Client: client,
		Bucket: strings.TrimSpace(bucket),
	}
}

func (r *ProductImageRepositoryGCS) bucketHandle() (*storage.BucketHandle, error) {
	if r == nil || r.Client == nil {
		return nil, errors.New("productImage_repository_gcs: storage client is nil")
	}
	if r.Bucket == "" {
		return nil, errors.New("productImage_repository_gcs: bucket is empty")
	}
	return r.Client.Bucket(r.Bucket), nil
}

// Upload writes the object and returns its public URL.
func (r *ProductImageRepositoryGCS) Upload(ctx context.Context, objectPath string, data []byte, contentType string) (string, error) {
	bh, err := r.bucketHandle()
	if err != nil {
		return "", err
	}
	obj := strings.TrimLeft(strings.TrimSpace(objectPath), "/")
	if obj == "" {
		return "", errors.New("productImage_repository_gcs: objectPath is empty")
	}

	w := bh.Object(obj).NewWriter(ctx)
	if ct := strings.TrimSpace(contentType); ct != "" {
		w.ContentType = ct
	}
	if _, err := w.Write(data); err != nil {
		_ = w.Close()
		return "", err
	}
	if err := w.Close(); err != nil {
		return "", err
	}
	return gcscommon.PublicURL(r.Bucket, obj), nil
}

// Remove deletes the object behind a public URL. Missing objects are not an
// error.
func (r *ProductImageRepositoryGCS) Remove(ctx context.Context, rawURL string) error {
	if r == nil || r.Client == nil {
		return errors.New("productImage_repository_gcs: storage client is nil")
	}
	bucket, obj, ok := gcscommon.ParseURL(rawURL)
	if !ok {
		return errors.New("productImage_repository_gcs: not a GCS url")
	}
	err := r.Client.Bucket(bucket).Object(obj).Delete(ctx)
	if err != nil && err != storage.ErrObjectNotExist {
		return err
	}
	return nil
}
