package source

import (
	"context"
	"fmt"
	"io"
	"path"
	"strings"

	"github.com/kozaktomas/face-search/internal/config"
	"github.com/kozaktomas/face-search/internal/gallery"
	"github.com/minio/minio-go/v7"
	"github.com/minio/minio-go/v7/pkg/credentials"
)

// Bucket reads reference images from a MinIO/S3 bucket under an optional prefix.
// Only objects directly under the prefix are listed, like Dir.
type Bucket struct {
	client *minio.Client
	bucket string
	prefix string
}

// NewMinIOClient creates a MinIO client from the bucket configuration.
func NewMinIOClient(cfg *config.BucketConfig) (*minio.Client, error) {
	client, err := minio.New(cfg.Endpoint, &minio.Options{
		Creds:  credentials.NewStaticV4(cfg.AccessKey, cfg.SecretKey, ""),
		Secure: cfg.UseSSL,
	})
	if err != nil {
		return nil, fmt.Errorf("creating MinIO client: %w", err)
	}
	return client, nil
}

// NewBucket creates a bucket source.
func NewBucket(client *minio.Client, bucket, prefix string) *Bucket {
	if prefix != "" && !strings.HasSuffix(prefix, "/") {
		prefix += "/"
	}
	return &Bucket{client: client, bucket: bucket, prefix: prefix}
}

// List returns the objects directly under the prefix.
func (b *Bucket) List(ctx context.Context) ([]gallery.SourceItem, error) {
	exists, err := b.client.BucketExists(ctx, b.bucket)
	if err != nil {
		return nil, fmt.Errorf("checking bucket %s: %w", b.bucket, err)
	}
	if !exists {
		return nil, fmt.Errorf("%w: bucket %s", gallery.ErrSourceMissing, b.bucket)
	}

	var items []gallery.SourceItem
	for obj := range b.client.ListObjects(ctx, b.bucket, minio.ListObjectsOptions{Prefix: b.prefix}) {
		if obj.Err != nil {
			return nil, fmt.Errorf("listing bucket %s: %w", b.bucket, obj.Err)
		}
		if strings.HasSuffix(obj.Key, "/") {
			continue // common prefix, i.e. a "subdirectory"
		}
		items = append(items, gallery.SourceItem{Key: obj.Key, Filename: path.Base(obj.Key)})
	}
	return items, nil
}

// Read downloads one object.
func (b *Bucket) Read(ctx context.Context, item gallery.SourceItem) ([]byte, error) {
	obj, err := b.client.GetObject(ctx, b.bucket, item.Key, minio.GetObjectOptions{})
	if err != nil {
		return nil, fmt.Errorf("getting object %s: %w", item.Key, err)
	}
	defer obj.Close()

	data, err := io.ReadAll(obj)
	if err != nil {
		return nil, fmt.Errorf("reading object %s: %w", item.Key, err)
	}
	return data, nil
}

// Location returns the bucket URL-ish description.
func (b *Bucket) Location() string {
	return "s3://" + b.bucket + "/" + b.prefix
}
