// Package gcs provides a page archive backed by Google Cloud Storage.
package gcs

import (
	"context"
	"fmt"
	"strings"

	"cloud.google.com/go/storage"
)

// pageContentType is stamped on every archived object so pages can be
// viewed directly from the bucket.
const pageContentType = "text/html; charset=utf-8"

// Config captures the parameters required to archive pages in GCS.
type Config struct {
	// Bucket is the name of the destination bucket.
	Bucket string `mapstructure:"bucket" yaml:"bucket"`
}

// Archive writes fetched pages to a GCS bucket.
type Archive struct {
	client *storage.Client
	bucket string
}

// New creates a GCS-backed archive. Authentication is handled via
// Google's Application Default Credentials. The bucket attributes are
// read once so a bad bucket name or missing permissions fail at startup
// rather than on the first archived page.
func New(ctx context.Context, cfg Config) (*Archive, error) {
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	client, err := storage.NewClient(ctx)
	if err != nil {
		return nil, fmt.Errorf("create storage client: %w", err)
	}
	if _, err := client.Bucket(cfg.Bucket).Attrs(ctx); err != nil {
		if closeErr := client.Close(); closeErr != nil {
			return nil, fmt.Errorf("read bucket %q attributes: %w (close client: %v)", cfg.Bucket, err, closeErr)
		}
		return nil, fmt.Errorf("read bucket %q attributes: %w", cfg.Bucket, err)
	}
	return &Archive{client: client, bucket: cfg.Bucket}, nil
}

// NewWithClient wires an existing storage client, which keeps the
// archive constructible without credentials.
func NewWithClient(client *storage.Client, cfg Config) (*Archive, error) {
	if client == nil {
		return nil, fmt.Errorf("storage client is required")
	}
	if strings.TrimSpace(cfg.Bucket) == "" {
		return nil, fmt.Errorf("bucket name is required")
	}
	return &Archive{client: client, bucket: cfg.Bucket}, nil
}

// Save uploads body to the configured bucket and returns a gs:// URI.
func (a *Archive) Save(ctx context.Context, key string, body []byte) (string, error) {
	if strings.TrimSpace(key) == "" {
		return "", fmt.Errorf("key is required")
	}
	writer := a.client.Bucket(a.bucket).Object(key).NewWriter(ctx)
	writer.ContentType = pageContentType
	if _, err := writer.Write(body); err != nil {
		if closeErr := writer.Close(); closeErr != nil {
			return "", fmt.Errorf("write object: %w (close writer: %v)", err, closeErr)
		}
		return "", fmt.Errorf("write object: %w", err)
	}
	// Close finalizes the upload and flushes any buffered data.
	if err := writer.Close(); err != nil {
		return "", fmt.Errorf("close writer: %w", err)
	}
	return fmt.Sprintf("gs://%s/%s", a.bucket, key), nil
}

// Close releases the underlying storage client.
func (a *Archive) Close() error {
	return a.client.Close()
}
