// Package gcs implements the object store over Google Cloud Storage.
package gcs

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"cloud.google.com/go/storage"
	"github.com/hashicorp/go-hclog"
	"google.golang.org/api/googleapi"
	"google.golang.org/api/iterator"
	"google.golang.org/api/option"

	stacstore "github.com/datacube-forge/stacdex/pkg/store"
)

// Config holds GCS connection settings.
type Config struct {
	// Bucket is the bucket to list and read from.
	Bucket string

	// Anonymous requests unauthenticated access for public buckets.
	Anonymous bool
}

// Store lists and reads objects from one GCS bucket.
type Store struct {
	client *storage.Client
	bucket *storage.BucketHandle
	cfg    Config
	logger hclog.Logger
}

// New creates a GCS-backed store.
func New(ctx context.Context, cfg Config, logger hclog.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("gcs: bucket is required")
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	var opts []option.ClientOption
	if cfg.Anonymous {
		opts = append(opts, option.WithoutAuthentication())
	}
	client, err := storage.NewClient(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("gcs: creating client: %w", err)
	}

	return &Store{
		client: client,
		bucket: client.Bucket(cfg.Bucket),
		cfg:    cfg,
		logger: logger.Named("gcs"),
	}, nil
}

// Close releases the underlying client.
func (s *Store) Close() error { return s.client.Close() }

// List enumerates objects under prefix in lexicographic key order.
func (s *Store) List(ctx context.Context, prefix string, fn stacstore.ListFunc) error {
	it := s.bucket.Objects(ctx, &storage.Query{Prefix: prefix})
	for {
		attrs, err := it.Next()
		if errors.Is(err, iterator.Done) {
			return nil
		}
		if err != nil {
			return fmt.Errorf("%w: listing gs://%s/%s: %v",
				stacstore.ErrUnavailable, s.cfg.Bucket, prefix, err)
		}
		o := stacstore.Object{
			URI:  fmt.Sprintf("gs://%s/%s", s.cfg.Bucket, attrs.Name),
			Size: attrs.Size,
		}
		if err := fn(o); err != nil {
			return err
		}
	}
}

// Get reads one object, capped at limit bytes.
func (s *Store) Get(ctx context.Context, uri string, limit int64) ([]byte, error) {
	key := strings.TrimPrefix(uri, fmt.Sprintf("gs://%s/", s.cfg.Bucket))

	r, err := s.bucket.Object(key).NewReader(ctx)
	if err != nil {
		return nil, classify(err, uri)
	}
	defer r.Close()

	if limit > 0 && r.Attrs.Size > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", stacstore.ErrTooLarge, uri, r.Attrs.Size)
	}

	body, err := io.ReadAll(r)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", stacstore.ErrTransient, uri, err)
	}
	return body, nil
}

// classify maps GCS client errors onto the store's failure taxonomy.
func classify(err error, uri string) error {
	if errors.Is(err, storage.ErrObjectNotExist) || errors.Is(err, storage.ErrBucketNotExist) {
		return fmt.Errorf("%w: %s", stacstore.ErrNotFound, uri)
	}
	var gerr *googleapi.Error
	if errors.As(err, &gerr) {
		switch gerr.Code {
		case http.StatusNotFound:
			return fmt.Errorf("%w: %s", stacstore.ErrNotFound, uri)
		case http.StatusForbidden, http.StatusUnauthorized:
			return fmt.Errorf("%w: %s", stacstore.ErrAccessDenied, uri)
		case http.StatusTooManyRequests, http.StatusInternalServerError,
			http.StatusBadGateway, http.StatusServiceUnavailable:
			return fmt.Errorf("%w: %s: %v", stacstore.ErrTransient, uri, err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	return fmt.Errorf("%w: %s: %v", stacstore.ErrTransient, uri, err)
}
