// Package s3 implements the object store over AWS S3 and S3-compatible
// services (MinIO, Ceph RGW).
package s3

import (
	"context"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/aws/aws-sdk-go-v2/aws"
	awsconfig "github.com/aws/aws-sdk-go-v2/config"
	"github.com/aws/aws-sdk-go-v2/credentials"
	"github.com/aws/aws-sdk-go-v2/service/s3"
	"github.com/aws/smithy-go"
	"github.com/hashicorp/go-hclog"

	"github.com/datacube-forge/stacdex/pkg/store"
)

// Config holds S3 connection settings.
type Config struct {
	// Bucket is the bucket to list and read from.
	Bucket string

	// Region is the AWS region (default "us-east-1").
	Region string

	// Endpoint is a custom endpoint for S3-compatible services. When
	// set, path-style addressing is forced.
	Endpoint string

	// AccessKey and SecretKey are static credentials. When empty the
	// default AWS credential chain applies.
	AccessKey string
	SecretKey string

	// NoSignRequest requests anonymous access for public buckets.
	NoSignRequest bool

	// RequestTimeout bounds each HTTP request (default 60s).
	RequestTimeout time.Duration
}

// Store lists and reads objects from one S3 bucket.
type Store struct {
	client *s3.Client
	cfg    Config
	logger hclog.Logger
}

// New creates an S3-backed store.
func New(ctx context.Context, cfg Config, logger hclog.Logger) (*Store, error) {
	if cfg.Bucket == "" {
		return nil, fmt.Errorf("s3: bucket is required")
	}
	if cfg.Region == "" {
		cfg.Region = "us-east-1"
	}
	if cfg.RequestTimeout <= 0 {
		cfg.RequestTimeout = 60 * time.Second
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}

	httpClient := &http.Client{Timeout: cfg.RequestTimeout}

	opts := []func(*awsconfig.LoadOptions) error{
		awsconfig.WithRegion(cfg.Region),
		awsconfig.WithHTTPClient(httpClient),
	}
	switch {
	case cfg.NoSignRequest:
		opts = append(opts, awsconfig.WithCredentialsProvider(aws.AnonymousCredentials{}))
	case cfg.AccessKey != "" && cfg.SecretKey != "":
		opts = append(opts, awsconfig.WithCredentialsProvider(
			credentials.NewStaticCredentialsProvider(cfg.AccessKey, cfg.SecretKey, ""),
		))
	}

	awsCfg, err := awsconfig.LoadDefaultConfig(ctx, opts...)
	if err != nil {
		return nil, fmt.Errorf("s3: loading AWS config: %w", err)
	}

	client := s3.NewFromConfig(awsCfg, func(o *s3.Options) {
		if cfg.Endpoint != "" {
			o.BaseEndpoint = aws.String(cfg.Endpoint)
			o.UsePathStyle = true
		}
	})

	return &Store{
		client: client,
		cfg:    cfg,
		logger: logger.Named("s3"),
	}, nil
}

// List enumerates objects under prefix with paginated ListObjectsV2
// calls. Pages are produced sequentially so enumeration order is
// stable.
func (s *Store) List(ctx context.Context, prefix string, fn store.ListFunc) error {
	paginator := s3.NewListObjectsV2Paginator(s.client, &s3.ListObjectsV2Input{
		Bucket: aws.String(s.cfg.Bucket),
		Prefix: aws.String(prefix),
	})

	for paginator.HasMorePages() {
		page, err := paginator.NextPage(ctx)
		if err != nil {
			// Listing failures mean discovery cannot proceed at all.
			return fmt.Errorf("%w: listing s3://%s/%s: %v",
				store.ErrUnavailable, s.cfg.Bucket, prefix, err)
		}
		for _, obj := range page.Contents {
			key := aws.ToString(obj.Key)
			o := store.Object{
				URI:  fmt.Sprintf("s3://%s/%s", s.cfg.Bucket, key),
				Size: aws.ToInt64(obj.Size),
			}
			if err := fn(o); err != nil {
				return err
			}
		}
	}
	return nil
}

// Get reads one object, capped at limit bytes.
func (s *Store) Get(ctx context.Context, uri string, limit int64) ([]byte, error) {
	key := strings.TrimPrefix(uri, fmt.Sprintf("s3://%s/", s.cfg.Bucket))

	result, err := s.client.GetObject(ctx, &s3.GetObjectInput{
		Bucket: aws.String(s.cfg.Bucket),
		Key:    aws.String(key),
	})
	if err != nil {
		return nil, classify(err, uri)
	}
	defer result.Body.Close()

	if limit > 0 && result.ContentLength != nil && *result.ContentLength > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", store.ErrTooLarge, uri, *result.ContentLength)
	}

	reader := io.Reader(result.Body)
	if limit > 0 {
		reader = io.LimitReader(result.Body, limit+1)
	}
	body, err := io.ReadAll(reader)
	if err != nil {
		return nil, fmt.Errorf("%w: reading %s: %v", store.ErrTransient, uri, err)
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, fmt.Errorf("%w: %s exceeds %d bytes", store.ErrTooLarge, uri, limit)
	}
	return body, nil
}

// classify maps AWS SDK errors onto the store's failure taxonomy.
func classify(err error, uri string) error {
	var apiErr smithy.APIError
	if errors.As(err, &apiErr) {
		switch apiErr.ErrorCode() {
		case "NoSuchKey", "NotFound", "NoSuchBucket":
			return fmt.Errorf("%w: %s", store.ErrNotFound, uri)
		case "AccessDenied", "InvalidAccessKeyId", "SignatureDoesNotMatch":
			return fmt.Errorf("%w: %s", store.ErrAccessDenied, uri)
		case "SlowDown", "RequestTimeout", "InternalError", "ServiceUnavailable":
			return fmt.Errorf("%w: %s: %v", store.ErrTransient, uri, err)
		}
	}
	if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
		return err
	}
	// Connection-level failures (reset, refused, DNS) surface as
	// generic wrapped errors; treat them as retryable.
	return fmt.Errorf("%w: %s: %v", store.ErrTransient, uri, err)
}
