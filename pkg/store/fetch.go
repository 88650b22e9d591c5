package store

import (
	"context"
	"errors"
	"time"

	"github.com/cenkalti/backoff/v4"
	"github.com/hashicorp/go-hclog"
)

// DefaultMaxObjectSize caps document reads at 64 MiB. Metadata
// documents are small; anything near this limit is not one.
const DefaultMaxObjectSize = 64 << 20

// FetcherConfig holds retry and size-limit settings for a Fetcher.
type FetcherConfig struct {
	// MaxAttempts is the total number of attempts for transient
	// failures (default 3).
	MaxAttempts int

	// InitialBackoff is the first retry delay (default 500ms).
	InitialBackoff time.Duration

	// MaxObjectSize caps the bytes read per object (default
	// DefaultMaxObjectSize).
	MaxObjectSize int64
}

// Fetcher retrieves single documents from a Store, retrying transient
// failures with bounded exponential backoff. All other failure kinds
// are returned to the caller immediately as final.
type Fetcher struct {
	store  Store
	cfg    FetcherConfig
	logger hclog.Logger
}

// NewFetcher creates a fetcher over the given store.
func NewFetcher(store Store, cfg FetcherConfig, logger hclog.Logger) *Fetcher {
	if cfg.MaxAttempts <= 0 {
		cfg.MaxAttempts = 3
	}
	if cfg.InitialBackoff <= 0 {
		cfg.InitialBackoff = 500 * time.Millisecond
	}
	if cfg.MaxObjectSize <= 0 {
		cfg.MaxObjectSize = DefaultMaxObjectSize
	}
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Fetcher{store: store, cfg: cfg, logger: logger.Named("fetcher")}
}

// Fetch returns the raw bytes of one object. Transient failures are
// retried up to MaxAttempts; NotFound, AccessDenied and TooLarge are
// final on the first occurrence.
func (f *Fetcher) Fetch(ctx context.Context, uri string) ([]byte, error) {
	bo := backoff.NewExponentialBackOff()
	bo.InitialInterval = f.cfg.InitialBackoff

	attempt := 0
	var body []byte
	op := func() error {
		attempt++
		b, err := f.store.Get(ctx, uri, f.cfg.MaxObjectSize)
		if err != nil {
			if errors.Is(err, ErrTransient) && attempt < f.cfg.MaxAttempts {
				f.logger.Debug("transient fetch failure, retrying",
					"uri", uri, "attempt", attempt, "error", err)
				return err
			}
			return backoff.Permanent(err)
		}
		body = b
		return nil
	}

	if err := backoff.Retry(op, backoff.WithContext(bo, ctx)); err != nil {
		return nil, err
	}
	return body, nil
}
