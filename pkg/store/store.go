package store

import (
	"context"
	"errors"
)

// Sentinel errors returned by Store implementations. Callers classify
// per-object failures with errors.Is; only ErrUnavailable aborts a run.
var (
	// ErrUnavailable indicates the store itself cannot be reached or
	// enumerated (network or auth failure at the root). Fatal.
	ErrUnavailable = errors.New("object store unavailable")

	// ErrNotFound indicates the object does not exist.
	ErrNotFound = errors.New("object not found")

	// ErrAccessDenied indicates the caller is not permitted to read the
	// object.
	ErrAccessDenied = errors.New("access denied")

	// ErrTransient indicates a retryable failure (timeout, connection
	// reset, throttling).
	ErrTransient = errors.New("transient store error")

	// ErrTooLarge indicates the object exceeds the configured byte
	// ceiling.
	ErrTooLarge = errors.New("object exceeds size limit")
)

// Object describes one listed object.
type Object struct {
	// URI is the fully qualified object URI (e.g. "s3://bucket/key").
	URI string

	// Size is the object size in bytes, when the backend reports it.
	Size int64
}

// ListFunc is invoked once per listed object. Returning an error stops
// the listing and is propagated to the List caller.
type ListFunc func(Object) error

// Store is the minimal object-storage surface the indexing pipeline
// needs: paginated listing under a prefix and single-object reads.
type Store interface {
	// List enumerates objects under the given key prefix in a stable
	// order, invoking fn for each. The full result set is never
	// materialized; fn is called as pages arrive.
	List(ctx context.Context, prefix string, fn ListFunc) error

	// Get returns the raw bytes of one object identified by its URI.
	// Reads are capped at limit bytes; objects larger than the limit
	// fail with ErrTooLarge. A limit of 0 means no cap.
	Get(ctx context.Context, uri string, limit int64) ([]byte, error)
}
