// Package catalog abstracts the spatiotemporal catalog that stores
// dataset records: lookup by identifier, insert, update, and the pure
// change-classification primitive that drives indexing decisions.
package catalog

import (
	"context"
	"errors"
	"time"

	"github.com/google/uuid"

	"github.com/datacube-forge/stacdex/pkg/dataset"
)

var (
	// ErrUnavailable indicates the catalog service cannot be reached.
	// Fatal: every indexing decision requires the catalog.
	ErrUnavailable = errors.New("catalog unavailable")

	// ErrConflict is returned by Insert when a record with the same
	// identifier already exists, typically a race with a concurrent
	// run. The caller re-looks-up and retries as an update.
	ErrConflict = errors.New("dataset already exists")

	// ErrUnsafeRejected is returned by Update when the incoming change
	// is classified unsafe and the caller did not allow unsafe
	// updates.
	ErrUnsafeRejected = errors.New("unsafe change rejected")

	// ErrUnknownProduct is returned when a referenced product is not
	// registered in the catalog.
	ErrUnknownProduct = errors.New("product not registered in catalog")
)

// Record is the stored counterpart of a dataset document, plus the
// catalog's own bookkeeping. At most one active record exists per
// identifier.
type Record struct {
	ID          uuid.UUID
	Product     string
	URI         string
	Fingerprint string

	// Document is the canonical document as stored.
	Document *dataset.Document

	Active    bool
	CreatedAt time.Time
	UpdatedAt time.Time
}

// Client is the catalog surface the indexing orchestrator depends on.
// Mutations are atomic per identifier; no ordering is promised between
// unrelated identifiers.
type Client interface {
	// Products returns the names of registered products.
	Products(ctx context.Context) ([]string, error)

	// Lookup returns the active record for an identifier, or nil if
	// absent. Absence is not an error; only connectivity failures are.
	Lookup(ctx context.Context, id uuid.UUID) (*Record, error)

	// Insert creates a new record. Fails with ErrConflict if an active
	// record with the same identifier already exists.
	Insert(ctx context.Context, doc *dataset.Document) error

	// Update overwrites the existing record. Fails with
	// ErrUnsafeRejected if the change classifies as unsafe and
	// allowUnsafe is false.
	Update(ctx context.Context, doc *dataset.Document, allowUnsafe bool) error
}
