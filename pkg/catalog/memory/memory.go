// Package memory provides an in-memory catalog client used by tests
// and dry runs.
package memory

import (
	"context"
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/datacube-forge/stacdex/pkg/catalog"
	"github.com/datacube-forge/stacdex/pkg/dataset"
)

// Catalog is an in-memory catalog.Client. Failures can be injected to
// exercise fatal paths.
type Catalog struct {
	mu       sync.Mutex
	records  map[uuid.UUID]*catalog.Record
	products map[string]bool

	// LookupErr, when set, is returned by every Lookup.
	LookupErr error

	// Inserts, Updates count successful mutations.
	Inserts int
	Updates int
}

// New creates an empty catalog with the given registered products.
func New(products ...string) *Catalog {
	c := &Catalog{
		records:  make(map[uuid.UUID]*catalog.Record),
		products: make(map[string]bool),
	}
	for _, p := range products {
		c.products[p] = true
	}
	return c
}

// Products returns registered product names, sorted.
func (c *Catalog) Products(ctx context.Context) ([]string, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	names := make([]string, 0, len(c.products))
	for p := range c.products {
		names = append(names, p)
	}
	sort.Strings(names)
	return names, nil
}

// Lookup returns the active record for id, or nil when absent.
func (c *Catalog) Lookup(ctx context.Context, id uuid.UUID) (*catalog.Record, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.LookupErr != nil {
		return nil, c.LookupErr
	}
	rec, ok := c.records[id]
	if !ok || !rec.Active {
		return nil, nil
	}
	cp := *rec
	return &cp, nil
}

// Insert creates a new active record.
func (c *Catalog) Insert(ctx context.Context, doc *dataset.Document) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	if rec, ok := c.records[doc.ID]; ok && rec.Active {
		return fmt.Errorf("%w: %s", catalog.ErrConflict, doc.ID)
	}
	now := time.Now()
	c.records[doc.ID] = &catalog.Record{
		ID:          doc.ID,
		Product:     doc.Product,
		URI:         doc.SourceURI,
		Fingerprint: doc.Fingerprint(),
		Document:    doc,
		Active:      true,
		CreatedAt:   now,
		UpdatedAt:   now,
	}
	c.Inserts++
	return nil
}

// Update overwrites the existing record, honoring the unsafe gate.
func (c *Catalog) Update(ctx context.Context, doc *dataset.Document, allowUnsafe bool) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	rec, ok := c.records[doc.ID]
	if !ok || !rec.Active {
		return fmt.Errorf("updating %s: no active record", doc.ID)
	}
	if catalog.Classify(rec, doc) == catalog.ChangeUnsafe && !allowUnsafe {
		return fmt.Errorf("%w: %s", catalog.ErrUnsafeRejected, doc.ID)
	}
	rec.Product = doc.Product
	rec.URI = doc.SourceURI
	rec.Fingerprint = doc.Fingerprint()
	rec.Document = doc
	rec.UpdatedAt = time.Now()
	c.Updates++
	return nil
}

// Get returns the stored record for id, active or not, for test
// assertions.
func (c *Catalog) Get(id uuid.UUID) *catalog.Record {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.records[id]
}

// Len returns the number of stored records.
func (c *Catalog) Len() int {
	c.mu.Lock()
	defer c.mu.Unlock()
	return len(c.records)
}
