package catalog

import (
	"reflect"

	"github.com/datacube-forge/stacdex/pkg/dataset"
)

// Change classifies an incoming document against the existing record.
// It is derived fresh on every run and never persisted.
type Change int

const (
	// ChangeNew means no active record exists for the identifier.
	ChangeNew Change = iota

	// ChangeUnchanged means the fingerprints are equal; indexing the
	// document again would be a no-op.
	ChangeUnchanged

	// ChangeSafe means the document differs only in non-identifying
	// fields: properties, label, accessories.
	ChangeSafe

	// ChangeUnsafe means the document differs in identity-relevant
	// fields: asset locations, extents, CRS, product, or temporal
	// range.
	ChangeUnsafe
)

// String returns the classification name used in reports.
func (c Change) String() string {
	switch c {
	case ChangeNew:
		return "new"
	case ChangeUnchanged:
		return "unchanged"
	case ChangeSafe:
		return "safe-update"
	case ChangeUnsafe:
		return "unsafe-update"
	default:
		return "unknown"
	}
}

// Classify compares an incoming document against the existing record.
// Pure comparison: no I/O.
//
// The safe-field allow-list is properties, label and accessories.
// Everything that affects which pixels a query returns (measurement
// paths and bands, geometry, CRS, product name, temporal extent) is
// identity-relevant and classifies the change unsafe.
func Classify(existing *Record, incoming *dataset.Document) Change {
	if existing == nil {
		return ChangeNew
	}
	if existing.Fingerprint == incoming.Fingerprint() {
		return ChangeUnchanged
	}

	prev := existing.Document
	if prev == nil {
		// A record with no stored document cannot be proven safe.
		return ChangeUnsafe
	}

	switch {
	case prev.Product != incoming.Product:
		return ChangeUnsafe
	case prev.CRS != incoming.CRS:
		return ChangeUnsafe
	case !prev.Start.Equal(incoming.Start) || !prev.End.Equal(incoming.End):
		return ChangeUnsafe
	case !reflect.DeepEqual(prev.Measurements, incoming.Measurements):
		return ChangeUnsafe
	case !reflect.DeepEqual(prev.Geometry, incoming.Geometry):
		return ChangeUnsafe
	}
	return ChangeSafe
}
