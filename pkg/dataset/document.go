// Package dataset defines the canonical dataset document parsed from
// STAC item JSON or EO3 YAML metadata, along with deterministic
// identifier and fingerprint derivation.
package dataset

import (
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/google/uuid"
	"github.com/hashicorp/go-multierror"
)

// Parse failure kinds. A document that cannot be decoded at all is
// malformed; one that decodes but violates field rules is invalid.
// Both are per-document failures, never fatal to a run.
var (
	ErrMalformed = errors.New("malformed metadata document")
	ErrInvalid   = errors.New("invalid metadata document")
)

// Measurement is one named asset reference: an addressable raster
// location plus optional band selection within the file.
type Measurement struct {
	Path  string `json:"path" yaml:"path"`
	Band  int    `json:"band,omitempty" yaml:"band,omitempty"`
	Layer string `json:"layer,omitempty" yaml:"layer,omitempty"`
}

// Document is the parsed, canonical form of one metadata file.
// Identical source bytes always produce an identical Document, which
// makes the identifier and fingerprint stable across runs and across
// concurrent workers.
type Document struct {
	// ID is the globally stable dataset identifier.
	ID uuid.UUID `json:"id"`

	// Label is an optional human-readable dataset label.
	Label string `json:"label,omitempty"`

	// Product is the name of the product this dataset belongs to.
	Product string `json:"product"`

	// CRS is the native coordinate reference system (e.g. "epsg:4326").
	CRS string `json:"crs,omitempty"`

	// Geometry is the dataset's spatial extent as a GeoJSON object.
	Geometry map[string]any `json:"geometry,omitempty"`

	// Measurements maps band names to asset references.
	Measurements map[string]Measurement `json:"measurements"`

	// Accessories maps non-data asset names (thumbnails, checksums,
	// documentation) to their locations.
	Accessories map[string]string `json:"accessories,omitempty"`

	// Properties carries the remaining metadata fields verbatim.
	Properties map[string]any `json:"properties,omitempty"`

	// Start and End bound the acquisition time. For an instantaneous
	// dataset both are the acquisition datetime.
	Start time.Time `json:"start_datetime,omitempty"`
	End   time.Time `json:"end_datetime,omitempty"`

	// SourceURI is the location the document was read from. It is
	// bookkeeping, not content: it does not participate in the
	// fingerprint.
	SourceURI string `json:"-"`
}

// Fingerprint returns a content-derived value used for change
// detection: the SHA-256 of the document's canonical JSON form,
// prefixed "sha256:". Map keys serialize in sorted order, so the value
// is deterministic.
func (d *Document) Fingerprint() string {
	b, err := json.Marshal(d)
	if err != nil {
		// Document fields are all JSON-serializable types; this cannot
		// happen with a well-constructed Document.
		panic(fmt.Sprintf("dataset: fingerprint serialization: %v", err))
	}
	sum := sha256.Sum256(b)
	return "sha256:" + hex.EncodeToString(sum[:])
}

// Validate checks required fields and reports every violated rule, not
// just the first. The returned error wraps ErrInvalid.
func (d *Document) Validate() error {
	var result *multierror.Error

	if err := validation.ValidateStruct(d,
		validation.Field(&d.Product, validation.Required),
		validation.Field(&d.Measurements, validation.Required),
	); err != nil {
		result = multierror.Append(result, err)
	}

	if d.ID == uuid.Nil {
		result = multierror.Append(result, fmt.Errorf("id: dataset identifier is required"))
	}

	for name, m := range d.Measurements {
		if m.Path == "" {
			result = multierror.Append(result,
				fmt.Errorf("measurements.%s: asset location cannot be empty", name))
		}
	}

	if !d.Start.IsZero() && !d.End.IsZero() && d.End.Before(d.Start) {
		result = multierror.Append(result,
			fmt.Errorf("temporal extent: start %s is after end %s",
				d.Start.Format(time.RFC3339), d.End.Format(time.RFC3339)))
	}

	if d.Geometry != nil {
		if _, ok := d.Geometry["type"].(string); !ok {
			result = multierror.Append(result, fmt.Errorf("geometry: missing type"))
		}
		if _, ok := d.Geometry["coordinates"]; !ok {
			result = multierror.Append(result, fmt.Errorf("geometry: missing coordinates"))
		}
	}

	if err := result.ErrorOrNil(); err != nil {
		return fmt.Errorf("%w: %v", ErrInvalid, err)
	}
	return nil
}
