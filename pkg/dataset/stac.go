package dataset

import (
	"encoding/json"
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"github.com/mitchellh/mapstructure"
)

// stacItem is the subset of a STAC 1.x item the transform needs.
type stacItem struct {
	ID         string               `json:"id"`
	Collection string               `json:"collection"`
	Geometry   map[string]any       `json:"geometry"`
	Properties map[string]any       `json:"properties"`
	Assets     map[string]stacAsset `json:"assets"`
}

type stacAsset struct {
	Href  string   `json:"href"`
	Title string   `json:"title"`
	Type  string   `json:"type"`
	Roles []string `json:"roles"`
}

// stacProperties is the typed view of the property fields the
// transform consumes. Everything else is carried through verbatim.
type stacProperties struct {
	Datetime      string `mapstructure:"datetime"`
	StartDatetime string `mapstructure:"start_datetime"`
	EndDatetime   string `mapstructure:"end_datetime"`
	DTRStart      string `mapstructure:"dtr:start_datetime"`
	DTREnd        string `mapstructure:"dtr:end_datetime"`
	ProjCode      string `mapstructure:"proj:code"`
	ProjEPSG      int    `mapstructure:"proj:epsg"`
	Product       string `mapstructure:"odc:product"`
	RegionCode    string `mapstructure:"odc:region_code"`
	Label         string `mapstructure:"title"`
}

// ParseSTACItem decodes a raw STAC item and transforms it into the
// canonical document form. Decoding is pure: identical bytes always
// yield an identical Document.
func ParseSTACItem(raw []byte, sourceURI string) (*Document, error) {
	var item stacItem
	if err := json.Unmarshal(raw, &item); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, sourceURI, err)
	}
	return transformSTAC(&item, sourceURI)
}

func transformSTAC(item *stacItem, sourceURI string) (*Document, error) {
	// Without an id there is nothing to derive a stable identifier
	// from, and every id-less item would collapse onto one UUID.
	if item.ID == "" {
		return nil, fmt.Errorf("%w: %s: item has no id", ErrInvalid, sourceURI)
	}

	props, err := decodeProperties(item.Properties)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, sourceURI, err)
	}

	// Product name comes from odc:product, falling back to the
	// collection name.
	product := props.Product
	if product == "" {
		product = item.Collection
	}
	product = strings.ToLower(product)

	doc := &Document{
		Label:        props.Label,
		Product:      product,
		Geometry:     item.Geometry,
		Measurements: make(map[string]Measurement),
		Accessories:  make(map[string]string),
		Properties:   item.Properties,
		SourceURI:    sourceURI,
	}

	// proj:code supersedes the older proj:epsg integer form.
	switch {
	case props.ProjCode != "":
		doc.CRS = strings.ToLower(props.ProjCode)
	case props.ProjEPSG != 0:
		doc.CRS = fmt.Sprintf("epsg:%d", props.ProjEPSG)
	}

	doc.Start, doc.End, err = timeRange(props)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, sourceURI, err)
	}

	for name, asset := range item.Assets {
		if isDataAsset(asset) {
			doc.Measurements[name] = Measurement{Path: asset.Href}
		} else {
			doc.Accessories[name] = asset.Href
		}
	}

	// Use the declared id when it is already a valid UUID; otherwise
	// derive one deterministically the way ODC tooling does.
	if id, perr := uuid.Parse(item.ID); perr == nil {
		doc.ID = id
	} else {
		doc.ID = DeterministicID(product+"_stac_process", "1.0.0", []string{item.ID}, nil)
	}

	if props.RegionCode != "" {
		doc.Properties["odc:region_code"] = props.RegionCode
	}

	return doc, nil
}

// decodeProperties maps the loosely typed STAC properties object onto
// the typed fields the transform reads. Weak typing tolerates numeric
// proj:epsg arriving as float64 from JSON.
func decodeProperties(in map[string]any) (*stacProperties, error) {
	var out stacProperties
	dec, err := mapstructure.NewDecoder(&mapstructure.DecoderConfig{
		Result:           &out,
		WeaklyTypedInput: true,
	})
	if err != nil {
		return nil, err
	}
	if err := dec.Decode(in); err != nil {
		return nil, fmt.Errorf("decoding properties: %w", err)
	}
	return &out, nil
}

// timeRange derives the temporal extent. A dtr: range wins over the
// start/end pair, which wins over the single datetime.
func timeRange(props *stacProperties) (time.Time, time.Time, error) {
	start, end := props.DTRStart, props.DTREnd
	if start == "" || end == "" {
		start, end = props.StartDatetime, props.EndDatetime
	}
	if start == "" || end == "" {
		start, end = props.Datetime, props.Datetime
	}
	if start == "" {
		return time.Time{}, time.Time{}, nil
	}

	s, err := dateparse.ParseAny(start)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing start datetime %q: %w", start, err)
	}
	e, err := dateparse.ParseAny(end)
	if err != nil {
		return time.Time{}, time.Time{}, fmt.Errorf("parsing end datetime %q: %w", end, err)
	}
	return s.UTC(), e.UTC(), nil
}

// isDataAsset reports whether an asset is raster data (a measurement)
// rather than an accessory like a thumbnail or checksum file.
func isDataAsset(a stacAsset) bool {
	for _, role := range a.Roles {
		switch role {
		case "data", "reflectance":
			return true
		case "thumbnail", "overview", "metadata", "checksum":
			return false
		}
	}
	// No recognized role: fall back on the media type.
	return strings.Contains(a.Type, "geotiff") || strings.Contains(a.Type, "cloud-optimized")
}
