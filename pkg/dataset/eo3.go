package dataset

import (
	"fmt"
	"strings"
	"time"

	"github.com/araddon/dateparse"
	"github.com/google/uuid"
	"gopkg.in/yaml.v3"
)

// eo3Document is the subset of an EO3 metadata YAML the parser needs.
type eo3Document struct {
	ID      string `yaml:"id"`
	Label   string `yaml:"label"`
	Product struct {
		Name string `yaml:"name"`
	} `yaml:"product"`
	CRS          string                  `yaml:"crs"`
	Geometry     map[string]any          `yaml:"geometry"`
	Measurements map[string]Measurement  `yaml:"measurements"`
	Accessories  map[string]eo3Accessory `yaml:"accessories"`
	Properties   map[string]any          `yaml:"properties"`
}

type eo3Accessory struct {
	Path string `yaml:"path"`
}

// ParseEO3 decodes an EO3 metadata YAML document (the
// *.odc-metadata.yaml form) into the canonical document.
func ParseEO3(raw []byte, sourceURI string) (*Document, error) {
	var eo3 eo3Document
	if err := yaml.Unmarshal(raw, &eo3); err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrMalformed, sourceURI, err)
	}

	doc := &Document{
		Label:        eo3.Label,
		Product:      strings.ToLower(eo3.Product.Name),
		CRS:          strings.ToLower(eo3.CRS),
		Geometry:     eo3.Geometry,
		Measurements: eo3.Measurements,
		Accessories:  make(map[string]string),
		Properties:   eo3.Properties,
		SourceURI:    sourceURI,
	}
	if doc.Measurements == nil {
		doc.Measurements = make(map[string]Measurement)
	}
	for name, acc := range eo3.Accessories {
		doc.Accessories[name] = acc.Path
	}

	if eo3.ID != "" {
		id, err := uuid.Parse(eo3.ID)
		if err != nil {
			return nil, fmt.Errorf("%w: %s: id %q is not a UUID", ErrInvalid, sourceURI, eo3.ID)
		}
		doc.ID = id
	}

	var err error
	doc.Start, doc.End, err = eo3TimeRange(eo3.Properties)
	if err != nil {
		return nil, fmt.Errorf("%w: %s: %v", ErrInvalid, sourceURI, err)
	}

	return doc, nil
}

// eo3TimeRange reads the acquisition time from EO3 properties, where
// the dtr: range takes precedence over the single datetime.
func eo3TimeRange(props map[string]any) (time.Time, time.Time, error) {
	start := stringProp(props, "dtr:start_datetime")
	end := stringProp(props, "dtr:end_datetime")
	if start == "" || end == "" {
		dt := stringProp(props, "datetime")
		start, end = dt, dt
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

// stringProp reads a property that may already be a time.Time (YAML
// decodes timestamps natively) or a string.
func stringProp(props map[string]any, key string) string {
	switch v := props[key].(type) {
	case string:
		return v
	case time.Time:
		return v.UTC().Format(time.RFC3339Nano)
	default:
		return ""
	}
}
