package dataset

import (
	"bytes"
	"strings"
)

// Parse decodes one metadata document by its source suffix: STAC item
// JSON for ".json", EO3 metadata for ".yaml"/".yml". Documents with no
// recognized suffix are sniffed by their leading byte. The returned
// document has been validated.
func Parse(raw []byte, sourceURI string) (*Document, error) {
	var (
		doc *Document
		err error
	)
	switch {
	case strings.HasSuffix(sourceURI, ".json"):
		doc, err = ParseSTACItem(raw, sourceURI)
	case strings.HasSuffix(sourceURI, ".yaml"), strings.HasSuffix(sourceURI, ".yml"):
		doc, err = ParseEO3(raw, sourceURI)
	case bytes.HasPrefix(bytes.TrimSpace(raw), []byte("{")):
		doc, err = ParseSTACItem(raw, sourceURI)
	default:
		doc, err = ParseEO3(raw, sourceURI)
	}
	if err != nil {
		return nil, err
	}

	if err := doc.Validate(); err != nil {
		return nil, err
	}
	return doc, nil
}
