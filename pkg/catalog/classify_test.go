package catalog

import (
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"

	"github.com/datacube-forge/stacdex/pkg/dataset"
)

func classifyFixture() *dataset.Document {
	return &dataset.Document{
		ID:      uuid.MustParse("7d2b62e6-7e28-5b46-9b9e-2cbce449ac24"),
		Label:   "tile_x017y052",
		Product: "wapor_soil_moisture",
		CRS:     "epsg:4326",
		Geometry: map[string]any{
			"type":        "Polygon",
			"coordinates": []any{},
		},
		Measurements: map[string]dataset.Measurement{
			"soil_moisture": {Path: "tile.tif"},
		},
		Accessories: map[string]string{"thumbnail": "thumb.png"},
		Properties:  map[string]any{"odc:region_code": "x017y052"},
		Start:       time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:         time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
	}
}

func recordFor(doc *dataset.Document) *Record {
	return &Record{
		ID:          doc.ID,
		Product:     doc.Product,
		Fingerprint: doc.Fingerprint(),
		Document:    doc,
		Active:      true,
	}
}

func TestClassify(t *testing.T) {
	cases := []struct {
		name   string
		mutate func(*dataset.Document)
		want   Change
	}{
		{
			name:   "identical content is unchanged",
			mutate: func(d *dataset.Document) {},
			want:   ChangeUnchanged,
		},
		{
			// The source URI is not part of the fingerprint: identical
			// content republished elsewhere is a no-op, not an update.
			name:   "new source location alone is unchanged",
			mutate: func(d *dataset.Document) { d.SourceURI = "s3://cube/mirror/tile.json" },
			want:   ChangeUnchanged,
		},
		{
			name:   "label change is safe",
			mutate: func(d *dataset.Document) { d.Label = "renamed" },
			want:   ChangeSafe,
		},
		{
			name:   "property change is safe",
			mutate: func(d *dataset.Document) { d.Properties["eo:cloud_cover"] = 12.5 },
			want:   ChangeSafe,
		},
		{
			name:   "accessory change is safe",
			mutate: func(d *dataset.Document) { d.Accessories["thumbnail"] = "thumb_v2.png" },
			want:   ChangeSafe,
		},
		{
			name:   "measurement path change is unsafe",
			mutate: func(d *dataset.Document) { d.Measurements["soil_moisture"] = dataset.Measurement{Path: "tile_v2.tif"} },
			want:   ChangeUnsafe,
		},
		{
			name:   "added measurement is unsafe",
			mutate: func(d *dataset.Document) { d.Measurements["quality"] = dataset.Measurement{Path: "qa.tif"} },
			want:   ChangeUnsafe,
		},
		{
			name:   "crs change is unsafe",
			mutate: func(d *dataset.Document) { d.CRS = "epsg:3857" },
			want:   ChangeUnsafe,
		},
		{
			name:   "product change is unsafe",
			mutate: func(d *dataset.Document) { d.Product = "other_product" },
			want:   ChangeUnsafe,
		},
		{
			name:   "temporal extent change is unsafe",
			mutate: func(d *dataset.Document) { d.End = d.End.Add(24 * time.Hour) },
			want:   ChangeUnsafe,
		},
		{
			name: "geometry change is unsafe",
			mutate: func(d *dataset.Document) {
				d.Geometry["coordinates"] = []any{[]any{1.0, 2.0}}
			},
			want: ChangeUnsafe,
		},
	}

	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			existing := recordFor(classifyFixture())
			incoming := classifyFixture()
			tc.mutate(incoming)
			assert.Equal(t, tc.want, Classify(existing, incoming))
		})
	}
}

func TestClassify_NoExistingRecord(t *testing.T) {
	assert.Equal(t, ChangeNew, Classify(nil, classifyFixture()))
}

func TestClassify_RecordWithoutDocument(t *testing.T) {
	existing := recordFor(classifyFixture())
	existing.Document = nil

	incoming := classifyFixture()
	incoming.Label = "renamed"
	assert.Equal(t, ChangeUnsafe, Classify(existing, incoming))
}

func TestChange_String(t *testing.T) {
	assert.Equal(t, "new", ChangeNew.String())
	assert.Equal(t, "unchanged", ChangeUnchanged.String())
	assert.Equal(t, "safe-update", ChangeSafe.String())
	assert.Equal(t, "unsafe-update", ChangeUnsafe.String())
}
