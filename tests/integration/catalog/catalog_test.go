//go:build integration
// +build integration

package catalog

import (
	"context"
	"fmt"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/hashicorp/go-hclog"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacube-forge/stacdex/pkg/catalog"
	catalogdb "github.com/datacube-forge/stacdex/pkg/catalog/db"
	"github.com/datacube-forge/stacdex/pkg/dataset"
)

func newClient(t *testing.T) *catalogdb.Client {
	t.Helper()

	gdb, err := catalogdb.Connect(catalogdb.Config{
		Driver: "postgres",
		DSN:    pgDSN,
	}, hclog.NewNullLogger())
	require.NoError(t, err)

	return catalogdb.NewClient(gdb, hclog.NewNullLogger())
}

func sampleDocument(id uuid.UUID) *dataset.Document {
	return &dataset.Document{
		ID:      id,
		Label:   "tile",
		Product: "wapor_soil_moisture",
		CRS:     "epsg:4326",
		Measurements: map[string]dataset.Measurement{
			"soil_moisture": {Path: "tile.tif"},
		},
		Start:     time.Date(2024, 3, 1, 0, 0, 0, 0, time.UTC),
		End:       time.Date(2024, 3, 31, 0, 0, 0, 0, time.UTC),
		SourceURI: "s3://cube/tiles/0.json",
	}
}

func TestPostgresCatalog_RoundTrip(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.RegisterProduct(ctx, "wapor_soil_moisture", "{}"))

	id := uuid.New()
	doc := sampleDocument(id)
	require.NoError(t, c.Insert(ctx, doc))

	rec, err := c.Lookup(ctx, id)
	require.NoError(t, err)
	require.NotNil(t, rec)
	assert.Equal(t, doc.Fingerprint(), rec.Fingerprint)
	assert.Equal(t, catalog.ChangeUnchanged, catalog.Classify(rec, doc))

	// Safe update replaces the stored document.
	doc.Label = "renamed"
	require.NoError(t, c.Update(ctx, doc, false))
	rec, err = c.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Equal(t, "renamed", rec.Document.Label)

	// Unsafe update is refused without the override.
	doc.Measurements["soil_moisture"] = dataset.Measurement{Path: "moved.tif"}
	assert.ErrorIs(t, c.Update(ctx, doc, false), catalog.ErrUnsafeRejected)
	require.NoError(t, c.Update(ctx, doc, true))

	// Archived records disappear from lookup.
	require.NoError(t, c.Archive(ctx, id))
	rec, err = c.Lookup(ctx, id)
	require.NoError(t, err)
	assert.Nil(t, rec)
}

func TestPostgresCatalog_ConcurrentInsertOneWinner(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.RegisterProduct(ctx, "wapor_soil_moisture", "{}"))

	id := uuid.New()
	const writers = 8
	errs := make(chan error, writers)
	for i := 0; i < writers; i++ {
		go func() {
			errs <- c.Insert(ctx, sampleDocument(id))
		}()
	}

	var wins, conflicts int
	for i := 0; i < writers; i++ {
		err := <-errs
		switch {
		case err == nil:
			wins++
		default:
			require.ErrorIs(t, err, catalog.ErrConflict, "unexpected error: %v", err)
			conflicts++
		}
	}
	assert.Equal(t, 1, wins, "exactly one insert must win")
	assert.Equal(t, writers-1, conflicts)
}

func TestPostgresCatalog_ManyRecords(t *testing.T) {
	c := newClient(t)
	ctx := context.Background()

	require.NoError(t, c.RegisterProduct(ctx, "wapor_soil_moisture", "{}"))

	for i := 0; i < 50; i++ {
		doc := sampleDocument(uuid.New())
		doc.SourceURI = fmt.Sprintf("s3://cube/tiles/%02d.json", i)
		require.NoError(t, c.Insert(ctx, doc))
	}
}
