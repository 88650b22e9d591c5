package store

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParsePattern(t *testing.T) {
	tests := []struct {
		name       string
		raw        string
		wantScheme Scheme
		wantBucket string
		wantErr    bool
	}{
		{"s3 with glob", "s3://bucket/prefix/**/*.stac-item.json", SchemeS3, "bucket", false},
		{"gs", "gs://bucket/2024/*/tile-*.json", SchemeGCS, "bucket", false},
		{"gcs alias", "gcs://bucket/a/*.json", SchemeGCS, "bucket", false},
		{"file scheme", "file:///data/products/**/*.yaml", SchemeLocal, "", false},
		{"bare path", "data/products/*.yaml", SchemeLocal, "", false},
		{"empty", "", SchemeLocal, "", true},
		{"s3 missing bucket", "s3:///key", SchemeS3, "", true},
		{"s3 missing key", "s3://bucket", SchemeS3, "", true},
		{"unsupported scheme", "ftp://host/path/*.json", SchemeLocal, "", true},
		{"bad glob", "s3://bucket/[a-/*.json", SchemeS3, "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePattern(tt.raw)
			if tt.wantErr {
				assert.Error(t, err)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.wantScheme, p.Scheme())
			assert.Equal(t, tt.wantBucket, p.Bucket())
		})
	}
}

func TestPattern_Match(t *testing.T) {
	tests := []struct {
		name    string
		pattern string
		key     string
		want    bool
	}{
		{"suffix under prefix", "s3://b/a/*.item.json", "a/1.item.json", true},
		{"suffix under prefix second", "s3://b/a/*.item.json", "a/2.item.json", true},
		{"other prefix", "s3://b/a/*.item.json", "b/1.other.json", false},
		{"other suffix", "s3://b/a/*.item.json", "a/1.other.json", false},
		{"wildcard does not cross segments", "s3://b/a/*.item.json", "a/x/1.item.json", false},
		{"double star crosses segments", "s3://b/a/**/*.item.json", "a/x/y/1.item.json", true},
		{"double star matches zero segments", "s3://b/a/**/*.item.json", "a/1.item.json", true},
		{"multiple wildcard segments", "s3://b/*/2024/*/tile-*.json", "x/2024/01/tile-7.json", true},
		{"multiple wildcard segments wrong level", "s3://b/*/2024/*/tile-*.json", "x/2023/01/tile-7.json", false},
		{"case sensitive", "s3://b/a/*.ITEM.json", "a/1.item.json", false},
		{"empty key", "s3://b/a/*.item.json", "", false},
		{"absolute local key", "file:///data/a/*.item.json", "/data/a/1.item.json", true},
		{"absolute local key wrong tree", "file:///data/a/*.item.json", "/var/a/1.item.json", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Match(tt.key))
		})
	}
}

func TestPattern_Prefix(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"s3://b/a/b/*.json", "a/b/"},
		{"s3://b/a/**/*.json", "a/"},
		{"s3://b/*.json", ""},
		{"s3://b/*/a/*.json", ""},
		{"file:///data/products/*.item.json", "/data/products/"},
		{"file:///data/products/**/*.yaml", "/data/products/"},
		{"/data/products/*.item.json", "/data/products/"},
		{"/*.json", "/"},
		{"data/products/*.yaml", "data/products/"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.Prefix())
		})
	}
}

func TestPattern_URI(t *testing.T) {
	p, err := ParsePattern("s3://bucket/a/*.json")
	require.NoError(t, err)
	assert.Equal(t, "s3://bucket/a/1.json", p.URI("a/1.json"))

	p, err = ParsePattern("gs://bucket/a/*.json")
	require.NoError(t, err)
	assert.Equal(t, "gs://bucket/a/1.json", p.URI("a/1.json"))

	p, err = ParsePattern("data/a/*.json")
	require.NoError(t, err)
	assert.Equal(t, "data/a/1.json", p.URI("data/a/1.json"))
}

func TestPattern_String(t *testing.T) {
	tests := []struct {
		pattern string
		want    string
	}{
		{"s3://bucket/a/**/*.json", "s3://bucket/a/**/*.json"},
		{"file:///data/products/*.item.json", "/data/products/*.item.json"},
		{"/data/products/*.item.json", "/data/products/*.item.json"},
		{"data/products/*.yaml", "data/products/*.yaml"},
	}

	for _, tt := range tests {
		t.Run(tt.pattern, func(t *testing.T) {
			p, err := ParsePattern(tt.pattern)
			require.NoError(t, err)
			assert.Equal(t, tt.want, p.String())
		})
	}
}
