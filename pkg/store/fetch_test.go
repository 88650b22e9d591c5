package store_test

import (
	"context"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacube-forge/stacdex/pkg/store"
	"github.com/datacube-forge/stacdex/pkg/store/mem"
)

func newFetcher(s store.Store) *store.Fetcher {
	return store.NewFetcher(s, store.FetcherConfig{
		MaxAttempts:    3,
		InitialBackoff: time.Millisecond,
	}, nil)
}

func TestFetcher_Fetch(t *testing.T) {
	t.Run("returns object bytes", func(t *testing.T) {
		s := mem.New()
		s.Put("s3://b/a/1.json", []byte(`{"id":"x"}`))

		body, err := newFetcher(s).Fetch(context.Background(), "s3://b/a/1.json")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"id":"x"}`), body)
	})

	t.Run("retries transient failures", func(t *testing.T) {
		s := mem.New()
		s.Put("s3://b/a/1.json", []byte(`{}`))
		s.TransientFailures["s3://b/a/1.json"] = 2

		body, err := newFetcher(s).Fetch(context.Background(), "s3://b/a/1.json")
		require.NoError(t, err)
		assert.Equal(t, []byte(`{}`), body)
		assert.Equal(t, 3, s.GetCalls["s3://b/a/1.json"])
	})

	t.Run("gives up after max attempts", func(t *testing.T) {
		s := mem.New()
		s.Put("s3://b/a/1.json", []byte(`{}`))
		s.TransientFailures["s3://b/a/1.json"] = 10

		_, err := newFetcher(s).Fetch(context.Background(), "s3://b/a/1.json")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrTransient)
		assert.Equal(t, 3, s.GetCalls["s3://b/a/1.json"])
	})

	t.Run("not found is final on first attempt", func(t *testing.T) {
		s := mem.New()

		_, err := newFetcher(s).Fetch(context.Background(), "s3://b/missing.json")
		require.Error(t, err)
		assert.ErrorIs(t, err, store.ErrNotFound)
		assert.Equal(t, 1, s.GetCalls["s3://b/missing.json"])
	})

	t.Run("access denied is final on first attempt", func(t *testing.T) {
		s := mem.New()
		s.Put("s3://b/a/1.json", []byte(`{}`))
		s.GetErrors["s3://b/a/1.json"] = store.ErrAccessDenied

		_, err := newFetcher(s).Fetch(context.Background(), "s3://b/a/1.json")
		assert.ErrorIs(t, err, store.ErrAccessDenied)
		assert.Equal(t, 1, s.GetCalls["s3://b/a/1.json"])
	})

	t.Run("too large is final", func(t *testing.T) {
		s := mem.New()
		s.Put("s3://b/big.json", make([]byte, 128))

		f := store.NewFetcher(s, store.FetcherConfig{MaxObjectSize: 64}, nil)
		_, err := f.Fetch(context.Background(), "s3://b/big.json")
		assert.ErrorIs(t, err, store.ErrTooLarge)
	})
}

func TestResolver_Resolve(t *testing.T) {
	pattern, err := store.ParsePattern("s3://b/a/*.item.json")
	require.NoError(t, err)

	t.Run("resolves exactly the matching objects", func(t *testing.T) {
		s := mem.New()
		s.Put("s3://b/a/1.item.json", []byte(`{}`))
		s.Put("s3://b/a/2.item.json", []byte(`{}`))
		s.Put("s3://b/b/1.other.json", []byte(`{}`))

		var got []string
		r := store.NewResolver(s, pattern, nil)
		err := r.Resolve(context.Background(), func(uri string) error {
			got = append(got, uri)
			return nil
		})
		require.NoError(t, err)
		assert.Equal(t, []string{"s3://b/a/1.item.json", "s3://b/a/2.item.json"}, got)
	})

	t.Run("zero matches is not an error", func(t *testing.T) {
		s := mem.New()
		s.Put("s3://b/b/1.other.json", []byte(`{}`))

		count := 0
		r := store.NewResolver(s, pattern, nil)
		err := r.Resolve(context.Background(), func(uri string) error {
			count++
			return nil
		})
		require.NoError(t, err)
		assert.Zero(t, count)
	})

	t.Run("store unavailability is propagated", func(t *testing.T) {
		s := mem.New()
		s.ListErr = store.ErrUnavailable

		r := store.NewResolver(s, pattern, nil)
		err := r.Resolve(context.Background(), func(uri string) error { return nil })
		assert.ErrorIs(t, err, store.ErrUnavailable)
	})

	t.Run("restartable from the beginning", func(t *testing.T) {
		s := mem.New()
		s.Put("s3://b/a/1.item.json", []byte(`{}`))

		r := store.NewResolver(s, pattern, nil)
		for i := 0; i < 2; i++ {
			var got []string
			err := r.Resolve(context.Background(), func(uri string) error {
				got = append(got, uri)
				return nil
			})
			require.NoError(t, err)
			assert.Len(t, got, 1)
		}
	})
}
