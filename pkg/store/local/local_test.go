package local

import (
	"context"
	"testing"

	"github.com/spf13/afero"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/datacube-forge/stacdex/pkg/store"
)

func newTestStore(t *testing.T) (*Store, afero.Fs) {
	t.Helper()
	fsys := afero.NewMemMapFs()
	return NewWithFs(fsys, nil), fsys
}

func TestStore_List(t *testing.T) {
	s, fsys := newTestStore(t)
	require.NoError(t, afero.WriteFile(fsys, "data/a/1.item.json", []byte(`{}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "data/a/sub/2.item.json", []byte(`{}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "data/b/3.other.json", []byte(`{}`), 0o644))

	var got []string
	err := s.List(context.Background(), "data/a/", func(obj store.Object) error {
		got = append(got, obj.URI)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"data/a/1.item.json", "data/a/sub/2.item.json"}, got)
}

func TestStore_List_AbsoluteRoot(t *testing.T) {
	s, fsys := newTestStore(t)
	require.NoError(t, afero.WriteFile(fsys, "/data/products/1.item.json", []byte(`{}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/products/2.item.json", []byte(`{}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "data/products/relative.item.json", []byte(`{}`), 0o644))

	var got []string
	err := s.List(context.Background(), "/data/products/", func(obj store.Object) error {
		got = append(got, obj.URI)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/products/1.item.json", "/data/products/2.item.json"}, got)
}

func TestResolver_AbsolutePattern(t *testing.T) {
	s, fsys := newTestStore(t)
	require.NoError(t, afero.WriteFile(fsys, "/data/products/1.item.json", []byte(`{}`), 0o644))
	require.NoError(t, afero.WriteFile(fsys, "/data/products/skip.yaml", []byte(``), 0o644))

	p, err := store.ParsePattern("file:///data/products/*.item.json")
	require.NoError(t, err)
	require.Equal(t, "/data/products/", p.Prefix())

	var got []string
	err = store.NewResolver(s, p, nil).Resolve(context.Background(), func(uri string) error {
		got = append(got, uri)
		return nil
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"/data/products/1.item.json"}, got)
}

func TestStore_List_MissingRoot(t *testing.T) {
	s, _ := newTestStore(t)

	err := s.List(context.Background(), "nope/", func(obj store.Object) error {
		t.Fatal("callback should not run")
		return nil
	})
	assert.ErrorIs(t, err, store.ErrUnavailable)
}

func TestStore_Get(t *testing.T) {
	s, fsys := newTestStore(t)
	require.NoError(t, afero.WriteFile(fsys, "data/1.json", []byte(`{"id":"x"}`), 0o644))

	t.Run("reads file", func(t *testing.T) {
		body, err := s.Get(context.Background(), "data/1.json", 0)
		require.NoError(t, err)
		assert.Equal(t, []byte(`{"id":"x"}`), body)
	})

	t.Run("missing file", func(t *testing.T) {
		_, err := s.Get(context.Background(), "data/missing.json", 0)
		assert.ErrorIs(t, err, store.ErrNotFound)
	})

	t.Run("size limit", func(t *testing.T) {
		_, err := s.Get(context.Background(), "data/1.json", 4)
		assert.ErrorIs(t, err, store.ErrTooLarge)
	})
}
