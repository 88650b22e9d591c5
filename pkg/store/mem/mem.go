// Package mem provides an in-memory Store used by tests.
package mem

import (
	"context"
	"sort"
	"strings"
	"sync"

	"github.com/datacube-forge/stacdex/pkg/store"
)

// Store is an in-memory object store keyed by fully qualified URI.
// Failures can be injected per key to exercise error paths.
type Store struct {
	mu      sync.RWMutex
	objects map[string][]byte

	// GetErrors maps a URI to the error its Get should return.
	GetErrors map[string]error

	// TransientFailures maps a URI to a number of Gets that fail with
	// ErrTransient before succeeding.
	TransientFailures map[string]int

	// ListErr, when set, is returned by List before any object is
	// produced.
	ListErr error

	// GetCalls counts Get invocations per URI.
	GetCalls map[string]int
}

// New creates an empty in-memory store.
func New() *Store {
	return &Store{
		objects:           make(map[string][]byte),
		GetErrors:         make(map[string]error),
		TransientFailures: make(map[string]int),
		GetCalls:          make(map[string]int),
	}
}

// Put stores an object under a fully qualified URI.
func (s *Store) Put(uri string, body []byte) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.objects[uri] = body
}

// List enumerates objects whose key (URI with scheme and bucket
// stripped) begins with prefix, in lexicographic URI order.
func (s *Store) List(ctx context.Context, prefix string, fn store.ListFunc) error {
	if s.ListErr != nil {
		return s.ListErr
	}

	s.mu.RLock()
	uris := make([]string, 0, len(s.objects))
	for uri := range s.objects {
		uris = append(uris, uri)
	}
	s.mu.RUnlock()
	sort.Strings(uris)

	for _, uri := range uris {
		if err := ctx.Err(); err != nil {
			return err
		}
		if !strings.HasPrefix(keyOf(uri), prefix) {
			continue
		}
		s.mu.RLock()
		size := int64(len(s.objects[uri]))
		s.mu.RUnlock()
		if err := fn(store.Object{URI: uri, Size: size}); err != nil {
			return err
		}
	}
	return nil
}

// keyOf strips the scheme and bucket from a URI, leaving the object
// key. Plain paths pass through unchanged.
func keyOf(uri string) string {
	rest, ok := strings.CutPrefix(uri, "s3://")
	if !ok {
		rest, ok = strings.CutPrefix(uri, "gs://")
	}
	if !ok {
		return uri
	}
	if _, key, found := strings.Cut(rest, "/"); found {
		return key
	}
	return ""
}

// Get returns a stored object's bytes, honoring injected failures.
func (s *Store) Get(ctx context.Context, uri string, limit int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	s.GetCalls[uri]++
	if n := s.TransientFailures[uri]; n > 0 {
		s.TransientFailures[uri] = n - 1
		s.mu.Unlock()
		return nil, store.ErrTransient
	}
	if err := s.GetErrors[uri]; err != nil {
		s.mu.Unlock()
		return nil, err
	}
	body, ok := s.objects[uri]
	s.mu.Unlock()

	if !ok {
		return nil, store.ErrNotFound
	}
	if limit > 0 && int64(len(body)) > limit {
		return nil, store.ErrTooLarge
	}
	out := make([]byte, len(body))
	copy(out, body)
	return out, nil
}
