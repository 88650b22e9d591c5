package store

import (
	"context"
	"fmt"
	"strings"

	"github.com/hashicorp/go-hclog"
)

// Resolver expands a location pattern into the sequence of matching
// document URIs. Resolution is lazy: candidates are produced as listing
// pages arrive, and a fresh Resolve call re-lists the store.
type Resolver struct {
	store   Store
	pattern *Pattern
	logger  hclog.Logger
}

// NewResolver creates a resolver for one pattern over one store.
func NewResolver(store Store, pattern *Pattern, logger hclog.Logger) *Resolver {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Resolver{
		store:   store,
		pattern: pattern,
		logger:  logger.Named("resolver"),
	}
}

// Resolve lists the store under the pattern's fixed prefix and invokes
// fn for each matching object URI. Zero matches is not an error. A
// failure to enumerate the store root is returned wrapped in
// ErrUnavailable; the caller treats it as fatal.
func (r *Resolver) Resolve(ctx context.Context, fn func(uri string) error) error {
	prefix := r.pattern.Prefix()
	r.logger.Debug("listing store", "pattern", r.pattern.String(), "prefix", prefix)

	matched := 0
	err := r.store.List(ctx, prefix, func(obj Object) error {
		key := r.relativeKey(obj.URI)
		if !r.pattern.Match(key) {
			return nil
		}
		matched++
		return fn(obj.URI)
	})
	if err != nil {
		return fmt.Errorf("enumerating %s: %w", r.pattern.String(), err)
	}

	r.logger.Debug("listing complete", "matched", matched)
	return nil
}

// relativeKey strips the scheme and bucket from a fully qualified URI,
// leaving the key the pattern segments match against.
func (r *Resolver) relativeKey(uri string) string {
	for _, p := range []string{
		fmt.Sprintf("s3://%s/", r.pattern.Bucket()),
		fmt.Sprintf("gs://%s/", r.pattern.Bucket()),
	} {
		if strings.HasPrefix(uri, p) {
			return strings.TrimPrefix(uri, p)
		}
	}
	return uri
}
