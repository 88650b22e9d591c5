// Package indexer drives the metadata-discovery-and-indexing run:
// concurrent fan-out over resolved document URIs, the per-document
// add/update/skip/reject decision policy, and run reporting.
package indexer

import (
	"context"
	"errors"
	"fmt"

	"github.com/hashicorp/go-hclog"
	"golang.org/x/sync/errgroup"

	"github.com/datacube-forge/stacdex/pkg/catalog"
	"github.com/datacube-forge/stacdex/pkg/dataset"
	"github.com/datacube-forge/stacdex/pkg/store"
)

// DefaultWorkers is the default worker pool size.
const DefaultWorkers = 4

// Orchestrator runs one indexing invocation end to end. Construct with
// NewOrchestrator and the functional options.
type Orchestrator struct {
	resolver *store.Resolver
	fetcher  *store.Fetcher
	catalog  catalog.Client
	logger   hclog.Logger

	workers        int
	products       map[string]bool
	updateIfExists bool
	allowUnsafe    bool
	dryRun         bool

	locks *keyedMutex
}

// Option is a functional option for creating an Orchestrator.
type Option func(*Orchestrator)

// WithResolver sets the location resolver.
func WithResolver(r *store.Resolver) Option {
	return func(o *Orchestrator) { o.resolver = r }
}

// WithFetcher sets the document fetcher.
func WithFetcher(f *store.Fetcher) Option {
	return func(o *Orchestrator) { o.fetcher = f }
}

// WithCatalog sets the catalog client.
func WithCatalog(c catalog.Client) Option {
	return func(o *Orchestrator) { o.catalog = c }
}

// WithLogger sets the logger.
func WithLogger(logger hclog.Logger) Option {
	return func(o *Orchestrator) { o.logger = logger }
}

// WithWorkers sets the worker pool size.
func WithWorkers(n int) Option {
	return func(o *Orchestrator) {
		if n > 0 {
			o.workers = n
		}
	}
}

// WithProducts sets the requested product names every document must
// belong to.
func WithProducts(names ...string) Option {
	return func(o *Orchestrator) {
		for _, n := range names {
			o.products[n] = true
		}
	}
}

// WithUpdateIfExists enables the update path for documents whose
// identifier already exists in the catalog.
func WithUpdateIfExists(v bool) Option {
	return func(o *Orchestrator) { o.updateIfExists = v }
}

// WithAllowUnsafe permits updates classified unsafe to proceed.
func WithAllowUnsafe(v bool) Option {
	return func(o *Orchestrator) { o.allowUnsafe = v }
}

// WithDryRun performs discovery, parse and classification but no
// catalog mutations.
func WithDryRun(v bool) Option {
	return func(o *Orchestrator) { o.dryRun = v }
}

// NewOrchestrator creates an orchestrator.
func NewOrchestrator(opts ...Option) (*Orchestrator, error) {
	o := &Orchestrator{
		workers:  DefaultWorkers,
		products: make(map[string]bool),
		locks:    newKeyedMutex(),
		logger:   hclog.NewNullLogger(),
	}
	for _, opt := range opts {
		opt(o)
	}

	if o.resolver == nil {
		return nil, fmt.Errorf("resolver is required")
	}
	if o.fetcher == nil {
		return nil, fmt.Errorf("fetcher is required")
	}
	if o.catalog == nil {
		return nil, fmt.Errorf("catalog client is required")
	}
	if len(o.products) == 0 {
		return nil, fmt.Errorf("at least one product is required")
	}
	o.logger = o.logger.Named("indexer")

	return o, nil
}

// Run executes the indexing invocation. The returned summary is always
// usable, even when the run was cancelled or aborted: documents that
// were discovered but never processed are recorded as interrupted. The
// returned error is non-nil only for fatal conditions: the store or
// catalog being unreachable, or a missing product.
func (o *Orchestrator) Run(ctx context.Context) (*Summary, error) {
	summary := &Summary{DryRun: o.dryRun}

	if err := o.checkProducts(ctx); err != nil {
		return summary, err
	}

	runCtx, cancel := context.WithCancel(ctx)
	defer cancel()

	g, gctx := errgroup.WithContext(runCtx)

	uris := make(chan string)
	resolved := make(chan struct{})
	var resolveErr error

	// The resolver lists sequentially to keep a stable enumeration
	// order; workers consume as candidates arrive. Listing runs under
	// the group context so a fatal worker exit stops enumeration
	// instead of letting it finish the full listing.
	go func() {
		defer close(resolved)
		defer close(uris)
		resolveErr = o.resolver.Resolve(gctx, func(uri string) error {
			select {
			case uris <- uri:
				return nil
			case <-gctx.Done():
				return gctx.Err()
			}
		})
	}()
	for i := 0; i < o.workers; i++ {
		g.Go(func() error {
			for uri := range uris {
				// After cancellation or a fatal failure, drain the
				// remaining discovered documents as interrupted
				// rather than silently dropping them.
				if gctx.Err() != nil {
					summary.Add(Result{URI: uri, Outcome: OutcomeInterrupted})
					continue
				}
				res, fatal := o.process(gctx, uri)
				summary.Add(res)
				if fatal != nil {
					return fatal
				}
			}
			return nil
		})
	}

	fatal := g.Wait()

	// Unblock and join the resolver before reading its error. After a
	// fatal worker exit nobody may be left draining the channel.
	cancel()
	<-resolved

	if resolveErr != nil && !errors.Is(resolveErr, context.Canceled) {
		return summary, fmt.Errorf("%w: %v", store.ErrUnavailable, resolveErr)
	}
	if fatal != nil {
		return summary, fatal
	}
	if err := ctx.Err(); err != nil {
		return summary, err
	}

	o.logger.Info("run complete",
		"total", summary.Total(),
		"added", summary.Count(OutcomeAdded),
		"updated", summary.Count(OutcomeUpdated),
		"unchanged", summary.Count(OutcomeSkippedUnchanged),
		"unsafe", summary.Count(OutcomeSkippedUnsafe),
		"failed", summary.Count(OutcomeFailed),
	)
	return summary, nil
}

// checkProducts verifies every requested product is registered in the
// catalog before any document is processed.
func (o *Orchestrator) checkProducts(ctx context.Context) error {
	known, err := o.catalog.Products(ctx)
	if err != nil {
		return fmt.Errorf("%w: listing products: %v", catalog.ErrUnavailable, err)
	}
	knownSet := make(map[string]bool, len(known))
	for _, name := range known {
		knownSet[name] = true
	}
	for name := range o.products {
		if !knownSet[name] {
			return fmt.Errorf("%w: %s", catalog.ErrUnknownProduct, name)
		}
	}
	return nil
}

// process runs one document through fetch, parse, classify and mutate.
// The second return value is non-nil only for fatal conditions that
// must abort the run.
func (o *Orchestrator) process(ctx context.Context, uri string) (Result, error) {
	raw, err := o.fetcher.Fetch(ctx, uri)
	if err != nil {
		o.logger.Warn("fetch failed", "uri", uri, "error", err)
		return Result{URI: uri, Outcome: OutcomeFailed, Reason: err.Error()}, nil
	}

	doc, err := dataset.Parse(raw, uri)
	if err != nil {
		o.logger.Warn("parse failed", "uri", uri, "error", err)
		return Result{URI: uri, Outcome: OutcomeFailed, Reason: err.Error()}, nil
	}

	if !o.products[doc.Product] {
		return Result{
			URI:     uri,
			ID:      doc.ID,
			Outcome: OutcomeFailed,
			Reason:  fmt.Sprintf("document product %q is not among the requested products", doc.Product),
		}, nil
	}

	// Serialize the lookup-classify-mutate section per identifier so a
	// duplicate identifier in the discovered sequence waits behind the
	// first occurrence instead of racing it.
	key := doc.ID.String()
	o.locks.Lock(key)
	defer o.locks.Unlock(key)

	existing, err := o.catalog.Lookup(ctx, doc.ID)
	if err != nil {
		res := Result{URI: uri, ID: doc.ID, Outcome: OutcomeFailed, Reason: err.Error()}
		return res, fmt.Errorf("%w: lookup %s: %v", catalog.ErrUnavailable, doc.ID, err)
	}

	return o.decide(ctx, doc, existing)
}

// decide applies the decision policy for one parsed document against
// its existing record.
func (o *Orchestrator) decide(ctx context.Context, doc *dataset.Document, existing *catalog.Record) (Result, error) {
	change := catalog.Classify(existing, doc)
	res := Result{URI: doc.SourceURI, ID: doc.ID, Change: change}

	if o.dryRun {
		res.Outcome = o.dryRunOutcome(change, &res)
		return res, nil
	}

	switch change {
	case catalog.ChangeNew:
		err := o.catalog.Insert(ctx, doc)
		if errors.Is(err, catalog.ErrConflict) {
			// Lost a race against a concurrent external run: re-lookup
			// and fall through to the update path.
			o.logger.Debug("insert conflict, retrying as update", "id", doc.ID)
			current, lerr := o.catalog.Lookup(ctx, doc.ID)
			if lerr != nil {
				res.Outcome = OutcomeFailed
				res.Reason = lerr.Error()
				return res, fmt.Errorf("%w: lookup %s: %v", catalog.ErrUnavailable, doc.ID, lerr)
			}
			if current == nil {
				res.Outcome = OutcomeFailed
				res.Reason = "insert conflict but record absent on re-lookup"
				return res, nil
			}
			return o.decide(ctx, doc, current)
		}
		if err != nil {
			res.Outcome = OutcomeFailed
			res.Reason = err.Error()
			return res, nil
		}
		res.Outcome = OutcomeAdded
		return res, nil

	case catalog.ChangeUnchanged:
		res.Outcome = OutcomeSkippedUnchanged
		return res, nil

	default:
		if !o.updateIfExists {
			res.Outcome = OutcomeFailed
			res.Reason = "dataset already exists and differs (use -update-if-exists)"
			return res, nil
		}
		if change == catalog.ChangeUnsafe && !o.allowUnsafe {
			res.Outcome = OutcomeSkippedUnsafe
			res.Reason = "unsafe change rejected (use -allow-unsafe to override)"
			return res, nil
		}
		if err := o.catalog.Update(ctx, doc, o.allowUnsafe); err != nil {
			res.Outcome = OutcomeFailed
			res.Reason = err.Error()
			return res, nil
		}
		res.Outcome = OutcomeUpdated
		return res, nil
	}
}

// dryRunOutcome reports the decision that would have been made without
// performing it.
func (o *Orchestrator) dryRunOutcome(change catalog.Change, res *Result) Outcome {
	switch change {
	case catalog.ChangeNew:
		return OutcomeAdded
	case catalog.ChangeUnchanged:
		return OutcomeSkippedUnchanged
	default:
		if !o.updateIfExists {
			res.Reason = "dataset already exists and differs (use -update-if-exists)"
			return OutcomeFailed
		}
		if change == catalog.ChangeUnsafe && !o.allowUnsafe {
			res.Reason = "unsafe change rejected (use -allow-unsafe to override)"
			return OutcomeSkippedUnsafe
		}
		return OutcomeUpdated
	}
}
