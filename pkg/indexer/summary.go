package indexer

import (
	"sync"

	"github.com/google/uuid"

	"github.com/datacube-forge/stacdex/pkg/catalog"
)

// Outcome is the terminal state one discovered document reached.
type Outcome string

const (
	OutcomeAdded            Outcome = "added"
	OutcomeUpdated          Outcome = "updated"
	OutcomeSkippedUnchanged Outcome = "skipped-unchanged"
	OutcomeSkippedUnsafe    Outcome = "skipped-unsafe"
	OutcomeFailed           Outcome = "failed"
	OutcomeInterrupted      Outcome = "interrupted"
)

// Result records the terminal state of one document.
type Result struct {
	// URI is the document's source location.
	URI string

	// ID is the dataset identifier, when parsing got far enough to
	// derive one.
	ID uuid.UUID

	// Outcome is the terminal state.
	Outcome Outcome

	// Change is the classification that drove the decision, when one
	// was computed.
	Change catalog.Change

	// Reason carries the failure or rejection detail. Empty for
	// successful outcomes.
	Reason string
}

// Summary accumulates per-document results over one run. It is safe
// for concurrent use by the orchestrator's workers; the reporter owns
// it exclusively once the run finishes.
type Summary struct {
	mu      sync.Mutex
	results []Result

	// DryRun records whether mutations were suppressed.
	DryRun bool
}

// Add records one document's terminal state.
func (s *Summary) Add(r Result) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.results = append(s.results, r)
}

// Results returns a copy of all recorded results.
func (s *Summary) Results() []Result {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]Result, len(s.results))
	copy(out, s.results)
	return out
}

// Count returns the number of results with the given outcome.
func (s *Summary) Count(o Outcome) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	n := 0
	for _, r := range s.results {
		if r.Outcome == o {
			n++
		}
	}
	return n
}

// Total returns the number of documents that reached any terminal
// state.
func (s *Summary) Total() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.results)
}
