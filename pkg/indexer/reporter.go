package indexer

import (
	"fmt"
	"io"
	"sort"

	"github.com/google/uuid"
)

// Exit codes distinguish per-document failures from fatal conditions.
const (
	ExitOK = 0

	// ExitFailures: some documents failed, were interrupted, or were
	// rejected as unsafe without the caller tolerating unsafe skips.
	ExitFailures = 1

	// ExitFatal: the store or catalog could not be reached at all, or
	// the invocation was unusable.
	ExitFatal = 2
)

// Reporter turns a finalized run summary into a deterministic,
// machine-parsable report and a process exit code. It is the terminal
// sink of every code path and never fails.
type Reporter struct {
	// TolerateUnsafe suppresses the nonzero exit for unsafe skips.
	TolerateUnsafe bool
}

// Report writes one tab-separated line per document, sorted by URI,
// followed by the aggregate counts. Write errors are ignored: there is
// nowhere left to report them.
func (r *Reporter) Report(w io.Writer, s *Summary) {
	results := s.Results()
	sort.Slice(results, func(i, j int) bool {
		if results[i].URI != results[j].URI {
			return results[i].URI < results[j].URI
		}
		return results[i].Outcome < results[j].Outcome
	})

	for _, res := range results {
		id := ""
		if res.ID != uuid.Nil {
			id = res.ID.String()
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%s\n", res.Outcome, res.URI, id, res.Reason)
	}

	prefix := ""
	if s.DryRun {
		prefix = "(dry-run) "
	}
	fmt.Fprintf(w, "%sadded=%d updated=%d unchanged=%d unsafe-skipped=%d failed=%d interrupted=%d total=%d\n",
		prefix,
		s.Count(OutcomeAdded),
		s.Count(OutcomeUpdated),
		s.Count(OutcomeSkippedUnchanged),
		s.Count(OutcomeSkippedUnsafe),
		s.Count(OutcomeFailed),
		s.Count(OutcomeInterrupted),
		s.Total(),
	)
}

// ExitCode derives the process exit code from the summary.
func (r *Reporter) ExitCode(s *Summary) int {
	if s.Count(OutcomeFailed) > 0 || s.Count(OutcomeInterrupted) > 0 {
		return ExitFailures
	}
	if s.Count(OutcomeSkippedUnsafe) > 0 && !r.TolerateUnsafe {
		return ExitFailures
	}
	return ExitOK
}
