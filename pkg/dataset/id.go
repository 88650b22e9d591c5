package dataset

import (
	"fmt"
	"sort"
	"strings"

	"github.com/google/uuid"
)

// odcNamespace is the fixed UUIDv5 namespace the Open Data Cube
// ecosystem uses for deterministic dataset identifiers.
var odcNamespace = uuid.MustParse("6f34c6f4-13d6-43c0-8e4e-42b6c13203af")

// DeterministicID derives a stable UUIDv5 for a dataset from the
// producing algorithm, its version, and the source identifiers.
// Re-deriving with the same inputs always yields the same UUID.
func DeterministicID(algorithm, version string, sources []string, tags map[string]string) uuid.UUID {
	kvs := make([]string, 0, len(tags))
	for k, v := range tags {
		kvs = append(kvs, fmt.Sprintf("%s=%s", k, v))
	}
	sort.Strings(kvs)

	srcs := append([]string(nil), sources...)
	sort.Strings(srcs)

	// Layout mirrors the ODC convention: algorithm, version, a
	// deployment slot (unused here), sorted tags, sorted sources,
	// newline-joined and lowercased.
	parts := append([]string{algorithm, version, ""}, kvs...)
	parts = append(parts, srcs...)
	for i, p := range parts {
		parts[i] = strings.ToLower(p)
	}

	return uuid.NewSHA1(odcNamespace, []byte(strings.Join(parts, "\n")))
}
