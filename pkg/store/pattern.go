package store

import (
	"fmt"
	"net/url"
	"path"
	"strings"
)

// Scheme identifies the storage backend a pattern addresses.
type Scheme string

const (
	SchemeS3    Scheme = "s3"
	SchemeGCS   Scheme = "gs"
	SchemeLocal Scheme = "file"
)

// Pattern is a parsed storage-location pattern: a bucket (or local
// root), a sequence of path segments that may contain glob wildcards,
// and an implicit suffix filter carried by the final segment (e.g.
// "*.stac-item.json").
//
// Matching is case-sensitive and anchored on path segment boundaries.
// A "**" segment matches zero or more whole segments; "*" and "?"
// match within a single segment (path.Match syntax).
//
// Patterns are constructed once per invocation and never mutated.
type Pattern struct {
	scheme   Scheme
	bucket   string
	segments []string
	rooted   bool
}

// ParsePattern parses a location pattern such as
//
//	s3://bucket/prefix/**/*.stac-item.json
//	gs://bucket/2024/*/tile-*.json
//	file:///data/products/**/*.odc-metadata.yaml
//
// A pattern with no URI scheme is treated as a local filesystem path.
func ParsePattern(raw string) (*Pattern, error) {
	if raw == "" {
		return nil, fmt.Errorf("location pattern cannot be empty")
	}

	u, err := url.Parse(raw)
	if err != nil {
		return nil, fmt.Errorf("invalid location pattern %q: %w", raw, err)
	}

	var scheme Scheme
	var bucket, key string
	var rooted bool
	switch u.Scheme {
	case "s3":
		scheme = SchemeS3
		bucket = u.Host
		key = strings.TrimPrefix(u.Path, "/")
		if bucket == "" {
			return nil, fmt.Errorf("location pattern %q has no bucket", raw)
		}
	case "gs", "gcs":
		scheme = SchemeGCS
		bucket = u.Host
		key = strings.TrimPrefix(u.Path, "/")
		if bucket == "" {
			return nil, fmt.Errorf("location pattern %q has no bucket", raw)
		}
	case "file", "":
		scheme = SchemeLocal
		// An absolute path stays anchored at the filesystem root;
		// only relative patterns walk the working directory.
		key = path.Join(u.Host, u.Path)
		rooted = strings.HasPrefix(key, "/")
		key = strings.TrimPrefix(key, "/")
	default:
		return nil, fmt.Errorf("unsupported location scheme %q", u.Scheme)
	}

	if key == "" {
		return nil, fmt.Errorf("location pattern %q matches nothing", raw)
	}

	segments := strings.Split(strings.Trim(key, "/"), "/")
	for _, seg := range segments {
		if seg == "" {
			return nil, fmt.Errorf("location pattern %q has an empty path segment", raw)
		}
		if seg != "**" {
			if _, err := path.Match(seg, ""); err != nil {
				return nil, fmt.Errorf("invalid glob segment %q: %w", seg, err)
			}
		}
	}

	return &Pattern{scheme: scheme, bucket: bucket, segments: segments, rooted: rooted}, nil
}

// Scheme returns the storage backend the pattern addresses.
func (p *Pattern) Scheme() Scheme { return p.scheme }

// Bucket returns the bucket name, or "" for local patterns.
func (p *Pattern) Bucket() string { return p.bucket }

// Prefix returns the longest fixed key prefix before the first wildcard
// segment. Listing starts here so the store never enumerates objects
// that cannot match.
func (p *Pattern) Prefix() string {
	var fixed []string
	for _, seg := range p.segments {
		if strings.ContainsAny(seg, "*?[") {
			break
		}
		fixed = append(fixed, seg)
	}
	if len(fixed) == 0 {
		if p.rooted {
			return "/"
		}
		return ""
	}
	prefix := strings.Join(fixed, "/") + "/"
	if p.rooted {
		prefix = "/" + prefix
	}
	return prefix
}

// Match reports whether an object key matches every pattern segment.
// The key is relative to the bucket (no scheme or bucket prefix).
func (p *Pattern) Match(key string) bool {
	key = strings.Trim(key, "/")
	if key == "" {
		return false
	}
	return matchSegments(p.segments, strings.Split(key, "/"))
}

// URI renders the fully qualified URI for an object key under this
// pattern's bucket.
func (p *Pattern) URI(key string) string {
	switch p.scheme {
	case SchemeS3:
		return fmt.Sprintf("s3://%s/%s", p.bucket, key)
	case SchemeGCS:
		return fmt.Sprintf("gs://%s/%s", p.bucket, key)
	default:
		return key
	}
}

// String renders the pattern back to URI form.
func (p *Pattern) String() string {
	key := strings.Join(p.segments, "/")
	if p.rooted {
		key = "/" + key
	}
	return p.URI(key)
}

// matchSegments matches glob segments against key segments. A "**"
// pattern segment consumes zero or more key segments.
func matchSegments(pattern, key []string) bool {
	if len(pattern) == 0 {
		return len(key) == 0
	}
	if pattern[0] == "**" {
		// Try consuming zero segments, then one, then more.
		for i := 0; i <= len(key); i++ {
			if matchSegments(pattern[1:], key[i:]) {
				return true
			}
		}
		return false
	}
	if len(key) == 0 {
		return false
	}
	ok, err := path.Match(pattern[0], key[0])
	if err != nil || !ok {
		return false
	}
	return matchSegments(pattern[1:], key[1:])
}
