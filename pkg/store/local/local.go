// Package local implements the object store over a local filesystem,
// the fs-to-dc analogue of the S3 and GCS backends.
package local

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"

	"github.com/hashicorp/go-hclog"
	"github.com/spf13/afero"

	"github.com/datacube-forge/stacdex/pkg/store"
)

// Store lists and reads documents from a filesystem. The afero
// abstraction lets tests run against an in-memory filesystem.
type Store struct {
	fs     afero.Fs
	logger hclog.Logger
}

// New creates a store over the OS filesystem.
func New(logger hclog.Logger) *Store {
	return NewWithFs(afero.NewOsFs(), logger)
}

// NewWithFs creates a store over an explicit afero filesystem.
func NewWithFs(fsys afero.Fs, logger hclog.Logger) *Store {
	if logger == nil {
		logger = hclog.NewNullLogger()
	}
	return &Store{fs: fsys, logger: logger.Named("local")}
}

// List walks the filesystem under prefix and produces regular files in
// lexicographic path order.
func (s *Store) List(ctx context.Context, prefix string, fn store.ListFunc) error {
	root := strings.TrimSuffix(prefix, "/")
	if root == "" {
		if strings.HasPrefix(prefix, "/") {
			root = "/"
		} else {
			root = "."
		}
	}

	// Walk first, then emit sorted, so enumeration order is stable
	// regardless of the underlying filesystem.
	var files []store.Object
	err := afero.Walk(s.fs, root, func(path string, info fs.FileInfo, err error) error {
		if err != nil {
			if path == root {
				return err
			}
			// Unreadable subtree: skip it, keep walking.
			s.logger.Warn("skipping unreadable path", "path", path, "error", err)
			return nil
		}
		if cerr := ctx.Err(); cerr != nil {
			return cerr
		}
		if info.IsDir() || !info.Mode().IsRegular() {
			return nil
		}
		files = append(files, store.Object{
			URI:  filepath.ToSlash(path),
			Size: info.Size(),
		})
		return nil
	})
	if err != nil {
		if errors.Is(err, context.Canceled) || errors.Is(err, context.DeadlineExceeded) {
			return err
		}
		return fmt.Errorf("%w: walking %s: %v", store.ErrUnavailable, root, err)
	}

	sort.Slice(files, func(i, j int) bool { return files[i].URI < files[j].URI })
	for _, obj := range files {
		if err := fn(obj); err != nil {
			return err
		}
	}
	return nil
}

// Get reads one file, capped at limit bytes.
func (s *Store) Get(ctx context.Context, uri string, limit int64) ([]byte, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	info, err := s.fs.Stat(uri)
	if err != nil {
		return nil, classify(err, uri)
	}
	if limit > 0 && info.Size() > limit {
		return nil, fmt.Errorf("%w: %s is %d bytes", store.ErrTooLarge, uri, info.Size())
	}

	body, err := afero.ReadFile(s.fs, uri)
	if err != nil {
		return nil, classify(err, uri)
	}
	return body, nil
}

func classify(err error, uri string) error {
	switch {
	case os.IsNotExist(err):
		return fmt.Errorf("%w: %s", store.ErrNotFound, uri)
	case os.IsPermission(err):
		return fmt.Errorf("%w: %s", store.ErrAccessDenied, uri)
	default:
		return fmt.Errorf("%w: %s: %v", store.ErrTransient, uri, err)
	}
}
