package rubocopast

import (
	"errors"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/liijunwei/rubocop-ast/source"
)

// Resolver locates raw source for a path name. This is how the Processor
// loads the files to be processed.
type Resolver interface {
	FindSourceByPath(path string) (SearchResult, error)
}

// SearchResult is what a resolver found. Exactly one field should be set;
// if both are, the buffer wins.
type SearchResult struct {
	Source io.Reader
	Buffer *source.Buffer
}

type ResolverFunc func(path string) (SearchResult, error)

var _ Resolver = ResolverFunc(nil)

func (f ResolverFunc) FindSourceByPath(path string) (SearchResult, error) {
	return f(path)
}

// CompositeResolver tries each resolver in turn, returning the first
// success, or the first error if none succeed.
type CompositeResolver []Resolver

var _ Resolver = CompositeResolver(nil)

func (c CompositeResolver) FindSourceByPath(path string) (SearchResult, error) {
	if len(c) == 0 {
		return SearchResult{}, &FileNotFoundError{Path: path}
	}
	var firstErr error
	for _, res := range c {
		r, err := res.FindSourceByPath(path)
		if err == nil {
			return r, nil
		}
		if firstErr == nil {
			firstErr = err
		}
	}
	return SearchResult{}, firstErr
}

// SourceResolver reads source from the filesystem. A missing file surfaces
// as *FileNotFoundError.
type SourceResolver struct {
	// Accessor opens the file; defaults to os.Open.
	Accessor func(path string) (io.ReadCloser, error)
}

var _ Resolver = (*SourceResolver)(nil)

func (r *SourceResolver) FindSourceByPath(path string) (SearchResult, error) {
	accessor := r.Accessor
	if accessor == nil {
		accessor = func(p string) (io.ReadCloser, error) { return os.Open(p) }
	}
	reader, err := accessor(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return SearchResult{}, &FileNotFoundError{Path: path}
		}
		return SearchResult{}, err
	}
	return SearchResult{Source: reader}, nil
}

// FindSources expands doublestar glob patterns (e.g. "**/*.rb") under root
// into a sorted, de-duplicated list of file paths relative to root.
func FindSources(root string, patterns []string) ([]string, error) {
	fsys := os.DirFS(root)
	seen := map[string]bool{}
	var out []string
	for _, pattern := range patterns {
		if !doublestar.ValidatePattern(pattern) {
			return nil, doublestar.ErrBadPattern
		}
		matches, err := doublestar.Glob(fsys, pattern)
		if err != nil {
			return nil, err
		}
		for _, m := range matches {
			info, err := fs.Stat(fsys, m)
			if err != nil || info.IsDir() {
				continue
			}
			key := filepath.ToSlash(m)
			if !seen[key] {
				seen[key] = true
				out = append(out, m)
			}
		}
	}
	sort.Strings(out)
	return out, nil
}
