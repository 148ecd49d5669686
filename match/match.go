// Package match decides which documents are eligible for automatic backups.
// Hosts configure gitignore-flavored include/exclude patterns plus a size
// cutoff so generated or oversized files never enter version history.
package match

import (
	"path/filepath"
	"strings"
)

// Filter holds the backup eligibility rules for one storage root.
type Filter struct {
	exclusions []string
	inclusions []string
	maxSize    int
}

// Option configures a Filter.
type Option func(*Filter)

// WithExclusions adds patterns whose matches are never backed up.
func WithExclusions(patterns ...string) Option {
	return func(f *Filter) {
		f.exclusions = append(f.exclusions, patterns...)
	}
}

// WithInclusions restricts backups to paths matching at least one pattern.
func WithInclusions(patterns ...string) Option {
	return func(f *Filter) {
		f.inclusions = append(f.inclusions, patterns...)
	}
}

// WithMaxDocumentSize sets the largest document size in bytes still backed up.
func WithMaxDocumentSize(size int) Option {
	return func(f *Filter) {
		f.maxSize = size
	}
}

// New creates a filter; with no options every document is eligible.
func New(opts ...Option) *Filter {
	f := &Filter{}
	for _, opt := range opts {
		opt(f)
	}
	return f
}

// IsExcluded reports whether a document must be skipped by backups.
func (f *Filter) IsExcluded(docPath string, size int) bool {
	if f == nil {
		return false
	}
	if f.maxSize > 0 && size > f.maxSize {
		return true
	}
	path := filepath.ToSlash(docPath)
	if len(f.inclusions) > 0 && !f.isIncluded(path) {
		return true
	}
	for _, pattern := range f.exclusions {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if matchesPattern(path, pattern) {
			return true
		}
	}
	return false
}

func (f *Filter) isIncluded(path string) bool {
	for _, pattern := range f.inclusions {
		pattern = strings.TrimSpace(pattern)
		if pattern == "" || strings.HasPrefix(pattern, "#") {
			continue
		}
		if strings.Contains(path, pattern) {
			return true
		}
	}
	return false
}

func matchesPattern(path, pattern string) bool {
	if strings.Contains(path, pattern) {
		return true
	}
	cleanPattern := strings.TrimPrefix(pattern, "/")
	if matched, _ := filepath.Match(cleanPattern, path); matched {
		return true
	}
	if matched, _ := filepath.Match("*/"+cleanPattern, path); matched {
		return true
	}
	baseName := filepath.Base(path)
	return pattern == baseName || strings.HasSuffix(pattern, "/"+baseName)
}
