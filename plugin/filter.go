package plugin

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// Filter decides which module ids are handled by the plugin.
type Filter interface {
	Match(id string) bool
}

// GlobFilter matches ids against include and exclude glob patterns. Exclude
// wins over include. Relative patterns are anchored at the base directory
// unless they start with "**".
type GlobFilter struct {
	include []string
	exclude []string
}

// NewFilter compiles patterns, malformed patterns are reported immediately.
func NewFilter(include, exclude []string, base string) (*GlobFilter, error) {
	if len(include) == 0 {
		include = []string{DefaultInclude}
	}
	if base == "" {
		wd, err := os.Getwd()
		if err != nil {
			return nil, fmt.Errorf("unable to get working directory: %w", err)
		}
		base = wd
	}

	f := &GlobFilter{}
	var err error
	if f.include, err = normalizePatterns(include, base); err != nil {
		return nil, fmt.Errorf("bad include pattern: %w", err)
	}
	if f.exclude, err = normalizePatterns(exclude, base); err != nil {
		return nil, fmt.Errorf("bad exclude pattern: %w", err)
	}
	return f, nil
}

// Match implements Filter. Virtual ids (starting with NUL) never match.
func (f *GlobFilter) Match(id string) bool {
	if id == "" || strings.HasPrefix(id, "\x00") {
		return false
	}
	name := normalizePath(id)
	for _, p := range f.exclude {
		if ok, _ := doublestar.Match(p, name); ok {
			return false
		}
	}
	for _, p := range f.include {
		if ok, _ := doublestar.Match(p, name); ok {
			return true
		}
	}
	return false
}

func normalizePatterns(patterns []string, base string) ([]string, error) {
	out := make([]string, 0, len(patterns))
	for _, p := range patterns {
		if p == "" {
			continue
		}
		if !strings.HasPrefix(p, "**") && !filepath.IsAbs(p) && !strings.HasPrefix(p, "/") {
			p = filepath.Join(base, p)
		}
		p = normalizePath(p)
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("%q is not a valid glob", p)
		}
		out = append(out, p)
	}
	return out, nil
}

// normalizePath converts path to slash separated form without volume and
// leading slash, so absolute ids and anchored patterns compare equally.
func normalizePath(p string) string {
	p = strings.TrimPrefix(p, filepath.VolumeName(p))
	return strings.TrimLeft(filepath.ToSlash(p), "/")
}
