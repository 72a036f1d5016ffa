package main

import (
	"fmt"
	"path/filepath"
	"strings"

	"github.com/jadenpxrk/monofile/pkg/source"
)

// patternFilter applies the --include/--exclude globs and --max-depth on top of the classifier.
type patternFilter struct {
	includes []string
	excludes []string
	maxDepth int // 0 means unlimited
}

func newPatternFilter(include, exclude string, maxDepth int) (*patternFilter, error) {
	f := &patternFilter{
		includes: parsePatterns(include),
		excludes: parsePatterns(exclude),
		maxDepth: maxDepth,
	}
	for _, p := range append(append([]string{}, f.includes...), f.excludes...) {
		if _, err := filepath.Match(p, ""); err != nil {
			return nil, fmt.Errorf("invalid glob pattern '%s': %w", p, err)
		}
	}
	return f, nil
}

// parsePatterns splits a comma-separated string of patterns into a slice.
func parsePatterns(patterns string) []string {
	var out []string
	for _, p := range strings.Split(patterns, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// matchesAnyPattern reports whether name matches one of the glob patterns. Patterns are
// validated up front, so match errors are impossible here.
func matchesAnyPattern(name string, patterns []string) bool {
	for _, pattern := range patterns {
		if ok, _ := filepath.Match(pattern, name); ok {
			return true
		}
	}
	return false
}

func (f *patternFilter) active() bool {
	return f != nil && (len(f.includes) > 0 || len(f.excludes) > 0 || f.maxDepth > 0)
}

// keepFile applies excludes, then includes when any were given.
func (f *patternFilter) keepFile(name string) bool {
	if matchesAnyPattern(name, f.excludes) {
		return false
	}
	return len(f.includes) == 0 || matchesAnyPattern(name, f.includes)
}

// keepDir applies excludes only, so traversal can reach included files below.
func (f *patternFilter) keepDir(name string) bool {
	return !matchesAnyPattern(name, f.excludes)
}

// files filters loose handles by name.
func (f *patternFilter) files(handles source.LooseFiles) source.LooseFiles {
	if !f.active() {
		return handles
	}
	out := handles[:0:0]
	for _, h := range handles {
		if f.keepFile(h.Name()) {
			out = append(out, h)
		}
	}
	return out
}

// entry wraps a tree root so that its children are filtered lazily during traversal.
func (f *patternFilter) entry(e source.Entry) source.Entry {
	if !f.active() {
		return e
	}
	return &filteredEntry{Entry: e, f: f, depth: 0}
}

// filteredEntry is a directory whose child directories sit depth separators below the root.
type filteredEntry struct {
	source.Entry
	f     *patternFilter
	depth int
}

func (e *filteredEntry) Children() ([]source.Entry, error) {
	children, err := e.Entry.Children()
	if err != nil {
		return nil, err
	}
	out := make([]source.Entry, 0, len(children))
	for _, c := range children {
		if c == nil {
			continue
		}
		if c.IsDir() {
			if !e.f.keepDir(c.Name()) {
				continue
			}
			if e.f.maxDepth > 0 && e.depth >= e.f.maxDepth {
				continue
			}
			out = append(out, &filteredEntry{Entry: c, f: e.f, depth: e.depth + 1})
			continue
		}
		if e.f.keepFile(c.Name()) {
			out = append(out, c)
		}
	}
	return out, nil
}

// countPathSeparators counts the separators in a relative path.
func countPathSeparators(path string) int {
	path = filepath.ToSlash(path)
	if path == "." || path == "" {
		return 0
	}
	return strings.Count(strings.Trim(path, "/"), "/")
}

// depthOf is the directory depth of p below root, used by the interactive picker.
func depthOf(root, p string) int {
	rel, err := filepath.Rel(root, p)
	if err != nil {
		return 0
	}
	return countPathSeparators(rel)
}
