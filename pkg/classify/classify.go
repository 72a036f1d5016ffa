// Package classify decides which ingested paths are noise and which files are binary.
//
// A Classifier is built from a Config value; it holds no mutable state after construction
// and is safe for concurrent use.
package classify

import (
	"io"
	"path"
	"strings"

	gitignore "github.com/monochromegane/go-gitignore"
)

// Classifier answers ShouldIgnore and IsBinary from its static tables.
type Classifier struct {
	ignoredDirs     map[string]struct{}
	ignoredFiles    map[string]struct{}
	allowedDotfiles map[string]struct{}
	bannedDotfiles  map[string]struct{}
	textExts        map[string]struct{}
	binaryExts      map[string]struct{}

	// Optional .gitignore rules, applied to paths under ignorePrefix.
	ignoreMatcher gitignore.IgnoreMatcher
	ignorePrefix  string
}

// New builds a Classifier from cfg.
func New(cfg Config) *Classifier {
	return &Classifier{
		ignoredDirs:     nameSet(cfg.IgnoredDirs),
		ignoredFiles:    nameSet(cfg.IgnoredFiles),
		allowedDotfiles: nameSet(cfg.AllowedDotfiles),
		bannedDotfiles:  nameSet(cfg.BannedDotfiles),
		textExts:        extSet(cfg.TextExtensions),
		binaryExts:      extSet(cfg.BinaryExtensions),
	}
}

// Default returns a Classifier over DefaultConfig.
func Default() *Classifier {
	return New(DefaultConfig())
}

// WithGitIgnore returns a copy of c that additionally applies the .gitignore rules read from r
// to every path below prefix (a posix path such as "myproject"; empty means every path).
func (c *Classifier) WithGitIgnore(prefix string, r io.Reader) *Classifier {
	cp := *c
	cp.ignoreMatcher = gitignore.NewGitIgnoreFromReader(".", r)
	cp.ignorePrefix = strings.Trim(toSlash(prefix), "/")
	return &cp
}

// ShouldIgnore reports whether p names a file that must not be ingested.
func (c *Classifier) ShouldIgnore(p string) bool {
	parts := splitPath(p)
	if len(parts) == 0 {
		return true
	}
	for _, part := range parts {
		if _, ok := c.ignoredDirs[part]; ok {
			return true
		}
	}

	base := parts[len(parts)-1]
	if _, ok := c.ignoredFiles[base]; ok {
		return true
	}
	if strings.HasPrefix(base, ".") {
		if _, banned := c.bannedDotfiles[base]; banned {
			return true
		}
		if _, allowed := c.allowedDotfiles[base]; !allowed {
			return true
		}
	}

	return c.gitIgnored(parts)
}

// IsIgnoredDir reports whether a single directory name is on the ignored-directory list.
// Traversals use it to prune whole subtrees.
func (c *Classifier) IsIgnoredDir(name string) bool {
	_, ok := c.ignoredDirs[name]
	return ok
}

// IsBinary reports whether filename should be replaced by a binary placeholder.
// Files without an extension, or with an unknown one, are treated as text.
func (c *Classifier) IsBinary(filename string) bool {
	ext := Extension(filename)
	if ext == "" {
		return false
	}
	if _, ok := c.textExts[ext]; ok {
		return false
	}
	_, ok := c.binaryExts[ext]
	return ok
}

func (c *Classifier) gitIgnored(parts []string) bool {
	if c.ignoreMatcher == nil {
		return false
	}
	rel := parts
	if c.ignorePrefix != "" {
		prefix := strings.Split(c.ignorePrefix, "/")
		if len(parts) <= len(prefix) {
			return false
		}
		for i, seg := range prefix {
			if parts[i] != seg {
				return false
			}
		}
		rel = parts[len(prefix):]
	}

	// Directory patterns such as "build/" only match when the directory itself is tested.
	for i := 1; i < len(rel); i++ {
		if c.ignoreMatcher.Match(path.Join(rel[:i]...), true) {
			return true
		}
	}
	return c.ignoreMatcher.Match(path.Join(rel...), false)
}

// Extension returns the lowercase suffix after the last '.' of the base name of p,
// or "" when the base name has no dot or ends with one.
func Extension(p string) string {
	base := BaseName(p)
	idx := strings.LastIndex(base, ".")
	if idx < 0 {
		return ""
	}
	return strings.ToLower(base[idx+1:])
}

// BaseName returns the last '/' or '\' separated segment of p.
func BaseName(p string) string {
	if idx := strings.LastIndexAny(p, `/\`); idx >= 0 {
		return p[idx+1:]
	}
	return p
}

// splitPath splits p on both separators and drops empty segments.
func splitPath(p string) []string {
	raw := strings.FieldsFunc(p, func(r rune) bool { return r == '/' || r == '\\' })
	parts := raw[:0]
	for _, s := range raw {
		if s == "." {
			continue
		}
		parts = append(parts, s)
	}
	return parts
}

func toSlash(p string) string {
	return strings.ReplaceAll(p, `\`, "/")
}
