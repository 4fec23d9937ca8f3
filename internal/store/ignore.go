package store

import (
	"fmt"
	"io/fs"
	"path"
	"strings"

	"github.com/bmatcuk/doublestar/v4"

	"github.com/conneroisu/quickstart/internal/fsutil"
)

// DefaultIgnorePatterns are left out when a directory becomes a template.
var DefaultIgnorePatterns = []string{"node_modules", "dist", ".git", ".DS_Store", "*.log"}

// IgnoreMatcher decides which paths of a source tree are not copied.
// A pattern matches a relative path, or the base name of any entry, so
// "node_modules" excludes every such directory and "*.log" every log file.
type IgnoreMatcher struct {
	patterns []string
}

// NewIgnoreMatcher validates patterns and returns a matcher for them.
// Blank patterns are dropped.
func NewIgnoreMatcher(patterns []string) (*IgnoreMatcher, error) {
	m := &IgnoreMatcher{}
	for _, p := range patterns {
		p = strings.Trim(strings.TrimSpace(p), "/")
		if p == "" {
			continue
		}
		if !doublestar.ValidatePattern(p) {
			return nil, fmt.Errorf("invalid ignore pattern %q", p)
		}
		m.patterns = append(m.patterns, p)
	}
	return m, nil
}

// ParseIgnoreList splits a comma separated pattern list.
func ParseIgnoreList(list string) []string {
	var out []string
	for _, p := range strings.Split(list, ",") {
		if p = strings.TrimSpace(p); p != "" {
			out = append(out, p)
		}
	}
	return out
}

// Patterns returns the active patterns.
func (m *IgnoreMatcher) Patterns() []string {
	return append([]string(nil), m.patterns...)
}

// Match reports whether rel, a slash separated relative path, is ignored.
func (m *IgnoreMatcher) Match(rel string) bool {
	base := path.Base(rel)
	for _, pattern := range m.patterns {
		if match, _ := doublestar.Match(pattern, rel); match {
			return true
		}
		if match, _ := doublestar.Match(pattern, base); match {
			return true
		}
		if strings.HasPrefix(rel, pattern+"/") {
			return true
		}
	}
	return false
}

// SkipFunc adapts the matcher for fsutil.CopyTree.
func (m *IgnoreMatcher) SkipFunc() fsutil.SkipFunc {
	return func(rel string, _ fs.DirEntry) bool {
		return m.Match(rel)
	}
}
