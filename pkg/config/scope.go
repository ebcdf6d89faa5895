package config

import (
	"path"
	"path/filepath"
	"strings"

	"github.com/bmatcuk/doublestar/v4"
)

// SourceScope decides which source files belong to a project.
// Paths are slash-separated and relative to BaseDir; patterns are matched against the
// path relative to the source root containing the file.
type SourceScope struct {
	BaseDir string
	// Roots lists source roots relative to BaseDir. Empty means BaseDir itself.
	Roots   []string
	Include []string
	Exclude []string
}

// Contains reports whether relPath lies in one of the roots, matches an include pattern
// when any are set, and matches no exclude pattern.
func (s *SourceScope) Contains(relPath string) bool {
	if s == nil {
		return false
	}

	p := path.Clean(filepath.ToSlash(relPath))
	if p == ".." || strings.HasPrefix(p, "../") {
		return false
	}

	for _, r := range s.effectiveRoots() {
		rel, ok := within(path.Clean(filepath.ToSlash(r)), p)
		if !ok {
			continue
		}

		if len(s.Include) > 0 && !matchesAny(s.Include, rel) {
			continue
		}
		if matchesAny(s.Exclude, rel) {
			continue
		}
		return true
	}
	return false
}

func (s *SourceScope) effectiveRoots() []string {
	if len(s.Roots) > 0 {
		return s.Roots
	}
	return []string{"."}
}

func within(root, p string) (string, bool) {
	switch {
	case root == ".":
		return p, true
	case p == root:
		return ".", true
	case strings.HasPrefix(p, root+"/"):
		return p[len(root)+1:], true
	default:
		return "", false
	}
}

func matchesAny(patterns []string, rel string) bool {
	for _, pattern := range patterns {
		if match, err := doublestar.Match(pattern, rel); err == nil && match {
			return true
		}
	}
	return false
}
