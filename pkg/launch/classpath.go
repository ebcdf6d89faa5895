package launch

import (
	"context"
	"os"
	"path/filepath"
	"sort"

	"github.com/bmatcuk/doublestar/v4"
)

// expandEntries resolves class path entries against root. Entries containing glob
// metacharacters expand to their matches in lexical order; plain entries must exist.
func expandEntries(ctx context.Context, project, root string, entries []string) ([]string, error) {
	var out []string
	seen := make(map[string]bool)

	add := func(path string) {
		if !seen[path] {
			seen[path] = true
			out = append(out, path)
		}
	}

	for _, entry := range entries {
		if err := ctx.Err(); err != nil {
			return nil, err
		}

		pattern := entry
		if !filepath.IsAbs(pattern) {
			pattern = filepath.Join(root, pattern)
		}

		if !hasMeta(pattern) {
			if _, err := os.Stat(pattern); err != nil {
				return nil, &ClasspathError{Project: project, Entry: entry, Err: err}
			}
			add(pattern)
			continue
		}

		matches, err := doublestar.FilepathGlob(pattern)
		if err != nil {
			return nil, &ClasspathError{Project: project, Entry: entry, Err: err}
		}
		if len(matches) == 0 {
			return nil, &ClasspathError{Project: project, Entry: entry, Err: ErrNoMatches}
		}
		sort.Strings(matches)
		for _, m := range matches {
			add(m)
		}
	}
	return out, nil
}

func hasMeta(pattern string) bool {
	for i := 0; i < len(pattern); i++ {
		switch pattern[i] {
		case '*', '?', '[', '{':
			return true
		}
	}
	return false
}
