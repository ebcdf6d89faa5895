package launch

import (
	"errors"
	"fmt"
)

var (
	ErrEmptySelection       = errors.New("launch: empty selection")
	ErrUnknownProject       = errors.New("launch: unknown project")
	ErrMixedProjects        = errors.New("launch: selection spans several projects")
	ErrMixedFrameworks      = errors.New("launch: selection spans several frameworks")
	ErrUnknownFramework     = errors.New("launch: framework cannot be determined")
	ErrUnsupportedSelection = errors.New("launch: selection cannot be expressed for framework")
	ErrNoMatches            = errors.New("no files match")
)

// ClasspathError reports a class path or module path entry that cannot be resolved.
type ClasspathError struct {
	Project string
	Entry   string
	Err     error
}

func (e *ClasspathError) Error() string {
	if e.Entry == "" {
		return fmt.Sprintf("classpath of project %s: %v", e.Project, e.Err)
	}
	return fmt.Sprintf("classpath of project %s: entry %q: %v", e.Project, e.Entry, e.Err)
}

func (e *ClasspathError) Unwrap() error {
	return e.Err
}
