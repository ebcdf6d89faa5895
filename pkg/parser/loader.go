// Package parser builds a symbol.Provider from Java sources using tree-sitter.
package parser

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"golang.org/x/sync/errgroup"
	"golang.org/x/sync/semaphore"
)

const (
	// DefaultWorkers indicates that the loader should use GOMAXPROCS as the worker count.
	DefaultWorkers = 0
	// DefaultTimeout is the default load timeout duration.
	DefaultTimeout = 5 * time.Minute
	// MaxWorkers is the maximum number of concurrent workers allowed.
	MaxWorkers = 1024
	// DefaultMaxFileSize is the default maximum file size for loading (10MB).
	DefaultMaxFileSize = 10 * 1024 * 1024
	// DefaultProject is the project name used when none is configured.
	DefaultProject = "default"
)

// Error phases.
const (
	PhaseDiscovery = "discovery"
	PhaseParsing   = "parsing"
	PhaseIndex     = "index"
)

// DefaultSkipPatterns contains directory names that are skipped by default during loading.
var DefaultSkipPatterns = []string{
	".git",
	".gradle",
	".idea",
	"build",
	"target",
	"node_modules",
	".cache",
}

var (
	// ErrLoadCancelled is returned when loading is cancelled via context.
	ErrLoadCancelled = errors.New("parser: load cancelled")
	// ErrLoadTimeout is returned when loading exceeds the timeout duration.
	ErrLoadTimeout = errors.New("parser: load timeout")
)

// LoadResult contains the non-fatal outcome of a load.
type LoadResult struct {
	// Errors contains non-fatal errors encountered during loading.
	Errors []LoadError

	Stats LoadStats
}

// LoadError represents an error that occurred during a specific phase of loading.
type LoadError struct {
	// Err is the underlying error.
	Err error

	// Path is the file path where the error occurred (may be empty for non-file errors).
	Path string

	// Phase indicates which phase the error occurred in.
	// Values: "discovery", "parsing", "index"
	Phase string
}

// Error implements the error interface.
func (e LoadError) Error() string {
	if e.Path == "" {
		return fmt.Sprintf("[%s] %v", e.Phase, e.Err)
	}
	return fmt.Sprintf("[%s] %s: %v", e.Phase, e.Path, e.Err)
}

// Unwrap returns the underlying error.
func (e LoadError) Unwrap() error {
	return e.Err
}

// LoadStats provides statistics about the load operation.
type LoadStats struct {
	// FilesScanned is the total number of source file candidates discovered.
	FilesScanned int

	// FilesParsed is the number of files that were successfully parsed.
	FilesParsed int

	// FilesFailed is the number of files that failed to parse.
	FilesFailed int

	// TypesIndexed counts type declarations, nested included.
	TypesIndexed int

	// Duration is the total load duration.
	Duration time.Duration
}

type sourceFile struct {
	path string
	uri  string
	read func() ([]byte, error)
}

// Load walks root, parses every Java source in parallel and indexes the declarations.
// Per-file failures are reported in the result; the returned error is only set for
// cancellation or timeout, in which case the index is nil.
func Load(ctx context.Context, root string, opts ...LoadOption) (*Index, *LoadResult, error) {
	options := newOptions(opts)

	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, nil, fmt.Errorf("resolve root %s: %w", root, err)
	}
	info, err := os.Stat(absRoot)
	if err != nil {
		return nil, nil, fmt.Errorf("stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, nil, fmt.Errorf("root %s is not a directory", absRoot)
	}

	return load(ctx, options, func(ctx context.Context) ([]sourceFile, []error) {
		return discoverSourceFiles(ctx, absRoot, options)
	})
}

// LoadSources indexes in-memory sources keyed by slash-separated relative path.
func LoadSources(ctx context.Context, sources map[string][]byte, opts ...LoadOption) (*Index, *LoadResult, error) {
	options := newOptions(opts)

	return load(ctx, options, func(context.Context) ([]sourceFile, []error) {
		files := make([]sourceFile, 0, len(sources))
		for path, content := range sources {
			if !strings.HasSuffix(path, ".java") || !matchesFilters(path, options) {
				continue
			}
			files = append(files, sourceFile{
				path: path,
				uri:  "file:///" + strings.TrimPrefix(path, "/"),
				read: func() ([]byte, error) { return content, nil },
			})
		}
		return files, nil
	})
}

func load(ctx context.Context, options *LoadOptions, discover func(context.Context) ([]sourceFile, []error)) (*Index, *LoadResult, error) {
	startTime := time.Now()

	ctx, cancel := context.WithTimeout(ctx, options.Timeout)
	defer cancel()

	result := &LoadResult{Errors: []LoadError{}}

	files, errs := discover(ctx)
	for _, err := range errs {
		result.Errors = append(result.Errors, LoadError{
			Err:   err,
			Phase: PhaseDiscovery,
		})
	}
	result.Stats.FilesScanned = len(files)

	decls, parseErrors := parseFilesParallel(ctx, files, options)
	result.Errors = append(result.Errors, parseErrors...)
	result.Stats.FilesParsed = len(decls)
	result.Stats.FilesFailed = len(parseErrors)

	if err := ctx.Err(); err != nil {
		result.Stats.Duration = time.Since(startTime)
		if errors.Is(err, context.DeadlineExceeded) {
			return nil, result, ErrLoadTimeout
		}
		return nil, result, ErrLoadCancelled
	}

	idx, indexErrors := buildIndex(options.Project, options.KnownTypes, decls)
	result.Errors = append(result.Errors, indexErrors...)
	result.Stats.TypesIndexed = idx.TypeCount()
	result.Stats.Duration = time.Since(startTime)

	for _, e := range result.Errors {
		options.Logger.Debug("source load error", "phase", e.Phase, "path", e.Path, "error", e.Err)
	}
	options.Logger.Debug("sources indexed",
		"project", options.Project,
		"files", result.Stats.FilesParsed,
		"types", result.Stats.TypesIndexed,
		"duration", result.Stats.Duration,
	)

	return idx, result, nil
}

func discoverSourceFiles(ctx context.Context, rootPath string, options *LoadOptions) ([]sourceFile, []error) {
	skipSet := buildSkipSet(append(DefaultSkipPatterns, options.ExcludePatterns...))

	var (
		files []sourceFile
		errs  []error
	)

	err := filepath.WalkDir(rootPath, func(path string, d fs.DirEntry, walkErr error) error {
		if ctx.Err() != nil {
			return ctx.Err()
		}

		if walkErr != nil {
			errs = append(errs, fmt.Errorf("access error at %s: %w", path, walkErr))
			return nil
		}

		if d.IsDir() {
			if shouldSkipDir(path, rootPath, skipSet) {
				return filepath.SkipDir
			}
			return nil
		}

		if !strings.EqualFold(filepath.Ext(path), ".java") {
			return nil
		}

		relPath, err := filepath.Rel(rootPath, path)
		if err != nil {
			errs = append(errs, fmt.Errorf("compute relative path for %s: %w", path, err))
			return nil
		}
		relPath = filepath.ToSlash(relPath)

		if !matchesFilters(relPath, options) {
			return nil
		}

		if options.MaxFileSize > 0 {
			info, err := d.Info()
			if err != nil {
				errs = append(errs, fmt.Errorf("failed to get file info for %s: %w", path, err))
				return nil
			}
			if info.Size() > options.MaxFileSize {
				return nil
			}
		}

		absPath := path
		files = append(files, sourceFile{
			path: relPath,
			uri:  fileURI(absPath),
			read: func() ([]byte, error) { return os.ReadFile(absPath) },
		})
		return nil
	})

	if err != nil {
		if !errors.Is(err, context.Canceled) && !errors.Is(err, context.DeadlineExceeded) {
			errs = append(errs, err)
		}
	}

	return files, errs
}

func parseFilesParallel(ctx context.Context, files []sourceFile, options *LoadOptions) ([]*fileDecl, []LoadError) {
	workers := options.Workers
	if workers <= 0 {
		workers = runtime.GOMAXPROCS(0)
	}
	if workers > MaxWorkers {
		workers = MaxWorkers
	}

	sem := semaphore.NewWeighted(int64(workers))
	g, gCtx := errgroup.WithContext(ctx)

	var (
		mu          sync.Mutex
		decls       = make([]*fileDecl, 0, len(files))
		parseErrors = make([]LoadError, 0)
	)

	for _, file := range files {
		g.Go(func() error {
			if err := sem.Acquire(gCtx, 1); err != nil {
				return nil
			}
			defer sem.Release(1)

			decl, err := parseFile(gCtx, file)

			mu.Lock()
			defer mu.Unlock()

			if err != nil {
				parseErrors = append(parseErrors, LoadError{Err: err, Path: file.path, Phase: PhaseParsing})
				return nil
			}
			decls = append(decls, decl)
			return nil
		})
	}

	_ = g.Wait()

	// Sort by path for deterministic output order.
	sort.Slice(parseErrors, func(i, j int) bool {
		return parseErrors[i].Path < parseErrors[j].Path
	})

	return decls, parseErrors
}

func parseFile(ctx context.Context, file sourceFile) (*fileDecl, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	content, err := file.read()
	if err != nil {
		return nil, fmt.Errorf("read file: %w", err)
	}

	decl, err := extractFile(ctx, file.path, file.uri, content)
	if err != nil {
		return nil, fmt.Errorf("parse: %w", err)
	}
	return decl, nil
}

func fileURI(absPath string) string {
	slashed := filepath.ToSlash(absPath)
	if !strings.HasPrefix(slashed, "/") {
		slashed = "/" + slashed
	}
	return "file://" + slashed
}

func buildSkipSet(patterns []string) map[string]bool {
	skipSet := make(map[string]bool, len(patterns))
	for _, p := range patterns {
		skipSet[p] = true
	}
	return skipSet
}

func shouldSkipDir(path, rootPath string, skipSet map[string]bool) bool {
	if path == rootPath {
		return false
	}

	base := filepath.Base(path)
	return skipSet[base]
}

func matchesFilters(relPath string, options *LoadOptions) bool {
	if len(options.Include) > 0 && !matchesAnyPattern(relPath, options.Include) {
		return false
	}
	if matchesAnyPattern(relPath, options.Exclude) {
		return false
	}
	return options.Filter == nil || options.Filter(relPath)
}

func matchesAnyPattern(relPath string, patterns []string) bool {
	for _, pattern := range patterns {
		matched, err := doublestar.Match(pattern, relPath)
		if err != nil {
			continue
		}
		if matched {
			return true
		}
	}
	return false
}
