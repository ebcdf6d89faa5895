package parser

import (
	"log/slog"
	"time"

	"github.com/specvital/jvmtest/pkg/framework"
)

// LoadOptions configures source loading.
type LoadOptions struct {
	// ExcludePatterns specifies directory names to skip during file discovery.
	// These are combined with DefaultSkipPatterns.
	ExcludePatterns []string

	// Include holds doublestar patterns (relative to the root) a file must match.
	// Empty means every .java file is a candidate.
	Include []string

	// Exclude holds doublestar patterns (relative to the root) removing files from the load.
	Exclude []string

	// Filter, when set, must accept a file's slash-separated path relative to the root.
	Filter func(relPath string) bool

	// KnownTypes lists library types that wildcard imports may resolve to.
	// If nil, the registry's known types are used.
	KnownTypes []string

	// Logger receives per-file diagnostics. If nil, slog.Default() is used.
	Logger *slog.Logger

	// MaxFileSize is the maximum file size in bytes to process.
	// Files larger than this are skipped.
	MaxFileSize int64

	// Project names the project handle of the resulting index.
	Project string

	// Registry supplies known library types when KnownTypes is nil.
	// If nil, uses framework.DefaultRegistry().
	Registry *framework.Registry

	// Timeout is the maximum duration for the entire load operation.
	// Zero or negative values use DefaultTimeout.
	Timeout time.Duration

	// Workers specifies the number of concurrent file parsers.
	// Zero or negative values use runtime.GOMAXPROCS(0).
	Workers int
}

// LoadOption is a functional option for configuring a load.
type LoadOption func(*LoadOptions)

// WithWorkers sets the number of concurrent file parsers.
// Negative values are ignored.
func WithWorkers(n int) LoadOption {
	return func(o *LoadOptions) {
		if n >= 0 {
			o.Workers = n
		}
	}
}

// WithTimeout sets the load timeout duration.
// Negative values are ignored.
func WithTimeout(d time.Duration) LoadOption {
	return func(o *LoadOptions) {
		if d >= 0 {
			o.Timeout = d
		}
	}
}

// WithExcludePatterns adds directory names to skip during file discovery.
func WithExcludePatterns(patterns []string) LoadOption {
	return func(o *LoadOptions) {
		o.ExcludePatterns = patterns
	}
}

// WithInclude restricts loading to files matching any of the patterns.
func WithInclude(patterns []string) LoadOption {
	return func(o *LoadOptions) {
		o.Include = patterns
	}
}

// WithExclude removes files matching any of the patterns.
func WithExclude(patterns []string) LoadOption {
	return func(o *LoadOptions) {
		o.Exclude = patterns
	}
}

// WithFilter sets a predicate over relative file paths, applied after Include and Exclude.
func WithFilter(filter func(relPath string) bool) LoadOption {
	return func(o *LoadOptions) {
		o.Filter = filter
	}
}

// WithMaxFileSize sets the maximum file size to process.
func WithMaxFileSize(size int64) LoadOption {
	return func(o *LoadOptions) {
		if size >= 0 {
			o.MaxFileSize = size
		}
	}
}

// WithProject sets the project name of the index.
func WithProject(name string) LoadOption {
	return func(o *LoadOptions) {
		o.Project = name
	}
}

// WithKnownTypes sets the library types wildcard imports may resolve to.
func WithKnownTypes(types []string) LoadOption {
	return func(o *LoadOptions) {
		o.KnownTypes = types
	}
}

// WithRegistry sets the framework registry supplying known library types.
func WithRegistry(registry *framework.Registry) LoadOption {
	return func(o *LoadOptions) {
		o.Registry = registry
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) LoadOption {
	return func(o *LoadOptions) {
		o.Logger = logger
	}
}

func applyDefaults(opts *LoadOptions) {
	if opts.MaxFileSize <= 0 {
		opts.MaxFileSize = DefaultMaxFileSize
	}
	if opts.Registry == nil {
		opts.Registry = framework.DefaultRegistry()
	}
	if opts.KnownTypes == nil {
		opts.KnownTypes = opts.Registry.KnownTypes()
	}
	if opts.Timeout <= 0 {
		opts.Timeout = DefaultTimeout
	}
	if opts.Project == "" {
		opts.Project = DefaultProject
	}
	if opts.Logger == nil {
		opts.Logger = slog.Default()
	}
}

func newOptions(opts []LoadOption) *LoadOptions {
	options := &LoadOptions{}
	for _, opt := range opts {
		opt(options)
	}
	applyDefaults(options)
	return options
}
