// Package config loads the project file describing where a project's test sources live
// and how its tests are launched.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"io/fs"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/bmatcuk/doublestar/v4"
	"gopkg.in/yaml.v3"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/launch"
	"github.com/specvital/jvmtest/pkg/parser"
	"github.com/specvital/jvmtest/pkg/testitem"
)

const (
	// FileName is the project file looked up in a project directory.
	FileName = "jvmtest.yaml"
	// EnvProject overrides the project name.
	EnvProject = "JVMTEST_PROJECT"
)

// ErrInvalidConfig is wrapped by every validation failure.
var ErrInvalidConfig = errors.New("invalid config")

// Config describes one project.
type Config struct {
	Name string `yaml:"name"`
	// Root is the project directory; relative paths resolve against it.
	Root string `yaml:"-"`
	// SourceRoots are directories holding Java sources, relative to Root.
	SourceRoots []string `yaml:"sourceRoots"`
	// Include and Exclude are doublestar patterns relative to a source root.
	Include []string `yaml:"include"`
	Exclude []string `yaml:"exclude"`
	// Classpath and ModulePath entries are paths or doublestar globs relative to Root.
	Classpath        []string `yaml:"classpath"`
	ModulePath       []string `yaml:"modulePath"`
	VMArguments      []string `yaml:"vmArguments"`
	WorkingDirectory string   `yaml:"workingDirectory"`
	// Runners maps a framework name (junit4, junit5, testng) to a main class.
	Runners map[string]string `yaml:"runners"`
	// Workers and Timeout tune source loading; zero keeps the loader defaults.
	Workers int           `yaml:"workers"`
	Timeout time.Duration `yaml:"timeout"`
}

// Default returns the configuration of a project directory without project file.
func Default(root string) *Config {
	c := &Config{Root: root}
	c.applyDefaults()
	return c
}

// Load reads the project file at path. A directory path looks for FileName inside it and
// falls back to Default when there is none.
func Load(path string) (*Config, error) {
	abs, err := filepath.Abs(path)
	if err != nil {
		return nil, fmt.Errorf("resolve config path %s: %w", path, err)
	}

	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("stat config path: %w", err)
	}

	file := abs
	if info.IsDir() {
		file = filepath.Join(abs, FileName)
		if _, err := os.Stat(file); errors.Is(err, fs.ErrNotExist) {
			c := Default(abs)
			if err := c.Validate(); err != nil {
				return nil, err
			}
			return c, nil
		}
	}

	data, err := os.ReadFile(file)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	c, err := Parse(data, filepath.Dir(file))
	if err != nil {
		return nil, fmt.Errorf("%s: %w", file, err)
	}
	return c, nil
}

// Parse decodes a project file whose project directory is root. Unknown keys are errors.
func Parse(data []byte, root string) (*Config, error) {
	c := &Config{}
	dec := yaml.NewDecoder(bytes.NewReader(data))
	dec.KnownFields(true)
	if err := dec.Decode(c); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("decode config: %w", err)
	}

	c.Root = root
	c.applyDefaults()
	if err := c.Validate(); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Config) applyDefaults() {
	if name := os.Getenv(EnvProject); name != "" {
		c.Name = name
	}
	if c.Name == "" {
		c.Name = filepath.Base(c.Root)
	}
	if len(c.SourceRoots) == 0 {
		c.SourceRoots = []string{"."}
	}
}

// Validate checks names and patterns.
func (c *Config) Validate() error {
	var errs []error

	if c.Name == "" || c.Name == "." || c.Name == string(filepath.Separator) {
		errs = append(errs, errors.New("name is required"))
	}
	if strings.Contains(c.Name, testitem.IDSeparator) {
		errs = append(errs, fmt.Errorf("name %q must not contain %q", c.Name, testitem.IDSeparator))
	}
	if c.Workers < 0 {
		errs = append(errs, fmt.Errorf("workers must not be negative, got %d", c.Workers))
	}
	if c.Timeout < 0 {
		errs = append(errs, fmt.Errorf("timeout must not be negative, got %s", c.Timeout))
	}
	for _, root := range c.SourceRoots {
		if filepath.IsAbs(root) {
			errs = append(errs, fmt.Errorf("source root %q must be relative", root))
		}
	}

	patterns := make([]string, 0, len(c.Include)+len(c.Exclude)+len(c.Classpath)+len(c.ModulePath))
	patterns = append(patterns, c.Include...)
	patterns = append(patterns, c.Exclude...)
	patterns = append(patterns, c.Classpath...)
	patterns = append(patterns, c.ModulePath...)
	for _, p := range patterns {
		if !doublestar.ValidatePattern(filepath.ToSlash(p)) {
			errs = append(errs, fmt.Errorf("invalid pattern %q", p))
		}
	}

	for name := range c.Runners {
		if _, ok := domain.ParseFrameworkKind(name); !ok {
			errs = append(errs, fmt.Errorf("unknown runner framework %q", name))
		}
	}

	if len(errs) > 0 {
		return fmt.Errorf("%w: %w", ErrInvalidConfig, errors.Join(errs...))
	}
	return nil
}

// Scope returns the source file scope of the project.
func (c *Config) Scope() *SourceScope {
	return &SourceScope{
		BaseDir: c.Root,
		Roots:   c.SourceRoots,
		Include: c.Include,
		Exclude: c.Exclude,
	}
}

// LoadOptions returns the parser options loading this project's sources from Root.
func (c *Config) LoadOptions() []parser.LoadOption {
	opts := []parser.LoadOption{
		parser.WithProject(c.Name),
		parser.WithFilter(c.Scope().Contains),
	}
	if c.Workers > 0 {
		opts = append(opts, parser.WithWorkers(c.Workers))
	}
	if c.Timeout > 0 {
		opts = append(opts, parser.WithTimeout(c.Timeout))
	}
	return opts
}

// Launch returns the launch description of the project.
func (c *Config) Launch() launch.Project {
	wd := c.WorkingDirectory
	if wd != "" && !filepath.IsAbs(wd) {
		wd = filepath.Join(c.Root, wd)
	}

	var mains map[domain.FrameworkKind]string
	if len(c.Runners) > 0 {
		mains = make(map[domain.FrameworkKind]string, len(c.Runners))
		for name, main := range c.Runners {
			if kind, ok := domain.ParseFrameworkKind(name); ok {
				mains[kind] = main
			}
		}
	}

	return launch.Project{
		Name:             c.Name,
		Root:             c.Root,
		WorkingDirectory: wd,
		Classpath:        c.Classpath,
		ModulePath:       c.ModulePath,
		VMArguments:      c.VMArguments,
		MainClasses:      mains,
	}
}
