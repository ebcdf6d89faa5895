// Package discovery walks a scope of one or more projects, classifies its types and methods
// and assembles the resulting test items into a forest.
//
// A walk never fails: elements whose symbols cannot be read are skipped, a scope that cannot
// be resolved yields an empty forest, and a cancelled walk discards everything it built.
package discovery

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/framework"
	"github.com/specvital/jvmtest/pkg/symbol"
	"github.com/specvital/jvmtest/pkg/testitem"
)

// Discoverer assembles test item forests from registered projects.
// Each Discover call allocates its own working state, so calls may run concurrently.
type Discoverer struct {
	mu       sync.RWMutex
	projects []project
	registry *framework.Registry
	logger   *slog.Logger
}

type project struct {
	name     string
	provider symbol.Provider
}

// Option configures a Discoverer.
type Option func(*Discoverer)

// WithRegistry sets the classifier registry. Defaults to framework.DefaultRegistry().
func WithRegistry(r *framework.Registry) Option {
	return func(d *Discoverer) {
		if r != nil {
			d.registry = r
		}
	}
}

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(d *Discoverer) {
		if l != nil {
			d.logger = l
		}
	}
}

// New creates a Discoverer without projects.
func New(opts ...Option) *Discoverer {
	d := &Discoverer{
		registry: framework.DefaultRegistry(),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(d)
	}
	return d
}

// AddProject registers a project, replacing any project of the same name.
// The provider must resolve the project handle under the same name.
func (d *Discoverer) AddProject(name string, p symbol.Provider) {
	d.mu.Lock()
	defer d.mu.Unlock()

	for i, existing := range d.projects {
		if existing.name == name {
			d.projects[i].provider = p
			return
		}
	}
	d.projects = append(d.projects, project{name: name, provider: p})
}

// Projects returns the registered project names in registration order.
func (d *Discoverer) Projects() []string {
	d.mu.RLock()
	defer d.mu.RUnlock()

	names := make([]string, len(d.projects))
	for i, p := range d.projects {
		names[i] = p.name
	}
	return names
}

func (d *Discoverer) selectProjects(scope Scope) []project {
	d.mu.RLock()
	defer d.mu.RUnlock()

	if scope.Project == "" {
		if scope.Kind == ScopeProject && len(d.projects) != 1 {
			return nil
		}
		return append([]project(nil), d.projects...)
	}
	for _, p := range d.projects {
		if p.name == scope.Project {
			return []project{p}
		}
	}
	return nil
}

// Discover returns the test item forest of scope. Children keep the declaration order of
// the symbol provider. The result is empty when the scope cannot be resolved or ctx is
// cancelled during the walk.
func (d *Discoverer) Discover(ctx context.Context, scope Scope) []*domain.TestItem {
	start := time.Now()
	projects := d.selectProjects(scope)
	if len(projects) == 0 {
		d.logger.Debug("discovery scope has no project", "scope", scope.String())
		return []*domain.TestItem{}
	}

	s := newSession(ctx, d.registry, d.logger)
	for _, p := range projects {
		if !s.alive() {
			break
		}
		w := &walker{
			project:  p.name,
			provider: p.provider,
			builder:  testitem.NewBuilder(p.provider, p.name),
		}
		s.discoverScope(w, scope)
	}

	forest := s.finish()
	d.logger.Debug("discovery finished",
		"scope", scope.String(),
		"items", len(forest),
		"methods", domain.CountMethods(forest),
		"cancelled", s.cancelled,
		"duration", time.Since(start),
	)
	return forest
}
