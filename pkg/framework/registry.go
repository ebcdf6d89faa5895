package framework

import (
	"log/slog"
	"sort"
	"sync"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/symbol"
)

var defaultRegistry = NewRegistry()

// Registry holds classifiers ordered by the fixed framework precedence.
type Registry struct {
	mu          sync.RWMutex
	classifiers []Classifier
}

func NewRegistry() *Registry {
	return &Registry{}
}

// DefaultRegistry returns the registry populated by strategy packages' init functions.
func DefaultRegistry() *Registry {
	return defaultRegistry
}

// Register adds c to the default registry.
func Register(c Classifier) {
	defaultRegistry.Register(c)
}

// Register adds c, replacing any classifier of the same kind.
func (r *Registry) Register(c Classifier) {
	r.mu.Lock()
	defer r.mu.Unlock()

	for i, existing := range r.classifiers {
		if existing.Kind() == c.Kind() {
			r.classifiers[i] = c
			return
		}
	}
	r.classifiers = append(r.classifiers, c)
	sort.SliceStable(r.classifiers, func(i, j int) bool {
		return r.classifiers[i].Kind().Rank() < r.classifiers[j].Kind().Rank()
	})
}

// All returns the classifiers in precedence order.
func (r *Registry) All() []Classifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	out := make([]Classifier, len(r.classifiers))
	copy(out, r.classifiers)
	return out
}

// Find returns the classifier of the given kind.
func (r *Registry) Find(kind domain.FrameworkKind) Classifier {
	r.mu.RLock()
	defer r.mu.RUnlock()
	for _, c := range r.classifiers {
		if c.Kind() == kind {
			return c
		}
	}
	return nil
}

// KnownTypes returns the union of every classifier's known library type names.
func (r *Registry) KnownTypes() []string {
	seen := make(map[string]struct{})
	var out []string
	for _, c := range r.All() {
		for _, n := range c.KnownTypes() {
			if _, ok := seen[n]; ok {
				continue
			}
			seen[n] = struct{}{}
			out = append(out, n)
		}
	}
	sort.Strings(out)
	return out
}

// Classify returns the first classifier, in precedence order, that accepts method.
func (r *Registry) Classify(p symbol.Provider, method symbol.Handle) (Classifier, bool) {
	matches := r.MatchingFrameworks(p, method)
	if len(matches) == 0 {
		return nil, false
	}
	if len(matches) > 1 {
		slog.Debug("method matches several frameworks, using precedence",
			"method", method.ID(),
			"selected", matches[0].Name(),
			"matches", len(matches))
	}
	return matches[0], true
}

// MatchingFrameworks returns every classifier that accepts method, in precedence order.
func (r *Registry) MatchingFrameworks(p symbol.Provider, method symbol.Handle) []Classifier {
	var out []Classifier
	for _, c := range r.All() {
		if c.IsTestMethod(p, method) {
			out = append(out, c)
		}
	}
	return out
}

// ClassifyMarker returns the first classifier, in precedence order, that finds a
// class-level marker on typ.
func (r *Registry) ClassifyMarker(p symbol.Provider, typ symbol.Handle) (Classifier, bool) {
	for _, c := range r.All() {
		if c.HasClassMarker(p, typ) {
			return c, true
		}
	}
	return nil, false
}

// ClassifyType returns the first classifier, in precedence order, that accepts typ as a
// test class.
func (r *Registry) ClassifyType(p symbol.Provider, typ symbol.Handle) (Classifier, bool) {
	for _, c := range r.All() {
		if c.IsTestClass(p, typ) {
			return c, true
		}
	}
	return nil, false
}
