package framework

import (
	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/symbol"
)

// Classifier is the stateless policy of one test framework.
// Predicates never fail: symbol lookup errors make them report false.
type Classifier interface {
	// Kind identifies the framework on produced test items.
	Kind() domain.FrameworkKind
	// Name is the test-kind registry entry the classifier corresponds to.
	Name() string
	// QualifyingAnnotations lists the test method annotations; membership is closed over
	// meta-annotations.
	QualifyingAnnotations() []string
	// KnownTypes lists library type names the framework refers to, used by providers to
	// resolve simple names brought in by wildcard imports.
	KnownTypes() []string
	IsTestMethod(p symbol.Provider, method symbol.Handle) bool
	IsTestClass(p symbol.Provider, typ symbol.Handle) bool
	// HasClassMarker reports a class-level declaration, such as a runner or suite
	// annotation, that makes typ runnable without test methods of its own.
	HasClassMarker(p symbol.Provider, typ symbol.Handle) bool
	// DisplayName returns a framework-supplied label override, if present.
	DisplayName(p symbol.Provider, h symbol.Handle) (string, bool)
}
