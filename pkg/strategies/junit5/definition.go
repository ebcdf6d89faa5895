// Package junit5 implements JUnit Jupiter (JUnit 5 and 6) test classification.
package junit5

import (
	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/framework"
	"github.com/specvital/jvmtest/pkg/symbol"
)

func init() {
	framework.Register(NewClassifier())
}

// Classifier recognizes Jupiter tests, @Nested containers and @Suite classes.
type Classifier struct {
	table        framework.AnnotationTable
	testMethods  framework.AnnotationSet
	classMarkers framework.AnnotationSet
	nested       framework.AnnotationSet
	displayNames framework.AnnotationSet
}

var _ framework.Classifier = (*Classifier)(nil)

func NewClassifier() *Classifier {
	t := framework.MustTable(framework.FrameworkJUnit5)
	return &Classifier{
		table:        t,
		testMethods:  framework.NewAnnotationSet(t.TestMethod...),
		classMarkers: framework.NewAnnotationSet(t.ClassMarkers...),
		nested:       framework.NewAnnotationSet(t.Nested...),
		displayNames: framework.NewAnnotationSet(t.DisplayName...),
	}
}

// Jupiter accepts package-private and protected methods, and any return type for
// factories and templates.
var testMethodRules = framework.MethodRules{}

func (c *Classifier) Kind() domain.FrameworkKind { return domain.FrameworkJUnit5 }

func (c *Classifier) Name() string { return framework.FrameworkJUnit5 }

func (c *Classifier) QualifyingAnnotations() []string {
	return append([]string(nil), c.table.TestMethod...)
}

func (c *Classifier) KnownTypes() []string { return c.table.AllNames() }

func (c *Classifier) IsTestMethod(p symbol.Provider, method symbol.Handle) bool {
	if !framework.CheckMethodModifiers(p, method, testMethodRules) {
		return false
	}
	return framework.HasQualifyingAnnotation(p, method, c.testMethods)
}

func (c *Classifier) access() framework.Access {
	return framework.Access{AllowInner: c.isNestedDeclaration}
}

func (c *Classifier) isNestedDeclaration(p symbol.Provider, t symbol.Handle) bool {
	_, ok := framework.FindAnnotation(p, t, c.nested)
	return ok
}

func (c *Classifier) IsTestClass(p symbol.Provider, typ symbol.Handle) bool {
	return c.isTestClass(p, typ, 0)
}

const maxNestedDepth = 20

func (c *Classifier) isTestClass(p symbol.Provider, typ symbol.Handle, depth int) bool {
	if depth > maxNestedDepth {
		return false
	}
	if !framework.IsAccessibleType(p, typ, c.access()) {
		return false
	}
	if framework.HasQualifyingAnnotation(p, typ, c.classMarkers) {
		return true
	}
	if framework.HasTestMethod(p, c, typ) {
		return true
	}
	for _, nested := range framework.NestedTypes(p, typ) {
		if c.isNestedDeclaration(p, nested) && c.isTestClass(p, nested, depth+1) {
			return true
		}
	}
	return false
}

// HasClassMarker accepts @Suite classes.
func (c *Classifier) HasClassMarker(p symbol.Provider, typ symbol.Handle) bool {
	return framework.IsAccessibleType(p, typ, c.access()) &&
		framework.HasQualifyingAnnotation(p, typ, c.classMarkers)
}

// DisplayName returns the @DisplayName value of a class or method.
func (c *Classifier) DisplayName(p symbol.Provider, h symbol.Handle) (string, bool) {
	ann, ok := framework.FindAnnotation(p, h, c.displayNames)
	if !ok {
		return "", false
	}
	v, ok := ann.Value("value")
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
