// Package testng implements TestNG test classification.
package testng

import (
	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/framework"
	"github.com/specvital/jvmtest/pkg/symbol"
)

func init() {
	framework.Register(NewClassifier())
}

// Classifier recognizes TestNG tests. A class-level @Test turns every public method into a
// test except configuration methods.
type Classifier struct {
	table         framework.AnnotationTable
	testMethods   framework.AnnotationSet
	configuration framework.AnnotationSet
}

var _ framework.Classifier = (*Classifier)(nil)

func NewClassifier() *Classifier {
	t := framework.MustTable(framework.FrameworkTestNG)
	return &Classifier{
		table:         t,
		testMethods:   framework.NewAnnotationSet(t.TestMethod...),
		configuration: framework.NewAnnotationSet(t.Configuration...),
	}
}

var testMethodRules = framework.MethodRules{}

var classLevelRules = framework.MethodRules{RequirePublic: true}

var classAccess = framework.Access{}

func (c *Classifier) Kind() domain.FrameworkKind { return domain.FrameworkTestNG }

func (c *Classifier) Name() string { return framework.FrameworkTestNG }

func (c *Classifier) QualifyingAnnotations() []string {
	return append([]string(nil), c.table.TestMethod...)
}

func (c *Classifier) KnownTypes() []string { return c.table.AllNames() }

func (c *Classifier) IsTestMethod(p symbol.Provider, method symbol.Handle) bool {
	if !framework.CheckMethodModifiers(p, method, testMethodRules) {
		return false
	}
	if _, ok := framework.FindAnnotation(p, method, c.configuration); ok {
		return false
	}
	if framework.HasQualifyingAnnotation(p, method, c.testMethods) {
		return true
	}

	owner, err := p.DeclaringType(method)
	if err != nil || !c.hasClassLevelTest(p, owner) {
		return false
	}
	return framework.CheckMethodModifiers(p, method, classLevelRules)
}

func (c *Classifier) hasClassLevelTest(p symbol.Provider, typ symbol.Handle) bool {
	return framework.HasQualifyingAnnotation(p, typ, c.testMethods)
}

func (c *Classifier) IsTestClass(p symbol.Provider, typ symbol.Handle) bool {
	if !framework.IsAccessibleType(p, typ, classAccess) {
		return false
	}
	if c.hasClassLevelTest(p, typ) {
		return true
	}
	return framework.HasTestMethod(p, c, typ)
}

// HasClassMarker accepts classes carrying a class-level @Test.
func (c *Classifier) HasClassMarker(p symbol.Provider, typ symbol.Handle) bool {
	return framework.IsAccessibleType(p, typ, classAccess) && c.hasClassLevelTest(p, typ)
}

// DisplayName returns the description attribute of a method's @Test.
func (c *Classifier) DisplayName(p symbol.Provider, h symbol.Handle) (string, bool) {
	if h.Kind() != symbol.KindMethod {
		return "", false
	}
	ann, ok := framework.FindAnnotation(p, h, c.testMethods)
	if !ok {
		return "", false
	}
	v, ok := ann.Value("description")
	if !ok || v == "" {
		return "", false
	}
	return v, true
}
