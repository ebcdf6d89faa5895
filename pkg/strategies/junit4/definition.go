// Package junit4 implements JUnit 4 test classification, including JUnit 3 style
// TestCase classes, which the JUnit 4 runner executes as well.
package junit4

import (
	"strings"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/framework"
	"github.com/specvital/jvmtest/pkg/symbol"
)

func init() {
	framework.Register(NewClassifier())
}

// Classifier recognizes JUnit 4 tests.
type Classifier struct {
	table        framework.AnnotationTable
	testMethods  framework.AnnotationSet
	classMarkers framework.AnnotationSet
	markerTypes  framework.AnnotationSet
	suiteReturns framework.AnnotationSet
}

var _ framework.Classifier = (*Classifier)(nil)

func NewClassifier() *Classifier {
	t := framework.MustTable(framework.FrameworkJUnit4)
	return &Classifier{
		table:        t,
		testMethods:  framework.NewAnnotationSet(t.TestMethod...),
		classMarkers: framework.NewAnnotationSet(t.ClassMarkers...),
		markerTypes:  framework.NewAnnotationSet(t.MarkerTypes...),
		suiteReturns: framework.NewAnnotationSet(t.SuiteReturnTypes...),
	}
}

// testMethodRules: JUnit 4 only runs public void instance methods.
var testMethodRules = framework.MethodRules{
	RequirePublic: true,
	RequireVoid:   true,
}

// legacyMethodRules: JUnit 3 picks up public void no-arg testXxx methods.
var legacyMethodRules = framework.MethodRules{
	RequirePublic: true,
	RequireVoid:   true,
	RequireNoArgs: true,
}

var classAccess = framework.Access{RequirePublic: true}

func (c *Classifier) Kind() domain.FrameworkKind { return domain.FrameworkJUnit4 }

func (c *Classifier) Name() string { return framework.FrameworkJUnit4 }

func (c *Classifier) QualifyingAnnotations() []string {
	return append([]string(nil), c.table.TestMethod...)
}

func (c *Classifier) KnownTypes() []string { return c.table.AllNames() }

func (c *Classifier) IsTestMethod(p symbol.Provider, method symbol.Handle) bool {
	if !framework.CheckMethodModifiers(p, method, testMethodRules) {
		return false
	}
	if framework.HasQualifyingAnnotation(p, method, c.testMethods) {
		return true
	}
	return c.isLegacyTestMethod(p, method)
}

func (c *Classifier) isLegacyTestMethod(p symbol.Provider, method symbol.Handle) bool {
	if !strings.HasPrefix(method.Name(), "test") {
		return false
	}
	if !framework.CheckMethodModifiers(p, method, legacyMethodRules) {
		return false
	}
	owner, err := p.DeclaringType(method)
	if err != nil {
		return false
	}
	return framework.IsSubtypeOf(p, owner, c.markerTypes)
}

func (c *Classifier) IsTestClass(p symbol.Provider, typ symbol.Handle) bool {
	if !framework.IsAccessibleType(p, typ, classAccess) {
		return false
	}
	if framework.HasQualifyingAnnotation(p, typ, c.classMarkers) {
		return true
	}
	if framework.IsSubtypeOf(p, typ, c.markerTypes) {
		return true
	}
	if c.hasSuiteMethod(p, typ) {
		return true
	}
	return framework.HasTestMethod(p, c, typ)
}

// HasClassMarker accepts @RunWith and @SuiteClasses classes and suite() factories.
// A bare TestCase subclass is not a marker.
func (c *Classifier) HasClassMarker(p symbol.Provider, typ symbol.Handle) bool {
	if !framework.IsAccessibleType(p, typ, classAccess) {
		return false
	}
	return framework.HasQualifyingAnnotation(p, typ, c.classMarkers) || c.hasSuiteMethod(p, typ)
}

// hasSuiteMethod looks for the legacy "public static Test suite()" factory.
func (c *Classifier) hasSuiteMethod(p symbol.Provider, typ symbol.Handle) bool {
	for _, m := range framework.Methods(p, typ) {
		if m.Name() != "suite" {
			continue
		}
		mods, err := p.Modifiers(m)
		if err != nil || !mods.Has(symbol.ModPublic|symbol.ModStatic) {
			continue
		}
		sig, err := p.Signature(m)
		if err != nil || len(sig.ParameterTypes) > 0 {
			continue
		}
		if c.suiteReturns.Contains(sig.ReturnType) || sig.ReturnType == "Test" {
			return true
		}
	}
	return false
}

// DisplayName: JUnit 4 has no display name override.
func (c *Classifier) DisplayName(symbol.Provider, symbol.Handle) (string, bool) {
	return "", false
}
