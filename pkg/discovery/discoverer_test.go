package discovery

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/framework"
	"github.com/specvital/jvmtest/pkg/parser"
	"github.com/specvital/jvmtest/pkg/strategies/junit4"
	"github.com/specvital/jvmtest/pkg/strategies/junit5"
	"github.com/specvital/jvmtest/pkg/strategies/testng"
	"github.com/specvital/jvmtest/pkg/symbol"
)

const (
	junit4Test  = "org.junit.Test"
	jupiterTest = "org.junit.jupiter.api.Test"
	nestedAnn   = "org.junit.jupiter.api.Nested"
	runWith     = "org.junit.runner.RunWith"
	testngTest  = "org.testng.annotations.Test"
)

func newRegistry() *framework.Registry {
	r := framework.NewRegistry()
	r.Register(testng.NewClassifier())
	r.Register(junit5.NewClassifier())
	r.Register(junit4.NewClassifier())
	return r
}

func newDiscoverer(t *testing.T, projects map[string]symbol.Provider) *Discoverer {
	t.Helper()
	d := New(
		WithRegistry(newRegistry()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	for name, p := range projects {
		d.AddProject(name, p)
	}
	return d
}

func ids(items []*domain.TestItem) []string {
	out := make([]string, len(items))
	for i, item := range items {
		out[i] = item.ID
	}
	return out
}

func TestDiscover_FileScopeLegacyExample(t *testing.T) {
	mem := symbol.NewMemory("demo")
	foo := mem.Package("").Class("Foo", symbol.ModPublic)
	foo.Method("m1", symbol.ModPublic).Annotate(junit4Test)
	foo.Method("m2", symbol.ModPublic)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	forest := d.Discover(context.Background(), File("demo", "file:///src/Foo.java"))

	require.Len(t, forest, 1)
	class := forest[0]
	assert.Equal(t, domain.LevelClass, class.Level)
	assert.Equal(t, "Foo", class.QualifiedName)
	assert.Equal(t, domain.FrameworkJUnit4, class.Framework)
	assert.Empty(t, class.ParentID)

	require.Len(t, class.Children, 1)
	m1 := class.Children[0]
	assert.Equal(t, domain.LevelMethod, m1.Level)
	assert.Equal(t, "Foo#m1", m1.QualifiedName)
	assert.Equal(t, domain.FrameworkJUnit4, m1.Framework)
	assert.Equal(t, class.ID, m1.ParentID)

	assert.Nil(t, domain.FindByID(forest, "demo@Foo#m2"))
}

func TestDiscover_Idempotent(t *testing.T) {
	mem := symbol.NewMemory("demo")
	pkg := mem.Package("com.acme")
	a := pkg.Class("ATest", symbol.ModPublic)
	a.Method("first", 0).Annotate(jupiterTest)
	a.Method("second", 0).Annotate(jupiterTest)
	b := pkg.Class("BTest", symbol.ModPublic)
	b.Method("only", symbol.ModPublic).Annotate(junit4Test)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	first := d.Discover(context.Background(), Package("demo", "com.acme"))
	second := d.Discover(context.Background(), Package("demo", "com.acme"))

	assert.Equal(t, first, second)
	assert.Equal(t, ids(domain.Flatten(first)), ids(domain.Flatten(second)))
}

func TestDiscover_DeclarationOrder(t *testing.T) {
	mem := symbol.NewMemory("demo")
	pkg := mem.Package("com.acme")
	z := pkg.Class("ZTest", symbol.ModPublic)
	z.Method("zeta", 0).Annotate(jupiterTest)
	z.Method("alpha", 0).Annotate(jupiterTest)
	z.Method("mu", 0).Annotate(jupiterTest)
	a := pkg.Class("ATest", symbol.ModPublic)
	a.Method("only", 0).Annotate(jupiterTest)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	forest := d.Discover(context.Background(), Package("demo", "com.acme"))

	require.Len(t, forest, 2)
	assert.Equal(t, []string{"demo@com.acme.ZTest", "demo@com.acme.ATest"}, ids(forest))
	assert.Equal(t, []string{
		"demo@com.acme.ZTest#zeta",
		"demo@com.acme.ZTest#alpha",
		"demo@com.acme.ZTest#mu",
	}, ids(forest[0].Children))
}

func TestDiscover_ContainmentAndNoOrphans(t *testing.T) {
	mem := symbol.NewMemory("demo")
	pkg := mem.Package("com.acme")
	suite := pkg.Class("AllTests", symbol.ModPublic).Annotate(runWith, "value", "Suite.class")
	suite.Method("helper", symbol.ModPublic)
	pkg.Class("Helper", symbol.ModPublic).Method("util", symbol.ModPublic)
	outer := pkg.Class("OuterTest", symbol.ModPublic)
	outer.Method("top", 0).Annotate(jupiterTest)
	inner := outer.Class("WhenEmpty", 0).Annotate(nestedAnn)
	inner.Method("deep", 0).Annotate(jupiterTest)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	forest := d.Discover(context.Background(), Package("demo", "com.acme"))

	assert.Equal(t, []string{"demo@com.acme.AllTests", "demo@com.acme.OuterTest"}, ids(forest))

	parents := make(map[string]*domain.TestItem)
	domain.Walk(forest, func(item *domain.TestItem) bool {
		for _, c := range item.Children {
			_, dup := parents[c.ID]
			assert.False(t, dup, "item %s has two parents", c.ID)
			parents[c.ID] = item
		}
		return true
	})

	for _, item := range domain.Flatten(forest) {
		switch item.Level {
		case domain.LevelMethod:
			p, ok := parents[item.ID]
			require.True(t, ok, "method %s at top level", item.ID)
			assert.Contains(t, []domain.Level{domain.LevelClass, domain.LevelNestedClass}, p.Level)
			assert.Equal(t, p.ID, item.ParentID)
		case domain.LevelClass, domain.LevelNestedClass:
			if len(item.Children) == 0 {
				assert.Equal(t, "demo@com.acme.AllTests", item.ID, "orphan class %s", item.ID)
			}
		}
	}

	nested := domain.FindByID(forest, "demo@com.acme.OuterTest$WhenEmpty")
	require.NotNil(t, nested)
	assert.Equal(t, domain.LevelNestedClass, nested.Level)
	assert.Equal(t, "demo@com.acme.OuterTest", nested.ParentID)
	assert.Equal(t, []string{"demo@com.acme.OuterTest$WhenEmpty#deep"}, ids(nested.Children))
}

func TestDiscover_FrameworkPrecedence(t *testing.T) {
	mem := symbol.NewMemory("demo")
	cls := mem.Package("com.acme").Class("BothTest", symbol.ModPublic)
	cls.Method("both", symbol.ModPublic).Annotate(junit4Test).Annotate(jupiterTest)
	cls.Method("jupiterOnly", 0).Annotate(jupiterTest)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	for i := 0; i < 3; i++ {
		forest := d.Discover(context.Background(), Type("demo", "com.acme.BothTest"))
		require.Len(t, forest, 1)
		class := forest[0]
		assert.Equal(t, domain.FrameworkNone, class.Framework)
		require.Equal(t, []string{
			"demo@com.acme.BothTest#both",
			"demo@com.acme.BothTest#jupiterOnly",
		}, ids(class.Children))
		assert.Equal(t, domain.FrameworkJUnit4, class.Children[0].Framework)
		assert.Equal(t, domain.FrameworkJUnit5, class.Children[1].Framework)
	}
}

func TestDiscover_MixedFrameworkClass(t *testing.T) {
	mem := symbol.NewMemory("demo")
	pkg := mem.Package("com.acme")
	mixed := pkg.Class("MixedTest", symbol.ModPublic)
	mixed.Method("legacy", symbol.ModPublic).Annotate(junit4Test)
	mixed.Method("jupiter", 0).Annotate(jupiterTest)
	mixed.Method("ng", symbol.ModPublic).Annotate(testngTest)

	// JUnit 4 only runs public classes; the Jupiter test still surfaces.
	hidden := pkg.Class("HiddenTest", 0)
	hidden.Method("legacy", symbol.ModPublic).Annotate(junit4Test)
	hidden.Method("jupiter", 0).Annotate(jupiterTest)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	forest := d.Discover(context.Background(), Package("demo", "com.acme"))

	require.Equal(t, []string{"demo@com.acme.MixedTest", "demo@com.acme.HiddenTest"}, ids(forest))

	assert.Equal(t, domain.FrameworkNone, forest[0].Framework)
	require.Equal(t, []string{
		"demo@com.acme.MixedTest#legacy",
		"demo@com.acme.MixedTest#jupiter",
		"demo@com.acme.MixedTest#ng",
	}, ids(forest[0].Children))
	assert.Equal(t, domain.FrameworkJUnit4, forest[0].Children[0].Framework)
	assert.Equal(t, domain.FrameworkJUnit5, forest[0].Children[1].Framework)
	assert.Equal(t, domain.FrameworkTestNG, forest[0].Children[2].Framework)

	assert.Equal(t, domain.FrameworkJUnit5, forest[1].Framework)
	assert.Equal(t, []string{"demo@com.acme.HiddenTest#jupiter"}, ids(forest[1].Children))
}

func TestDiscover_ClassMarkers(t *testing.T) {
	mem := symbol.NewMemory("demo")
	pkg := mem.Package("com.acme")
	pkg.Class("Helper", symbol.ModPublic).Extends("junit.framework.TestCase").Method("util", symbol.ModPublic)
	pkg.Class("AllTests", symbol.ModPublic).Annotate(runWith, "value", "Suite.class")
	pkg.Class("PlatformSuite", symbol.ModPublic).Annotate("org.junit.platform.suite.api.Suite")
	pkg.Class("Configured", symbol.ModPublic).Annotate(testngTest).
		Method("setUp", symbol.ModPublic).Annotate("org.testng.annotations.BeforeMethod")

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	forest := d.Discover(context.Background(), Package("demo", "com.acme"))

	require.Equal(t, []string{
		"demo@com.acme.AllTests",
		"demo@com.acme.PlatformSuite",
		"demo@com.acme.Configured",
	}, ids(forest))
	assert.Equal(t, domain.FrameworkJUnit4, forest[0].Framework)
	assert.Equal(t, domain.FrameworkJUnit5, forest[1].Framework)
	assert.Equal(t, domain.FrameworkTestNG, forest[2].Framework)
	for _, item := range forest {
		assert.Empty(t, item.Children, item.ID)
	}
	assert.Nil(t, domain.FindByID(forest, "demo@com.acme.Helper"))
}

func TestDiscover_HolderFramework(t *testing.T) {
	mem := symbol.NewMemory("demo")
	pkg := mem.Package("com.acme")

	uniform := pkg.Class("Uniform", symbol.ModPublic)
	uniform.Class("A", symbol.ModPublic|symbol.ModStatic).Method("a", symbol.ModPublic).Annotate(junit4Test)
	uniform.Class("B", symbol.ModPublic|symbol.ModStatic).Method("b", symbol.ModPublic).Annotate(junit4Test)

	mixed := pkg.Class("Mixed", symbol.ModPublic)
	mixed.Class("A", symbol.ModPublic|symbol.ModStatic).Method("a", symbol.ModPublic).Annotate(junit4Test)
	mixed.Class("B", symbol.ModPublic|symbol.ModStatic).Method("b", symbol.ModPublic).Annotate(testngTest)

	empty := pkg.Class("Empty", symbol.ModPublic)
	empty.Class("Nothing", symbol.ModPublic|symbol.ModStatic).Method("x", symbol.ModPublic)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	forest := d.Discover(context.Background(), Package("demo", "com.acme"))

	require.Equal(t, []string{"demo@com.acme.Uniform", "demo@com.acme.Mixed"}, ids(forest))
	assert.Equal(t, domain.FrameworkJUnit4, forest[0].Framework)
	assert.Equal(t, domain.FrameworkNone, forest[1].Framework)
	assert.Equal(t, []string{"demo@com.acme.Mixed$A", "demo@com.acme.Mixed$B"}, ids(forest[1].Children))
	assert.Equal(t, domain.FrameworkTestNG, forest[1].Children[1].Framework)
}

func TestDiscover_Overloads(t *testing.T) {
	mem := symbol.NewMemory("demo")
	cls := mem.Package("com.acme").Class("OverTest", symbol.ModPublic)
	cls.Method("check", 0).Annotate(jupiterTest).Params("int")
	cls.Method("check", 0).Annotate(jupiterTest).Params("java.lang.String")
	cls.Method("single", 0).Annotate(jupiterTest)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	forest := d.Discover(context.Background(), Type("demo", "com.acme.OverTest"))

	require.Len(t, forest, 1)
	assert.Equal(t, []string{
		"demo@com.acme.OverTest#check(int)",
		"demo@com.acme.OverTest#check(java.lang.String)",
		"demo@com.acme.OverTest#single",
	}, ids(forest[0].Children))
}

func TestDiscover_NestedTypeScope(t *testing.T) {
	mem := symbol.NewMemory("demo")
	outer := mem.Package("com.acme").Class("OuterTest", symbol.ModPublic)
	outer.Method("top", 0).Annotate(jupiterTest)
	outer.Class("Inner", 0).Annotate(nestedAnn).Method("deep", 0).Annotate(jupiterTest)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	forest := d.Discover(context.Background(), Type("demo", "com.acme.OuterTest$Inner"))

	require.Len(t, forest, 1)
	assert.Equal(t, domain.LevelNestedClass, forest[0].Level)
	assert.Empty(t, forest[0].ParentID)
	assert.Equal(t, []string{"demo@com.acme.OuterTest$Inner#deep"}, ids(forest[0].Children))
}

func TestDiscover_SkipsStaleElements(t *testing.T) {
	mem := symbol.NewMemory("demo")
	pkg := mem.Package("com.acme")
	stale := pkg.Class("StaleTest", symbol.ModPublic)
	stale.Method("gone", symbol.ModPublic).Annotate(junit4Test)
	fresh := pkg.Class("FreshTest", symbol.ModPublic)
	fresh.Method("here", symbol.ModPublic).Annotate(junit4Test)
	missing := fresh.Method("unlocated", symbol.ModPublic).Annotate(junit4Test)
	pkg.Class("NoLocationTest", symbol.ModPublic).NoLocation().Method("x", symbol.ModPublic).Annotate(junit4Test)

	mem.Fail(stale.Handle(), errors.New("type was deleted"))
	mem.Fail(missing.Handle(), symbol.ErrNotFound)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})
	forest := d.Discover(context.Background(), Package("demo", "com.acme"))

	require.Equal(t, []string{"demo@com.acme.FreshTest"}, ids(forest))
	assert.Equal(t, []string{"demo@com.acme.FreshTest#here"}, ids(forest[0].Children))
}

func TestDiscover_UnresolvableScope(t *testing.T) {
	mem := symbol.NewMemory("demo")
	mem.Package("com.acme").Class("FooTest", symbol.ModPublic).Method("a", symbol.ModPublic).Annotate(junit4Test)
	d := newDiscoverer(t, map[string]symbol.Provider{"demo": mem})

	scopes := []Scope{
		File("demo", "file:///missing/Foo.java"),
		Package("demo", "com.missing"),
		Type("demo", "com.acme.Missing"),
		Project("other"),
		Package("other", "com.acme"),
	}
	for _, scope := range scopes {
		t.Run(scope.String(), func(t *testing.T) {
			forest := d.Discover(context.Background(), scope)
			assert.NotNil(t, forest)
			assert.Empty(t, forest)
		})
	}
}

// cancellingProvider cancels its context after a number of Members calls.
type cancellingProvider struct {
	*symbol.Memory
	after  int
	calls  int
	cancel context.CancelFunc
}

func (p *cancellingProvider) Members(h symbol.Handle) ([]symbol.Handle, error) {
	p.calls++
	if p.calls == p.after {
		p.cancel()
	}
	return p.Memory.Members(h)
}

func TestDiscover_CancellationYieldsEmpty(t *testing.T) {
	build := func() *symbol.Memory {
		mem := symbol.NewMemory("demo")
		pkg := mem.Package("com.acme")
		for _, name := range []string{"ATest", "BTest", "CTest"} {
			pkg.Class(name, symbol.ModPublic).Method("m", symbol.ModPublic).Annotate(junit4Test)
		}
		return mem
	}

	for _, after := range []int{1, 2, 3, 4} {
		ctx, cancel := context.WithCancel(context.Background())
		p := &cancellingProvider{Memory: build(), after: after, cancel: cancel}
		d := newDiscoverer(t, map[string]symbol.Provider{"demo": p})

		forest := d.Discover(ctx, Package("demo", "com.acme"))
		assert.NotNil(t, forest)
		assert.Empty(t, forest, "cancelled after %d member listings", after)
		cancel()
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	d := newDiscoverer(t, map[string]symbol.Provider{"demo": build()})
	assert.Empty(t, d.Discover(ctx, Workspace()))

	uncancelled := d.Discover(context.Background(), Package("demo", "com.acme"))
	assert.Len(t, uncancelled, 3)
}

func TestDiscover_WorkspaceAndProjectScopes(t *testing.T) {
	alpha := symbol.NewMemory("alpha")
	alpha.Package("com.acme").Class("FooTest", symbol.ModPublic).Method("a", symbol.ModPublic).Annotate(junit4Test)
	alpha.Package("com.empty").Class("Plain", symbol.ModPublic).Method("p", symbol.ModPublic)
	alpha.Package("").Class("RootTest", symbol.ModPublic).Method("r", symbol.ModPublic).Annotate(junit4Test)

	beta := symbol.NewMemory("beta")
	beta.Package("com.acme").Class("FooTest", symbol.ModPublic).Method("a", symbol.ModPublic).Annotate(junit4Test)

	d := New(
		WithRegistry(newRegistry()),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	d.AddProject("alpha", alpha)
	d.AddProject("beta", beta)
	assert.Equal(t, []string{"alpha", "beta"}, d.Projects())

	forest := d.Discover(context.Background(), Workspace())
	require.Equal(t, []string{"alpha", "beta"}, ids(forest))
	assert.Equal(t, domain.LevelProject, forest[0].Level)
	assert.Equal(t, []string{"alpha@com.acme", "alpha@"}, ids(forest[0].Children))
	assert.Equal(t, domain.DefaultPackageName, forest[0].Children[1].DisplayName)
	assert.Equal(t, "alpha", forest[0].Children[0].ParentID)

	seen := make(map[string]bool)
	for _, item := range domain.Flatten(forest) {
		assert.False(t, seen[item.ID], "duplicate id %s", item.ID)
		seen[item.ID] = true
	}
	assert.True(t, seen["alpha@com.acme.FooTest#a"])
	assert.True(t, seen["beta@com.acme.FooTest#a"])

	projectForest := d.Discover(context.Background(), Project("beta"))
	require.Equal(t, []string{"beta@com.acme"}, ids(projectForest))
	assert.Equal(t, domain.LevelPackage, projectForest[0].Level)
	assert.Empty(t, projectForest[0].ParentID)

	// Without a name the project scope needs a single registered project.
	assert.Empty(t, d.Discover(context.Background(), Scope{Kind: ScopeProject}))

	// A package scope without project covers every project.
	both := d.Discover(context.Background(), Scope{Kind: ScopePackage, Name: "com.acme"})
	assert.Equal(t, []string{"alpha@com.acme.FooTest", "beta@com.acme.FooTest"}, ids(both))
}

func TestDiscover_AddProjectReplaces(t *testing.T) {
	first := symbol.NewMemory("demo")
	first.Package("a").Class("OldTest", symbol.ModPublic).Method("m", symbol.ModPublic).Annotate(junit4Test)
	second := symbol.NewMemory("demo")
	second.Package("a").Class("NewTest", symbol.ModPublic).Method("m", symbol.ModPublic).Annotate(junit4Test)

	d := newDiscoverer(t, map[string]symbol.Provider{"demo": first})
	d.AddProject("demo", second)

	assert.Equal(t, []string{"demo"}, d.Projects())
	assert.Equal(t, []string{"demo@a.NewTest"}, ids(d.Discover(context.Background(), Package("demo", "a"))))
}

const nestedSource = `
package com.example;

import org.junit.jupiter.api.Nested;
import org.junit.jupiter.api.Test;

public class StackTest {
    @Test
    void isEmpty() {}

    void helper() {}

    @Nested
    class WhenNew {
        @Test
        void throwsOnPop() {}

        @Nested
        class AfterPushing {
            @Test
            void returnsElement() {}
        }
    }

    static class Fixture {
        void build() {}
    }
}
`

func TestDiscover_ParsedSources(t *testing.T) {
	r := newRegistry()
	idx, result, err := parser.LoadSources(context.Background(),
		map[string][]byte{"src/test/java/com/example/StackTest.java": []byte(nestedSource)},
		parser.WithProject("demo"),
		parser.WithRegistry(r),
	)
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	d := New(WithRegistry(r), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	d.AddProject("demo", idx)

	forest := d.Discover(context.Background(), File("demo", "src/test/java/com/example/StackTest.java"))
	require.Len(t, forest, 1)
	stack := forest[0]
	assert.Equal(t, "com.example.StackTest", stack.QualifiedName)
	assert.Equal(t, domain.FrameworkJUnit5, stack.Framework)
	assert.Equal(t, []string{
		"demo@com.example.StackTest#isEmpty",
		"demo@com.example.StackTest$WhenNew",
	}, ids(stack.Children))

	whenNew := stack.Children[1]
	assert.Equal(t, domain.LevelNestedClass, whenNew.Level)
	assert.Equal(t, []string{
		"demo@com.example.StackTest$WhenNew#throwsOnPop",
		"demo@com.example.StackTest$WhenNew$AfterPushing",
	}, ids(whenNew.Children))
	assert.Equal(t, 3, domain.CountMethods(forest))

	require.NotNil(t, stack.Location)
	assert.Equal(t, "file:///src/test/java/com/example/StackTest.java", stack.Location.URI)
}

const overloadSource = `package com.acme;

import java.util.List;
import org.junit.jupiter.api.Test;

class OverloadTest {
    @Test
    void check(String value) {}

    @Test
    void check(int value) {}

    @Test
    void check(List<String> values) {}

    @Test
    void single() {}
}
`

func TestDiscover_ParsedOverloadsUseQualifiedTypes(t *testing.T) {
	r := newRegistry()
	idx, result, err := parser.LoadSources(context.Background(),
		map[string][]byte{"src/test/java/com/acme/OverloadTest.java": []byte(overloadSource)},
		parser.WithProject("demo"),
		parser.WithRegistry(r),
	)
	require.NoError(t, err)
	require.Empty(t, result.Errors)

	d := New(WithRegistry(r), WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))))
	d.AddProject("demo", idx)

	forest := d.Discover(context.Background(), Type("demo", "com.acme.OverloadTest"))
	require.Len(t, forest, 1)
	assert.Equal(t, []string{
		"demo@com.acme.OverloadTest#check(java.lang.String)",
		"demo@com.acme.OverloadTest#check(int)",
		"demo@com.acme.OverloadTest#check(java.util.List)",
		"demo@com.acme.OverloadTest#single",
	}, ids(forest[0].Children))
}
