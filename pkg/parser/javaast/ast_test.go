package javaast_test

import (
	"context"
	"testing"

	sitter "github.com/smacker/go-tree-sitter"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specvital/jvmtest/pkg/parser/javaast"
	"github.com/specvital/jvmtest/pkg/parser/tspool"
)

func parse(t *testing.T, source string) (*sitter.Node, []byte) {
	t.Helper()
	src := []byte(source)
	tree, err := tspool.Parse(context.Background(), src)
	require.NoError(t, err)
	t.Cleanup(tree.Close)
	return tree.RootNode(), src
}

func firstOfType(node *sitter.Node, nodeType string) *sitter.Node {
	if node.Type() == nodeType {
		return node
	}
	for i := 0; i < int(node.NamedChildCount()); i++ {
		if found := firstOfType(node.NamedChild(i), nodeType); found != nil {
			return found
		}
	}
	return nil
}

func TestModifiersAndAnnotations(t *testing.T) {
	root, src := parse(t, `
class A {
    @Test
    @DisplayName("says \"hi\"")
    @org.junit.jupiter.api.Tag(value = "fast", extra = 3)
    public static final void m() {}
}
`)
	method := firstOfType(root, javaast.NodeMethodDeclaration)
	require.NotNil(t, method)

	mods := javaast.GetModifiers(method)
	require.NotNil(t, mods)
	assert.Equal(t, []string{"public", "static", "final"}, javaast.ModifierKeywords(mods))

	anns := javaast.GetAnnotations(mods)
	require.Len(t, anns, 3)
	assert.Equal(t, "Test", javaast.GetAnnotationName(anns[0], src))
	assert.Equal(t, "DisplayName", javaast.GetAnnotationName(anns[1], src))
	assert.Equal(t, "org.junit.jupiter.api.Tag", javaast.GetAnnotationName(anns[2], src))

	assert.Nil(t, javaast.GetAnnotationArguments(anns[0], src))
	assert.Equal(t, []javaast.AnnotationArgument{{Name: "value", Value: `says "hi"`}},
		javaast.GetAnnotationArguments(anns[1], src))
	assert.Equal(t, []javaast.AnnotationArgument{
		{Name: "value", Value: "fast"},
		{Name: "extra", Value: "3"},
	}, javaast.GetAnnotationArguments(anns[2], src))
}

func TestGetParameters(t *testing.T) {
	root, src := parse(t, `
class A {
    void m(java.util.List<String> items, int[] counts, String names[], Object... rest) {}
}
`)
	method := firstOfType(root, javaast.NodeMethodDeclaration)
	require.NotNil(t, method)

	assert.Equal(t, []javaast.Parameter{
		{Type: "java.util.List"},
		{Type: "int[]"},
		{Type: "String[]"},
		{Type: "Object", Variadic: true},
	}, javaast.GetParameters(method, src))
}

func TestSupertypeNodes(t *testing.T) {
	root, src := parse(t, `class A extends Base<String> implements Runnable, java.io.Serializable {}`)
	class := firstOfType(root, javaast.NodeClassDeclaration)
	require.NotNil(t, class)

	var names []string
	for _, n := range javaast.SupertypeNodes(class) {
		names = append(names, javaast.EraseType(n.Content(src)))
	}
	assert.Equal(t, []string{"Base", "Runnable", "java.io.Serializable"}, names)
}

func TestBodyMembers_Enum(t *testing.T) {
	root, src := parse(t, `enum E { A, B; void m() {} class N {} }`)
	enum := firstOfType(root, javaast.NodeEnumDeclaration)
	require.NotNil(t, enum)

	members := javaast.BodyMembers(javaast.GetBody(enum))
	require.Len(t, members, 2)
	assert.Equal(t, "m", javaast.GetDeclarationName(members[0], src))
	assert.Equal(t, "N", javaast.GetDeclarationName(members[1], src))
	assert.True(t, javaast.IsTypeDeclaration(members[1]))
}

func TestEraseType(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"String", "String"},
		{"Map<String, List<Integer>>", "Map"},
		{"@NonNull String", "String"},
		{"java.util.List<?>[]", "java.util.List[]"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, javaast.EraseType(tt.in))
		})
	}
}

func TestUnquoteString(t *testing.T) {
	assert.Equal(t, "plain", javaast.UnquoteString(`"plain"`))
	assert.Equal(t, "a\tb\\c", javaast.UnquoteString(`"a\tb\\c"`))
	assert.Equal(t, "noquotes", javaast.UnquoteString("noquotes"))
}

func TestSanitizeSource(t *testing.T) {
	assert.Equal(t, []byte("a b"), javaast.SanitizeSource([]byte{'a', 0, 'b'}))
	src := []byte("clean")
	assert.Equal(t, src, javaast.SanitizeSource(src))
}
