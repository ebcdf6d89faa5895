package parser

import (
	"context"
	"fmt"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/parser/javaast"
	"github.com/specvital/jvmtest/pkg/parser/tspool"
	"github.com/specvital/jvmtest/pkg/symbol"
)

const importQuery = `(import_declaration) @import`

// fileDecl is the tree-independent result of parsing one compilation unit.
// Trees are closed before indexing, so everything needed later is copied out.
type fileDecl struct {
	path    string
	uri     string
	pkg     string
	imports []importDecl
	types   []*typeDecl
}

type importDecl struct {
	name     string
	static   bool
	wildcard bool
}

type typeDecl struct {
	name    string
	kind    symbol.TypeKind
	mods    symbol.Modifiers
	anns    []rawAnnotation
	supers  []string
	loc     domain.Location
	members []memberDecl
}

// memberDecl holds exactly one of typ or method.
type memberDecl struct {
	typ    *typeDecl
	method *methodDecl
}

type methodDecl struct {
	name        string
	mods        symbol.Modifiers
	anns        []rawAnnotation
	returnType  string
	params      []string
	constructor bool
	loc         domain.Location
}

type rawAnnotation struct {
	name string
	args []javaast.AnnotationArgument
}

func extractFile(ctx context.Context, path, uri string, source []byte) (*fileDecl, error) {
	source = javaast.SanitizeSource(source)

	tree, err := tspool.Parse(ctx, source)
	if err != nil {
		return nil, err
	}
	defer tree.Close()

	root := tree.RootNode()
	file := &fileDecl{path: path, uri: uri}

	imports, err := extractImports(root, source)
	if err != nil {
		return nil, err
	}
	file.imports = imports

	for i := 0; i < int(root.NamedChildCount()); i++ {
		child := root.NamedChild(i)
		switch {
		case child.Type() == javaast.NodePackageDeclaration:
			file.pkg = packageName(child, source)
		case javaast.IsTypeDeclaration(child):
			if t := extractType(child, source, uri, nil, 0); t != nil {
				file.types = append(file.types, t)
			}
		}
	}

	return file, nil
}

func packageName(node *sitter.Node, source []byte) string {
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		if child.Type() == javaast.NodeIdentifier || child.Type() == javaast.NodeScopedIdentifier {
			return nodeText(child, source)
		}
	}
	return ""
}

func extractImports(root *sitter.Node, source []byte) ([]importDecl, error) {
	results, err := tspool.QueryWithCache(root, importQuery)
	if err != nil {
		return nil, fmt.Errorf("query imports: %w", err)
	}

	imports := make([]importDecl, 0, len(results))
	for _, r := range results {
		node := r.Captures["import"]
		if node == nil {
			continue
		}

		var imp importDecl
		for i := 0; i < int(node.ChildCount()); i++ {
			child := node.Child(i)
			switch child.Type() {
			case "static":
				imp.static = true
			case javaast.NodeAsterisk:
				imp.wildcard = true
			case javaast.NodeIdentifier, javaast.NodeScopedIdentifier:
				imp.name = nodeText(child, source)
			}
		}
		if imp.name != "" {
			imports = append(imports, imp)
		}
	}
	return imports, nil
}

func typeKindOf(node *sitter.Node) symbol.TypeKind {
	switch node.Type() {
	case javaast.NodeInterfaceDeclaration:
		return symbol.TypeInterface
	case javaast.NodeEnumDeclaration:
		return symbol.TypeEnum
	case javaast.NodeRecordDeclaration:
		return symbol.TypeRecord
	case javaast.NodeAnnotationTypeDeclaration:
		return symbol.TypeAnnotation
	default:
		return symbol.TypeClass
	}
}

func extractType(node *sitter.Node, source []byte, uri string, enclosing *typeDecl, depth int) *typeDecl {
	if depth > maxTreeDepth {
		return nil
	}

	name := javaast.GetDeclarationName(node, source)
	if name == "" {
		return nil
	}

	modsNode := javaast.GetModifiers(node)
	t := &typeDecl{
		name: name,
		kind: typeKindOf(node),
		mods: parseModifiers(modsNode),
		anns: extractAnnotations(modsNode, source),
		loc:  nodeLocation(node, uri),
	}

	if enclosing != nil {
		if t.kind != symbol.TypeClass {
			// Nested enums, records, interfaces and annotations are implicitly static.
			t.mods |= symbol.ModStatic
		}
		if enclosing.kind == symbol.TypeInterface || enclosing.kind == symbol.TypeAnnotation {
			t.mods |= symbol.ModStatic
			if !t.mods.Has(symbol.ModPrivate) && !t.mods.Has(symbol.ModProtected) {
				t.mods |= symbol.ModPublic
			}
		}
	}

	for _, st := range javaast.SupertypeNodes(node) {
		if text := javaast.EraseType(nodeText(st, source)); text != "" {
			t.supers = append(t.supers, text)
		}
	}

	for _, member := range javaast.BodyMembers(javaast.GetBody(node)) {
		switch {
		case javaast.IsTypeDeclaration(member):
			if nested := extractType(member, source, uri, t, depth+1); nested != nil {
				t.members = append(t.members, memberDecl{typ: nested})
			}
		case member.Type() == javaast.NodeMethodDeclaration:
			t.members = append(t.members, memberDecl{method: extractMethod(member, source, uri, t)})
		case member.Type() == javaast.NodeConstructorDeclaration, member.Type() == javaast.NodeCompactConstructor:
			m := extractMethod(member, source, uri, t)
			m.name = name
			m.constructor = true
			m.returnType = ""
			t.members = append(t.members, memberDecl{method: m})
		}
	}

	return t
}

func extractMethod(node *sitter.Node, source []byte, uri string, owner *typeDecl) *methodDecl {
	modsNode := javaast.GetModifiers(node)
	m := &methodDecl{
		name:       javaast.GetDeclarationName(node, source),
		mods:       parseModifiers(modsNode),
		anns:       extractAnnotations(modsNode, source),
		returnType: "void",
		loc:        nodeLocation(node, uri),
	}

	if typeNode := node.ChildByFieldName("type"); typeNode != nil {
		m.returnType = javaast.EraseType(nodeText(typeNode, source))
		if dims := node.ChildByFieldName("dimensions"); dims != nil {
			m.returnType += javaast.EraseType(nodeText(dims, source))
		}
	}

	for _, p := range javaast.GetParameters(node, source) {
		typ := p.Type
		if p.Variadic {
			typ += "[]"
		}
		m.params = append(m.params, typ)
	}

	if owner.kind == symbol.TypeInterface || owner.kind == symbol.TypeAnnotation {
		if !m.mods.Has(symbol.ModPrivate) {
			m.mods |= symbol.ModPublic
		}
		if javaast.GetBody(node) == nil && !m.mods.Has(symbol.ModStatic) {
			m.mods |= symbol.ModAbstract
		}
	}

	return m
}

func parseModifiers(modifiers *sitter.Node) symbol.Modifiers {
	var mods symbol.Modifiers
	for _, kw := range javaast.ModifierKeywords(modifiers) {
		mods |= symbol.ParseModifier(kw)
	}
	return mods
}

func extractAnnotations(modifiers *sitter.Node, source []byte) []rawAnnotation {
	nodes := javaast.GetAnnotations(modifiers)
	if len(nodes) == 0 {
		return nil
	}

	out := make([]rawAnnotation, 0, len(nodes))
	for _, n := range nodes {
		name := strings.TrimSpace(javaast.GetAnnotationName(n, source))
		if name == "" {
			continue
		}
		out = append(out, rawAnnotation{name: name, args: javaast.GetAnnotationArguments(n, source)})
	}
	return out
}
