// Package javaast provides Java AST traversal utilities for the source index.
package javaast

import (
	"bytes"
	"strings"

	sitter "github.com/smacker/go-tree-sitter"
)

// Java AST node types.
const (
	NodeProgram                   = "program"
	NodePackageDeclaration        = "package_declaration"
	NodeImportDeclaration         = "import_declaration"
	NodeClassDeclaration          = "class_declaration"
	NodeInterfaceDeclaration      = "interface_declaration"
	NodeEnumDeclaration           = "enum_declaration"
	NodeRecordDeclaration         = "record_declaration"
	NodeAnnotationTypeDeclaration = "annotation_type_declaration"
	NodeMethodDeclaration         = "method_declaration"
	NodeConstructorDeclaration    = "constructor_declaration"
	NodeCompactConstructor        = "compact_constructor_declaration"
	NodeAnnotation                = "annotation"
	NodeMarkerAnnotation          = "marker_annotation"
	NodeModifiers                 = "modifiers"
	NodeIdentifier                = "identifier"
	NodeScopedIdentifier          = "scoped_identifier"
	NodeFormalParameters          = "formal_parameters"
	NodeFormalParameter           = "formal_parameter"
	NodeSpreadParameter           = "spread_parameter"
	NodeClassBody                 = "class_body"
	NodeInterfaceBody             = "interface_body"
	NodeEnumBody                  = "enum_body"
	NodeEnumBodyDeclarations      = "enum_body_declarations"
	NodeAnnotationTypeBody        = "annotation_type_body"
	NodeAnnotationArgumentList    = "annotation_argument_list"
	NodeElementValuePair          = "element_value_pair"
	NodeSuperclass                = "superclass"
	NodeSuperInterfaces           = "super_interfaces"
	NodeExtendsInterfaces         = "extends_interfaces"
	NodeTypeList                  = "type_list"
	NodeStringLiteral             = "string_literal"
	NodeAsterisk                  = "asterisk"
)

// IsTypeDeclaration reports whether the node declares a class-like type.
func IsTypeDeclaration(node *sitter.Node) bool {
	switch node.Type() {
	case NodeClassDeclaration, NodeInterfaceDeclaration, NodeEnumDeclaration,
		NodeRecordDeclaration, NodeAnnotationTypeDeclaration:
		return true
	}
	return false
}

// GetModifiers returns the modifiers node from a declaration.
func GetModifiers(node *sitter.Node) *sitter.Node {
	for i := 0; i < int(node.ChildCount()); i++ {
		child := node.Child(i)
		if child.Type() == NodeModifiers {
			return child
		}
	}
	return nil
}

// ModifierKeywords returns the keyword modifiers (public, static, ...) in source order.
func ModifierKeywords(modifiers *sitter.Node) []string {
	if modifiers == nil {
		return nil
	}

	var keywords []string
	for i := 0; i < int(modifiers.ChildCount()); i++ {
		child := modifiers.Child(i)
		if child.IsNamed() {
			continue
		}
		keywords = append(keywords, child.Type())
	}
	return keywords
}

// GetAnnotations extracts all annotation nodes from a modifiers node.
func GetAnnotations(modifiers *sitter.Node) []*sitter.Node {
	if modifiers == nil {
		return nil
	}

	var annotations []*sitter.Node
	for i := 0; i < int(modifiers.ChildCount()); i++ {
		child := modifiers.Child(i)
		if child.Type() == NodeAnnotation || child.Type() == NodeMarkerAnnotation {
			annotations = append(annotations, child)
		}
	}
	return annotations
}

// GetAnnotationName returns the annotation name as written (e.g., "Test" or "org.junit.Test").
func GetAnnotationName(annotation *sitter.Node, source []byte) string {
	if annotation == nil {
		return ""
	}

	if nameNode := annotation.ChildByFieldName("name"); nameNode != nil {
		return nameNode.Content(source)
	}

	for i := 0; i < int(annotation.ChildCount()); i++ {
		child := annotation.Child(i)
		if child.Type() == NodeIdentifier || child.Type() == NodeScopedIdentifier {
			return child.Content(source)
		}
	}
	return ""
}

// AnnotationArgument is one element/value pair of an annotation usage.
type AnnotationArgument struct {
	Name  string
	Value string
}

// GetAnnotationArguments returns the arguments of a normal annotation in written order.
// A single unnamed element value is reported under "value". String literals are unquoted.
func GetAnnotationArguments(annotation *sitter.Node, source []byte) []AnnotationArgument {
	args := annotation.ChildByFieldName("arguments")
	if args == nil {
		for i := 0; i < int(annotation.ChildCount()); i++ {
			if child := annotation.Child(i); child.Type() == NodeAnnotationArgumentList {
				args = child
				break
			}
		}
	}
	if args == nil {
		return nil
	}

	var out []AnnotationArgument
	for i := 0; i < int(args.NamedChildCount()); i++ {
		child := args.NamedChild(i)
		if child.Type() == "comment" || child.Type() == "line_comment" || child.Type() == "block_comment" {
			continue
		}
		if child.Type() == NodeElementValuePair {
			key := child.ChildByFieldName("key")
			value := child.ChildByFieldName("value")
			if key == nil || value == nil {
				continue
			}
			out = append(out, AnnotationArgument{
				Name:  key.Content(source),
				Value: ElementValueText(value, source),
			})
			continue
		}
		out = append(out, AnnotationArgument{Name: "value", Value: ElementValueText(child, source)})
	}
	return out
}

// ElementValueText renders an annotation element value; string literals are unquoted.
func ElementValueText(node *sitter.Node, source []byte) string {
	text := node.Content(source)
	if node.Type() == NodeStringLiteral {
		return UnquoteString(text)
	}
	return strings.TrimSpace(text)
}

// GetDeclarationName extracts the name field of a declaration node.
func GetDeclarationName(node *sitter.Node, source []byte) string {
	nameNode := node.ChildByFieldName("name")
	if nameNode != nil {
		return nameNode.Content(source)
	}
	return ""
}

// GetBody returns the body node of a declaration, or nil.
func GetBody(node *sitter.Node) *sitter.Node {
	return node.ChildByFieldName("body")
}

// BodyMembers returns the member declarations of a type body in source order.
// Enum bodies yield the declarations after the constant list.
func BodyMembers(body *sitter.Node) []*sitter.Node {
	if body == nil {
		return nil
	}

	if body.Type() == NodeEnumBody {
		for i := 0; i < int(body.NamedChildCount()); i++ {
			if child := body.NamedChild(i); child.Type() == NodeEnumBodyDeclarations {
				return namedChildren(child)
			}
		}
		return nil
	}
	return namedChildren(body)
}

// SupertypeNodes returns the type nodes named in extends/implements clauses, superclass first.
func SupertypeNodes(node *sitter.Node) []*sitter.Node {
	var out []*sitter.Node
	for i := 0; i < int(node.NamedChildCount()); i++ {
		child := node.NamedChild(i)
		switch child.Type() {
		case NodeSuperclass:
			for j := 0; j < int(child.NamedChildCount()); j++ {
				out = append(out, child.NamedChild(j))
			}
		case NodeSuperInterfaces, NodeExtendsInterfaces:
			for j := 0; j < int(child.NamedChildCount()); j++ {
				list := child.NamedChild(j)
				if list.Type() == NodeTypeList {
					out = append(out, namedChildren(list)...)
				} else {
					out = append(out, list)
				}
			}
		}
	}
	return out
}

// Parameter is a formal parameter type as written, with generics erased.
type Parameter struct {
	Type     string
	Variadic bool
}

// GetParameters returns the formal parameters of a method or constructor declaration.
func GetParameters(node *sitter.Node, source []byte) []Parameter {
	params := node.ChildByFieldName("parameters")
	if params == nil {
		return nil
	}

	var out []Parameter
	for i := 0; i < int(params.NamedChildCount()); i++ {
		param := params.NamedChild(i)
		switch param.Type() {
		case NodeFormalParameter:
			typeNode := param.ChildByFieldName("type")
			if typeNode == nil {
				continue
			}
			text := EraseType(typeNode.Content(source))
			if dims := param.ChildByFieldName("dimensions"); dims != nil {
				text += EraseType(dims.Content(source))
			}
			out = append(out, Parameter{Type: text})
		case NodeSpreadParameter:
			for j := 0; j < int(param.NamedChildCount()); j++ {
				child := param.NamedChild(j)
				if child.Type() == NodeModifiers || child.Type() == "variable_declarator" {
					continue
				}
				out = append(out, Parameter{Type: EraseType(child.Content(source)), Variadic: true})
				break
			}
		}
	}
	return out
}

// EraseType strips type arguments, annotations and whitespace from a written type.
func EraseType(text string) string {
	var b strings.Builder
	depth := 0
	skipAnnotation := false
	for i := 0; i < len(text); i++ {
		c := text[i]
		switch {
		case c == '<':
			depth++
		case c == '>':
			if depth > 0 {
				depth--
			}
		case depth > 0:
		case c == '@':
			skipAnnotation = true
		case c == ' ' || c == '\t' || c == '\n' || c == '\r':
			skipAnnotation = false
		case skipAnnotation:
		default:
			b.WriteByte(c)
		}
	}
	return b.String()
}

// UnquoteString removes the surrounding quotes of a Java string literal and decodes
// simple escapes.
func UnquoteString(text string) string {
	if len(text) < 2 || text[0] != '"' || text[len(text)-1] != '"' {
		return text
	}
	inner := text[1 : len(text)-1]
	if !strings.ContainsRune(inner, '\\') {
		return inner
	}

	var b strings.Builder
	for i := 0; i < len(inner); i++ {
		c := inner[i]
		if c != '\\' || i+1 == len(inner) {
			b.WriteByte(c)
			continue
		}
		i++
		switch inner[i] {
		case 'n':
			b.WriteByte('\n')
		case 't':
			b.WriteByte('\t')
		case 'r':
			b.WriteByte('\r')
		case 'b':
			b.WriteByte('\b')
		case 'f':
			b.WriteByte('\f')
		case '0':
			b.WriteByte(0)
		default:
			b.WriteByte(inner[i])
		}
	}
	return b.String()
}

// SanitizeSource removes NULL bytes from source code that would cause tree-sitter parsing failures.
// Some files contain NULL bytes in string literals which cause tree-sitter to produce ERROR
// nodes instead of a valid AST.
func SanitizeSource(source []byte) []byte {
	if !bytes.Contains(source, []byte{0}) {
		return source
	}
	return bytes.ReplaceAll(source, []byte{0}, []byte{' '})
}

func namedChildren(node *sitter.Node) []*sitter.Node {
	out := make([]*sitter.Node, 0, node.NamedChildCount())
	for i := 0; i < int(node.NamedChildCount()); i++ {
		out = append(out, node.NamedChild(i))
	}
	return out
}
