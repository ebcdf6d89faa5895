package parser

import (
	"strings"
)

var primitiveTypes = map[string]bool{
	"void": true, "boolean": true, "byte": true, "char": true, "short": true,
	"int": true, "long": true, "float": true, "double": true, "var": true,
}

var javaLangTypes = map[string]bool{
	"Object": true, "String": true, "Class": true, "Enum": true, "Record": true,
	"Override": true, "Deprecated": true, "SuppressWarnings": true, "SafeVarargs": true,
	"FunctionalInterface": true, "Runnable": true, "Comparable": true, "Iterable": true,
	"AutoCloseable": true, "Throwable": true, "Exception": true, "RuntimeException": true,
	"Error": true, "Number": true, "Integer": true, "Long": true, "Short": true, "Byte": true,
	"Boolean": true, "Character": true, "Double": true, "Float": true, "Void": true,
	"Thread": true,
}

// typeTable answers whether a binary name denotes a known type.
type typeTable interface {
	hasType(binaryName string) bool
	nestedType(outer, name string) (string, bool)
}

// fileScope resolves written type names within one compilation unit.
type fileScope struct {
	pkg      string
	imports  []importDecl
	topLevel map[string]string
	table    typeTable
}

func newFileScope(file *fileDecl, table typeTable) *fileScope {
	s := &fileScope{
		pkg:      file.pkg,
		imports:  file.imports,
		topLevel: make(map[string]string, len(file.types)),
		table:    table,
	}
	for _, t := range file.types {
		s.topLevel[t.name] = qualify(file.pkg, t.name)
	}
	return s
}

func qualify(pkg, name string) string {
	if pkg == "" {
		return name
	}
	return pkg + "." + name
}

// resolve maps a written type name to a binary name ("pkg.Outer$Inner"). enclosing lists the
// binary names of the enclosing types, innermost first.
func (s *fileScope) resolve(written string, enclosing []string) string {
	dims := ""
	for strings.HasSuffix(written, "[]") {
		written = strings.TrimSuffix(written, "[]")
		dims += "[]"
	}
	if written == "" || primitiveTypes[written] {
		return written + dims
	}

	if i := strings.IndexByte(written, '.'); i >= 0 {
		first, rest := written[:i], written[i+1:]
		if outer, ok := s.resolveSimple(first, enclosing, false); ok {
			return outer + "$" + strings.ReplaceAll(rest, ".", "$") + dims
		}
		return s.resolveDotted(written) + dims
	}

	if name, ok := s.resolveSimple(written, enclosing, true); ok {
		return name + dims
	}
	return written + dims
}

// resolveSimple resolves a single identifier. When fallback is set, an unresolved name is
// guessed from the lone wildcard import or the current package.
func (s *fileScope) resolveSimple(name string, enclosing []string, fallback bool) (string, bool) {
	for _, outer := range enclosing {
		if nested, ok := s.table.nestedType(outer, name); ok {
			return nested, true
		}
		if simpleBinaryName(outer) == name {
			return outer, true
		}
	}

	if q, ok := s.topLevel[name]; ok {
		return q, true
	}

	for _, imp := range s.imports {
		if imp.static || imp.wildcard {
			continue
		}
		if lastSegment(imp.name) == name {
			return s.resolveDotted(imp.name), true
		}
	}

	if q := qualify(s.pkg, name); s.table.hasType(q) {
		return q, true
	}

	var wildcards []string
	for _, imp := range s.imports {
		if !imp.wildcard || imp.static {
			continue
		}
		wildcards = append(wildcards, imp.name)
		if q := imp.name + "." + name; s.table.hasType(q) {
			return q, true
		}
		if outer := s.resolveDotted(imp.name); s.table.hasType(outer) {
			if nested, ok := s.table.nestedType(outer, name); ok {
				return nested, true
			}
		}
	}

	if javaLangTypes[name] {
		return "java.lang." + name, true
	}

	if !fallback {
		return "", false
	}
	if len(wildcards) == 1 {
		return wildcards[0] + "." + name, true
	}
	return qualify(s.pkg, name), true
}

// resolveDotted converts a dotted canonical name into a binary name, preferring indexed and
// known types and otherwise treating segments after the first capitalized one as nested.
func (s *fileScope) resolveDotted(name string) string {
	if s.table.hasType(name) {
		return name
	}

	segments := strings.Split(name, ".")
	for j := len(segments) - 1; j >= 1; j-- {
		candidate := strings.Join(segments[:j], ".") + "." + strings.Join(segments[j:], "$")
		if s.table.hasType(candidate) {
			return candidate
		}
	}

	for j, seg := range segments {
		if seg != "" && seg[0] >= 'A' && seg[0] <= 'Z' {
			if j == len(segments)-1 {
				break
			}
			return strings.Join(segments[:j+1], ".") + "$" + strings.Join(segments[j+1:], "$")
		}
	}
	return name
}

func lastSegment(name string) string {
	if i := strings.LastIndexByte(name, '.'); i >= 0 {
		return name[i+1:]
	}
	return name
}

func simpleBinaryName(name string) string {
	if i := strings.LastIndexAny(name, ".$"); i >= 0 {
		return name[i+1:]
	}
	return name
}
