package parser

import (
	"fmt"
	"sort"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/symbol"
)

// Index is a read-only symbol.Provider over parsed Java sources.
// It is immutable once built and safe for concurrent use.
type Index struct {
	project  *node
	byID     map[string]*node
	types    map[string]*node
	packages map[string]*node
	files    map[string]*node
	paths    map[string]*node
	known    map[string]bool
}

type node struct {
	id        string
	kind      symbol.Kind
	name      string
	qualified string
	mods      symbol.Modifiers
	anns      []symbol.Annotation
	members   []*node
	parent    *node
	typeKind  symbol.TypeKind
	supers    []string
	sig       symbol.Signature
	loc       *domain.Location
}

func (n *node) ID() string        { return n.id }
func (n *node) Kind() symbol.Kind { return n.kind }
func (n *node) Name() string      { return n.name }

var _ symbol.Provider = (*Index)(nil)

func newIndex(project string, known []string) *Index {
	idx := &Index{
		byID:     make(map[string]*node),
		types:    make(map[string]*node),
		packages: make(map[string]*node),
		files:    make(map[string]*node),
		paths:    make(map[string]*node),
		known:    make(map[string]bool, len(known)),
	}
	for _, k := range known {
		idx.known[k] = true
	}
	idx.project = &node{id: "project:" + project, kind: symbol.KindProject, name: project, qualified: project}
	idx.byID[idx.project.id] = idx.project
	return idx
}

// buildIndex indexes files in path order.
func buildIndex(project string, known []string, files []*fileDecl) (*Index, []LoadError) {
	sort.Slice(files, func(i, j int) bool {
		return files[i].path < files[j].path
	})

	idx := newIndex(project, known)
	var errs []LoadError

	type methodPair struct {
		decl *methodDecl
		node *node
	}
	type pending struct {
		decl      *typeDecl
		node      *node
		scope     *fileScope
		enclosing []string
		methods   []methodPair
	}
	var all []pending

	var declare func(file *fileDecl, t *typeDecl, outer *node, enclosing []string) *node
	declare = func(file *fileDecl, t *typeDecl, outer *node, enclosing []string) *node {
		qualified := qualify(file.pkg, t.name)
		if outer != nil {
			qualified = outer.qualified + "$" + t.name
		}
		if _, dup := idx.types[qualified]; dup {
			errs = append(errs, LoadError{
				Err:   fmt.Errorf("duplicate type %s", qualified),
				Path:  file.path,
				Phase: PhaseIndex,
			})
			return nil
		}

		loc := t.loc
		n := &node{
			id:        "type:" + qualified,
			kind:      symbol.KindType,
			name:      t.name,
			qualified: qualified,
			mods:      t.mods,
			parent:    outer,
			typeKind:  t.kind,
			loc:       &loc,
		}
		idx.byID[n.id] = n
		idx.types[qualified] = n
		pi := len(all)
		all = append(all, pending{decl: t, node: n, enclosing: enclosing})

		inner := append([]string{qualified}, enclosing...)
		for i, m := range t.members {
			if m.typ != nil {
				if child := declare(file, m.typ, n, inner); child != nil {
					n.members = append(n.members, child)
				}
				continue
			}
			mn := idx.newMethod(n, m.method, i)
			n.members = append(n.members, mn)
			all[pi].methods = append(all[pi].methods, methodPair{decl: m.method, node: mn})
		}
		return n
	}

	for _, file := range files {
		pkg := idx.packageNode(file.pkg)
		fileNode := &node{
			id:        "file:" + file.uri,
			kind:      symbol.KindFile,
			name:      file.uri,
			qualified: file.uri,
		}
		idx.byID[fileNode.id] = fileNode
		idx.files[file.uri] = fileNode
		idx.paths[file.path] = fileNode

		start := len(all)
		for _, t := range file.types {
			if n := declare(file, t, nil, nil); n != nil {
				pkg.members = append(pkg.members, n)
				fileNode.members = append(fileNode.members, n)
			}
		}
		scope := newFileScope(file, idx)
		for i := start; i < len(all); i++ {
			all[i].scope = scope
		}
	}

	// Written names are resolved only after every file has declared its types.
	for _, p := range all {
		inner := append([]string{p.node.qualified}, p.enclosing...)
		p.node.anns = p.scope.annotations(p.decl.anns, inner)
		for _, s := range p.decl.supers {
			p.node.supers = append(p.node.supers, p.scope.resolve(s, inner))
		}
		for _, m := range p.methods {
			m.node.anns = p.scope.annotations(m.decl.anns, inner)
			if !m.node.sig.Constructor {
				m.node.sig.ReturnType = p.scope.resolve(m.node.sig.ReturnType, inner)
			}
			params := make([]string, len(m.node.sig.ParameterTypes))
			for i, param := range m.node.sig.ParameterTypes {
				params[i] = p.scope.resolve(param, inner)
			}
			m.node.sig.ParameterTypes = params
		}
	}

	return idx, errs
}

func (idx *Index) packageNode(name string) *node {
	if p, ok := idx.packages[name]; ok {
		return p
	}
	p := &node{id: "package:" + name, kind: symbol.KindPackage, name: name, qualified: name, parent: idx.project}
	idx.packages[name] = p
	idx.byID[p.id] = p
	idx.project.members = append(idx.project.members, p)
	return p
}

func (idx *Index) newMethod(owner *node, m *methodDecl, position int) *node {
	loc := m.loc
	n := &node{
		id:        fmt.Sprintf("method:%s#%s@%d", owner.qualified, m.name, position),
		kind:      symbol.KindMethod,
		name:      m.name,
		qualified: owner.qualified + "#" + m.name,
		mods:      m.mods,
		parent:    owner,
		loc:       &loc,
		sig: symbol.Signature{
			ReturnType:     m.returnType,
			ParameterTypes: m.params,
			Constructor:    m.constructor,
		},
	}
	idx.byID[n.id] = n
	return n
}

func (s *fileScope) annotations(raw []rawAnnotation, enclosing []string) []symbol.Annotation {
	if len(raw) == 0 {
		return nil
	}
	out := make([]symbol.Annotation, 0, len(raw))
	for _, a := range raw {
		ann := symbol.Annotation{QualifiedName: s.resolve(a.name, enclosing)}
		for _, arg := range a.args {
			ann.Values = append(ann.Values, symbol.AnnotationValue{Name: arg.Name, Value: arg.Value})
		}
		out = append(out, ann)
	}
	return out
}

func (idx *Index) hasType(binaryName string) bool {
	if _, ok := idx.types[binaryName]; ok {
		return true
	}
	return idx.known[binaryName]
}

func (idx *Index) nestedType(outer, name string) (string, bool) {
	candidate := outer + "$" + name
	return candidate, idx.hasType(candidate)
}

// Project returns the project handle.
func (idx *Index) Project() symbol.Handle { return idx.project }

// Files returns the URIs of all indexed compilation units in path order.
func (idx *Index) Files() []string {
	uris := make([]string, 0, len(idx.files))
	for uri := range idx.files {
		uris = append(uris, uri)
	}
	sort.Strings(uris)
	return uris
}

// TypeCount returns the number of indexed type declarations, nested included.
func (idx *Index) TypeCount() int { return len(idx.types) }

func (idx *Index) node(h symbol.Handle) (*node, error) {
	if h == nil {
		return nil, symbol.ErrNotFound
	}
	n, ok := idx.byID[h.ID()]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", h.Kind(), h.ID(), symbol.ErrNotFound)
	}
	return n, nil
}

// Lookup resolves a file by URI or by path relative to the load root.
func (idx *Index) Lookup(kind symbol.Kind, name string) (symbol.Handle, error) {
	var n *node
	switch kind {
	case symbol.KindProject:
		if name == idx.project.name {
			n = idx.project
		}
	case symbol.KindPackage:
		n = idx.packages[name]
	case symbol.KindFile:
		n = idx.files[name]
		if n == nil {
			n = idx.paths[name]
		}
	case symbol.KindType:
		n = idx.types[name]
	}
	if n == nil {
		return nil, fmt.Errorf("lookup %s %q: %w", kind, name, symbol.ErrNotFound)
	}
	return n, nil
}

func (idx *Index) Members(h symbol.Handle) ([]symbol.Handle, error) {
	n, err := idx.node(h)
	if err != nil {
		return nil, err
	}
	out := make([]symbol.Handle, len(n.members))
	for i, c := range n.members {
		out[i] = c
	}
	return out, nil
}

func (idx *Index) Modifiers(h symbol.Handle) (symbol.Modifiers, error) {
	n, err := idx.node(h)
	if err != nil {
		return 0, err
	}
	return n.mods, nil
}

func (idx *Index) Annotations(h symbol.Handle) ([]symbol.Annotation, error) {
	n, err := idx.node(h)
	if err != nil {
		return nil, err
	}
	return append([]symbol.Annotation(nil), n.anns...), nil
}

func (idx *Index) DeclaringType(method symbol.Handle) (symbol.Handle, error) {
	n, err := idx.node(method)
	if err != nil {
		return nil, err
	}
	if n.kind != symbol.KindMethod {
		return nil, fmt.Errorf("declaring type of %s: %w", n.kind, symbol.ErrNotFound)
	}
	return n.parent, nil
}

func (idx *Index) EnclosingType(t symbol.Handle) (symbol.Handle, error) {
	n, err := idx.node(t)
	if err != nil {
		return nil, err
	}
	if n.kind != symbol.KindType || n.parent == nil {
		return nil, nil
	}
	return n.parent, nil
}

func (idx *Index) Location(h symbol.Handle) (domain.Location, bool, error) {
	n, err := idx.node(h)
	if err != nil {
		return domain.Location{}, false, err
	}
	if n.loc == nil {
		return domain.Location{}, false, nil
	}
	return *n.loc, true, nil
}

func (idx *Index) QualifiedName(h symbol.Handle) (string, error) {
	n, err := idx.node(h)
	if err != nil {
		return "", err
	}
	return n.qualified, nil
}

func (idx *Index) ResolveType(qualifiedName string) (symbol.Handle, error) {
	return idx.Lookup(symbol.KindType, qualifiedName)
}

func (idx *Index) Supertypes(t symbol.Handle) ([]string, error) {
	n, err := idx.node(t)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), n.supers...), nil
}

func (idx *Index) Signature(method symbol.Handle) (symbol.Signature, error) {
	n, err := idx.node(method)
	if err != nil {
		return symbol.Signature{}, err
	}
	sig := n.sig
	sig.ParameterTypes = append([]string(nil), sig.ParameterTypes...)
	return sig, nil
}

func (idx *Index) TypeKind(t symbol.Handle) (symbol.TypeKind, error) {
	n, err := idx.node(t)
	if err != nil {
		return 0, err
	}
	return n.typeKind, nil
}
