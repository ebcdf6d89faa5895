package symbol

import (
	"fmt"
	"strings"
	"sync"

	"github.com/specvital/jvmtest/pkg/domain"
)

// Memory is an in-memory Provider for hosts that already hold symbol data and for tests.
// Populate it with the builder methods before handing it to discovery.
type Memory struct {
	mu       sync.RWMutex
	project  *memNode
	byID     map[string]*memNode
	types    map[string]*memNode
	packages map[string]*memNode
	files    map[string]*memNode
	failing  map[string]error
	offset   int
}

type memNode struct {
	id       string
	kind     Kind
	name     string
	pkg      string
	mods     Modifiers
	anns     []Annotation
	members  []*memNode
	parent   *memNode
	file     *memNode
	typeKind TypeKind
	supers   []string
	sig      Signature
	loc      *domain.Location
}

func (n *memNode) ID() string   { return n.id }
func (n *memNode) Kind() Kind   { return n.kind }
func (n *memNode) Name() string { return n.name }

var _ Provider = (*Memory)(nil)

// NewMemory creates an empty provider for the named project.
func NewMemory(project string) *Memory {
	m := &Memory{
		byID:     make(map[string]*memNode),
		types:    make(map[string]*memNode),
		packages: make(map[string]*memNode),
		files:    make(map[string]*memNode),
		failing:  make(map[string]error),
	}
	m.project = &memNode{id: "project:" + project, kind: KindProject, name: project}
	m.byID[m.project.id] = m.project
	return m
}

// Project returns the project handle.
func (m *Memory) Project() Handle { return m.project }

// Fail makes every operation on h return err, simulating a stale symbol.
func (m *Memory) Fail(h Handle, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failing[h.ID()] = err
}

// PackageBuilder adds types to a package.
type PackageBuilder struct {
	m    *Memory
	node *memNode
}

// TypeBuilder configures a type declaration.
type TypeBuilder struct {
	m    *Memory
	node *memNode
}

// MethodBuilder configures a method declaration.
type MethodBuilder struct {
	m    *Memory
	node *memNode
}

// Package returns the builder for the named package, creating it on first use.
// The empty name denotes the default package.
func (m *Memory) Package(name string) *PackageBuilder {
	m.mu.Lock()
	defer m.mu.Unlock()
	if p, ok := m.packages[name]; ok {
		return &PackageBuilder{m: m, node: p}
	}
	p := &memNode{id: "package:" + name, kind: KindPackage, name: name, pkg: name, parent: m.project}
	m.packages[name] = p
	m.byID[p.id] = p
	m.project.members = append(m.project.members, p)
	return &PackageBuilder{m: m, node: p}
}

// Handle returns the package handle.
func (b *PackageBuilder) Handle() Handle { return b.node }

// Class declares a top-level class in its own compilation unit.
func (b *PackageBuilder) Class(name string, mods Modifiers) *TypeBuilder {
	return b.declare(name, mods, TypeClass)
}

// Interface declares a top-level interface.
func (b *PackageBuilder) Interface(name string, mods Modifiers) *TypeBuilder {
	return b.declare(name, mods, TypeInterface)
}

// AnnotationType declares a top-level annotation type (@interface).
func (b *PackageBuilder) AnnotationType(name string) *TypeBuilder {
	return b.declare(name, ModPublic, TypeAnnotation)
}

func (b *PackageBuilder) declare(name string, mods Modifiers, kind TypeKind) *TypeBuilder {
	m := b.m
	m.mu.Lock()
	defer m.mu.Unlock()

	path := name + ".java"
	if b.node.name != "" {
		path = strings.ReplaceAll(b.node.name, ".", "/") + "/" + path
	}
	uri := "file:///src/" + path
	file, ok := m.files[uri]
	if !ok {
		file = &memNode{id: "file:" + uri, kind: KindFile, name: uri, pkg: b.node.name}
		m.files[uri] = file
		m.byID[file.id] = file
	}

	t := m.newType(name, mods, kind, b.node.name, nil, file)
	b.node.members = append(b.node.members, t)
	file.members = append(file.members, t)
	return &TypeBuilder{m: m, node: t}
}

func (m *Memory) newType(name string, mods Modifiers, kind TypeKind, pkg string, enclosing, file *memNode) *memNode {
	qualified := name
	switch {
	case enclosing != nil:
		qualified = m.qualifiedLocked(enclosing) + "$" + name
	case pkg != "":
		qualified = pkg + "." + name
	}
	t := &memNode{
		id:       "type:" + qualified,
		kind:     KindType,
		name:     name,
		pkg:      pkg,
		mods:     mods,
		parent:   enclosing,
		file:     file,
		typeKind: kind,
		loc:      m.nextLocation(file.name, len(name)),
	}
	m.byID[t.id] = t
	m.types[qualified] = t
	return t
}

func (m *Memory) nextLocation(uri string, length int) *domain.Location {
	m.offset += 10
	line := m.offset / 10
	return &domain.Location{URI: uri, Offset: m.offset, Length: length, StartLine: line, EndLine: line}
}

// Handle returns the type handle.
func (b *TypeBuilder) Handle() Handle { return b.node }

// Annotate adds an annotation; values alternate element name and value.
func (b *TypeBuilder) Annotate(qualifiedName string, values ...string) *TypeBuilder {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	b.node.anns = append(b.node.anns, newAnnotation(qualifiedName, values))
	return b
}

// Extends records direct supertypes by qualified name.
func (b *TypeBuilder) Extends(qualifiedNames ...string) *TypeBuilder {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	b.node.supers = append(b.node.supers, qualifiedNames...)
	return b
}

// NoLocation drops the source range of the type.
func (b *TypeBuilder) NoLocation() *TypeBuilder {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	b.node.loc = nil
	return b
}

// Class declares a nested class.
func (b *TypeBuilder) Class(name string, mods Modifiers) *TypeBuilder {
	m := b.m
	m.mu.Lock()
	defer m.mu.Unlock()
	t := m.newType(name, mods, TypeClass, b.node.pkg, b.node, b.node.file)
	b.node.members = append(b.node.members, t)
	return &TypeBuilder{m: m, node: t}
}

// Method declares a method returning void.
func (b *TypeBuilder) Method(name string, mods Modifiers) *MethodBuilder {
	m := b.m
	m.mu.Lock()
	defer m.mu.Unlock()
	meth := &memNode{
		kind:   KindMethod,
		name:   name,
		pkg:    b.node.pkg,
		mods:   mods,
		parent: b.node,
		file:   b.node.file,
		sig:    Signature{ReturnType: "void"},
		loc:    m.nextLocation(b.node.file.name, len(name)),
	}
	meth.id = fmt.Sprintf("method:%s#%s@%d", m.qualifiedLocked(b.node), name, len(b.node.members))
	m.byID[meth.id] = meth
	b.node.members = append(b.node.members, meth)
	return &MethodBuilder{m: m, node: meth}
}

// Constructor declares a constructor.
func (b *TypeBuilder) Constructor(mods Modifiers) *MethodBuilder {
	mb := b.Method(b.node.name, mods)
	mb.m.mu.Lock()
	mb.node.sig = Signature{Constructor: true}
	mb.m.mu.Unlock()
	return mb
}

// Handle returns the method handle.
func (b *MethodBuilder) Handle() Handle { return b.node }

// Annotate adds an annotation; values alternate element name and value.
func (b *MethodBuilder) Annotate(qualifiedName string, values ...string) *MethodBuilder {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	b.node.anns = append(b.node.anns, newAnnotation(qualifiedName, values))
	return b
}

// Returns sets the declared return type.
func (b *MethodBuilder) Returns(typeName string) *MethodBuilder {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	b.node.sig.ReturnType = typeName
	return b
}

// Params sets the declared parameter types.
func (b *MethodBuilder) Params(types ...string) *MethodBuilder {
	b.m.mu.Lock()
	defer b.m.mu.Unlock()
	b.node.sig.ParameterTypes = types
	return b
}

func newAnnotation(qualifiedName string, values []string) Annotation {
	a := Annotation{QualifiedName: qualifiedName}
	for i := 0; i+1 < len(values); i += 2 {
		a.Values = append(a.Values, AnnotationValue{Name: values[i], Value: values[i+1]})
	}
	return a
}

func (m *Memory) node(h Handle) (*memNode, error) {
	if h == nil {
		return nil, ErrNotFound
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	if err, ok := m.failing[h.ID()]; ok {
		return nil, err
	}
	n, ok := m.byID[h.ID()]
	if !ok {
		return nil, fmt.Errorf("%s %q: %w", h.Kind(), h.ID(), ErrNotFound)
	}
	return n, nil
}

func (m *Memory) Lookup(kind Kind, name string) (Handle, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	var n *memNode
	switch kind {
	case KindProject:
		if name == m.project.name {
			n = m.project
		}
	case KindPackage:
		n = m.packages[name]
	case KindFile:
		n = m.files[name]
	case KindType:
		n = m.types[name]
	}
	if n == nil {
		return nil, fmt.Errorf("lookup %s %q: %w", kind, name, ErrNotFound)
	}
	return n, nil
}

func (m *Memory) Members(h Handle) ([]Handle, error) {
	n, err := m.node(h)
	if err != nil {
		return nil, err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]Handle, len(n.members))
	for i, c := range n.members {
		out[i] = c
	}
	return out, nil
}

func (m *Memory) Modifiers(h Handle) (Modifiers, error) {
	n, err := m.node(h)
	if err != nil {
		return 0, err
	}
	return n.mods, nil
}

func (m *Memory) Annotations(h Handle) ([]Annotation, error) {
	n, err := m.node(h)
	if err != nil {
		return nil, err
	}
	return append([]Annotation(nil), n.anns...), nil
}

func (m *Memory) DeclaringType(method Handle) (Handle, error) {
	n, err := m.node(method)
	if err != nil {
		return nil, err
	}
	if n.kind != KindMethod {
		return nil, fmt.Errorf("declaring type of %s: %w", n.kind, ErrNotFound)
	}
	return n.parent, nil
}

func (m *Memory) EnclosingType(t Handle) (Handle, error) {
	n, err := m.node(t)
	if err != nil {
		return nil, err
	}
	if n.kind != KindType || n.parent == nil {
		return nil, nil
	}
	return n.parent, nil
}

func (m *Memory) Location(h Handle) (domain.Location, bool, error) {
	n, err := m.node(h)
	if err != nil {
		return domain.Location{}, false, err
	}
	if n.loc == nil {
		return domain.Location{}, false, nil
	}
	return *n.loc, true, nil
}

func (m *Memory) QualifiedName(h Handle) (string, error) {
	n, err := m.node(h)
	if err != nil {
		return "", err
	}
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.qualifiedLocked(n), nil
}

func (m *Memory) qualifiedLocked(n *memNode) string {
	switch n.kind {
	case KindType:
		if n.parent != nil {
			return m.qualifiedLocked(n.parent) + "$" + n.name
		}
		if n.pkg == "" {
			return n.name
		}
		return n.pkg + "." + n.name
	case KindMethod:
		return m.qualifiedLocked(n.parent) + "#" + n.name
	default:
		return n.name
	}
}

func (m *Memory) ResolveType(qualifiedName string) (Handle, error) {
	return m.Lookup(KindType, qualifiedName)
}

func (m *Memory) Supertypes(t Handle) ([]string, error) {
	n, err := m.node(t)
	if err != nil {
		return nil, err
	}
	return append([]string(nil), n.supers...), nil
}

func (m *Memory) Signature(method Handle) (Signature, error) {
	n, err := m.node(method)
	if err != nil {
		return Signature{}, err
	}
	sig := n.sig
	sig.ParameterTypes = append([]string(nil), sig.ParameterTypes...)
	return sig, nil
}

func (m *Memory) TypeKind(t Handle) (TypeKind, error) {
	n, err := m.node(t)
	if err != nil {
		return 0, err
	}
	return n.typeKind, nil
}
