// Package symbol defines the read-only view of program structure consumed by test discovery.
//
// A Provider is typically backed by a compiler front end or a source index; the discovery
// engine only uses the operations declared here. Implementations must be safe to call from
// the goroutine that issued the discovery request.
package symbol

import (
	"errors"

	"github.com/specvital/jvmtest/pkg/domain"
)

// ErrNotFound is returned when a handle no longer resolves or a lookup has no match.
var ErrNotFound = errors.New("symbol: not found")

// Kind classifies a handle.
type Kind uint8

const (
	KindProject Kind = iota + 1
	KindPackage
	KindFile
	KindType
	KindMethod
)

func (k Kind) String() string {
	switch k {
	case KindProject:
		return "project"
	case KindPackage:
		return "package"
	case KindFile:
		return "file"
	case KindType:
		return "type"
	case KindMethod:
		return "method"
	default:
		return "unknown"
	}
}

// TypeKind distinguishes class-like declarations.
type TypeKind uint8

const (
	TypeClass TypeKind = iota + 1
	TypeInterface
	TypeEnum
	TypeRecord
	TypeAnnotation
)

// Handle is an opaque reference to a program element.
type Handle interface {
	// ID is stable for the lifetime of the provider and unique across kinds.
	ID() string
	Kind() Kind
	// Name is the simple name (package name for packages, URI for files).
	Name() string
}

// Signature describes a method declaration.
type Signature struct {
	// ReturnType is the declared return type as written ("void" for none).
	ReturnType string
	// ParameterTypes lists declared parameter types with generics erased.
	ParameterTypes []string
	Constructor    bool
}

// IsVoid reports whether the method declares no return value.
func (s Signature) IsVoid() bool {
	return s.ReturnType == "void" && !s.Constructor
}

// Provider supplies types, members, modifiers, annotations and locations.
type Provider interface {
	// Lookup resolves a project by name, a package by qualified name, a file by URI or a
	// type by qualified name.
	Lookup(kind Kind, name string) (Handle, error)
	// Members lists the direct members of a project (packages), package or file
	// (top-level types) or type (methods, constructors, nested types) in declaration order.
	Members(h Handle) ([]Handle, error)
	Modifiers(h Handle) (Modifiers, error)
	// Annotations lists the annotations declared on h, in source order.
	Annotations(h Handle) ([]Annotation, error)
	DeclaringType(method Handle) (Handle, error)
	// EnclosingType returns nil without error for top-level types.
	EnclosingType(t Handle) (Handle, error)
	// Location returns false when the element has no source range.
	Location(h Handle) (domain.Location, bool, error)
	// QualifiedName returns "pkg.Outer$Inner" for types, the package name for packages and
	// "pkg.Type#method" for methods.
	QualifiedName(h Handle) (string, error)
	// ResolveType finds a type by qualified name; unknown (library) types yield ErrNotFound.
	ResolveType(qualifiedName string) (Handle, error)
	// Supertypes returns the qualified names of the direct superclass and interfaces.
	Supertypes(t Handle) ([]string, error)
	Signature(method Handle) (Signature, error)
	TypeKind(t Handle) (TypeKind, error)
}
