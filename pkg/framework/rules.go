package framework

import (
	"github.com/specvital/jvmtest/pkg/symbol"
)

// MethodRules are the modifier constraints a framework puts on test methods.
// Constructors and abstract methods never qualify.
type MethodRules struct {
	RequirePublic bool
	AllowPrivate  bool
	AllowStatic   bool
	RequireVoid   bool
	RequireNoArgs bool
}

// CheckMethodModifiers applies rules to a method declaration.
func CheckMethodModifiers(p symbol.Provider, method symbol.Handle, rules MethodRules) bool {
	if method == nil || method.Kind() != symbol.KindMethod {
		return false
	}
	sig, err := p.Signature(method)
	if err != nil || sig.Constructor {
		return false
	}
	mods, err := p.Modifiers(method)
	if err != nil {
		return false
	}
	switch {
	case mods.Has(symbol.ModAbstract):
		return false
	case mods.Has(symbol.ModStatic) && !rules.AllowStatic:
		return false
	case mods.Has(symbol.ModPrivate) && !rules.AllowPrivate:
		return false
	case rules.RequirePublic && !mods.Has(symbol.ModPublic):
		return false
	case rules.RequireVoid && !sig.IsVoid():
		return false
	case rules.RequireNoArgs && len(sig.ParameterTypes) > 0:
		return false
	}
	return true
}

// Access describes which type declarations a framework can instantiate.
type Access struct {
	// RequirePublic demands public on the type and on every enclosing type.
	RequirePublic bool
	// AllowInner admits a non-static inner class (e.g. JUnit Jupiter @Nested).
	AllowInner func(p symbol.Provider, t symbol.Handle) bool
}

// IsAccessibleType checks that t is a concrete class reachable from its compilation unit:
// not private, not abstract, and either top-level or nested through a chain of static
// declarations that satisfy the same visibility rule.
func IsAccessibleType(p symbol.Provider, t symbol.Handle, access Access) bool {
	if t == nil || t.Kind() != symbol.KindType {
		return false
	}
	kind, err := p.TypeKind(t)
	if err != nil || (kind != symbol.TypeClass && kind != symbol.TypeRecord) {
		return false
	}
	mods, err := p.Modifiers(t)
	if err != nil || mods.Has(symbol.ModAbstract) {
		return false
	}
	return isReachable(p, t, mods, access, 0)
}

func isReachable(p symbol.Provider, t symbol.Handle, mods symbol.Modifiers, access Access, depth int) bool {
	if depth > maxNestingDepth {
		return false
	}
	if mods.Has(symbol.ModPrivate) {
		return false
	}
	if access.RequirePublic && !mods.Has(symbol.ModPublic) {
		return false
	}

	enclosing, err := p.EnclosingType(t)
	if err != nil {
		return false
	}
	if enclosing == nil {
		return true
	}

	if !mods.Has(symbol.ModStatic) {
		inner := access.AllowInner != nil && access.AllowInner(p, t)
		if !inner && !isImplicitlyStatic(p, enclosing) {
			return false
		}
	}

	outerMods, err := p.Modifiers(enclosing)
	if err != nil {
		return false
	}
	return isReachable(p, enclosing, outerMods, access, depth+1)
}

// isImplicitlyStatic reports whether members of t are static without the keyword, as for
// types nested in interfaces and annotations.
func isImplicitlyStatic(p symbol.Provider, t symbol.Handle) bool {
	kind, err := p.TypeKind(t)
	if err != nil {
		return false
	}
	return kind == symbol.TypeInterface || kind == symbol.TypeAnnotation
}

// IsSubtypeOf reports whether t extends or implements one of targets, directly or through
// supertypes known to the provider.
func IsSubtypeOf(p symbol.Provider, t symbol.Handle, targets AnnotationSet) bool {
	return isSubtypeOf(p, t, targets, make(map[string]bool), 0)
}

func isSubtypeOf(p symbol.Provider, t symbol.Handle, targets AnnotationSet, visited map[string]bool, depth int) bool {
	if depth > maxNestingDepth || visited[t.ID()] {
		return false
	}
	visited[t.ID()] = true

	supers, err := p.Supertypes(t)
	if err != nil {
		return false
	}
	for _, s := range supers {
		if targets.Contains(s) {
			return true
		}
	}
	for _, s := range supers {
		st, err := p.ResolveType(s)
		if err != nil {
			continue
		}
		if isSubtypeOf(p, st, targets, visited, depth+1) {
			return true
		}
	}
	return false
}

// Methods returns the method members of t in declaration order.
func Methods(p symbol.Provider, t symbol.Handle) []symbol.Handle {
	return membersOfKind(p, t, symbol.KindMethod)
}

// NestedTypes returns the type members of t in declaration order.
func NestedTypes(p symbol.Provider, t symbol.Handle) []symbol.Handle {
	return membersOfKind(p, t, symbol.KindType)
}

func membersOfKind(p symbol.Provider, t symbol.Handle, kind symbol.Kind) []symbol.Handle {
	members, err := p.Members(t)
	if err != nil {
		return nil
	}
	var out []symbol.Handle
	for _, m := range members {
		if m.Kind() == kind {
			out = append(out, m)
		}
	}
	return out
}

// HasTestMethod reports whether any method declared on t satisfies c.
func HasTestMethod(p symbol.Provider, c Classifier, t symbol.Handle) bool {
	for _, m := range Methods(p, t) {
		if c.IsTestMethod(p, m) {
			return true
		}
	}
	return false
}
