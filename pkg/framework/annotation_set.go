package framework

import "github.com/specvital/jvmtest/pkg/symbol"

// AnnotationSet is a set of qualified annotation type names.
type AnnotationSet map[string]struct{}

// NewAnnotationSet builds a set from qualified names.
func NewAnnotationSet(names ...string) AnnotationSet {
	s := make(AnnotationSet, len(names))
	for _, n := range names {
		s[n] = struct{}{}
	}
	return s
}

func (s AnnotationSet) Contains(name string) bool {
	_, ok := s[name]
	return ok
}

// HasQualifyingAnnotation reports whether h carries an annotation in set, directly or through
// a chain of meta-annotations.
func HasQualifyingAnnotation(p symbol.Provider, h symbol.Handle, set AnnotationSet) bool {
	anns, err := p.Annotations(h)
	if err != nil {
		return false
	}
	visited := make(map[string]bool)
	for _, a := range anns {
		if annotationQualifies(p, a.QualifiedName, set, visited) {
			return true
		}
	}
	return false
}

// annotationQualifies walks "annotated by" edges; visited guards against cyclic metadata.
func annotationQualifies(p symbol.Provider, name string, set AnnotationSet, visited map[string]bool) bool {
	if set.Contains(name) {
		return true
	}
	if visited[name] {
		return false
	}
	visited[name] = true

	t, err := p.ResolveType(name)
	if err != nil {
		return false
	}
	metas, err := p.Annotations(t)
	if err != nil {
		return false
	}
	for _, meta := range metas {
		if annotationQualifies(p, meta.QualifiedName, set, visited) {
			return true
		}
	}
	return false
}

// FindAnnotation returns the first annotation on h whose type is in set, without
// meta-annotation closure.
func FindAnnotation(p symbol.Provider, h symbol.Handle, set AnnotationSet) (symbol.Annotation, bool) {
	anns, err := p.Annotations(h)
	if err != nil {
		return symbol.Annotation{}, false
	}
	for _, a := range anns {
		if set.Contains(a.QualifiedName) {
			return a, true
		}
	}
	return symbol.Annotation{}, false
}
