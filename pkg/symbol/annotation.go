package symbol

// AnnotationValue is one element/value pair of an annotation usage.
type AnnotationValue struct {
	Name  string
	Value string
}

// Annotation is an annotation usage on a declaration.
type Annotation struct {
	// QualifiedName is the resolved annotation type name.
	QualifiedName string
	// Values are in written order; a single unnamed argument is stored under "value".
	Values []AnnotationValue
}

// Value returns the textual value of the named element.
func (a Annotation) Value(name string) (string, bool) {
	for _, v := range a.Values {
		if v.Name == name {
			return v.Value, true
		}
	}
	return "", false
}

// SimpleName returns the last segment of the qualified name.
func (a Annotation) SimpleName() string {
	return SimpleName(a.QualifiedName)
}

// SimpleName returns the segment after the last '.' or '$'.
func SimpleName(qualified string) string {
	for i := len(qualified) - 1; i >= 0; i-- {
		if qualified[i] == '.' || qualified[i] == '$' {
			return qualified[i+1:]
		}
	}
	return qualified
}
