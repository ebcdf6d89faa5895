package domain

// FrameworkKind identifies the test framework whose rules classified an item.
// The zero value is used for container levels (project, package).
type FrameworkKind string

// Supported Java test frameworks.
const (
	FrameworkNone   FrameworkKind = ""
	FrameworkJUnit4 FrameworkKind = "junit4"
	// FrameworkJUnit5 covers the Jupiter engine of JUnit 5 and JUnit 6.
	FrameworkJUnit5 FrameworkKind = "junit5"
	FrameworkTestNG FrameworkKind = "testng"
)

// frameworkPrecedence is the fixed single-pick order used when a member satisfies more
// than one framework's predicate.
var frameworkPrecedence = []FrameworkKind{
	FrameworkJUnit4,
	FrameworkJUnit5,
	FrameworkTestNG,
}

// FrameworkPrecedence returns the frameworks in single-pick priority order.
func FrameworkPrecedence() []FrameworkKind {
	out := make([]FrameworkKind, len(frameworkPrecedence))
	copy(out, frameworkPrecedence)
	return out
}

// Rank returns the position of k in the precedence order, or len(order) when unknown.
func (k FrameworkKind) Rank() int {
	for i, f := range frameworkPrecedence {
		if f == k {
			return i
		}
	}
	return len(frameworkPrecedence)
}

// IsValid reports whether k names a supported framework.
func (k FrameworkKind) IsValid() bool {
	return k.Rank() < len(frameworkPrecedence)
}

// ParseFrameworkKind converts user input ("junit", "junit4", "junit5", "junit6", "jupiter",
// "testng") into a FrameworkKind.
func ParseFrameworkKind(s string) (FrameworkKind, bool) {
	switch s {
	case "junit", "junit4":
		return FrameworkJUnit4, true
	case "junit5", "junit6", "jupiter":
		return FrameworkJUnit5, true
	case "testng":
		return FrameworkTestNG, true
	default:
		return FrameworkNone, false
	}
}
