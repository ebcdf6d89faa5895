// Package framework defines the test framework classifier contract, the shared classification
// rules every framework builds on, and the registry that orders classifiers by precedence.
package framework

// Registry entry names of the supported test kinds. They double as keys of the embedded
// annotation tables.
const (
	FrameworkJUnit4 = "junit4"
	FrameworkJUnit5 = "junit5"
	FrameworkTestNG = "testng"
)

// maxNestingDepth bounds recursion into nested type declarations and supertype chains.
const maxNestingDepth = 64
