package launch

import (
	"fmt"
	"strings"

	"github.com/specvital/jvmtest/pkg/domain"
)

// Runner flags announcing the framework of a DefaultRunnerMainClass selection.
const (
	JUnit4Flag = "-junit"
	TestNGFlag = "-testng"
)

func programArguments(kind domain.FrameworkKind, entries []selected) ([]string, error) {
	switch kind {
	case domain.FrameworkJUnit5:
		return platformArguments(entries)
	case domain.FrameworkJUnit4:
		return runnerArguments(JUnit4Flag, kind, entries)
	case domain.FrameworkTestNG:
		return runnerArguments(TestNGFlag, kind, entries)
	default:
		return nil, fmt.Errorf("%w: %q", ErrUnknownFramework, kind)
	}
}

// platformArguments uses the console launcher selectors.
func platformArguments(entries []selected) ([]string, error) {
	args := []string{"execute", "--disable-banner"}
	var sel selectors

	for _, e := range entries {
		switch e.level {
		case domain.LevelProject:
			sel.add("--scan-classpath")
		case domain.LevelPackage:
			if e.qualified != "" {
				sel.add("--select-package=" + e.qualified)
				continue
			}
			classes, err := expandClasses(e, domain.FrameworkJUnit5)
			if err != nil {
				return nil, err
			}
			for _, c := range classes {
				sel.add("--select-class=" + c)
			}
		case domain.LevelClass, domain.LevelNestedClass:
			sel.add("--select-class=" + e.qualified)
		case domain.LevelMethod:
			sel.add("--select-method=" + e.qualified)
		default:
			return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedSelection, e.level, e.id)
		}
	}
	return append(args, sel...), nil
}

// runnerArguments lists classes and Class#method entries after the framework flag.
// Method names drop overload parameters, which neither framework selects by.
func runnerArguments(flag string, kind domain.FrameworkKind, entries []selected) ([]string, error) {
	sel := selectors{flag}

	for _, e := range entries {
		switch e.level {
		case domain.LevelProject, domain.LevelPackage:
			classes, err := expandClasses(e, kind)
			if err != nil {
				return nil, err
			}
			for _, c := range classes {
				sel.add(c)
			}
		case domain.LevelClass, domain.LevelNestedClass:
			sel.add(e.qualified)
		case domain.LevelMethod:
			name, _, _ := strings.Cut(e.qualified, "(")
			sel.add(name)
		default:
			return nil, fmt.Errorf("%w: %s %s", ErrUnsupportedSelection, e.level, e.id)
		}
	}
	return sel, nil
}

// expandClasses returns the qualified names of the class items under a container item.
func expandClasses(e selected, kind domain.FrameworkKind) ([]string, error) {
	if e.item == nil {
		return nil, fmt.Errorf("%w: %s %s needs discovered items for %s", ErrUnsupportedSelection, e.level, e.id, kind)
	}
	var classes []string
	domain.Walk(e.item.Children, func(t *domain.TestItem) bool {
		if t.Level == domain.LevelClass {
			classes = append(classes, t.QualifiedName)
			return false
		}
		return true
	})
	if len(classes) == 0 {
		return nil, fmt.Errorf("%w: %s %s has no test classes", ErrEmptySelection, e.level, e.id)
	}
	return classes, nil
}

// selectors is an ordered set of arguments.
type selectors []string

func (s *selectors) add(arg string) {
	for _, existing := range *s {
		if existing == arg {
			return
		}
	}
	*s = append(*s, arg)
}
