package framework

import (
	"context"
	"fmt"

	"github.com/specvital/jvmtest/pkg/symbol"
)

// FindTestItemsInContainer returns every type within container (a project, package, file or
// type, nested types included) that c classifies as a test class, in declaration order.
// It stops with the context error when ctx is cancelled.
func FindTestItemsInContainer(ctx context.Context, p symbol.Provider, c Classifier, container symbol.Handle) ([]symbol.Handle, error) {
	var found []symbol.Handle
	visited := make(map[string]bool)

	var walk func(h symbol.Handle, depth int) error
	walk = func(h symbol.Handle, depth int) error {
		if err := ctx.Err(); err != nil {
			return err
		}
		if depth > maxNestingDepth || visited[h.ID()] {
			return nil
		}
		visited[h.ID()] = true

		if h.Kind() == symbol.KindType && c.IsTestClass(p, h) {
			found = append(found, h)
		}

		members, err := p.Members(h)
		if err != nil {
			// A stale element is skipped; siblings are still scanned.
			return nil
		}
		for _, m := range members {
			if m.Kind() == symbol.KindMethod {
				continue
			}
			if err := walk(m, depth+1); err != nil {
				return err
			}
		}
		return nil
	}

	if err := walk(container, 0); err != nil {
		return nil, fmt.Errorf("find %s test classes: %w", c.Name(), err)
	}
	return found, nil
}
