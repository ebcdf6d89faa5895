package domain

// CountMethods returns the total number of method-level items across the forest.
func CountMethods(forest []*TestItem) int {
	count := 0
	for _, t := range forest {
		count += t.CountMethods()
	}
	return count
}

// Walk visits every item depth-first in child order.
// The visitor returns false to skip an item's children.
func Walk(forest []*TestItem, visit func(*TestItem) bool) {
	for _, t := range forest {
		if t == nil {
			continue
		}
		if visit(t) {
			Walk(t.Children, visit)
		}
	}
}

// Flatten returns every item of the forest in depth-first order.
func Flatten(forest []*TestItem) []*TestItem {
	var out []*TestItem
	Walk(forest, func(t *TestItem) bool {
		out = append(out, t)
		return true
	})
	return out
}

// FindByID returns the item with the given id, or nil.
func FindByID(forest []*TestItem, id string) *TestItem {
	var found *TestItem
	Walk(forest, func(t *TestItem) bool {
		if found != nil {
			return false
		}
		if t.ID == id {
			found = t
			return false
		}
		return true
	})
	return found
}
