package domain

// DefaultPackageName is the display label of the unnamed package.
const DefaultPackageName = "<Default Package>"

// TestItem is the addressable unit of test identity.
// Parent relations are kept by identity only so the structure serializes without cycles.
type TestItem struct {
	// ID is unique within one discovery call.
	ID string `json:"id"`
	// DisplayName is the human label (simple name or a framework display-name override).
	DisplayName string `json:"displayName"`
	// QualifiedName is "pkg.Type" for types and "pkg.Type#method" for methods.
	QualifiedName string `json:"qualifiedName"`
	// Level is the item's position in the containment hierarchy.
	Level Level `json:"level"`
	// Framework is unset for container levels.
	Framework FrameworkKind `json:"framework,omitempty"`
	// Project is the name of the project the item was discovered in.
	Project string `json:"project,omitempty"`
	// Location is absent for package and project levels.
	Location *Location `json:"location,omitempty"`
	// ParentID is the identity of the owning item, empty at top level.
	ParentID string `json:"parentId,omitempty"`
	// Children holds owned items in discovery order.
	Children []*TestItem `json:"children,omitempty"`
}

// CountMethods returns the number of method-level items in this subtree.
func (t *TestItem) CountMethods() int {
	if t == nil {
		return 0
	}
	count := 0
	if t.Level == LevelMethod {
		count++
	}
	for _, c := range t.Children {
		count += c.CountMethods()
	}
	return count
}
