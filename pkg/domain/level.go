package domain

// Level is the position of a test item in the containment hierarchy.
type Level string

// Test item levels, outermost first.
const (
	LevelRoot            Level = "root"
	LevelWorkspace       Level = "workspace"
	LevelWorkspaceFolder Level = "workspace-folder"
	LevelProject         Level = "project"
	LevelPackage         Level = "package"
	LevelClass           Level = "class"
	LevelNestedClass     Level = "nested-class"
	LevelMethod          Level = "method"
)

var levelDepth = map[Level]int{
	LevelRoot:            0,
	LevelWorkspace:       1,
	LevelWorkspaceFolder: 2,
	LevelProject:         3,
	LevelPackage:         4,
	LevelClass:           5,
	LevelNestedClass:     6,
	LevelMethod:          7,
}

// Depth returns the nesting depth of the level, or -1 for unknown levels.
func (l Level) Depth() int {
	d, ok := levelDepth[l]
	if !ok {
		return -1
	}
	return d
}

// IsContainer reports whether items of this level never carry a framework kind.
func (l Level) IsContainer() bool {
	d := l.Depth()
	return d >= 0 && d <= levelDepth[LevelPackage]
}

// IsType reports whether the level denotes a class or nested class.
func (l Level) IsType() bool {
	return l == LevelClass || l == LevelNestedClass
}

// Contains reports whether an item of level l may directly own an item of level child.
// Nested classes may own nested classes; every other edge goes strictly inward.
func (l Level) Contains(child Level) bool {
	switch l {
	case LevelClass:
		return child == LevelNestedClass || child == LevelMethod
	case LevelNestedClass:
		return child == LevelNestedClass || child == LevelMethod
	case LevelPackage:
		return child == LevelClass
	case LevelMethod:
		return false
	}
	pd, cd := l.Depth(), child.Depth()
	return pd >= 0 && cd > pd
}
