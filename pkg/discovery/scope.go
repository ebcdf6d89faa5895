package discovery

import "fmt"

// ScopeKind selects what a discovery request walks.
type ScopeKind string

const (
	// ScopeWorkspace returns one project item per registered project.
	ScopeWorkspace ScopeKind = "workspace"
	// ScopeProject returns the package items of a project.
	ScopeProject ScopeKind = "project"
	// ScopePackage returns the class items of a package.
	ScopePackage ScopeKind = "package"
	// ScopeFile returns the class items declared in one compilation unit.
	ScopeFile ScopeKind = "file"
	// ScopeType returns the item of a single class, nested classes included.
	ScopeType ScopeKind = "type"
)

// Scope describes a discovery request.
type Scope struct {
	Kind ScopeKind
	// Project restricts the request to one project. Empty searches every project;
	// for ScopeProject it selects the only registered project.
	Project string
	// Name is the package name, file URI or path, or qualified type name.
	Name string
}

// Workspace returns the workspace scope.
func Workspace() Scope { return Scope{Kind: ScopeWorkspace} }

// Project returns the scope of a named project.
func Project(name string) Scope { return Scope{Kind: ScopeProject, Project: name} }

// Package returns the scope of a package; the empty name is the unnamed package.
func Package(project, name string) Scope {
	return Scope{Kind: ScopePackage, Project: project, Name: name}
}

// File returns the scope of a compilation unit.
func File(project, uri string) Scope {
	return Scope{Kind: ScopeFile, Project: project, Name: uri}
}

// Type returns the scope of a type by qualified name.
func Type(project, qualifiedName string) Scope {
	return Scope{Kind: ScopeType, Project: project, Name: qualifiedName}
}

// ParseScopeKind validates a scope kind given on the command line.
func ParseScopeKind(s string) (ScopeKind, error) {
	switch k := ScopeKind(s); k {
	case ScopeWorkspace, ScopeProject, ScopePackage, ScopeFile, ScopeType:
		return k, nil
	default:
		return "", fmt.Errorf("unknown scope %q (want workspace, project, package, file or type)", s)
	}
}

func (s Scope) String() string {
	if s.Name == "" {
		return fmt.Sprintf("%s(%s)", s.Kind, s.Project)
	}
	return fmt.Sprintf("%s(%s:%s)", s.Kind, s.Project, s.Name)
}
