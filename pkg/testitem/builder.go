// Package testitem turns classified symbols into immutable test item records.
//
// Identities combine the project name and the qualified name ("demo@com.acme.FooTest#adds"),
// so items stay unique when one discovery request spans several projects. Projects are
// addressed by their name alone.
package testitem

import (
	"errors"
	"fmt"
	"strings"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/framework"
	"github.com/specvital/jvmtest/pkg/symbol"
)

// IDSeparator joins the project name and the qualified name of an item identity.
const IDSeparator = "@"

var (
	// ErrLocationRequired is returned when a class or method has no source range.
	ErrLocationRequired = errors.New("testitem: source location required")
	// ErrUnsupportedLevel is returned for levels the builder does not produce.
	ErrUnsupportedLevel = errors.New("testitem: unsupported level")
)

// ID returns the identity of an item of the given project and qualified name.
func ID(project, qualifiedName string) string {
	return project + IDSeparator + qualifiedName
}

// SplitID reverses ID. Project identities have no separator and yield an empty
// qualified name.
func SplitID(id string) (project, qualifiedName string) {
	project, qualifiedName, _ = strings.Cut(id, IDSeparator)
	return project, qualifiedName
}

// Builder produces test items for one project.
type Builder struct {
	provider symbol.Provider
	project  string
}

// NewBuilder creates a builder reading symbols from p.
func NewBuilder(p symbol.Provider, project string) *Builder {
	return &Builder{provider: p, project: project}
}

// Build creates the item for h at the given level. c supplies the framework kind and the
// display name override; it may be nil for class items that only hold nested test classes.
func (b *Builder) Build(h symbol.Handle, level domain.Level, c framework.Classifier) (*domain.TestItem, error) {
	switch level {
	case domain.LevelMethod:
		return b.Method(h, c, false)
	case domain.LevelClass, domain.LevelNestedClass:
		return b.typeItem(h, level, c)
	case domain.LevelPackage:
		return b.Package(h)
	case domain.LevelProject:
		return b.Project(), nil
	default:
		return nil, fmt.Errorf("build %s: %w", level, ErrUnsupportedLevel)
	}
}

// Method creates a method item. With disambiguate set, the erased parameter types are
// appended to the qualified name, as needed when a class declares overloads.
func (b *Builder) Method(h symbol.Handle, c framework.Classifier, disambiguate bool) (*domain.TestItem, error) {
	qualified, err := b.provider.QualifiedName(h)
	if err != nil {
		return nil, fmt.Errorf("qualified name of %s: %w", h.ID(), err)
	}
	if disambiguate {
		sig, err := b.provider.Signature(h)
		if err != nil {
			return nil, fmt.Errorf("signature of %s: %w", h.ID(), err)
		}
		qualified += "(" + strings.Join(sig.ParameterTypes, ",") + ")"
	}

	return b.located(h, qualified, domain.LevelMethod, c)
}

func (b *Builder) typeItem(h symbol.Handle, level domain.Level, c framework.Classifier) (*domain.TestItem, error) {
	qualified, err := b.provider.QualifiedName(h)
	if err != nil {
		return nil, fmt.Errorf("qualified name of %s: %w", h.ID(), err)
	}
	return b.located(h, qualified, level, c)
}

func (b *Builder) located(h symbol.Handle, qualified string, level domain.Level, c framework.Classifier) (*domain.TestItem, error) {
	loc, ok, err := b.provider.Location(h)
	if err != nil {
		return nil, fmt.Errorf("location of %s: %w", h.ID(), err)
	}
	if !ok {
		return nil, fmt.Errorf("%s %s: %w", level, qualified, ErrLocationRequired)
	}

	item := &domain.TestItem{
		ID:            ID(b.project, qualified),
		DisplayName:   h.Name(),
		QualifiedName: qualified,
		Level:         level,
		Project:       b.project,
		Location:      &loc,
	}
	if c != nil {
		item.Framework = c.Kind()
		if name, ok := c.DisplayName(b.provider, h); ok {
			item.DisplayName = name
		}
	}
	return item, nil
}

// Package creates a package item; the unnamed package gets the DefaultPackageName label.
func (b *Builder) Package(h symbol.Handle) (*domain.TestItem, error) {
	name, err := b.provider.QualifiedName(h)
	if err != nil {
		return nil, fmt.Errorf("qualified name of %s: %w", h.ID(), err)
	}
	display := name
	if display == "" {
		display = domain.DefaultPackageName
	}
	return &domain.TestItem{
		ID:            ID(b.project, name),
		DisplayName:   display,
		QualifiedName: name,
		Level:         domain.LevelPackage,
		Project:       b.project,
	}, nil
}

// Project creates the project item.
func (b *Builder) Project() *domain.TestItem {
	return &domain.TestItem{
		ID:            b.project,
		DisplayName:   b.project,
		QualifiedName: b.project,
		Level:         domain.LevelProject,
		Project:       b.project,
	}
}
