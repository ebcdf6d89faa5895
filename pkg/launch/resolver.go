// Package launch turns a selection of discovered test items into the parameters of the
// process that runs them.
package launch

import (
	"context"
	"fmt"
	"log/slog"
	"sort"
	"strings"
	"sync"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/testitem"
)

// Default runner entry points.
const (
	// DefaultRunnerMainClass runs JUnit 4 and TestNG selections and reports through the
	// result stream protocol.
	DefaultRunnerMainClass = "org.specvital.jvmtest.runner.Launcher"
	// JUnitPlatformMainClass is the JUnit Platform console launcher.
	JUnitPlatformMainClass = "org.junit.platform.console.ConsoleLauncher"
)

// Project holds what the resolver needs to know about one project.
type Project struct {
	Name string
	// Root resolves relative class path entries; it is also the default working directory.
	Root             string
	WorkingDirectory string
	// Classpath and ModulePath entries may be doublestar globs.
	Classpath   []string
	ModulePath  []string
	VMArguments []string
	// MainClasses overrides the runner entry point per framework.
	MainClasses map[domain.FrameworkKind]string
}

// Request is a launch request for selected test items.
type Request struct {
	// Selection lists test item identities. A project identity selects the whole project.
	Selection []string
	// Framework may be left unset when Items determine it.
	Framework domain.FrameworkKind
	// Items optionally holds the discovered forest the selection was made from. Selected
	// items found in it supply their level and framework, and container items expand to
	// their classes for runners without package selectors.
	Items []*domain.TestItem
}

// Arguments describe the process to start.
type Arguments struct {
	WorkingDirectory string               `json:"workingDirectory"`
	MainClass        string               `json:"mainClass"`
	Framework        domain.FrameworkKind `json:"framework"`
	Classpath        []string             `json:"classpath"`
	ModulePath       []string             `json:"modulePath"`
	VMArguments      []string             `json:"vmArguments"`
	ProgramArguments []string             `json:"programArguments"`
}

// Resolver resolves launch arguments for registered projects.
type Resolver struct {
	mu       sync.RWMutex
	projects map[string]Project
	logger   *slog.Logger
}

// Option configures a Resolver.
type Option func(*Resolver)

// WithLogger sets the logger. Defaults to slog.Default().
func WithLogger(l *slog.Logger) Option {
	return func(r *Resolver) {
		if l != nil {
			r.logger = l
		}
	}
}

// NewResolver creates a resolver with the given projects.
func NewResolver(projects []Project, opts ...Option) *Resolver {
	r := &Resolver{
		projects: make(map[string]Project, len(projects)),
		logger:   slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	for _, p := range projects {
		r.projects[p.Name] = p
	}
	return r
}

// AddProject registers p, replacing a project of the same name.
func (r *Resolver) AddProject(p Project) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.projects[p.Name] = p
}

// selected is one parsed selection entry.
type selected struct {
	id        string
	qualified string
	level     domain.Level
	framework domain.FrameworkKind
	item      *domain.TestItem
}

// Resolve computes the launch arguments of req. Failures are explicit: an empty or
// inconsistent selection, an unknown project or an unresolvable class path.
func (r *Resolver) Resolve(ctx context.Context, req Request) (*Arguments, error) {
	if len(req.Selection) == 0 {
		return nil, ErrEmptySelection
	}

	projectName, entries, err := parseSelection(req)
	if err != nil {
		return nil, err
	}

	r.mu.RLock()
	project, ok := r.projects[projectName]
	r.mu.RUnlock()
	if !ok {
		return nil, fmt.Errorf("%w: %q", ErrUnknownProject, projectName)
	}

	kind, err := selectionFramework(req.Framework, entries)
	if err != nil {
		return nil, err
	}

	programArgs, err := programArguments(kind, entries)
	if err != nil {
		return nil, err
	}

	classpath, err := expandEntries(ctx, project.Name, project.Root, project.Classpath)
	if err != nil {
		return nil, err
	}
	if len(classpath) == 0 {
		return nil, &ClasspathError{Project: project.Name, Err: ErrNoMatches}
	}
	modulePath, err := expandEntries(ctx, project.Name, project.Root, project.ModulePath)
	if err != nil {
		return nil, err
	}

	wd := project.WorkingDirectory
	if wd == "" {
		wd = project.Root
	}

	args := &Arguments{
		WorkingDirectory: wd,
		MainClass:        mainClass(project, kind),
		Framework:        kind,
		Classpath:        classpath,
		ModulePath:       modulePath,
		VMArguments:      append([]string(nil), project.VMArguments...),
		ProgramArguments: programArgs,
	}
	if args.ModulePath == nil {
		args.ModulePath = []string{}
	}
	if args.VMArguments == nil {
		args.VMArguments = []string{}
	}

	r.logger.Debug("launch arguments resolved",
		"project", project.Name,
		"framework", string(kind),
		"selection", len(entries),
		"classpath_entries", len(classpath))
	return args, nil
}

func parseSelection(req Request) (string, []selected, error) {
	var (
		project string
		entries []selected
	)
	seen := make(map[string]bool, len(req.Selection))

	for _, id := range req.Selection {
		if seen[id] {
			continue
		}
		seen[id] = true

		p, qualified := testitem.SplitID(id)
		if project == "" {
			project = p
		} else if p != project {
			return "", nil, fmt.Errorf("%w: %q and %q", ErrMixedProjects, project, p)
		}

		s := selected{id: id, qualified: qualified}
		if item := domain.FindByID(req.Items, id); item != nil {
			s.item = item
			s.level = item.Level
			s.framework = item.Framework
		} else {
			s.level = inferLevel(id, qualified)
		}
		entries = append(entries, s)
	}
	return project, entries, nil
}

// inferLevel classifies an identity by its shape when no item is available: methods
// carry '#', projects have no separator, and by convention class names are capitalized
// while package names are not.
func inferLevel(id, qualified string) domain.Level {
	switch {
	case !strings.Contains(id, testitem.IDSeparator):
		return domain.LevelProject
	case strings.Contains(qualified, "#"):
		return domain.LevelMethod
	case strings.Contains(qualified, "$"):
		return domain.LevelNestedClass
	}
	last := qualified
	if i := strings.LastIndexByte(qualified, '.'); i >= 0 {
		last = qualified[i+1:]
	}
	if last == "" || last[0] < 'A' || last[0] > 'Z' {
		return domain.LevelPackage
	}
	return domain.LevelClass
}

func selectionFramework(requested domain.FrameworkKind, entries []selected) (domain.FrameworkKind, error) {
	kinds := make(map[domain.FrameworkKind]bool)
	for _, e := range entries {
		if e.item == nil {
			continue
		}
		domain.Walk([]*domain.TestItem{e.item}, func(t *domain.TestItem) bool {
			if t.Framework != domain.FrameworkNone {
				kinds[t.Framework] = true
			}
			return true
		})
	}

	if requested != domain.FrameworkNone {
		for k := range kinds {
			if k != requested {
				return "", fmt.Errorf("%w: requested %s, selection contains %s", ErrMixedFrameworks, requested, k)
			}
		}
		return requested, nil
	}

	switch len(kinds) {
	case 0:
		return "", ErrUnknownFramework
	case 1:
		for k := range kinds {
			return k, nil
		}
	}
	names := make([]string, 0, len(kinds))
	for k := range kinds {
		names = append(names, string(k))
	}
	sort.Strings(names)
	return "", fmt.Errorf("%w: %s", ErrMixedFrameworks, strings.Join(names, ", "))
}

func mainClass(p Project, kind domain.FrameworkKind) string {
	if mc := p.MainClasses[kind]; mc != "" {
		return mc
	}
	if kind == domain.FrameworkJUnit5 {
		return JUnitPlatformMainClass
	}
	return DefaultRunnerMainClass
}
