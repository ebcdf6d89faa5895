package discovery

import (
	"context"
	"log/slog"

	"github.com/specvital/jvmtest/pkg/domain"
	"github.com/specvital/jvmtest/pkg/framework"
	"github.com/specvital/jvmtest/pkg/symbol"
	"github.com/specvital/jvmtest/pkg/testitem"
)

// maxTypeDepth bounds recursion into nested type declarations.
const maxTypeDepth = 64

// record is one arena node. Relations are arena indices; no item references its parent
// until the forest is materialized.
type record struct {
	item     *domain.TestItem
	key      string
	parent   int
	children []int
}

// session is the working state of one Discover call.
type session struct {
	ctx       context.Context
	registry  *framework.Registry
	logger    *slog.Logger
	arena     []record
	roots     []int
	emitted   map[string]int
	state     State
	cancelled bool
}

// walker binds a session to one project.
type walker struct {
	project  string
	provider symbol.Provider
	builder  *testitem.Builder
}

func (w *walker) key(h symbol.Handle) string {
	return w.project + "\x00" + h.ID()
}

func newSession(ctx context.Context, registry *framework.Registry, logger *slog.Logger) *session {
	return &session{
		ctx:      ctx,
		registry: registry,
		logger:   logger,
		emitted:  make(map[string]int),
	}
}

// alive polls for cancellation. Once cancelled, the session stays cancelled.
func (s *session) alive() bool {
	if s.cancelled {
		return false
	}
	if err := s.ctx.Err(); err != nil {
		s.cancelled = true
		s.logger.Debug("discovery cancelled", "state", s.state.String(), "error", err)
		return false
	}
	return true
}

func (s *session) enter(state State) {
	s.state = state
}

// reserve appends a record without linking it to its parent.
func (s *session) reserve(item *domain.TestItem, key string, parent int) int {
	idx := len(s.arena)
	s.arena = append(s.arena, record{item: item, key: key, parent: parent})
	s.emitted[key] = idx
	return idx
}

// commit links a reserved record to its parent, or to the roots.
func (s *session) commit(idx int) {
	parent := s.arena[idx].parent
	if parent < 0 {
		s.roots = append(s.roots, idx)
		return
	}
	s.arena[parent].children = append(s.arena[parent].children, idx)
}

// rollback discards the record at idx and everything reserved after it. Walks are depth
// first, so those are exactly its descendants.
func (s *session) rollback(idx int) {
	for _, r := range s.arena[idx:] {
		delete(s.emitted, r.key)
	}
	s.arena = s.arena[:idx]
}

func (s *session) discoverScope(w *walker, scope Scope) {
	p := w.provider

	switch scope.Kind {
	case ScopeWorkspace:
		projectHandle, ok := s.lookup(w, symbol.KindProject, w.project)
		if !ok {
			return
		}
		idx := s.reserve(w.builder.Project(), w.key(projectHandle), -1)
		if s.visitPackages(w, projectHandle, idx) > 0 {
			s.commit(idx)
		} else {
			s.rollback(idx)
		}

	case ScopeProject:
		projectHandle, ok := s.lookup(w, symbol.KindProject, w.project)
		if !ok {
			return
		}
		s.visitPackages(w, projectHandle, -1)

	case ScopePackage:
		if h, ok := s.lookup(w, symbol.KindPackage, scope.Name); ok {
			s.visitContainer(w, h, -1)
		}

	case ScopeFile:
		if h, ok := s.lookup(w, symbol.KindFile, scope.Name); ok {
			s.visitContainer(w, h, -1)
		}

	case ScopeType:
		h, ok := s.lookup(w, symbol.KindType, scope.Name)
		if !ok {
			return
		}
		level := domain.LevelClass
		if enclosing, err := p.EnclosingType(h); err != nil {
			s.skip(w, h, err)
			return
		} else if enclosing != nil {
			level = domain.LevelNestedClass
		}
		s.visitType(w, h, level, -1, 0)

	default:
		s.logger.Debug("unknown discovery scope", "scope", scope.String())
	}
}

func (s *session) lookup(w *walker, kind symbol.Kind, name string) (symbol.Handle, bool) {
	h, err := w.provider.Lookup(kind, name)
	if err != nil {
		s.logger.Debug("discovery scope not resolved",
			"project", w.project,
			"kind", kind.String(),
			"name", name,
			"error", err,
		)
		return nil, false
	}
	return h, true
}

func (s *session) skip(w *walker, h symbol.Handle, err error) {
	s.logger.Debug("skipping element",
		"project", w.project,
		"element", h.ID(),
		"state", s.state.String(),
		"error", err,
	)
}

// visitPackages emits one package item per package of the project that holds test
// classes and returns how many were emitted.
func (s *session) visitPackages(w *walker, projectHandle symbol.Handle, parent int) int {
	if !s.alive() {
		return 0
	}
	s.enter(StateScanningContainer)

	members, err := w.provider.Members(projectHandle)
	if err != nil {
		s.skip(w, projectHandle, err)
		return 0
	}

	emitted := 0
	for _, pkg := range members {
		if !s.alive() {
			return emitted
		}
		if pkg.Kind() != symbol.KindPackage {
			continue
		}
		if _, dup := s.emitted[w.key(pkg)]; dup {
			continue
		}
		item, err := w.builder.Package(pkg)
		if err != nil {
			s.skip(w, pkg, err)
			continue
		}
		idx := s.reserve(item, w.key(pkg), parent)
		if s.visitContainer(w, pkg, idx) > 0 {
			s.commit(idx)
			emitted++
		} else {
			s.rollback(idx)
		}
	}
	return emitted
}

// visitContainer walks the types of a package or file and returns how many class items it
// emitted under parent.
func (s *session) visitContainer(w *walker, container symbol.Handle, parent int) int {
	if !s.alive() {
		return 0
	}
	s.enter(StateScanningContainer)

	members, err := w.provider.Members(container)
	if err != nil {
		s.skip(w, container, err)
		return 0
	}

	inScope := make(map[string]bool, len(members))
	for _, m := range members {
		inScope[m.ID()] = true
	}

	emitted := 0
	for _, m := range members {
		if !s.alive() {
			return emitted
		}
		if m.Kind() != symbol.KindType {
			continue
		}

		enclosing, err := w.provider.EnclosingType(m)
		if err != nil {
			s.skip(w, m, err)
			continue
		}
		level := domain.LevelClass
		if enclosing != nil {
			// Reported under its enclosing type instead.
			if inScope[enclosing.ID()] {
				continue
			}
			level = domain.LevelNestedClass
		}
		if s.visitType(w, m, level, parent, 0) {
			emitted++
		}
	}
	return emitted
}

// visitType emits the item of typ when it qualifies as a test class or holds nested test
// classes, and reports whether it did.
func (s *session) visitType(w *walker, typ symbol.Handle, level domain.Level, parent int, depth int) bool {
	if !s.alive() || depth > maxTypeDepth {
		return false
	}
	if _, dup := s.emitted[w.key(typ)]; dup {
		return false
	}
	s.enter(StateScanningType)

	p := w.provider
	members, err := p.Members(typ)
	if err != nil {
		s.skip(w, typ, err)
		return false
	}

	c, _ := s.registry.ClassifyType(p, typ)
	item, err := w.builder.Build(typ, level, c)
	if err != nil {
		s.skip(w, typ, err)
		return false
	}
	idx := s.reserve(item, w.key(typ), parent)

	qualifying := make(map[string]framework.Classifier)
	overloads := make(map[string]int)
	if c != nil {
		accepts := map[domain.FrameworkKind]bool{c.Kind(): true}
		for _, m := range members {
			if m.Kind() != symbol.KindMethod {
				continue
			}
			mc, ok := s.registry.Classify(p, m)
			if !ok {
				continue
			}
			accepted, seen := accepts[mc.Kind()]
			if !seen {
				accepted = mc.IsTestClass(p, typ)
				accepts[mc.Kind()] = accepted
			}
			if !accepted {
				s.logDropped(w, m, mc)
				continue
			}
			qualifying[m.ID()] = mc
			overloads[m.Name()]++
		}
	}

	s.enter(StateScanningMember)
	methods, nested := 0, 0
	for _, m := range members {
		if !s.alive() {
			s.rollback(idx)
			return false
		}
		switch m.Kind() {
		case symbol.KindMethod:
			mc, ok := qualifying[m.ID()]
			if !ok {
				continue
			}
			if _, dup := s.emitted[w.key(m)]; dup {
				continue
			}
			mi, err := w.builder.Method(m, mc, overloads[m.Name()] > 1)
			if err != nil {
				s.skip(w, m, err)
				continue
			}
			s.commit(s.reserve(mi, w.key(m), idx))
			methods++
		case symbol.KindType:
			if s.visitType(w, m, domain.LevelNestedClass, idx, depth+1) {
				nested++
			}
		}
	}
	s.enter(StateScanningType)

	if methods == 0 && nested == 0 {
		// A class without test content is kept only for its class-level marker.
		marker, ok := s.registry.ClassifyMarker(p, typ)
		if !ok {
			s.rollback(idx)
			return false
		}
		item.Framework = marker.Kind()
	} else {
		item.Framework = s.uniformFramework(idx)
	}
	s.commit(idx)
	return true
}

// uniformFramework returns the framework shared by every child of a class, or none when
// they differ.
func (s *session) uniformFramework(idx int) domain.FrameworkKind {
	kind := domain.FrameworkNone
	for i, child := range s.arena[idx].children {
		k := s.arena[child].item.Framework
		if i == 0 {
			kind = k
			continue
		}
		if k != kind {
			return domain.FrameworkNone
		}
	}
	return kind
}

func (s *session) logDropped(w *walker, m symbol.Handle, mc framework.Classifier) {
	s.logger.Debug("method framework does not accept its class",
		"project", w.project,
		"method", m.ID(),
		"method_framework", mc.Name(),
	)
}

// finish converts the arena into nested items. A cancelled session yields an empty forest.
func (s *session) finish() []*domain.TestItem {
	s.enter(StateDone)
	if s.cancelled {
		return []*domain.TestItem{}
	}

	forest := make([]*domain.TestItem, 0, len(s.roots))
	for _, r := range s.roots {
		forest = append(forest, s.materialize(r))
	}
	return forest
}

func (s *session) materialize(idx int) *domain.TestItem {
	rec := s.arena[idx]
	item := rec.item
	if rec.parent >= 0 {
		item.ParentID = s.arena[rec.parent].item.ID
	}
	if len(rec.children) > 0 {
		item.Children = make([]*domain.TestItem, 0, len(rec.children))
		for _, c := range rec.children {
			item.Children = append(item.Children, s.materialize(c))
		}
	}
	return item
}
