package resultstream

import (
	"log/slog"
	"strconv"
	"sync"
	"time"

	"github.com/specvital/jvmtest/pkg/domain"
)

// State is the position of a Listener in the run lifecycle.
type State int

const (
	StateIdle State = iota
	StateReporting
	StateSuiteOpen
	StateFinished
)

func (s State) String() string {
	switch s {
	case StateIdle:
		return "idle"
	case StateReporting:
		return "reporting"
	case StateSuiteOpen:
		return "suite-open"
	case StateFinished:
		return "finished"
	default:
		return "unknown"
	}
}

// SuitePolicy selects how the listener tracks the current suite.
type SuitePolicy int

const (
	// SingleSlot keeps one current suite for the whole run. Under parallel execution across
	// classes, suite boundaries are emitted in event arrival order and may interleave.
	SingleSlot SuitePolicy = iota
	// PerWorker keeps one current suite per Test.Worker.
	PerWorker
)

// Test identifies the test a callback is about.
type Test struct {
	// Suite is the declaring class name; a change of suite opens a new suite.
	Suite string
	Name  string
	// Location overrides the generated java:test://Suite/Name hint.
	Location string
	// Worker names the thread reporting the event, used by PerWorker tracking.
	Worker string
}

func (t Test) key() string {
	return t.Worker + "\x00" + t.Suite + "#" + t.Name
}

func (t Test) location() string {
	if t.Location != "" {
		return t.Location
	}
	return "java:test://" + t.Suite + "/" + t.Name
}

func suiteLocation(suite string) string {
	return "java:suite://" + suite
}

// Summary counts the tests reported during a run.
type Summary struct {
	Total   int
	Failed  int
	Skipped int
}

// Listener turns per-test callbacks into protocol messages, emitting suite boundaries
// whenever the declaring class of consecutive events changes. It is safe for concurrent use.
type Listener struct {
	mu      sync.Mutex
	sink    *Sink
	policy  SuitePolicy
	now     func() time.Time
	logger  *slog.Logger
	state   State
	started time.Time
	// current maps a worker to its open suite; SingleSlot uses the empty worker only.
	current map[string]string
	order   []string
	starts  map[string]time.Time
	summary Summary
}

// ListenerOption configures a Listener.
type ListenerOption func(*Listener)

// WithPolicy sets the suite tracking policy. Defaults to SingleSlot.
func WithPolicy(p SuitePolicy) ListenerOption {
	return func(l *Listener) { l.policy = p }
}

// WithClock replaces time.Now for duration measurement.
func WithClock(now func() time.Time) ListenerOption {
	return func(l *Listener) {
		if now != nil {
			l.now = now
		}
	}
}

// WithLogger sets the logger used for protocol misuse diagnostics.
func WithLogger(logger *slog.Logger) ListenerOption {
	return func(l *Listener) {
		if logger != nil {
			l.logger = logger
		}
	}
}

// NewListener creates an idle listener writing to sink.
func NewListener(sink *Sink, opts ...ListenerOption) *Listener {
	l := &Listener{
		sink:    sink,
		now:     time.Now,
		logger:  slog.Default(),
		current: make(map[string]string),
		starts:  make(map[string]time.Time),
	}
	for _, opt := range opts {
		opt(l)
	}
	return l
}

// State returns the current lifecycle state.
func (l *Listener) State() State {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.state
}

// Summary returns the counts reported so far.
func (l *Listener) Summary() Summary {
	l.mu.Lock()
	defer l.mu.Unlock()
	return l.summary
}

// RunStarted announces the reporter and the root of the run.
func (l *Listener) RunStarted(root string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state != StateIdle {
		l.logger.Debug("run already started", "state", l.state.String())
		return nil
	}
	return l.startLocked(root)
}

func (l *Listener) startLocked(root string) error {
	l.state = StateReporting
	l.started = l.now()
	if err := l.sink.Send(NewMessage(KindReporterAttached)); err != nil {
		return err
	}
	return l.sink.Send(NewMessage(KindRootName, AttrName, root))
}

// ReportTree announces the tests of a suite before they run.
func (l *Listener) ReportTree(suite string, tests []Test) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if err := l.beginLocked(); err != nil {
		return err
	}
	if l.state == StateFinished {
		return nil
	}
	if err := l.sink.Send(NewMessage(KindSuiteTreeStarted,
		AttrName, suite,
		AttrLocation, suiteLocation(suite),
	)); err != nil {
		return err
	}
	for _, t := range tests {
		if err := l.sink.Send(NewMessage(KindSuiteTreeNode,
			AttrName, t.Name,
			AttrLocation, t.location(),
		)); err != nil {
			return err
		}
	}
	return l.sink.Send(NewMessage(KindSuiteTreeEnded, AttrName, suite))
}

// TestStarted records the start time of t and reports it.
func (l *Listener) TestStarted(t Test) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ok, err := l.enterLocked(t); !ok {
		return err
	}
	l.starts[t.key()] = l.now()
	return l.sink.Send(NewMessage(KindTestStarted,
		AttrName, t.Name,
		AttrLocation, t.location(),
	))
}

// TestFinished reports a passed test.
func (l *Listener) TestFinished(t Test) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ok, err := l.enterLocked(t); !ok {
		return err
	}
	l.summary.Total++
	return l.sink.Send(NewMessage(KindTestFinished,
		AttrName, t.Name,
		AttrDuration, l.durationLocked(t),
		AttrStatus, string(domain.ResultStatusPassed),
	))
}

// TestFailed reports a failed test with its failure message and stack trace.
func (l *Listener) TestFailed(t Test, message, trace string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ok, err := l.enterLocked(t); !ok {
		return err
	}
	l.summary.Total++
	l.summary.Failed++
	return l.sink.Send(NewMessage(KindTestFailed,
		AttrName, t.Name,
		AttrDuration, l.durationLocked(t),
		AttrStatus, string(domain.ResultStatusFailed),
		AttrMessage, message,
		AttrTrace, trace,
	))
}

// TestIgnored reports a skipped test. Tests skipped without being started get a zero duration.
func (l *Listener) TestIgnored(t Test, reason string) error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if ok, err := l.enterLocked(t); !ok {
		return err
	}
	l.summary.Total++
	l.summary.Skipped++
	return l.sink.Send(NewMessage(KindTestIgnored,
		AttrName, t.Name,
		AttrDuration, l.durationLocked(t),
		AttrStatus, string(domain.ResultStatusSkipped),
		AttrMessage, reason,
	))
}

// RunFinished closes every open suite and reports the summary. Later callbacks are ignored.
func (l *Listener) RunFinished() error {
	l.mu.Lock()
	defer l.mu.Unlock()

	if l.state == StateFinished {
		return nil
	}
	if err := l.beginLocked(); err != nil {
		return err
	}
	for _, worker := range l.order {
		suite, open := l.current[worker]
		if !open {
			continue
		}
		delete(l.current, worker)
		if err := l.sink.Send(NewMessage(KindSuiteFinished, AttrName, suite)); err != nil {
			return err
		}
	}
	l.order = nil
	l.state = StateFinished

	return l.sink.Send(NewMessage(KindRunFinished,
		AttrTotal, strconv.Itoa(l.summary.Total),
		AttrFailed, strconv.Itoa(l.summary.Failed),
		AttrSkipped, strconv.Itoa(l.summary.Skipped),
		AttrDuration, formatDuration(l.now().Sub(l.started)),
	))
}

// beginLocked starts an unnamed run for callbacks that arrive before RunStarted.
func (l *Listener) beginLocked() error {
	if l.state != StateIdle {
		return nil
	}
	return l.startLocked("")
}

// enterLocked makes t's suite the open suite of its slot, closing the previous one if it
// differs. It reports false when the event must not be emitted.
func (l *Listener) enterLocked(t Test) (bool, error) {
	if err := l.beginLocked(); err != nil {
		return false, err
	}
	if l.state == StateFinished {
		l.logger.Debug("test event after run finished", "suite", t.Suite, "test", t.Name)
		return false, nil
	}

	slot := ""
	if l.policy == PerWorker {
		slot = t.Worker
	}
	open, isOpen := l.current[slot]
	if isOpen && open == t.Suite {
		return true, nil
	}
	if isOpen {
		if err := l.sink.Send(NewMessage(KindSuiteFinished, AttrName, open)); err != nil {
			return false, err
		}
		l.removeSlot(slot)
	}

	l.current[slot] = t.Suite
	l.order = append(l.order, slot)
	l.state = StateSuiteOpen
	if err := l.sink.Send(NewMessage(KindSuiteStarted,
		AttrName, t.Suite,
		AttrLocation, suiteLocation(t.Suite),
	)); err != nil {
		return false, err
	}
	return true, nil
}

func (l *Listener) removeSlot(slot string) {
	delete(l.current, slot)
	for i, s := range l.order {
		if s == slot {
			l.order = append(l.order[:i], l.order[i+1:]...)
			return
		}
	}
}

func (l *Listener) durationLocked(t Test) string {
	k := t.key()
	start, ok := l.starts[k]
	if !ok {
		return "0"
	}
	delete(l.starts, k)
	return formatDuration(l.now().Sub(start))
}

// formatDuration renders d in whole milliseconds.
func formatDuration(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	return strconv.FormatInt(d.Milliseconds(), 10)
}
