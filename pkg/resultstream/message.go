// Package resultstream implements the line-framed protocol a test process uses to report
// run progress on its standard output, together with the listener state machine producing
// it and a frame reader for the consuming side.
package resultstream

// Kind is the event type of a message, written as its wire name.
type Kind string

const (
	KindReporterAttached Kind = "testReporterAttached"
	KindRootName         Kind = "rootName"
	KindSuiteStarted     Kind = "testSuiteStarted"
	KindSuiteFinished    Kind = "testSuiteFinished"
	KindSuiteTreeStarted Kind = "suiteTreeStarted"
	KindSuiteTreeNode    Kind = "suiteTreeNode"
	KindSuiteTreeEnded   Kind = "suiteTreeEnded"
	KindTestStarted      Kind = "testStarted"
	KindTestFinished     Kind = "testFinished"
	KindTestIgnored      Kind = "testIgnored"
	KindTestFailed       Kind = "testFailed"
	KindRunFinished      Kind = "testRunFinished"
)

var knownKinds = map[Kind]bool{
	KindReporterAttached: true,
	KindRootName:         true,
	KindSuiteStarted:     true,
	KindSuiteFinished:    true,
	KindSuiteTreeStarted: true,
	KindSuiteTreeNode:    true,
	KindSuiteTreeEnded:   true,
	KindTestStarted:      true,
	KindTestFinished:     true,
	KindTestIgnored:      true,
	KindTestFailed:       true,
	KindRunFinished:      true,
}

// IsKnown reports whether k is one of the protocol's event types.
func (k Kind) IsKnown() bool {
	return knownKinds[k]
}

// Attribute names used by the listener.
const (
	AttrName     = "name"
	AttrLocation = "location"
	AttrDuration = "duration"
	AttrStatus   = "status"
	AttrMessage  = "message"
	AttrTrace    = "trace"
	AttrTotal    = "total"
	AttrFailed   = "failed"
	AttrSkipped  = "skipped"
)

// Attribute is one name/value pair of a message.
type Attribute struct {
	Name  string `json:"name"`
	Value string `json:"value"`
}

// Message is one protocol event. Attribute order is kept on the wire.
type Message struct {
	Kind       Kind        `json:"kind"`
	Attributes []Attribute `json:"attributes,omitempty"`
}

// NewMessage builds a message from alternating attribute names and values.
// A trailing name without value is dropped.
func NewMessage(kind Kind, pairs ...string) Message {
	m := Message{Kind: kind}
	for i := 0; i+1 < len(pairs); i += 2 {
		m.Attributes = append(m.Attributes, Attribute{Name: pairs[i], Value: pairs[i+1]})
	}
	return m
}

// Get returns the value of the first attribute with the given name.
func (m Message) Get(name string) (string, bool) {
	for _, a := range m.Attributes {
		if a.Name == name {
			return a.Value, true
		}
	}
	return "", false
}
