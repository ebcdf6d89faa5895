package resultstream

import (
	"bytes"
	"errors"
	"io"
	"log/slog"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/specvital/jvmtest/pkg/domain"
)

type fakeClock struct {
	now time.Time
}

func (c *fakeClock) Now() time.Time { return c.now }

func (c *fakeClock) Advance(d time.Duration) { c.now = c.now.Add(d) }

func newTestListener(buf *bytes.Buffer, opts ...ListenerOption) (*Listener, *fakeClock) {
	clock := &fakeClock{now: time.Unix(1700000000, 0)}
	opts = append([]ListenerOption{
		WithClock(clock.Now),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	return NewListener(NewSink(buf), opts...), clock
}

func readMessages(t *testing.T, output string) []Message {
	t.Helper()
	var passthrough bytes.Buffer
	msgs, err := NewReader(strings.NewReader(output), &passthrough).ReadAll()
	require.NoError(t, err)
	assert.Empty(t, passthrough.String())
	return msgs
}

type event struct {
	kind Kind
	name string
}

func events(msgs []Message) []event {
	out := make([]event, len(msgs))
	for i, m := range msgs {
		name, _ := m.Get(AttrName)
		out[i] = event{kind: m.Kind, name: name}
	}
	return out
}

func TestEncode_Format(t *testing.T) {
	got := Encode(NewMessage(KindTestStarted, AttrName, "m1", AttrLocation, "java:test://A/m1"))
	want := `@@<TestRunner-{"name":"testStarted", "attributes":{"name":"m1", "location":"java:test://A/m1"}}-TestRunner>`
	assert.Equal(t, want, got)

	assert.Equal(t, `@@<TestRunner-{"name":"testReporterAttached", "attributes":{}}-TestRunner>`,
		Encode(NewMessage(KindReporterAttached)))
}

func TestEscape(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"plain", "plain"},
		{`say "hi"`, `say \"hi\"`},
		{`C:\tmp`, `C:\\tmp`},
		{"a\nb\r\tc", `a\nb\r\tc`},
		{"\x00\x1f\x7f", `\u0000\u001f\u007f`},
		{"@@<x>", `\u0040\u0040\u003cx\u003e`},
		{"héllo ✓", "héllo ✓"},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			assert.Equal(t, tt.want, Escape(tt.in))
		})
	}
}

func TestEscape_InvalidUTF8UsesPlaceholder(t *testing.T) {
	m := NewMessage(KindTestFailed, AttrName, "broken", AttrMessage, "bad \xff\xfe bytes")
	line := Encode(m)

	decoded, err := Decode(line)
	require.NoError(t, err)
	msg, ok := decoded.Get(AttrMessage)
	require.True(t, ok)
	assert.Equal(t, Placeholder, msg)
	name, _ := decoded.Get(AttrName)
	assert.Equal(t, "broken", name)
}

func TestEncodeDecode_RoundTrip(t *testing.T) {
	values := []string{
		"",
		"simple",
		FramePrefix,
		FrameSuffix,
		FramePrefix + `{"name":"testStarted"}` + FrameSuffix,
		`quote " and backslash \ and \"both\"`,
		"line one\nline two\r\n\ttabbed",
		"\x00\x01\x02\x1b[31mred\x1b[0m\x7f",
		"java.lang.AssertionError: expected:<1> but was:<2>\n\tat Foo.m1(Foo.java:12)",
		"unicode: é ✓ 日本",
		"@", "<", ">", "-TestRunner", "@@",
	}

	for _, v := range values {
		m := NewMessage(KindTestFailed, AttrName, v, AttrTrace, v)
		line := Encode(m)

		assert.NotContains(t, line, "\n")
		assert.True(t, strings.HasPrefix(line, FramePrefix))
		assert.True(t, strings.HasSuffix(line, FrameSuffix))
		assert.Equal(t, 1, strings.Count(line, FramePrefix), "value %q leaks a frame prefix", v)
		assert.Equal(t, 1, strings.Count(line, FrameSuffix), "value %q leaks a frame suffix", v)

		decoded, err := Decode(line)
		require.NoError(t, err, "value %q", v)
		assert.Equal(t, m, decoded, "value %q", v)
	}
}

func TestDecode_Malformed(t *testing.T) {
	tests := []struct {
		name  string
		frame string
	}{
		{"no delimiters", `{"name":"testStarted"}`},
		{"no suffix", FramePrefix + `{"name":"testStarted"}`},
		{"invalid json", FramePrefix + `{"name":` + FrameSuffix},
		{"missing name", FramePrefix + `{"attributes":{}}` + FrameSuffix},
		{"attributes not object", FramePrefix + `{"name":"x", "attributes":[1]}` + FrameSuffix},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := Decode(tt.frame)
			assert.ErrorIs(t, err, ErrMalformedFrame)
		})
	}
}

func TestListener_SuiteBoundaries(t *testing.T) {
	var buf bytes.Buffer
	l, _ := newTestListener(&buf)

	require.NoError(t, l.RunStarted("demo"))
	assert.Equal(t, StateReporting, l.State())
	for _, tc := range []Test{{Suite: "A", Name: "m1"}, {Suite: "A", Name: "m2"}, {Suite: "B", Name: "m1"}} {
		require.NoError(t, l.TestStarted(tc))
		assert.Equal(t, StateSuiteOpen, l.State())
		require.NoError(t, l.TestFinished(tc))
	}
	require.NoError(t, l.RunFinished())
	assert.Equal(t, StateFinished, l.State())

	msgs := readMessages(t, buf.String())
	assert.Equal(t, []event{
		{KindReporterAttached, ""},
		{KindRootName, "demo"},
		{KindSuiteStarted, "A"},
		{KindTestStarted, "m1"},
		{KindTestFinished, "m1"},
		{KindTestStarted, "m2"},
		{KindTestFinished, "m2"},
		{KindSuiteFinished, "A"},
		{KindSuiteStarted, "B"},
		{KindTestStarted, "m1"},
		{KindTestFinished, "m1"},
		{KindSuiteFinished, "B"},
		{KindRunFinished, ""},
	}, events(msgs))

	summary := msgs[len(msgs)-1]
	total, _ := summary.Get(AttrTotal)
	failed, _ := summary.Get(AttrFailed)
	skipped, _ := summary.Get(AttrSkipped)
	assert.Equal(t, "3", total)
	assert.Equal(t, "0", failed)
	assert.Equal(t, "0", skipped)

	loc, _ := msgs[2].Get(AttrLocation)
	assert.Equal(t, "java:suite://A", loc)
	loc, _ = msgs[3].Get(AttrLocation)
	assert.Equal(t, "java:test://A/m1", loc)
}

func TestListener_DurationsAndOutcomes(t *testing.T) {
	var buf bytes.Buffer
	l, clock := newTestListener(&buf)
	require.NoError(t, l.RunStarted("demo"))

	passing := Test{Suite: "com.acme.FooTest", Name: "passes"}
	failing := Test{Suite: "com.acme.FooTest", Name: "fails", Location: "custom://fails"}
	skipped := Test{Suite: "com.acme.FooTest", Name: "skipped"}

	require.NoError(t, l.TestStarted(passing))
	clock.Advance(15 * time.Millisecond)
	require.NoError(t, l.TestFinished(passing))

	require.NoError(t, l.TestStarted(failing))
	clock.Advance(1500 * time.Millisecond)
	trace := "java.lang.AssertionError: boom\n\tat com.acme.FooTest.fails(FooTest.java:20)"
	require.NoError(t, l.TestFailed(failing, "boom", trace))

	require.NoError(t, l.TestIgnored(skipped, "@Ignore"))
	clock.Advance(time.Second)
	require.NoError(t, l.RunFinished())

	assert.Equal(t, Summary{Total: 3, Failed: 1, Skipped: 1}, l.Summary())

	byKind := make(map[Kind][]Message)
	for _, m := range readMessages(t, buf.String()) {
		byKind[m.Kind] = append(byKind[m.Kind], m)
	}

	d, _ := byKind[KindTestFinished][0].Get(AttrDuration)
	assert.Equal(t, "15", d)
	status, _ := byKind[KindTestFinished][0].Get(AttrStatus)
	assert.Equal(t, string(domain.ResultStatusPassed), status)

	failed := byKind[KindTestFailed][0]
	d, _ = failed.Get(AttrDuration)
	assert.Equal(t, "1500", d)
	gotTrace, _ := failed.Get(AttrTrace)
	assert.Equal(t, trace, gotTrace)
	msg, _ := failed.Get(AttrMessage)
	assert.Equal(t, "boom", msg)
	loc, _ := byKind[KindTestStarted][1].Get(AttrLocation)
	assert.Equal(t, "custom://fails", loc)

	ignored := byKind[KindTestIgnored][0]
	d, _ = ignored.Get(AttrDuration)
	assert.Equal(t, "0", d)
	reason, _ := ignored.Get(AttrMessage)
	assert.Equal(t, "@Ignore", reason)

	total, _ := byKind[KindRunFinished][0].Get(AttrDuration)
	assert.Equal(t, "2515", total)
}

func TestListener_LifecycleEdges(t *testing.T) {
	var buf bytes.Buffer
	l, _ := newTestListener(&buf)

	// Events before RunStarted start an unnamed run.
	require.NoError(t, l.TestIgnored(Test{Suite: "A", Name: "x"}, ""))
	require.NoError(t, l.RunStarted("ignored"))
	require.NoError(t, l.RunFinished())
	require.NoError(t, l.RunFinished())
	require.NoError(t, l.TestStarted(Test{Suite: "B", Name: "late"}))

	assert.Equal(t, []event{
		{KindReporterAttached, ""},
		{KindRootName, ""},
		{KindSuiteStarted, "A"},
		{KindTestIgnored, "x"},
		{KindSuiteFinished, "A"},
		{KindRunFinished, ""},
	}, events(readMessages(t, buf.String())))
}

func TestListener_EmptyRun(t *testing.T) {
	var buf bytes.Buffer
	l, _ := newTestListener(&buf)
	require.NoError(t, l.RunFinished())

	assert.Equal(t, []event{
		{KindReporterAttached, ""},
		{KindRootName, ""},
		{KindRunFinished, ""},
	}, events(readMessages(t, buf.String())))
}

func TestListener_ReportTree(t *testing.T) {
	var buf bytes.Buffer
	l, _ := newTestListener(&buf)
	require.NoError(t, l.RunStarted("demo"))
	require.NoError(t, l.ReportTree("A", []Test{{Suite: "A", Name: "m1"}, {Suite: "A", Name: "m2"}}))

	msgs := readMessages(t, buf.String())
	assert.Equal(t, []event{
		{KindReporterAttached, ""},
		{KindRootName, "demo"},
		{KindSuiteTreeStarted, "A"},
		{KindSuiteTreeNode, "m1"},
		{KindSuiteTreeNode, "m2"},
		{KindSuiteTreeEnded, "A"},
	}, events(msgs))
	loc, _ := msgs[4].Get(AttrLocation)
	assert.Equal(t, "java:test://A/m2", loc)
	assert.Equal(t, StateReporting, l.State())
}

func interleaved(t *testing.T, l *Listener) {
	t.Helper()
	a := Test{Suite: "A", Name: "m1", Worker: "w1"}
	b := Test{Suite: "B", Name: "m1", Worker: "w2"}
	require.NoError(t, l.RunStarted("demo"))
	require.NoError(t, l.TestStarted(a))
	require.NoError(t, l.TestStarted(b))
	require.NoError(t, l.TestFinished(a))
	require.NoError(t, l.TestFinished(b))
	require.NoError(t, l.RunFinished())
}

func TestListener_PerWorkerTracking(t *testing.T) {
	var buf bytes.Buffer
	l, _ := newTestListener(&buf, WithPolicy(PerWorker))
	interleaved(t, l)

	assert.Equal(t, []event{
		{KindReporterAttached, ""},
		{KindRootName, "demo"},
		{KindSuiteStarted, "A"},
		{KindTestStarted, "m1"},
		{KindSuiteStarted, "B"},
		{KindTestStarted, "m1"},
		{KindTestFinished, "m1"},
		{KindTestFinished, "m1"},
		{KindSuiteFinished, "A"},
		{KindSuiteFinished, "B"},
		{KindRunFinished, ""},
	}, events(readMessages(t, buf.String())))
}

func TestListener_SingleSlotInterleaves(t *testing.T) {
	var buf bytes.Buffer
	l, _ := newTestListener(&buf)
	interleaved(t, l)

	started := 0
	for _, e := range events(readMessages(t, buf.String())) {
		if e.kind == KindSuiteStarted {
			started++
		}
	}
	assert.Equal(t, 4, started)
}

func TestListener_ConcurrentCallbacks(t *testing.T) {
	var buf bytes.Buffer
	l, _ := newTestListener(&buf, WithPolicy(PerWorker))
	require.NoError(t, l.RunStarted("demo"))

	var wg sync.WaitGroup
	for w := 0; w < 8; w++ {
		wg.Add(1)
		go func(worker string) {
			defer wg.Done()
			for i := 0; i < 25; i++ {
				tc := Test{Suite: "Suite" + worker, Name: "m", Worker: worker}
				assert.NoError(t, l.TestStarted(tc))
				assert.NoError(t, l.TestFinished(tc))
			}
		}(string(rune('a' + w)))
	}
	wg.Wait()
	require.NoError(t, l.RunFinished())

	msgs := readMessages(t, buf.String())
	assert.Equal(t, Summary{Total: 200}, l.Summary())
	finished := 0
	for _, m := range msgs {
		if m.Kind == KindTestFinished {
			finished++
		}
	}
	assert.Equal(t, 200, finished)
}

type failingWriter struct{}

func (failingWriter) Write([]byte) (int, error) { return 0, errors.New("pipe closed") }

func TestSink_WriteErrorIsSticky(t *testing.T) {
	s := NewSink(failingWriter{})
	err := s.Send(NewMessage(KindTestStarted, AttrName, "m"))
	require.Error(t, err)
	assert.Contains(t, err.Error(), "pipe closed")
	assert.Equal(t, err, s.Send(NewMessage(KindTestFinished)))
	assert.Equal(t, err, s.Flush())

	l := NewListener(s)
	assert.Error(t, l.RunStarted("demo"))
}

func TestWithSink(t *testing.T) {
	var buf bytes.Buffer
	err := WithSink(&buf, func(s *Sink) error {
		return s.Send(NewMessage(KindRunFinished, AttrTotal, "0"))
	})
	require.NoError(t, err)
	assert.Equal(t, Encode(NewMessage(KindRunFinished, AttrTotal, "0"))+"\n", buf.String())

	sentinel := errors.New("callback failed")
	err = WithSink(&buf, func(*Sink) error { return sentinel })
	assert.ErrorIs(t, err, sentinel)
}

func TestReader_PassesOrdinaryOutputThrough(t *testing.T) {
	first := Encode(NewMessage(KindTestStarted, AttrName, "m1"))
	second := Encode(NewMessage(KindTestFinished, AttrName, "m1", AttrDuration, "3"))
	input := "hello from test\n" +
		first + "\n" +
		"partial " + FramePrefix + " never closed\n" +
		"no newline before frame" + second + "\r\n" +
		FramePrefix + "{broken" + FrameSuffix + "\n" +
		"stray " + FramePrefix + "junk " + first + " after\n" +
		"trailing text without newline"

	var passthrough bytes.Buffer
	msgs, err := NewReader(strings.NewReader(input), &passthrough).ReadAll()
	require.NoError(t, err)

	assert.Equal(t, []event{
		{KindTestStarted, "m1"},
		{KindTestFinished, "m1"},
		{KindTestStarted, "m1"},
	}, events(msgs))
	assert.Equal(t, "hello from test\n"+
		"partial "+FramePrefix+" never closed\n"+
		"no newline before frame\r\n"+
		FramePrefix+"{broken"+FrameSuffix+"\n"+
		"stray "+FramePrefix+"junk "+" after\n"+
		"trailing text without newline", passthrough.String())
}

func TestReader_KeepsLineBreakOfPrecedingOutput(t *testing.T) {
	frame := Encode(NewMessage(KindTestStarted, AttrName, "m1"))
	other := Encode(NewMessage(KindTestFinished, AttrName, "m1", AttrDuration, "3"))

	tests := []struct {
		name  string
		input string
		want  string
	}{
		{"output before frame", "progress: " + frame + "\nnext line\n", "progress: \nnext line\n"},
		{"output before crlf frame", "progress: " + frame + "\r\nnext\n", "progress: \r\nnext\n"},
		{"frames only", frame + other + "\nnext line\n", "next line\n"},
		{"output between frames", frame + "mid" + other + "\nnext\n", "mid\nnext\n"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			var passthrough bytes.Buffer
			msgs, err := NewReader(strings.NewReader(tt.input), &passthrough).ReadAll()
			require.NoError(t, err)
			assert.NotEmpty(t, msgs)
			assert.Equal(t, tt.want, passthrough.String())
		})
	}
}

func TestReader_EOF(t *testing.T) {
	rd := NewReader(strings.NewReader(""), nil)
	_, err := rd.Next()
	assert.ErrorIs(t, err, io.EOF)
	_, err = rd.Next()
	assert.ErrorIs(t, err, io.EOF)
}

func TestKind_IsKnown(t *testing.T) {
	assert.True(t, KindSuiteTreeNode.IsKnown())
	assert.False(t, Kind("testStdOut").IsKnown())
}
