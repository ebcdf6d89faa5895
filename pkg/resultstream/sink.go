package resultstream

import (
	"bufio"
	"fmt"
	"io"
	"sync"
)

// Sink writes encoded messages to an output stream. Each message is written and flushed as
// one complete line, so concurrent senders never interleave partial frames.
type Sink struct {
	mu  sync.Mutex
	w   *bufio.Writer
	err error
}

// NewSink wraps w.
func NewSink(w io.Writer) *Sink {
	return &Sink{w: bufio.NewWriter(w)}
}

// Send writes m followed by a newline. After the first write error every call returns it.
func (s *Sink) Send(m Message) error {
	line := Encode(m)

	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if _, err := s.w.WriteString(line); err != nil {
		s.err = fmt.Errorf("write %s message: %w", m.Kind, err)
		return s.err
	}
	if err := s.w.WriteByte('\n'); err != nil {
		s.err = fmt.Errorf("write %s message: %w", m.Kind, err)
		return s.err
	}
	if err := s.w.Flush(); err != nil {
		s.err = fmt.Errorf("flush %s message: %w", m.Kind, err)
		return s.err
	}
	return nil
}

// Flush writes any buffered data.
func (s *Sink) Flush() error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if s.err != nil {
		return s.err
	}
	if err := s.w.Flush(); err != nil {
		s.err = fmt.Errorf("flush: %w", err)
	}
	return s.err
}

// WithSink runs fn with a sink over w and flushes it when fn returns, panics included.
func WithSink(w io.Writer, fn func(*Sink) error) (err error) {
	s := NewSink(w)
	defer func() {
		if ferr := s.Flush(); err == nil {
			err = ferr
		}
	}()
	return fn(s)
}
