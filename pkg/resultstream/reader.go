package resultstream

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"strings"

	"github.com/tidwall/gjson"
)

// ErrMalformedFrame is returned by Decode for a frame whose payload is not a message.
var ErrMalformedFrame = errors.New("resultstream: malformed frame")

// Decode parses one framed message as produced by Encode.
func Decode(frame string) (Message, error) {
	payload, ok := strings.CutPrefix(frame, FramePrefix)
	if ok {
		payload, ok = strings.CutSuffix(payload, FrameSuffix)
	}
	if !ok {
		return Message{}, fmt.Errorf("%w: missing delimiters", ErrMalformedFrame)
	}
	if !gjson.Valid(payload) {
		return Message{}, fmt.Errorf("%w: invalid payload", ErrMalformedFrame)
	}

	name := gjson.Get(payload, "name")
	if name.Type != gjson.String {
		return Message{}, fmt.Errorf("%w: missing name", ErrMalformedFrame)
	}
	m := Message{Kind: Kind(name.String())}

	attrs := gjson.Get(payload, "attributes")
	if attrs.Exists() && !attrs.IsObject() {
		return Message{}, fmt.Errorf("%w: attributes is not an object", ErrMalformedFrame)
	}
	attrs.ForEach(func(key, value gjson.Result) bool {
		m.Attributes = append(m.Attributes, Attribute{Name: key.String(), Value: value.String()})
		return true
	})
	return m, nil
}

// Reader extracts messages from a test process output stream. Text outside frames,
// including frames that fail to decode, is copied unchanged to the pass-through writer.
type Reader struct {
	r       *bufio.Reader
	out     io.Writer
	pending []Message
	err     error
}

// NewReader reads from r, passing ordinary output to passthrough. A nil passthrough
// discards it.
func NewReader(r io.Reader, passthrough io.Writer) *Reader {
	if passthrough == nil {
		passthrough = io.Discard
	}
	return &Reader{r: bufio.NewReader(r), out: passthrough}
}

// Next returns the next message, or io.EOF once the input is exhausted.
func (rd *Reader) Next() (Message, error) {
	for len(rd.pending) == 0 {
		if rd.err != nil {
			return Message{}, rd.err
		}
		line, err := rd.r.ReadString('\n')
		if line != "" {
			if perr := rd.scanLine(line); perr != nil {
				rd.err = perr
				continue
			}
		}
		if err != nil {
			rd.err = err
		}
	}
	m := rd.pending[0]
	rd.pending = rd.pending[1:]
	return m, nil
}

// scanLine queues the messages framed in line and passes the rest through. The line
// terminator following a frame belongs to the frame only when no ordinary output shares
// the line.
func (rd *Reader) scanLine(line string) error {
	rest := line
	framesOnly := true
	for {
		closing := strings.Index(rest, FrameSuffix)
		if closing < 0 {
			break
		}
		end := closing + len(FrameSuffix)
		// Payloads never contain the prefix, so the frame starts at the last one.
		start := strings.LastIndex(rest[:closing], FramePrefix)
		if start < 0 {
			if err := rd.pass(rest[:end]); err != nil {
				return err
			}
			framesOnly = false
			rest = rest[end:]
			continue
		}

		m, err := Decode(rest[start:end])
		if err != nil {
			if werr := rd.pass(rest[:end]); werr != nil {
				return werr
			}
			framesOnly = false
			rest = rest[end:]
			continue
		}
		if werr := rd.pass(rest[:start]); werr != nil {
			return werr
		}
		if start > 0 {
			framesOnly = false
		}
		rd.pending = append(rd.pending, m)
		rest = rest[end:]
		if framesOnly && (rest == "\n" || rest == "\r\n") {
			return nil
		}
	}
	return rd.pass(rest)
}

func (rd *Reader) pass(s string) error {
	if s == "" {
		return nil
	}
	if _, err := io.WriteString(rd.out, s); err != nil {
		return fmt.Errorf("pass through output: %w", err)
	}
	return nil
}

// ReadAll collects every remaining message.
func (rd *Reader) ReadAll() ([]Message, error) {
	var out []Message
	for {
		m, err := rd.Next()
		if errors.Is(err, io.EOF) {
			return out, nil
		}
		if err != nil {
			return out, err
		}
		out = append(out, m)
	}
}
