package resultstream

import (
	"strings"
	"unicode/utf8"
)

// Frame delimiters surrounding every encoded message.
const (
	FramePrefix = "@@<TestRunner-"
	FrameSuffix = "-TestRunner>"
)

// Placeholder replaces a value that cannot be encoded safely.
const Placeholder = "<unencodable value>"

const hexDigits = "0123456789abcdef"

// Encode returns the framed single-line form of m, without line terminator:
//
//	@@<TestRunner-{"name":"<kind>", "attributes":{"<key>":"<value>", ...}}-TestRunner>
func Encode(m Message) string {
	var b strings.Builder
	b.Grow(len(FramePrefix) + len(FrameSuffix) + 64)

	b.WriteString(FramePrefix)
	b.WriteString(`{"name":"`)
	writeEscaped(&b, string(m.Kind))
	b.WriteString(`", "attributes":{`)
	for i, a := range m.Attributes {
		if i > 0 {
			b.WriteString(", ")
		}
		b.WriteByte('"')
		writeEscaped(&b, a.Name)
		b.WriteString(`":"`)
		writeEscaped(&b, a.Value)
		b.WriteByte('"')
	}
	b.WriteString("}}")
	b.WriteString(FrameSuffix)
	return b.String()
}

// Escape returns s as the body of a JSON string literal in which no frame delimiter
// character occurs. Invalid UTF-8 yields the escaped Placeholder.
func Escape(s string) string {
	var b strings.Builder
	writeEscaped(&b, s)
	return b.String()
}

func writeEscaped(b *strings.Builder, s string) {
	if !utf8.ValidString(s) {
		s = Placeholder
	}
	for i := 0; i < len(s); i++ {
		c := s[i]
		switch c {
		case '"':
			b.WriteString(`\"`)
		case '\\':
			b.WriteString(`\\`)
		case '\n':
			b.WriteString(`\n`)
		case '\r':
			b.WriteString(`\r`)
		case '\t':
			b.WriteString(`\t`)
		case '@', '<', '>':
			writeUnicode(b, c)
		default:
			if c < 0x20 || c == 0x7f {
				writeUnicode(b, c)
				continue
			}
			b.WriteByte(c)
		}
	}
}

func writeUnicode(b *strings.Builder, c byte) {
	b.WriteString(`\u00`)
	b.WriteByte(hexDigits[c>>4])
	b.WriteByte(hexDigits[c&0xf])
}
