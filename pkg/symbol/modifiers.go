package symbol

import "strings"

// Modifiers is a bit set of declaration modifiers.
type Modifiers uint16

const (
	ModPublic Modifiers = 1 << iota
	ModProtected
	ModPrivate
	ModStatic
	ModAbstract
	ModFinal
	ModDefault
)

var modifierNames = []struct {
	mod  Modifiers
	name string
}{
	{ModPublic, "public"},
	{ModProtected, "protected"},
	{ModPrivate, "private"},
	{ModStatic, "static"},
	{ModAbstract, "abstract"},
	{ModFinal, "final"},
	{ModDefault, "default"},
}

// Has reports whether all bits of m2 are set.
func (m Modifiers) Has(m2 Modifiers) bool {
	return m&m2 == m2
}

// ParseModifier maps a Java keyword to its modifier bit; unknown keywords yield 0.
func ParseModifier(keyword string) Modifiers {
	for _, n := range modifierNames {
		if n.name == keyword {
			return n.mod
		}
	}
	return 0
}

func (m Modifiers) String() string {
	var parts []string
	for _, n := range modifierNames {
		if m.Has(n.mod) {
			parts = append(parts, n.name)
		}
	}
	return strings.Join(parts, " ")
}
