package domain

// Location represents a range in a source file.
// Offset and Length are byte positions; lines are 1-based.
type Location struct {
	URI       string `json:"uri"`
	Offset    int    `json:"offset"`
	Length    int    `json:"length"`
	StartLine int    `json:"startLine"`
	EndLine   int    `json:"endLine"`
	StartCol  int    `json:"startCol,omitempty"`
	EndCol    int    `json:"endCol,omitempty"`
}

// IsZero reports whether the location carries no source URI.
func (l Location) IsZero() bool {
	return l.URI == ""
}
