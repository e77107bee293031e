package sandbox

import (
	"fmt"
)

// Location is the source span a symbol was matched from. The json tags are
// the field names visible to action code.
type Location struct {
	StartOffset int `json:"startOffset"`
	EndOffset   int `json:"endOffset"`
	StartLine   int `json:"startLine"`
	EndLine     int `json:"endLine"`
	StartColumn int `json:"startColumn"`
	EndColumn   int `json:"endColumn"`
}

func (loc *Location) String() string {
	if loc == nil {
		return "<nil>"
	}
	return fmt.Sprintf(
		"%d:%d-%d:%d (%d, %d)",
		loc.StartLine,
		loc.StartColumn,
		loc.EndLine,
		loc.EndColumn,
		loc.StartOffset,
		loc.EndOffset)
}

// MergeLocation returns the span from start's start to end's end. When
// either side is nil, the other side is returned as is.
func MergeLocation(start *Location, end *Location) *Location {
	if start == nil {
		return end
	}
	if end == nil {
		return start
	}

	return &Location{
		StartOffset: start.StartOffset,
		EndOffset:   end.EndOffset,
		StartLine:   start.StartLine,
		EndLine:     end.EndLine,
		StartColumn: start.StartColumn,
		EndColumn:   end.EndColumn,
	}
}
