package pretty

import (
	"fmt"
	"sort"
)

// Location is a 1-indexed line/column pair together with the 0-indexed
// rune cursor it was derived from.
type Location struct {
	Line   int32
	Column int32
	Cursor int
}

// Span is a half-open range between two Locations, used both for token
// source offsets and for diagnostics.
type Span struct {
	Start Location
	End   Location
}

func NewSpan(start, end Location) Span {
	return Span{Start: start, End: end}
}

func (s Span) String() string {
	if s.Start.Line == s.End.Line {
		if s.Start.Column == s.End.Column {
			return fmt.Sprintf("%d:%d", s.Start.Line, s.Start.Column)
		}
		return fmt.Sprintf("%d:%d..%d", s.Start.Line, s.Start.Column, s.End.Column)
	}
	return fmt.Sprintf("%d:%d..%d:%d", s.Start.Line, s.Start.Column, s.End.Line, s.End.Column)
}

// ---- Position index ----

// posIndex maps rune cursors within an input into Location values,
// binary-searching over recorded line-start offsets. Unlike a general
// text editor's position index, the engine only ever needs rune
// columns: the spec's Matchers and lexemes are already rune-addressed,
// so there is no separate UTF-16 unit tracking to do here.
type posIndex struct {
	runes     []rune
	lineStart []int
}

func newPosIndex(input []rune) *posIndex {
	// Always include line 1 starting at cursor 0.
	lineStart := make([]int, 1, 64)
	lineStart[0] = 0
	for i, r := range input {
		if r == '\n' {
			lineStart = append(lineStart, i+1)
		}
	}
	return &posIndex{runes: input, lineStart: lineStart}
}

func (pi *posIndex) LocationAt(cursor int) Location {
	if cursor < 0 {
		cursor = 0
	}
	if cursor > len(pi.runes) {
		cursor = len(pi.runes)
	}

	// Find first lineStart > cursor, then step back one.
	lineIdx := sort.Search(len(pi.lineStart), func(i int) bool {
		return pi.lineStart[i] > cursor
	}) - 1
	if lineIdx < 0 {
		lineIdx = 0
	}

	col := cursor - pi.lineStart[lineIdx] + 1
	return Location{Line: int32(lineIdx + 1), Column: int32(col), Cursor: cursor}
}

func (pi *posIndex) SpanAt(start, end int) Span {
	return Span{Start: pi.LocationAt(start), End: pi.LocationAt(end)}
}
