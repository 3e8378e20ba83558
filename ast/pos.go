package ast

import "fmt"

// SourcePos identifies a location in a source buffer. Lines and columns are
// 1-indexed; columns count characters, so a tab advances the column by one.
type SourcePos struct {
	Filename  string
	Line, Col int
	Offset    int
}

func (pos SourcePos) String() string {
	if pos.Line <= 0 || pos.Col <= 0 {
		return pos.Filename
	}
	return fmt.Sprintf("%s:%d:%d", pos.Filename, pos.Line, pos.Col)
}

// UnknownPos is a placeholder position for nodes that have no source
// location, such as trees synthesized outside of a parse.
func UnknownPos(filename string) SourcePos {
	return SourcePos{Filename: filename}
}

// SourceRange is a half-open span of source text: Start is the position of
// the first character, End the position just past the last one.
type SourceRange struct {
	Start, End SourcePos
}

func (r SourceRange) String() string {
	return fmt.Sprintf("%s-%d:%d", r.Start, r.End.Line, r.End.Col)
}

// Contains reports whether the given position falls inside the range.
func (r SourceRange) Contains(pos SourcePos) bool {
	return pos.Offset >= r.Start.Offset && pos.Offset < r.End.Offset
}

// ContainsRange reports whether other lies entirely inside the range.
func (r SourceRange) ContainsRange(other SourceRange) bool {
	return other.Start.Offset >= r.Start.Offset && other.End.Offset <= r.End.Offset
}
