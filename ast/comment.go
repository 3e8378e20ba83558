package ast

// Comment is a single comment occurrence in a source buffer. Text includes
// the leading "#" (or the =begin/=end fence for block comments) but not the
// trailing line terminator.
type Comment struct {
	Text  string
	Range SourceRange
}

// Line returns the 1-based line the comment starts on.
func (c Comment) Line() int {
	return c.Range.Start.Line
}

// Inline reports whether this is a "#" comment rather than an =begin/=end
// block comment.
func (c Comment) Inline() bool {
	return len(c.Text) > 0 && c.Text[0] == '#'
}
