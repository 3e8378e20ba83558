package rubocopast

import (
	"fmt"

	"github.com/liijunwei/rubocop-ast/ast"
	"github.com/liijunwei/rubocop-ast/parser"
)

// Token is the uniform representation of one lexed token: its kind, its
// source text, and its resolved position.
type Token struct {
	Kind  parser.TokenKind
	Text  string
	Range ast.SourceRange
}

// Line returns the 1-based line the token starts on.
func (t Token) Line() int {
	return t.Range.Start.Line
}

// Column returns the 1-based column the token starts on.
func (t Token) Column() int {
	return t.Range.Start.Col
}

// BeginPos returns the byte offset of the token's first character.
func (t Token) BeginPos() int {
	return t.Range.Start.Offset
}

// EndPos returns the byte offset just past the token's last character.
func (t Token) EndPos() int {
	return t.Range.End.Offset
}

func (t Token) String() string {
	return fmt.Sprintf("[[%d, %d], %s, %q]", t.Line(), t.Column(), rawName(t), t.Text)
}

func rawName(t Token) string {
	return parser.RawToken{Kind: t.Kind, Text: t.Text}.Name()
}
