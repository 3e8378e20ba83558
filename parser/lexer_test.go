package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liijunwei/rubocop-ast/reporter"
	"github.com/liijunwei/rubocop-ast/source"
)

func lexString(t *testing.T, src string, opts Options) (*lexer, *reporter.Handler) {
	t.Helper()
	buf, err := source.FromString(src)
	require.NoError(t, err)
	handler := reporter.NewHandler(nil)
	l := newLexer(buf, handler, opts)
	l.run()
	return l, handler
}

func significant(toks []RawToken) []RawToken {
	var out []RawToken
	for _, tok := range toks {
		if tok.Kind != kindNewline {
			out = append(out, tok)
		}
	}
	return out
}

func TestLexerKinds(t *testing.T) {
	l, handler := lexString(t, `x = 1
total_count = 2.5
@ivar = $gvar
CONST = :sym
s = "hello\n"
ready? && done!
a <=> b
h = { key: 1, "k" => 2 }
`, Options{})
	require.Empty(t, handler.Diagnostics())

	expected := []struct {
		kind TokenKind
		text string
	}{
		{KindIdent, "x"}, {KindOp, "="}, {KindInt, "1"},
		{KindIdent, "total_count"}, {KindOp, "="}, {KindFloat, "2.5"},
		{KindIvar, "@ivar"}, {KindOp, "="}, {KindGvar, "$gvar"},
		{KindConst, "CONST"}, {KindOp, "="}, {KindSymbol, ":sym"},
		{KindIdent, "s"}, {KindOp, "="}, {KindString, `"hello\n"`},
		{KindIdent, "ready?"}, {KindOp, "&&"}, {KindIdent, "done!"},
		{KindIdent, "a"}, {KindOp, "<=>"}, {KindIdent, "b"},
		{KindIdent, "h"}, {KindOp, "="}, {KindLBrace, "{"},
		{KindIdent, "key"}, {KindOp, ":"}, {KindInt, "1"}, {KindComma, ","},
		{KindString, `"k"`}, {KindOp, "=>"}, {KindInt, "2"}, {KindRBrace, "}"},
	}

	toks := significant(l.tokens)
	require.Len(t, toks, len(expected))
	for i, want := range expected {
		assert.Equal(t, want.kind, toks[i].Kind, "token %d kind (%q)", i, toks[i].Text)
		assert.Equal(t, want.text, toks[i].Text, "token %d text", i)
	}
}

func TestLexerKeywords(t *testing.T) {
	l, handler := lexString(t, "def if end true nil\n", Options{})
	require.Empty(t, handler.Diagnostics())
	for _, tok := range significant(l.tokens) {
		assert.Equal(t, KindKeyword, tok.Kind, "%q", tok.Text)
	}
}

func TestLexerComments(t *testing.T) {
	l, handler := lexString(t, `# leading comment
x = 1 # trailing comment
=begin
block body
=end
y = 2
`, Options{})
	require.Empty(t, handler.Diagnostics())

	require.Len(t, l.comments, 3)
	assert.Equal(t, "# leading comment", l.comments[0].Text)
	assert.Equal(t, 1, l.comments[0].Line())
	assert.Equal(t, "# trailing comment", l.comments[1].Text)
	assert.Equal(t, 2, l.comments[1].Line())
	assert.Equal(t, "=begin\nblock body\n=end", l.comments[2].Text)
	assert.Equal(t, 3, l.comments[2].Line())
	assert.False(t, l.comments[2].Inline())

	// comments are not tokens
	assert.Len(t, significant(l.tokens), 6)
}

func TestLexerEndSentinelStopsLexing(t *testing.T) {
	l, handler := lexString(t, "x = 1\n__END__\nthis is ! not # ruby\n", Options{})
	require.Empty(t, handler.Diagnostics())

	toks := significant(l.tokens)
	require.Len(t, toks, 3)
	assert.Equal(t, "1", toks[len(toks)-1].Text)
	assert.Empty(t, l.comments)
}

func TestLexerEndSentinelMidLineIsPlainIdent(t *testing.T) {
	l, handler := lexString(t, "x = __END__\n", Options{})
	require.Empty(t, handler.Diagnostics())

	toks := significant(l.tokens)
	require.Len(t, toks, 3)
	assert.Equal(t, KindIdent, toks[2].Kind)
	assert.Equal(t, "__END__", toks[2].Text)
}

func TestLexerUnterminatedString(t *testing.T) {
	l, handler := lexString(t, "s = \"oops\nx = 1\n", Options{})
	ds := handler.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, reporter.SeverityError, ds[0].Severity)
	assert.Contains(t, ds[0].Message, "unterminated string")

	// lexing continues after the bad string
	toks := significant(l.tokens)
	assert.Equal(t, "1", toks[len(toks)-1].Text)
}

func TestLexerUnexpectedCharacter(t *testing.T) {
	l, handler := lexString(t, "x = 1 ` y = 2\n", Options{})
	ds := handler.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, reporter.SeverityError, ds[0].Severity)
	assert.Contains(t, ds[0].Message, "unexpected character")

	// partial results survive the bad character
	assert.NotEmpty(t, significant(l.tokens))
}

func TestLexerAmbiguousArgumentWarning(t *testing.T) {
	_, handler := lexString(t, "foo -1\n", Options{})
	ds := handler.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, reporter.SeverityWarning, ds[0].Severity)
	assert.Contains(t, ds[0].Message, "ambiguous first argument")

	// a space on both sides is an ordinary binary minus
	_, handler = lexString(t, "foo - 1\n", Options{})
	assert.Empty(t, handler.Diagnostics())

	// no warning when the receiver is absent
	_, handler = lexString(t, "-1\n", Options{})
	assert.Empty(t, handler.Diagnostics())
}

func TestLexerAllDiagnosticsFatal(t *testing.T) {
	l, handler := lexString(t, "foo -1\nbar\n", Options{AllDiagnosticsFatal: true})
	ds := handler.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, reporter.SeverityFatal, ds[0].Severity)
	assert.True(t, l.aborted)

	// lexing stopped at the escalated diagnostic
	toks := significant(l.tokens)
	require.NotEmpty(t, toks)
	assert.Equal(t, "foo", toks[0].Text)
}

func TestLexerEmbeddedDocumentAtEOF(t *testing.T) {
	_, handler := lexString(t, "=begin\nnever closed\n", Options{})
	ds := handler.Diagnostics()
	require.Len(t, ds, 1)
	assert.Contains(t, ds[0].Message, "embedded document")
}

func TestLexerSpans(t *testing.T) {
	l, handler := lexString(t, "abc = 42\n", Options{})
	require.Empty(t, handler.Diagnostics())

	toks := significant(l.tokens)
	require.Len(t, toks, 3)
	assert.Equal(t, 0, toks[0].Start)
	assert.Equal(t, 3, toks[0].End)
	assert.Equal(t, 4, toks[1].Start)
	assert.Equal(t, 6, toks[2].Start)
	assert.Equal(t, 8, toks[2].End)
}
