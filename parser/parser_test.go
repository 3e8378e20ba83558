package parser

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liijunwei/rubocop-ast/ast"
	"github.com/liijunwei/rubocop-ast/reporter"
	"github.com/liijunwei/rubocop-ast/source"
)

func parseString(t *testing.T, src string, version Version) (*ast.Node, []ast.Comment, []RawToken, *reporter.Handler) {
	t.Helper()
	buf, err := source.FromString(src)
	require.NoError(t, err)
	handler := reporter.NewHandler(nil)
	factory, err := Lookup(version)
	require.NoError(t, err)
	p := factory(handler, Options{})
	tree, comments, tokens := p.Tokenize(buf)
	return tree, comments, tokens, handler
}

func TestParseSexp(t *testing.T) {
	testCases := []struct {
		name string
		src  string
		sexp string
	}{
		{"local assignment", "x = 1\n", "(lvasgn x (int 1))"},
		{"ivar assignment", "@x = :sym\n", "(ivasgn @x (sym :sym))"},
		{"gvar assignment", "$x = 1.5\n", "(gvasgn $x (float 1.5))"},
		{"const assignment", "MAX = 10\n", "(casgn MAX (int 10))"},
		{"chained assignment", "x = y = 1\n", "(lvasgn x (lvasgn y (int 1)))"},
		{"string", `s = "hi"` + "\n", `(lvasgn s (str "hi"))`},
		{"negative literal", "x = -3\n", "(lvasgn x (int -3))"},
		{"binary send", "x = 1 + 2 * 3\n", "(lvasgn x (send + (int 1) (send * (int 2) (int 3))))"},
		{"comparison", "a = 1 < 2\n", "(lvasgn a (send < (int 1) (int 2)))"},
		{"bare call", "foo\n", "(send foo nil)"},
		{"call with parens", "foo(1, 2)\n", "(send foo nil (int 1) (int 2))"},
		{"command call", "puts \"hi\"\n", `(send puts nil (str "hi"))`},
		{"receiver call", "x.upcase\n", "(send upcase (send x nil))"},
		{"lvar after assignment", "x = 1\nx.upcase\n", "(begin (lvasgn x (int 1)) (send upcase (lvar x)))"},
		{"index", "x = a[1]\n", "(lvasgn x (send [] (send a nil) (int 1)))"},
		{"array", "a = [1, 2]\n", "(lvasgn a (array (int 1) (int 2)))"},
		{"hash labels", "h = { a: 1 }\n", "(lvasgn h (hash (pair (sym :a) (int 1))))"},
		{"hash rockets", "h = { :a => 1 }\n", "(lvasgn h (hash (pair (sym :a) (int 1))))"},
		{"and or", "a && b || c\n", "(or (and (send a nil) (send b nil)) (send c nil))"},
		{"not", "!ready\n", "(send ! (send ready nil))"},
		{"keyword literals", "x = true\ny = nil\n", "(begin (lvasgn x (true)) (lvasgn y (nil)))"},
		{"if", "if a\n  b\nend\n", "(if (send a nil) (send b nil) nil)"},
		{"if else", "if a\n  b\nelse\n  c\nend\n", "(if (send a nil) (send b nil) (send c nil))"},
		{"elsif", "if a\n  b\nelsif c\n  d\nend\n", "(if (send a nil) (send b nil) (if (send c nil) (send d nil) nil))"},
		{"unless", "unless a\n  b\nend\n", "(if (send a nil) nil (send b nil))"},
		{"if modifier", "b if a\n", "(if (send a nil) (send b nil) nil)"},
		{"unless modifier", "b unless a\n", "(if (send a nil) nil (send b nil))"},
		{"while", "while a\n  b\nend\n", "(while (send a nil) (send b nil))"},
		{"until modifier", "b until a\n", "(until (send a nil) (send b nil))"},
		{"def", "def foo(a, b)\n  a + b\nend\n", "(def foo (args (arg a) (arg b)) (send + (lvar a) (lvar b)))"},
		{"def no args", "def foo\n  1\nend\n", "(def foo (args) (int 1))"},
		{"return", "def f\n  return 1\nend\n", "(def f (args) (return (int 1)))"},
		{"class", "class Foo < Bar\n  def m\n  end\nend\n", "(class (const Foo nil) (const Bar nil) (def m (args) nil))"},
		{"module", "module Util\nend\n", "(module (const Util nil) nil)"},
		{"grouping", "x = (1 + 2) * 3\n", "(lvasgn x (send * (send + (int 1) (int 2)) (int 3)))"},
	}
	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			tree, _, _, handler := parseString(t, tc.src, Ruby34)
			require.NoError(t, handler.Err(), "diagnostics: %v", handler.Diagnostics())
			require.NotNil(t, tree)
			assert.Equal(t, tc.sexp, tree.String())
		})
	}
}

func TestParseEmpty(t *testing.T) {
	for _, src := range []string{"", "\n\n", "   \n\t\n", "# only a comment\n"} {
		tree, _, _, handler := parseString(t, src, Ruby34)
		assert.Nil(t, tree, "%q", src)
		assert.NoError(t, handler.Err(), "%q", src)
	}
}

func TestParseSyntaxErrorKeepsTokens(t *testing.T) {
	tree, _, tokens, handler := parseString(t, "x = \n", Ruby34)
	assert.Nil(t, tree)

	ds := handler.Diagnostics()
	require.NotEmpty(t, ds)
	assert.Equal(t, reporter.SeverityError, ds[0].Severity)
	assert.Contains(t, ds[0].Message, "unexpected token $end")

	// partial tokens survive the failed parse
	require.Len(t, tokens, 2)
	assert.Equal(t, "x", tokens[0].Text)
	assert.Equal(t, "=", tokens[1].Text)
}

func TestParseJunk(t *testing.T) {
	// inputs that must produce diagnostics, never a panic
	inputs := map[string]string{
		"lone dot":       ".\n",
		"unbalanced":     "def foo\n",
		"stray end":      "end\n",
		"stray paren":    ")\n",
		"stray operator": "* 2\n",
		"deep nesting":   "((((((1))))\n",
	}
	for name, src := range inputs {
		t.Run(name, func(t *testing.T) {
			tree, _, _, handler := parseString(t, src, Ruby34)
			assert.Nil(t, tree)
			assert.Error(t, handler.Err())
		})
	}
}

func TestParseNodeRanges(t *testing.T) {
	tree, _, _, handler := parseString(t, "x = 1 + 2\n", Ruby34)
	require.NoError(t, handler.Err())
	require.NotNil(t, tree)

	assert.Equal(t, 1, tree.Range.Start.Line)
	assert.Equal(t, 1, tree.Range.Start.Col)
	assert.Equal(t, 0, tree.Range.Start.Offset)
	assert.Equal(t, 9, tree.Range.End.Offset)

	value := tree.Child(0)
	require.NotNil(t, value)
	assert.Equal(t, ast.Send, value.Type)
	assert.Equal(t, 4, value.Range.Start.Offset)
	assert.Equal(t, 9, value.Range.End.Offset)
}

func TestParseEndlessDefVersionGate(t *testing.T) {
	src := "def foo = 1\n"

	tree, _, _, handler := parseString(t, src, Ruby34)
	require.NoError(t, handler.Err())
	require.NotNil(t, tree)
	assert.Equal(t, "(def foo (args) (int 1))", tree.String())

	tree, _, _, handler = parseString(t, src, Ruby27)
	assert.Nil(t, tree)
	require.Error(t, handler.Err())
	ds := handler.Diagnostics()
	require.NotEmpty(t, ds)
	assert.Contains(t, ds[0].Message, "endless method definition")
}

func TestParseComments(t *testing.T) {
	_, comments, tokens, handler := parseString(t, "# header\nx = 1 # trailing\n", Ruby34)
	require.NoError(t, handler.Err())
	require.Len(t, comments, 2)
	assert.Equal(t, 1, comments[0].Line())
	assert.Equal(t, 2, comments[1].Line())
	assert.Len(t, tokens, 3)
}

func TestParseFatalOptionShortCircuits(t *testing.T) {
	buf, err := source.FromString("* 2\ny = 1\n")
	require.NoError(t, err)
	handler := reporter.NewHandler(nil)
	factory, err := Lookup(Ruby34)
	require.NoError(t, err)
	p := factory(handler, Options{AllDiagnosticsFatal: true})
	tree, _, _ := p.Tokenize(buf)

	assert.Nil(t, tree)
	ds := handler.Diagnostics()
	require.Len(t, ds, 1)
	assert.Equal(t, reporter.SeverityFatal, ds[0].Severity)
}
