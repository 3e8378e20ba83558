package reporter

import (
	"strings"
	"testing"

	"github.com/pmezard/go-difflib/difflib"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/liijunwei/rubocop-ast/ast"
)

func requireTextEqual(t *testing.T, want, got string) {
	t.Helper()
	if want == got {
		return
	}
	diff, err := difflib.GetUnifiedDiffString(difflib.UnifiedDiff{
		A:        difflib.SplitLines(want),
		B:        difflib.SplitLines(got),
		FromFile: "want",
		ToFile:   "got",
		Context:  2,
	})
	require.NoError(t, err)
	t.Fatalf("rendered output differs:\n%s", diff)
}

func TestRender(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  "unexpected token $end",
		Pos:      ast.SourcePos{Filename: "foo.rb", Line: 1, Col: 5},
	}
	assert.Equal(t, "foo.rb:1:5: error: unexpected token $end", Render(d))
}

func TestAnnotate(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  "unexpected character '@'",
		Pos:      ast.SourcePos{Filename: "foo.rb", Line: 1, Col: 5},
	}
	requireTextEqual(t, strings.Join([]string{
		"foo.rb:1:5: error: unexpected character '@'",
		"x = @",
		"    ^",
	}, "\n"), Annotate(d, "x = @"))
}

func TestAnnotateWideCharacters(t *testing.T) {
	// the caret must line up by display width, not rune count
	d := Diagnostic{
		Severity: SeverityError,
		Message:  "unexpected character '@'",
		Pos:      ast.SourcePos{Filename: "foo.rb", Line: 1, Col: 10},
	}
	line := `s = "日本" @`
	requireTextEqual(t, strings.Join([]string{
		"foo.rb:1:10: error: unexpected character '@'",
		line,
		strings.Repeat(" ", 11) + "^",
	}, "\n"), Annotate(d, line))
}

func TestAnnotateTabIndent(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityWarning,
		Message:  "ambiguous first argument",
		Pos:      ast.SourcePos{Filename: "foo.rb", Line: 2, Col: 2},
	}
	requireTextEqual(t, strings.Join([]string{
		"foo.rb:2:2: warning: ambiguous first argument",
		"\tfoo -1",
		" ^",
	}, "\n"), Annotate(d, "\tfoo -1"))
}

func TestAnnotateColumnPastLineEnd(t *testing.T) {
	d := Diagnostic{
		Severity: SeverityError,
		Message:  "unexpected token $end",
		Pos:      ast.SourcePos{Filename: "foo.rb", Line: 1, Col: 6},
	}
	requireTextEqual(t, strings.Join([]string{
		"foo.rb:1:6: error: unexpected token $end",
		"x = ",
		"    ^",
	}, "\n"), Annotate(d, "x = "))
}

func TestRenderAll(t *testing.T) {
	ds := []Diagnostic{
		{Severity: SeverityWarning, Message: "one", Pos: ast.SourcePos{Filename: "a.rb", Line: 1, Col: 1}},
		{Severity: SeverityError, Message: "two", Pos: ast.SourcePos{Filename: "a.rb", Line: 2, Col: 3}},
	}
	requireTextEqual(t, strings.Join([]string{
		"a.rb:1:1: warning: one",
		"a.rb:2:3: error: two",
	}, "\n"), RenderAll(ds))

	assert.Equal(t, "", RenderAll(nil))
}
