package reporter

import (
	"strings"

	"github.com/rivo/uniseg"
)

// Render formats a diagnostic on a single line, in the familiar
// "name:line:col: severity: message" shape.
func Render(d Diagnostic) string {
	return d.String()
}

// Annotate formats a diagnostic together with the offending source line and
// a caret marking the column. The caret is aligned by display width rather
// than byte or rune count, so lines with wide characters annotate correctly.
//
//	foo.rb:1:5: error: unexpected token $end
//	x = @
//	    ^
func Annotate(d Diagnostic, sourceLine string) string {
	var sb strings.Builder
	sb.WriteString(d.String())
	sb.WriteByte('\n')
	sb.WriteString(sourceLine)
	sb.WriteByte('\n')

	col := d.Pos.Col
	if col < 1 {
		col = 1
	}
	prefix := sourceLine
	if runes := []rune(sourceLine); col-1 < len(runes) {
		prefix = string(runes[:col-1])
	}
	// tabs render at unpredictable widths; normalize them before measuring
	prefix = strings.ReplaceAll(prefix, "\t", " ")
	sb.WriteString(strings.Repeat(" ", uniseg.StringWidth(prefix)))
	sb.WriteString("^")
	return sb.String()
}

// RenderAll formats every diagnostic, one per line.
func RenderAll(ds []Diagnostic) string {
	lines := make([]string, len(ds))
	for i, d := range ds {
		lines[i] = d.String()
	}
	return strings.Join(lines, "\n")
}
