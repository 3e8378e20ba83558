package reporter

import (
	"fmt"

	"github.com/liijunwei/rubocop-ast/ast"
)

// Severity indicates how bad a diagnostic is. The parser engine emits
// warnings for suspicious-but-legal constructs and errors for actual
// syntax problems. Fatal diagnostics abort the parse immediately.
type Severity int

const (
	SeverityWarning Severity = iota + 1
	SeverityError
	SeverityFatal
)

func (s Severity) String() string {
	switch s {
	case SeverityWarning:
		return "warning"
	case SeverityError:
		return "error"
	case SeverityFatal:
		return "fatal"
	default:
		return fmt.Sprintf("severity(%d)", int(s))
	}
}

// Diagnostic is a single message produced while parsing a source buffer.
// Diagnostics are values: once handed to a Handler they are never mutated.
type Diagnostic struct {
	Severity Severity
	Message  string
	Pos      ast.SourcePos
}

func (d Diagnostic) String() string {
	return fmt.Sprintf("%s: %s: %s", d.Pos, d.Severity, d.Message)
}
