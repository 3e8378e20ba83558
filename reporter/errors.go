package reporter

import (
	"errors"
	"fmt"

	"github.com/liijunwei/rubocop-ast/ast"
)

// ErrInvalidSource is a sentinel error returned by Handler.Err in the event
// that error-severity diagnostics were reported but the handler's configured
// ErrorReporter kept returning nil (i.e. the caller asked to keep going).
var ErrInvalidSource = errors.New("parse failed: invalid ruby source")

// ErrorWithPos is an error about a source buffer that includes information
// about the location in the buffer that caused the error.
//
// The value of Error() will contain both the position and the underlying
// error. The value of Unwrap() will only be the underlying error.
type ErrorWithPos interface {
	error
	GetPosition() ast.SourcePos
	Unwrap() error
}

func Error(pos ast.SourcePos, err error) ErrorWithPos {
	return errorWithSourcePos{pos: pos, underlying: err}
}

func Errorf(pos ast.SourcePos, format string, args ...any) ErrorWithPos {
	return errorWithSourcePos{pos: pos, underlying: fmt.Errorf(format, args...)}
}

type errorWithSourcePos struct {
	underlying error
	pos        ast.SourcePos
}

func (e errorWithSourcePos) Error() string {
	return fmt.Sprintf("%s: %v", e.pos, e.underlying)
}

func (e errorWithSourcePos) GetPosition() ast.SourcePos {
	return e.pos
}

func (e errorWithSourcePos) Unwrap() error {
	return e.underlying
}

var _ ErrorWithPos = errorWithSourcePos{}
