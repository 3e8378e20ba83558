package reporter

import (
	"fmt"
	"sync"

	"github.com/liijunwei/rubocop-ast/ast"
)

// ErrorReporter is responsible for reporting the given error- or
// fatal-severity diagnostic. If the reporter returns a non-nil error, the
// parse aborts with that error. If the reporter returns nil, parsing
// continues, allowing the parser to report as many syntax problems as it can
// find.
type ErrorReporter func(d Diagnostic) error

// WarningReporter is responsible for reporting the given warning-severity
// diagnostic. Warnings never interrupt the parse.
type WarningReporter func(d Diagnostic)

type Reporter interface {
	Error(Diagnostic) error
	Warning(Diagnostic)
}

func NewReporter(errs ErrorReporter, warnings WarningReporter) Reporter {
	return reporterFuncs{errs: errs, warnings: warnings}
}

type reporterFuncs struct {
	errs     ErrorReporter
	warnings WarningReporter
}

func (r reporterFuncs) Error(d Diagnostic) error {
	if r.errs == nil {
		// default reporter keeps going so that all diagnostics accumulate
		return nil
	}
	return r.errs(d)
}

func (r reporterFuncs) Warning(d Diagnostic) {
	if r.warnings != nil {
		r.warnings(d)
	}
}

// Handler is the sink that a parser engine routes every diagnostic through.
// It accumulates diagnostics in order of receipt and tracks whether the
// parse should abort. A Handler is used for a single parse and then
// inspected; it is never reused.
type Handler struct {
	reporter Reporter

	mu           sync.Mutex
	diagnostics  []Diagnostic
	errsReported bool
	err          error
}

func NewHandler(rep Reporter) *Handler {
	if rep == nil {
		rep = NewReporter(nil, nil)
	}
	return &Handler{reporter: rep}
}

// HandleDiagnostic records the given diagnostic. The returned error is
// non-nil if the parse must abort: always for fatal severity, and for error
// severity when the configured ErrorReporter says so.
func (h *Handler) HandleDiagnostic(d Diagnostic) error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.err != nil {
		return h.err
	}
	h.diagnostics = append(h.diagnostics, d)
	if d.Severity == SeverityWarning {
		h.reporter.Warning(d)
		return nil
	}
	h.errsReported = true
	err := h.reporter.Error(d)
	if err == nil && d.Severity == SeverityFatal {
		err = Error(d.Pos, ErrInvalidSource)
	}
	h.err = err
	return err
}

func (h *Handler) HandleWarningf(pos ast.SourcePos, format string, args ...any) {
	_ = h.HandleDiagnostic(Diagnostic{
		Severity: SeverityWarning,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

func (h *Handler) HandleErrorf(pos ast.SourcePos, format string, args ...any) error {
	return h.HandleDiagnostic(Diagnostic{
		Severity: SeverityError,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

func (h *Handler) HandleFatalf(pos ast.SourcePos, format string, args ...any) error {
	return h.HandleDiagnostic(Diagnostic{
		Severity: SeverityFatal,
		Message:  fmt.Sprintf(format, args...),
		Pos:      pos,
	})
}

// Diagnostics returns everything reported so far, in order of receipt.
// The returned slice is a copy; callers may retain it.
func (h *Handler) Diagnostics() []Diagnostic {
	h.mu.Lock()
	defer h.mu.Unlock()

	ds := make([]Diagnostic, len(h.diagnostics))
	copy(ds, h.diagnostics)
	return ds
}

// Err returns the terminal state of the handler: nil if no error-severity
// diagnostics were reported, ErrInvalidSource if some were but the reporter
// chose to keep going, or whatever error aborted the parse.
func (h *Handler) Err() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	if h.errsReported && h.err == nil {
		return ErrInvalidSource
	}
	return h.err
}

// ReporterError returns the error that aborted the parse, if any.
func (h *Handler) ReporterError() error {
	h.mu.Lock()
	defer h.mu.Unlock()

	return h.err
}
