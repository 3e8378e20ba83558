package rubocopast

import (
	"errors"
	"io/fs"
	"os"
	"sort"
	"strings"
	"sync"

	"github.com/tidwall/btree"

	"github.com/liijunwei/rubocop-ast/ast"
	"github.com/liijunwei/rubocop-ast/commentconfig"
	"github.com/liijunwei/rubocop-ast/parser"
	"github.com/liijunwei/rubocop-ast/reporter"
	"github.com/liijunwei/rubocop-ast/source"
)

// endOfFileSentinel separates program text from the trailing data section.
// Lines at or after it never reach the line array, provided it appears
// after the last token.
const endOfFileSentinel = "__END__"

// Option configures construction of a ProcessedSource.
type Option func(*options)

type options struct {
	parserOpts parser.Options
	reporter   reporter.Reporter
}

// WithParserOptions sets backend options, such as the escalate-all-
// diagnostics-to-fatal guard.
func WithParserOptions(po parser.Options) Option {
	return func(o *options) { o.parserOpts = po }
}

// WithReporter installs a custom diagnostic reporter. The default reporter
// accumulates everything and never aborts.
func WithReporter(rep reporter.Reporter) Option {
	return func(o *options) { o.reporter = rep }
}

// ProcessedSource is a parsed source unit: the buffer, the parse results,
// and memoized derived views. It is immutable after construction; every
// accessor is safe for concurrent readers.
type ProcessedSource struct {
	buffer      *source.Buffer
	rubyVersion parser.Version
	path        string

	tree        *ast.Node
	comments    []ast.Comment
	tokens      []Token
	diagnostics []reporter.Diagnostic
	parserError error

	linesOnce sync.Once
	lines     []string

	commentIndexOnce sync.Once
	commentIndex     *btree.Map[int, []ast.Comment]

	astCommentsOnce sync.Once
	astComments     map[*ast.Node][]ast.Comment

	commentConfigOnce sync.Once
	commentConfig     *commentconfig.Config
}

// NewProcessedSource parses the given raw source for the given Ruby
// version. The path names the buffer in positions and diagnostics; leave it
// empty for in-memory sources. An unknown version is a configuration error
// and fails construction; encoding and syntax problems never do.
func NewProcessedSource(raw []byte, version parser.Version, path string, opts ...Option) (*ProcessedSource, error) {
	var o options
	for _, opt := range opts {
		opt(&o)
	}

	factory, err := parser.Lookup(version)
	if err != nil {
		return nil, err
	}

	buf, encErr := source.NewBuffer(path, raw)
	ps := &ProcessedSource{
		buffer:      buf,
		rubyVersion: version,
		path:        path,
	}
	if encErr != nil {
		// malformed bytes for the declared encoding: captured, not raised;
		// the tree, tokens, and comments stay empty
		ps.parserError = encErr
		return ps, nil
	}

	handler := reporter.NewHandler(o.reporter)
	backend := factory(handler, o.parserOpts)
	tree, comments, rawTokens := backend.Tokenize(buf)

	ps.tree = tree
	ps.comments = comments
	ps.tokens = make([]Token, len(rawTokens))
	for i, rt := range rawTokens {
		ps.tokens[i] = Token{
			Kind:  rt.Kind,
			Text:  rt.Text,
			Range: buf.SpanRange(rt.Start, rt.End),
		}
	}
	sort.SliceStable(ps.tokens, func(i, j int) bool {
		return ps.tokens[i].BeginPos() < ps.tokens[j].BeginPos()
	})
	ps.diagnostics = handler.Diagnostics()
	return ps, nil
}

// NewProcessedSourceFromString parses in-memory source text, naming the
// buffer with the conventional "(string)" sentinel.
func NewProcessedSourceFromString(src string, version parser.Version, opts ...Option) (*ProcessedSource, error) {
	return NewProcessedSource([]byte(src), version, "", opts...)
}

// NewProcessedSourceFromFile reads and parses the file at path. A missing
// file surfaces as *FileNotFoundError; other I/O errors pass through.
func NewProcessedSourceFromFile(path string, version parser.Version, opts ...Option) (*ProcessedSource, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, fs.ErrNotExist) {
			return nil, &FileNotFoundError{Path: path}
		}
		return nil, err
	}
	return NewProcessedSource(raw, version, path, opts...)
}

func (ps *ProcessedSource) Buffer() *source.Buffer      { return ps.buffer }
func (ps *ProcessedSource) RubyVersion() parser.Version { return ps.rubyVersion }

// Path returns the file path the source came from, or "" for in-memory
// sources.
func (ps *ProcessedSource) Path() string { return ps.path }

// RawSource returns the raw pre-normalization bytes.
func (ps *ProcessedSource) RawSource() []byte { return ps.buffer.Raw() }

// Source returns the normalized source text.
func (ps *ProcessedSource) Source() string { return ps.buffer.Source() }

// AST returns the root of the syntax tree, or nil if parsing produced no
// tree (fully invalid syntax, or empty / comment-only input).
func (ps *ProcessedSource) AST() *ast.Node { return ps.tree }

// Comments returns the comment stream in source order.
func (ps *ProcessedSource) Comments() []ast.Comment { return ps.comments }

// Tokens returns the token stream sorted by begin position.
func (ps *ProcessedSource) Tokens() []Token { return ps.tokens }

// Diagnostics returns everything the backend reported, warnings included,
// in order of receipt.
func (ps *ProcessedSource) Diagnostics() []reporter.Diagnostic { return ps.diagnostics }

// ParserError returns the terminal parser failure, if any. Its presence
// means the parse never ran to completion: the tree, tokens, and comments
// are empty.
func (ps *ProcessedSource) ParserError() error { return ps.parserError }

// Checksum returns the hex-encoded SHA-1 of the raw source bytes. Stable
// for identical raw bytes regardless of parse outcome.
func (ps *ProcessedSource) Checksum() string { return ps.buffer.Checksum() }

// ValidSyntax reports whether the source parsed cleanly: no terminal parser
// failure and no diagnostic of error or fatal severity. Warnings alone do
// not invalidate the syntax.
func (ps *ProcessedSource) ValidSyntax() bool {
	if ps.parserError != nil {
		return false
	}
	for _, d := range ps.diagnostics {
		if d.Severity == reporter.SeverityError || d.Severity == reporter.SeverityFatal {
			return false
		}
	}
	return true
}

// Blank reports whether no tree was produced.
func (ps *ProcessedSource) Blank() bool { return ps.tree == nil }

// Lines returns the line array: one entry per physical line, terminators
// stripped, truncated at a trailing __END__ sentinel when it appears after
// the last token's line. With no tokens at all, any sentinel line
// truncates.
func (ps *ProcessedSource) Lines() []string {
	ps.linesOnce.Do(func() {
		all := ps.buffer.SourceLines()
		lastTokenLine := 0
		if n := len(ps.tokens); n > 0 {
			lastTokenLine = ps.tokens[n-1].Line()
		}
		for i, line := range all {
			if i >= lastTokenLine && line == endOfFileSentinel {
				all = all[:i]
				break
			}
		}
		ps.lines = all
	})
	return ps.lines
}

// Line returns the 1-based line, or "" when out of range. It never panics;
// downstream code probes lines it is not sure exist.
func (ps *ProcessedSource) Line(n int) string {
	lines := ps.Lines()
	if n < 1 || n > len(lines) {
		return ""
	}
	return lines[n-1]
}

// StartWith reports whether the first line exists and starts with the
// given prefix.
func (ps *ProcessedSource) StartWith(prefix string) bool {
	lines := ps.Lines()
	return len(lines) > 0 && strings.HasPrefix(lines[0], prefix)
}

// LineIndentation returns the character length of the leading whitespace
// run of the given 1-based line; 0 when the line is absent or flush left.
// A tab counts as one character.
func (ps *ProcessedSource) LineIndentation(n int) int {
	line := ps.Line(n)
	trimmed := strings.TrimLeft(line, " \t\f\v")
	return len([]rune(line)) - len([]rune(trimmed))
}

// PrecedingLine returns the line immediately before the token's line; ok is
// false when there is none.
func (ps *ProcessedSource) PrecedingLine(tok Token) (string, bool) {
	n := tok.Line() - 1
	if n < 1 {
		return "", false
	}
	if n > len(ps.Lines()) {
		return "", false
	}
	return ps.Lines()[n-1], true
}

// FollowingLine returns the line immediately after the token's line; ok is
// false when there is none.
func (ps *ProcessedSource) FollowingLine(tok Token) (string, bool) {
	n := tok.Line() + 1
	if n > len(ps.Lines()) {
		return "", false
	}
	return ps.Lines()[n-1], true
}

func (ps *ProcessedSource) lineComments() *btree.Map[int, []ast.Comment] {
	ps.commentIndexOnce.Do(func() {
		m := &btree.Map[int, []ast.Comment]{}
		for _, c := range ps.comments {
			cs, _ := m.Get(c.Line())
			m.Set(c.Line(), append(cs, c))
		}
		ps.commentIndex = m
	})
	return ps.commentIndex
}

// Commented reports whether some comment starts on the same line as the
// given position.
func (ps *ProcessedSource) Commented(pos ast.SourcePos) bool {
	_, ok := ps.lineComments().Get(pos.Line)
	return ok
}

// CommentsBeforeLine returns every comment whose line is at or before n,
// preserving source order.
func (ps *ProcessedSource) CommentsBeforeLine(n int) []ast.Comment {
	var out []ast.Comment
	ps.lineComments().Scan(func(line int, cs []ast.Comment) bool {
		if line > n {
			return false
		}
		out = append(out, cs...)
		return true
	})
	return out
}

// EachComment visits every comment in source order until the visitor
// returns false.
func (ps *ProcessedSource) EachComment(visit func(ast.Comment) bool) {
	for _, c := range ps.comments {
		if !visit(c) {
			return
		}
	}
}

// FindComment returns the first comment matching the predicate.
func (ps *ProcessedSource) FindComment(pred func(ast.Comment) bool) (ast.Comment, bool) {
	for _, c := range ps.comments {
		if pred(c) {
			return c, true
		}
	}
	return ast.Comment{}, false
}

// EachToken visits every token in begin-position order until the visitor
// returns false.
func (ps *ProcessedSource) EachToken(visit func(Token) bool) {
	for _, t := range ps.tokens {
		if !visit(t) {
			return
		}
	}
}

// FindToken returns the first token matching the predicate.
func (ps *ProcessedSource) FindToken(pred func(Token) bool) (Token, bool) {
	for _, t := range ps.tokens {
		if pred(t) {
			return t, true
		}
	}
	return Token{}, false
}

// ASTWithComments associates each comment with the innermost tree node
// whose range contains it. Nil when there is no tree or there are no
// comments. Comments outside every node (e.g. after the last statement) are
// not associated.
func (ps *ProcessedSource) ASTWithComments() map[*ast.Node][]ast.Comment {
	ps.astCommentsOnce.Do(func() {
		if ps.tree == nil || len(ps.comments) == 0 {
			return
		}
		assoc := map[*ast.Node][]ast.Comment{}
		for _, c := range ps.comments {
			if n := innermostContaining(ps.tree, c.Range.Start); n != nil {
				assoc[n] = append(assoc[n], c)
			}
		}
		ps.astComments = assoc
	})
	return ps.astComments
}

func innermostContaining(root *ast.Node, pos ast.SourcePos) *ast.Node {
	var found *ast.Node
	ast.Walk(root, func(n *ast.Node) bool {
		if !n.Range.Contains(pos) {
			return false
		}
		found = n
		return true
	})
	return found
}

// CommentConfig returns the interpreted inline directive comments for this
// source.
func (ps *ProcessedSource) CommentConfig() *commentconfig.Config {
	ps.commentConfigOnce.Do(func() {
		ps.commentConfig = commentconfig.New(ps.comments, ps.Lines())
	})
	return ps.commentConfig
}

// DisabledLineRanges returns the per-cop disabled line ranges derived from
// inline directive comments.
func (ps *ProcessedSource) DisabledLineRanges() map[string][]commentconfig.LineRange {
	return ps.CommentConfig().DisabledLineRanges()
}
