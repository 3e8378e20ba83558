package parser

import (
	"io"
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/liijunwei/rubocop-ast/ast"
	"github.com/liijunwei/rubocop-ast/reporter"
	"github.com/liijunwei/rubocop-ast/source"
)

type runeReader struct {
	data string
	pos  int
	err  error
	mark int
}

func (rr *runeReader) readRune() (r rune, size int, err error) {
	if rr.err != nil {
		return 0, 0, rr.err
	}
	if rr.pos == len(rr.data) {
		rr.err = io.EOF
		return 0, 0, rr.err
	}
	r, sz := utf8.DecodeRuneInString(rr.data[rr.pos:])
	rr.pos += sz
	return r, sz, nil
}

func (rr *runeReader) peekRune() (rune, bool) {
	if rr.err != nil || rr.pos == len(rr.data) {
		return 0, false
	}
	r, _ := utf8.DecodeRuneInString(rr.data[rr.pos:])
	return r, true
}

func (rr *runeReader) offset() int {
	return rr.pos
}

func (rr *runeReader) unreadRune(sz int) {
	newPos := rr.pos - sz
	if newPos < rr.mark {
		panic("unread past mark")
	}
	rr.pos = newPos
	rr.err = nil
}

func (rr *runeReader) setMark() {
	rr.mark = rr.pos
}

func (rr *runeReader) getMark() string {
	return rr.data[rr.mark:rr.pos]
}

type lexer struct {
	input   *runeReader
	buf     *source.Buffer
	handler *reporter.Handler
	opts    Options

	tokens   []RawToken
	comments []ast.Comment

	// whether whitespace separated the previous token from the current one;
	// needed for the ambiguous-first-argument warning
	spaceSeen bool
	aborted   bool
}

func newLexer(buf *source.Buffer, handler *reporter.Handler, opts Options) *lexer {
	return &lexer{
		input:   &runeReader{data: buf.Source()},
		buf:     buf,
		handler: handler,
		opts:    opts,
	}
}

func (l *lexer) atLineStart() bool {
	return l.input.mark == 0 || l.input.data[l.input.mark-1] == '\n'
}

func (l *lexer) emit(kind TokenKind) {
	l.tokens = append(l.tokens, RawToken{
		Kind:        kind,
		Text:        l.input.getMark(),
		Start:       l.input.mark,
		End:         l.input.offset(),
		SpaceBefore: l.spaceSeen,
	})
	l.spaceSeen = false
}

func (l *lexer) prevKind() TokenKind {
	if len(l.tokens) == 0 {
		return KindInvalid
	}
	return l.tokens[len(l.tokens)-1].Kind
}

func (l *lexer) errorf(offset int, format string, args ...any) {
	var err error
	if l.opts.AllDiagnosticsFatal {
		err = l.handler.HandleFatalf(l.buf.SourcePos(offset), format, args...)
	} else {
		err = l.handler.HandleErrorf(l.buf.SourcePos(offset), format, args...)
	}
	if err != nil {
		l.aborted = true
	}
}

func (l *lexer) warnf(offset int, format string, args ...any) {
	if l.opts.AllDiagnosticsFatal {
		if err := l.handler.HandleFatalf(l.buf.SourcePos(offset), format, args...); err != nil {
			l.aborted = true
		}
		return
	}
	l.handler.HandleWarningf(l.buf.SourcePos(offset), format, args...)
}

// run lexes the whole buffer. It never fails: problems become diagnostics
// and lexing continues with the next character, unless a fatal diagnostic
// aborted the parse.
func (l *lexer) run() {
	for !l.aborted {
		l.input.setMark()
		c, _, err := l.input.readRune()
		if err != nil {
			return
		}

		switch {
		case c == '\n':
			l.emit(kindNewline)
			continue
		case c == ' ' || c == '\t' || c == '\r' || c == '\f' || c == '\v':
			l.spaceSeen = true
			continue
		}

		if c == '#' {
			l.readLineComment()
			continue
		}
		if c == '=' && l.atLineStart() && l.lineStartsDocument() {
			l.readDocumentComment()
			continue
		}

		if c == '_' || unicode.IsLetter(c) {
			if l.readIdentifier(c) {
				return // __END__ data section; lexing is over
			}
			continue
		}
		if c >= '0' && c <= '9' {
			l.readNumber()
			continue
		}

		switch c {
		case '"', '\'':
			l.readString(c)
		case '@':
			l.readPrefixedName(KindIvar)
		case '$':
			l.readPrefixedName(KindGvar)
		case ':':
			l.readSymbolOrColon()
		case '(':
			l.emit(KindLParen)
		case ')':
			l.emit(KindRParen)
		case '[':
			l.emit(KindLBracket)
		case ']':
			l.emit(KindRBracket)
		case '{':
			l.emit(KindLBrace)
		case '}':
			l.emit(KindRBrace)
		case ',':
			l.emit(KindComma)
		case '.':
			l.emit(KindDot)
		case ';':
			l.emit(KindSemi)
		default:
			if strings.ContainsRune("+-*/%<>=!&|^~?", c) {
				l.readOperator(c)
				continue
			}
			l.errorf(l.input.mark, "unexpected character %q", c)
		}
	}
}

// lineStartsDocument reports whether the current line (the mark is on its
// first column, at a '=') begins an =begin embedded document.
func (l *lexer) lineStartsDocument() bool {
	rest := l.input.data[l.input.mark:]
	return strings.HasPrefix(rest, "=begin") &&
		(len(rest) == len("=begin") || rest[len("=begin")] == ' ' || rest[len("=begin")] == '\t' || rest[len("=begin")] == '\n')
}

func (l *lexer) readLineComment() {
	for {
		c, ok := l.input.peekRune()
		if !ok || c == '\n' {
			break
		}
		_, _, _ = l.input.readRune()
	}
	l.comments = append(l.comments, ast.Comment{
		Text:  l.input.getMark(),
		Range: l.buf.SpanRange(l.input.mark, l.input.offset()),
	})
}

func (l *lexer) readDocumentComment() {
	// consume through the line beginning with =end, inclusive of its line
	// terminator; the whole block is one comment
	data := l.input.data
	i := l.input.mark
	first := true
	for {
		eol := strings.IndexByte(data[i:], '\n')
		if eol < 0 {
			if !first && strings.HasPrefix(data[i:], "=end") {
				l.input.pos = len(data)
				break
			}
			l.errorf(l.input.mark, "embedded document meets end of file")
			l.input.pos = len(data)
			break
		}
		line := data[i : i+eol]
		i += eol + 1
		if !first && strings.HasPrefix(line, "=end") {
			l.input.pos = i
			break
		}
		first = false
		if i == len(data) {
			l.errorf(l.input.mark, "embedded document meets end of file")
			l.input.pos = len(data)
			break
		}
	}
	l.input.err = nil
	end := l.input.offset()
	text := l.input.getMark()
	if strings.HasSuffix(text, "\n") {
		// the closing line terminator is not part of the comment
		text = text[:len(text)-1]
		end--
	}
	l.comments = append(l.comments, ast.Comment{
		Text:  text,
		Range: l.buf.SpanRange(l.input.mark, end),
	})
}

// readIdentifier scans the rest of an identifier or keyword. It returns
// true when the token is a bare __END__ line, which terminates lexing
// entirely: everything after it is the data section, not program text.
func (l *lexer) readIdentifier(first rune) bool {
	for {
		c, ok := l.input.peekRune()
		if !ok {
			break
		}
		if c == '_' || c == '?' || c == '!' || unicode.IsLetter(c) || unicode.IsDigit(c) {
			_, _, _ = l.input.readRune()
			if c == '?' || c == '!' {
				break
			}
			continue
		}
		break
	}
	text := l.input.getMark()

	if text == "__END__" && l.atLineStart() {
		if c, ok := l.input.peekRune(); !ok || c == '\n' {
			return true
		}
	}

	switch {
	case isKeyword(text):
		l.emit(KindKeyword)
	case unicode.IsUpper(first):
		l.emit(KindConst)
	default:
		l.emit(KindIdent)
	}
	return false
}

func isKeyword(s string) bool {
	_, ok := keywords[s]
	return ok
}

func (l *lexer) readNumber() {
	sawDot := false
	sawExp := false
	for {
		c, ok := l.input.peekRune()
		if !ok {
			break
		}
		switch {
		case c >= '0' && c <= '9' || c == '_':
			_, _, _ = l.input.readRune()
		case c == '.' && !sawDot && !sawExp:
			// only part of the number if a digit follows; otherwise it is
			// a method call like 1.to_s
			_, sz, _ := l.input.readRune()
			if n, ok := l.input.peekRune(); ok && n >= '0' && n <= '9' {
				sawDot = true
				continue
			}
			l.input.unreadRune(sz)
			goto done
		case (c == 'e' || c == 'E') && !sawExp:
			_, sz, _ := l.input.readRune()
			sawExp = true
			if n, ok := l.input.peekRune(); ok && (n == '+' || n == '-') {
				_, _, _ = l.input.readRune()
			}
			if n, ok := l.input.peekRune(); !ok || n < '0' || n > '9' {
				l.input.unreadRune(sz)
				sawExp = false
				goto done
			}
		default:
			goto done
		}
	}
done:
	text := l.input.getMark()
	if strings.HasSuffix(text, "_") {
		l.errorf(l.input.mark, "trailing `_' in number")
	}
	if sawDot || sawExp {
		l.emit(KindFloat)
		return
	}
	l.emit(KindInt)
}

func (l *lexer) readString(quote rune) {
	start := l.input.mark
	for {
		c, _, err := l.input.readRune()
		if err != nil || c == '\n' {
			if c == '\n' {
				l.input.unreadRune(1)
			}
			l.errorf(start, "unterminated string meets end of file")
			l.emit(KindString)
			return
		}
		if c == '\\' {
			// escape consumes the next character blindly; its meaning is a
			// concern for consumers of the token text
			_, _, _ = l.input.readRune()
			continue
		}
		if c == quote {
			l.emit(KindString)
			return
		}
	}
}

func (l *lexer) readPrefixedName(kind TokenKind) {
	c, ok := l.input.peekRune()
	if !ok || !(c == '_' || unicode.IsLetter(c)) {
		l.errorf(l.input.mark, "unexpected character %q", l.input.getMark())
		return
	}
	for {
		c, ok := l.input.peekRune()
		if !ok || !(c == '_' || unicode.IsLetter(c) || unicode.IsDigit(c)) {
			break
		}
		_, _, _ = l.input.readRune()
	}
	l.emit(kind)
}

func (l *lexer) readSymbolOrColon() {
	if c, ok := l.input.peekRune(); ok && c == ':' {
		_, _, _ = l.input.readRune()
		l.emit(KindOp) // "::"
		return
	}
	c, ok := l.input.peekRune()
	if !ok || !(c == '_' || unicode.IsLetter(c)) {
		l.emit(KindOp) // bare ":"
		return
	}
	for {
		c, ok := l.input.peekRune()
		if !ok || !(c == '_' || c == '?' || c == '!' || unicode.IsLetter(c) || unicode.IsDigit(c)) {
			break
		}
		_, _, _ = l.input.readRune()
		if c == '?' || c == '!' {
			break
		}
	}
	l.emit(KindSymbol)
}

var multiCharOps = []string{
	"**", "==", "!=", "<=>", "<=", ">=", "=>", "=~", "&&", "||", "<<", ">>",
	"+=", "-=", "*=", "/=", "%=", "||=", "&&=",
}

func (l *lexer) readOperator(first rune) {
	spaceBefore := l.spaceSeen

	// longest match wins; the reader is already one rune past the mark
	rest := l.input.data[l.input.mark:]
	best := string(first)
	for _, op := range multiCharOps {
		if strings.HasPrefix(rest, op) && len(op) > len(best) {
			best = op
		}
	}
	l.input.pos = l.input.mark + len(best)

	if (first == '-' || first == '+') && len(best) == 1 {
		l.checkAmbiguousArgument(first, spaceBefore)
	}
	l.emit(KindOp)
}

// checkAmbiguousArgument mirrors the engine's classic warning for input like
// `foo -1`, where the sign could open either a unary literal argument or a
// binary operation.
func (l *lexer) checkAmbiguousArgument(op rune, spaceBefore bool) {
	if !spaceBefore || l.prevKind() != KindIdent {
		return
	}
	next, ok := l.input.peekRune()
	if !ok || next < '0' || next > '9' {
		return
	}
	l.warnf(l.input.mark,
		"ambiguous first argument; put parentheses or a space even after `%c' operator", op)
}
