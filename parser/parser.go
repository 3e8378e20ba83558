package parser

import (
	"strings"

	"github.com/liijunwei/rubocop-ast/ast"
	"github.com/liijunwei/rubocop-ast/reporter"
	"github.com/liijunwei/rubocop-ast/source"
)

// Parser is one backend instance: a dialect version bound to a diagnostic
// handler. Backends are built through the version registry (see Lookup) and
// used for a single buffer.
type Parser struct {
	version Version
	handler *reporter.Handler
	opts    Options
}

func newParser(version Version, handler *reporter.Handler, opts Options) *Parser {
	return &Parser{version: version, handler: handler, opts: opts}
}

func (p *Parser) Version() Version { return p.version }

// Tokenize lexes and parses the buffer. It never returns an error: syntax
// problems are routed to the handler as diagnostics, and the returned tree
// is nil when none could be produced. Comments and tokens always carry
// whatever the lexer recognized, so a failed parse still yields partial
// results.
func (p *Parser) Tokenize(buf *source.Buffer) (*ast.Node, []ast.Comment, []RawToken) {
	lx := newLexer(buf, p.handler, p.opts)
	lx.run()

	tokens := make([]RawToken, 0, len(lx.tokens))
	for _, tok := range lx.tokens {
		if tok.Kind != kindNewline {
			tokens = append(tokens, tok)
		}
	}

	var tree *ast.Node
	if !lx.aborted {
		tp := &treeParser{p: p, buf: buf, toks: lx.tokens}
		tp.pushScope()
		tree = tp.parseProgram()
	}
	return tree, lx.comments, tokens
}

// parseAbort unwinds the recursive descent after a syntax error. The error
// itself has already been handed to the diagnostic sink.
type parseAbort struct{}

type treeParser struct {
	p    *Parser
	buf  *source.Buffer
	toks []RawToken
	pos  int

	scopes []map[string]bool
}

func (t *treeParser) pushScope() {
	t.scopes = append(t.scopes, map[string]bool{})
}

func (t *treeParser) popScope() {
	t.scopes = t.scopes[:len(t.scopes)-1]
}

func (t *treeParser) declareLocal(name string) {
	t.scopes[len(t.scopes)-1][name] = true
}

func (t *treeParser) isLocal(name string) bool {
	return t.scopes[len(t.scopes)-1][name]
}

func (t *treeParser) cur() RawToken {
	if t.pos >= len(t.toks) {
		return RawToken{Kind: kindEOF, Start: len(t.buf.Source()), End: len(t.buf.Source())}
	}
	return t.toks[t.pos]
}

// peek returns the n-th token after the current one, skipping nothing.
func (t *treeParser) peek(n int) RawToken {
	if t.pos+n >= len(t.toks) {
		return RawToken{Kind: kindEOF, Start: len(t.buf.Source()), End: len(t.buf.Source())}
	}
	return t.toks[t.pos+n]
}

func (t *treeParser) advance() RawToken {
	tok := t.cur()
	if t.pos < len(t.toks) {
		t.pos++
	}
	return tok
}

func (t *treeParser) prevEnd() int {
	if t.pos == 0 {
		return 0
	}
	return t.toks[t.pos-1].End
}

func (t *treeParser) at(kind TokenKind) bool {
	return t.cur().Kind == kind
}

func (t *treeParser) atOp(text string) bool {
	tok := t.cur()
	return tok.Kind == KindOp && tok.Text == text
}

func (t *treeParser) atKeyword(text string) bool {
	tok := t.cur()
	return tok.Kind == KindKeyword && tok.Text == text
}

func (t *treeParser) atSeparator() bool {
	k := t.cur().Kind
	return k == kindNewline || k == KindSemi || k == kindEOF
}

func (t *treeParser) skipSeparators() {
	for t.cur().Kind == kindNewline || t.cur().Kind == KindSemi {
		t.advance()
	}
}

func (t *treeParser) skipNewlines() {
	for t.cur().Kind == kindNewline {
		t.advance()
	}
}

func (t *treeParser) syntaxErrorf(tok RawToken, format string, args ...any) {
	pos := t.buf.SourcePos(tok.Start)
	if t.p.opts.AllDiagnosticsFatal {
		_ = t.p.handler.HandleFatalf(pos, format, args...)
	} else {
		_ = t.p.handler.HandleErrorf(pos, format, args...)
	}
	panic(parseAbort{})
}

func (t *treeParser) unexpected(tok RawToken) {
	t.syntaxErrorf(tok, "unexpected token %s", tok.Name())
}

func (t *treeParser) expectKeyword(text string) RawToken {
	if !t.atKeyword(text) {
		t.unexpected(t.cur())
	}
	return t.advance()
}

func (t *treeParser) span(start int, n *ast.Node) *ast.Node {
	n.Range = t.buf.SpanRange(start, t.prevEnd())
	return n
}

// parseProgram parses the whole token stream. A single statement is the
// tree itself; multiple statements are wrapped in a begin node; zero
// statements mean there is no tree at all.
func (t *treeParser) parseProgram() (tree *ast.Node) {
	defer func() {
		if r := recover(); r != nil {
			if _, ok := r.(parseAbort); !ok {
				panic(r)
			}
			tree = nil
		}
	}()

	var stmts []*ast.Node
	t.skipSeparators()
	for !t.at(kindEOF) {
		stmts = append(stmts, t.parseStmt())
		if !t.atSeparator() {
			t.unexpected(t.cur())
		}
		t.skipSeparators()
	}

	switch len(stmts) {
	case 0:
		return nil
	case 1:
		return stmts[0]
	default:
		n := ast.NewNode(ast.Begin, "", stmts...)
		n.Range = ast.SourceRange{Start: stmts[0].Range.Start, End: stmts[len(stmts)-1].Range.End}
		return n
	}
}

// parseStmt parses an expression plus any trailing statement modifier
// (expr if cond, expr while cond, and friends).
func (t *treeParser) parseStmt() *ast.Node {
	start := t.cur().Start
	expr := t.parseExpr()

	for t.at(KindKeyword) {
		switch t.cur().Text {
		case "if":
			t.advance()
			cond := t.parseExpr()
			expr = t.span(start, ast.NewNode(ast.If, "", cond, expr, nil))
		case "unless":
			t.advance()
			cond := t.parseExpr()
			expr = t.span(start, ast.NewNode(ast.If, "", cond, nil, expr))
		case "while":
			t.advance()
			cond := t.parseExpr()
			expr = t.span(start, ast.NewNode(ast.While, "", cond, expr))
		case "until":
			t.advance()
			cond := t.parseExpr()
			expr = t.span(start, ast.NewNode(ast.Until, "", cond, expr))
		default:
			return expr
		}
	}
	return expr
}

func (t *treeParser) parseExpr() *ast.Node {
	return t.parseAssignment()
}

// parseAssignment handles name = value for local, instance, global, and
// constant targets. Assignment is right-associative.
func (t *treeParser) parseAssignment() *ast.Node {
	tok := t.cur()
	if t.peek(1).Kind == KindOp && t.peek(1).Text == "=" {
		var typ ast.NodeType
		switch tok.Kind {
		case KindIdent:
			typ = ast.Lvasgn
		case KindIvar:
			typ = ast.Ivasgn
		case KindGvar:
			typ = ast.Gvasgn
		case KindConst:
			typ = ast.Casgn
		}
		if typ != "" {
			start := tok.Start
			t.advance() // target
			t.advance() // =
			t.skipNewlines() // the value may continue on the next line
			value := t.parseAssignment()
			if typ == ast.Lvasgn {
				t.declareLocal(tok.Text)
			}
			return t.span(start, ast.NewNode(typ, tok.Text, value))
		}
	}
	return t.parseOr()
}

func (t *treeParser) parseOr() *ast.Node {
	start := t.cur().Start
	left := t.parseAnd()
	for t.atOp("||") || t.atKeyword("or") {
		t.advance()
		right := t.parseAnd()
		left = t.span(start, ast.NewNode(ast.Or, "", left, right))
	}
	return left
}

func (t *treeParser) parseAnd() *ast.Node {
	start := t.cur().Start
	left := t.parseNot()
	for t.atOp("&&") || t.atKeyword("and") {
		t.advance()
		right := t.parseNot()
		left = t.span(start, ast.NewNode(ast.And, "", left, right))
	}
	return left
}

func (t *treeParser) parseNot() *ast.Node {
	if t.atOp("!") || t.atKeyword("not") {
		start := t.cur().Start
		t.advance()
		operand := t.parseNot()
		return t.span(start, ast.NewNode(ast.Send, "!", operand))
	}
	return t.parseEquality()
}

func (t *treeParser) parseEquality() *ast.Node {
	start := t.cur().Start
	left := t.parseComparison()
	for t.atOp("==") || t.atOp("!=") || t.atOp("=~") || t.atOp("<=>") {
		op := t.advance().Text
		right := t.parseComparison()
		left = t.span(start, ast.NewNode(ast.Send, op, left, right))
	}
	return left
}

func (t *treeParser) parseComparison() *ast.Node {
	start := t.cur().Start
	left := t.parseAdditive()
	for t.atOp("<") || t.atOp(">") || t.atOp("<=") || t.atOp(">=") {
		op := t.advance().Text
		right := t.parseAdditive()
		left = t.span(start, ast.NewNode(ast.Send, op, left, right))
	}
	return left
}

func (t *treeParser) parseAdditive() *ast.Node {
	start := t.cur().Start
	left := t.parseMultiplicative()
	for t.atOp("+") || t.atOp("-") {
		op := t.advance().Text
		right := t.parseMultiplicative()
		left = t.span(start, ast.NewNode(ast.Send, op, left, right))
	}
	return left
}

func (t *treeParser) parseMultiplicative() *ast.Node {
	start := t.cur().Start
	left := t.parseUnary()
	for t.atOp("*") || t.atOp("/") || t.atOp("%") {
		op := t.advance().Text
		right := t.parseUnary()
		left = t.span(start, ast.NewNode(ast.Send, op, left, right))
	}
	return left
}

func (t *treeParser) parseUnary() *ast.Node {
	if t.atOp("-") || t.atOp("+") {
		op := t.advance()
		// a sign directly attached to a numeric literal folds into it
		if next := t.cur(); (next.Kind == KindInt || next.Kind == KindFloat) && next.Start == op.End {
			lit := t.advance()
			typ := ast.Int
			if lit.Kind == KindFloat {
				typ = ast.Float
			}
			text := lit.Text
			if op.Text == "-" {
				text = "-" + text
			}
			return t.span(op.Start, ast.NewNode(typ, text))
		}
		operand := t.parseUnary()
		return t.span(op.Start, ast.NewNode(ast.Send, op.Text+"@", operand))
	}
	return t.parsePower()
}

func (t *treeParser) parsePower() *ast.Node {
	start := t.cur().Start
	left := t.parsePostfix()
	if t.atOp("**") {
		t.advance()
		right := t.parseUnary() // right-associative
		return t.span(start, ast.NewNode(ast.Send, "**", left, right))
	}
	return left
}

func (t *treeParser) parsePostfix() *ast.Node {
	start := t.cur().Start
	n := t.parsePrimary()
	for {
		switch {
		case t.at(KindDot):
			t.advance()
			name := t.cur()
			if name.Kind != KindIdent && name.Kind != KindConst && name.Kind != KindKeyword {
				t.unexpected(name)
			}
			t.advance()
			var args []*ast.Node
			if t.at(KindLParen) && !t.cur().SpaceBefore {
				args = t.parseParenArgs()
			}
			n = t.span(start, ast.NewNode(ast.Send, name.Text, append([]*ast.Node{n}, args...)...))
		case t.at(KindLBracket) && !t.cur().SpaceBefore:
			t.advance()
			args := t.parseExprListUntil(KindRBracket)
			n = t.span(start, ast.NewNode(ast.Send, "[]", append([]*ast.Node{n}, args...)...))
		default:
			return n
		}
	}
}

func (t *treeParser) parseParenArgs() []*ast.Node {
	t.advance() // (
	t.skipSeparators()
	args := t.parseExprListUntil(KindRParen)
	return args
}

// parseExprListUntil parses a comma-separated expression list and consumes
// the terminator.
func (t *treeParser) parseExprListUntil(term TokenKind) []*ast.Node {
	var list []*ast.Node
	t.skipSeparators()
	for !t.at(term) {
		if t.at(kindEOF) {
			t.unexpected(t.cur())
		}
		list = append(list, t.parseExpr())
		t.skipSeparators()
		if t.at(KindComma) {
			t.advance()
			t.skipSeparators()
			continue
		}
		break
	}
	if !t.at(term) {
		t.unexpected(t.cur())
	}
	t.advance()
	return list
}

// startsArgument reports whether the current token can begin a paren-less
// command-call argument, as in `puts "hello"`.
func (t *treeParser) startsArgument() bool {
	tok := t.cur()
	switch tok.Kind {
	case KindInt, KindFloat, KindString, KindSymbol, KindIvar, KindGvar, KindConst, KindLBracket, KindLParen:
		return tok.SpaceBefore
	case KindIdent:
		return tok.SpaceBefore
	case KindKeyword:
		return tok.SpaceBefore && (tok.Text == "true" || tok.Text == "false" || tok.Text == "nil" || tok.Text == "self" || tok.Text == "not")
	case KindOp:
		// in `foo -1`, a sign stuck to a literal is an argument, not a binary op
		if (tok.Text == "-" || tok.Text == "+" || tok.Text == "!") && tok.SpaceBefore {
			next := t.peek(1)
			return !next.SpaceBefore && (next.Kind == KindInt || next.Kind == KindFloat ||
				next.Kind == KindIdent || next.Kind == KindIvar)
		}
		return false
	default:
		return false
	}
}

func (t *treeParser) parsePrimary() *ast.Node {
	tok := t.cur()
	start := tok.Start

	switch tok.Kind {
	case KindInt:
		t.advance()
		return t.span(start, ast.NewNode(ast.Int, tok.Text))
	case KindFloat:
		t.advance()
		return t.span(start, ast.NewNode(ast.Float, tok.Text))
	case KindString:
		t.advance()
		return t.span(start, ast.NewNode(ast.Str, stringValue(tok.Text)))
	case KindSymbol:
		t.advance()
		return t.span(start, ast.NewNode(ast.Sym, strings.TrimPrefix(tok.Text, ":")))
	case KindIvar:
		t.advance()
		return t.span(start, ast.NewNode(ast.Ivar, tok.Text))
	case KindGvar:
		t.advance()
		return t.span(start, ast.NewNode(ast.Gvar, tok.Text))
	case KindConst:
		t.advance()
		return t.span(start, ast.NewNode(ast.Const, tok.Text, nil))
	case KindIdent:
		t.advance()
		if t.at(KindLParen) && !t.cur().SpaceBefore {
			args := t.parseParenArgs()
			return t.span(start, ast.NewNode(ast.Send, tok.Text, append([]*ast.Node{nil}, args...)...))
		}
		if t.isLocal(tok.Text) {
			return t.span(start, ast.NewNode(ast.Lvar, tok.Text))
		}
		if t.startsArgument() {
			args := t.parseCommandArgs()
			return t.span(start, ast.NewNode(ast.Send, tok.Text, append([]*ast.Node{nil}, args...)...))
		}
		return t.span(start, ast.NewNode(ast.Send, tok.Text, []*ast.Node{nil}...))
	case KindLParen:
		t.advance()
		t.skipSeparators()
		inner := t.parseExpr()
		t.skipSeparators()
		if !t.at(KindRParen) {
			t.unexpected(t.cur())
		}
		t.advance()
		inner.Range = t.buf.SpanRange(start, t.prevEnd())
		return inner
	case KindLBracket:
		t.advance()
		elems := t.parseExprListUntil(KindRBracket)
		return t.span(start, ast.NewNode(ast.Array, "", elems...))
	case KindLBrace:
		return t.parseHash()
	case KindKeyword:
		return t.parseKeywordPrimary(tok)
	default:
		t.unexpected(tok)
		return nil
	}
}

func (t *treeParser) parseCommandArgs() []*ast.Node {
	var args []*ast.Node
	for {
		args = append(args, t.parseExpr())
		if t.at(KindComma) {
			t.advance()
			continue
		}
		return args
	}
}

func (t *treeParser) parseHash() *ast.Node {
	start := t.cur().Start
	t.advance() // {
	t.skipSeparators()
	var pairs []*ast.Node
	for !t.at(KindRBrace) {
		if t.at(kindEOF) {
			t.unexpected(t.cur())
		}
		pairs = append(pairs, t.parsePair())
		t.skipSeparators()
		if t.at(KindComma) {
			t.advance()
			t.skipSeparators()
			continue
		}
		break
	}
	if !t.at(KindRBrace) {
		t.unexpected(t.cur())
	}
	t.advance()
	return t.span(start, ast.NewNode(ast.Hash, "", pairs...))
}

func (t *treeParser) parsePair() *ast.Node {
	start := t.cur().Start
	// label form: name: value
	if t.at(KindIdent) && t.peek(1).Kind == KindOp && t.peek(1).Text == ":" {
		name := t.advance()
		t.advance() // :
		keyEnd := t.prevEnd()
		key := ast.NewNode(ast.Sym, name.Text)
		key.Range = t.buf.SpanRange(name.Start, keyEnd)
		value := t.parseExpr()
		return t.span(start, ast.NewNode(ast.Pair, "", key, value))
	}
	key := t.parseExpr()
	if !t.atOp("=>") {
		t.unexpected(t.cur())
	}
	t.advance()
	value := t.parseExpr()
	return t.span(start, ast.NewNode(ast.Pair, "", key, value))
}

func (t *treeParser) parseKeywordPrimary(tok RawToken) *ast.Node {
	start := tok.Start
	switch tok.Text {
	case "true":
		t.advance()
		return t.span(start, ast.NewNode(ast.True, ""))
	case "false":
		t.advance()
		return t.span(start, ast.NewNode(ast.False, ""))
	case "nil":
		t.advance()
		return t.span(start, ast.NewNode(ast.Nil, ""))
	case "self":
		t.advance()
		return t.span(start, ast.NewNode(ast.Self, ""))
	case "def":
		return t.parseDef()
	case "class":
		return t.parseClass()
	case "module":
		return t.parseModule()
	case "if", "unless":
		return t.parseIf(tok.Text == "unless")
	case "while", "until":
		return t.parseWhile(tok.Text == "until")
	case "return", "break", "next":
		return t.parseJump(tok)
	default:
		t.unexpected(tok)
		return nil
	}
}

func (t *treeParser) parseDef() *ast.Node {
	start := t.cur().Start
	t.expectKeyword("def")
	name := t.cur()
	if name.Kind != KindIdent {
		t.unexpected(name)
	}
	t.advance()

	t.pushScope()
	defer t.popScope()

	argsStart := t.prevEnd()
	var params []*ast.Node
	if t.at(KindLParen) && !t.cur().SpaceBefore {
		t.advance()
		for !t.at(KindRParen) {
			p := t.cur()
			if p.Kind != KindIdent {
				t.unexpected(p)
			}
			t.advance()
			arg := ast.NewNode(ast.Arg, p.Text)
			arg.Range = t.buf.SpanRange(p.Start, p.End)
			params = append(params, arg)
			t.declareLocal(p.Text)
			if t.at(KindComma) {
				t.advance()
				continue
			}
			break
		}
		if !t.at(KindRParen) {
			t.unexpected(t.cur())
		}
		t.advance()
	}
	argList := ast.NewNode(ast.Args, "", params...)
	argList.Range = t.buf.SpanRange(argsStart, t.prevEnd())

	// endless method definition: def name(args) = expr
	if t.atOp("=") {
		eq := t.cur()
		if t.p.version < Ruby30 {
			t.syntaxErrorf(eq, "endless method definition is not supported before Ruby 3.0")
		}
		t.advance()
		body := t.parseExpr()
		return t.span(start, ast.NewNode(ast.Def, name.Text, argList, body))
	}

	if !t.atSeparator() {
		t.unexpected(t.cur())
	}
	body := t.parseBodyUntil("end")
	t.expectKeyword("end")
	return t.span(start, ast.NewNode(ast.Def, name.Text, argList, body))
}

func (t *treeParser) parseClass() *ast.Node {
	start := t.cur().Start
	t.expectKeyword("class")
	name := t.cur()
	if name.Kind != KindConst {
		t.unexpected(name)
	}
	t.advance()
	constNode := ast.NewNode(ast.Const, name.Text, nil)
	constNode.Range = t.buf.SpanRange(name.Start, name.End)

	var super *ast.Node
	if t.atOp("<") {
		t.advance()
		super = t.parseExpr()
	}

	t.pushScope()
	defer t.popScope()
	body := t.parseBodyUntil("end")
	t.expectKeyword("end")
	return t.span(start, ast.NewNode(ast.Class, "", constNode, super, body))
}

func (t *treeParser) parseModule() *ast.Node {
	start := t.cur().Start
	t.expectKeyword("module")
	name := t.cur()
	if name.Kind != KindConst {
		t.unexpected(name)
	}
	t.advance()
	constNode := ast.NewNode(ast.Const, name.Text, nil)
	constNode.Range = t.buf.SpanRange(name.Start, name.End)

	t.pushScope()
	defer t.popScope()
	body := t.parseBodyUntil("end")
	t.expectKeyword("end")
	return t.span(start, ast.NewNode(ast.Module, "", constNode, body))
}

func (t *treeParser) parseIf(unless bool) *ast.Node {
	start := t.cur().Start
	t.advance() // if / unless / elsif
	cond := t.parseExpr()
	if t.atKeyword("then") {
		t.advance()
	}
	body := t.parseBodyUntil("elsif", "else", "end")

	var alt *ast.Node
	switch {
	case t.atKeyword("elsif"):
		alt = t.parseIf(false)
		if unless {
			return t.span(start, ast.NewNode(ast.If, "", cond, alt, body))
		}
		return t.span(start, ast.NewNode(ast.If, "", cond, body, alt))
	case t.atKeyword("else"):
		t.advance()
		alt = t.parseBodyUntil("end")
	}
	t.expectKeyword("end")
	if unless {
		return t.span(start, ast.NewNode(ast.If, "", cond, alt, body))
	}
	return t.span(start, ast.NewNode(ast.If, "", cond, body, alt))
}

func (t *treeParser) parseWhile(until bool) *ast.Node {
	start := t.cur().Start
	t.advance() // while / until
	cond := t.parseExpr()
	if t.atKeyword("do") {
		t.advance()
	}
	body := t.parseBodyUntil("end")
	t.expectKeyword("end")
	typ := ast.While
	if until {
		typ = ast.Until
	}
	return t.span(start, ast.NewNode(typ, "", cond, body))
}

func (t *treeParser) parseJump(tok RawToken) *ast.Node {
	start := tok.Start
	t.advance()
	var typ ast.NodeType
	switch tok.Text {
	case "return":
		typ = ast.Return
	case "break":
		typ = ast.Break
	default:
		typ = ast.Next
	}
	if t.atSeparator() || t.atKeyword("end") {
		return t.span(start, ast.NewNode(typ, ""))
	}
	value := t.parseExpr()
	return t.span(start, ast.NewNode(typ, "", value))
}

// parseBodyUntil parses statements until one of the stop keywords is
// current. Zero statements yield nil, one yields the statement itself, and
// several are wrapped in a begin node.
func (t *treeParser) parseBodyUntil(stop ...string) *ast.Node {
	stopSet := map[string]bool{}
	for _, s := range stop {
		stopSet[s] = true
	}

	var stmts []*ast.Node
	t.skipSeparators()
	for {
		tok := t.cur()
		if tok.Kind == kindEOF {
			t.unexpected(tok)
		}
		if tok.Kind == KindKeyword && stopSet[tok.Text] {
			break
		}
		stmts = append(stmts, t.parseStmt())
		if !t.atSeparator() {
			break
		}
		t.skipSeparators()
	}

	switch len(stmts) {
	case 0:
		return nil
	case 1:
		return stmts[0]
	default:
		n := ast.NewNode(ast.Begin, "", stmts...)
		n.Range = ast.SourceRange{Start: stmts[0].Range.Start, End: stmts[len(stmts)-1].Range.End}
		return n
	}
}

// stringValue strips the surrounding quotes from a string token's source
// text. Escape sequences are left as written; interpreting them belongs to
// consumers that need the runtime value.
func stringValue(text string) string {
	if len(text) >= 2 {
		q := text[0]
		if (q == '"' || q == '\'') && text[len(text)-1] == q {
			return text[1 : len(text)-1]
		}
	}
	return text
}
