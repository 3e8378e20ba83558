package parser

import (
	"fmt"
	"strings"
)

// TokenKind classifies a lexed token.
type TokenKind int

const (
	KindInvalid TokenKind = iota
	KindIdent
	KindConst
	KindIvar
	KindGvar
	KindInt
	KindFloat
	KindString
	KindSymbol
	KindKeyword
	KindOp
	KindLParen
	KindRParen
	KindLBracket
	KindRBracket
	KindLBrace
	KindRBrace
	KindComma
	KindDot
	KindSemi

	// internal to the engine; never part of the returned token stream
	kindNewline
	kindEOF
)

// RawToken is a single lexed token: its kind, its source text, and the
// half-open byte span it occupies in the buffer.
type RawToken struct {
	Kind       TokenKind
	Text       string
	Start, End int
	// SpaceBefore records whether whitespace separated this token from the
	// previous one. The grammar needs it to tell a command-call argument
	// (`foo -1`) from a binary operation (`foo - 1`).
	SpaceBefore bool
}

// Name returns the token's name in the classic parser notation, e.g.
// tIDENTIFIER for an identifier or kDEF for the def keyword. Used in
// diagnostics.
func (t RawToken) Name() string {
	switch t.Kind {
	case KindIdent:
		return "tIDENTIFIER"
	case KindConst:
		return "tCONSTANT"
	case KindIvar:
		return "tIVAR"
	case KindGvar:
		return "tGVAR"
	case KindInt:
		return "tINTEGER"
	case KindFloat:
		return "tFLOAT"
	case KindString:
		return "tSTRING"
	case KindSymbol:
		return "tSYMBOL"
	case KindKeyword:
		return "k" + strings.ToUpper(t.Text)
	case KindOp:
		return fmt.Sprintf("%q", t.Text)
	case KindLParen:
		return "tLPAREN"
	case KindRParen:
		return "tRPAREN"
	case KindLBracket:
		return "tLBRACK"
	case KindRBracket:
		return "tRBRACK"
	case KindLBrace:
		return "tLBRACE"
	case KindRBrace:
		return "tRBRACE"
	case KindComma:
		return "tCOMMA"
	case KindDot:
		return "tDOT"
	case KindSemi:
		return "tSEMI"
	case kindNewline:
		return "tNL"
	case kindEOF:
		return "$end"
	default:
		return fmt.Sprintf("token(%d)", int(t.Kind))
	}
}

var keywords = map[string]struct{}{
	"def":    {},
	"end":    {},
	"if":     {},
	"elsif":  {},
	"else":   {},
	"unless": {},
	"while":  {},
	"until":  {},
	"then":   {},
	"do":     {},
	"return": {},
	"break":  {},
	"next":   {},
	"class":  {},
	"module": {},
	"true":   {},
	"false":  {},
	"nil":    {},
	"self":   {},
	"and":    {},
	"or":     {},
	"not":    {},
	"begin":  {},
	"rescue": {},
	"ensure": {},
	"case":   {},
	"when":   {},
	"in":     {},
	"yield":  {},
	"super":  {},
}
