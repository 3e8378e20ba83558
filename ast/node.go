package ast

import (
	"fmt"
	"strings"
)

// NodeType is the s-expression type tag of a node, e.g. "send" or "lvasgn".
type NodeType string

// Node types produced by the parser engine.
const (
	Begin  NodeType = "begin"
	Lvasgn NodeType = "lvasgn"
	Ivasgn NodeType = "ivasgn"
	Gvasgn NodeType = "gvasgn"
	Casgn  NodeType = "casgn"
	Send   NodeType = "send"
	Def    NodeType = "def"
	Args   NodeType = "args"
	Arg    NodeType = "arg"
	Class  NodeType = "class"
	Module NodeType = "module"
	And    NodeType = "and"
	Or     NodeType = "or"
	If     NodeType = "if"
	While  NodeType = "while"
	Until  NodeType = "until"
	Return NodeType = "return"
	Break  NodeType = "break"
	Next   NodeType = "next"
	Int    NodeType = "int"
	Float  NodeType = "float"
	Str    NodeType = "str"
	Sym    NodeType = "sym"
	Array  NodeType = "array"
	Hash   NodeType = "hash"
	Pair   NodeType = "pair"
	True   NodeType = "true"
	False  NodeType = "false"
	Nil    NodeType = "nil"
	Self   NodeType = "self"
	Lvar   NodeType = "lvar"
	Ivar   NodeType = "ivar"
	Gvar   NodeType = "gvar"
	Const  NodeType = "const"
)

// Node is a single node in the syntax tree. Children are ordered; a nil
// child is meaningful (e.g. the absent receiver of a bare method call, or
// the absent else branch of an if).
type Node struct {
	Type     NodeType
	Children []*Node
	// Str holds the text payload of name- and literal-carrying nodes:
	// the variable name for lvasgn/lvar, the method name for send, the
	// literal text for int/float/str/sym.
	Str   string
	Range SourceRange
}

// NewNode creates a node with the given type, payload, and children.
func NewNode(typ NodeType, str string, children ...*Node) *Node {
	return &Node{Type: typ, Str: str, Children: children}
}

// Child returns the i-th child, or nil if out of range.
func (n *Node) Child(i int) *Node {
	if n == nil || i < 0 || i >= len(n.Children) {
		return nil
	}
	return n.Children[i]
}

// String renders the node as an s-expression, mirroring the familiar
// RuboCop / parser presentation. Useful in tests and debugging.
func (n *Node) String() string {
	if n == nil {
		return "nil"
	}
	var sb strings.Builder
	sb.WriteString("(")
	sb.WriteString(string(n.Type))
	if n.Str != "" {
		switch n.Type {
		case Str:
			fmt.Fprintf(&sb, " %q", n.Str)
		case Sym:
			fmt.Fprintf(&sb, " :%s", n.Str)
		default:
			sb.WriteString(" ")
			sb.WriteString(n.Str)
		}
	}
	for _, c := range n.Children {
		sb.WriteString(" ")
		sb.WriteString(c.String())
	}
	sb.WriteString(")")
	return sb.String()
}

// Walk performs a pre-order traversal of the tree rooted at n. If the
// visitor returns false for a node, that node's children are skipped.
func Walk(n *Node, visit func(*Node) bool) {
	if n == nil {
		return
	}
	if !visit(n) {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// EachDescendant visits every node strictly below n, in pre-order.
func (n *Node) EachDescendant(visit func(*Node) bool) {
	if n == nil {
		return
	}
	for _, c := range n.Children {
		Walk(c, visit)
	}
}

// EachNode visits n and every node below it, in pre-order.
func (n *Node) EachNode(visit func(*Node) bool) {
	Walk(n, visit)
}
