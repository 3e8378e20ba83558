// Package ast defines the syntax tree produced by parsing Ruby source.
//
// Nodes follow the s-expression shape used by Ruby tooling: every node has a
// type tag, an ordered list of children, and a source range. Leaf nodes that
// carry a name or literal (identifiers, constants, numbers, strings) store
// their text payload directly.
//
// The package also defines source positions and ranges, and the comment
// representation that accompanies a parsed tree.
package ast
