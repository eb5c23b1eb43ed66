// Package ast defines the syntax tree consumed by the bytecode compiler.
//
// The tree is produced by an external parser. Every node reports its source
// location and accepts a Visitor through double dispatch, so a consumer that
// implements Visitor handles every node kind by construction.
package ast

// Location is a range in the source text. Lines are 1-based, columns are
// 0-based byte offsets within the line.
type Location struct {
	StartLine   int
	StartColumn int
	EndLine     int
	EndColumn   int
}

// Node is implemented by every syntax tree node.
type Node interface {
	Location() Location
	Accept(v Visitor)
}

// Base carries the location of a node. Node structs embed it.
type Base struct {
	Loc Location
}

// Location returns the node's source range.
func (b Base) Location() Location { return b.Loc }

// At builds a single-line location, convenient for hand-built trees.
func At(line, startColumn, endColumn int) Location {
	return Location{StartLine: line, StartColumn: startColumn, EndLine: line, EndColumn: endColumn}
}
