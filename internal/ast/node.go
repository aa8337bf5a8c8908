package ast

import "aasify/internal/source"

// Reference is a by-name cross reference stored on the node that carries it.
type Reference struct {
	Property string
	Index    int // position inside a list-valued property, -1 for scalars
	Text     string
	Span     source.Span
}

// Node is a single AST element.
type Node struct {
	Kind     Kind
	Tag      string // raw $type tag as produced by the parser
	Name     string
	HasName  bool
	Parent   NodeID
	Property string // property of the parent holding this node
	Index    int    // position inside the parent property, -1 for scalars
	Children []NodeID
	Refs     []Reference
	Span     source.Span
}

// SimpleName returns the node name and whether the node carries one.
func (n *Node) SimpleName() (string, bool) {
	if n == nil || !n.HasName {
		return "", false
	}
	return n.Name, true
}
