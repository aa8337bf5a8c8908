package ast

import (
	"strconv"
	"strings"

	"aasify/internal/source"
)

// Document owns the node tree of one parse of one document. A re-parse
// produces a new Document with a higher Version; node ids of the previous
// revision must not be used against the new one.
type Document struct {
	ID      string
	File    source.FileID
	Version uint64
	Root    NodeID
	nodes   *Arena[Node]
}

// NewDocument creates an empty document. The root is added with SetRoot.
func NewDocument(id string, file source.FileID, version uint64) *Document {
	return &Document{
		ID:      id,
		File:    file,
		Version: version,
		nodes:   NewArena[Node](32),
	}
}

// SetRoot allocates the root node.
func (d *Document) SetRoot(kind Kind, tag string) NodeID {
	if tag == "" {
		tag = kind.String()
	}
	d.Root = NodeID(d.nodes.Allocate(Node{Kind: kind, Tag: tag, Index: -1}))
	return d.Root
}

// Append adds a child under parent in the given property slot and returns its id.
// index is the position in a list-valued property, -1 for a scalar slot.
func (d *Document) Append(parent NodeID, property string, index int, kind Kind, tag string) NodeID {
	if tag == "" {
		tag = kind.String()
	}
	id := NodeID(d.nodes.Allocate(Node{
		Kind:     kind,
		Tag:      tag,
		Parent:   parent,
		Property: property,
		Index:    index,
	}))
	if p := d.Node(parent); p != nil {
		p.Children = append(p.Children, id)
	}
	return id
}

// SetName assigns the name of a node.
func (d *Document) SetName(id NodeID, name string) {
	if n := d.Node(id); n != nil {
		n.Name = name
		n.HasName = true
	}
}

// AddRef records a reference occurrence carried by the node.
func (d *Document) AddRef(id NodeID, ref Reference) {
	if n := d.Node(id); n != nil {
		n.Refs = append(n.Refs, ref)
	}
}

// Node returns the node or nil for ids outside this document.
func (d *Document) Node(id NodeID) *Node {
	if d == nil {
		return nil
	}
	return d.nodes.Get(uint32(id))
}

// Len reports the number of nodes including the root.
func (d *Document) Len() int {
	if d == nil {
		return 0
	}
	return int(d.nodes.Len())
}

// Path renders the container path of a node, e.g. "/aas_elements@1/submodels".
func (d *Document) Path(id NodeID) string {
	var segs []string
	for n := d.Node(id); n != nil && n.Parent.IsValid(); n = d.Node(n.Parent) {
		seg := n.Property
		if n.Index >= 0 {
			seg += "@" + strconv.Itoa(n.Index)
		}
		segs = append(segs, seg)
	}
	if len(segs) == 0 {
		return "/"
	}
	var b strings.Builder
	for i := len(segs) - 1; i >= 0; i-- {
		b.WriteByte('/')
		b.WriteString(segs[i])
	}
	return b.String()
}

// NodeAt returns the deepest node whose span contains off, descending only
// through spanned nodes. It returns the root when no child matches.
func (d *Document) NodeAt(off uint32) NodeID {
	cur := d.Root
	for depth := 0; depth < MaxDepth; depth++ {
		n := d.Node(cur)
		if n == nil {
			break
		}
		next := NoNodeID
		for _, c := range n.Children {
			if cn := d.Node(c); cn != nil && cn.Span.Contains(off) {
				next = c
				break
			}
		}
		if !next.IsValid() {
			break
		}
		cur = next
	}
	return cur
}
