package symbols

import (
	"fmt"

	"aasify/internal/ast"
	"aasify/internal/naming"
)

// Descriptor is the immutable record stored in indexes and scopes. It refers
// to its node by (Document, Version, Node) instead of a pointer, so replacing
// a document's AST never leaves a dangling reference.
type Descriptor struct {
	Name          string
	QualifiedName string
	Kind          ast.Kind
	Document      string
	Version       uint64
	Node          ast.NodeID
	Path          string
}

// NewDescriptor describes an exportable node of doc.
func NewDescriptor(doc *ast.Document, id ast.NodeID) (Descriptor, error) {
	n := doc.Node(id)
	if n == nil {
		return Descriptor{}, fmt.Errorf("symbols: node %d not in %s", id, doc.ID)
	}
	qualified, err := naming.QualifiedName(n)
	if err != nil {
		return Descriptor{}, fmt.Errorf("%s at %s: %w", doc.ID, doc.Path(id), err)
	}
	return Descriptor{
		Name:          naming.SimpleName(n),
		QualifiedName: qualified,
		Kind:          n.Kind,
		Document:      doc.ID,
		Version:       doc.Version,
		Node:          id,
		Path:          doc.Path(id),
	}, nil
}

func (d Descriptor) String() string {
	return fmt.Sprintf("%s (%s%s)", d.QualifiedName, d.Document, d.Path)
}
