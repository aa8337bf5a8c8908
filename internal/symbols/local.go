package symbols

import (
	"context"

	"aasify/internal/ast"
	"aasify/internal/naming"
)

// LocalScopes maps a container node to the descriptors of its directly
// contained exportable children. Entries are one level deep: a nested
// container's members are not flattened into its ancestors.
type LocalScopes struct {
	Document string
	entries  map[ast.NodeID][]Descriptor
	order    []ast.NodeID
}

// Get returns the descriptors registered for container.
func (l *LocalScopes) Get(container ast.NodeID) []Descriptor {
	if l == nil {
		return nil
	}
	return l.entries[container]
}

// Containers lists containers with an entry, in computation order.
func (l *LocalScopes) Containers() []ast.NodeID {
	if l == nil {
		return nil
	}
	return l.order
}

// Len reports the number of containers with an entry.
func (l *LocalScopes) Len() int {
	if l == nil {
		return 0
	}
	return len(l.order)
}

func (l *LocalScopes) add(container ast.NodeID, descs []Descriptor) {
	if _, ok := l.entries[container]; !ok {
		l.order = append(l.order, container)
	}
	l.entries[container] = append(l.entries[container], descs...)
}

// ComputeLocalScopes builds the local scope map of doc. Only a root of kind
// AasModel produces entries; any other root yields an empty map.
func ComputeLocalScopes(ctx context.Context, doc *ast.Document) (*LocalScopes, error) {
	scopes := &LocalScopes{
		Document: doc.ID,
		entries:  make(map[ast.NodeID][]Descriptor),
	}
	root := doc.Node(doc.Root)
	if root == nil || root.Kind != ast.KindAasModel {
		return scopes, nil
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	local := make([]Descriptor, 0, len(root.Children))
	for _, child := range root.Children {
		n := doc.Node(child)
		if n == nil || !naming.IsExportable(n.Kind) {
			continue
		}
		desc, err := NewDescriptor(doc, child)
		if err != nil {
			return nil, err
		}
		local = append(local, desc)
	}
	scopes.add(doc.Root, local)
	return scopes, nil
}
