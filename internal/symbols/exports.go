package symbols

import (
	"context"

	"aasify/internal/ast"
	"aasify/internal/naming"
)

// ComputeExports returns descriptors for every exportable node of doc, in
// pre-order and regardless of nesting depth. On cancellation the partial
// result is discarded.
func ComputeExports(ctx context.Context, doc *ast.Document) ([]Descriptor, error) {
	var exported []Descriptor
	err := ast.Walk(ctx, doc, func(id ast.NodeID, n *ast.Node) error {
		if !naming.IsExportable(n.Kind) {
			return nil
		}
		desc, err := NewDescriptor(doc, id)
		if err != nil {
			return err
		}
		exported = append(exported, desc)
		return nil
	})
	if err != nil {
		return nil, err
	}
	return exported, nil
}
