// Package naming computes simple and type-qualified names for AST nodes.
package naming

import (
	"errors"
	"fmt"

	"aasify/internal/ast"
)

// Undefined is the simple name of nodes whose variant carries no name.
const Undefined = "undefined"

// ErrNotExportable is returned when a qualified name is requested for a node
// kind outside the exportable set. It signals a caller bug, not a user error.
var ErrNotExportable = errors.New("naming: node kind is not exportable")

// SimpleName returns the node name, or Undefined when the node has none.
func SimpleName(n *ast.Node) string {
	if name, ok := n.SimpleName(); ok {
		return name
	}
	return Undefined
}

// TypeLabel returns the label prefixed to qualified names of the kind.
func TypeLabel(kind ast.Kind) (string, bool) {
	switch kind {
	case ast.KindAasDefinition:
		return "AasDefinition", true
	case ast.KindSubmodelRulesDefinition:
		return "SubmodelRulesDefinitions", true
	case ast.KindSubmodelDefinitions:
		return "SubmodelDefinitions", true
	case ast.KindInvalid, ast.KindAasModel, ast.KindProperty:
		return "", false
	default:
		return "", false
	}
}

// IsExportable reports whether definitions of the kind are visible workspace-wide.
func IsExportable(kind ast.Kind) bool {
	_, ok := TypeLabel(kind)
	return ok
}

// QualifiedName returns TypeLabel(kind) + "." + simple name.
func QualifiedName(n *ast.Node) (string, error) {
	if n == nil {
		return "", fmt.Errorf("%w: nil node", ErrNotExportable)
	}
	label, ok := TypeLabel(n.Kind)
	if !ok {
		return "", fmt.Errorf("%w: %s", ErrNotExportable, n.Tag)
	}
	return label + "." + SimpleName(n), nil
}
