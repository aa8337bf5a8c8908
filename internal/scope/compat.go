package scope

import "aasify/internal/ast"

// TargetKinds returns the kinds a reference carried by a node of kind source
// may resolve to. An empty result means the source has no compatibility rule.
func TargetKinds(source ast.Kind) []ast.Kind {
	switch source {
	case ast.KindAasDefinition:
		return []ast.Kind{ast.KindSubmodelDefinitions}
	case ast.KindInvalid, ast.KindAasModel, ast.KindSubmodelRulesDefinition,
		ast.KindSubmodelDefinitions, ast.KindProperty:
		return nil
	default:
		return nil
	}
}

// Compatible reports whether a reference from source may target target.
func Compatible(source, target ast.Kind) bool {
	for _, k := range TargetKinds(source) {
		if k == target {
			return true
		}
	}
	return false
}
