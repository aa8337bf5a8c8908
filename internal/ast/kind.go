package ast

// Kind is the closed set of node variants produced by the parser.
type Kind uint8

const (
	KindInvalid Kind = iota
	// KindAasModel is the top-level model container.
	KindAasModel
	KindAasDefinition
	KindSubmodelRulesDefinition
	KindSubmodelDefinitions
	// KindProperty covers leaf and property nodes; the raw tag is kept in Node.Tag.
	KindProperty
)

// Kinds lists every valid kind in declaration order.
var Kinds = []Kind{
	KindAasModel,
	KindAasDefinition,
	KindSubmodelRulesDefinition,
	KindSubmodelDefinitions,
	KindProperty,
}

// String returns the $type tag of the kind.
func (k Kind) String() string {
	switch k {
	case KindAasModel:
		return "AasModel"
	case KindAasDefinition:
		return "AasDefinition"
	case KindSubmodelRulesDefinition:
		return "SubmodelRulesDefinition"
	case KindSubmodelDefinitions:
		return "SubmodelDefinitions"
	case KindProperty:
		return "Property"
	default:
		return "Invalid"
	}
}

// ParseKind maps a $type tag to a kind. Unknown tags are reported with ok=false.
func ParseKind(tag string) (Kind, bool) {
	for _, k := range Kinds {
		if k.String() == tag {
			return k, true
		}
	}
	return KindInvalid, false
}

// Named reports whether nodes of this kind carry a name.
func (k Kind) Named() bool {
	switch k {
	case KindAasDefinition, KindSubmodelRulesDefinition, KindSubmodelDefinitions, KindProperty:
		return true
	case KindInvalid, KindAasModel:
		return false
	default:
		return false
	}
}
