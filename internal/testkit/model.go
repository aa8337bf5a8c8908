// Package testkit builds small serialized models for tests.
package testkit

import (
	"bytes"
	"encoding/json"
	"fmt"

	"aasify/internal/ast"
)

// Def describes one definition of a model. Submodels become references in the
// "submodels" property; Children are nested under "elements".
type Def struct {
	Kind      ast.Kind
	Name      string
	Submodels []string
	Children  []Def
}

// AAS returns an AasDefinition referencing the given submodels.
func AAS(name string, submodels ...string) Def {
	return Def{Kind: ast.KindAasDefinition, Name: name, Submodels: submodels}
}

// Submodel returns a SubmodelDefinitions node.
func Submodel(name string, children ...Def) Def {
	return Def{Kind: ast.KindSubmodelDefinitions, Name: name, Children: children}
}

// Rules returns a SubmodelRulesDefinition node.
func Rules(name string) Def {
	return Def{Kind: ast.KindSubmodelRulesDefinition, Name: name}
}

// Property returns a leaf property node.
func Property(name string) Def {
	return Def{Kind: ast.KindProperty, Name: name}
}

// JSON serializes defs as an AasModel document.
func JSON(defs ...Def) []byte {
	var b bytes.Buffer
	b.WriteString(`{"$type":"AasModel","aas_elements":[`)
	for i, d := range defs {
		if i > 0 {
			b.WriteByte(',')
		}
		writeDef(&b, d)
	}
	b.WriteString("]}")
	return b.Bytes()
}

func writeDef(b *bytes.Buffer, d Def) {
	fmt.Fprintf(b, `{"$type":%s,"name":%s`, quote(d.Kind.String()), quote(d.Name))
	if len(d.Submodels) > 0 {
		b.WriteString(`,"submodels":[`)
		for i, ref := range d.Submodels {
			if i > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(b, `{"$refText":%s}`, quote(ref))
		}
		b.WriteByte(']')
	}
	if len(d.Children) > 0 {
		b.WriteString(`,"elements":[`)
		for i, child := range d.Children {
			if i > 0 {
				b.WriteByte(',')
			}
			writeDef(b, child)
		}
		b.WriteByte(']')
	}
	b.WriteByte('}')
}

func quote(s string) string {
	data, err := json.Marshal(s)
	if err != nil {
		panic(err)
	}
	return string(data)
}

// Document decodes defs into an AST, panicking on failure.
func Document(id string, version uint64, defs ...Def) *ast.Document {
	doc, err := ast.Decode(id, 0, version, JSON(defs...))
	if err != nil {
		panic(fmt.Errorf("testkit: %w", err))
	}
	return doc
}
