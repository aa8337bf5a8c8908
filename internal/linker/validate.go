package linker

import (
	"fmt"
	"unicode"
	"unicode/utf8"

	"aasify/internal/ast"
	"aasify/internal/diag"
	"aasify/internal/scope"
	"aasify/internal/symbols"
)

// checkName warns when an AAS definition name does not start with a capital.
// Names whose first rune has no upper-case form pass.
func checkName(doc *ast.Document, id ast.NodeID, n *ast.Node, r diag.Reporter) {
	if n.Kind != ast.KindAasDefinition {
		return
	}
	name, ok := n.SimpleName()
	if !ok || name == "" {
		return
	}
	first, _ := utf8.DecodeRuneInString(name)
	if unicode.ToUpper(first) == first {
		return
	}
	loc := diag.Location{Document: doc.ID, Path: doc.Path(id), Span: n.Span}
	diag.ReportWarning(r, diag.ValidateCapital, loc,
		fmt.Sprintf("AAS name %q should start with a capital", name)).Emit()
}

// checkDuplicates warns about definitions sharing a qualified name, first
// inside the document's local scopes, then against other indexed documents.
func checkDuplicates(doc *ast.Document, p *scope.Provider, locals *symbols.LocalScopes, r diag.Reporter) {
	for _, container := range locals.Containers() {
		seen := make(map[string]symbols.Descriptor)
		for _, d := range locals.Get(container) {
			first, dup := seen[d.QualifiedName]
			if !dup {
				seen[d.QualifiedName] = d
				continue
			}
			diag.ReportWarning(r, diag.ValidateDuplicate, locationOf(d),
				fmt.Sprintf("duplicate definition %s", d.QualifiedName)).
				WithNote(locationOf(first), "first defined here").
				Emit()
		}
	}

	global := p.GlobalScope(scope.MatchExact)
	reported := make(map[string]bool)
	for _, d := range global.All() {
		if d.Document != doc.ID || reported[d.QualifiedName] {
			continue
		}
		var others []symbols.Descriptor
		for _, c := range global.Lookup(d.Name) {
			if c.Document != doc.ID && c.QualifiedName == d.QualifiedName {
				others = append(others, c)
			}
		}
		if len(others) == 0 {
			continue
		}
		reported[d.QualifiedName] = true
		rb := diag.ReportWarning(r, diag.ValidateDuplicate, locationOf(d),
			fmt.Sprintf("%s is also defined in %d other document(s)", d.QualifiedName, len(others)))
		for _, o := range others {
			rb.WithNote(locationOf(o), "also defined here")
		}
		rb.Emit()
	}
}

func locationOf(d symbols.Descriptor) diag.Location {
	return diag.Location{Document: d.Document, Path: d.Path}
}
