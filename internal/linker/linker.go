// Package linker resolves the reference occurrences of a document against
// the global index and reports validation findings.
package linker

import (
	"context"
	"fmt"
	"strconv"

	"aasify/internal/ast"
	"aasify/internal/diag"
	"aasify/internal/scope"
	"aasify/internal/symbols"
	"aasify/internal/trace"
)

// Options controls which findings Link reports.
type Options struct {
	// Validate enables name and duplicate checks besides reference checks.
	Validate bool
	// Locals are the local scopes of the document, used for in-document
	// duplicate detection. Nil skips that check.
	Locals *symbols.LocalScopes
}

// Binding is one resolved reference occurrence.
type Binding struct {
	Source     ast.NodeID
	SourceKind ast.Kind
	Path       string
	Ref        ast.Reference
	Candidates []symbols.Descriptor
}

// Target returns the single candidate when the reference is unambiguous.
func (b Binding) Target() (symbols.Descriptor, bool) {
	if len(b.Candidates) != 1 {
		return symbols.Descriptor{}, false
	}
	return b.Candidates[0], true
}

// Link resolves every reference carried by doc, root included, in pre-order.
// Unresolved and ambiguous references are reported as warnings; they never
// fail the link. A non-nil error means the walk itself failed.
func Link(ctx context.Context, doc *ast.Document, p *scope.Provider, opts Options, r diag.Reporter) ([]Binding, error) {
	if r == nil {
		r = diag.NopReporter{}
	}
	tracer := trace.FromContext(ctx)
	parent := trace.CurrentSpan(ctx)

	var out []Binding
	visit := func(id ast.NodeID, n *ast.Node) {
		for _, ref := range n.Refs {
			b := Binding{
				Source:     id,
				SourceKind: n.Kind,
				Path:       refPath(doc, id, ref),
				Ref:        ref,
			}
			b.Candidates = p.Resolve(scope.ReferenceInfo{Source: n.Kind, Property: ref.Property, Text: ref.Text})
			out = append(out, b)
			reportBinding(doc, b, r)
			if tracer.Level().ShouldEmit(trace.ScopeNode) {
				trace.Point(tracer, trace.ScopeNode, "ref:"+ref.Text,
					fmt.Sprintf("%s %d candidates", b.Path, len(b.Candidates)), parent)
			}
		}
		if opts.Validate {
			checkName(doc, id, n, r)
		}
	}

	if root := doc.Node(doc.Root); root != nil {
		visit(doc.Root, root)
	}
	err := ast.Walk(ctx, doc, func(id ast.NodeID, n *ast.Node) error {
		visit(id, n)
		return nil
	})
	if err != nil {
		return nil, err
	}
	if opts.Validate {
		checkDuplicates(doc, p, opts.Locals, r)
	}
	return out, nil
}

func refPath(doc *ast.Document, id ast.NodeID, ref ast.Reference) string {
	path := doc.Path(id)
	if path == "/" {
		path = ""
	}
	path += "/" + ref.Property
	if ref.Index >= 0 {
		path += "@" + strconv.Itoa(ref.Index)
	}
	return path
}

func reportBinding(doc *ast.Document, b Binding, r diag.Reporter) {
	loc := diag.Location{Document: doc.ID, Path: b.Path, Span: b.Ref.Span}
	switch len(b.Candidates) {
	case 0:
		diag.ReportWarning(r, diag.LinkUnresolved, loc,
			fmt.Sprintf("could not resolve reference to %q", b.Ref.Text)).Emit()
	case 1:
	default:
		rb := diag.ReportWarning(r, diag.LinkAmbiguous, loc,
			fmt.Sprintf("reference %q matches %d definitions", b.Ref.Text, len(b.Candidates)))
		for _, c := range b.Candidates {
			rb.WithNote(diag.Location{Document: c.Document, Path: c.Path}, "candidate "+c.QualifiedName)
		}
		rb.Emit()
	}
}
