// Package scope answers "which symbols are visible here" against the global index.
package scope

import (
	"aasify/internal/ast"
	"aasify/internal/index"
	"aasify/internal/symbols"
)

// ReferenceInfo describes one reference occurrence. Source is the kind of the
// node carrying the reference; KindInvalid means it could not be determined.
type ReferenceInfo struct {
	Source   ast.Kind
	Property string
	Text     string
}

// MatchMode selects how the workspace-wide scope matches names.
type MatchMode uint8

const (
	// MatchExact compares names case-sensitively.
	MatchExact MatchMode = iota
	// MatchFoldCase compares names case-insensitively.
	MatchFoldCase
)

// Provider resolves references using the type-compatibility table. Every
// call reads the index afresh; returned scopes are snapshots.
type Provider struct {
	index *index.Index
}

// NewProvider binds a provider to ix.
func NewProvider(ix *index.Index) *Provider {
	return &Provider{index: ix}
}

// ResolveReference returns the scope of legal targets for ref. References
// without a source kind or without a compatibility rule get the empty scope.
func (p *Provider) ResolveReference(ref ReferenceInfo) *symbols.Scope {
	return p.scopeFor(ref.Source)
}

// Resolve returns the descriptors ref.Text resolves to.
func (p *Provider) Resolve(ref ReferenceInfo) []symbols.Descriptor {
	return p.ResolveReference(ref).Lookup(ref.Text)
}

// ScopeAt returns what a node of n's kind may reference, for completion-style
// queries. Nodes without a rule get the empty scope.
func (p *Provider) ScopeAt(n *ast.Node) *symbols.Scope {
	if n == nil {
		return symbols.EmptyScope()
	}
	return p.scopeFor(n.Kind)
}

// GlobalScope returns every indexed symbol, matched according to mode.
func (p *Provider) GlobalScope(mode MatchMode) *symbols.Scope {
	return symbols.NewScope(p.index.AllSymbols(), symbols.ScopeOptions{
		CaseInsensitive: mode == MatchFoldCase,
	})
}

// Definitions returns every indexed descriptor of kind.
func (p *Provider) Definitions(kind ast.Kind) []symbols.Descriptor {
	var out []symbols.Descriptor
	for _, d := range p.index.AllSymbols() {
		if d.Kind == kind {
			out = append(out, d)
		}
	}
	return out
}

func (p *Provider) scopeFor(source ast.Kind) *symbols.Scope {
	targets := TargetKinds(source)
	if len(targets) == 0 {
		return symbols.EmptyScope()
	}
	all := p.index.AllSymbols()
	filtered := make([]symbols.Descriptor, 0, len(all))
	for _, d := range all {
		if Compatible(source, d.Kind) {
			filtered = append(filtered, d)
		}
	}
	return symbols.NewScope(filtered, symbols.ScopeOptions{})
}
