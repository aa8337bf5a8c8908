package symbols

import (
	"golang.org/x/text/cases"
)

// ScopeOptions controls how names are matched.
type ScopeOptions struct {
	// CaseInsensitive folds names with Unicode case folding before matching.
	CaseInsensitive bool
}

// Scope is a read-only name -> candidates view over an ordered descriptor
// list. Scopes are snapshots; do not keep them across index mutations.
type Scope struct {
	byName map[string][]Descriptor
	names  []string
	all    []Descriptor
	fold   bool
}

// NewScope indexes descs by simple name. Input order is preserved both for
// candidate lists and for Names.
func NewScope(descs []Descriptor, opts ScopeOptions) *Scope {
	s := &Scope{
		byName: make(map[string][]Descriptor, len(descs)),
		all:    descs,
		fold:   opts.CaseInsensitive,
	}
	var caser cases.Caser
	if s.fold {
		caser = cases.Fold()
	}
	for _, d := range descs {
		key := d.Name
		if s.fold {
			key = caser.String(key)
		}
		if _, seen := s.byName[key]; !seen {
			s.names = append(s.names, d.Name)
		}
		s.byName[key] = append(s.byName[key], d)
	}
	return s
}

// EmptyScope returns a scope without symbols.
func EmptyScope() *Scope {
	return NewScope(nil, ScopeOptions{})
}

// Lookup returns the candidates for name.
func (s *Scope) Lookup(name string) []Descriptor {
	if s == nil {
		return nil
	}
	if s.fold {
		name = cases.Fold().String(name)
	}
	return s.byName[name]
}

// Names returns the distinct names in first-seen order.
func (s *Scope) Names() []string {
	if s == nil {
		return nil
	}
	return s.names
}

// All returns every descriptor in input order.
func (s *Scope) All() []Descriptor {
	if s == nil {
		return nil
	}
	return s.all
}

// Len reports the number of descriptors.
func (s *Scope) Len() int {
	if s == nil {
		return 0
	}
	return len(s.all)
}

// IsEmpty reports whether the scope holds no descriptors.
func (s *Scope) IsEmpty() bool { return s.Len() == 0 }

// CaseInsensitive reports the matching mode of the scope.
func (s *Scope) CaseInsensitive() bool { return s != nil && s.fold }
