// Package document keeps the parsed documents of a workspace and their
// lifecycle state.
package document

import (
	"context"
	"errors"
	"fmt"
	"io/fs"
	"sort"
	"sync"

	"aasify/internal/ast"
	"aasify/internal/source"
	"aasify/internal/symbols"
)

var (
	// ErrNotFound reports a document that is not loaded or cannot be read.
	ErrNotFound = errors.New("document: not found")
	// ErrStaleDescriptor reports a descriptor whose node is gone or was re-parsed.
	ErrStaleDescriptor = errors.New("document: stale descriptor")
)

// ParseFunc turns document content into an AST.
type ParseFunc func(id string, file source.FileID, version uint64, content []byte) (*ast.Document, error)

type entry struct {
	doc     *ast.Document
	file    source.FileID
	state   State
	locals  *symbols.LocalScopes
	virtual bool
}

// Store maps document ids to their current AST. Versions are monotonic per id
// and survive Unload, so descriptors of an unloaded revision stay stale after
// the document comes back.
type Store struct {
	mu       sync.RWMutex
	files    *source.FileSet
	parse    ParseFunc
	entries  map[string]*entry
	versions map[string]uint64
}

// NewStore creates a store reading through files. A nil parse uses ast.Decode.
func NewStore(files *source.FileSet, parse ParseFunc) *Store {
	if files == nil {
		files = source.NewFileSet()
	}
	if parse == nil {
		parse = ast.Decode
	}
	return &Store{
		files:    files,
		parse:    parse,
		entries:  make(map[string]*entry),
		versions: make(map[string]uint64),
	}
}

// Files exposes the underlying file set for span rendering.
func (s *Store) Files() *source.FileSet { return s.files }

// Read parses the current content of id without publishing it. Virtual
// documents are re-parsed from memory, everything else from disk.
func (s *Store) Read(ctx context.Context, id string) (*ast.Document, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	s.mu.Lock()
	e := s.entries[id]
	var virtualFile source.FileID
	if e != nil && e.virtual {
		virtualFile = e.file
	}
	s.versions[id]++
	version := s.versions[id]
	s.mu.Unlock()

	fileID := virtualFile
	if fileID == 0 {
		loaded, err := s.files.Load(id)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
			}
			return nil, fmt.Errorf("read %s: %w", id, err)
		}
		fileID = loaded
	}
	f := s.files.Get(fileID)
	if f == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	return s.parse(id, fileID, version, f.Content)
}

// Publish installs doc as the current AST of its document in state Parsed.
// An older version than the one already published is ignored.
func (s *Store) Publish(doc *ast.Document) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if cur := s.entries[doc.ID]; cur != nil {
		if cur.doc != nil && cur.doc.Version > doc.Version {
			return
		}
		cur.doc = doc
		cur.file = doc.File
		cur.state = StateParsed
		cur.locals = nil
		return
	}
	s.entries[doc.ID] = &entry{doc: doc, file: doc.File, state: StateParsed}
}

// Install publishes doc together with its local scopes in state Indexed.
// It fails with ErrStaleDescriptor, changing nothing, when a newer version of
// the document is already published.
func (s *Store) Install(doc *ast.Document, locals *symbols.LocalScopes) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	cur := s.entries[doc.ID]
	if cur == nil {
		s.entries[doc.ID] = &entry{doc: doc, file: doc.File, state: StateIndexed, locals: locals}
		return nil
	}
	if cur.doc != nil && cur.doc.Version > doc.Version {
		return fmt.Errorf("%w: %s version %d, current %d", ErrStaleDescriptor, doc.ID, doc.Version, cur.doc.Version)
	}
	cur.doc = doc
	cur.file = doc.File
	cur.state = StateIndexed
	cur.locals = locals
	return nil
}

// Open reads, parses and publishes id.
func (s *Store) Open(ctx context.Context, id string) (*ast.Document, error) {
	doc, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}
	s.Publish(doc)
	return doc, nil
}

// AddVirtual registers in-memory content under id and parses it.
func (s *Store) AddVirtual(ctx context.Context, id string, content []byte) (*ast.Document, error) {
	file := s.files.AddVirtual(id, content)
	s.mu.Lock()
	if e := s.entries[id]; e != nil {
		e.file = file
		e.virtual = true
	} else {
		s.entries[id] = &entry{file: file, virtual: true}
	}
	s.mu.Unlock()
	return s.Open(ctx, id)
}

// AST returns the current AST of id.
func (s *Store) AST(id string) (*ast.Document, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e := s.entries[id]
	if e == nil || e.doc == nil {
		return nil, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	return e.doc, nil
}

// Has reports whether id has a published AST.
func (s *Store) Has(id string) bool {
	_, err := s.AST(id)
	return err == nil
}

// State returns the lifecycle state of id, StateNone when not loaded.
func (s *Store) State(id string) State {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e := s.entries[id]; e != nil && e.doc != nil {
		return e.state
	}
	return StateNone
}

// SetState records a lifecycle transition for id.
func (s *Store) SetState(id string, st State) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[id]
	if e == nil || e.doc == nil {
		return fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	e.state = st
	return nil
}

// Locals returns the local scopes of id, nil when not computed.
func (s *Store) Locals(id string) *symbols.LocalScopes {
	s.mu.RLock()
	defer s.mu.RUnlock()
	if e := s.entries[id]; e != nil {
		return e.locals
	}
	return nil
}

// Version returns the last version handed out for id, 0 if never parsed.
func (s *Store) Version(id string) uint64 {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.versions[id]
}

// Invalidate drops the published AST of id. Virtual content is kept so a
// later Open re-parses it.
func (s *Store) Invalidate(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e := s.entries[id]
	if e == nil {
		return
	}
	if !e.virtual {
		delete(s.entries, id)
		return
	}
	e.doc = nil
	e.locals = nil
	e.state = StateNone
}

// Unload forgets id entirely. It reports whether anything was loaded.
func (s *Store) Unload(id string) bool {
	s.mu.Lock()
	_, ok := s.entries[id]
	delete(s.entries, id)
	s.mu.Unlock()
	s.files.Forget(id)
	return ok
}

// Resolve maps a descriptor back to its node in the current AST.
func (s *Store) Resolve(d symbols.Descriptor) (*ast.Node, error) {
	doc, err := s.AST(d.Document)
	if err != nil {
		return nil, fmt.Errorf("%w: %s unloaded", ErrStaleDescriptor, d)
	}
	if doc.Version != d.Version {
		return nil, fmt.Errorf("%w: %s is version %d, document at %d", ErrStaleDescriptor, d, d.Version, doc.Version)
	}
	n := doc.Node(d.Node)
	if n == nil || n.Kind != d.Kind {
		return nil, fmt.Errorf("%w: %s no longer names a %s", ErrStaleDescriptor, d, d.Kind)
	}
	if name, _ := n.SimpleName(); name != d.Name {
		return nil, fmt.Errorf("%w: %s renamed to %q", ErrStaleDescriptor, d, name)
	}
	return n, nil
}

// Documents returns the ids with a published AST, sorted.
func (s *Store) Documents() []string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.entries))
	for id, e := range s.entries {
		if e.doc != nil {
			out = append(out, id)
		}
	}
	sort.Strings(out)
	return out
}

// Clear unloads every document.
func (s *Store) Clear() {
	s.mu.Lock()
	ids := make([]string, 0, len(s.entries))
	for id := range s.entries {
		ids = append(ids, id)
	}
	s.entries = make(map[string]*entry)
	s.mu.Unlock()
	for _, id := range ids {
		s.files.Forget(id)
	}
}
