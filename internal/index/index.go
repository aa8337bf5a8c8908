// Package index holds the workspace-wide symbol index.
package index

import (
	"errors"
	"fmt"
	"slices"
	"sort"
	"sync"

	"aasify/internal/symbols"
)

// ErrForeignDescriptor reports a descriptor committed under a document it does not belong to.
var ErrForeignDescriptor = errors.New("index: descriptor belongs to another document")

// Index maps document ids to their exported descriptors. Stored slices are
// never modified after commit; writers swap a whole slice under the write
// lock, so a reader sees either the old or the new list of a document.
type Index struct {
	mu   sync.RWMutex
	docs map[string][]symbols.Descriptor
	gen  uint64
}

// New returns an empty index.
func New() *Index {
	return &Index{docs: make(map[string][]symbols.Descriptor)}
}

// ReplaceDocument atomically drops every entry of doc and inserts descs.
// Repeating the call with the same input leaves the same final state.
func (ix *Index) ReplaceDocument(doc string, descs []symbols.Descriptor) error {
	for _, d := range descs {
		if d.Document != doc {
			return fmt.Errorf("%w: %s committed under %s", ErrForeignDescriptor, d, doc)
		}
	}
	stored := slices.Clone(descs)
	if stored == nil {
		stored = []symbols.Descriptor{}
	}

	ix.mu.Lock()
	defer ix.mu.Unlock()
	ix.docs[doc] = stored
	ix.gen++
	return nil
}

// RemoveDocument drops every entry of doc. Absent documents are a no-op.
func (ix *Index) RemoveDocument(doc string) {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if _, ok := ix.docs[doc]; !ok {
		return
	}
	delete(ix.docs, doc)
	ix.gen++
}

// AllSymbols flattens every document's entries. Documents are visited in
// sorted id order; entries keep their export order within a document.
func (ix *Index) AllSymbols() []symbols.Descriptor {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	total := 0
	for _, descs := range ix.docs {
		total += len(descs)
	}
	out := make([]symbols.Descriptor, 0, total)
	for _, doc := range ix.sortedDocsLocked() {
		out = append(out, ix.docs[doc]...)
	}
	return out
}

// Symbols returns a copy of the entries of doc.
func (ix *Index) Symbols(doc string) []symbols.Descriptor {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return slices.Clone(ix.docs[doc])
}

// Contains reports whether doc has been committed.
func (ix *Index) Contains(doc string) bool {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	_, ok := ix.docs[doc]
	return ok
}

// Documents lists committed document ids in sorted order.
func (ix *Index) Documents() []string {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.sortedDocsLocked()
}

// Len reports the total number of entries.
func (ix *Index) Len() int {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	total := 0
	for _, descs := range ix.docs {
		total += len(descs)
	}
	return total
}

// Generation increases with every mutation. Scopes built at an older
// generation are stale.
func (ix *Index) Generation() uint64 {
	ix.mu.RLock()
	defer ix.mu.RUnlock()
	return ix.gen
}

// Clear removes every document.
func (ix *Index) Clear() {
	ix.mu.Lock()
	defer ix.mu.Unlock()
	if len(ix.docs) == 0 {
		return
	}
	ix.docs = make(map[string][]symbols.Descriptor)
	ix.gen++
}

func (ix *Index) sortedDocsLocked() []string {
	docs := make([]string, 0, len(ix.docs))
	for doc := range ix.docs {
		docs = append(docs, doc)
	}
	sort.Strings(docs)
	return docs
}
