// Package workspace loads model documents into the global index and links
// them. Loads run in two phases: every document of a batch is indexed before
// any is linked, so references resolve the same way whatever the batch order.
package workspace

import (
	"context"
	"errors"
	"fmt"
	"runtime"
	"slices"
	"sync"
	"sync/atomic"

	"aasify/internal/ast"
	"aasify/internal/document"
	"aasify/internal/index"
	"aasify/internal/linker"
	"aasify/internal/observ"
	"aasify/internal/scope"
	"aasify/internal/source"
	"aasify/internal/symbols"
)

// Hooks are called on the loading goroutine after each lifecycle step.
type Hooks struct {
	OnIndexed func(doc *ast.Document, exports []symbols.Descriptor)
	OnLinked  func(doc *ast.Document, links []linker.Binding)
}

// Options configures a workspace.
type Options struct {
	// Jobs bounds parallel reads in Phase 1; 0 means GOMAXPROCS.
	Jobs int
	// Validate enables name and duplicate checks during linking.
	Validate bool
	// Refetch re-reads documents at the start of Phase 2.
	Refetch bool
	// SkipLink stops after Phase 1.
	SkipLink bool
	// Cache, when set, stores export lists keyed by content hash.
	Cache *index.DiskCache
	Hooks Hooks
	// Progress receives load events; nil disables reporting.
	Progress ProgressSink
	// MaxDiagnostics caps each document's diagnostic bag.
	MaxDiagnostics int
	// Parse overrides the document parser; nil decodes the JSON AST form.
	Parse document.ParseFunc
}

// Workspace owns the index, the document store and the scope provider of one
// set of documents. Mutating operations are serialized; index readers never
// block on them for longer than a single commit.
type Workspace struct {
	mu       sync.Mutex
	opts     Options
	store    *document.Store
	index    *index.Index
	provider *scope.Provider
	closed   atomic.Bool
	timer    atomic.Pointer[observ.Timer]
}

// Open creates an empty workspace.
func Open(opts Options) *Workspace {
	if opts.Jobs <= 0 {
		opts.Jobs = runtime.GOMAXPROCS(0)
	}
	ix := index.New()
	w := &Workspace{
		opts:     opts,
		store:    document.NewStore(source.NewFileSet(), opts.Parse),
		index:    ix,
		provider: scope.NewProvider(ix),
	}
	w.timer.Store(observ.NewTimer())
	return w
}

// Close drops every document and clears the index.
func (w *Workspace) Close() error {
	if w.closed.Swap(true) {
		return ErrClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	w.store.Clear()
	w.index.Clear()
	return nil
}

func (w *Workspace) Index() *index.Index { return w.index }
func (w *Workspace) Store() *document.Store { return w.store }
func (w *Workspace) Provider() *scope.Provider { return w.provider }
func (w *Workspace) Files() *source.FileSet { return w.store.Files() }
func (w *Workspace) Symbols() []symbols.Descriptor { return w.index.AllSymbols() }

// SetProgress replaces the progress sink; nil disables reporting.
func (w *Workspace) SetProgress(p ProgressSink) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.opts.Progress = p
}

// Timings returns the phase timings of the last Load.
func (w *Workspace) Timings() *observ.Timer { return w.timer.Load() }

// Unload removes id from the index and the store. It reports whether the
// document was known.
func (w *Workspace) Unload(id string) (bool, error) {
	if w.closed.Load() {
		return false, ErrClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()
	known := w.index.Contains(id) || w.store.Has(id)
	w.index.RemoveDocument(id)
	w.store.Unload(id)
	return known, nil
}

// Verify checks that every indexed document is loaded, that its entries are
// exactly the exports of its current AST and that every entry resolves.
func (w *Workspace) Verify(ctx context.Context) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	var errs []error
	for _, id := range w.index.Documents() {
		doc, err := w.store.AST(id)
		if err != nil {
			errs = append(errs, fmt.Errorf("%s indexed but not loaded: %w", id, err))
			continue
		}
		want, err := symbols.ComputeExports(ctx, doc)
		if err != nil {
			return err
		}
		got := w.index.Symbols(id)
		if !slices.Equal(got, want) {
			errs = append(errs, fmt.Errorf("%s: index holds %d entries, document exports %d", id, len(got), len(want)))
		}
		for _, d := range got {
			if _, err := w.store.Resolve(d); err != nil {
				errs = append(errs, err)
			}
		}
	}
	return errors.Join(errs...)
}
