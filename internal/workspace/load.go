package workspace

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"golang.org/x/sync/errgroup"

	"aasify/internal/ast"
	"aasify/internal/diag"
	"aasify/internal/document"
	"aasify/internal/index"
	"aasify/internal/linker"
	"aasify/internal/naming"
	"aasify/internal/observ"
	"aasify/internal/symbols"
	"aasify/internal/trace"
)

// Load indexes every document of ids, then links them. Each batch position
// gets exactly one Outcome, in batch order. A repeated id is loaded once and
// every position naming it receives the same outcome. Failures are per
// document and never abort the batch; the returned error is non-nil only for
// a closed workspace.
//
// Phase 1 reads documents in parallel but computes exports and commits them
// to the index strictly in batch order. Phase 2 starts after every commit.
// Once ctx is cancelled the current and all remaining documents fail with
// ctx.Err(); earlier commits stay in the index.
func (w *Workspace) Load(ctx context.Context, ids []string) ([]Outcome, error) {
	if w.closed.Load() {
		return nil, ErrClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDriver, "load", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)
	timer := observ.NewTimer()
	w.timer.Store(timer)

	unique, position := dedupe(ids)
	outcomes := make([]Outcome, len(unique))
	for i, id := range unique {
		outcomes[i] = Outcome{Document: id, Diags: diag.NewBag(w.opts.MaxDiagnostics)}
		w.emit(Event{Document: id, Stage: StageRead, Status: StatusQueued})
	}

	docs := w.prefetch(ctx, unique, timer)
	indexed := w.indexPhase(ctx, docs, outcomes, timer)
	if !w.opts.SkipLink {
		w.linkPhase(ctx, outcomes, timer, w.opts.Refetch)
	}

	span.WithExtra("documents", strconv.Itoa(len(unique))).
		WithExtra("indexed", strconv.Itoa(indexed)).
		End(fmt.Sprintf("%d symbols", w.index.Len()))

	if len(unique) == len(ids) {
		return outcomes, nil
	}
	batch := make([]Outcome, len(ids))
	for i := range ids {
		batch[i] = outcomes[position[i]]
	}
	return batch, nil
}

// dedupe keeps the first occurrence of every id. position maps each batch
// index to its slot in unique.
func dedupe(ids []string) (unique []string, position []int) {
	seen := make(map[string]int, len(ids))
	position = make([]int, len(ids))
	for i, id := range ids {
		slot, ok := seen[id]
		if !ok {
			slot = len(unique)
			seen[id] = slot
			unique = append(unique, id)
		}
		position[i] = slot
	}
	return unique, position
}

type prefetched struct {
	doc *ast.Document
	err error
}

// prefetch reads and parses every document in parallel without publishing.
func (w *Workspace) prefetch(ctx context.Context, ids []string, timer *observ.Timer) []prefetched {
	phase := timer.Begin("read")
	results := make([]prefetched, len(ids))
	if len(ids) == 0 {
		timer.End(phase, 0, "")
		return results
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(min(w.opts.Jobs, len(ids)))
	for i, id := range ids {
		g.Go(func() error {
			started := time.Now()
			w.emit(Event{Document: id, Stage: StageRead, Status: StatusWorking})
			doc, err := w.store.Read(gctx, id)
			results[i] = prefetched{doc: doc, err: err}
			status := StatusDone
			if err != nil {
				status = StatusError
			}
			w.emit(Event{Document: id, Stage: StageRead, Status: status, Err: err, Elapsed: time.Since(started)})
			return nil
		})
	}
	_ = g.Wait() // workers keep read errors in results and always return nil
	timer.End(phase, len(ids), "")
	return results
}

// indexPhase commits exports in batch order. It returns the number of
// documents committed.
func (w *Workspace) indexPhase(ctx context.Context, docs []prefetched, outcomes []Outcome, timer *observ.Timer) int {
	phase := timer.Begin("index")
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "index", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	committed, cacheHits := 0, 0
	for i := range outcomes {
		out := &outcomes[i]
		if err := ctx.Err(); err != nil {
			w.fail(out, StatusIndexFailed, StageIndex, err)
			continue
		}
		if docs[i].err != nil {
			w.fail(out, StatusIndexFailed, StageIndex, docs[i].err)
			continue
		}
		w.emit(Event{Document: out.Document, Stage: StageIndex, Status: StatusWorking})
		started := time.Now()
		exports, hit, err := w.commit(ctx, docs[i].doc)
		if err != nil {
			w.fail(out, StatusIndexFailed, StageIndex, err)
			continue
		}
		if hit {
			cacheHits++
		}
		committed++
		out.Status = StatusIndexed
		w.emit(Event{Document: out.Document, Stage: StageIndex, Status: StatusDone, Elapsed: time.Since(started)})
		if w.opts.Hooks.OnIndexed != nil {
			w.opts.Hooks.OnIndexed(docs[i].doc, exports)
		}
	}

	note := ""
	if w.opts.Cache != nil {
		note = fmt.Sprintf("cache %d/%d", cacheHits, committed)
	}
	span.End(note)
	timer.End(phase, committed, note)
	return committed
}

// commit computes exports and local scopes of doc and installs them. Nothing
// is mutated unless every step succeeds: the store install is the only step
// that can still refuse, so it runs before the index swap.
func (w *Workspace) commit(ctx context.Context, doc *ast.Document) ([]symbols.Descriptor, bool, error) {
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopeDocument, "document:"+doc.ID, trace.CurrentSpan(ctx))
	defer span.End("")

	exports, hit := w.cachedExports(ctx, doc)
	if !hit {
		var err error
		exports, err = symbols.ComputeExports(ctx, doc)
		if err != nil {
			return nil, false, err
		}
	}
	locals, err := symbols.ComputeLocalScopes(ctx, doc)
	if err != nil {
		return nil, false, err
	}
	if err := ctx.Err(); err != nil {
		return nil, false, err
	}
	for _, d := range exports {
		if d.Document != doc.ID || d.Version != doc.Version {
			return nil, false, fmt.Errorf("%w: %s for %s version %d", index.ErrForeignDescriptor, d, doc.ID, doc.Version)
		}
	}

	if err := w.store.Install(doc, locals); err != nil {
		return nil, false, err
	}
	if err := w.index.ReplaceDocument(doc.ID, exports); err != nil {
		return nil, false, err
	}
	if !hit {
		w.storeExports(ctx, doc, exports)
	}
	span.WithExtra("exports", strconv.Itoa(len(exports)))
	return exports, hit, nil
}

func (w *Workspace) cachedExports(ctx context.Context, doc *ast.Document) ([]symbols.Descriptor, bool) {
	if w.opts.Cache == nil {
		return nil, false
	}
	f := w.store.Files().Get(doc.File)
	if f == nil {
		return nil, false
	}
	exports, ok, err := w.opts.Cache.Get(f.Hash, doc.ID, doc.Version)
	if err != nil {
		trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache read failed", err.Error(), trace.CurrentSpan(ctx))
		return nil, false
	}
	return exports, ok
}

func (w *Workspace) storeExports(ctx context.Context, doc *ast.Document, exports []symbols.Descriptor) {
	if w.opts.Cache == nil {
		return
	}
	f := w.store.Files().Get(doc.File)
	if f == nil {
		return
	}
	if err := w.opts.Cache.Put(f.Hash, exports); err != nil {
		trace.Point(trace.FromContext(ctx), trace.ScopeDriver, "cache write failed", err.Error(), trace.CurrentSpan(ctx))
	}
}

// linkPhase links every outcome in state Indexed. With refetch, every
// document is re-read and changed ones are re-committed before anything is
// linked, so all links see the same index.
func (w *Workspace) linkPhase(ctx context.Context, outcomes []Outcome, timer *observ.Timer, refetch bool) {
	if refetch {
		w.refetchPhase(ctx, outcomes, timer)
	}
	phase := timer.Begin("link")
	tracer := trace.FromContext(ctx)
	span := trace.Begin(tracer, trace.ScopePass, "link", trace.CurrentSpan(ctx))
	ctx = trace.WithSpan(ctx, span)

	linked := 0
	for i := range outcomes {
		out := &outcomes[i]
		if out.Status != StatusIndexed {
			continue
		}
		if err := ctx.Err(); err != nil {
			w.fail(out, StatusLinkFailed, StageLink, err)
			continue
		}
		doc, err := w.store.AST(out.Document)
		if err != nil {
			w.fail(out, StatusLinkFailed, StageLink, fmt.Errorf("%w: %s", ErrVanished, out.Document))
			continue
		}
		if err := w.link(ctx, doc, out); err != nil {
			w.fail(out, StatusLinkFailed, StageLink, err)
			continue
		}
		linked++
	}
	span.End("")
	timer.End(phase, linked, "")
}

// refetchPhase re-reads every indexed document. Missing documents fail with
// ErrVanished; changed ones are re-committed.
func (w *Workspace) refetchPhase(ctx context.Context, outcomes []Outcome, timer *observ.Timer) {
	phase := timer.Begin("refetch")
	changed := 0
	for i := range outcomes {
		out := &outcomes[i]
		if out.Status != StatusIndexed {
			continue
		}
		if err := ctx.Err(); err != nil {
			w.fail(out, StatusLinkFailed, StageLink, err)
			continue
		}
		recommitted, err := w.refetch(ctx, out.Document)
		if err != nil {
			w.fail(out, StatusLinkFailed, StageLink, err)
			continue
		}
		if recommitted {
			changed++
		}
	}
	timer.End(phase, changed, "")
}

// refetch reads id again and re-commits it when its content changed.
func (w *Workspace) refetch(ctx context.Context, id string) (bool, error) {
	current, err := w.store.AST(id)
	if err != nil {
		return false, fmt.Errorf("%w: %s", ErrVanished, id)
	}
	doc, err := w.store.Read(ctx, id)
	if err != nil {
		if errors.Is(err, document.ErrNotFound) {
			return false, fmt.Errorf("%w: %s", ErrVanished, id)
		}
		return false, err
	}
	if w.sameContent(current, doc) {
		return false, nil
	}
	if _, _, err := w.commit(ctx, doc); err != nil {
		return false, err
	}
	return true, nil
}

func (w *Workspace) sameContent(a, b *ast.Document) bool {
	fa, fb := w.store.Files().Get(a.File), w.store.Files().Get(b.File)
	return fa != nil && fb != nil && fa.Hash == fb.Hash
}

// link resolves doc's references into out and advances its state.
func (w *Workspace) link(ctx context.Context, doc *ast.Document, out *Outcome) error {
	w.emit(Event{Document: doc.ID, Stage: StageLink, Status: StatusWorking})
	started := time.Now()
	bag := diag.NewBag(w.opts.MaxDiagnostics)
	links, err := linker.Link(ctx, doc, w.provider, linker.Options{
		Validate: w.opts.Validate,
		Locals:   w.store.Locals(doc.ID),
	}, diag.NewDedupReporter(diag.BagReporter{Bag: bag}))
	if err != nil {
		return err
	}
	state := document.StateLinked
	if w.opts.Validate {
		state = document.StateValidated
	}
	if err := w.store.SetState(doc.ID, state); err != nil {
		return fmt.Errorf("%w: %w", ErrVanished, err)
	}
	out.Status = StatusLinked
	out.Err = nil
	out.Links = links
	out.Diags.Merge(bag)
	w.emit(Event{Document: doc.ID, Stage: StageLink, Status: StatusDone, Elapsed: time.Since(started)})
	if w.opts.Hooks.OnLinked != nil {
		w.opts.Hooks.OnLinked(doc, links)
	}
	return nil
}

func (w *Workspace) fail(out *Outcome, status LoadStatus, stage Stage, err error) {
	out.Status = status
	out.Err = err
	out.Links = nil
	if code, ok := codeFor(err); ok {
		out.Diags.Add(diag.NewError(code, diag.Location{Document: out.Document}, err.Error()))
	}
	w.emit(Event{Document: out.Document, Stage: stage, Status: StatusError, Err: err})
}

// codeFor maps a failure to a diagnostic code. Cancellation is not a finding.
func codeFor(err error) (diag.Code, bool) {
	switch {
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return 0, false
	case errors.Is(err, ErrVanished):
		return diag.IOVanished, true
	case errors.Is(err, ast.ErrTooDeep):
		return diag.ContractTooDeep, true
	case errors.Is(err, naming.ErrNotExportable):
		return diag.ContractNotExportable, true
	case errors.Is(err, ast.ErrMalformed):
		return diag.IODecodeError, true
	default:
		return diag.IOLoadFileError, true
	}
}

func (w *Workspace) emit(ev Event) {
	if w.opts.Progress != nil {
		w.opts.Progress.OnEvent(ev)
	}
}
