package workspace

import (
	"context"

	"aasify/internal/diag"
	"aasify/internal/document"
	"aasify/internal/observ"
	"aasify/internal/trace"
)

// Update re-reads one document, replaces its index entries and links it.
// Other documents are not relinked; use Relink after a batch of updates.
func (w *Workspace) Update(ctx context.Context, id string) (Outcome, error) {
	if w.closed.Load() {
		return Outcome{}, ErrClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	span := trace.Begin(trace.FromContext(ctx), trace.ScopeDocument, "update:"+id, trace.CurrentSpan(ctx))
	defer span.End("")
	ctx = trace.WithSpan(ctx, span)

	out := Outcome{Document: id, Diags: diag.NewBag(w.opts.MaxDiagnostics)}
	doc, err := w.store.Read(ctx, id)
	if err != nil {
		w.fail(&out, StatusIndexFailed, StageIndex, err)
		return out, nil
	}
	exports, _, err := w.commit(ctx, doc)
	if err != nil {
		w.fail(&out, StatusIndexFailed, StageIndex, err)
		return out, nil
	}
	out.Status = StatusIndexed
	if w.opts.Hooks.OnIndexed != nil {
		w.opts.Hooks.OnIndexed(doc, exports)
	}
	if w.opts.SkipLink {
		return out, nil
	}
	if err := w.link(ctx, doc, &out); err != nil {
		w.fail(&out, StatusLinkFailed, StageLink, err)
	}
	return out, nil
}

// Relink links every indexed document again against the current index,
// in sorted document order.
func (w *Workspace) Relink(ctx context.Context) ([]Outcome, error) {
	if w.closed.Load() {
		return nil, ErrClosed
	}
	w.mu.Lock()
	defer w.mu.Unlock()

	var outcomes []Outcome
	for _, id := range w.store.Documents() {
		if w.store.State(id) < document.StateIndexed {
			continue
		}
		outcomes = append(outcomes, Outcome{
			Document: id,
			Status:   StatusIndexed,
			Diags:    diag.NewBag(w.opts.MaxDiagnostics),
		})
	}
	timer := observ.NewTimer()
	w.linkPhase(ctx, outcomes, timer, false)
	w.timer.Store(timer)
	return outcomes, nil
}
