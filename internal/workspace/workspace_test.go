package workspace

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"

	"aasify/internal/ast"
	"aasify/internal/diag"
	"aasify/internal/document"
	"aasify/internal/index"
	"aasify/internal/source"
	"aasify/internal/symbols"
	"aasify/internal/testkit"
)

func writeModel(t *testing.T, dir, name string, defs ...testkit.Def) string {
	t.Helper()
	path := source.NormalizePath(filepath.Join(dir, name))
	if err := os.WriteFile(path, testkit.JSON(defs...), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func load(t *testing.T, ws *Workspace, ids ...string) []Outcome {
	t.Helper()
	outcomes, err := ws.Load(context.Background(), ids)
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if len(outcomes) != len(ids) {
		t.Fatalf("got %d outcomes for %d documents", len(outcomes), len(ids))
	}
	return outcomes
}

func hasCode(bag *diag.Bag, code diag.Code) bool {
	for _, d := range bag.Items() {
		if d.Code == code {
			return true
		}
	}
	return false
}

func TestLoadResolvesAcrossDocuments(t *testing.T) {
	dir := t.TempDir()
	m1 := writeModel(t, dir, "m1.json", testkit.AAS("Robot", "Assembly"))
	m2 := writeModel(t, dir, "m2.json", testkit.Submodel("Assembly"))

	ws := Open(Options{})
	outcomes := load(t, ws, m1, m2)
	for _, out := range outcomes {
		if out.Status != StatusLinked {
			t.Fatalf("%s: status %v (%v)", out.Document, out.Status, out.Err)
		}
	}
	links := outcomes[0].Links
	if len(links) != 1 {
		t.Fatalf("m1 has %d links, want 1", len(links))
	}
	target, ok := links[0].Target()
	if !ok || target.QualifiedName != "SubmodelDefinitions.Assembly" || target.Document != m2 {
		t.Fatalf("target = %v, %v", target, ok)
	}
	if err := ws.Verify(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestLoadOrderIndependent(t *testing.T) {
	dir := t.TempDir()
	a := writeModel(t, dir, "a.json", testkit.AAS("Robot", "Gripper"), testkit.Submodel("Assembly"))
	b := writeModel(t, dir, "b.json", testkit.AAS("Arm", "Assembly"), testkit.Submodel("Gripper"))

	targets := func(ids ...string) map[string]string {
		out := map[string]string{}
		for _, o := range load(t, Open(Options{}), ids...) {
			for _, l := range o.Links {
				tgt, ok := l.Target()
				if !ok {
					t.Fatalf("%s: %q unresolved", o.Document, l.Ref.Text)
				}
				out[o.Document+l.Path] = tgt.Document + tgt.Path
			}
		}
		return out
	}
	ab, ba := targets(a, b), targets(b, a)
	if len(ab) != 2 || len(ab) != len(ba) {
		t.Fatalf("link counts differ: %v vs %v", ab, ba)
	}
	for k, v := range ab {
		if ba[k] != v {
			t.Fatalf("%s resolved to %s in one order and %s in the other", k, v, ba[k])
		}
	}
}

func TestUnresolvedReferenceStillLinks(t *testing.T) {
	m := writeModel(t, t.TempDir(), "m.json", testkit.AAS("Robot", "Nowhere"))
	out := load(t, Open(Options{}), m)[0]
	if out.Status != StatusLinked || out.Err != nil {
		t.Fatalf("status %v, err %v", out.Status, out.Err)
	}
	if !hasCode(out.Diags, diag.LinkUnresolved) {
		t.Fatalf("missing unresolved warning")
	}
}

func TestMissingDocumentDoesNotAbortBatch(t *testing.T) {
	dir := t.TempDir()
	good := writeModel(t, dir, "good.json", testkit.Submodel("Assembly"))
	missing := source.NormalizePath(filepath.Join(dir, "missing.json"))
	broken := source.NormalizePath(filepath.Join(dir, "broken.json"))
	if err := os.WriteFile(broken, []byte("{not json"), 0o600); err != nil {
		t.Fatalf("write: %v", err)
	}

	ws := Open(Options{})
	outcomes := load(t, ws, missing, broken, good)
	if outcomes[0].Status != StatusIndexFailed || !errors.Is(outcomes[0].Err, document.ErrNotFound) {
		t.Fatalf("missing: %v %v", outcomes[0].Status, outcomes[0].Err)
	}
	if !hasCode(outcomes[0].Diags, diag.IOLoadFileError) {
		t.Fatalf("missing: no load diagnostic")
	}
	if outcomes[1].Status != StatusIndexFailed || !errors.Is(outcomes[1].Err, ast.ErrMalformed) {
		t.Fatalf("broken: %v %v", outcomes[1].Status, outcomes[1].Err)
	}
	if !hasCode(outcomes[1].Diags, diag.IODecodeError) {
		t.Fatalf("broken: no decode diagnostic")
	}
	if outcomes[2].Status != StatusLinked {
		t.Fatalf("good: %v %v", outcomes[2].Status, outcomes[2].Err)
	}
	if docs := ws.Index().Documents(); len(docs) != 1 || docs[0] != good {
		t.Fatalf("index documents = %v", docs)
	}
}

func TestCancelledBeforeLoad(t *testing.T) {
	m := writeModel(t, t.TempDir(), "m.json", testkit.Submodel("Assembly"))
	ws := Open(Options{})
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	outcomes, err := ws.Load(ctx, []string{m})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if outcomes[0].Status != StatusIndexFailed || !errors.Is(outcomes[0].Err, context.Canceled) {
		t.Fatalf("status %v err %v", outcomes[0].Status, outcomes[0].Err)
	}
	if outcomes[0].Diags.Len() != 0 {
		t.Fatalf("cancellation reported as a finding")
	}
	if ws.Index().Len() != 0 {
		t.Fatalf("cancelled load mutated the index")
	}
}

func TestCancelMidBatchKeepsEarlierCommits(t *testing.T) {
	dir := t.TempDir()
	first := writeModel(t, dir, "first.json", testkit.Submodel("Assembly"))
	second := writeModel(t, dir, "second.json", testkit.Submodel("Gripper"))
	third := writeModel(t, dir, "third.json", testkit.Submodel("Base"))

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ws := Open(Options{Hooks: Hooks{OnIndexed: func(doc *ast.Document, _ []symbols.Descriptor) {
		if doc.ID == first {
			cancel()
		}
	}}})
	outcomes, err := ws.Load(ctx, []string{first, second, third})
	if err != nil {
		t.Fatalf("load: %v", err)
	}
	if outcomes[0].Status != StatusLinkFailed || !errors.Is(outcomes[0].Err, context.Canceled) {
		t.Fatalf("first: %v %v", outcomes[0].Status, outcomes[0].Err)
	}
	for _, out := range outcomes[1:] {
		if out.Status != StatusIndexFailed || !errors.Is(out.Err, context.Canceled) {
			t.Fatalf("%s: %v %v", out.Document, out.Status, out.Err)
		}
	}
	if docs := ws.Index().Documents(); len(docs) != 1 || docs[0] != first {
		t.Fatalf("index documents = %v, want only the first", docs)
	}
}

func TestVanishedBeforeLinking(t *testing.T) {
	dir := t.TempDir()
	gone := writeModel(t, dir, "gone.json", testkit.AAS("Robot", "Assembly"))
	stays := writeModel(t, dir, "stays.json", testkit.Submodel("Assembly"))

	ws := Open(Options{Refetch: true, Hooks: Hooks{OnIndexed: func(doc *ast.Document, _ []symbols.Descriptor) {
		if doc.ID == stays {
			if err := os.Remove(gone); err != nil {
				t.Errorf("remove: %v", err)
			}
		}
	}}})
	outcomes := load(t, ws, gone, stays)
	if outcomes[0].Status != StatusLinkFailed || !errors.Is(outcomes[0].Err, ErrVanished) {
		t.Fatalf("gone: %v %v", outcomes[0].Status, outcomes[0].Err)
	}
	if !hasCode(outcomes[0].Diags, diag.IOVanished) {
		t.Fatalf("gone: missing vanished diagnostic")
	}
	if outcomes[1].Status != StatusLinked {
		t.Fatalf("stays: %v %v", outcomes[1].Status, outcomes[1].Err)
	}
}

func TestRefetchCompletesBeforeLinking(t *testing.T) {
	dir := t.TempDir()
	m1 := writeModel(t, dir, "m1.json", testkit.AAS("Robot", "Gripper"))
	m2 := writeModel(t, dir, "m2.json", testkit.Submodel("Assembly"))

	ws := Open(Options{Refetch: true, Hooks: Hooks{OnIndexed: func(doc *ast.Document, _ []symbols.Descriptor) {
		if doc.ID == m2 {
			writeModel(t, dir, "m2.json", testkit.Submodel("Gripper"))
		}
	}}})
	outcomes := load(t, ws, m1, m2)
	if outcomes[0].Status != StatusLinked || len(outcomes[0].Links) != 1 {
		t.Fatalf("m1: %v %v", outcomes[0].Status, outcomes[0].Err)
	}
	target, ok := outcomes[0].Links[0].Target()
	if !ok || target.Document != m2 || target.Version != ws.Store().Version(m2) {
		t.Fatalf("m1 must link against the refetched m2, got %v, %v", target, ok)
	}
	if got := ws.Index().Symbols(m2); len(got) != 1 || got[0].Name != "Gripper" {
		t.Fatalf("m2 symbols after refetch = %v", got)
	}
	if err := ws.Verify(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestUnloadAndRelink(t *testing.T) {
	dir := t.TempDir()
	m1 := writeModel(t, dir, "m1.json", testkit.AAS("Robot", "Assembly"))
	m2 := writeModel(t, dir, "m2.json", testkit.Submodel("Assembly"))
	ws := Open(Options{})
	load(t, ws, m1, m2)

	known, err := ws.Unload(m2)
	if err != nil || !known {
		t.Fatalf("unload = %v, %v", known, err)
	}
	if ws.Index().Contains(m2) || ws.Store().Has(m2) {
		t.Fatalf("unloaded document still present")
	}
	for _, d := range ws.Symbols() {
		if d.Document == m2 {
			t.Fatalf("index still lists %v", d)
		}
	}
	outcomes, err := ws.Relink(context.Background())
	if err != nil {
		t.Fatalf("relink: %v", err)
	}
	if len(outcomes) != 1 || !hasCode(outcomes[0].Diags, diag.LinkUnresolved) {
		t.Fatalf("relink outcomes = %+v", outcomes)
	}
	if known, _ := ws.Unload(m2); known {
		t.Fatalf("second unload reported a known document")
	}
	if err := ws.Verify(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestUpdateReplacesEntries(t *testing.T) {
	dir := t.TempDir()
	m := writeModel(t, dir, "m.json", testkit.Submodel("Assembly"), testkit.Submodel("Gripper"))
	ws := Open(Options{})
	load(t, ws, m)
	writeModel(t, dir, "m.json", testkit.Submodel("Base"))

	out, err := ws.Update(context.Background(), m)
	if err != nil || out.Status != StatusLinked {
		t.Fatalf("update = %v, %v (%v)", out.Status, err, out.Err)
	}
	got := ws.Index().Symbols(m)
	if len(got) != 1 || got[0].QualifiedName != "SubmodelDefinitions.Base" || got[0].Version != 2 {
		t.Fatalf("symbols after update = %v", got)
	}
	if err := ws.Verify(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestLoadRepeatedIDKeepsIndexConsistent(t *testing.T) {
	dir := t.TempDir()
	m := writeModel(t, dir, "m.json", testkit.AAS("Robot", "Assembly"), testkit.Submodel("Assembly"))

	for i := 0; i < 50; i++ {
		ws := Open(Options{Jobs: 2})
		outcomes := load(t, ws, m, m)
		for _, out := range outcomes {
			if out.Document != m || out.Status != StatusLinked {
				t.Fatalf("run %d: %s: %v (%v)", i, out.Document, out.Status, out.Err)
			}
		}
		if len(outcomes[0].Links) != 1 || len(outcomes[1].Links) != 1 {
			t.Fatalf("run %d: links = %d and %d, want 1 each", i, len(outcomes[0].Links), len(outcomes[1].Links))
		}
		if err := ws.Verify(context.Background()); err != nil {
			t.Fatalf("run %d: verify: %v", i, err)
		}
		if got := ws.Index().Symbols(m); len(got) == 0 || got[0].Version != ws.Store().Version(m) {
			t.Fatalf("run %d: index at %v, store at %d", i, got, ws.Store().Version(m))
		}
	}
}

func TestSupersededCommitChangesNothing(t *testing.T) {
	dir := t.TempDir()
	m := writeModel(t, dir, "m.json", testkit.Submodel("Assembly"))
	ws := Open(Options{})
	load(t, ws, m)

	stale, err := ws.Store().Read(context.Background(), m)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	writeModel(t, dir, "m.json", testkit.Submodel("Base"))
	if out, err := ws.Update(context.Background(), m); err != nil || out.Status != StatusLinked {
		t.Fatalf("update = %v, %v", out.Status, err)
	}

	if _, _, err := ws.commit(context.Background(), stale); !errors.Is(err, document.ErrStaleDescriptor) {
		t.Fatalf("stale commit err = %v, want ErrStaleDescriptor", err)
	}
	got := ws.Index().Symbols(m)
	if len(got) != 1 || got[0].Name != "Base" {
		t.Fatalf("index after stale commit = %v", got)
	}
	if err := ws.Verify(context.Background()); err != nil {
		t.Fatalf("verify: %v", err)
	}
}

func TestSkipLinkAndValidateStates(t *testing.T) {
	m := writeModel(t, t.TempDir(), "m.json", testkit.AAS("robot"))

	ws := Open(Options{SkipLink: true})
	if out := load(t, ws, m)[0]; out.Status != StatusIndexed || out.Links != nil {
		t.Fatalf("skip link: %v", out.Status)
	}
	if st := ws.Store().State(m); st != document.StateIndexed {
		t.Fatalf("state = %v", st)
	}

	ws = Open(Options{Validate: true})
	out := load(t, ws, m)[0]
	if out.Status != StatusLinked || !hasCode(out.Diags, diag.ValidateCapital) {
		t.Fatalf("validate: %v %v", out.Status, out.Diags.Items())
	}
	if st := ws.Store().State(m); st != document.StateValidated {
		t.Fatalf("state = %v", st)
	}
}

type recordingSink struct {
	mu     sync.Mutex
	events []Event
}

func (s *recordingSink) OnEvent(ev Event) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.events = append(s.events, ev)
}

func TestProgressEvents(t *testing.T) {
	dir := t.TempDir()
	m1 := writeModel(t, dir, "m1.json", testkit.AAS("Robot", "Assembly"))
	m2 := writeModel(t, dir, "m2.json", testkit.Submodel("Assembly"))
	sink := &recordingSink{}
	load(t, Open(Options{Progress: sink, Jobs: 2}), m1, m2)

	done := map[Stage]int{}
	lastLinkIndex := -1
	firstLinkIndex := len(sink.events)
	lastIndexDone := -1
	for i, ev := range sink.events {
		if ev.Status == StatusDone {
			done[ev.Stage]++
		}
		if ev.Stage == StageLink {
			firstLinkIndex = min(firstLinkIndex, i)
			lastLinkIndex = i
		}
		if ev.Stage == StageIndex && ev.Status == StatusDone {
			lastIndexDone = i
		}
	}
	if done[StageRead] != 2 || done[StageIndex] != 2 || done[StageLink] != 2 {
		t.Fatalf("done counts = %v", done)
	}
	if lastIndexDone > firstLinkIndex || lastLinkIndex < 0 {
		t.Fatalf("linking started before indexing finished")
	}
}

func TestDiskCacheHit(t *testing.T) {
	dir := t.TempDir()
	m := writeModel(t, dir, "m.json", testkit.Submodel("Assembly"))
	cache, err := index.OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("cache: %v", err)
	}
	first := Open(Options{Cache: cache})
	load(t, first, m)
	second := Open(Options{Cache: cache})
	load(t, second, m)

	phases := second.Timings().Phases()
	var note string
	for _, p := range phases {
		if p.Name == "index" {
			note = p.Note
		}
	}
	if note != "cache 1/1" {
		t.Fatalf("index note = %q", note)
	}
	if err := second.Verify(context.Background()); err != nil {
		t.Fatalf("verify with cached exports: %v", err)
	}
}

func TestClose(t *testing.T) {
	m := writeModel(t, t.TempDir(), "m.json", testkit.Submodel("Assembly"))
	ws := Open(Options{})
	load(t, ws, m)
	if err := ws.Close(); err != nil {
		t.Fatalf("close: %v", err)
	}
	if ws.Index().Len() != 0 {
		t.Fatalf("index not cleared")
	}
	if _, err := ws.Load(context.Background(), []string{m}); !errors.Is(err, ErrClosed) {
		t.Fatalf("load after close: %v", err)
	}
	if err := ws.Close(); !errors.Is(err, ErrClosed) {
		t.Fatalf("second close: %v", err)
	}
}

func TestLoadStatusString(t *testing.T) {
	for st, want := range map[LoadStatus]string{
		StatusIndexFailed: "index-failed", StatusIndexed: "indexed",
		StatusLinkFailed: "link-failed", StatusLinked: "linked",
	} {
		if st.String() != want {
			t.Fatalf("%d: %q", st, st.String())
		}
		if st.Failed() != strings.HasSuffix(want, "failed") {
			t.Fatalf("%s: Failed() = %v", want, st.Failed())
		}
	}
}
