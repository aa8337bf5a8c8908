package workspace

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	ignore "github.com/sabhiram/go-gitignore"

	"aasify/internal/testkit"
)

type watchState struct {
	changed  []string
	removed  bool
	extra    bool
	linkedTo string
}

func TestWatchAppliesUpdatesAndRemovals(t *testing.T) {
	dir := t.TempDir()
	a := writeModel(t, dir, "a.json", testkit.AAS("Robot", "Assembly"))
	b := writeModel(t, dir, "b.json", testkit.Submodel("Assembly"))
	c := writeModel(t, dir, "c.json", testkit.Submodel("Other"))

	ws := Open(Options{})
	load(t, ws, a, b, c)

	ctx, cancel := context.WithCancel(context.Background())
	defer cancel()
	ready := make(chan struct{})
	states := make(chan watchState, 16)
	done := make(chan error, 1)
	go func() {
		done <- ws.Watch(ctx, dir, WatchOptions{
			Extensions: []string{".json"},
			Debounce:   50 * time.Millisecond,
			OnReady:    func() { close(ready) },
			OnBatch: func(changed []string, outcomes []Outcome) {
				st := watchState{changed: changed, removed: !ws.Index().Contains(c)}
				for _, d := range ws.Index().Symbols(b) {
					if d.QualifiedName == "SubmodelDefinitions.Extra" {
						st.extra = true
					}
				}
				for _, out := range outcomes {
					if out.Document != a || out.Status != StatusLinked || len(out.Links) != 1 {
						continue
					}
					if target, ok := out.Links[0].Target(); ok {
						st.linkedTo = target.Document
					}
				}
				states <- st
			},
		})
	}()

	select {
	case <-ready:
	case err := <-done:
		t.Fatalf("watch stopped early: %v", err)
	case <-time.After(5 * time.Second):
		t.Fatalf("watch never became ready")
	}

	writeModel(t, dir, "b.json", testkit.Submodel("Assembly"), testkit.Submodel("Extra"))
	if err := os.Remove(c); err != nil {
		t.Fatalf("remove: %v", err)
	}

	deadline := time.After(10 * time.Second)
	for {
		select {
		case st := <-states:
			if st.removed && st.extra && st.linkedTo == b {
				if err := ws.Verify(context.Background()); err != nil {
					t.Fatalf("verify: %v", err)
				}
				cancel()
				if err := <-done; err != nil {
					t.Fatalf("watch: %v", err)
				}
				return
			}
		case err := <-done:
			t.Fatalf("watch stopped early: %v", err)
		case <-deadline:
			t.Fatalf("changes never applied: removed=%v extra=%v",
				!ws.Index().Contains(c), len(ws.Index().Symbols(b)) == 2)
		}
	}
}

func TestWatchedFiltersPaths(t *testing.T) {
	root := filepath.FromSlash("/work")
	gi := ignore.CompileIgnoreLines("ignored/", "*.draft.json")
	exts := []string{".JSON"}

	cases := map[string]bool{
		"model.json":          true,
		"nested/model.json":   true,
		"model.aasx":          false,
		".hidden.json":        false,
		"model.json~":         false,
		"model.json.swp":      false,
		"plan.draft.json":     false,
		"ignored/model.json":  false,
		"nested/a.draft.json": false,
	}
	for rel, want := range cases {
		path := filepath.Join(root, filepath.FromSlash(rel))
		if got := watched(path, root, exts, gi); got != want {
			t.Fatalf("watched(%s) = %v, want %v", rel, got, want)
		}
	}
	if !watched(filepath.Join(root, "plan.draft.json"), root, exts, nil) {
		t.Fatalf("without a .gitignore every matching extension is watched")
	}
	if !watched(filepath.Join(root, "any.txt"), root, nil, nil) {
		t.Fatalf("no extensions means every file is watched")
	}
}

func TestSkipWatchDir(t *testing.T) {
	root := filepath.FromSlash("/work")
	gi := ignore.CompileIgnoreLines("ignored/")

	cases := []struct {
		rel  string
		want bool
	}{
		{"models", false},
		{"node_modules", true},
		{".git", true},
		{"ignored", true},
		{"models/ignored", true},
	}
	for _, tc := range cases {
		path := filepath.Join(root, filepath.FromSlash(tc.rel))
		if got := skipWatchDir(path, filepath.Base(path), root, gi); got != tc.want {
			t.Fatalf("skipWatchDir(%s) = %v, want %v", tc.rel, got, tc.want)
		}
	}
	if skipWatchDir(filepath.Join(root, "ignored"), "ignored", root, nil) {
		t.Fatalf("without a .gitignore only dot and node_modules dirs are skipped")
	}
}
