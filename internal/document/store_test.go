package document

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"testing"

	"aasify/internal/ast"
	"aasify/internal/symbols"
	"aasify/internal/testkit"
)

func writeModel(t *testing.T, dir, name string, defs ...testkit.Def) string {
	t.Helper()
	path := filepath.ToSlash(filepath.Join(dir, name))
	if err := os.WriteFile(path, testkit.JSON(defs...), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
	return path
}

func TestOpenBumpsVersion(t *testing.T) {
	path := writeModel(t, t.TempDir(), "m.json", testkit.Submodel("Assembly"))
	s := NewStore(nil, nil)
	first, err := s.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	second, err := s.Open(context.Background(), path)
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if second.Version <= first.Version {
		t.Fatalf("version did not grow: %d -> %d", first.Version, second.Version)
	}
	if got := s.Version(path); got != second.Version {
		t.Fatalf("Version = %d, want %d", got, second.Version)
	}
	if got := s.State(path); got != StateParsed {
		t.Fatalf("state = %v, want parsed", got)
	}
}

func TestOpenMissing(t *testing.T) {
	s := NewStore(nil, nil)
	_, err := s.Open(context.Background(), filepath.Join(t.TempDir(), "absent.json"))
	if !errors.Is(err, ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}
	if _, err := s.AST("absent.json"); !errors.Is(err, ErrNotFound) {
		t.Fatalf("AST: expected ErrNotFound, got %v", err)
	}
}

func TestReadDoesNotPublish(t *testing.T) {
	path := writeModel(t, t.TempDir(), "m.json", testkit.Submodel("Assembly"))
	s := NewStore(nil, nil)
	doc, err := s.Read(context.Background(), path)
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	if s.Has(path) {
		t.Fatalf("Read published the document")
	}
	s.Publish(doc)
	if !s.Has(path) {
		t.Fatalf("Publish did not install the document")
	}
}

func TestPublishIgnoresOlderVersion(t *testing.T) {
	s := NewStore(nil, nil)
	ctx := context.Background()
	old, err := s.AddVirtual(ctx, "v", testkit.JSON(testkit.Submodel("A")))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	cur, err := s.Open(ctx, "v")
	if err != nil {
		t.Fatalf("reopen: %v", err)
	}
	s.Publish(old)
	got, _ := s.AST("v")
	if got != cur {
		t.Fatalf("older version replaced the current one")
	}
}

func TestInstallRejectsOlderVersion(t *testing.T) {
	s := NewStore(nil, nil)
	ctx := context.Background()
	if _, err := s.AddVirtual(ctx, "v", testkit.JSON(testkit.Submodel("A"))); err != nil {
		t.Fatalf("add: %v", err)
	}
	older, err := s.Read(ctx, "v")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	newer, err := s.Read(ctx, "v")
	if err != nil {
		t.Fatalf("read: %v", err)
	}
	locals, err := symbols.ComputeLocalScopes(ctx, newer)
	if err != nil {
		t.Fatalf("locals: %v", err)
	}
	if err := s.Install(newer, locals); err != nil {
		t.Fatalf("install newer: %v", err)
	}
	if err := s.Install(older, nil); !errors.Is(err, ErrStaleDescriptor) {
		t.Fatalf("expected ErrStaleDescriptor, got %v", err)
	}
	got, _ := s.AST("v")
	if got != newer {
		t.Fatalf("older install replaced the current AST")
	}
	if s.Locals("v") != locals {
		t.Fatalf("older install replaced the local scopes")
	}
	if st := s.State("v"); st != StateIndexed {
		t.Fatalf("state = %v, want indexed", st)
	}
}

func TestResolveDescriptor(t *testing.T) {
	s := NewStore(nil, nil)
	ctx := context.Background()
	doc, err := s.AddVirtual(ctx, "v", testkit.JSON(testkit.Submodel("Assembly")))
	if err != nil {
		t.Fatalf("add: %v", err)
	}
	exports, err := symbols.ComputeExports(ctx, doc)
	if err != nil || len(exports) != 1 {
		t.Fatalf("exports = %v, %v", exports, err)
	}
	n, err := s.Resolve(exports[0])
	if err != nil {
		t.Fatalf("resolve: %v", err)
	}
	if n.Kind != ast.KindSubmodelDefinitions || n.Name != "Assembly" {
		t.Fatalf("resolved %+v", n)
	}

	if _, err := s.Open(ctx, "v"); err != nil {
		t.Fatalf("reopen: %v", err)
	}
	if _, err := s.Resolve(exports[0]); !errors.Is(err, ErrStaleDescriptor) {
		t.Fatalf("after re-parse: expected ErrStaleDescriptor, got %v", err)
	}

	s.Unload("v")
	if _, err := s.Resolve(exports[0]); !errors.Is(err, ErrStaleDescriptor) {
		t.Fatalf("after unload: expected ErrStaleDescriptor, got %v", err)
	}
}

func TestInvalidateKeepsVirtualContent(t *testing.T) {
	s := NewStore(nil, nil)
	ctx := context.Background()
	if _, err := s.AddVirtual(ctx, "v", testkit.JSON(testkit.Submodel("A"))); err != nil {
		t.Fatalf("add: %v", err)
	}
	s.Invalidate("v")
	if s.Has("v") {
		t.Fatalf("invalidated document still published")
	}
	doc, err := s.Open(ctx, "v")
	if err != nil {
		t.Fatalf("reopen virtual: %v", err)
	}
	if doc.Version != 2 {
		t.Fatalf("version = %d, want 2", doc.Version)
	}
}

func TestStateString(t *testing.T) {
	for st, want := range map[State]string{
		StateNone: "none", StateParsed: "parsed", StateIndexed: "indexed",
		StateLinked: "linked", StateValidated: "validated",
	} {
		if st.String() != want {
			t.Fatalf("%d: %q, want %q", st, st.String(), want)
		}
	}
}
