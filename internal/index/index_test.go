package index

import (
	"errors"
	"fmt"
	"sync"
	"testing"

	"aasify/internal/ast"
	"aasify/internal/symbols"
)

func descs(doc string, names ...string) []symbols.Descriptor {
	out := make([]symbols.Descriptor, 0, len(names))
	for i, name := range names {
		out = append(out, symbols.Descriptor{
			Name:          name,
			QualifiedName: "SubmodelDefinitions." + name,
			Kind:          ast.KindSubmodelDefinitions,
			Document:      doc,
			Version:       1,
			Node:          ast.NodeID(i + 2),
		})
	}
	return out
}

func forDocument(all []symbols.Descriptor, doc string) []symbols.Descriptor {
	var out []symbols.Descriptor
	for _, d := range all {
		if d.Document == doc {
			out = append(out, d)
		}
	}
	return out
}

func TestReplaceDocumentIdempotent(t *testing.T) {
	ix := New()
	x := descs("d", "A", "B")
	if err := ix.ReplaceDocument("d", x); err != nil {
		t.Fatalf("replace: %v", err)
	}
	first := forDocument(ix.AllSymbols(), "d")
	if err := ix.ReplaceDocument("d", x); err != nil {
		t.Fatalf("replace: %v", err)
	}
	second := forDocument(ix.AllSymbols(), "d")
	if len(first) != 2 || len(second) != 2 {
		t.Fatalf("unexpected sizes %d, %d", len(first), len(second))
	}
	for i := range first {
		if first[i] != second[i] {
			t.Fatalf("entry %d changed: %v vs %v", i, first[i], second[i])
		}
	}
}

func TestReplaceDocumentDropsPriorEntries(t *testing.T) {
	ix := New()
	_ = ix.ReplaceDocument("d", descs("d", "A", "B", "C"))
	_ = ix.ReplaceDocument("d", descs("d", "Z"))
	got := ix.Symbols("d")
	if len(got) != 1 || got[0].Name != "Z" {
		t.Fatalf("Symbols = %v", got)
	}
}

func TestReplaceDocumentCopiesInput(t *testing.T) {
	ix := New()
	in := descs("d", "A")
	_ = ix.ReplaceDocument("d", in)
	in[0].Name = "mutated"
	if got := ix.Symbols("d")[0].Name; got != "A" {
		t.Fatalf("index shares caller slice: %q", got)
	}
}

func TestReplaceDocumentRejectsForeign(t *testing.T) {
	ix := New()
	err := ix.ReplaceDocument("d", descs("other", "A"))
	if !errors.Is(err, ErrForeignDescriptor) {
		t.Fatalf("expected ErrForeignDescriptor, got %v", err)
	}
	if ix.Contains("d") {
		t.Fatalf("rejected commit must not mutate the index")
	}
}

func TestRemoveDocument(t *testing.T) {
	ix := New()
	_ = ix.ReplaceDocument("a", descs("a", "A"))
	_ = ix.ReplaceDocument("b", descs("b", "B"))
	gen := ix.Generation()
	ix.RemoveDocument("a")
	for _, d := range ix.AllSymbols() {
		if d.Document == "a" {
			t.Fatalf("descriptor of removed document still present: %v", d)
		}
	}
	if ix.Generation() == gen {
		t.Fatalf("generation not bumped")
	}
	gen = ix.Generation()
	ix.RemoveDocument("missing")
	if ix.Generation() != gen {
		t.Fatalf("removing an absent document must be a no-op")
	}
}

func TestAllSymbolsOrder(t *testing.T) {
	ix := New()
	_ = ix.ReplaceDocument("b", descs("b", "B1", "B2"))
	_ = ix.ReplaceDocument("a", descs("a", "A1", "A2"))
	all := ix.AllSymbols()
	want := []string{"A1", "A2", "B1", "B2"}
	for i, name := range want {
		if all[i].Name != name {
			t.Fatalf("AllSymbols = %v", all)
		}
	}
	if ix.Len() != 4 {
		t.Fatalf("Len = %d", ix.Len())
	}
	docs := ix.Documents()
	if len(docs) != 2 || docs[0] != "a" {
		t.Fatalf("Documents = %v", docs)
	}
}

func TestReplaceDocumentAtomicForReaders(t *testing.T) {
	ix := New()
	small := descs("d", "A", "B", "C")
	large := descs("d", "A", "B", "C", "D", "E")
	_ = ix.ReplaceDocument("d", small)

	var wg sync.WaitGroup
	stop := make(chan struct{})
	errs := make(chan error, 4)
	for r := 0; r < 4; r++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			for {
				select {
				case <-stop:
					return
				default:
				}
				n := len(forDocument(ix.AllSymbols(), "d"))
				if n != len(small) && n != len(large) {
					errs <- fmt.Errorf("torn read: %d entries", n)
					return
				}
			}
		}()
	}
	for i := 0; i < 2000; i++ {
		if i%2 == 0 {
			_ = ix.ReplaceDocument("d", large)
		} else {
			_ = ix.ReplaceDocument("d", small)
		}
	}
	close(stop)
	wg.Wait()
	close(errs)
	for err := range errs {
		t.Fatal(err)
	}
}

func TestClear(t *testing.T) {
	ix := New()
	_ = ix.ReplaceDocument("a", descs("a", "A"))
	ix.Clear()
	if ix.Len() != 0 || len(ix.Documents()) != 0 {
		t.Fatalf("index not cleared")
	}
}
