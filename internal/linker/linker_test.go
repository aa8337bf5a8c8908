package linker

import (
	"context"
	"testing"

	"aasify/internal/ast"
	"aasify/internal/diag"
	"aasify/internal/index"
	"aasify/internal/scope"
	"aasify/internal/symbols"
	"aasify/internal/testkit"
)

func setup(t *testing.T, docs ...*ast.Document) *scope.Provider {
	t.Helper()
	ix := index.New()
	for _, doc := range docs {
		exports, err := symbols.ComputeExports(context.Background(), doc)
		if err != nil {
			t.Fatalf("exports %s: %v", doc.ID, err)
		}
		if err := ix.ReplaceDocument(doc.ID, exports); err != nil {
			t.Fatalf("replace %s: %v", doc.ID, err)
		}
	}
	return scope.NewProvider(ix)
}

func codes(bag *diag.Bag) []diag.Code {
	var out []diag.Code
	for _, d := range bag.Items() {
		out = append(out, d.Code)
	}
	return out
}

func TestLinkCrossDocument(t *testing.T) {
	m1 := testkit.Document("m1", 1, testkit.AAS("Robot", "Assembly"))
	m2 := testkit.Document("m2", 1, testkit.Submodel("Assembly"))
	p := setup(t, m1, m2)

	bag := diag.NewBag(10)
	bindings, err := Link(context.Background(), m1, p, Options{}, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if len(bindings) != 1 {
		t.Fatalf("got %d bindings, want 1", len(bindings))
	}
	target, ok := bindings[0].Target()
	if !ok || target.QualifiedName != "SubmodelDefinitions.Assembly" || target.Document != "m2" {
		t.Fatalf("target = %v, %v", target, ok)
	}
	if bindings[0].Path != "/aas_elements@0/submodels@0" {
		t.Fatalf("path = %q", bindings[0].Path)
	}
	if bag.Len() != 0 {
		t.Fatalf("unexpected diagnostics %v", codes(bag))
	}
}

func TestLinkUnresolvedAndAmbiguous(t *testing.T) {
	m1 := testkit.Document("m1", 1, testkit.AAS("Robot", "Missing", "Assembly"))
	m2 := testkit.Document("m2", 1, testkit.Submodel("Assembly"))
	m3 := testkit.Document("m3", 1, testkit.Submodel("Assembly"))
	p := setup(t, m1, m2, m3)

	bag := diag.NewBag(10)
	bindings, err := Link(context.Background(), m1, p, Options{}, diag.BagReporter{Bag: bag})
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if len(bindings) != 2 || len(bindings[0].Candidates) != 0 || len(bindings[1].Candidates) != 2 {
		t.Fatalf("unexpected bindings %+v", bindings)
	}
	got := codes(bag)
	if len(got) != 2 || got[0] != diag.LinkUnresolved || got[1] != diag.LinkAmbiguous {
		t.Fatalf("codes = %v", got)
	}
	for _, d := range bag.Items() {
		if d.Severity != diag.SevWarning {
			t.Fatalf("%v reported as %v", d.Code, d.Severity)
		}
	}
}

func TestLinkIgnoresIncompatibleTargets(t *testing.T) {
	m1 := testkit.Document("m1", 1, testkit.AAS("Robot", "Assembly"), testkit.Rules("Assembly"))
	p := setup(t, m1)
	bindings, err := Link(context.Background(), m1, p, Options{}, nil)
	if err != nil {
		t.Fatalf("link: %v", err)
	}
	if len(bindings) != 1 || len(bindings[0].Candidates) != 0 {
		t.Fatalf("rules definition must not satisfy an AAS reference: %+v", bindings)
	}
}

func TestValidateCapital(t *testing.T) {
	tests := []struct {
		name string
		warn bool
	}{
		{"Robot", false},
		{"robot", true},
		{"ärm", true},
		{"1robot", false},
	}
	for _, tt := range tests {
		doc := testkit.Document("m", 1, testkit.AAS(tt.name))
		bag := diag.NewBag(10)
		if _, err := Link(context.Background(), doc, setup(t, doc), Options{Validate: true}, diag.BagReporter{Bag: bag}); err != nil {
			t.Fatalf("%s: link: %v", tt.name, err)
		}
		got := bag.Len() == 1 && bag.Items()[0].Code == diag.ValidateCapital
		if got != tt.warn {
			t.Fatalf("%s: capital warning = %v, want %v (%v)", tt.name, got, tt.warn, codes(bag))
		}
	}
}

func TestValidateDuplicates(t *testing.T) {
	ctx := context.Background()
	m1 := testkit.Document("m1", 1, testkit.Submodel("Assembly"), testkit.Submodel("Assembly"))
	m2 := testkit.Document("m2", 1, testkit.Submodel("Assembly"), testkit.Submodel("Gripper"))
	p := setup(t, m1, m2)
	locals, err := symbols.ComputeLocalScopes(ctx, m1)
	if err != nil {
		t.Fatalf("locals: %v", err)
	}

	bag := diag.NewBag(10)
	if _, err := Link(ctx, m1, p, Options{Validate: true, Locals: locals}, diag.BagReporter{Bag: bag}); err != nil {
		t.Fatalf("link: %v", err)
	}
	got := codes(bag)
	if len(got) != 2 || got[0] != diag.ValidateDuplicate || got[1] != diag.ValidateDuplicate {
		t.Fatalf("codes = %v", got)
	}
	if len(bag.Items()[1].Notes) != 1 || bag.Items()[1].Notes[0].Loc.Document != "m2" {
		t.Fatalf("cross-document note missing: %+v", bag.Items()[1])
	}

	bag = diag.NewBag(10)
	if _, err := Link(ctx, m1, p, Options{}, diag.BagReporter{Bag: bag}); err != nil {
		t.Fatalf("link: %v", err)
	}
	if bag.Len() != 0 {
		t.Fatalf("validation ran without Validate: %v", codes(bag))
	}
}

func TestLinkCancelled(t *testing.T) {
	doc := testkit.Document("m", 1, testkit.AAS("Robot", "Assembly"))
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	if _, err := Link(ctx, doc, setup(t, doc), Options{}, nil); err == nil {
		t.Fatalf("expected cancellation error")
	}
}
