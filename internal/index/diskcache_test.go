package index

import (
	"crypto/sha256"
	"testing"
)

func TestDiskCacheStampsDocument(t *testing.T) {
	cache, err := OpenDiskCache(t.TempDir())
	if err != nil {
		t.Fatalf("open: %v", err)
	}
	key := sha256.Sum256([]byte("content"))
	if _, ok, err := cache.Get(key, "x", 1); ok || err != nil {
		t.Fatalf("expected miss, got ok=%v err=%v", ok, err)
	}
	if err := cache.Put(key, descs("orig", "A", "B")); err != nil {
		t.Fatalf("put: %v", err)
	}
	got, ok, err := cache.Get(key, "copy.json", 7)
	if err != nil || !ok {
		t.Fatalf("expected hit, got ok=%v err=%v", ok, err)
	}
	if len(got) != 2 || got[1].Name != "B" || got[1].QualifiedName != "SubmodelDefinitions.B" {
		t.Fatalf("entries = %v", got)
	}
	if got[0].Document != "copy.json" || got[0].Version != 7 {
		t.Fatalf("entries not stamped with requesting document: %+v", got[0])
	}
	if err := cache.DropAll(); err != nil {
		t.Fatalf("drop: %v", err)
	}
	if _, ok, _ := cache.Get(key, "x", 1); ok {
		t.Fatalf("entry survived DropAll")
	}
}
