package project

import (
	"os"
	"path/filepath"
	"runtime"
	"strings"
	"testing"
)

func writeFile(t *testing.T, path, content string) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	if err := os.WriteFile(path, []byte(content), 0o600); err != nil {
		t.Fatalf("write %s: %v", path, err)
	}
}

func TestLoadManifestWalksUp(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, ManifestName), `
[workspace]
root = "models"

[load]
jobs = 2
refetch = true
`)
	nested := filepath.Join(root, "models", "deep")
	if err := os.MkdirAll(nested, 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}
	m, ok, err := LoadManifest(nested)
	if err != nil || !ok {
		t.Fatalf("LoadManifest = %v, %v", ok, err)
	}
	if m.Config.Load.Jobs != 2 || !m.Config.Load.Refetch {
		t.Fatalf("load config = %+v", m.Config.Load)
	}
	if !m.Config.Load.Validate {
		t.Fatalf("omitted validate must keep default true")
	}
	if len(m.Config.Workspace.Extensions) != 1 || m.Config.Workspace.Extensions[0] != ".json" {
		t.Fatalf("extensions = %v", m.Config.Workspace.Extensions)
	}
	if !strings.HasSuffix(m.WorkspaceRoot(), "/models") {
		t.Fatalf("workspace root = %q", m.WorkspaceRoot())
	}
}

func TestLoadManifestMissing(t *testing.T) {
	m, ok, err := LoadManifest(t.TempDir())
	if err != nil || ok {
		t.Fatalf("LoadManifest = %v, %v", ok, err)
	}
	if m.Config.Load.Jobs != runtime.GOMAXPROCS(0) {
		t.Fatalf("default jobs = %d", m.Config.Load.Jobs)
	}
}

func TestLoadConfigFileRejects(t *testing.T) {
	tests := map[string]string{
		"unknown key":   "[load]\nspeed = 3\n",
		"bad extension": "[workspace]\nextensions = [\"json\"]\n",
		"bad level":     "[trace]\nlevel = \"loud\"\n",
		"negative jobs": "[load]\njobs = -1\n",
		"syntax":        "[load\n",
	}
	for name, content := range tests {
		path := filepath.Join(t.TempDir(), ManifestName)
		writeFile(t, path, content)
		if _, err := LoadConfigFile(path); err == nil {
			t.Fatalf("%s: expected error", name)
		}
	}
}

func TestDiscover(t *testing.T) {
	root := t.TempDir()
	writeFile(t, filepath.Join(root, "b.json"), "{}")
	writeFile(t, filepath.Join(root, "a", "a.json"), "{}")
	writeFile(t, filepath.Join(root, "a", "notes.txt"), "")
	writeFile(t, filepath.Join(root, ".hidden", "h.json"), "{}")
	writeFile(t, filepath.Join(root, "node_modules", "n.json"), "{}")
	writeFile(t, filepath.Join(root, "gen", "g.json"), "{}")
	writeFile(t, filepath.Join(root, ".gitignore"), "gen/\n")

	got, err := Discover(root, []string{".json"})
	if err != nil {
		t.Fatalf("discover: %v", err)
	}
	if len(got) != 2 || !strings.HasSuffix(got[0], "/a/a.json") || !strings.HasSuffix(got[1], "/b.json") {
		t.Fatalf("discovered %v", got)
	}
}

func TestDocumentIDsExplicitFiles(t *testing.T) {
	root := t.TempDir()
	m := &Manifest{Root: root, Config: DefaultConfig()}
	m.Config.Workspace.Files = []string{"z.json", "a.json"}
	ids, err := m.DocumentIDs()
	if err != nil {
		t.Fatalf("ids: %v", err)
	}
	if len(ids) != 2 || !strings.HasSuffix(ids[0], "/z.json") {
		t.Fatalf("explicit files must keep manifest order: %v", ids)
	}
}

func TestMatches(t *testing.T) {
	if !Matches("/x/model.JSON", []string{".json"}) || Matches("/x/.model.json", []string{".json"}) {
		t.Fatalf("unexpected match result")
	}
}
