// Package project reads workspace manifests and finds model documents.
package project

import (
	"fmt"
	"path/filepath"
	"runtime"
	"strings"

	"github.com/BurntSushi/toml"

	"aasify/internal/source"
	"aasify/internal/trace"
)

// Config mirrors aasify.toml.
type Config struct {
	Workspace WorkspaceConfig `toml:"workspace"`
	Load      LoadConfig      `toml:"load"`
	Cache     CacheConfig     `toml:"cache"`
	Trace     TraceConfig     `toml:"trace"`
}

type WorkspaceConfig struct {
	Root       string   `toml:"root"`
	Extensions []string `toml:"extensions"`
	Files      []string `toml:"files"`
}

type LoadConfig struct {
	Jobs     int  `toml:"jobs"`
	Validate bool `toml:"validate"`
	Refetch  bool `toml:"refetch"`
}

type CacheConfig struct {
	Dir     string `toml:"dir"`
	Enabled bool   `toml:"enabled"`
}

type TraceConfig struct {
	Level  string `toml:"level"`
	Output string `toml:"output"`
}

// Manifest is a loaded aasify.toml with its location.
type Manifest struct {
	Path   string
	Root   string // directory holding the manifest
	Config Config
}

// DefaultConfig is used when no manifest exists and for keys a manifest omits.
func DefaultConfig() Config {
	return Config{
		Workspace: WorkspaceConfig{Root: ".", Extensions: []string{".json"}},
		Load:      LoadConfig{Jobs: runtime.GOMAXPROCS(0), Validate: true},
		Trace:     TraceConfig{Level: "off", Output: "-"},
	}
}

// LoadManifest finds and parses the manifest above startDir. Without a
// manifest it returns defaults rooted at startDir and ok=false.
func LoadManifest(startDir string) (*Manifest, bool, error) {
	path, ok, err := FindManifest(startDir)
	if err != nil {
		return nil, false, err
	}
	if !ok {
		root, err := filepath.Abs(startDir)
		if err != nil {
			return nil, false, err
		}
		return &Manifest{Root: root, Config: DefaultConfig()}, false, nil
	}
	cfg, err := LoadConfigFile(path)
	if err != nil {
		return nil, true, err
	}
	return &Manifest{Path: path, Root: filepath.Dir(path), Config: cfg}, true, nil
}

// LoadConfigFile parses one manifest, filling omitted keys with defaults.
func LoadConfigFile(path string) (Config, error) {
	cfg := DefaultConfig()
	meta, err := toml.DecodeFile(path, &cfg)
	if err != nil {
		return Config{}, fmt.Errorf("%s: failed to parse TOML: %w", path, err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return Config{}, fmt.Errorf("%s: unknown key %s", path, undecoded[0])
	}
	if meta.IsDefined("workspace", "extensions") && len(cfg.Workspace.Extensions) == 0 {
		return Config{}, fmt.Errorf("%s: [workspace].extensions must not be empty", path)
	}
	for _, ext := range cfg.Workspace.Extensions {
		if !strings.HasPrefix(ext, ".") {
			return Config{}, fmt.Errorf("%s: extension %q must start with '.'", path, ext)
		}
	}
	if cfg.Load.Jobs < 0 {
		return Config{}, fmt.Errorf("%s: [load].jobs must not be negative", path)
	}
	if !meta.IsDefined("load", "jobs") || cfg.Load.Jobs == 0 {
		cfg.Load.Jobs = runtime.GOMAXPROCS(0)
	}
	if _, err := trace.ParseLevel(cfg.Trace.Level); err != nil {
		return Config{}, fmt.Errorf("%s: [trace].level: %w", path, err)
	}
	return cfg, nil
}

// WorkspaceRoot returns the absolute directory documents are discovered in.
func (m *Manifest) WorkspaceRoot() string {
	root := m.Config.Workspace.Root
	if root == "" {
		root = "."
	}
	if !filepath.IsAbs(root) {
		root = filepath.Join(m.Root, root)
	}
	return source.NormalizePath(root)
}

// DocumentIDs lists the documents of the workspace: the explicit [workspace].files
// in manifest order, or every discovered file otherwise.
func (m *Manifest) DocumentIDs() ([]string, error) {
	root := m.WorkspaceRoot()
	if len(m.Config.Workspace.Files) == 0 {
		return Discover(root, m.Config.Workspace.Extensions)
	}
	ids := make([]string, 0, len(m.Config.Workspace.Files))
	for _, f := range m.Config.Workspace.Files {
		if !filepath.IsAbs(f) {
			f = filepath.Join(root, filepath.FromSlash(f))
		}
		ids = append(ids, source.NormalizePath(f))
	}
	return ids, nil
}
