package main

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/spf13/cobra"

	"aasify/internal/diag"
	"aasify/internal/index"
	"aasify/internal/project"
	"aasify/internal/source"
	"aasify/internal/workspace"
)

// session is a workspace opened from the manifest and the command flags.
type session struct {
	manifest *project.Manifest
	ws       *workspace.Workspace
	ids      []string
	color    bool
	format   string
	maxDiags int
	baseDir  string
	cleanup  func()

	// minSeverity hides lower diagnostics from printed output.
	minSeverity diag.Severity
}

type sessionOptions struct {
	refetch    bool
	validate   bool
	skipLink   bool
	clearCache bool
}

// openSession loads the manifest, sets up tracing and opens a workspace.
// Documents come from args (files or directories) or from the manifest.
func openSession(cmd *cobra.Command, args []string, so sessionOptions) (*session, error) {
	root := cmd.Root().PersistentFlags()

	dir, err := root.GetString("dir")
	if err != nil {
		return nil, fmt.Errorf("failed to get dir flag: %w", err)
	}
	colorStr, err := root.GetString("color")
	if err != nil {
		return nil, fmt.Errorf("failed to get color flag: %w", err)
	}
	format, err := root.GetString("format")
	if err != nil {
		return nil, fmt.Errorf("failed to get format flag: %w", err)
	}
	if format != "pretty" && format != "json" {
		return nil, fmt.Errorf("unknown format: %s", format)
	}
	jobs, err := root.GetInt("jobs")
	if err != nil {
		return nil, fmt.Errorf("failed to get jobs flag: %w", err)
	}
	maxDiags, err := root.GetInt("max-diagnostics")
	if err != nil {
		return nil, fmt.Errorf("failed to get max-diagnostics flag: %w", err)
	}
	colored, err := readColorMode(colorStr)
	if err != nil {
		return nil, err
	}

	manifest, _, err := project.LoadManifest(dir)
	if err != nil {
		return nil, err
	}
	cfg := manifest.Config

	cleanup, err := setupTracing(cmd, cfg.Trace)
	if err != nil {
		return nil, err
	}

	ids, err := documentIDs(manifest, args)
	if err != nil {
		cleanup()
		return nil, err
	}

	opts := workspace.Options{
		Jobs:           cfg.Load.Jobs,
		Validate:       cfg.Load.Validate && so.validate,
		Refetch:        cfg.Load.Refetch || so.refetch,
		SkipLink:       so.skipLink,
		MaxDiagnostics: maxDiags,
	}
	if jobs > 0 {
		opts.Jobs = jobs
	}
	if cfg.Cache.Enabled {
		cacheDir := cfg.Cache.Dir
		if cacheDir != "" && !filepath.IsAbs(cacheDir) {
			cacheDir = filepath.Join(manifest.Root, cacheDir)
		}
		cache, err := index.OpenDiskCache(cacheDir)
		if err != nil {
			// a broken cache only costs speed
			fmt.Fprintf(cmd.ErrOrStderr(), "warning: symbol cache disabled: %v\n", err)
		} else {
			opts.Cache = cache
			if so.clearCache {
				if err := cache.DropAll(); err != nil {
					cleanup()
					return nil, fmt.Errorf("failed to clear cache: %w", err)
				}
				fmt.Fprintf(cmd.ErrOrStderr(), "cleared symbol cache %s\n", cache.Dir())
			}
		}
	}

	ws := workspace.Open(opts)

	baseDir, err := os.Getwd()
	if err != nil {
		baseDir = manifest.Root
	}
	return &session{
		manifest: manifest,
		ws:       ws,
		ids:      ids,
		color:    colored,
		format:   format,
		maxDiags: maxDiags,
		baseDir:  baseDir,
		cleanup:  cleanup,
	}, nil
}

func (s *session) Close() {
	_ = s.ws.Close()
	s.cleanup()
}

// documentIDs expands args into normalized document paths. Directories are
// searched with the manifest extensions. Each path appears once, at its first
// mention.
func documentIDs(m *project.Manifest, args []string) ([]string, error) {
	if len(args) == 0 {
		return m.DocumentIDs()
	}
	var ids []string
	seen := make(map[string]bool)
	add := func(id string) {
		if !seen[id] {
			seen[id] = true
			ids = append(ids, id)
		}
	}
	for _, arg := range args {
		abs, err := filepath.Abs(arg)
		if err != nil {
			return nil, err
		}
		info, err := os.Stat(abs)
		if err != nil {
			// missing files are reported per document by the load
			add(source.NormalizePath(abs))
			continue
		}
		if !info.IsDir() {
			add(source.NormalizePath(abs))
			continue
		}
		found, err := project.Discover(abs, m.Config.Workspace.Extensions)
		if err != nil {
			return nil, err
		}
		for _, id := range found {
			add(id)
		}
	}
	return ids, nil
}
