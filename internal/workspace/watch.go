package workspace

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"time"

	"github.com/fsnotify/fsnotify"
	ignore "github.com/sabhiram/go-gitignore"

	"aasify/internal/source"
)

// WatchOptions configures Watch.
type WatchOptions struct {
	// Extensions selects the documents to follow, e.g. ".json".
	Extensions []string
	// Debounce is the quiet period before a batch is applied.
	Debounce time.Duration
	// OnBatch is called after each applied batch with the changed paths and
	// the outcomes of relinking the whole workspace.
	OnBatch func(changed []string, outcomes []Outcome)
	// OnReady is called once every directory is being watched.
	OnReady func()
}

// Watch follows root for document changes until ctx is done. Changed files
// are re-indexed with Update, removed files are unloaded, then the whole
// workspace is relinked so references into changed documents are refreshed.
func (w *Workspace) Watch(ctx context.Context, root string, opts WatchOptions) error {
	root, err := filepath.Abs(root)
	if err != nil {
		return err
	}
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return err
	}
	defer watcher.Close()

	gi, err := ignore.CompileIgnoreFile(filepath.Join(root, ".gitignore"))
	if err != nil {
		gi = nil
	}
	if err := addWatchRecursive(watcher, root, root, gi); err != nil {
		return err
	}
	if opts.OnReady != nil {
		opts.OnReady()
	}

	debounce := opts.Debounce
	if debounce <= 0 {
		debounce = 200 * time.Millisecond
	}
	timer := time.NewTimer(time.Hour)
	if !timer.Stop() {
		<-timer.C
	}
	pending := map[string]bool{}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			path := filepath.Clean(event.Name)
			if event.Op&fsnotify.Create != 0 {
				if info, statErr := os.Stat(path); statErr == nil && info.IsDir() {
					_ = addWatchRecursive(watcher, path, root, gi)
					continue
				}
			}
			if event.Op&(fsnotify.Create|fsnotify.Write|fsnotify.Remove|fsnotify.Rename) == 0 {
				continue
			}
			if !watched(path, root, opts.Extensions, gi) {
				continue
			}
			pending[source.NormalizePath(path)] = true
			timer.Reset(debounce)
		case <-timer.C:
			if len(pending) == 0 {
				continue
			}
			changed := make([]string, 0, len(pending))
			for path := range pending {
				changed = append(changed, path)
			}
			sort.Strings(changed)
			pending = map[string]bool{}
			outcomes, err := w.applyChanges(ctx, changed)
			if err != nil {
				return err
			}
			if opts.OnBatch != nil {
				opts.OnBatch(changed, outcomes)
			}
		case watchErr, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			return watchErr
		}
	}
}

// applyChanges updates or unloads each changed path, then relinks everything.
func (w *Workspace) applyChanges(ctx context.Context, changed []string) ([]Outcome, error) {
	for _, path := range changed {
		if _, err := os.Stat(path); errors.Is(err, fs.ErrNotExist) {
			if _, err := w.Unload(path); err != nil {
				return nil, err
			}
			continue
		}
		out, err := w.Update(ctx, path)
		if err != nil {
			return nil, err
		}
		if out.Status == StatusIndexFailed && ctx.Err() != nil {
			return nil, nil
		}
	}
	return w.Relink(ctx)
}

func addWatchRecursive(watcher *fsnotify.Watcher, dir, root string, gi *ignore.GitIgnore) error {
	return filepath.WalkDir(filepath.Clean(dir), func(path string, entry os.DirEntry, walkErr error) error {
		if walkErr != nil {
			return walkErr
		}
		if !entry.IsDir() {
			return nil
		}
		if path != root && skipWatchDir(path, entry.Name(), root, gi) {
			return filepath.SkipDir
		}
		return watcher.Add(path)
	})
}

func skipWatchDir(path, name, root string, gi *ignore.GitIgnore) bool {
	if name == "node_modules" || strings.HasPrefix(name, ".") {
		return true
	}
	if gi == nil {
		return false
	}
	rel, err := filepath.Rel(root, path)
	return err == nil && gi.MatchesPath(filepath.ToSlash(rel)+"/")
}

func watched(path, root string, exts []string, gi *ignore.GitIgnore) bool {
	base := filepath.Base(path)
	if strings.HasPrefix(base, ".") || strings.HasSuffix(base, "~") || strings.HasSuffix(base, ".swp") {
		return false
	}
	ext := strings.ToLower(filepath.Ext(base))
	match := len(exts) == 0
	for _, e := range exts {
		if strings.ToLower(e) == ext {
			match = true
			break
		}
	}
	if !match {
		return false
	}
	if gi != nil {
		if rel, err := filepath.Rel(root, path); err == nil && gi.MatchesPath(filepath.ToSlash(rel)) {
			return false
		}
	}
	return true
}
