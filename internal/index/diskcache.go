package index

import (
	"encoding/hex"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/vmihailenco/msgpack/v5"

	"aasify/internal/ast"
	"aasify/internal/symbols"
)

// Current schema version - increment when the payload format changes.
const diskCacheSchemaVersion uint16 = 1

// DiskCache stores computed exports on disk keyed by document content hash.
// A cached list is document-agnostic; Get stamps it with the requesting
// document id and version. Safe for concurrent use.
type DiskCache struct {
	mu  sync.RWMutex
	dir string
}

type diskPayload struct {
	Schema  uint16         `msgpack:"schema"`
	Symbols []cachedSymbol `msgpack:"symbols"`
}

type cachedSymbol struct {
	Name          string `msgpack:"n"`
	QualifiedName string `msgpack:"q"`
	Kind          uint8  `msgpack:"k"`
	Node          uint32 `msgpack:"id"`
	Path          string `msgpack:"p"`
}

// OpenDiskCache opens (creating if needed) the cache at dir. An empty dir
// selects $XDG_CACHE_HOME/aasify or ~/.cache/aasify.
func OpenDiskCache(dir string) (*DiskCache, error) {
	if dir == "" {
		base := os.Getenv("XDG_CACHE_HOME")
		if base == "" {
			home, err := os.UserHomeDir()
			if err != nil {
				return nil, err
			}
			base = filepath.Join(home, ".cache")
		}
		dir = filepath.Join(base, "aasify")
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, err
	}
	return &DiskCache{dir: dir}, nil
}

// Dir returns the cache directory.
func (c *DiskCache) Dir() string {
	if c == nil {
		return ""
	}
	return c.dir
}

func (c *DiskCache) pathFor(key [32]byte) string {
	return filepath.Join(c.dir, "exports", hex.EncodeToString(key[:])+".mp")
}

// Put writes descs under key. The file is replaced atomically.
func (c *DiskCache) Put(key [32]byte, descs []symbols.Descriptor) (err error) {
	if c == nil {
		return nil
	}
	payload := diskPayload{
		Schema:  diskCacheSchemaVersion,
		Symbols: make([]cachedSymbol, len(descs)),
	}
	for i, d := range descs {
		payload.Symbols[i] = cachedSymbol{
			Name:          d.Name,
			QualifiedName: d.QualifiedName,
			Kind:          uint8(d.Kind),
			Node:          uint32(d.Node),
			Path:          d.Path,
		}
	}

	c.mu.Lock()
	defer c.mu.Unlock()

	p := c.pathFor(key)
	if err := os.MkdirAll(filepath.Dir(p), 0o755); err != nil {
		return err
	}
	f, err := os.CreateTemp(filepath.Dir(p), "tmp-*")
	if err != nil {
		return err
	}
	defer func() {
		if removeErr := os.Remove(f.Name()); removeErr != nil && !errors.Is(removeErr, os.ErrNotExist) && err == nil {
			err = removeErr
		}
	}()

	if err := msgpack.NewEncoder(f).Encode(&payload); err != nil {
		_ = f.Close()
		return err
	}
	if err := f.Close(); err != nil {
		return err
	}
	return os.Rename(f.Name(), p)
}

// Get loads the exports cached under key and stamps them with doc and version.
func (c *DiskCache) Get(key [32]byte, doc string, version uint64) ([]symbols.Descriptor, bool, error) {
	if c == nil {
		return nil, false, nil
	}
	c.mu.RLock()
	defer c.mu.RUnlock()

	f, err := os.Open(c.pathFor(key))
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return nil, false, nil
		}
		return nil, false, err
	}
	defer f.Close()

	var payload diskPayload
	if err := msgpack.NewDecoder(f).Decode(&payload); err != nil {
		return nil, false, fmt.Errorf("decode cache entry: %w", err)
	}
	if payload.Schema != diskCacheSchemaVersion {
		return nil, false, nil
	}
	descs := make([]symbols.Descriptor, len(payload.Symbols))
	for i, s := range payload.Symbols {
		descs[i] = symbols.Descriptor{
			Name:          s.Name,
			QualifiedName: s.QualifiedName,
			Kind:          ast.Kind(s.Kind),
			Document:      doc,
			Version:       version,
			Node:          ast.NodeID(s.Node),
			Path:          s.Path,
		}
	}
	return descs, true, nil
}

// DropAll removes every cached entry.
func (c *DiskCache) DropAll() error {
	if c == nil {
		return nil
	}
	c.mu.Lock()
	defer c.mu.Unlock()
	return os.RemoveAll(filepath.Join(c.dir, "exports"))
}
