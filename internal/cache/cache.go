// Package cache implements the content-addressed store of spec.md §4.4: a
// filesystem tree keyed by a recipe's canonical identity hash, with scoped
// entry locks that expose fetch/tmp/stage/install staging directories.
package cache

import (
	"os"
	"path/filepath"
	"sync"

	lru "github.com/hashicorp/golang-lru/v2"
)

// Store is the engine's content-addressed cache. One Store exists per
// process, rooted at $CACHE_ROOT/assets.
type Store struct {
	root string

	mu    sync.Mutex
	locks map[string]*sync.Mutex // per-entry hash -> its exclusive lock

	// memo caches recently-promoted entries' install directories so
	// repeated lookups for the same identity hash avoid a stat call.
	memo *lru.Cache[string, string]
}

// New returns a Store rooted at root. root is typically
// filepath.Join(config.DefaultCacheRoot(), "assets").
func New(root string) (*Store, error) {
	memo, err := lru.New[string, string](1024)
	if err != nil {
		return nil, err
	}
	return &Store{
		root:  root,
		locks: make(map[string]*sync.Mutex),
		memo:  memo,
	}, nil
}

// Root returns the cache's root directory.
func (s *Store) Root() string { return s.root }

// entryDir returns the directory for the entry keyed by hash.
func (s *Store) entryDir(hash string) string {
	return filepath.Join(s.root, hash)
}

// InstallDir returns the promoted install directory for hash, and whether
// it exists (i.e. a prior run completed and promoted this entry).
func (s *Store) InstallDir(hash string) (string, bool) {
	if dir, ok := s.memo.Get(hash); ok {
		return dir, true
	}
	dir := filepath.Join(s.entryDir(hash), "install")
	info, err := os.Stat(dir)
	if err != nil || !info.IsDir() {
		return "", false
	}
	s.memo.Add(hash, dir)
	return dir, true
}

// DirSize walks dir and sums the apparent size of every regular file
// beneath it. Used by callers reporting how much space an install
// directory occupies; errors from individual stat calls are ignored
// since a file can legitimately disappear mid-walk (e.g. concurrent purge).
func DirSize(dir string) (int64, error) {
	var total int64
	err := filepath.Walk(dir, func(path string, info os.FileInfo, err error) error {
		if err != nil {
			return nil
		}
		if !info.IsDir() {
			total += info.Size()
		}
		return nil
	})
	if err != nil {
		return 0, err
	}
	return total, nil
}

// lockFor returns the process-wide mutex guarding hash's entry, creating it
// on first use. The mutex itself is never removed, matching the "at most
// one live lock per entry at any instant" invariant for the life of the
// process.
func (s *Store) lockFor(hash string) *sync.Mutex {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.locks[hash]
	if !ok {
		m = &sync.Mutex{}
		s.locks[hash] = m
	}
	return m
}
