package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/google/uuid"
	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/log"
)

// EntryLock is a scoped, RAII-style exclusive hold on one cache entry. It
// exposes the four staging directories a phase may write into. Promote must
// be called before Release for the entry to survive as a persistent asset;
// otherwise Release purges the tmp and stage areas, per spec.md §4.4.
type EntryLock struct {
	store     *Store
	hash      string
	mu        *sync.Mutex
	ephemeral bool // user-managed: purge everything on release regardless of outcome

	FetchDir   string
	TmpDir     string
	StageDir   string
	InstallDir string

	promoted bool
}

// Acquire blocks until the entry keyed by hash is exclusively held, creates
// its staging directories, and returns the lock. ephemeral marks a
// user-managed recipe's workspace, which is purged unconditionally at
// Release regardless of Promote.
func (s *Store) Acquire(hash string, ephemeral bool) (*EntryLock, error) {
	m := s.lockFor(hash)
	m.Lock()

	entry := s.entryDir(hash)
	l := &EntryLock{
		store:      s,
		hash:       hash,
		mu:         m,
		ephemeral:  ephemeral,
		FetchDir:   filepath.Join(entry, "fetch"),
		TmpDir:     filepath.Join(entry, "tmp", uuid.NewString()),
		StageDir:   filepath.Join(entry, "stage"),
		InstallDir: filepath.Join(entry, "install"),
	}

	for _, dir := range []string{l.FetchDir, l.TmpDir, l.StageDir} {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			m.Unlock()
			return nil, &errmsg.CacheError{Identity: hash, Message: "failed to create staging directory", Err: err}
		}
	}

	log.Default().Debug("cache entry locked", "hash", hash, "ephemeral", ephemeral)
	return l, nil
}

// Promote marks the entry as successfully built; for a non-ephemeral lock,
// Release will then leave InstallDir and StageDir in place and clear only
// tmp.
func (l *EntryLock) Promote() {
	l.promoted = true
}

// Release drops the exclusive hold. If the entry was not promoted (failure,
// or a caller dropping the lock before installation), or the lock was
// acquired ephemerally, the tmp and stage subtrees — and, for ephemeral
// locks, the install subtree too — are purged.
func (l *EntryLock) Release() error {
	defer l.mu.Unlock()

	if err := os.RemoveAll(l.TmpDir); err != nil {
		return &errmsg.CacheError{Identity: l.hash, Message: "failed to purge tmp_dir", Err: err}
	}

	if !l.promoted || l.ephemeral {
		if err := os.RemoveAll(l.StageDir); err != nil {
			return &errmsg.CacheError{Identity: l.hash, Message: "failed to purge stage_dir", Err: err}
		}
	}

	if l.ephemeral {
		if err := os.RemoveAll(l.InstallDir); err != nil {
			return &errmsg.CacheError{Identity: l.hash, Message: "failed to purge install_dir", Err: err}
		}
	}

	if l.promoted && !l.ephemeral {
		if err := os.MkdirAll(l.InstallDir, 0o755); err != nil {
			return &errmsg.CacheError{Identity: l.hash, Message: "failed to finalize install_dir", Err: err}
		}
		l.store.memo.Add(l.hash, l.InstallDir)
	}

	log.Default().Debug("cache entry released", "hash", l.hash, "promoted", l.promoted, "ephemeral", l.ephemeral)
	return nil
}

func (l *EntryLock) String() string {
	return fmt.Sprintf("EntryLock(%s, promoted=%v, ephemeral=%v)", l.hash, l.promoted, l.ephemeral)
}
