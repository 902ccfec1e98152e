package fetchio

import (
	"os"
	"path/filepath"

	"github.com/tsukumogami/envy/internal/errmsg"
)

// CommitItem is one entry of the commit_fetch() binding's argument: a
// filename relative to tmp_dir, with an optional checksum verified before
// the move.
type CommitItem struct {
	Filename string
	Sha256   string
}

// CommitFetch moves each item from tmpDir to fetchDir atomically (per
// file), verifying Sha256 first when given. Requires an active cache lock,
// enforced by the caller (internal/script) rather than here.
func CommitFetch(tmpDir, fetchDir string, items []CommitItem) error {
	if err := os.MkdirAll(fetchDir, 0o755); err != nil {
		return &errmsg.CacheError{Message: "commit_fetch: cannot create fetch_dir", Err: err}
	}

	for _, item := range items {
		src := filepath.Join(tmpDir, item.Filename)

		if item.Sha256 != "" {
			ok, err := VerifyHash(src, item.Sha256)
			if err != nil {
				return err
			}
			if !ok {
				return &errmsg.FetchError{Source: src, Expected: item.Sha256}
			}
		}

		dst := filepath.Join(fetchDir, item.Filename)
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return &errmsg.FilesystemError{Op: "commit_fetch", Path: dst, Err: err}
		}
		if err := os.Rename(src, dst); err != nil {
			return &errmsg.FilesystemError{Op: "commit_fetch", Path: src, Err: err}
		}
	}
	return nil
}
