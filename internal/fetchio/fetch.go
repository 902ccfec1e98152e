package fetchio

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"io"
	"os"
	"path/filepath"

	"github.com/tsukumogami/envy/internal/errmsg"
)

// Item is one entry of the fetch() binding's source argument.
type Item struct {
	Source string
	Sha256 string // optional; verified against the downloaded file
}

// Fetch downloads each item in order into destDir using f, resolving
// destination-basename collisions per spec.md §4.5, and returns the
// resolved basenames in input order.
func Fetch(ctx context.Context, f Fetcher, items []Item, destDir string) ([]string, error) {
	if err := os.MkdirAll(destDir, 0o755); err != nil {
		return nil, &errmsg.FetchError{Dest: destDir, Err: err}
	}

	taken, err := existingBasenames(destDir)
	if err != nil {
		return nil, err
	}

	basenames := make([]string, 0, len(items))
	for _, item := range items {
		base := filepath.Base(item.Source)
		resolved := ResolveBasename(taken, base)
		target := filepath.Join(destDir, resolved)

		out, err := os.Create(target)
		if err != nil {
			return nil, &errmsg.FetchError{Source: item.Source, Dest: target, Err: err}
		}

		hasher := sha256.New()
		w := io.MultiWriter(out, hasher)
		fetchErr := f.Fetch(ctx, item.Source, w)
		out.Close()
		if fetchErr != nil {
			os.Remove(target)
			return nil, &errmsg.FetchError{Source: item.Source, Dest: target, Err: fetchErr}
		}

		if item.Sha256 != "" {
			actual := hex.EncodeToString(hasher.Sum(nil))
			if actual != item.Sha256 {
				os.Remove(target)
				return nil, &errmsg.FetchError{Source: item.Source, Dest: target, Expected: item.Sha256, Actual: actual}
			}
		}

		basenames = append(basenames, resolved)
	}
	return basenames, nil
}

func existingBasenames(dir string) (map[string]bool, error) {
	entries, err := os.ReadDir(dir)
	if err != nil {
		return nil, &errmsg.FetchError{Dest: dir, Err: err}
	}
	taken := make(map[string]bool, len(entries))
	for _, e := range entries {
		taken[e.Name()] = true
	}
	return taken, nil
}

// VerifyHash reports whether path's SHA-256 digest equals want.
func VerifyHash(path, want string) (bool, error) {
	f, err := os.Open(path)
	if err != nil {
		return false, &errmsg.FilesystemError{Op: "verify_hash", Path: path, Err: err}
	}
	defer f.Close()

	hasher := sha256.New()
	if _, err := io.Copy(hasher, f); err != nil {
		return false, &errmsg.FilesystemError{Op: "verify_hash", Path: path, Err: err}
	}
	return hex.EncodeToString(hasher.Sum(nil)) == want, nil
}
