package archive

import (
	"os"
	"path/filepath"

	"github.com/tsukumogami/envy/internal/errmsg"
)

// ExtractAll extracts every recognized archive directly inside srcDir into
// destDir, stripping strip leading path components from each, and returns
// the total file count produced across all archives.
func ExtractAll(srcDir, destDir string, strip int) (int, error) {
	entries, err := os.ReadDir(srcDir)
	if err != nil {
		return 0, &errmsg.FilesystemError{Op: "extract", Path: srcDir, Err: err}
	}

	total := 0
	for _, e := range entries {
		if e.IsDir() {
			continue
		}
		path := filepath.Join(srcDir, e.Name())
		if DetectFormat(path) == Unknown {
			continue
		}
		n, err := Extract(path, destDir, strip)
		if err != nil {
			return total, err
		}
		total += n
	}
	return total, nil
}
