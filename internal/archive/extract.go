package archive

import (
	"archive/tar"
	"archive/zip"
	"compress/gzip"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/klauspost/compress/zstd"
	lzip "github.com/sorairolake/lzip-go"
	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/ulikunitz/xz"
)

// Extract unpacks archivePath into dest, stripping the first strip leading
// path components of every entry, and returns the number of files produced.
// See spec.md §4.5.
func Extract(archivePath, dest string, strip int) (int, error) {
	format := DetectFormat(archivePath)
	switch format {
	case Zip:
		return extractZip(archivePath, dest, strip)
	case Tar, TarGzip, TarZstd, TarXz, TarLzip:
		return extractTar(archivePath, dest, strip, format)
	default:
		return 0, &errmsg.FilesystemError{Op: "extract", Path: archivePath, Err: fmt.Errorf("unrecognized archive format")}
	}
}

func extractZip(archivePath, dest string, strip int) (int, error) {
	r, err := zip.OpenReader(archivePath)
	if err != nil {
		return 0, &errmsg.FilesystemError{Op: "extract", Path: archivePath, Err: err}
	}
	defer r.Close()

	count := 0
	for _, f := range r.File {
		name, ok := stripComponents(f.Name, strip)
		if !ok {
			continue
		}
		target, err := safeJoin(dest, name)
		if err != nil {
			return count, &errmsg.FilesystemError{Op: "extract", Path: f.Name, Err: err}
		}

		if f.FileInfo().IsDir() {
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, &errmsg.FilesystemError{Op: "extract", Path: target, Err: err}
			}
			continue
		}

		if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
			return count, &errmsg.FilesystemError{Op: "extract", Path: target, Err: err}
		}
		rc, err := f.Open()
		if err != nil {
			return count, &errmsg.FilesystemError{Op: "extract", Path: f.Name, Err: err}
		}
		if err := writeFile(target, rc, f.Mode()); err != nil {
			rc.Close()
			return count, err
		}
		rc.Close()
		count++
	}
	return count, nil
}

func extractTar(archivePath, dest string, strip int, format Format) (int, error) {
	f, err := os.Open(archivePath)
	if err != nil {
		return 0, &errmsg.FilesystemError{Op: "extract", Path: archivePath, Err: err}
	}
	defer f.Close()

	var r io.Reader = f
	switch format {
	case TarGzip:
		gz, err := gzip.NewReader(f)
		if err != nil {
			return 0, &errmsg.FilesystemError{Op: "extract", Path: archivePath, Err: err}
		}
		defer gz.Close()
		r = gz
	case TarZstd:
		zr, err := zstd.NewReader(f)
		if err != nil {
			return 0, &errmsg.FilesystemError{Op: "extract", Path: archivePath, Err: err}
		}
		defer zr.Close()
		r = zr
	case TarXz:
		xr, err := xz.NewReader(f)
		if err != nil {
			return 0, &errmsg.FilesystemError{Op: "extract", Path: archivePath, Err: err}
		}
		r = xr
	case TarLzip:
		lr, err := lzip.NewReader(f)
		if err != nil {
			return 0, &errmsg.FilesystemError{Op: "extract", Path: archivePath, Err: err}
		}
		r = lr
	}

	tr := tar.NewReader(r)
	count := 0
	for {
		hdr, err := tr.Next()
		if err == io.EOF {
			break
		}
		if err != nil {
			return count, &errmsg.FilesystemError{Op: "extract", Path: archivePath, Err: err}
		}

		name, ok := stripComponents(hdr.Name, strip)
		if !ok {
			continue
		}
		target, err := safeJoin(dest, name)
		if err != nil {
			return count, &errmsg.FilesystemError{Op: "extract", Path: hdr.Name, Err: err}
		}

		switch hdr.Typeflag {
		case tar.TypeDir:
			if err := os.MkdirAll(target, 0o755); err != nil {
				return count, &errmsg.FilesystemError{Op: "extract", Path: target, Err: err}
			}
		case tar.TypeReg:
			if err := os.MkdirAll(filepath.Dir(target), 0o755); err != nil {
				return count, &errmsg.FilesystemError{Op: "extract", Path: target, Err: err}
			}
			if err := writeFile(target, tr, os.FileMode(hdr.Mode)); err != nil {
				return count, err
			}
			count++
		default:
			// Symlinks and other special entries are not part of the
			// supported asset surface; skip rather than fail the phase.
		}
	}
	return count, nil
}

func writeFile(target string, r io.Reader, mode os.FileMode) error {
	out, err := os.OpenFile(target, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, mode)
	if err != nil {
		return &errmsg.FilesystemError{Op: "extract", Path: target, Err: err}
	}
	defer out.Close()
	if _, err := io.Copy(out, r); err != nil {
		return &errmsg.FilesystemError{Op: "extract", Path: target, Err: err}
	}
	return nil
}

// stripComponents drops the first n leading path segments of name. ok is
// false if stripping removes the whole path (the entry is the stripped
// root itself and should be skipped).
func stripComponents(name string, n int) (string, bool) {
	parts := strings.Split(filepath.ToSlash(name), "/")
	var nonEmpty []string
	for _, p := range parts {
		if p != "" {
			nonEmpty = append(nonEmpty, p)
		}
	}
	if n >= len(nonEmpty) {
		return "", false
	}
	return filepath.Join(nonEmpty[n:]...), true
}

// safeJoin joins dest and name, rejecting any result that escapes dest
// (a zip-slip / path-traversal guard).
func safeJoin(dest, name string) (string, error) {
	target := filepath.Join(dest, name)
	destAbs, err := filepath.Abs(dest)
	if err != nil {
		return "", err
	}
	targetAbs, err := filepath.Abs(target)
	if err != nil {
		return "", err
	}
	if targetAbs != destAbs && !strings.HasPrefix(targetAbs, destAbs+string(os.PathSeparator)) {
		return "", fmt.Errorf("entry %q escapes destination %q", name, dest)
	}
	return target, nil
}
