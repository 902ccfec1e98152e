package archive

import (
	"archive/tar"
	"archive/zip"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func writeTestTar(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	tw := tar.NewWriter(f)
	defer tw.Close()

	files := map[string]string{
		"root/a.txt":     "hello",
		"root/sub/b.txt": "world",
	}
	for name, body := range files {
		require.NoError(t, tw.WriteHeader(&tar.Header{Name: name, Mode: 0o644, Size: int64(len(body))}))
		_, err := tw.Write([]byte(body))
		require.NoError(t, err)
	}
}

func writeTestZip(t *testing.T, path string) {
	t.Helper()
	f, err := os.Create(path)
	require.NoError(t, err)
	defer f.Close()

	zw := zip.NewWriter(f)
	defer zw.Close()

	w, err := zw.Create("root/a.txt")
	require.NoError(t, err)
	_, err = w.Write([]byte("hello"))
	require.NoError(t, err)
}

func TestExtractTarStripsComponents(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.tar")
	writeTestTar(t, src)

	dest := t.TempDir()
	n, err := Extract(src, dest, 1)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(dest, "a.txt"))
	assert.FileExists(t, filepath.Join(dest, "sub", "b.txt"))
}

func TestExtractTarNoStrip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.tar")
	writeTestTar(t, src)

	dest := t.TempDir()
	n, err := Extract(src, dest, 0)
	require.NoError(t, err)
	assert.Equal(t, 2, n)
	assert.FileExists(t, filepath.Join(dest, "root", "a.txt"))
}

func TestExtractZip(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.zip")
	writeTestZip(t, src)

	dest := t.TempDir()
	n, err := Extract(src, dest, 1)
	require.NoError(t, err)
	assert.Equal(t, 1, n)
	assert.FileExists(t, filepath.Join(dest, "a.txt"))
}

func TestExtractUnknownFormat(t *testing.T) {
	src := filepath.Join(t.TempDir(), "a.bin")
	require.NoError(t, os.WriteFile(src, []byte("x"), 0o644))

	_, err := Extract(src, t.TempDir(), 0)
	assert.Error(t, err)
}

func TestExtractAllExtractsEveryArchiveInDir(t *testing.T) {
	srcDir := t.TempDir()
	writeTestTar(t, filepath.Join(srcDir, "a.tar"))
	writeTestZip(t, filepath.Join(srcDir, "b.zip"))
	require.NoError(t, os.WriteFile(filepath.Join(srcDir, "readme.txt"), []byte("skip me"), 0o644))

	dest := t.TempDir()
	n, err := ExtractAll(srcDir, dest, 1)
	require.NoError(t, err)
	assert.Equal(t, 3, n) // 2 from tar + 1 from zip
}

func TestStripComponentsSkipsWhenTooDeep(t *testing.T) {
	_, ok := stripComponents("a/b.txt", 5)
	assert.False(t, ok)
}

func TestSafeJoinRejectsTraversal(t *testing.T) {
	_, err := safeJoin("/tmp/dest", "../../etc/passwd")
	assert.Error(t, err)
}
