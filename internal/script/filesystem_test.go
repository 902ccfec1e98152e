package script

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsukumogami/envy/internal/phase"
	"go.starlark.net/starlark"
)

func newFSTestThread(t *testing.T, runDir string) *starlark.Thread {
	t.Helper()
	thread := &starlark.Thread{Name: "test"}
	Install(thread, &PhaseContext{Phase: phase.Stage, RunDir: runDir})
	return thread
}

func TestBuiltinCopyCreatesDestination(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0o644))

	thread := newFSTestThread(t, dir)
	_, err := builtinCopy(thread, nil, starlark.Tuple{starlark.String("a.txt"), starlark.String("b.txt")}, nil)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "a.txt"), "copy must not remove the source")
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
}

func TestBuiltinMoveRefusesToOverwrite(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0o644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "b.txt"), []byte("already here"), 0o644))

	thread := newFSTestThread(t, dir)
	_, err := builtinMove(thread, nil, starlark.Tuple{starlark.String("a.txt"), starlark.String("b.txt")}, nil)
	assert.Error(t, err)
}

func TestBuiltinMoveSucceeds(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0o644))

	thread := newFSTestThread(t, dir)
	_, err := builtinMove(thread, nil, starlark.Tuple{starlark.String("a.txt"), starlark.String("b.txt")}, nil)
	require.NoError(t, err)

	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
	assert.FileExists(t, filepath.Join(dir, "b.txt"))
}

func TestBuiltinCopyTargetsDirectoryByBasename(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.Mkdir(filepath.Join(dir, "out"), 0o755))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0o644))

	thread := newFSTestThread(t, dir)
	_, err := builtinCopy(thread, nil, starlark.Tuple{starlark.String("a.txt"), starlark.String("out")}, nil)
	require.NoError(t, err)

	assert.FileExists(t, filepath.Join(dir, "out", "a.txt"))
}

func TestBuiltinRemove(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "a.txt"), []byte("hi"), 0o644))

	thread := newFSTestThread(t, dir)
	_, err := builtinRemove(thread, nil, starlark.Tuple{starlark.String("a.txt")}, nil)
	require.NoError(t, err)
	assert.NoFileExists(t, filepath.Join(dir, "a.txt"))
}

func TestFilesystemBindingsRequireContext(t *testing.T) {
	thread := &starlark.Thread{Name: "no-context"}
	_, err := builtinCopy(thread, nil, starlark.Tuple{starlark.String("a"), starlark.String("b")}, nil)
	assert.Error(t, err)
}
