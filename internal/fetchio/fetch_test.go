package fetchio

import (
	"context"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// stubFetcher writes a fixed body for each source, ignoring the URL.
type stubFetcher struct {
	bodies map[string]string
}

func (s *stubFetcher) Fetch(_ context.Context, source string, dest io.Writer) error {
	body, ok := s.bodies[source]
	if !ok {
		return fmt.Errorf("stubFetcher: no body for %s", source)
	}
	_, err := dest.Write([]byte(body))
	return err
}

func TestFetchResolvesBasenameCollisions(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{
		"https://a.example/file.txt": "from-a",
		"https://b.example/file.txt": "from-b",
		"https://c.example/file.txt": "from-c",
	}}

	dest := t.TempDir()
	got, err := Fetch(context.Background(), f, []Item{
		{Source: "https://a.example/file.txt"},
		{Source: "https://b.example/file.txt"},
		{Source: "https://c.example/file.txt"},
	}, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"file.txt", "file-2.txt", "file-3.txt"}, got)

	assert.FileExists(t, filepath.Join(dest, "file.txt"))
	assert.FileExists(t, filepath.Join(dest, "file-2.txt"))
	assert.FileExists(t, filepath.Join(dest, "file-3.txt"))
}

func TestFetchVerifiesSha256(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{"https://a.example/a.txt": "hello"}}
	dest := t.TempDir()

	const wrongHash = "0000000000000000000000000000000000000000000000000000000000000000"
	_, err := Fetch(context.Background(), f, []Item{
		{Source: "https://a.example/a.txt", Sha256: wrongHash[:64]},
	}, dest)
	assert.Error(t, err, "wrong checksum must not verify")
}

func TestFetchSuccessfulChecksum(t *testing.T) {
	f := &stubFetcher{bodies: map[string]string{"https://a.example/a.txt": "hello"}}
	dest := t.TempDir()

	const helloSha256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	got, err := Fetch(context.Background(), f, []Item{
		{Source: "https://a.example/a.txt", Sha256: helloSha256},
	}, dest)
	require.NoError(t, err)
	assert.Equal(t, []string{"a.txt"}, got)
}

func TestVerifyHash(t *testing.T) {
	dest := t.TempDir()
	path := filepath.Join(dest, "a.txt")
	require.NoError(t, os.WriteFile(path, []byte("hello"), 0o644))

	const helloSha256 = "2cf24dba5fb0a30e26e83b2ac5b9e29e1b161e5c1fa7425e73043362938b9824"
	ok, err := VerifyHash(path, helloSha256)
	require.NoError(t, err)
	assert.True(t, ok)

	ok, err = VerifyHash(path, "0000000000000000000000000000000000000000000000000000000000000000"[:64])
	require.NoError(t, err)
	assert.False(t, ok)
}
