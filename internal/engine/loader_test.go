package engine

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsukumogami/envy/internal/graph"
	"github.com/tsukumogami/envy/internal/phase"
)

func writeScript(t *testing.T, dir, name, body string) string {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.WriteFile(path, []byte(body), 0o644))
	return path
}

func TestLoadScriptParsesDependencyKinds(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "recipe.star", `
DEPENDENCIES = [
    {"spec": "acme.curl@8.0", "source": "/recipes/curl.star"},
    {"spec": "acme.zlib", "weak": {"spec": "acme.zlib@1.3", "source": "/recipes/zlib.star"}},
    {"spec": "acme.openssl"},
    {"product": "python3", "provider": "acme.python@3.11"},
]

PRODUCTS = {"bin": "bin/acme", "lib": "lib/libacme.so"}

KIND = "user_managed"

def CHECK():
    return False
`)

	scr, err := LoadScript(path)
	require.NoError(t, err)
	require.Len(t, scr.Dependencies, 4)

	strong := scr.Dependencies[0]
	assert.Equal(t, graph.Strong, strong.Kind)
	assert.Equal(t, "acme.curl@8.0", strong.Query)
	assert.Equal(t, "/recipes/curl.star", strong.Source)
	assert.Equal(t, phase.Check, strong.NeededBy)

	weak := scr.Dependencies[1]
	assert.Equal(t, graph.WeakWithFallback, weak.Kind)
	assert.Equal(t, "acme.zlib", weak.Query)
	require.NotNil(t, weak.FallbackConfig)
	assert.Equal(t, "acme", weak.FallbackConfig.Namespace)
	assert.Equal(t, "zlib", weak.FallbackConfig.Name)
	assert.Equal(t, "1.3", weak.FallbackConfig.Version)
	assert.Equal(t, "/recipes/zlib.star", weak.FallbackConfig.Source)

	ref := scr.Dependencies[2]
	assert.Equal(t, graph.ReferenceOnly, ref.Kind)
	assert.Equal(t, "acme.openssl", ref.Query)

	prod := scr.Dependencies[3]
	assert.Equal(t, graph.Product, prod.Kind)
	assert.Equal(t, "python3", prod.Query)
	assert.Equal(t, "acme.python@3.11", prod.Provider)

	assert.Equal(t, map[string]string{"bin": "bin/acme", "lib": "lib/libacme.so"}, scr.Products)
	assert.Equal(t, graph.UserManaged, scr.Kind)

	fn, ok := scr.PhaseFunc(phase.Check)
	assert.True(t, ok)
	assert.NotNil(t, fn)

	_, ok = scr.PhaseFunc(phase.Fetch)
	assert.False(t, ok)
}

func TestLoadScriptDefaultsKindToCacheManaged(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "recipe.star", "DEPENDENCIES = []\n")

	scr, err := LoadScript(path)
	require.NoError(t, err)
	assert.Equal(t, graph.CacheManaged, scr.Kind)
	assert.Empty(t, scr.Dependencies)
}

func TestLoadScriptRejectsNonListDependencies(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "recipe.star", `DEPENDENCIES = "not-a-list"`)

	_, err := LoadScript(path)
	assert.Error(t, err)
}

func TestLoadScriptRejectsMissingFile(t *testing.T) {
	_, err := LoadScript(filepath.Join(t.TempDir(), "missing.star"))
	assert.Error(t, err)
}

func TestLoadScriptNeededByOverride(t *testing.T) {
	dir := t.TempDir()
	path := writeScript(t, dir, "recipe.star", `
DEPENDENCIES = [
    {"spec": "acme.curl@8.0", "source": "/recipes/curl.star", "needed_by": "build"},
]
`)
	scr, err := LoadScript(path)
	require.NoError(t, err)
	require.Len(t, scr.Dependencies, 1)
	assert.Equal(t, phase.Build, scr.Dependencies[0].NeededBy)
}
