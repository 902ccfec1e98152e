package script

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/graph"
	"github.com/tsukumogami/envy/internal/phase"
	"go.starlark.net/starlark"
)

type fakeResolver struct {
	installDir   string
	neededBy     string
	productValue string
	err          error
}

func (f *fakeResolver) ResolvePackage(_ *graph.Recipe, _ string) (string, string, error) {
	return f.installDir, f.neededBy, f.err
}

func (f *fakeResolver) ResolveProduct(_ *graph.Recipe, _ string, _ string) (string, error) {
	return f.productValue, f.err
}

func TestBuiltinPackageReturnsInstallDirWhenPhaseSatisfied(t *testing.T) {
	thread := &starlark.Thread{Name: "test"}
	Install(thread, &PhaseContext{
		Phase:    phase.Build,
		Resolver: &fakeResolver{installDir: "/cache/assets/xyz/install", neededBy: "build"},
	})

	v, err := builtinPackage(thread, nil, starlark.Tuple{starlark.String("local.lib@v1")}, nil)
	require.NoError(t, err)
	assert.Equal(t, starlark.String("/cache/assets/xyz/install"), v)
}

func TestBuiltinPackageRejectsEarlyAccess(t *testing.T) {
	thread := &starlark.Thread{Name: "test"}
	Install(thread, &PhaseContext{
		Phase:    phase.Stage,
		Resolver: &fakeResolver{installDir: "/install", neededBy: "build"},
	})

	_, err := builtinPackage(thread, nil, starlark.Tuple{starlark.String("local.lib@v1")}, nil)
	require.Error(t, err)

	var scriptErr *errmsg.ScriptError
	require.True(t, scriptErrorAs(err, &scriptErr))
	assert.Contains(t, scriptErr.Error(), "stage")
}

func TestBuiltinProductReturnsResolvedValue(t *testing.T) {
	thread := &starlark.Thread{Name: "test"}
	Install(thread, &PhaseContext{
		Phase:    phase.Build,
		Resolver: &fakeResolver{productValue: "/install/include"},
	})

	v, err := builtinProduct(thread, nil, starlark.Tuple{starlark.String("headers")}, nil)
	require.NoError(t, err)
	assert.Equal(t, starlark.String("/install/include"), v)
}
