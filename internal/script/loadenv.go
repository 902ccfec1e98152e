package script

import (
	"os"
	"path/filepath"
	"strings"

	"github.com/tsukumogami/envy/internal/errmsg"
	"go.starlark.net/starlark"
)

// moduleExtension is the sub-script file extension loadenv_spec appends
// after mapping a dot-separated module path to a filesystem path. The
// original spec's glossary example uses ".lua"; this engine's scripting
// runtime is go.starlark.net, so sub-scripts are ".star" files instead —
// the module-path-to-path mapping rule is otherwise unchanged.
const moduleExtension = ".star"

// builtinLoadenvSpec implements loadenv_spec(identity, module_path):
// evaluates a dependency's sub-script in an environment whose global
// fallback is the caller's globals, giving read access to the caller's
// standard library without shared mutable state.
func builtinLoadenvSpec(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "loadenv_spec")
	if err != nil {
		return nil, err
	}
	identity, modulePath, err := twoStringArgs("loadenv_spec", args)
	if err != nil {
		return nil, err
	}

	dir, _, err := ctx.Resolver.ResolvePackage(ctx.Recipe, identity)
	if err != nil {
		return nil, err
	}

	rel := strings.ReplaceAll(modulePath, ".", string(filepath.Separator)) + moduleExtension
	path := filepath.Join(dir, rel)

	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &errmsg.ScriptError{Binding: "loadenv_spec", Message: err.Error()}
	}

	// A fresh thread sharing this one's context so nested bindings still
	// see the active phase context, but with its own predeclared
	// environment seeded from the caller's globals (read-only sharing,
	// per spec.md's sandboxing design note).
	sub := &starlark.Thread{Name: "loadenv:" + identity, Load: thread.Load}
	defer Install(sub, ctx)()

	globals, err := starlark.ExecFile(sub, path, src, Globals())
	if err != nil {
		return nil, &errmsg.ScriptError{Binding: "loadenv_spec", Message: err.Error()}
	}
	return starlarkDictFromStringDict(globals), nil
}

func starlarkDictFromStringDict(d starlark.StringDict) *starlark.Dict {
	out := starlark.NewDict(len(d))
	for k, v := range d {
		out.SetKey(starlark.String(k), v)
	}
	return out
}
