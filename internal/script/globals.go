package script

import (
	"github.com/tsukumogami/envy/internal/platform"
	"go.starlark.net/starlark"
)

// Globals returns the predeclared environment every recipe script executes
// in: the binding surface functions, the `path` module, the `ENVY_SHELL`
// enumeration, and the `PLATFORM` tag. See spec.md §4.5 and §6.
func Globals() starlark.StringDict {
	return starlark.StringDict{
		"fetch":        starlark.NewBuiltin("fetch", builtinFetch),
		"commit_fetch": starlark.NewBuiltin("commit_fetch", builtinCommitFetch),
		"verify_hash":  starlark.NewBuiltin("verify_hash", builtinVerifyHash),
		"extract":      starlark.NewBuiltin("extract", builtinExtract),
		"extract_all":  starlark.NewBuiltin("extract_all", builtinExtractAll),
		"copy":         starlark.NewBuiltin("copy", builtinCopy),
		"move":         starlark.NewBuiltin("move", builtinMove),
		"remove":       starlark.NewBuiltin("remove", builtinRemove),
		"package":      starlark.NewBuiltin("package", builtinPackage),
		"product":      starlark.NewBuiltin("product", builtinProduct),
		"run":          starlark.NewBuiltin("run", builtinRun),
		"loadenv_spec": starlark.NewBuiltin("loadenv_spec", builtinLoadenvSpec),
		"path":         pathModule(),
		"ENVY_SHELL":   envyShellEnum(),
		"PLATFORM":     starlark.String(platform.Current().String()),
	}
}

func envyShellEnum() *starlark.Dict {
	d := starlark.NewDict(5)
	pairs := map[string]string{
		"BASH":       "bash",
		"SH":         "sh",
		"ZSH":        "zsh",
		"POWERSHELL": "powershell",
		"CMD":        "cmd",
	}
	for k, v := range pairs {
		d.SetKey(starlark.String(k), starlark.String(v))
	}
	return d
}
