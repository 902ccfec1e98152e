package script

import (
	"path/filepath"
	"strings"

	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

// pathModule builds the `path` struct exposing join/basename/dirname/stem/
// extension as pure string operations, per spec.md §4.5.
func pathModule() *starlarkstruct.Module {
	return &starlarkstruct.Module{
		Name: "path",
		Members: starlark.StringDict{
			"join":      starlark.NewBuiltin("path.join", pathJoin),
			"basename":  starlark.NewBuiltin("path.basename", pathBasename),
			"dirname":   starlark.NewBuiltin("path.dirname", pathDirname),
			"stem":      starlark.NewBuiltin("path.stem", pathStem),
			"extension": starlark.NewBuiltin("path.extension", pathExtension),
		},
	}
}

func pathJoin(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	parts := make([]string, 0, args.Len())
	for i := 0; i < args.Len(); i++ {
		s, ok := starlark.AsString(args.Index(i))
		if !ok {
			return nil, errTypeError("path.join", "string arguments")
		}
		parts = append(parts, s)
	}
	return starlark.String(filepath.Join(parts...)), nil
}

func pathBasename(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return oneStringArg("path.basename", args, filepath.Base)
}

func pathDirname(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return oneStringArg("path.dirname", args, filepath.Dir)
}

func pathStem(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return oneStringArg("path.stem", args, func(s string) string {
		base := filepath.Base(s)
		ext := filepath.Ext(base)
		return strings.TrimSuffix(base, ext)
	})
}

func pathExtension(_ *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	return oneStringArg("path.extension", args, filepath.Ext)
}

func oneStringArg(binding string, args starlark.Tuple, f func(string) string) (starlark.Value, error) {
	if args.Len() != 1 {
		return nil, errTypeError(binding, "exactly one string argument")
	}
	s, ok := starlark.AsString(args.Index(0))
	if !ok {
		return nil, errTypeError(binding, "a string argument")
	}
	return starlark.String(f(s)), nil
}
