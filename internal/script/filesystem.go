package script

import (
	"io"
	"os"
	"path/filepath"

	"github.com/tsukumogami/envy/internal/errmsg"
	"go.starlark.net/starlark"
)

// resolvePath resolves a script-supplied path against ctx.RunDir unless it
// is already absolute, per spec.md §4.4's "resolve relative paths against
// the current phase's working directory" rule.
func resolvePath(ctx *PhaseContext, p string) string {
	if filepath.IsAbs(p) {
		return p
	}
	return filepath.Join(ctx.RunDir, p)
}

func builtinCopy(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "copy")
	if err != nil {
		return nil, err
	}
	src, dst, err := twoStringArgs("copy", args)
	if err != nil {
		return nil, err
	}
	return starlark.None, fsCopyOrMove(ctx, "copy", src, dst, false)
}

func builtinMove(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "move")
	if err != nil {
		return nil, err
	}
	src, dst, err := twoStringArgs("move", args)
	if err != nil {
		return nil, err
	}
	return starlark.None, fsCopyOrMove(ctx, "move", src, dst, true)
}

func builtinRemove(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "remove")
	if err != nil {
		return nil, err
	}
	if args.Len() != 1 {
		return nil, errTypeError("remove", "one path argument")
	}
	p, ok := starlark.AsString(args.Index(0))
	if !ok {
		return nil, errTypeError("remove", "a string path")
	}
	target := resolvePath(ctx, p)
	if err := os.RemoveAll(target); err != nil {
		return nil, &errmsg.FilesystemError{Op: "remove", Path: target, Err: err}
	}
	return starlark.None, nil
}

func twoStringArgs(binding string, args starlark.Tuple) (string, string, error) {
	if args.Len() != 2 {
		return "", "", errTypeError(binding, "two path arguments")
	}
	a, ok1 := starlark.AsString(args.Index(0))
	b, ok2 := starlark.AsString(args.Index(1))
	if !ok1 || !ok2 {
		return "", "", errTypeError(binding, "two string paths")
	}
	return a, b, nil
}

// fsCopyOrMove implements copy()/move()'s shared semantics: targeting an
// existing directory retargets to <dir>/<basename>; move refuses to
// overwrite an existing destination.
func fsCopyOrMove(ctx *PhaseContext, op, src, dst string, isMove bool) error {
	srcPath := resolvePath(ctx, src)
	dstPath := resolvePath(ctx, dst)

	if info, err := os.Stat(srcPath); err != nil {
		return &errmsg.FilesystemError{Op: op, Path: srcPath, Err: err}
	} else if info.IsDir() {
		return &errmsg.FilesystemError{Op: op, Path: srcPath, Err: errNotAFile}
	}

	if info, err := os.Stat(dstPath); err == nil && info.IsDir() {
		dstPath = filepath.Join(dstPath, filepath.Base(srcPath))
	}

	if isMove {
		if _, err := os.Stat(dstPath); err == nil {
			return &errmsg.FilesystemError{Op: op, Path: dstPath, Err: errDestExists}
		}
		if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
			return &errmsg.FilesystemError{Op: op, Path: dstPath, Err: err}
		}
		if err := os.Rename(srcPath, dstPath); err != nil {
			return &errmsg.FilesystemError{Op: op, Path: dstPath, Err: err}
		}
		return nil
	}

	if err := os.MkdirAll(filepath.Dir(dstPath), 0o755); err != nil {
		return &errmsg.FilesystemError{Op: op, Path: dstPath, Err: err}
	}
	in, err := os.Open(srcPath)
	if err != nil {
		return &errmsg.FilesystemError{Op: op, Path: srcPath, Err: err}
	}
	defer in.Close()
	info, _ := in.Stat()
	out, err := os.OpenFile(dstPath, os.O_CREATE|os.O_TRUNC|os.O_WRONLY, info.Mode())
	if err != nil {
		return &errmsg.FilesystemError{Op: op, Path: dstPath, Err: err}
	}
	defer out.Close()
	if _, err := io.Copy(out, in); err != nil {
		return &errmsg.FilesystemError{Op: op, Path: dstPath, Err: err}
	}
	return nil
}

var errNotAFile = &simpleError{"source is a directory"}
var errDestExists = &simpleError{"destination already exists"}

type simpleError struct{ msg string }

func (e *simpleError) Error() string { return e.msg }
