package script

import (
	"github.com/tsukumogami/envy/internal/archive"
	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/fetchio"
	"github.com/tsukumogami/envy/internal/phase"
	"go.starlark.net/starlark"
)

func extractArchiveFn(archivePath, dest string, strip int) (int, error) {
	return archive.Extract(archivePath, dest, strip)
}

func extractAllFn(srcDir, destDir string, strip int) (int, error) {
	return archive.ExtractAll(srcDir, destDir, strip)
}

// builtinFetch implements fetch(source | spec | array, { dest, ... }),
// valid only during the fetch phase.
func builtinFetch(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "fetch")
	if err != nil {
		return nil, err
	}
	if ctx.Phase != phase.Fetch {
		return nil, &errmsg.ScriptError{Binding: "fetch", Phase: ctx.Phase.String(), Message: "only valid during phase fetch"}
	}

	var sources starlark.Value
	var opts *starlark.Dict
	if err := starlark.UnpackArgs("fetch", args, kwargs, "sources", &sources, "options?", &opts); err != nil {
		return nil, &errmsg.ScriptError{Binding: "fetch", Message: err.Error()}
	}

	items, isArray, err := toFetchItems(sources)
	if err != nil {
		return nil, err
	}

	dest := ctx.RunDir
	if opts != nil {
		if v, ok, _ := opts.Get(starlark.String("dest")); ok {
			if s, ok := starlark.AsString(v); ok {
				dest = resolvePath(ctx, s)
			}
		}
	}

	basenames, err := fetchio.Fetch(ctx.Ctx, ctx.Fetcher, items, dest)
	if err != nil {
		return nil, err
	}

	if !isArray {
		return starlark.String(basenames[0]), nil
	}
	list := make([]starlark.Value, len(basenames))
	for i, b := range basenames {
		list[i] = starlark.String(b)
	}
	return starlark.NewList(list), nil
}

func toFetchItems(v starlark.Value) ([]fetchio.Item, bool, error) {
	switch val := v.(type) {
	case starlark.String:
		return []fetchio.Item{{Source: string(val)}}, false, nil
	case *starlark.List:
		items := make([]fetchio.Item, 0, val.Len())
		iter := val.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			item, err := toFetchItem(elem)
			if err != nil {
				return nil, false, err
			}
			items = append(items, item)
		}
		return items, true, nil
	default:
		item, err := toFetchItem(v)
		if err != nil {
			return nil, false, err
		}
		return []fetchio.Item{item}, false, nil
	}
}

func toFetchItem(v starlark.Value) (fetchio.Item, error) {
	if s, ok := starlark.AsString(v); ok {
		return fetchio.Item{Source: s}, nil
	}
	if d, ok := v.(*starlark.Dict); ok {
		item := fetchio.Item{}
		if src, ok, _ := d.Get(starlark.String("source")); ok {
			if s, ok := starlark.AsString(src); ok {
				item.Source = s
			}
		}
		if sum, ok, _ := d.Get(starlark.String("sha256")); ok {
			if s, ok := starlark.AsString(sum); ok {
				item.Sha256 = s
			}
		}
		return item, nil
	}
	return fetchio.Item{}, errTypeError("fetch", "a source string, {source, sha256} dict, or array of either")
}

// builtinCommitFetch implements commit_fetch(filename | array), requiring
// an active cache lock.
func builtinCommitFetch(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "commit_fetch")
	if err != nil {
		return nil, err
	}
	if err := requirePhaseAtLeast(ctx, "commit_fetch", phase.Fetch); err != nil {
		return nil, err
	}
	if err := requireLock(ctx, "commit_fetch"); err != nil {
		return nil, err
	}
	if args.Len() != 1 {
		return nil, errTypeError("commit_fetch", "one filename or array argument")
	}

	items, err := toCommitItems(args.Index(0))
	if err != nil {
		return nil, err
	}
	if err := fetchio.CommitFetch(ctx.Lock.TmpDir, ctx.Lock.FetchDir, items); err != nil {
		return nil, err
	}
	return starlark.None, nil
}

func toCommitItems(v starlark.Value) ([]fetchio.CommitItem, error) {
	if s, ok := starlark.AsString(v); ok {
		return []fetchio.CommitItem{{Filename: s}}, nil
	}
	if list, ok := v.(*starlark.List); ok {
		items := make([]fetchio.CommitItem, 0, list.Len())
		iter := list.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			s, ok := starlark.AsString(elem)
			if !ok {
				return nil, errTypeError("commit_fetch", "an array of filename strings")
			}
			items = append(items, fetchio.CommitItem{Filename: s})
		}
		return items, nil
	}
	return nil, errTypeError("commit_fetch", "a filename string or array of filenames")
}

// builtinVerifyHash implements verify_hash(path, sha256).
func builtinVerifyHash(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "verify_hash")
	if err != nil {
		return nil, err
	}
	p, sum, err := twoStringArgs("verify_hash", args)
	if err != nil {
		return nil, err
	}
	ok, err := fetchio.VerifyHash(resolvePath(ctx, p), sum)
	if err != nil {
		return nil, err
	}
	return starlark.Bool(ok), nil
}

// builtinExtract implements extract(archive, dest, { strip }).
func builtinExtract(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "extract")
	if err != nil {
		return nil, err
	}

	var archive, dest string
	var opts *starlark.Dict
	if err := starlark.UnpackArgs("extract", args, kwargs, "archive", &archive, "dest", &dest, "options?", &opts); err != nil {
		return nil, &errmsg.ScriptError{Binding: "extract", Message: err.Error()}
	}
	strip := intOption(opts, "strip", 0)

	n, err := extractArchiveFn(resolvePath(ctx, archive), resolvePath(ctx, dest), strip)
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt(n), nil
}

// builtinExtractAll implements extract_all(src_dir, dest_dir, { strip }).
func builtinExtractAll(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "extract_all")
	if err != nil {
		return nil, err
	}

	var srcDir, destDir string
	var opts *starlark.Dict
	if err := starlark.UnpackArgs("extract_all", args, kwargs, "src_dir", &srcDir, "dest_dir", &destDir, "options?", &opts); err != nil {
		return nil, &errmsg.ScriptError{Binding: "extract_all", Message: err.Error()}
	}
	strip := intOption(opts, "strip", 0)

	n, err := extractAllFn(resolvePath(ctx, srcDir), resolvePath(ctx, destDir), strip)
	if err != nil {
		return nil, err
	}
	return starlark.MakeInt(n), nil
}

func intOption(opts *starlark.Dict, key string, def int) int {
	if opts == nil {
		return def
	}
	v, ok, _ := opts.Get(starlark.String(key))
	if !ok {
		return def
	}
	i, ok := v.(starlark.Int)
	if !ok {
		return def
	}
	n, _ := i.Int64()
	return int(n)
}
