package script

import (
	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/phase"
	"github.com/tsukumogami/envy/internal/shell"
	"go.starlark.net/starlark"
	"go.starlark.net/starlarkstruct"
)

func phaseFor(name string) (phase.Phase, bool) {
	return phase.Parse(name)
}

// builtinRun implements run(script | string-array, { cwd, env, shell,
// capture, quiet, check, interactive }).
func builtinRun(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "run")
	if err != nil {
		return nil, err
	}

	var script starlark.Value
	var opts *starlark.Dict
	if err := starlark.UnpackArgs("run", args, kwargs, "script", &script, "options?", &opts); err != nil {
		return nil, &errmsg.ScriptError{Binding: "run", Message: err.Error()}
	}

	body, err := scriptBody(script)
	if err != nil {
		return nil, err
	}

	runOpts := shell.Options{RunDir: ctx.RunDir}
	if opts != nil {
		if v, ok, _ := opts.Get(starlark.String("cwd")); ok {
			if s, ok := starlark.AsString(v); ok {
				runOpts.Cwd = s
			}
		}
		if v, ok, _ := opts.Get(starlark.String("shell")); ok {
			if s, ok := starlark.AsString(v); ok {
				runOpts.Shell = shell.Name(s)
			}
		}
		if v, ok, _ := opts.Get(starlark.String("env")); ok {
			if d, ok := v.(*starlark.Dict); ok {
				runOpts.Env = map[string]string{}
				for _, item := range d.Items() {
					k, _ := starlark.AsString(item[0])
					val, _ := starlark.AsString(item[1])
					runOpts.Env[k] = val
				}
			}
		}
		runOpts.Capture = boolOption(opts, "capture")
		runOpts.Quiet = boolOption(opts, "quiet")
		runOpts.Check = boolOption(opts, "check")
		runOpts.Interactive = boolOption(opts, "interactive")
	}

	result, err := shell.Run(ctx.Ctx, body, runOpts)
	if err != nil {
		return nil, err
	}

	if !runOpts.Capture {
		return starlark.None, nil
	}
	return starlarkstruct.FromStringDict(starlarkstruct.Default, starlark.StringDict{
		"exit_code": starlark.MakeInt(result.ExitCode),
		"stdout":    starlark.String(result.Stdout),
		"stderr":    starlark.String(result.Stderr),
	}), nil
}

func boolOption(opts *starlark.Dict, key string) bool {
	v, ok, _ := opts.Get(starlark.String(key))
	if !ok {
		return false
	}
	b, ok := v.(starlark.Bool)
	return ok && bool(b)
}

// scriptBody flattens run()'s script argument — a single string or an
// array of argv-style strings — into one shell command line.
func scriptBody(v starlark.Value) (string, error) {
	if s, ok := starlark.AsString(v); ok {
		return s, nil
	}
	if list, ok := v.(*starlark.List); ok {
		var parts []string
		iter := list.Iterate()
		defer iter.Done()
		var elem starlark.Value
		for iter.Next(&elem) {
			s, ok := starlark.AsString(elem)
			if !ok {
				return "", errTypeError("run", "an array of strings")
			}
			parts = append(parts, s)
		}
		return joinShellWords(parts), nil
	}
	return "", errTypeError("run", "a script string or array of argv strings")
}

func joinShellWords(parts []string) string {
	out := ""
	for i, p := range parts {
		if i > 0 {
			out += " "
		}
		out += p
	}
	return out
}
