package script

import (
	"go.starlark.net/starlark"
)

// builtinPackage implements package(identity): the resolved install
// directory of a strongly reachable dependency.
func builtinPackage(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, _ []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "package")
	if err != nil {
		return nil, err
	}
	if args.Len() != 1 {
		return nil, errTypeError("package", "one identity argument")
	}
	identity, ok := starlark.AsString(args.Index(0))
	if !ok {
		return nil, errTypeError("package", "a string identity")
	}

	dir, firstHopNeededBy, err := ctx.Resolver.ResolvePackage(ctx.Recipe, identity)
	if err != nil {
		return nil, err
	}
	if wantPhase, ok := phaseFor(firstHopNeededBy); ok {
		if e := requirePhaseAtLeast(ctx, "package", wantPhase); e != nil {
			return nil, e
		}
	}
	return starlark.String(dir), nil
}

// builtinProduct implements product(name): the provider's declared product
// value, resolved to an absolute path if relative.
func builtinProduct(thread *starlark.Thread, _ *starlark.Builtin, args starlark.Tuple, kwargs []starlark.Tuple) (starlark.Value, error) {
	ctx, err := current(thread, "product")
	if err != nil {
		return nil, err
	}

	var name string
	var provider starlark.String
	if err := starlark.UnpackArgs("product", args, kwargs, "name", &name, "provider?", &provider); err != nil {
		return nil, errTypeError("product", "a product name and optional provider constraint")
	}

	value, err := ctx.Resolver.ResolveProduct(ctx.Recipe, name, string(provider))
	if err != nil {
		return nil, err
	}
	return starlark.String(value), nil
}
