// Package engine orchestrates the recipe registry, the coordination
// contexts, and graph resolution described in spec.md §4.6: it is the
// topmost component that wires internal/graph, internal/cache,
// internal/coord, internal/registry, and internal/script together.
package engine

import (
	"fmt"
	"os"

	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/graph"
	"github.com/tsukumogami/envy/internal/identity"
	"github.com/tsukumogami/envy/internal/phase"
	"github.com/tsukumogami/envy/internal/script"
	"go.starlark.net/starlark"
)

// Script is a recipe's loaded script state: its evaluated top-level
// globals, parsed declared dependencies, and declared products.
type Script struct {
	Globals      starlark.StringDict
	Dependencies []graph.Edge
	Products     map[string]string
	Kind         graph.Type

	// Satisfied is set by runCheck when CHECK returns a truthy value;
	// later phases skip their script bodies for a satisfied recipe.
	Satisfied bool
}

// phaseFuncNames maps a pipeline phase to the top-level script function
// that implements it. CHECK is the §4.2 optional predicate; the rest are
// the phase bodies proper. recipe_fetch, deploy, and completion have no
// required function — a recipe that omits one simply does nothing there.
var phaseFuncNames = map[phase.Phase]string{
	phase.Check:   "CHECK",
	phase.Fetch:   "FETCH",
	phase.Stage:   "STAGE",
	phase.Build:   "BUILD",
	phase.Install: "INSTALL",
	phase.Deploy:  "DEPLOY",
}

// LoadScript reads and evaluates the recipe script at path, predeclaring
// the spec.md §4.5 binding surface, and extracts its declared dependencies
// and products.
func LoadScript(path string) (*Script, error) {
	src, err := os.ReadFile(path)
	if err != nil {
		return nil, &errmsg.ScriptError{Binding: "recipe_fetch", Message: fmt.Sprintf("cannot read %s: %v", path, err)}
	}

	thread := &starlark.Thread{Name: path}
	globals, err := starlark.ExecFile(thread, path, src, script.Globals())
	if err != nil {
		return nil, &errmsg.ScriptError{Binding: "recipe_fetch", Message: err.Error()}
	}

	deps, err := parseDependencies(globals)
	if err != nil {
		return nil, err
	}
	products, err := parseProducts(globals)
	if err != nil {
		return nil, err
	}

	return &Script{Globals: globals, Dependencies: deps, Products: products, Kind: parseKind(globals)}, nil
}

// parseKind reads an optional top-level KIND string ("cache_managed",
// "user_managed", or "bundle_only"), defaulting to cache-managed per
// spec.md §3's description of a typical recipe.
func parseKind(globals starlark.StringDict) graph.Type {
	v, ok := globals["KIND"]
	if !ok {
		return graph.CacheManaged
	}
	s, ok := starlark.AsString(v)
	if !ok {
		return graph.CacheManaged
	}
	switch s {
	case "user_managed":
		return graph.UserManaged
	case "bundle_only":
		return graph.BundleOnly
	default:
		return graph.CacheManaged
	}
}

// PhaseFunc returns the script function implementing p, if the recipe
// declared one.
func (s *Script) PhaseFunc(p phase.Phase) (*starlark.Function, bool) {
	name, ok := phaseFuncNames[p]
	if !ok {
		return nil, false
	}
	v, ok := s.Globals[name]
	if !ok {
		return nil, false
	}
	fn, ok := v.(*starlark.Function)
	return fn, ok
}

func parseDependencies(globals starlark.StringDict) ([]graph.Edge, error) {
	v, ok := globals["DEPENDENCIES"]
	if !ok {
		return nil, nil
	}
	list, ok := v.(*starlark.List)
	if !ok {
		return nil, &errmsg.ScriptError{Binding: "recipe_fetch", Message: "DEPENDENCIES must be a list"}
	}

	var edges []graph.Edge
	iter := list.Iterate()
	defer iter.Done()
	var elem starlark.Value
	for iter.Next(&elem) {
		edge, err := parseDependencyEntry(elem)
		if err != nil {
			return nil, err
		}
		edges = append(edges, edge)
	}
	return edges, nil
}

func parseDependencyEntry(v starlark.Value) (graph.Edge, error) {
	d, ok := v.(*starlark.Dict)
	if !ok {
		return graph.Edge{}, &errmsg.ScriptError{Binding: "recipe_fetch", Message: "each DEPENDENCIES entry must be a dict"}
	}

	neededBy := phase.Check
	if raw, ok, _ := d.Get(starlark.String("needed_by")); ok {
		if s, ok := starlark.AsString(raw); ok {
			if p, ok := phase.Parse(s); ok {
				neededBy = p
			}
		}
	}

	if raw, ok, _ := d.Get(starlark.String("product")); ok {
		name, _ := starlark.AsString(raw)
		provider := ""
		if p, ok, _ := d.Get(starlark.String("provider")); ok {
			provider, _ = starlark.AsString(p)
		}
		return graph.Edge{Kind: graph.Product, Query: name, Provider: provider, NeededBy: neededBy}, nil
	}

	if raw, ok, _ := d.Get(starlark.String("weak")); ok {
		query, _ := starlark.AsString(mustGet(d, "spec"))
		fallback, err := parseFallback(raw)
		if err != nil {
			return graph.Edge{}, err
		}
		return graph.Edge{Kind: graph.WeakWithFallback, Query: query, FallbackConfig: fallback, NeededBy: neededBy}, nil
	}

	if raw, ok, _ := d.Get(starlark.String("spec")); ok {
		query, _ := starlark.AsString(raw)
		if _, hasSource, _ := d.Get(starlark.String("source")); hasSource {
			source, _ := starlark.AsString(mustGet(d, "source"))
			return graph.Edge{Kind: graph.Strong, Query: query, Source: source, NeededBy: neededBy}, nil
		}
		return graph.Edge{Kind: graph.ReferenceOnly, Query: query, NeededBy: neededBy}, nil
	}

	return graph.Edge{}, &errmsg.ScriptError{Binding: "recipe_fetch", Message: "DEPENDENCIES entry has neither spec, weak, nor product"}
}

func parseFallback(v starlark.Value) (*graph.FallbackSpec, error) {
	d, ok := v.(*starlark.Dict)
	if !ok {
		return nil, &errmsg.ScriptError{Binding: "recipe_fetch", Message: "weak fallback must be a dict"}
	}
	specStr, _ := starlark.AsString(mustGet(d, "spec"))
	source, _ := starlark.AsString(mustGet(d, "source"))

	parsed, err := identity.Parse(specStr)
	if err != nil {
		return nil, &errmsg.ScriptError{Binding: "recipe_fetch", Message: fmt.Sprintf("weak fallback spec: %v", err)}
	}
	return &graph.FallbackSpec{
		Namespace: parsed.Namespace,
		Name:      parsed.Name,
		Version:   parsed.Version,
		Options:   parsed.Options,
		Source:    source,
	}, nil
}

func mustGet(d *starlark.Dict, key string) starlark.Value {
	v, _, _ := d.Get(starlark.String(key))
	return v
}

func parseProducts(globals starlark.StringDict) (map[string]string, error) {
	v, ok := globals["PRODUCTS"]
	if !ok {
		return nil, nil
	}
	d, ok := v.(*starlark.Dict)
	if !ok {
		return nil, &errmsg.ScriptError{Binding: "recipe_fetch", Message: "PRODUCTS must be a dict"}
	}
	products := make(map[string]string, d.Len())
	for _, item := range d.Items() {
		k, _ := starlark.AsString(item[0])
		val, _ := starlark.AsString(item[1])
		products[k] = val
	}
	return products, nil
}
