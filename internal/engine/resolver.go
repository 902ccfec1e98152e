package engine

import (
	"path/filepath"

	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/graph"
)

// EngineResolver implements script.DependencyResolver on top of an Engine,
// resolving package()/product() calls by the first-hop needed_by rule: a
// dependency is observable as soon as the direct edge that introduced it
// says so, without walking further down the strongly-reachable chain. This
// is the decision recorded in DESIGN.md for the open question of how deep
// "strongly reachable" resolution should look.
type EngineResolver struct {
	Engine *Engine
}

// ResolvePackage looks up identity among from's bound dependencies and
// returns its cache install directory.
func (r *EngineResolver) ResolvePackage(from *graph.Recipe, ident string) (string, string, error) {
	neededBy, ok := from.DependencyNeededBy(ident)
	if !ok {
		return "", "", &errmsg.DependencyAccessError{
			Kind:       errmsg.AccessNotDeclared,
			Recipe:     from.Key,
			Dependency: ident,
		}
	}

	r.Engine.mu.Lock()
	depCtx, ok := r.Engine.contexts[ident]
	r.Engine.mu.Unlock()
	if !ok {
		return "", "", &errmsg.DependencyAccessError{
			Kind:       errmsg.AccessNotDeclared,
			Recipe:     from.Key,
			Dependency: ident,
		}
	}

	if depCtx.Recipe.Kind == graph.UserManaged {
		return "", "", &errmsg.DependencyAccessError{
			Kind:       errmsg.AccessUserManaged,
			Recipe:     from.Key,
			Dependency: ident,
		}
	}

	// The caller's own phase is not checked here: package() compares it with
	// neededBy only after this lookup succeeds. A missing install dir here
	// means the dependency has not installed yet, and the error reports the
	// dependency's current phase, not the caller's.
	dir, ok := r.Engine.Store.InstallDir(depCtx.Recipe.Spec.Hash())
	if !ok {
		return "", "", &errmsg.DependencyAccessError{
			Kind:         errmsg.AccessBeforeNeededBy,
			Recipe:       from.Key,
			Dependency:   ident,
			CurrentPhase: depCtx.CurrentPhase().String(),
			NeededBy:     neededBy,
		}
	}
	return dir, neededBy, nil
}

// ResolveProduct resolves name among from's product-name dependency
// bindings, enforcing providerConstraint when non-empty.
func (r *EngineResolver) ResolveProduct(from *graph.Recipe, name string, providerConstraint string) (string, error) {
	binding, ok := from.ProductDependency(name)
	if !ok {
		return "", &errmsg.DependencyAccessError{
			Kind:       errmsg.AccessNotDeclared,
			Recipe:     from.Key,
			Dependency: name,
		}
	}
	if providerConstraint != "" && binding.Provider != providerConstraint {
		return "", &errmsg.DependencyAccessError{
			Kind:       errmsg.AccessProductMismatch,
			Recipe:     from.Key,
			Product:    name,
			Provider:   binding.Provider,
			Constraint: providerConstraint,
		}
	}

	r.Engine.mu.Lock()
	providerCtx, ok := r.Engine.contexts[binding.Provider]
	r.Engine.mu.Unlock()
	if !ok {
		return "", &errmsg.DependencyAccessError{
			Kind:     errmsg.AccessProductMissing,
			Recipe:   from.Key,
			Product:  name,
			Provider: binding.Provider,
		}
	}

	value, ok := providerCtx.Recipe.Product(name)
	if !ok {
		return "", &errmsg.DependencyAccessError{
			Kind:     errmsg.AccessProductMissing,
			Recipe:   from.Key,
			Product:  name,
			Provider: binding.Provider,
		}
	}
	if filepath.IsAbs(value) {
		return value, nil
	}

	// Declared at recipe_fetch as a raw, possibly-relative string; only
	// resolvable once the provider has actually promoted an install dir.
	dir, ok := r.Engine.Store.InstallDir(providerCtx.Recipe.Spec.Hash())
	if !ok {
		return "", &errmsg.DependencyAccessError{
			Kind:         errmsg.AccessBeforeNeededBy,
			Recipe:       from.Key,
			Dependency:   binding.Provider,
			CurrentPhase: providerCtx.CurrentPhase().String(),
			NeededBy:     binding.NeededBy,
		}
	}
	return filepath.Join(dir, value), nil
}
