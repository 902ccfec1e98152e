package engine

import (
	"sort"

	"github.com/tsukumogami/envy/internal/coord"
	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/graph"
	"github.com/tsukumogami/envy/internal/identity"
	"github.com/tsukumogami/envy/internal/log"
	"github.com/tsukumogami/envy/internal/phase"
)

// settleEdges implements the weak/reference/product settlement pass of
// spec.md §4.3: repeatedly scan every registered recipe's unbound edges,
// binding what can be bound and materialising weak fallbacks that found no
// strong match, until a full pass makes no further progress. Ambiguous
// matches (more than one candidate) fail immediately, since an additional
// recipe joining the graph can only add candidates, never remove them.
func (e *Engine) settleEdges() error {
	log.Default().Debug("settlement started")
	for {
		changed, err := e.settlementPass()
		if err != nil {
			return err
		}
		if !changed {
			break
		}
		e.pending.Wait()
	}
	err := e.validateSettlement()
	if err != nil {
		log.Default().Error("settlement failed", "error", err)
	} else {
		log.Default().Info("settlement complete")
	}
	return err
}

func (e *Engine) settlementPass() (bool, error) {
	changed := false
	for _, key := range e.sortedContextKeys() {
		e.mu.Lock()
		ctx := e.contexts[key]
		e.mu.Unlock()

		scr, ok := ctx.Recipe.ScriptState.(*Script)
		if !ok {
			continue
		}

		for i := range scr.Dependencies {
			edge := &scr.Dependencies[i]
			if edge.Bound != "" {
				continue
			}

			switch edge.Kind {
			case graph.WeakWithFallback, graph.ReferenceOnly:
				matches := e.Registry.FindMatches(edge.Query)
				if len(matches) > 1 {
					return false, &errmsg.GraphError{
						Kind: errmsg.GraphAmbiguousReference, Identity: key,
						Query: edge.Query, Matches: matchKeys(matches),
					}
				}
				if len(matches) == 1 {
					edge.Bound = matches[0].Key
					ctx.Recipe.BindDependency(edge.Bound, edge.NeededBy.String())
					log.Default().Debug("edge bound", "recipe", key, "query", edge.Query, "bound", edge.Bound)
					changed = true
					continue
				}
				if edge.Kind == graph.WeakWithFallback {
					child, err := e.materialiseFallback(edge, ctx.Ancestry)
					if err != nil {
						return false, err
					}
					edge.Bound = child.Recipe.Key
					ctx.Recipe.BindDependency(edge.Bound, edge.NeededBy.String())
					log.Default().Debug("edge bound to fallback", "recipe", key, "query", edge.Query, "bound", edge.Bound)
					changed = true
				}

			case graph.Product:
				providers := e.findProductProviders(edge.Query, edge.Provider)
				if len(providers) > 1 {
					return false, &errmsg.GraphError{
						Kind: errmsg.GraphAmbiguousReference, Identity: key,
						Query: edge.Query, Matches: providers,
					}
				}
				if len(providers) == 1 {
					ctx.Recipe.BindProduct(edge.Query, graph.ProductBinding{
						Constraint: edge.Provider, Provider: providers[0], NeededBy: edge.NeededBy.String(),
					})
					edge.Bound = providers[0]
					log.Default().Debug("product edge bound", "recipe", key, "product", edge.Query, "provider", providers[0])
					changed = true
				}
			}
		}
	}
	return changed, nil
}

func (e *Engine) materialiseFallback(edge *graph.Edge, ancestry *graph.Ancestry) (*coord.Context, error) {
	fb := edge.FallbackConfig
	spec := identity.Spec{Namespace: fb.Namespace, Name: fb.Name, Version: fb.Version, Options: fb.Options}
	ctx, err := e.ensureRecipe(spec, fb.Source, ancestry)
	if err != nil {
		return nil, err
	}
	ctx.EnsureAtPhase(phase.RecipeFetch)
	return ctx, nil
}

// validateSettlement runs once the settlement pass has reached a fixed
// point: any edge still unbound at this point is a genuine failure.
func (e *Engine) validateSettlement() error {
	for _, key := range e.sortedContextKeys() {
		e.mu.Lock()
		ctx := e.contexts[key]
		e.mu.Unlock()

		scr, ok := ctx.Recipe.ScriptState.(*Script)
		if !ok {
			continue
		}
		for _, edge := range scr.Dependencies {
			if edge.Bound != "" {
				continue
			}
			switch edge.Kind {
			case graph.ReferenceOnly:
				return &errmsg.GraphError{Kind: errmsg.GraphMissingReference, Identity: key, Query: edge.Query}
			case graph.Product:
				return &errmsg.GraphError{Kind: errmsg.GraphWeakUnresolved, Identity: key, Query: edge.Query}
			}
		}
	}
	return nil
}

// findProductProviders scans every registered recipe's declared products
// for name, optionally constrained to a single provider identity.
func (e *Engine) findProductProviders(name, providerConstraint string) []string {
	var providers []string
	for _, key := range e.sortedContextKeys() {
		if providerConstraint != "" && key != providerConstraint {
			continue
		}
		e.mu.Lock()
		ctx := e.contexts[key]
		e.mu.Unlock()
		if _, ok := ctx.Recipe.Product(name); ok {
			providers = append(providers, key)
		}
	}
	return providers
}

func (e *Engine) sortedContextKeys() []string {
	e.mu.Lock()
	keys := make([]string, 0, len(e.contexts))
	for k := range e.contexts {
		keys = append(keys, k)
	}
	e.mu.Unlock()
	sort.Strings(keys)
	return keys
}

func matchKeys(recipes []*graph.Recipe) []string {
	keys := make([]string, len(recipes))
	for i, r := range recipes {
		keys[i] = r.Key
	}
	return keys
}
