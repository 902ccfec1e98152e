package engine

import (
	"context"
	"fmt"
	"sync"

	"github.com/tsukumogami/envy/internal/cache"
	"github.com/tsukumogami/envy/internal/config"
	"github.com/tsukumogami/envy/internal/coord"
	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/fetchio"
	"github.com/tsukumogami/envy/internal/graph"
	"github.com/tsukumogami/envy/internal/identity"
	"github.com/tsukumogami/envy/internal/phase"
	"github.com/tsukumogami/envy/internal/registry"
)

// Engine ties the recipe registry, the content cache, and the per-recipe
// coordination contexts together into the resolve_graph/run_full
// operations of spec.md §4.6.
type Engine struct {
	Registry *registry.Registry
	Store    *cache.Store
	Fetcher  fetchio.Fetcher
	Interner *identity.Interner

	pending *coord.PendingFetches

	// baseCtx is the context.Context propagated into every phase body's
	// PhaseContext, for cancellation/deadlines across the whole run. Set
	// once at the start of RunFull/ResolveGraph.
	baseCtx context.Context

	mu       sync.Mutex
	contexts map[string]*coord.Context // canonical identity -> coordination context
	sources  map[string]string        // canonical identity -> script path it was loaded from
	locks    map[string]*cache.EntryLock
}

// New returns an Engine backed by store and fetcher.
func New(store *cache.Store, fetcher fetchio.Fetcher) (*Engine, error) {
	reg, err := registry.New()
	if err != nil {
		return nil, fmt.Errorf("engine: %w", err)
	}
	return &Engine{
		Registry: reg,
		Store:    store,
		Fetcher:  fetcher,
		Interner: identity.NewInterner(),
		pending:  coord.NewPendingFetches(),
		baseCtx:  context.Background(),
		contexts: make(map[string]*coord.Context),
		sources:  make(map[string]string),
		locks:    make(map[string]*cache.EntryLock),
	}, nil
}

// ensureRecipe is the engine-level equivalent of spec.md §4.1's
// "ensure_recipe": intern spec, memoise a Recipe, extend ancestry (failing
// on a cycle), obtain its coordination context, and — for the very first
// observer of this identity — spawn its worker goroutine.
func (e *Engine) ensureRecipe(spec identity.Spec, source string, ancestry *graph.Ancestry) (*coord.Context, error) {
	interned := e.Interner.Intern(spec)
	rec, err := e.Registry.EnsureRecipe(interned)
	if err != nil {
		return nil, err
	}

	extended, err := ancestry.Extend(rec.Key)
	if err != nil {
		return nil, err
	}

	e.mu.Lock()
	ctx, exists := e.contexts[rec.Key]
	if !exists {
		ctx = coord.NewContext(rec, extended)
		e.contexts[rec.Key] = ctx
		e.sources[rec.Key] = source
	}
	e.mu.Unlock()

	if !ctx.Started() {
		e.pending.Add(1)
		go ctx.Run(e.makeRunner(ctx))
	}
	return ctx, nil
}

// ResolveGraph is spec.md §4.2/§4.3's resolve_graph: ensure every root is
// at least at recipe_fetch, wait for the pending-fetch barrier to settle,
// then settle weak and reference-only edges in a fixed-point loop.
func (e *Engine) ResolveGraph(ctx context.Context, roots []config.RootConfig) error {
	e.baseCtx = ctx

	for _, root := range roots {
		spec, err := identity.Parse(root.Query)
		if err != nil {
			return fmt.Errorf("engine: root %q: %w", root.Query, err)
		}
		for k, v := range root.Options {
			if spec.Options == nil {
				spec.Options = make(identity.Options)
			}
			spec.Options[k] = v
		}
		rootCtx, err := e.ensureRecipe(spec, root.Source, graph.NewAncestry())
		if err != nil {
			return err
		}
		rootCtx.EnsureAtPhase(phase.RecipeFetch)
	}

	e.pending.Wait()

	return e.settleEdges()
}

// RunFull is spec.md §4.6's run_full: resolve the graph, then raise every
// registered recipe to completion and join their workers.
func (e *Engine) RunFull(ctx context.Context, roots []config.RootConfig) (*Result, error) {
	if err := e.ResolveGraph(ctx, roots); err != nil {
		return nil, err
	}

	e.mu.Lock()
	all := make([]*coord.Context, 0, len(e.contexts))
	for _, ctx := range e.contexts {
		all = append(all, ctx)
	}
	e.mu.Unlock()

	for _, ctx := range all {
		ctx.EnsureAtPhase(phase.Completion)
	}

	failures := make(map[string]error)
	for _, ctx := range all {
		if failed := ctx.WaitUntil(phase.Completion); failed {
			_, err := ctx.Failed()
			failures[ctx.Recipe.Key] = err
		}
	}

	result := buildResult(all)
	if len(failures) > 0 {
		return result, &errmsg.MultiError{Failures: failures}
	}
	return result, nil
}

// Snapshot reports every registered recipe's current phase, for callers
// (such as a --dry-run mode) that want to inspect the resolved graph
// without driving any recipe past recipe_fetch/settlement.
func (e *Engine) Snapshot() *Result {
	e.mu.Lock()
	all := make([]*coord.Context, 0, len(e.contexts))
	for _, ctx := range e.contexts {
		all = append(all, ctx)
	}
	e.mu.Unlock()
	return buildResult(all)
}
