package engine

import (
	"fmt"

	"github.com/tsukumogami/envy/internal/cache"
	"github.com/tsukumogami/envy/internal/coord"
	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/graph"
	"github.com/tsukumogami/envy/internal/identity"
	"github.com/tsukumogami/envy/internal/phase"
	"github.com/tsukumogami/envy/internal/script"
	"go.starlark.net/starlark"
)

// makeRunner closes over ctx and returns the coord.PhaseRunner that drives
// it one phase at a time: first blocking on every bound dependency whose
// needed_by has been reached, then dispatching to the recipe's script
// functions, then releasing the cache lock if the phase body failed.
func (e *Engine) makeRunner(ctx *coord.Context) coord.PhaseRunner {
	return func(next phase.Phase) error {
		if err := e.waitForDependencies(ctx, next); err != nil {
			e.releaseLockOnFailure(ctx)
			return err
		}

		var err error
		switch next {
		case phase.RecipeFetch:
			err = e.runRecipeFetch(ctx)
		case phase.Check:
			err = e.runCheck(ctx)
		case phase.Fetch:
			err = e.runWithLock(ctx, phase.Fetch, func(l *cache.EntryLock) string { return l.FetchDir })
		case phase.Stage:
			err = e.runWithLock(ctx, phase.Stage, func(l *cache.EntryLock) string { return l.StageDir })
		case phase.Build:
			err = e.runWithLock(ctx, phase.Build, func(l *cache.EntryLock) string { return l.StageDir })
		case phase.Install:
			err = e.runInstall(ctx)
		case phase.Deploy:
			err = e.runDeploy(ctx)
		case phase.Completion:
			err = e.runCompletion(ctx)
		}
		if err != nil {
			e.releaseLockOnFailure(ctx)
		}
		return err
	}
}

// waitForDependencies implements spec.md §4.2's cross-recipe wait: before
// ctx's recipe executes next, every dependency (package or product) whose
// needed_by is at or before next must itself have reached that phase, or
// have failed. This is what makes a needed_by declaration load-bearing for
// every edge kind, not just the strong edges resolved during recipe_fetch.
func (e *Engine) waitForDependencies(ctx *coord.Context, next phase.Phase) error {
	for dep := range ctx.Recipe.Dependencies {
		neededByName, ok := ctx.Recipe.DependencyNeededBy(dep)
		if !ok {
			continue
		}
		neededBy, ok := phase.Parse(neededByName)
		if !ok || neededBy > next {
			continue
		}
		e.mu.Lock()
		childCtx, ok := e.contexts[dep]
		e.mu.Unlock()
		if !ok {
			continue
		}
		childCtx.EnsureAtPhase(neededBy)
		if failed := childCtx.WaitUntil(neededBy); failed {
			_, cerr := childCtx.Failed()
			return fmt.Errorf("recipe %s: dependency %s failed before reaching phase %s: %w", ctx.Recipe.Key, dep, neededBy, cerr)
		}
	}

	for name, binding := range ctx.Recipe.ProductDependencies {
		neededBy, ok := phase.Parse(binding.NeededBy)
		if !ok || neededBy > next {
			continue
		}
		e.mu.Lock()
		providerCtx, ok := e.contexts[binding.Provider]
		e.mu.Unlock()
		if !ok {
			continue
		}
		providerCtx.EnsureAtPhase(neededBy)
		if failed := providerCtx.WaitUntil(neededBy); failed {
			_, cerr := providerCtx.Failed()
			return fmt.Errorf("recipe %s: product %q provider %s failed before reaching phase %s: %w", ctx.Recipe.Key, name, binding.Provider, neededBy, cerr)
		}
	}
	return nil
}

// releaseLockOnFailure releases ctx's cache entry lock, if one was
// acquired, the moment its phase body fails. Without this, a lock
// acquired at fetch is only ever released from runCompletion, so a
// recipe that fails mid-pipeline leaks its lock and never purges its
// tmp/stage directories per spec.md §4.4.
func (e *Engine) releaseLockOnFailure(ctx *coord.Context) {
	e.mu.Lock()
	lock, ok := e.locks[ctx.Recipe.Key]
	if ok {
		delete(e.locks, ctx.Recipe.Key)
	}
	e.mu.Unlock()
	if ok {
		lock.Release()
	}
}

// runRecipeFetch loads the recipe's script, records its declared
// dependencies, kind, and products, and spawns a worker for every
// strong-edge child so recipe_fetch can proceed transitively.
func (e *Engine) runRecipeFetch(ctx *coord.Context) error {
	defer e.pending.Add(-1)

	e.mu.Lock()
	source := e.sources[ctx.Recipe.Key]
	e.mu.Unlock()
	if source == "" {
		return &errmsg.ScriptError{Binding: "recipe_fetch", Message: "recipe " + ctx.Recipe.Key + " has no script source"}
	}

	scr, err := LoadScript(source)
	if err != nil {
		return err
	}

	ctx.Recipe.ScriptState = scr
	ctx.Recipe.DeclaredDependencies = scr.Dependencies
	ctx.Recipe.Kind = scr.Kind

	// Products must be visible to settlement as soon as recipe_fetch
	// parses them, not only once this recipe itself reaches install:
	// a product edge elsewhere in the graph can only bind to a provider
	// whose Recipe.Products already names it (see findProductProviders).
	for name, value := range scr.Products {
		ctx.Recipe.DeclareProduct(name, value)
	}

	for i := range scr.Dependencies {
		edge := &scr.Dependencies[i]
		if edge.Kind != graph.Strong {
			continue
		}
		childSpec, err := parseEdgeSpec(edge)
		if err != nil {
			return err
		}
		childCtx, err := e.ensureRecipe(childSpec, edge.Source, ctx.Ancestry)
		if err != nil {
			return err
		}
		childCtx.EnsureAtPhase(phase.RecipeFetch)
		edge.Bound = childCtx.Recipe.Key
		ctx.Recipe.BindDependency(edge.Bound, edge.NeededBy.String())
	}

	return nil
}

// runCheck evaluates the optional CHECK predicate; a truthy result marks
// the recipe already satisfied, so later phases skip their script bodies.
func (e *Engine) runCheck(ctx *coord.Context) error {
	scr := ctx.Recipe.ScriptState.(*Script)
	fn, ok := scr.PhaseFunc(phase.Check)
	if !ok {
		return nil
	}
	result, err := e.callPhaseFunc(ctx, scr, phase.Check, fn, nil)
	if err != nil {
		return err
	}
	scr.Satisfied = result != nil && bool(result.Truth())
	return nil
}

// runWithLock executes the script function for p, running inside dirFor's
// chosen staging directory, under the recipe's cache entry lock (acquired
// once and shared across fetch/stage/build/install/deploy).
func (e *Engine) runWithLock(ctx *coord.Context, p phase.Phase, dirFor func(*cache.EntryLock) string) error {
	scr := ctx.Recipe.ScriptState.(*Script)
	if scr.Kind == graph.BundleOnly {
		return nil
	}
	if scr.Satisfied {
		return nil
	}

	lock, err := e.entryLock(ctx, scr)
	if err != nil {
		return err
	}

	fn, ok := scr.PhaseFunc(p)
	if !ok {
		return nil
	}
	_, err = e.callPhaseFuncWithLock(ctx, scr, p, fn, lock, dirFor(lock))
	return err
}

// entryLock returns the cache lock for ctx's recipe, acquiring it on first
// use (at fetch phase) and memoising it for subsequent phases up through
// completion, where it is finally released.
func (e *Engine) entryLock(ctx *coord.Context, scr *Script) (*cache.EntryLock, error) {
	e.mu.Lock()
	lock, ok := e.locks[ctx.Recipe.Key]
	e.mu.Unlock()
	if ok {
		return lock, nil
	}

	lock, err := e.Store.Acquire(ctx.Recipe.Spec.Hash(), scr.Kind == graph.UserManaged)
	if err != nil {
		return nil, err
	}
	e.mu.Lock()
	e.locks[ctx.Recipe.Key] = lock
	e.mu.Unlock()
	return lock, nil
}

// runInstall executes INSTALL (if declared) with the install directory as
// cwd, not the stage directory, so relative paths in INSTALL resolve
// against the install directory; it then promotes the cache entry for
// cache-managed recipes. Declared products are not resolved here: the
// resolver joins relative product values onto the install directory when
// product() is called.
func (e *Engine) runInstall(ctx *coord.Context) error {
	scr := ctx.Recipe.ScriptState.(*Script)
	if scr.Kind == graph.BundleOnly {
		return nil
	}

	lock, err := e.entryLock(ctx, scr)
	if err != nil {
		return err
	}

	if !scr.Satisfied {
		if fn, ok := scr.PhaseFunc(phase.Install); ok {
			if _, err := e.callPhaseFuncWithLock(ctx, scr, phase.Install, fn, lock, lock.InstallDir); err != nil {
				return err
			}
		}
	}

	if scr.Kind == graph.CacheManaged {
		lock.Promote()
	}
	ctx.Recipe.ResultHash = ctx.Recipe.Spec.Hash()
	ctx.Recipe.AssetPath = lock.InstallDir
	return nil
}

// runDeploy executes the optional DEPLOY function with the install
// directory as cwd.
func (e *Engine) runDeploy(ctx *coord.Context) error {
	scr := ctx.Recipe.ScriptState.(*Script)
	if scr.Kind == graph.BundleOnly {
		return nil
	}
	fn, ok := scr.PhaseFunc(phase.Deploy)
	if !ok {
		return nil
	}
	lock, err := e.entryLock(ctx, scr)
	if err != nil {
		return err
	}
	_, err = e.callPhaseFuncWithLock(ctx, scr, phase.Deploy, fn, lock, lock.InstallDir)
	return err
}

// runCompletion releases the cache entry lock, finalising or purging its
// staging directories per spec.md §4.4.
func (e *Engine) runCompletion(ctx *coord.Context) error {
	e.mu.Lock()
	lock, ok := e.locks[ctx.Recipe.Key]
	delete(e.locks, ctx.Recipe.Key)
	e.mu.Unlock()
	if !ok {
		return nil
	}
	return lock.Release()
}

// callPhaseFunc runs fn with no active cache lock (CHECK has none).
func (e *Engine) callPhaseFunc(ctx *coord.Context, scr *Script, p phase.Phase, fn *starlark.Function, lock *cache.EntryLock) (starlark.Value, error) {
	return e.callPhaseFuncWithLock(ctx, scr, p, fn, lock, "")
}

func (e *Engine) callPhaseFuncWithLock(ctx *coord.Context, scr *Script, p phase.Phase, fn *starlark.Function, lock *cache.EntryLock, runDir string) (starlark.Value, error) {
	thread := &starlark.Thread{Name: ctx.Recipe.Key + ":" + p.String()}
	pc := &script.PhaseContext{
		Ctx:      e.baseCtx,
		Recipe:   ctx.Recipe,
		Phase:    p,
		RunDir:   runDir,
		Lock:     lock,
		Fetcher:  e.Fetcher,
		Resolver: &EngineResolver{Engine: e},
	}
	detach := script.Install(thread, pc)
	defer detach()

	return starlark.Call(thread, fn, nil, nil)
}

// parseEdgeSpec resolves a strong edge's query string into a concrete
// Spec, applying its per-edge option overrides on top.
func parseEdgeSpec(edge *graph.Edge) (identity.Spec, error) {
	spec, err := identity.Parse(edge.Query)
	if err != nil {
		return identity.Spec{}, &errmsg.ScriptError{Binding: "recipe_fetch", Message: "dependency spec: " + err.Error()}
	}
	for k, v := range edge.Options {
		if spec.Options == nil {
			spec.Options = make(identity.Options)
		}
		spec.Options[k] = v
	}
	return spec, nil
}
