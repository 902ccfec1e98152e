// Package script implements the phase-aware binding surface of spec.md
// §4.5 on top of go.starlark.net: fetch, commit_fetch, extract, copy/move,
// run, package/product, loadenv_spec, and the path/ENVY_SHELL/PLATFORM
// constants recipe scripts observe. Every binding enforces that a phase
// context is installed on the calling thread; callers without one raise a
// structured ScriptError rather than a nil-pointer panic.
package script

import (
	"context"

	"github.com/tsukumogami/envy/internal/cache"
	"github.com/tsukumogami/envy/internal/errmsg"
	"github.com/tsukumogami/envy/internal/fetchio"
	"github.com/tsukumogami/envy/internal/graph"
	"github.com/tsukumogami/envy/internal/phase"
	"go.starlark.net/starlark"
)

const contextLocalKey = "envy.phasecontext"

// PhaseContext is the engine-provided runtime information installed in the
// scripting state for the duration of one phase function's execution, per
// spec.md's "Phase context" glossary entry.
type PhaseContext struct {
	Ctx context.Context

	Recipe  *graph.Recipe
	Phase   phase.Phase
	RunDir  string // fetch_dir during fetch, stage_dir for stage/build, install_dir for install/deploy
	Lock    *cache.EntryLock
	Fetcher fetchio.Fetcher

	// Resolver looks up a strongly-reachable dependency's install
	// directory and first-hop needed_by, used by package()/product().
	Resolver DependencyResolver
}

// DependencyResolver is the narrow view of the engine the binding surface
// needs to implement package() and product(), kept as an interface so this
// package does not depend on internal/engine.
type DependencyResolver interface {
	// ResolvePackage returns the install directory of identity, and the
	// phase name at which it first becomes observable along the
	// strongly-reachable path from the calling recipe.
	ResolvePackage(from *graph.Recipe, identity string) (installDir string, firstHopNeededBy string, err error)

	// ResolveProduct returns the value a provider publishes under name,
	// resolved to an absolute path if the declared value is relative.
	ResolveProduct(from *graph.Recipe, name string, providerConstraint string) (value string, err error)
}

// Install binds ctx to thread for the duration of one phase body's
// execution. An RAII-style guard: call the returned func to detach.
func Install(thread *starlark.Thread, ctx *PhaseContext) func() {
	thread.SetLocal(contextLocalKey, ctx)
	return func() { thread.SetLocal(contextLocalKey, nil) }
}

// current retrieves the active PhaseContext for thread, or a ScriptError
// naming binding if none is installed.
func current(thread *starlark.Thread, binding string) (*PhaseContext, error) {
	v := thread.Local(contextLocalKey)
	ctx, ok := v.(*PhaseContext)
	if !ok || ctx == nil {
		return nil, &errmsg.ScriptError{Binding: binding, Message: "called outside of an active phase context"}
	}
	return ctx, nil
}

// requirePhaseAtLeast enforces that the binding is only callable from phase
// p or later (e.g. commit_fetch() requires the fetch phase or later).
func requirePhaseAtLeast(ctx *PhaseContext, binding string, want phase.Phase) error {
	if ctx.Phase < want {
		return &errmsg.ScriptError{Binding: binding, Phase: ctx.Phase.String(), Message: "not valid before phase " + want.String()}
	}
	return nil
}

// requireLock enforces that the binding needs an active cache lock (e.g.
// commit_fetch(), which writes into fetch_dir of a cache-managed entry).
func requireLock(ctx *PhaseContext, binding string) error {
	if ctx.Lock == nil {
		return &errmsg.ScriptError{Binding: binding, Phase: ctx.Phase.String(), Message: "requires an active cache lock"}
	}
	return nil
}
