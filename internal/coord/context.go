// Package coord implements the per-recipe execution context and resumable
// phase loop of spec.md §4.2: the current_phase/target_phase protocol, the
// condition-variable wake-up rules, and the global pending-recipe-fetches
// settlement barrier used by resolve_graph.
package coord

import (
	"sync"

	"github.com/tsukumogami/envy/internal/graph"
	"github.com/tsukumogami/envy/internal/phase"
)

// Context is the engine-owned coordination record for one Recipe: a mutex
// and condition variable guarding current_phase, target_phase, and the
// failure flag, plus the ancestor chain captured at recipe_fetch time and
// the worker-started flag.
type Context struct {
	mu sync.Mutex
	cv *sync.Cond

	Recipe *graph.Recipe

	current phase.Phase
	target  phase.Phase
	failed  bool
	err     error
	started bool

	Ancestry *graph.Ancestry
}

// NewContext returns a fresh execution context for recipe, with
// current_phase = none and target_phase = none.
func NewContext(recipe *graph.Recipe, ancestry *graph.Ancestry) *Context {
	c := &Context{Recipe: recipe, current: phase.None, target: phase.None, Ancestry: ancestry}
	c.cv = sync.NewCond(&c.mu)
	return c
}

// CurrentPhase returns the last phase this recipe completed.
func (c *Context) CurrentPhase() phase.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.current
}

// TargetPhase returns the current inclusive upper bound this recipe's
// worker is driving toward.
func (c *Context) TargetPhase() phase.Phase {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.target
}

// Failed reports whether this recipe's worker has failed, and the error
// that caused it, if any.
func (c *Context) Failed() (bool, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.failed, c.err
}

// Started reports whether a worker has already been spawned for this
// recipe, and atomically marks it started if not — the caller that
// receives false is responsible for spawning exactly one worker.
func (c *Context) Started() bool {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.started {
		return true
	}
	c.started = true
	return false
}

// EnsureAtPhase raises target_phase monotonically to at least p and wakes
// any waiters. Raising below the current target is a no-op, matching
// spec.md §4.2's "extend target_phase monotonically (only raise, never
// lower)".
func (c *Context) EnsureAtPhase(p phase.Phase) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if p > c.target {
		c.target = p
	}
	c.cv.Broadcast()
}

// WaitUntil blocks until current_phase has reached at least p, or the
// recipe has failed. It returns the failure flag so callers can propagate
// it to their own context.
func (c *Context) WaitUntil(p phase.Phase) (failed bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.current < p && !c.failed {
		c.cv.Wait()
	}
	return c.failed
}

// fail marks the context failed with err and wakes every waiter. Safe to
// call multiple times; only the first error is retained.
func (c *Context) fail(err error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if !c.failed {
		c.failed = true
		c.err = err
	}
	c.cv.Broadcast()
}

// advance records that next has completed and wakes every waiter.
func (c *Context) advance(next phase.Phase) {
	c.mu.Lock()
	c.current = next
	c.mu.Unlock()
	c.cv.Broadcast()
}

// waitForWork blocks until target_phase exceeds current_phase or the
// recipe has failed, then returns the next phase to run (or ok=false if
// the loop should exit because of failure or because completion was
// already reached).
func (c *Context) waitForWork() (next phase.Phase, ok bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	for c.current >= c.target && !c.failed {
		c.cv.Wait()
	}
	if c.failed {
		return phase.None, false
	}
	succ, hasNext := phase.Successor(c.current)
	if !hasNext {
		return phase.None, false
	}
	return succ, true
}
