package coord

import (
	"github.com/tsukumogami/envy/internal/log"
	"github.com/tsukumogami/envy/internal/phase"
)

// PhaseRunner executes the body of one phase for a recipe. Implemented by
// internal/engine, which closes over the script, cache, and registry state
// needed to actually perform recipe_fetch/check/fetch/stage/build/install/
// deploy/completion.
type PhaseRunner func(next phase.Phase) error

// Run drives c's resumable phase loop, the direct translation of spec.md
// §4.2's per-recipe loop pseudocode. It returns when the recipe reaches
// completion or fails; the caller runs Run on its own worker goroutine.
func (c *Context) Run(runner PhaseRunner) {
	for {
		next, ok := c.waitForWork()
		if !ok {
			return
		}

		if err := runner(next); err != nil {
			log.Default().Error("phase failed", "recipe", c.Recipe.Key, "phase", next.String(), "error", err)
			c.fail(err)
			return
		}

		c.advance(next)
		log.Default().Debug("phase advanced", "recipe", c.Recipe.Key, "phase", next.String())
		if next == phase.Completion {
			return
		}
	}
}
