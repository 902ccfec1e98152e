// Package phase defines the fixed, strictly ordered pipeline every recipe
// moves through: none -> recipe_fetch -> check -> fetch -> stage -> build ->
// install -> deploy -> completion. See spec.md §4.2.
package phase

import "fmt"

// Phase is one stage in the recipe execution pipeline.
type Phase int

const (
	// None is the sentinel meaning "not started". It precedes RecipeFetch
	// in the total order but is never a valid target for execution.
	None Phase = iota
	RecipeFetch
	Check
	Fetch
	Stage
	Build
	Install
	Deploy
	Completion
)

// ordered lists every phase in pipeline order; its index doubles as the
// total order used for comparisons.
var ordered = []Phase{None, RecipeFetch, Check, Fetch, Stage, Build, Install, Deploy, Completion}

var names = map[Phase]string{
	None:        "none",
	RecipeFetch: "recipe_fetch",
	Check:       "check",
	Fetch:       "fetch",
	Stage:       "stage",
	Build:       "build",
	Install:     "install",
	Deploy:      "deploy",
	Completion:  "completion",
}

var byName = func() map[string]Phase {
	m := make(map[string]Phase, len(names))
	for p, n := range names {
		m[n] = p
	}
	return m
}()

// String returns the canonical lower_snake_case name of the phase.
func (p Phase) String() string {
	if n, ok := names[p]; ok {
		return n
	}
	return fmt.Sprintf("phase(%d)", int(p))
}

// Parse resolves a phase by its canonical name.
func Parse(name string) (Phase, bool) {
	p, ok := byName[name]
	return p, ok
}

// Valid reports whether p is one of the nine defined phases.
func (p Phase) Valid() bool {
	_, ok := names[p]
	return ok
}

// Successor returns the phase that immediately follows p in the pipeline.
// Successor(Completion) returns Completion, false since there is nothing
// after completion.
func Successor(p Phase) (Phase, bool) {
	for i, cur := range ordered {
		if cur == p {
			if i+1 < len(ordered) {
				return ordered[i+1], true
			}
			return Completion, false
		}
	}
	return None, false
}

// Less reports whether a precedes b in the total pipeline order.
func Less(a, b Phase) bool {
	return a < b
}

// AtLeast reports whether a has reached at least b in the pipeline order.
func AtLeast(a, b Phase) bool {
	return a >= b
}
