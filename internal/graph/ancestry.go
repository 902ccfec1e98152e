package graph

import (
	"fmt"

	"github.com/tsukumogami/envy/internal/errmsg"
)

// Ancestry is the set of canonical identities currently on a recipe_fetch
// path, passed down the fetch chain so that a new dependency encountering
// one of its own ancestors fails structurally instead of deadlocking.
// See spec.md §4.3.
type Ancestry struct {
	path []string
	seen map[string]bool
}

// NewAncestry returns an empty ancestor chain.
func NewAncestry() *Ancestry {
	return &Ancestry{seen: make(map[string]bool)}
}

// Extend returns a new Ancestry with identity appended, or a GraphError if
// identity already appears in the chain (a cycle). The receiver is left
// unmodified; callers pass the returned chain down to each child's
// recipe_fetch, never mutating a shared instance across siblings.
func (a *Ancestry) Extend(identity string) (*Ancestry, error) {
	if a.seen[identity] {
		return nil, &errmsg.GraphError{
			Kind:     errmsg.GraphCycle,
			Identity: identity,
			Path:     append(append([]string{}, a.path...), identity),
		}
	}

	next := &Ancestry{
		path: make([]string, len(a.path), len(a.path)+1),
		seen: make(map[string]bool, len(a.seen)+1),
	}
	copy(next.path, a.path)
	next.path = append(next.path, identity)
	for k := range a.seen {
		next.seen[k] = true
	}
	next.seen[identity] = true
	return next, nil
}

// Contains reports whether identity is already on the chain.
func (a *Ancestry) Contains(identity string) bool {
	return a.seen[identity]
}

// Path returns the ancestor chain in traversal order, root first.
func (a *Ancestry) Path() []string {
	return append([]string{}, a.path...)
}

func (a *Ancestry) String() string {
	return fmt.Sprintf("%v", a.path)
}
