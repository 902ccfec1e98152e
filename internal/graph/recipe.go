// Package graph implements the recipe record and the four dependency-edge
// flavours that make up the engine's in-memory dependency graph, plus the
// ancestor-chain cycle detection performed during recipe_fetch. See spec.md
// §3 and §4.3. Execution scheduling (current_phase/target_phase, the
// per-recipe mutex and condition variable) lives in internal/coord, which
// wraps a *Recipe rather than the reverse, keeping this package free of
// concurrency concerns.
package graph

import (
	"sync"

	"github.com/tsukumogami/envy/internal/identity"
)

// Type classifies how a recipe's workspace is disposed at completion.
type Type int

const (
	// CacheManaged recipes survive completion as a persistent cache entry.
	CacheManaged Type = iota
	// UserManaged recipes have no asset path; their workspace is ephemeral
	// and purged after completion regardless of success.
	UserManaged
	// BundleOnly recipes exist purely to group dependencies; they have no
	// fetch/build/install of their own.
	BundleOnly
)

func (t Type) String() string {
	switch t {
	case CacheManaged:
		return "cache-managed"
	case UserManaged:
		return "user-managed"
	case BundleOnly:
		return "bundle-only"
	default:
		return "unknown"
	}
}

// ProductBinding records a product-name edge's resolution: the constrained
// provider identity (if any) and the phase at which it may be observed.
type ProductBinding struct {
	Constraint string // provider identity constraint, empty if unconstrained
	Provider   string // resolved provider identity, once bound
	NeededBy   string
}

// Recipe is the per-instance state table of spec.md §3: one entry per
// canonical identity, shared by every parent that depends on it.
type Recipe struct {
	mu sync.Mutex

	// Key is the canonical identity. Immutable after construction.
	Key string

	// Spec is the interned configuration this recipe was created from.
	Spec *identity.Spec

	// ScriptState holds the recipe's loaded script state, as produced by
	// internal/engine during recipe_fetch. Opaque to this package.
	ScriptState interface{}

	// DeclaredDependencies lists direct dependency edges in declaration
	// order, as written by the recipe's script.
	DeclaredDependencies []Edge

	// Dependencies maps a bound dependency's canonical identity to the
	// phase at which it may first be observed.
	Dependencies map[string]phaseBinding

	// ProductDependencies maps a consumed product name to its binding.
	ProductDependencies map[string]ProductBinding

	// Products maps a product name this recipe declares to its value: a
	// relative path (resolved against InstallDir) or a literal string.
	Products map[string]string

	Kind Type

	// ResultHash is the canonical identity's hash (Spec.Hash()), set at
	// install. Dependency hashes are not folded into it.
	ResultHash string

	// AssetPath is the installed location; empty for user-managed recipes.
	AssetPath string
}

type phaseBinding struct {
	NeededByName string
}

// New constructs an empty Recipe for the given interned spec.
func New(key string, spec *identity.Spec) *Recipe {
	return &Recipe{
		Key:                 key,
		Spec:                spec,
		Dependencies:        make(map[string]phaseBinding),
		ProductDependencies: make(map[string]ProductBinding),
		Products:            make(map[string]string),
	}
}

// BindDependency records that edge resolved to the recipe identified by
// boundIdentity, observable no earlier than neededBy.
func (r *Recipe) BindDependency(boundIdentity string, neededBy string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Dependencies[boundIdentity] = phaseBinding{NeededByName: neededBy}
}

// DependencyNeededBy reports the phase name at which dep may first be
// observed, and whether dep is a bound dependency of r at all.
func (r *Recipe) DependencyNeededBy(dep string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.Dependencies[dep]
	return b.NeededByName, ok
}

// DeclareProduct records a product this recipe publishes.
func (r *Recipe) DeclareProduct(name, value string) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.Products[name] = value
}

// Product returns the declared value for name, and whether it exists.
func (r *Recipe) Product(name string) (string, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	v, ok := r.Products[name]
	return v, ok
}

// BindProduct records that r consumes a product-name dependency, resolved
// to the given provider identity.
func (r *Recipe) BindProduct(name string, binding ProductBinding) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.ProductDependencies[name] = binding
}

// ProductDependency returns r's binding for a consumed product name, and
// whether it was declared at all.
func (r *Recipe) ProductDependency(name string) (ProductBinding, bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	b, ok := r.ProductDependencies[name]
	return b, ok
}
