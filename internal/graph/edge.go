package graph

import "github.com/tsukumogami/envy/internal/phase"

// EdgeKind discriminates the four dependency-edge flavours of spec.md §4.3.
type EdgeKind int

const (
	// Strong creates an exact Recipe at recipe_fetch time.
	Strong EdgeKind = iota
	// WeakWithFallback binds to a strong match discovered during settlement,
	// or materialises its fallback recipe config otherwise.
	WeakWithFallback
	// ReferenceOnly must bind to an existing match during settlement; it is
	// an error if none or more than one match exists.
	ReferenceOnly
	// Product binds by product name rather than recipe identity, optionally
	// constrained to a specific provider identity.
	Product
)

func (k EdgeKind) String() string {
	switch k {
	case Strong:
		return "strong"
	case WeakWithFallback:
		return "weak"
	case ReferenceOnly:
		return "reference"
	case Product:
		return "product"
	default:
		return "unknown"
	}
}

// Edge is one declared dependency of a recipe, as recorded during
// recipe_fetch before it is necessarily bound to a concrete Recipe.
type Edge struct {
	Kind EdgeKind

	// Query is the fuzzy-match string used to resolve Strong, WeakWithFallback,
	// and ReferenceOnly edges, or the product name for Product edges.
	Query string

	// Source is the dependency's script path, present for Strong edges.
	Source string

	// Options overrides specific option values on a Strong edge's spec.
	Options map[string]string

	// FallbackConfig is the recipe config materialised if a WeakWithFallback
	// edge finds no strong match during settlement. Nil for other kinds.
	FallbackConfig *FallbackSpec

	// Provider constrains a Product edge to a specific provider identity;
	// empty means "any provider declaring this product name".
	Provider string

	// NeededBy is the earliest phase at which the parent may observe this
	// dependency. Defaults to phase.Check per spec.md §4.3.
	NeededBy phase.Phase

	// Bound is the canonical identity this edge resolved to, once settled.
	// Empty until binding completes.
	Bound string
}

// FallbackSpec is the recipe configuration a weak edge materialises when no
// strong match is found during settlement.
type FallbackSpec struct {
	Namespace string
	Name      string
	Version   string
	Options   map[string]string
	Source    string // script source path or identifier
}

// NewEdge constructs an Edge defaulting NeededBy to phase.Check, matching
// spec.md §4.3's "default: check" rule.
func NewEdge(kind EdgeKind, query string) Edge {
	return Edge{Kind: kind, Query: query, NeededBy: phase.Check}
}
