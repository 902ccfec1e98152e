package identity

import "sync"

// Interner folds structurally-equal Specs onto a single shared pointer,
// keyed by canonical string. The registry's ensure_recipe uses this so that
// every Recipe record referencing the same canonical identity holds the same
// *Spec, not a copy.
type Interner struct {
	mu    sync.Mutex
	specs map[string]*Spec
}

// NewInterner returns an empty Interner.
func NewInterner() *Interner {
	return &Interner{specs: make(map[string]*Spec)}
}

// Intern returns the canonical *Spec for s, creating and caching one on
// first use. Subsequent calls with an equal canonical string return the same
// pointer.
func (in *Interner) Intern(s Spec) *Spec {
	canonical := s.Canonical()

	in.mu.Lock()
	defer in.mu.Unlock()

	if existing, ok := in.specs[canonical]; ok {
		return existing
	}
	interned := s
	in.specs[canonical] = &interned
	return &interned
}

// Len returns the number of distinct canonical identities interned so far.
func (in *Interner) Len() int {
	in.mu.Lock()
	defer in.mu.Unlock()
	return len(in.specs)
}
