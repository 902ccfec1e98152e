// Package registry implements the engine's recipe registry of spec.md §4.1:
// the canonical-identity -> Recipe memoisation table and the alias table,
// backed by an in-memory go-memdb database so exact lookups and the
// insert-if-absent memoisation run through indexed transactions rather than
// ad-hoc locking. EnsureRecipe does not compare sources: a second call with
// the same canonical identity returns the existing Recipe unchanged.
package registry

import (
	"fmt"
	"sync"

	memdb "github.com/hashicorp/go-memdb"
	"github.com/tsukumogami/envy/internal/graph"
	"github.com/tsukumogami/envy/internal/identity"
)

const recipeTable = "recipes"

var schema = &memdb.DBSchema{
	Tables: map[string]*memdb.TableSchema{
		recipeTable: {
			Name: recipeTable,
			Indexes: map[string]*memdb.IndexSchema{
				"id": {
					Name:    "id",
					Unique:  true,
					Indexer: &memdb.StringFieldIndex{Field: "Key"},
				},
			},
		},
	},
}

// entry is the row stored in the recipes table: memdb requires a
// struct-field indexer, so the Recipe itself (which embeds a mutex) is
// wrapped rather than indexed directly.
type entry struct {
	Key    string
	Recipe *graph.Recipe
}

// Registry is the engine's recipe and alias table. Thread-safe.
type Registry struct {
	db *memdb.MemDB

	aliasMu sync.Mutex
	aliases map[string]string // alias -> canonical key

	// insertOrder preserves the order recipes were first ensured, so
	// FindMatches can return results in insertion order per spec.md §4.1.
	orderMu     sync.Mutex
	insertOrder []string
}

// New returns an empty Registry.
func New() (*Registry, error) {
	db, err := memdb.NewMemDB(schema)
	if err != nil {
		return nil, fmt.Errorf("registry: %w", err)
	}
	return &Registry{db: db, aliases: make(map[string]string)}, nil
}

// EnsureRecipe returns the existing Recipe for spec's canonical identity, or
// creates and registers a new one. This is the memoisation point: one
// Recipe exists per canonical identity process-wide.
func (r *Registry) EnsureRecipe(spec *identity.Spec) (*graph.Recipe, error) {
	key := spec.Canonical()

	txn := r.db.Txn(true)
	defer txn.Abort()

	raw, err := txn.First(recipeTable, "id", key)
	if err != nil {
		return nil, fmt.Errorf("registry: lookup %s: %w", key, err)
	}
	if raw != nil {
		return raw.(*entry).Recipe, nil
	}

	recipe := graph.New(key, spec)
	if err := txn.Insert(recipeTable, &entry{Key: key, Recipe: recipe}); err != nil {
		return nil, fmt.Errorf("registry: insert %s: %w", key, err)
	}
	txn.Commit()

	r.orderMu.Lock()
	r.insertOrder = append(r.insertOrder, key)
	r.orderMu.Unlock()

	return recipe, nil
}

// RegisterAlias binds a short, user-chosen alias to a canonical identity.
// It fails if alias already points at a different key, keeping alias -> key
// injective.
func (r *Registry) RegisterAlias(alias, key string) error {
	r.aliasMu.Lock()
	defer r.aliasMu.Unlock()

	if existing, ok := r.aliases[alias]; ok && existing != key {
		return fmt.Errorf("registry: alias %q already bound to %q, cannot rebind to %q", alias, existing, key)
	}
	r.aliases[alias] = key
	return nil
}

// FindExact resolves an alias or canonical key to its Recipe, in O(1).
func (r *Registry) FindExact(key string) (*graph.Recipe, bool) {
	r.aliasMu.Lock()
	if resolved, ok := r.aliases[key]; ok {
		key = resolved
	}
	r.aliasMu.Unlock()

	txn := r.db.Txn(false)
	raw, err := txn.First(recipeTable, "id", key)
	if err != nil || raw == nil {
		return nil, false
	}
	return raw.(*entry).Recipe, true
}

// FindMatches scans every registered recipe for a fuzzy match against
// query (per identity.Match), returning results in insertion order.
func (r *Registry) FindMatches(query string) []*graph.Recipe {
	r.orderMu.Lock()
	order := append([]string(nil), r.insertOrder...)
	r.orderMu.Unlock()

	txn := r.db.Txn(false)
	var matches []*graph.Recipe
	for _, key := range order {
		raw, err := txn.First(recipeTable, "id", key)
		if err != nil || raw == nil {
			continue
		}
		rec := raw.(*entry).Recipe
		if rec.Spec != nil && identity.Match(query, *rec.Spec) {
			matches = append(matches, rec)
		}
	}
	return matches
}

// Len returns the number of registered recipes.
func (r *Registry) Len() int {
	r.orderMu.Lock()
	defer r.orderMu.Unlock()
	return len(r.insertOrder)
}
