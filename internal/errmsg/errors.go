// Package errmsg defines the engine's structured error taxonomy (spec.md §7)
// and renders actionable messages from it. GraphError, DependencyAccessError
// and CacheError name the recipe identity involved (CacheError by identity
// hash); FetchError, ShellError, FilesystemError and ScriptError do not name
// a recipe. MultiError prefixes each aggregated failure with its recipe's
// identity, and ScriptError carries the phase where one applies.
package errmsg

import (
	"fmt"
	"sort"
	"strings"
)

// GraphKind discriminates the GraphError variants.
type GraphKind int

const (
	GraphCycle GraphKind = iota
	GraphAmbiguousReference
	GraphWeakUnresolved
	GraphMissingReference
)

// GraphError reports a structural problem discovered while resolving the
// dependency graph: a cycle, an ambiguous reference-only edge, a
// weak-fallback settlement that failed to converge, or a reference with no
// candidate.
type GraphError struct {
	Kind     GraphKind
	Identity string   // the recipe whose edge triggered the error
	Query    string   // the dependency query/spec involved, if any
	Path     []string // full cycle path, for GraphCycle
	Matches  []string // candidate identities, for GraphAmbiguousReference
}

func (e *GraphError) Error() string {
	switch e.Kind {
	case GraphCycle:
		return fmt.Sprintf("dependency cycle detected: %s", strings.Join(e.Path, " -> "))
	case GraphAmbiguousReference:
		return fmt.Sprintf("recipe %s: reference %q is ambiguous, matches: %s",
			e.Identity, e.Query, strings.Join(e.Matches, ", "))
	case GraphWeakUnresolved:
		return fmt.Sprintf("recipe %s: weak dependency %q did not converge during settlement", e.Identity, e.Query)
	case GraphMissingReference:
		return fmt.Sprintf("recipe %s: reference %q matches no recipe in the graph", e.Identity, e.Query)
	default:
		return fmt.Sprintf("recipe %s: graph error", e.Identity)
	}
}

// DependencyAccessKind discriminates DependencyAccessError variants.
type DependencyAccessKind int

const (
	AccessNotDeclared DependencyAccessKind = iota
	AccessBeforeNeededBy
	AccessUserManaged
	AccessProductMismatch
	AccessProductMissing
)

// DependencyAccessError reports that a recipe's script tried to observe a
// dependency in a way the coordination protocol forbids: undeclared,
// too early relative to needed_by, user-managed with no path, or a product
// constraint mismatch.
type DependencyAccessError struct {
	Kind         DependencyAccessKind
	Recipe       string
	Dependency   string
	CurrentPhase string
	NeededBy     string
	Product      string
	Provider     string
	Constraint   string
}

func (e *DependencyAccessError) Error() string {
	switch e.Kind {
	case AccessNotDeclared:
		return fmt.Sprintf("recipe %s: %q is not a declared dependency", e.Recipe, e.Dependency)
	case AccessBeforeNeededBy:
		return fmt.Sprintf("recipe %s: accessed %q at phase %q, but it is not needed until phase %q",
			e.Recipe, e.Dependency, e.CurrentPhase, e.NeededBy)
	case AccessUserManaged:
		return fmt.Sprintf("recipe %s: %q is user-managed and has no install path", e.Recipe, e.Dependency)
	case AccessProductMismatch:
		return fmt.Sprintf("recipe %s: product %q is provided by %s, not the constrained provider %s",
			e.Recipe, e.Product, e.Provider, e.Constraint)
	case AccessProductMissing:
		return fmt.Sprintf("recipe %s: provider %s declares no product %q", e.Recipe, e.Provider, e.Product)
	default:
		return fmt.Sprintf("recipe %s: dependency access error", e.Recipe)
	}
}

// FetchError reports a transport failure, a hash mismatch, or an
// unresolvable destination-basename collision during the fetch binding.
type FetchError struct {
	Source   string
	Dest     string
	Expected string
	Actual   string
	Err      error
}

func (e *FetchError) Error() string {
	if e.Expected != "" {
		return fmt.Sprintf("fetch %s: checksum mismatch (expected %s, got %s)", e.Source, e.Expected, e.Actual)
	}
	if e.Err != nil {
		return fmt.Sprintf("fetch %s: %v", e.Source, e.Err)
	}
	return fmt.Sprintf("fetch %s: destination %s already exists with different content", e.Source, e.Dest)
}

func (e *FetchError) Unwrap() error { return e.Err }

// ShellError reports a run() binding failure: a non-zero exit with
// check=true, or termination by signal (always fatal regardless of check).
type ShellError struct {
	Command  string
	ExitCode int
	Signaled bool
	Err      error
}

func (e *ShellError) Error() string {
	if e.Signaled {
		return fmt.Sprintf("command terminated by signal: %s", e.Command)
	}
	return fmt.Sprintf("command exited with code %d: %s", e.ExitCode, e.Command)
}

func (e *ShellError) Unwrap() error { return e.Err }

// FilesystemError reports a source-missing, destination-exists, or
// wrong-file-type failure from the copy/move/remove/extract bindings.
type FilesystemError struct {
	Op   string // "copy", "move", "remove", "extract"
	Path string
	Err  error
}

func (e *FilesystemError) Error() string {
	return fmt.Sprintf("%s %s: %v", e.Op, e.Path, e.Err)
}

func (e *FilesystemError) Unwrap() error { return e.Err }

// CacheError reports a scoped-lock acquisition failure, or an entry already
// installed under a mismatching result hash.
type CacheError struct {
	Identity string
	Message  string
	Err      error
}

func (e *CacheError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("cache %s: %s: %v", e.Identity, e.Message, e.Err)
	}
	return fmt.Sprintf("cache %s: %s", e.Identity, e.Message)
}

func (e *CacheError) Unwrap() error { return e.Err }

// ScriptError reports binding misuse: wrong phase context, bad argument
// types, or unknown option keys.
type ScriptError struct {
	Binding string
	Phase   string
	Message string
}

func (e *ScriptError) Error() string {
	if e.Phase != "" {
		return fmt.Sprintf("%s: %s (phase %s)", e.Binding, e.Message, e.Phase)
	}
	return fmt.Sprintf("%s: %s", e.Binding, e.Message)
}

// MultiError aggregates per-recipe failures from run_full into one error
// whose message lists first failures in a stable, identity-sorted order.
type MultiError struct {
	Failures map[string]error // identity -> first failure
}

func (e *MultiError) Error() string {
	if len(e.Failures) == 0 {
		return "no failures"
	}
	ids := make([]string, 0, len(e.Failures))
	for id := range e.Failures {
		ids = append(ids, id)
	}
	sort.Strings(ids)

	var b strings.Builder
	fmt.Fprintf(&b, "%d recipe(s) failed:\n", len(ids))
	for _, id := range ids {
		fmt.Fprintf(&b, "  - %s: %v\n", id, e.Failures[id])
	}
	return strings.TrimRight(b.String(), "\n")
}
