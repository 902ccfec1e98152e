package errmsg

import (
	"errors"
	"fmt"
	"strings"
)

// Format renders err with possible-causes/suggestions when it recognizes the
// error's kind, falling back to err.Error() otherwise.
func Format(err error) string {
	if err == nil {
		return ""
	}

	var graphErr *GraphError
	if errors.As(err, &graphErr) {
		return formatGraph(graphErr)
	}

	var accessErr *DependencyAccessError
	if errors.As(err, &accessErr) {
		return formatAccess(accessErr)
	}

	var fetchErr *FetchError
	if errors.As(err, &fetchErr) {
		return formatFetch(fetchErr)
	}

	var shellErr *ShellError
	if errors.As(err, &shellErr) {
		return formatShell(shellErr)
	}

	var cacheErr *CacheError
	if errors.As(err, &cacheErr) {
		return formatCache(cacheErr)
	}

	return err.Error()
}

func formatGraph(e *GraphError) string {
	var b strings.Builder
	b.WriteString(e.Error())
	switch e.Kind {
	case GraphCycle:
		b.WriteString("\n\nSuggestions:\n  - Break the cycle by removing or weakening one of the edges shown above\n")
	case GraphAmbiguousReference:
		b.WriteString(fmt.Sprintf("\n\nSuggestions:\n  - Qualify the reference with a version: %q\n", e.Matches[0]))
	case GraphWeakUnresolved:
		b.WriteString("\n\nSuggestions:\n  - Ensure the weak dependency's fallback recipe is reachable\n")
	case GraphMissingReference:
		b.WriteString("\n\nSuggestions:\n  - Add a root recipe config that satisfies this reference\n")
	}
	return b.String()
}

func formatAccess(e *DependencyAccessError) string {
	var b strings.Builder
	b.WriteString(e.Error())
	if e.Kind == AccessBeforeNeededBy {
		b.WriteString(fmt.Sprintf("\n\nSuggestions:\n  - Move this access to phase %q or later, or raise the edge's needed_by\n", e.NeededBy))
	}
	return b.String()
}

func formatFetch(e *FetchError) string {
	var b strings.Builder
	b.WriteString(e.Error())
	if e.Expected != "" {
		b.WriteString("\n\nPossible causes:\n  - The upstream artifact changed\n  - The declared sha256 is stale\n")
	}
	return b.String()
}

func formatShell(e *ShellError) string {
	var b strings.Builder
	b.WriteString(e.Error())
	if e.Signaled {
		b.WriteString("\n\nSuggestions:\n  - Signals are always fatal; check for OOM kills or manual interruption\n")
	}
	return b.String()
}

func formatCache(e *CacheError) string {
	var b strings.Builder
	b.WriteString(e.Error())
	b.WriteString("\n\nSuggestions:\n  - Check for a stale lock file under the cache root's locks/ directory\n")
	return b.String()
}
