// Package fetchio implements the fetch/commit_fetch/verify_hash bindings of
// spec.md §4.5: downloading sources into a declared destination, the
// basename-collision renaming rule, atomic tmp-to-fetch promotion, and
// digest verification.
package fetchio

import (
	"fmt"
	"strings"
)

// ResolveBasename returns a destination basename for name that does not
// collide with anything in taken, inserting a numeric suffix before the
// last extension as needed: file.txt, file-2.txt, file-3.txt;
// tool.tar.gz -> tool.tar-2.gz; an extensionless name gets a bare -2, -3.
// taken is mutated to include the returned name.
func ResolveBasename(taken map[string]bool, name string) string {
	if !taken[name] {
		taken[name] = true
		return name
	}

	stem, ext := splitLastExt(name)
	for n := 2; ; n++ {
		candidate := fmt.Sprintf("%s-%d%s", stem, n, ext)
		if !taken[candidate] {
			taken[candidate] = true
			return candidate
		}
	}
}

// splitLastExt splits name into its stem and last extension (including the
// leading dot). A name with no dot has an empty extension.
func splitLastExt(name string) (stem, ext string) {
	idx := strings.LastIndexByte(name, '.')
	if idx <= 0 { // no dot, or a dot at position 0 (dotfile with no stem)
		return name, ""
	}
	return name[:idx], name[idx:]
}
