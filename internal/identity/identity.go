// Package identity implements canonical recipe identity: the
// "<namespace>.<name>@<version>{<opt=val,...>}" string that keys the
// in-memory registry and the content cache, the fuzzy-match rules used to
// resolve weak and reference-only dependency edges, and interning of recipe
// configurations. See spec.md §3.
package identity

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"sort"
	"strings"
)

// Options is a recipe's option set: a flat string-to-string map folded into
// the canonical identity string in sorted-key order.
type Options map[string]string

// Spec is an interned recipe configuration: namespace, name, version, and
// options. Two Specs with the same canonical string are, by construction,
// backed by the same interned pointer (see Interner).
type Spec struct {
	Namespace string
	Name      string
	Version   string
	Options   Options
}

// Identity returns the option-free canonical form: "<namespace>.<name>@<version>".
func (s Spec) Identity() string {
	return fmt.Sprintf("%s.%s@%s", s.Namespace, s.Name, s.Version)
}

// Canonical returns the full canonical identity string, including options
// folded in sorted-key order: "<namespace>.<name>@<version>{k=v,...}".
func (s Spec) Canonical() string {
	if len(s.Options) == 0 {
		return s.Identity()
	}
	keys := make([]string, 0, len(s.Options))
	for k := range s.Options {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	pairs := make([]string, 0, len(keys))
	for _, k := range keys {
		pairs = append(pairs, fmt.Sprintf("%s=%s", k, s.Options[k]))
	}
	return fmt.Sprintf("%s{%s}", s.Identity(), strings.Join(pairs, ","))
}

// Validate checks the structural invariants from spec.md §3: namespace,
// name, and version are non-empty.
func (s Spec) Validate() error {
	if s.Namespace == "" {
		return fmt.Errorf("identity: empty namespace in %q", s.Canonical())
	}
	if s.Name == "" {
		return fmt.Errorf("identity: empty name in %q", s.Canonical())
	}
	if s.Version == "" {
		return fmt.Errorf("identity: empty version in %q", s.Canonical())
	}
	return nil
}

// Hash returns the fixed-length content-cache key for s: a hex-encoded
// SHA-256 digest of the canonical identity string. Stable across processes
// and architectures, as required by spec.md §3.
func (s Spec) Hash() string {
	sum := sha256.Sum256([]byte(s.Canonical()))
	return hex.EncodeToString(sum[:])
}

// Parse decodes a canonical identity string back into a Spec. It is the
// inverse of Canonical: building a Spec from a config and parsing the
// resulting Canonical() string back yields identical components.
func Parse(canonical string) (Spec, error) {
	s := canonical
	var opts Options
	if idx := strings.IndexByte(s, '{'); idx != -1 {
		if !strings.HasSuffix(s, "}") {
			return Spec{}, fmt.Errorf("identity: unterminated options in %q", canonical)
		}
		optStr := s[idx+1 : len(s)-1]
		s = s[:idx]
		if optStr != "" {
			opts = make(Options)
			for _, pair := range strings.Split(optStr, ",") {
				k, v, ok := strings.Cut(pair, "=")
				if !ok {
					return Spec{}, fmt.Errorf("identity: malformed option %q in %q", pair, canonical)
				}
				opts[k] = v
			}
		}
	}

	atIdx := strings.IndexByte(s, '@')
	if atIdx == -1 {
		return Spec{}, fmt.Errorf("identity: missing '@' in %q", canonical)
	}
	nsName, version := s[:atIdx], s[atIdx+1:]
	if strings.IndexByte(version, '@') != -1 {
		return Spec{}, fmt.Errorf("identity: multiple '@' in %q", canonical)
	}

	dotIdx := strings.IndexByte(nsName, '.')
	if dotIdx == -1 || strings.IndexByte(nsName[dotIdx+1:], '.') != -1 {
		return Spec{}, fmt.Errorf("identity: expected exactly one '.' before '@' in %q", canonical)
	}
	namespace, name := nsName[:dotIdx], nsName[dotIdx+1:]

	spec := Spec{Namespace: namespace, Name: name, Version: version, Options: opts}
	if err := spec.Validate(); err != nil {
		return Spec{}, err
	}
	return spec, nil
}

// Match reports whether query fuzzy-matches the canonical identity of spec,
// per the rules in spec.md §3:
//
//   - exact canonical string -> match
//   - "<ns>.<name>@<version>" -> match regardless of options
//   - "<ns>.<name>" -> match any version
//   - "<name>" (bare, no '.' or '@') -> match any namespace/version
//   - anything else -> no match
func Match(query string, spec Spec) bool {
	if query == spec.Canonical() {
		return true
	}
	if query == spec.Identity() {
		return true
	}
	if !strings.ContainsAny(query, ".@") {
		return query == spec.Name
	}
	if atIdx := strings.IndexByte(query, '@'); atIdx == -1 {
		// "<ns>.<name>" with no version.
		dotIdx := strings.IndexByte(query, '.')
		if dotIdx == -1 {
			return false
		}
		ns, name := query[:dotIdx], query[dotIdx+1:]
		return ns == spec.Namespace && name == spec.Name && !strings.Contains(name, ".")
	}
	return false
}
