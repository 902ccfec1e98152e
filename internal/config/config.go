// Package config resolves engine-level tunables from the environment and
// defines the manifest input types the (out-of-scope) manifest loader
// produces: root recipe configurations and the default-shell configuration.
// See spec.md §6.
package config

import (
	"fmt"
	"os"
	"time"

	"github.com/adrg/xdg"
)

const (
	// EnvCacheRoot overrides the default cache root directory.
	EnvCacheRoot = "ENVY_CACHE_ROOT"

	// EnvAPITimeout configures the default fetch transport's request timeout.
	EnvAPITimeout = "ENVY_API_TIMEOUT"

	// DefaultAPITimeout is used when EnvAPITimeout is unset or invalid.
	DefaultAPITimeout = 30 * time.Second
)

// DefaultCacheRoot returns $XDG_CACHE_HOME/envy, or its ENVY_CACHE_ROOT
// override. This is the cache root every recipe's fetch/stage/install
// directories are rooted under.
func DefaultCacheRoot() string {
	if root := os.Getenv(EnvCacheRoot); root != "" {
		return root
	}
	return xdg.CacheHome + string(os.PathSeparator) + "envy"
}

// GetAPITimeout returns the configured fetch-transport timeout, clamped to
// [1s, 10m]. Invalid values are reported to stderr and the default is used.
func GetAPITimeout() time.Duration {
	envValue := os.Getenv(EnvAPITimeout)
	if envValue == "" {
		return DefaultAPITimeout
	}

	d, err := time.ParseDuration(envValue)
	if err != nil {
		fmt.Fprintf(os.Stderr, "Warning: invalid %s value %q, using default %v\n", EnvAPITimeout, envValue, DefaultAPITimeout)
		return DefaultAPITimeout
	}
	if d < time.Second {
		fmt.Fprintf(os.Stderr, "Warning: %s too low (%v), using minimum 1s\n", EnvAPITimeout, d)
		return time.Second
	}
	if d > 10*time.Minute {
		fmt.Fprintf(os.Stderr, "Warning: %s too high (%v), using maximum 10m\n", EnvAPITimeout, d)
		return 10 * time.Minute
	}
	return d
}
