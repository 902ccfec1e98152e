package config

import (
	"fmt"

	"github.com/BurntSushi/toml"
)

// RootConfig is one entry of the manifest passed to run_full: a recipe query
// plus the options the caller wants applied to its root node. See spec.md §6.
type RootConfig struct {
	Query   string            `toml:"query"`
	Source  string            `toml:"source"` // path to the recipe's script file
	Options map[string]string `toml:"options"`
}

// Manifest is the TOML document cmd/envy reads to drive run_full: an
// ordered list of root recipes to resolve and build.
type Manifest struct {
	Roots []RootConfig `toml:"roots"`
}

// LoadManifest parses the manifest file at path.
func LoadManifest(path string) (*Manifest, error) {
	var m Manifest
	if _, err := toml.DecodeFile(path, &m); err != nil {
		return nil, fmt.Errorf("config: failed to load manifest %s: %w", path, err)
	}
	return &m, nil
}

// ShellBody selects how a recipe's default-shell configuration is evaluated.
type ShellBody int

const (
	// ShellBodyConstant uses a fixed host command line, independent of ENVY_SHELL.
	ShellBodyConstant ShellBody = iota
	// ShellBodyInline evaluates an inline string once, regardless of shell.
	ShellBodyInline
	// ShellBodyFile reads the body from a file on disk once.
	ShellBodyFile
	// ShellBodyFunction re-evaluates a script function on every run() call.
	ShellBodyFunction
)

// ShellConfig is the default shell configuration a recipe may declare,
// consulted by the run() binding when no explicit shell override is given.
type ShellConfig struct {
	Body     ShellBody
	Constant string // host command line, when Body == ShellBodyConstant
	Inline   string // literal body text, when Body == ShellBodyInline
	Path     string // file path, when Body == ShellBodyFile
	Function string // script function name, when Body == ShellBodyFunction
}
