// Package shell implements the run() binding of spec.md §4.5: executing a
// shell script under one of the named ENVY_SHELL shells, with
// capture/quiet/check/interactive semantics. Inline or file-backed shell
// definitions are not supported; CommandLine rejects any other name.
package shell

import "fmt"

// Name is one of the ENVY_SHELL named choices exposed to scripts.
type Name string

const (
	Bash       Name = "bash"
	Sh         Name = "sh"
	Zsh        Name = "zsh"
	PowerShell Name = "powershell"
	Cmd        Name = "cmd"
)

// CommandLine returns the host invocation for running body under the named
// shell: the executable and its arguments, with body as the final element.
func CommandLine(name Name, body string) ([]string, error) {
	switch name {
	case Bash:
		return []string{"bash", "-c", body}, nil
	case Sh:
		return []string{"sh", "-c", body}, nil
	case Zsh:
		return []string{"zsh", "-c", body}, nil
	case PowerShell:
		return []string{"powershell", "-NoProfile", "-Command", body}, nil
	case Cmd:
		return []string{"cmd", "/C", body}, nil
	default:
		return nil, fmt.Errorf("shell: unknown shell %q", name)
	}
}
