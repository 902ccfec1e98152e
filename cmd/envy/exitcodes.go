package main

import "os"

// Exit codes for different error types. These enable scripts to
// distinguish between failure modes.
const (
	// ExitSuccess indicates successful execution.
	ExitSuccess = 0

	// ExitGeneral indicates a general error.
	ExitGeneral = 1

	// ExitUsage indicates invalid arguments or usage error.
	ExitUsage = 2

	// ExitGraphFailed indicates dependency graph resolution failed: a
	// cycle, an ambiguous or missing reference, or an unconverged weak
	// dependency.
	ExitGraphFailed = 3

	// ExitRecipeFailed indicates one or more recipes failed during
	// run_full (a MultiError from the engine).
	ExitRecipeFailed = 4

	// ExitCancelled indicates the run was cancelled (SIGINT/SIGTERM).
	ExitCancelled = 5
)

func exitWithCode(code int) {
	os.Exit(code)
}
