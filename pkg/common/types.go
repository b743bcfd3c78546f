// Package common provides shared types used across the gdl launcher.
// It defines system types (OS, Arch), the execution result passed back to
// main, and the exit codes the launcher reports to the invoking shell.
package common

// ExecutionResult represents the outcome of one launcher run.
type ExecutionResult struct {
	// ExitCode is the status code the launcher process should exit with.
	// On a completed run it equals the target program's own exit code.
	ExitCode int

	// Completed is true when the target program was actually started and
	// waited on, regardless of its exit code. It stays false when the run
	// terminated earlier (provisioning failure, target missing).
	Completed bool
}

// Exit codes reported when the target program never produced one itself.
// These are launcher-owned and deliberately distinct from common tool codes
// so automation can tell "the target failed" from "the launcher failed".
const (
	// ExitOK is the success exit code.
	ExitOK = 0
	// ExitProvision is reported when provisioning the environment failed
	// before the target program ever ran.
	ExitProvision = 2
	// ExitSpawn is reported when the target program exists but could not
	// be started.
	ExitSpawn = 126
	// ExitNotFound is reported when the target program is missing from its
	// expected location next to the launcher.
	ExitNotFound = 127
)
