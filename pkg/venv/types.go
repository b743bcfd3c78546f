// Package venv provides the environment provisioning logic. It guarantees
// a usable virtualenv exists next to the launcher before the digitizer
// runs, creating and populating it idempotently when absent.
package venv

import (
	"errors"
	"fmt"
	"path/filepath"

	"gdl/pkg/config"
)

// Provisioning failures, fatal for the run. The launcher must not invoke
// the target program after either of these.
var (
	// ErrCreateFailed signals that the environment directory could not be
	// created (permissions, disk full, broken interpreter).
	ErrCreateFailed = errors.New("environment creation failed")
	// ErrInstallFailed signals that installing the dependency list into the
	// environment failed (network unavailable, package not found).
	ErrInstallFailed = errors.New("dependency installation failed")
)

// ManifestName is the state file written inside the environment root after
// provisioning fully succeeds. A root without it is treated as partial and
// rebuilt.
const ManifestName = "gdl.env.json"

// runStateDir holds per-run activation markers inside the environment root.
const runStateDir = ".gdl"

// Descriptor describes the environment one launcher install owns.
// Immutable once constructed.
type Descriptor struct {
	// Root is the environment directory, derived from the launcher's own
	// location.
	Root string
	// Interpreter is the Python used to seed the environment.
	Interpreter string
	// Dependencies is the fixed, ordered list of libraries to install.
	Dependencies []string
}

// Validate checks the descriptor invariants.
func (d *Descriptor) Validate() error {
	if d.Root == "" {
		return fmt.Errorf("environment root not set")
	}
	if d.Interpreter == "" {
		return fmt.Errorf("interpreter not set")
	}
	if len(d.Dependencies) == 0 {
		return fmt.Errorf("dependency list must be non-empty")
	}
	return nil
}

// Manifest records what a successful provisioning produced. Its presence
// is what marks an environment root as complete.
type Manifest struct {
	// Interpreter is the Python that seeded the environment.
	Interpreter string `json:"interpreter"`
	// Dependencies is the list installed, in order.
	Dependencies []string `json:"dependencies"`
	// CreatedAt is when provisioning finished, RFC3339.
	CreatedAt string `json:"created_at"`
}

// EnvPython returns the interpreter path inside an environment root for
// the given OS. Virtualenv layout differs between Windows and Unix.
func EnvPython(root string, osType config.OSType) string {
	if osType == config.OSWindows {
		return filepath.Join(root, "Scripts", "python.exe")
	}
	return filepath.Join(root, "bin", "python")
}

// EnvBinDir returns the executable directory inside an environment root.
func EnvBinDir(root string, osType config.OSType) string {
	if osType == config.OSWindows {
		return filepath.Join(root, "Scripts")
	}
	return filepath.Join(root, "bin")
}
