// Package launcher runs the digitizer inside the provisioned environment
// and relays its outcome. It owns the interactive close: on a terminal the
// launcher pauses for a final acknowledgment so the digitizer's last
// output is not lost with the window; under automation it never blocks.
package launcher

import (
	"errors"
)

// Launch failures, fatal for the run.
var (
	// ErrNotFound signals that the target program is missing from its
	// expected location next to the launcher.
	ErrNotFound = errors.New("target program not found")
	// ErrSpawnFailed signals that the target program exists but could not
	// be started.
	ErrSpawnFailed = errors.New("failed to start target program")
)

// Invocation describes one run of the target program. Built fresh per run
// and immutable once constructed.
type Invocation struct {
	// Target is the program path, fixed relative to the launcher location.
	Target string
	// Args is the argument sequence exactly as passed to the launcher:
	// no parsing, no validation, pass-through.
	Args []string
	// WorkDir is the working directory for the target, the launcher's own
	// directory, so the digitizer's relative output paths land next to it.
	WorkDir string
}
