// Package pyruntime locates the Python interpreter used to seed the
// digitizer's environment. Resolution order: explicit override, PATH
// lookup, a previously bootstrapped runtime next to the launcher, and
// finally a fresh bootstrap download of a standalone CPython build.
package pyruntime

import (
	"context"
	"os"
	"os/exec"
	"path/filepath"

	"gdl/pkg/config"
	"gdl/pkg/display"
)

// EnvPythonOverride names the environment variable that pins the
// interpreter explicitly, bypassing lookup and bootstrap.
const EnvPythonOverride = "GDL_PYTHON"

// Locate returns the path of a usable Python interpreter, bootstrapping a
// standalone build next to the launcher when the host has none.
func Locate(ctx context.Context, cfg config.ReadOnly, disp display.Display) (string, error) {
	if override := os.Getenv(EnvPythonOverride); override != "" {
		return override, nil
	}

	for _, name := range candidateNames(cfg.GetOS()) {
		if path, err := exec.LookPath(name); err == nil {
			return path, nil
		}
	}

	// A runtime bootstrapped by an earlier run lives next to the launcher.
	if path := runtimePython(cfg.GetRuntimeDir(), cfg.GetOS()); path != "" {
		if _, err := os.Stat(path); err == nil {
			return path, nil
		}
	}

	if err := Bootstrap(ctx, cfg, disp); err != nil {
		return "", err
	}
	return runtimePython(cfg.GetRuntimeDir(), cfg.GetOS()), nil
}

func candidateNames(osType config.OSType) []string {
	if osType == config.OSWindows {
		return []string{"python", "python3"}
	}
	return []string{"python3", "python"}
}

// runtimePython returns the interpreter path inside a bootstrapped runtime
// directory. Standalone builds unpack as a top-level "python" folder.
func runtimePython(runtimeDir string, osType config.OSType) string {
	if runtimeDir == "" {
		return ""
	}
	if osType == config.OSWindows {
		return filepath.Join(runtimeDir, "python", "python.exe")
	}
	return filepath.Join(runtimeDir, "python", "bin", "python3")
}
