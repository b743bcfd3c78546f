package venv

import (
	"fmt"
	"os"
	"path/filepath"
	"sort"
	"strings"
	"sync"
)

// Activation is the scoped activation state for one run: the composed
// child environment plus a per-run marker file inside the environment
// root. Release must run on every exit path; it is idempotent.
type Activation struct {
	// Env is the complete child environment with the virtualenv active.
	Env []string

	markerPath string
	mu         sync.Mutex
	released   bool
}

// Activate composes the activated environment for a child process and
// records the run marker. Nothing about the launcher's own process state
// is touched: activation is explicit data handed to the invocation, never
// an ambient side effect.
func (m *manager) Activate() (*Activation, error) {
	root := m.desc.Root

	envs := make(map[string]string)
	for _, env := range os.Environ() {
		pair := strings.SplitN(env, "=", 2)
		if len(pair) == 2 {
			envs[pair[0]] = pair[1]
		}
	}

	envs["VIRTUAL_ENV"] = root
	envs["PATH"] = prependPath(envs["PATH"], EnvBinDir(root, m.Config.GetOS()))
	// A PYTHONHOME pointing at another installation breaks the venv interpreter.
	delete(envs, "PYTHONHOME")

	stateDir := filepath.Join(root, runStateDir)
	if err := os.MkdirAll(stateDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create run state dir: %w", err)
	}
	markerPath := filepath.Join(stateDir, fmt.Sprintf("run-%d", os.Getpid()))
	if err := os.WriteFile(markerPath, []byte(fmt.Sprintf("%d\n", os.Getpid())), 0644); err != nil {
		return nil, fmt.Errorf("failed to write run marker: %w", err)
	}

	return &Activation{
		Env:        envSlice(envs),
		markerPath: markerPath,
	}, nil
}

// Release removes the run marker. Safe to call multiple times and from a
// defer on failure paths.
func (a *Activation) Release() error {
	a.mu.Lock()
	defer a.mu.Unlock()

	if a.released {
		return nil
	}
	a.released = true

	err := os.Remove(a.markerPath)
	if err != nil && os.IsNotExist(err) {
		return nil
	}
	return err
}

// prependPath puts entry at the front of a PATH-style value, dropping any
// duplicate occurrence further down.
func prependPath(val string, entry string) string {
	sep := string(os.PathListSeparator)
	parts := strings.Split(val, sep)
	newParts := []string{entry}
	for _, p := range parts {
		if p != "" && p != entry {
			newParts = append(newParts, p)
		}
	}
	return strings.Join(newParts, sep)
}

func envSlice(envs map[string]string) []string {
	keys := make([]string, 0, len(envs))
	for k := range envs {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	res := make([]string, 0, len(keys))
	for _, k := range keys {
		res = append(res, fmt.Sprintf("%s=%s", k, envs[k]))
	}
	return res
}
