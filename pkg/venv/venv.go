package venv

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"time"

	"gdl/pkg/cache"
	"gdl/pkg/config"
	"gdl/pkg/display"
	"gdl/pkg/lazyjson"
)

// manager implements environment provisioning for one descriptor.
type manager struct {
	Config config.ReadOnly
	Disp   display.Display
	desc   Descriptor
}

// Manager is a pointer to the internal manager implementation.
type Manager = *manager

// NewManager creates an environment Manager for the given descriptor.
func NewManager(cfg config.ReadOnly, disp display.Display, desc Descriptor) Manager {
	return &manager{
		Config: cfg,
		Disp:   disp,
		desc:   desc,
	}
}

// Descriptor returns the descriptor this manager provisions.
func (m *manager) Descriptor() Descriptor {
	return m.desc
}

// Ensure guarantees the environment exists and is complete. A valid
// environment is left untouched; a missing or partial one is built under a
// lock so concurrent first runs provision exactly once. There is no retry:
// a failed attempt terminates the run, and re-running the launcher is the
// retry mechanism.
func (m *manager) Ensure(ctx context.Context) error {
	if err := m.desc.Validate(); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	return cache.Ensure(m.desc.Root, m.Valid, func() error {
		return m.provision(ctx)
	})
}

// Valid reports whether the environment root is complete: interpreter in
// place and a manifest recording the configured dependency list. A root
// left behind by an interrupted provisioning has no manifest and is
// rebuilt instead of being silently trusted.
func (m *manager) Valid() bool {
	if _, err := os.Stat(EnvPython(m.desc.Root, m.Config.GetOS())); err != nil {
		return false
	}

	mf := m.manifest()
	data, err := mf.Get()
	if err != nil {
		return false
	}
	return slices.Equal(data.Dependencies, m.desc.Dependencies)
}

func (m *manager) manifest() lazyjson.Manager[Manifest] {
	path := filepath.Join(m.desc.Root, ManifestName)
	return lazyjson.New[Manifest](path, lazyjson.WithCreateIfMissing[Manifest](false))
}

// provision builds the environment from scratch. Caller holds the lock.
func (m *manager) provision(ctx context.Context) error {
	root := m.desc.Root

	if _, err := os.Stat(root); err == nil {
		slog.Info("Removing partial environment", "root", root)
		if err := os.RemoveAll(root); err != nil {
			return fmt.Errorf("%w: %w", ErrCreateFailed, err)
		}
	}

	m.Disp.Status(fmt.Sprintf("Provisioning environment in %s", root))
	slog.Info("Creating environment", "root", root, "interpreter", m.desc.Interpreter)

	if err := m.run(ctx, m.desc.Interpreter, "-m", "venv", root); err != nil {
		return fmt.Errorf("%w: %w", ErrCreateFailed, err)
	}

	envPython := EnvPython(root, m.Config.GetOS())

	// pip first, so the dependency install below uses a current resolver.
	if err := m.run(ctx, envPython, "-m", "pip", "install", "--upgrade", "pip"); err != nil {
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}

	installArgs := append([]string{"-m", "pip", "install"}, m.desc.Dependencies...)
	if err := m.run(ctx, envPython, installArgs...); err != nil {
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}

	if err := m.writeManifest(); err != nil {
		return fmt.Errorf("%w: %w", ErrInstallFailed, err)
	}

	slog.Info("Environment ready", "root", root, "deps", m.desc.Dependencies)
	return nil
}

// run executes a provisioning subprocess with inherited output streams, so
// venv and pip diagnostics reach the terminal unmodified.
func (m *manager) run(ctx context.Context, exe string, args ...string) error {
	m.Disp.Log(fmt.Sprintf("exec %s %v", exe, args))
	cmd := exec.CommandContext(ctx, exe, args...)
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr
	return cmd.Run()
}

// writeManifest marks the environment as complete. Written last and
// renamed into place atomically: every earlier failure leaves a root that
// Valid rejects.
func (m *manager) writeManifest() error {
	mf := lazyjson.New[Manifest](filepath.Join(m.desc.Root, ManifestName))
	err := mf.Modify(func(data *Manifest) error {
		data.Interpreter = m.desc.Interpreter
		data.Dependencies = append([]string(nil), m.desc.Dependencies...)
		data.CreatedAt = time.Now().Format(time.RFC3339)
		return nil
	})
	if err != nil {
		return err
	}
	return mf.Save()
}
