package launcher

import (
	"context"
	"fmt"
	"log/slog"
	"os"
	"os/exec"
	"syscall"

	"gdl/pkg/common"
	"gdl/pkg/config"
	"gdl/pkg/display"
	"gdl/pkg/pyruntime"
	"gdl/pkg/venv"
)

// manager wires the provisioner and the invocation together for one run.
type manager struct {
	Config config.ReadOnly
	Disp   display.Display
	stdin  *os.File
}

// Manager is a pointer to the internal manager implementation.
type Manager = *manager

// NewManager creates a launcher Manager reading acknowledgments from the
// process's standard input.
func NewManager(cfg config.ReadOnly, disp display.Display) Manager {
	return NewManagerWithInput(cfg, disp, os.Stdin)
}

// NewManagerWithInput creates a launcher Manager with an explicit input
// file for interactivity detection and the acknowledgment read.
func NewManagerWithInput(cfg config.ReadOnly, disp display.Display, stdin *os.File) Manager {
	return &manager{
		Config: cfg,
		Disp:   disp,
		stdin:  stdin,
	}
}

// Run executes one full launcher pass: provision if needed, invoke the
// target with the forwarded arguments, relay its exit code, and pause for
// acknowledgment on interactive terminals. The returned result's ExitCode
// is the launcher's own exit code.
func (m *manager) Run(ctx context.Context, args []string) *common.ExecutionResult {
	// Interactivity is sampled once, before anything else can touch stdin.
	interactive := Interactive(m.stdin)

	res := m.runOnce(ctx, args)

	if interactive {
		if res.Completed && res.ExitCode != common.ExitOK {
			m.Disp.Error(fmt.Sprintf("graph_digitizer exited with code %d", res.ExitCode))
		}
		m.Disp.Print(promptText)
		awaitAck(m.stdin)
	}

	return res
}

func (m *manager) runOnce(ctx context.Context, args []string) *common.ExecutionResult {
	envMgr, err := m.ensureEnvironment(ctx)
	if err != nil {
		m.Disp.Error(fmt.Sprintf("environment provisioning failed: %v", err))
		return &common.ExecutionResult{ExitCode: common.ExitProvision}
	}

	target := m.Config.GetTargetScript()
	if _, err := os.Stat(target); err != nil {
		m.Disp.Error(fmt.Sprintf("%v: %s", ErrNotFound, target))
		return &common.ExecutionResult{ExitCode: common.ExitNotFound}
	}

	act, err := envMgr.Activate()
	if err != nil {
		m.Disp.Error(fmt.Sprintf("environment activation failed: %v", err))
		return &common.ExecutionResult{ExitCode: common.ExitSpawn}
	}
	defer act.Release()

	inv := &Invocation{
		Target:  target,
		Args:    args,
		WorkDir: m.Config.GetBaseDir(),
	}

	interpreter := venv.EnvPython(envMgr.Descriptor().Root, m.Config.GetOS())
	code, err := m.invoke(ctx, interpreter, inv, act.Env)
	if err != nil {
		m.Disp.Error(fmt.Sprintf("%v: %v", ErrSpawnFailed, err))
		return &common.ExecutionResult{ExitCode: common.ExitSpawn}
	}

	return &common.ExecutionResult{ExitCode: code, Completed: true}
}

// ensureEnvironment returns a manager over a valid environment, locating
// an interpreter and provisioning only when the environment is missing or
// partial (idempotent skip otherwise).
func (m *manager) ensureEnvironment(ctx context.Context) (venv.Manager, error) {
	desc := venv.Descriptor{
		Root:         m.Config.GetEnvRoot(),
		Dependencies: m.Config.GetDependencies(),
	}

	envMgr := venv.NewManager(m.Config, m.Disp, desc)
	if envMgr.Valid() {
		return envMgr, nil
	}

	// Only a missing environment needs a seed interpreter; a valid one
	// carries its own.
	interpreter, err := pyruntime.Locate(ctx, m.Config, m.Disp)
	if err != nil {
		return nil, err
	}

	desc.Interpreter = interpreter
	envMgr = venv.NewManager(m.Config, m.Disp, desc)
	if err := envMgr.Ensure(ctx); err != nil {
		return nil, err
	}
	return envMgr, nil
}

// invoke runs the target program as a child with fully inherited standard
// streams and waits for it. The returned code is whatever the platform
// reports for the child, untransformed.
func (m *manager) invoke(ctx context.Context, interpreter string, inv *Invocation, env []string) (int, error) {
	slog.Info("Invoking target", "interpreter", interpreter, "target", inv.Target, "args", inv.Args)

	cmdArgs := append([]string{inv.Target}, inv.Args...)
	cmd := exec.CommandContext(ctx, interpreter, cmdArgs...)
	cmd.Dir = inv.WorkDir
	cmd.Env = env
	cmd.Stdin = m.stdin
	cmd.Stdout = os.Stdout
	cmd.Stderr = os.Stderr

	err := cmd.Run()
	if err == nil {
		return common.ExitOK, nil
	}

	if ee, ok := err.(*exec.ExitError); ok {
		code := ee.ExitCode()
		if code < 0 {
			// Killed by a signal: report the way shells do.
			if ws, ok := ee.Sys().(syscall.WaitStatus); ok && ws.Signaled() {
				return 128 + int(ws.Signal()), nil
			}
			return 1, nil
		}
		return code, nil
	}

	return 0, err
}
