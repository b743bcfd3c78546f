package cache

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"
)

const (
	lockSuffix    = ".lock"
	lockPollDelay = 200 * time.Millisecond
)

// Lock locks the given path (file or folder) by creating a sibling lock
// file. If the lock already exists, the PID recorded in it is checked: a
// live owner means we wait and poll, a dead owner means the stale lock is
// removed and acquisition retried. Returns an unlock function.
func Lock(target string) (func() error, error) {
	lockFile := target + lockSuffix

	// The lock lives next to the target, so the parent must exist first.
	if err := os.MkdirAll(filepath.Dir(lockFile), 0755); err != nil {
		return nil, fmt.Errorf("failed to create parent dir for lock: %w", err)
	}

	for {
		f, err := os.OpenFile(lockFile, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0644)
		if err == nil {
			content := fmt.Sprintf("%s %d", time.Now().Format(time.RFC3339), os.Getpid())
			if _, err := f.WriteString(content); err != nil {
				f.Close()
				os.Remove(lockFile)
				return nil, fmt.Errorf("failed to write to lock file: %w", err)
			}
			f.Close()

			return func() error {
				err := os.Remove(lockFile)
				if err != nil && os.IsNotExist(err) {
					return nil
				}
				return err
			}, nil
		}

		if !os.IsExist(err) {
			return nil, fmt.Errorf("failed to acquire lock: %w", err)
		}

		// Lock file exists. Decide whether its owner is still alive.
		content, err := os.ReadFile(lockFile)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			time.Sleep(lockPollDelay)
			continue
		}

		parts := strings.Split(strings.TrimSpace(string(content)), " ")
		if len(parts) < 2 {
			// Corrupted lock content. Reclaim it.
			os.Remove(lockFile)
			continue
		}

		pid, err := strconv.Atoi(parts[len(parts)-1])
		if err != nil {
			os.Remove(lockFile)
			continue
		}

		if isPidAlive(pid) {
			time.Sleep(lockPollDelay)
			continue
		}

		// Owner is gone. Removal may race with another waiter; that's fine,
		// both loop back and one of them wins the O_EXCL create.
		os.Remove(lockFile)
	}
}

func isPidAlive(pid int) bool {
	if pid <= 0 {
		return false
	}

	proc, err := os.FindProcess(pid)
	if err != nil {
		// Windows reports missing processes here.
		return false
	}

	// Signal 0 probes existence without delivering anything.
	err = proc.Signal(syscall.Signal(0))
	if err == nil {
		return true
	}

	if errors.Is(err, syscall.ESRCH) || errors.Is(err, os.ErrProcessDone) {
		return false
	}

	// EPERM or platforms without signal support: the process exists but we
	// cannot probe it. Assume alive.
	return true
}
