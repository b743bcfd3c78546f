package cache

import (
	"fmt"
	"os"
	"path/filepath"
	"sync"
	"sync/atomic"
	"syscall"
	"testing"
	"time"
)

func TestLockSimple(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "envroot")

	unlock, err := Lock(target)
	if err != nil {
		t.Fatalf("Failed to lock: %v", err)
	}

	if _, err := os.Stat(target + lockSuffix); os.IsNotExist(err) {
		t.Errorf("Lock file not created")
	}

	if err := unlock(); err != nil {
		t.Errorf("Failed to unlock: %v", err)
	}

	if _, err := os.Stat(target + lockSuffix); !os.IsNotExist(err) {
		t.Errorf("Lock file should be gone")
	}
}

func TestLockStale(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "stale")
	lockFile := target + lockSuffix

	// Find a PID that is certainly dead
	stalePid := 0
	for i := 32000; i < 60000; i++ {
		proc, _ := os.FindProcess(i)
		if err := proc.Signal(syscall.Signal(0)); err == syscall.ESRCH {
			stalePid = i
			break
		}
	}
	if stalePid == 0 {
		stalePid = 9999999
	}

	content := fmt.Sprintf("%s %d", time.Now().Format(time.RFC3339), stalePid)
	if err := os.WriteFile(lockFile, []byte(content), 0644); err != nil {
		t.Fatal(err)
	}

	// The stale lock must be reclaimed without waiting forever
	done := make(chan struct{})
	go func() {
		unlock, err := Lock(target)
		if err == nil {
			unlock()
		}
		close(done)
	}()

	select {
	case <-done:
	case <-time.After(5 * time.Second):
		t.Fatal("Lock did not reclaim stale lock file")
	}
}

func TestLockUnlockIdempotent(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "twice")

	unlock, err := Lock(target)
	if err != nil {
		t.Fatal(err)
	}
	if err := unlock(); err != nil {
		t.Errorf("first unlock: %v", err)
	}
	if err := unlock(); err != nil {
		t.Errorf("second unlock should be a no-op: %v", err)
	}
}

func TestEnsureRunsOnce(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "built")

	var builds int32
	build := func() error {
		atomic.AddInt32(&builds, 1)
		return os.MkdirAll(target, 0755)
	}

	var wg sync.WaitGroup
	for i := 0; i < 8; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			if err := Ensure(target, nil, build); err != nil {
				t.Errorf("Ensure failed: %v", err)
			}
		}()
	}
	wg.Wait()

	if got := atomic.LoadInt32(&builds); got != 1 {
		t.Errorf("expected exactly one build, got %d", got)
	}
}

func TestEnsureReadyPredicate(t *testing.T) {
	tmpDir := t.TempDir()
	target := filepath.Join(tmpDir, "partial")

	// Directory exists, but the predicate says it is incomplete
	if err := os.MkdirAll(target, 0755); err != nil {
		t.Fatal(err)
	}
	marker := filepath.Join(target, "complete")

	ready := func() bool {
		_, err := os.Stat(marker)
		return err == nil
	}

	built := false
	err := Ensure(target, ready, func() error {
		built = true
		return os.WriteFile(marker, []byte("ok"), 0644)
	})
	if err != nil {
		t.Fatal(err)
	}
	if !built {
		t.Error("build should run when the predicate rejects existing state")
	}

	// Second call: predicate accepts, build must not run again
	err = Ensure(target, ready, func() error {
		t.Error("build ran for a ready target")
		return nil
	})
	if err != nil {
		t.Fatal(err)
	}
}
