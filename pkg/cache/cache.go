// Package cache serializes one-time filesystem setup between concurrent
// launcher runs. Two launchers started at the same moment against a missing
// environment must provision it exactly once; the second waits on a lock
// file and then finds the work already done.
package cache

import (
	"os"
)

// Ensure makes sure the target path is ready, running build under a lock if
// it is not. The ready predicate decides what "ready" means; when nil, a
// plain existence check is used. The predicate is re-evaluated after the
// lock is acquired, since another process may have finished the work while
// we waited.
func Ensure(target string, ready func() bool, build func() error) error {
	if ready == nil {
		ready = func() bool {
			_, err := os.Stat(target)
			return err == nil
		}
	}

	// 1. Quick check before taking the lock
	if ready() {
		return nil
	}

	// 2. Acquire lock. This waits if another process is working on it.
	unlock, err := Lock(target)
	if err != nil {
		return err
	}
	defer unlock()

	// 3. Re-check: the target may have become ready while we waited
	if ready() {
		return nil
	}

	// 4. Run the build function to create the target
	return build()
}
