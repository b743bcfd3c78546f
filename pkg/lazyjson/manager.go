// Package lazyjson provides a thread-safe, lazy-loading manager for JSON
// files. It tracks modifications (dirty state) and writes atomically, which
// makes it suitable for state files whose mere presence carries meaning,
// like the environment manifest: a crashed writer must never leave a
// half-written file behind.
package lazyjson

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"sync"
)

// manager provides high-level control over a JSON-backed data structure.
// Data is only loaded from disk when first requested.
type manager[T any] struct {
	filepath string
	data     *T
	loaded   bool
	dirty    bool
	mu       sync.RWMutex
	opts     *options[T]
}

type Manager[T any] = *manager[T]

// New creates a new Manager for the given file path.
func New[T any](filepath string, opts ...Option[T]) *manager[T] {
	mgr := &manager[T]{
		filepath: filepath,
		opts: &options[T]{
			createIfMissing: true,
		},
	}

	for _, opt := range opts {
		opt(mgr.opts)
	}

	return mgr
}

// Get returns the current data, loading it lazily if needed.
func (m *manager[T]) Get() (*T, error) {
	m.mu.RLock()
	if m.loaded {
		defer m.mu.RUnlock()
		return m.data, nil
	}
	m.mu.RUnlock()

	m.mu.Lock()
	defer m.mu.Unlock()

	// Double-check after acquiring the write lock
	if m.loaded {
		return m.data, nil
	}

	return m.data, m.loadLocked()
}

// Modify executes a function that can mutate the data. The data is lazily
// loaded if needed and marked dirty afterwards.
func (m *manager[T]) Modify(fn func(*T) error) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.loaded {
		if err := m.loadLocked(); err != nil {
			return err
		}
	}

	if err := fn(m.data); err != nil {
		return err
	}

	m.dirty = true
	return nil
}

// Save writes the data to disk if it is dirty, and does nothing otherwise.
func (m *manager[T]) Save() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if !m.dirty {
		return nil
	}

	if !m.loaded {
		return errors.New("cannot save: data not loaded")
	}

	return m.saveLocked()
}

// Reload forces a reload from disk, discarding any unsaved changes.
func (m *manager[T]) Reload() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.loaded = false
	m.dirty = false
	m.data = nil

	return m.loadLocked()
}

// IsDirty returns true if the data has been modified since the last
// load or save.
func (m *manager[T]) IsDirty() bool {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.dirty
}

// loadLocked loads data from the file. Caller holds the write lock.
func (m *manager[T]) loadLocked() error {
	data, err := os.ReadFile(m.filepath)
	if err != nil {
		if os.IsNotExist(err) {
			if m.opts.createIfMissing {
				var zero T
				m.data = &zero
				m.loaded = true
				m.dirty = true
				return nil
			}
			return fmt.Errorf("file not found: %w", err)
		}
		return fmt.Errorf("failed to read file: %w", err)
	}

	var result T
	if err := json.Unmarshal(data, &result); err != nil {
		return fmt.Errorf("failed to unmarshal JSON: %w", err)
	}

	m.data = &result
	m.loaded = true
	m.dirty = false

	return nil
}

// saveLocked writes data to the file atomically via a temp-file rename.
// Caller holds the write lock.
func (m *manager[T]) saveLocked() error {
	data, err := json.MarshalIndent(m.data, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal JSON: %w", err)
	}

	dir := filepath.Dir(m.filepath)
	if err := os.MkdirAll(dir, 0755); err != nil {
		return fmt.Errorf("failed to create directory: %w", err)
	}

	tempFile := m.filepath + ".tmp"
	if err := os.WriteFile(tempFile, data, 0644); err != nil {
		return fmt.Errorf("failed to write temp file: %w", err)
	}

	if err := os.Rename(tempFile, m.filepath); err != nil {
		os.Remove(tempFile)
		return fmt.Errorf("failed to rename temp file: %w", err)
	}

	m.dirty = false
	return nil
}
