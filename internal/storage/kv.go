// Package storage provides the key-value persistence contract behind
// the progression store, with a SQLite-backed implementation for the
// trainer and an in-memory one for tests. Values are opaque strings;
// schema versioning happens in the key names, not here.
package storage

import "sync"

// KV is the minimal string store the progression engine persists
// through. Get reports found=false for absent keys.
type KV interface {
	Get(key string) (value string, found bool, err error)
	Set(key, value string) error
	Delete(key string) error
}

// Memory is a map-backed KV for tests and the "memory" storage driver.
type Memory struct {
	mu    sync.Mutex
	items map[string]string

	// SetCount tracks writes so tests can assert synchronous
	// persistence behavior.
	SetCount int
}

// NewMemory returns an empty in-memory store.
func NewMemory() *Memory {
	return &Memory{items: make(map[string]string)}
}

// Get returns the stored value for key.
func (m *Memory) Get(key string) (string, bool, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	v, ok := m.items[key]
	return v, ok, nil
}

// Set stores value under key.
func (m *Memory) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.items[key] = value
	m.SetCount++
	return nil
}

// Delete removes key if present.
func (m *Memory) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.items, key)
	return nil
}
