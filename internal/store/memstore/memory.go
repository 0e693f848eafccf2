// Package memstore provides an in-memory implementation of the store interfaces.
// This implementation is designed for fast unit testing and does not persist data.
// Failures can be injected per operation to exercise degraded paths.
package memstore

import (
	"context"
	"encoding/json"
	"fmt"
	"sync"

	"github.com/yiblet/clipq/internal/store"
)

// MemoryStore is an in-memory implementation of store.Store.
// It uses maps for storage and is thread-safe via mutexes.
type MemoryStore struct {
	history  *MemoryHistoryStore
	settings *memorySettingsStore
}

// NewMemoryStore creates a new in-memory store seeded with default settings.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		history:  NewMemoryHistoryStore(),
		settings: newMemorySettingsStore(),
	}
}

// History returns the history store.
func (m *MemoryStore) History() store.HistoryStore {
	return m.history
}

// HistoryStore returns the concrete history store for failure injection.
func (m *MemoryStore) HistoryStore() *MemoryHistoryStore {
	return m.history
}

// Settings returns the settings store.
func (m *MemoryStore) Settings() store.SettingsStore {
	return m.settings
}

// Close releases resources (no-op for memory store).
func (m *MemoryStore) Close() error {
	return nil
}

// MemoryHistoryStore implements store.HistoryStore using in-memory maps.
type MemoryHistoryStore struct {
	mu       sync.RWMutex
	entries  map[string]*store.HistoryEntry
	backup   []byte // JSON snapshot, nil until the first SnapshotBackup
	failures map[string]failure
	calls    map[string]int
}

type failure struct {
	err       error
	remaining int // < 0 fails every call
}

// NewMemoryHistoryStore creates an empty in-memory history store.
func NewMemoryHistoryStore() *MemoryHistoryStore {
	return &MemoryHistoryStore{
		entries:  make(map[string]*store.HistoryEntry),
		failures: make(map[string]failure),
		calls:    make(map[string]int),
	}
}

// SetFailure makes every call of op return a StoreError wrapping err
// until ClearFailures is called.
func (m *MemoryHistoryStore) SetFailure(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = failure{err: err, remaining: -1}
}

// FailNext makes the next call of op fail with err.
func (m *MemoryHistoryStore) FailNext(op string, err error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures[op] = failure{err: err, remaining: 1}
}

// ClearFailures removes all injected failures.
func (m *MemoryHistoryStore) ClearFailures() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures = make(map[string]failure)
}

// Calls returns how many times op was invoked.
func (m *MemoryHistoryStore) Calls(op string) int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return m.calls[op]
}

// Len returns the number of stored entries.
func (m *MemoryHistoryStore) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}

// SetRawBackup replaces the backup bytes directly (for corruption tests).
func (m *MemoryHistoryStore) SetRawBackup(data []byte) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.backup = data
}

// begin records the call and returns the injected failure, if any.
// Callers must hold m.mu for writing.
func (m *MemoryHistoryStore) begin(ctx context.Context, op, id string) error {
	m.calls[op]++
	if err := ctx.Err(); err != nil {
		return &store.StoreError{Op: op, ID: id, Err: err}
	}
	f, ok := m.failures[op]
	if !ok {
		return nil
	}
	if f.remaining > 0 {
		f.remaining--
		if f.remaining == 0 {
			delete(m.failures, op)
		} else {
			m.failures[op] = f
		}
	}
	return &store.StoreError{Op: op, ID: id, Err: f.err}
}

// Put stores a copy of entry keyed by its ID.
func (m *MemoryHistoryStore) Put(ctx context.Context, entry *store.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(ctx, store.OpPut, entry.ID); err != nil {
		return err
	}
	m.entries[entry.ID] = entry.Clone()
	return nil
}

// GetAll returns copies of all entries in map order.
func (m *MemoryHistoryStore) GetAll(ctx context.Context) ([]*store.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(ctx, store.OpGetAll, ""); err != nil {
		return nil, err
	}
	entries := make([]*store.HistoryEntry, 0, len(m.entries))
	for _, e := range m.entries {
		entries = append(entries, e.Clone())
	}
	return entries, nil
}

// Delete removes an entry by ID.
func (m *MemoryHistoryStore) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(ctx, store.OpDelete, id); err != nil {
		return err
	}
	delete(m.entries, id)
	return nil
}

// Clear removes all entries.
func (m *MemoryHistoryStore) Clear(ctx context.Context) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(ctx, store.OpClear, ""); err != nil {
		return err
	}
	m.entries = make(map[string]*store.HistoryEntry)
	return nil
}

// SnapshotBackup serializes entries as the backup record.
func (m *MemoryHistoryStore) SnapshotBackup(ctx context.Context, entries []*store.HistoryEntry) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(ctx, store.OpSnapshotBackup, ""); err != nil {
		return err
	}
	if entries == nil {
		entries = []*store.HistoryEntry{}
	}
	data, err := json.Marshal(entries)
	if err != nil {
		return &store.StoreError{Op: store.OpSnapshotBackup, Err: err}
	}
	m.backup = data
	return nil
}

// ReadBackup decodes the backup record.
func (m *MemoryHistoryStore) ReadBackup(ctx context.Context) ([]*store.HistoryEntry, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if err := m.begin(ctx, store.OpReadBackup, ""); err != nil {
		return nil, err
	}
	if m.backup == nil {
		return []*store.HistoryEntry{}, nil
	}
	var entries []*store.HistoryEntry
	if err := json.Unmarshal(m.backup, &entries); err != nil {
		return nil, &store.StoreError{Op: store.OpReadBackup, Err: fmt.Errorf("failed to decode backup: %w", err)}
	}
	if entries == nil {
		entries = []*store.HistoryEntry{}
	}
	return entries, nil
}

// memorySettingsStore implements store.SettingsStore using an in-memory map.
type memorySettingsStore struct {
	mu       sync.RWMutex
	settings map[string]string
}

// newMemorySettingsStore creates a settings store seeded with defaults.
func newMemorySettingsStore() *memorySettingsStore {
	return &memorySettingsStore{
		settings: store.DefaultSettings(),
	}
}

// Get retrieves a setting by key.
func (m *memorySettingsStore) Get(key string) (string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	value, exists := m.settings[key]
	if !exists {
		return "", fmt.Errorf("%w: %s", store.ErrSettingNotFound, key)
	}
	return value, nil
}

// Set stores a setting.
func (m *memorySettingsStore) Set(key, value string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	m.settings[key] = value
	return nil
}

// List returns a copy of all settings.
func (m *memorySettingsStore) List() (map[string]string, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make(map[string]string, len(m.settings))
	for k, v := range m.settings {
		result[k] = v
	}
	return result, nil
}

// Delete removes a setting.
func (m *memorySettingsStore) Delete(key string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, exists := m.settings[key]; !exists {
		return fmt.Errorf("%w: %s", store.ErrSettingNotFound, key)
	}
	delete(m.settings, key)
	return nil
}
