// Package store defines the storage interfaces for clipq's persistence layer.
// It provides abstractions for history entries (with a backup snapshot) and
// for persisted user settings.
package store

import (
	"context"
)

// HistoryStore is the durable mirror of the in-memory history queue.
// Entries are keyed by ID. A single backup record holds a full snapshot of
// the queue and is used as a fallback when the primary collection is empty.
type HistoryStore interface {
	// Put inserts or replaces the entry with the same ID.
	Put(ctx context.Context, entry *HistoryEntry) error

	// GetAll returns every stored entry in no particular order.
	// Callers must sort.
	GetAll(ctx context.Context) ([]*HistoryEntry, error)

	// Delete removes an entry by ID. Deleting a missing ID is not an error.
	Delete(ctx context.Context, id string) error

	// Clear removes all entries. The backup record is not touched.
	Clear(ctx context.Context) error

	// SnapshotBackup replaces the backup record with the given entries.
	SnapshotBackup(ctx context.Context, entries []*HistoryEntry) error

	// ReadBackup returns the entries of the backup record, or an empty
	// slice if no backup has been written yet.
	ReadBackup(ctx context.Context) ([]*HistoryEntry, error)
}

// SettingsStore manages user settings persistence.
// Settings are stored as key-value pairs.
type SettingsStore interface {
	// Get retrieves a setting by key.
	// Returns ErrSettingNotFound if the key does not exist.
	Get(key string) (string, error)

	// Set stores a setting. If the key already exists, its value is updated.
	Set(key, value string) error

	// List returns all settings.
	List() (map[string]string, error)

	// Delete removes a setting.
	// Returns ErrSettingNotFound if the key does not exist.
	Delete(key string) error
}

// Store combines the history and settings stores.
// Implementations manage their lifecycle as a single unit.
type Store interface {
	History() HistoryStore
	Settings() SettingsStore
	Close() error
}
