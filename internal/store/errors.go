package store

import (
	"errors"
	"fmt"
)

// ErrSettingNotFound is returned by SettingsStore lookups for unknown keys.
var ErrSettingNotFound = errors.New("setting not found")

// StoreError reports an I/O failure in a HistoryStore operation.
type StoreError struct {
	Op  string // "put", "get_all", "delete", "clear", "snapshot_backup", "read_backup"
	ID  string // entry ID, when the operation targets one entry
	Err error
}

func (e *StoreError) Error() string {
	if e.ID != "" {
		return fmt.Sprintf("store %s %s: %v", e.Op, e.ID, e.Err)
	}
	return fmt.Sprintf("store %s: %v", e.Op, e.Err)
}

func (e *StoreError) Unwrap() error {
	return e.Err
}

// Operation names used in StoreError.Op and in metrics labels.
const (
	OpPut            = "put"
	OpGetAll         = "get_all"
	OpDelete         = "delete"
	OpClear          = "clear"
	OpSnapshotBackup = "snapshot_backup"
	OpReadBackup     = "read_backup"
)

// IsStoreError reports whether err wraps a *StoreError.
func IsStoreError(err error) bool {
	var se *StoreError
	return errors.As(err, &se)
}
