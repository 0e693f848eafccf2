package dbstore

import (
	"time"

	"github.com/yiblet/clipq/internal/store"
)

// backupName is the key of the single backup record.
const backupName = "queue"

// backupCodec names the encoding of BackupModel.Data.
const backupCodec = "zstd+json"

// HistoryEntryModel represents a history entry in the database.
type HistoryEntryModel struct {
	ID          string `gorm:"primaryKey;size:36"`
	Kind        string `gorm:"size:16;not null"`
	Content     string `gorm:"type:text"`
	Thumbnail   string `gorm:"type:text"`
	OriginalURL string `gorm:"type:text"`
	Hash        string `gorm:"size:64;not null;index"`
	CreatedMs   int64  `gorm:"column:created_ms;not null;index"` // engine stamp, unix ms
	Pinned      bool   `gorm:"not null"`
	Origin      string `gorm:"size:16;not null"`
}

// TableName returns the table name for HistoryEntryModel
func (HistoryEntryModel) TableName() string {
	return "history_entries"
}

// ToHistoryEntry converts the GORM model to a store.HistoryEntry
func (m *HistoryEntryModel) ToHistoryEntry() *store.HistoryEntry {
	return &store.HistoryEntry{
		ID:          m.ID,
		Kind:        store.Kind(m.Kind),
		Content:     m.Content,
		Thumbnail:   m.Thumbnail,
		OriginalURL: m.OriginalURL,
		Hash:        m.Hash,
		CreatedAt:   m.CreatedMs,
		Pinned:      m.Pinned,
		Origin:      store.Origin(m.Origin),
	}
}

// fromHistoryEntry converts a store.HistoryEntry to its GORM model
func fromHistoryEntry(e *store.HistoryEntry) *HistoryEntryModel {
	return &HistoryEntryModel{
		ID:          e.ID,
		Kind:        string(e.Kind),
		Content:     e.Content,
		Thumbnail:   e.Thumbnail,
		OriginalURL: e.OriginalURL,
		Hash:        e.Hash,
		CreatedMs:   e.CreatedAt,
		Pinned:      e.Pinned,
		Origin:      string(e.Origin),
	}
}

// BackupModel holds a full serialized snapshot of the queue.
// Only one row (Name = "queue") is ever written.
type BackupModel struct {
	Name      string    `gorm:"primaryKey;size:32"`
	Codec     string    `gorm:"size:32;not null"`
	Count     int       `gorm:"not null"`
	Data      []byte    `gorm:"type:blob"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for BackupModel
func (BackupModel) TableName() string {
	return "backups"
}

// SettingModel represents a user setting key-value pair
type SettingModel struct {
	Key       string    `gorm:"primaryKey;size:100"`
	Value     string    `gorm:"type:text;not null"`
	CreatedAt time.Time `gorm:"autoCreateTime"`
	UpdatedAt time.Time `gorm:"autoUpdateTime"`
}

// TableName returns the table name for SettingModel
func (SettingModel) TableName() string {
	return "settings"
}
