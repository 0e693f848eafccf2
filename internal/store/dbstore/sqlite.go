package dbstore

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/klauspost/compress/zstd"
	"github.com/yiblet/clipq/internal/store"
	"gorm.io/driver/sqlite"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
	"gorm.io/gorm/logger"
)

// Encoder and decoder are safe for concurrent EncodeAll/DecodeAll calls.
var (
	backupEncoder, _ = zstd.NewWriter(nil)
	backupDecoder, _ = zstd.NewReader(nil)
)

// SQLiteStore is a SQLite-backed implementation of store.Store
type SQLiteStore struct {
	db     *gorm.DB
	dbPath string
}

// NewSQLiteStore creates a new SQLite-backed store at the specified path.
// It initializes the database schema and seeds default settings.
func NewSQLiteStore(dbPath string) (*SQLiteStore, error) {
	db, err := gorm.Open(sqlite.Open(dbPath), &gorm.Config{
		Logger: logger.Default.LogMode(logger.Silent),
	})
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}

	if err := db.Exec("PRAGMA journal_mode = WAL").Error; err != nil {
		return nil, fmt.Errorf("failed to enable WAL: %w", err)
	}
	if err := db.Exec("PRAGMA busy_timeout = 5000").Error; err != nil {
		return nil, fmt.Errorf("failed to set busy timeout: %w", err)
	}

	if err := db.AutoMigrate(&HistoryEntryModel{}, &BackupModel{}, &SettingModel{}); err != nil {
		return nil, fmt.Errorf("failed to migrate schema: %w", err)
	}

	s := &SQLiteStore{
		db:     db,
		dbPath: dbPath,
	}

	if err := s.initDefaultSettings(); err != nil {
		return nil, fmt.Errorf("failed to init settings: %w", err)
	}

	return s, nil
}

// History returns the history store
func (s *SQLiteStore) History() store.HistoryStore {
	return &sqliteHistoryStore{db: s.db}
}

// Settings returns the settings store
func (s *SQLiteStore) Settings() store.SettingsStore {
	return &sqliteSettingsStore{db: s.db}
}

// Path returns the database file path
func (s *SQLiteStore) Path() string {
	return s.dbPath
}

// Close closes the database connection
func (s *SQLiteStore) Close() error {
	sqlDB, err := s.db.DB()
	if err != nil {
		return err
	}
	return sqlDB.Close()
}

// initDefaultSettings seeds settings that are not present yet
func (s *SQLiteStore) initDefaultSettings() error {
	settings := s.Settings()
	for key, value := range store.DefaultSettings() {
		if _, err := settings.Get(key); err != nil {
			if !errors.Is(err, store.ErrSettingNotFound) {
				return err
			}
			if err := settings.Set(key, value); err != nil {
				return err
			}
		}
	}
	return nil
}

// sqliteHistoryStore implements store.HistoryStore using SQLite
type sqliteHistoryStore struct {
	db *gorm.DB
}

// Put upserts an entry keyed by ID
func (s *sqliteHistoryStore) Put(ctx context.Context, entry *store.HistoryEntry) error {
	model := fromHistoryEntry(entry)
	err := s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
	if err != nil {
		return &store.StoreError{Op: store.OpPut, ID: entry.ID, Err: err}
	}
	return nil
}

// GetAll returns every stored entry
func (s *sqliteHistoryStore) GetAll(ctx context.Context) ([]*store.HistoryEntry, error) {
	var models []*HistoryEntryModel
	if err := s.db.WithContext(ctx).Find(&models).Error; err != nil {
		return nil, &store.StoreError{Op: store.OpGetAll, Err: err}
	}

	entries := make([]*store.HistoryEntry, len(models))
	for i, model := range models {
		entries[i] = model.ToHistoryEntry()
	}
	return entries, nil
}

// Delete removes an entry by ID; a missing ID affects no rows and is not an error
func (s *sqliteHistoryStore) Delete(ctx context.Context, id string) error {
	if err := s.db.WithContext(ctx).Delete(&HistoryEntryModel{}, "id = ?", id).Error; err != nil {
		return &store.StoreError{Op: store.OpDelete, ID: id, Err: err}
	}
	return nil
}

// Clear removes all entries
func (s *sqliteHistoryStore) Clear(ctx context.Context) error {
	if err := s.db.WithContext(ctx).
		Session(&gorm.Session{AllowGlobalUpdate: true}).
		Delete(&HistoryEntryModel{}).Error; err != nil {
		return &store.StoreError{Op: store.OpClear, Err: err}
	}
	return nil
}

// SnapshotBackup replaces the backup record with a compressed JSON snapshot
func (s *sqliteHistoryStore) SnapshotBackup(ctx context.Context, entries []*store.HistoryEntry) error {
	if entries == nil {
		entries = []*store.HistoryEntry{}
	}
	raw, err := json.Marshal(entries)
	if err != nil {
		return &store.StoreError{Op: store.OpSnapshotBackup, Err: fmt.Errorf("failed to encode snapshot: %w", err)}
	}

	model := &BackupModel{
		Name:  backupName,
		Codec: backupCodec,
		Count: len(entries),
		Data:  backupEncoder.EncodeAll(raw, nil),
	}
	err = s.db.WithContext(ctx).
		Clauses(clause.OnConflict{UpdateAll: true}).
		Create(model).Error
	if err != nil {
		return &store.StoreError{Op: store.OpSnapshotBackup, Err: err}
	}
	return nil
}

// ReadBackup decodes the backup record, returning no entries if none exists
func (s *sqliteHistoryStore) ReadBackup(ctx context.Context) ([]*store.HistoryEntry, error) {
	var model BackupModel
	err := s.db.WithContext(ctx).First(&model, "name = ?", backupName).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return []*store.HistoryEntry{}, nil
	}
	if err != nil {
		return nil, &store.StoreError{Op: store.OpReadBackup, Err: err}
	}

	if model.Codec != backupCodec {
		return nil, &store.StoreError{Op: store.OpReadBackup, Err: fmt.Errorf("unsupported backup codec %q", model.Codec)}
	}

	raw, err := backupDecoder.DecodeAll(model.Data, nil)
	if err != nil {
		return nil, &store.StoreError{Op: store.OpReadBackup, Err: fmt.Errorf("failed to decompress backup: %w", err)}
	}

	var entries []*store.HistoryEntry
	if err := json.Unmarshal(raw, &entries); err != nil {
		return nil, &store.StoreError{Op: store.OpReadBackup, Err: fmt.Errorf("failed to decode backup: %w", err)}
	}
	if entries == nil {
		entries = []*store.HistoryEntry{}
	}
	return entries, nil
}

// sqliteSettingsStore implements store.SettingsStore using SQLite
type sqliteSettingsStore struct {
	db *gorm.DB
}

// Get retrieves a setting by key
func (s *sqliteSettingsStore) Get(key string) (string, error) {
	var model SettingModel
	if err := s.db.First(&model, "key = ?", key).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return "", fmt.Errorf("%w: %s", store.ErrSettingNotFound, key)
		}
		return "", fmt.Errorf("failed to get setting: %w", err)
	}
	return model.Value, nil
}

// Set stores a setting (upsert)
func (s *sqliteSettingsStore) Set(key, value string) error {
	model := &SettingModel{
		Key:   key,
		Value: value,
	}

	result := s.db.Where("key = ?", key).
		Assign(map[string]interface{}{"value": value, "updated_at": s.db.NowFunc()}).
		FirstOrCreate(model)

	if result.Error != nil {
		return fmt.Errorf("failed to set setting: %w", result.Error)
	}

	return nil
}

// List returns all settings
func (s *sqliteSettingsStore) List() (map[string]string, error) {
	var models []SettingModel
	if err := s.db.Find(&models).Error; err != nil {
		return nil, fmt.Errorf("failed to list settings: %w", err)
	}

	result := make(map[string]string, len(models))
	for _, model := range models {
		result[model.Key] = model.Value
	}

	return result, nil
}

// Delete removes a setting
func (s *sqliteSettingsStore) Delete(key string) error {
	result := s.db.Delete(&SettingModel{}, "key = ?", key)
	if result.Error != nil {
		return fmt.Errorf("failed to delete setting: %w", result.Error)
	}
	if result.RowsAffected == 0 {
		return fmt.Errorf("%w: %s", store.ErrSettingNotFound, key)
	}
	return nil
}
