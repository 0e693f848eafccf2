package store

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// TestInterfaceCompilation verifies that the interfaces compile correctly.
func TestInterfaceCompilation(t *testing.T) {
	var _ HistoryStore = (*mockHistoryStore)(nil)
	var _ SettingsStore = (*mockSettingsStore)(nil)
	var _ Store = (*mockStore)(nil)
}

func TestHistoryEntry_JSONFieldNames(t *testing.T) {
	e := &HistoryEntry{
		ID:        "id-1",
		Kind:      KindText,
		Content:   "hello",
		Hash:      "abc",
		CreatedAt: 1700000000000,
		Pinned:    true,
		Origin:    OriginAuto,
	}

	data, err := json.Marshal(e)
	require.NoError(t, err)

	var m map[string]any
	require.NoError(t, json.Unmarshal(data, &m))

	assert.Equal(t, "text", m["type"])
	assert.Equal(t, "auto", m["source"])
	assert.Equal(t, float64(1700000000000), m["timestamp"])
	assert.Equal(t, true, m["pinned"])
	assert.NotContains(t, m, "thumbnail", "empty payload fields are omitted")
	assert.NotContains(t, m, "originalUrl")
}

func TestHistoryEntry_Clone(t *testing.T) {
	e := &HistoryEntry{ID: "a", Pinned: false}
	c := e.Clone()
	c.Pinned = true
	assert.False(t, e.Pinned, "clone must not alias the original")

	all := CloneAll([]*HistoryEntry{e})
	require.Len(t, all, 1)
	assert.NotSame(t, e, all[0])
}

func TestKind(t *testing.T) {
	assert.True(t, KindText.Valid())
	assert.True(t, KindGIF.Valid())
	assert.False(t, Kind("video").Valid())
	assert.True(t, KindImage.IsImage())
	assert.False(t, KindText.IsImage())
}

func TestStoreError(t *testing.T) {
	base := errors.New("disk full")
	err := fmt.Errorf("failed to persist: %w", &StoreError{Op: OpPut, ID: "x", Err: base})

	assert.True(t, IsStoreError(err))
	assert.ErrorIs(t, err, base)
	assert.Contains(t, err.Error(), "store put x: disk full")
	assert.False(t, IsStoreError(base))
}

// Mock implementations for interface verification

type mockHistoryStore struct{}

func (m *mockHistoryStore) Put(ctx context.Context, entry *HistoryEntry) error  { return nil }
func (m *mockHistoryStore) GetAll(ctx context.Context) ([]*HistoryEntry, error) { return nil, nil }
func (m *mockHistoryStore) Delete(ctx context.Context, id string) error         { return nil }
func (m *mockHistoryStore) Clear(ctx context.Context) error                     { return nil }
func (m *mockHistoryStore) SnapshotBackup(ctx context.Context, entries []*HistoryEntry) error {
	return nil
}
func (m *mockHistoryStore) ReadBackup(ctx context.Context) ([]*HistoryEntry, error) {
	return nil, nil
}

type mockSettingsStore struct{}

func (m *mockSettingsStore) Get(key string) (string, error)   { return "", nil }
func (m *mockSettingsStore) Set(key, value string) error      { return nil }
func (m *mockSettingsStore) List() (map[string]string, error) { return nil, nil }
func (m *mockSettingsStore) Delete(key string) error          { return nil }

type mockStore struct{}

func (m *mockStore) History() HistoryStore   { return &mockHistoryStore{} }
func (m *mockStore) Settings() SettingsStore { return &mockSettingsStore{} }
func (m *mockStore) Close() error            { return nil }
