package memstore

import (
	"context"
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yiblet/clipq/internal/store"
)

func entry(id string, createdAt int64) *store.HistoryEntry {
	return &store.HistoryEntry{
		ID:        id,
		Kind:      store.KindText,
		Content:   "content " + id,
		Hash:      "h" + id,
		CreatedAt: createdAt,
		Origin:    store.OriginAuto,
	}
}

func TestMemoryStore_ImplementsStore(t *testing.T) {
	var _ store.Store = NewMemoryStore()
}

func TestHistory_PutStoresCopy(t *testing.T) {
	h := NewMemoryHistoryStore()
	ctx := context.Background()

	e := entry("a", 1)
	require.NoError(t, h.Put(ctx, e))
	e.Pinned = true

	all, err := h.GetAll(ctx)
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.False(t, all[0].Pinned, "store must not alias caller entries")
}

func TestHistory_UpsertDeleteClear(t *testing.T) {
	h := NewMemoryHistoryStore()
	ctx := context.Background()

	require.NoError(t, h.Put(ctx, entry("a", 1)))
	require.NoError(t, h.Put(ctx, entry("a", 1)))
	require.NoError(t, h.Put(ctx, entry("b", 2)))
	assert.Equal(t, 2, h.Len())

	require.NoError(t, h.Delete(ctx, "missing"))
	require.NoError(t, h.Delete(ctx, "a"))
	assert.Equal(t, 1, h.Len())

	require.NoError(t, h.Clear(ctx))
	assert.Equal(t, 0, h.Len())
}

func TestHistory_BackupRoundTrip(t *testing.T) {
	h := NewMemoryHistoryStore()
	ctx := context.Background()

	empty, err := h.ReadBackup(ctx)
	require.NoError(t, err)
	assert.Empty(t, empty)

	require.NoError(t, h.SnapshotBackup(ctx, []*store.HistoryEntry{entry("b", 2), entry("a", 1)}))
	got, err := h.ReadBackup(ctx)
	require.NoError(t, err)
	require.Len(t, got, 2)
	assert.Equal(t, "b", got[0].ID)
	assert.Equal(t, "content a", got[1].Content)
}

func TestHistory_CorruptBackup(t *testing.T) {
	h := NewMemoryHistoryStore()
	h.SetRawBackup([]byte("{not json"))

	_, err := h.ReadBackup(context.Background())
	assert.True(t, store.IsStoreError(err))
}

func TestHistory_FailNext(t *testing.T) {
	h := NewMemoryHistoryStore()
	ctx := context.Background()
	boom := errors.New("boom")

	h.FailNext(store.OpPut, boom)
	err := h.Put(ctx, entry("a", 1))
	require.Error(t, err)
	assert.ErrorIs(t, err, boom)

	var se *store.StoreError
	require.ErrorAs(t, err, &se)
	assert.Equal(t, store.OpPut, se.Op)
	assert.Equal(t, "a", se.ID)

	require.NoError(t, h.Put(ctx, entry("a", 1)), "only the next call fails")
	assert.Equal(t, 2, h.Calls(store.OpPut))
}

func TestHistory_SetFailure(t *testing.T) {
	h := NewMemoryHistoryStore()
	ctx := context.Background()

	h.SetFailure(store.OpGetAll, errors.New("io"))
	for i := 0; i < 3; i++ {
		_, err := h.GetAll(ctx)
		assert.Error(t, err)
	}

	h.ClearFailures()
	_, err := h.GetAll(ctx)
	assert.NoError(t, err)
}

func TestHistory_CanceledContext(t *testing.T) {
	h := NewMemoryHistoryStore()
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	err := h.Put(ctx, entry("a", 1))
	assert.ErrorIs(t, err, context.Canceled)
	assert.Equal(t, 0, h.Len())
}

func TestSettings(t *testing.T) {
	s := NewMemoryStore().Settings()

	value, err := s.Get(store.SettingAllowDuplicates)
	require.NoError(t, err)
	assert.Equal(t, "false", value)

	require.NoError(t, s.Set(store.SettingAllowDuplicates, "true"))
	value, err = s.Get(store.SettingAllowDuplicates)
	require.NoError(t, err)
	assert.Equal(t, "true", value)

	all, err := s.List()
	require.NoError(t, err)
	all["x"] = "y"
	_, err = s.Get("x")
	assert.ErrorIs(t, err, store.ErrSettingNotFound, "List must return a copy")

	assert.ErrorIs(t, s.Delete("x"), store.ErrSettingNotFound)
}
