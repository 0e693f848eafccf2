package config

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yiblet/clipq/internal/store"
	"github.com/yiblet/clipq/internal/store/memstore"
)

func newSettings(t *testing.T) (*Settings, store.SettingsStore) {
	t.Helper()
	ss := memstore.NewMemoryStore().Settings()
	return NewSettings(ss, nil), ss
}

func TestSettings_Defaults(t *testing.T) {
	s, _ := newSettings(t)

	assert.False(t, s.AllowDuplicates())

	snap, err := s.Snapshot()
	require.NoError(t, err)
	assert.Equal(t, UserSettings{AllowDuplicates: false, Theme: ThemeLight}, snap)
}

func TestSettings_SetNormalizes(t *testing.T) {
	s, ss := newSettings(t)

	require.NoError(t, s.Set(store.SettingAllowDuplicates, "1"))
	raw, err := ss.Get(store.SettingAllowDuplicates)
	require.NoError(t, err)
	assert.Equal(t, "true", raw)
	assert.True(t, s.AllowDuplicates())

	require.NoError(t, s.Set(store.SettingTheme, ThemeDark))
	value, err := s.Get(store.SettingTheme)
	require.NoError(t, err)
	assert.Equal(t, ThemeDark, value)
}

func TestSettings_SetRejects(t *testing.T) {
	s, _ := newSettings(t)

	tests := []struct{ key, value string }{
		{store.SettingAllowDuplicates, "sometimes"},
		{store.SettingTheme, "solarized"},
		{"font", "mono"},
	}
	for _, tt := range tests {
		err := s.Set(tt.key, tt.value)
		assert.ErrorIs(t, err, ErrInvalidSetting, "%s=%s", tt.key, tt.value)
	}

	_, err := s.Get("font")
	assert.ErrorIs(t, err, ErrInvalidSetting)
}

func TestSettings_MissingKeyUsesDefault(t *testing.T) {
	s, ss := newSettings(t)
	require.NoError(t, ss.Delete(store.SettingTheme))

	value, err := s.Get(store.SettingTheme)
	require.NoError(t, err)
	assert.Equal(t, ThemeLight, value)

	values, err := s.List()
	require.NoError(t, err)
	assert.Equal(t, map[string]string{"allow_duplicates": "false", "theme": "light"}, values)
}

type brokenSettings struct{ store.SettingsStore }

func (brokenSettings) Get(string) (string, error) { return "", errors.New("disk gone") }

func TestSettings_ReadFailureDisallowsDuplicates(t *testing.T) {
	s := NewSettings(brokenSettings{}, nil)
	assert.False(t, s.AllowDuplicates())
}
