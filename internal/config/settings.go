package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strconv"

	"github.com/yiblet/clipq/internal/store"
)

// ErrInvalidSetting is returned for an unknown setting key or a value the
// key does not accept.
var ErrInvalidSetting = errors.New("invalid setting")

// Themes accepted by the theme setting.
const (
	ThemeLight = "light"
	ThemeDark  = "dark"
)

// UserSettings is the typed view of the persisted user settings.
type UserSettings struct {
	AllowDuplicates bool   `json:"allow_duplicates"`
	Theme           string `json:"theme"`
}

// Settings reads and writes user settings in the store. It is the engine's
// duplicate policy, so a change applies to the next add.
type Settings struct {
	store  store.SettingsStore
	logger *slog.Logger
}

// NewSettings wraps a settings store.
func NewSettings(s store.SettingsStore, logger *slog.Logger) *Settings {
	if logger == nil {
		logger = slog.Default()
	}
	return &Settings{store: s, logger: logger}
}

// AllowDuplicates reports the allow_duplicates setting. Read failures fall
// back to the default of false.
func (s *Settings) AllowDuplicates() bool {
	value, err := s.store.Get(store.SettingAllowDuplicates)
	if err != nil {
		s.logger.Warn("failed to read setting, using default", "key", store.SettingAllowDuplicates, "error", err)
		return false
	}
	allow, err := strconv.ParseBool(value)
	if err != nil {
		s.logger.Warn("malformed setting, using default", "key", store.SettingAllowDuplicates, "value", value)
		return false
	}
	return allow
}

// Snapshot returns all settings, filling defaults for missing keys.
func (s *Settings) Snapshot() (UserSettings, error) {
	values, err := s.store.List()
	if err != nil {
		return UserSettings{}, fmt.Errorf("failed to list settings: %w", err)
	}

	defaults := store.DefaultSettings()
	for key, value := range defaults {
		if _, ok := values[key]; !ok {
			values[key] = value
		}
	}

	allow, err := strconv.ParseBool(values[store.SettingAllowDuplicates])
	if err != nil {
		allow = false
	}
	return UserSettings{AllowDuplicates: allow, Theme: values[store.SettingTheme]}, nil
}

// Get returns the raw value of a setting.
func (s *Settings) Get(key string) (string, error) {
	if _, ok := store.DefaultSettings()[key]; !ok {
		return "", fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}
	value, err := s.store.Get(key)
	if errors.Is(err, store.ErrSettingNotFound) {
		return store.DefaultSettings()[key], nil
	}
	return value, err
}

// Set validates and stores a setting.
func (s *Settings) Set(key, value string) error {
	normalized, err := normalize(key, value)
	if err != nil {
		return err
	}
	if err := s.store.Set(key, normalized); err != nil {
		return fmt.Errorf("failed to save setting %s: %w", key, err)
	}
	s.logger.Info("setting changed", "key", key, "value", normalized)
	return nil
}

// List returns every setting as a string map.
func (s *Settings) List() (map[string]string, error) {
	snap, err := s.Snapshot()
	if err != nil {
		return nil, err
	}
	return map[string]string{
		store.SettingAllowDuplicates: strconv.FormatBool(snap.AllowDuplicates),
		store.SettingTheme:           snap.Theme,
	}, nil
}

// normalize checks key and value and returns the canonical stored value.
func normalize(key, value string) (string, error) {
	switch key {
	case store.SettingAllowDuplicates:
		b, err := strconv.ParseBool(value)
		if err != nil {
			return "", fmt.Errorf("%w: %s must be true or false", ErrInvalidSetting, key)
		}
		return strconv.FormatBool(b), nil
	case store.SettingTheme:
		if value != ThemeLight && value != ThemeDark {
			return "", fmt.Errorf("%w: %s must be %q or %q", ErrInvalidSetting, key, ThemeLight, ThemeDark)
		}
		return value, nil
	default:
		return "", fmt.Errorf("%w: unknown key %q", ErrInvalidSetting, key)
	}
}
