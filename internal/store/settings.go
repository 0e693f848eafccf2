package store

// Setting keys persisted in the SettingsStore.
const (
	SettingAllowDuplicates = "allow_duplicates"
	SettingTheme           = "theme"
)

// DefaultSettings returns the values seeded into a fresh store.
func DefaultSettings() map[string]string {
	return map[string]string{
		SettingAllowDuplicates: "false",
		SettingTheme:           "light",
	}
}
