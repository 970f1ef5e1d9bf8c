package models

import (
	"fmt"

	"github.com/julianstephens/routinely/internal/constants"
)

// DefaultSettings returns the settings written on first init.
func DefaultSettings() Settings {
	return Settings{
		Timezone:          constants.DefaultTimezone,
		DefaultGatePolicy: constants.DefaultGatePolicy,
		RemindersEnabled:  constants.DefaultRemindersEnabled,
		ReminderWindowMin: constants.DefaultSettingsWindowMin,
	}
}

// MapToSettings converts a map of key-value pairs to a Settings struct.
// Missing keys keep their default values.
func MapToSettings(data map[string]string) (Settings, error) {
	settings := DefaultSettings()

	for key, value := range data {
		switch key {
		case constants.SettingTimezone:
			settings.Timezone = value
		case constants.SettingDefaultGatePolicy:
			settings.DefaultGatePolicy = value
		case constants.SettingRemindersEnabled:
			settings.RemindersEnabled = value == "true"
		case constants.SettingReminderWindowMin:
			if _, err := fmt.Sscanf(value, "%d", &settings.ReminderWindowMin); err != nil {
				return Settings{}, fmt.Errorf("parsing %s: %w", constants.SettingReminderWindowMin, err)
			}
		}
	}
	return settings, nil
}

// SettingsToMap converts a Settings struct to a map of key-value pairs.
func SettingsToMap(settings Settings) map[string]string {
	return map[string]string{
		constants.SettingTimezone:          settings.Timezone,
		constants.SettingDefaultGatePolicy: settings.DefaultGatePolicy,
		constants.SettingRemindersEnabled:  fmt.Sprintf("%v", settings.RemindersEnabled),
		constants.SettingReminderWindowMin: fmt.Sprintf("%d", settings.ReminderWindowMin),
	}
}
