package constants

const (
	SettingTimezone          = "timezone"
	SettingDefaultGatePolicy = "default_gate_policy"
	SettingRemindersEnabled  = "reminders_enabled"
	SettingReminderWindowMin = "reminder_window_min"

	// Gate policy names
	GatePolicyStrict     = "strict"
	GatePolicyPermissive = "permissive"

	// Default Settings Values
	DefaultTimezone          = LocalTimezone
	DefaultGatePolicy        = GatePolicyStrict
	DefaultRemindersEnabled  = true
	DefaultSettingsWindowMin = DefaultReminderWindowMin
)
