package models

// Settings represents server-wide settings stored in the settings table
type Settings struct {
	Timezone          string `json:"timezone"`            // IANA timezone name or "Local"
	DefaultGatePolicy string `json:"default_gate_policy"` // "strict" or "permissive"
	RemindersEnabled  bool   `json:"reminders_enabled"`
	ReminderWindowMin int    `json:"reminder_window_min"` // minutes around start time that count as due
}
