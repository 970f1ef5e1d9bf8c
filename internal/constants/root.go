package constants

import "time"

const (
	AppName             = "routinely"
	DefaultKeyringUser  = "database-connection"
	KeyringAPITokenUser = "api-token"
	DefaultConfigDir    = "~/.config/routinely"
	DefaultConfigPath   = "~/.config/routinely/config.yaml"
	DefaultDBPath       = "~/.config/routinely/routinely.db"
	Version             = "v0.3.0"

	// KeyringDB selects the PostgreSQL connection string stored in the OS keyring.
	KeyringDB = "keyring"

	// EnvDBConnection overrides the database location when set.
	EnvDBConnection = "ROUTINELY_DB_CONNECTION"

	// Backup constants
	MaxBackups       = 14
	BackupDirName    = "backups"
	BackupFilePrefix = "routinely-"
	BackupFileSuffix = ".db"

	// Notify constants
	NotifierLockfileName   = "routinely-notifier.lock"
	NotificationDurationMs = 5000
	TrayAppIdentifier      = "com.julianstephens.routinely"
	TrayExecutablePrefix   = "routinely-tray"
	TraySecretHeader       = "X-Routinely-Secret"
	NotifierLog            = "log"
	NotifierTray           = "tray"

	// Reminder constants
	DefaultReminderInterval  = time.Minute
	DefaultReminderWindowMin = 1

	// HTTP constants
	DefaultAddr      = ":8080"
	DefaultAPIURL    = "http://localhost:8080/api"
	TimezoneHeader   = "X-Timezone"
	RequestTimeout   = 10 * time.Second
	MaxRequestBodyKB = 256
)
