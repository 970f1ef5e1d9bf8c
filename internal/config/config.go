// Package config loads routinely configuration from a YAML file and
// ROUTINELY_* environment variables.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strings"
	"time"

	"github.com/spf13/viper"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/daykey"
)

type Config struct {
	DB       string         `mapstructure:"db"`
	Addr     string         `mapstructure:"addr"`
	Timezone string         `mapstructure:"timezone"`
	Debug    bool           `mapstructure:"debug"`
	Notifier string         `mapstructure:"notifier"`
	Reminder ReminderConfig `mapstructure:"reminder"`
	API      APIConfig      `mapstructure:"api"`
}

type ReminderConfig struct {
	Interval  time.Duration `mapstructure:"interval"`
	WindowMin int           `mapstructure:"window_min"`
}

// APIConfig is used by the terminal client. An empty token falls back to
// the OS keyring.
type APIConfig struct {
	URL   string `mapstructure:"url"`
	Token string `mapstructure:"token"`
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("db", constants.DefaultDBPath)
	v.SetDefault("addr", constants.DefaultAddr)
	v.SetDefault("timezone", constants.LocalTimezone)
	v.SetDefault("debug", false)
	v.SetDefault("notifier", constants.NotifierLog)
	v.SetDefault("reminder.interval", constants.DefaultReminderInterval)
	v.SetDefault("reminder.window_min", constants.DefaultReminderWindowMin)
	v.SetDefault("api.url", constants.DefaultAPIURL)
	v.SetDefault("api.token", "")
}

// Default returns the configuration used when no file or environment
// overrides exist.
func Default() *Config {
	cfg, _ := load(viper.New(), "")
	return cfg
}

// Load reads path if it exists; a missing file is not an error.
// Environment variables override the file.
func Load(path string) (*Config, error) {
	return load(viper.New(), path)
}

func load(v *viper.Viper, path string) (*Config, error) {
	setDefaults(v)
	v.SetEnvPrefix(strings.ToUpper(constants.AppName))
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if path != "" {
		expanded, err := ExpandPath(path)
		if err != nil {
			return nil, err
		}
		if _, err := os.Stat(expanded); err == nil {
			v.SetConfigFile(expanded)
			v.SetConfigType("yaml")
			if err := v.ReadInConfig(); err != nil {
				return nil, fmt.Errorf("failed to read config %s: %w", expanded, err)
			}
		} else if !errors.Is(err, os.ErrNotExist) {
			return nil, fmt.Errorf("failed to stat config %s: %w", expanded, err)
		}
	}

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("failed to decode config: %w", err)
	}
	return cfg, nil
}

// Validate checks values that would otherwise fail late.
func (c *Config) Validate() error {
	if !daykey.ValidateTimezone(c.Timezone) {
		return fmt.Errorf("invalid timezone %q", c.Timezone)
	}
	switch c.Notifier {
	case constants.NotifierLog, constants.NotifierTray:
	default:
		return fmt.Errorf("invalid notifier %q (expected %s or %s)", c.Notifier, constants.NotifierLog, constants.NotifierTray)
	}
	if c.Reminder.Interval <= 0 {
		return fmt.Errorf("reminder.interval must be positive, got %s", c.Reminder.Interval)
	}
	if c.Reminder.WindowMin < 0 {
		return fmt.Errorf("reminder.window_min must not be negative, got %d", c.Reminder.WindowMin)
	}
	return nil
}

// Location loads the configured timezone.
func (c *Config) Location() (*time.Location, error) {
	return daykey.LoadLocation(c.Timezone)
}

// ExpandPath replaces a leading ~ with the user's home directory.
func ExpandPath(path string) (string, error) {
	if path != "~" && !strings.HasPrefix(path, "~/") {
		return path, nil
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return "", fmt.Errorf("failed to resolve home directory: %w", err)
	}
	return filepath.Join(home, strings.TrimPrefix(path, "~")), nil
}

// WriteDefault writes a commented starter config to path.
func WriteDefault(path string) error {
	content := `# routinely configuration
# Values can be overridden with ROUTINELY_* environment variables,
# e.g. ROUTINELY_ADDR=:9090 or ROUTINELY_REMINDER_INTERVAL=30s.

# SQLite path, PostgreSQL URL (no password), or "keyring"
db: ` + constants.DefaultDBPath + `

# API listen address for "routinely serve"
addr: "` + constants.DefaultAddr + `"

# IANA timezone used for day keys, or Local
timezone: Local

# "log" or "tray"
notifier: log

reminder:
  interval: 1m
  window_min: 1

# Used by "routinely tui". Leave token empty to read it from the keyring.
api:
  url: ` + constants.DefaultAPIURL + `
  token: ""
`
	if err := os.MkdirAll(filepath.Dir(path), 0700); err != nil {
		return err
	}
	return os.WriteFile(path, []byte(content), 0600)
}
