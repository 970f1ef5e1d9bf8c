// Package keyring keeps secrets in the OS keyring: the PostgreSQL
// connection string and the API token used by the terminal client.
package keyring

import (
	"errors"
	"fmt"
	"strings"

	"github.com/zalando/go-keyring"

	"github.com/julianstephens/routinely/internal/constants"
)

var (
	ErrNotFound           = errors.New("credentials not found in keyring")
	ErrKeyringUnavailable = errors.New("OS keyring is not available")
)

// Entry names one secret under the application's keyring service.
type Entry string

const (
	ConnectionString Entry = constants.DefaultKeyringUser
	APIToken         Entry = constants.KeyringAPITokenUser
)

// ParseEntry maps a CLI name to an Entry.
func ParseEntry(name string) (Entry, error) {
	switch name {
	case "db", string(ConnectionString):
		return ConnectionString, nil
	case "token", string(APIToken):
		return APIToken, nil
	default:
		return "", fmt.Errorf("unknown keyring entry %q (expected db or token)", name)
	}
}

func Get(e Entry) (string, error) {
	v, err := keyring.Get(constants.AppName, string(e))
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", ErrNotFound
		}
		return "", fmt.Errorf("%w: %v", ErrKeyringUnavailable, err)
	}
	return v, nil
}

func Set(e Entry, value string) error {
	if value == "" {
		return fmt.Errorf("%s cannot be empty", e)
	}
	if err := keyring.Set(constants.AppName, string(e), value); err != nil {
		return fmt.Errorf("failed to store credentials in keyring: %w", err)
	}
	return nil
}

func Delete(e Entry) error {
	if err := keyring.Delete(constants.AppName, string(e)); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return ErrNotFound
		}
		return fmt.Errorf("failed to delete credentials from keyring: %w", err)
	}
	return nil
}

// IsAvailable probes the keyring with a read. A missing entry still means
// the keyring works.
func IsAvailable() bool {
	_, err := keyring.Get(constants.AppName, "availability-probe")
	return err == nil || errors.Is(err, keyring.ErrNotFound)
}

// MaskPassword hides the password of a PostgreSQL URL or DSN.
func MaskPassword(connStr string) string {
	if strings.HasPrefix(connStr, "postgres://") || strings.HasPrefix(connStr, "postgresql://") {
		idx := strings.Index(connStr, "://")
		rest := connStr[idx+3:]
		if at := strings.LastIndex(rest, "@"); at != -1 {
			userInfo := rest[:at]
			if colon := strings.Index(userInfo, ":"); colon != -1 {
				return connStr[:idx+3] + userInfo[:colon] + ":****" + rest[at:]
			}
		}
		return connStr
	}

	fields := strings.Fields(connStr)
	for i, f := range fields {
		if strings.HasPrefix(strings.ToLower(f), "password=") {
			fields[i] = "password=****"
		}
	}
	return strings.Join(fields, " ")
}
