package system

import (
	"errors"
	"fmt"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/keyring"
	"github.com/julianstephens/routinely/internal/storage/postgres"
)

// KeyringSetCmd stores a secret in the OS keyring.
type KeyringSetCmd struct {
	Entry string `arg:"" enum:"db,token" help:"Entry to store: db (PostgreSQL connection string) or token (API token)."`
	Value string `arg:"" help:"Value to store."`
}

func (cmd *KeyringSetCmd) Run(ctx *cli.Context) error {
	entry, err := keyring.ParseEntry(cmd.Entry)
	if err != nil {
		return err
	}

	if entry == keyring.ConnectionString {
		if _, err := postgres.ValidateConnString(cmd.Value); err != nil {
			if !errors.Is(err, postgres.ErrEmbeddedCredentials) {
				return fmt.Errorf("invalid connection string: %w", err)
			}
			ctx.Printf("⚠️  Warning: Connection string contains embedded credentials.\n")
			ctx.Printf("   It will be stored as-is in the encrypted OS keyring.\n")
		}
	}

	if err := keyring.Set(entry, cmd.Value); err != nil {
		return err
	}

	ctx.Printf("✓ %s stored successfully in OS keyring\n", entry)
	if entry == keyring.ConnectionString {
		ctx.Printf("  Use it with --db %s\n", constants.KeyringDB)
	}
	return nil
}

// KeyringGetCmd shows a stored secret with any password masked.
type KeyringGetCmd struct {
	Entry string `arg:"" enum:"db,token" help:"Entry to show: db or token."`
}

func (cmd *KeyringGetCmd) Run(ctx *cli.Context) error {
	entry, err := keyring.ParseEntry(cmd.Entry)
	if err != nil {
		return err
	}
	value, err := keyring.Get(entry)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring. Use '%s keyring set %s' to store one", entry, constants.AppName, cmd.Entry)
		}
		return err
	}

	if entry == keyring.APIToken {
		ctx.Printf("%s\n", maskToken(value))
		return nil
	}
	ctx.Printf("%s\n", keyring.MaskPassword(value))
	return nil
}

// KeyringDeleteCmd removes a stored secret.
type KeyringDeleteCmd struct {
	Entry string `arg:"" enum:"db,token" help:"Entry to delete: db or token."`
}

func (cmd *KeyringDeleteCmd) Run(ctx *cli.Context) error {
	entry, err := keyring.ParseEntry(cmd.Entry)
	if err != nil {
		return err
	}
	if err := keyring.Delete(entry); err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return fmt.Errorf("no %s found in keyring", entry)
		}
		return err
	}
	ctx.Printf("✓ %s deleted from OS keyring\n", entry)
	return nil
}

// KeyringStatusCmd reports whether the OS keyring can be used.
type KeyringStatusCmd struct{}

func (cmd *KeyringStatusCmd) Run(ctx *cli.Context) error {
	if !keyring.IsAvailable() {
		ctx.Printf("❌ OS keyring is not available on this system\n")
		return keyring.ErrKeyringUnavailable
	}
	ctx.Printf("✓ OS keyring is available\n")
	for _, e := range []keyring.Entry{keyring.ConnectionString, keyring.APIToken} {
		if _, err := keyring.Get(e); err == nil {
			ctx.Printf("✓ %s is stored\n", e)
		} else if errors.Is(err, keyring.ErrNotFound) {
			ctx.Printf("ℹ No %s stored\n", e)
		}
	}
	return nil
}

func maskToken(token string) string {
	if len(token) <= 8 {
		return "****"
	}
	return token[:4] + "****" + token[len(token)-4:]
}
