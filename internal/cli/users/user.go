package users

import (
	"context"
	"fmt"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/keyring"
)

type UserAddCmd struct {
	Name      string `arg:"" help:"User name."`
	Timezone  string `help:"IANA timezone for this user's days (defaults to the server setting)."`
	SaveToken bool   `help:"Store the new API token in the OS keyring for the TUI."`
}

func (c *UserAddCmd) Run(ctx *cli.Context) error {
	u, token, err := ctx.Users().Create(context.Background(), c.Name, c.Timezone)
	if err != nil {
		return err
	}
	ctx.Printf("Added user: %s (%s)\n", u.Name, u.ID)
	return printToken(ctx, token, c.SaveToken)
}

// printToken shows a freshly issued token; it cannot be recovered later.
func printToken(ctx *cli.Context, token string, save bool) error {
	ctx.Printf("API token: %s\n", token)
	ctx.Printf("This token is shown only once. Keep it somewhere safe.\n")
	if !save {
		return nil
	}
	if err := keyring.Set(keyring.APIToken, token); err != nil {
		return fmt.Errorf("failed to save token to keyring: %w", err)
	}
	ctx.Printf("✓ Token saved to keyring; '%s tui' will use it.\n", constants.AppName)
	return nil
}

type UserListCmd struct{}

func (c *UserListCmd) Run(ctx *cli.Context) error {
	users, err := ctx.Users().List(context.Background())
	if err != nil {
		return err
	}
	if len(users) == 0 {
		ctx.Printf("No users found. Run '%s user add <name>' to create one.\n", constants.AppName)
		return nil
	}
	for _, u := range users {
		tz := u.Timezone
		if tz == "" {
			tz = "(server default)"
		}
		ctx.Printf("  %-20s %-20s %s\n", u.Name, tz, u.ID)
	}
	return nil
}

type UserRotateTokenCmd struct {
	Name      string `arg:"" help:"User name."`
	SaveToken bool   `help:"Store the new API token in the OS keyring for the TUI."`
}

func (c *UserRotateTokenCmd) Run(ctx *cli.Context) error {
	token, err := ctx.Users().RotateToken(context.Background(), c.Name)
	if err != nil {
		return err
	}
	ctx.Printf("Rotated token for %s. The previous token no longer works.\n", c.Name)
	return printToken(ctx, token, c.SaveToken)
}

type UserTimezoneCmd struct {
	Name     string `arg:"" help:"User name."`
	Timezone string `arg:"" optional:"" help:"IANA timezone; omit to use the server setting."`
}

func (c *UserTimezoneCmd) Run(ctx *cli.Context) error {
	u, err := ctx.Users().SetTimezone(context.Background(), c.Name, c.Timezone)
	if err != nil {
		return err
	}
	if u.Timezone == "" {
		ctx.Printf("%s now follows the server timezone.\n", u.Name)
		return nil
	}
	ctx.Printf("%s now uses %s.\n", u.Name, u.Timezone)
	return nil
}
