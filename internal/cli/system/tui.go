package system

import (
	"errors"
	"fmt"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/client"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/keyring"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/tui"
)

type TuiCmd struct {
	URL   string `help:"API base URL (defaults to api.url from config)."`
	Token string `help:"API token (defaults to api.token, then the keyring)." env:"ROUTINELY_API_TOKEN"`
}

func (c *TuiCmd) Run(ctx *cli.Context) error {
	url := c.URL
	if url == "" {
		url = ctx.Config.API.URL
	}
	token, err := c.token(ctx)
	if err != nil {
		return err
	}
	loc, err := ctx.Config.Location()
	if err != nil {
		return err
	}

	api := client.New(url, token, client.WithTimezone(ctx.Config.Timezone))
	rem, err := newReminder(ctx, localSettings(), loc, api.ListRoutines)
	if err != nil {
		return err
	}
	defer rem.Stop()

	p := tea.NewProgram(tui.NewModel(api, loc, tui.WithReminder(rem)), tea.WithAltScreen())
	if _, err := p.Run(); err != nil {
		return fmt.Errorf("tui failed: %w", err)
	}
	return nil
}

// localSettings are the reminder settings for a client without store
// access. A zero window defers to reminder.window_min from config.
func localSettings() models.Settings {
	s := models.DefaultSettings()
	s.ReminderWindowMin = 0
	return s
}

func (c *TuiCmd) token(ctx *cli.Context) (string, error) {
	if c.Token != "" {
		return c.Token, nil
	}
	if ctx.Config.API.Token != "" {
		return ctx.Config.API.Token, nil
	}
	token, err := keyring.Get(keyring.APIToken)
	if err != nil {
		if errors.Is(err, keyring.ErrNotFound) {
			return "", fmt.Errorf("no API token configured, run '%s user add' and '%s keyring set token <token>'", constants.AppName, constants.AppName)
		}
		return "", err
	}
	return token, nil
}
