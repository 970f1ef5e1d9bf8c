package system

import (
	"context"
	"fmt"
	"os/signal"
	"syscall"
	"time"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/notifier"
	"github.com/julianstephens/routinely/internal/reminder"
)

// RemindCmd runs the reminder loop for one user in the foreground.
type RemindCmd struct {
	User string `help:"User to remind (defaults to the only user)."`
	Once bool   `help:"Run a single check and exit."`
}

func (c *RemindCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	caller, err := ctx.ResolveCaller(bg, c.User)
	if err != nil {
		return err
	}
	svc := ctx.Routines()
	settings := svc.Settings(bg)

	rem, err := newReminder(ctx, settings, svc.Location(bg, caller), func(ctx context.Context) ([]models.Routine, error) {
		return svc.List(ctx, caller)
	})
	if err != nil {
		return err
	}

	if c.Once {
		sent := rem.Check(bg)
		ctx.Printf("Sent %d reminder(s).\n", len(sent))
		for _, n := range sent {
			ctx.Printf("  %s\n", n.Text())
		}
		return nil
	}

	if !settings.RemindersEnabled {
		return fmt.Errorf("reminders are disabled, enable them with '%s settings --reminders-enabled'", constants.AppName)
	}

	sigCtx, stop := signal.NotifyContext(bg, syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	ctx.Printf("Watching routines every %s. Press Ctrl+C to stop.\n", ctx.Config.Reminder.Interval)
	rem.Start(sigCtx)
	<-sigCtx.Done()
	rem.Stop()
	return nil
}

// newReminder builds a stopped reminder service from config and stored
// settings. The stored window wins over the config default.
func newReminder(ctx *cli.Context, settings models.Settings, loc *time.Location, src reminder.Source) (*reminder.Service, error) {
	cfg := ctx.Config
	n, err := notifier.ByName(cfg.Notifier)
	if err != nil {
		return nil, err
	}
	window := cfg.Reminder.WindowMin
	if settings.ReminderWindowMin > 0 {
		window = settings.ReminderWindowMin
	}
	rem := reminder.New(n,
		reminder.WithLocation(loc),
		reminder.WithInterval(cfg.Reminder.Interval),
		reminder.WithWindow(window),
		reminder.WithSource(src),
		reminder.WithClock(ctx.Clock),
	)
	if !settings.RemindersEnabled {
		rem.Disable()
	}
	return rem, nil
}
