package system

import (
	"context"
	"os/signal"
	"syscall"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/routinely/internal/api"
	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
)

type ServeCmd struct {
	Addr      string `help:"Listen address (defaults to the config addr)."`
	Reminders bool   `help:"Also run the reminder loop over every user's routines."`
}

func (c *ServeCmd) Run(ctx *cli.Context) error {
	addr := c.Addr
	if addr == "" {
		addr = ctx.Config.Addr
	}
	if !ctx.Config.Debug {
		gin.SetMode(gin.ReleaseMode)
	}

	sigCtx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	svc := ctx.Routines()
	if c.Reminders {
		loc, err := ctx.Config.Location()
		if err != nil {
			return err
		}
		store := ctx.Store
		rem, err := newReminder(ctx, svc.Settings(sigCtx), loc, func(ctx context.Context) ([]models.Routine, error) {
			return store.ListRoutines(ctx, "")
		})
		if err != nil {
			return err
		}
		rem.Start(sigCtx)
		defer rem.Stop()
		logger.Info("Reminder loop started", "interval", ctx.Config.Reminder.Interval, "timezone", loc.String())
	}

	srv := api.NewServer(svc, ctx.Todos(), ctx.Users())
	ctx.Printf("Serving routinely API on %s\n", addr)
	return srv.Run(sigCtx, addr)
}
