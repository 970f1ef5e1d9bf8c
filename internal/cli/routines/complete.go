package routines

import (
	"context"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/routines"
)

// ToggleArgs are the flags shared by complete and uncomplete.
type ToggleArgs struct {
	User    string `help:"Owner (defaults to the only user)."`
	Routine string `arg:"" help:"Routine ID."`
	Task    string `arg:"" help:"Task ID or name."`
	Date    string `help:"Day as YYYY-MM-DD (defaults to today)."`
	Mode    string `help:"Gate policy: strict or permissive (defaults to the server setting)."`
}

func (a ToggleArgs) run(ctx *cli.Context, complete bool) error {
	bg := context.Background()
	caller, err := ctx.ResolveCaller(bg, a.User)
	if err != nil {
		return err
	}
	svc := ctx.Routines()
	r, err := svc.Get(bg, caller, a.Routine)
	if err != nil {
		return err
	}
	task, err := findTask(r, a.Task)
	if err != nil {
		return err
	}

	in := routines.ToggleInput{Date: a.Date, Mode: a.Mode}
	verb := "Completed"
	if complete {
		_, err = svc.Complete(bg, caller, r.ID, task.ID, in)
	} else {
		verb = "Uncompleted"
		_, err = svc.Uncomplete(bg, caller, r.ID, task.ID, in)
	}
	if err != nil {
		return err
	}

	day := a.Date
	if day == "" {
		day = "today"
	}
	ctx.Printf("%s %s (%s) for %s\n", verb, task.Name, r.Title, day)
	return nil
}

type RoutineCompleteCmd struct {
	ToggleArgs
}

func (c *RoutineCompleteCmd) Run(ctx *cli.Context) error {
	return c.run(ctx, true)
}

type RoutineUncompleteCmd struct {
	ToggleArgs
}

func (c *RoutineUncompleteCmd) Run(ctx *cli.Context) error {
	return c.run(ctx, false)
}
