package todos

import (
	"context"
	"time"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/todos"
)

// owner resolves the caller and the location due dates are read in.
func owner(ctx *cli.Context, user string) (routines.Caller, *time.Location, error) {
	bg := context.Background()
	caller, err := ctx.ResolveCaller(bg, user)
	if err != nil {
		return routines.Caller{}, nil, err
	}
	return caller, ctx.Routines().Location(bg, caller), nil
}

type TodoAddCmd struct {
	User string `help:"Owner (defaults to the only user)."`
	Text string `arg:"" help:"What needs doing."`
	Due  string `help:"Due day as YYYY-MM-DD."`
}

func (c *TodoAddCmd) Run(ctx *cli.Context) error {
	caller, loc, err := owner(ctx, c.User)
	if err != nil {
		return err
	}
	in := todos.Input{Text: &c.Text}
	if c.Due != "" {
		in.DueDate = &c.Due
	}
	todo, err := ctx.Todos().Create(context.Background(), caller.UserID, in, loc)
	if err != nil {
		return err
	}
	ctx.Printf("Added todo: %s (%s)\n", todo.Text, todo.ID)
	return nil
}

type TodoListCmd struct {
	User string `help:"Owner (defaults to the only user)."`
	All  bool   `short:"a" help:"Include completed todos."`
}

func (c *TodoListCmd) Run(ctx *cli.Context) error {
	caller, loc, err := owner(ctx, c.User)
	if err != nil {
		return err
	}
	list, err := ctx.Todos().List(context.Background(), caller.UserID)
	if err != nil {
		return err
	}

	shown := 0
	for _, todo := range list {
		if todo.Completed && !c.All {
			continue
		}
		ctx.Printf("  %s %s%s  %s\n", checkbox(todo), todo.Text, dueSuffix(todo, loc), todo.ID)
		shown++
	}
	if shown == 0 {
		ctx.Printf("No todos found.\n")
	}
	return nil
}

func checkbox(todo models.Todo) string {
	if todo.Completed {
		return "[x]"
	}
	return "[ ]"
}

func dueSuffix(todo models.Todo, loc *time.Location) string {
	if todo.DueDate == nil {
		return ""
	}
	return " (due " + todo.DueDate.In(loc).Format(time.DateOnly) + ")"
}

type TodoDoneCmd struct {
	User string `help:"Owner (defaults to the only user)."`
	ID   string `arg:"" help:"Todo ID."`
	Undo bool   `help:"Mark the todo as not done."`
}

func (c *TodoDoneCmd) Run(ctx *cli.Context) error {
	caller, loc, err := owner(ctx, c.User)
	if err != nil {
		return err
	}
	done := !c.Undo
	todo, err := ctx.Todos().Update(context.Background(), caller.UserID, c.ID, todos.Input{Completed: &done}, loc)
	if err != nil {
		return err
	}
	ctx.Printf("%s %s\n", checkbox(todo), todo.Text)
	return nil
}

type TodoDeleteCmd struct {
	User string `help:"Owner (defaults to the only user)."`
	ID   string `arg:"" help:"Todo ID."`
}

func (c *TodoDeleteCmd) Run(ctx *cli.Context) error {
	caller, _, err := owner(ctx, c.User)
	if err != nil {
		return err
	}
	if err := ctx.Todos().Delete(context.Background(), caller.UserID, c.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted todo %s\n", c.ID)
	return nil
}
