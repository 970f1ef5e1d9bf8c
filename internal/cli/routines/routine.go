package routines

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/tui"
)

var (
	titleStyle = lipgloss.NewStyle().Bold(true)
	dimStyle   = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	doneStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42"))
)

type RoutineAddCmd struct {
	User        string   `help:"Owner (defaults to the only user)."`
	Title       string   `arg:"" optional:"" help:"Routine title."`
	Task        []string `short:"t" help:"Task as \"HH:MM[-HH:MM] name\". Repeatable."`
	Interactive bool     `short:"i" help:"Fill in the routine with a form."`
}

func (c *RoutineAddCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	caller, err := ctx.ResolveCaller(bg, c.User)
	if err != nil {
		return err
	}

	in, err := c.input()
	if err != nil {
		return err
	}

	r, err := ctx.Routines().Create(bg, caller, in)
	if err != nil {
		return err
	}
	ctx.Printf("Added routine: %s (%s) with %d task(s)\n", r.Title, r.ID, len(r.Tasks))
	return nil
}

func (c *RoutineAddCmd) input() (routines.CreateInput, error) {
	if c.Interactive {
		fm := &tui.RoutineFormModel{Title: c.Title, Tasks: strings.Join(c.Task, "\n")}
		if err := tui.NewRoutineForm(fm).Run(); err != nil {
			return routines.CreateInput{}, err
		}
		return fm.Input()
	}

	in := routines.CreateInput{Title: c.Title}
	for _, line := range c.Task {
		t, err := routines.ParseTaskLine(line)
		if err != nil {
			return routines.CreateInput{}, err
		}
		in.Tasks = append(in.Tasks, t)
	}
	return in, nil
}

type RoutineListCmd struct {
	User string `help:"Owner (defaults to the only user)."`
}

func (c *RoutineListCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	caller, err := ctx.ResolveCaller(bg, c.User)
	if err != nil {
		return err
	}
	svc := ctx.Routines()
	rs, err := svc.List(bg, caller)
	if err != nil {
		return err
	}
	if len(rs) == 0 {
		ctx.Printf("No routines found.\n")
		return nil
	}

	log := completion.NewLog(svc.Location(bg, caller))
	today := log.Normalizer().Today(ctx.Clock())
	for _, r := range rs {
		ctx.Printf("%s %s\n", titleStyle.Render(r.Title), dimStyle.Render("("+r.ID+")"))
		for _, t := range r.SortedTasks() {
			mark := "[ ]"
			if log.IsCompletedOn(t, today) {
				mark = doneStyle.Render("[x]")
			}
			ctx.Printf("  %s %-11s %s %s\n", mark, schedule(t), t.Name, dimStyle.Render(t.ID))
		}
	}
	return nil
}

func schedule(t models.Task) string {
	if t.HasEndTime() {
		return t.StartTime + "-" + t.EndTime
	}
	return t.StartTime
}

type RoutineDeleteCmd struct {
	User string `help:"Owner (defaults to the only user)."`
	ID   string `arg:"" help:"Routine ID."`
}

func (c *RoutineDeleteCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	caller, err := ctx.ResolveCaller(bg, c.User)
	if err != nil {
		return err
	}
	svc := ctx.Routines()
	r, err := svc.Get(bg, caller, c.ID)
	if err != nil {
		return err
	}

	ctx.PerformAutomaticBackup(bg)
	if err := svc.Delete(bg, caller, c.ID); err != nil {
		return err
	}
	ctx.Printf("Deleted routine: %s (%s)\n", r.Title, r.ID)
	return nil
}

// findTask resolves a task by id, then by case-insensitive name.
func findTask(r models.Routine, ref string) (models.Task, error) {
	if idx := r.FindTask(ref); idx >= 0 {
		return r.Tasks[idx], nil
	}
	var match []models.Task
	for _, t := range r.Tasks {
		if strings.EqualFold(t.Name, ref) {
			match = append(match, t)
		}
	}
	switch len(match) {
	case 1:
		return match[0], nil
	case 0:
		return models.Task{}, fmt.Errorf("task %q not found in routine %s", ref, r.Title)
	default:
		return models.Task{}, fmt.Errorf("task name %q is ambiguous in routine %s, use the task ID", ref, r.Title)
	}
}
