package routines

import (
	"context"
	"fmt"
	"strings"

	"github.com/charmbracelet/glamour"

	"github.com/julianstephens/routinely/internal/cli"
	"github.com/julianstephens/routinely/internal/stats"
	"github.com/julianstephens/routinely/internal/tui/components/weekgrid"
)

type StatsCmd struct {
	User    string `help:"Owner (defaults to the only user)."`
	Routine string `help:"Show the week grid of this routine instead of the summary."`
	Date    string `help:"Any day of the week to show, as YYYY-MM-DD."`
	Mode    string `help:"Gate policy used for the actionable column."`
	Plain   bool   `help:"Print raw markdown without styling."`
}

func (c *StatsCmd) Run(ctx *cli.Context) error {
	bg := context.Background()
	caller, err := ctx.ResolveCaller(bg, c.User)
	if err != nil {
		return err
	}
	svc := ctx.Routines()

	var md string
	if c.Routine != "" {
		w, err := svc.Week(bg, caller, c.Routine, c.Date, c.Mode)
		if err != nil {
			return err
		}
		md = WeekMarkdown(w)
	} else {
		s, err := svc.Summary(bg, caller)
		if err != nil {
			return err
		}
		md = SummaryMarkdown(s)
	}

	if c.Plain {
		ctx.Printf("%s\n", md)
		return nil
	}
	ctx.Printf("%s\n", renderMarkdown(md))
	return nil
}

func renderMarkdown(md string) string {
	if strings.TrimSpace(md) == "" {
		return ""
	}
	out, err := glamour.Render(md, "dark")
	if err != nil {
		return md
	}
	return strings.TrimSpace(out)
}

func progressText(p stats.Progress) string {
	return fmt.Sprintf("%d/%d (%d%%)", p.Completed, p.Total, p.Percentage)
}

// SummaryMarkdown renders the aggregate dashboard.
func SummaryMarkdown(s stats.Summary) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# Summary for %s\n\n", s.Today)
	fmt.Fprintf(&b, "- **Routines:** %d\n", s.TotalRoutines)
	fmt.Fprintf(&b, "- **Tasks:** %d\n", s.TotalTasks)
	fmt.Fprintf(&b, "- **Today:** %s\n", progressText(s.TodayProgress))
	fmt.Fprintf(&b, "- **Last 7 days:** %s\n\n", progressText(s.WeekProgress))

	if len(s.Daily) > 0 {
		b.WriteString("## Daily\n\n| Day | Done | % |\n|---|---|---|\n")
		for _, d := range s.Daily {
			fmt.Fprintf(&b, "| %s | %d/%d | %d%% |\n", weekgrid.DayLabel(d.Day), d.Completed, d.Total, d.Percentage)
		}
		b.WriteString("\n")
	}

	if len(s.Routines) > 0 {
		b.WriteString("## Routines\n\n| Routine | Average |\n|---|---|\n")
		for _, r := range s.Routines {
			fmt.Fprintf(&b, "| %s | %d%% |\n", escapeCell(r.Title), r.Percentage)
		}
	}
	return strings.TrimSpace(b.String())
}

// WeekMarkdown renders one routine's Monday-to-Sunday grid.
func WeekMarkdown(w stats.Week) string {
	var b strings.Builder
	fmt.Fprintf(&b, "# %s\n\n", escapeCell(w.Title))
	fmt.Fprintf(&b, "Weekly average **%d%%**, policy `%s`\n\n", w.WeeklyAverage, w.Policy)

	if len(w.Rows) == 0 {
		b.WriteString("_No tasks._\n")
		return strings.TrimSpace(b.String())
	}

	b.WriteString("| Task |")
	for _, d := range w.Days {
		fmt.Fprintf(&b, " %s |", weekgrid.DayLabel(d))
	}
	b.WriteString("\n|---|")
	b.WriteString(strings.Repeat("---|", len(w.Days)))
	b.WriteString("\n")

	for _, row := range w.Rows {
		fmt.Fprintf(&b, "| %s %s |", row.Task.StartTime, escapeCell(row.Task.Name))
		for _, cell := range row.Cells {
			fmt.Fprintf(&b, " %s |", weekgrid.Mark(cell))
		}
		b.WriteString("\n")
	}

	b.WriteString("| **Done** |")
	for _, p := range w.Daily {
		fmt.Fprintf(&b, " %d%% |", p.Percentage)
	}
	b.WriteString("\n")
	return strings.TrimSpace(b.String())
}

func escapeCell(s string) string {
	return strings.ReplaceAll(s, "|", `\|`)
}
