package weekgrid

import (
	"fmt"
	"strings"

	"github.com/charmbracelet/lipgloss"

	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/stats"
)

var (
	nameStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("252")).
			Width(24)

	timeStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("241"))

	headerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("245")).
			Bold(true).
			Width(cellWidth).
			Align(lipgloss.Center)

	todayHeaderStyle = headerStyle.
				Foreground(lipgloss.Color("205"))

	cellStyle = lipgloss.NewStyle().
			Width(cellWidth).
			Align(lipgloss.Center)

	doneStyle   = cellStyle.Foreground(lipgloss.Color("42"))
	openStyle   = cellStyle.Foreground(lipgloss.Color("252"))
	lockedStyle = cellStyle.Foreground(lipgloss.Color("238"))
	cursorStyle = lipgloss.NewStyle().Reverse(true)

	footerStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240")).
			Italic(true)
)

const cellWidth = 8

const (
	markDone   = "●"
	markOpen   = "○"
	markLocked = "·"
)

// Model renders one routine's week as a task by day grid with a cursor.
type Model struct {
	week  stats.Week
	today daykey.Key
	row   int
	col   int
}

func New() Model {
	return Model{}
}

// SetWeek replaces the grid. The cursor keeps its position when it still
// fits, otherwise it moves to the first row on today's column.
func (m *Model) SetWeek(w stats.Week, today daykey.Key) {
	first := m.week.RoutineID != w.RoutineID
	m.week = w
	m.today = today

	if first || m.row >= len(w.Rows) {
		m.row = 0
	}
	if first || m.col >= len(w.Days) {
		m.col = 0
		for i, d := range w.Days {
			if d == today {
				m.col = i
			}
		}
	}
}

func (m Model) Week() stats.Week {
	return m.week
}

// Move shifts the cursor, clamped to the grid.
func (m *Model) Move(dRow, dCol int) {
	m.row = clamp(m.row+dRow, len(m.week.Rows))
	m.col = clamp(m.col+dCol, len(m.week.Days))
}

func clamp(v, n int) int {
	if v < 0 || n == 0 {
		return 0
	}
	if v >= n {
		return n - 1
	}
	return v
}

// Cursor returns the row and column under the cursor.
func (m Model) Cursor() (int, int) {
	return m.row, m.col
}

// Selected returns the task and cell under the cursor.
func (m Model) Selected() (models.Task, stats.Cell, bool) {
	if m.row >= len(m.week.Rows) {
		return models.Task{}, stats.Cell{}, false
	}
	row := m.week.Rows[m.row]
	if m.col >= len(row.Cells) {
		return models.Task{}, stats.Cell{}, false
	}
	return row.Task, row.Cells[m.col], true
}

// DayLabel formats a key as "Mon 11".
func DayLabel(k daykey.Key) string {
	s := k.String()
	if len(s) != len("2006-01-02") {
		return s
	}
	return k.Weekday().String()[:3] + " " + s[8:]
}

// Mark returns the glyph for a cell.
func Mark(c stats.Cell) string {
	switch {
	case c.Completed:
		return markDone
	case c.Actionable:
		return markOpen
	default:
		return markLocked
	}
}

func (m Model) View() string {
	if m.week.RoutineID == "" {
		return "No routine selected. Pick one on the Routines tab."
	}
	if len(m.week.Rows) == 0 {
		return fmt.Sprintf("%s has no tasks.", m.week.Title)
	}

	var b strings.Builder

	header := []string{nameStyle.Render("")}
	for _, d := range m.week.Days {
		style := headerStyle
		if d == m.today {
			style = todayHeaderStyle
		}
		header = append(header, style.Render(DayLabel(d)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, header...))
	b.WriteString("\n")

	for r, row := range m.week.Rows {
		cells := []string{nameStyle.Render(taskLabel(row.Task))}
		for c, cell := range row.Cells {
			style := lockedStyle
			switch {
			case cell.Completed:
				style = doneStyle
			case cell.Actionable:
				style = openStyle
			}
			mark := Mark(cell)
			if r == m.row && c == m.col {
				mark = cursorStyle.Render(" " + mark + " ")
			}
			cells = append(cells, style.Render(mark))
		}
		b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, cells...))
		b.WriteString("\n")
	}

	daily := []string{nameStyle.Render(timeStyle.Render("done"))}
	for _, p := range m.week.Daily {
		daily = append(daily, cellStyle.Render(fmt.Sprintf("%d%%", p.Percentage)))
	}
	b.WriteString(lipgloss.JoinHorizontal(lipgloss.Top, daily...))
	b.WriteString("\n\n")
	b.WriteString(footerStyle.Render(fmt.Sprintf("Weekly average: %d%%  |  %s done  %s open  %s not actionable",
		m.week.WeeklyAverage, markDone, markOpen, markLocked)))

	return b.String()
}

func taskLabel(t models.Task) string {
	when := t.StartTime
	if t.HasEndTime() {
		when += "-" + t.EndTime
	}
	name := t.Name
	if r := []rune(name); len(r) > 12 {
		name = string(r[:11]) + "…"
	}
	return name + " " + timeStyle.Render(when)
}
