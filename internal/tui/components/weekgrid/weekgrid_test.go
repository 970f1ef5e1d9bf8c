package weekgrid

import (
	"strings"
	"testing"

	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/stats"
)

func sampleWeek() stats.Week {
	days := []daykey.Key{"2024-03-11", "2024-03-12", "2024-03-13", "2024-03-14", "2024-03-15", "2024-03-16", "2024-03-17"}
	w := stats.Week{RoutineID: "r1", Title: "Morning", Days: days, Daily: make([]stats.Progress, len(days))}
	for _, name := range []string{"Stretch", "Read"} {
		row := stats.TaskRow{Task: models.Task{ID: name, Name: name, StartTime: "07:00"}}
		for _, d := range days {
			row.Cells = append(row.Cells, stats.Cell{Day: d, Actionable: d == "2024-03-13"})
		}
		w.Rows = append(w.Rows, row)
	}
	return w
}

func TestSetWeekFocusesToday(t *testing.T) {
	m := New()
	m.SetWeek(sampleWeek(), "2024-03-13")

	row, col := m.Cursor()
	if row != 0 || col != 2 {
		t.Errorf("cursor = (%d,%d), want (0,2)", row, col)
	}

	m.Move(1, 3)
	m.SetWeek(sampleWeek(), "2024-03-13")
	if row, col := m.Cursor(); row != 1 || col != 5 {
		t.Errorf("cursor after refresh = (%d,%d), want (1,5)", row, col)
	}
}

func TestMoveClamps(t *testing.T) {
	m := New()
	m.SetWeek(sampleWeek(), "2024-03-13")

	m.Move(-5, -5)
	if row, col := m.Cursor(); row != 0 || col != 0 {
		t.Errorf("cursor = (%d,%d), want (0,0)", row, col)
	}
	m.Move(10, 10)
	if row, col := m.Cursor(); row != 1 || col != 6 {
		t.Errorf("cursor = (%d,%d), want (1,6)", row, col)
	}

	task, cell, ok := m.Selected()
	if !ok || task.Name != "Read" || cell.Day != "2024-03-17" {
		t.Errorf("Selected() = %v %v %v", task.Name, cell.Day, ok)
	}
}

func TestMarkAndLabel(t *testing.T) {
	tests := []struct {
		cell stats.Cell
		want string
	}{
		{stats.Cell{Completed: true}, markDone},
		{stats.Cell{Completed: true, Actionable: true}, markDone},
		{stats.Cell{Actionable: true}, markOpen},
		{stats.Cell{}, markLocked},
	}
	for _, tt := range tests {
		if got := Mark(tt.cell); got != tt.want {
			t.Errorf("Mark(%+v) = %q, want %q", tt.cell, got, tt.want)
		}
	}

	if got := DayLabel("2024-03-11"); got != "Mon 11" {
		t.Errorf("DayLabel = %q, want Mon 11", got)
	}
}

func TestViewEmpty(t *testing.T) {
	if !strings.Contains(New().View(), "No routine selected") {
		t.Error("empty grid should prompt for a routine")
	}
	m := New()
	m.SetWeek(stats.Week{RoutineID: "r1", Title: "Empty"}, "2024-03-13")
	if !strings.Contains(m.View(), "has no tasks") {
		t.Error("routine without tasks should say so")
	}
}
