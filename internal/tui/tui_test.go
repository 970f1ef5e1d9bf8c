package tui

import (
	"context"
	"errors"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/routinely/internal/client"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/stats"
)

type fakeAPI struct {
	routines []models.Routine
	sendErr  error
	sent     []client.Mutation
	modes    []string
	created  []routines.CreateInput
	location *time.Location
}

func (f *fakeAPI) ListRoutines(context.Context) ([]models.Routine, error) {
	out := make([]models.Routine, len(f.routines))
	for i, r := range f.routines {
		out[i] = r.Clone()
	}
	return out, nil
}

func (f *fakeAPI) CreateRoutine(_ context.Context, in routines.CreateInput) (models.Routine, error) {
	f.created = append(f.created, in)
	return models.Routine{ID: "new", Title: in.Title}, nil
}

func (f *fakeAPI) DeleteRoutine(context.Context, string) error { return nil }

func (f *fakeAPI) Location() *time.Location { return f.location }

func (f *fakeAPI) Summary(context.Context) (stats.Summary, error) {
	return stats.Summary{}, nil
}

func (f *fakeAPI) Send(_ context.Context, routineID string, m client.Mutation, mode string) (models.Routine, error) {
	f.sent = append(f.sent, m)
	f.modes = append(f.modes, mode)
	if f.sendErr != nil {
		return models.Routine{}, f.sendErr
	}
	r := f.routines[0].Clone()
	if m.Completed {
		r.Tasks[0].CompletedDates = []time.Time{time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)}
	}
	return r, nil
}

func morning() models.Routine {
	return models.Routine{
		ID:    "r1",
		Title: "Morning",
		Tasks: []models.Task{{ID: "t1", Name: "Stretch", StartTime: "07:00", EndTime: "07:15"}},
	}
}

func newTestModel(t *testing.T, api *fakeAPI, clock time.Time) Model {
	t.Helper()
	m := NewModel(api, time.UTC, WithClock(func() time.Time { return clock }))
	next, _ := m.Update(routinesLoadedMsg{routines: mustList(t, api)})
	return next.(Model)
}

func mustList(t *testing.T, api *fakeAPI) []models.Routine {
	t.Helper()
	rs, err := api.ListRoutines(context.Background())
	if err != nil {
		t.Fatal(err)
	}
	return rs
}

var space = tea.KeyMsg{Type: tea.KeySpace, Runes: []rune(" ")}

func completedToday(m Model) bool {
	_, cell, ok := m.grid.Selected()
	return ok && cell.Completed
}

func TestLoadSelectsFirstRoutineOnToday(t *testing.T) {
	api := &fakeAPI{routines: []models.Routine{morning()}}
	m := newTestModel(t, api, time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC))

	if m.selectedID != "r1" {
		t.Fatalf("selectedID = %q, want r1", m.selectedID)
	}
	_, cell, ok := m.grid.Selected()
	if !ok {
		t.Fatal("expected a selected cell")
	}
	if cell.Day != "2024-03-13" {
		t.Errorf("cursor day = %s, want 2024-03-13", cell.Day)
	}
	if !cell.Actionable {
		t.Error("today's cell after end time should be actionable")
	}
}

func TestLoadAdoptsServerTimezone(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	api := &fakeAPI{routines: []models.Routine{morning()}, location: ny}
	// 02:00 UTC on the 13th is still the 12th in New York.
	m := newTestModel(t, api, time.Date(2024, 3, 13, 2, 0, 0, 0, time.UTC))

	if got := m.log.Normalizer().Location().String(); got != "America/New_York" {
		t.Fatalf("log location = %s, want America/New_York", got)
	}
	_, cell, ok := m.grid.Selected()
	if !ok {
		t.Fatal("expected a selected cell")
	}
	if cell.Day != "2024-03-12" {
		t.Errorf("cursor day = %s, want 2024-03-12", cell.Day)
	}
}

func TestToggleOptimistic(t *testing.T) {
	api := &fakeAPI{routines: []models.Routine{morning()}}
	m := newTestModel(t, api, time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC))

	next, cmd := m.Update(space)
	m = next.(Model)
	if cmd == nil {
		t.Fatal("expected a send command")
	}
	if !completedToday(m) {
		t.Fatal("toggle should show as completed before the server answers")
	}
	if m.pendingToggles != 1 {
		t.Errorf("pendingToggles = %d, want 1", m.pendingToggles)
	}

	msg := cmd()
	next, _ = m.Update(msg)
	m = next.(Model)

	if len(api.sent) != 1 || !api.sent[0].Completed || api.modes[0] != "strict" {
		t.Fatalf("sent = %+v modes = %v", api.sent, api.modes)
	}
	if !completedToday(m) {
		t.Error("completion should stick after success")
	}
	if m.pendingToggles != 0 || m.err != nil {
		t.Errorf("pendingToggles = %d err = %v", m.pendingToggles, m.err)
	}
}

func TestToggleRevertsOnFailure(t *testing.T) {
	api := &fakeAPI{
		routines: []models.Routine{morning()},
		sendErr:  &client.APIError{StatusCode: 422, Message: "task is not actionable"},
	}
	m := newTestModel(t, api, time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC))

	next, cmd := m.Update(space)
	m = next.(Model)
	next, _ = m.Update(cmd())
	m = next.(Model)

	if completedToday(m) {
		t.Error("failed toggle should be reverted")
	}
	if len(m.routines[0].Tasks[0].CompletedDates) != 0 {
		t.Errorf("history = %v, want empty", m.routines[0].Tasks[0].CompletedDates)
	}
	if m.err == nil {
		t.Fatal("expected error to be surfaced")
	}
	if got := errorText(m.err); got != "Not actionable: task is not actionable" {
		t.Errorf("errorText = %q", got)
	}
}

func TestToggleBlockedByGate(t *testing.T) {
	tests := []struct {
		name  string
		clock time.Time
		move  int
	}{
		{"before end time", time.Date(2024, 3, 13, 6, 59, 0, 0, time.UTC), 0},
		{"yesterday", time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC), -1},
		{"tomorrow", time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC), 1},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			api := &fakeAPI{routines: []models.Routine{morning()}}
			m := newTestModel(t, api, tt.clock)
			m.grid.Move(0, tt.move)

			next, cmd := m.Update(space)
			m = next.(Model)
			if cmd != nil {
				t.Fatal("gate should block the toggle")
			}
			if completedToday(m) || m.status == "" {
				t.Errorf("completed = %v status = %q", completedToday(m), m.status)
			}
			if len(api.sent) != 0 {
				t.Error("nothing should be sent")
			}
		})
	}
}

func TestTabsCycle(t *testing.T) {
	m := NewModel(&fakeAPI{}, time.UTC)
	tab := tea.KeyMsg{Type: tea.KeyTab}

	for _, want := range []SessionState{StateRoutines, StateTrends, StateWeek} {
		next, _ := m.Update(tab)
		m = next.(Model)
		if m.state != want {
			t.Fatalf("state = %d, want %d", m.state, want)
		}
	}
}

func TestRoutineFormInput(t *testing.T) {
	tests := []struct {
		name    string
		form    RoutineFormModel
		want    int
		wantErr bool
	}{
		{"two tasks", RoutineFormModel{Title: " Morning ", Tasks: "07:00-07:15 Stretch\n07:30 Coffee"}, 2, false},
		{"no tasks", RoutineFormModel{Title: "Empty"}, 0, false},
		{"bad line", RoutineFormModel{Title: "Bad", Tasks: "soon Stretch"}, 0, true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			in, err := tt.form.Input()
			if (err != nil) != tt.wantErr {
				t.Fatalf("Input() error = %v, wantErr %v", err, tt.wantErr)
			}
			if tt.wantErr {
				return
			}
			if len(in.Tasks) != tt.want {
				t.Errorf("tasks = %d, want %d", len(in.Tasks), tt.want)
			}
			if in.Title != "Morning" && tt.name == "two tasks" {
				t.Errorf("title = %q, want trimmed", in.Title)
			}
		})
	}
}

func TestRoutineCreatedSelectsAndReloads(t *testing.T) {
	m := NewModel(&fakeAPI{}, time.UTC)
	next, cmd := m.Update(routineCreatedMsg{routine: models.Routine{ID: "new", Title: "Evening"}})
	m = next.(Model)
	if m.selectedID != "new" {
		t.Errorf("selectedID = %q, want new", m.selectedID)
	}
	if cmd == nil {
		t.Error("expected reload command")
	}

	next, _ = m.Update(routineCreatedMsg{err: errors.New("boom")})
	if next.(Model).err == nil {
		t.Error("expected error to be kept")
	}
}
