package tui

import (
	"errors"
	"fmt"
	"strings"

	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/routinely/internal/client"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/tui/components/routinelist"
)

func (m Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch m.state {
	case StateAddRoutine:
		return m.updateForm(msg)
	case StateConfirmDelete:
		if msg, ok := msg.(tea.KeyMsg); ok {
			return m.updateConfirmDelete(msg)
		}
	}

	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		m.resize()
		return m, nil

	case routinesLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.adoptServerLocation()
		m.setRoutines(msg.routines)
		return m, nil

	case summaryLoadedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.trend.SetSummary(msg.summary)
		return m, nil

	case toggleResultMsg:
		return m, m.applyToggleResult(msg)

	case routineCreatedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		m.selectedID = msg.routine.ID
		m.status = fmt.Sprintf("Created %q", msg.routine.Title)
		return m, tea.Batch(m.loadRoutines(), m.loadSummary())

	case routineDeletedMsg:
		if msg.err != nil {
			m.err = msg.err
			return m, nil
		}
		if m.selectedID == msg.id {
			m.selectedID = ""
		}
		m.status = "Routine deleted"
		return m, tea.Batch(m.loadRoutines(), m.loadSummary())

	case routinelist.AddRoutineMsg:
		return m, m.openForm()

	case routinelist.DeleteRoutineMsg:
		m.deleteID = msg.ID
		m.deleteTitle = msg.Title
		m.state = StateConfirmDelete
		return m, nil

	case routinelist.OpenRoutineMsg:
		m.selectedID = msg.ID
		m.rebuildWeek()
		m.state = StateWeek
		return m, nil

	case tea.KeyMsg:
		switch {
		case key.Matches(msg, m.keys.Quit):
			m.quitting = true
			m.Shutdown()
			return m, tea.Quit
		case key.Matches(msg, m.keys.Tab):
			m.state = (m.state + 1) % SessionState(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.ShiftTab):
			m.state = (m.state - 1 + SessionState(len(tabTitles))) % SessionState(len(tabTitles))
			return m, nil
		case key.Matches(msg, m.keys.Help):
			m.help.ShowAll = !m.help.ShowAll
			return m, nil
		}
	}

	switch m.state {
	case StateWeek:
		return m.updateWeek(msg)
	case StateRoutines:
		var cmd tea.Cmd
		m.list, cmd = m.list.Update(msg)
		return m, cmd
	case StateTrends:
		if msg, ok := msg.(tea.KeyMsg); ok && key.Matches(msg, m.keys.Refresh) {
			return m, m.loadSummary()
		}
	}
	return m, nil
}

func (m Model) updateWeek(msg tea.Msg) (tea.Model, tea.Cmd) {
	keyMsg, ok := msg.(tea.KeyMsg)
	if !ok {
		return m, nil
	}
	switch {
	case key.Matches(keyMsg, m.keys.Up):
		m.grid.Move(-1, 0)
	case key.Matches(keyMsg, m.keys.Down):
		m.grid.Move(1, 0)
	case key.Matches(keyMsg, m.keys.Left):
		m.grid.Move(0, -1)
	case key.Matches(keyMsg, m.keys.Right):
		m.grid.Move(0, 1)
	case key.Matches(keyMsg, m.keys.Toggle):
		return m, m.toggleSelected()
	case key.Matches(keyMsg, m.keys.Add):
		return m, m.openForm()
	case key.Matches(keyMsg, m.keys.Refresh):
		m.err = nil
		return m, tea.Batch(m.loadRoutines(), m.loadSummary())
	}
	return m, nil
}

func (m *Model) openForm() tea.Cmd {
	m.newForm = &RoutineFormModel{}
	m.form = NewRoutineForm(m.newForm)
	m.state = StateAddRoutine
	return m.form.Init()
}

// NewRoutineForm asks for a title and one task per line.
func NewRoutineForm(fm *RoutineFormModel) *huh.Form {
	return huh.NewForm(
		huh.NewGroup(
			huh.NewInput().
				Title("Title").
				Value(&fm.Title).
				Validate(func(s string) error {
					if strings.TrimSpace(s) == "" {
						return errors.New("title is required")
					}
					return nil
				}),
			huh.NewText().
				Title("Tasks").
				Description("One per line: HH:MM[-HH:MM] name").
				Value(&fm.Tasks).
				Validate(func(s string) error {
					_, err := routines.ParseTaskLines(s)
					return err
				}),
		),
	)
}

func (m Model) updateForm(msg tea.Msg) (tea.Model, tea.Cmd) {
	if msg, ok := msg.(tea.KeyMsg); ok && msg.Type == tea.KeyEsc {
		m.state = StateRoutines
		return m, nil
	}

	var cmds []tea.Cmd
	form, cmd := m.form.Update(msg)
	if f, ok := form.(*huh.Form); ok {
		m.form = f
	}
	cmds = append(cmds, cmd)

	switch m.form.State {
	case huh.StateCompleted:
		in, err := m.newForm.Input()
		if err != nil {
			m.err = err
			m.form.State = huh.StateNormal
			break
		}
		m.state = StateRoutines
		cmds = append(cmds, m.createRoutine(in))
	case huh.StateAborted:
		m.state = StateRoutines
	}
	return m, tea.Batch(cmds...)
}

// Input converts the form into a create request.
func (f RoutineFormModel) Input() (routines.CreateInput, error) {
	tasks, err := routines.ParseTaskLines(f.Tasks)
	if err != nil {
		return routines.CreateInput{}, err
	}
	return routines.CreateInput{Title: strings.TrimSpace(f.Title), Tasks: tasks}, nil
}

func (m Model) updateConfirmDelete(msg tea.KeyMsg) (tea.Model, tea.Cmd) {
	switch msg.String() {
	case "y", "Y":
		id := m.deleteID
		m.deleteID, m.deleteTitle = "", ""
		m.state = StateRoutines
		return m, m.deleteRoutine(id)
	case "n", "N", "esc", "q":
		m.deleteID, m.deleteTitle = "", ""
		m.state = StateRoutines
	}
	return m, nil
}

// errorText renders an error for the status line.
func errorText(err error) string {
	var apiErr *client.APIError
	if errors.As(err, &apiErr) {
		if apiErr.NotActionable() {
			return "Not actionable: " + apiErr.Message
		}
		return apiErr.Message
	}
	return err.Error()
}
