package routinelist

import (
	"fmt"

	"github.com/charmbracelet/bubbles/key"
	"github.com/charmbracelet/bubbles/list"
	tea "github.com/charmbracelet/bubbletea"

	"github.com/julianstephens/routinely/internal/models"
)

type AddRoutineMsg struct{}

type DeleteRoutineMsg struct {
	ID    string
	Title string
}

// OpenRoutineMsg asks the parent to show the routine's week.
type OpenRoutineMsg struct {
	ID string
}

type Item struct {
	Routine models.Routine
}

func (i Item) Title() string { return i.Routine.Title }

func (i Item) Description() string {
	n := len(i.Routine.Tasks)
	noun := "tasks"
	if n == 1 {
		noun = "task"
	}
	return fmt.Sprintf("%d %s | created %s", n, noun, i.Routine.CreatedAt.Format("Jan 2, 2006"))
}

func (i Item) FilterValue() string { return i.Routine.Title }

type KeyMap struct {
	Add    key.Binding
	Delete key.Binding
	Open   key.Binding
}

func DefaultKeyMap() KeyMap {
	return KeyMap{
		Add: key.NewBinding(
			key.WithKeys("a"),
			key.WithHelp("a", "add"),
		),
		Delete: key.NewBinding(
			key.WithKeys("d"),
			key.WithHelp("d", "delete"),
		),
		Open: key.NewBinding(
			key.WithKeys("enter"),
			key.WithHelp("enter", "open week"),
		),
	}
}

type Model struct {
	list list.Model
	keys KeyMap
}

func New(routines []models.Routine, width, height int) Model {
	l := list.New(items(routines), list.NewDefaultDelegate(), width, height)
	l.Title = "Routines"
	l.SetShowTitle(false)
	l.SetShowHelp(false)

	keys := DefaultKeyMap()
	l.AdditionalShortHelpKeys = func() []key.Binding {
		return []key.Binding{keys.Add, keys.Delete, keys.Open}
	}
	return Model{list: l, keys: keys}
}

func items(routines []models.Routine) []list.Item {
	out := make([]list.Item, len(routines))
	for i, r := range routines {
		out[i] = Item{Routine: r}
	}
	return out
}

func (m *Model) SetRoutines(routines []models.Routine) {
	m.list.SetItems(items(routines))
}

// Selected returns the highlighted routine.
func (m Model) Selected() (models.Routine, bool) {
	if i, ok := m.list.SelectedItem().(Item); ok {
		return i.Routine, true
	}
	return models.Routine{}, false
}

func (m Model) Init() tea.Cmd {
	return nil
}

func (m Model) Update(msg tea.Msg) (Model, tea.Cmd) {
	var cmd tea.Cmd

	if msg, ok := msg.(tea.KeyMsg); ok && m.list.FilterState() != list.Filtering {
		switch {
		case key.Matches(msg, m.keys.Add):
			return m, func() tea.Msg { return AddRoutineMsg{} }
		case key.Matches(msg, m.keys.Delete):
			if r, ok := m.Selected(); ok {
				return m, func() tea.Msg { return DeleteRoutineMsg{ID: r.ID, Title: r.Title} }
			}
		case key.Matches(msg, m.keys.Open):
			if r, ok := m.Selected(); ok {
				return m, func() tea.Msg { return OpenRoutineMsg{ID: r.ID} }
			}
		}
	}

	m.list, cmd = m.list.Update(msg)
	return m, cmd
}

func (m Model) View() string {
	if len(m.list.Items()) == 0 && m.list.FilterState() != list.Filtering {
		return "\n  No routines yet.\n  Press 'a' to add one."
	}
	return m.list.View()
}

func (m *Model) SetSize(width, height int) {
	m.list.SetSize(width, height)
}
