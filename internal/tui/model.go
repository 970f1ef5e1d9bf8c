package tui

import (
	"context"
	"time"

	"github.com/charmbracelet/bubbles/help"
	"github.com/charmbracelet/bubbles/key"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/huh"

	"github.com/julianstephens/routinely/internal/client"
	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/gate"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/reminder"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/stats"
	"github.com/julianstephens/routinely/internal/tui/components/routinelist"
	"github.com/julianstephens/routinely/internal/tui/components/trend"
	"github.com/julianstephens/routinely/internal/tui/components/weekgrid"
)

type SessionState int

const (
	StateWeek SessionState = iota
	StateRoutines
	StateTrends
	StateAddRoutine
	StateConfirmDelete
)

var tabTitles = []string{"Week", "Routines", "Trends"}

// API is the part of the HTTP client the TUI uses.
type API interface {
	ListRoutines(ctx context.Context) ([]models.Routine, error)
	CreateRoutine(ctx context.Context, in routines.CreateInput) (models.Routine, error)
	DeleteRoutine(ctx context.Context, id string) error
	Summary(ctx context.Context) (stats.Summary, error)
	Send(ctx context.Context, routineID string, m client.Mutation, mode string) (models.Routine, error)
	// Location is the zone the server keyed its last response in, or nil.
	Location() *time.Location
}

type RoutineFormModel struct {
	Title string
	Tasks string
}

type Model struct {
	api      API
	reminder *reminder.Service
	log      completion.Log
	policy   gate.Policy
	now      func() time.Time

	state    SessionState
	keys     KeyMap
	help     help.Model
	grid     weekgrid.Model
	list     routinelist.Model
	trend    trend.Model
	form     *huh.Form
	newForm  *RoutineFormModel
	routines []models.Routine

	selectedID     string
	deleteID       string
	deleteTitle    string
	pendingToggles int
	status         string
	err            error
	quitting       bool
	width          int
	height         int
}

type Option func(*Model)

func WithClock(now func() time.Time) Option {
	return func(m *Model) { m.now = now }
}

// WithReminder attaches a reminder service. The model starts it on Init and
// stops it on quit.
func WithReminder(r *reminder.Service) Option {
	return func(m *Model) { m.reminder = r }
}

// NewModel builds the weekly grid client. Toggles go through the strict
// gate, with day keys computed in loc.
func NewModel(api API, loc *time.Location, opts ...Option) Model {
	m := Model{
		api:    api,
		log:    completion.NewLog(loc),
		policy: gate.Strict{},
		now:    time.Now,
		state:  StateWeek,
		keys:   DefaultKeyMap(),
		help:   help.New(),
		grid:   weekgrid.New(),
		list:   routinelist.New(nil, 0, 0),
		trend:  trend.New(60, 12),
	}
	for _, opt := range opts {
		opt(&m)
	}
	return m
}

func (m Model) ShortHelp() []key.Binding {
	keys := []key.Binding{m.keys.Tab, m.keys.Quit, m.keys.Help}
	switch m.state {
	case StateWeek:
		keys = append(keys, m.keys.Toggle, m.keys.Refresh)
	case StateRoutines:
		keys = append(keys, m.keys.Add)
	case StateTrends:
		keys = append(keys, m.keys.Refresh)
	}
	return keys
}

func (m Model) FullHelp() [][]key.Binding {
	global := []key.Binding{m.keys.Tab, m.keys.ShiftTab, m.keys.Quit, m.keys.Help, m.keys.Refresh}
	navigation := []key.Binding{m.keys.Up, m.keys.Down, m.keys.Left, m.keys.Right}

	var actions []key.Binding
	switch m.state {
	case StateWeek:
		actions = []key.Binding{m.keys.Toggle}
	case StateRoutines:
		actions = []key.Binding{m.keys.Add}
	}
	return [][]key.Binding{global, navigation, actions}
}

func (m Model) Init() tea.Cmd {
	cmds := []tea.Cmd{m.loadRoutines(), m.loadSummary()}
	if m.reminder != nil {
		rem := m.reminder
		cmds = append(cmds, func() tea.Msg {
			rem.Start(context.Background())
			return nil
		})
	}
	return tea.Batch(cmds...)
}

// Shutdown stops the reminder loop. It is safe to call more than once.
func (m Model) Shutdown() {
	if m.reminder != nil {
		m.reminder.Stop()
	}
}

type routinesLoadedMsg struct {
	routines []models.Routine
	err      error
}

type summaryLoadedMsg struct {
	summary stats.Summary
	err     error
}

type toggleResultMsg struct {
	routineID string
	mutation  client.Mutation
	routine   models.Routine
	err       error
}

type routineCreatedMsg struct {
	routine models.Routine
	err     error
}

type routineDeletedMsg struct {
	id  string
	err error
}

func requestContext() (context.Context, context.CancelFunc) {
	return context.WithTimeout(context.Background(), constants.RequestTimeout)
}

func (m Model) loadRoutines() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		rs, err := api.ListRoutines(ctx)
		return routinesLoadedMsg{routines: rs, err: err}
	}
}

func (m Model) loadSummary() tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		s, err := api.Summary(ctx)
		return summaryLoadedMsg{summary: s, err: err}
	}
}

func (m Model) createRoutine(in routines.CreateInput) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		r, err := api.CreateRoutine(ctx, in)
		return routineCreatedMsg{routine: r, err: err}
	}
}

func (m Model) deleteRoutine(id string) tea.Cmd {
	api := m.api
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		return routineDeletedMsg{id: id, err: api.DeleteRoutine(ctx, id)}
	}
}

func (m Model) sendToggle(routineID string, mut client.Mutation) tea.Cmd {
	api, mode := m.api, m.policy.Name()
	return func() tea.Msg {
		ctx, cancel := requestContext()
		defer cancel()
		r, err := api.Send(ctx, routineID, mut, mode)
		return toggleResultMsg{routineID: routineID, mutation: mut, routine: r, err: err}
	}
}

func (m *Model) routineIndex(id string) int {
	for i := range m.routines {
		if m.routines[i].ID == id {
			return i
		}
	}
	return -1
}

// rebuildWeek recomputes the grid of the selected routine from local state.
func (m *Model) rebuildWeek() {
	idx := m.routineIndex(m.selectedID)
	if idx < 0 {
		m.grid = weekgrid.New()
		return
	}
	now := m.now()
	w, err := stats.BuildWeek(m.log, m.routines[idx], now, now, m.policy)
	if err != nil {
		m.err = err
		return
	}
	m.grid.SetWeek(w, m.log.Normalizer().Today(now))
}

// syncReminder hands the reminder service its own copy, since toggles
// mutate m.routines in place.
func (m *Model) syncReminder() {
	if m.reminder == nil {
		return
	}
	cp := make([]models.Routine, len(m.routines))
	for i, r := range m.routines {
		cp[i] = r.Clone()
	}
	m.reminder.SetRoutines(cp)
}

// toggleSelected applies the toggle under the cursor locally and returns
// the command that persists it. Cells the gate rejects are left alone.
func (m *Model) toggleSelected() tea.Cmd {
	task, cell, ok := m.grid.Selected()
	if !ok {
		return nil
	}
	if !cell.Actionable {
		m.status = task.Name + " is not actionable on " + cell.Day.String()
		return nil
	}
	idx := m.routineIndex(m.selectedID)
	if idx < 0 {
		return nil
	}

	mut, err := client.ApplyToggle(&m.routines[idx], task.ID, cell.Day, m.log)
	if err != nil {
		m.err = err
		return nil
	}
	m.pendingToggles++
	m.status = ""
	m.err = nil
	m.rebuildWeek()
	return m.sendToggle(m.selectedID, mut)
}

func (m *Model) applyToggleResult(msg toggleResultMsg) tea.Cmd {
	if m.pendingToggles > 0 {
		m.pendingToggles--
	}
	idx := m.routineIndex(msg.routineID)
	if msg.err != nil {
		logger.Warn("Toggle failed, reverting", "routine", msg.routineID, "task", msg.mutation.TaskID, "error", msg.err)
		if idx >= 0 {
			msg.mutation.Revert(&m.routines[idx])
		}
		m.err = msg.err
		m.rebuildWeek()
		return nil
	}
	if idx >= 0 {
		m.routines[idx] = msg.routine
	}
	m.rebuildWeek()
	m.syncReminder()
	return m.loadSummary()
}

// adoptServerLocation rekeys the log when the server reports a zone other
// than the one the model was built with.
func (m *Model) adoptServerLocation() {
	loc := m.api.Location()
	if loc == nil || loc.String() == m.log.Normalizer().Location().String() {
		return
	}
	logger.Debug("Using server timezone", "timezone", loc.String())
	m.log = completion.NewLog(loc)
}

func (m *Model) setRoutines(rs []models.Routine) {
	m.routines = rs
	m.list.SetRoutines(rs)
	if m.routineIndex(m.selectedID) < 0 {
		m.selectedID = ""
		if len(rs) > 0 {
			m.selectedID = rs[0].ID
		}
	}
	m.rebuildWeek()
	m.syncReminder()
}

func (m *Model) resize() {
	m.help.Width = m.width
	m.list.SetSize(m.width-4, m.height-6)
	m.trend.SetSize(m.width, m.height-4)
}
