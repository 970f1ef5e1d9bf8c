package client

import (
	"context"
	goerrors "errors"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"github.com/gin-gonic/gin"

	"github.com/julianstephens/routinely/internal/api"
	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routines"
	"github.com/julianstephens/routinely/internal/storage/sqlite"
	"github.com/julianstephens/routinely/internal/todos"
	"github.com/julianstephens/routinely/internal/users"
)

// newAPI serves a real API over a temp database with the clock fixed at
// 2024-03-13 12:00 UTC and returns a client for a fresh user.
func newAPI(t *testing.T) *Client {
	t.Helper()
	c, _ := newAPIWithStore(t, WithTimezone("UTC"))
	return c
}

func newAPIWithStore(t *testing.T, opts ...Option) (*Client, *sqlite.Store) {
	t.Helper()
	gin.SetMode(gin.TestMode)
	ctx := context.Background()

	store := sqlite.NewStore(filepath.Join(t.TempDir(), "client.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	clock := func() time.Time { return time.Date(2024, 3, 13, 12, 0, 0, 0, time.UTC) }
	us := users.New(store)
	_, token, err := us.Create(ctx, "alice", "")
	if err != nil {
		t.Fatalf("create user: %v", err)
	}

	srv := api.NewServer(routines.New(store, routines.WithClock(clock)), todos.New(store, clock), us)
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)

	return New(ts.URL+"/api/", token, opts...), store
}

// stubLocalZone makes "Local" resolve to name for the rest of the test.
func stubLocalZone(t *testing.T, name string) {
	t.Helper()
	prev := resolveZone
	resolveZone = func(tz string) string {
		if tz == "" || tz == constants.LocalTimezone {
			return name
		}
		return tz
	}
	t.Cleanup(func() { resolveZone = prev })
}

func saveServerSettings(t *testing.T, store *sqlite.Store, timezone string) {
	t.Helper()
	settings := models.DefaultSettings()
	settings.Timezone = timezone
	settings.DefaultGatePolicy = constants.GatePolicyPermissive
	if err := store.SaveSettings(context.Background(), settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
}

func TestClientRoutines(t *testing.T) {
	c := newAPI(t)
	ctx := context.Background()

	r, err := c.CreateRoutine(ctx, routines.CreateInput{
		Title: "Morning",
		Tasks: []routines.TaskInput{{Name: "Stretch", StartTime: "07:00", EndTime: "07:15"}},
	})
	if err != nil {
		t.Fatalf("CreateRoutine: %v", err)
	}

	list, err := c.ListRoutines(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListRoutines = %v, %v", list, err)
	}

	got, err := c.Complete(ctx, r.ID, r.Tasks[0].ID, routines.ToggleInput{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if len(got.Tasks[0].CompletedDates) != 1 {
		t.Errorf("completedDates = %v", got.Tasks[0].CompletedDates)
	}

	week, err := c.Week(ctx, r.ID, "2024-03-13", constants.GatePolicyStrict)
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if !week.Rows[0].Cells[2].Completed {
		t.Error("wednesday cell not completed")
	}

	summary, err := c.Summary(ctx)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TodayProgress.Percentage != 100 {
		t.Errorf("today percentage = %d, want 100", summary.TodayProgress.Percentage)
	}

	title := "Evening"
	if _, err := c.UpdateRoutine(ctx, r.ID, routines.UpdateInput{Title: &title}); err != nil {
		t.Fatalf("UpdateRoutine: %v", err)
	}
	if err := c.DeleteRoutine(ctx, r.ID); err != nil {
		t.Fatalf("DeleteRoutine: %v", err)
	}

	_, err = c.GetRoutine(ctx, r.ID)
	var apiErr *APIError
	if !goerrors.As(err, &apiErr) || apiErr.StatusCode != http.StatusNotFound {
		t.Errorf("GetRoutine after delete err = %v, want 404", err)
	}
}

func TestClientNotActionable(t *testing.T) {
	c := newAPI(t)
	ctx := context.Background()

	r, err := c.CreateRoutine(ctx, routines.CreateInput{
		Title: "Night",
		Tasks: []routines.TaskInput{{Name: "Read", StartTime: "21:00"}},
	})
	if err != nil {
		t.Fatalf("CreateRoutine: %v", err)
	}

	_, err = c.Complete(ctx, r.ID, r.Tasks[0].ID, routines.ToggleInput{})
	var apiErr *APIError
	if !goerrors.As(err, &apiErr) || !apiErr.NotActionable() {
		t.Fatalf("Complete err = %v, want not actionable", err)
	}
	if apiErr.Message == "" {
		t.Error("APIError has no message")
	}
}

func TestClientTodos(t *testing.T) {
	c := newAPI(t)
	ctx := context.Background()

	text := "call mom"
	todo, err := c.CreateTodo(ctx, todos.Input{Text: &text})
	if err != nil {
		t.Fatalf("CreateTodo: %v", err)
	}
	done := true
	if todo, err = c.UpdateTodo(ctx, todo.ID, todos.Input{Completed: &done}); err != nil || !todo.Completed {
		t.Fatalf("UpdateTodo = %+v, %v", todo, err)
	}
	list, err := c.ListTodos(ctx)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListTodos = %v, %v", list, err)
	}
	if err := c.DeleteTodo(ctx, todo.ID); err != nil {
		t.Fatalf("DeleteTodo: %v", err)
	}
}

func TestClientHeaders(t *testing.T) {
	var gotAuth, gotZone string
	ts := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		gotAuth = r.Header.Get("Authorization")
		gotZone = r.Header.Get(constants.TimezoneHeader)
		w.Header().Set("Content-Type", "application/json")
		w.Write([]byte("[]"))
	}))
	defer ts.Close()

	tests := []struct {
		name     string
		timezone string
		local    string
		wantZone string
	}{
		{name: "named zone", timezone: "Europe/Paris", wantZone: "Europe/Paris"},
		{name: "local zone is sent by name", timezone: constants.LocalTimezone, local: "America/New_York", wantZone: "America/New_York"},
		{name: "unnamed local zone is not sent", timezone: constants.LocalTimezone, local: constants.LocalTimezone, wantZone: ""},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubLocalZone(t, tt.local)
			c := New(ts.URL, "secret", WithTimezone(tt.timezone))
			if _, err := c.ListTodos(context.Background()); err != nil {
				t.Fatalf("ListTodos: %v", err)
			}
			if gotAuth != "Bearer secret" {
				t.Errorf("Authorization = %q", gotAuth)
			}
			if gotZone != tt.wantZone {
				t.Errorf("X-Timezone = %q, want %q", gotZone, tt.wantZone)
			}
		})
	}
}

func TestClientLocalZoneKeysDays(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("tzdata unavailable: %v", err)
	}
	ctx := context.Background()

	tests := []struct {
		name       string
		local      string
		serverZone string
	}{
		{name: "local zone sent by name", local: "America/New_York", serverZone: "UTC"},
		{name: "server zone adopted", local: constants.LocalTimezone, serverZone: "America/New_York"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			stubLocalZone(t, tt.local)
			c, store := newAPIWithStore(t, WithTimezone(constants.LocalTimezone))
			saveServerSettings(t, store, tt.serverZone)

			r, err := c.CreateRoutine(ctx, routines.CreateInput{
				Title: "Morning",
				Tasks: []routines.TaskInput{{Name: "Stretch", StartTime: "07:00", EndTime: "07:15"}},
			})
			if err != nil {
				t.Fatalf("CreateRoutine: %v", err)
			}
			got, err := c.Complete(ctx, r.ID, r.Tasks[0].ID, routines.ToggleInput{Date: "2024-03-12"})
			if err != nil {
				t.Fatalf("Complete: %v", err)
			}

			if loc := c.Location(); loc == nil || loc.String() != ny.String() {
				t.Fatalf("Location() = %v, want %s", loc, ny)
			}
			log := completion.NewLog(c.Location())
			if !log.IsCompletedOn(got.Tasks[0], "2024-03-12") {
				t.Errorf("2024-03-12 not complete in New York: %v", got.Tasks[0].CompletedDates)
			}
			if log.IsCompletedOn(got.Tasks[0], "2024-03-11") {
				t.Errorf("completion landed on 2024-03-11: %v", got.Tasks[0].CompletedDates)
			}
		})
	}
}

func TestApplyToggleAndRevert(t *testing.T) {
	log := completion.NewLog(time.UTC)
	yesterday := time.Date(2024, 3, 12, 0, 0, 0, 0, time.UTC)
	r := models.Routine{ID: "r1", Tasks: []models.Task{{ID: "t1", CompletedDates: []time.Time{yesterday}}}}

	m, err := ApplyToggle(&r, "t1", "2024-03-13", log)
	if err != nil {
		t.Fatalf("ApplyToggle: %v", err)
	}
	if !m.Completed || len(r.Tasks[0].CompletedDates) != 2 {
		t.Fatalf("after toggle: mutation %+v, dates %v", m, r.Tasks[0].CompletedDates)
	}

	m.Revert(&r)
	if len(r.Tasks[0].CompletedDates) != 1 || !r.Tasks[0].CompletedDates[0].Equal(yesterday) {
		t.Errorf("after revert: %v", r.Tasks[0].CompletedDates)
	}

	m, err = ApplyToggle(&r, "t1", "2024-03-12", log)
	if err != nil {
		t.Fatalf("ApplyToggle: %v", err)
	}
	if m.Completed || len(r.Tasks[0].CompletedDates) != 0 {
		t.Errorf("uncomplete toggle: mutation %+v, dates %v", m, r.Tasks[0].CompletedDates)
	}

	if _, err := ApplyToggle(&r, "missing", "2024-03-12", log); err == nil {
		t.Error("expected error for unknown task")
	}
}
