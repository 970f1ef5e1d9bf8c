package routines

import (
	"context"
	goerrors "errors"
	"fmt"
	"path/filepath"
	"testing"
	"time"

	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage/sqlite"
)

type fixture struct {
	svc    *Service
	store  *sqlite.Store
	now    time.Time
	caller Caller
}

func setupService(t *testing.T) *fixture {
	t.Helper()
	ctx := context.Background()

	store := sqlite.NewStore(filepath.Join(t.TempDir(), "test.db"))
	if err := store.Init(ctx); err != nil {
		t.Fatalf("failed to init store: %v", err)
	}
	t.Cleanup(func() { store.Close() })

	for _, id := range []string{"alice", "bob"} {
		u := models.User{ID: id, Name: id, TokenHash: "hash-" + id, CreatedAt: time.Now()}
		if err := store.AddUser(ctx, u); err != nil {
			t.Fatalf("AddUser(%s): %v", id, err)
		}
	}

	f := &fixture{
		store:  store,
		now:    time.Date(2024, 3, 13, 6, 0, 0, 0, time.UTC),
		caller: Caller{UserID: "alice", Location: time.UTC},
	}
	seq := 0
	f.svc = New(store,
		WithClock(func() time.Time { return f.now }),
		WithIDGenerator(func() string {
			seq++
			return fmt.Sprintf("id-%d", seq)
		}),
	)
	return f
}

func (f *fixture) at(hour, min int) {
	f.now = time.Date(f.now.Year(), f.now.Month(), f.now.Day(), hour, min, 0, 0, time.UTC)
}

func morning() CreateInput {
	return CreateInput{
		Title: "Morning",
		Tasks: []TaskInput{{Name: "Stretch", StartTime: "07:00", EndTime: "07:15"}},
	}
}

func TestCompleteEndToEnd(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	r, err := f.svc.Create(ctx, f.caller, morning())
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	taskID := r.Tasks[0].ID
	today := "2024-03-13"

	f.at(6, 59)
	_, err = f.svc.Complete(ctx, f.caller, r.ID, taskID, ToggleInput{Date: today})
	if !goerrors.Is(err, ErrNotActionable) {
		t.Fatalf("Complete at 06:59 error = %v, want ErrNotActionable", err)
	}
	if errors.KindOf(err) != errors.KindValidation {
		t.Errorf("kind = %v, want validation", errors.KindOf(err))
	}

	f.at(7, 15)
	r, err = f.svc.Complete(ctx, f.caller, r.ID, taskID, ToggleInput{Date: today})
	if err != nil {
		t.Fatalf("Complete at 07:15: %v", err)
	}
	if n := len(r.Tasks[0].CompletedDates); n != 1 {
		t.Fatalf("completed dates = %d, want 1", n)
	}
	log := completion.NewLog(time.UTC)
	if !log.IsCompletedOn(r.Tasks[0], "2024-03-13") {
		t.Error("entry is not keyed to today")
	}

	// Completing again is a silent no-op.
	r, err = f.svc.Complete(ctx, f.caller, r.ID, taskID, ToggleInput{Date: today})
	if err != nil || len(r.Tasks[0].CompletedDates) != 1 {
		t.Fatalf("second Complete = %d entries, %v", len(r.Tasks[0].CompletedDates), err)
	}

	r, err = f.svc.Uncomplete(ctx, f.caller, r.ID, taskID, ToggleInput{Date: today})
	if err != nil {
		t.Fatalf("Uncomplete: %v", err)
	}
	if n := len(r.Tasks[0].CompletedDates); n != 0 {
		t.Errorf("completed dates after uncomplete = %d, want 0", n)
	}

	stored, _ := f.store.GetRoutine(ctx, r.ID)
	if len(stored.Tasks[0].CompletedDates) != 0 {
		t.Errorf("stored history = %v", stored.Tasks[0].CompletedDates)
	}
}

func TestCompleteDefaultsToToday(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	r, _ := f.svc.Create(ctx, f.caller, morning())

	f.at(8, 0)
	r, err := f.svc.Complete(ctx, f.caller, r.ID, r.Tasks[0].ID, ToggleInput{})
	if err != nil {
		t.Fatalf("Complete: %v", err)
	}
	if !completion.NewLog(time.UTC).IsCompletedOn(r.Tasks[0], "2024-03-13") {
		t.Error("empty date should mean today")
	}
}

func TestTogglePolicies(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	r, _ := f.svc.Create(ctx, f.caller, morning())
	taskID := r.Tasks[0].ID
	f.at(12, 0)

	tests := []struct {
		name    string
		in      ToggleInput
		wantOK  bool
		wantErr error
	}{
		{"strict past day", ToggleInput{Date: "2024-03-12"}, false, ErrNotActionable},
		{"strict future day", ToggleInput{Date: "2024-03-14", Mode: constants.GatePolicyStrict}, false, ErrNotActionable},
		{"permissive past day", ToggleInput{Date: "2024-03-12", Mode: constants.GatePolicyPermissive}, true, nil},
		{"unknown mode", ToggleInput{Date: "2024-03-13", Mode: "lenient"}, false, nil},
		{"bad date", ToggleInput{Date: "13/03/2024"}, false, nil},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := f.svc.Complete(ctx, f.caller, r.ID, taskID, tt.in)
			if tt.wantOK {
				if err != nil {
					t.Errorf("unexpected error: %v", err)
				}
				return
			}
			if errors.KindOf(err) != errors.KindValidation {
				t.Errorf("kind = %v (%v), want validation", errors.KindOf(err), err)
			}
			if tt.wantErr != nil && !goerrors.Is(err, tt.wantErr) {
				t.Errorf("error = %v, want %v", err, tt.wantErr)
			}
		})
	}
}

func TestDefaultPolicyFromSettings(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	settings := models.DefaultSettings()
	settings.DefaultGatePolicy = constants.GatePolicyPermissive
	if err := f.store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}

	r, _ := f.svc.Create(ctx, f.caller, morning())
	if _, err := f.svc.Complete(ctx, f.caller, r.ID, r.Tasks[0].ID, ToggleInput{Date: "2024-01-01"}); err != nil {
		t.Errorf("permissive default should allow any day: %v", err)
	}
}

func TestOwnershipAndNotFound(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	r, _ := f.svc.Create(ctx, f.caller, morning())
	bob := Caller{UserID: "bob", Location: time.UTC}

	if _, err := f.svc.Get(ctx, bob, r.ID); errors.KindOf(err) != errors.KindUnauthorized {
		t.Errorf("Get by non-owner kind = %v", errors.KindOf(err))
	}
	if err := f.svc.Delete(ctx, bob, r.ID); errors.KindOf(err) != errors.KindUnauthorized {
		t.Errorf("Delete by non-owner kind = %v", errors.KindOf(err))
	}
	if _, err := f.svc.Complete(ctx, bob, r.ID, r.Tasks[0].ID, ToggleInput{}); errors.KindOf(err) != errors.KindUnauthorized {
		t.Errorf("Complete by non-owner kind = %v", errors.KindOf(err))
	}
	if _, err := f.svc.Get(ctx, f.caller, "missing"); errors.KindOf(err) != errors.KindNotFound {
		t.Errorf("Get(missing) kind = %v", errors.KindOf(err))
	}
	if _, err := f.svc.Complete(ctx, f.caller, r.ID, "missing", ToggleInput{}); errors.KindOf(err) != errors.KindNotFound {
		t.Errorf("Complete(missing task) kind = %v", errors.KindOf(err))
	}

	list, err := f.svc.List(ctx, bob)
	if err != nil || len(list) != 0 {
		t.Errorf("bob's list = %v, %v", list, err)
	}

	if err := f.svc.Delete(ctx, f.caller, r.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if _, err := f.svc.Get(ctx, f.caller, r.ID); errors.KindOf(err) != errors.KindNotFound {
		t.Errorf("Get after delete kind = %v", errors.KindOf(err))
	}
}

func TestCreateValidation(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	tests := []struct {
		name string
		in   CreateInput
	}{
		{"missing title", CreateInput{Tasks: []TaskInput{{Name: "a", StartTime: "07:00"}}}},
		{"malformed time", CreateInput{Title: "x", Tasks: []TaskInput{{Name: "a", StartTime: "7am"}}}},
		{"end before start", CreateInput{Title: "x", Tasks: []TaskInput{{Name: "a", StartTime: "07:00", EndTime: "06:00"}}}},
		{"bad history", CreateInput{Title: "x", Tasks: []TaskInput{{Name: "a", StartTime: "07:00", CompletedDates: &[]string{"yesterday"}}}}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := f.svc.Create(ctx, f.caller, tt.in); errors.KindOf(err) != errors.KindValidation {
				t.Errorf("Create kind = %v (%v), want validation", errors.KindOf(err), err)
			}
		})
	}
}

func TestCreateDeduplicatesHistory(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	in := morning()
	in.Tasks[0].CompletedDates = &[]string{"2024-03-01", "2024-03-01T18:00:00Z", "2024-03-02"}

	r, err := f.svc.Create(ctx, f.caller, in)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}
	if n := len(r.Tasks[0].CompletedDates); n != 2 {
		t.Errorf("history = %d entries, want 2", n)
	}
}

func TestListNewestFirst(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	for i, title := range []string{"first", "second", "third"} {
		f.now = time.Date(2024, 3, 13, 6, i, 0, 0, time.UTC)
		in := morning()
		in.Title = title
		if _, err := f.svc.Create(ctx, f.caller, in); err != nil {
			t.Fatalf("Create(%s): %v", title, err)
		}
	}
	list, err := f.svc.List(ctx, f.caller)
	if err != nil {
		t.Fatalf("List: %v", err)
	}
	if len(list) != 3 || list[0].Title != "third" || list[2].Title != "first" {
		t.Errorf("order = %v", []string{list[0].Title, list[1].Title, list[2].Title})
	}
}

func TestUpdateMergesAndPersists(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	in := morning()
	in.Tasks = append(in.Tasks, TaskInput{Name: "Read", StartTime: "21:00"})
	r, _ := f.svc.Create(ctx, f.caller, in)

	f.at(7, 20)
	r, _ = f.svc.Complete(ctx, f.caller, r.ID, r.Tasks[0].ID, ToggleInput{})

	title := "Mornings"
	tasks := []TaskInput{
		{ID: r.Tasks[0].ID, Name: "Stretch", StartTime: "07:00", EndTime: "07:15"},
		{Name: "Journal", StartTime: "22:00"},
	}
	updated, err := f.svc.Update(ctx, f.caller, r.ID, UpdateInput{Title: &title, Tasks: &tasks})
	if err != nil {
		t.Fatalf("Update: %v", err)
	}
	if updated.Title != "Mornings" || len(updated.Tasks) != 2 {
		t.Fatalf("updated = %+v", updated)
	}
	if len(updated.Tasks[0].CompletedDates) != 1 {
		t.Errorf("kept task lost history: %v", updated.Tasks[0].CompletedDates)
	}
	if updated.Tasks[1].ID == r.Tasks[1].ID {
		t.Error("new task reused a dropped task's id")
	}

	stored, _ := f.store.GetRoutine(ctx, r.ID)
	if stored.Title != "Mornings" || len(stored.Tasks) != 2 || stored.Tasks[1].Name != "Journal" {
		t.Errorf("stored = %+v", stored)
	}
}

func TestUpdateScheduleLock(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	in := morning()
	in.Tasks = append(in.Tasks, TaskInput{Name: "Read", StartTime: "21:00"})
	r, _ := f.svc.Create(ctx, f.caller, in)
	f.at(8, 0)

	renamed := []TaskInput{
		{ID: r.Tasks[0].ID, Name: "Yoga", StartTime: "07:00", EndTime: "07:15"},
		{ID: r.Tasks[1].ID, Name: "Read", StartTime: "21:00"},
	}
	_, err := f.svc.Update(ctx, f.caller, r.ID, UpdateInput{Tasks: &renamed})
	if !goerrors.Is(err, ErrScheduleLocked) {
		t.Fatalf("renaming a started task error = %v, want ErrScheduleLocked", err)
	}

	later := []TaskInput{
		{ID: r.Tasks[0].ID, Name: "Stretch", StartTime: "07:00", EndTime: "07:15"},
		{ID: r.Tasks[1].ID, Name: "Read a book", StartTime: "21:30"},
	}
	if _, err := f.svc.Update(ctx, f.caller, r.ID, UpdateInput{Tasks: &later}); err != nil {
		t.Errorf("editing a task that has not started: %v", err)
	}

	dropped := []TaskInput{{ID: r.Tasks[1].ID, Name: "Read a book", StartTime: "21:30"}}
	_, err = f.svc.Update(ctx, f.caller, r.ID, UpdateInput{Tasks: &dropped})
	if !goerrors.Is(err, ErrScheduleLocked) {
		t.Fatalf("dropping a started task error = %v, want ErrScheduleLocked", err)
	}
	stored, _ := f.store.GetRoutine(ctx, r.ID)
	if idx := stored.FindTask(r.Tasks[0].ID); idx < 0 {
		t.Error("rejected update still removed the started task")
	}

	unstarted := []TaskInput{{ID: r.Tasks[0].ID, Name: "Stretch", StartTime: "07:00", EndTime: "07:15"}}
	if _, err := f.svc.Update(ctx, f.caller, r.ID, UpdateInput{Tasks: &unstarted}); err != nil {
		t.Errorf("dropping a task that has not started: %v", err)
	}
}

func TestMergePreservesHistory(t *testing.T) {
	d := func(day int) time.Time { return time.Date(2024, 3, day, 0, 0, 0, 0, time.UTC) }
	existing := models.Routine{ID: "r1", Title: "Morning", Tasks: []models.Task{
		{ID: "t1", Name: "Stretch", StartTime: "21:00", CompletedDates: []time.Time{d(1), d(2), d(3)}},
		{ID: "t2", Name: "Walk", StartTime: "22:00", CompletedDates: []time.Time{d(1)}},
	}}
	log := completion.NewLog(time.UTC)
	now := time.Date(2024, 3, 13, 8, 0, 0, 0, time.UTC)
	newID := func() string { return "fresh" }

	tasks := []TaskInput{{ID: "t1", Name: "Long stretch", StartTime: "21:00"}}
	merged, err := Merge(existing, UpdateInput{Tasks: &tasks}, log, now, newID)
	if err != nil {
		t.Fatalf("Merge: %v", err)
	}
	if len(merged.Tasks) != 1 || merged.Tasks[0].Name != "Long stretch" {
		t.Fatalf("merged tasks = %+v", merged.Tasks)
	}
	got := merged.Tasks[0].CompletedDates
	if len(got) != 3 || !got[0].Equal(d(1)) || !got[2].Equal(d(3)) {
		t.Errorf("history = %v, want the original 3 entries", got)
	}
	if merged.Title != "Morning" {
		t.Errorf("title changed without input: %q", merged.Title)
	}

	// The input routine is untouched.
	merged.Tasks[0].CompletedDates[0] = d(9)
	if !existing.Tasks[0].CompletedDates[0].Equal(d(1)) || existing.Tasks[0].Name != "Stretch" {
		t.Error("Merge modified the existing routine")
	}

	explicit := []TaskInput{
		{ID: "t1", Name: "Stretch", StartTime: "21:00", CompletedDates: &[]string{}},
		{ID: "unknown", Name: "Sleep", StartTime: "23:00"},
	}
	merged, err = Merge(existing, UpdateInput{Tasks: &explicit}, log, now, newID)
	if err != nil {
		t.Fatalf("Merge explicit: %v", err)
	}
	if len(merged.Tasks[0].CompletedDates) != 0 {
		t.Errorf("explicit empty history not applied: %v", merged.Tasks[0].CompletedDates)
	}
	if merged.Tasks[1].ID != "fresh" || len(merged.Tasks[1].CompletedDates) != 0 {
		t.Errorf("unknown id should become a new task: %+v", merged.Tasks[1])
	}

	untouched, err := Merge(existing, UpdateInput{}, log, now, newID)
	if err != nil || len(untouched.Tasks) != 2 {
		t.Errorf("nil tasks should keep the list: %+v, %v", untouched.Tasks, err)
	}
}

func TestLocationFallsBackToSetting(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()

	settings := models.DefaultSettings()
	settings.Timezone = "Asia/Tokyo"
	if err := f.store.SaveSettings(ctx, settings); err != nil {
		t.Fatalf("SaveSettings: %v", err)
	}
	loc := f.svc.Location(ctx, Caller{UserID: "alice"})
	if loc.String() != "Asia/Tokyo" {
		t.Errorf("Location = %s, want Asia/Tokyo", loc)
	}
	if got := f.svc.Location(ctx, f.caller); got != time.UTC {
		t.Errorf("caller location ignored: %s", got)
	}
}

func TestWeekAndSummary(t *testing.T) {
	f := setupService(t)
	ctx := context.Background()
	r, _ := f.svc.Create(ctx, f.caller, morning())
	f.at(9, 0)
	if _, err := f.svc.Complete(ctx, f.caller, r.ID, r.Tasks[0].ID, ToggleInput{}); err != nil {
		t.Fatalf("Complete: %v", err)
	}

	week, err := f.svc.Week(ctx, f.caller, r.ID, "", "")
	if err != nil {
		t.Fatalf("Week: %v", err)
	}
	if week.Days[0] != "2024-03-11" || week.Policy != constants.GatePolicyStrict {
		t.Errorf("week = %+v", week)
	}
	if !week.Rows[0].Cells[2].Completed || !week.Rows[0].Cells[2].Actionable {
		t.Errorf("wednesday cell = %+v", week.Rows[0].Cells[2])
	}

	summary, err := f.svc.Summary(ctx, f.caller)
	if err != nil {
		t.Fatalf("Summary: %v", err)
	}
	if summary.TodayProgress.Percentage != 100 || summary.TotalRoutines != 1 {
		t.Errorf("summary = %+v", summary)
	}
}
