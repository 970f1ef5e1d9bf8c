package reminder

import (
	"context"
	goerrors "errors"
	"sync"
	"testing"
	"time"

	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/notifier"
)

type fakeNotifier struct {
	mu   sync.Mutex
	sent []notifier.Notification
	fail bool
}

func (f *fakeNotifier) Notify(_ context.Context, n notifier.Notification) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.fail {
		return goerrors.New("tray offline")
	}
	f.sent = append(f.sent, n)
	return nil
}

func (f *fakeNotifier) count() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.sent)
}

type clock struct {
	mu  sync.Mutex
	now time.Time
}

func (c *clock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *clock) set(t time.Time) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = t
}

func at(day, hour, min int) time.Time {
	return time.Date(2024, 3, day, hour, min, 0, 0, time.UTC)
}

func testRoutines() []models.Routine {
	return []models.Routine{{
		ID:    "r1",
		Title: "Morning",
		Tasks: []models.Task{
			{ID: "t1", Name: "Wake up", StartTime: "06:30"},
			{ID: "t2", Name: "Stretch", StartTime: "07:00", EndTime: "07:15"},
			{ID: "t3", Name: "Done already", StartTime: "07:00",
				CompletedDates: []time.Time{time.Date(2024, 3, 13, 0, 0, 0, 0, time.UTC)}},
			{ID: "t4", Name: "Unscheduled"},
		},
	}}
}

func newTestService(c *clock, n notifier.Notifier, opts ...Option) *Service {
	opts = append([]Option{WithClock(c.Now), WithLocation(time.UTC)}, opts...)
	s := New(n, opts...)
	s.SetRoutines(testRoutines())
	return s
}

func TestCheckWindow(t *testing.T) {
	tests := []struct {
		name      string
		now       time.Time
		wantTitle []string
	}{
		{name: "too early", now: at(13, 6, 28)},
		{name: "one minute before", now: at(13, 6, 29), wantTitle: []string{"Time for: Wake up"}},
		{name: "exact", now: at(13, 7, 0), wantTitle: []string{"Time for: Stretch"}},
		{name: "one minute after", now: at(13, 7, 1), wantTitle: []string{"Time for: Stretch"}},
		{name: "too late", now: at(13, 7, 2)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c := &clock{now: tt.now}
			s := newTestService(c, &fakeNotifier{})

			sent := s.Check(context.Background())
			if len(sent) != len(tt.wantTitle) {
				t.Fatalf("sent %d notifications (%+v), want %d", len(sent), sent, len(tt.wantTitle))
			}
			for i, title := range tt.wantTitle {
				if sent[i].Title != title {
					t.Errorf("sent[%d].Title = %q, want %q", i, sent[i].Title, title)
				}
			}
		})
	}
}

func TestCheckOncePerDay(t *testing.T) {
	c := &clock{now: at(13, 7, 0)}
	fn := &fakeNotifier{}
	s := newTestService(c, fn)
	ctx := context.Background()

	s.Check(ctx)
	c.set(at(13, 7, 1))
	s.Check(ctx)
	if fn.count() != 1 {
		t.Fatalf("notified %d times on the same day, want 1", fn.count())
	}

	c.set(at(14, 7, 0))
	s.Check(ctx)
	if fn.count() != 3 {
		t.Errorf("notified %d times after day change, want 3", fn.count())
	}
	if len(s.notified) != 2 {
		t.Errorf("notified keys = %v, want only today's", s.notified)
	}
}

func TestNotificationContent(t *testing.T) {
	c := &clock{now: at(13, 6, 30)}
	fn := &fakeNotifier{}
	s := newTestService(c, fn)

	sent := s.Check(context.Background())
	if len(sent) != 1 || !sent[0].Urgent || sent[0].Body != "Morning - 06:30" {
		t.Fatalf("sent = %+v", sent)
	}

	r := models.Routine{Title: "Morning"}
	n := notificationFor(r, models.Task{Name: "Stretch", StartTime: "07:00", EndTime: "07:15"})
	if n.Urgent || n.Body != "Morning - 07:00 to 07:15" {
		t.Errorf("notificationFor = %+v", n)
	}
	for _, name := range []string{"ALARM clock", "wakeup", "Wake   Up"} {
		if !notificationFor(r, models.Task{Name: name}).Urgent {
			t.Errorf("%q should be urgent", name)
		}
	}
}

func TestFailedDeliveryRetries(t *testing.T) {
	c := &clock{now: at(13, 7, 0)}
	fn := &fakeNotifier{fail: true}
	s := newTestService(c, fn)
	ctx := context.Background()

	if sent := s.Check(ctx); len(sent) != 0 {
		t.Fatalf("sent = %+v despite failure", sent)
	}
	fn.fail = false
	if sent := s.Check(ctx); len(sent) != 1 {
		t.Errorf("retry sent %d, want 1", len(sent))
	}
}

func TestEnableDisable(t *testing.T) {
	c := &clock{now: at(13, 7, 0)}
	fn := &fakeNotifier{}
	s := newTestService(c, fn)
	ctx := context.Background()

	s.Disable()
	if s.Enabled() || len(s.Check(ctx)) != 0 {
		t.Fatal("disabled service sent notifications")
	}
	s.Enable()
	if len(s.Check(ctx)) != 1 {
		t.Error("enabled service did not notify")
	}
}

func TestSource(t *testing.T) {
	c := &clock{now: at(13, 7, 0)}
	calls := 0
	src := func(context.Context) ([]models.Routine, error) {
		calls++
		if calls > 1 {
			return nil, goerrors.New("db down")
		}
		return testRoutines(), nil
	}
	s := New(&fakeNotifier{}, WithClock(c.Now), WithLocation(time.UTC), WithSource(src))
	ctx := context.Background()

	if len(s.Check(ctx)) != 1 {
		t.Fatal("source routines were not checked")
	}
	c.set(at(13, 6, 30))
	if len(s.Check(ctx)) != 1 {
		t.Error("failed reload should keep the cached routines")
	}
}

func TestStartStop(t *testing.T) {
	c := &clock{now: at(13, 7, 0)}
	fn := &fakeNotifier{}
	s := newTestService(c, fn, WithInterval(10*time.Millisecond))
	s.notified["old-key"] = "2024-03-12"

	s.Start(context.Background())
	s.Start(context.Background())
	if !s.Running() {
		t.Fatal("service not running after Start")
	}
	if fn.count() != 1 {
		t.Errorf("Start did not check immediately: %d notifications", fn.count())
	}

	c.set(at(13, 6, 30))
	deadline := time.Now().Add(time.Second)
	for fn.count() < 2 && time.Now().Before(deadline) {
		time.Sleep(5 * time.Millisecond)
	}
	if fn.count() != 2 {
		t.Errorf("ticker did not check: %d notifications", fn.count())
	}

	s.Stop()
	s.Stop()
	if s.Running() {
		t.Error("service still running after Stop")
	}
	if _, ok := s.notified["old-key"]; ok {
		t.Error("previous day key was not purged")
	}
}
