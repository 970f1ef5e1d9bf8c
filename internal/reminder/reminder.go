// Package reminder notifies about tasks whose start time has arrived.
package reminder

import (
	"context"
	"fmt"
	"regexp"
	"sync"
	"time"

	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/gate"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/notifier"
)

var urgentPattern = regexp.MustCompile(`(?i)wake\s*up|alarm`)

// Source reloads routines before each check.
type Source func(ctx context.Context) ([]models.Routine, error)

// Service checks the cached routines on a fixed cadence. Each task is
// notified at most once per day. Missed ticks are not caught up.
type Service struct {
	notifier notifier.Notifier
	now      func() time.Time
	loc      *time.Location
	interval time.Duration
	window   int
	source   Source

	mu       sync.Mutex
	routines []models.Routine
	notified map[string]daykey.Key
	enabled  bool
	cancel   context.CancelFunc
	done     chan struct{}
}

type Option func(*Service)

func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

func WithLocation(loc *time.Location) Option {
	return func(s *Service) { s.loc = loc }
}

func WithInterval(d time.Duration) Option {
	return func(s *Service) {
		if d > 0 {
			s.interval = d
		}
	}
}

// WithWindow sets how many minutes either side of a start time count as
// due.
func WithWindow(minutes int) Option {
	return func(s *Service) {
		if minutes >= 0 {
			s.window = minutes
		}
	}
}

func WithSource(src Source) Option {
	return func(s *Service) { s.source = src }
}

// New returns an enabled, stopped service.
func New(n notifier.Notifier, opts ...Option) *Service {
	s := &Service{
		notifier: n,
		now:      time.Now,
		loc:      time.Local,
		interval: constants.DefaultReminderInterval,
		window:   constants.DefaultReminderWindowMin,
		notified: make(map[string]daykey.Key),
		enabled:  true,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SetRoutines replaces the cached routines.
func (s *Service) SetRoutines(routines []models.Routine) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.routines = routines
}

func (s *Service) Enable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = true
}

// Disable suppresses notifications until Enable; the loop keeps running.
func (s *Service) Disable() {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.enabled = false
}

func (s *Service) Enabled() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.enabled
}

// Running reports whether the check loop is active.
func (s *Service) Running() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.cancel != nil
}

// Start purges keys from previous days, checks once, then checks every
// interval until Stop or ctx is cancelled. Starting a running service is a
// no-op.
func (s *Service) Start(ctx context.Context) {
	s.mu.Lock()
	if s.cancel != nil {
		s.mu.Unlock()
		return
	}
	ctx, cancel := context.WithCancel(ctx)
	s.cancel = cancel
	s.done = make(chan struct{})
	s.purge(s.today())
	done := s.done
	s.mu.Unlock()

	s.Check(ctx)
	go s.loop(ctx, done)
}

// Stop cancels the loop and waits for it to exit.
func (s *Service) Stop() {
	s.mu.Lock()
	cancel, done := s.cancel, s.done
	s.cancel, s.done = nil, nil
	s.mu.Unlock()

	if cancel == nil {
		return
	}
	cancel()
	<-done
}

func (s *Service) loop(ctx context.Context, done chan struct{}) {
	defer close(done)
	ticker := time.NewTicker(s.interval)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			s.Check(ctx)
		}
	}
}

func (s *Service) today() daykey.Key {
	return daykey.NewNormalizer(s.loc).Today(s.now())
}

// purge drops notified keys that belong to other days. Callers hold mu.
func (s *Service) purge(today daykey.Key) {
	for key, day := range s.notified {
		if day != today {
			delete(s.notified, key)
		}
	}
}

// Check runs one pass and returns the notifications it delivered.
func (s *Service) Check(ctx context.Context) []notifier.Notification {
	if s.source != nil {
		routines, err := s.source(ctx)
		if err != nil {
			logger.Warn("Failed to reload routines for reminders", "error", err)
		} else {
			s.SetRoutines(routines)
		}
	}

	now := s.now().In(s.loc)
	log := completion.NewLog(s.loc)
	today := log.Normalizer().Today(now)

	s.mu.Lock()
	if !s.enabled {
		s.mu.Unlock()
		return nil
	}
	s.purge(today)
	routines := s.routines
	s.mu.Unlock()

	logger.Debug("Reminder check", "day", today, "routines", len(routines))

	var sent []notifier.Notification
	for _, r := range routines {
		for _, task := range r.Tasks {
			if !s.due(task, now) || log.IsCompletedOn(task, today) {
				continue
			}
			key := fmt.Sprintf("%s-%s-%s", r.ID, task.ID, today)
			if s.wasNotified(key) {
				continue
			}

			n := notificationFor(r, task)
			if err := s.notifier.Notify(ctx, n); err != nil {
				logger.Warn("Failed to deliver reminder", "routine", r.ID, "task", task.ID, "error", err)
				continue
			}
			s.markNotified(key, today)
			sent = append(sent, n)
		}
	}
	return sent
}

func (s *Service) due(task models.Task, now time.Time) bool {
	if task.StartTime == "" {
		return false
	}
	start, err := gate.MinutesOfDay(task.StartTime)
	if err != nil {
		return false
	}
	diff := gate.ClockMinutes(now) - start
	if diff < 0 {
		diff = -diff
	}
	return diff <= s.window
}

func (s *Service) wasNotified(key string) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	_, ok := s.notified[key]
	return ok
}

func (s *Service) markNotified(key string, day daykey.Key) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.notified[key] = day
}

func notificationFor(r models.Routine, task models.Task) notifier.Notification {
	body := fmt.Sprintf("%s - %s", r.Title, task.StartTime)
	if task.HasEndTime() {
		body += " to " + task.EndTime
	}
	return notifier.Notification{
		Title:  "Time for: " + task.Name,
		Body:   body,
		Urgent: urgentPattern.MatchString(task.Name),
	}
}
