// Package routines implements routine management on top of a storage
// provider: ownership checks, the update merge rule, and completion toggles
// guarded by an actionability policy.
package routines

import (
	"context"
	goerrors "errors"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/gate"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/stats"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/validation"
)

var (
	// ErrNotActionable marks a toggle rejected by the actionability policy.
	ErrNotActionable = goerrors.New("task is not actionable")
	// ErrScheduleLocked marks an edit to a task whose start time has passed.
	ErrScheduleLocked = goerrors.New("task schedule is locked")
)

// Caller identifies who is acting and in which location day keys are
// computed. A nil Location falls back to the server timezone setting.
type Caller struct {
	UserID   string
	Location *time.Location
}

type Service struct {
	store     storage.Provider
	validator *validation.Validator
	now       func() time.Time
	newID     func() string

	// mu serializes read-modify-write cycles within this process.
	mu sync.Mutex
}

type Option func(*Service)

// WithClock replaces time.Now.
func WithClock(now func() time.Time) Option {
	return func(s *Service) { s.now = now }
}

// WithIDGenerator replaces uuid.NewString.
func WithIDGenerator(newID func() string) Option {
	return func(s *Service) { s.newID = newID }
}

func New(store storage.Provider, opts ...Option) *Service {
	s := &Service{
		store:     store,
		validator: validation.New(),
		now:       time.Now,
		newID:     uuid.NewString,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// TaskInput is a task as submitted by a client. A nil CompletedDates means
// the field was absent.
type TaskInput struct {
	ID             string    `json:"id,omitempty" yaml:"id,omitempty"`
	Name           string    `json:"name" yaml:"name"`
	StartTime      string    `json:"startTime" yaml:"startTime"`
	EndTime        string    `json:"endTime,omitempty" yaml:"endTime,omitempty"`
	CompletedDates *[]string `json:"completedDates,omitempty" yaml:"completedDates,omitempty"`
}

type CreateInput struct {
	Title string      `json:"title"`
	Tasks []TaskInput `json:"tasks"`
}

// UpdateInput carries a partial update; nil fields are left unchanged.
type UpdateInput struct {
	Title *string      `json:"title,omitempty"`
	Tasks *[]TaskInput `json:"tasks,omitempty"`
}

// ToggleInput selects the day and policy of a completion toggle. Empty
// values mean today and the server's default policy.
type ToggleInput struct {
	Date string `json:"date"`
	Mode string `json:"mode,omitempty"`
}

// Settings returns the stored server settings, or defaults when none are
// stored.
func (s *Service) Settings(ctx context.Context) models.Settings {
	settings, err := s.store.GetSettings(ctx)
	if err != nil {
		if !goerrors.Is(err, storage.ErrNotFound) {
			logger.Warn("Failed to read settings, using defaults", "error", err)
		}
		return models.DefaultSettings()
	}
	return settings
}

// Location resolves the zone day keys are computed in for caller.
func (s *Service) Location(ctx context.Context, caller Caller) *time.Location {
	if caller.Location != nil {
		return caller.Location
	}
	loc, err := daykey.LoadLocation(s.Settings(ctx).Timezone)
	if err != nil {
		logger.Warn("Invalid timezone setting, using local time", "error", err)
		return time.Local
	}
	return loc
}

func (s *Service) List(ctx context.Context, caller Caller) ([]models.Routine, error) {
	routines, err := s.store.ListRoutines(ctx, caller.UserID)
	if err != nil {
		return nil, errors.Internal("list routines", err)
	}
	if routines == nil {
		routines = []models.Routine{}
	}
	return routines, nil
}

// Get loads a routine the caller owns.
func (s *Service) Get(ctx context.Context, caller Caller, id string) (models.Routine, error) {
	r, err := s.store.GetRoutine(ctx, id)
	if err != nil {
		if goerrors.Is(err, storage.ErrNotFound) {
			return models.Routine{}, errors.NotFound("routine %s not found", id)
		}
		return models.Routine{}, errors.Internal("get routine", err)
	}
	if !r.OwnedBy(caller.UserID) {
		return models.Routine{}, errors.Unauthorized("routine %s belongs to another user", id)
	}
	return r, nil
}

func (s *Service) Create(ctx context.Context, caller Caller, in CreateInput) (models.Routine, error) {
	log := completion.NewLog(s.Location(ctx, caller))
	now := s.now()

	r := models.Routine{
		ID:        s.newID(),
		OwnerID:   caller.UserID,
		Title:     in.Title,
		Tasks:     make([]models.Task, 0, len(in.Tasks)),
		CreatedAt: now,
		UpdatedAt: now,
	}
	for _, ti := range in.Tasks {
		task := models.Task{
			ID:             s.newID(),
			Name:           ti.Name,
			StartTime:      ti.StartTime,
			EndTime:        ti.EndTime,
			CompletedDates: []time.Time{},
		}
		if ti.CompletedDates != nil {
			if err := setHistory(log, &task, *ti.CompletedDates); err != nil {
				return models.Routine{}, err
			}
		}
		r.Tasks = append(r.Tasks, task)
	}

	result := s.validator.ValidateRoutine(r)
	if err := result.Err(); err != nil {
		return models.Routine{}, err
	}

	if err := s.store.AddRoutine(ctx, r); err != nil {
		return models.Routine{}, errors.Internal("create routine", err)
	}
	logger.Info("Routine created", "routine", r.ID, "owner", r.OwnerID, "tasks", len(r.Tasks))
	return r, nil
}

func (s *Service) Update(ctx context.Context, caller Caller, id string, in UpdateInput) (models.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	existing, err := s.Get(ctx, caller, id)
	if err != nil {
		return models.Routine{}, err
	}

	loc := s.Location(ctx, caller)
	now := s.now().In(loc)
	merged, err := Merge(existing, in, completion.NewLog(loc), now, s.newID)
	if err != nil {
		return models.Routine{}, err
	}

	result := s.validator.ValidateRoutine(merged)
	if err := result.Err(); err != nil {
		return models.Routine{}, err
	}

	merged.UpdatedAt = s.now()
	if err := s.store.UpdateRoutine(ctx, merged); err != nil {
		return models.Routine{}, errors.Internal("update routine", err)
	}
	logger.Info("Routine updated", "routine", merged.ID, "tasks", len(merged.Tasks))
	return merged, nil
}

func (s *Service) Delete(ctx context.Context, caller Caller, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, err := s.Get(ctx, caller, id); err != nil {
		return err
	}
	if err := s.store.DeleteRoutine(ctx, id); err != nil {
		if goerrors.Is(err, storage.ErrNotFound) {
			return errors.NotFound("routine %s not found", id)
		}
		return errors.Internal("delete routine", err)
	}
	logger.Info("Routine deleted", "routine", id)
	return nil
}

// Complete records taskID as done on the requested day. Completing an
// already-completed day returns the routine unchanged.
func (s *Service) Complete(ctx context.Context, caller Caller, routineID, taskID string, in ToggleInput) (models.Routine, error) {
	return s.toggle(ctx, caller, routineID, taskID, in, true)
}

// Uncomplete removes every entry of taskID on the requested day.
func (s *Service) Uncomplete(ctx context.Context, caller Caller, routineID, taskID string, in ToggleInput) (models.Routine, error) {
	return s.toggle(ctx, caller, routineID, taskID, in, false)
}

func (s *Service) toggle(ctx context.Context, caller Caller, routineID, taskID string, in ToggleInput, complete bool) (models.Routine, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, err := s.Get(ctx, caller, routineID)
	if err != nil {
		return models.Routine{}, err
	}
	idx := r.FindTask(taskID)
	if idx < 0 {
		return models.Routine{}, errors.NotFound("task %s not found in routine %s", taskID, routineID)
	}

	policy, err := s.Policy(ctx, in.Mode)
	if err != nil {
		return models.Routine{}, err
	}

	loc := s.Location(ctx, caller)
	log := completion.NewLog(loc)
	now := s.now().In(loc)

	day, err := ResolveDay(log.Normalizer(), in.Date, now)
	if err != nil {
		return models.Routine{}, err
	}
	target, err := log.Normalizer().Midnight(day)
	if err != nil {
		return models.Routine{}, errors.Validation("invalid date %q", in.Date)
	}

	task := &r.Tasks[idx]
	if !policy.Actionable(*task, target, now) {
		return models.Routine{}, errors.ValidationWrap(ErrNotActionable,
			"task %q is not actionable on %s under the %s policy", task.Name, day, policy.Name())
	}

	var changed bool
	if complete {
		changed, err = log.MarkComplete(task, day)
		if err != nil {
			return models.Routine{}, errors.Validation("invalid date %q", in.Date)
		}
	} else {
		changed = log.MarkIncomplete(task, day)
	}
	if !changed {
		return r, nil
	}

	r.UpdatedAt = s.now()
	if err := s.store.UpdateRoutine(ctx, r); err != nil {
		return models.Routine{}, errors.Internal("save completion", err)
	}
	logger.Debug("Task toggled", "routine", routineID, "task", taskID, "day", day, "complete", complete)
	return r, nil
}

// Policy resolves a policy name against the server default.
func (s *Service) Policy(ctx context.Context, mode string) (gate.Policy, error) {
	policy, err := gate.ByName(mode, s.Settings(ctx).DefaultGatePolicy)
	if err != nil {
		return nil, errors.Validation("%v", err)
	}
	return policy, nil
}

// ResolveDay normalizes a requested date, defaulting to now's day.
func ResolveDay(norm daykey.Normalizer, date string, now time.Time) (daykey.Key, error) {
	if date == "" {
		return norm.Today(now), nil
	}
	day, err := norm.Normalize(date)
	if err != nil {
		return "", errors.Validation("invalid date %q (expected YYYY-MM-DD)", date)
	}
	return day, nil
}

// Week returns the Monday-start grid of the week containing date.
func (s *Service) Week(ctx context.Context, caller Caller, id, date, mode string) (stats.Week, error) {
	r, err := s.Get(ctx, caller, id)
	if err != nil {
		return stats.Week{}, err
	}
	policy, err := s.Policy(ctx, mode)
	if err != nil {
		return stats.Week{}, err
	}

	loc := s.Location(ctx, caller)
	log := completion.NewLog(loc)
	now := s.now().In(loc)

	day, err := ResolveDay(log.Normalizer(), date, now)
	if err != nil {
		return stats.Week{}, err
	}
	pivot, err := log.Normalizer().Midnight(day)
	if err != nil {
		return stats.Week{}, errors.Validation("invalid date %q", date)
	}
	return stats.BuildWeek(log, r, pivot, now, policy)
}

// Summary aggregates all of the caller's routines over the trailing week.
func (s *Service) Summary(ctx context.Context, caller Caller) (stats.Summary, error) {
	routines, err := s.List(ctx, caller)
	if err != nil {
		return stats.Summary{}, err
	}
	loc := s.Location(ctx, caller)
	return stats.Summarize(completion.NewLog(loc), routines, s.now().In(loc)), nil
}
