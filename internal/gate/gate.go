// Package gate decides when a task's completion may be toggled and when its
// schedule may still be edited.
package gate

import (
	"fmt"
	"time"

	"github.com/julianstephens/routinely/internal/constants"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/models"
)

// Policy decides whether toggling task on target is allowed at now. target
// and now are compared in now's location.
type Policy interface {
	Name() string
	Actionable(task models.Task, target, now time.Time) bool
}

// Strict allows a toggle only for today, and only once the task's window
// has elapsed: at or after endTime when set, else at or after startTime.
type Strict struct{}

func (Strict) Name() string { return constants.GatePolicyStrict }

func (Strict) Actionable(task models.Task, target, now time.Time) bool {
	norm := daykey.NewNormalizer(now.Location())
	if norm.FromTime(target) != norm.FromTime(now) {
		return false
	}

	due := task.StartTime
	if task.HasEndTime() {
		due = task.EndTime
	}
	if due == "" {
		return true
	}

	dueMin, err := MinutesOfDay(due)
	if err != nil {
		return false
	}
	return ClockMinutes(now) >= dueMin
}

// Permissive allows toggling any day at any time.
type Permissive struct{}

func (Permissive) Name() string { return constants.GatePolicyPermissive }

func (Permissive) Actionable(models.Task, time.Time, time.Time) bool { return true }

// ByName resolves a policy name. An empty name yields fallback.
func ByName(name, fallback string) (Policy, error) {
	if name == "" {
		name = fallback
	}
	switch name {
	case constants.GatePolicyStrict:
		return Strict{}, nil
	case constants.GatePolicyPermissive:
		return Permissive{}, nil
	default:
		return nil, fmt.Errorf("unknown gate policy %q (expected %s or %s)",
			name, constants.GatePolicyStrict, constants.GatePolicyPermissive)
	}
}

// ScheduleLocked reports whether task's name and times are frozen at now:
// once the clock reaches startTime, the schedule stays read-only for the
// rest of the day.
func ScheduleLocked(task models.Task, now time.Time) bool {
	if task.StartTime == "" {
		return false
	}
	startMin, err := MinutesOfDay(task.StartTime)
	if err != nil {
		return false
	}
	return ClockMinutes(now) >= startMin
}

// MinutesOfDay parses HH:MM into minutes since midnight.
func MinutesOfDay(hhmm string) (int, error) {
	t, err := time.Parse(constants.TimeFormat, hhmm)
	if err != nil {
		return 0, fmt.Errorf("invalid time %q (expected HH:MM): %w", hhmm, err)
	}
	return t.Hour()*60 + t.Minute(), nil
}

// ClockMinutes returns the minutes since local midnight of t.
func ClockMinutes(t time.Time) int {
	return t.Hour()*60 + t.Minute()
}
