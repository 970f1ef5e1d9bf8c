// Package completion maintains a task's per-day completion history.
//
// Identity of an entry is the calendar day it denotes in the log's
// location, never the stored instant. The log holds no persistence logic;
// callers save the enclosing routine after a mutation.
package completion

import (
	"time"

	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/models"
)

type Log struct {
	norm daykey.Normalizer
}

func NewLog(loc *time.Location) Log {
	return Log{norm: daykey.NewNormalizer(loc)}
}

// Normalizer exposes the key mapping the log compares with.
func (l Log) Normalizer() daykey.Normalizer {
	return l.norm
}

// IsCompletedOn reports whether any entry of task falls on day.
func (l Log) IsCompletedOn(task models.Task, day daykey.Key) bool {
	for _, d := range task.CompletedDates {
		if l.norm.FromTime(d) == day {
			return true
		}
	}
	return false
}

// MarkComplete appends an entry for day unless one already exists. It
// reports whether the task changed.
func (l Log) MarkComplete(task *models.Task, day daykey.Key) (bool, error) {
	if l.IsCompletedOn(*task, day) {
		return false, nil
	}
	midnight, err := l.norm.Midnight(day)
	if err != nil {
		return false, err
	}
	task.CompletedDates = append(task.CompletedDates, midnight)
	return true, nil
}

// MarkIncomplete removes every entry that falls on day, including
// duplicates written by paths that skipped MarkComplete. It reports whether
// the task changed.
func (l Log) MarkIncomplete(task *models.Task, day daykey.Key) bool {
	kept := task.CompletedDates[:0:0]
	for _, d := range task.CompletedDates {
		if l.norm.FromTime(d) != day {
			kept = append(kept, d)
		}
	}
	changed := len(kept) != len(task.CompletedDates)
	task.CompletedDates = kept
	return changed
}

// Toggle flips the state of day and returns the new state.
func (l Log) Toggle(task *models.Task, day daykey.Key) (bool, error) {
	if l.IsCompletedOn(*task, day) {
		l.MarkIncomplete(task, day)
		return false, nil
	}
	if _, err := l.MarkComplete(task, day); err != nil {
		return false, err
	}
	return true, nil
}

// Duplicates returns the days that have more than one entry, in first-seen
// order.
func (l Log) Duplicates(task models.Task) []daykey.Key {
	seen := make(map[daykey.Key]int, len(task.CompletedDates))
	var dups []daykey.Key
	for _, d := range task.CompletedDates {
		k := l.norm.FromTime(d)
		seen[k]++
		if seen[k] == 2 {
			dups = append(dups, k)
		}
	}
	return dups
}
