package routines

import (
	"time"

	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/gate"
	"github.com/julianstephens/routinely/internal/models"
)

// Merge applies a partial update to existing and returns the result;
// existing is not modified.
//
// Submitted tasks whose id matches an existing task keep that id and, unless
// CompletedDates is supplied, the existing history. Other submitted tasks get
// a fresh id. Existing tasks missing from the submitted list are dropped.
// A task whose stored start time has been reached at now may neither change
// its name or times nor be dropped.
func Merge(existing models.Routine, in UpdateInput, log completion.Log, now time.Time, newID func() string) (models.Routine, error) {
	merged := existing.Clone()

	if in.Title != nil {
		merged.Title = *in.Title
	}
	if in.Tasks == nil {
		return merged, nil
	}

	byID := make(map[string]models.Task, len(merged.Tasks))
	for _, t := range merged.Tasks {
		byID[t.ID] = t
	}

	tasks := make([]models.Task, 0, len(*in.Tasks))
	for _, ti := range *in.Tasks {
		prev, ok := byID[ti.ID]
		if ti.ID == "" || !ok {
			task := models.Task{
				ID:             newID(),
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
			tasks = append(tasks, task)
			continue
		}
		// A task id listed twice only matches once.
		delete(byID, ti.ID)

		if scheduleChanged(prev, ti) && gate.ScheduleLocked(prev, now) {
			return models.Routine{}, errors.ValidationWrap(ErrScheduleLocked,
				"task %q started at %s and can no longer be edited today", prev.Name, prev.StartTime)
		}

		task := prev
		task.Name = ti.Name
		task.StartTime = ti.StartTime
		task.EndTime = ti.EndTime
		if ti.CompletedDates != nil {
			task.CompletedDates = []time.Time{}
			if err := setHistory(log, &task, *ti.CompletedDates); err != nil {
				return models.Routine{}, err
			}
		}
		tasks = append(tasks, task)
	}

	for _, prev := range merged.Tasks {
		if _, dropped := byID[prev.ID]; dropped && gate.ScheduleLocked(prev, now) {
			return models.Routine{}, errors.ValidationWrap(ErrScheduleLocked,
				"task %q started at %s and can no longer be removed today", prev.Name, prev.StartTime)
		}
	}

	merged.Tasks = tasks
	return merged, nil
}

func scheduleChanged(prev models.Task, in TaskInput) bool {
	return prev.Name != in.Name || prev.StartTime != in.StartTime || prev.EndTime != in.EndTime
}

// setHistory records each supplied date once, in the log's location.
func setHistory(log completion.Log, task *models.Task, dates []string) error {
	for _, raw := range dates {
		day, err := log.Normalizer().Normalize(raw)
		if err != nil {
			return errors.Validation("task %q has invalid completed date %q", task.Name, raw)
		}
		if _, err := log.MarkComplete(task, day); err != nil {
			return errors.Validation("task %q has invalid completed date %q", task.Name, raw)
		}
	}
	return nil
}
