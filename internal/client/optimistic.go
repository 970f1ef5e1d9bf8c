package client

import (
	"context"
	"fmt"
	"time"

	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routines"
)

// Mutation is a completion toggle applied locally ahead of the server's
// answer.
type Mutation struct {
	TaskID    string
	Day       daykey.Key
	Completed bool // state after the toggle

	previous []time.Time
}

// ApplyToggle flips taskID on day in r and records enough to undo it.
func ApplyToggle(r *models.Routine, taskID string, day daykey.Key, log completion.Log) (Mutation, error) {
	idx := r.FindTask(taskID)
	if idx < 0 {
		return Mutation{}, fmt.Errorf("task %s not found in routine %s", taskID, r.ID)
	}
	task := &r.Tasks[idx]
	m := Mutation{
		TaskID:   taskID,
		Day:      day,
		previous: append([]time.Time(nil), task.CompletedDates...),
	}
	done, err := log.Toggle(task, day)
	if err != nil {
		return Mutation{}, err
	}
	m.Completed = done
	return m, nil
}

// Revert restores the task's history to what it was before ApplyToggle.
func (m Mutation) Revert(r *models.Routine) {
	if idx := r.FindTask(m.TaskID); idx >= 0 {
		r.Tasks[idx].CompletedDates = append([]time.Time{}, m.previous...)
	}
}

// Send issues the request matching m.
func (c *Client) Send(ctx context.Context, routineID string, m Mutation, mode string) (models.Routine, error) {
	in := routines.ToggleInput{Date: m.Day.String(), Mode: mode}
	if m.Completed {
		return c.Complete(ctx, routineID, m.TaskID, in)
	}
	return c.Uncomplete(ctx, routineID, m.TaskID, in)
}
