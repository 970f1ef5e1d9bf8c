package models

import (
	"sort"
	"time"
)

type Task struct {
	ID             string      `json:"id"`
	Name           string      `json:"name"`
	StartTime      string      `json:"startTime"`         // HH:MM format
	EndTime        string      `json:"endTime,omitempty"` // HH:MM format
	CompletedDates []time.Time `json:"completedDates"`    // local midnights, at most one per day
}

// HasEndTime reports whether the task has a scheduled end.
func (t Task) HasEndTime() bool {
	return t.EndTime != ""
}

type Routine struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"ownerId"`
	Title     string    `json:"title"`
	Tasks     []Task    `json:"tasks"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// FindTask returns the index of the task with the given id, or -1.
func (r *Routine) FindTask(id string) int {
	for i := range r.Tasks {
		if r.Tasks[i].ID == id {
			return i
		}
	}
	return -1
}

// OwnedBy reports whether userID owns the routine.
func (r *Routine) OwnedBy(userID string) bool {
	return r.OwnerID != "" && r.OwnerID == userID
}

// Clone returns a deep copy so callers can mutate completion history
// without touching the original.
func (r Routine) Clone() Routine {
	c := r
	c.Tasks = make([]Task, len(r.Tasks))
	for i, t := range r.Tasks {
		c.Tasks[i] = t
		c.Tasks[i].CompletedDates = append([]time.Time(nil), t.CompletedDates...)
	}
	return c
}

// SortedTasks returns the tasks ordered by start time. HH:MM strings sort
// lexicographically in clock order.
func (r Routine) SortedTasks() []Task {
	tasks := append([]Task(nil), r.Tasks...)
	sort.SliceStable(tasks, func(i, j int) bool {
		return tasks[i].StartTime < tasks[j].StartTime
	})
	return tasks
}
