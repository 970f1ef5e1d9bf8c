package validation

import (
	"fmt"
	"regexp"
	"strings"

	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/models"
)

// ConflictType represents the type of validation conflict
type ConflictType string

const (
	ConflictMissingTitle        ConflictType = "missing_title"
	ConflictMissingTaskName     ConflictType = "missing_task_name"
	ConflictInvalidTime         ConflictType = "invalid_time"
	ConflictEndNotAfterStart    ConflictType = "end_not_after_start"
	ConflictDuplicateTaskID     ConflictType = "duplicate_task_id"
	ConflictDuplicateCompletion ConflictType = "duplicate_completion"
	ConflictMissingTodoText     ConflictType = "missing_todo_text"
)

// timePattern accepts HH:MM with hours 00-23 and minutes 00-59.
var timePattern = regexp.MustCompile(`^([0-1][0-9]|2[0-3]):[0-5][0-9]$`)

// Conflict represents a single problem found in a routine or todo
type Conflict struct {
	Type        ConflictType
	Description string
	RoutineID   string
	TaskID      string
	Date        string // YYYY-MM-DD, duplicate completions only
}

// ValidationResult contains all detected conflicts
type ValidationResult struct {
	Conflicts []Conflict
}

// HasConflicts returns true if there are any conflicts
func (vr *ValidationResult) HasConflicts() bool {
	return len(vr.Conflicts) > 0
}

// FormatReport returns a human-readable report of all conflicts
func (vr *ValidationResult) FormatReport() string {
	if !vr.HasConflicts() {
		return "No conflicts detected."
	}

	var b strings.Builder
	b.WriteString("Conflicts detected:\n")
	for _, conflict := range vr.Conflicts {
		fmt.Fprintf(&b, "- %s\n", conflict.Description)
	}
	return b.String()
}

// Err returns a validation error naming the first conflict, or nil.
func (vr *ValidationResult) Err() error {
	if !vr.HasConflicts() {
		return nil
	}
	return errors.Validation("%s", vr.Conflicts[0].Description)
}

func (vr *ValidationResult) add(c Conflict) {
	vr.Conflicts = append(vr.Conflicts, c)
}

// Validator validates routines and todos
type Validator struct{}

// New creates a new Validator
func New() *Validator {
	return &Validator{}
}

// IsValidTime reports whether s is a well-formed HH:MM clock time.
func IsValidTime(s string) bool {
	return timePattern.MatchString(s)
}

// ValidateRoutine checks the title and every task's schedule.
func (v *Validator) ValidateRoutine(r models.Routine) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}

	if strings.TrimSpace(r.Title) == "" {
		result.add(Conflict{
			Type:        ConflictMissingTitle,
			Description: "Routine title is required",
			RoutineID:   r.ID,
		})
	}

	seen := make(map[string]bool)
	for i, task := range r.Tasks {
		label := task.Name
		if label == "" {
			label = fmt.Sprintf("#%d", i+1)
		}

		if task.ID != "" {
			if seen[task.ID] {
				result.add(Conflict{
					Type:        ConflictDuplicateTaskID,
					Description: fmt.Sprintf("Task \"%s\" reuses id %s", label, task.ID),
					RoutineID:   r.ID,
					TaskID:      task.ID,
				})
			}
			seen[task.ID] = true
		}

		for _, c := range v.validateTask(task, label) {
			c.RoutineID = r.ID
			result.add(c)
		}
	}

	return result
}

func (v *Validator) validateTask(task models.Task, label string) []Conflict {
	var conflicts []Conflict

	if strings.TrimSpace(task.Name) == "" {
		conflicts = append(conflicts, Conflict{
			Type:        ConflictMissingTaskName,
			Description: fmt.Sprintf("Task %s is missing a name", label),
			TaskID:      task.ID,
		})
	}

	if !IsValidTime(task.StartTime) {
		conflicts = append(conflicts, Conflict{
			Type:        ConflictInvalidTime,
			Description: fmt.Sprintf("Task \"%s\" has invalid start time: %q", label, task.StartTime),
			TaskID:      task.ID,
		})
	}

	if task.HasEndTime() {
		if !IsValidTime(task.EndTime) {
			conflicts = append(conflicts, Conflict{
				Type:        ConflictInvalidTime,
				Description: fmt.Sprintf("Task \"%s\" has invalid end time: %q", label, task.EndTime),
				TaskID:      task.ID,
			})
		} else if IsValidTime(task.StartTime) && task.EndTime <= task.StartTime {
			// Zero-padded HH:MM compares correctly as strings.
			conflicts = append(conflicts, Conflict{
				Type:        ConflictEndNotAfterStart,
				Description: fmt.Sprintf("Task \"%s\" ends (%s) at or before it starts (%s)", label, task.EndTime, task.StartTime),
				TaskID:      task.ID,
			})
		}
	}

	return conflicts
}

// ValidateHistory reports days recorded more than once in any task's
// completion log.
func (v *Validator) ValidateHistory(r models.Routine, log completion.Log) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	for _, task := range r.Tasks {
		for _, day := range log.Duplicates(task) {
			result.add(Conflict{
				Type:        ConflictDuplicateCompletion,
				Description: fmt.Sprintf("Routine \"%s\" task \"%s\" is completed more than once on %s", r.Title, task.Name, day),
				RoutineID:   r.ID,
				TaskID:      task.ID,
				Date:        day.String(),
			})
		}
	}
	return result
}

// ValidateTodo checks a todo's text.
func (v *Validator) ValidateTodo(todo models.Todo) ValidationResult {
	result := ValidationResult{Conflicts: []Conflict{}}
	if strings.TrimSpace(todo.Text) == "" {
		result.add(Conflict{
			Type:        ConflictMissingTodoText,
			Description: "Todo text is required",
		})
	}
	return result
}
