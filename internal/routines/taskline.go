package routines

import (
	"fmt"
	"strings"

	"github.com/julianstephens/routinely/internal/validation"
)

// ParseTaskLine reads a task written as "HH:MM[-HH:MM] Name", for example
// "07:00-07:15 Stretch" or "21:00 Read".
func ParseTaskLine(line string) (TaskInput, error) {
	line = strings.TrimSpace(line)
	when, name, ok := strings.Cut(line, " ")
	name = strings.TrimSpace(name)
	if !ok || name == "" {
		return TaskInput{}, fmt.Errorf("task %q must look like \"HH:MM[-HH:MM] name\"", line)
	}

	start, end, _ := strings.Cut(when, "-")
	if !validation.IsValidTime(start) {
		return TaskInput{}, fmt.Errorf("task %q: invalid start time %q", line, start)
	}
	if end != "" && !validation.IsValidTime(end) {
		return TaskInput{}, fmt.Errorf("task %q: invalid end time %q", line, end)
	}
	return TaskInput{Name: name, StartTime: start, EndTime: end}, nil
}

// ParseTaskLines parses one task per non-blank line.
func ParseTaskLines(text string) ([]TaskInput, error) {
	var tasks []TaskInput
	for _, line := range strings.Split(text, "\n") {
		if strings.TrimSpace(line) == "" {
			continue
		}
		t, err := ParseTaskLine(line)
		if err != nil {
			return nil, err
		}
		tasks = append(tasks, t)
	}
	return tasks, nil
}
