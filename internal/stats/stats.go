// Package stats derives completion percentages from routines' completion
// histories. Everything here is pure; "now" is always passed in.
package stats

import (
	"math"
	"time"

	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/models"
)

// Progress counts completed tasks against the task total.
type Progress struct {
	Completed  int `json:"completed"`
	Total      int `json:"total"`
	Percentage int `json:"percentage"`
}

func newProgress(completed, total int) Progress {
	return Progress{Completed: completed, Total: total, Percentage: Percent(completed, total)}
}

// Add combines two progress counts.
func (p Progress) Add(o Progress) Progress {
	return newProgress(p.Completed+o.Completed, p.Total+o.Total)
}

// Percent returns round(100*num/den), or 0 when den is 0.
func Percent(num, den int) int {
	if den <= 0 {
		return 0
	}
	return int(math.Round(100 * float64(num) / float64(den)))
}

// ProgressForDay counts the routine's tasks completed on day.
func ProgressForDay(log completion.Log, r models.Routine, day daykey.Key) Progress {
	completed := 0
	for _, task := range r.Tasks {
		if log.IsCompletedOn(task, day) {
			completed++
		}
	}
	return newProgress(completed, len(r.Tasks))
}

// WeeklyAverage is round(100 * sum(completed per day) / (tasks * days)).
func WeeklyAverage(log completion.Log, r models.Routine, days []daykey.Key) int {
	return progressOver(log, r, days).Percentage
}

func progressOver(log completion.Log, r models.Routine, days []daykey.Key) Progress {
	var p Progress
	for _, day := range days {
		p = p.Add(ProgressForDay(log, r, day))
	}
	return p
}

// WeekStart returns midnight of the Monday on or before pivot, in pivot's
// location. Weeks start on Monday regardless of locale.
func WeekStart(pivot time.Time) time.Time {
	offset := (int(pivot.Weekday()) + 6) % 7
	return time.Date(pivot.Year(), pivot.Month(), pivot.Day()-offset, 0, 0, 0, 0, pivot.Location())
}

// WeekDays returns the seven keys Monday..Sunday of the week containing
// pivot.
func WeekDays(pivot time.Time) []daykey.Key {
	start := WeekStart(pivot)
	norm := daykey.NewNormalizer(pivot.Location())
	days := make([]daykey.Key, 7)
	for i := range days {
		days[i] = norm.FromTime(time.Date(start.Year(), start.Month(), start.Day()+i, 12, 0, 0, 0, start.Location()))
	}
	return days
}

// TrailingWeek returns the seven keys ending with now's day, oldest first.
func TrailingWeek(now time.Time) []daykey.Key {
	norm := daykey.NewNormalizer(now.Location())
	days := make([]daykey.Key, 7)
	for i := range days {
		days[i] = norm.FromTime(time.Date(now.Year(), now.Month(), now.Day()-(6-i), 12, 0, 0, 0, now.Location()))
	}
	return days
}
