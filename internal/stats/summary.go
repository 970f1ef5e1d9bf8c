package stats

import (
	"time"

	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/gate"
	"github.com/julianstephens/routinely/internal/models"
)

// DayPoint is one day of a progress series across all routines.
type DayPoint struct {
	Day     daykey.Key `json:"day"`
	Weekday string     `json:"weekday"`
	Progress
}

// RoutineAverage is a routine's average completion over a window.
type RoutineAverage struct {
	RoutineID  string `json:"routineId"`
	Title      string `json:"title"`
	Percentage int    `json:"percentage"`
}

// Summary is the dashboard view over all of a user's routines.
type Summary struct {
	Today         daykey.Key       `json:"today"`
	TotalRoutines int              `json:"totalRoutines"`
	TotalTasks    int              `json:"totalTasks"`
	TodayProgress Progress         `json:"todayProgress"`
	WeekProgress  Progress         `json:"weekProgress"`
	Daily         []DayPoint       `json:"daily"`
	Routines      []RoutineAverage `json:"routines"`
}

// Summarize builds the dashboard summary for now's day and the trailing
// seven days.
func Summarize(log completion.Log, routines []models.Routine, now time.Time) Summary {
	days := TrailingWeek(now)
	today := days[len(days)-1]

	s := Summary{
		Today:         today,
		TotalRoutines: len(routines),
		Daily:         DailySeries(log, routines, days),
		Routines:      RoutineAverages(log, routines, days),
	}
	for _, r := range routines {
		s.TotalTasks += len(r.Tasks)
		s.TodayProgress = s.TodayProgress.Add(ProgressForDay(log, r, today))
		s.WeekProgress = s.WeekProgress.Add(progressOver(log, r, days))
	}
	return s
}

// DailySeries returns per-day progress summed over all routines.
func DailySeries(log completion.Log, routines []models.Routine, days []daykey.Key) []DayPoint {
	points := make([]DayPoint, 0, len(days))
	for _, day := range days {
		var p Progress
		for _, r := range routines {
			p = p.Add(ProgressForDay(log, r, day))
		}
		points = append(points, DayPoint{Day: day, Weekday: day.Weekday().String()[:3], Progress: p})
	}
	return points
}

// RoutineAverages returns WeeklyAverage for each routine over days.
func RoutineAverages(log completion.Log, routines []models.Routine, days []daykey.Key) []RoutineAverage {
	out := make([]RoutineAverage, 0, len(routines))
	for _, r := range routines {
		out = append(out, RoutineAverage{
			RoutineID:  r.ID,
			Title:      r.Title,
			Percentage: WeeklyAverage(log, r, days),
		})
	}
	return out
}

// Cell is one task/day square of the weekly grid.
type Cell struct {
	Day        daykey.Key `json:"day"`
	Completed  bool       `json:"completed"`
	Actionable bool       `json:"actionable"`
}

// TaskRow is a task with its seven cells.
type TaskRow struct {
	Task  models.Task `json:"task"`
	Cells []Cell      `json:"cells"`
}

// Week is the Monday-start grid of one routine.
type Week struct {
	RoutineID     string       `json:"routineId"`
	Title         string       `json:"title"`
	Policy        string       `json:"policy"`
	Days          []daykey.Key `json:"days"`
	Daily         []Progress   `json:"daily"`
	WeeklyAverage int          `json:"weeklyAverage"`
	Rows          []TaskRow    `json:"rows"`
}

// BuildWeek lays out the week containing pivot. Rows are ordered by start
// time; actionability of each cell comes from policy evaluated at now.
func BuildWeek(log completion.Log, r models.Routine, pivot, now time.Time, policy gate.Policy) (Week, error) {
	days := WeekDays(pivot)
	norm := log.Normalizer()

	w := Week{
		RoutineID:     r.ID,
		Title:         r.Title,
		Policy:        policy.Name(),
		Days:          days,
		WeeklyAverage: WeeklyAverage(log, r, days),
	}
	for _, day := range days {
		w.Daily = append(w.Daily, ProgressForDay(log, r, day))
	}

	for _, task := range r.SortedTasks() {
		row := TaskRow{Task: task}
		for _, day := range days {
			target, err := norm.Midnight(day)
			if err != nil {
				return Week{}, err
			}
			row.Cells = append(row.Cells, Cell{
				Day:        day,
				Completed:  log.IsCompletedOn(task, day),
				Actionable: policy.Actionable(task, target, now.In(norm.Location())),
			})
		}
		w.Rows = append(w.Rows, row)
	}
	return w, nil
}
