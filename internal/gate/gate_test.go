package gate

import (
	"testing"
	"time"

	"github.com/julianstephens/routinely/internal/models"
)

func at(day, hh, mm int) time.Time {
	return time.Date(2024, 3, day, hh, mm, 0, 0, time.UTC)
}

func TestStrictActionable(t *testing.T) {
	task := models.Task{StartTime: "09:00", EndTime: "09:30"}
	today := at(5, 0, 0)

	tests := []struct {
		name   string
		target time.Time
		now    time.Time
		want   bool
	}{
		{"before start", today, at(5, 8, 59), false},
		{"inside window", today, at(5, 9, 15), false},
		{"at end", today, at(5, 9, 30), true},
		{"after end", today, at(5, 23, 59), true},
		{"yesterday late evening", at(4, 0, 0), at(5, 23, 0), false},
		{"tomorrow", at(6, 0, 0), at(5, 23, 0), false},
		{"target with clock time still today", at(5, 18, 0), at(5, 10, 0), true},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := (Strict{}).Actionable(task, tt.target, tt.now); got != tt.want {
				t.Errorf("Actionable() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestStrictUsesStartTimeWithoutEnd(t *testing.T) {
	task := models.Task{StartTime: "07:00"}

	if (Strict{}).Actionable(task, at(5, 0, 0), at(5, 6, 59)) {
		t.Error("Actionable() = true before startTime")
	}
	if !(Strict{}).Actionable(task, at(5, 0, 0), at(5, 7, 0)) {
		t.Error("Actionable() = false at startTime")
	}
}

func TestStrictComparesDaysInNowLocation(t *testing.T) {
	ny, err := time.LoadLocation("America/New_York")
	if err != nil {
		t.Skipf("timezone unavailable: %v", err)
	}
	task := models.Task{StartTime: "20:00"}
	now := time.Date(2024, 3, 5, 22, 0, 0, 0, ny) // 03:00 UTC on March 6
	target := time.Date(2024, 3, 5, 0, 0, 0, 0, ny)

	if !(Strict{}).Actionable(task, target, now) {
		t.Error("Actionable() = false for today in New York")
	}
}

func TestPermissive(t *testing.T) {
	task := models.Task{StartTime: "23:00", EndTime: "23:30"}
	if !(Permissive{}).Actionable(task, at(1, 0, 0), at(5, 0, 0)) {
		t.Error("Permissive.Actionable() = false")
	}
}

func TestByName(t *testing.T) {
	tests := []struct {
		name, fallback string
		want           string
		wantErr        bool
	}{
		{"strict", "permissive", "strict", false},
		{"permissive", "strict", "permissive", false},
		{"", "strict", "strict", false},
		{"", "permissive", "permissive", false},
		{"lenient", "strict", "", true},
	}

	for _, tt := range tests {
		t.Run(tt.name+"/"+tt.fallback, func(t *testing.T) {
			p, err := ByName(tt.name, tt.fallback)
			if (err != nil) != tt.wantErr {
				t.Fatalf("ByName() error = %v, wantErr %v", err, tt.wantErr)
			}
			if !tt.wantErr && p.Name() != tt.want {
				t.Errorf("ByName() = %s, want %s", p.Name(), tt.want)
			}
		})
	}
}

func TestScheduleLocked(t *testing.T) {
	task := models.Task{StartTime: "09:00", EndTime: "10:00"}

	if ScheduleLocked(task, at(5, 8, 59)) {
		t.Error("ScheduleLocked() = true before start")
	}
	if !ScheduleLocked(task, at(5, 9, 0)) {
		t.Error("ScheduleLocked() = false at start")
	}
	if ScheduleLocked(models.Task{}, at(5, 12, 0)) {
		t.Error("ScheduleLocked() = true for task without start")
	}
}
