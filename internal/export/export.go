// Package export reads and writes routines as YAML documents.
package export

import (
	"fmt"
	"io"
	"sort"
	"time"

	"gopkg.in/yaml.v3"

	"github.com/julianstephens/routinely/internal/completion"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/routines"
)

const documentVersion = 1

// Document is the file format. Completion dates are day keys so a file
// reads the same in every timezone.
type Document struct {
	Version    int       `yaml:"version"`
	ExportedAt time.Time `yaml:"exported_at"`
	Timezone   string    `yaml:"timezone"`
	Routines   []Routine `yaml:"routines"`
}

type Routine struct {
	Title string               `yaml:"title"`
	Tasks []routines.TaskInput `yaml:"tasks"`
}

// Build converts stored routines into a document. Ids are dropped; a
// re-import always creates new routines.
func Build(rs []models.Routine, log completion.Log, now time.Time) Document {
	doc := Document{
		Version:    documentVersion,
		ExportedAt: now.UTC(),
		Timezone:   log.Normalizer().Location().String(),
		Routines:   make([]Routine, 0, len(rs)),
	}
	for _, r := range rs {
		out := Routine{Title: r.Title, Tasks: make([]routines.TaskInput, 0, len(r.Tasks))}
		for _, task := range r.Tasks {
			days := completedDays(task, log)
			out.Tasks = append(out.Tasks, routines.TaskInput{
				Name:           task.Name,
				StartTime:      task.StartTime,
				EndTime:        task.EndTime,
				CompletedDates: &days,
			})
		}
		doc.Routines = append(doc.Routines, out)
	}
	return doc
}

// completedDays returns the distinct completed days of task, oldest first.
func completedDays(task models.Task, log completion.Log) []string {
	seen := make(map[string]bool, len(task.CompletedDates))
	days := make([]string, 0, len(task.CompletedDates))
	for _, d := range task.CompletedDates {
		key := log.Normalizer().FromTime(d).String()
		if !seen[key] {
			seen[key] = true
			days = append(days, key)
		}
	}
	sort.Strings(days)
	return days
}

func Write(w io.Writer, doc Document) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	if err := enc.Encode(doc); err != nil {
		return fmt.Errorf("failed to encode routines: %w", err)
	}
	return enc.Close()
}

// Read decodes a document and returns the routines as create requests.
func Read(r io.Reader) ([]routines.CreateInput, error) {
	var doc Document
	if err := yaml.NewDecoder(r).Decode(&doc); err != nil {
		if err == io.EOF {
			return nil, fmt.Errorf("export file is empty")
		}
		return nil, fmt.Errorf("failed to decode routines: %w", err)
	}
	if doc.Version != documentVersion {
		return nil, fmt.Errorf("unsupported export version %d (expected %d)", doc.Version, documentVersion)
	}

	out := make([]routines.CreateInput, 0, len(doc.Routines))
	for _, r := range doc.Routines {
		out = append(out, routines.CreateInput{Title: r.Title, Tasks: r.Tasks})
	}
	return out, nil
}
