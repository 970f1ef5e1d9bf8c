package sqlstore

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/julianstephens/routinely/internal/models"
)

func (q *Queries) AddRoutine(ctx context.Context, r models.Routine) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := q.exec(ctx, tx, `
		INSERT INTO routines (id, owner_id, title, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?)`,
		r.ID, r.OwnerID, r.Title, formatTimestamp(r.CreatedAt), formatTimestamp(r.UpdatedAt)); err != nil {
		return q.wrapWrite("add routine", err)
	}
	if err := q.insertTasks(ctx, tx, r); err != nil {
		return err
	}
	return tx.Commit()
}

func (q *Queries) insertTasks(ctx context.Context, tx *sql.Tx, r models.Routine) error {
	for pos, task := range r.Tasks {
		if _, err := q.exec(ctx, tx, `
			INSERT INTO tasks (id, routine_id, position, name, start_time, end_time)
			VALUES (?, ?, ?, ?, ?, ?)`,
			task.ID, r.ID, pos, task.Name, task.StartTime, task.EndTime); err != nil {
			return q.wrapWrite(fmt.Sprintf("insert task %s", task.ID), err)
		}
		for _, d := range task.CompletedDates {
			if _, err := q.exec(ctx, tx,
				"INSERT INTO task_completions (task_id, completed_at) VALUES (?, ?)",
				task.ID, d.Format(time.RFC3339)); err != nil {
				return fmt.Errorf("insert completion for task %s: %w", task.ID, err)
			}
		}
	}
	return nil
}

func (q *Queries) deleteTasks(ctx context.Context, tx *sql.Tx, routineID string) error {
	if _, err := q.exec(ctx, tx, `
		DELETE FROM task_completions
		WHERE task_id IN (SELECT id FROM tasks WHERE routine_id = ?)`, routineID); err != nil {
		return fmt.Errorf("delete completions: %w", err)
	}
	if _, err := q.exec(ctx, tx, "DELETE FROM tasks WHERE routine_id = ?", routineID); err != nil {
		return fmt.Errorf("delete tasks: %w", err)
	}
	return nil
}

func (q *Queries) GetRoutine(ctx context.Context, id string) (models.Routine, error) {
	row := q.queryRow(ctx, q.db, `
		SELECT id, owner_id, title, created_at, updated_at
		FROM routines WHERE id = ?`, id)
	r, err := scanRoutine(row)
	if err != nil {
		return models.Routine{}, notFound(err, "get routine")
	}
	if err := q.loadTasks(ctx, &r); err != nil {
		return models.Routine{}, err
	}
	return r, nil
}

func (q *Queries) ListRoutines(ctx context.Context, ownerID string) ([]models.Routine, error) {
	query := "SELECT id, owner_id, title, created_at, updated_at FROM routines"
	var args []interface{}
	if ownerID != "" {
		query += " WHERE owner_id = ?"
		args = append(args, ownerID)
	}
	query += " ORDER BY created_at DESC, id DESC"

	rows, err := q.query(ctx, q.db, query, args...)
	if err != nil {
		return nil, err
	}
	var routines []models.Routine
	for rows.Next() {
		r, err := scanRoutine(rows)
		if err != nil {
			rows.Close()
			return nil, err
		}
		routines = append(routines, r)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return nil, err
	}
	rows.Close()

	for i := range routines {
		if err := q.loadTasks(ctx, &routines[i]); err != nil {
			return nil, err
		}
	}
	return routines, nil
}

func (q *Queries) UpdateRoutine(ctx context.Context, r models.Routine) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	res, err := q.exec(ctx, tx,
		"UPDATE routines SET title = ?, updated_at = ? WHERE id = ?",
		r.Title, formatTimestamp(r.UpdatedAt), r.ID)
	if err != nil {
		return q.wrapWrite("update routine", err)
	}
	if err := requireAffected(res, "update routine"); err != nil {
		return err
	}
	if err := q.deleteTasks(ctx, tx, r.ID); err != nil {
		return err
	}
	if err := q.insertTasks(ctx, tx, r); err != nil {
		return err
	}
	return tx.Commit()
}

func (q *Queries) DeleteRoutine(ctx context.Context, id string) error {
	tx, err := q.db.BeginTx(ctx, nil)
	if err != nil {
		return err
	}
	defer func() { _ = tx.Rollback() }()

	if err := q.deleteTasks(ctx, tx, id); err != nil {
		return err
	}
	res, err := q.exec(ctx, tx, "DELETE FROM routines WHERE id = ?", id)
	if err != nil {
		return fmt.Errorf("delete routine: %w", err)
	}
	if err := requireAffected(res, "delete routine"); err != nil {
		return err
	}
	return tx.Commit()
}

func scanRoutine(row interface{ Scan(...interface{}) error }) (models.Routine, error) {
	var r models.Routine
	var createdAt, updatedAt string
	if err := row.Scan(&r.ID, &r.OwnerID, &r.Title, &createdAt, &updatedAt); err != nil {
		return models.Routine{}, err
	}
	var err error
	if r.CreatedAt, err = parseTimestamp(createdAt); err != nil {
		return models.Routine{}, err
	}
	if r.UpdatedAt, err = parseTimestamp(updatedAt); err != nil {
		return models.Routine{}, err
	}
	return r, nil
}

// loadTasks fills r.Tasks in stored order, each with its completion
// history in insertion order.
func (q *Queries) loadTasks(ctx context.Context, r *models.Routine) error {
	rows, err := q.query(ctx, q.db, `
		SELECT id, name, start_time, end_time
		FROM tasks WHERE routine_id = ? ORDER BY position`, r.ID)
	if err != nil {
		return err
	}
	r.Tasks = []models.Task{}
	index := make(map[string]int)
	for rows.Next() {
		var t models.Task
		if err := rows.Scan(&t.ID, &t.Name, &t.StartTime, &t.EndTime); err != nil {
			rows.Close()
			return err
		}
		t.CompletedDates = []time.Time{}
		index[t.ID] = len(r.Tasks)
		r.Tasks = append(r.Tasks, t)
	}
	if err := rows.Err(); err != nil {
		rows.Close()
		return err
	}
	rows.Close()

	if len(r.Tasks) == 0 {
		return nil
	}

	crows, err := q.query(ctx, q.db, `
		SELECT c.task_id, c.completed_at
		FROM task_completions c
		JOIN tasks t ON t.id = c.task_id
		WHERE t.routine_id = ?
		ORDER BY c.id`, r.ID)
	if err != nil {
		return err
	}
	defer crows.Close()

	for crows.Next() {
		var taskID, completedAt string
		if err := crows.Scan(&taskID, &completedAt); err != nil {
			return err
		}
		d, err := time.Parse(time.RFC3339, completedAt)
		if err != nil {
			return fmt.Errorf("parse completion %q: %w", completedAt, err)
		}
		if i, ok := index[taskID]; ok {
			r.Tasks[i].CompletedDates = append(r.Tasks[i].CompletedDates, d)
		}
	}
	return crows.Err()
}
