package sqlstore

import (
	"context"
	"database/sql"
	"time"

	"github.com/julianstephens/routinely/internal/models"
)

const todoColumns = "id, owner_id, text, due_date, completed, created_at"

func scanTodo(row interface{ Scan(...interface{}) error }) (models.Todo, error) {
	var t models.Todo
	var dueDate sql.NullString
	var createdAt string
	if err := row.Scan(&t.ID, &t.OwnerID, &t.Text, &dueDate, &t.Completed, &createdAt); err != nil {
		return models.Todo{}, err
	}
	if dueDate.Valid && dueDate.String != "" {
		d, err := time.Parse(time.RFC3339, dueDate.String)
		if err != nil {
			return models.Todo{}, err
		}
		t.DueDate = &d
	}
	ct, err := parseTimestamp(createdAt)
	if err != nil {
		return models.Todo{}, err
	}
	t.CreatedAt = ct
	return t, nil
}

func dueDateValue(d *time.Time) sql.NullString {
	if d == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: d.Format(time.RFC3339), Valid: true}
}

func (q *Queries) AddTodo(ctx context.Context, t models.Todo) error {
	_, err := q.exec(ctx, q.db,
		"INSERT INTO todos ("+todoColumns+") VALUES (?, ?, ?, ?, ?, ?)",
		t.ID, t.OwnerID, t.Text, dueDateValue(t.DueDate), t.Completed, formatTimestamp(t.CreatedAt))
	if err != nil {
		return q.wrapWrite("add todo", err)
	}
	return nil
}

func (q *Queries) GetTodo(ctx context.Context, id string) (models.Todo, error) {
	row := q.queryRow(ctx, q.db, "SELECT "+todoColumns+" FROM todos WHERE id = ?", id)
	t, err := scanTodo(row)
	if err != nil {
		return models.Todo{}, notFound(err, "get todo")
	}
	return t, nil
}

// ListTodos returns the owner's todos newest first.
func (q *Queries) ListTodos(ctx context.Context, ownerID string) ([]models.Todo, error) {
	rows, err := q.query(ctx, q.db,
		"SELECT "+todoColumns+" FROM todos WHERE owner_id = ? ORDER BY created_at DESC, id DESC", ownerID)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var todos []models.Todo
	for rows.Next() {
		t, err := scanTodo(rows)
		if err != nil {
			return nil, err
		}
		todos = append(todos, t)
	}
	return todos, rows.Err()
}

func (q *Queries) UpdateTodo(ctx context.Context, t models.Todo) error {
	res, err := q.exec(ctx, q.db,
		"UPDATE todos SET text = ?, due_date = ?, completed = ? WHERE id = ?",
		t.Text, dueDateValue(t.DueDate), t.Completed, t.ID)
	if err != nil {
		return q.wrapWrite("update todo", err)
	}
	return requireAffected(res, "update todo")
}

func (q *Queries) DeleteTodo(ctx context.Context, id string) error {
	res, err := q.exec(ctx, q.db, "DELETE FROM todos WHERE id = ?", id)
	if err != nil {
		return err
	}
	return requireAffected(res, "delete todo")
}
