// Package todos manages a user's one-off todo items.
package todos

import (
	"context"
	goerrors "errors"
	"time"

	"github.com/google/uuid"

	"github.com/julianstephens/routinely/internal/daykey"
	"github.com/julianstephens/routinely/internal/errors"
	"github.com/julianstephens/routinely/internal/logger"
	"github.com/julianstephens/routinely/internal/models"
	"github.com/julianstephens/routinely/internal/storage"
	"github.com/julianstephens/routinely/internal/validation"
)

type Service struct {
	store     storage.Provider
	validator *validation.Validator
	now       func() time.Time
	newID     func() string
}

func New(store storage.Provider, now func() time.Time) *Service {
	if now == nil {
		now = time.Now
	}
	return &Service{
		store:     store,
		validator: validation.New(),
		now:       now,
		newID:     uuid.NewString,
	}
}

// Input is a todo as submitted by a client. Nil fields are left unchanged
// on update. DueDate accepts YYYY-MM-DD or RFC3339; an empty string clears
// it.
type Input struct {
	Text      *string `json:"text,omitempty"`
	DueDate   *string `json:"dueDate,omitempty"`
	Completed *bool   `json:"completed,omitempty"`
}

func parseDue(raw string, loc *time.Location) (*time.Time, error) {
	if raw == "" {
		return nil, nil
	}
	norm := daykey.NewNormalizer(loc)
	day, err := norm.Normalize(raw)
	if err != nil {
		return nil, errors.Validation("invalid due date %q", raw)
	}
	t, err := norm.Midnight(day)
	if err != nil {
		return nil, errors.Validation("invalid due date %q", raw)
	}
	return &t, nil
}

func (s *Service) apply(todo *models.Todo, in Input, loc *time.Location) error {
	if in.Text != nil {
		todo.Text = *in.Text
	}
	if in.DueDate != nil {
		due, err := parseDue(*in.DueDate, loc)
		if err != nil {
			return err
		}
		todo.DueDate = due
	}
	if in.Completed != nil {
		todo.Completed = *in.Completed
	}
	result := s.validator.ValidateTodo(*todo)
	return result.Err()
}

func (s *Service) List(ctx context.Context, userID string) ([]models.Todo, error) {
	todos, err := s.store.ListTodos(ctx, userID)
	if err != nil {
		return nil, errors.Internal("list todos", err)
	}
	if todos == nil {
		todos = []models.Todo{}
	}
	return todos, nil
}

func (s *Service) Create(ctx context.Context, userID string, in Input, loc *time.Location) (models.Todo, error) {
	todo := models.Todo{
		ID:        s.newID(),
		OwnerID:   userID,
		CreatedAt: s.now(),
	}
	if err := s.apply(&todo, in, loc); err != nil {
		return models.Todo{}, err
	}
	if err := s.store.AddTodo(ctx, todo); err != nil {
		return models.Todo{}, errors.Internal("create todo", err)
	}
	logger.Debug("Todo created", "todo", todo.ID, "owner", userID)
	return todo, nil
}

func (s *Service) get(ctx context.Context, userID, id string) (models.Todo, error) {
	todo, err := s.store.GetTodo(ctx, id)
	if err != nil {
		if goerrors.Is(err, storage.ErrNotFound) {
			return models.Todo{}, errors.NotFound("todo %s not found", id)
		}
		return models.Todo{}, errors.Internal("get todo", err)
	}
	if todo.OwnerID != userID {
		return models.Todo{}, errors.Unauthorized("todo %s belongs to another user", id)
	}
	return todo, nil
}

func (s *Service) Update(ctx context.Context, userID, id string, in Input, loc *time.Location) (models.Todo, error) {
	todo, err := s.get(ctx, userID, id)
	if err != nil {
		return models.Todo{}, err
	}
	if err := s.apply(&todo, in, loc); err != nil {
		return models.Todo{}, err
	}
	if err := s.store.UpdateTodo(ctx, todo); err != nil {
		return models.Todo{}, errors.Internal("update todo", err)
	}
	return todo, nil
}

func (s *Service) Delete(ctx context.Context, userID, id string) error {
	if _, err := s.get(ctx, userID, id); err != nil {
		return err
	}
	if err := s.store.DeleteTodo(ctx, id); err != nil {
		return errors.Internal("delete todo", err)
	}
	return nil
}
