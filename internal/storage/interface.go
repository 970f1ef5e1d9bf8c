package storage

import (
	"context"
	"errors"

	"github.com/julianstephens/routinely/internal/models"
)

var (
	// ErrNotFound is returned when a requested row does not exist.
	ErrNotFound = errors.New("not found")
	// ErrConflict is returned when a unique key is already taken.
	ErrConflict = errors.New("already exists")
)

type Provider interface {
	// Lifecycle
	Init(ctx context.Context) error
	Load(ctx context.Context) error
	Close() error

	// Settings
	GetSettings(ctx context.Context) (models.Settings, error)
	SaveSettings(ctx context.Context, settings models.Settings) error

	// Users
	AddUser(ctx context.Context, user models.User) error
	GetUser(ctx context.Context, id string) (models.User, error)
	GetUserByName(ctx context.Context, name string) (models.User, error)
	GetUserByTokenHash(ctx context.Context, hash string) (models.User, error)
	ListUsers(ctx context.Context) ([]models.User, error)
	UpdateUser(ctx context.Context, user models.User) error

	// Routines. UpdateRoutine replaces the task list and every task's
	// completion history with the values given.
	AddRoutine(ctx context.Context, routine models.Routine) error
	GetRoutine(ctx context.Context, id string) (models.Routine, error)
	// ListRoutines returns routines newest first. An empty ownerID lists
	// every owner's routines.
	ListRoutines(ctx context.Context, ownerID string) ([]models.Routine, error)
	UpdateRoutine(ctx context.Context, routine models.Routine) error
	DeleteRoutine(ctx context.Context, id string) error

	// Todos
	AddTodo(ctx context.Context, todo models.Todo) error
	GetTodo(ctx context.Context, id string) (models.Todo, error)
	ListTodos(ctx context.Context, ownerID string) ([]models.Todo, error)
	UpdateTodo(ctx context.Context, todo models.Todo) error
	DeleteTodo(ctx context.Context, id string) error

	// Utils
	GetConfigPath() string
}
