package storage

import (
	"context"
	"errors"

	"github.com/taskpilot/taskpilot-be/internal/models"
)

// ErrNotFound indicates a record does not exist (or is not visible to the
// requesting owner).
var ErrNotFound = errors.New("record not found")

// ErrAlreadyExists indicates a uniqueness conflict.
var ErrAlreadyExists = errors.New("record already exists")

// UserStore captures user persistence operations needed by auth code.
type UserStore interface {
	CreateUser(ctx context.Context, user models.User) (models.User, error)
	FindByEmail(ctx context.Context, email string) (models.User, error)
	FindByID(ctx context.Context, id int64) (models.User, error)
}

// TaskUpdate carries a partial task mutation; nil fields keep their value.
type TaskUpdate struct {
	Title       *string
	Description *string
	Status      *models.TaskStatus
}

// TaskStore captures task persistence. Every lookup and mutation is filtered
// by the owning user id; a row owned by someone else behaves as absent.
type TaskStore interface {
	CreateTask(ctx context.Context, task models.Task) (models.Task, error)
	ListTasks(ctx context.Context, authorID int64) ([]models.Task, error)
	GetTask(ctx context.Context, id, authorID int64) (models.Task, error)
	UpdateTask(ctx context.Context, id, authorID int64, update TaskUpdate) (models.Task, error)
	DeleteTask(ctx context.Context, id, authorID int64) error
}
