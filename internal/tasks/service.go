// Package tasks implements ownership-scoped CRUD over the task store. Every
// operation takes the authenticated user's id as an explicit parameter; a
// task owned by another user behaves exactly as if it does not exist.
package tasks

import (
	"context"
	"errors"
	"fmt"

	"github.com/taskpilot/taskpilot-be/internal/apperr"
	"github.com/taskpilot/taskpilot-be/internal/models"
	"github.com/taskpilot/taskpilot-be/internal/storage"
)

// Service provides task CRUD scoped to a single owner.
type Service struct {
	store storage.TaskStore
}

// NewService constructs the task service.
func NewService(store storage.TaskStore) *Service {
	return &Service{store: store}
}

// CreateFields are the client-settable attributes of a new task.
type CreateFields struct {
	Title       string
	Description string
	Status      models.TaskStatus
}

// Create inserts a task owned by authorID. The owner is forced from the
// verified identity, so a foreign-key violation here means the account
// disappeared between guard and insert.
func (s *Service) Create(ctx context.Context, fields CreateFields, authorID int64) (models.Task, error) {
	status := fields.Status
	if status == "" {
		status = models.StatusPending
	}
	task, err := s.store.CreateTask(ctx, models.Task{
		Title:       fields.Title,
		Description: fields.Description,
		Status:      status,
		AuthorID:    authorID,
	})
	if err != nil {
		if e := apperr.FromPG(err); e.Kind == apperr.KindInvalidAuthorRef {
			return models.Task{}, apperr.Wrap(apperr.KindInvalidAuthorRef, "invalid author reference", err)
		}
		return models.Task{}, fmt.Errorf("create task: %w", err)
	}
	return task, nil
}

// List returns all tasks owned by authorID, newest-created first.
func (s *Service) List(ctx context.Context, authorID int64) ([]models.Task, error) {
	list, err := s.store.ListTasks(ctx, authorID)
	if err != nil {
		return nil, fmt.Errorf("list tasks: %w", err)
	}
	return list, nil
}

// Get returns the task only when both the id and the owner match. Absence is
// reported as storage.ErrNotFound; callers decide whether that is an error.
func (s *Service) Get(ctx context.Context, id, authorID int64) (models.Task, error) {
	return s.store.GetTask(ctx, id, authorID)
}

// Update applies a partial mutation after an ownership-scoped lookup. The
// lookup and the write are two steps; a concurrent delete by the same owner
// surfaces as TaskNotFound, never as cross-tenant leakage.
func (s *Service) Update(ctx context.Context, id int64, update storage.TaskUpdate, authorID int64) (models.Task, error) {
	if _, err := s.Get(ctx, id, authorID); err != nil {
		return models.Task{}, notFoundOr(err)
	}
	task, err := s.store.UpdateTask(ctx, id, authorID, update)
	if err != nil {
		return models.Task{}, notFoundOr(err)
	}
	return task, nil
}

// Remove deletes the task after the same ownership-scoped lookup.
func (s *Service) Remove(ctx context.Context, id, authorID int64) error {
	if _, err := s.Get(ctx, id, authorID); err != nil {
		return notFoundOr(err)
	}
	if err := s.store.DeleteTask(ctx, id, authorID); err != nil {
		return notFoundOr(err)
	}
	return nil
}

func notFoundOr(err error) error {
	if errors.Is(err, storage.ErrNotFound) {
		return apperr.Wrap(apperr.KindTaskNotFound, "task not found", err)
	}
	return err
}
