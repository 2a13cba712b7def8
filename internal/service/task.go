package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tasklist/tasklist/internal/metrics"
	"github.com/tasklist/tasklist/internal/model"
	"github.com/tasklist/tasklist/internal/store"
)

// TaskService handles task business logic. Every method is scoped by the
// owner ID of the authenticated caller.
type TaskService struct {
	tasks   store.TaskStore
	metrics metrics.Recorder
	logger  *slog.Logger
}

// NewTaskService creates a new TaskService.
func NewTaskService(tasks store.TaskStore, recorder metrics.Recorder, logger *slog.Logger) *TaskService {
	return &TaskService{
		tasks:   tasks,
		metrics: defaultRecorder(recorder),
		logger:  defaultLogger(logger),
	}
}

// CreateTaskInput defines input for creating a task.
type CreateTaskInput struct {
	Title     string
	Completed bool
}

// Create stores a new task owned by ownerID.
func (s *TaskService) Create(ctx context.Context, ownerID string, in CreateTaskInput) (*model.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if strings.TrimSpace(in.Title) == "" {
		return nil, missingField("title")
	}

	now := time.Now().UTC()
	task := &model.Task{
		ID:        ulid.Make().String(),
		OwnerID:   ownerID,
		Title:     in.Title,
		Completed: in.Completed,
		CreatedAt: now,
		UpdatedAt: now,
	}

	start := time.Now()
	err := s.tasks.CreateTask(ctx, task)
	observe(s.metrics, start)
	if err != nil {
		if errors.Is(err, store.ErrOwnerNotFound) {
			// Validly signed token for a user that no longer exists.
			s.logger.Warn("task_owner_missing", "user_id", ownerID)
			return nil, ErrUnauthorized
		}
		return nil, fmt.Errorf("failed to create task: %w", err)
	}

	s.metrics.IncTaskCreated()

	return task, nil
}

// List returns the caller's tasks in creation order. Never nil.
func (s *TaskService) List(ctx context.Context, ownerID string) ([]*model.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}

	start := time.Now()
	tasks, err := s.tasks.ListTasksByOwner(ctx, ownerID)
	observe(s.metrics, start)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	if tasks == nil {
		tasks = []*model.Task{}
	}

	return tasks, nil
}

// Update applies the patch to the caller's task.
// Returns ErrTaskNotFound if the task is absent or owned by someone else.
func (s *TaskService) Update(ctx context.Context, ownerID, id string, patch model.TaskPatch) (*model.Task, error) {
	if ownerID == "" {
		return nil, ErrUnauthorized
	}
	if patch.Title != nil && strings.TrimSpace(*patch.Title) == "" {
		return nil, missingField("title")
	}

	start := time.Now()
	task, err := s.tasks.UpdateTaskIfOwner(ctx, id, ownerID, patch)
	observe(s.metrics, start)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return nil, ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	s.metrics.IncTaskUpdated()

	return task, nil
}

// Delete removes the caller's task.
// Returns ErrTaskNotFound if the task is absent or owned by someone else.
func (s *TaskService) Delete(ctx context.Context, ownerID, id string) error {
	if ownerID == "" {
		return ErrUnauthorized
	}

	start := time.Now()
	err := s.tasks.DeleteTaskIfOwner(ctx, id, ownerID)
	observe(s.metrics, start)
	if err != nil {
		if errors.Is(err, store.ErrTaskNotFound) {
			return ErrTaskNotFound
		}
		return fmt.Errorf("failed to delete task: %w", err)
	}

	s.metrics.IncTaskDeleted()
	s.logger.Debug("task deleted",
		slog.String("task_id", id),
		slog.String("owner_id", ownerID),
	)

	return nil
}
