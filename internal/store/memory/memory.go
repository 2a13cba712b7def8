// Package memory provides an in-process storage backend.
// It is used by unit tests and by STORE_BACKEND=memory for local runs.
package memory

import (
	"context"
	"sort"
	"sync"
	"time"

	"github.com/tasklist/tasklist/internal/model"
	"github.com/tasklist/tasklist/internal/store"
)

// Store keeps users and tasks in maps guarded by a single mutex.
type Store struct {
	mu      sync.RWMutex
	users   map[string]*model.User // keyed by username
	tasks   map[string]*model.Task // keyed by task ID
	nowFunc func() time.Time
}

// New creates an empty Store.
func New() *Store {
	return &Store{
		users:   make(map[string]*model.User),
		tasks:   make(map[string]*model.Task),
		nowFunc: func() time.Time { return time.Now().UTC() },
	}
}

var _ store.Backend = (*Store)(nil)

// Ping always succeeds.
func (s *Store) Ping(ctx context.Context) error {
	return ctx.Err()
}

// CreateUser inserts a user if the username is free.
func (s *Store) CreateUser(ctx context.Context, user *model.User) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.users[user.Username]; exists {
		return store.ErrUsernameTaken
	}

	u := *user
	s.users[user.Username] = &u
	return nil
}

// GetUserByUsername looks a user up by username.
func (s *Store) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	u, ok := s.users[username]
	if !ok {
		return nil, store.ErrUserNotFound
	}
	out := *u
	return &out, nil
}

// CreateTask stores a copy of the task.
func (s *Store) CreateTask(ctx context.Context, task *model.Task) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t := *task
	s.tasks[task.ID] = &t
	return nil
}

// ListTasksByOwner returns the owner's tasks, oldest first.
func (s *Store) ListTasksByOwner(ctx context.Context, ownerID string) ([]*model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	tasks := make([]*model.Task, 0)
	for _, t := range s.tasks {
		if t.OwnerID != ownerID {
			continue
		}
		out := *t
		tasks = append(tasks, &out)
	}

	sort.Slice(tasks, func(i, j int) bool {
		if tasks[i].CreatedAt.Equal(tasks[j].CreatedAt) {
			return tasks[i].ID < tasks[j].ID
		}
		return tasks[i].CreatedAt.Before(tasks[j].CreatedAt)
	})

	return tasks, nil
}

// UpdateTaskIfOwner applies the patch when the task exists and belongs to ownerID.
func (s *Store) UpdateTaskIfOwner(ctx context.Context, id, ownerID string, patch model.TaskPatch) (*model.Task, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return nil, store.ErrTaskNotFound
	}

	patch.Apply(t, s.nowFunc())
	out := *t
	return &out, nil
}

// DeleteTaskIfOwner removes the task when it exists and belongs to ownerID.
func (s *Store) DeleteTaskIfOwner(ctx context.Context, id, ownerID string) error {
	if err := ctx.Err(); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	t, ok := s.tasks[id]
	if !ok || t.OwnerID != ownerID {
		return store.ErrTaskNotFound
	}

	delete(s.tasks, id)
	return nil
}
