// Package store defines the persistence contracts shared by all storage backends.
package store

import (
	"context"
	"errors"

	"github.com/tasklist/tasklist/internal/model"
)

// Errors returned by every backend.
var (
	ErrUsernameTaken = errors.New("username already exists")
	ErrUserNotFound  = errors.New("user not found")
	ErrTaskNotFound  = errors.New("task not found")

	// ErrOwnerNotFound is returned by CreateTask when the owner has no user record.
	ErrOwnerNotFound = errors.New("task owner not found")
)

// Backend names accepted by configuration.
const (
	BackendPostgres = "postgres"
	BackendRedis    = "redis"
	BackendMemory   = "memory"
)

// CredentialStore persists users keyed by unique username.
type CredentialStore interface {
	// CreateUser inserts the user. Returns ErrUsernameTaken if the username exists.
	// The uniqueness check and the insert are a single atomic step.
	CreateUser(ctx context.Context, user *model.User) error
	// GetUserByUsername returns ErrUserNotFound if no such user exists.
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
}

// TaskStore persists tasks scoped by owner.
// Every method that addresses a single task takes the owner as a mandatory filter;
// a task owned by someone else is reported as ErrTaskNotFound.
type TaskStore interface {
	// CreateTask returns ErrOwnerNotFound if the backend can tell the owner does not exist.
	CreateTask(ctx context.Context, task *model.Task) error
	ListTasksByOwner(ctx context.Context, ownerID string) ([]*model.Task, error)
	UpdateTaskIfOwner(ctx context.Context, id, ownerID string, patch model.TaskPatch) (*model.Task, error)
	DeleteTaskIfOwner(ctx context.Context, id, ownerID string) error
}

// Backend bundles both stores with lifecycle hooks.
type Backend interface {
	CredentialStore
	TaskStore
	Ping(ctx context.Context) error
}
