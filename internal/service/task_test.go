package service

import (
	"context"
	"errors"
	"testing"

	"github.com/oklog/ulid/v2"

	"github.com/tasklist/tasklist/internal/metrics"
	"github.com/tasklist/tasklist/internal/model"
	"github.com/tasklist/tasklist/internal/store"
	"github.com/tasklist/tasklist/internal/store/memory"
)

func registerAndAuthenticate(t *testing.T, env *testEnv, username string) string {
	t.Helper()
	ctx := context.Background()

	if _, err := env.auth.Register(ctx, Credentials{Username: username, Password: "pw123"}); err != nil {
		t.Fatalf("Register(%s) failed: %v", username, err)
	}
	token, err := env.auth.Login(ctx, Credentials{Username: username, Password: "pw123"})
	if err != nil {
		t.Fatalf("Login(%s) failed: %v", username, err)
	}
	authCtx, err := env.auth.Authenticate("Bearer " + token)
	if err != nil {
		t.Fatalf("Authenticate(%s) failed: %v", username, err)
	}
	return authCtx.UserID
}

func TestTaskService_CreateDefaults(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	owner := registerAndAuthenticate(t, env, "alice")

	task, err := env.tasks.Create(context.Background(), owner, CreateTaskInput{Title: "Test"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if task.ID == "" {
		t.Error("expected generated ID")
	}
	if task.OwnerID != owner {
		t.Errorf("OwnerID = %q, want %q", task.OwnerID, owner)
	}
	if task.Completed {
		t.Error("expected completed to default to false")
	}
	if task.CreatedAt.IsZero() || !task.CreatedAt.Equal(task.UpdatedAt) {
		t.Errorf("unexpected timestamps: %v / %v", task.CreatedAt, task.UpdatedAt)
	}
}

func TestTaskService_CreateValidation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)

	tests := []struct {
		name    string
		owner   string
		input   CreateTaskInput
		wantErr error
	}{
		{"missing_title", "user-1", CreateTaskInput{}, ErrMissingField},
		{"blank_title", "user-1", CreateTaskInput{Title: "   "}, ErrMissingField},
		{"no_owner", "", CreateTaskInput{Title: "Test"}, ErrUnauthorized},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := env.tasks.Create(context.Background(), tt.owner, tt.input)
			if !errors.Is(err, tt.wantErr) {
				t.Errorf("expected %v, got %v", tt.wantErr, err)
			}
		})
	}
}

func TestTaskService_ToggleCompletedKeepsTitle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	owner := registerAndAuthenticate(t, env, "alice")
	ctx := context.Background()

	task, err := env.tasks.Create(ctx, owner, CreateTaskInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	done := true
	updated, err := env.tasks.Update(ctx, owner, task.ID, model.TaskPatch{Completed: &done})
	if err != nil {
		t.Fatalf("Update failed: %v", err)
	}

	if !updated.Completed {
		t.Error("expected completed=true")
	}
	if updated.Title != "Buy milk" {
		t.Errorf("Title = %q, want %q", updated.Title, "Buy milk")
	}
	if updated.ID != task.ID {
		t.Errorf("ID changed from %q to %q", task.ID, updated.ID)
	}
}

func TestTaskService_UpdateRejectsBlankTitle(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	owner := registerAndAuthenticate(t, env, "alice")
	ctx := context.Background()

	task, err := env.tasks.Create(ctx, owner, CreateTaskInput{Title: "Buy milk"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	blank := ""
	if _, err := env.tasks.Update(ctx, owner, task.ID, model.TaskPatch{Title: &blank}); !errors.Is(err, ErrMissingField) {
		t.Errorf("expected ErrMissingField, got %v", err)
	}
}

func TestTaskService_OwnerIsolation(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	ctx := context.Background()

	alice := registerAndAuthenticate(t, env, "alice")
	bob := registerAndAuthenticate(t, env, "bob")

	task, err := env.tasks.Create(ctx, alice, CreateTaskInput{Title: "Alice's task"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	bobTasks, err := env.tasks.List(ctx, bob)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(bobTasks) != 0 {
		t.Errorf("bob sees %d tasks, want 0", len(bobTasks))
	}

	done := true
	if _, err := env.tasks.Update(ctx, bob, task.ID, model.TaskPatch{Completed: &done}); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Update by non-owner: expected ErrTaskNotFound, got %v", err)
	}
	if err := env.tasks.Delete(ctx, bob, task.ID); !errors.Is(err, ErrTaskNotFound) {
		t.Errorf("Delete by non-owner: expected ErrTaskNotFound, got %v", err)
	}

	// Non-owner errors match the absent-task errors exactly.
	missing := ulid.Make().String()
	_, absentErr := env.tasks.Update(ctx, bob, missing, model.TaskPatch{Completed: &done})
	_, foreignErr := env.tasks.Update(ctx, bob, task.ID, model.TaskPatch{Completed: &done})
	if absentErr == nil || foreignErr == nil || absentErr.Error() != foreignErr.Error() {
		t.Errorf("absent and foreign errors differ: %v vs %v", absentErr, foreignErr)
	}

	aliceTasks, err := env.tasks.List(ctx, alice)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(aliceTasks) != 1 || aliceTasks[0].Completed {
		t.Errorf("alice's task was modified by bob: %+v", aliceTasks)
	}
}

func TestTaskService_ListEmptyIsNotNil(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	owner := registerAndAuthenticate(t, env, "alice")

	tasks, err := env.tasks.List(context.Background(), owner)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if tasks == nil {
		t.Error("expected empty slice, got nil")
	}
}

func TestTaskService_Scenario(t *testing.T) {
	t.Parallel()
	env := newTestEnv(t)
	owner := registerAndAuthenticate(t, env, "alice")
	ctx := context.Background()

	task, err := env.tasks.Create(ctx, owner, CreateTaskInput{Title: "Test"})
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	tasks, err := env.tasks.List(ctx, owner)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].ID != task.ID {
		t.Fatalf("expected list with created task, got %+v", tasks)
	}

	if err := env.tasks.Delete(ctx, owner, task.ID); err != nil {
		t.Fatalf("Delete failed: %v", err)
	}

	tasks, err = env.tasks.List(ctx, owner)
	if err != nil {
		t.Fatalf("List failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected empty list after delete, got %d tasks", len(tasks))
	}

	snap := env.recorder.Snapshot()
	if snap.TasksCreated != 1 || snap.TasksDeleted != 1 {
		t.Errorf("unexpected counters: %+v", snap)
	}
	if snap.StoreDurationCount == 0 {
		t.Error("expected store latency to be observed")
	}
}

// ownerlessStore reports every owner as missing, like PostgreSQL after the users row is gone.
type ownerlessStore struct {
	*memory.Store
}

func (ownerlessStore) CreateTask(ctx context.Context, task *model.Task) error {
	return store.ErrOwnerNotFound
}

func TestTaskService_CreateForMissingOwner(t *testing.T) {
	t.Parallel()

	svc := NewTaskService(ownerlessStore{memory.New()}, metrics.NewInMemory(), nil)

	_, err := svc.Create(context.Background(), ulid.Make().String(), CreateTaskInput{Title: "orphan"})
	if !errors.Is(err, ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
}
