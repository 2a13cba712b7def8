// Package storetest holds the behavioural suite every storage backend must pass.
package storetest

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/oklog/ulid/v2"

	"github.com/tasklist/tasklist/internal/model"
	"github.com/tasklist/tasklist/internal/store"
	"github.com/tasklist/tasklist/internal/testutil"
)

// Factory returns a clean backend for a single test.
type Factory func(t *testing.T) store.Backend

// Run executes the full suite against backends produced by newBackend.
func Run(t *testing.T, newBackend Factory) {
	t.Run("CreateUser_And_GetByUsername", func(t *testing.T) { testCreateAndGetUser(t, newBackend(t)) })
	t.Run("CreateUser_DuplicateUsername", func(t *testing.T) { testDuplicateUsername(t, newBackend(t)) })
	t.Run("CreateUser_ConcurrentDuplicate", func(t *testing.T) { testConcurrentDuplicate(t, newBackend(t)) })
	t.Run("GetUserByUsername_NotFound", func(t *testing.T) { testUserNotFound(t, newBackend(t)) })
	t.Run("ListTasksByOwner_Isolation", func(t *testing.T) { testListIsolation(t, newBackend(t)) })
	t.Run("ListTasksByOwner_Empty", func(t *testing.T) { testListEmpty(t, newBackend(t)) })
	t.Run("UpdateTaskIfOwner_RoundTrip", func(t *testing.T) { testUpdateRoundTrip(t, newBackend(t)) })
	t.Run("UpdateTaskIfOwner_OtherOwner", func(t *testing.T) { testUpdateOtherOwner(t, newBackend(t)) })
	t.Run("UpdateTaskIfOwner_Missing", func(t *testing.T) { testUpdateMissing(t, newBackend(t)) })
	t.Run("DeleteTaskIfOwner", func(t *testing.T) { testDelete(t, newBackend(t)) })
	t.Run("DeleteTaskIfOwner_OtherOwner", func(t *testing.T) { testDeleteOtherOwner(t, newBackend(t)) })
}

func mustCreateUser(t *testing.T, s store.Backend, username string) *model.User {
	t.Helper()
	u := testutil.NewTestUser(t, username)
	if err := s.CreateUser(context.Background(), u); err != nil {
		t.Fatalf("CreateUser(%q) failed: %v", username, err)
	}
	return u
}

func mustCreateTask(t *testing.T, s store.Backend, ownerID, title string) *model.Task {
	t.Helper()
	task := testutil.NewTestTask(t, ownerID, title)
	if err := s.CreateTask(context.Background(), task); err != nil {
		t.Fatalf("CreateTask(%q) failed: %v", title, err)
	}
	return task
}

func testCreateAndGetUser(t *testing.T, s store.Backend) {
	u := mustCreateUser(t, s, "alice")

	got, err := s.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if got.ID != u.ID {
		t.Errorf("ID mismatch: got %q, want %q", got.ID, u.ID)
	}
	if got.PasswordHash != u.PasswordHash {
		t.Errorf("PasswordHash mismatch: got %q, want %q", got.PasswordHash, u.PasswordHash)
	}
}

func testDuplicateUsername(t *testing.T, s store.Backend) {
	first := mustCreateUser(t, s, "alice")

	err := s.CreateUser(context.Background(), testutil.NewTestUser(t, "alice"))
	if !errors.Is(err, store.ErrUsernameTaken) {
		t.Fatalf("expected ErrUsernameTaken, got %v", err)
	}

	got, err := s.GetUserByUsername(context.Background(), "alice")
	if err != nil {
		t.Fatalf("GetUserByUsername failed: %v", err)
	}
	if got.ID != first.ID {
		t.Errorf("first registration was overwritten: got ID %q, want %q", got.ID, first.ID)
	}
}

func testConcurrentDuplicate(t *testing.T, s store.Backend) {
	const workers = 8

	var (
		wg        sync.WaitGroup
		mu        sync.Mutex
		succeeded int
		conflicts int
	)

	for i := 0; i < workers; i++ {
		wg.Add(1)
		go func() {
			defer wg.Done()
			err := s.CreateUser(context.Background(), testutil.NewTestUser(t, "racer"))
			mu.Lock()
			defer mu.Unlock()
			switch {
			case err == nil:
				succeeded++
			case errors.Is(err, store.ErrUsernameTaken):
				conflicts++
			default:
				t.Errorf("unexpected error: %v", err)
			}
		}()
	}
	wg.Wait()

	if succeeded != 1 {
		t.Errorf("expected exactly one successful registration, got %d", succeeded)
	}
	if conflicts != workers-1 {
		t.Errorf("expected %d conflicts, got %d", workers-1, conflicts)
	}
}

func testUserNotFound(t *testing.T, s store.Backend) {
	_, err := s.GetUserByUsername(context.Background(), "nobody")
	if !errors.Is(err, store.ErrUserNotFound) {
		t.Errorf("expected ErrUserNotFound, got %v", err)
	}
}

func testListIsolation(t *testing.T, s store.Backend) {
	ctx := context.Background()
	alice := mustCreateUser(t, s, "alice")
	bob := mustCreateUser(t, s, "bob")

	first := mustCreateTask(t, s, alice.ID, "first")
	time.Sleep(2 * time.Millisecond)
	second := mustCreateTask(t, s, alice.ID, "second")
	mustCreateTask(t, s, bob.ID, "bob's")

	tasks, err := s.ListTasksByOwner(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListTasksByOwner failed: %v", err)
	}
	if len(tasks) != 2 {
		t.Fatalf("expected 2 tasks for alice, got %d", len(tasks))
	}
	if tasks[0].ID != first.ID || tasks[1].ID != second.ID {
		t.Errorf("tasks not in creation order: %q, %q", tasks[0].Title, tasks[1].Title)
	}
	for _, task := range tasks {
		if task.OwnerID != alice.ID {
			t.Errorf("task %q has owner %q, want %q", task.ID, task.OwnerID, alice.ID)
		}
	}

	bobTasks, err := s.ListTasksByOwner(ctx, bob.ID)
	if err != nil {
		t.Fatalf("ListTasksByOwner failed: %v", err)
	}
	if len(bobTasks) != 1 || bobTasks[0].Title != "bob's" {
		t.Errorf("bob should see only his own task, got %+v", bobTasks)
	}
}

func testListEmpty(t *testing.T, s store.Backend) {
	alice := mustCreateUser(t, s, "alice")

	tasks, err := s.ListTasksByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListTasksByOwner failed: %v", err)
	}
	if tasks == nil {
		t.Error("expected empty slice, got nil")
	}
	if len(tasks) != 0 {
		t.Errorf("expected 0 tasks, got %d", len(tasks))
	}
}

func testUpdateRoundTrip(t *testing.T, s store.Backend) {
	alice := mustCreateUser(t, s, "alice")
	task := mustCreateTask(t, s, alice.ID, "Buy milk")

	done := true
	updated, err := s.UpdateTaskIfOwner(context.Background(), task.ID, alice.ID, model.TaskPatch{Completed: &done})
	if err != nil {
		t.Fatalf("UpdateTaskIfOwner failed: %v", err)
	}
	if !updated.Completed {
		t.Error("expected completed=true")
	}
	if updated.Title != "Buy milk" {
		t.Errorf("title changed: got %q", updated.Title)
	}
	if updated.UpdatedAt.Before(task.UpdatedAt) {
		t.Errorf("UpdatedAt went backwards: %v < %v", updated.UpdatedAt, task.UpdatedAt)
	}

	title := "Buy oat milk"
	updated, err = s.UpdateTaskIfOwner(context.Background(), task.ID, alice.ID, model.TaskPatch{Title: &title})
	if err != nil {
		t.Fatalf("UpdateTaskIfOwner failed: %v", err)
	}
	if updated.Title != title || !updated.Completed {
		t.Errorf("unexpected task after title update: %+v", updated)
	}
}

func testUpdateOtherOwner(t *testing.T, s store.Backend) {
	alice := mustCreateUser(t, s, "alice")
	bob := mustCreateUser(t, s, "bob")
	task := mustCreateTask(t, s, alice.ID, "private")

	title := "hijacked"
	_, err := s.UpdateTaskIfOwner(context.Background(), task.ID, bob.ID, model.TaskPatch{Title: &title})
	if !errors.Is(err, store.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	tasks, err := s.ListTasksByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListTasksByOwner failed: %v", err)
	}
	if len(tasks) != 1 || tasks[0].Title != "private" {
		t.Errorf("alice's task was modified: %+v", tasks)
	}
}

func testUpdateMissing(t *testing.T, s store.Backend) {
	alice := mustCreateUser(t, s, "alice")

	done := true
	_, err := s.UpdateTaskIfOwner(context.Background(), ulid.Make().String(), alice.ID, model.TaskPatch{Completed: &done})
	if !errors.Is(err, store.ErrTaskNotFound) {
		t.Errorf("expected ErrTaskNotFound, got %v", err)
	}
}

func testDelete(t *testing.T, s store.Backend) {
	alice := mustCreateUser(t, s, "alice")
	task := mustCreateTask(t, s, alice.ID, "Test")

	if err := s.DeleteTaskIfOwner(context.Background(), task.ID, alice.ID); err != nil {
		t.Fatalf("DeleteTaskIfOwner failed: %v", err)
	}

	tasks, err := s.ListTasksByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListTasksByOwner failed: %v", err)
	}
	if len(tasks) != 0 {
		t.Errorf("expected empty list after delete, got %d tasks", len(tasks))
	}

	err = s.DeleteTaskIfOwner(context.Background(), task.ID, alice.ID)
	if !errors.Is(err, store.ErrTaskNotFound) {
		t.Errorf("second delete: expected ErrTaskNotFound, got %v", err)
	}
}

func testDeleteOtherOwner(t *testing.T, s store.Backend) {
	alice := mustCreateUser(t, s, "alice")
	bob := mustCreateUser(t, s, "bob")
	task := mustCreateTask(t, s, alice.ID, "keep me")

	err := s.DeleteTaskIfOwner(context.Background(), task.ID, bob.ID)
	if !errors.Is(err, store.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	tasks, err := s.ListTasksByOwner(context.Background(), alice.ID)
	if err != nil {
		t.Fatalf("ListTasksByOwner failed: %v", err)
	}
	if len(tasks) != 1 {
		t.Errorf("alice's task should survive bob's delete, got %d tasks", len(tasks))
	}
}
