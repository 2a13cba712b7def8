//go:build integration

package cache

import (
	"context"
	"errors"
	"testing"

	"github.com/redis/go-redis/v9"

	"github.com/tasklist/tasklist/internal/store"
	"github.com/tasklist/tasklist/internal/store/storetest"
	"github.com/tasklist/tasklist/internal/testutil"
)

// ============================================================================
// Redis Backend Integration Tests
// ============================================================================

func TestIntegrationCache_Contract(t *testing.T) {
	storetest.Run(t, func(t *testing.T) store.Backend {
		_, c := newCacheTestEnv(t)
		return c
	})
}

func TestIntegrationCache_DeleteRemovesIndexEntry(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	user := testutil.NewTestUser(t, "alice")
	if err := c.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	task := testutil.NewTestTask(t, user.ID, "Test")
	if err := c.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}

	if err := c.DeleteTaskIfOwner(ctx, task.ID, user.ID); err != nil {
		t.Fatalf("DeleteTaskIfOwner failed: %v", err)
	}

	n, err := c.Client().ZCard(ctx, ownerTasksKeyPrefix+user.ID).Result()
	if err != nil {
		t.Fatalf("ZCard failed: %v", err)
	}
	if n != 0 {
		t.Errorf("owner index still holds %d entries after delete", n)
	}

	exists, err := c.Client().Exists(ctx, taskKeyPrefix+task.ID).Result()
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists != 0 {
		t.Error("task hash should be gone after delete")
	}
}

func TestIntegrationCache_UpdateDoesNotResurrectDeletedTask(t *testing.T) {
	ctx, c := newCacheTestEnv(t)

	user := testutil.NewTestUser(t, "alice")
	if err := c.CreateUser(ctx, user); err != nil {
		t.Fatalf("CreateUser failed: %v", err)
	}
	task := testutil.NewTestTask(t, user.ID, "Test")
	if err := c.CreateTask(ctx, task); err != nil {
		t.Fatalf("CreateTask failed: %v", err)
	}
	if err := c.DeleteTaskIfOwner(ctx, task.ID, user.ID); err != nil {
		t.Fatalf("DeleteTaskIfOwner failed: %v", err)
	}

	title := "zombie"
	_, err := c.UpdateTaskIfOwner(ctx, task.ID, user.ID, testPatch(&title))
	if !errors.Is(err, store.ErrTaskNotFound) {
		t.Fatalf("expected ErrTaskNotFound, got %v", err)
	}

	exists, err := c.Client().Exists(ctx, taskKeyPrefix+task.ID).Result()
	if err != nil {
		t.Fatalf("Exists failed: %v", err)
	}
	if exists != 0 {
		t.Error("update must not recreate a deleted task hash")
	}
}

// ============================================================================
// Test Environment Setup
// ============================================================================

func newCacheTestEnv(t *testing.T) (context.Context, *Cache) {
	t.Helper()
	if testing.Short() {
		t.Skip("skipping integration tests in short mode")
	}

	ctx := context.Background()
	redisURL := testutil.RequireEnv(t, "REDIS_URL")

	opt, err := redis.ParseURL(redisURL)
	if err != nil {
		t.Fatalf("parse redis url: %v", err)
	}
	client := redis.NewClient(opt)
	t.Cleanup(func() {
		_ = client.Close()
	})

	if err := testutil.FlushRedis(ctx, client); err != nil {
		t.Fatalf("flush redis: %v", err)
	}

	return ctx, NewWithClient(client)
}
