package cache

import (
	"context"
	"errors"
	"fmt"
	"strconv"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/tasklist/tasklist/internal/model"
	"github.com/tasklist/tasklist/internal/store"
)

// Key prefixes for task data.
const (
	// taskKeyPrefix is the Redis key prefix for task hashes.
	taskKeyPrefix = "task:"
	// ownerTasksKeyPrefix is the sorted set of task IDs per owner, scored by creation time.
	ownerTasksKeyPrefix = "tasks:owner:"
)

// updateTaskScript patches a task hash only when owner_id matches.
// KEYS[1] task key. ARGV: owner, has_title, title, has_completed, completed, updated_at.
// Returns the full hash, or false when the task is missing or owned by someone else.
var updateTaskScript = redis.NewScript(`
	local owner = redis.call('HGET', KEYS[1], 'owner_id')
	if not owner or owner ~= ARGV[1] then
		return false
	end
	if ARGV[2] == '1' then
		redis.call('HSET', KEYS[1], 'title', ARGV[3])
	end
	if ARGV[4] == '1' then
		redis.call('HSET', KEYS[1], 'completed', ARGV[5])
	end
	redis.call('HSET', KEYS[1], 'updated_at', ARGV[6])
	return redis.call('HGETALL', KEYS[1])
`)

// deleteTaskScript removes a task and its index entry only when owner_id matches.
// KEYS[1] task key, KEYS[2] owner index. ARGV[1] owner, ARGV[2] task id.
var deleteTaskScript = redis.NewScript(`
	local owner = redis.call('HGET', KEYS[1], 'owner_id')
	if not owner or owner ~= ARGV[1] then
		return 0
	end
	redis.call('DEL', KEYS[1])
	redis.call('ZREM', KEYS[2], ARGV[2])
	return 1
`)

// CreateTask stores the task hash and indexes it under its owner in one transaction.
func (c *Cache) CreateTask(ctx context.Context, task *model.Task) error {
	cached := task.ToCachedTask()

	_, err := c.client.TxPipelined(ctx, func(pipe redis.Pipeliner) error {
		pipe.HSet(ctx, taskKeyPrefix+task.ID, map[string]any{
			"owner_id":   cached.OwnerID,
			"title":      cached.Title,
			"completed":  cached.Completed,
			"created_at": cached.CreatedAt,
			"updated_at": cached.UpdatedAt,
		})
		pipe.ZAdd(ctx, ownerTasksKeyPrefix+task.OwnerID, redis.Z{
			Score:  float64(task.CreatedAt.UnixMicro()),
			Member: task.ID,
		})
		return nil
	})
	if err != nil {
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// ListTasksByOwner returns the owner's tasks, oldest first.
// Tasks deleted between reading the index and the hashes are skipped.
func (c *Cache) ListTasksByOwner(ctx context.Context, ownerID string) ([]*model.Task, error) {
	ids, err := c.client.ZRange(ctx, ownerTasksKeyPrefix+ownerID, 0, -1).Result()
	if err != nil {
		return nil, fmt.Errorf("failed to list task ids: %w", err)
	}

	tasks := make([]*model.Task, 0, len(ids))
	if len(ids) == 0 {
		return tasks, nil
	}

	cmds := make([]*redis.MapStringStringCmd, len(ids))
	_, err = c.client.Pipelined(ctx, func(pipe redis.Pipeliner) error {
		for i, id := range ids {
			cmds[i] = pipe.HGetAll(ctx, taskKeyPrefix+id)
		}
		return nil
	})
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to load tasks: %w", err)
	}

	for i, cmd := range cmds {
		fields, err := cmd.Result()
		if err != nil || len(fields) == 0 {
			continue
		}

		var cached model.CachedTask
		if err := cmd.Scan(&cached); err != nil {
			return nil, fmt.Errorf("failed to decode task: %w", err)
		}
		if cached.OwnerID != ownerID {
			continue
		}
		tasks = append(tasks, cached.ToTask(ids[i]))
	}

	return tasks, nil
}

// UpdateTaskIfOwner applies patch atomically when the task belongs to ownerID.
func (c *Cache) UpdateTaskIfOwner(ctx context.Context, id, ownerID string, patch model.TaskPatch) (*model.Task, error) {
	hasTitle, title := "0", ""
	if patch.Title != nil {
		hasTitle, title = "1", *patch.Title
	}
	hasCompleted, completed := "0", "0"
	if patch.Completed != nil {
		hasCompleted = "1"
		if *patch.Completed {
			completed = "1"
		}
	}

	raw, err := updateTaskScript.Run(ctx, c.client,
		[]string{taskKeyPrefix + id},
		ownerID,
		hasTitle, title,
		hasCompleted, completed,
		strconv.FormatInt(time.Now().UTC().UnixNano(), 10),
	).StringSlice()
	if err != nil {
		if errors.Is(err, redis.Nil) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return cachedTaskFromPairs(id, raw), nil
}

// DeleteTaskIfOwner removes the task atomically when it belongs to ownerID.
func (c *Cache) DeleteTaskIfOwner(ctx context.Context, id, ownerID string) error {
	deleted, err := deleteTaskScript.Run(ctx, c.client,
		[]string{taskKeyPrefix + id, ownerTasksKeyPrefix + ownerID},
		ownerID, id,
	).Int()
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if deleted == 0 {
		return store.ErrTaskNotFound
	}
	return nil
}

// cachedTaskFromPairs decodes a flat HGETALL reply.
func cachedTaskFromPairs(id string, pairs []string) *model.Task {
	fields := make(map[string]string, len(pairs)/2)
	for i := 0; i+1 < len(pairs); i += 2 {
		fields[pairs[i]] = pairs[i+1]
	}

	cached := &model.CachedTask{
		OwnerID:   fields["owner_id"],
		Title:     fields["title"],
		Completed: fields["completed"],
		CreatedAt: fields["created_at"],
		UpdatedAt: fields["updated_at"],
	}
	return cached.ToTask(id)
}
