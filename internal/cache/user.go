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

// userKeyPrefix is the Redis key prefix for user hashes, keyed by username.
const userKeyPrefix = "user:"

// CachedUser represents user data stored in a Redis hash.
type CachedUser struct {
	ID           string `redis:"id"`
	PasswordHash string `redis:"password_hash"`
	CreatedAt    string `redis:"created_at"` // Unix nanoseconds
}

// createUserScript inserts the user hash only if the username key is absent.
// Returns 1 on insert, 0 if the username is taken.
var createUserScript = redis.NewScript(`
	if redis.call('EXISTS', KEYS[1]) == 1 then
		return 0
	end
	redis.call('HSET', KEYS[1], 'id', ARGV[1], 'password_hash', ARGV[2], 'created_at', ARGV[3])
	return 1
`)

// CreateUser stores a user keyed by username.
func (c *Cache) CreateUser(ctx context.Context, user *model.User) error {
	created, err := createUserScript.Run(ctx, c.client,
		[]string{userKeyPrefix + user.Username},
		user.ID,
		user.PasswordHash,
		strconv.FormatInt(user.CreatedAt.UnixNano(), 10),
	).Int()
	if err != nil {
		return fmt.Errorf("failed to create user: %w", err)
	}

	if created == 0 {
		return store.ErrUsernameTaken
	}
	return nil
}

// GetUserByUsername retrieves a user by username.
func (c *Cache) GetUserByUsername(ctx context.Context, username string) (*model.User, error) {
	cmd := c.client.HGetAll(ctx, userKeyPrefix+username)
	result, err := cmd.Result()
	if err != nil && !errors.Is(err, redis.Nil) {
		return nil, fmt.Errorf("failed to get user by username: %w", err)
	}
	if len(result) == 0 {
		return nil, store.ErrUserNotFound
	}

	var cached CachedUser
	if err := cmd.Scan(&cached); err != nil {
		return nil, fmt.Errorf("failed to decode user: %w", err)
	}

	user := &model.User{
		ID:           cached.ID,
		Username:     username,
		PasswordHash: cached.PasswordHash,
	}
	if ns, err := strconv.ParseInt(cached.CreatedAt, 10, 64); err == nil {
		user.CreatedAt = time.Unix(0, ns).UTC()
	}

	return user, nil
}
