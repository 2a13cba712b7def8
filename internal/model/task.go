package model

import (
	"strconv"
	"time"
)

// Task is a to-do item owned by exactly one user.
type Task struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// TaskPatch holds the mutable task fields. Nil fields are left unchanged.
type TaskPatch struct {
	Title     *string
	Completed *bool
}

// IsEmpty reports whether the patch changes nothing.
func (p TaskPatch) IsEmpty() bool {
	return p.Title == nil && p.Completed == nil
}

// Apply writes the patch onto the task and bumps UpdatedAt.
func (p TaskPatch) Apply(t *Task, now time.Time) {
	if p.Title != nil {
		t.Title = *p.Title
	}
	if p.Completed != nil {
		t.Completed = *p.Completed
	}
	t.UpdatedAt = now
}

// CachedTask represents task data stored in a Redis hash.
// Uses string types for Redis hash compatibility.
type CachedTask struct {
	OwnerID   string `redis:"owner_id"`
	Title     string `redis:"title"`
	Completed string `redis:"completed"`  // "1" or "0"
	CreatedAt string `redis:"created_at"` // Unix nanoseconds
	UpdatedAt string `redis:"updated_at"` // Unix nanoseconds
}

// ToTask converts CachedTask to the Task domain model.
func (c *CachedTask) ToTask(id string) *Task {
	task := &Task{
		ID:        id,
		OwnerID:   c.OwnerID,
		Title:     c.Title,
		Completed: c.Completed == "1",
	}

	if ns, err := strconv.ParseInt(c.CreatedAt, 10, 64); err == nil {
		task.CreatedAt = time.Unix(0, ns).UTC()
	}
	if ns, err := strconv.ParseInt(c.UpdatedAt, 10, 64); err == nil {
		task.UpdatedAt = time.Unix(0, ns).UTC()
	}

	return task
}

// ToCachedTask converts Task to its Redis hash representation.
func (t *Task) ToCachedTask() *CachedTask {
	return &CachedTask{
		OwnerID:   t.OwnerID,
		Title:     t.Title,
		Completed: boolToString(t.Completed),
		CreatedAt: strconv.FormatInt(t.CreatedAt.UnixNano(), 10),
		UpdatedAt: strconv.FormatInt(t.UpdatedAt.UnixNano(), 10),
	}
}

// boolToString converts boolean to "1" or "0".
func boolToString(b bool) string {
	if b {
		return "1"
	}
	return "0"
}
