package repository

import (
	"context"
	"errors"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"

	"github.com/tasklist/tasklist/internal/model"
	"github.com/tasklist/tasklist/internal/store"
)

const taskColumns = `id, owner_id, title, completed, created_at, updated_at`

// CreateTask inserts a new task into the database.
func (r *Repository) CreateTask(ctx context.Context, task *model.Task) error {
	query := `
		INSERT INTO tasks (` + taskColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6)
	`

	_, err := r.pool.Exec(ctx, query,
		task.ID,
		task.OwnerID,
		task.Title,
		task.Completed,
		task.CreatedAt,
		task.UpdatedAt,
	)
	if err != nil {
		if isForeignKeyViolation(err) {
			return store.ErrOwnerNotFound
		}
		return fmt.Errorf("failed to create task: %w", err)
	}

	return nil
}

// ListTasksByOwner retrieves all tasks of an owner, oldest first.
func (r *Repository) ListTasksByOwner(ctx context.Context, ownerID string) ([]*model.Task, error) {
	query := `
		SELECT ` + taskColumns + `
		FROM tasks
		WHERE owner_id = $1
		ORDER BY created_at ASC, id ASC
	`

	rows, err := r.pool.Query(ctx, query, ownerID)
	if err != nil {
		return nil, fmt.Errorf("failed to list tasks: %w", err)
	}
	defer rows.Close()

	tasks := make([]*model.Task, 0)
	for rows.Next() {
		task, err := scanTask(rows)
		if err != nil {
			return nil, fmt.Errorf("failed to scan task: %w", err)
		}
		tasks = append(tasks, task)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate tasks: %w", err)
	}

	return tasks, nil
}

// UpdateTaskIfOwner applies patch in a single statement filtered by id and owner.
// COALESCE keeps columns whose patch field is nil.
func (r *Repository) UpdateTaskIfOwner(ctx context.Context, id, ownerID string, patch model.TaskPatch) (*model.Task, error) {
	query := `
		UPDATE tasks
		SET title      = COALESCE($3, title),
		    completed  = COALESCE($4, completed),
		    updated_at = $5
		WHERE id = $1 AND owner_id = $2
		RETURNING ` + taskColumns

	task, err := scanTask(r.pool.QueryRow(ctx, query,
		id,
		ownerID,
		patch.Title,
		patch.Completed,
		time.Now().UTC(),
	))
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, store.ErrTaskNotFound
		}
		return nil, fmt.Errorf("failed to update task: %w", err)
	}

	return task, nil
}

// DeleteTaskIfOwner deletes a task filtered by id and owner.
func (r *Repository) DeleteTaskIfOwner(ctx context.Context, id, ownerID string) error {
	query := `DELETE FROM tasks WHERE id = $1 AND owner_id = $2`

	tag, err := r.pool.Exec(ctx, query, id, ownerID)
	if err != nil {
		return fmt.Errorf("failed to delete task: %w", err)
	}

	if tag.RowsAffected() == 0 {
		return store.ErrTaskNotFound
	}

	return nil
}

// scanTask scans a single task row.
func scanTask(row pgx.Row) (*model.Task, error) {
	var task model.Task
	err := row.Scan(
		&task.ID,
		&task.OwnerID,
		&task.Title,
		&task.Completed,
		&task.CreatedAt,
		&task.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &task, nil
}
