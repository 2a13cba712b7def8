package dto

import (
	"time"

	"github.com/tasklist/tasklist/internal/model"
)

// CreateTaskRequest is the body of POST /api/tasks.
type CreateTaskRequest struct {
	Title     string `json:"title"`
	Completed bool   `json:"completed"`
}

// UpdateTaskRequest is the body of PUT /api/tasks/{id}. Absent fields are unchanged.
type UpdateTaskRequest struct {
	Title     *string `json:"title"`
	Completed *bool   `json:"completed"`
}

// ToPatch converts the request into a model.TaskPatch.
func (r UpdateTaskRequest) ToPatch() model.TaskPatch {
	return model.TaskPatch{
		Title:     r.Title,
		Completed: r.Completed,
	}
}

// TaskResponse represents a task in API responses.
type TaskResponse struct {
	ID        string    `json:"id"`
	OwnerID   string    `json:"owner_id"`
	Title     string    `json:"title"`
	Completed bool      `json:"completed"`
	CreatedAt time.Time `json:"created_at"`
	UpdatedAt time.Time `json:"updated_at"`
}

// ToTaskResponse converts a Task model to TaskResponse DTO.
func ToTaskResponse(task *model.Task) *TaskResponse {
	return &TaskResponse{
		ID:        task.ID,
		OwnerID:   task.OwnerID,
		Title:     task.Title,
		Completed: task.Completed,
		CreatedAt: task.CreatedAt,
		UpdatedAt: task.UpdatedAt,
	}
}

// ToTaskListResponse converts tasks to a JSON array. An empty list encodes as [].
func ToTaskListResponse(tasks []*model.Task) []*TaskResponse {
	out := make([]*TaskResponse, 0, len(tasks))
	for _, task := range tasks {
		out = append(out, ToTaskResponse(task))
	}
	return out
}
