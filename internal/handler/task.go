package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/tasklist/tasklist/internal/auth"
	"github.com/tasklist/tasklist/internal/handler/dto"
	"github.com/tasklist/tasklist/internal/service"
)

// TaskHandler handles HTTP requests for task operations.
// The owner always comes from the auth context set by middleware.Auth.
type TaskHandler struct {
	svc    *service.TaskService
	logger *slog.Logger
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc *service.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		svc:    svc,
		logger: logger,
	}
}

// List handles GET /api/tasks.
func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	tasks, err := h.svc.List(r.Context(), ownerID(r))
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskListResponse(tasks))
}

// Create handles POST /api/tasks.
func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req dto.CreateTaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	task, err := h.svc.Create(r.Context(), ownerID(r), service.CreateTaskInput{
		Title:     req.Title,
		Completed: req.Completed,
	})
	if err != nil {
		handleServiceError(w, h.logger, err)
		return
	}

	h.logger.Info("task_created",
		"task_id", task.ID,
		"owner_id", task.OwnerID,
	)

	writeJSON(w, http.StatusCreated, dto.ToTaskResponse(task))
}

// Update handles PUT /api/tasks/{id}.
// A task that is absent or owned by someone else yields 200 with a null body.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	var req dto.UpdateTaskRequest
	if !decodeOptionalJSON(w, r, &req) {
		return
	}

	task, err := h.svc.Update(r.Context(), ownerID(r), id, req.ToPatch())
	if err != nil {
		if errors.Is(err, service.ErrTaskNotFound) {
			writeJSON(w, http.StatusOK, nil)
			return
		}
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.ToTaskResponse(task))
}

// Delete handles DELETE /api/tasks/{id}.
// The response is the same whether or not the caller owned a task with that id.
func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	err := h.svc.Delete(r.Context(), ownerID(r), id)
	if err != nil && !errors.Is(err, service.ErrTaskNotFound) {
		handleServiceError(w, h.logger, err)
		return
	}

	writeJSON(w, http.StatusOK, dto.MessageResponse{Message: "Task deleted"})
}

// ownerID returns the caller set by middleware.Auth. Task routes are only mounted behind it.
func ownerID(r *http.Request) string {
	return auth.MustAuthFromContext(r.Context()).UserID
}
