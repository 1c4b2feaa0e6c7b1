package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/taskpilot/taskpilot-be/internal/http/respond"
	"github.com/taskpilot/taskpilot-be/internal/middleware"
	"github.com/taskpilot/taskpilot-be/internal/models"
	"github.com/taskpilot/taskpilot-be/internal/models/dto"
	"github.com/taskpilot/taskpilot-be/internal/storage"
	"github.com/taskpilot/taskpilot-be/internal/tasks"
)

// TasksHandler owns the ownership-scoped task CRUD endpoints. Every route it
// registers sits behind the auth guard; the owning user id is always taken
// from the request identity, never from the payload.
type TasksHandler struct {
	svc    *tasks.Service
	logger *slog.Logger
}

// NewTasksHandler constructs the handler.
func NewTasksHandler(svc *tasks.Service, logger *slog.Logger) *TasksHandler {
	return &TasksHandler{svc: svc, logger: logger}
}

// Register attaches task routes to the mux.
func (h *TasksHandler) Register(mux *http.ServeMux) {
	mux.HandleFunc("POST /tasks", h.handleCreate)
	mux.HandleFunc("GET /tasks", h.handleList)
	mux.HandleFunc("GET /tasks/{id}", h.handleGet)
	mux.HandleFunc("PATCH /tasks/{id}", h.handleUpdate)
	mux.HandleFunc("DELETE /tasks/{id}", h.handleDelete)
}

func (h *TasksHandler) handleCreate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	var req dto.CreateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if strings.TrimSpace(req.Title) == "" {
		respond.Error(w, http.StatusBadRequest, "title is required")
		return
	}
	if req.Status != "" && !req.Status.Valid() {
		respond.Error(w, http.StatusBadRequest, invalidStatusMessage())
		return
	}

	task, err := h.svc.Create(r.Context(), tasks.CreateFields{
		Title:       strings.TrimSpace(req.Title),
		Description: req.Description,
		Status:      req.Status,
	}, identity.ID)
	if err != nil {
		respond.Failure(w, r, h.logger, err)
		return
	}

	respond.OK(w, http.StatusCreated, "task created", task)
}

func (h *TasksHandler) handleList(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}

	list, err := h.svc.List(r.Context(), identity.ID)
	if err != nil {
		respond.Failure(w, r, h.logger, err)
		return
	}

	respond.OK(w, http.StatusOK, "tasks retrieved", list)
}

func (h *TasksHandler) handleGet(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	task, err := h.svc.Get(r.Context(), id, identity.ID)
	if err != nil {
		if errors.Is(err, storage.ErrNotFound) {
			respond.Error(w, http.StatusNotFound, "task not found")
			return
		}
		respond.Failure(w, r, h.logger, err)
		return
	}

	respond.OK(w, http.StatusOK, "task retrieved", task)
}

func (h *TasksHandler) handleUpdate(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	var req dto.UpdateTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respond.Error(w, http.StatusBadRequest, "invalid JSON payload")
		return
	}
	if req.Title != nil && strings.TrimSpace(*req.Title) == "" {
		respond.Error(w, http.StatusBadRequest, "title cannot be empty")
		return
	}
	if req.Status != nil && !req.Status.Valid() {
		respond.Error(w, http.StatusBadRequest, invalidStatusMessage())
		return
	}

	task, err := h.svc.Update(r.Context(), id, storage.TaskUpdate{
		Title:       req.Title,
		Description: req.Description,
		Status:      req.Status,
	}, identity.ID)
	if err != nil {
		respond.Failure(w, r, h.logger, err)
		return
	}

	respond.OK(w, http.StatusOK, "task updated", task)
}

func (h *TasksHandler) handleDelete(w http.ResponseWriter, r *http.Request) {
	identity, ok := middleware.IdentityFrom(r.Context())
	if !ok {
		respond.Error(w, http.StatusUnauthorized, "unauthorized")
		return
	}
	id, ok := taskID(w, r)
	if !ok {
		return
	}

	if err := h.svc.Remove(r.Context(), id, identity.ID); err != nil {
		respond.Failure(w, r, h.logger, err)
		return
	}

	respond.OK(w, http.StatusOK, "task deleted", nil)
}

func taskID(w http.ResponseWriter, r *http.Request) (int64, bool) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil || id <= 0 {
		respond.Error(w, http.StatusBadRequest, "invalid task id")
		return 0, false
	}
	return id, true
}

func invalidStatusMessage() string {
	names := make([]string, len(models.Statuses))
	for i, s := range models.Statuses {
		names[i] = string(s)
	}
	return fmt.Sprintf("status must be one of: %s", strings.Join(names, ", "))
}
