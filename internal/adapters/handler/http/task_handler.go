package http

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strconv"
	"strings"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/taskpad/api/internal/core/domain"
	"github.com/taskpad/api/internal/core/ports"
)

// errBadPatch marks a patch body that is structurally wrong in a way no
// specific field message covers.
var errBadPatch = errors.New("bad patch body")

type TaskHandler struct {
	service ports.TaskService
	logger  *slog.Logger
}

func NewTaskHandler(service ports.TaskService, logger *slog.Logger) *TaskHandler {
	return &TaskHandler{
		service: service,
		logger:  logger,
	}
}

type createTaskRequest struct {
	Title       string `json:"title"`
	Description string `json:"description"`
}

func (h *TaskHandler) Create(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	var req createTaskRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, http.StatusBadRequest, "Bad request")
		return
	}

	task, err := h.service.Create(r.Context(), userID, req.Title, req.Description)
	if err != nil {
		if errors.Is(err, domain.ErrInvalidTitle) {
			respondError(w, http.StatusBadRequest, "Missing required field: title")
			return
		}
		h.logger.Error("create task failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	respondJSON(w, http.StatusCreated, task)
}

func (h *TaskHandler) Get(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	task, err := h.service.Get(r.Context(), taskID, userID)
	if err != nil {
		h.respondTaskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

// Update applies a partial patch. The body is decoded into a map so a field
// that is present with the wrong JSON type can be told apart from a field
// that was simply omitted.
func (h *TaskHandler) Update(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	var body map[string]interface{}
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		respondError(w, http.StatusBadRequest, "Bad request")
		return
	}

	patch, err := taskPatchFromBody(body)
	if err != nil {
		h.respondTaskError(w, err)
		return
	}

	task, err := h.service.Update(r.Context(), taskID, userID, patch)
	if err != nil {
		h.respondTaskError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, task)
}

func (h *TaskHandler) Delete(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	taskID, err := uuid.Parse(chi.URLParam(r, "id"))
	if err != nil {
		respondError(w, http.StatusNotFound, "Task not found")
		return
	}

	if err := h.service.Delete(r.Context(), taskID, userID); err != nil {
		h.respondTaskError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

func (h *TaskHandler) List(w http.ResponseWriter, r *http.Request) {
	userID, ok := r.Context().Value(UserIDKey).(uuid.UUID)
	if !ok {
		respondError(w, http.StatusUnauthorized, unauthorizedMessage)
		return
	}

	input := ports.ListTasksInput{
		Search: r.URL.Query().Get("search"),
		Sort:   r.URL.Query().Get("sort"),
		Order:  r.URL.Query().Get("order"),
		Page:   queryInt(r, "page", 1),
		Limit:  queryInt(r, "limit", 10),
	}

	// Present-but-empty is still an invalid value, so presence is checked
	// separately from the value itself.
	if values, present := r.URL.Query()["completed"]; present {
		completed, err := parseCompleted(values[0])
		if err != nil {
			respondError(w, http.StatusBadRequest, "Invalid 'completed' query parameter, use true/false")
			return
		}
		input.Completed = &completed
	}

	page, err := h.service.List(r.Context(), userID, input)
	if err != nil {
		h.logger.Error("list tasks failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Server error")
		return
	}

	if page.Items == nil {
		page.Items = []*domain.Task{}
	}
	respondJSON(w, http.StatusOK, page)
}

func (h *TaskHandler) respondTaskError(w http.ResponseWriter, err error) {
	switch {
	case errors.Is(err, domain.ErrTaskNotFound):
		respondError(w, http.StatusNotFound, "Task not found")
	case errors.Is(err, domain.ErrForbidden):
		respondJSON(w, http.StatusForbidden, map[string]string{"message": "Forbidden"})
	case errors.Is(err, domain.ErrInvalidTitle):
		respondError(w, http.StatusBadRequest, "Invalid title")
	case errors.Is(err, domain.ErrInvalidCompleted):
		respondError(w, http.StatusBadRequest, "completed must be boolean")
	case errors.Is(err, errBadPatch):
		respondError(w, http.StatusBadRequest, "Bad request")
	default:
		h.logger.Error("task operation failed", slog.String("error", err.Error()))
		respondError(w, http.StatusInternalServerError, "Server error")
	}
}

// taskPatchFromBody lifts the loosely typed JSON body into a typed patch.
// JSON null is treated the same as an absent field.
func taskPatchFromBody(body map[string]interface{}) (ports.TaskPatch, error) {
	var patch ports.TaskPatch

	if raw, present := body["title"]; present && raw != nil {
		title, ok := raw.(string)
		if !ok {
			return ports.TaskPatch{}, domain.ErrInvalidTitle
		}
		patch.Title = &title
	}
	if raw, present := body["description"]; present && raw != nil {
		description, ok := raw.(string)
		if !ok {
			return ports.TaskPatch{}, errBadPatch
		}
		patch.Description = &description
	}
	if raw, present := body["completed"]; present && raw != nil {
		completed, ok := raw.(bool)
		if !ok {
			return ports.TaskPatch{}, domain.ErrInvalidCompleted
		}
		patch.Completed = &completed
	}

	return patch, nil
}

func parseCompleted(raw string) (bool, error) {
	switch strings.ToLower(raw) {
	case "true", "1":
		return true, nil
	case "false", "0":
		return false, nil
	default:
		return false, domain.ErrInvalidCompleted
	}
}

func queryInt(r *http.Request, name string, fallback int) int {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.Atoi(raw)
	if err != nil {
		return fallback
	}
	return value
}
