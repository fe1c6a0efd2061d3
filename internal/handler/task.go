package handler

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/daybook/daybook-go/internal/model"
	"github.com/daybook/daybook-go/internal/service"
	"github.com/daybook/daybook-go/internal/session"
	"github.com/daybook/daybook-go/internal/streak"
)

// TaskManager is the task behaviour the handlers depend on.
type TaskManager interface {
	Create(ctx context.Context, userID string, req model.TaskRequest) (service.TaskMutation, error)
	Update(ctx context.Context, userID, id string, req model.TaskRequest) (service.TaskMutation, error)
	Delete(ctx context.Context, userID, id string) error
	List(ctx context.Context, userID string, from, to time.Time) ([]model.Task, error)
	Stats(ctx context.Context, userID string) (model.TaskStats, error)
}

// TaskHandler handles HTTP requests for calendar tasks.
type TaskHandler struct {
	service  TaskManager
	sessions *session.Store
}

// NewTaskHandler creates a new TaskHandler.
func NewTaskHandler(svc TaskManager, sessions *session.Store) *TaskHandler {
	return &TaskHandler{service: svc, sessions: sessions}
}

// HandleCreate handles POST /api/tasks requests.
func (h *TaskHandler) HandleCreate(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req model.TaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.service.Create(r.Context(), cur.UserID, req)
	if err != nil {
		writeTaskError(w, r, err)
		return
	}

	h.writeMutation(w, cur, http.StatusCreated, m)
}

// HandleUpdate handles PUT /api/tasks/{id} requests.
func (h *TaskHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	var req model.TaskRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	m, err := h.service.Update(r.Context(), cur.UserID, chi.URLParam(r, "id"), req)
	if err != nil {
		writeTaskError(w, r, err)
		return
	}

	h.writeMutation(w, cur, http.StatusOK, m)
}

// HandleDelete handles DELETE /api/tasks/{id} requests.
func (h *TaskHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	if err := h.service.Delete(r.Context(), cur.UserID, chi.URLParam(r, "id")); err != nil {
		writeTaskError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// HandleList handles GET /api/tasks requests. Optional from and to query
// parameters are RFC 3339 timestamps bounding the start time.
func (h *TaskHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	from, err := parseTimeParam(r, "from")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("from must be an RFC 3339 timestamp"))
		return
	}
	to, err := parseTimeParam(r, "to")
	if err != nil {
		writeJSON(w, http.StatusBadRequest, errorResponse("to must be an RFC 3339 timestamp"))
		return
	}

	tasks, err := h.service.List(r.Context(), cur.UserID, from, to)
	if err != nil {
		writeTaskError(w, r, err)
		return
	}

	resp := make([]model.TaskResponse, 0, len(tasks))
	for _, t := range tasks {
		resp = append(resp, toTaskResponse(t))
	}
	writeJSON(w, http.StatusOK, resp)
}

// HandleStats handles GET /api/tasks/stats requests.
func (h *TaskHandler) HandleStats(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	stats, err := h.service.Stats(r.Context(), cur.UserID)
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// writeMutation responds with the task and, when the streak moved, refreshes
// the profile cookie so the client sees the new count.
func (h *TaskHandler) writeMutation(w http.ResponseWriter, cur session.Current, status int, m service.TaskMutation) {
	resp := model.TaskMutationResponse{Task: toTaskResponse(*m.Task)}
	if m.Streak != nil {
		resp.Streak = m.Streak.Response()
		h.refreshProfile(w, cur, m.Streak)
	}
	writeJSON(w, status, resp)
}

func (h *TaskHandler) refreshProfile(w http.ResponseWriter, cur session.Current, res *streak.Result) {
	if !res.Updated || res.User == nil {
		return
	}
	if err := h.sessions.RefreshProfile(w, cur, res.User.Profile()); err != nil {
		slog.Warn("refreshing profile cookie failed", "user_id", cur.UserID, "error", err)
	}
}

func writeTaskError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, service.ErrTitleRequired),
		errors.Is(err, service.ErrStartRequired),
		errors.Is(err, service.ErrInvalidStatus),
		errors.Is(err, service.ErrInvalidRange):
		writeJSON(w, http.StatusBadRequest, errorResponse(err.Error()))
	case errors.Is(err, service.ErrTaskNotFound):
		writeJSON(w, http.StatusNotFound, errorResponse(err.Error()))
	default:
		writeInternal(w, r, err)
	}
}

func parseTimeParam(r *http.Request, name string) (time.Time, error) {
	v := r.URL.Query().Get(name)
	if v == "" {
		return time.Time{}, nil
	}
	return time.Parse(time.RFC3339, v)
}

func toTaskResponse(t model.Task) model.TaskResponse {
	return model.TaskResponse{
		ID:          t.ID,
		Title:       t.Title,
		Description: t.Description,
		Start:       t.Start,
		End:         t.End,
		AllDay:      t.AllDay,
		Status:      t.Status,
		UpdatedAt:   t.UpdatedAt,
	}
}
