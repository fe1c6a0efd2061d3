package handler

import (
	"context"
	"errors"
	"net/http"

	"github.com/daybook/daybook-go/internal/model"
	"github.com/daybook/daybook-go/internal/service"
	"github.com/daybook/daybook-go/internal/session"
)

// UserGetter loads the acting user.
type UserGetter interface {
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// StatsProvider summarises a user's tasks.
type StatsProvider interface {
	Stats(ctx context.Context, userID string) (model.TaskStats, error)
}

// HomeHandler serves the dashboard.
type HomeHandler struct {
	users    UserGetter
	tasks    StatsProvider
	sessions *session.Store
}

// NewHomeHandler creates a new HomeHandler.
func NewHomeHandler(users UserGetter, tasks StatsProvider, sessions *session.Store) *HomeHandler {
	return &HomeHandler{users: users, tasks: tasks, sessions: sessions}
}

// HandleHome handles GET / requests.
func (h *HomeHandler) HandleHome(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	user, err := h.users.GetUser(r.Context(), cur.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			rejectSession(w, h.sessions)
			return
		}
		writeInternal(w, r, err)
		return
	}

	stats, err := h.tasks.Stats(r.Context(), cur.UserID)
	if err != nil {
		writeInternal(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, model.Dashboard{User: user.Profile(), Stats: stats})
}
