package handler

import (
	"context"
	"errors"
	"log/slog"
	"mime"
	"net/http"
	"time"

	"github.com/daybook/daybook-go/internal/crypto"
	"github.com/daybook/daybook-go/internal/middleware"
	"github.com/daybook/daybook-go/internal/model"
	"github.com/daybook/daybook-go/internal/service"
	"github.com/daybook/daybook-go/internal/session"
)

// Authenticator is the auth behaviour the handlers depend on.
type Authenticator interface {
	Signup(ctx context.Context, req model.SignupRequest) (service.Session, error)
	Login(ctx context.Context, req model.LoginRequest) (service.Session, error)
	GetUser(ctx context.Context, userID string) (*model.User, error)
}

// AuthHandler handles HTTP requests for authentication and the session.
type AuthHandler struct {
	service  Authenticator
	sessions *session.Store
}

// NewAuthHandler creates a new AuthHandler.
func NewAuthHandler(svc Authenticator, sessions *session.Store) *AuthHandler {
	return &AuthHandler{service: svc, sessions: sessions}
}

// HandleSignup handles POST /signup requests.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req model.SignupRequest
	if !decodeCredentials(w, r, &req, func(get func(string) string) {
		req = model.SignupRequest{
			Email:           get("email"),
			Password:        get("password"),
			ConfirmPassword: get("confirmPassword"),
			Name:            get("name"),
		}
	}) {
		return
	}

	sess, err := h.service.Signup(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	h.establish(w, r, http.StatusCreated, sess)
}

// HandleLogin handles POST /login requests.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req model.LoginRequest
	if !decodeCredentials(w, r, &req, func(get func(string) string) {
		req = model.LoginRequest{Email: get("email"), Password: get("password")}
	}) {
		return
	}

	sess, err := h.service.Login(r.Context(), req)
	if err != nil {
		h.writeAuthError(w, r, err)
		return
	}

	h.establish(w, r, http.StatusOK, sess)
}

// HandleLogout handles POST /logout requests.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	h.sessions.Clear(w)
	http.Redirect(w, r, middleware.LoginPath, http.StatusSeeOther)
}

// HandleMe handles GET /api/me requests. The profile cookie is re-set when
// it no longer matches the stored user.
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), cur.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			rejectSession(w, h.sessions)
			return
		}
		writeInternal(w, r, err)
		return
	}

	fresh := user.Profile()
	snapshot, err := h.sessions.Profile(r)
	if err != nil || !sameProfile(snapshot, fresh) {
		if err := h.sessions.RefreshProfile(w, cur, fresh); err != nil {
			writeInternal(w, r, err)
			return
		}
	}

	writeJSON(w, http.StatusOK, fresh)
}

// HandleStreak handles GET /api/streak requests.
func (h *AuthHandler) HandleStreak(w http.ResponseWriter, r *http.Request) {
	cur, ok := currentSession(w, r)
	if !ok {
		return
	}

	user, err := h.service.GetUser(r.Context(), cur.UserID)
	if err != nil {
		if errors.Is(err, service.ErrUserNotFound) {
			rejectSession(w, h.sessions)
			return
		}
		writeInternal(w, r, err)
		return
	}

	p := user.Profile()
	writeJSON(w, http.StatusOK, map[string]any{
		"streak":         p.Streak,
		"lastActiveDate": p.LastActiveDate,
	})
}

func (h *AuthHandler) establish(w http.ResponseWriter, r *http.Request, status int, sess service.Session) {
	profile := sess.User.Profile()
	if err := h.sessions.Set(w, sess.Token.Value, sess.Token.ExpiresAt, profile); err != nil {
		writeInternal(w, r, err)
		return
	}
	writeJSON(w, status, model.AuthResponse{User: profile, Redirect: middleware.HomePath})
}

func (h *AuthHandler) writeAuthError(w http.ResponseWriter, r *http.Request, err error) {
	if writeValidation(w, err) {
		return
	}
	switch {
	case errors.Is(err, service.ErrInvalidCredentials):
		writeJSON(w, http.StatusUnauthorized, errorResponse("Invalid email or password"))
	case errors.Is(err, service.ErrEmailTaken):
		writeJSON(w, http.StatusConflict, errorResponse("Email already registered"))
	case errors.Is(err, crypto.ErrPasswordTooLong):
		writeJSON(w, http.StatusBadRequest, map[string]string{"error": "Password is too long", "field": "password"})
	case errors.Is(err, crypto.ErrMissingSecret):
		slog.Error("session signing secret is not configured")
		writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
	default:
		writeInternal(w, r, err)
	}
}

// decodeCredentials reads a JSON body into v, or a form body through fromForm.
func decodeCredentials(w http.ResponseWriter, r *http.Request, v any, fromForm func(get func(string) string)) bool {
	mediaType, _, _ := mime.ParseMediaType(r.Header.Get("Content-Type"))
	switch mediaType {
	case "application/x-www-form-urlencoded":
		r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
		if err := r.ParseForm(); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse("invalid form body"))
			return false
		}
		fromForm(r.PostForm.Get)
		return true
	case "multipart/form-data":
		if err := r.ParseMultipartForm(maxBodyBytes); err != nil {
			writeJSON(w, http.StatusBadRequest, errorResponse("invalid form body"))
			return false
		}
		fromForm(r.PostForm.Get)
		return true
	}
	return decodeJSON(w, r, v)
}

func sameProfile(a, b model.Profile) bool {
	if a.ID != b.ID || a.Email != b.Email || a.Name != b.Name || a.Streak != b.Streak {
		return false
	}
	if a.LastActiveDate == nil || b.LastActiveDate == nil {
		return a.LastActiveDate == nil && b.LastActiveDate == nil
	}
	return a.LastActiveDate.Truncate(time.Millisecond).Equal(b.LastActiveDate.Truncate(time.Millisecond))
}
