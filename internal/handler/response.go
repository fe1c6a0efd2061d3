package handler

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"

	"github.com/daybook/daybook-go/internal/session"
	"github.com/daybook/daybook-go/internal/validate"
)

const maxBodyBytes = 1 << 20 // 1MB

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(v)
}

func errorResponse(msg string) map[string]string {
	return map[string]string{"error": msg}
}

func fieldErrorResponse(verr *validate.Error) map[string]string {
	return map[string]string{"error": verr.Message, "field": verr.Field}
}

// decodeJSON reads a JSON body into v. On failure it writes the response
// and returns false.
func decodeJSON(w http.ResponseWriter, r *http.Request, v any) bool {
	r.Body = http.MaxBytesReader(w, r.Body, maxBodyBytes)
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		var tooLarge *http.MaxBytesError
		if errors.As(err, &tooLarge) {
			writeJSON(w, http.StatusRequestEntityTooLarge, errorResponse("request body too large"))
			return false
		}
		writeJSON(w, http.StatusBadRequest, errorResponse("invalid request body"))
		return false
	}
	return true
}

// writeValidation writes a 400 for a validation failure and reports whether
// err was one.
func writeValidation(w http.ResponseWriter, err error) bool {
	var verr *validate.Error
	if errors.As(err, &verr) {
		writeJSON(w, http.StatusBadRequest, fieldErrorResponse(verr))
		return true
	}
	return false
}

func writeInternal(w http.ResponseWriter, r *http.Request, err error) {
	slog.Error("request failed", "method", r.Method, "path", r.URL.Path, "error", err)
	writeJSON(w, http.StatusInternalServerError, errorResponse("internal server error"))
}

// currentSession returns the session placed in the context by the gateway,
// writing a 401 when there is none.
func currentSession(w http.ResponseWriter, r *http.Request) (session.Current, bool) {
	cur, ok := session.FromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusUnauthorized, errorResponse("unauthorized"))
	}
	return cur, ok
}

// rejectSession clears the cookies of a session whose user no longer exists.
func rejectSession(w http.ResponseWriter, sessions *session.Store) {
	sessions.Clear(w)
	writeJSON(w, http.StatusUnauthorized, errorResponse("session is no longer valid"))
}
