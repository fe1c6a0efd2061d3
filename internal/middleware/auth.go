package middleware

import (
	"encoding/json"
	"errors"
	"log/slog"
	"net/http"
	"strings"

	"github.com/daybook/daybook-go/internal/crypto"
	"github.com/daybook/daybook-go/internal/session"
)

const (
	LoginPath = "/login"
	HomePath  = "/"
)

var publicPrefixes = []string{"/login", "/signup"}

var skippedPrefixes = []string{"/static/", "/favicon.ico", "/health"}

// TokenVerifier verifies a session token.
type TokenVerifier interface {
	Verify(token string) (*crypto.Claims, error)
}

// Gateway returns middleware that routes every request by path type and
// token state:
//
//	public    + valid token   -> redirect to /
//	public    + no/bad token  -> allow
//	protected + valid token   -> allow, with session.Current in the context
//	protected + no/bad token  -> redirect to /login
//
// It only reads cookies. A missing signing secret fails the request with 500.
func Gateway(verifier TokenVerifier, sessions *session.Store) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			path := r.URL.Path
			if hasAnyPrefix(path, skippedPrefixes) {
				next.ServeHTTP(w, r)
				return
			}

			cur, valid, err := resolveSession(verifier, sessions, r)
			if err != nil {
				slog.Error("verifying session token", "path", path, "error", err)
				writeJSONError(w, http.StatusInternalServerError, "internal server error")
				return
			}

			if hasAnyPrefix(path, publicPrefixes) {
				if valid {
					redirect(w, r, HomePath)
					return
				}
				next.ServeHTTP(w, r)
				return
			}

			if !valid {
				redirect(w, r, LoginPath)
				return
			}

			next.ServeHTTP(w, r.WithContext(session.WithCurrent(r.Context(), cur)))
		})
	}
}

// resolveSession verifies the token cookie. An absent or invalid token is not
// an error; only configuration failures are returned.
func resolveSession(verifier TokenVerifier, sessions *session.Store, r *http.Request) (session.Current, bool, error) {
	token := sessions.Token(r)
	if token == "" {
		return session.Current{}, false, nil
	}

	claims, err := verifier.Verify(token)
	if err != nil {
		if errors.Is(err, crypto.ErrMissingSecret) {
			return session.Current{}, false, err
		}
		return session.Current{}, false, nil
	}
	if claims.UserID == "" || claims.ExpiresAt == nil {
		return session.Current{}, false, nil
	}

	return session.Current{
		UserID:    claims.UserID,
		Token:     token,
		ExpiresAt: claims.ExpiresAt.Time,
	}, true, nil
}

// redirect uses 307 for safe methods and 303 otherwise so a form POST lands
// on a GET of the target.
func redirect(w http.ResponseWriter, r *http.Request, target string) {
	code := http.StatusTemporaryRedirect
	if r.Method != http.MethodGet && r.Method != http.MethodHead {
		code = http.StatusSeeOther
	}
	http.Redirect(w, r, target, code)
}

func hasAnyPrefix(path string, prefixes []string) bool {
	for _, p := range prefixes {
		if strings.HasPrefix(path, p) {
			return true
		}
	}
	return false
}

func writeJSONError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}
