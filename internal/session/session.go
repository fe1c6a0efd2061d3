// Package session keeps the signed token and the profile snapshot in two
// cookies that are always set and cleared together.
package session

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"net/http"
	"net/url"
	"strings"
	"time"

	"github.com/daybook/daybook-go/internal/model"
)

const (
	TokenCookie   = "token"
	ProfileCookie = "user"
)

var (
	ErrNoProfile        = errors.New("profile cookie not present")
	ErrMalformedSession = errors.New("malformed session profile")
)

// Current is the authenticated session resolved by the auth gateway for one
// request. Only the verified token contributes to it.
type Current struct {
	UserID    string
	Token     string
	ExpiresAt time.Time
}

type contextKey struct{}

// WithCurrent returns a copy of ctx carrying cur.
func WithCurrent(ctx context.Context, cur Current) context.Context {
	return context.WithValue(ctx, contextKey{}, cur)
}

// FromContext returns the session stored by WithCurrent.
func FromContext(ctx context.Context) (Current, bool) {
	cur, ok := ctx.Value(contextKey{}).(Current)
	return cur, ok
}

// Store writes and reads the session cookies.
type Store struct {
	secure bool
	now    func() time.Time
}

// NewStore creates a Store. In production cookies are Secure and
// SameSite=Strict.
func NewStore(production bool) *Store {
	return &Store{secure: production, now: time.Now}
}

// Set writes both cookies with the same expiry.
func (s *Store) Set(w http.ResponseWriter, token string, expiresAt time.Time, p model.Profile) error {
	value, err := encodeProfile(p)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(TokenCookie, token, expiresAt, true))
	http.SetCookie(w, s.cookie(ProfileCookie, value, expiresAt, false))
	return nil
}

// RefreshProfile re-sets the profile cookie for the session in cur, keeping
// the token's expiry.
func (s *Store) RefreshProfile(w http.ResponseWriter, cur Current, p model.Profile) error {
	value, err := encodeProfile(p)
	if err != nil {
		return err
	}
	http.SetCookie(w, s.cookie(ProfileCookie, value, cur.ExpiresAt, false))
	return nil
}

// Clear expires both cookies.
func (s *Store) Clear(w http.ResponseWriter) {
	for _, name := range []string{TokenCookie, ProfileCookie} {
		c := s.cookie(name, "", time.Unix(0, 0), name == TokenCookie)
		c.MaxAge = -1
		http.SetCookie(w, c)
	}
}

// Token returns the raw token cookie value, or "" if absent.
func (s *Store) Token(r *http.Request) string {
	c, err := r.Cookie(TokenCookie)
	if err != nil {
		return ""
	}
	return c.Value
}

// Profile decodes the profile cookie. It returns ErrNoProfile when the
// cookie is absent and ErrMalformedSession when it cannot be decoded into a
// complete snapshot.
func (s *Store) Profile(r *http.Request) (model.Profile, error) {
	c, err := r.Cookie(ProfileCookie)
	if err != nil {
		return model.Profile{}, ErrNoProfile
	}
	return decodeProfile(c.Value)
}

func (s *Store) cookie(name, value string, expiresAt time.Time, httpOnly bool) *http.Cookie {
	c := &http.Cookie{
		Name:     name,
		Value:    value,
		Path:     "/",
		Expires:  expiresAt,
		HttpOnly: httpOnly,
		Secure:   s.secure,
		SameSite: http.SameSiteLaxMode,
	}
	if s.secure {
		c.SameSite = http.SameSiteStrictMode
	}
	if !expiresAt.IsZero() {
		if maxAge := int(expiresAt.Sub(s.now()).Seconds()); maxAge > 0 {
			c.MaxAge = maxAge
		}
	}
	return c
}

func encodeProfile(p model.Profile) (string, error) {
	raw, err := json.Marshal(p)
	if err != nil {
		return "", err
	}
	return url.PathEscape(string(raw)), nil
}

func decodeProfile(value string) (model.Profile, error) {
	raw, err := url.PathUnescape(value)
	if err != nil {
		return model.Profile{}, ErrMalformedSession
	}

	var p model.Profile
	dec := json.NewDecoder(strings.NewReader(raw))
	dec.DisallowUnknownFields()
	if err := dec.Decode(&p); err != nil {
		return model.Profile{}, ErrMalformedSession
	}
	if _, err := dec.Token(); err != io.EOF {
		return model.Profile{}, ErrMalformedSession
	}
	if p.ID == "" || p.Email == "" || p.Streak < 0 {
		return model.Profile{}, ErrMalformedSession
	}
	return p, nil
}
